package hash

import (
	"fmt"
	"testing"
)

type sib struct {
	module, name string
}

func (s *sib) Module() string { return s.module }
func (s *sib) Name() string   { return s.name }

func TestHNeverZero(t *testing.T) {
	s := &sib{"m", "leaf"}
	for k := 0; k < Bits; k++ {
		if H(s, k) == 0 {
			t.Errorf("H(s, %d) = 0, want non-zero", k)
		}
	}
}

func TestHBitLayoutDisjointAcrossK(t *testing.T) {
	// Each h_k must set exactly bit (Bits-1-k) as its highest set bit, so
	// the value ranges for distinct k never overlap: a bucket lookup for
	// one k can never collide with a different k's hash.
	s := &sib{"mod", "name"}
	for k := 0; k < Bits; k++ {
		h := H(s, k)
		wantBit := uint(Bits - 1 - k)
		for b := wantBit + 1; b < 8; b++ {
			if h&(1<<b) != 0 {
				t.Errorf("H(s, %d) = %08b has a bit set above position %d", k, h, wantBit)
			}
		}
		if h&(1<<wantBit) == 0 {
			t.Errorf("H(s, %d) = %08b does not have bit %d set", k, h, wantBit)
		}
	}
}

func TestBuildTableNoCollisions(t *testing.T) {
	var siblings []Sibling
	for i := 0; i < 20; i++ {
		siblings = append(siblings, &sib{"iana-if-type", fmt.Sprintf("leaf%d", i)})
	}
	table, err := BuildTable(siblings)
	if err != nil {
		t.Fatal(err)
	}
	seen := map[byte]Sibling{}
	for _, s := range siblings {
		h, collisionID, err := FindTag(table, s)
		if err != nil {
			t.Fatalf("FindTag(%v): %v", s, err)
		}
		if other, ok := seen[h]; ok && other != s {
			t.Errorf("hash %02x reused by %v and %v", h, other, s)
		}
		seen[h] = s
		if len(Continuation(s, collisionID)) != collisionID {
			t.Errorf("Continuation length = %d, want %d", len(Continuation(s, collisionID)), collisionID)
		}
	}
}

func TestBuildTableForcedCollision(t *testing.T) {
	// Find a pair of distinct candidate siblings whose h_0 collide but
	// whose full hash family does not (i.e. some h_k along the way
	// differs), forcing BuildTable to assign them different collision
	// ids within the same h_0 bucket — spec §8 scenario 4.
	var a, b *sib
outer:
	for i := 0; i < 500 && a == nil; i++ {
		si := &sib{"m", fmt.Sprintf("n%d", i)}
		for j := i + 1; j < 500; j++ {
			sj := &sib{"m", fmt.Sprintf("n%d", j)}
			if H(si, 0) == H(sj, 0) && si.Name() != sj.Name() {
				a, b = si, sj
				break outer
			}
		}
	}
	if a == nil {
		t.Skip("no h_0 collision found in the search space; hash family distribution changed")
	}

	table, err := BuildTable([]Sibling{a, b})
	if err != nil {
		t.Fatal(err)
	}
	_, colA, err := FindTag(table, a)
	if err != nil {
		t.Fatal(err)
	}
	_, colB, err := FindTag(table, b)
	if err != nil {
		t.Fatal(err)
	}
	if colA == colB {
		t.Fatalf("colliding siblings got the same collision id %d", colA)
	}
	// The earlier-inserted sibling keeps collision id 0.
	if colA != 0 {
		t.Errorf("first-inserted sibling got collision id %d, want 0", colA)
	}
}

func TestFindTagUnknownSibling(t *testing.T) {
	table, err := BuildTable([]Sibling{&sib{"m", "a"}})
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := FindTag(table, &sib{"m", "b"}); err == nil {
		t.Fatal("expected error for a sibling never inserted")
	}
}

func TestContinuationEmptyAtCollisionZero(t *testing.T) {
	if got := Continuation(&sib{"m", "a"}, 0); got != nil {
		t.Errorf("Continuation(_, 0) = % x, want nil", got)
	}
}
