// Package hash implements the LYB schema-node identity compression scheme
// (spec §4.3): a per-parent table assigning each schema child a 1-byte
// hash tag, built by trying a family of hash functions h_0..h_{Bits-1}
// and resolving collisions by requiring an increasingly long matching
// prefix of the hash sequence before two siblings are allowed to share a
// slot.
//
// The insertion and lookup algorithms are ported close to verbatim from
// the original C encoder's lyb_hash_siblings/lyb_hash_sequence_check/
// lyb_hash_find (original_source/src/printer_lyb.c); the hash family
// itself (not present in the retrieved original source, which ends at
// the printer, not the header defining lyb_hash) is our own, built from
// hash/fnv the way the teacher's diffutil package builds content hashes
// for dedup.
package hash

import (
	"encoding/binary"
	"hash/fnv"

	"golang.org/x/exp/slices"
	"golang.org/x/xerrors"
)

// Bits is the number of hash functions in the family, and so the number
// of distinct collision ids a single byte can encode (one per bit
// position).
const Bits = 8

// ErrExhausted is returned when a sibling cannot be placed at any
// collision id: the schema is pathological (spec §7, "exhausted
// collision ids"). FindTag also returns it for a sibling that is absent
// from the table.
var ErrExhausted = xerrors.New("lyb: hash: exhausted collision ids")

// Sibling is the minimal identity the hash table needs: a module/name
// pair to seed the hash family, with Go interface equality standing in
// for the original's lyb_ptr_equal_cb: the concrete type must compare
// equal only for the same schema node (a pointer, or a struct holding
// one).
type Sibling interface {
	Module() string
	Name() string
}

// H computes h_k(s): a byte with bit (Bits-1-k) set and all higher bits
// clear, the remaining low bits carrying a hash of (module, name, k).
// The set bit guarantees H never returns 0, matching the format's
// requirement that a zero hash is an internal error.
func H(s Sibling, k int) byte {
	if k < 0 || k >= Bits {
		panic("lyb: hash: collision id out of range")
	}
	bitPos := uint(Bits - 1 - k)
	mask := byte(1<<bitPos - 1)

	f := fnv.New32a()
	f.Write([]byte(s.Module()))
	f.Write([]byte{0})
	f.Write([]byte(s.Name()))
	f.Write([]byte{0})
	var kb [4]byte
	binary.LittleEndian.PutUint32(kb[:], uint32(k))
	f.Write(kb[:])

	sum := f.Sum32()
	payload := byte(sum^sum>>8^sum>>16^sum>>24) & mask
	return payload | (1 << bitPos)
}

// Table is a memoized per-parent sibling hash table (spec §4.3): built
// once per distinct first-sibling anchor and reused for every node
// emitted under that parent during one encode.
type Table struct {
	byHash map[byte][]Sibling
}

// BuildTable inserts every sibling in siblings (already filtered down to
// the data-layer sibling set by the caller: structural nodes skipped,
// RPC/RPC-reply branches excluded) in order, assigning each the lowest
// collision id that keeps its hash sequence distinguishable from
// whatever else already occupies that slot.
func BuildTable(siblings []Sibling) (*Table, error) {
	t := &Table{byHash: make(map[byte][]Sibling)}
	for _, s := range siblings {
		i := 0
		for ; i < Bits; i++ {
			blocked := false
			for j := i - 1; j > -1; j-- {
				if t.sequenceCollides(s, j, i) {
					blocked = true
					break
				}
			}
			if blocked {
				continue
			}

			h := H(s, i)
			bucket := t.byHash[h]
			if len(bucket) == 0 {
				t.byHash[h] = append(bucket, s)
				break
			}

			if i > 0 && !t.sequenceCollides(s, i, i) {
				t.byHash[h] = append(bucket, s)
				break
			}
			// slot taken and the whole hash sequence collides: try i+1.
		}
		if i == Bits {
			return nil, xerrors.Errorf("lyb: hash: %s/%s: %w", s.Module(), s.Name(), ErrExhausted)
		}
	}
	return t, nil
}

// sequenceCollides reports whether any sibling already inserted with
// final collision id htColID shares s's full hash sequence
// h_0..h_compareColID.
func (t *Table) sequenceCollides(s Sibling, htColID, compareColID int) bool {
	bucket := t.byHash[H(s, htColID)]
	for _, other := range bucket {
		collide := true
		for j := compareColID; j > -1; j-- {
			if H(other, j) != H(s, j) {
				collide = false
				break
			}
		}
		if collide {
			return true
		}
	}
	return false
}

// FindTag returns the (hash, collisionID) pair s was assigned during
// BuildTable, by pointer identity. It is an internal error for s to be
// absent from t: every node emitted under a parent must first have been
// included in that parent's sibling list.
func FindTag(t *Table, s Sibling) (hash byte, collisionID int, err error) {
	for i := 0; i < Bits; i++ {
		h := H(s, i)
		if slices.ContainsFunc(t.byHash[h], func(o Sibling) bool { return o == s }) {
			return h, i, nil
		}
	}
	return 0, 0, xerrors.Errorf("lyb: hash: %s/%s not found in sibling table: %w", s.Module(), s.Name(), ErrExhausted)
}

// Continuation returns the continuation bytes h_0(s)..h_{collisionID-1}(s)
// that must follow the tag byte whenever collisionID > 0 (spec §4.3's
// "emit" rule): the decoder reads them until it sees one whose own
// collision-id encoding matches its reading index.
func Continuation(s Sibling, collisionID int) []byte {
	if collisionID == 0 {
		return nil
	}
	out := make([]byte, collisionID)
	for j := 0; j < collisionID; j++ {
		out[j] = H(s, j)
	}
	return out
}
