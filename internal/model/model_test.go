package model

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type recorder struct {
	buf bytes.Buffer
}

func (r *recorder) WriteFramed(p []byte) (int, error) {
	return r.buf.Write(p)
}

func TestCloseIncludesTopLevelModules(t *testing.T) {
	all := []Info{
		{Name: "a"},
		{Name: "b"},
	}
	got := Close([]string{"b", "a"}, all)
	want := []Info{{Name: "b"}, {Name: "a"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Close() mismatch (-want +got):\n%s", diff)
	}
}

func TestCloseAddsAugmentingModule(t *testing.T) {
	all := []Info{
		{Name: "base"},
		{Name: "aug", AugmentTargets: []string{"base"}},
		{Name: "unrelated"},
	}
	got := Close([]string{"base"}, all)
	want := []Info{{Name: "base"}, {Name: "aug", AugmentTargets: []string{"base"}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Close() mismatch (-want +got):\n%s", diff)
	}
}

func TestCloseAddsDeviatingModule(t *testing.T) {
	all := []Info{
		{Name: "base"},
		{Name: "dev", DeviationTargets: []string{"base"}},
	}
	got := Close([]string{"base"}, all)
	want := []Info{{Name: "base"}, {Name: "dev", DeviationTargets: []string{"base"}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Close() mismatch (-want +got):\n%s", diff)
	}
}

func TestCloseIsSinglePassNotFixedPoint(t *testing.T) {
	// "c" only augments "b", and "b" only becomes part of the set because
	// it augments "base" — but "b" appears *after* "c" in context order,
	// so a single left-to-right pass must not include "c": it is not a
	// fixed-point closure.
	all := []Info{
		{Name: "base"},
		{Name: "c", AugmentTargets: []string{"b"}},
		{Name: "b", AugmentTargets: []string{"base"}},
	}
	got := Close([]string{"base"}, all)
	want := []Info{{Name: "base"}, {Name: "b", AugmentTargets: []string{"base"}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Close() mismatch (-want +got):\n%s", diff)
	}
}

func TestCloseAddsModuleViaSubmoduleAugment(t *testing.T) {
	// "aug" itself carries no augments; only its included submodule
	// "aug-sub" augments "base". The module ("aug"), not the submodule,
	// must be the one added to the registry.
	all := []Info{
		{Name: "base"},
		{Name: "aug", Submodules: []Info{
			{Name: "aug-sub", AugmentTargets: []string{"base"}},
		}},
	}
	got := Close([]string{"base"}, all)
	want := []Info{{Name: "base"}, all[1]}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Close() mismatch (-want +got):\n%s", diff)
	}
}

func TestCloseDedupsByName(t *testing.T) {
	all := []Info{{Name: "a"}}
	got := Close([]string{"a", "a"}, all)
	if len(got) != 1 {
		t.Errorf("got %d entries, want 1 (deduped)", len(got))
	}
}

func TestPackRevision(t *testing.T) {
	tests := []struct {
		m    Info
		want uint16
	}{
		{Info{}, 0},
		{Info{Year: 2019, Month: 2, Day: 20}, uint16(19)<<9 | uint16(2)<<5 | uint16(20)},
		{Info{Year: 2000, Month: 1, Day: 1}, uint16(0)<<9 | uint16(1)<<5 | uint16(1)},
	}
	for _, tt := range tests {
		if got := PackRevision(tt.m); got != tt.want {
			t.Errorf("PackRevision(%+v) = %016b, want %016b", tt.m, got, tt.want)
		}
	}
}

func TestWriteRegistry(t *testing.T) {
	var r recorder
	models := []Info{
		{Name: "ab", Year: 2020, Month: 3, Day: 4},
		{Name: "c"},
	}
	if err := WriteRegistry(&r, models); err != nil {
		t.Fatal(err)
	}
	want := []byte{
		2, 0, // count
		2, 0, 'a', 'b', // name "ab"
		byte((uint16(20)<<9 | uint16(3)<<5 | uint16(4)) & 0xff), byte((uint16(20)<<9 | uint16(3)<<5 | uint16(4)) >> 8),
		1, 0, 'c', // name "c"
		0, 0, // no revision
	}
	if got := r.buf.Bytes(); !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}
}

func TestWriteOne(t *testing.T) {
	var r recorder
	if err := WriteOne(&r, Info{Name: "x"}); err != nil {
		t.Fatal(err)
	}
	want := []byte{1, 0, 'x', 0, 0}
	if got := r.buf.Bytes(); !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}
}
