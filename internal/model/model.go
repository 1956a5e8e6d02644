// Package model implements the LYB model registry writer (spec §4.6):
// computing the closure of modules that may appear in an encode and
// serializing it as a length-prefixed list of (name, packed revision)
// pairs ahead of any data subtree.
//
// Grounded on the original C encoder's lyb_print_data_models/add_model/
// is_added_model/lyb_print_model (original_source/src/printer_lyb.c):
// the single-pass closure-by-augment-or-deviation-target and the
// 16-bit revision packing are ported as described there.
package model

import (
	"encoding/binary"

	"golang.org/x/xerrors"

	"github.com/distr1/lyb/internal/value"
)

// Writer is the narrow capability this package needs.
type Writer interface {
	WriteFramed(p []byte) (int, error)
}

// ErrTooMany is returned when the registry would need more than 65535
// entries to represent (the 2-byte LE count field cannot express it).
var ErrTooMany = xerrors.New("lyb: model: registry too large")

// Info describes one module for registry purposes: its name, optional
// revision date, and the targets of whatever augments or deviations it
// (or any submodule it includes) defines, by module name, used to
// compute the closure in Close.
//
// A module without its own augments/deviations (the overwhelming common
// case) simply leaves AugmentTargets/DeviationTargets nil.
type Info struct {
	Name             string
	Year, Month, Day int // zero Year means "no revision"

	AugmentTargets   []string
	DeviationTargets []string

	// Submodules lists the modules included by this one, each carrying
	// its own AugmentTargets/DeviationTargets. A module is pulled into
	// the registry if it, or any of its submodules, augments or deviates
	// a module already in the set (spec §4.6); the submodules themselves
	// are never added to the registry as separate entries, matching
	// is_added_model/add_model's "mod" (never "submod") insertion.
	Submodules []Info
}

// Close computes the module closure (spec §4.6): starting from the
// modules defining every top-level data node, add any module (from all,
// in the order given — "context-enumeration order") whose augment or
// deviation targets a module already in the set. This is a single pass,
// not a fixed point: a module that would only qualify via another module
// added later in the same pass is not included, matching the original's
// single left-to-right scan.
func Close(topLevel []string, all []Info) []Info {
	byName := make(map[string]Info, len(all))
	for _, m := range all {
		byName[m.Name] = m
	}

	inSet := make(map[string]bool)
	var out []Info
	add := func(name string) {
		if inSet[name] {
			return
		}
		inSet[name] = true
		if m, ok := byName[name]; ok {
			out = append(out, m)
		} else {
			out = append(out, Info{Name: name})
		}
	}

	for _, name := range topLevel {
		add(name)
	}

	for _, m := range all {
		if inSet[m.Name] {
			continue
		}
		if hasTargetInSet(m, inSet) {
			add(m.Name)
			continue
		}
		for _, sub := range m.Submodules {
			if hasTargetInSet(sub, inSet) {
				add(m.Name)
				break
			}
		}
	}

	return out
}

// hasTargetInSet reports whether m augments or deviates a module already
// in inSet.
func hasTargetInSet(m Info, inSet map[string]bool) bool {
	for _, t := range m.AugmentTargets {
		if inSet[t] {
			return true
		}
	}
	for _, t := range m.DeviationTargets {
		if inSet[t] {
			return true
		}
	}
	return false
}

// WriteOne writes a single module's length-prefixed name and 2-byte
// packed revision, with no enclosing count — the "single model form"
// used by the tree walker to stamp each top-level subtree with its
// defining module (spec §4.7 step 3).
func WriteOne(w Writer, m Info) error {
	if err := value.WriteLengthPrefixedString(w, m.Name); err != nil {
		return xerrors.Errorf("lyb: model: writing name %q: %w", m.Name, err)
	}
	var rev [2]byte
	binary.LittleEndian.PutUint16(rev[:], PackRevision(m))
	_, err := w.WriteFramed(rev[:])
	if err != nil {
		return xerrors.Errorf("lyb: model: writing revision for %q: %w", m.Name, err)
	}
	return nil
}

// PackRevision packs m's revision date into the 16-bit yyyyyyymmmmddddd
// layout (7-bit year offset from 2000, 4-bit month, 5-bit day); an
// absent revision (Year == 0) packs to 0.
func PackRevision(m Info) uint16 {
	if m.Year == 0 {
		return 0
	}
	yo := m.Year - 2000
	return uint16(yo&0x7f)<<9 | uint16(m.Month&0xf)<<5 | uint16(m.Day&0x1f)
}

// WriteRegistry writes the 2-byte count followed by each module's
// length-prefixed name and 2-byte packed revision, in the order given.
func WriteRegistry(w Writer, models []Info) error {
	if len(models) > 0xffff {
		return xerrors.Errorf("lyb: model: %d modules: %w", len(models), ErrTooMany)
	}

	var count [2]byte
	binary.LittleEndian.PutUint16(count[:], uint16(len(models)))
	if _, err := w.WriteFramed(count[:]); err != nil {
		return xerrors.Errorf("lyb: model: writing count: %w", err)
	}

	for _, m := range models {
		if err := value.WriteLengthPrefixedString(w, m.Name); err != nil {
			return xerrors.Errorf("lyb: model: writing name %q: %w", m.Name, err)
		}
		var rev [2]byte
		binary.LittleEndian.PutUint16(rev[:], PackRevision(m))
		if _, err := w.WriteFramed(rev[:]); err != nil {
			return xerrors.Errorf("lyb: model: writing revision for %q: %w", m.Name, err)
		}
	}
	return nil
}
