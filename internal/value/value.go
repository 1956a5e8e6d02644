// Package value implements the LYB typed-leaf-value encoder (spec §4.4):
// a single type-and-flags byte followed by a type-specific payload. The
// numeric encodings are ported from the original C encoder's
// lyb_write_number/lyb_print_value (original_source/src/printer_lyb.c);
// fixed-width integers use encoding/binary the same way
// internal/squashfs/writer.go does for its on-disk structures.
package value

import (
	"encoding/binary"

	"golang.org/x/xerrors"
)

// Writer is the narrow capability this package needs: writing payload
// bytes through the enclosing chunk framing.
type Writer interface {
	WriteFramed(p []byte) (int, error)
}

// Flag bits of the type-and-flags byte (spec §4.4): ABCDDDDD.
const (
	FlagDefault    = 1 << 7 // A
	FlagUserType   = 1 << 6 // B
	FlagUnresolved = 1 << 5 // C
	KindMask       = 0x1f   // D (5 bits)
)

// ErrStringTooLong is returned when a length-prefixed string exceeds the
// 65535-byte limit the 2-byte length prefix can express.
var ErrStringTooLong = xerrors.New("lyb: value: string exceeds 65535 bytes")

// WriteTypeByte writes the ABCDDDDD type-and-flags byte.
func WriteTypeByte(w Writer, kind uint8, dflt, userType, unresolved bool) error {
	b := kind & KindMask
	if dflt {
		b |= FlagDefault
	}
	if userType {
		b |= FlagUserType
	}
	if unresolved {
		b |= FlagUnresolved
	}
	_, err := w.WriteFramed([]byte{b})
	return err
}

// WriteRawString writes s with no length prefix; the enclosing chunk
// framing (and, ultimately, the subtree's own close) terminates it.
func WriteRawString(w Writer, s string) error {
	_, err := w.WriteFramed([]byte(s))
	return err
}

// WriteLengthPrefixedString writes a 2-byte little-endian length followed
// by s's raw bytes. Used for model names and annotation names (spec
// §4.6), not for leaf values (which are length-less, spec §4.4).
func WriteLengthPrefixedString(w Writer, s string) error {
	if len(s) > 0xffff {
		return xerrors.Errorf("lyb: value: %d bytes: %w", len(s), ErrStringTooLong)
	}
	var hdr [2]byte
	binary.LittleEndian.PutUint16(hdr[:], uint16(len(s)))
	if _, err := w.WriteFramed(hdr[:]); err != nil {
		return err
	}
	return WriteRawString(w, s)
}

// WriteNumber writes the minimum number of little-endian bytes needed to
// hold max (spec §4.4's variable-width integer): ceil(bitLength(max)/8).
func WriteNumber(w Writer, n uint64, max uint64) error {
	nbytes := numberWidth(max)
	buf := make([]byte, nbytes)
	v := n
	for i := range buf {
		buf[i] = byte(v)
		v >>= 8
	}
	_, err := w.WriteFramed(buf)
	return err
}

// numberWidth mirrors lyb_write_number's width selection exactly: a
// zero-valued max (an enum/bits field with a single possible value, whose
// index range is [0,0]) needs zero bits to distinguish it and so writes
// zero bytes, not a spurious minimum of one.
func numberWidth(max uint64) int {
	bits := 0
	for ; max != 0; max >>= 1 {
		bits++
	}
	return (bits + 7) / 8
}

// WriteFixed writes n as exactly width little-endian bytes (for the
// fixed-width int8..uint64/decimal64 kinds, whose width is determined by
// the type itself, not by write_number's max-value trick).
func WriteFixed(w Writer, n uint64, width int) error {
	buf := make([]byte, width)
	v := n
	for i := range buf {
		buf[i] = byte(v)
		v >>= 8
	}
	_, err := w.WriteFramed(buf)
	return err
}

// WriteBool writes a single 0x00/0x01 byte.
func WriteBool(w Writer, b bool) error {
	v := byte(0)
	if b {
		v = 1
	}
	_, err := w.WriteFramed([]byte{v})
	return err
}

// WriteBits packs bits into ceil(len(bits)/8) bytes. Design intent (spec
// §9): LSB-first within each byte, unused high bits of the final byte
// zero. Bit i of the logical bitfield lands in byte i/8, bit position
// i%8 (0 = least significant).
func WriteBits(w Writer, bits []bool) error {
	n := (len(bits) + 7) / 8
	buf := make([]byte, n)
	for i, set := range bits {
		if !set {
			continue
		}
		buf[i/8] |= 1 << uint(i%8)
	}
	_, err := w.WriteFramed(buf)
	return err
}
