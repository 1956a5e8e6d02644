package value

import (
	"bytes"
	"testing"
)

// recorder is a Writer that just appends to a buffer, with no chunk
// framing: value encoding tests operate one level below the chunker.
type recorder struct {
	buf bytes.Buffer
}

func (r *recorder) WriteFramed(p []byte) (int, error) {
	return r.buf.Write(p)
}

func TestWriteTypeByte(t *testing.T) {
	tests := []struct {
		name                          string
		kind                          uint8
		dflt, userType, unresolved    bool
		want                          byte
	}{
		{"plain", 5, false, false, false, 5},
		{"default", 5, true, false, false, 5 | FlagDefault},
		{"user type", 5, false, true, false, 5 | FlagUserType},
		{"unresolved", 5, false, false, true, 5 | FlagUnresolved},
		{"all flags", 0x1f, true, true, true, 0x1f | FlagDefault | FlagUserType | FlagUnresolved},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r recorder
			if err := WriteTypeByte(&r, tt.kind, tt.dflt, tt.userType, tt.unresolved); err != nil {
				t.Fatal(err)
			}
			if got := r.buf.Bytes(); len(got) != 1 || got[0] != tt.want {
				t.Errorf("got % x, want %02x", got, tt.want)
			}
		})
	}
}

func TestWriteRawString(t *testing.T) {
	var r recorder
	if err := WriteRawString(&r, "hello"); err != nil {
		t.Fatal(err)
	}
	if got := r.buf.String(); got != "hello" {
		t.Errorf("got %q, want %q", got, "hello")
	}
}

func TestWriteLengthPrefixedString(t *testing.T) {
	var r recorder
	if err := WriteLengthPrefixedString(&r, "ab"); err != nil {
		t.Fatal(err)
	}
	want := []byte{2, 0, 'a', 'b'}
	if got := r.buf.Bytes(); !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}
}

func TestWriteLengthPrefixedStringTooLong(t *testing.T) {
	var r recorder
	if err := WriteLengthPrefixedString(&r, string(make([]byte, 0x10000))); err == nil {
		t.Fatal("expected error for a string over 65535 bytes")
	}
}

func TestNumberWidth(t *testing.T) {
	tests := []struct {
		max  uint64
		want int
	}{
		{0, 0},
		{1, 1},
		{255, 1},
		{256, 2},
		{65535, 2},
		{65536, 3},
		{1<<32 - 1, 4},
		{1 << 32, 5},
	}
	for _, tt := range tests {
		if got := numberWidth(tt.max); got != tt.want {
			t.Errorf("numberWidth(%d) = %d, want %d", tt.max, got, tt.want)
		}
	}
}

func TestWriteNumberMinimumWidth(t *testing.T) {
	var r recorder
	// max=300 needs 2 bytes; n=7 should still be written as 2
	// little-endian bytes, not truncated to 1.
	if err := WriteNumber(&r, 7, 300); err != nil {
		t.Fatal(err)
	}
	want := []byte{7, 0}
	if got := r.buf.Bytes(); !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}
}

func TestWriteFixedWidths(t *testing.T) {
	tests := []struct {
		n     uint64
		width int
		want  []byte
	}{
		{0x12, 1, []byte{0x12}},
		{0x1234, 2, []byte{0x34, 0x12}},
		{0x12345678, 4, []byte{0x78, 0x56, 0x34, 0x12}},
		{0x0102030405060708, 8, []byte{8, 7, 6, 5, 4, 3, 2, 1}},
	}
	for _, tt := range tests {
		var r recorder
		if err := WriteFixed(&r, tt.n, tt.width); err != nil {
			t.Fatal(err)
		}
		if got := r.buf.Bytes(); !bytes.Equal(got, tt.want) {
			t.Errorf("WriteFixed(%x, %d) = % x, want % x", tt.n, tt.width, got, tt.want)
		}
	}
}

func TestWriteBool(t *testing.T) {
	var r recorder
	if err := WriteBool(&r, true); err != nil {
		t.Fatal(err)
	}
	if err := WriteBool(&r, false); err != nil {
		t.Fatal(err)
	}
	want := []byte{1, 0}
	if got := r.buf.Bytes(); !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}
}

func TestWriteBitsLSBFirst(t *testing.T) {
	var r recorder
	// bits[0] and bits[8] set: byte 0 bit 0, byte 1 bit 0.
	bits := make([]bool, 9)
	bits[0] = true
	bits[8] = true
	if err := WriteBits(&r, bits); err != nil {
		t.Fatal(err)
	}
	want := []byte{0x01, 0x01}
	if got := r.buf.Bytes(); !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}
}

func TestWriteBitsUnusedHighBitsZero(t *testing.T) {
	var r recorder
	bits := []bool{true, false, true} // byte 0: bits 0 and 2 set
	if err := WriteBits(&r, bits); err != nil {
		t.Fatal(err)
	}
	want := []byte{0x05}
	if got := r.buf.Bytes(); !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}
}
