package chunk

import (
	"bytes"
	"io/ioutil"
	"testing"

	"github.com/orcaman/writerseeker"

	"github.com/distr1/lyb/internal/sink"
)

func newState(t *testing.T) (*State, *writerseeker.WriterSeeker) {
	t.Helper()
	buf := &writerseeker.WriterSeeker{}
	s, err := sink.NewStream(buf)
	if err != nil {
		t.Fatal(err)
	}
	return New(s), buf
}

func readAll(t *testing.T, buf *writerseeker.WriterSeeker) []byte {
	t.Helper()
	b, err := ioutil.ReadAll(buf.Reader())
	if err != nil {
		t.Fatal(err)
	}
	return b
}

func TestSingleEmptySubtree(t *testing.T) {
	c, buf := newState(t)
	if err := c.OpenSubtree(); err != nil {
		t.Fatal(err)
	}
	if err := c.CloseSubtree(); err != nil {
		t.Fatal(err)
	}

	got := readAll(t, buf)
	want := []byte{0, 0} // size=0, inner_chunks=0
	if !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}
}

func TestSubtreeWithPayload(t *testing.T) {
	c, buf := newState(t)
	if err := c.OpenSubtree(); err != nil {
		t.Fatal(err)
	}
	if _, err := c.WriteFramed([]byte("hi")); err != nil {
		t.Fatal(err)
	}
	if err := c.CloseSubtree(); err != nil {
		t.Fatal(err)
	}

	got := readAll(t, buf)
	want := []byte{2, 0, 'h', 'i'}
	if !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}
}

func TestNestedSubtreesIncrementInnerChunks(t *testing.T) {
	c, buf := newState(t)
	if err := c.OpenSubtree(); err != nil { // outer
		t.Fatal(err)
	}
	if err := c.OpenSubtree(); err != nil { // inner
		t.Fatal(err)
	}
	if _, err := c.WriteFramed([]byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := c.CloseSubtree(); err != nil { // close inner
		t.Fatal(err)
	}
	if err := c.CloseSubtree(); err != nil { // close outer
		t.Fatal(err)
	}

	got := readAll(t, buf)
	// outer header: size=1 (the single byte of payload written at any
	// open depth counts for every ancestor), inner_chunks=1.
	// inner header: size=1, inner_chunks=0.
	want := []byte{1, 1, 1, 0, 'x'}
	if !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}
}

// TestChunkRollover verifies that writing more than SizeMax bytes at one
// open depth splits into a continuation chunk, patching the first
// header at SizeMax and opening a fresh one for the remainder.
func TestChunkRollover(t *testing.T) {
	c, buf := newState(t)
	if err := c.OpenSubtree(); err != nil {
		t.Fatal(err)
	}
	payload := bytes.Repeat([]byte{'a'}, SizeMax+3)
	if _, err := c.WriteFramed(payload); err != nil {
		t.Fatal(err)
	}
	if err := c.CloseSubtree(); err != nil {
		t.Fatal(err)
	}

	got := readAll(t, buf)
	if len(got) != 2+SizeMax+2+3 {
		t.Fatalf("got %d bytes, want %d", len(got), 2+SizeMax+2+3)
	}
	if got[0] != SizeMax || got[1] != 0 {
		t.Errorf("first header = (%d, %d), want (%d, 0)", got[0], got[1], SizeMax)
	}
	secondHeader := got[2+SizeMax : 2+SizeMax+2]
	if secondHeader[0] != 3 || secondHeader[1] != 0 {
		t.Errorf("second header = % x, want (3, 0)", secondHeader)
	}
}

func TestOpenSubtreeHeaderNotCountedInAncestorWritten(t *testing.T) {
	// Regression: opening a child subtree reserves its 2-byte header via
	// Reserve, not WriteFramed, so the reservation itself must not bump
	// the parent's written counter — only actual payload bytes (written
	// through WriteFramed, by the child or the parent) should.
	c, buf := newState(t)
	if err := c.OpenSubtree(); err != nil { // parent
		t.Fatal(err)
	}
	if err := c.OpenSubtree(); err != nil { // child, reserves 2 bytes
		t.Fatal(err)
	}
	if err := c.CloseSubtree(); err != nil { // child: size=0
		t.Fatal(err)
	}
	if err := c.CloseSubtree(); err != nil { // parent
		t.Fatal(err)
	}

	got := readAll(t, buf)
	// parent header size must be 0 (no payload bytes were framed through
	// WriteFramed), even though 2 physical bytes for the child's header
	// sit inside the parent's span.
	want := []byte{0, 1, 0, 0}
	if !bytes.Equal(got, want) {
		t.Errorf("got % x, want % x", got, want)
	}
}

func TestCloseWithNothingOpenErrors(t *testing.T) {
	c, _ := newState(t)
	if err := c.CloseSubtree(); err == nil {
		t.Fatal("expected error closing with nothing open")
	}
}

func TestSink(t *testing.T) {
	c, _ := newState(t)
	if c.Sink() == nil {
		t.Fatal("Sink() returned nil")
	}
}
