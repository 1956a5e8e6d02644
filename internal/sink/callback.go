package sink

import (
	"io/ioutil"

	"github.com/orcaman/writerseeker"
	"golang.org/x/xerrors"
)

// WriteFunc is a user-supplied byte sink, e.g. writing to a socket or a
// custom transport. Per spec §4.1, a callback of this shape cannot
// support Patch directly, so CallbackSink buffers the whole stream
// in-memory (backed by writerseeker, the same in-memory io.WriteSeeker
// StreamSink uses) and only invokes fn once, from Flush, after the encode
// has finished successfully.
type WriteFunc func(p []byte) (int, error)

// CallbackSink is the third sink variant from spec §4.1/§6: a
// caller-supplied write callback, fronted by an internal buffer so the
// chunker's reserve/patch requirements are satisfied without requiring
// the callback itself to support seeking.
type CallbackSink struct {
	*StreamSink
	buf *writerseeker.WriterSeeker
	fn  WriteFunc
}

// NewCallback returns a CallbackSink that will hand the complete,
// correctly-patched stream to fn when Flush is called.
func NewCallback(fn WriteFunc) (*CallbackSink, error) {
	buf := &writerseeker.WriterSeeker{}
	ss, err := NewStream(buf)
	if err != nil {
		return nil, err
	}
	return &CallbackSink{StreamSink: ss, buf: buf, fn: fn}, nil
}

// Flush delivers the buffered, fully-patched stream to the callback. Call
// this only after a successful encode; per spec §7, a failed encode's
// output is unspecified and should not be delivered to a lossy transport.
func (s *CallbackSink) Flush() error {
	b, err := ioutil.ReadAll(s.buf.Reader())
	if err != nil {
		return xerrors.Errorf("lyb: reading buffered stream: %w", err)
	}
	n, err := s.fn(b)
	if err != nil {
		return xerrors.Errorf("lyb: callback write: %w", err)
	}
	if n < len(b) {
		return xerrors.Errorf("lyb: callback short write (%d of %d bytes): %w", n, len(b), ErrShort)
	}
	return nil
}

// ErrShort marks a callback that reported writing fewer bytes than it was
// given.
var ErrShort = xerrors.New("short write")
