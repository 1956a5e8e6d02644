package sink

import (
	"io"

	"golang.org/x/xerrors"
)

// StreamSink adapts any io.WriteSeeker into a Sink by using Seek to jump
// back to a reserved slot, patch it, and seek forward to the append
// position again. NewStream is typically used with
// github.com/orcaman/writerseeker's in-memory WriterSeeker, giving a
// buffered sink with no filesystem dependency at all — the "buffered
// stream handle" variant of spec §4.1/§6.
type StreamSink struct {
	w   io.WriteSeeker
	end int64 // append position, restored after every Patch
}

// NewStream wraps w. w's current position is taken as the start of the
// stream.
func NewStream(w io.WriteSeeker) (*StreamSink, error) {
	end, err := w.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, xerrors.Errorf("lyb: stream sink init: %w", err)
	}
	return &StreamSink{w: w, end: end}, nil
}

func (s *StreamSink) Write(p []byte) (int, error) {
	n, err := s.w.Write(p)
	s.end += int64(n)
	if err != nil {
		return n, xerrors.Errorf("lyb: write: %w", err)
	}
	return n, nil
}

func (s *StreamSink) Reserve(n int) (Handle, error) {
	h := Handle{offset: s.end}
	if _, err := s.Write(make([]byte, n)); err != nil {
		return Handle{}, err
	}
	return h, nil
}

func (s *StreamSink) Patch(h Handle, p []byte) error {
	if _, err := s.w.Seek(h.offset, io.SeekStart); err != nil {
		return xerrors.Errorf("lyb: patch seek: %w", err)
	}
	n, err := s.w.Write(p)
	if err == nil && n < len(p) {
		err = io.ErrShortWrite
	}
	if err != nil {
		return xerrors.Errorf("lyb: patch at offset %d: %w", h.offset, err)
	}
	if _, err := s.w.Seek(s.end, io.SeekStart); err != nil {
		return xerrors.Errorf("lyb: patch restore: %w", err)
	}
	return nil
}
