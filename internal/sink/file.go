package sink

import (
	"github.com/google/renameio"
	"golang.org/x/sys/unix"
	"golang.org/x/xerrors"
)

// FileSink writes an LYB stream to a path on disk. The bytes land in a
// temporary file beside the destination (via renameio) and only replace
// the destination atomically once Commit succeeds — so a failed encode
// never leaves a half-written, previously-valid file in its place. Abort
// discards the temporary file instead.
type FileSink struct {
	pending *renameio.PendingFile
	off     int64
}

// NewFile creates a FileSink that will atomically replace path once
// Commit is called.
func NewFile(path string) (*FileSink, error) {
	pf, err := renameio.TempFile("", path)
	if err != nil {
		return nil, xerrors.Errorf("lyb: creating temp file for %s: %w", path, err)
	}
	return &FileSink{pending: pf}, nil
}

func (s *FileSink) Write(p []byte) (int, error) {
	n, err := s.pending.Write(p)
	s.off += int64(n)
	if err != nil {
		return n, xerrors.Errorf("lyb: write: %w", err)
	}
	return n, nil
}

func (s *FileSink) Reserve(n int) (Handle, error) {
	h := Handle{offset: s.off}
	if _, err := s.Write(make([]byte, n)); err != nil {
		return Handle{}, err
	}
	return h, nil
}

func (s *FileSink) Patch(h Handle, p []byte) error {
	fd := int(s.pending.Fd())
	off := h.offset
	for len(p) > 0 {
		n, err := unix.Pwrite(fd, p, off)
		if err != nil {
			return xerrors.Errorf("lyb: patch at offset %d: %w", off, err)
		}
		if n == 0 {
			return xerrors.Errorf("lyb: patch at offset %d: short write", off)
		}
		p = p[n:]
		off += int64(n)
	}
	return nil
}

// Commit finalizes the stream: it becomes visible at the destination path
// atomically. The FileSink must not be used afterwards.
func (s *FileSink) Commit() error {
	return s.pending.CloseAtomicallyReplace()
}

// Abort discards the stream without touching the destination path. Safe
// to call after a failed encode, or instead of Commit if the caller
// changes its mind.
func (s *FileSink) Abort() error {
	return s.pending.Cleanup()
}
