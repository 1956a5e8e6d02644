// Package chunk implements the LYB stream framing layer (spec §4.2): an
// arbitrary-depth sequence of logical subtrees is framed into chunks no
// larger than SizeMax bytes, each preceded by a backwards-patched header
// recording its size and the number of inner chunks opened strictly
// within its span.
//
// The algorithm is ported closely from the original C encoder's
// lyb_write/lyb_write_start_subtree/lyb_write_stop_subtree (see
// original_source/src/printer_lyb.c); the reserve-then-patch use of the
// sink mirrors internal/squashfs's Flush/writeMetadataChunks pattern
// over an io.WriteSeeker in the teacher repo.
package chunk

import (
	"golang.org/x/xerrors"

	"github.com/distr1/lyb/internal/sink"
)

const (
	// SizeBytes is the width, in bytes, of a chunk header's size field.
	SizeBytes = 1
	// InChunkBytes is the width, in bytes, of a chunk header's
	// inner-chunk-count field.
	InChunkBytes = 1
	// MetaBytes is the total width of a chunk header.
	MetaBytes = SizeBytes + InChunkBytes

	// SizeMax is the largest number of payload bytes a single chunk may
	// carry before it must roll over into a continuation chunk.
	SizeMax = 1<<(8*SizeBytes) - 1
	// InChunkMax is the largest inner-chunk count a single header can
	// record; exceeding it is an internal invariant violation.
	InChunkMax = 1<<(8*InChunkBytes) - 1
)

// ErrInternal is returned when an invariant the format depends on would
// be violated: an inner-chunk counter would overflow InChunkMax.
var ErrInternal = xerrors.New("lyb: chunk: internal invariant violation")

type entry struct {
	written     int
	position    sink.Handle
	innerChunks int
}

// State tracks the stack of currently-open subtrees for one encode call.
// It is not safe for concurrent use; a fresh State must be created per
// encode (spec §3, §5).
type State struct {
	s     sink.Sink
	stack []entry
}

// New returns a chunk.State writing through s.
func New(s sink.Sink) *State {
	return &State{s: s}
}

// Depth reports how many subtrees are currently open.
func (c *State) Depth() int { return len(c.stack) }

// Sink returns the raw sink this State writes through, bypassing chunk
// framing entirely. Used for an anydata-tree payload (spec §4.7 step 6),
// which the original encoder writes as an independent, self-delimiting
// nested LYB stream spliced directly into the outer byte stream rather
// than counted against the enclosing subtree's chunk budget.
func (c *State) Sink() sink.Sink { return c.s }

// OpenSubtree pushes a new chunk-framed subtree: it reserves a header
// slot and bumps every strictly-enclosing entry's inner-chunk counter,
// exactly as a mid-stream rollover would.
func (c *State) OpenSubtree() error {
	for i := range c.stack {
		if c.stack[i].innerChunks == InChunkMax {
			return xerrors.Errorf("lyb: chunk: inner-chunk counter overflow: %w", ErrInternal)
		}
		c.stack[i].innerChunks++
	}

	h, err := c.s.Reserve(MetaBytes)
	if err != nil {
		return xerrors.Errorf("lyb: chunk: reserving header: %w", err)
	}
	c.stack = append(c.stack, entry{position: h})
	return nil
}

// CloseSubtree patches the innermost open subtree's header with its
// final (size, inner-chunk-count) and pops it.
func (c *State) CloseSubtree() error {
	if len(c.stack) == 0 {
		return xerrors.Errorf("lyb: chunk: close with nothing open: %w", ErrInternal)
	}
	top := len(c.stack) - 1
	if err := c.patchHeader(top); err != nil {
		return err
	}
	c.stack = c.stack[:top]
	return nil
}

// WriteFramed is the single path by which payload bytes reach the sink.
// It splits p across as many chunk rollovers as needed so that no open
// entry's written-byte count ever exceeds SizeMax.
func (c *State) WriteFramed(p []byte) (int, error) {
	total := 0
	for len(p) > 0 {
		toWrite := len(p)
		fullIdx := -1
		for i := range c.stack {
			remaining := SizeMax - c.stack[i].written
			if remaining <= toWrite {
				toWrite = remaining
				fullIdx = i // last (innermost) tie wins, matching the C loop
			}
		}

		n, err := c.s.Write(p[:toWrite])
		if err != nil {
			return total, xerrors.Errorf("lyb: chunk: write: %w", err)
		}
		if n < toWrite {
			return total, xerrors.Errorf("lyb: chunk: short write (%d of %d bytes)", n, toWrite)
		}
		for i := range c.stack {
			c.stack[i].written += n
		}
		p = p[n:]
		total += n

		if fullIdx >= 0 {
			if err := c.patchHeader(fullIdx); err != nil {
				return total, err
			}
			c.stack[fullIdx].written = 0
			c.stack[fullIdx].innerChunks = 0

			h, err := c.s.Reserve(MetaBytes)
			if err != nil {
				return total, xerrors.Errorf("lyb: chunk: reserving continuation header: %w", err)
			}
			c.stack[fullIdx].position = h

			for i := 0; i < fullIdx; i++ {
				if c.stack[i].innerChunks == InChunkMax {
					return total, xerrors.Errorf("lyb: chunk: inner-chunk counter overflow: %w", ErrInternal)
				}
				c.stack[i].innerChunks++
			}
		}
	}
	return total, nil
}

func (c *State) patchHeader(i int) error {
	var meta [MetaBytes]byte
	putLE(meta[:SizeBytes], uint64(c.stack[i].written))
	putLE(meta[SizeBytes:], uint64(c.stack[i].innerChunks))
	if err := c.s.Patch(c.stack[i].position, meta[:]); err != nil {
		return xerrors.Errorf("lyb: chunk: patching header: %w", err)
	}
	return nil
}

func putLE(b []byte, v uint64) {
	for i := range b {
		b[i] = byte(v)
		v >>= 8
	}
}
