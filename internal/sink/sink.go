// Package sink implements the abstract output-sink contract the LYB
// encoder depends on (spec §4.1): append bytes, reserve a fixed-size slot
// for later patching, and patch a previously reserved slot. The three
// concrete variants mirror the teacher's lyout abstraction (file
// descriptor, buffered stream, user callback) from printer.c.
package sink

// Handle is an opaque reference to a previously reserved byte range,
// returned by Reserve and consumed by Patch.
type Handle struct {
	offset int64
}

// Sink is the minimal write contract the chunker needs. A sink that
// cannot support Patch (e.g. a pure forward-only callback) must buffer
// internally, as CallbackSink does, rather than reject encoding.
type Sink interface {
	// Write appends len(p) bytes and returns the count actually written.
	// A short count without an error should not happen; callers treat any
	// write that returns n < len(p) as a hard I/O failure.
	Write(p []byte) (int, error)

	// Reserve appends n bytes of unspecified content and returns a handle
	// to their position, to be filled in later via Patch.
	Reserve(n int) (Handle, error)

	// Patch overwrites exactly len(p) bytes at the position h refers to.
	// len(p) must equal the n originally passed to the Reserve call that
	// produced h.
	Patch(h Handle, p []byte) error
}
