package lyb

import (
	"golang.org/x/xerrors"

	"github.com/distr1/lyb/internal/chunk"
)

// Error taxonomy, per the encoder's error handling design: every failure
// returned by this package is (or wraps) exactly one of these sentinels,
// so callers can classify a failure with errors.Is without string
// matching.
var (
	// ErrInvalidArgument is returned for a bad call: a nil sink, detected
	// at entry before any side effect, or a nil anydata payload met during
	// the walk. A nil root is not rejected: Encode writes it as an empty
	// forest (header, empty model registry, terminator).
	ErrInvalidArgument = xerrors.New("lyb: invalid argument")

	// ErrIO wraps a short write from the underlying sink. The encode is
	// abandoned immediately; any bytes already written are not unwritten.
	ErrIO = xerrors.New("lyb: i/o failure")

	// ErrInternal covers pathological-schema or implementation bugs: a
	// zero hash, an attribute count over 255, exhausted collision IDs, an
	// over-length string, or an inner-chunk counter overflow.
	ErrInternal = xerrors.New("lyb: internal invariant violation")

	// ErrUnsupported is returned for a recognized-but-unhandled variant,
	// such as an anydata value kind the encoder does not know how to
	// serialize.
	ErrUnsupported = xerrors.New("lyb: unsupported variant")
)

func wrapf(sentinel error, format string, args ...interface{}) error {
	// A chunk-layer invariant violation (such as an inner-chunk counter
	// overflow) is classified as ErrInternal whatever the call site passed.
	for _, a := range args {
		if err, ok := a.(error); ok && xerrors.Is(err, chunk.ErrInternal) {
			sentinel = ErrInternal
		}
	}
	args = append(args, sentinel)
	return xerrors.Errorf(format+": %w", args...)
}
