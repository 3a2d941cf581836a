package wire

import "errors"

// Sentinel errors identifying the failure category of Decode/DecodeMemoryMapped.
// pyembed wraps these into its richer, kind-tagged Error type at the
// package boundary; callers within this package and its tests may use
// errors.Is directly against these.
var (
	ErrShortBuffer  = errors.New("wire: buffer shorter than required header")
	ErrUnrecognized = errors.New("wire: unrecognized magic")
	ErrUnsupported  = errors.New("wire: unsupported format version")
	ErrCorrupt      = errors.New("wire: corrupt index")
)
