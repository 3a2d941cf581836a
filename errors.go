package pyembed

import "errors"

// ErrorKind classifies a failure reported by this package, mirroring the
// error taxonomy the host interpreter's import protocol distinguishes on.
type ErrorKind string

// Error kinds, one per failure category.
const (
	KindShortBuffer         ErrorKind = "short-buffer"
	KindUnrecognizedFormat  ErrorKind = "unrecognized-format"
	KindUnsupportedVersion  ErrorKind = "unsupported-version"
	KindCorruptIndex        ErrorKind = "corrupt-index"
	KindNotFound            ErrorKind = "not-found"
	KindNotFoundOnDisk      ErrorKind = "not-found-on-disk"
	KindFilesystemNotAvail  ErrorKind = "filesystem-not-available"
	KindInvalidArgument     ErrorKind = "invalid-argument"
	KindAttributeReadOnly   ErrorKind = "attribute-read-only"
	KindInvalidPath         ErrorKind = "invalid-path"
	KindNotInBase           ErrorKind = "not-in-base"
	KindAlreadySealed       ErrorKind = "already-sealed"
	KindAlreadyConsumed     ErrorKind = "already-consumed"
	KindConflictingArgs     ErrorKind = "conflicting-args"
	KindPackageNotFound     ErrorKind = "package-not-found"
	KindCompilerFailed      ErrorKind = "compiler-failed"
	KindUnexpectedArgument  ErrorKind = "unexpected-argument"
)

// Error is the concrete error type returned by every fallible operation in
// this package. Kind supports dispatch by callers translating to the host
// interpreter's exception types; Unwrap supports errors.Is/As over a
// wrapped cause.
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error with the same Kind, so that
// errors.Is(err, ErrNotFound) works regardless of message/wrapped cause.
func (e *Error) Is(target error) bool {
	var o *Error
	if !errors.As(target, &o) {
		return false
	}
	return o.Kind == e.Kind
}

func newError(kind ErrorKind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

func wrapError(kind ErrorKind, msg string, cause error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: cause}
}

// Sentinel errors for errors.Is comparisons against a bare kind, e.g.
// errors.Is(err, pyembed.ErrNotFound).
var (
	ErrShortBuffer        = newError(KindShortBuffer, "short buffer")
	ErrUnrecognizedFormat = newError(KindUnrecognizedFormat, "unrecognized format")
	ErrUnsupportedVersion = newError(KindUnsupportedVersion, "unsupported version")
	ErrCorruptIndex       = newError(KindCorruptIndex, "corrupt index")
	ErrNotFound           = newError(KindNotFound, "not found")
	ErrNotFoundOnDisk     = newError(KindNotFoundOnDisk, "not found on disk")
	ErrFilesystemNotAvail = newError(KindFilesystemNotAvail, "filesystem not available")
	ErrInvalidArgument    = newError(KindInvalidArgument, "invalid argument")
	ErrAttributeReadOnly  = newError(KindAttributeReadOnly, "attribute is read-only")
	ErrInvalidPath        = newError(KindInvalidPath, "invalid path")
	ErrNotInBase          = newError(KindNotInBase, "path is not under base")
	ErrAlreadySealed      = newError(KindAlreadySealed, "finder is already sealed")
	ErrAlreadyConsumed    = newError(KindAlreadyConsumed, "collector already consumed")
	ErrConflictingArgs    = newError(KindConflictingArgs, "conflicting arguments")
	ErrPackageNotFound    = newError(KindPackageNotFound, "package not found")
	ErrCompilerFailed     = newError(KindCompilerFailed, "bytecode compiler failed")
	ErrUnexpectedArgument = newError(KindUnexpectedArgument, "unexpected argument")
)
