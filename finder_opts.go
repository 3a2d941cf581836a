package pyembed

// FinderOption configures a Finder at construction.
type FinderOption func(*Finder)

// WithRelativePathOrigin sets the string prefixed to every
// filesystem-relative lookup on the read side (GetFilename, GetData, and
// the Origin of specs returned by FindSpec). Defaults to "".
func WithRelativePathOrigin(origin string) FinderOption {
	return func(f *Finder) {
		f.relativePathOrigin = origin
	}
}

// WithPathHookBase sets the process-wide base string path_hook validates
// synthetic sub-paths against. Defaults to "".
func WithPathHookBase(base string) FinderOption {
	return func(f *Finder) {
		f.pathHookBase = base
	}
}

// WithCompilerPath sets the out-of-process bytecode compiler executable
// GetCode launches to compile source on demand when no bytecode is
// indexed. If unset, GetCode fails with compiler-failed for any module
// lacking bytecode.
func WithCompilerPath(path string) FinderOption {
	return func(f *Finder) {
		f.compilerPath = path
	}
}
