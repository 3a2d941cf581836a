package pyembed

import (
	"bytes"
	"io"
	"sort"
)

// ResourceReader exposes the package-data resources attached to one
// package record, mirroring the host's importlib.resources reader
// protocol.
type ResourceReader struct {
	finder *Finder
	owner  entry
}

// Contents lists every resource name attached to the owning package, in
// lexicographic order.
func (r *ResourceReader) Contents() ([]string, error) {
	names, err := r.owner.packageResourceNames()
	if err != nil {
		return nil, err
	}
	relNames, err := r.owner.relPathPackageResourceNames()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(names)+len(relNames))
	out := make([]string, 0, len(names)+len(relNames))
	for _, n := range append(append([]string{}, names...), relNames...) {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}

// IsResource reports whether name is a resource attached to the owning
// package (rather than a submodule).
func (r *ResourceReader) IsResource(name string) bool {
	if _, ok, err := r.owner.packageResource(name); err == nil && ok {
		return true
	}
	if _, ok, err := r.owner.relPathPackageResource(name); err == nil && ok {
		return true
	}
	return false
}

// OpenResource returns a reader over the named resource's bytes.
func (r *ResourceReader) OpenResource(name string) (io.ReadCloser, error) {
	if b, ok, err := r.owner.packageResource(name); err != nil {
		return nil, err
	} else if ok {
		return io.NopCloser(bytes.NewReader(b)), nil
	}
	if comps, ok, err := r.owner.relPathPackageResource(name); err != nil {
		return nil, err
	} else if ok {
		_ = comps
		return nil, wrapError(KindFilesystemNotAvail, "reading "+name+" from the real filesystem is not implemented", nil)
	}
	return nil, wrapError(KindNotFound, "no such resource "+name, nil)
}

// ResourcePath always fails: resources served by this reader have no
// real filesystem path, whether they live in memory or under a
// relative-path install root this Finder does not itself mount.
func (r *ResourceReader) ResourcePath(name string) (string, error) {
	return "", wrapError(KindFilesystemNotAvail, "resource "+name+" has no real filesystem path", nil)
}
