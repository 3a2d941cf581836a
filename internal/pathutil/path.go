// Package pathutil canonicalizes the two path-shaped vocabularies this
// importer juggles: dotted module names ("pkg.sub.mod") and
// filesystem-relative paths stored as component sequences, so neither the
// collector's filesystem layout code nor the Finder's path-hook logic has
// to re-derive separator handling.
package pathutil

import (
	"errors"
	"strings"
)

// Sentinel errors for ValidateSubPath. Callers translate these into the
// package-level pyembed.Error kinds (not-in-base / invalid-path).
var (
	ErrNotInBase   = errors.New("pathutil: input is not under base")
	ErrInvalidPath = errors.New("pathutil: invalid path component")
)

// SplitCanonical splits a caller-supplied relative path string on either
// slash convention into its component sequence. Used to canonicalize the
// relative_path_* record fields (spec: "stored canonicalized as a sequence
// of Unicode path components"). Unlike ValidateSubPath, this accepts "."
// and ".." segments verbatim — record paths are filesystem-relative
// install targets chosen by the caller, not synthetic path-hook input.
func SplitCanonical(path string) ([]string, error) {
	norm := strings.ReplaceAll(path, "\\", "/")
	if norm == "" {
		return nil, nil
	}
	parts := strings.Split(norm, "/")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

// Join renders path components back into a slash-separated relative path.
func Join(components []string) string {
	return strings.Join(components, "/")
}

// DottedToComponents splits a dotted module name into path components,
// e.g. "pkg.sub.mod" -> ["pkg", "sub", "mod"].
func DottedToComponents(name string) []string {
	if name == "" {
		return nil
	}
	return strings.Split(name, ".")
}

// DottedJoin joins a parent dotted name and a leaf segment, handling the
// top-level (empty parent) case.
func DottedJoin(parent, leaf string) string {
	if parent == "" {
		return leaf
	}
	return parent + "." + leaf
}

// DottedParent returns the parent package name of a dotted module name and
// whether one exists (false for a top-level name).
func DottedParent(name string) (string, bool) {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return "", false
	}
	return name[:i], true
}

// DottedLeaf returns the final segment of a dotted module name.
func DottedLeaf(name string) string {
	i := strings.LastIndex(name, ".")
	if i < 0 {
		return name
	}
	return name[i+1:]
}

// Base returns the last element of a slash-separated path, "." for an
// empty or "." path. Used for resource-data paths (package/distribution
// resource names may themselves contain "/" for nested data files).
func Base(path string) string {
	if path == "" || path == "." {
		return "."
	}
	path = strings.TrimSuffix(path, "/")
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// ValidateSubPath implements the path-hook validation ladder: the input
// must equal base or begin with base followed by exactly one separator
// ('/' or '\\'); the remainder is then split on either separator AND on
// literal '.', and any empty, ".", or ".." component fails. Returns the
// dotted package name the (possibly empty) remainder denotes.
func ValidateSubPath(base, input string) (string, error) {
	exact := input == base
	if !exact {
		sep := hasBasePrefix(base, input)
		if sep == 0 {
			return "", ErrNotInBase
		}
		input = input[len(base)+1:]
	} else {
		input = ""
	}

	if input == "" {
		if exact {
			return "", nil
		}
		// base + separator with nothing after it: a trailing separator
		// with an empty component, not the top-level package.
		return "", ErrInvalidPath
	}

	replaced := strings.NewReplacer("\\", "/", ".", "/").Replace(input)
	segments := strings.Split(replaced, "/")
	for _, seg := range segments {
		if seg == "" || seg == "." || seg == ".." {
			return "", ErrInvalidPath
		}
	}
	return strings.Join(segments, "."), nil
}

// hasBasePrefix returns the separator byte used (as an int, nonzero) if
// input begins with base followed by exactly one '/' or '\\', else 0.
func hasBasePrefix(base, input string) byte {
	if !strings.HasPrefix(input, base) {
		return 0
	}
	rest := input[len(base):]
	if len(rest) == 0 {
		return 0
	}
	switch rest[0] {
	case '/', '\\':
		return rest[0]
	default:
		return 0
	}
}
