package pyembed

import (
	"strings"
	"sync"

	"github.com/embedimport/pyembed/internal/metadata"
)

// Distribution is a parsed view over one package's distribution metadata
// (a dist-info or egg-info resource set carried by a single record).
type Distribution struct {
	name     string
	version  string
	message  *metadata.Message
	entries  []metadata.EntryPoint
	requires []string
	e        entry
}

func normalizeDistName(name string) string { return metadata.NormalizeName(name) }

// newDistribution builds a Distribution from whichever distribution
// resources entry e carries, preferring METADATA over its egg-info
// equivalent PKG-INFO. Requirements come from Requires-Dist: headers when
// METADATA is used and from requires.txt when PKG-INFO is used.
func newDistribution(e entry) (*Distribution, error) {
	d := &Distribution{e: e}

	raw, ok, err := readDistResource(e, "METADATA")
	if err != nil {
		return nil, err
	}
	isEgg := false
	if !ok {
		raw, ok, err = readDistResource(e, "PKG-INFO")
		if err != nil {
			return nil, err
		}
		isEgg = ok
	}
	if ok {
		msg, err := metadata.ParseMessage(raw)
		if err != nil {
			return nil, wrapError(KindCorruptIndex, "parsing distribution metadata", err)
		}
		d.message = msg
		d.name = msg.Get("Name")
		d.version = msg.Get("Version")
		if !isEgg {
			d.requires = msg.Values("Requires-Dist")
		}
	}

	if epRaw, ok, err := readDistResource(e, "entry_points.txt"); err != nil {
		return nil, err
	} else if ok {
		eps, err := metadata.ParseEntryPoints(epRaw)
		if err != nil {
			return nil, wrapError(KindCorruptIndex, "parsing entry_points.txt", err)
		}
		d.entries = eps
	}

	if isEgg {
		if reqRaw, ok, err := readDistResource(e, "requires.txt"); err != nil {
			return nil, err
		} else if ok {
			d.requires = splitLines(reqRaw)
		}
	}

	if d.name == "" {
		d.name = e.name()
	}
	return d, nil
}

func readDistResource(e entry, name string) ([]byte, bool, error) {
	if b, ok, err := e.distributionResource(name); err != nil {
		return nil, false, err
	} else if ok {
		return b, true, nil
	}
	if comps, ok, err := e.relPathDistributionResource(name); err != nil {
		return nil, false, err
	} else if ok {
		_ = comps
		return nil, false, wrapError(KindFilesystemNotAvail, "reading "+name+" from the real filesystem is not implemented", nil)
	}
	return nil, false, nil
}

func splitLines(data []byte) []string {
	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		out = append(out, line)
	}
	return out
}

// Name returns the distribution's declared Name: header value, falling
// back to the owning record's name if no metadata was found.
func (d *Distribution) Name() string { return d.name }

// NormalizedName returns Name normalized per the canonical rule.
func (d *Distribution) NormalizedName() string { return normalizeDistName(d.name) }

// Version returns the distribution's declared Version: header value.
func (d *Distribution) Version() string { return d.version }

// Metadata returns the parsed METADATA/PKG-INFO message, or nil if
// neither resource was present.
func (d *Distribution) Metadata() *metadata.Message { return d.message }

// EntryPoints returns the distribution's parsed entry_points.txt triples.
func (d *Distribution) EntryPoints() []metadata.EntryPoint { return d.entries }

// Requires returns the distribution's raw dependency strings, or nil if
// neither METADATA nor requires.txt declared any.
func (d *Distribution) Requires() []string { return d.requires }

// ReadText returns the bytes of a named in-memory distribution resource
// as stored, without decoding them, or false if absent (or held only at a
// filesystem-relative path).
func (d *Distribution) ReadText(name string) ([]byte, bool) {
	b, ok, err := readDistResource(d.e, name)
	if err != nil || !ok {
		return nil, false
	}
	return b, true
}

// registry tracks every Finder passed to RegisterFinder so
// FromName/DiscoverDistributions can search across all of them, mirroring
// how the host interpreter searches every entry on sys.meta_path.
var (
	registryMu sync.RWMutex
	registry   []*Finder
)

// RegisterFinder adds f to the set of finders FromName/DiscoverDistributions
// search. Finders are not registered automatically by NewFinder so that a
// Finder built purely for local testing does not leak into the process-wide
// search.
func RegisterFinder(f *Finder) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = append(registry, f)
}

// UnregisterFinder removes f from the search set.
func UnregisterFinder(f *Finder) {
	registryMu.Lock()
	defer registryMu.Unlock()
	for i, r := range registry {
		if r == f {
			registry = append(registry[:i], registry[i+1:]...)
			return
		}
	}
}

// FromName searches every registered Finder for a distribution matching
// name, failing with package-not-found if none match.
func FromName(name string) (*Distribution, error) {
	ds, err := DiscoverDistributions(DistributionContext{}, &name)
	if err != nil {
		return nil, err
	}
	if len(ds) == 0 {
		return nil, wrapError(KindPackageNotFound, "no distribution named "+name, nil)
	}
	return ds[0], nil
}

// DiscoverDistributions yields every distribution across all registered
// finders matching ctx, or matching name when non-nil. Supplying both a
// non-zero ctx.Name and a non-nil name fails with conflicting-args.
func DiscoverDistributions(ctx DistributionContext, name *string) ([]*Distribution, error) {
	if ctx.Name != nil && name != nil {
		return nil, wrapError(KindConflictingArgs, "both context.name and name were supplied", nil)
	}
	if name != nil {
		ctx.Name = name
	}

	registryMu.RLock()
	finders := append([]*Finder(nil), registry...)
	registryMu.RUnlock()

	var out []*Distribution
	for _, f := range finders {
		ds, err := f.FindDistributions(ctx)
		if err != nil {
			return nil, err
		}
		out = append(out, ds...)
	}
	return out, nil
}
