package pyembed

import (
	"context"
	"io"
	"sort"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/embedimport/pyembed/internal/compiler"
	"github.com/embedimport/pyembed/internal/pathutil"
	"github.com/embedimport/pyembed/internal/wire"
)

// Spec is a module-spec value: the result of a successful FindSpec call.
type Spec struct {
	Name                     string
	Loader                   *Finder
	Origin                   *string
	IsPackage                bool
	SubmoduleSearchLocations []string
	LoaderState              any
}

// ModuleInfo is one entry yielded by IterModules: a leaf module name
// (already prefixed by the caller-supplied prefix) and whether it is
// itself a package.
type ModuleInfo struct {
	Name      string
	IsPackage bool
}

// DistributionContext narrows FindDistributions to distributions whose
// normalized name matches Name, when Name is non-nil.
type DistributionContext struct {
	Name  *string
	Paths []string
}

// Finder is an index-backed module finder/loader: the name -> record
// lookup and package-membership maps are built at construction in O(N)
// and rebuilt on each mutation. There is no separate distribution map;
// FindDistributions and GetData scan every entry. Indexing/mutation
// methods are available only before the Finder is "sealed" — the first
// query (FindSpec, GetCode, GetSource, GetFilename, GetData,
// GetResourceReader, IterModules, FindDistributions, or a path-entry
// sub-finder's FindSpec/IterModules), whether or not it succeeds,
// permanently closes the building phase.
type Finder struct {
	mu       sync.RWMutex
	entries  map[string]entry
	children map[string][]string // parent dotted name -> sorted immediate children

	relativePathOrigin string
	pathHookBase       string
	compilerPath       string

	sealed atomic.Bool

	compileGroup singleflight.Group
}

// NewFinder decodes a wire-format index blob and constructs a Finder over
// it. data is not copied: the Finder's handles alias it, so callers must
// not modify data while the Finder is in use. See NewFinderFromFile to
// memory-map a large index in place instead.
func NewFinder(data []byte, opts ...FinderOption) (*Finder, error) {
	idx, err := wire.Decode(data)
	if err != nil {
		return nil, wrapError(KindCorruptIndex, "decoding index", err)
	}
	return newFinderFromIndex(idx, opts...)
}

// NewFinderFromFile memory-maps path and constructs a Finder over its
// content without copying it. The returned closer must be closed (after
// the Finder is no longer needed) to release the mapping.
func NewFinderFromFile(path string, opts ...FinderOption) (*Finder, io.Closer, error) {
	idx, closer, err := wire.DecodeMemoryMapped(path)
	if err != nil {
		return nil, nil, wrapError(KindCorruptIndex, "decoding memory-mapped index", err)
	}
	f, err := newFinderFromIndex(idx, opts...)
	if err != nil {
		closer.Close()
		return nil, nil, err
	}
	return f, closer, nil
}

// NewEmptyFinder constructs a Finder with no base index, suitable for a
// Finder built purely from AddResource/AddResources/IndexInterpreter*
// calls rather than a pre-compiled wire index.
func NewEmptyFinder(opts ...FinderOption) *Finder {
	f := &Finder{
		entries:  make(map[string]entry),
		children: make(map[string][]string),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func newFinderFromIndex(idx *wire.Index, opts ...FinderOption) (*Finder, error) {
	f := &Finder{
		entries:  make(map[string]entry, idx.Len()),
		children: make(map[string][]string),
	}
	for i := 0; i < idx.Len(); i++ {
		h := idx.At(i)
		name := string(h.Name())
		f.entries[name] = entryFromHandle(h)
	}
	f.reindexChildren()
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

func (f *Finder) reindexChildren() {
	children := make(map[string][]string, len(f.children))
	for name := range f.entries {
		parent, ok := pathutil.DottedParent(name)
		if !ok {
			parent = ""
		}
		children[parent] = append(children[parent], name)
	}
	for parent := range children {
		sort.Strings(children[parent])
	}
	f.children = children
}

func (f *Finder) checkMutable() error {
	if f.sealed.Load() {
		return wrapError(KindAlreadySealed, "finder is already sealed", nil)
	}
	return nil
}

func (f *Finder) seal() {
	f.sealed.Store(true)
}

// AddResource merges one pre-built record into the index. Fails with
// already-sealed once any query has been served.
func (f *Finder) AddResource(rec *Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkMutable(); err != nil {
		return err
	}
	f.entries[rec.Name()] = entryFromRecord(rec)
	f.reindexChildren()
	return nil
}

// AddResources merges several pre-built records into the index.
func (f *Finder) AddResources(recs []*Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkMutable(); err != nil {
		return err
	}
	for _, rec := range recs {
		f.entries[rec.Name()] = entryFromRecord(rec)
	}
	f.reindexChildren()
	return nil
}

// IndexBytes decodes a wire-format index blob and merges its records.
func (f *Finder) IndexBytes(data []byte) error {
	idx, err := wire.Decode(data)
	if err != nil {
		return wrapError(KindCorruptIndex, "decoding index bytes", err)
	}
	return f.mergeIndex(idx)
}

// IndexFileMemoryMapped memory-maps path and merges its records. The
// merged handles alias the mapping, so it is left mapped for the rest of
// the process; it is released only if the merge fails.
func (f *Finder) IndexFileMemoryMapped(path string) error {
	idx, closer, err := wire.DecodeMemoryMapped(path)
	if err != nil {
		return wrapError(KindCorruptIndex, "decoding memory-mapped index", err)
	}
	if err := f.mergeIndex(idx); err != nil {
		closer.Close()
		return err
	}
	return nil
}

func (f *Finder) mergeIndex(idx *wire.Index) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkMutable(); err != nil {
		return err
	}
	for i := 0; i < idx.Len(); i++ {
		h := idx.At(i)
		f.entries[string(h.Name())] = entryFromHandle(h)
	}
	f.reindexChildren()
	return nil
}

// IndexInterpreterBuiltins registers the given names as built-in modules
// (flavor built-in-extension) standing in for the host interpreter's own
// built-in module table.
func (f *Finder) IndexInterpreterBuiltins(names []string) error {
	return f.indexFlavor(names, FlavorBuiltinExtension)
}

// IndexInterpreterBuiltinExtensionModules is an alias of
// IndexInterpreterBuiltins kept for parity with spec naming.
func (f *Finder) IndexInterpreterBuiltinExtensionModules(names []string) error {
	return f.indexFlavor(names, FlavorBuiltinExtension)
}

// IndexInterpreterFrozenModules registers the given names as frozen
// modules (flavor frozen).
func (f *Finder) IndexInterpreterFrozenModules(names []string) error {
	return f.indexFlavor(names, FlavorFrozen)
}

func (f *Finder) indexFlavor(names []string, flavor Flavor) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkMutable(); err != nil {
		return err
	}
	for _, name := range names {
		rec, err := NewRecord(name)
		if err != nil {
			return err
		}
		if err := rec.SetFlavor(flavor); err != nil {
			return err
		}
		f.entries[name] = entryFromRecord(rec)
	}
	f.reindexChildren()
	return nil
}

// SerializeIndexedResources emits the Finder's current content as a
// fresh index blob using the wire package's writer.
func (f *Finder) SerializeIndexedResources() ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	records := make([]wire.RecordData, 0, len(f.entries))
	for _, e := range f.entries {
		if e.record != nil {
			records = append(records, e.record.toWireData())
			continue
		}
		rd, err := e.handle.Materialize()
		if err != nil {
			return nil, wrapError(KindCorruptIndex, "materializing "+e.name(), err)
		}
		records = append(records, rd)
	}
	data, err := wire.Encode(records)
	if err != nil {
		return nil, wrapError(KindInvalidArgument, "encoding index", err)
	}
	return data, nil
}

// IndexedResources yields every indexed record's handle view, for
// introspection.
func (f *Finder) IndexedResources() []ResourceHandle {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]ResourceHandle, 0, len(f.entries))
	names := make([]string, 0, len(f.entries))
	for name := range f.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		out = append(out, ResourceHandle{e: f.entries[name]})
	}
	return out
}

// FindSpec resolves name to a module spec, or returns nil if unknown.
// parentPath is accepted for API parity with the host import protocol
// but unused: the Finder's own index already knows every name it owns.
func (f *Finder) FindSpec(name string, parentPath []string) (*Spec, error) {
	f.mu.RLock()
	e, ok := f.entries[name]
	f.mu.RUnlock()
	defer f.seal()
	if !ok {
		return nil, nil
	}
	return f.specFor(name, e)
}

func (f *Finder) specFor(name string, e entry) (*Spec, error) {
	isPkg, err := e.isPackage()
	if err != nil {
		return nil, err
	}
	isNsPkg, err := e.isNamespacePackage()
	if err != nil {
		return nil, err
	}

	spec := &Spec{Name: name, Loader: f, IsPackage: isPkg || isNsPkg}

	origin, err := f.resolveOrigin(e)
	if err != nil {
		return nil, err
	}
	spec.Origin = origin

	if spec.IsPackage {
		spec.SubmoduleSearchLocations = []string{f.pathHookBase + "/" + pathutil.Join(pathutil.DottedToComponents(name))}
	}
	return spec, nil
}

// resolveOrigin implements the payload search order: in-memory bytecode
// > in-memory source > relative-path bytecode > relative-path source >
// native-extension > built-in > frozen.
func (f *Finder) resolveOrigin(e entry) (*string, error) {
	for level := 0; level < 3; level++ {
		if _, ok, err := e.bytecode(level); err != nil {
			return nil, err
		} else if ok {
			return nil, nil
		}
	}
	if _, ok, err := e.source(); err != nil {
		return nil, err
	} else if ok {
		return nil, nil
	}
	for level := 0; level < 3; level++ {
		if comps, ok, err := e.relPathBytecode(level); err != nil {
			return nil, err
		} else if ok {
			s := f.relativePathOrigin + pathutil.Join(comps)
			return &s, nil
		}
	}
	if comps, ok, err := e.relPathModuleSource(); err != nil {
		return nil, err
	} else if ok {
		s := f.relativePathOrigin + pathutil.Join(comps)
		return &s, nil
	}
	if _, ok, err := e.extensionModule(); err != nil {
		return nil, err
	} else if ok {
		return nil, nil
	}
	if comps, ok, err := e.relPathExtensionModule(); err != nil {
		return nil, err
	} else if ok {
		s := f.relativePathOrigin + pathutil.Join(comps)
		return &s, nil
	}
	flavor, err := e.flavor()
	if err != nil {
		return nil, err
	}
	switch flavor {
	case FlavorBuiltinExtension, FlavorFrozen:
		return nil, nil
	}
	return nil, nil
}

// GetCode returns the compiled bytecode for name, compiling source on
// demand (via the compiler configured with WithCompilerPath) if no
// bytecode is indexed at optimization level 0. Concurrent calls for the
// same name are deduplicated.
func (f *Finder) GetCode(name string) ([]byte, error) {
	f.mu.RLock()
	e, ok := f.entries[name]
	f.mu.RUnlock()
	defer f.seal()
	if !ok {
		return nil, wrapError(KindNotFound, "no such module "+name, nil)
	}
	if b, ok, err := e.bytecode(0); err != nil {
		return nil, err
	} else if ok {
		return b, nil
	}

	v, err, _ := f.compileGroup.Do(name, func() (any, error) {
		src, ok, err := e.source()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, wrapError(KindNotFound, "no source or bytecode for "+name, nil)
		}
		if f.compilerPath == "" {
			return nil, wrapError(KindCompilerFailed, "no compiler configured for on-demand compilation", nil)
		}
		decoded, err := compiler.DecodeSource(src)
		if err != nil {
			return nil, wrapError(KindCompilerFailed, "decoding source for "+name, err)
		}
		c, err := compiler.Start(context.Background(), f.compilerPath)
		if err != nil {
			return nil, wrapError(KindCompilerFailed, "starting bytecode compiler", err)
		}
		defer c.Close()
		blob, err := c.Compile(name, decoded, 0, compiler.OutputRawBytecode)
		if err != nil {
			return nil, wrapError(KindCompilerFailed, "compiling "+name, err)
		}
		return blob, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// GetSource returns decoded source text for name, or nil if only
// bytecode is indexed.
func (f *Finder) GetSource(name string) ([]byte, error) {
	f.mu.RLock()
	e, ok := f.entries[name]
	f.mu.RUnlock()
	defer f.seal()
	if !ok {
		return nil, wrapError(KindNotFound, "no such module "+name, nil)
	}
	src, ok, err := e.source()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	decoded, err := compiler.DecodeSource(src)
	if err != nil {
		return nil, wrapError(KindCompilerFailed, "decoding source for "+name, err)
	}
	return decoded, nil
}

// GetFilename returns the filesystem path formed from
// relative_path_origin and name's stored relative path. Fails with
// not-found-on-disk for in-memory-only resources.
func (f *Finder) GetFilename(name string) (string, error) {
	f.mu.RLock()
	e, ok := f.entries[name]
	f.mu.RUnlock()
	defer f.seal()
	if !ok {
		return "", wrapError(KindNotFound, "no such module "+name, nil)
	}
	if comps, ok, err := e.relPathModuleSource(); err != nil {
		return "", err
	} else if ok {
		return f.relativePathOrigin + pathutil.Join(comps), nil
	}
	for level := 0; level < 3; level++ {
		if comps, ok, err := e.relPathBytecode(level); err != nil {
			return "", err
		} else if ok {
			return f.relativePathOrigin + pathutil.Join(comps), nil
		}
	}
	if comps, ok, err := e.relPathExtensionModule(); err != nil {
		return "", err
	} else if ok {
		return f.relativePathOrigin + pathutil.Join(comps), nil
	}
	return "", wrapError(KindNotFoundOnDisk, "resource "+name+" has no on-disk location", nil)
}

// GetData reads an in-memory package-data resource byte-exactly by its
// path string: the owning package's name as slash-separated components,
// then "/", then the resource name. Distribution resources are not
// searched. A path equal to relative_path_origin plus a
// filesystem-relative package resource's stored path is matched but fails
// with filesystem-not-available, since this Finder does not read the real
// filesystem.
func (f *Finder) GetData(path string) ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	defer f.seal()
	for _, e := range f.entries {
		if names, err := e.packageResourceNames(); err == nil {
			for _, name := range names {
				if pathutil.Join(pathutil.DottedToComponents(e.name()))+"/"+name == path {
					b, _, err := e.packageResource(name)
					if err != nil {
						return nil, err
					}
					return b, nil
				}
			}
		}
		if names, err := e.relPathPackageResourceNames(); err == nil {
			for _, name := range names {
				comps, ok, err := e.relPathPackageResource(name)
				if err != nil {
					return nil, err
				}
				if ok && f.relativePathOrigin+pathutil.Join(comps) == path {
					return f.readRelPath(comps)
				}
			}
		}
	}
	return nil, wrapError(KindNotFound, "no resource at path "+path, nil)
}

func (f *Finder) readRelPath(comps []string) ([]byte, error) {
	return nil, wrapError(KindFilesystemNotAvail, "reading from the real filesystem is not implemented by this Finder", nil)
}

// GetResourceReader returns a reader exposing the package data resources
// that belong to the named package.
func (f *Finder) GetResourceReader(name string) (*ResourceReader, error) {
	f.mu.RLock()
	e, ok := f.entries[name]
	f.mu.RUnlock()
	defer f.seal()
	if !ok {
		return nil, wrapError(KindNotFound, "no such package "+name, nil)
	}
	return &ResourceReader{finder: f, owner: e}, nil
}

// IterModules yields (prefix+leaf-name, is-package) pairs for modules
// that are immediate children of the Finder's scope (the top level),
// in lexicographic order.
func (f *Finder) IterModules(prefix string) ([]ModuleInfo, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	defer f.seal()
	children := append([]string(nil), f.children[""]...)
	sort.Strings(children)
	out := make([]ModuleInfo, 0, len(children))
	for _, name := range children {
		e := f.entries[name]
		isPkg, err := e.isPackage()
		if err != nil {
			return nil, err
		}
		isNsPkg, err := e.isNamespacePackage()
		if err != nil {
			return nil, err
		}
		out = append(out, ModuleInfo{Name: prefix + pathutil.DottedLeaf(name), IsPackage: isPkg || isNsPkg})
	}
	return out, nil
}

// FindDistributions yields distribution views whose normalized name
// matches ctx.Name (or all distributions, if ctx.Name is nil).
func (f *Finder) FindDistributions(ctx DistributionContext) ([]*Distribution, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	defer f.seal()

	var want string
	if ctx.Name != nil {
		want = normalizeDistName(*ctx.Name)
	}

	names := make([]string, 0, len(f.entries))
	for name := range f.entries {
		names = append(names, name)
	}
	sort.Strings(names)

	var out []*Distribution
	for _, name := range names {
		e := f.entries[name]
		distNames, err := e.distributionResourceNames()
		if err != nil {
			return nil, err
		}
		relDistNames, err := e.relPathDistributionResourceNames()
		if err != nil {
			return nil, err
		}
		if len(distNames) == 0 && len(relDistNames) == 0 {
			continue
		}
		d, err := newDistribution(e)
		if err != nil {
			return nil, err
		}
		if ctx.Name != nil && normalizeDistName(d.Name()) != want {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

// PathHook returns a path-entry sub-finder scoped to path. It fails with
// not-in-base if path is neither path_hook_base_str itself nor begins with
// it followed by a separator, and with invalid-path if the part after the
// base has an empty, ".", or ".." component.
func (f *Finder) PathHook(path string) (*pathEntryFinder, error) {
	pkg, err := pathutil.ValidateSubPath(f.pathHookBase, path)
	if err != nil {
		switch err {
		case pathutil.ErrNotInBase:
			return nil, wrapError(KindNotInBase, "path is not under the path-hook base", err)
		default:
			return nil, wrapError(KindInvalidPath, "invalid path-hook argument", err)
		}
	}
	return &pathEntryFinder{parent: f, pkg: pkg}, nil
}
