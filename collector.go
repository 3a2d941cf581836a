package pyembed

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/embedimport/pyembed/internal/compiler"
	"github.com/embedimport/pyembed/internal/pathutil"
)

// Location names one of the two residencies a resource payload may take.
type Location int

// The closed set of locations a Collector may be configured to allow.
const (
	LocationInMemory Location = iota
	LocationFilesystemRelative
)

func (l Location) String() string {
	switch l {
	case LocationInMemory:
		return "in-memory"
	case LocationFilesystemRelative:
		return "filesystem-relative"
	default:
		return "unknown"
	}
}

// FileInstall is one entry of the file-install list Oxidize produces:
// bytes a caller must write to relative-path, optionally with the
// executable bit set.
type FileInstall struct {
	RelativePath string
	Bytes        []byte
	Executable   bool
}

// Oxidized is the result of a Collector.Oxidize call.
type Oxidized struct {
	Records  []*Record
	Installs []FileInstall
	Warnings []string
}

type pendingItem struct {
	rec      *Record
	location Location
	prefix   string
}

// Collector accepts heterogeneous resource descriptions, resolves
// in-memory-vs-filesystem-relative placement, drives an out-of-process
// bytecode compiler for source modules lacking bytecode, and emits a
// serializable record set plus a file-install list.
//
// A Collector is single-use: Oxidize may be called at most once.
type Collector struct {
	allowed map[Location]bool
	items   []pendingItem

	optimizeLevels []int
	outputMode     compiler.OutputMode
	cacheTag       string
	platformSuffix string

	consumed atomic.Bool
}

// NewCollector constructs a Collector that will only accept payloads in
// the given locations. allowed must be non-empty.
func NewCollector(allowed []Location, opts ...CollectorOption) (*Collector, error) {
	if len(allowed) == 0 {
		return nil, wrapError(KindInvalidArgument, "collector requires at least one allowed location", nil)
	}
	set := make(map[Location]bool, len(allowed))
	for _, l := range allowed {
		set[l] = true
	}
	c := &Collector{
		allowed:        set,
		optimizeLevels: []int{0},
		outputMode:     compiler.OutputRawBytecode,
		cacheTag:       "cpython-3",
		platformSuffix: ".so",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// AddInMemory accepts a resource whose payloads should reside in the
// serialized blob. Fails if in-memory is not an allowed location, or if
// rec's flavor cannot be loaded from memory (native extensions: most
// platform dynamic loaders require a real file).
func (c *Collector) AddInMemory(rec *Record) error {
	if !c.allowed[LocationInMemory] {
		return wrapError(KindInvalidArgument, "in-memory location is not allowed by this collector", nil)
	}
	if rec.Flavor() == FlavorNativeExtension {
		return wrapError(KindInvalidArgument, "native extension modules cannot be loaded from memory", nil)
	}
	c.items = append(c.items, pendingItem{rec: rec, location: LocationInMemory})
	return nil
}

// AddFilesystemRelative accepts a resource whose payloads should be
// installed to a file tree rooted at prefix.
func (c *Collector) AddFilesystemRelative(prefix string, rec *Record) error {
	if !c.allowed[LocationFilesystemRelative] {
		return wrapError(KindInvalidArgument, "filesystem-relative location is not allowed by this collector", nil)
	}
	c.items = append(c.items, pendingItem{rec: rec, location: LocationFilesystemRelative, prefix: prefix})
	return nil
}

// Oxidize drives the full pipeline: compiles any source module lacking
// bytecode at a required optimization level, assigns filesystem-relative
// paths for filesystem-placed resources, and returns the final record
// set plus the file-install list. At most one call succeeds per
// collector; later calls fail with already-consumed.
func (c *Collector) Oxidize(ctx context.Context, compilerPath string) (Oxidized, error) {
	if !c.consumed.CompareAndSwap(false, true) {
		return Oxidized{}, wrapError(KindAlreadyConsumed, "collector has already been oxidized", nil)
	}

	var comp *compiler.Compiler
	ensureCompiler := func() (*compiler.Compiler, error) {
		if comp != nil {
			return comp, nil
		}
		c2, err := compiler.Start(ctx, compilerPath)
		if err != nil {
			return nil, wrapError(KindCompilerFailed, "starting bytecode compiler", err)
		}
		comp = c2
		return comp, nil
	}
	defer func() {
		if comp != nil {
			_ = comp.Close()
		}
	}()

	result := Oxidized{}
	for _, item := range c.items {
		rec, installs, err := c.place(item, ensureCompiler)
		if err != nil {
			return Oxidized{}, err
		}
		result.Records = append(result.Records, rec)
		result.Installs = append(result.Installs, installs...)
	}
	return result, nil
}

// place resolves one pending item into its final Record plus any file
// installs it produces, compiling bytecode on demand.
func (c *Collector) place(item pendingItem, ensureCompiler func() (*compiler.Compiler, error)) (*Record, []FileInstall, error) {
	src := item.rec
	out, err := NewRecord(src.Name())
	if err != nil {
		return nil, nil, err
	}
	if err := out.SetFlavor(src.Flavor()); err != nil {
		return nil, nil, err
	}
	if src.IsPackage() {
		if err := out.SetIsPackage(true); err != nil {
			return nil, nil, err
		}
	}
	if src.IsNamespacePackage() {
		if err := out.SetIsNamespacePackage(true); err != nil {
			return nil, nil, err
		}
	}
	if err := out.SetSharedLibraryDependencyNames(src.SharedLibraryDependencyNames()); err != nil {
		return nil, nil, err
	}

	var installs []FileInstall
	components := pathutil.DottedToComponents(src.Name())

	place := func(content []byte, relPath string, executable bool) (string, error) {
		if item.location == LocationInMemory {
			return "", nil
		}
		full := relPath
		if item.prefix != "" {
			full = item.prefix + "/" + relPath
		}
		installs = append(installs, FileInstall{RelativePath: full, Bytes: content, Executable: executable})
		return relPath, nil
	}

	moduleDir := pathutil.Join(components[:len(components)-1])
	moduleBase := components[len(components)-1]
	if src.IsPackage() {
		moduleDir = pathutil.Join(components)
		moduleBase = "__init__"
	}

	// Module source.
	if content, ok := src.InMemorySource(); ok {
		relPath := moduleSourcePath(components, src.IsPackage())
		if item.location == LocationInMemory {
			if err := out.SetInMemorySource(content); err != nil {
				return nil, nil, err
			}
		} else {
			if _, err := place(content, relPath, false); err != nil {
				return nil, nil, err
			}
			if err := out.SetRelativePathModuleSource(relPath); err != nil {
				return nil, nil, err
			}
		}
	} else if comps, ok := src.RelativePathModuleSource(); ok {
		if err := out.SetRelativePathModuleSource(pathutil.Join(comps)); err != nil {
			return nil, nil, err
		}
	}

	// Bytecode, compiling on demand for any required level lacking a payload.
	sourceBytes, haveSource := src.InMemorySource()
	for level := 0; level < 3; level++ {
		if content, ok := src.InMemoryBytecode(level); ok {
			if err := c.placeBytecode(out, item, moduleDir, moduleBase, level, content, place); err != nil {
				return nil, nil, err
			}
			continue
		}
		if comps, ok := src.RelativePathBytecode(level); ok {
			if err := out.SetRelativePathBytecode(level, pathutil.Join(comps)); err != nil {
				return nil, nil, err
			}
			continue
		}
		if !c.requiresLevel(level) || !haveSource || src.Flavor() != FlavorModule {
			continue
		}
		comp, err := ensureCompiler()
		if err != nil {
			return nil, nil, err
		}
		blob, err := comp.Compile(src.Name(), sourceBytes, level, c.outputMode)
		if err != nil {
			return nil, nil, wrapError(KindCompilerFailed, "compiling "+src.Name(), err)
		}
		if err := c.placeBytecode(out, item, moduleDir, moduleBase, level, blob, place); err != nil {
			return nil, nil, err
		}
	}

	// Native extension module.
	if content, ok := src.InMemoryExtensionModule(); ok {
		if item.location == LocationInMemory {
			if err := out.SetInMemoryExtensionModule(content); err != nil {
				return nil, nil, err
			}
		} else {
			relPath := extensionPath(moduleDir, moduleBase, c.platformSuffix)
			if _, err := place(content, relPath, true); err != nil {
				return nil, nil, err
			}
			if err := out.SetRelativePathExtensionModule(relPath); err != nil {
				return nil, nil, err
			}
		}
	} else if comps, ok := src.RelativePathExtensionModule(); ok {
		if err := out.SetRelativePathExtensionModule(pathutil.Join(comps)); err != nil {
			return nil, nil, err
		}
	}

	// Shared library dependency.
	if content, ok := src.InMemorySharedLibrary(); ok {
		if item.location == LocationInMemory {
			if err := out.SetInMemorySharedLibrary(content); err != nil {
				return nil, nil, err
			}
		} else {
			relPath := extensionPath(moduleDir, moduleBase, c.platformSuffix)
			if _, err := place(content, relPath, true); err != nil {
				return nil, nil, err
			}
			if err := out.SetRelativePathSharedLibrary(relPath); err != nil {
				return nil, nil, err
			}
		}
	} else if comps, ok := src.RelativePathSharedLibrary(); ok {
		if err := out.SetRelativePathSharedLibrary(pathutil.Join(comps)); err != nil {
			return nil, nil, err
		}
	}

	// Package data resources.
	if names := src.PackageResourceNames(); len(names) > 0 {
		inMemory := make(map[string][]byte, len(names))
		relPaths := make(map[string]string, len(names))
		for _, name := range names {
			content, _ := src.PackageResource(name)
			if item.location == LocationInMemory {
				inMemory[name] = content
				continue
			}
			relPath := pathutil.Join(components) + "/" + name
			if _, err := place(content, relPath, false); err != nil {
				return nil, nil, err
			}
			relPaths[name] = relPath
		}
		if len(inMemory) > 0 {
			if err := out.SetPackageResources(inMemory); err != nil {
				return nil, nil, err
			}
		}
		if len(relPaths) > 0 {
			if err := out.SetRelativePathPackageResources(relPaths); err != nil {
				return nil, nil, err
			}
		}
	}
	if names := src.RelativePathPackageResourceNames(); len(names) > 0 {
		relPaths := make(map[string]string, len(names))
		for _, name := range names {
			comps, _ := src.RelativePathPackageResource(name)
			relPaths[name] = pathutil.Join(comps)
		}
		if err := out.SetRelativePathPackageResources(relPaths); err != nil {
			return nil, nil, err
		}
	}

	// Distribution resources.
	if names := src.DistributionResourceNames(); len(names) > 0 {
		suffix := ".dist-info"
		if _, isEgg := src.DistributionResource("PKG-INFO"); isEgg {
			suffix = ".egg-info"
		}
		inMemory := make(map[string][]byte, len(names))
		relPaths := make(map[string]string, len(names))
		for _, name := range names {
			content, _ := src.DistributionResource(name)
			if item.location == LocationInMemory {
				inMemory[name] = content
				continue
			}
			relPath := src.Name() + suffix + "/" + name
			if _, err := place(content, relPath, false); err != nil {
				return nil, nil, err
			}
			relPaths[name] = relPath
		}
		if len(inMemory) > 0 {
			if err := out.SetDistributionResources(inMemory); err != nil {
				return nil, nil, err
			}
		}
		if len(relPaths) > 0 {
			if err := out.SetRelativePathDistributionResources(relPaths); err != nil {
				return nil, nil, err
			}
		}
	}

	if err := out.Validate(); err != nil {
		return nil, nil, err
	}
	return out, installs, nil
}

func (c *Collector) requiresLevel(level int) bool {
	for _, l := range c.optimizeLevels {
		if l == level {
			return true
		}
	}
	return false
}

func (c *Collector) placeBytecode(out *Record, item pendingItem, dir, base string, level int, content []byte, place func([]byte, string, bool) (string, error)) error {
	if item.location == LocationInMemory {
		return out.SetInMemoryBytecode(level, content)
	}
	relPath := bytecodePath(dir, base, c.cacheTag, level)
	if _, err := place(content, relPath, false); err != nil {
		return err
	}
	return out.SetRelativePathBytecode(level, relPath)
}

func moduleSourcePath(components []string, isPackage bool) string {
	dir := pathutil.Join(components[:len(components)-1])
	leaf := components[len(components)-1]
	if isPackage {
		if dir == "" {
			return leaf + "/__init__.py"
		}
		return dir + "/" + leaf + "/__init__.py"
	}
	if dir == "" {
		return leaf + ".py"
	}
	return dir + "/" + leaf + ".py"
}

func bytecodePath(dir, base, cacheTag string, level int) string {
	optSuffix := ""
	switch level {
	case 1:
		optSuffix = ".opt-1"
	case 2:
		optSuffix = ".opt-2"
	}
	filename := fmt.Sprintf("%s.%s%s.pyc", base, cacheTag, optSuffix)
	if dir == "" {
		return "__pycache__/" + filename
	}
	return dir + "/__pycache__/" + filename
}

func extensionPath(dir, base, platformSuffix string) string {
	if dir == "" {
		return base + platformSuffix
	}
	return dir + "/" + base + platformSuffix
}
