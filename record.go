package pyembed

import (
	"sort"

	"github.com/embedimport/pyembed/internal/pathutil"
)

// Flavor classifies what a Record represents.
type Flavor string

// The closed set of flavors a Record may declare.
const (
	FlavorNone             Flavor = "none"
	FlavorModule           Flavor = "module"
	FlavorBuiltinExtension Flavor = "built-in-extension"
	FlavorFrozen           Flavor = "frozen"
	FlavorNativeExtension  Flavor = "native-extension"
	FlavorSharedLibrary    Flavor = "shared-library"
)

func (f Flavor) valid() bool {
	switch f {
	case FlavorNone, FlavorModule, FlavorBuiltinExtension, FlavorFrozen, FlavorNativeExtension, FlavorSharedLibrary:
		return true
	default:
		return false
	}
}

// Record is a typed, owned description of one named resource: a module,
// built-in/native extension, frozen module, or arbitrary package/
// distribution data. Every field beyond Name is optional; which fields are
// set determines the record's "flavor" of materialization.
//
// A zero Record is not valid; construct with NewRecord.
type Record struct {
	name                string
	flavor              Flavor
	isPackage           bool
	isNamespacePackage  bool
	inMemorySource      []byte
	hasInMemorySource   bool
	inMemoryBytecode    [3][]byte // indexed by optimization level 0,1,2
	hasInMemoryBytecode [3]bool
	inMemoryExtension   []byte
	hasInMemoryExt      bool
	packageResources    map[string][]byte
	distResources       map[string][]byte
	inMemorySharedLib   []byte
	hasInMemorySharedLib bool
	sharedLibDeps       []string

	relPathModuleSource     []string
	relPathBytecode         [3][]string
	hasRelPathBytecode      [3]bool
	relPathExtension        []string
	relPathPackageResources map[string][]string
	relPathDistResources    map[string][]string
	relPathSharedLib        []string
}

// NewRecord constructs an empty record for the given unique resource name.
func NewRecord(name string) (*Record, error) {
	if name == "" {
		return nil, wrapError(KindInvalidArgument, "record name must not be empty", nil)
	}
	return &Record{name: name, flavor: FlavorNone}, nil
}

// Name returns the record's unique name.
func (r *Record) Name() string { return r.name }

// Flavor returns the record's declared flavor.
func (r *Record) Flavor() Flavor { return r.flavor }

// SetFlavor sets the record's flavor, failing with ErrInvalidArgument for
// any value outside the enumerated set.
func (r *Record) SetFlavor(f Flavor) error {
	if !f.valid() {
		return wrapError(KindInvalidArgument, "unrecognized flavor "+string(f), nil)
	}
	r.flavor = f
	return nil
}

// IsPackage reports whether this record's submodules may exist.
func (r *Record) IsPackage() bool { return r.isPackage }

// SetIsPackage sets the is-package flag.
func (r *Record) SetIsPackage(v bool) error {
	if v && r.isNamespacePackage {
		return wrapError(KindInvalidArgument, "record cannot be both a package and a namespace package", nil)
	}
	r.isPackage = v
	return nil
}

// IsNamespacePackage reports whether this record is a namespace package.
func (r *Record) IsNamespacePackage() bool { return r.isNamespacePackage }

// SetIsNamespacePackage sets the namespace-package flag. A namespace
// package may carry no payload fields.
func (r *Record) SetIsNamespacePackage(v bool) error {
	if v && r.isPackage {
		return wrapError(KindInvalidArgument, "record cannot be both a package and a namespace package", nil)
	}
	r.isNamespacePackage = v
	return nil
}

// InMemorySource returns the record's in-memory source bytes, if any.
func (r *Record) InMemorySource() ([]byte, bool) {
	return r.inMemorySource, r.hasInMemorySource
}

// SetInMemorySource sets in-memory source bytes. Fails with
// ErrInvalidArgument if a filesystem-relative source path is already set
// (at most one location per payload).
func (r *Record) SetInMemorySource(b []byte) error {
	if r.relPathModuleSource != nil {
		return errBothLocations("module_source")
	}
	r.inMemorySource = b
	r.hasInMemorySource = true
	return nil
}

// RelativePathModuleSource returns the record's filesystem-relative source
// path, if any, as canonicalized path components.
func (r *Record) RelativePathModuleSource() ([]string, bool) {
	return r.relPathModuleSource, r.relPathModuleSource != nil
}

// SetRelativePathModuleSource sets a filesystem-relative source path.
func (r *Record) SetRelativePathModuleSource(path string) error {
	if r.hasInMemorySource {
		return errBothLocations("module_source")
	}
	comps, err := pathutil.SplitCanonical(path)
	if err != nil {
		return err
	}
	r.relPathModuleSource = comps
	return nil
}

// InMemoryBytecode returns the in-memory bytecode payload for the given
// optimization level (0, 1, or 2).
func (r *Record) InMemoryBytecode(level int) ([]byte, bool) {
	if level < 0 || level > 2 {
		return nil, false
	}
	return r.inMemoryBytecode[level], r.hasInMemoryBytecode[level]
}

// SetInMemoryBytecode sets the in-memory bytecode payload for an
// optimization level.
func (r *Record) SetInMemoryBytecode(level int, b []byte) error {
	if level < 0 || level > 2 {
		return wrapError(KindInvalidArgument, "optimization level must be 0, 1, or 2", nil)
	}
	if r.hasRelPathBytecode[level] {
		return errBothLocations("bytecode")
	}
	r.inMemoryBytecode[level] = b
	r.hasInMemoryBytecode[level] = true
	return nil
}

// RelativePathBytecode returns the filesystem-relative bytecode path for
// the given optimization level.
func (r *Record) RelativePathBytecode(level int) ([]string, bool) {
	if level < 0 || level > 2 {
		return nil, false
	}
	return r.relPathBytecode[level], r.hasRelPathBytecode[level]
}

// SetRelativePathBytecode sets a filesystem-relative bytecode path for an
// optimization level.
func (r *Record) SetRelativePathBytecode(level int, path string) error {
	if level < 0 || level > 2 {
		return wrapError(KindInvalidArgument, "optimization level must be 0, 1, or 2", nil)
	}
	if r.hasInMemoryBytecode[level] {
		return errBothLocations("bytecode")
	}
	comps, err := pathutil.SplitCanonical(path)
	if err != nil {
		return err
	}
	r.relPathBytecode[level] = comps
	r.hasRelPathBytecode[level] = true
	return nil
}

// InMemoryExtensionModule returns the in-memory native extension module
// image, if any.
func (r *Record) InMemoryExtensionModule() ([]byte, bool) {
	return r.inMemoryExtension, r.hasInMemoryExt
}

// SetInMemoryExtensionModule sets the in-memory native extension module
// image.
func (r *Record) SetInMemoryExtensionModule(b []byte) error {
	if r.relPathExtension != nil {
		return errBothLocations("extension_module")
	}
	r.inMemoryExtension = b
	r.hasInMemoryExt = true
	return nil
}

// RelativePathExtensionModule returns the filesystem-relative extension
// module path, if any.
func (r *Record) RelativePathExtensionModule() ([]string, bool) {
	return r.relPathExtension, r.relPathExtension != nil
}

// SetRelativePathExtensionModule sets a filesystem-relative extension
// module path.
func (r *Record) SetRelativePathExtensionModule(path string) error {
	if r.hasInMemoryExt {
		return errBothLocations("extension_module")
	}
	comps, err := pathutil.SplitCanonical(path)
	if err != nil {
		return err
	}
	r.relPathExtension = comps
	return nil
}

// SetPackageResources sets the record's intra-package data resources. The
// supplied map is copied; subsequent external mutation does not affect the
// record.
func (r *Record) SetPackageResources(m map[string][]byte) error {
	r.packageResources = copyByteMap(m)
	return nil
}

// PackageResourceNames returns the names of in-memory package resources,
// sorted.
func (r *Record) PackageResourceNames() []string {
	return sortedKeys(r.packageResources)
}

// PackageResource returns one in-memory package resource by name.
func (r *Record) PackageResource(name string) ([]byte, bool) {
	b, ok := r.packageResources[name]
	return b, ok
}

// SetRelativePathPackageResources sets filesystem-relative paths for
// package resources, keyed by resource name.
func (r *Record) SetRelativePathPackageResources(m map[string]string) error {
	out := make(map[string][]string, len(m))
	for k, v := range m {
		comps, err := pathutil.SplitCanonical(v)
		if err != nil {
			return err
		}
		out[k] = comps
	}
	r.relPathPackageResources = out
	return nil
}

// RelativePathPackageResourceNames returns the names of filesystem-relative
// package resources, sorted.
func (r *Record) RelativePathPackageResourceNames() []string {
	return sortedStringKeys(r.relPathPackageResources)
}

// RelativePathPackageResource returns the filesystem-relative path
// components for one package resource by name.
func (r *Record) RelativePathPackageResource(name string) ([]string, bool) {
	v, ok := r.relPathPackageResources[name]
	return v, ok
}

// SetDistributionResources sets the record's distribution metadata files
// (e.g. METADATA, entry_points.txt). The supplied map is copied.
func (r *Record) SetDistributionResources(m map[string][]byte) error {
	r.distResources = copyByteMap(m)
	return nil
}

// DistributionResourceNames returns the names of in-memory distribution
// resources, sorted.
func (r *Record) DistributionResourceNames() []string {
	return sortedKeys(r.distResources)
}

// DistributionResource returns one in-memory distribution resource by name.
func (r *Record) DistributionResource(name string) ([]byte, bool) {
	b, ok := r.distResources[name]
	return b, ok
}

// SetRelativePathDistributionResources sets filesystem-relative paths for
// distribution resources, keyed by resource name.
func (r *Record) SetRelativePathDistributionResources(m map[string]string) error {
	out := make(map[string][]string, len(m))
	for k, v := range m {
		comps, err := pathutil.SplitCanonical(v)
		if err != nil {
			return err
		}
		out[k] = comps
	}
	r.relPathDistResources = out
	return nil
}

// RelativePathDistributionResourceNames returns the names of
// filesystem-relative distribution resources, sorted.
func (r *Record) RelativePathDistributionResourceNames() []string {
	return sortedStringKeys(r.relPathDistResources)
}

// RelativePathDistributionResource returns the filesystem-relative path
// components for one distribution resource by name.
func (r *Record) RelativePathDistributionResource(name string) ([]string, bool) {
	v, ok := r.relPathDistResources[name]
	return v, ok
}

// InMemorySharedLibrary returns the in-memory dependency shared library
// image, if any.
func (r *Record) InMemorySharedLibrary() ([]byte, bool) {
	return r.inMemorySharedLib, r.hasInMemorySharedLib
}

// SetInMemorySharedLibrary sets the in-memory dependency shared library
// image.
func (r *Record) SetInMemorySharedLibrary(b []byte) error {
	if r.relPathSharedLib != nil {
		return errBothLocations("shared_library")
	}
	r.inMemorySharedLib = b
	r.hasInMemorySharedLib = true
	return nil
}

// RelativePathSharedLibrary returns the filesystem-relative dependency
// shared library path, if any.
func (r *Record) RelativePathSharedLibrary() ([]string, bool) {
	return r.relPathSharedLib, r.relPathSharedLib != nil
}

// SetRelativePathSharedLibrary sets a filesystem-relative dependency shared
// library path.
func (r *Record) SetRelativePathSharedLibrary(path string) error {
	if r.hasInMemorySharedLib {
		return errBothLocations("shared_library")
	}
	comps, err := pathutil.SplitCanonical(path)
	if err != nil {
		return err
	}
	r.relPathSharedLib = comps
	return nil
}

// SharedLibraryDependencyNames returns the ordered names of shared
// libraries this record depends on.
func (r *Record) SharedLibraryDependencyNames() []string {
	return r.sharedLibDeps
}

// SetSharedLibraryDependencyNames sets the ordered shared-library
// dependency names.
func (r *Record) SetSharedLibraryDependencyNames(names []string) error {
	r.sharedLibDeps = append([]string(nil), names...)
	return nil
}

// Validate checks the record's structural invariants: at most one of
// is_package/is_namespace_package, no payloads on a namespace package, and
// at most one location (in-memory vs relative-path) per payload slot. The
// at-most-one-location constraints are enforced incrementally by the
// setters above; Validate re-checks them plus the package invariants for
// records built by other means (e.g. decoded from the wire).
func (r *Record) Validate() error {
	if r.isPackage && r.isNamespacePackage {
		return wrapError(KindInvalidArgument, "record cannot be both a package and a namespace package", nil)
	}
	if r.isNamespacePackage {
		if r.hasInMemorySource || r.relPathModuleSource != nil ||
			anyBytecodeSet(r) || r.hasInMemoryExt || r.relPathExtension != nil ||
			len(r.packageResources) > 0 || len(r.distResources) > 0 {
			return wrapError(KindInvalidArgument, "namespace package record must carry no payload fields", nil)
		}
	}
	if r.hasInMemorySource && r.relPathModuleSource != nil {
		return errBothLocations("module_source")
	}
	for level := 0; level < 3; level++ {
		if r.hasInMemoryBytecode[level] && r.hasRelPathBytecode[level] {
			return errBothLocations("bytecode")
		}
	}
	if r.hasInMemoryExt && r.relPathExtension != nil {
		return errBothLocations("extension_module")
	}
	if r.hasInMemorySharedLib && r.relPathSharedLib != nil {
		return errBothLocations("shared_library")
	}
	return nil
}

func anyBytecodeSet(r *Record) bool {
	for level := 0; level < 3; level++ {
		if r.hasInMemoryBytecode[level] || r.hasRelPathBytecode[level] {
			return true
		}
	}
	return false
}

func errBothLocations(field string) error {
	return wrapError(KindInvalidArgument, "record declares both in-memory and relative-path locations for "+field, nil)
}

func copyByteMap(m map[string][]byte) map[string][]byte {
	if m == nil {
		return nil
	}
	out := make(map[string][]byte, len(m))
	for k, v := range m {
		cp := make([]byte, len(v))
		copy(cp, v)
		out[k] = cp
	}
	return out
}

func sortedKeys(m map[string][]byte) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedStringKeys(m map[string][]string) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
