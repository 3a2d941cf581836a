package pyembed

import "github.com/embedimport/pyembed/internal/wire"

// entry is the Finder's unified view over one named resource, whether it
// comes from the immutable base index (a wire.Handle, lazily
// materialized) or was added after construction via an Index* mutation
// method (a *Record, already fully in memory). This lets FindSpec/
// GetCode/etc. query either source through one accessor surface.
type entry struct {
	handle *wire.Handle
	record *Record
}

func entryFromHandle(h wire.Handle) entry { return entry{handle: &h} }
func entryFromRecord(r *Record) entry     { return entry{record: r} }

func (e entry) name() string {
	if e.record != nil {
		return e.record.Name()
	}
	return string(e.handle.Name())
}

func (e entry) flavor() (Flavor, error) {
	if e.record != nil {
		return e.record.Flavor(), nil
	}
	f, ok, err := e.handle.Flavor()
	if err != nil {
		return FlavorNone, wrapError(KindCorruptIndex, "reading flavor", err)
	}
	if !ok {
		return FlavorNone, nil
	}
	return Flavor(f), nil
}

func (e entry) isPackage() (bool, error) {
	if e.record != nil {
		return e.record.IsPackage(), nil
	}
	v, err := e.handle.IsPackage()
	if err != nil {
		return false, wrapError(KindCorruptIndex, "reading is-package", err)
	}
	return v, nil
}

func (e entry) isNamespacePackage() (bool, error) {
	if e.record != nil {
		return e.record.IsNamespacePackage(), nil
	}
	v, err := e.handle.IsNamespacePackage()
	if err != nil {
		return false, wrapError(KindCorruptIndex, "reading is-namespace-package", err)
	}
	return v, nil
}

func (e entry) source() ([]byte, bool, error) {
	if e.record != nil {
		b, ok := e.record.InMemorySource()
		return b, ok, nil
	}
	b, ok, err := e.handle.Source()
	if err != nil {
		return nil, false, wrapError(KindCorruptIndex, "reading source", err)
	}
	return b, ok, nil
}

func (e entry) bytecode(level int) ([]byte, bool, error) {
	if e.record != nil {
		b, ok := e.record.InMemoryBytecode(level)
		return b, ok, nil
	}
	b, ok, err := e.handle.Bytecode(level)
	if err != nil {
		return nil, false, wrapError(KindCorruptIndex, "reading bytecode", err)
	}
	return b, ok, nil
}

func (e entry) extensionModule() ([]byte, bool, error) {
	if e.record != nil {
		b, ok := e.record.InMemoryExtensionModule()
		return b, ok, nil
	}
	b, ok, err := e.handle.ExtensionModule()
	if err != nil {
		return nil, false, wrapError(KindCorruptIndex, "reading extension module", err)
	}
	return b, ok, nil
}

func (e entry) sharedLibrary() ([]byte, bool, error) {
	if e.record != nil {
		b, ok := e.record.InMemorySharedLibrary()
		return b, ok, nil
	}
	b, ok, err := e.handle.SharedLibrary()
	if err != nil {
		return nil, false, wrapError(KindCorruptIndex, "reading shared library", err)
	}
	return b, ok, nil
}

func (e entry) sharedLibraryDependencyNames() ([]string, error) {
	if e.record != nil {
		return e.record.SharedLibraryDependencyNames(), nil
	}
	names, err := e.handle.SharedLibraryDependencyNames()
	if err != nil {
		return nil, wrapError(KindCorruptIndex, "reading shared library dependencies", err)
	}
	return names, nil
}

func (e entry) packageResourceNames() ([]string, error) {
	if e.record != nil {
		return e.record.PackageResourceNames(), nil
	}
	names, err := e.handle.PackageResourceNames()
	if err != nil {
		return nil, wrapError(KindCorruptIndex, "reading package resource names", err)
	}
	return names, nil
}

func (e entry) packageResource(name string) ([]byte, bool, error) {
	if e.record != nil {
		b, ok := e.record.PackageResource(name)
		return b, ok, nil
	}
	b, ok, err := e.handle.PackageResource(name)
	if err != nil {
		return nil, false, wrapError(KindCorruptIndex, "reading package resource", err)
	}
	return b, ok, nil
}

func (e entry) distributionResourceNames() ([]string, error) {
	if e.record != nil {
		return e.record.DistributionResourceNames(), nil
	}
	names, err := e.handle.DistributionResourceNames()
	if err != nil {
		return nil, wrapError(KindCorruptIndex, "reading distribution resource names", err)
	}
	return names, nil
}

func (e entry) distributionResource(name string) ([]byte, bool, error) {
	if e.record != nil {
		b, ok := e.record.DistributionResource(name)
		return b, ok, nil
	}
	b, ok, err := e.handle.DistributionResource(name)
	if err != nil {
		return nil, false, wrapError(KindCorruptIndex, "reading distribution resource", err)
	}
	return b, ok, nil
}

func (e entry) relPathModuleSource() ([]string, bool, error) {
	if e.record != nil {
		c, ok := e.record.RelativePathModuleSource()
		return c, ok, nil
	}
	c, ok, err := e.handle.RelPathModuleSource()
	if err != nil {
		return nil, false, wrapError(KindCorruptIndex, "reading relative-path module source", err)
	}
	return c, ok, nil
}

func (e entry) relPathBytecode(level int) ([]string, bool, error) {
	if e.record != nil {
		c, ok := e.record.RelativePathBytecode(level)
		return c, ok, nil
	}
	c, ok, err := e.handle.RelPathBytecode(level)
	if err != nil {
		return nil, false, wrapError(KindCorruptIndex, "reading relative-path bytecode", err)
	}
	return c, ok, nil
}

func (e entry) relPathExtensionModule() ([]string, bool, error) {
	if e.record != nil {
		c, ok := e.record.RelativePathExtensionModule()
		return c, ok, nil
	}
	c, ok, err := e.handle.RelPathExtensionModule()
	if err != nil {
		return nil, false, wrapError(KindCorruptIndex, "reading relative-path extension module", err)
	}
	return c, ok, nil
}

func (e entry) relPathPackageResourceNames() ([]string, error) {
	if e.record != nil {
		return e.record.RelativePathPackageResourceNames(), nil
	}
	names, err := e.handle.RelPathPackageResourceNames()
	if err != nil {
		return nil, wrapError(KindCorruptIndex, "reading relative-path package resource names", err)
	}
	return names, nil
}

func (e entry) relPathPackageResource(name string) ([]string, bool, error) {
	if e.record != nil {
		c, ok := e.record.RelativePathPackageResource(name)
		return c, ok, nil
	}
	c, ok, err := e.handle.RelPathPackageResource(name)
	if err != nil {
		return nil, false, wrapError(KindCorruptIndex, "reading relative-path package resource", err)
	}
	return c, ok, nil
}

func (e entry) relPathDistributionResourceNames() ([]string, error) {
	if e.record != nil {
		return e.record.RelativePathDistributionResourceNames(), nil
	}
	names, err := e.handle.RelPathDistributionResourceNames()
	if err != nil {
		return nil, wrapError(KindCorruptIndex, "reading relative-path distribution resource names", err)
	}
	return names, nil
}

func (e entry) relPathDistributionResource(name string) ([]string, bool, error) {
	if e.record != nil {
		c, ok := e.record.RelativePathDistributionResource(name)
		return c, ok, nil
	}
	c, ok, err := e.handle.RelPathDistributionResource(name)
	if err != nil {
		return nil, false, wrapError(KindCorruptIndex, "reading relative-path distribution resource", err)
	}
	return c, ok, nil
}
