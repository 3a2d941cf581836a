package pyembed

import "github.com/embedimport/pyembed/internal/wire"

// toWireData converts a validated Record into the wire package's
// plain-data shape for encoding.
func (r *Record) toWireData() wire.RecordData {
	d := wire.RecordData{
		Name:                         r.name,
		Flavor:                       string(r.flavor),
		IsPackage:                    r.isPackage,
		IsNamespacePackage:           r.isNamespacePackage,
		InMemorySource:               r.inMemorySource,
		HasInMemorySource:            r.hasInMemorySource,
		InMemoryBytecode:             r.inMemoryBytecode,
		HasInMemoryBytecode:          r.hasInMemoryBytecode,
		InMemoryExtensionModule:      r.inMemoryExtension,
		HasInMemoryExtensionModule:   r.hasInMemoryExt,
		InMemorySharedLibrary:        r.inMemorySharedLib,
		HasInMemorySharedLibrary:     r.hasInMemorySharedLib,
		PackageResources:             r.packageResources,
		DistributionResources:        r.distResources,
		SharedLibraryDependencyNames: r.sharedLibDeps,
		RelPathModuleSource:          r.relPathModuleSource,
		HasRelPathModuleSource:       r.relPathModuleSource != nil,
		RelPathBytecode:              r.relPathBytecode,
		HasRelPathBytecode:           r.hasRelPathBytecode,
		RelPathExtensionModule:       r.relPathExtension,
		HasRelPathExtensionModule:    r.relPathExtension != nil,
		RelPathSharedLibrary:         r.relPathSharedLib,
		HasRelPathSharedLibrary:      r.relPathSharedLib != nil,
		RelPathPackageResources:      r.relPathPackageResources,
		RelPathDistributionResources: r.relPathDistResources,
	}
	return d
}

// recordFromWireData reconstructs a Record from a decoded wire.RecordData,
// as produced by wire.Handle.Materialize.
func recordFromWireData(d wire.RecordData) (*Record, error) {
	r, err := NewRecord(d.Name)
	if err != nil {
		return nil, err
	}
	if d.Flavor != "" {
		if err := r.SetFlavor(Flavor(d.Flavor)); err != nil {
			return nil, err
		}
	}
	if d.IsPackage {
		if err := r.SetIsPackage(true); err != nil {
			return nil, err
		}
	}
	if d.IsNamespacePackage {
		if err := r.SetIsNamespacePackage(true); err != nil {
			return nil, err
		}
	}
	if d.HasInMemorySource {
		r.inMemorySource = d.InMemorySource
		r.hasInMemorySource = true
	}
	for level := 0; level < 3; level++ {
		if d.HasInMemoryBytecode[level] {
			r.inMemoryBytecode[level] = d.InMemoryBytecode[level]
			r.hasInMemoryBytecode[level] = true
		}
		if d.HasRelPathBytecode[level] {
			r.relPathBytecode[level] = d.RelPathBytecode[level]
			r.hasRelPathBytecode[level] = true
		}
	}
	if d.HasInMemoryExtensionModule {
		r.inMemoryExtension = d.InMemoryExtensionModule
		r.hasInMemoryExt = true
	}
	if d.HasInMemorySharedLibrary {
		r.inMemorySharedLib = d.InMemorySharedLibrary
		r.hasInMemorySharedLib = true
	}
	r.packageResources = d.PackageResources
	r.distResources = d.DistributionResources
	r.sharedLibDeps = d.SharedLibraryDependencyNames
	if d.HasRelPathModuleSource {
		r.relPathModuleSource = d.RelPathModuleSource
	}
	if d.HasRelPathExtensionModule {
		r.relPathExtension = d.RelPathExtensionModule
	}
	if d.HasRelPathSharedLibrary {
		r.relPathSharedLib = d.RelPathSharedLibrary
	}
	r.relPathPackageResources = d.RelPathPackageResources
	r.relPathDistResources = d.RelPathDistributionResources
	return r, r.Validate()
}
