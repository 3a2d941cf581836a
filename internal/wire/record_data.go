package wire

// RecordData is the wire package's plain-data view of one resource record.
// It exists so this package can encode/decode without importing the
// higher-level pyembed package (which imports wire); pyembed.Record
// converts to/from this shape at its boundary.
type RecordData struct {
	Name string

	Flavor             string
	IsPackage          bool
	IsNamespacePackage bool

	InMemorySource    []byte
	HasInMemorySource bool

	InMemoryBytecode    [3][]byte
	HasInMemoryBytecode [3]bool

	InMemoryExtensionModule    []byte
	HasInMemoryExtensionModule bool

	InMemorySharedLibrary    []byte
	HasInMemorySharedLibrary bool

	PackageResources      map[string][]byte
	DistributionResources map[string][]byte

	SharedLibraryDependencyNames []string

	RelPathModuleSource    []string
	HasRelPathModuleSource bool

	RelPathBytecode    [3][]string
	HasRelPathBytecode [3]bool

	RelPathExtensionModule    []string
	HasRelPathExtensionModule bool

	RelPathSharedLibrary    []string
	HasRelPathSharedLibrary bool

	RelPathPackageResources      map[string][]string
	RelPathDistributionResources map[string][]string
}
