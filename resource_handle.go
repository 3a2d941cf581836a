package pyembed

// ResourceHandle is a read-only introspection view over one indexed
// resource, returned by Finder.IndexedResources.
type ResourceHandle struct {
	e entry
}

// Name returns the resource's unique name.
func (h ResourceHandle) Name() string { return h.e.name() }

// Flavor returns the resource's declared flavor.
func (h ResourceHandle) Flavor() (Flavor, error) { return h.e.flavor() }

// IsPackage reports whether the resource is a regular package.
func (h ResourceHandle) IsPackage() (bool, error) { return h.e.isPackage() }

// IsNamespacePackage reports whether the resource is a namespace package.
func (h ResourceHandle) IsNamespacePackage() (bool, error) { return h.e.isNamespacePackage() }
