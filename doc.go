// Package pyembed provides an in-process module finder/loader for an
// embedded Python interpreter, backed by a binary resource index built
// ahead of time.
//
// A [Record] describes one named resource — a module's source and/or
// bytecode, a native extension, a shared library, or package/distribution
// data — with payloads that are either held in memory or referenced by a
// filesystem-relative path. A [Collector] takes a batch of records plus a
// placement policy and resolves each one to either an in-memory Record
// (compiling missing bytecode on demand via an external compiler process)
// or a concrete filesystem install, producing an [Oxidized] result.
//
// The compiled index (see the internal/wire subpackage) is read by a
// [Finder], which implements the host interpreter's finder/loader
// protocol: FindSpec, GetCode, GetSource, GetData, GetResourceReader, and
// IterModules. PathHook scopes a Finder to one package prefix, yielding a
// path-entry sub-finder for the host's path-based import machinery.
// FindDistributions (and the package-level [FromName] and
// [DiscoverDistributions]) expose installed-distribution metadata parsed
// by the internal/metadata subpackage.
//
// # Quick Start
//
// Build an index and a Finder over it:
//
//	rec, err := pyembed.NewRecord("mod")
//	if err != nil {
//	    return err
//	}
//	rec.SetFlavor(pyembed.FlavorModule)
//	rec.SetInMemorySource([]byte("x = 1\n"))
//
//	c, err := pyembed.NewCollector([]pyembed.Location{pyembed.LocationInMemory})
//	if err != nil {
//	    return err
//	}
//	c.AddInMemory(rec)
//	oxidized, err := c.Oxidize(ctx, "/usr/bin/python3-compile")
//	if err != nil {
//	    return err
//	}
//
//	finder := pyembed.NewEmptyFinder(pyembed.WithCompilerPath("/usr/bin/python3-compile"))
//	finder.AddResources(oxidized.Records)
package pyembed
