package pyembed

import "github.com/embedimport/pyembed/internal/pathutil"

// pathEntryFinder is a scoped view of a Finder limited to one package
// prefix, constructed only by Finder.PathHook. Query methods delegate to
// the parent Finder's index but restrict results to pkg's immediate
// children.
type pathEntryFinder struct {
	parent *Finder
	pkg    string
}

// Package returns the sub-finder's resolved dotted package prefix
// (possibly "" for the top level). Read-only: there is no setter, mirroring
// the host protocol's read-only _package field.
func (p *pathEntryFinder) Package() string { return p.pkg }

// FindSpec resolves name to a spec iff name is strictly an immediate child
// of the sub-finder's scope. Supplying any path argument fails with
// unexpected-argument, matching the host protocol's single-positional-arg
// contract for path-entry finders.
func (p *pathEntryFinder) FindSpec(name string, path ...string) (*Spec, error) {
	if len(path) > 0 {
		return nil, wrapError(KindUnexpectedArgument, "path-entry finder find_spec takes exactly one positional argument", nil)
	}
	parent, ok := pathutil.DottedParent(name)
	if !ok {
		parent = ""
	}
	if parent != p.pkg {
		return nil, nil
	}

	p.parent.mu.RLock()
	e, ok := p.parent.entries[name]
	p.parent.mu.RUnlock()
	defer p.parent.seal()
	if !ok {
		return nil, nil
	}
	return p.parent.specFor(name, e)
}

// IterModules enumerates the sub-finder's immediate children, in
// lexicographic order.
func (p *pathEntryFinder) IterModules(prefix string) ([]ModuleInfo, error) {
	p.parent.mu.RLock()
	children := append([]string(nil), p.parent.children[p.pkg]...)
	p.parent.mu.RUnlock()
	defer p.parent.seal()

	out := make([]ModuleInfo, 0, len(children))
	for _, name := range children {
		p.parent.mu.RLock()
		e := p.parent.entries[name]
		p.parent.mu.RUnlock()
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
