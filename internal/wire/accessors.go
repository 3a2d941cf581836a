package wire

import "fmt"

// Handle is a lightweight, lazy view of one resource. No field is
// materialized until the corresponding accessor is called; each accessor
// performs a linear scan of the resource's own (small) tag sequence.
type Handle struct {
	idx *Index
	i   int
}

// Name returns the resource's name. The returned slice aliases the
// index's backing buffer.
func (h Handle) Name() []byte { return h.idx.names[h.i] }

func (h Handle) offset() int { return h.idx.recordOffsets[h.i] }

// find scans this resource's tag sequence for the given tag and, if
// present, returns the offset just past the tag byte (the start of its
// payload) and true.
func (h Handle) find(want byte) (int, bool, error) {
	data := h.idx.data
	off := h.offset()
	for {
		if off >= len(data) {
			return 0, false, fmt.Errorf("%w: truncated record", ErrCorrupt)
		}
		tag := data[off]
		off++
		if tag == tagEndOfResource {
			return 0, false, nil
		}
		if tag == want {
			return off, true, nil
		}
		next, err := skipField(data, off, tag)
		if err != nil {
			return 0, false, err
		}
		off = next
	}
}

func (h Handle) readRef(off int, section int) ([]byte, error) {
	if section >= len(h.idx.sections) {
		return nil, fmt.Errorf("%w: blob section %d is not present in this index", ErrCorrupt, section)
	}
	sec := h.idx.sections[section]
	secIdx, off, err := consumeUvarintChecked(h.idx.data, off)
	if err != nil {
		return nil, err
	}
	offset, off, err := consumeUvarintChecked(h.idx.data, off)
	if err != nil {
		return nil, err
	}
	length, _, err := consumeUvarintChecked(h.idx.data, off)
	if err != nil {
		return nil, err
	}
	if int(secIdx) != section {
		return nil, fmt.Errorf("%w: field references wrong blob section", ErrCorrupt)
	}
	if offset+length > uint64(len(sec)) {
		return nil, fmt.Errorf("%w: blob reference overruns section %d", ErrCorrupt, section)
	}
	return sec[offset : offset+length], nil
}

// Flavor returns the resource's flavor.
func (h Handle) Flavor() (string, bool, error) {
	off, ok, err := h.find(tagFlavor)
	if err != nil || !ok {
		return "", false, err
	}
	name, known := flavorName(h.idx.data[off])
	if !known {
		return "", false, fmt.Errorf("%w: unknown flavor code", ErrCorrupt)
	}
	return name, true, nil
}

// IsPackage reports whether the is_package flag is set.
func (h Handle) IsPackage() (bool, error) {
	off, ok, err := h.find(tagIsPackage)
	if err != nil || !ok {
		return false, err
	}
	return h.idx.data[off] != 0, nil
}

// IsNamespacePackage reports whether the is_namespace_package flag is set.
func (h Handle) IsNamespacePackage() (bool, error) {
	off, ok, err := h.find(tagIsNamespacePackage)
	if err != nil || !ok {
		return false, err
	}
	return h.idx.data[off] != 0, nil
}

// Source returns the in-memory source payload, if present.
func (h Handle) Source() ([]byte, bool, error) {
	return h.readRefField(tagInMemorySource, SectionSource)
}

// Bytecode returns the in-memory bytecode payload for an optimization
// level (0, 1, or 2).
func (h Handle) Bytecode(level int) ([]byte, bool, error) {
	return h.readRefField(bytecodeTag(level, false), SectionBytecode)
}

// ExtensionModule returns the in-memory native extension module image.
func (h Handle) ExtensionModule() ([]byte, bool, error) {
	return h.readRefField(tagInMemoryExtensionModule, SectionExtensionModule)
}

// SharedLibrary returns the in-memory dependency shared library image.
func (h Handle) SharedLibrary() ([]byte, bool, error) {
	return h.readRefField(tagInMemorySharedLibrary, SectionSharedLibrary)
}

func (h Handle) readRefField(tag byte, section int) ([]byte, bool, error) {
	off, ok, err := h.find(tag)
	if err != nil || !ok {
		return nil, false, err
	}
	b, err := h.readRef(off, section)
	return b, err == nil, err
}

// PackageResourceNames returns the sorted names of in-memory package
// resources.
func (h Handle) PackageResourceNames() ([]string, error) {
	names, _, err := h.readByteMapping(tagPackageResources, SectionPackageResources)
	return names, err
}

// PackageResource returns one in-memory package resource by name.
func (h Handle) PackageResource(name string) ([]byte, bool, error) {
	_, m, err := h.readByteMapping(tagPackageResources, SectionPackageResources)
	if err != nil {
		return nil, false, err
	}
	b, ok := m[name]
	return b, ok, nil
}

// DistributionResourceNames returns the sorted names of in-memory
// distribution resources.
func (h Handle) DistributionResourceNames() ([]string, error) {
	names, _, err := h.readByteMapping(tagDistributionResources, SectionDistResources)
	return names, err
}

// DistributionResource returns one in-memory distribution resource by name.
func (h Handle) DistributionResource(name string) ([]byte, bool, error) {
	_, m, err := h.readByteMapping(tagDistributionResources, SectionDistResources)
	if err != nil {
		return nil, false, err
	}
	b, ok := m[name]
	return b, ok, nil
}

func (h Handle) readByteMapping(tag byte, section int) ([]string, map[string][]byte, error) {
	off, ok, err := h.find(tag)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, nil
	}
	data := h.idx.data
	count, off, err := consumeUvarintChecked(data, off)
	if err != nil {
		return nil, nil, err
	}
	names := make([]string, 0, count)
	m := make(map[string][]byte, count)
	for i := uint64(0); i < count; i++ {
		l, o2, err := consumeUvarintChecked(data, off)
		if err != nil {
			return nil, nil, err
		}
		if o2+int(l) > len(data) {
			return nil, nil, fmt.Errorf("%w: mapping key overruns buffer", ErrCorrupt)
		}
		key := string(data[o2 : o2+int(l)])
		off = o2 + int(l)
		val, err := h.readRef(off, section)
		if err != nil {
			return nil, nil, err
		}
		off, _, err = skipRef(data, off)
		if err != nil {
			return nil, nil, err
		}
		names = append(names, key)
		m[key] = val
	}
	return names, m, nil
}

// SharedLibraryDependencyNames returns the ordered shared-library
// dependency names.
func (h Handle) SharedLibraryDependencyNames() ([]string, error) {
	return h.readStringList(tagSharedLibraryDependencyNames)
}

// RelPathModuleSource returns the filesystem-relative source path
// components.
func (h Handle) RelPathModuleSource() ([]string, bool, error) {
	return h.readOptStringList(tagRelPathModuleSource)
}

// RelPathBytecode returns the filesystem-relative bytecode path components
// for an optimization level.
func (h Handle) RelPathBytecode(level int) ([]string, bool, error) {
	return h.readOptStringList(bytecodeTag(level, true))
}

// RelPathExtensionModule returns the filesystem-relative extension module
// path components.
func (h Handle) RelPathExtensionModule() ([]string, bool, error) {
	return h.readOptStringList(tagRelPathExtensionModule)
}

// RelPathSharedLibrary returns the filesystem-relative shared library path
// components.
func (h Handle) RelPathSharedLibrary() ([]string, bool, error) {
	return h.readOptStringList(tagRelPathSharedLibrary)
}

func (h Handle) readOptStringList(tag byte) ([]string, bool, error) {
	off, ok, err := h.find(tag)
	if err != nil || !ok {
		return nil, false, err
	}
	items, _, err := decodeStringListAt(h.idx.data, off)
	return items, err == nil, err
}

func (h Handle) readStringList(tag byte) ([]string, error) {
	items, _, err := h.readOptStringList(tag)
	return items, err
}

func decodeStringListAt(data []byte, off int) ([]string, int, error) {
	count, off, err := consumeUvarintChecked(data, off)
	if err != nil {
		return nil, 0, err
	}
	items := make([]string, 0, count)
	for i := uint64(0); i < count; i++ {
		l, o2, err := consumeUvarintChecked(data, off)
		if err != nil {
			return nil, 0, err
		}
		if o2+int(l) > len(data) {
			return nil, 0, fmt.Errorf("%w: string overruns buffer", ErrCorrupt)
		}
		items = append(items, string(data[o2:o2+int(l)]))
		off = o2 + int(l)
	}
	return items, off, nil
}

// RelPathPackageResourceNames returns the sorted names of
// filesystem-relative package resources.
func (h Handle) RelPathPackageResourceNames() ([]string, error) {
	names, _, err := h.readPathMapping(tagRelPathPackageResources)
	return names, err
}

// RelPathPackageResource returns the filesystem-relative path components
// for one package resource by name.
func (h Handle) RelPathPackageResource(name string) ([]string, bool, error) {
	_, m, err := h.readPathMapping(tagRelPathPackageResources)
	if err != nil {
		return nil, false, err
	}
	v, ok := m[name]
	return v, ok, nil
}

// RelPathDistributionResourceNames returns the sorted names of
// filesystem-relative distribution resources.
func (h Handle) RelPathDistributionResourceNames() ([]string, error) {
	names, _, err := h.readPathMapping(tagRelPathDistributionResources)
	return names, err
}

// RelPathDistributionResource returns the filesystem-relative path
// components for one distribution resource by name.
func (h Handle) RelPathDistributionResource(name string) ([]string, bool, error) {
	_, m, err := h.readPathMapping(tagRelPathDistributionResources)
	if err != nil {
		return nil, false, err
	}
	v, ok := m[name]
	return v, ok, nil
}

func (h Handle) readPathMapping(tag byte) ([]string, map[string][]string, error) {
	off, ok, err := h.find(tag)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, nil
	}
	data := h.idx.data
	count, off, err := consumeUvarintChecked(data, off)
	if err != nil {
		return nil, nil, err
	}
	names := make([]string, 0, count)
	m := make(map[string][]string, count)
	for i := uint64(0); i < count; i++ {
		l, o2, err := consumeUvarintChecked(data, off)
		if err != nil {
			return nil, nil, err
		}
		if o2+int(l) > len(data) {
			return nil, nil, fmt.Errorf("%w: mapping key overruns buffer", ErrCorrupt)
		}
		key := string(data[o2 : o2+int(l)])
		var items []string
		items, off, err = decodeStringListAt(data, o2+int(l))
		if err != nil {
			return nil, nil, err
		}
		names = append(names, key)
		m[key] = items
	}
	return names, m, nil
}

// Materialize decodes every field of this resource into a RecordData,
// for round-tripping or bulk re-serialization.
func (h Handle) Materialize() (RecordData, error) {
	var rec RecordData
	rec.Name = string(h.Name())

	flavor, ok, err := h.Flavor()
	if err != nil {
		return rec, err
	}
	if ok {
		rec.Flavor = flavor
	} else {
		rec.Flavor = "none"
	}

	if rec.IsPackage, err = h.IsPackage(); err != nil {
		return rec, err
	}
	if rec.IsNamespacePackage, err = h.IsNamespacePackage(); err != nil {
		return rec, err
	}
	if rec.InMemorySource, rec.HasInMemorySource, err = h.Source(); err != nil {
		return rec, err
	}
	for level := 0; level < 3; level++ {
		if rec.InMemoryBytecode[level], rec.HasInMemoryBytecode[level], err = h.Bytecode(level); err != nil {
			return rec, err
		}
		if rec.RelPathBytecode[level], rec.HasRelPathBytecode[level], err = h.RelPathBytecode(level); err != nil {
			return rec, err
		}
	}
	if rec.InMemoryExtensionModule, rec.HasInMemoryExtensionModule, err = h.ExtensionModule(); err != nil {
		return rec, err
	}
	if rec.InMemorySharedLibrary, rec.HasInMemorySharedLibrary, err = h.SharedLibrary(); err != nil {
		return rec, err
	}
	if _, m, err := h.readByteMapping(tagPackageResources, SectionPackageResources); err != nil {
		return rec, err
	} else if len(m) > 0 {
		rec.PackageResources = m
	}
	if _, m, err := h.readByteMapping(tagDistributionResources, SectionDistResources); err != nil {
		return rec, err
	} else if len(m) > 0 {
		rec.DistributionResources = m
	}
	if rec.SharedLibraryDependencyNames, err = h.SharedLibraryDependencyNames(); err != nil {
		return rec, err
	}
	if rec.RelPathModuleSource, rec.HasRelPathModuleSource, err = h.RelPathModuleSource(); err != nil {
		return rec, err
	}
	if rec.RelPathExtensionModule, rec.HasRelPathExtensionModule, err = h.RelPathExtensionModule(); err != nil {
		return rec, err
	}
	if rec.RelPathSharedLibrary, rec.HasRelPathSharedLibrary, err = h.RelPathSharedLibrary(); err != nil {
		return rec, err
	}
	if _, m, err := h.readPathMapping(tagRelPathPackageResources); err != nil {
		return rec, err
	} else if len(m) > 0 {
		rec.RelPathPackageResources = m
	}
	if _, m, err := h.readPathMapping(tagRelPathDistributionResources); err != nil {
		return rec, err
	} else if len(m) > 0 {
		rec.RelPathDistributionResources = m
	}
	return rec, nil
}
