package wire

import (
	"encoding/binary"
	"sort"
)

// Encode serializes records into a single contiguous index blob.
//
// The output is deterministic for a given multiset of records regardless
// of input order: records are emitted sorted by name, fields within a
// record in the fixed tag order of format.go, and mapping-valued fields
// with their entries sorted by key.
func Encode(records []RecordData) ([]byte, error) {
	sorted := append([]RecordData(nil), records...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var sections [SectionCount][]byte
	recordStream := make([]byte, 0, 256*len(sorted))
	recordOffsets := make([]int, len(sorted))

	for i, rec := range sorted {
		recordOffsets[i] = len(recordStream)
		recordStream = encodeRecord(recordStream, &sections, &rec)
	}

	nameBlob := make([]byte, 0, 64*len(sorted))
	for _, rec := range sorted {
		nameBlob = appendLenPrefixed(nameBlob, []byte(rec.Name))
	}

	directory := make([]byte, 4*len(sorted))
	for i, off := range recordOffsets {
		binary.LittleEndian.PutUint32(directory[4*i:], uint32(off))
	}

	out := make([]byte, headerSize)
	copy(out[0:7], Magic[:])
	out[7] = Version
	binary.LittleEndian.PutUint32(out[8:12], SectionCount)
	binary.LittleEndian.PutUint32(out[12:16], uint32(len(sorted)))

	out = append(out, nameBlob...)
	out = append(out, directory...)
	out = append(out, recordStream...)
	for _, sec := range sections {
		var lenBuf [4]byte
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(sec)))
		out = append(out, lenBuf[:]...)
		out = append(out, sec...)
	}
	return out, nil
}

func appendLenPrefixed(buf, data []byte) []byte {
	var lenBuf [4]byte
	binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(data)))
	buf = append(buf, lenBuf[:]...)
	return append(buf, data...)
}

// appendRef appends a (section, offset, length) varint triplet referencing
// bytes newly appended to sections[section].
func appendRef(buf []byte, sections *[SectionCount][]byte, section int, data []byte) []byte {
	offset := len(sections[section])
	sections[section] = append(sections[section], data...)
	buf = appendUvarint(buf, uint64(section))
	buf = appendUvarint(buf, uint64(offset))
	buf = appendUvarint(buf, uint64(len(data)))
	return buf
}

func encodeRecord(stream []byte, sections *[SectionCount][]byte, rec *RecordData) []byte {
	if rec.Flavor != "" {
		stream = append(stream, tagFlavor)
		stream = append(stream, flavorCode(rec.Flavor))
	}
	if rec.IsPackage {
		stream = append(stream, tagIsPackage, 1)
	}
	if rec.IsNamespacePackage {
		stream = append(stream, tagIsNamespacePackage, 1)
	}
	if rec.HasInMemorySource {
		stream = append(stream, tagInMemorySource)
		stream = appendRef(stream, sections, SectionSource, rec.InMemorySource)
	}
	for level := 0; level < 3; level++ {
		if rec.HasInMemoryBytecode[level] {
			stream = append(stream, bytecodeTag(level, false))
			stream = appendRef(stream, sections, SectionBytecode, rec.InMemoryBytecode[level])
		}
	}
	if rec.HasInMemoryExtensionModule {
		stream = append(stream, tagInMemoryExtensionModule)
		stream = appendRef(stream, sections, SectionExtensionModule, rec.InMemoryExtensionModule)
	}
	if rec.HasInMemorySharedLibrary {
		stream = append(stream, tagInMemorySharedLibrary)
		stream = appendRef(stream, sections, SectionSharedLibrary, rec.InMemorySharedLibrary)
	}
	if len(rec.PackageResources) > 0 {
		stream = append(stream, tagPackageResources)
		stream = encodeByteMapping(stream, sections, SectionPackageResources, rec.PackageResources)
	}
	if len(rec.DistributionResources) > 0 {
		stream = append(stream, tagDistributionResources)
		stream = encodeByteMapping(stream, sections, SectionDistResources, rec.DistributionResources)
	}
	if len(rec.SharedLibraryDependencyNames) > 0 {
		stream = append(stream, tagSharedLibraryDependencyNames)
		stream = encodeStringList(stream, rec.SharedLibraryDependencyNames)
	}
	if rec.HasRelPathModuleSource {
		stream = append(stream, tagRelPathModuleSource)
		stream = encodeStringList(stream, rec.RelPathModuleSource)
	}
	for level := 0; level < 3; level++ {
		if rec.HasRelPathBytecode[level] {
			stream = append(stream, bytecodeTag(level, true))
			stream = encodeStringList(stream, rec.RelPathBytecode[level])
		}
	}
	if rec.HasRelPathExtensionModule {
		stream = append(stream, tagRelPathExtensionModule)
		stream = encodeStringList(stream, rec.RelPathExtensionModule)
	}
	if rec.HasRelPathSharedLibrary {
		stream = append(stream, tagRelPathSharedLibrary)
		stream = encodeStringList(stream, rec.RelPathSharedLibrary)
	}
	if len(rec.RelPathPackageResources) > 0 {
		stream = append(stream, tagRelPathPackageResources)
		stream = encodePathMapping(stream, rec.RelPathPackageResources)
	}
	if len(rec.RelPathDistributionResources) > 0 {
		stream = append(stream, tagRelPathDistributionResources)
		stream = encodePathMapping(stream, rec.RelPathDistributionResources)
	}
	stream = append(stream, tagEndOfResource)
	return stream
}

func encodeStringList(stream []byte, items []string) []byte {
	stream = appendUvarint(stream, uint64(len(items)))
	for _, s := range items {
		stream = appendUvarint(stream, uint64(len(s)))
		stream = append(stream, s...)
	}
	return stream
}

func encodeByteMapping(stream []byte, sections *[SectionCount][]byte, section int, m map[string][]byte) []byte {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	stream = appendUvarint(stream, uint64(len(keys)))
	for _, k := range keys {
		stream = appendUvarint(stream, uint64(len(k)))
		stream = append(stream, k...)
		stream = appendRef(stream, sections, section, m[k])
	}
	return stream
}

func encodePathMapping(stream []byte, m map[string][]string) []byte {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	stream = appendUvarint(stream, uint64(len(keys)))
	for _, k := range keys {
		stream = appendUvarint(stream, uint64(len(k)))
		stream = append(stream, k...)
		stream = encodeStringList(stream, m[k])
	}
	return stream
}

func flavorCode(f string) byte {
	switch f {
	case "none":
		return 0
	case "module":
		return 1
	case "built-in-extension":
		return 2
	case "frozen":
		return 3
	case "native-extension":
		return 4
	case "shared-library":
		return 5
	default:
		return 0
	}
}

func flavorName(code byte) (string, bool) {
	switch code {
	case 0:
		return "none", true
	case 1:
		return "module", true
	case 2:
		return "built-in-extension", true
	case 3:
		return "frozen", true
	case 4:
		return "native-extension", true
	case 5:
		return "shared-library", true
	default:
		return "", false
	}
}
