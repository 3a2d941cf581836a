package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"
)

// Index is a decoded index blob borrowing its backing buffer. All byte
// slices handed out by its accessors alias data and share its lifetime;
// callers must keep data alive (or the mmap it backs onto) for as long as
// the Index or any Handle/byte slice derived from it is in use.
type Index struct {
	data          []byte
	version       uint32
	names         [][]byte // sorted, alias data
	recordOffsets []int
	sections      [][]byte // alias data; length is the header's own section count
}

// Decode parses a serialized index blob. The returned Index borrows data;
// callers must not mutate data afterward.
func Decode(data []byte) (*Index, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: expected >= %d bytes, got %d", ErrShortBuffer, headerSize, len(data))
	}
	if !bytes.Equal(data[0:7], Magic[:]) {
		return nil, fmt.Errorf("%w: got %x", ErrUnrecognized, data[0:7])
	}
	version := data[7]
	if version != Version {
		return nil, fmt.Errorf("%w: version %d", ErrUnsupported, version)
	}
	sectionCount := binary.LittleEndian.Uint32(data[8:12])
	resourceCount := binary.LittleEndian.Uint32(data[12:16])

	off := headerSize
	names := make([][]byte, resourceCount)
	for i := range names {
		n, err := readLenPrefixed(data, &off)
		if err != nil {
			return nil, err
		}
		names[i] = n
	}

	recordOffsets := make([]int, resourceCount)
	for i := range recordOffsets {
		if off+4 > len(data) {
			return nil, fmt.Errorf("%w: truncated directory", ErrCorrupt)
		}
		recordOffsets[i] = int(binary.LittleEndian.Uint32(data[off:]))
		off += 4
	}

	// The record stream follows the directory; its total length is implied
	// by the start of the blob sections, which we must locate by first
	// determining where the record stream ends. Since resources are
	// packed back-to-back with no padding, the stream's end is wherever
	// the last resource's tagEndOfResource terminator is followed
	// immediately by the blob sections. We find this by scanning forward
	// from the directory, validating that it contains exactly
	// resourceCount terminated records, then treating the remainder as
	// blob sections.
	streamStart := off
	cursor := streamStart
	for i := 0; i < int(resourceCount); i++ {
		n, err := scanRecord(data, cursor)
		if err != nil {
			return nil, err
		}
		cursor = n
	}
	streamEnd := cursor

	for i, relOff := range recordOffsets {
		abs := streamStart + relOff
		if abs < streamStart || abs > streamEnd {
			return nil, fmt.Errorf("%w: resource %d has out-of-range record offset", ErrCorrupt, i)
		}
		recordOffsets[i] = abs
	}

	sections := make([][]byte, sectionCount)
	secOff := streamEnd
	for i := range sections {
		b, err := readLenPrefixed(data, &secOff)
		if err != nil {
			return nil, err
		}
		sections[i] = b
	}

	idx := &Index{
		data:          data,
		version:       uint32(version),
		names:         names,
		recordOffsets: recordOffsets,
		sections:      sections,
	}
	if !sort.SliceIsSorted(idx.names, func(i, j int) bool { return bytes.Compare(idx.names[i], idx.names[j]) < 0 }) {
		return nil, fmt.Errorf("%w: resource names are not sorted", ErrCorrupt)
	}
	return idx, nil
}

func readLenPrefixed(data []byte, off *int) ([]byte, error) {
	if *off+4 > len(data) {
		return nil, fmt.Errorf("%w: truncated length prefix", ErrCorrupt)
	}
	n := int(binary.LittleEndian.Uint32(data[*off:]))
	*off += 4
	if n < 0 || *off+n > len(data) {
		return nil, fmt.Errorf("%w: length-prefixed field overruns buffer", ErrCorrupt)
	}
	b := data[*off : *off+n]
	*off += n
	return b, nil
}

// scanRecord walks one resource's (tag, payload)* sequence starting at
// off, validating every reference stays in bounds, and returns the offset
// just past its tagEndOfResource terminator.
func scanRecord(data []byte, off int) (int, error) {
	for {
		if off >= len(data) {
			return 0, fmt.Errorf("%w: truncated record stream", ErrCorrupt)
		}
		tag := data[off]
		off++
		if tag == tagEndOfResource {
			return off, nil
		}
		n, err := skipField(data, off, tag)
		if err != nil {
			return 0, err
		}
		off = n
	}
}

// skipField advances past one field's payload, validating bounds.
func skipField(data []byte, off int, tag byte) (int, error) {
	switch tag {
	case tagFlavor:
		if off >= len(data) {
			return 0, fmt.Errorf("%w: truncated flavor", ErrCorrupt)
		}
		if _, ok := flavorName(data[off]); !ok {
			return 0, fmt.Errorf("%w: unknown flavor code %d", ErrCorrupt, data[off])
		}
		return off + 1, nil
	case tagIsPackage, tagIsNamespacePackage:
		if off >= len(data) {
			return 0, fmt.Errorf("%w: truncated bool field", ErrCorrupt)
		}
		return off + 1, nil
	case tagInMemorySource, tagInMemoryBytecode0, tagInMemoryBytecode1, tagInMemoryBytecode2,
		tagInMemoryExtensionModule, tagInMemorySharedLibrary:
		return skipRef(data, off)
	case tagPackageResources, tagDistributionResources:
		return skipByteMapping(data, off)
	case tagSharedLibraryDependencyNames, tagRelPathModuleSource,
		tagRelPathBytecode0, tagRelPathBytecode1, tagRelPathBytecode2,
		tagRelPathExtensionModule, tagRelPathSharedLibrary:
		return skipStringList(data, off)
	case tagRelPathPackageResources, tagRelPathDistributionResources:
		return skipPathMapping(data, off)
	default:
		if tag > maxKnownTag {
			return 0, fmt.Errorf("%w: unknown field tag 0x%02x", ErrCorrupt, tag)
		}
		return 0, fmt.Errorf("%w: field tag 0x%02x not valid here", ErrCorrupt, tag)
	}
}

func skipRef(data []byte, off int) (int, error) {
	section, off2, err := consumeUvarintChecked(data, off)
	if err != nil {
		return 0, err
	}
	offset, off3, err := consumeUvarintChecked(data, off2)
	if err != nil {
		return 0, err
	}
	length, off4, err := consumeUvarintChecked(data, off3)
	if err != nil {
		return 0, err
	}
	if section >= SectionCount {
		return 0, fmt.Errorf("%w: blob section index %d out of range", ErrCorrupt, section)
	}
	// The referenced section's own bytes aren't decoded yet at this point
	// (blob sections follow the record stream in the file); we only
	// reject implausible values here. The actual offset/length are
	// checked against the real section bounds when the field is
	// materialized (see accessors.go), matching the "no field parsing
	// until first access" contract of the format.
	const maxReasonable = 1 << 40
	if offset > maxReasonable || length > maxReasonable {
		return 0, fmt.Errorf("%w: implausible blob reference offset=%d length=%d", ErrCorrupt, offset, length)
	}
	return off4, nil
}

func consumeUvarintChecked(data []byte, off int) (uint64, int, error) {
	if off > len(data) {
		return 0, 0, fmt.Errorf("%w: truncated varint", ErrCorrupt)
	}
	v, n, err := consumeUvarint(data[off:])
	if err != nil {
		return 0, 0, err
	}
	return v, off + n, nil
}

func skipStringList(data []byte, off int) (int, error) {
	count, off, err := consumeUvarintChecked(data, off)
	if err != nil {
		return 0, err
	}
	for i := uint64(0); i < count; i++ {
		l, o2, err := consumeUvarintChecked(data, off)
		if err != nil {
			return 0, err
		}
		off = o2 + int(l)
		if off > len(data) {
			return 0, fmt.Errorf("%w: string overruns buffer", ErrCorrupt)
		}
	}
	return off, nil
}

func skipByteMapping(data []byte, off int) (int, error) {
	count, off, err := consumeUvarintChecked(data, off)
	if err != nil {
		return 0, err
	}
	for i := uint64(0); i < count; i++ {
		l, o2, err := consumeUvarintChecked(data, off)
		if err != nil {
			return 0, err
		}
		off = o2 + int(l)
		if off > len(data) {
			return 0, fmt.Errorf("%w: mapping key overruns buffer", ErrCorrupt)
		}
		off, err = skipRef(data, off)
		if err != nil {
			return 0, err
		}
	}
	return off, nil
}

func skipPathMapping(data []byte, off int) (int, error) {
	count, off, err := consumeUvarintChecked(data, off)
	if err != nil {
		return 0, err
	}
	for i := uint64(0); i < count; i++ {
		l, o2, err := consumeUvarintChecked(data, off)
		if err != nil {
			return 0, err
		}
		off = o2 + int(l)
		if off > len(data) {
			return 0, fmt.Errorf("%w: mapping key overruns buffer", ErrCorrupt)
		}
		off, err = skipStringList(data, off)
		if err != nil {
			return 0, err
		}
	}
	return off, nil
}

// Version returns the index format version.
func (idx *Index) Version() uint32 { return idx.version }

// Len returns the number of resources in the index.
func (idx *Index) Len() int { return len(idx.names) }

// Lookup returns the handle for the named resource using a binary search
// over the sorted name blob, and whether it was found.
func (idx *Index) Lookup(name string) (Handle, bool) {
	n := len(idx.names)
	i := sort.Search(n, func(i int) bool { return bytes.Compare(idx.names[i], []byte(name)) >= 0 })
	if i < n && bytes.Equal(idx.names[i], []byte(name)) {
		return Handle{idx: idx, i: i}, true
	}
	return Handle{}, false
}

// At returns the handle at the given sorted index.
func (idx *Index) At(i int) Handle {
	return Handle{idx: idx, i: i}
}
