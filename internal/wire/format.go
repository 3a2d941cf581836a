// Package wire implements the binary index format: a compact, append-only,
// self-describing encoding of a collection of resource records supporting
// zero-copy reads of both keys and values over a borrowed buffer.
//
// Layout (little-endian throughout):
//
//	offset  size  field
//	0       7     magic "pyembed"
//	7       1     format version
//	8       4     blob-section-count (u32)
//	12      4     resource-count (u32)
//	16      ...   name blob: resourceCount * (u32 nameLen, nameLen bytes), sorted by name
//	...     ...   directory: resourceCount * (u32 recordOffset), parallel to the name blob
//	...     ...   record stream: per resource, a (tag byte, payload)* sequence
//	                terminated by tagEndOfResource, in the order named by the
//	                directory
//	...     ...   blob sections: blobSectionCount * (u32 sectionLen, sectionLen bytes)
//
// Byte-sequence payloads reference a (blobSection, offset, length) triplet
// encoded as three protobuf-style varints into one of the blob sections;
// scalar payloads (flavor, booleans) are inlined as a single byte.
package wire

import "errors"

// Magic is the fixed 7-byte header identifying an index blob.
var Magic = [7]byte{'p', 'y', 'e', 'm', 'b', 'e', 'd'}

// Version is the only format version this package writes and reads.
// Version 1 is a legacy variant with a smaller, underspecified field set;
// per the open question in the originating specification it is refused
// outright rather than guessed at.
const Version = 3

const headerSize = 16

// Blob sections, chosen to colocate same-kind payloads for locality.
const (
	SectionSource           = 0
	SectionBytecode         = 1
	SectionExtensionModule  = 2
	SectionSharedLibrary    = 3
	SectionPackageResources = 4
	SectionDistResources    = 5
	SectionCount            = 6
)

// Field tags. Order here is the writer's canonical emission order.
const (
	tagEndOfResource = 0x00

	tagFlavor             = 0x01
	tagIsPackage          = 0x02
	tagIsNamespacePackage = 0x03

	tagInMemorySource = 0x04

	tagInMemoryBytecode0 = 0x05
	tagInMemoryBytecode1 = 0x06
	tagInMemoryBytecode2 = 0x07

	tagInMemoryExtensionModule = 0x08
	tagInMemorySharedLibrary   = 0x09

	tagPackageResources             = 0x0A
	tagDistributionResources        = 0x0B
	tagSharedLibraryDependencyNames = 0x0C

	tagRelPathModuleSource = 0x0D

	tagRelPathBytecode0 = 0x0E
	tagRelPathBytecode1 = 0x0F
	tagRelPathBytecode2 = 0x10

	tagRelPathExtensionModule = 0x11
	tagRelPathSharedLibrary   = 0x12

	tagRelPathPackageResources      = 0x13
	tagRelPathDistributionResources = 0x14

	maxKnownTag = tagRelPathDistributionResources
)

// ErrEmpty is not returned by Decode: a zero-length buffer fails with
// ErrShortBuffer like any buffer shorter than the header.
var ErrEmpty = errors.New("wire: empty buffer")

func bytecodeTag(level int, relPath bool) byte {
	if relPath {
		return byte(tagRelPathBytecode0 + level)
	}
	return byte(tagInMemoryBytecode0 + level)
}
