package wire

import (
	"encoding/binary"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	records := []RecordData{
		{
			Name:              "foo",
			Flavor:            "module",
			InMemorySource:    []byte("x = 1\n"),
			HasInMemorySource: true,
		},
		{
			Name:      "pkg",
			Flavor:    "module",
			IsPackage: true,
		},
		{
			Name:                "pkg.sub",
			Flavor:              "module",
			InMemorySource:      []byte("pass\n"),
			HasInMemorySource:   true,
			PackageResources:    map[string][]byte{"data.txt": []byte("hello")},
			SharedLibraryDependencyNames: []string{"libfoo.so", "libbar.so"},
		},
	}

	data, err := Encode(records)
	require.NoError(t, err)

	idx, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, 3, idx.Len())
	require.Equal(t, uint32(Version), idx.Version())

	h, ok := idx.Lookup("foo")
	require.True(t, ok)
	flavor, ok, err := h.Flavor()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "module", flavor)
	src, ok, err := h.Source()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "x = 1\n", string(src))

	hPkg, ok := idx.Lookup("pkg")
	require.True(t, ok)
	isPkg, err := hPkg.IsPackage()
	require.NoError(t, err)
	require.True(t, isPkg)

	hSub, ok := idx.Lookup("pkg.sub")
	require.True(t, ok)
	res, ok, err := hSub.PackageResource("data.txt")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "hello", string(res))
	deps, err := hSub.SharedLibraryDependencyNames()
	require.NoError(t, err)
	require.Equal(t, []string{"libfoo.so", "libbar.so"}, deps)

	// Deterministic encoding: same set, different insertion order.
	shuffled := []RecordData{records[2], records[0], records[1]}
	data2, err := Encode(shuffled)
	require.NoError(t, err)
	require.Equal(t, data, data2)
}

func TestDecodeEmptyIndex(t *testing.T) {
	data, err := Encode(nil)
	require.NoError(t, err)
	idx, err := Decode(data)
	require.NoError(t, err)
	require.Equal(t, 0, idx.Len())
	_, ok := idx.Lookup("anything")
	require.False(t, ok)
}

// TestDecodeLiteralEmptyIndexBuffer decodes the minimal 16-byte index
// buffer by its literal bytes rather than via Encode, which always embeds
// SectionCount sections and so can't exercise a header declaring 0.
func TestDecodeLiteralEmptyIndexBuffer(t *testing.T) {
	buf := make([]byte, headerSize)
	copy(buf[0:7], Magic[:])
	buf[7] = Version
	binary.LittleEndian.PutUint32(buf[8:12], 0)
	binary.LittleEndian.PutUint32(buf[12:16], 0)

	idx, err := Decode(buf)
	require.NoError(t, err)
	require.Equal(t, 0, idx.Len())
	require.Equal(t, uint32(Version), idx.Version())
	_, ok := idx.Lookup("anything")
	require.False(t, ok)
}

func TestDecodeShortBuffer(t *testing.T) {
	_, err := Decode(Magic[:])
	require.ErrorIs(t, err, ErrShortBuffer)
}

func TestDecodeMagicMismatch(t *testing.T) {
	data, err := Encode(nil)
	require.NoError(t, err)
	data[0] = 'x'
	_, err = Decode(data)
	require.ErrorIs(t, err, ErrUnrecognized)
}

func TestDecodeUnsupportedVersion(t *testing.T) {
	data, err := Encode(nil)
	require.NoError(t, err)
	data[7] = 0
	_, err = Decode(data)
	require.ErrorIs(t, err, ErrUnsupported)

	data[7] = 1
	_, err = Decode(data)
	require.ErrorIs(t, err, ErrUnsupported)
}

func TestDecodeTruncatedByOneByte(t *testing.T) {
	records := []RecordData{
		{Name: "foo", Flavor: "module", InMemorySource: []byte("x = 1\n"), HasInMemorySource: true},
	}
	data, err := Encode(records)
	require.NoError(t, err)

	truncated := data[:len(data)-1]
	_, err = Decode(truncated)
	require.Error(t, err)
	require.True(t, err == ErrShortBuffer || errIsCorruptOrShort(err))
}

func errIsCorruptOrShort(err error) bool {
	return errors.Is(err, ErrCorrupt) || errors.Is(err, ErrShortBuffer)
}

func TestMaterializeRoundTrip(t *testing.T) {
	orig := RecordData{
		Name:                   "pkg.sub",
		Flavor:                 "module",
		IsPackage:              true,
		InMemorySource:         []byte("pass\n"),
		HasInMemorySource:      true,
		PackageResources:       map[string][]byte{"b.txt": []byte("2"), "a.txt": []byte("1")},
		DistributionResources:  map[string][]byte{"METADATA": []byte("Name: x\n")},
		SharedLibraryDependencyNames: []string{"libc.so"},
	}
	data, err := Encode([]RecordData{orig})
	require.NoError(t, err)
	idx, err := Decode(data)
	require.NoError(t, err)
	h, ok := idx.Lookup("pkg.sub")
	require.True(t, ok)
	got, err := h.Materialize()
	require.NoError(t, err)
	require.Equal(t, orig.Name, got.Name)
	require.Equal(t, orig.Flavor, got.Flavor)
	require.True(t, got.IsPackage)
	require.Equal(t, orig.InMemorySource, got.InMemorySource)
	require.Equal(t, orig.PackageResources, got.PackageResources)
	require.Equal(t, orig.DistributionResources, got.DistributionResources)
	require.Equal(t, orig.SharedLibraryDependencyNames, got.SharedLibraryDependencyNames)
}
