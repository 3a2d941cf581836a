package pyembed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/embedimport/pyembed/internal/wire"
)

func buildIndex(t *testing.T, records []wire.RecordData) []byte {
	t.Helper()
	data, err := wire.Encode(records)
	require.NoError(t, err)
	return data
}

func TestFinderFindSpecUnknownModuleReturnsNil(t *testing.T) {
	idx := buildIndex(t, nil)
	f, err := NewFinder(idx)
	require.NoError(t, err)

	spec, err := f.FindSpec("missing", nil)
	require.NoError(t, err)
	assert.Nil(t, spec)
}

func TestFinderFindSpecPureSourceModule(t *testing.T) {
	idx := buildIndex(t, []wire.RecordData{
		{Name: "mod", Flavor: "module", InMemorySource: []byte("x = 1\n"), HasInMemorySource: true},
	})
	f, err := NewFinder(idx)
	require.NoError(t, err)

	spec, err := f.FindSpec("mod", nil)
	require.NoError(t, err)
	require.NotNil(t, spec)
	assert.Equal(t, "mod", spec.Name)
	assert.False(t, spec.IsPackage)
	assert.Nil(t, spec.Origin)
	assert.Same(t, f, spec.Loader)
}

func TestFinderPackageWithSubmodule(t *testing.T) {
	idx := buildIndex(t, []wire.RecordData{
		{Name: "pkg", Flavor: "module", IsPackage: true, InMemorySource: []byte(""), HasInMemorySource: true},
		{Name: "pkg.sub", Flavor: "module", InMemorySource: []byte("pass\n"), HasInMemorySource: true},
	})
	f, err := NewFinder(idx, WithPathHookBase("/base"))
	require.NoError(t, err)

	spec, err := f.FindSpec("pkg", nil)
	require.NoError(t, err)
	require.NotNil(t, spec)
	assert.Equal(t, []string{"/base/pkg"}, spec.SubmoduleSearchLocations)

	mods, err := f.IterModules("")
	require.NoError(t, err)
	assert.Equal(t, []ModuleInfo{{Name: "pkg", IsPackage: true}}, mods)
}

func TestFinderGetSourceDecodesDeclaredEncoding(t *testing.T) {
	src := []byte("# -*- coding: latin-1 -*-\nx = '\xe9'\n")
	idx := buildIndex(t, []wire.RecordData{
		{Name: "mod", Flavor: "module", InMemorySource: src, HasInMemorySource: true},
	})
	f, err := NewFinder(idx)
	require.NoError(t, err)

	got, err := f.GetSource("mod")
	require.NoError(t, err)
	assert.Equal(t, "# -*- coding: latin-1 -*-\nx = '\xc3\xa9'\n", string(got))
}

func TestFinderPathHookScopesToPackage(t *testing.T) {
	idx := buildIndex(t, []wire.RecordData{
		{Name: "pkg", Flavor: "module", IsPackage: true, InMemorySource: []byte(""), HasInMemorySource: true},
		{Name: "pkg.sub", Flavor: "module", InMemorySource: []byte("pass\n"), HasInMemorySource: true},
	})
	f, err := NewFinder(idx, WithPathHookBase("/base"))
	require.NoError(t, err)

	sub, err := f.PathHook("/base/pkg")
	require.NoError(t, err)
	assert.Equal(t, "pkg", sub.Package())

	mods, err := sub.IterModules("")
	require.NoError(t, err)
	assert.Equal(t, []ModuleInfo{{Name: "sub", IsPackage: false}}, mods)

	spec, err := sub.FindSpec("pkg.sub")
	require.NoError(t, err)
	require.NotNil(t, spec)

	_, err = sub.FindSpec("pkg.sub", "/some/path")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnexpectedArgument)
}

func TestFinderDistributionMetadata(t *testing.T) {
	idx := buildIndex(t, []wire.RecordData{
		{
			Name:   "foo",
			Flavor: "module",
			DistributionResources: map[string][]byte{
				"METADATA": []byte("Name: foo\nVersion: 1.0\nRequires-Dist: bar\n"),
			},
		},
	})
	f, err := NewFinder(idx)
	require.NoError(t, err)

	name := "foo"
	ds, err := f.FindDistributions(DistributionContext{Name: &name})
	require.NoError(t, err)
	require.Len(t, ds, 1)
	assert.Equal(t, "foo", ds[0].Name())
	assert.Equal(t, "1.0", ds[0].Version())
	assert.Equal(t, []string{"bar"}, ds[0].Requires())

	upper := "FOO"
	ds, err = f.FindDistributions(DistributionContext{Name: &upper})
	require.NoError(t, err)
	assert.Len(t, ds, 1)

	missing := "missing"
	ds, err = f.FindDistributions(DistributionContext{Name: &missing})
	require.NoError(t, err)
	assert.Empty(t, ds)
}

func TestFinderPathHookRejectsInvalidInputs(t *testing.T) {
	idx := buildIndex(t, nil)
	f, err := NewFinder(idx, WithPathHookBase("/base"))
	require.NoError(t, err)

	cases := []string{"", "/tmp/other", "/base/foo/../bar", "/base//foo", "/base/"}
	for _, input := range cases {
		_, err := f.PathHook(input)
		require.Errorf(t, err, "expected failure for %q", input)
	}
}
