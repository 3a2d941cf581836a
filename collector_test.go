package pyembed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const collectorFakeCompilerScript = `#!/bin/sh
while read -r cmd; do
  if [ "$cmd" = "exit" ]; then
    exit 0
  fi
  read -r namelen
  read -r srclen
  read -r optimize
  read -r mode
  dd bs=1 count="$namelen" 2>/dev/null > /dev/null
  src=$(dd bs=1 count="$srclen" 2>/dev/null; echo .)
  src=${src%.}
  out="BYTECODE:$src"
  printf '%s\n%s' "${#out}" "$out"
done
`

// writeFakeCompiler materializes collectorFakeCompilerScript as an
// executable file so tests can exercise Collector.Oxidize against a real
// subprocess speaking the wire protocol.
func writeFakeCompiler(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-compiler.sh")
	require.NoError(t, os.WriteFile(path, []byte(collectorFakeCompilerScript), 0o755))
	return path
}

func TestCollectorAddInMemoryRejectsDisallowedLocation(t *testing.T) {
	c, err := NewCollector([]Location{LocationFilesystemRelative})
	require.NoError(t, err)
	rec, err := NewRecord("mod")
	require.NoError(t, err)
	err = c.AddInMemory(rec)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestCollectorAddInMemoryRejectsNativeExtension(t *testing.T) {
	c, err := NewCollector([]Location{LocationInMemory})
	require.NoError(t, err)
	rec, err := NewRecord("mod")
	require.NoError(t, err)
	require.NoError(t, rec.SetFlavor(FlavorNativeExtension))
	err = c.AddInMemory(rec)
	require.Error(t, err)
}

func TestCollectorOxidizeCompilesMissingBytecode(t *testing.T) {
	compilerPath := writeFakeCompiler(t)

	c, err := NewCollector([]Location{LocationInMemory})
	require.NoError(t, err)

	rec, err := NewRecord("pkg.mod")
	require.NoError(t, err)
	require.NoError(t, rec.SetFlavor(FlavorModule))
	require.NoError(t, rec.SetInMemorySource([]byte("x = 1\n")))
	require.NoError(t, c.AddInMemory(rec))

	out, err := c.Oxidize(context.Background(), compilerPath)
	require.NoError(t, err)
	require.Len(t, out.Records, 1)

	bc, ok := out.Records[0].InMemoryBytecode(0)
	require.True(t, ok)
	assert.Equal(t, "BYTECODE:x = 1\n", string(bc))
}

func TestCollectorOxidizeFilesystemLayout(t *testing.T) {
	c, err := NewCollector([]Location{LocationFilesystemRelative})
	require.NoError(t, err)

	pkg, err := NewRecord("pkg")
	require.NoError(t, err)
	require.NoError(t, pkg.SetFlavor(FlavorModule))
	require.NoError(t, pkg.SetIsPackage(true))
	require.NoError(t, pkg.SetInMemorySource([]byte("")))
	require.NoError(t, pkg.SetInMemoryBytecode(0, []byte("BC")))
	require.NoError(t, pkg.SetPackageResources(map[string][]byte{"data.txt": []byte("hi")}))
	require.NoError(t, c.AddFilesystemRelative("install", pkg))

	out, err := c.Oxidize(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, out.Records, 1)

	paths := map[string][]byte{}
	for _, inst := range out.Installs {
		paths[inst.RelativePath] = inst.Bytes
	}
	assert.Contains(t, paths, "install/pkg/__init__.py")
	assert.Contains(t, paths, "install/pkg/__pycache__/__init__.cpython-3.pyc")
	assert.Contains(t, paths, "install/pkg/data.txt")
	assert.Equal(t, []byte("hi"), paths["install/pkg/data.txt"])

	relSource, ok := out.Records[0].RelativePathModuleSource()
	require.True(t, ok)
	assert.Equal(t, []string{"pkg", "__init__.py"}, relSource)
}

func TestCollectorOxidizeAlreadyConsumed(t *testing.T) {
	c, err := NewCollector([]Location{LocationInMemory})
	require.NoError(t, err)
	_, err = c.Oxidize(context.Background(), "")
	require.NoError(t, err)
	_, err = c.Oxidize(context.Background(), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrAlreadyConsumed)
}
