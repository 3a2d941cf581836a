package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMessageReadsHeadersAndContinuations(t *testing.T) {
	msg, err := ParseMessage([]byte("Name: foo\nVersion: 1.0\nSummary: a\n library\nRequires-Dist: bar\nRequires-Dist: baz\n\n"))
	require.NoError(t, err)
	assert.Equal(t, "foo", msg.Get("Name"))
	assert.Equal(t, "1.0", msg.Get("Version"))
	assert.Equal(t, []string{"bar", "baz"}, msg.Values("Requires-Dist"))
}

func TestParseEntryPoints(t *testing.T) {
	eps, err := ParseEntryPoints([]byte("[console_scripts]\nfoo = pkg.mod:main\n\n[pkg.plugins]\nbar = pkg.mod:Bar\n"))
	require.NoError(t, err)
	require.Len(t, eps, 2)
	assert.Equal(t, EntryPoint{Name: "foo", Value: "pkg.mod:main", Group: "console_scripts"}, eps[0])
	assert.Equal(t, EntryPoint{Name: "bar", Value: "pkg.mod:Bar", Group: "pkg.plugins"}, eps[1])
}

func TestNormalizeName(t *testing.T) {
	assert.Equal(t, "foo-bar", NormalizeName("Foo_Bar"))
	assert.Equal(t, "foo-bar", NormalizeName("foo.-_bar"))
	assert.Equal(t, "foo-bar", NormalizeName("FOO-BAR"))
}
