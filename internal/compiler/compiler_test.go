package compiler

import (
	"context"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectEncodingBOM(t *testing.T) {
	src := append([]byte{0xEF, 0xBB, 0xBF}, []byte("x = 1\n")...)
	enc, stripped := DetectEncoding(src)
	assert.Equal(t, "utf-8", enc)
	assert.Equal(t, []byte("x = 1\n"), stripped)
}

func TestDetectEncodingCodingDeclaration(t *testing.T) {
	src := []byte("#!/usr/bin/env python\n# -*- coding: latin-1 -*-\nx = 1\n")
	enc, stripped := DetectEncoding(src)
	assert.Equal(t, "latin-1", enc)
	assert.Equal(t, src, stripped)
}

func TestDetectEncodingCodingOnSecondLine(t *testing.T) {
	src := []byte("#!/usr/bin/env python\n#coding=iso-8859-15\nx = 1\n")
	enc, _ := DetectEncoding(src)
	assert.Equal(t, "iso-8859-15", enc)
}

func TestDetectEncodingDeclarationOnThirdLineIgnored(t *testing.T) {
	src := []byte("#!/usr/bin/env python\n\n# coding: latin-1\nx = 1\n")
	enc, _ := DetectEncoding(src)
	assert.Equal(t, "utf-8", enc)
}

func TestDetectEncodingDefault(t *testing.T) {
	enc, stripped := DetectEncoding([]byte("x = 1\n"))
	assert.Equal(t, "utf-8", enc)
	assert.Equal(t, []byte("x = 1\n"), stripped)
}

// TestDecodeSourceLatin1 reproduces a latin-1 declared module whose body
// contains a single non-ASCII byte: 0xE9 ("é" in ISO-8859-1) must come
// back as the UTF-8 encoding of "é" (0xC3 0xA9), not the raw byte.
func TestDecodeSourceLatin1(t *testing.T) {
	src := []byte("# -*- coding: latin-1 -*-\nx = '\xe9'\n")
	decoded, err := DecodeSource(src)
	require.NoError(t, err)
	assert.Equal(t, "# -*- coding: latin-1 -*-\nx = '\xc3\xa9'\n", string(decoded))
	assert.True(t, utf8.Valid(decoded))
}

func TestDecodeSourceUTF8Passthrough(t *testing.T) {
	src := []byte("# -*- coding: utf-8 -*-\nx = '\xc3\xa9'\n")
	decoded, err := DecodeSource(src)
	require.NoError(t, err)
	assert.Equal(t, src, decoded)
}

func TestDecodeSourceUnsupportedEncoding(t *testing.T) {
	src := []byte("# -*- coding: shift-jis -*-\nx = 1\n")
	_, err := DecodeSource(src)
	require.Error(t, err)
}

// fakeCompilerScript implements the stdin/stdout protocol with a POSIX
// shell: it echoes back the source bytes it was given as the "compiled"
// blob, so the test can assert the framing was produced and parsed
// correctly without depending on a real bytecode compiler being present.
const fakeCompilerScript = `
while read -r cmd; do
  if [ "$cmd" = "exit" ]; then
    exit 0
  fi
  read -r namelen
  read -r srclen
  read -r optimize
  read -r mode
  dd bs=1 count="$namelen" 2>/dev/null > /dev/null
  src=$(dd bs=1 count="$srclen" 2>/dev/null)
  printf '%s\n%s' "${#src}" "$src"
done
`

func TestCompileProtocolRoundTrip(t *testing.T) {
	c, err := Start(context.Background(), "/bin/sh", "-c", fakeCompilerScript)
	require.NoError(t, err)
	defer c.Close()

	blob, err := c.Compile("pkg.mod", []byte("hello"), 0, OutputRawBytecode)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(blob))

	require.NoError(t, c.Close())
}
