// Package compiler drives an out-of-process Python bytecode compiler over
// a line-delimited stdin/stdout protocol, and detects the source encoding
// a module declares so compilation requests carry decoded-correctly text.
package compiler

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// codingDeclaration matches a PEP 263 style encoding comment, e.g.
// "# -*- coding: utf-8 -*-" or "#coding=latin-1".
var codingDeclaration = regexp.MustCompile(`#.*?coding[:=][ \t]*([-_.a-zA-Z0-9]+)`)

// DetectEncoding implements the source-encoding detection algorithm: a
// leading UTF-8 BOM wins outright; otherwise the first two lines are
// scanned for a coding declaration; otherwise UTF-8 is assumed. stripped
// is source with a detected BOM removed, unchanged otherwise.
func DetectEncoding(source []byte) (encoding string, stripped []byte) {
	if len(source) >= 3 && source[0] == utf8BOM[0] && source[1] == utf8BOM[1] && source[2] == utf8BOM[2] {
		return "utf-8", source[3:]
	}

	for _, line := range firstTwoLines(source) {
		if m := codingDeclaration.FindSubmatch(line); m != nil {
			return string(m[1]), source
		}
	}
	return "utf-8", source
}

// charmapByNormalizedName maps PEP 263 codec names, normalized the way
// Python's encodings.normalize_encoding does, to the x/text charmap
// decoder that implements them. Only the encodings a module's coding
// declaration realistically names are covered; an unlisted name falls
// through to an error in DecodeSource rather than a silent passthrough.
var charmapByNormalizedName = map[string]encoding.Encoding{
	"latin_1":      charmap.ISO8859_1,
	"latin1":       charmap.ISO8859_1,
	"iso_8859_1":   charmap.ISO8859_1,
	"iso8859_1":    charmap.ISO8859_1,
	"l1":           charmap.ISO8859_1,
	"cp819":        charmap.ISO8859_1,
	"8859":         charmap.ISO8859_1,
	"cp1252":       charmap.Windows1252,
	"windows_1252": charmap.Windows1252,
	"cp437":        charmap.CodePage437,
	"ibm437":       charmap.CodePage437,
	"cp850":        charmap.CodePage850,
	"latin_2":      charmap.ISO8859_2,
	"iso_8859_2":   charmap.ISO8859_2,
}

// isUTF8Name reports whether a normalized codec name refers to UTF-8 or
// to a strict subset of it (ASCII), neither of which need transcoding.
func isUTF8Name(normalized string) bool {
	switch normalized {
	case "utf_8", "utf8", "u8", "ascii", "us_ascii", "646":
		return true
	}
	return false
}

// normalizeEncodingName mirrors Python's encodings.normalize_encoding:
// lowercase, collapse runs of non-alphanumerics to a single underscore,
// and trim leading/trailing underscores. This lets "latin-1", "Latin_1",
// and "LATIN1" all resolve to ISO-8859-1 via the table above.
func normalizeEncodingName(name string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range strings.ToLower(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
			lastUnderscore = false
		case !lastUnderscore:
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.Trim(b.String(), "_")
}

// DecodeSource detects source's declared encoding and transcodes it to
// UTF-8. Source already in (or declared as) UTF-8 or ASCII is returned
// unchanged aside from BOM stripping. An unrecognized or unsupported
// coding declaration is an error rather than a silent pass-through,
// since compiling mojibake would only fail more confusingly later.
func DecodeSource(source []byte) ([]byte, error) {
	name, stripped := DetectEncoding(source)
	normalized := normalizeEncodingName(name)
	if isUTF8Name(normalized) {
		return stripped, nil
	}
	enc, ok := charmapByNormalizedName[normalized]
	if !ok {
		return nil, fmt.Errorf("compiler: unsupported source encoding %q", name)
	}
	decoded, err := enc.NewDecoder().Bytes(stripped)
	if err != nil {
		return nil, fmt.Errorf("compiler: decoding source as %q: %w", name, err)
	}
	return decoded, nil
}

func firstTwoLines(source []byte) [][]byte {
	lines := make([][]byte, 0, 2)
	start := 0
	for i := 0; i < len(source) && len(lines) < 2; i++ {
		if source[i] == '\n' {
			lines = append(lines, source[start:i])
			start = i + 1
		}
	}
	if len(lines) < 2 && start < len(source) {
		lines = append(lines, source[start:])
	}
	return lines
}
