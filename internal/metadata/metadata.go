// Package metadata parses the two on-disk metadata formats a Python
// distribution ships: an RFC-822-style message (METADATA/PKG-INFO) and an
// INI-style entry-points file (entry_points.txt).
package metadata

import (
	"bufio"
	"bytes"
	"net/textproto"
	"regexp"
	"strings"

	"gopkg.in/ini.v1"
)

// Message is a parsed RFC-822-style metadata document. Fields repeat (a
// distribution may declare several Requires-Dist: headers), so values are
// kept in declaration order per key.
type Message struct {
	header textproto.MIMEHeader
}

// ParseMessage reads an RFC-822-style message with continuation lines,
// the format METADATA and PKG-INFO both use.
func ParseMessage(data []byte) (*Message, error) {
	tp := textproto.NewReader(bufio.NewReader(bytes.NewReader(data)))
	h, err := tp.ReadMIMEHeader()
	if err != nil && len(h) == 0 {
		return nil, err
	}
	return &Message{header: h}, nil
}

// Get returns the first value for key, or "" if absent.
func (m *Message) Get(key string) string {
	return m.header.Get(key)
}

// Values returns every declared value for key, in declaration order.
func (m *Message) Values(key string) []string {
	return m.header.Values(key)
}

// EntryPoint is one entry_points.txt line: a name bound to a value within
// a named group (the file's section header).
type EntryPoint struct {
	Name  string
	Value string
	Group string
}

// ParseEntryPoints parses an entry_points.txt document into its flat list
// of (name, value, group) triples.
func ParseEntryPoints(data []byte) ([]EntryPoint, error) {
	f, err := ini.Load(data)
	if err != nil {
		return nil, err
	}
	var out []EntryPoint
	for _, section := range f.Sections() {
		name := section.Name()
		if name == ini.DefaultSection && len(section.Keys()) == 0 {
			continue
		}
		for _, key := range section.Keys() {
			out = append(out, EntryPoint{Name: key.Name(), Value: key.Value(), Group: name})
		}
	}
	return out, nil
}

var collapseRunSeparators = regexp.MustCompile(`[-_.]+`)

// NormalizeName implements the canonical distribution-name normalization:
// lowercase, then collapse runs of '-', '_', '.' into a single '-'.
func NormalizeName(name string) string {
	return collapseRunSeparators.ReplaceAllString(strings.ToLower(name), "-")
}
