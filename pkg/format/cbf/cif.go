// Package cbf reads crystallographic binary files: an imgCIF text header
// followed by one binary data section. Both the full imgCIF flavour and
// the Dectris mini header flavour are supported.
package cbf

import (
	"bytes"
	"io"
	"os"
	"strings"

	"github.com/arthur-debert/difftbx/pkg/errors"
)

// cbfMagic opens every CBF file
const cbfMagic = "###CBF: VERSION"

// maxHeaderBytes bounds how much of the file is scanned for the text
// header before the binary section
const maxHeaderBytes = 64 * 1024

// Loop is one loop_ table: column tags and value rows
type Loop struct {
	Tags []string
	Rows [][]string
}

// Column returns the values of the given column tag
func (l *Loop) Column(tag string) ([]string, bool) {
	for i, t := range l.Tags {
		if t != tag {
			continue
		}
		values := make([]string, len(l.Rows))
		for j, row := range l.Rows {
			values[j] = row[i]
		}
		return values, true
	}
	return nil, false
}

// Document is the parsed text header of a CBF file
type Document struct {
	tags  map[string]string
	loops []*Loop
	text  string
}

// HeaderText returns the raw text header, as read from the file with line
// endings normalized
func (d *Document) HeaderText() string {
	return d.text
}

// Tag returns the value of a plain data tag
func (d *Document) Tag(name string) (string, bool) {
	value, ok := d.tags[name]
	return value, ok
}

// Value returns the value of a tag, looking first at plain tags and then
// at the first row of any loop carrying the tag as a column
func (d *Document) Value(name string) (string, bool) {
	if value, ok := d.tags[name]; ok {
		return value, ok
	}
	for _, loop := range d.loops {
		values, ok := loop.Column(name)
		if ok && len(values) > 0 {
			return values[0], true
		}
	}
	return "", false
}

// Loop returns the first loop that carries all the given column tags
func (d *Document) Loop(tags ...string) *Loop {
	for _, loop := range d.loops {
		found := true
		for _, tag := range tags {
			if _, ok := loop.Column(tag); !ok {
				found = false
				break
			}
		}
		if found {
			return loop
		}
	}
	return nil
}

// readHeaderText reads the text that precedes the binary section, cut at
// the MIME boundary when one is present, with CRLF endings normalized.
func readHeaderText(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Wrapf(err, errors.ErrFileNotFound, "no such image file: %s", path)
		}
		return "", errors.Wrapf(err, errors.ErrFileAccess, "cannot open image file: %s", path)
	}
	defer f.Close()

	raw := make([]byte, maxHeaderBytes)
	n, err := io.ReadFull(f, raw)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", errors.Wrapf(err, errors.ErrFileAccess, "cannot read header of %s", path)
	}
	raw = raw[:n]

	if i := bytes.Index(raw, []byte(binaryBoundary)); i >= 0 {
		raw = raw[:i]
	} else if i := bytes.Index(raw, binaryStartTag); i >= 0 {
		raw = raw[:i]
	}

	return strings.ReplaceAll(string(raw), "\r\n", "\n"), nil
}

// ParseHeader reads and parses the text header of a CBF file
func ParseHeader(path string) (*Document, error) {
	text, err := readHeaderText(path)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(text, cbfMagic) {
		return nil, errors.Newf(errors.ErrHeaderParse, "file does not start with the CBF magic: %s", path)
	}
	return parseDocument(text), nil
}

// parseDocument tokenizes the imgCIF subset we need: plain tags with
// inline, next-line or semicolon text field values, and loop_ tables.
// Unterminated semicolon fields are tolerated, since the text is cut at
// the binary section.
func parseDocument(text string) *Document {
	doc := &Document{
		tags: make(map[string]string),
		text: text,
	}

	lines := strings.Split(text, "\n")
	i := 0

	nextValue := func() (string, bool) {
		// value for a tag whose own line had none
		for i < len(lines) {
			line := strings.TrimSpace(lines[i])
			if line == "" {
				i++
				continue
			}
			if strings.HasPrefix(line, ";") {
				return readTextField(lines, &i), true
			}
			if isReservedWord(line) || strings.HasPrefix(line, "_") {
				return "", false
			}
			i++
			return unquote(line), true
		}
		return "", false
	}

	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		switch {
		case line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "data_"):
			i++

		case strings.HasPrefix(line, ";"):
			// stray text field with no owner, skip it
			readTextField(lines, &i)

		case strings.HasPrefix(line, "loop_"):
			i++
			doc.loops = append(doc.loops, readLoop(lines, &i))

		case strings.HasPrefix(line, "_"):
			tag, rest, _ := strings.Cut(line, " ")
			rest = strings.TrimSpace(rest)
			i++
			if rest != "" {
				doc.tags[tag] = unquote(rest)
				break
			}
			if value, ok := nextValue(); ok {
				doc.tags[tag] = value
			}

		default:
			i++
		}
	}
	return doc
}

// readTextField consumes a semicolon-delimited text field. The index
// points at the opening semicolon line on entry and past the closing one
// on return.
func readTextField(lines []string, i *int) string {
	var body []string

	first := strings.TrimPrefix(strings.TrimSpace(lines[*i]), ";")
	*i++
	if first != "" {
		body = append(body, first)
	}
	for *i < len(lines) {
		if strings.TrimSpace(lines[*i]) == ";" {
			*i++
			break
		}
		body = append(body, lines[*i])
		*i++
	}
	return strings.Join(body, "\n")
}

// readLoop consumes a loop_ table: column tags, then values until the
// next keyword. Values may wrap across lines, so they are collected flat
// and chunked into rows afterwards.
func readLoop(lines []string, i *int) *Loop {
	loop := &Loop{}

	for *i < len(lines) {
		line := strings.TrimSpace(lines[*i])
		if !strings.HasPrefix(line, "_") {
			break
		}
		loop.Tags = append(loop.Tags, strings.Fields(line)[0])
		*i++
	}

	var values []string
	for *i < len(lines) {
		line := strings.TrimSpace(lines[*i])
		if line == "" || isReservedWord(line) || strings.HasPrefix(line, "_") || strings.HasPrefix(line, ";") {
			break
		}
		if !strings.HasPrefix(line, "#") {
			values = append(values, splitValues(line)...)
		}
		*i++
	}

	if len(loop.Tags) == 0 {
		return loop
	}
	for len(values) >= len(loop.Tags) {
		loop.Rows = append(loop.Rows, values[:len(loop.Tags)])
		values = values[len(loop.Tags):]
	}
	return loop
}

func isReservedWord(line string) bool {
	return line == "loop_" || strings.HasPrefix(line, "loop_") || strings.HasPrefix(line, "data_")
}

// splitValues splits a loop data line into fields, honoring single and
// double quoted strings
func splitValues(line string) []string {
	var out []string
	for len(line) > 0 {
		line = strings.TrimLeft(line, " \t")
		if line == "" {
			break
		}
		if line[0] == '\'' || line[0] == '"' {
			quote := line[0]
			if end := strings.IndexByte(line[1:], quote); end >= 0 {
				out = append(out, line[1:1+end])
				line = line[end+2:]
				continue
			}
		}
		field := line
		if end := strings.IndexAny(line, " \t"); end >= 0 {
			field = line[:end]
			line = line[end:]
		} else {
			line = ""
		}
		out = append(out, field)
	}
	return out
}

func unquote(value string) string {
	if len(value) >= 2 {
		if (value[0] == '\'' && value[len(value)-1] == '\'') ||
			(value[0] == '"' && value[len(value)-1] == '"') {
			return value[1 : len(value)-1]
		}
	}
	return value
}
