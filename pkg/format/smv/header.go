// Package smv reads the SMV image container used by ADSC and compatible
// detectors: an ASCII key=value header of a declared size, followed by
// unsigned 16-bit pixel data.
package smv

import (
	"bytes"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/arthur-debert/difftbx/pkg/errors"
)

// headerProbeBytes is how much of the file start is inspected to locate
// the HEADER_BYTES declaration
const headerProbeBytes = 45

var headerBytesRe = regexp.MustCompile(`HEADER_BYTES\s*=\s*(\d+)`)

// Header holds the parsed key=value records of an SMV header
type Header map[string]string

// Has reports whether every given key is present
func (h Header) Has(keys ...string) bool {
	for _, key := range keys {
		if _, ok := h[key]; !ok {
			return false
		}
	}
	return true
}

// Float returns the value of key parsed as a float
func (h Header) Float(key string) (float64, error) {
	value, ok := h[key]
	if !ok {
		return 0, errors.Newf(errors.ErrHeaderParse, "header is missing key %s", key)
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrHeaderParse, "header key %s is not a number: %q", key, value)
	}
	return f, nil
}

// FloatOr returns the value of key parsed as a float, or the fallback when
// the key is absent
func (h Header) FloatOr(key string, fallback float64) (float64, error) {
	if _, ok := h[key]; !ok {
		return fallback, nil
	}
	return h.Float(key)
}

// Int returns the value of key parsed as an integer
func (h Header) Int(key string) (int, error) {
	value, ok := h[key]
	if !ok {
		return 0, errors.Newf(errors.ErrHeaderParse, "header is missing key %s", key)
	}
	i, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrHeaderParse, "header key %s is not an integer: %q", key, value)
	}
	return i, nil
}

// ParseHeader reads the SMV header of the file. The first bytes must open a
// brace block and declare HEADER_BYTES; the declared span is then read and
// split into key=value records, with trailing semicolons stripped. Returns
// the header size in bytes, so callers know where pixel data starts.
func ParseHeader(path string) (int, Header, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil, errors.Wrapf(err, errors.ErrFileNotFound, "no such image file: %s", path)
		}
		return 0, nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot open image file: %s", path)
	}
	defer f.Close()

	probe := make([]byte, headerProbeBytes)
	if _, err := io.ReadFull(f, probe); err != nil {
		return 0, nil, errors.Wrapf(err, errors.ErrHeaderParse, "file too short for an SMV header: %s", path)
	}
	text := string(probe)
	if !strings.HasPrefix(text, "{\n") {
		return 0, nil, errors.Newf(errors.ErrHeaderParse, "file does not open an SMV header block: %s", path)
	}
	m := headerBytesRe.FindStringSubmatch(text)
	if m == nil {
		return 0, nil, errors.Newf(errors.ErrHeaderParse, "no HEADER_BYTES declaration in %s", path)
	}
	headerSize, err := strconv.Atoi(m[1])
	if err != nil || headerSize < headerProbeBytes {
		return 0, nil, errors.Newf(errors.ErrHeaderParse, "invalid HEADER_BYTES value %q in %s", m[1], path)
	}

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot seek in %s", path)
	}
	raw := make([]byte, headerSize)
	if _, err := io.ReadFull(f, raw); err != nil {
		return 0, nil, errors.Wrapf(err, errors.ErrHeaderParse,
			"file shorter than declared header size %d: %s", headerSize, path)
	}
	if !bytes.Contains(raw, []byte("}")) {
		return 0, nil, errors.Newf(errors.ErrHeaderParse, "unterminated SMV header in %s", path)
	}

	header := make(Header)
	for _, record := range strings.Split(string(raw), "\n") {
		key, value, found := strings.Cut(strings.ReplaceAll(record, ";", ""), "=")
		if !found {
			continue
		}
		header[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return headerSize, header, nil
}
