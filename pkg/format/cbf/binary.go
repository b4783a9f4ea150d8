package cbf

import (
	"bytes"
	"os"
	"strconv"
	"strings"

	"github.com/arthur-debert/difftbx/pkg/byteoffset"
	"github.com/arthur-debert/difftbx/pkg/errors"
)

// binaryBoundary opens the MIME section holding the pixel data
const binaryBoundary = "--CIF-BINARY-FORMAT-SECTION--"

// binaryStartTag separates the MIME headers from the compressed stream
var binaryStartTag = []byte{0x0c, 0x1a, 0x04, 0xd5}

// binarySection is the decoded pixel block of a CBF file
type binarySection struct {
	data []int32
	fast int
	slow int
}

// parseMIMEHeaders splits the header text into key/value pairs, folding
// indented continuation lines into the previous header.
func parseMIMEHeaders(text string) map[string]string {
	headers := make(map[string]string)
	var lastKey string

	for _, line := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n") {
		if line == "" {
			continue
		}
		if (line[0] == ' ' || line[0] == '\t') && lastKey != "" {
			headers[lastKey] += " " + strings.TrimSpace(line)
			continue
		}
		key, value, found := strings.Cut(line, ":")
		if !found {
			continue
		}
		lastKey = strings.TrimSpace(key)
		headers[lastKey] = strings.TrimSpace(value)
	}
	return headers
}

// readBinarySection locates the MIME section, validates its headers and
// decompresses the pixel data
func readBinarySection(path string) (*binarySection, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(err, errors.ErrFileNotFound, "no such image file: %s", path)
		}
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot read image file: %s", path)
	}

	i := bytes.Index(content, []byte(binaryBoundary))
	if i < 0 {
		return nil, errors.Newf(errors.ErrDataRead, "no binary section in %s", path)
	}
	rest := content[i+len(binaryBoundary):]

	tag := bytes.Index(rest, binaryStartTag)
	if tag < 0 {
		return nil, errors.Newf(errors.ErrDataRead, "no binary start tag in %s", path)
	}
	headers := parseMIMEHeaders(string(rest[:tag]))
	payload := rest[tag+len(binaryStartTag):]

	if ct := headers["Content-Type"]; !strings.Contains(ct, `conversions="x-CBF_BYTE_OFFSET"`) {
		return nil, errors.Newf(errors.ErrCodec, "unsupported binary conversion %q in %s", ct, path)
	}
	if et := headers["X-Binary-Element-Type"]; !strings.Contains(et, "signed 32-bit integer") {
		return nil, errors.Newf(errors.ErrCodec, "unsupported element type %q in %s", et, path)
	}
	if bo, ok := headers["X-Binary-Element-Byte-Order"]; ok && bo != "LITTLE_ENDIAN" {
		return nil, errors.Newf(errors.ErrCodec, "unsupported byte order %q in %s", bo, path)
	}

	intHeader := func(key string) (int, error) {
		value, ok := headers[key]
		if !ok {
			return 0, errors.Newf(errors.ErrHeaderParse, "binary section of %s is missing %s", path, key)
		}
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return 0, errors.Newf(errors.ErrHeaderParse, "bad %s value %q in %s", key, value, path)
		}
		return n, nil
	}

	size, err := intHeader("X-Binary-Size")
	if err != nil {
		return nil, err
	}
	fast, err := intHeader("X-Binary-Size-Fastest-Dimension")
	if err != nil {
		return nil, err
	}
	slow, err := intHeader("X-Binary-Size-Second-Dimension")
	if err != nil {
		return nil, err
	}
	if value, ok := headers["X-Binary-Number-of-Elements"]; ok {
		elements, err := strconv.Atoi(value)
		if err != nil || elements != fast*slow {
			return nil, errors.Newf(errors.ErrHeaderParse,
				"element count %q does not match %dx%d in %s", value, fast, slow, path)
		}
	}

	if len(payload) < size {
		return nil, errors.Newf(errors.ErrDataRead,
			"binary section of %s truncated: %d of %d bytes", path, len(payload), size)
	}

	data, err := byteoffset.Decompress(payload[:size], fast*slow)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrCodec, "cannot decode pixel data of %s", path)
	}
	return &binarySection{data: data, fast: fast, slow: slow}, nil
}
