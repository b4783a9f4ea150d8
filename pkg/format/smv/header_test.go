package smv_test

import (
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/difftbx/pkg/errors"
	"github.com/arthur-debert/difftbx/pkg/format/smv"
	"github.com/arthur-debert/difftbx/pkg/testutil"
)

// smvHeaderSize is the declared header span used by the synthetic images
const smvHeaderSize = 512

// writeSMV builds a synthetic SMV image: a brace-delimited header padded
// to smvHeaderSize bytes, followed by the given pixel bytes.
func writeSMV(t *testing.T, dir, name string, keys map[string]string, pixels []byte) string {
	t.Helper()

	var b strings.Builder
	b.WriteString("{\n")
	fmt.Fprintf(&b, "HEADER_BYTES=  %d;\n", smvHeaderSize)

	names := make([]string, 0, len(keys))
	for key := range keys {
		names = append(names, key)
	}
	sort.Strings(names)
	for _, key := range names {
		fmt.Fprintf(&b, "%s=%s;\n", key, keys[key])
	}
	b.WriteString("}\n")

	header := b.String()
	require.LessOrEqual(t, len(header), smvHeaderSize, "synthetic header does not fit the declared size")

	content := make([]byte, smvHeaderSize, smvHeaderSize+len(pixels))
	for i := range content {
		content[i] = ' '
	}
	copy(content, header)
	content = append(content, pixels...)

	return testutil.CreateBinaryFile(t, dir, name, content)
}

// baseHeader returns the key set shared by all readable SMV images
func baseHeader() map[string]string {
	return map[string]string{
		"DIM":           "2",
		"BYTE_ORDER":    "little_endian",
		"TYPE":          "unsigned_short",
		"SIZE1":         "4",
		"SIZE2":         "3",
		"PIXEL_SIZE":    "0.08",
		"BEAM_CENTER_X": "20.0",
		"BEAM_CENTER_Y": "15.0",
		"DISTANCE":      "100.0",
		"WAVELENGTH":    "0.9795",
		"OSC_START":     "10.0",
		"OSC_RANGE":     "0.5",
		"TIME":          "1.25",
	}
}

func TestParseHeader(t *testing.T) {
	dir := testutil.TempDir(t)
	path := writeSMV(t, dir, "image.img", baseHeader(), nil)

	size, header, err := smv.ParseHeader(path)
	require.NoError(t, err)

	assert.Equal(t, smvHeaderSize, size)
	assert.Equal(t, "little_endian", header["BYTE_ORDER"])
	assert.Equal(t, "4", header["SIZE1"])
	assert.Equal(t, "0.9795", header["WAVELENGTH"])

	wavelength, err := header.Float("WAVELENGTH")
	require.NoError(t, err)
	assert.InDelta(t, 0.9795, wavelength, 1e-12)
}

func TestParseHeaderErrors(t *testing.T) {
	dir := testutil.TempDir(t)

	tests := []struct {
		name     string
		content  string
		wantCode errors.ErrorCode
	}{
		{
			name:     "not a header block",
			content:  strings.Repeat("this is not an SMV file\n", 4),
			wantCode: errors.ErrHeaderParse,
		},
		{
			name:     "file too short",
			content:  "{\n",
			wantCode: errors.ErrHeaderParse,
		},
		{
			name:     "no header bytes declaration",
			content:  "{\nDIM=2;\nSIZE1=4;\nSIZE2=3;\nDISTANCE=100.0;\n}\n",
			wantCode: errors.ErrHeaderParse,
		},
		{
			name:     "declared size exceeds file",
			content:  "{\nHEADER_BYTES=  4096;\nDIM=2;\nSIZE1=4;\n}\n" + strings.Repeat(" ", 64),
			wantCode: errors.ErrHeaderParse,
		},
		{
			name:     "unterminated header",
			content:  "{\nHEADER_BYTES=  128;\n" + strings.Repeat(" ", 128),
			wantCode: errors.ErrHeaderParse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := testutil.CreateFile(t, dir, strings.ReplaceAll(tt.name, " ", "_"), tt.content)
			_, _, err := smv.ParseHeader(path)
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, tt.wantCode),
				"expected %s, got %v", tt.wantCode, err)
		})
	}
}

func TestParseHeaderMissingFile(t *testing.T) {
	dir := testutil.TempDir(t)

	_, _, err := smv.ParseHeader(dir + "/absent.img")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrFileNotFound))
}

func TestHeaderTypedAccess(t *testing.T) {
	header := smv.Header{
		"SIZE1":    "2304",
		"DISTANCE": "170.5",
		"DETECTOR": "adsc",
	}

	size, err := header.Int("SIZE1")
	require.NoError(t, err)
	assert.Equal(t, 2304, size)

	distance, err := header.Float("DISTANCE")
	require.NoError(t, err)
	assert.InDelta(t, 170.5, distance, 1e-12)

	_, err = header.Int("DETECTOR")
	assert.True(t, errors.IsErrorCode(err, errors.ErrHeaderParse))

	_, err = header.Float("MISSING")
	assert.True(t, errors.IsErrorCode(err, errors.ErrHeaderParse))

	fallback, err := header.FloatOr("MISSING", 3.5)
	require.NoError(t, err)
	assert.Equal(t, 3.5, fallback)

	present, err := header.FloatOr("DISTANCE", 3.5)
	require.NoError(t, err)
	assert.InDelta(t, 170.5, present, 1e-12)

	assert.True(t, header.Has("SIZE1", "DISTANCE"))
	assert.False(t, header.Has("SIZE1", "MISSING"))
}
