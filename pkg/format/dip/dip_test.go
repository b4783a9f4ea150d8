package dip_test

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/difftbx/pkg/errors"
	"github.com/arthur-debert/difftbx/pkg/format/dip"
	"github.com/arthur-debert/difftbx/pkg/model"
	"github.com/arthur-debert/difftbx/pkg/testutil"
)

const (
	dipDataBytes    = 3000 * 3000 * 2
	dipTrailerBytes = 1024
)

type dipParams struct {
	wavelength float64
	distance   float64
	oscStart   float64
	oscRange   float64
	exposure   float64
	pixelSize  float64
	beamX      float64
	beamY      float64
	saturation float64
	size1      int
	size2      int
}

func defaultParams() dipParams {
	return dipParams{
		wavelength: 1.0,
		distance:   150.0,
		oscStart:   5.0,
		oscRange:   1.0,
		exposure:   300.0,
		pixelSize:  0.1,
		beamX:      150.0,
		beamY:      150.0,
		saturation: 65535,
		size1:      3000,
		size2:      3000,
	}
}

// writeDIP builds a full 18001024-byte DIP-2030b file. Pixels not named in
// the map are zero.
func writeDIP(t *testing.T, dir, name string, p dipParams, pixels map[int]uint16) string {
	t.Helper()

	content := make([]byte, dipDataBytes+dipTrailerBytes)
	for i, v := range pixels {
		binary.LittleEndian.PutUint16(content[2*i:], v)
	}

	trailer := content[dipDataBytes:]
	copy(trailer, "DIP")
	putF64 := func(off int, v float64) {
		binary.LittleEndian.PutUint64(trailer[off:], math.Float64bits(v))
	}
	putF64(4, p.wavelength)
	putF64(12, p.distance)
	putF64(20, p.oscStart)
	putF64(28, p.oscRange)
	putF64(36, p.exposure)
	putF64(44, p.pixelSize)
	putF64(52, p.beamX)
	putF64(60, p.beamY)
	putF64(76, p.saturation)
	binary.LittleEndian.PutUint32(trailer[84:], uint32(p.size1))
	binary.LittleEndian.PutUint32(trailer[88:], uint32(p.size2))

	return testutil.CreateBinaryFile(t, dir, name, content)
}

func TestUnderstand(t *testing.T) {
	dir := testutil.TempDir(t)

	valid := writeDIP(t, dir, "valid.ipf", defaultParams(), nil)
	assert.True(t, dip.Understand(valid))

	// an extra byte breaks the exact size requirement
	grown := testutil.ReadFile(t, valid) + "x"
	tooLong := testutil.CreateFile(t, dir, "long.ipf", grown)
	assert.False(t, dip.Understand(tooLong))

	truncated := testutil.CreateBinaryFile(t, dir, "short.ipf", make([]byte, dipDataBytes+dipTrailerBytes-1))
	assert.False(t, dip.Understand(truncated))

	noMagic := make([]byte, dipDataBytes+dipTrailerBytes)
	copy(noMagic[dipDataBytes:], "XYZ")
	wrongMagic := testutil.CreateBinaryFile(t, dir, "magic.ipf", noMagic)
	assert.False(t, dip.Understand(wrongMagic))

	tiny := testutil.CreateFile(t, dir, "tiny.ipf", "DIP")
	assert.False(t, dip.Understand(tiny))
}

func TestModels(t *testing.T) {
	dir := testutil.TempDir(t)
	path := writeDIP(t, dir, "scan.ipf", defaultParams(), nil)

	r, err := dip.Open(path)
	require.NoError(t, err)
	defer r.Close()

	assert.Equal(t, dip.FormatName, r.Format())

	beam, err := r.Beam()
	require.NoError(t, err)
	assert.InDelta(t, 1.0, beam.WavelengthAng, 1e-12)

	gonio, err := r.Goniometer()
	require.NoError(t, err)
	assert.Equal(t, model.Vec3{1, 0, 0}, gonio.LabRotationAxis())

	scan, err := r.Scan()
	require.NoError(t, err)
	assert.Equal(t, [2]float64{5.0, 1.0}, scan.Oscillation)
	assert.InDelta(t, 300.0, scan.ExposureTime(1), 1e-12)

	det, err := r.Detector()
	require.NoError(t, err)
	panel := det.Panels[0]
	assert.Equal(t, model.SensorImagePlate, panel.SensorType)
	assert.Equal(t, [2]int{3000, 3000}, panel.ImageSize)
	assert.Equal(t, [2]float64{0.1, 0.1}, panel.PixelSizeMM)
	assert.Equal(t, [2]float64{0, 65535}, panel.TrustedRange)

	// beam centre feeds the axes unswapped: fast +x gets beamX, slow -y beamY
	assert.True(t, panel.Origin.AllClose(model.Vec3{-150, 150, -150}, 1e-9),
		"origin %v", panel.Origin)
}

func TestRawData(t *testing.T) {
	dir := testutil.TempDir(t)
	last := 3000*3000 - 1
	path := writeDIP(t, dir, "pixels.ipf", defaultParams(), map[int]uint16{
		0:    7,
		1:    65535,
		4242: 1234,
		last: 9,
	})

	r, err := dip.Open(path)
	require.NoError(t, err)
	defer r.Close()

	data, err := r.RawData()
	require.NoError(t, err)
	require.Len(t, data, 3000*3000)

	assert.Equal(t, int32(7), data[0])
	assert.Equal(t, int32(65535), data[1])
	assert.Equal(t, int32(1234), data[4242])
	assert.Equal(t, int32(9), data[last])
	assert.Equal(t, int32(0), data[2])
}

func TestOpenRejectsBadFiles(t *testing.T) {
	dir := testutil.TempDir(t)

	_, err := dip.Open(dir + "/absent.ipf")
	assert.True(t, errors.IsErrorCode(err, errors.ErrFileNotFound))

	wrongSize := testutil.CreateBinaryFile(t, dir, "small.ipf", make([]byte, 1024))
	_, err = dip.Open(wrongSize)
	assert.True(t, errors.IsErrorCode(err, errors.ErrHeaderParse))

	p := defaultParams()
	p.size1 = 2999
	badGeometry := writeDIP(t, dir, "geometry.ipf", p, nil)
	_, err = dip.Open(badGeometry)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrHeaderParse))
	assert.Contains(t, err.Error(), "2999")
}
