package smv

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/arthur-debert/difftbx/pkg/errors"
	"github.com/arthur-debert/difftbx/pkg/format"
	"github.com/arthur-debert/difftbx/pkg/model"
)

// FormatName identifies the generic SMV format entry
const FormatName = "SMV"

// byteOrderBig is the BYTE_ORDER header value for big-endian pixel data
const byteOrderBig = "big_endian"

// requiredKeys are the header keys every readable SMV image must carry
var requiredKeys = []string{
	"BEAM_CENTER_X",
	"BEAM_CENTER_Y",
	"DISTANCE",
	"WAVELENGTH",
	"PIXEL_SIZE",
	"OSC_START",
	"OSC_RANGE",
	"SIZE1",
	"SIZE2",
	"BYTE_ORDER",
}

func init() {
	format.MustRegister(format.Entry{
		Name:        FormatName,
		Level:       1,
		Description: "SMV container with an ASCII key=value header",
		Understand:  Understand,
		Open:        Open,
	})
}

// Understand reports whether the file carries an SMV header with the keys
// needed to build models from it
func Understand(path string) bool {
	_, header, err := ParseHeader(path)
	if err != nil {
		return false
	}
	return header.Has(requiredKeys...)
}

// Open reads the header and returns a reader for a generic SMV image
func Open(path string) (format.Reader, error) {
	r, err := newReader(FormatName, path)
	if err != nil {
		return nil, err
	}
	r.sensor = model.SensorUnknown
	r.beamFastKey = "BEAM_CENTER_Y"
	r.beamSlowKey = "BEAM_CENTER_X"
	return r, nil
}

// reader serves the whole SMV family. The variants differ only in sensor
// type, pedestal and which header keys carry the beam centre; the beam
// centre keys are named in fast-axis-first order.
type reader struct {
	name        string
	path        string
	headerSize  int
	header      Header
	sensor      string
	pedestal    float64
	beamFastKey string
	beamSlowKey string
}

func newReader(name, path string) (*reader, error) {
	headerSize, header, err := ParseHeader(path)
	if err != nil {
		return nil, err
	}
	for _, key := range requiredKeys {
		if !header.Has(key) {
			return nil, errors.Newf(errors.ErrHeaderParse, "SMV header of %s is missing key %s", path, key)
		}
	}
	return &reader{
		name:       name,
		path:       path,
		headerSize: headerSize,
		header:     header,
	}, nil
}

// Header exposes the parsed header records
func (r *reader) Header() Header {
	return r.header
}

func (r *reader) Format() string {
	return r.name
}

func (r *reader) Beam() (*model.Beam, error) {
	wavelength, err := r.header.Float("WAVELENGTH")
	if err != nil {
		return nil, err
	}
	return model.NewBeam(wavelength)
}

func (r *reader) Goniometer() (model.GoniometerModel, error) {
	return model.NewGoniometer(), nil
}

func (r *reader) Detector() (*model.Detector, error) {
	distance, err := r.header.Float("DISTANCE")
	if err != nil {
		return nil, err
	}
	beamFast, err := r.header.Float(r.beamFastKey)
	if err != nil {
		return nil, err
	}
	beamSlow, err := r.header.Float(r.beamSlowKey)
	if err != nil {
		return nil, err
	}
	pixelSize, err := r.header.Float("PIXEL_SIZE")
	if err != nil {
		return nil, err
	}
	size1, err := r.header.Int("SIZE1")
	if err != nil {
		return nil, err
	}
	size2, err := r.header.Int("SIZE2")
	if err != nil {
		return nil, err
	}

	det, err := model.NewSimpleDetector(r.sensor, "+x", "-y",
		beamFast, beamSlow, distance,
		[2]float64{pixelSize, pixelSize}, [2]int{size1, size2}, r.trustedRange())
	if err != nil {
		return nil, err
	}
	det.Panels[0].PedestalADU = r.pedestal
	return det, nil
}

// trustedRange shifts the 16-bit counting range down by the pedestal, so
// that it brackets the values RawData actually returns
func (r *reader) trustedRange() [2]float64 {
	if r.pedestal == 0 {
		return [2]float64{0, 65535}
	}
	return [2]float64{1 - r.pedestal, 65535 - r.pedestal}
}

func (r *reader) Scan() (*model.Scan, error) {
	oscStart, err := r.header.Float("OSC_START")
	if err != nil {
		return nil, err
	}
	oscRange, err := r.header.Float("OSC_RANGE")
	if err != nil {
		return nil, err
	}
	exposure, err := r.header.FloatOr("TIME", 0)
	if err != nil {
		return nil, err
	}
	return model.NewScan([2]int{1, 1}, [2]float64{oscStart, oscRange}, []float64{exposure}, nil)
}

// RawData reads the unsigned 16-bit pixel block that follows the header
// and subtracts the pedestal, which can leave negative values.
func (r *reader) RawData() ([]int32, error) {
	size1, err := r.header.Int("SIZE1")
	if err != nil {
		return nil, err
	}
	size2, err := r.header.Int("SIZE2")
	if err != nil {
		return nil, err
	}
	count := size1 * size2

	f, err := os.Open(r.path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot open image file: %s", r.path)
	}
	defer f.Close()

	if _, err := f.Seek(int64(r.headerSize), io.SeekStart); err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot seek to pixel data in %s", r.path)
	}
	buf := make([]byte, 2*count)
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, errors.Wrapf(err, errors.ErrDataRead,
			"expected %d pixels of data in %s", count, r.path)
	}

	var order binary.ByteOrder = binary.LittleEndian
	if r.header["BYTE_ORDER"] == byteOrderBig {
		order = binary.BigEndian
	}

	pedestal := int32(r.pedestal)
	data := make([]int32, count)
	for i := range data {
		data[i] = int32(order.Uint16(buf[2*i:])) - pedestal
	}
	return data, nil
}

func (r *reader) Close() error {
	return nil
}
