// Package dip reads images from the MacScience DIP-2030b image plate
// scanner. A DIP-2030b file is exactly 18001024 bytes: a fixed 3000x3000
// block of unsigned 16-bit pixels followed by a 1024-byte trailer that
// opens with the bytes "DIP" and carries the scan parameters.
package dip

import (
	"bytes"
	"encoding/binary"
	"io"
	"math"
	"os"

	"github.com/arthur-debert/difftbx/pkg/errors"
	"github.com/arthur-debert/difftbx/pkg/format"
	"github.com/arthur-debert/difftbx/pkg/model"
)

// FormatName identifies the DIP-2030b format entry
const FormatName = "DIP2030b"

const (
	imageWidth  = 3000
	imageHeight = 3000
	pixelBytes  = 2

	dataBytes    = imageWidth * imageHeight * pixelBytes
	trailerBytes = 1024
)

// Trailer layout: the magic, then little-endian scalar fields. Scan
// parameters are 64-bit floats, image dimensions 32-bit integers. The
// remainder of the 1024 bytes is reserved.
const (
	offWavelength  = 4
	offDistance    = 12
	offOscStart    = 20
	offOscRange    = 28
	offExposure    = 36
	offPixelSize   = 44
	offBeamCentreX = 52
	offBeamCentreY = 60
	offTwoTheta    = 68
	offSaturation  = 76
	offSize1       = 84
	offSize2       = 88
)

var trailerMagic = []byte("DIP")

func init() {
	format.MustRegister(format.Entry{
		Name:        FormatName,
		Level:       5,
		Description: "MacScience DIP-2030b image plate scans",
		Understand:  Understand,
		Open:        Open,
	})
}

// Understand reports whether the file is a DIP-2030b image: the trailer
// must sit at the fixed data offset, be followed by end of file, and open
// with the magic bytes.
func Understand(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	if _, err := f.Seek(dataBytes, io.SeekStart); err != nil {
		return false
	}
	trailer := make([]byte, trailerBytes)
	if _, err := io.ReadFull(f, trailer); err != nil {
		return false
	}
	var one [1]byte
	if n, _ := f.Read(one[:]); n != 0 {
		return false
	}
	return bytes.Equal(trailer[:len(trailerMagic)], trailerMagic)
}

// trailer holds the parsed scan parameters
type trailer struct {
	wavelength float64
	distance   float64
	oscStart   float64
	oscRange   float64
	exposure   float64
	pixelSize  float64
	beamX      float64
	beamY      float64
	twoTheta   float64
	saturation float64
	size1      int
	size2      int
}

func parseTrailer(raw []byte) (*trailer, error) {
	if len(raw) != trailerBytes {
		return nil, errors.Newf(errors.ErrHeaderParse, "trailer must be %d bytes, got %d", trailerBytes, len(raw))
	}
	if !bytes.Equal(raw[:len(trailerMagic)], trailerMagic) {
		return nil, errors.New(errors.ErrHeaderParse, "trailer does not start with DIP magic")
	}

	f64 := func(off int) float64 {
		return math.Float64frombits(binary.LittleEndian.Uint64(raw[off:]))
	}
	i32 := func(off int) int {
		return int(int32(binary.LittleEndian.Uint32(raw[off:])))
	}

	return &trailer{
		wavelength: f64(offWavelength),
		distance:   f64(offDistance),
		oscStart:   f64(offOscStart),
		oscRange:   f64(offOscRange),
		exposure:   f64(offExposure),
		pixelSize:  f64(offPixelSize),
		beamX:      f64(offBeamCentreX),
		beamY:      f64(offBeamCentreY),
		twoTheta:   f64(offTwoTheta),
		saturation: f64(offSaturation),
		size1:      i32(offSize1),
		size2:      i32(offSize2),
	}, nil
}

// Open reads and validates the trailer and returns a reader for the image
func Open(path string) (format.Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(err, errors.ErrFileNotFound, "no such image file: %s", path)
		}
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot open image file: %s", path)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot stat image file: %s", path)
	}
	if info.Size() != dataBytes+trailerBytes {
		return nil, errors.Newf(errors.ErrHeaderParse,
			"not a DIP-2030b image: %s is %d bytes, want %d", path, info.Size(), dataBytes+trailerBytes)
	}

	if _, err := f.Seek(dataBytes, io.SeekStart); err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot seek to trailer in %s", path)
	}
	raw := make([]byte, trailerBytes)
	if _, err := io.ReadFull(f, raw); err != nil {
		return nil, errors.Wrapf(err, errors.ErrDataRead, "cannot read trailer of %s", path)
	}

	tr, err := parseTrailer(raw)
	if err != nil {
		return nil, err
	}
	if tr.size1*tr.size2*pixelBytes != dataBytes {
		return nil, errors.Newf(errors.ErrHeaderParse,
			"trailer declares %dx%d pixels, which does not fill the %d byte data block",
			tr.size1, tr.size2, dataBytes)
	}

	return &reader{path: path, trailer: tr}, nil
}

type reader struct {
	path    string
	trailer *trailer
}

func (r *reader) Format() string {
	return FormatName
}

func (r *reader) Beam() (*model.Beam, error) {
	return model.NewBeam(r.trailer.wavelength)
}

func (r *reader) Goniometer() (model.GoniometerModel, error) {
	return model.NewGoniometer(), nil
}

// Detector builds the image plate model. A non-zero two-theta offset in
// the trailer is ignored, the plate is modelled normal to the beam.
func (r *reader) Detector() (*model.Detector, error) {
	return model.NewSimpleDetector(model.SensorImagePlate, "+x", "-y",
		r.trailer.beamX, r.trailer.beamY, r.trailer.distance,
		[2]float64{r.trailer.pixelSize, r.trailer.pixelSize},
		[2]int{r.trailer.size1, r.trailer.size2},
		[2]float64{0, r.trailer.saturation})
}

func (r *reader) Scan() (*model.Scan, error) {
	return model.NewScan([2]int{1, 1},
		[2]float64{r.trailer.oscStart, r.trailer.oscRange},
		[]float64{r.trailer.exposure}, nil)
}

// RawData reads the full pixel block as little-endian unsigned 16-bit
// values
func (r *reader) RawData() ([]int32, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot open image file: %s", r.path)
	}
	defer f.Close()

	buf := make([]byte, dataBytes)
	if _, err := io.ReadFull(f, buf); err != nil {
		return nil, errors.Wrapf(err, errors.ErrDataRead, "cannot read pixel data of %s", r.path)
	}

	data := make([]int32, r.trailer.size1*r.trailer.size2)
	for i := range data {
		data[i] = int32(binary.LittleEndian.Uint16(buf[2*i:]))
	}
	return data, nil
}

func (r *reader) Close() error {
	return nil
}
