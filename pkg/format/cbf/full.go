package cbf

import (
	"strconv"
	"strings"

	"github.com/arthur-debert/difftbx/pkg/errors"
	"github.com/arthur-debert/difftbx/pkg/format"
	"github.com/arthur-debert/difftbx/pkg/model"
)

// FullFormatName identifies the generic full imgCIF entry
const FullFormatName = "CBF-full"

func init() {
	format.MustRegister(format.Entry{
		Name:        FullFormatName,
		Level:       2,
		Description: "full imgCIF files with axis and scan categories",
		Understand:  UnderstandFull,
		Open:        OpenFull,
	})
}

// isFullHeader reports whether the header text carries the imgCIF
// experiment categories that set full CBF apart from the mini flavour
func isFullHeader(text string) bool {
	return strings.Contains(text, "_diffrn.id") && strings.Contains(text, "_diffrn_source")
}

// UnderstandFull reports whether the file is a full imgCIF CBF
func UnderstandFull(path string) bool {
	text, err := readHeaderText(path)
	if err != nil || !strings.HasPrefix(text, cbfMagic) {
		return false
	}
	return isFullHeader(text)
}

// OpenFull parses the header and returns a reader for a full CBF
func OpenFull(path string) (format.Reader, error) {
	return openFull(FullFormatName, path)
}

func openFull(name, path string) (*fullReader, error) {
	doc, err := ParseHeader(path)
	if err != nil {
		return nil, err
	}
	return &fullReader{base: base{name: name, path: path, doc: doc}}, nil
}

// base carries what the CBF reader flavours share: the parsed text
// header, plus the mini header and binary section which load on first
// use.
type base struct {
	name string
	path string
	doc  *Document
	mini *MiniHeader
	sec  *binarySection
}

func (b *base) Format() string {
	return b.name
}

func (b *base) Close() error {
	return nil
}

func (b *base) miniHeader() (*MiniHeader, error) {
	if b.mini == nil {
		h, err := ParseMiniHeader(b.doc.HeaderText())
		if err != nil {
			return nil, err
		}
		b.mini = h
	}
	return b.mini, nil
}

func (b *base) section() (*binarySection, error) {
	if b.sec == nil {
		s, err := readBinarySection(b.path)
		if err != nil {
			return nil, err
		}
		b.sec = s
	}
	return b.sec, nil
}

// detectorFromMini builds the detector from the PILATUS comment header
// and the binary section dimensions. Distances and pixel sizes arrive in
// meters, the beam centre in pixels.
func (b *base) detectorFromMini() (*model.Detector, error) {
	h, err := b.miniHeader()
	if err != nil {
		return nil, err
	}
	sec, err := b.section()
	if err != nil {
		return nil, err
	}

	pxMM := [2]float64{h.PixelSizeM[0] * 1000, h.PixelSizeM[1] * 1000}
	det, err := model.NewSimpleDetector(model.SensorPad, "+x", "-y",
		h.BeamXYPx[0]*pxMM[0], h.BeamXYPx[1]*pxMM[1],
		h.DetectorDistanceM*1000,
		pxMM, [2]int{sec.fast, sec.slow},
		[2]float64{-1, float64(h.CountCutoff)})
	if err != nil {
		return nil, err
	}

	panel := det.Panels[0]
	if h.Detector != "" {
		panel.Name = h.Detector
	}
	panel.Material = h.SensorMaterial
	panel.ThicknessMM = h.SensorThicknessM * 1000
	return det, nil
}

func (b *base) scanFromMini() (*model.Scan, error) {
	h, err := b.miniHeader()
	if err != nil {
		return nil, err
	}
	return model.NewScan([2]int{1, 1},
		[2]float64{h.StartAngleDeg, h.AngleIncrementDeg},
		[]float64{h.ExposureTimeS}, nil)
}

func (b *base) RawData() ([]int32, error) {
	sec, err := b.section()
	if err != nil {
		return nil, err
	}
	return sec.data, nil
}

// fullReader serves full imgCIF files. The goniometer comes from the
// imgCIF axis loops; detector and scan from the embedded PILATUS header.
type fullReader struct {
	base
}

func (r *fullReader) Beam() (*model.Beam, error) {
	if value, ok := r.doc.Value("_diffrn_radiation_wavelength.wavelength"); ok {
		wavelength, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrHeaderParse, "bad wavelength %q", value)
		}
		return model.NewBeam(wavelength)
	}
	h, err := r.miniHeader()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrHeaderParse, "no wavelength in CBF header")
	}
	return model.NewBeam(h.WavelengthAng)
}

func (r *fullReader) Goniometer() (model.GoniometerModel, error) {
	return goniometerFromDocument(r.doc)
}

func (r *fullReader) Detector() (*model.Detector, error) {
	return r.detectorFromMini()
}

func (r *fullReader) Scan() (*model.Scan, error) {
	return r.scanFromMini()
}
