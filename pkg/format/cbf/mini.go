package cbf

import (
	"strings"

	"github.com/arthur-debert/difftbx/pkg/format"
	"github.com/arthur-debert/difftbx/pkg/model"
)

// MiniFormatName identifies the Dectris mini header entry
const MiniFormatName = "CBF-mini-Pilatus"

// miniConvention is the header_convention value the mini reader accepts
const miniConvention = "PILATUS_1.2"

func init() {
	format.MustRegister(format.Entry{
		Name:        MiniFormatName,
		Level:       3,
		Description: "Dectris images carrying only the PILATUS_1.2 comment header",
		Understand:  UnderstandMini,
		Open:        OpenMini,
	})
}

// UnderstandMini reports whether the file is a mini CBF: it must declare
// the PILATUS_1.2 header convention and must not carry the full imgCIF
// experiment categories, which the full reader serves better.
func UnderstandMini(path string) bool {
	text, err := readHeaderText(path)
	if err != nil || !strings.HasPrefix(text, cbfMagic) {
		return false
	}
	if isFullHeader(text) {
		return false
	}
	return strings.Contains(text, "_array_data.header_convention") &&
		strings.Contains(text, miniConvention)
}

// OpenMini parses the header and returns a reader for a mini CBF
func OpenMini(path string) (format.Reader, error) {
	doc, err := ParseHeader(path)
	if err != nil {
		return nil, err
	}
	r := &miniReader{base: base{name: MiniFormatName, path: path, doc: doc}}
	// surface header problems at open time
	if _, err := r.miniHeader(); err != nil {
		return nil, err
	}
	return r, nil
}

// miniReader serves standalone mini CBFs, where the comment header is all
// there is
type miniReader struct {
	base
}

func (r *miniReader) Beam() (*model.Beam, error) {
	h, err := r.miniHeader()
	if err != nil {
		return nil, err
	}
	return model.NewBeam(h.WavelengthAng)
}

func (r *miniReader) Goniometer() (model.GoniometerModel, error) {
	return model.NewGoniometer(), nil
}

func (r *miniReader) Detector() (*model.Detector, error) {
	return r.detectorFromMini()
}

func (r *miniReader) Scan() (*model.Scan, error) {
	return r.scanFromMini()
}
