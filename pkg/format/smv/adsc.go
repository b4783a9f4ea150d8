package smv

import (
	"github.com/arthur-debert/difftbx/pkg/format"
	"github.com/arthur-debert/difftbx/pkg/model"
)

// ADSCFormatName identifies the ADSC CCD format entry
const ADSCFormatName = "SMV-ADSC"

func init() {
	format.MustRegister(format.Entry{
		Name:        ADSCFormatName,
		Level:       2,
		Description: "ADSC Quantum CCD images in the SMV container",
		Understand:  UnderstandADSC,
		Open:        OpenADSC,
	})
}

// UnderstandADSC reports whether the file is an ADSC image. ADSC images
// carry the DATE and DETECTOR_SN keys on top of the common SMV set.
func UnderstandADSC(path string) bool {
	_, header, err := ParseHeader(path)
	if err != nil {
		return false
	}
	if !header.Has(requiredKeys...) {
		return false
	}
	return header.Has("DETECTOR_SN", "DATE")
}

// OpenADSC returns a reader for an ADSC image. The beam centre is carried
// in the Mosflm frame, so the fast offset comes from BEAM_CENTER_Y and the
// slow offset from BEAM_CENTER_X. An IMAGE_PEDESTAL key, when present,
// names the constant offset baked into the pixel values.
func OpenADSC(path string) (format.Reader, error) {
	r, err := newReader(ADSCFormatName, path)
	if err != nil {
		return nil, err
	}
	pedestal, err := r.header.FloatOr("IMAGE_PEDESTAL", 0)
	if err != nil {
		return nil, err
	}
	r.sensor = model.SensorCCD
	r.pedestal = pedestal
	r.beamFastKey = "BEAM_CENTER_Y"
	r.beamSlowKey = "BEAM_CENTER_X"
	return r, nil
}
