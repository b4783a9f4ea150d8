package smv

import (
	"github.com/arthur-debert/difftbx/pkg/format"
	"github.com/arthur-debert/difftbx/pkg/model"
)

// ADSCSN445FormatName identifies the format entry for ADSC serial 445, the
// detector once mounted on ALS beamline 8.2.1, which recorded its beam
// centre under the DENZO keys instead of the usual ones.
const ADSCSN445FormatName = "SMV-ADSC-SN445"

// sn445Pedestal is the fixed offset baked into serial 445 pixel values
const sn445Pedestal = 40

func init() {
	format.MustRegister(format.Entry{
		Name:        ADSCSN445FormatName,
		Level:       3,
		Description: "ADSC serial 445 with the beam centre in DENZO keys",
		Understand:  UnderstandADSCSN445,
		Open:        OpenADSCSN445,
	})
}

// UnderstandADSCSN445 reports whether the file is an ADSC image from
// detector serial number 445
func UnderstandADSCSN445(path string) bool {
	_, header, err := ParseHeader(path)
	if err != nil {
		return false
	}
	if !header.Has(requiredKeys...) || !header.Has("DETECTOR_SN", "DATE") {
		return false
	}
	sn, err := header.Int("DETECTOR_SN")
	if err != nil {
		return false
	}
	return sn == 445
}

// OpenADSCSN445 returns a reader for a serial 445 image. The DENZO beam
// centre is in the Mosflm frame: DENZO_YBEAM is the fast offset and
// DENZO_XBEAM the slow one.
func OpenADSCSN445(path string) (format.Reader, error) {
	r, err := newReader(ADSCSN445FormatName, path)
	if err != nil {
		return nil, err
	}
	r.sensor = model.SensorCCD
	r.pedestal = sn445Pedestal
	r.beamFastKey = "DENZO_YBEAM"
	r.beamSlowKey = "DENZO_XBEAM"
	return r, nil
}
