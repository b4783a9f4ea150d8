package cbf

import (
	"strings"

	"github.com/arthur-debert/difftbx/pkg/errors"
	"github.com/arthur-debert/difftbx/pkg/format"
	"github.com/arthur-debert/difftbx/pkg/model"
)

// DLS6MFormatName identifies the entry for the Pilatus 6M serial 60-0100
// on Diamond beamline I03
const DLS6MFormatName = "CBF-full-Pilatus-DLS6M-SN100"

// dls6mSerial is the serial string the instrument writes into its headers
const dls6mSerial = "S/N 60-0100 Diamond"

// Goniometer head names recognized on this instrument
const (
	HeadSmargon   = "smargon"
	HeadMiniKappa = "mini-kappa"
)

func init() {
	format.MustRegister(format.Entry{
		Name:        DLS6MFormatName,
		Level:       5,
		Description: "full CBF from the Pilatus 6M S/N 60-0100 at Diamond",
		Understand:  UnderstandDLS6M,
		Open:        OpenDLS6M,
	})
}

// UnderstandDLS6M reports whether the file is a full CBF written by the
// Pilatus 6M serial 60-0100: a Detector comment record naming a PILATUS,
// with the Diamond serial somewhere in the header.
func UnderstandDLS6M(path string) bool {
	text, err := readHeaderText(path)
	if err != nil || !strings.HasPrefix(text, cbfMagic) {
		return false
	}
	if !isFullHeader(text) || !strings.Contains(text, dls6mSerial) {
		return false
	}
	for _, record := range strings.Split(text, "\n") {
		if strings.Contains(record, "# Detector") && strings.Contains(record, "PILATUS") {
			return true
		}
	}
	return false
}

// OpenDLS6M opens the file as a full CBF and checks that the goniometer
// carries one of the heads used on this instrument
func OpenDLS6M(path string) (format.Reader, error) {
	r, err := openFull(DLS6MFormatName, path)
	if err != nil {
		return nil, err
	}
	gonio, err := r.Goniometer()
	if err != nil {
		return nil, err
	}
	if _, err := GoniometerHead(gonio); err != nil {
		return nil, err
	}
	return r, nil
}

// GoniometerHead names the sample mount from the goniometer axis names:
// a chi axis in the second position means the smargon, a kappa axis the
// mini kappa head.
func GoniometerHead(g model.GoniometerModel) (string, error) {
	multi, ok := g.(*model.MultiAxisGoniometer)
	if !ok || len(multi.Names) < 2 {
		return "", errors.New(errors.ErrModelInvalid, "goniometer has no second axis to name the head by")
	}
	switch multi.Names[1] {
	case "GON_CHI":
		return HeadSmargon, nil
	case "GON_KAPPA":
		return HeadMiniKappa, nil
	}
	return "", errors.Newf(errors.ErrModelInvalid, "unrecognized goniometer head with axes %v", multi.Names)
}
