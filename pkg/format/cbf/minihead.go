package cbf

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/arthur-debert/difftbx/pkg/errors"
)

// MiniHeader carries the values of the Dectris PILATUS_1.2 comment
// header. Pilatus and Eiger instruments alike write their geometry this
// way, both standalone and embedded in a full imgCIF file.
type MiniHeader struct {
	Detector          string
	PixelSizeM        [2]float64
	SensorMaterial    string
	SensorThicknessM  float64
	ExposureTimeS     float64
	WavelengthAng     float64
	DetectorDistanceM float64
	BeamXYPx          [2]float64
	StartAngleDeg     float64
	AngleIncrementDeg float64
	CountCutoff       int64

	haveWavelength bool
	haveDistance   bool
	haveBeamXY     bool
	havePixelSize  bool
	haveStartAngle bool
	haveIncrement  bool
}

const num = `([-+]?[0-9]*\.?[0-9]+(?:[eE][-+]?[0-9]+)?)`

var (
	detectorRe   = regexp.MustCompile(`# Detector[:]? (.*)`)
	pixelSizeRe  = regexp.MustCompile(`# Pixel_size ` + num + ` m x ` + num + ` m`)
	sensorRe     = regexp.MustCompile(`# (\w+) sensor, thickness ` + num + ` m`)
	exposureRe   = regexp.MustCompile(`# Exposure_time ` + num + ` s`)
	wavelengthRe = regexp.MustCompile(`# Wavelength ` + num + ` A`)
	distanceRe   = regexp.MustCompile(`# Detector_distance ` + num + ` m`)
	beamXYRe     = regexp.MustCompile(`# Beam_xy \(` + num + `, ` + num + `\) pixels`)
	startRe      = regexp.MustCompile(`# Start_angle ` + num + ` deg`)
	incrementRe  = regexp.MustCompile(`# Angle_increment ` + num + ` deg`)
	cutoffRe     = regexp.MustCompile(`# Count_cutoff ` + num + ` counts`)
)

// ParseMiniHeader extracts the PILATUS_1.2 values from the given header
// text, which may be a standalone mini header or a whole imgCIF text
// header with one embedded.
func ParseMiniHeader(text string) (*MiniHeader, error) {
	h := &MiniHeader{CountCutoff: 65535}

	parse := func(re *regexp.Regexp, line string) ([]float64, bool, error) {
		m := re.FindStringSubmatch(line)
		if m == nil {
			return nil, false, nil
		}
		values := make([]float64, len(m)-1)
		for i, s := range m[1:] {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, false, errors.Wrapf(err, errors.ErrHeaderParse, "bad number %q in %q", s, line)
			}
			values[i] = v
		}
		return values, true, nil
	}

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "#") {
			continue
		}

		if m := detectorRe.FindStringSubmatch(line); m != nil && h.Detector == "" {
			h.Detector = strings.TrimSpace(m[1])
			continue
		}
		if m := sensorRe.FindStringSubmatch(line); m != nil {
			thickness, err := strconv.ParseFloat(m[2], 64)
			if err != nil {
				return nil, errors.Wrapf(err, errors.ErrHeaderParse, "bad sensor thickness in %q", line)
			}
			h.SensorMaterial = m[1]
			h.SensorThicknessM = thickness
			continue
		}

		if v, ok, err := parse(pixelSizeRe, line); err != nil {
			return nil, err
		} else if ok {
			h.PixelSizeM = [2]float64{v[0], v[1]}
			h.havePixelSize = true
			continue
		}
		if v, ok, err := parse(exposureRe, line); err != nil {
			return nil, err
		} else if ok {
			h.ExposureTimeS = v[0]
			continue
		}
		if v, ok, err := parse(wavelengthRe, line); err != nil {
			return nil, err
		} else if ok {
			h.WavelengthAng = v[0]
			h.haveWavelength = true
			continue
		}
		if v, ok, err := parse(distanceRe, line); err != nil {
			return nil, err
		} else if ok {
			h.DetectorDistanceM = v[0]
			h.haveDistance = true
			continue
		}
		if v, ok, err := parse(beamXYRe, line); err != nil {
			return nil, err
		} else if ok {
			h.BeamXYPx = [2]float64{v[0], v[1]}
			h.haveBeamXY = true
			continue
		}
		if v, ok, err := parse(startRe, line); err != nil {
			return nil, err
		} else if ok {
			h.StartAngleDeg = v[0]
			h.haveStartAngle = true
			continue
		}
		if v, ok, err := parse(incrementRe, line); err != nil {
			return nil, err
		} else if ok {
			h.AngleIncrementDeg = v[0]
			h.haveIncrement = true
			continue
		}
		if v, ok, err := parse(cutoffRe, line); err != nil {
			return nil, err
		} else if ok {
			h.CountCutoff = int64(v[0])
			continue
		}
	}

	var missing []string
	for _, field := range []struct {
		have bool
		name string
	}{
		{h.havePixelSize, "Pixel_size"},
		{h.haveWavelength, "Wavelength"},
		{h.haveDistance, "Detector_distance"},
		{h.haveBeamXY, "Beam_xy"},
		{h.haveStartAngle, "Start_angle"},
		{h.haveIncrement, "Angle_increment"},
	} {
		if !field.have {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return nil, errors.Newf(errors.ErrHeaderParse,
			"PILATUS header is missing %s", strings.Join(missing, ", "))
	}
	return h, nil
}
