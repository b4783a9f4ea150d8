package model

import (
	"github.com/arthur-debert/difftbx/pkg/errors"
)

// Sensor type names carried by detector panels
const (
	SensorCCD        = "CCD"
	SensorPad        = "PAD"
	SensorImagePlate = "IMAGE_PLATE"
	SensorUnknown    = "UNKNOWN"
)

// Panel is a flat detector module. Axes are unit vectors in the lab frame;
// the origin is the lab position of the (0, 0) pixel corner in mm.
type Panel struct {
	Name         string
	SensorType   string
	FastAxis     Vec3
	SlowAxis     Vec3
	Origin       Vec3
	PixelSizeMM  [2]float64
	ImageSize    [2]int
	TrustedRange [2]float64
	Material     string
	ThicknessMM  float64
	PedestalADU  float64
}

// Detector is an ordered collection of panels
type Detector struct {
	Panels []*Panel
}

// axisFromDirection maps the +x/-y style direction names used by SMV-era
// headers onto lab-frame unit vectors.
func axisFromDirection(direction string) (Vec3, error) {
	switch direction {
	case "+x":
		return Vec3{1, 0, 0}, nil
	case "-x":
		return Vec3{-1, 0, 0}, nil
	case "+y":
		return Vec3{0, 1, 0}, nil
	case "-y":
		return Vec3{0, -1, 0}, nil
	default:
		return Vec3{}, errors.Newf(errors.ErrModelInvalid, "invalid axis direction %q", direction)
	}
}

// NewSimpleDetector builds a single-panel detector from the quantities SMV
// style headers carry: a sensor type, axis direction names, beam centre and
// distance in mm, pixel size in mm and image size in pixels. The detector
// plane is placed normal to -z at the given distance, with the origin
// chosen so the beam centre lands at the stated position.
func NewSimpleDetector(sensor, fastDirection, slowDirection string, beamXmm, beamYmm, distanceMM float64,
	pixelSizeMM [2]float64, imageSize [2]int, trustedRange [2]float64) (*Detector, error) {

	if distanceMM <= 0 {
		return nil, errors.Newf(errors.ErrModelInvalid, "detector distance must be positive, got %g", distanceMM)
	}
	if pixelSizeMM[0] <= 0 || pixelSizeMM[1] <= 0 {
		return nil, errors.Newf(errors.ErrModelInvalid, "pixel size must be positive, got %v", pixelSizeMM)
	}

	fast, err := axisFromDirection(fastDirection)
	if err != nil {
		return nil, err
	}
	slow, err := axisFromDirection(slowDirection)
	if err != nil {
		return nil, err
	}

	origin := Vec3{0, 0, -distanceMM}.
		Sub(fast.Scale(beamXmm)).
		Sub(slow.Scale(beamYmm))

	panel := &Panel{
		Name:         "Panel",
		SensorType:   sensor,
		FastAxis:     fast,
		SlowAxis:     slow,
		Origin:       origin,
		PixelSizeMM:  pixelSizeMM,
		ImageSize:    imageSize,
		TrustedRange: trustedRange,
	}

	return &Detector{Panels: []*Panel{panel}}, nil
}

// NumPixels returns the pixel count of a panel
func (p *Panel) NumPixels() int {
	return p.ImageSize[0] * p.ImageSize[1]
}

// PixelToLab returns the lab coordinate in mm of the given pixel position
func (p *Panel) PixelToLab(fastPx, slowPx float64) Vec3 {
	return p.Origin.
		Add(p.FastAxis.Scale(fastPx * p.PixelSizeMM[0])).
		Add(p.SlowAxis.Scale(slowPx * p.PixelSizeMM[1]))
}

// BeamCentreMM returns the beam centre on the panel in mm along the fast
// and slow axes, for a beam with the given sample-to-source direction. An
// error is returned when the beam never crosses the panel plane.
func (p *Panel) BeamCentreMM(beamDirection Vec3) (float64, float64, error) {
	travel := beamDirection.Scale(-1).Normalize()
	normal := p.FastAxis.Cross(p.SlowAxis)

	denom := travel.Dot(normal)
	if denom == 0 {
		return 0, 0, errors.New(errors.ErrModelInvalid, "beam is parallel to the detector plane")
	}

	t := p.Origin.Dot(normal) / denom
	hit := travel.Scale(t).Sub(p.Origin)

	return hit.Dot(p.FastAxis), hit.Dot(p.SlowAxis), nil
}

// BeamCentrePx returns the beam centre in pixels
func (p *Panel) BeamCentrePx(beamDirection Vec3) (float64, float64, error) {
	x, y, err := p.BeamCentreMM(beamDirection)
	if err != nil {
		return 0, 0, err
	}
	return x / p.PixelSizeMM[0], y / p.PixelSizeMM[1], nil
}

// Distance returns the distance in mm from the sample to the panel plane
// of the first panel, measured along the plane normal.
func (d *Detector) Distance() (float64, error) {
	if len(d.Panels) == 0 {
		return 0, errors.New(errors.ErrModelInvalid, "detector has no panels")
	}
	p := d.Panels[0]
	normal := p.FastAxis.Cross(p.SlowAxis).Normalize()
	dist := p.Origin.Dot(normal)
	if dist < 0 {
		dist = -dist
	}
	return dist, nil
}
