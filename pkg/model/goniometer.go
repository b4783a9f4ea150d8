package model

import (
	"math"
	"strings"

	"github.com/arthur-debert/difftbx/pkg/errors"
)

// GoniometerModel is the read-side interface shared by Goniometer and
// MultiAxisGoniometer. Callers that need axis-stack detail type-switch on
// the concrete type.
type GoniometerModel interface {
	// LabRotationAxis returns the scan axis in the laboratory frame.
	LabRotationAxis() Vec3
}

// Goniometer describes a single rotation axis with optional fixed and
// setting rotations. The crystal is rotated by S * R(axis, angle) * F.
type Goniometer struct {
	// RotationAxis is the scan axis datum, before the setting rotation
	RotationAxis Vec3
	// FixedRotation F is applied between the crystal and the scan axis
	FixedRotation Mat3
	// SettingRotation S is applied between the scan axis and the lab
	SettingRotation Mat3
}

// NewGoniometer returns the canonical goniometer: rotation about +x with
// identity fixed and setting rotations.
func NewGoniometer() *Goniometer {
	return &Goniometer{
		RotationAxis:    Vec3{1, 0, 0},
		FixedRotation:   Identity3(),
		SettingRotation: Identity3(),
	}
}

// NewReverseGoniometer returns a goniometer rotating about -x, for
// instruments whose phi runs backwards.
func NewReverseGoniometer() *Goniometer {
	g := NewGoniometer()
	g.RotationAxis = Vec3{-1, 0, 0}
	return g
}

// NewKnownAxisGoniometer returns a goniometer rotating about the given axis.
func NewKnownAxisGoniometer(axis Vec3) (*Goniometer, error) {
	if axis.Norm() == 0 {
		return nil, errors.New(errors.ErrModelInvalid, "rotation axis cannot be the zero vector")
	}
	g := NewGoniometer()
	g.RotationAxis = axis.Normalize()
	return g, nil
}

// LabRotationAxis returns the rotation axis with the setting rotation
// applied, i.e. the axis as seen in the laboratory frame.
func (g *Goniometer) LabRotationAxis() Vec3 {
	return g.SettingRotation.MulVec(g.RotationAxis)
}

// MultiAxisGoniometer models a stack of rotation axes. Axes are ordered
// from the crystal outward: axes[0] is closest to the crystal (e.g. phi),
// axes[len-1] closest to the laboratory (e.g. omega).
type MultiAxisGoniometer struct {
	Goniometer

	Axes     []Vec3
	Angles   []float64
	Names    []string
	ScanAxis int
}

// NewMultiAxisGoniometer builds a multi-axis goniometer and derives the
// embedded single-axis view: the rotation axis is the scan axis datum, the
// fixed rotation composes the axes between crystal and scan axis at their
// current angles, and the setting rotation composes the axes outside it.
func NewMultiAxisGoniometer(axes []Vec3, angles []float64, names []string, scanAxis int) (*MultiAxisGoniometer, error) {
	if len(axes) == 0 {
		return nil, errors.New(errors.ErrModelInvalid, "at least one axis is required")
	}
	if len(angles) != len(axes) || len(names) != len(axes) {
		return nil, errors.Newf(errors.ErrModelInvalid,
			"axes, angles and names must have equal length, got %d/%d/%d",
			len(axes), len(angles), len(names))
	}
	if scanAxis < 0 || scanAxis >= len(axes) {
		return nil, errors.Newf(errors.ErrModelInvalid,
			"scan axis %d out of range for %d axes", scanAxis, len(axes))
	}

	g := &MultiAxisGoniometer{
		Axes:     axes,
		Angles:   angles,
		Names:    names,
		ScanAxis: scanAxis,
	}
	g.recompute()
	return g, nil
}

func (g *MultiAxisGoniometer) recompute() {
	g.RotationAxis = g.Axes[g.ScanAxis].Normalize()

	fixed := Identity3()
	for i := 0; i < g.ScanAxis; i++ {
		fixed = AxisAngle(g.Axes[i], g.Angles[i]).Mul(fixed)
	}
	g.FixedRotation = fixed

	setting := Identity3()
	for i := g.ScanAxis + 1; i < len(g.Axes); i++ {
		setting = AxisAngle(g.Axes[i], g.Angles[i]).Mul(setting)
	}
	g.SettingRotation = setting
}

// SetAngles replaces the axis angles and recomputes the derived rotations.
func (g *MultiAxisGoniometer) SetAngles(angles []float64) error {
	if len(angles) != len(g.Axes) {
		return errors.Newf(errors.ErrModelInvalid,
			"expected %d angles, got %d", len(g.Axes), len(angles))
	}
	g.Angles = angles
	g.recompute()
	return nil
}

// Kappa axis direction names
const (
	KappaPlusY  = "+y"
	KappaPlusZ  = "+z"
	KappaMinusY = "-y"
	KappaMinusZ = "-z"
)

// NewKappaGoniometer builds a mini-kappa goniometer. alpha is the kappa
// support angle in degrees; omega, kappa and phi are the current axis
// angles; direction names which way the kappa head leans; scanAxis is
// "omega" or "phi".
func NewKappaGoniometer(alpha, omega, kappa, phi float64, direction, scanAxis string) (*MultiAxisGoniometer, error) {
	omegaAxis := Vec3{1, 0, 0}
	phiAxis := Vec3{1, 0, 0}

	c := math.Cos(alpha * math.Pi / 180)
	s := math.Sin(alpha * math.Pi / 180)

	var kappaAxis Vec3
	switch strings.ToLower(direction) {
	case KappaPlusY:
		kappaAxis = Vec3{c, s, 0}
	case KappaPlusZ:
		kappaAxis = Vec3{c, 0, s}
	case KappaMinusY:
		kappaAxis = Vec3{c, -s, 0}
	case KappaMinusZ:
		kappaAxis = Vec3{c, 0, -s}
	default:
		return nil, errors.Newf(errors.ErrModelInvalid, "invalid kappa direction %q", direction)
	}

	var scan int
	switch strings.ToLower(scanAxis) {
	case "phi":
		scan = 0
	case "omega":
		scan = 2
	default:
		return nil, errors.Newf(errors.ErrModelInvalid, "invalid scan axis %q, want omega or phi", scanAxis)
	}

	return NewMultiAxisGoniometer(
		[]Vec3{phiAxis, kappaAxis, omegaAxis},
		[]float64{phi, kappa, omega},
		[]string{"PHI", "KAPPA", "OMEGA"},
		scan,
	)
}
