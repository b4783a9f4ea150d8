package model

import (
	"github.com/arthur-debert/difftbx/pkg/errors"
)

// Beam describes the incident X-ray beam. The direction points from the
// sample toward the source, so a beam travelling along -z is (0, 0, 1).
type Beam struct {
	WavelengthAng      float64
	Direction          Vec3
	PolarizationNormal Vec3
	PolarizationFrac   float64
}

// NewBeam builds a beam along the canonical axis with the given wavelength
// in Angstroms.
func NewBeam(wavelengthAng float64) (*Beam, error) {
	return NewBeamWithDirection(wavelengthAng, Vec3{0, 0, 1})
}

// NewBeamWithDirection builds a beam with an explicit sample-to-source
// direction, which is normalized.
func NewBeamWithDirection(wavelengthAng float64, direction Vec3) (*Beam, error) {
	if wavelengthAng <= 0 {
		return nil, errors.Newf(errors.ErrModelInvalid, "wavelength must be positive, got %g", wavelengthAng)
	}
	if direction.Norm() == 0 {
		return nil, errors.New(errors.ErrModelInvalid, "beam direction cannot be the zero vector")
	}

	return &Beam{
		WavelengthAng:      wavelengthAng,
		Direction:          direction.Normalize(),
		PolarizationNormal: Vec3{0, 1, 0},
		PolarizationFrac:   0.999,
	}, nil
}

// S0 returns the incident beam vector: direction of travel scaled by
// 1/wavelength.
func (b *Beam) S0() Vec3 {
	return b.Direction.Scale(-1 / b.WavelengthAng)
}
