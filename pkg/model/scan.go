package model

import (
	"github.com/arthur-debert/difftbx/pkg/errors"
)

// Scan describes a contiguous rotation sweep. ImageRange is inclusive and
// 1-based; Oscillation holds the start angle and per-image width in
// degrees. A width of zero marks a still.
type Scan struct {
	ImageRange    [2]int
	Oscillation   [2]float64
	ExposureTimes []float64
	Epochs        []float64
}

// NewScan validates and builds a scan. ExposureTimes and Epochs may be nil
// or must match the image count.
func NewScan(imageRange [2]int, oscillation [2]float64, exposureTimes, epochs []float64) (*Scan, error) {
	if imageRange[1] < imageRange[0] {
		return nil, errors.Newf(errors.ErrModelInvalid,
			"image range end %d before start %d", imageRange[1], imageRange[0])
	}

	n := imageRange[1] - imageRange[0] + 1
	if exposureTimes != nil && len(exposureTimes) != n {
		return nil, errors.Newf(errors.ErrModelInvalid,
			"expected %d exposure times, got %d", n, len(exposureTimes))
	}
	if epochs != nil && len(epochs) != n {
		return nil, errors.Newf(errors.ErrModelInvalid,
			"expected %d epochs, got %d", n, len(epochs))
	}

	return &Scan{
		ImageRange:    imageRange,
		Oscillation:   oscillation,
		ExposureTimes: exposureTimes,
		Epochs:        epochs,
	}, nil
}

// NumImages returns the number of images in the sweep
func (s *Scan) NumImages() int {
	return s.ImageRange[1] - s.ImageRange[0] + 1
}

// IsStill reports whether the scan has no rotation per image
func (s *Scan) IsStill() bool {
	return s.Oscillation[1] == 0
}

// AngleFromImage returns the start angle of the given 1-based image index
func (s *Scan) AngleFromImage(index int) float64 {
	return s.Oscillation[0] + float64(index-s.ImageRange[0])*s.Oscillation[1]
}

// ExposureTime returns the exposure for the given 1-based image index, or
// zero when no exposure times were recorded.
func (s *Scan) ExposureTime(index int) float64 {
	if s.ExposureTimes == nil {
		return 0
	}
	i := index - s.ImageRange[0]
	if i < 0 || i >= len(s.ExposureTimes) {
		return 0
	}
	return s.ExposureTimes[i]
}
