package convert

import (
	"github.com/arthur-debert/difftbx/pkg/errors"
)

// Eiger module grid geometry in pixels. Modules are separated by gap
// regions that carry no sensor; downstream integration software expects
// those pixels flagged.
const (
	moduleFast = 1028
	moduleSlow = 512
	gapFast    = 12
	gapSlow    = 38
)

// countCutoff is the saturation value of the detector counters. Pixels at
// or above it are overloads.
const countCutoff = 65535

// GapMask knows which pixels of an image fall in the inter-module gaps of
// an Eiger-style detector.
type GapMask struct {
	width   int
	height  int
	fastGap []bool
	slowGap []bool
}

// EigerGapMask builds the gap mask for an image of the given size. The
// dimensions must decompose into a whole grid of modules, i.e.
// width = 1028*n + 12*(n-1) and height = 512*m + 38*(m-1).
func EigerGapMask(width, height int) (*GapMask, error) {
	nFast := width / moduleFast
	if r := width % moduleFast; nFast < 1 || (nFast-1)*gapFast != r {
		return nil, errors.Newf(errors.ErrInvalidInput,
			"width %d does not decompose into %d-pixel modules with %d-pixel gaps", width, moduleFast, gapFast)
	}
	nSlow := height / moduleSlow
	if r := height % moduleSlow; nSlow < 1 || (nSlow-1)*gapSlow != r {
		return nil, errors.Newf(errors.ErrInvalidInput,
			"height %d does not decompose into %d-pixel modules with %d-pixel gaps", height, moduleSlow, gapSlow)
	}

	m := &GapMask{
		width:   width,
		height:  height,
		fastGap: make([]bool, width),
		slowGap: make([]bool, height),
	}
	for f := range m.fastGap {
		m.fastGap[f] = f%(moduleFast+gapFast) >= moduleFast
	}
	for s := range m.slowGap {
		m.slowGap[s] = s%(moduleSlow+gapSlow) >= moduleSlow
	}
	return m, nil
}

// IsGap reports whether the pixel at the given fast/slow position lies in
// a module gap
func (m *GapMask) IsGap(fast, slow int) bool {
	return m.fastGap[fast] || m.slowGap[slow]
}

// Mark sets every gap pixel to -1. Gap marking runs after overload
// marking, so a saturated gap pixel ends up -1.
func (m *GapMask) Mark(data []int32) error {
	if len(data) != m.width*m.height {
		return errors.Newf(errors.ErrInvalidInput,
			"expected %dx%d = %d pixels, got %d", m.width, m.height, m.width*m.height, len(data))
	}

	i := 0
	for s := 0; s < m.height; s++ {
		if m.slowGap[s] {
			for f := 0; f < m.width; f++ {
				data[i] = -1
				i++
			}
			continue
		}
		for f := 0; f < m.width; f++ {
			if m.fastGap[f] {
				data[i] = -1
			}
			i++
		}
	}
	return nil
}

// MarkOverloads sets every pixel at or above the cutoff to -2
func MarkOverloads(data []int32, cutoff int32) {
	for i, v := range data {
		if v >= cutoff {
			data[i] = -2
		}
	}
}
