package convert

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// binaryStartTag separates the MIME headers from the compressed pixel
// stream, per the CBFlib convention.
var binaryStartTag = []byte{0x0c, 0x1a, 0x04, 0xd5}

// frameHeader carries everything the PILATUS_1.2 comment header of one
// output frame needs. Distances arrive in mm and are rendered in m.
type frameHeader struct {
	FrameNum     int // 1-based
	DetectorName string
	Timestamp    string // 19 characters, UTC
	PixelSizeM   [2]float64
	ThicknessM   float64
	ExposureS    float64
	WavelengthA  float64
	DistanceMM   float64
	BeamXPx      float64
	BeamYPx      float64
	Transmission float64
	StartDeg     float64
	IncrementDeg float64
}

// micro renders a length in metres in the NNNe-6 style the Dectris
// headers use, e.g. 75e-6 for a 75 micron pixel.
func micro(m float64) string {
	return strconv.FormatFloat(m*1e6, 'g', 10, 64)
}

// headerText renders the text part of a miniCBF frame, up to and
// including the closing semicolon of the header_contents field.
func headerText(h frameHeader) string {
	lines := []string{
		"###CBF: VERSION 1.5, CBFlib v0.7.8 - Eiger detectors",
		"",
		fmt.Sprintf("data_%06d", h.FrameNum),
		"",
		`_array_data.header_convention "PILATUS_1.2"`,
		"_array_data.header_contents",
		";",
		fmt.Sprintf("# Detector: %s", h.DetectorName),
		fmt.Sprintf("# %s", h.Timestamp),
		fmt.Sprintf("# Pixel_size %se-6 m x %se-6 m", micro(h.PixelSizeM[0]), micro(h.PixelSizeM[1])),
		fmt.Sprintf("# Silicon sensor, thickness %.6f m", h.ThicknessM),
		fmt.Sprintf("# Exposure_time %.5f s", h.ExposureS),
		fmt.Sprintf("# Exposure_period %.5f s", h.ExposureS),
		"# Tau = 1e-9 s",
		fmt.Sprintf("# Count_cutoff %d counts", countCutoff),
		"# Threshold_setting: 0 eV",
		"# Gain_setting: mid gain (vrf = -0.200)",
		"# N_excluded_pixels = 0",
		"# Excluded_pixels: badpix_mask.tif",
		"# Flat_field: (nil)",
		fmt.Sprintf("# Wavelength %.5f A", h.WavelengthA),
		fmt.Sprintf("# Detector_distance %.5f m", h.DistanceMM/1000.0),
		fmt.Sprintf("# Beam_xy (%.2f, %.2f) pixels", h.BeamXPx, h.BeamYPx),
		"# Flux 0.000000",
		fmt.Sprintf("# Filter_transmission %.3f", h.Transmission),
		fmt.Sprintf("# Start_angle %.4f deg.", h.StartDeg),
		fmt.Sprintf("# Angle_increment %.4f deg.", h.IncrementDeg),
		"# Detector_2theta 0.0000 deg.",
		"# Polarization 0.990",
		"# Alpha 0.0000 deg.",
		"# Kappa 0.0000 deg.",
		"# Phi 0.0000 deg.",
		"# Phi_increment 0.0000 deg.",
		fmt.Sprintf("# Omega %.4f deg.", h.StartDeg),
		fmt.Sprintf("# Omega_increment %.4f deg.", h.IncrementDeg),
		"# Oscillation_axis X.CW",
		"# N_oscillations 1",
		";",
	}
	return strings.Join(lines, "\n")
}

// mimeText renders the binary section preamble for a compressed payload
// of the given byte size and pixel dimensions.
func mimeText(size, width, height int) string {
	return fmt.Sprintf(`

_array_data.data
;
--CIF-BINARY-FORMAT-SECTION--
Content-Type: application/octet-stream;
     conversions="x-CBF_BYTE_OFFSET"
Content-Transfer-Encoding: BINARY
X-Binary-Size: %d
X-Binary-ID: 1
X-Binary-Element-Type: "signed 32-bit integer"
X-Binary-Element-Byte-Order: LITTLE_ENDIAN
X-Binary-Number-of-Elements: %d
X-Binary-Size-Fastest-Dimension: %d
X-Binary-Size-Second-Dimension: %d
X-Binary-Size-Padding: 4095

`, size, width*height, width, height)
}

// renderFrame assembles the complete file content of one miniCBF frame.
// The text part uses CRLF line endings; the binary payload is followed by
// 4095 padding bytes and the closing boundary.
func renderFrame(h frameHeader, compressed []byte, width, height int) []byte {
	text := headerText(h) + mimeText(len(compressed), width, height)

	var buf bytes.Buffer
	buf.Grow(len(text) + len(binaryStartTag) + len(compressed) + 4200)
	buf.WriteString(strings.ReplaceAll(text, "\n", "\r\n"))
	buf.Write(binaryStartTag)
	buf.Write(compressed)
	buf.Write(make([]byte, 4095))
	buf.WriteString("--CIF-BINARY-FORMAT-SECTION----\n;")
	return buf.Bytes()
}
