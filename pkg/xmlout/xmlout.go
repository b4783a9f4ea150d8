// Package xmlout renders experimental models and format listings as XML.
// The inspect and formats commands use it for their --output xml view, so
// the documents favor attributes over nested text: one element per model,
// numbers trimmed to six significant digits.
package xmlout

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/arthur-debert/difftbx/pkg/format"
	"github.com/arthur-debert/difftbx/pkg/model"
)

// num renders a float the way the XML views expect: six significant
// digits, no trailing zeros.
func num(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func vec(v model.Vec3) string {
	return num(v[0]) + " " + num(v[1]) + " " + num(v[2])
}

func mat(m model.Mat3) string {
	parts := make([]string, 9)
	for i, v := range m {
		parts[i] = num(v)
	}
	return strings.Join(parts, " ")
}

func ints(v [2]int) string {
	return strconv.Itoa(v[0]) + " " + strconv.Itoa(v[1])
}

func pair(v [2]float64) string {
	return num(v[0]) + " " + num(v[1])
}

// Experiment builds the document for one image: the format that read it,
// the file path and the four experimental models.
func Experiment(formatName, path string, beam *model.Beam, gonio model.GoniometerModel,
	det *model.Detector, scan *model.Scan) *etree.Document {

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("experiment")
	root.CreateAttr("format", formatName)
	root.CreateAttr("path", path)

	b := root.CreateElement("beam")
	b.CreateAttr("wavelength", num(beam.WavelengthAng))
	b.CreateAttr("direction", vec(beam.Direction))
	b.CreateAttr("polarization_normal", vec(beam.PolarizationNormal))
	b.CreateAttr("polarization_fraction", num(beam.PolarizationFrac))

	addGoniometer(root, gonio)

	d := root.CreateElement("detector")
	d.CreateAttr("panels", strconv.Itoa(len(det.Panels)))
	for _, panel := range det.Panels {
		p := d.CreateElement("panel")
		p.CreateAttr("name", panel.Name)
		p.CreateAttr("sensor", panel.SensorType)
		p.CreateAttr("fast_axis", vec(panel.FastAxis))
		p.CreateAttr("slow_axis", vec(panel.SlowAxis))
		p.CreateAttr("origin", vec(panel.Origin))
		p.CreateAttr("pixel_size_mm", pair(panel.PixelSizeMM))
		p.CreateAttr("image_size", ints(panel.ImageSize))
		p.CreateAttr("trusted_range", pair(panel.TrustedRange))
		if panel.Material != "" {
			p.CreateAttr("material", panel.Material)
			p.CreateAttr("thickness_mm", num(panel.ThicknessMM))
		}
	}

	s := root.CreateElement("scan")
	s.CreateAttr("image_range", ints(scan.ImageRange))
	s.CreateAttr("oscillation", pair(scan.Oscillation))
	s.CreateAttr("still", strconv.FormatBool(scan.IsStill()))
	if scan.ExposureTimes != nil {
		s.CreateAttr("exposure_time", num(scan.ExposureTime(scan.ImageRange[0])))
	}

	return doc
}

// addGoniometer emits the goniometer element, with one axis child per
// stacked axis for multi-axis instruments.
func addGoniometer(root *etree.Element, gonio model.GoniometerModel) {
	g := root.CreateElement("goniometer")
	g.CreateAttr("rotation_axis", vec(gonio.LabRotationAxis()))

	switch m := gonio.(type) {
	case *model.MultiAxisGoniometer:
		g.CreateAttr("scan_axis", m.Names[m.ScanAxis])
		g.CreateAttr("fixed_rotation", mat(m.FixedRotation))
		g.CreateAttr("setting_rotation", mat(m.SettingRotation))
		for i := range m.Axes {
			a := g.CreateElement("axis")
			a.CreateAttr("name", m.Names[i])
			a.CreateAttr("direction", vec(m.Axes[i]))
			a.CreateAttr("angle", num(m.Angles[i]))
		}
	case *model.Goniometer:
		g.CreateAttr("fixed_rotation", mat(m.FixedRotation))
		g.CreateAttr("setting_rotation", mat(m.SettingRotation))
	}
}

// Formats builds the document for the format listing
func Formats(entries []format.Entry) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("formats")
	root.CreateAttr("count", strconv.Itoa(len(entries)))
	for _, e := range entries {
		f := root.CreateElement("format")
		f.CreateAttr("name", e.Name)
		f.CreateAttr("level", strconv.Itoa(e.Level))
		f.CreateAttr("description", e.Description)
	}
	return doc
}

// Render serializes a document with two-space indentation
func Render(doc *etree.Document) (string, error) {
	doc.Indent(2)
	return doc.WriteToString()
}
