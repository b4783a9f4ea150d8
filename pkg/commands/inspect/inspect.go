// Package inspect reads the experimental models of one image file and
// renders them for display or machine consumption.
package inspect

import (
	"fmt"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/difftbx/pkg/errors"
	"github.com/arthur-debert/difftbx/pkg/format"
	"github.com/arthur-debert/difftbx/pkg/logging"
	"github.com/arthur-debert/difftbx/pkg/model"
	"github.com/arthur-debert/difftbx/pkg/xmlout"
)

// Output formats Marshal understands
const (
	OutputText = "text"
	OutputXML  = "xml"
	OutputTOML = "toml"
	OutputYAML = "yaml"
)

// Result holds the models read from one image file
type Result struct {
	Path       string
	FormatName string
	Beam       *model.Beam
	Goniometer model.GoniometerModel
	Detector   *model.Detector
	Scan       *model.Scan
}

// Inspect detects the format of the file and reads all four models
func Inspect(path string) (*Result, error) {
	logger := logging.GetLogger("commands.inspect")

	reader, err := format.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = reader.Close() }()

	result := &Result{Path: path, FormatName: reader.Format()}
	if result.Beam, err = reader.Beam(); err != nil {
		return nil, err
	}
	if result.Goniometer, err = reader.Goniometer(); err != nil {
		return nil, err
	}
	if result.Detector, err = reader.Detector(); err != nil {
		return nil, err
	}
	if result.Scan, err = reader.Scan(); err != nil {
		return nil, err
	}

	logger.Debug().
		Str("path", path).
		Str("format", result.FormatName).
		Int("panels", len(result.Detector.Panels)).
		Msg("Models read")
	return result, nil
}

// Marshal renders the result in the requested output format. Text output
// is markup meant for style.Render.
func (r *Result) Marshal(output string) (string, error) {
	switch output {
	case OutputText, "":
		return r.text(), nil
	case OutputXML:
		doc := xmlout.Experiment(r.FormatName, r.Path, r.Beam, r.Goniometer, r.Detector, r.Scan)
		return xmlout.Render(doc)
	case OutputTOML:
		data, err := toml.Marshal(r.view())
		if err != nil {
			return "", errors.Wrap(err, errors.ErrInternal, "failed to marshal experiment as TOML")
		}
		return string(data), nil
	case OutputYAML:
		data, err := yaml.Marshal(r.view())
		if err != nil {
			return "", errors.Wrap(err, errors.ErrInternal, "failed to marshal experiment as YAML")
		}
		return string(data), nil
	default:
		return "", errors.Newf(errors.ErrInvalidInput,
			"unknown output format %q (want text, xml, toml or yaml)", output)
	}
}

// view types flatten the models into plain serializable shapes shared by
// the TOML and YAML outputs.

type experimentView struct {
	Path       string      `toml:"path" yaml:"path"`
	Format     string      `toml:"format" yaml:"format"`
	Beam       beamView    `toml:"beam" yaml:"beam"`
	Goniometer gonioView   `toml:"goniometer" yaml:"goniometer"`
	Panels     []panelView `toml:"panels" yaml:"panels"`
	Scan       scanView    `toml:"scan" yaml:"scan"`
}

type beamView struct {
	WavelengthAng    float64    `toml:"wavelength_ang" yaml:"wavelength_ang"`
	Direction        model.Vec3 `toml:"direction" yaml:"direction"`
	PolarizationFrac float64    `toml:"polarization_fraction" yaml:"polarization_fraction"`
}

type gonioView struct {
	RotationAxis model.Vec3 `toml:"rotation_axis" yaml:"rotation_axis"`
	Axes         []axisView `toml:"axes,omitempty" yaml:"axes,omitempty"`
	ScanAxis     string     `toml:"scan_axis,omitempty" yaml:"scan_axis,omitempty"`
}

type axisView struct {
	Name      string     `toml:"name" yaml:"name"`
	Direction model.Vec3 `toml:"direction" yaml:"direction"`
	AngleDeg  float64    `toml:"angle_deg" yaml:"angle_deg"`
}

type panelView struct {
	Name         string     `toml:"name" yaml:"name"`
	SensorType   string     `toml:"sensor,omitempty" yaml:"sensor,omitempty"`
	FastAxis     model.Vec3 `toml:"fast_axis" yaml:"fast_axis"`
	SlowAxis     model.Vec3 `toml:"slow_axis" yaml:"slow_axis"`
	Origin       model.Vec3 `toml:"origin" yaml:"origin"`
	PixelSizeMM  [2]float64 `toml:"pixel_size_mm" yaml:"pixel_size_mm"`
	ImageSize    [2]int     `toml:"image_size" yaml:"image_size"`
	TrustedRange [2]float64 `toml:"trusted_range" yaml:"trusted_range"`
	Material     string     `toml:"material,omitempty" yaml:"material,omitempty"`
	ThicknessMM  float64    `toml:"thickness_mm,omitempty" yaml:"thickness_mm,omitempty"`
}

type scanView struct {
	ImageRange  [2]int     `toml:"image_range" yaml:"image_range"`
	Oscillation [2]float64 `toml:"oscillation_deg" yaml:"oscillation_deg"`
	Still       bool       `toml:"still" yaml:"still"`
	Exposures   []float64  `toml:"exposure_times,omitempty" yaml:"exposure_times,omitempty"`
}

func (r *Result) view() experimentView {
	v := experimentView{
		Path:   r.Path,
		Format: r.FormatName,
		Beam: beamView{
			WavelengthAng:    r.Beam.WavelengthAng,
			Direction:        r.Beam.Direction,
			PolarizationFrac: r.Beam.PolarizationFrac,
		},
		Goniometer: gonioView{RotationAxis: r.Goniometer.LabRotationAxis()},
		Scan: scanView{
			ImageRange:  r.Scan.ImageRange,
			Oscillation: r.Scan.Oscillation,
			Still:       r.Scan.IsStill(),
			Exposures:   r.Scan.ExposureTimes,
		},
	}

	if mag, ok := r.Goniometer.(*model.MultiAxisGoniometer); ok {
		v.Goniometer.ScanAxis = mag.Names[mag.ScanAxis]
		for i := range mag.Axes {
			v.Goniometer.Axes = append(v.Goniometer.Axes, axisView{
				Name:      mag.Names[i],
				Direction: mag.Axes[i],
				AngleDeg:  mag.Angles[i],
			})
		}
	}

	for _, p := range r.Detector.Panels {
		v.Panels = append(v.Panels, panelView{
			Name:         p.Name,
			SensorType:   p.SensorType,
			FastAxis:     p.FastAxis,
			SlowAxis:     p.SlowAxis,
			Origin:       p.Origin,
			PixelSizeMM:  p.PixelSizeMM,
			ImageSize:    p.ImageSize,
			TrustedRange: p.TrustedRange,
			Material:     p.Material,
			ThicknessMM:  p.ThicknessMM,
		})
	}
	return v
}

func fmtVec(v model.Vec3) string {
	return fmt.Sprintf("%g %g %g", v[0], v[1], v[2])
}

// text renders the models as markup text
func (r *Result) text() string {
	var b strings.Builder

	fmt.Fprintf(&b, "[title]%s[/title]\n", r.Path)
	fmt.Fprintf(&b, "format: [format]%s[/format]\n", r.FormatName)

	b.WriteString("\n[subtitle]Beam[/subtitle]\n")
	fmt.Fprintf(&b, "  wavelength    %.6g A\n", r.Beam.WavelengthAng)
	fmt.Fprintf(&b, "  direction     %s\n", fmtVec(r.Beam.Direction))
	fmt.Fprintf(&b, "  polarization  %.3f\n", r.Beam.PolarizationFrac)

	b.WriteString("\n[subtitle]Goniometer[/subtitle]\n")
	fmt.Fprintf(&b, "  rotation axis %s\n", fmtVec(r.Goniometer.LabRotationAxis()))
	if mag, ok := r.Goniometer.(*model.MultiAxisGoniometer); ok {
		for i := range mag.Axes {
			marker := " "
			if i == mag.ScanAxis {
				marker = "*"
			}
			fmt.Fprintf(&b, "  %s %-8s %s at %.4g deg\n",
				marker, mag.Names[i], fmtVec(mag.Axes[i]), mag.Angles[i])
		}
	}

	b.WriteString("\n[subtitle]Detector[/subtitle]\n")
	for _, p := range r.Detector.Panels {
		fmt.Fprintf(&b, "  [model]%s[/model]\n", p.Name)
		fmt.Fprintf(&b, "    image size    %d x %d px\n", p.ImageSize[0], p.ImageSize[1])
		fmt.Fprintf(&b, "    pixel size    %g x %g mm\n", p.PixelSizeMM[0], p.PixelSizeMM[1])
		fmt.Fprintf(&b, "    origin        %s mm\n", fmtVec(p.Origin))
		fmt.Fprintf(&b, "    trusted range %g .. %g\n", p.TrustedRange[0], p.TrustedRange[1])
		if p.Material != "" {
			fmt.Fprintf(&b, "    sensor        %s %.0f um\n", p.Material, p.ThicknessMM*1000)
		}
	}

	b.WriteString("\n[subtitle]Scan[/subtitle]\n")
	if r.Scan.IsStill() {
		b.WriteString("  still image\n")
	}
	fmt.Fprintf(&b, "  images        %d .. %d\n", r.Scan.ImageRange[0], r.Scan.ImageRange[1])
	fmt.Fprintf(&b, "  oscillation   %.4g deg from %.4g deg\n", r.Scan.Oscillation[1], r.Scan.Oscillation[0])
	if len(r.Scan.ExposureTimes) > 0 {
		fmt.Fprintf(&b, "  exposure      %.4g s\n", r.Scan.ExposureTimes[0])
	}

	return b.String()
}
