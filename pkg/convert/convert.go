// Package convert renders diffraction images as miniCBF files: a
// PILATUS_1.2 comment header followed by byte-offset compressed pixel
// data. Any registered image format can feed the writer, so the package
// doubles as a re-render path for images difftbx can already read.
package convert

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/difftbx/pkg/byteoffset"
	"github.com/arthur-debert/difftbx/pkg/errors"
	"github.com/arthur-debert/difftbx/pkg/format"
	"github.com/arthur-debert/difftbx/pkg/logging"
	"github.com/arthur-debert/difftbx/pkg/model"
)

// Defaults applied when the caller leaves the corresponding option unset
const (
	DefaultDetectorName     = "EIGER 2XE 16M S/N 160-0001 Diamond"
	DefaultSensorThicknessM = 0.000450
	DefaultBlockSize        = 1000
	defaultPrefix           = "image"
)

func logger() zerolog.Logger {
	return logging.GetLogger("convert")
}

// Source supplies the experimental models and pixel data for a
// conversion. Frames are 0-based; implementations may read them lazily.
type Source interface {
	Beam() (*model.Beam, error)
	Detector() (*model.Detector, error)
	Scan() (*model.Scan, error)
	NumFrames() int
	Frame(i int) ([]int32, error)
}

// FileSource reads frames from image files, one frame per file, taking
// the experimental models from the first. Files are opened lazily, so a
// long file list does not hold a handle per frame.
type FileSource struct {
	paths      []string
	formatName string
	beam       *model.Beam
	detector   *model.Detector
	scan       *model.Scan
}

// NewFileSource detects the format of the first file and caches its
// models. All files are assumed to belong to the same sweep.
func NewFileSource(paths []string) (*FileSource, error) {
	if len(paths) == 0 {
		return nil, errors.New(errors.ErrInvalidInput, "no input files given")
	}

	r, err := format.Open(paths[0])
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()

	s := &FileSource{paths: paths, formatName: r.Format()}
	if s.beam, err = r.Beam(); err != nil {
		return nil, err
	}
	if s.detector, err = r.Detector(); err != nil {
		return nil, err
	}
	if s.scan, err = r.Scan(); err != nil {
		return nil, err
	}
	return s, nil
}

// Format returns the name of the format that read the first file
func (s *FileSource) Format() string { return s.formatName }

func (s *FileSource) Beam() (*model.Beam, error)         { return s.beam, nil }
func (s *FileSource) Detector() (*model.Detector, error) { return s.detector, nil }
func (s *FileSource) Scan() (*model.Scan, error)         { return s.scan, nil }

// NumFrames returns the number of input files
func (s *FileSource) NumFrames() int { return len(s.paths) }

// Frame opens the i-th file and reads its pixel data
func (s *FileSource) Frame(i int) ([]int32, error) {
	if i < 0 || i >= len(s.paths) {
		return nil, errors.Newf(errors.ErrInvalidInput, "frame %d out of range 0..%d", i, len(s.paths)-1)
	}
	r, err := format.Open(s.paths[i])
	if err != nil {
		return nil, err
	}
	defer func() { _ = r.Close() }()
	return r.RawData()
}

// Options controls a conversion. Zero values fall back to the package
// defaults, or to the source's detector model where it carries the value.
type Options struct {
	// OutDir is the directory output frames are written to
	OutDir string

	// Prefix names the output files prefix_0001.cbf, prefix_0002.cbf, ...
	Prefix string

	// DetectorName is the identification line of the written header
	DetectorName string

	// SensorThicknessM is the sensor thickness in metres
	SensorThicknessM float64

	// PixelSizeM overrides the detector model's pixel size, in metres
	PixelSizeM float64

	// BlockSize groups frames into blocks for progress reporting
	BlockSize int

	// FilterTransmission is recorded in the header; zero means 1.0
	FilterTransmission float64

	// Timestamp is the collection time stamped into each header; the
	// zero value means now
	Timestamp time.Time

	// DryRun plans the conversion without reading frames or writing files
	DryRun bool

	// Progress, when set, is called after each frame with the number of
	// frames handled and the total
	Progress func(done, total int)
}

// Result reports what a conversion wrote, or would write under dry-run
type Result struct {
	// Files holds the output paths in frame order
	Files []string

	// DryRun reports whether the files were actually written
	DryRun bool
}

// Convert writes every frame of the source as a miniCBF file. Pixels at
// or above the count cutoff are flagged -2 and, when the image dimensions
// decompose into an Eiger module grid, gap pixels are flagged -1.
func Convert(ctx context.Context, src Source, opts Options) (*Result, error) {
	log := logger()
	defer logging.LogDuration(time.Now(), "convert")

	beam, err := src.Beam()
	if err != nil {
		return nil, err
	}
	detector, err := src.Detector()
	if err != nil {
		return nil, err
	}
	scan, err := src.Scan()
	if err != nil {
		return nil, err
	}
	if len(detector.Panels) == 0 {
		return nil, errors.New(errors.ErrModelInvalid, "detector has no panels")
	}

	total := src.NumFrames()
	if total <= 0 {
		return nil, errors.New(errors.ErrInvalidInput, "source has no frames")
	}

	panel := detector.Panels[0]
	width, height := panel.ImageSize[0], panel.ImageSize[1]
	if width <= 0 || height <= 0 {
		return nil, errors.Newf(errors.ErrModelInvalid, "bad image size %dx%d", width, height)
	}

	distance, err := detector.Distance()
	if err != nil {
		return nil, err
	}
	beamX, beamY, err := panel.BeamCentrePx(beam.Direction)
	if err != nil {
		return nil, err
	}

	prefix := opts.Prefix
	if prefix == "" {
		prefix = defaultPrefix
	}
	blockSize := opts.BlockSize
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	detectorName := opts.DetectorName
	if detectorName == "" {
		detectorName = DefaultDetectorName
	}
	thickness := opts.SensorThicknessM
	if thickness == 0 {
		thickness = DefaultSensorThicknessM
	}
	pixel := [2]float64{opts.PixelSizeM, opts.PixelSizeM}
	if opts.PixelSizeM == 0 {
		pixel = [2]float64{panel.PixelSizeMM[0] / 1000.0, panel.PixelSizeMM[1] / 1000.0}
	}
	transmission := opts.FilterTransmission
	if transmission == 0 {
		transmission = 1.0
	}
	stamp := opts.Timestamp
	if stamp.IsZero() {
		stamp = time.Now()
	}
	timestamp := stamp.UTC().Format("2006-01-02T15:04:05")

	mask, err := EigerGapMask(width, height)
	if err != nil {
		log.Debug().
			Int("width", width).
			Int("height", height).
			Msg("Image size is not an Eiger module grid, writing without gap mask")
		mask = nil
	}

	log.Info().
		Int("frames", total).
		Str("out_dir", opts.OutDir).
		Str("prefix", prefix).
		Bool("dry_run", opts.DryRun).
		Msg("Converting to miniCBF")

	if !opts.DryRun && opts.OutDir != "" {
		if err := os.MkdirAll(opts.OutDir, 0755); err != nil {
			return nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot create output directory %s", opts.OutDir)
		}
	}

	result := &Result{DryRun: opts.DryRun}
	for j := 0; j < total; j++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.Wrap(err, errors.ErrOpExecute, "conversion interrupted")
		}

		if j%blockSize == 0 {
			log.Debug().Int("block", 1+j/blockSize).Msg("Starting block")
		}

		path := filepath.Join(opts.OutDir, fmt.Sprintf("%s_%04d.cbf", prefix, j+1))
		if opts.DryRun {
			log.Info().Str("path", path).Msg("Would write frame")
			result.Files = append(result.Files, path)
			if opts.Progress != nil {
				opts.Progress(j+1, total)
			}
			continue
		}

		data, err := src.Frame(j)
		if err != nil {
			return nil, err
		}
		if len(data) != width*height {
			return nil, errors.Newf(errors.ErrDataRead,
				"frame %d has %d pixels, expected %dx%d", j+1, len(data), width, height)
		}

		MarkOverloads(data, countCutoff)
		if mask != nil {
			if err := mask.Mark(data); err != nil {
				return nil, err
			}
		}

		hdr := frameHeader{
			FrameNum:     j + 1,
			DetectorName: detectorName,
			Timestamp:    timestamp,
			PixelSizeM:   pixel,
			ThicknessM:   thickness,
			ExposureS:    scan.ExposureTime(scan.ImageRange[0] + j),
			WavelengthA:  beam.WavelengthAng,
			DistanceMM:   distance,
			BeamXPx:      beamX,
			BeamYPx:      beamY,
			Transmission: transmission,
			StartDeg:     scan.AngleFromImage(scan.ImageRange[0] + j),
			IncrementDeg: scan.Oscillation[1],
		}

		content := renderFrame(hdr, byteoffset.Compress(data), width, height)
		if err := os.WriteFile(path, content, 0644); err != nil {
			return nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot write %s", path)
		}

		log.Debug().Str("path", path).Int("frame", j+1).Msg("Frame written")
		result.Files = append(result.Files, path)
		if opts.Progress != nil {
			opts.Progress(j+1, total)
		}
	}

	log.Info().Int("frames", len(result.Files)).Msg("Conversion complete")
	return result, nil
}
