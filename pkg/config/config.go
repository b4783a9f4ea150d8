// Package config loads difftbx configuration through koanf. Layering, from
// weakest to strongest: embedded defaults, difftbx.toml/difftbx.yaml in the
// config directory, the same names in the project root, then DIFFTBX_*
// environment variables.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/arthur-debert/difftbx/pkg/errors"
)

// EnvPrefix is the prefix for configuration environment variables.
// A double underscore separates nesting levels: DIFFTBX_INSTALL__BASE_PACKAGE.
const EnvPrefix = "DIFFTBX_"

// Install holds package-metadata installation settings. The yaml tags
// mirror the koanf tags so genconfig emits files Load can read back.
type Install struct {
	// BasePackage is the package whose metadata the legacy mode skips
	BasePackage string `koanf:"base_package" yaml:"base_package"`
	// InstallerName is recorded in each metadata record's INSTALLER file
	InstallerName string `koanf:"installer_name" yaml:"installer_name"`
	// SiteDir overrides the metadata destination; empty uses the build layout
	SiteDir string `koanf:"site_dir" yaml:"site_dir"`
	// Packages is the default name@version set reconfigure records
	Packages []string `koanf:"packages" yaml:"packages"`
}

// Convert holds miniCBF conversion settings
type Convert struct {
	BlockSize        int     `koanf:"block_size" yaml:"block_size"`
	DetectorName     string  `koanf:"detector_name" yaml:"detector_name"`
	SensorThicknessM float64 `koanf:"sensor_thickness_m" yaml:"sensor_thickness_m"`
	PixelSizeM       float64 `koanf:"pixel_size_m" yaml:"pixel_size_m"`
}

// Scan holds image-tree scanning settings
type Scan struct {
	Ignore         []string `koanf:"ignore" yaml:"ignore"`
	FollowSymlinks bool     `koanf:"follow_symlinks" yaml:"follow_symlinks"`
}

// Output holds terminal output settings
type Output struct {
	// Color is auto, always or never
	Color string `koanf:"color" yaml:"color"`
}

// Config is the main configuration structure
type Config struct {
	Install Install `koanf:"install" yaml:"install"`
	Convert Convert `koanf:"convert" yaml:"convert"`
	Scan    Scan    `koanf:"scan" yaml:"scan"`
	Output  Output  `koanf:"output" yaml:"output"`
}

// candidate config file names, tried in order; first hit per directory wins
var configNames = []string{"difftbx.toml", ".difftbx.toml", "difftbx.yaml", ".difftbx.yaml"}

// NewKoanf builds the layered koanf instance. Directories may be empty; a
// missing config file is not an error.
func NewKoanf(dirs ...string) (*koanf.Koanf, error) {
	k := koanf.New(".")

	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to load embedded defaults")
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		for _, name := range configNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			if err := k.Load(file.Provider(path), parserFor(name)); err != nil {
				return nil, errors.Wrapf(err, errors.ErrConfigLoad, "failed to load config from %s", path)
			}
			break
		}
	}

	// Environment overrides bind last: DIFFTBX_INSTALL__BASE_PACKAGE=dxtbx
	err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
	}), nil)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load environment overrides")
	}

	return k, nil
}

func parserFor(name string) koanf.Parser {
	if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
		return yaml.Parser()
	}
	return toml.Parser()
}

// Load reads the layered configuration into a typed Config
func Load(dirs ...string) (*Config, error) {
	k, err := NewKoanf(dirs...)
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to unmarshal config")
	}

	return &cfg, nil
}

// Default returns the embedded defaults without file or environment layers.
// Falls back to hardcoded values if the embedded file cannot be parsed,
// which should never happen.
func Default() *Config {
	k := koanf.New(".")
	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err == nil {
		var cfg Config
		if err := k.Unmarshal("", &cfg); err == nil {
			return &cfg
		}
	}
	return &Config{
		Install: Install{
			BasePackage:   "dxtbx",
			InstallerName: "difftbx",
			Packages:      []string{"dxtbx@3.15.0", "difftbx@0.1.0"},
		},
		Convert: Convert{BlockSize: 1000, SensorThicknessM: 0.000450, PixelSizeM: 75e-6},
		Scan:    Scan{Ignore: []string{"*.tmp", "*.log", "*~"}},
		Output:  Output{Color: "auto"},
	}
}
