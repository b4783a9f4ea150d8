// Package genconfig implements the genconfig step: render the default
// configuration so users can copy it into a difftbx.toml of their own.
package genconfig

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/arthur-debert/difftbx/pkg/config"
	"github.com/arthur-debert/difftbx/pkg/errors"
	"github.com/arthur-debert/difftbx/pkg/logging"
)

// Formats genconfig can render
const (
	FormatTOML = "toml"
	FormatYAML = "yaml"
)

// Options holds options for the genconfig command
type Options struct {
	// Format selects toml (the default) or yaml output
	Format string

	// Write saves the content to Path instead of only returning it
	Write bool

	// Path is the file to write; empty picks difftbx.<format> in the
	// current directory
	Path string
}

// Result carries the rendered content and any file written
type Result struct {
	ConfigContent string
	FilesWritten  []string
}

// GenConfig renders the default configuration and optionally writes it to
// a file. An existing file is never overwritten.
func GenConfig(opts Options) (*Result, error) {
	logger := logging.GetLogger("commands.genconfig")

	format := opts.Format
	if format == "" {
		format = FormatTOML
	}

	content, err := render(format)
	if err != nil {
		return nil, err
	}

	result := &Result{
		ConfigContent: content,
		FilesWritten:  []string{},
	}

	if !opts.Write {
		logger.Debug().Str("format", format).Msg("Outputting config to stdout")
		return result, nil
	}

	targetPath := opts.Path
	if targetPath == "" {
		targetPath = "difftbx." + format
	}

	if dir := filepath.Dir(targetPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return result, errors.Wrapf(err, errors.ErrFileAccess, "cannot create directory %s", dir)
		}
	}

	if _, err := os.Stat(targetPath); err == nil {
		logger.Warn().Str("path", targetPath).Msg("Config file already exists, skipping")
		return result, nil
	}

	if err := os.WriteFile(targetPath, []byte(content), 0644); err != nil {
		return result, errors.Wrapf(err, errors.ErrFileAccess, "cannot write config to %s", targetPath)
	}

	logger.Info().Str("path", targetPath).Msg("Written config file")
	result.FilesWritten = append(result.FilesWritten, targetPath)
	return result, nil
}

// render returns the defaults in the requested format. TOML output keeps
// the embedded file's comments with every value commented out; YAML is a
// plain dump of the default values.
func render(format string) (string, error) {
	switch format {
	case FormatTOML:
		return config.GenerateConfigContent(), nil
	case FormatYAML:
		out, err := yaml.Marshal(config.Default())
		if err != nil {
			return "", errors.Wrap(err, errors.ErrInternal, "cannot render config as yaml")
		}
		return string(out), nil
	default:
		return "", errors.Newf(errors.ErrInvalidInput, "unknown config format %q (want toml or yaml)", format)
	}
}
