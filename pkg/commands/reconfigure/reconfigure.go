// Package reconfigure implements the reconfigure step: evaluate the
// install mode once, plan the package metadata records it calls for, and
// execute the plan.
package reconfigure

import (
	"context"
	"path/filepath"

	"github.com/arthur-debert/difftbx/pkg/config"
	"github.com/arthur-debert/difftbx/pkg/errors"
	"github.com/arthur-debert/difftbx/pkg/executor"
	"github.com/arthur-debert/difftbx/pkg/install"
	"github.com/arthur-debert/difftbx/pkg/logging"
	"github.com/arthur-debert/difftbx/pkg/operations"
)

// Options defines the options for the Reconfigure command
type Options struct {
	// BuildDir is the build directory checked for the marker file
	BuildDir string
	// SiteDir is the metadata destination. Empty falls back to the
	// configured site_dir, then to <build>/lib/site-packages.
	SiteDir string
	// Specs is the name@version package set. Empty uses the configured
	// default set.
	Specs []string
	// DryRun plans without writing anything
	DryRun bool
	// Force overwrites metadata files that already exist
	Force bool
}

// Result carries the mode decision and the executed plan
type Result struct {
	Mode     install.Mode
	Source   install.Source
	SiteDir  string
	Packages []install.PackageMeta
	Ops      *operations.Result
}

// Reconfigure evaluates the install mode and (re)writes package metadata
// records. The mode is read exactly once, before any planning.
func Reconfigure(ctx context.Context, cfg *config.Config, opts Options) (*Result, error) {
	logger := logging.GetLogger("commands.reconfigure")

	if opts.BuildDir == "" {
		return nil, errors.New(errors.ErrInvalidInput, "build directory cannot be empty")
	}

	siteDir := opts.SiteDir
	if siteDir == "" {
		siteDir = cfg.Install.SiteDir
	}
	if siteDir == "" {
		siteDir = filepath.Join(opts.BuildDir, "lib", "site-packages")
	}
	// Plan targets and the executor's allowed-roots check both need
	// absolute paths.
	siteDir, err := filepath.Abs(siteDir)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrFileAccess, "cannot resolve site directory %s", siteDir)
	}

	specs := opts.Specs
	if len(specs) == 0 {
		specs = cfg.Install.Packages
	}
	pkgs, err := install.ParseSpecs(specs)
	if err != nil {
		return nil, err
	}

	mode, source := install.Detect(opts.BuildDir)
	logger.Info().
		Str("mode", mode.String()).
		Str("source", string(source)).
		Str("siteDir", siteDir).
		Int("packages", len(pkgs)).
		Msg("Install mode selected")

	ins := install.NewInstaller(mode, siteDir, cfg.Install.BasePackage, cfg.Install.InstallerName)
	ops, err := ins.Plan(pkgs)
	if err != nil {
		return nil, err
	}

	exec := executor.New(executor.Options{
		DryRun:       opts.DryRun,
		Force:        opts.Force,
		AllowedRoots: []string{siteDir},
	})
	opsResult, execErr := exec.Execute(ctx, ops)

	result := &Result{
		Mode:     mode,
		Source:   source,
		SiteDir:  siteDir,
		Packages: pkgs,
		Ops:      opsResult,
	}
	if execErr != nil {
		return result, execErr
	}

	logger.Info().
		Str("mode", mode.String()).
		Bool("dryRun", opts.DryRun).
		Msg("Reconfigure completed")
	return result, nil
}
