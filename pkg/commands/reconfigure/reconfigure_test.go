package reconfigure

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/difftbx/pkg/config"
	"github.com/arthur-debert/difftbx/pkg/errors"
	"github.com/arthur-debert/difftbx/pkg/install"
	"github.com/arthur-debert/difftbx/pkg/operations"
	"github.com/arthur-debert/difftbx/pkg/testutil"
)

// unsetEnv clears key for the test while keeping t.Setenv's cleanup
func unsetEnv(t *testing.T, key string) {
	t.Helper()
	t.Setenv(key, "")
	if err := os.Unsetenv(key); err != nil {
		t.Fatalf("failed to unset %s: %v", key, err)
	}
}

func TestReconfigure(t *testing.T) {
	t.Run("standard mode writes every record", func(t *testing.T) {
		unsetEnv(t, install.EnvInstallPackageBase)
		buildDir := testutil.TempDir(t)
		testutil.Touch(t, buildDir, install.MarkerName)

		result, err := Reconfigure(context.Background(), config.Default(), Options{
			BuildDir: buildDir,
			Specs:    []string{"dxtbx@3.15.0", "difftbx-data@0.2.1"},
		})
		require.NoError(t, err)

		assert.Equal(t, install.ModeStandard, result.Mode)
		assert.Equal(t, install.SourceMarker, result.Source)
		assert.Len(t, result.Packages, 2)

		done, skipped, failed := result.Ops.Counts()
		assert.Equal(t, 8, done)
		assert.Equal(t, 0, skipped)
		assert.Equal(t, 0, failed)

		siteDir := filepath.Join(buildDir, "lib", "site-packages")
		metaPath := filepath.Join(siteDir, "dxtbx-3.15.0.dist-info", "METADATA")
		require.True(t, testutil.FileExists(t, metaPath))
		content := testutil.ReadFile(t, metaPath)
		assert.Contains(t, content, "Name: dxtbx\n")
		assert.Contains(t, content, "Version: 3.15.0\n")

		installerPath := filepath.Join(siteDir, "difftbx-data-0.2.1.dist-info", "INSTALLER")
		assert.Equal(t, "difftbx\n", testutil.ReadFile(t, installerPath))
	})

	t.Run("legacy mode skips the base package only", func(t *testing.T) {
		unsetEnv(t, install.EnvInstallPackageBase)
		buildDir := testutil.TempDir(t)

		result, err := Reconfigure(context.Background(), config.Default(), Options{
			BuildDir: buildDir,
			Specs:    []string{"dxtbx@3.15.0", "difftbx-data@0.2.1"},
		})
		require.NoError(t, err)

		assert.Equal(t, install.ModeLegacy, result.Mode)
		assert.Equal(t, install.SourceDefault, result.Source)

		done, skipped, failed := result.Ops.Counts()
		assert.Equal(t, 4, done)
		assert.Equal(t, 4, skipped)
		assert.Equal(t, 0, failed)

		siteDir := filepath.Join(buildDir, "lib", "site-packages")
		assert.False(t, testutil.DirExists(t, filepath.Join(siteDir, "dxtbx-3.15.0.dist-info")))
		assert.True(t, testutil.DirExists(t, filepath.Join(siteDir, "difftbx-data-0.2.1.dist-info")))
	})

	t.Run("environment variable forces standard mode", func(t *testing.T) {
		t.Setenv(install.EnvInstallPackageBase, "")
		buildDir := testutil.TempDir(t)

		result, err := Reconfigure(context.Background(), config.Default(), Options{
			BuildDir: buildDir,
			Specs:    []string{"dxtbx@3.15.0"},
		})
		require.NoError(t, err)

		assert.Equal(t, install.ModeStandard, result.Mode)
		assert.Equal(t, install.SourceEnv, result.Source)
		assert.True(t, testutil.FileExists(t,
			filepath.Join(buildDir, "lib", "site-packages", "dxtbx-3.15.0.dist-info", "METADATA")))
	})

	t.Run("dry run touches nothing", func(t *testing.T) {
		unsetEnv(t, install.EnvInstallPackageBase)
		buildDir := testutil.TempDir(t)
		testutil.Touch(t, buildDir, install.MarkerName)

		result, err := Reconfigure(context.Background(), config.Default(), Options{
			BuildDir: buildDir,
			Specs:    []string{"dxtbx@3.15.0"},
			DryRun:   true,
		})
		require.NoError(t, err)

		assert.True(t, result.Ops.DryRun)
		assert.False(t, testutil.DirExists(t, filepath.Join(buildDir, "lib", "site-packages")))
	})

	t.Run("empty specs fall back to the configured set", func(t *testing.T) {
		unsetEnv(t, install.EnvInstallPackageBase)
		buildDir := testutil.TempDir(t)
		testutil.Touch(t, buildDir, install.MarkerName)

		cfg := config.Default()
		cfg.Install.Packages = []string{"dxtbx@3.15.0"}

		result, err := Reconfigure(context.Background(), cfg, Options{BuildDir: buildDir})
		require.NoError(t, err)
		require.Len(t, result.Packages, 1)
		assert.Equal(t, "dxtbx", result.Packages[0].Name)
	})

	t.Run("site dir option wins over config", func(t *testing.T) {
		unsetEnv(t, install.EnvInstallPackageBase)
		buildDir := testutil.TempDir(t)
		siteDir := testutil.TempDir(t)
		testutil.Touch(t, buildDir, install.MarkerName)

		cfg := config.Default()
		cfg.Install.SiteDir = filepath.Join(buildDir, "ignored")

		result, err := Reconfigure(context.Background(), cfg, Options{
			BuildDir: buildDir,
			SiteDir:  siteDir,
			Specs:    []string{"dxtbx@3.15.0"},
		})
		require.NoError(t, err)
		assert.Equal(t, siteDir, result.SiteDir)
		assert.True(t, testutil.DirExists(t, filepath.Join(siteDir, "dxtbx-3.15.0.dist-info")))
		assert.False(t, testutil.DirExists(t, cfg.Install.SiteDir))
	})
}

func TestReconfigureErrors(t *testing.T) {
	t.Run("empty build dir", func(t *testing.T) {
		_, err := Reconfigure(context.Background(), config.Default(), Options{})
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
	})

	t.Run("malformed spec", func(t *testing.T) {
		buildDir := testutil.TempDir(t)
		_, err := Reconfigure(context.Background(), config.Default(), Options{
			BuildDir: buildDir,
			Specs:    []string{"no-version"},
		})
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
	})

	t.Run("invalid version fails validation", func(t *testing.T) {
		buildDir := testutil.TempDir(t)
		_, err := Reconfigure(context.Background(), config.Default(), Options{
			BuildDir: buildDir,
			Specs:    []string{"dxtbx@not-semver"},
		})
		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrMetaInvalid))
	})
}

func TestReconfigureForce(t *testing.T) {
	unsetEnv(t, install.EnvInstallPackageBase)
	buildDir := testutil.TempDir(t)
	testutil.Touch(t, buildDir, install.MarkerName)

	opts := Options{BuildDir: buildDir, Specs: []string{"dxtbx@3.15.0"}}

	_, err := Reconfigure(context.Background(), config.Default(), opts)
	require.NoError(t, err)

	// A second run without force fails on the existing record files
	result, err := Reconfigure(context.Background(), config.Default(), opts)
	require.Error(t, err)
	if result != nil && result.Ops != nil {
		assert.True(t, result.Ops.Failed())
	}

	// With force the records are rewritten
	opts.Force = true
	result, err = Reconfigure(context.Background(), config.Default(), opts)
	require.NoError(t, err)
	done, _, failed := result.Ops.Counts()
	assert.Equal(t, 4, done)
	assert.Equal(t, 0, failed)
}

func TestReconfigureReusesPlanOrder(t *testing.T) {
	unsetEnv(t, install.EnvInstallPackageBase)
	buildDir := testutil.TempDir(t)
	testutil.Touch(t, buildDir, install.MarkerName)

	result, err := Reconfigure(context.Background(), config.Default(), Options{
		BuildDir: buildDir,
		Specs:    []string{"dxtbx@3.15.0", "difftbx-data@0.2.1"},
	})
	require.NoError(t, err)
	require.Len(t, result.Ops.Ops, 8)

	// Operations come back in package order: dxtbx's record first
	first := result.Ops.Ops[0].Operation
	assert.Equal(t, operations.TypeCreateDir, first.Type)
	assert.Contains(t, first.Target, "dxtbx-3.15.0.dist-info")
}
