package genconfig

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/difftbx/pkg/config"
	"github.com/arthur-debert/difftbx/pkg/errors"
	"github.com/arthur-debert/difftbx/pkg/testutil"
)

func TestGenConfig(t *testing.T) {
	t.Run("toml to stdout", func(t *testing.T) {
		result, err := GenConfig(Options{})

		require.NoError(t, err)
		assert.NotEmpty(t, result.ConfigContent)
		assert.Contains(t, result.ConfigContent, "[install]")
		assert.Contains(t, result.ConfigContent, "[convert]")
		assert.Contains(t, result.ConfigContent, "[scan]")
		assert.Contains(t, result.ConfigContent, "[output]")
		assert.Empty(t, result.FilesWritten)

		// Every value line must be commented out
		lines := strings.Split(result.ConfigContent, "\n")
		for _, line := range lines {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(trimmed, "#") ||
				(strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]")) {
				continue
			}
			assert.Fail(t, "Found uncommented configuration line", "Line: %s", line)
		}

		assert.Contains(t, result.ConfigContent, "# base_package = \"dxtbx\"")
		assert.Contains(t, result.ConfigContent, "# block_size = 1000")
		assert.Contains(t, result.ConfigContent, "# ignore = [")

		// File-level comments survive
		assert.Contains(t, result.ConfigContent, "# difftbx built-in defaults")
	})

	t.Run("yaml to stdout", func(t *testing.T) {
		result, err := GenConfig(Options{Format: FormatYAML})

		require.NoError(t, err)
		assert.Contains(t, result.ConfigContent, "install:")
		assert.Contains(t, result.ConfigContent, "base_package: dxtbx")
		assert.Contains(t, result.ConfigContent, "block_size: 1000")
		assert.Contains(t, result.ConfigContent, "follow_symlinks: false")
		assert.Empty(t, result.FilesWritten)
	})

	t.Run("write to file", func(t *testing.T) {
		dir := testutil.TempDir(t)
		path := filepath.Join(dir, "difftbx.toml")

		result, err := GenConfig(Options{Write: true, Path: path})

		require.NoError(t, err)
		assert.Equal(t, []string{path}, result.FilesWritten)
		content := testutil.ReadFile(t, path)
		assert.Contains(t, content, "[install]")
	})

	t.Run("write creates parent directories", func(t *testing.T) {
		dir := testutil.TempDir(t)
		path := filepath.Join(dir, "nested", "conf", "difftbx.toml")

		result, err := GenConfig(Options{Write: true, Path: path})

		require.NoError(t, err)
		assert.Equal(t, []string{path}, result.FilesWritten)
		testutil.FileExists(t, path)
	})

	t.Run("write never overwrites", func(t *testing.T) {
		dir := testutil.TempDir(t)
		path := testutil.CreateFile(t, dir, "difftbx.toml", "# mine\n")

		result, err := GenConfig(Options{Write: true, Path: path})

		require.NoError(t, err)
		assert.Empty(t, result.FilesWritten)
		assert.Equal(t, "# mine\n", testutil.ReadFile(t, path))
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := GenConfig(Options{Format: "ini"})

		require.Error(t, err)
		assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
	})
}

func TestGenConfigYAMLRoundTrip(t *testing.T) {
	// A yaml file straight out of genconfig must load back with the same
	// values, so the yaml tags and the koanf tags cannot drift apart
	dir := testutil.TempDir(t)
	result, err := GenConfig(Options{
		Format: FormatYAML,
		Write:  true,
		Path:   filepath.Join(dir, "difftbx.yaml"),
	})
	require.NoError(t, err)
	require.Len(t, result.FilesWritten, 1)

	cfg, err := config.Load(dir)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}
