package install_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/difftbx/pkg/errors"
	"github.com/arthur-debert/difftbx/pkg/install"
	"github.com/arthur-debert/difftbx/pkg/operations"
)

func testPackages() []install.PackageMeta {
	return []install.PackageMeta{
		{
			Name:     "dxtbx",
			Version:  "3.15.0",
			Summary:  "Diffraction experiment toolbox",
			Homepage: "https://github.com/cctbx/dxtbx",
		},
		{
			Name:     "difftbx-data",
			Version:  "0.2.1",
			Requires: []string{"dxtbx"},
		},
	}
}

func TestPlanStandardMode(t *testing.T) {
	ins := install.NewInstaller(install.ModeStandard, "/site", "dxtbx", "difftbx")

	ops, err := ins.Plan(testPackages())
	require.NoError(t, err)

	// Four operations per package: the dist-info dir plus three files
	require.Len(t, ops, 8)
	for _, op := range ops {
		assert.Equal(t, operations.StatusReady, op.Status, op.Description)
	}

	distInfo := filepath.Join("/site", "dxtbx-3.15.0.dist-info")
	assert.Equal(t, operations.TypeCreateDir, ops[0].Type)
	assert.Equal(t, distInfo, ops[0].Target)

	assert.Equal(t, operations.TypeWriteFile, ops[1].Type)
	assert.Equal(t, filepath.Join(distInfo, "METADATA"), ops[1].Target)
	assert.Equal(t,
		"Metadata-Version: 2.1\n"+
			"Name: dxtbx\n"+
			"Version: 3.15.0\n"+
			"Summary: Diffraction experiment toolbox\n"+
			"Home-page: https://github.com/cctbx/dxtbx\n",
		string(ops[1].Content))

	assert.Equal(t, filepath.Join(distInfo, "INSTALLER"), ops[2].Target)
	assert.Equal(t, "difftbx\n", string(ops[2].Content))

	assert.Equal(t, filepath.Join(distInfo, "RECORD"), ops[3].Target)
	assert.Equal(t,
		"dxtbx-3.15.0.dist-info/METADATA,sha256=qg_wAy9kgNZXtqA2aFEFQJIDaRcXZxJpWXRUsXchYnU,132\n"+
			"dxtbx-3.15.0.dist-info/INSTALLER,sha256=GZ-krK8mu-KpD4c8i8gr5u2Kr-wyLj-q-8kF40U509A,8\n"+
			"dxtbx-3.15.0.dist-info/RECORD,,\n",
		string(ops[3].Content))

	// Second package carries its dependency list
	assert.Contains(t, string(ops[5].Content), "Requires-Dist: dxtbx\n")
}

func TestPlanLegacyModeSkipsBasePackage(t *testing.T) {
	ins := install.NewInstaller(install.ModeLegacy, "/site", "dxtbx", "difftbx")

	ops, err := ins.Plan(testPackages())
	require.NoError(t, err)
	require.Len(t, ops, 8)

	// The base package's four operations are planned but skipped
	for _, op := range ops[:4] {
		assert.Equal(t, operations.StatusSkipped, op.Status, op.Description)
		assert.Contains(t, op.Description, "base package provided by the environment")
	}

	// Other packages are untouched by legacy mode
	for _, op := range ops[4:] {
		assert.Equal(t, operations.StatusReady, op.Status, op.Description)
	}
}

func TestPlanLegacyModeNonBasePackagesOnly(t *testing.T) {
	ins := install.NewInstaller(install.ModeLegacy, "/site", "dxtbx", "difftbx")

	ops, err := ins.Plan([]install.PackageMeta{
		{Name: "difftbx-data", Version: "0.2.1"},
	})
	require.NoError(t, err)
	require.Len(t, ops, 4)
	for _, op := range ops {
		assert.Equal(t, operations.StatusReady, op.Status)
	}
}

func TestPlanInvalidPackage(t *testing.T) {
	ins := install.NewInstaller(install.ModeStandard, "/site", "dxtbx", "difftbx")

	_, err := ins.Plan([]install.PackageMeta{
		{Name: "dxtbx", Version: "oops"},
	})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrMetaInvalid))
}

func TestPlanEmptySiteDir(t *testing.T) {
	ins := install.NewInstaller(install.ModeStandard, "", "dxtbx", "difftbx")

	_, err := ins.Plan(testPackages())
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestPlanEmptyPackageList(t *testing.T) {
	ins := install.NewInstaller(install.ModeStandard, "/site", "dxtbx", "difftbx")

	ops, err := ins.Plan(nil)
	require.NoError(t, err)
	assert.Empty(t, ops)
}
