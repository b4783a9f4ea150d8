package install

import (
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/arthur-debert/difftbx/pkg/errors"
	"github.com/arthur-debert/difftbx/pkg/logging"
	"github.com/arthur-debert/difftbx/pkg/operations"
)

// File names inside a dist-info record
const (
	metadataName  = "METADATA"
	installerName = "INSTALLER"
	recordName    = "RECORD"
)

func logger() zerolog.Logger {
	return logging.GetLogger("install")
}

// Installer plans the metadata records a reconfigure step writes. The mode
// is evaluated once by the caller and threaded through; the installer
// never re-reads the environment.
type Installer struct {
	mode        Mode
	siteDir     string
	basePackage string
	installer   string
}

// NewInstaller creates an installer writing records under siteDir. In
// legacy mode the package named basePackage keeps its environment-provided
// record instead of getting a second copy. installer is the tool name
// recorded in each INSTALLER file.
func NewInstaller(mode Mode, siteDir, basePackage, installer string) *Installer {
	return &Installer{
		mode:        mode,
		siteDir:     siteDir,
		basePackage: basePackage,
		installer:   installer,
	}
}

// Mode returns the mode the installer was created with
func (ins *Installer) Mode() Mode {
	return ins.mode
}

// Plan produces the filesystem operations for the given packages, in
// input order. In legacy mode the base package's operations are included
// but marked skipped, so a plan rendering still shows them.
func (ins *Installer) Plan(pkgs []PackageMeta) ([]operations.Operation, error) {
	log := logger()

	if ins.siteDir == "" {
		return nil, errors.New(errors.ErrInvalidInput, "site directory cannot be empty")
	}

	var ops []operations.Operation
	for _, pkg := range pkgs {
		if err := pkg.Validate(); err != nil {
			return nil, err
		}

		skip := ins.mode == ModeLegacy && pkg.Name == ins.basePackage
		if skip {
			log.Info().
				Str("package", pkg.Name).
				Str("mode", ins.mode.String()).
				Msg("Base package keeps its existing metadata record")
		} else {
			log.Debug().
				Str("package", pkg.Name).
				Str("version", pkg.Version).
				Msg("Planning metadata record")
		}

		for _, op := range ins.recordOps(pkg) {
			if skip {
				op = op.Skip("base package provided by the environment")
			}
			ops = append(ops, op)
		}
	}
	return ops, nil
}

// recordOps returns the operations that write one package's record
func (ins *Installer) recordOps(pkg PackageMeta) []operations.Operation {
	dir := filepath.Join(ins.siteDir, pkg.RecordDirName())
	metadata := []byte(pkg.metadataFile())
	installerBody := []byte(ins.installer + "\n")
	record := renderRecord(pkg.RecordDirName(), []recordEntry{
		{metadataName, metadata},
		{installerName, installerBody},
	})
	return []operations.Operation{
		operations.NewCreateDir(dir),
		operations.NewWriteFile(filepath.Join(dir, metadataName), metadata),
		operations.NewWriteFile(filepath.Join(dir, installerName), installerBody),
		operations.NewWriteFile(filepath.Join(dir, recordName), []byte(record)),
	}
}
