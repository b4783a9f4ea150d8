// Package executor runs planned operations through synthfs. Dry-run mode
// short-circuits before any pipeline is built, so a dry run can never
// touch the filesystem.
package executor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/arthur-debert/synthfs/pkg/synthfs"
	"github.com/arthur-debert/synthfs/pkg/synthfs/core"
	"github.com/arthur-debert/synthfs/pkg/synthfs/filesystem"
	synthops "github.com/arthur-debert/synthfs/pkg/synthfs/operations"
	"github.com/rs/zerolog"

	"github.com/arthur-debert/difftbx/pkg/errors"
	"github.com/arthur-debert/difftbx/pkg/logging"
	"github.com/arthur-debert/difftbx/pkg/operations"
)

// Options configures an Executor
type Options struct {
	// DryRun logs the plan instead of executing it
	DryRun bool

	// Force removes existing files that would block a write
	Force bool

	// AllowedRoots restricts targets to these directory trees. Empty
	// means no restriction.
	AllowedRoots []string
}

// Executor executes operation plans using synthfs
type Executor struct {
	logger zerolog.Logger
	opts   Options
	fs     synthfs.FileSystem
}

// New creates a synthfs-based executor
func New(opts Options) *Executor {
	return &Executor{
		logger: logging.GetLogger("executor"),
		opts:   opts,
		fs:     filesystem.NewOSFileSystem("/"),
	}
}

// Execute runs the ready operations of the plan. Skipped operations pass
// through untouched. In dry-run mode nothing is executed and every ready
// operation is logged instead.
func (e *Executor) Execute(ctx context.Context, ops []operations.Operation) (*operations.Result, error) {
	result := &operations.Result{DryRun: e.opts.DryRun}

	if e.opts.DryRun {
		e.logger.Info().Msg("Dry run mode - operations would be executed:")
		for _, op := range ops {
			if op.Status == operations.StatusReady {
				e.logOperation(op)
			}
			result.Ops = append(result.Ops, operations.OpResult{Operation: op})
		}
		return result, nil
	}

	if e.opts.Force {
		e.removeBlockingFiles(ops)
	}

	pipeline := synthfs.NewMemPipeline()
	ready := 0
	for _, op := range ops {
		if op.Status != operations.StatusReady {
			e.logger.Debug().
				Str("type", string(op.Type)).
				Str("target", op.Target).
				Str("status", string(op.Status)).
				Msg("Skipping operation with non-ready status")
			continue
		}

		synthOp, err := e.convert(op)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrOpExecute,
				"failed to convert operation: %s", op.Description)
		}
		if err := pipeline.Add(synthOp); err != nil {
			return nil, errors.Wrapf(err, errors.ErrOpExecute,
				"failed to add operation to pipeline: %s", op.Description)
		}
		ready++
	}

	if ready == 0 {
		e.logger.Info().Msg("No operations to execute")
		for _, op := range ops {
			result.Ops = append(result.Ops, operations.OpResult{Operation: op})
		}
		return result, nil
	}

	e.logger.Info().Int("operationCount", ready).Msg("Executing operations")

	run := synthfs.NewExecutor().Run(ctx, pipeline, e.fs)
	runErr := run.GetError()
	if runErr != nil {
		e.logger.Error().Err(runErr).Msg("Pipeline execution failed")
	}

	for _, op := range ops {
		res := operations.OpResult{Operation: op}
		if op.Status == operations.StatusReady {
			if runErr != nil {
				res.Operation.Status = operations.StatusError
				res.Err = runErr
			} else {
				res.Operation.Status = operations.StatusDone
			}
		}
		result.Ops = append(result.Ops, res)
	}

	if runErr != nil {
		return result, errors.Wrap(runErr, errors.ErrOpExecute, "failed to execute operations")
	}

	e.logger.Info().Msg("All operations executed successfully")
	return result, nil
}

// removeBlockingFiles clears existing write targets so the pipeline can
// recreate them. synthfs validation refuses to create over an existing
// file, which is what force mode is for.
func (e *Executor) removeBlockingFiles(ops []operations.Operation) {
	for _, op := range ops {
		if op.Status != operations.StatusReady || op.Type != operations.TypeWriteFile {
			continue
		}
		if _, err := os.Lstat(op.Target); err != nil {
			continue
		}
		e.logger.Debug().
			Str("target", op.Target).
			Msg("Removing existing file to allow overwrite in force mode")
		if err := os.Remove(op.Target); err != nil {
			e.logger.Warn().
				Err(err).
				Str("target", op.Target).
				Msg("Failed to remove existing file in force mode")
		}
	}
}

// convert turns a planned operation into a synthfs operation
func (e *Executor) convert(op operations.Operation) (synthfs.Operation, error) {
	if op.Target == "" {
		return nil, errors.Newf(errors.ErrInvalidInput,
			"%s operation requires a target", op.Type)
	}
	if err := e.validateTarget(op.Target); err != nil {
		return nil, err
	}

	// synthfs paths are relative to the filesystem root
	relPath, err := filepath.Rel("/", op.Target)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrInvalidInput,
			"failed to convert path: %s", op.Target)
	}

	switch op.Type {
	case operations.TypeCreateDir:
		mode := op.Mode
		if mode == 0 {
			mode = 0755
		}
		e.logger.Debug().
			Str("target", op.Target).
			Str("mode", mode.String()).
			Msg("Creating directory operation")

		opID := core.OperationID(fmt.Sprintf("create-dir-%s", op.Target))
		createOp := synthops.NewCreateDirectoryOperation(opID, relPath)
		createOp.SetItem(&directoryItem{path: relPath, mode: mode})
		return synthfs.NewOperationsPackageAdapter(createOp), nil

	case operations.TypeWriteFile:
		mode := op.Mode
		if mode == 0 {
			mode = 0644
		}
		e.logger.Debug().
			Str("target", op.Target).
			Str("mode", mode.String()).
			Int("contentLen", len(op.Content)).
			Msg("Creating write file operation")

		opID := core.OperationID(fmt.Sprintf("write-file-%s", op.Target))
		createOp := synthops.NewCreateFileOperation(opID, relPath)
		createOp.SetItem(&fileItem{path: relPath, content: op.Content, mode: mode})
		return synthfs.NewOperationsPackageAdapter(createOp), nil

	case operations.TypeDeleteFile:
		e.logger.Debug().
			Str("target", op.Target).
			Msg("Creating delete file operation")

		opID := core.OperationID(fmt.Sprintf("delete-%s", op.Target))
		deleteOp := synthops.NewDeleteOperation(opID, relPath)
		return synthfs.NewOperationsPackageAdapter(deleteOp), nil

	default:
		return nil, errors.Newf(errors.ErrOpExecute,
			"unsupported operation type: %s", op.Type)
	}
}

// validateTarget enforces the allowed-roots restriction
func (e *Executor) validateTarget(target string) error {
	if len(e.opts.AllowedRoots) == 0 {
		return nil
	}

	normalized, err := filepath.Abs(target)
	if err != nil {
		return errors.Wrapf(err, errors.ErrInvalidInput,
			"failed to normalize path: %s", target)
	}

	for _, root := range e.opts.AllowedRoots {
		if isPathWithin(normalized, root) {
			return nil
		}
	}

	return errors.Newf(errors.ErrPermission,
		"operation target is outside the allowed directories: %s", target)
}

// isPathWithin checks if a path is within a parent directory
func isPathWithin(path, parent string) bool {
	path = filepath.Clean(path)
	parent = filepath.Clean(parent)

	rel, err := filepath.Rel(parent, path)
	if err != nil {
		return false
	}

	return rel == "." || (!strings.HasPrefix(rel, "..") && !strings.HasPrefix(rel, "/"))
}

// logOperation logs what a dry run would do
func (e *Executor) logOperation(op operations.Operation) {
	logger := e.logger.With().
		Str("type", string(op.Type)).
		Str("description", op.Description).
		Logger()

	switch op.Type {
	case operations.TypeCreateDir:
		logger.Info().
			Str("target", op.Target).
			Msg("Would create directory")
	case operations.TypeWriteFile:
		logger.Info().
			Str("target", op.Target).
			Int("contentLen", len(op.Content)).
			Msg("Would write file")
	case operations.TypeDeleteFile:
		logger.Info().
			Str("target", op.Target).
			Msg("Would delete file")
	default:
		logger.Info().Msg("Would execute operation")
	}
}
