// Package operations defines the filesystem operations difftbx plans
// before executing them. Planning and execution are separate steps so that
// dry-run can show exactly what would happen, and so tests can assert on
// plans without touching the disk.
package operations

import (
	"fmt"
	"io/fs"
)

// Type identifies the kind of filesystem operation
type Type string

const (
	// TypeCreateDir creates a directory and any missing parents
	TypeCreateDir Type = "create_dir"

	// TypeWriteFile writes content to a file
	TypeWriteFile Type = "write_file"

	// TypeDeleteFile deletes a file
	TypeDeleteFile Type = "delete_file"
)

// Status tracks an operation through planning and execution
type Status string

const (
	// StatusReady means the operation is planned and ready to execute
	StatusReady Status = "ready"
	// StatusSkipped means the operation was planned but deliberately not
	// executed, e.g. the legacy install mode skipping the base package
	StatusSkipped Status = "skipped"
	// StatusDone means the operation executed successfully
	StatusDone Status = "done"
	// StatusError means the operation failed
	StatusError Status = "error"
)

// Operation is a single planned filesystem change
type Operation struct {
	// Type is the kind of operation
	Type Type

	// Target is the absolute path the operation acts on
	Target string

	// Content is the file content for write operations
	Content []byte

	// Mode is the permission bits; zero means the default for the type
	Mode fs.FileMode

	// Description is a human-readable summary for display and logs
	Description string

	// Status is the current state of the operation
	Status Status
}

// NewCreateDir returns a ready directory-creation operation
func NewCreateDir(target string) Operation {
	return Operation{
		Type:        TypeCreateDir,
		Target:      target,
		Mode:        0755,
		Description: fmt.Sprintf("create directory %s", target),
		Status:      StatusReady,
	}
}

// NewWriteFile returns a ready file-write operation
func NewWriteFile(target string, content []byte) Operation {
	return Operation{
		Type:        TypeWriteFile,
		Target:      target,
		Content:     content,
		Mode:        0644,
		Description: fmt.Sprintf("write %s", target),
		Status:      StatusReady,
	}
}

// NewDeleteFile returns a ready file-deletion operation
func NewDeleteFile(target string) Operation {
	return Operation{
		Type:        TypeDeleteFile,
		Target:      target,
		Description: fmt.Sprintf("delete %s", target),
		Status:      StatusReady,
	}
}

// Skip marks the operation as skipped with a reason appended to the
// description
func (o Operation) Skip(reason string) Operation {
	o.Status = StatusSkipped
	o.Description = fmt.Sprintf("%s (%s)", o.Description, reason)
	return o
}

// OpResult records the outcome of a single executed operation
type OpResult struct {
	Operation Operation
	Err       error
}

// Result aggregates the outcome of executing a plan
type Result struct {
	// DryRun reports whether execution was simulated
	DryRun bool

	// Ops holds one entry per planned operation, in plan order
	Ops []OpResult
}

// Counts returns how many operations are done, skipped and failed
func (r *Result) Counts() (done, skipped, failed int) {
	for _, op := range r.Ops {
		switch op.Operation.Status {
		case StatusDone:
			done++
		case StatusSkipped:
			skipped++
		case StatusError:
			failed++
		}
	}
	return done, skipped, failed
}

// Failed reports whether any operation errored
func (r *Result) Failed() bool {
	_, _, failed := r.Counts()
	return failed > 0
}
