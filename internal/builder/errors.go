package builder

import (
	"errors"
	"fmt"
	"strings"

	"go.trai.ch/zerr"
)

var (
	// ErrUsage is returned for malformed command line arguments
	ErrUsage = zerr.New("invalid usage")

	// ErrNoTargets is returned when a target filter selects nothing
	ErrNoTargets = zerr.New("no targets match")

	// ErrUnknownTarget is returned when a named target is not in the catalog
	ErrUnknownTarget = zerr.New("unknown target")
)

// CompileError is a single compiler process that failed or could not be started
type CompileError struct {
	Target string
	// ExitCode is -1 when the process never started
	ExitCode int
	Err      error
}

func (e *CompileError) Error() string {
	if e.ExitCode < 0 {
		return fmt.Sprintf("target %s: %v", e.Target, e.Err)
	}
	return fmt.Sprintf("target %s: compiler exited with status %d", e.Target, e.ExitCode)
}

func (e *CompileError) Unwrap() error { return e.Err }

// RunError is a built artifact that exited non-zero when run
type RunError struct {
	Artifact string
	ExitCode int
	Err      error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("%s: %v", e.Artifact, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

// BuildError collects every failed target of a run, in build order
type BuildError struct {
	Failures []*CompileError
}

func (e *BuildError) Error() string {
	if len(e.Failures) == 1 {
		return e.Failures[0].Error()
	}
	names := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		names[i] = f.Target
	}
	return fmt.Sprintf("%d targets failed: %s", len(e.Failures), strings.Join(names, ", "))
}

func (e *BuildError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}

// ExitCode is the status of the first failing compiler, or 1 when it has none to give
func (e *BuildError) ExitCode() int {
	if len(e.Failures) == 0 {
		return 0
	}
	if code := e.Failures[0].ExitCode; code > 0 {
		return code
	}
	return 1
}

// ExitCode maps any error returned by the builder to a process exit status
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var buildErr *BuildError
	if errors.As(err, &buildErr) {
		return buildErr.ExitCode()
	}
	var runErr *RunError
	if errors.As(err, &runErr) && runErr.ExitCode > 0 {
		return runErr.ExitCode
	}
	return 1
}
