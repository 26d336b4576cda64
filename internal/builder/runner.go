package builder

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"

	"go.trai.ch/zerr"
)

// Runner executes one compiler invocation and waits for it to finish
type Runner interface {
	Run(inv Invocation) error
}

// ExecRunner spawns invocations as child processes
type ExecRunner struct {
	Dir    string
	Env    map[string]string
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewExecRunner creates a runner that forwards the child's output to ours
func NewExecRunner(dir string, env map[string]string) *ExecRunner {
	return &ExecRunner{
		Dir:    dir,
		Env:    env,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
}

func (r *ExecRunner) Run(inv Invocation) error {
	if len(inv) == 0 {
		return errors.New("empty invocation")
	}

	cmd := exec.Command(inv.Program(), inv.Args()...)
	cmd.Dir = r.Dir
	cmd.Stdin = r.Stdin
	cmd.Stdout = r.Stdout
	cmd.Stderr = r.Stderr
	if len(r.Env) > 0 {
		cmd.Env = os.Environ()
		for k, v := range r.Env {
			cmd.Env = append(cmd.Env, k+"="+v)
		}
	}

	err := cmd.Run()
	var exitErr *exec.ExitError
	if err != nil && !errors.As(err, &exitErr) {
		return zerr.With(zerr.Wrap(err, "failed to start compiler"), "program", inv.Program())
	}
	return err
}

// DryRunner only prints what would be executed
type DryRunner struct {
	W io.Writer
}

func (r DryRunner) Run(inv Invocation) error {
	_, err := fmt.Fprintln(r.W, inv.String())
	return err
}

// exitStatus extracts the child's exit code, or -1 when it never ran
func exitStatus(err error) int {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

func newCompileError(target string, err error) *CompileError {
	return &CompileError{
		Target:   target,
		ExitCode: exitStatus(err),
		Err:      err,
	}
}
