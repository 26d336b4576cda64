package builder

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/qobs-build/cxxlaunch/internal/msg"
)

// Builder runs one compiler invocation per target, strictly in order
type Builder struct {
	driver   Driver
	opts     Options
	runner   Runner
	settings *Settings
	quiet    bool
}

func NewBuilder(driver Driver, opts Options, runner Runner, settings *Settings) *Builder {
	if settings == nil {
		settings = &Settings{}
	}
	return &Builder{
		driver:   driver,
		opts:     opts,
		runner:   runner,
		settings: settings,
	}
}

// SetQuiet suppresses the per-target status lines
func (b *Builder) SetQuiet(quiet bool) { b.quiet = quiet }

func (b *Builder) Driver() Driver   { return b.driver }
func (b *Builder) Options() Options { return b.opts }

// Plan assembles the invocations for targets without running them
func (b *Builder) Plan(targets []Target) []Invocation {
	invs := make([]Invocation, len(targets))
	for i, t := range targets {
		invs[i] = b.driver.Invocation(t, b.opts)
	}
	return invs
}

// Build compiles every target in declaration order and returns all failures as one *BuildError
func (b *Builder) Build(targets []Target) error {
	var failures []*CompileError

	for i, t := range targets {
		inv := b.driver.Invocation(t, b.opts)

		if !b.quiet {
			msg.Step("Compiling", fmt.Sprintf("%s [%d/%d]", b.driver.Artifact(t.Name), i+1, len(targets)))
			if b.settings.Echo() {
				msg.Command(inv.String())
			}
		}

		if err := b.runner.Run(inv); err != nil {
			cerr := newCompileError(t.Name, err)
			failures = append(failures, cerr)
			msg.Error("%v", cerr)
			if !b.settings.KeepGoing() {
				break
			}
		}
	}

	if len(failures) > 0 {
		return &BuildError{Failures: failures}
	}

	if !b.quiet {
		msg.Step("Finished", fmt.Sprintf("%d target(s), debug=%t", len(targets), b.opts.Debug))
	}
	return nil
}

// BuildAndRun builds a single target and then executes its artifact from dir
func (b *Builder) BuildAndRun(t Target, dir string, args []string) error {
	if err := b.Build([]Target{t}); err != nil {
		return err
	}

	artifact, err := filepath.Abs(filepath.Join(dir, b.driver.Artifact(t.Name)))
	if err != nil {
		return err
	}

	if !b.quiet {
		msg.Step("Running", artifact)
	}

	cmd := exec.Command(artifact, args...)
	cmd.Dir = dir
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	if err := cmd.Run(); err != nil {
		return &RunError{Artifact: artifact, ExitCode: exitStatus(err), Err: err}
	}
	return nil
}

// OutputWriters returns the writers compiler output should go to
func OutputWriters(s *Settings, stdout, stderr io.Writer) (io.Writer, io.Writer) {
	if s != nil && s.IndentOutput() {
		return &msg.IndentWriter{Indent: "    ", W: stdout}, &msg.IndentWriter{Indent: "    ", W: stderr}
	}
	return stdout, stderr
}
