// cxxlaunch [debug]
package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/qobs-build/cxxlaunch/internal/builder"
	"github.com/qobs-build/cxxlaunch/internal/msg"
	"github.com/spf13/cobra"
)

// DebugToggle is the only positional argument the launcher accepts
const DebugToggle = "debug"

const (
	driverAuto = "auto"
	driverMSVC = "msvc"
	driverUnix = "unix"
)

type runnerFactory func(dir string, env map[string]string, stdout, stderr io.Writer) builder.Runner

func execRunnerFactory(dir string, env map[string]string, stdout, stderr io.Writer) builder.Runner {
	r := builder.NewExecRunner(dir, env)
	r.Stdout, r.Stderr = stdout, stderr
	return r
}

// launcher holds the flag state of one command tree
type launcher struct {
	stdout, stderr io.Writer
	newRunner      runnerFactory
	hostPlatform   func() string

	flagDriver    EnumValue
	flagFormat    EnumValue
	flagDryRun    bool
	flagKeepGoing bool
	flagQuiet     bool
	flagDir       string
	flagOnly      []string
}

func newLauncher(stdout, stderr io.Writer, newRunner runnerFactory) *launcher {
	return &launcher{
		stdout:       stdout,
		stderr:       stderr,
		newRunner:    newRunner,
		hostPlatform: builder.HostPlatform,
		flagDriver: NewEnumValue(driverAuto, map[string]string{
			driverAuto: "Pick the compiler driver from the host platform (default)",
			driverMSVC: "Windows-native cl driver",
			driverUnix: "Unix-style c++ driver",
		}),
		flagFormat: NewEnumValue(builder.FormatText, map[string]string{
			builder.FormatText: "One command line per target (default)",
			builder.FormatJSON: "Compilation database style JSON",
			builder.FormatTOML: "TOML with one [[invocation]] per target",
		}),
	}
}

// parseOptions resolves the debug toggle from the positional arguments
func parseOptions(args []string) (builder.Options, error) {
	switch {
	case len(args) == 0:
		return builder.Options{}, nil
	case len(args) == 1 && args[0] == DebugToggle:
		return builder.Options{Debug: true}, nil
	default:
		return builder.Options{}, fmt.Errorf("%w: unexpected arguments %q, expected nothing or %q", builder.ErrUsage, args, DebugToggle)
	}
}

func toggleArgs(cmd *cobra.Command, args []string) error {
	_, err := parseOptions(args)
	return err
}

func (l *launcher) selectDriver() builder.Driver {
	switch l.flagDriver.Value() {
	case driverMSVC:
		return builder.NewDriver(builder.DriverMSVC)
	case driverUnix:
		return builder.NewDriver(builder.DriverUnix)
	}

	platform := l.hostPlatform()
	if !builder.IsKnownPlatform(platform) {
		msg.Warn("unrecognized platform %q, assuming a Unix-style compiler driver", platform)
	}
	return builder.DriverForPlatform(platform)
}

// newBuilder loads Launch.toml, applies flag overrides and wires the runner
func (l *launcher) newBuilder(cmd *cobra.Command, opts builder.Options, dryRun bool) (*builder.Builder, string, error) {
	baseDir := l.flagDir
	if baseDir == "" {
		baseDir = "."
	}

	settings, err := builder.LoadSettings(baseDir, builder.NewConfigEnv())
	if err != nil {
		return nil, "", err
	}

	if f := cmd.Flags().Lookup("keep-going"); f != nil && f.Changed {
		settings.Launch.KeepGoing = &l.flagKeepGoing
	}

	workDir := baseDir
	if settings.Launch.Dir != "" {
		if filepath.IsAbs(settings.Launch.Dir) {
			workDir = settings.Launch.Dir
		} else {
			workDir = filepath.Join(baseDir, settings.Launch.Dir)
		}
	}

	driver := l.selectDriver()

	var runner builder.Runner
	if dryRun {
		runner = builder.DryRunner{W: l.stdout}
	} else {
		if _, err := builder.LocateCompiler(driver); err != nil {
			msg.Warn("compiler %q not found in PATH", driver.Program())
		}
		stdout, stderr := builder.OutputWriters(settings, l.stdout, l.stderr)
		runner = l.newRunner(workDir, settings.Env, stdout, stderr)
	}

	b := builder.NewBuilder(driver, opts, runner, settings)
	b.SetQuiet(l.flagQuiet || dryRun)
	return b, workDir, nil
}

func (l *launcher) doBuild(cmd *cobra.Command, args []string) error {
	opts, err := parseOptions(args)
	if err != nil {
		return err
	}

	all := builder.DefaultTargets()
	targets, err := builder.SelectTargets(all, l.flagOnly)
	if err != nil {
		return err
	}
	if len(targets) < len(all) && !l.flagQuiet {
		msg.Info("building %d of %d targets", len(targets), len(all))
	}

	b, _, err := l.newBuilder(cmd, opts, l.flagDryRun)
	if err != nil {
		return err
	}
	return b.Build(targets)
}

func (l *launcher) newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cxxlaunch [debug]",
		Short: "Build the C++ tools with the platform's native compiler",
		Long: `Build every configured target with the platform's native C++ compiler
(cl on Windows, c++ everywhere else). Pass "debug" to generate debug symbols.`,
		Args:          toggleArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          l.doBuild,
	}
	rootCmd.SetOut(l.stdout)
	rootCmd.SetErr(l.stderr)
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fmt.Errorf("%w: %v", builder.ErrUsage, err)
	})

	pf := rootCmd.PersistentFlags()
	pf.VarP(&l.flagDriver, "driver", "d", "Compiler driver, one of "+l.flagDriver.HelpString())
	rootCmd.RegisterFlagCompletionFunc("driver", l.flagDriver.CompletionFunc())
	pf.StringVarP(&l.flagDir, "dir", "C", "", "Directory to build in (also where Launch.toml is read from)")
	pf.StringSliceVar(&l.flagOnly, "only", nil, "Only build targets matching this glob (repeatable)")
	pf.BoolVarP(&l.flagQuiet, "quiet", "q", false, "Don't print status lines")

	rootCmd.Flags().BoolVarP(&l.flagDryRun, "dry-run", "n", false, "Print the compiler commands instead of running them")
	rootCmd.Flags().BoolVarP(&l.flagKeepGoing, "keep-going", "k", true, "Keep building after a target fails")

	rootCmd.AddCommand(l.newTargetsCmd())
	rootCmd.AddCommand(l.newPlanCmd())
	rootCmd.AddCommand(l.newRunCmd())
	return rootCmd
}

// run executes the command tree and returns the process exit status
func run(args []string, stdout, stderr io.Writer, newRunner runnerFactory) int {
	l := newLauncher(stdout, stderr, newRunner)
	rootCmd := l.newRootCmd()
	rootCmd.SetArgs(args)

	cmd, err := rootCmd.ExecuteC()
	if err == nil {
		return 0
	}

	if errors.Is(err, builder.ErrUsage) {
		fmt.Fprintf(stdout, "%v\n\n", err)
		fmt.Fprint(stdout, cmd.UsageString())
		return 1
	}

	// failed targets were already reported as they happened
	var buildErr *builder.BuildError
	if !errors.As(err, &buildErr) {
		msg.Error("%v", err)
	}
	return builder.ExitCode(err)
}

func Execute() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr, execRunnerFactory))
}
