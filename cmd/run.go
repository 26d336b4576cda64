// cxxlaunch run <target> [debug] [-- args...]
package cmd

import (
	"fmt"

	"github.com/qobs-build/cxxlaunch/internal/builder"
	"github.com/spf13/cobra"
)

// splitRunArgs separates "<target> [debug]" from the arguments after "--"
func splitRunArgs(cmd *cobra.Command, args []string) (string, builder.Options, []string, error) {
	if cmd.Flags().Changed("only") {
		return "", builder.Options{}, nil, fmt.Errorf("%w: --only does not apply to run, name the target instead", builder.ErrUsage)
	}

	own, rest := args, []string(nil)
	if dash := cmd.ArgsLenAtDash(); dash >= 0 {
		own, rest = args[:dash], args[dash:]
	}
	if len(own) == 0 {
		return "", builder.Options{}, nil, fmt.Errorf("%w: missing target name", builder.ErrUsage)
	}
	opts, err := parseOptions(own[1:])
	if err != nil {
		return "", builder.Options{}, nil, err
	}
	return own[0], opts, rest, nil
}

func (l *launcher) doRun(cmd *cobra.Command, args []string) error {
	name, opts, programArgs, err := splitRunArgs(cmd, args)
	if err != nil {
		return err
	}

	target, ok := builder.FindTarget(builder.DefaultTargets(), name)
	if !ok {
		return fmt.Errorf("%w: %q", builder.ErrUnknownTarget, name)
	}

	b, dir, err := l.newBuilder(cmd, opts, false)
	if err != nil {
		return err
	}
	return b.BuildAndRun(target, dir, programArgs)
}

func (l *launcher) newRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <target> [debug] [-- args...]",
		Short: "Build one target and run it",
		Long:  `Build one target and run the produced binary. Arguments after "--" are passed to the program.`,
		Args: func(cmd *cobra.Command, args []string) error {
			_, _, _, err := splitRunArgs(cmd, args)
			return err
		},
		RunE: l.doRun,
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return []string{DebugToggle}, cobra.ShellCompDirectiveNoFileComp
			}
			var names []string
			for _, t := range builder.DefaultTargets() {
				names = append(names, t.Name)
			}
			return names, cobra.ShellCompDirectiveNoFileComp
		},
	}
}
