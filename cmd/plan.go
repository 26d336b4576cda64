// cxxlaunch plan [debug]
package cmd

import (
	"github.com/qobs-build/cxxlaunch/internal/builder"
	"github.com/spf13/cobra"
)

func (l *launcher) doPlan(cmd *cobra.Command, args []string) error {
	opts, err := parseOptions(args)
	if err != nil {
		return err
	}

	targets, err := builder.SelectTargets(builder.DefaultTargets(), l.flagOnly)
	if err != nil {
		return err
	}

	b, dir, err := l.newBuilder(cmd, opts, true)
	if err != nil {
		return err
	}
	return builder.WritePlan(cmd.OutOrStdout(), b.PlanEntries(targets, dir), l.flagFormat.Value())
}

func (l *launcher) newPlanCmd() *cobra.Command {
	planCmd := &cobra.Command{
		Use:   "plan [debug]",
		Short: "Print the compiler invocations without running them",
		Args:  toggleArgs,
		RunE:  l.doPlan,
	}
	planCmd.Flags().VarP(&l.flagFormat, "format", "f", "Output format, one of "+l.flagFormat.HelpString())
	planCmd.RegisterFlagCompletionFunc("format", l.flagFormat.CompletionFunc())
	return planCmd
}
