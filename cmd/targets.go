// cxxlaunch targets
package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/qobs-build/cxxlaunch/internal/builder"
	"github.com/spf13/cobra"
)

func (l *launcher) doTargets(cmd *cobra.Command, _ []string) error {
	targets, err := builder.SelectTargets(builder.DefaultTargets(), l.flagOnly)
	if err != nil {
		return err
	}

	driver := l.selectDriver()
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, t := range targets {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", t.Name, driver.Artifact(t.Name), strings.Join(t.Sources, " "))
	}
	return tw.Flush()
}

func (l *launcher) newTargetsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "targets",
		Short: "List the configured build targets",
		Args:  cobra.NoArgs,
		RunE:  l.doTargets,
	}
}
