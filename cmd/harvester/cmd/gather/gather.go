// Package gather provides the gather command.
package gather

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/harvester/internal/appcontext"
	"github.com/agentstation/harvester/internal/cmd/output"
)

// NewCommand creates the gather command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:     "gather <source>",
		GroupID: "core",
		Short:   "Show the operations a harvest of a source would apply",
		Long: `Gather walks every page of a source's feed and lists the create, update
and delete operations a harvest would apply, without importing them.

Identities of datasets that vanished from the feed are retired, so a
following run will not plan their deletion again.`,
		Example: `  harvester gather met-eireann
  harvester gather met-eireann --raw -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			h, err := app.Harvester()
			if err != nil {
				return err
			}
			ops, err := h.Gather(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !raw {
				for i := range ops {
					ops[i].Raw = nil
				}
			}
			app.Logger().Info().Str("source", args[0]).Int("operations", len(ops)).Msg("Gather finished")
			return output.Print(cmd.OutOrStdout(), app.OutputFormat(), output.Operations(ops))
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "include the raw record of each operation")
	return cmd
}
