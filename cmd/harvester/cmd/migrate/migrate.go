// Package migrate provides the migrate command.
package migrate

import (
	"github.com/spf13/cobra"

	"github.com/agentstation/harvester/internal/appcontext"
)

// NewCommand creates the migrate command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down|status]",
		GroupID:   "management",
		Short:     "Apply database schema migrations",
		Long:      `Migrate applies, rolls back or reports the Postgres schema migrations. It requires DATABASE_URL.`,
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down", "status"},
		RunE: func(cmd *cobra.Command, args []string) error {
			command := "up"
			if len(args) == 1 {
				command = args[0]
			}
			if err := app.Migrate(cmd.Context(), command); err != nil {
				return err
			}
			app.Logger().Info().Str("command", command).Msg("Migration finished")
			return nil
		},
	}
}
