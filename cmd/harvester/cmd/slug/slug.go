// Package slug provides the slug command.
package slug

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/agentstation/harvester/pkg/slug"
)

// NewCommand creates the slug command.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "slug <text>...",
		GroupID: "management",
		Short:   "Print the catalog name derived from a title",
		Example: `  harvester slug "Met Éireann Rainfall 2020"`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), slug.Make(strings.Join(args, " ")))
			return err
		},
	}
}
