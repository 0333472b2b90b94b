// Package convert provides the convert command.
package convert

import (
	"encoding/json"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/agentstation/harvester/internal/appcontext"
	"github.com/agentstation/harvester/internal/cmd/output"
	"github.com/agentstation/harvester/pkg/catalog"
	"github.com/agentstation/harvester/pkg/dcat"
	"github.com/agentstation/harvester/pkg/errors"
)

// NewCommand creates the convert command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	var reverse bool

	cmd := &cobra.Command{
		Use:     "convert <file|->",
		GroupID: "management",
		Short:   "Convert records between DCAT and the catalog schema",
		Long: `Convert reads a DCAT record, or a feed page of records, and prints the
catalog datasets they map to. With --reverse it reads a catalog dataset
and prints the DCAT record it maps back to.

Reads standard input when the file is "-".`,
		Example: `  harvester convert record.json
  harvester convert data.json -o yaml
  harvester convert --reverse dataset.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd.InOrStdin(), args[0])
			if err != nil {
				return err
			}
			converter, err := app.Converter()
			if err != nil {
				return err
			}

			var result any
			if reverse {
				var ds catalog.Dataset
				if err := json.Unmarshal(data, &ds); err != nil {
					return errors.WrapParse("json", args[0], err)
				}
				result = converter.ToDcat(&ds)
			} else {
				entries, err := records(data)
				if err != nil {
					return errors.WrapParse("json", args[0], err)
				}
				datasets := make([]*catalog.Dataset, 0, len(entries))
				for _, e := range entries {
					rec, err := dcat.Decode(e.Raw)
					if err != nil {
						return err
					}
					ds, err := converter.ToCatalog(cmd.Context(), rec)
					if err != nil {
						return err
					}
					datasets = append(datasets, ds)
				}
				if len(datasets) == 1 {
					result = datasets[0]
				} else {
					result = datasets
				}
			}

			// Datasets have no table form, the table formatter falls back to JSON
			return output.Print(cmd.OutOrStdout(), app.OutputFormat(), result)
		},
	}

	cmd.Flags().BoolVar(&reverse, "reverse", false, "convert a catalog dataset to DCAT")
	return cmd
}

// records accepts a single record object as well as a feed page.
func records(data []byte) ([]dcat.Entry, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err == nil {
		if _, isCatalog := fields["dataset"]; !isCatalog {
			return []dcat.Entry{{Raw: data}}, nil
		}
	}
	return dcat.ParsePage(data)
}

func readInput(stdin io.Reader, path string) ([]byte, error) {
	if path == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return nil, errors.WrapIO("read", "stdin", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return nil, errors.WrapIO("read", path, err)
	}
	return data, nil
}
