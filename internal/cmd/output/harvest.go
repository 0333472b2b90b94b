package output

import (
	"strconv"
	"strings"

	"github.com/agentstation/harvester/pkg/harvest"
)

// Operations renders gathered operations.
type Operations []harvest.Operation

// Value implements Tabular.
func (o Operations) Value() any { return []harvest.Operation(o) }

// Table implements Tabular.
func (o Operations) Table() Data {
	d := Data{
		Headers:         []string{"Kind", "Identifier", "Dataset", "Page"},
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignLeft, AlignRight},
	}
	for _, op := range o {
		page := ""
		if op.Page > 0 {
			page = strconv.Itoa(op.Page)
		}
		d.Rows = append(d.Rows, []string{string(op.Kind), op.Identifier, op.DatasetID, page})
	}
	return d
}

// Results renders harvest job results.
type Results []*harvest.Result

// Value implements Tabular.
func (r Results) Value() any { return []*harvest.Result(r) }

// Table implements Tabular.
func (r Results) Table() Data {
	d := Data{
		Headers: []string{"Source", "Status", "Created", "Updated", "Deleted", "Failed", "Job"},
		ColumnAlignment: []Align{AlignLeft, AlignLeft, AlignRight, AlignRight, AlignRight, AlignRight,
			AlignLeft},
	}
	for _, res := range r {
		d.Rows = append(d.Rows, []string{
			res.SourceID,
			string(res.Status),
			strconv.Itoa(res.Applied.Create),
			strconv.Itoa(res.Applied.Update),
			strconv.Itoa(res.Applied.Delete),
			strconv.Itoa(res.Failed),
			res.JobID,
		})
	}
	return d
}

// Sources renders configured sources.
type Sources []harvest.Source

// Value implements Tabular.
func (s Sources) Value() any { return []harvest.Source(s) }

// Table implements Tabular.
func (s Sources) Table() Data {
	d := Data{Headers: []string{"ID", "Title", "URL", "Force"}}
	for _, src := range s {
		force := ""
		if src.ForceReimport {
			force = "yes"
		}
		d.Rows = append(d.Rows, []string{src.ID, src.Title, src.URL, force})
	}
	return d
}

// RecordErrors renders the per-record failures of results.
func RecordErrors(results []*harvest.Result) Data {
	d := Data{Headers: []string{"Source", "Identifier", "Kind", "Error"}}
	for _, res := range results {
		for _, e := range res.Errors {
			d.Rows = append(d.Rows, []string{res.SourceID, e.Identifier, string(e.Kind), firstLine(e.Message)})
		}
	}
	return d
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}
