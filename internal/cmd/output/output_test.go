package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/harvester/pkg/harvest"
)

func sampleOps() Operations {
	return Operations{
		{Kind: harvest.Create, Identifier: "a", Page: 1},
		{Kind: harvest.Delete, Identifier: "z", DatasetID: "d-z"},
	}
}

func TestTableFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatTable).Format(&buf, sampleOps()))
	out := buf.String()
	assert.Contains(t, strings.ToUpper(out), "IDENTIFIER")
	assert.Contains(t, out, "create")
	assert.Contains(t, out, "d-z")
}

func TestJSONFormatterUsesValue(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatJSON).Format(&buf, sampleOps()))

	var ops []harvest.Operation
	require.NoError(t, json.Unmarshal(buf.Bytes(), &ops))
	assert.Len(t, ops, 2)
	assert.Equal(t, "z", ops[1].Identifier)
}

func TestYAMLFormatter(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatYAML).Format(&buf, Sources{{ID: "met", URL: "https://x"}}))
	assert.Contains(t, buf.String(), "id: met")
}

func TestTableFallsBackToJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewFormatter(FormatTable).Format(&buf, map[string]int{"n": 1}))
	assert.JSONEq(t, `{"n":1}`, buf.String())
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseFormat("xml")
	assert.Error(t, err)
}

func TestRecordErrors(t *testing.T) {
	r := harvest.NewResult("j", "src")
	r.Record(harvest.Operation{Identifier: "x", Kind: harvest.Create}, nil, assert.AnError)
	d := RecordErrors([]*harvest.Result{r.Snapshot()})
	require.Len(t, d.Rows, 1)
	assert.Equal(t, "x", d.Rows[0][1])
}
