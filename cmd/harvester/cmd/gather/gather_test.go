package gather

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/harvester"
	"github.com/agentstation/harvester/internal/appcontext"
	"github.com/agentstation/harvester/internal/store/memory"
	"github.com/agentstation/harvester/pkg/harvest"
)

type onePage string

func (p onePage) Fetch(context.Context, string, int) ([]byte, error) { return []byte(p), nil }

func TestGatherCommand(t *testing.T) {
	mock := &appcontext.Mock{
		HarvesterFunc: func(...harvester.Option) (harvester.Client, error) {
			return harvester.New(
				harvester.WithStore(memory.New()),
				harvester.WithSources(harvest.Source{ID: "epa", URL: "https://epa.example/data.json"}),
				harvester.WithFetcher(onePage(`[{"identifier":"a","title":"Alpha"}]`)),
			)
		},
	}

	for _, tc := range []struct {
		args    []string
		wantRaw bool
	}{
		{args: []string{"epa"}},
		{args: []string{"epa", "--raw"}, wantRaw: true},
	} {
		cmd := NewCommand(mock)
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetArgs(tc.args)
		require.NoError(t, cmd.Execute())

		var ops []harvest.Operation
		require.NoError(t, json.Unmarshal(out.Bytes(), &ops))
		require.Len(t, ops, 1)
		assert.Equal(t, harvest.Create, ops[0].Kind)
		assert.Equal(t, tc.wantRaw, len(ops[0].Raw) > 0)
	}
}
