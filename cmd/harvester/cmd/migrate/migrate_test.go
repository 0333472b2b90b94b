package migrate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/harvester/internal/appcontext"
)

func TestMigrateCommand(t *testing.T) {
	var got []string
	mock := &appcontext.Mock{
		MigrateFunc: func(_ context.Context, command string) error {
			got = append(got, command)
			return nil
		},
	}

	for _, args := range [][]string{{}, {"status"}, {"down"}} {
		cmd := NewCommand(mock)
		cmd.SetArgs(args)
		require.NoError(t, cmd.Execute())
	}
	assert.Equal(t, []string{"up", "status", "down"}, got)

	cmd := NewCommand(mock)
	cmd.SetArgs([]string{"sideways"})
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	assert.Error(t, cmd.Execute())
	assert.Len(t, got, 3)
}
