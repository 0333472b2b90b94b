package version

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/harvester/internal/appcontext"
)

func TestVersionCommand(t *testing.T) {
	cmd := NewCommand(&appcontext.Mock{VersionFunc: func() string { return "1.2.3" }})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs(nil)

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "harvester version 1.2.3")
	assert.Contains(t, out.String(), "commit: unknown")
}
