package convert

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/harvester/internal/appcontext"
	"github.com/agentstation/harvester/pkg/catalog"
	"github.com/agentstation/harvester/pkg/dcat"
)

const rainfall = `{"identifier":"rain-2020","title":"Rainfall 2020","issued":"2020-01-15",` +
	`"publisher":{"name":"Met Éireann","mbox":"info@met.ie"},"keyword":["weather"]}`

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := NewCommand(&appcontext.Mock{})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestConvertRecord(t *testing.T) {
	out, err := execute(t, rainfall, "-")
	require.NoError(t, err)

	var ds catalog.Dataset
	require.NoError(t, json.Unmarshal([]byte(out), &ds))
	assert.Equal(t, "Rainfall 2020", ds.Title)
	assert.Equal(t, "met-eireann", ds.OwnerOrg)
	assert.Equal(t, "15/01/2020", ds.DateReleased)
}

func TestConvertPage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	page := `{"dataset":[` + rainfall + `,` + strings.Replace(rainfall, "rain-2020", "rain-2021", 1) + `]}`
	require.NoError(t, os.WriteFile(path, []byte(page), 0o600))

	out, err := execute(t, "", path)
	require.NoError(t, err)

	var datasets []catalog.Dataset
	require.NoError(t, json.Unmarshal([]byte(out), &datasets))
	require.Len(t, datasets, 2)
	assert.Equal(t, "rain-2021", datasets[1].GUID)
}

func TestConvertReverse(t *testing.T) {
	out, err := execute(t, rainfall, "-")
	require.NoError(t, err)

	back, err := execute(t, out, "--reverse", "-")
	require.NoError(t, err)

	var rec dcat.Dataset
	require.NoError(t, json.Unmarshal([]byte(back), &rec))
	assert.Equal(t, "rain-2020", rec.Identifier)
	assert.Equal(t, "Rainfall 2020", rec.Title)
}

func TestConvertErrors(t *testing.T) {
	_, err := execute(t, `{"identifier":"x","title":"No date"}`, "-")
	assert.Error(t, err)

	_, err = execute(t, "not json", "--reverse", "-")
	assert.Error(t, err)

	_, err = execute(t, "", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
