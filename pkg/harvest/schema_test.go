package harvest_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/harvester/pkg/catalog"
	"github.com/agentstation/harvester/pkg/errors"
	"github.com/agentstation/harvester/pkg/harvest"
)

func validDataset() *catalog.Dataset {
	return &catalog.Dataset{
		Title:        "Roads",
		Name:         "roads",
		DateReleased: "2020-01-15",
		Tags:         []catalog.Tag{{Name: " Roads "}},
	}
}

func TestSchemaApplyDefaults(t *testing.T) {
	ds := validDataset()
	ds.ThemePrimary = "transport"
	ds.DateUpdated = "2021-03-04T10:00:00Z"

	require.NoError(t, harvest.DefaultSchema().Apply(ds))
	assert.Equal(t, "eng", ds.Language)
	assert.Equal(t, "other", ds.LicenseID)
	assert.Equal(t, "Transport", ds.ThemePrimary)
	assert.Equal(t, "15/01/2020", ds.DateReleased)
	assert.Equal(t, "04/03/2021", ds.DateUpdated)
	assert.Equal(t, "Roads", ds.Tags[0].Name)
}

func TestSchemaApplyRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(ds *catalog.Dataset)
		field  string
	}{
		{"missing title", func(ds *catalog.Dataset) { ds.Title = " " }, "title"},
		{"missing name", func(ds *catalog.Dataset) { ds.Name = "" }, "name"},
		{"long name", func(ds *catalog.Dataset) { ds.Name = string(make([]byte, 101)) }, "name"},
		{"empty tag", func(ds *catalog.Dataset) { ds.Tags = append(ds.Tags, catalog.Tag{Name: "  "}) }, "tags"},
		{"unknown theme", func(ds *catalog.Dataset) { ds.ThemePrimary = "Astrology" }, "theme-primary"},
		{"missing release date", func(ds *catalog.Dataset) { ds.DateReleased = "" }, "date_released"},
		{"bad release date", func(ds *catalog.Dataset) { ds.DateReleased = "soon" }, "date_released"},
		{"bad temporal date", func(ds *catalog.Dataset) { ds.TemporalFrom = "soon" }, "temporal_coverage-from"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ds := validDataset()
			tt.mutate(ds)
			err := harvest.DefaultSchema().Apply(ds)
			var ve *errors.ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}
