package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/harvester/pkg/catalog"
	"github.com/agentstation/harvester/pkg/errors"
)

func TestDatasets(t *testing.T) {
	ctx := context.Background()
	s := New()
	ds := s.Datasets()

	id, err := ds.Create(ctx, &catalog.Dataset{ID: "d1", Name: "roads", Title: "Roads"})
	require.NoError(t, err)
	assert.Equal(t, "d1", id)

	_, err = ds.Create(ctx, &catalog.Dataset{ID: "d2", Name: "roads"})
	assert.True(t, errors.IsValidationError(err), "duplicate name")

	got, err := ds.GetByName(ctx, "roads")
	require.NoError(t, err)
	assert.Equal(t, "d1", got.ID)

	got.Title = "mutated"
	again, _ := ds.Get(ctx, "d1")
	assert.Equal(t, "Roads", again.Title, "store returns copies")

	require.NoError(t, ds.Update(ctx, "d1", &catalog.Dataset{Name: "rail", Title: "Rail"}))
	_, err = ds.GetByName(ctx, "roads")
	assert.True(t, errors.IsNotFound(err), "old name released")
	got, err = ds.GetByName(ctx, "rail")
	require.NoError(t, err)
	assert.Equal(t, "d1", got.ID)

	require.NoError(t, ds.Delete(ctx, "d1"))
	_, err = ds.Get(ctx, "d1")
	assert.True(t, errors.IsNotFound(err))
	assert.True(t, errors.IsNotFound(ds.Delete(ctx, "d1")))
	assert.Empty(t, s.List())
}

func TestOrganizations(t *testing.T) {
	ctx := context.Background()
	orgs := New().Organizations()

	_, err := orgs.FindBySlug(ctx, "met-eireann")
	assert.True(t, errors.IsNotFound(err))

	require.NoError(t, orgs.Create(ctx, &catalog.Organization{Name: "met-eireann", Title: "Met Éireann"}))
	err = orgs.Create(ctx, &catalog.Organization{Name: "met-eireann"})
	assert.True(t, errors.IsAlreadyExists(err))

	org, err := orgs.FindBySlug(ctx, "met-eireann")
	require.NoError(t, err)
	assert.Equal(t, "Met Éireann", org.Title)
}

func TestIdentities(t *testing.T) {
	ctx := context.Background()
	s := New()
	ids := s.Identities()

	require.NoError(t, ids.RecordCurrent(ctx, "src", "a", "d1", "h1"))
	require.NoError(t, ids.RecordCurrent(ctx, "src", "b", "d2", "h2"))
	require.NoError(t, ids.RecordCurrent(ctx, "other", "a", "d9", "h9"))

	known, err := ids.FindBySource(ctx, "src")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "d1", "b": "d2"}, datasetIDs(known))
	assert.Equal(t, "h1", known["a"].Digest)

	// superseding keeps history with a single current row
	require.NoError(t, ids.RecordCurrent(ctx, "src", "a", "d1", "h1b"))
	history := s.History("src", "a")
	require.Len(t, history, 2)
	assert.False(t, history[0].Current)
	assert.True(t, history[1].Current)

	cur, err := ids.Current(ctx, "src", "a")
	require.NoError(t, err)
	assert.Equal(t, "d1", cur.DatasetID)
	assert.Equal(t, "h1b", cur.Digest)

	require.NoError(t, ids.MarkNotCurrent(ctx, "src", "a"))
	_, err = ids.Current(ctx, "src", "a")
	assert.True(t, errors.IsNotFound(err))

	known, _ = ids.FindBySource(ctx, "src")
	assert.Equal(t, map[string]string{"b": "d2"}, datasetIDs(known))
	known, _ = ids.FindBySource(ctx, "other")
	assert.Equal(t, map[string]string{"a": "d9"}, datasetIDs(known))
}

func datasetIDs(known map[string]catalog.Identity) map[string]string {
	out := make(map[string]string, len(known))
	for ident, id := range known {
		out[ident] = id.DatasetID
	}
	return out
}
