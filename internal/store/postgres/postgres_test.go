package postgres

import (
	"context"
	"io/fs"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/harvester/pkg/catalog"
	"github.com/agentstation/harvester/pkg/errors"
)

func TestMigrationsHaveGooseDirectives(t *testing.T) {
	entries, err := fs.ReadDir(migrations, migrationsDir)
	require.NoError(t, err)
	require.NotEmpty(t, entries)

	for _, e := range entries {
		b, err := fs.ReadFile(migrations, migrationsDir+"/"+e.Name())
		require.NoError(t, err)
		s := string(b)
		assert.Contains(t, s, "-- +goose Up", e.Name())
		assert.Contains(t, s, "-- +goose Down", e.Name())
	}
}

func TestMigrationsParse(t *testing.T) {
	goose.SetBaseFS(migrations)
	defer goose.SetBaseFS(nil)

	ms, err := goose.CollectMigrations(migrationsDir, 0, goose.MaxVersion)
	require.NoError(t, err)
	assert.Len(t, ms, 3)
}

func TestCurrentIdentityIndexIsPartial(t *testing.T) {
	b, err := fs.ReadFile(migrations, migrationsDir+"/00002_harvest_identities.sql")
	require.NoError(t, err)
	s := string(b)
	assert.True(t, strings.Contains(s, "CREATE UNIQUE INDEX") && strings.Contains(s, "WHERE current"))
}

func TestIdentityDigestColumn(t *testing.T) {
	b, err := fs.ReadFile(migrations, migrationsDir+"/00003_identity_digest.sql")
	require.NoError(t, err)
	assert.Contains(t, string(b), "ADD COLUMN IF NOT EXISTS digest")
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pgconn.PgError{Code: uniqueViolation}))
	assert.False(t, isUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("boom")))
}

func TestMigrateRejectsUnknownCommand(t *testing.T) {
	err := Migrate(context.Background(), nil, "sideways")
	assert.ErrorContains(t, err, "unknown migration command")
}

// TestStoreAgainstDatabase runs only when HARVESTER_TEST_DSN points at a
// disposable database.
func TestStoreAgainstDatabase(t *testing.T) {
	dsn := os.Getenv("HARVESTER_TEST_DSN")
	if dsn == "" {
		t.Skip("HARVESTER_TEST_DSN not set")
	}
	ctx := context.Background()
	pool, err := Open(ctx, dsn)
	require.NoError(t, err)
	defer pool.Close()
	require.NoError(t, Migrate(ctx, pool, "up"))

	s := New(pool, 5*time.Second)
	name := "ds-" + uuid.NewString()[:8]
	ds := &catalog.Dataset{ID: uuid.NewString(), Name: name, Title: "T", Tags: []catalog.Tag{{Name: "a"}}}

	id, err := s.Datasets().Create(ctx, ds)
	require.NoError(t, err)
	_, err = s.Datasets().Create(ctx, &catalog.Dataset{ID: uuid.NewString(), Name: name})
	assert.True(t, errors.IsValidationError(err))

	got, err := s.Datasets().GetByName(ctx, name)
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, []catalog.Tag{{Name: "a"}}, got.Tags)

	src := "src-" + uuid.NewString()[:8]
	require.NoError(t, s.Identities().RecordCurrent(ctx, src, "x", id, "old"))
	require.NoError(t, s.Identities().RecordCurrent(ctx, src, "x", id, "new"))
	known, err := s.Identities().FindBySource(ctx, src)
	require.NoError(t, err)
	require.Len(t, known, 1)
	assert.Equal(t, id, known["x"].DatasetID)
	assert.Equal(t, "new", known["x"].Digest)

	require.NoError(t, s.Identities().MarkNotCurrent(ctx, src, "x"))
	_, err = s.Identities().Current(ctx, src, "x")
	assert.True(t, errors.IsNotFound(err))

	require.NoError(t, s.Datasets().Delete(ctx, id))
	assert.True(t, errors.IsNotFound(s.Datasets().Delete(ctx, id)))
}
