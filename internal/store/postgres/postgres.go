// Package postgres stores the catalog and harvest identities in PostgreSQL.
// Datasets are kept as JSONB documents with their name, owner and
// collection lifted into indexed columns.
package postgres

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/agentstation/harvester/pkg/catalog"
	"github.com/agentstation/harvester/pkg/constants"
	"github.com/agentstation/harvester/pkg/errors"
)

const uniqueViolation = "23505"

// Store is a catalog.Store backed by a pgx pool.
type Store struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

var _ catalog.Store = (*Store)(nil)

// New wraps an open pool. A zero timeout uses the package default.
func New(db *pgxpool.Pool, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = constants.DefaultTimeout
	}
	return &Store{db: db, timeout: timeout}
}

// Open connects to the database at dsn.
func Open(ctx context.Context, dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, errors.WrapResource("connect", "database", "", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.WrapResource("ping", "database", "", err)
	}
	return pool, nil
}

func (s *Store) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// Datasets implements catalog.Store.
func (s *Store) Datasets() catalog.Datasets { return datasets{s} }

// Organizations implements catalog.Store.
func (s *Store) Organizations() catalog.Organizations { return organizations{s} }

// Identities implements catalog.Store.
func (s *Store) Identities() catalog.Identities { return identities{s} }

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return stderrors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

type datasets struct{ s *Store }

const selectDataset = `SELECT id, data FROM datasets`

func (d datasets) get(ctx context.Context, query, key string) (*catalog.Dataset, error) {
	ctx, cancel := d.s.withTimeout(ctx)
	defer cancel()

	var (
		id string
		ds catalog.Dataset
	)
	if err := d.s.db.QueryRow(ctx, query, key).Scan(&id, &ds); err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NewNotFoundError("dataset", key)
		}
		return nil, errors.WrapResource("get", "dataset", key, err)
	}
	ds.ID = id
	return &ds, nil
}

func (d datasets) Get(ctx context.Context, id string) (*catalog.Dataset, error) {
	return d.get(ctx, selectDataset+` WHERE id = $1`, id)
}

func (d datasets) GetByName(ctx context.Context, name string) (*catalog.Dataset, error) {
	return d.get(ctx, selectDataset+` WHERE name = $1`, name)
}

func (d datasets) Create(ctx context.Context, ds *catalog.Dataset) (string, error) {
	const sql = `
		INSERT INTO datasets (id, name, title, owner_org, collection_name, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())`

	if ds.ID == "" {
		return "", errors.NewValidationError("id", ds.ID, "missing value")
	}
	ctx, cancel := d.s.withTimeout(ctx)
	defer cancel()
	_, err := d.s.db.Exec(ctx, sql, ds.ID, ds.Name, ds.Title, ds.OwnerOrg, ds.CollectionName, ds)
	if err != nil {
		if isUniqueViolation(err) {
			return "", errors.NewValidationError("name", ds.Name, "that URL is already in use")
		}
		return "", errors.WrapResource("create", "dataset", ds.ID, err)
	}
	return ds.ID, nil
}

func (d datasets) Update(ctx context.Context, id string, ds *catalog.Dataset) error {
	const sql = `
		UPDATE datasets
		SET name = $2, title = $3, owner_org = $4, collection_name = $5, data = $6, updated_at = NOW()
		WHERE id = $1`

	ctx, cancel := d.s.withTimeout(ctx)
	defer cancel()
	tag, err := d.s.db.Exec(ctx, sql, id, ds.Name, ds.Title, ds.OwnerOrg, ds.CollectionName, ds)
	if err != nil {
		if isUniqueViolation(err) {
			return errors.NewValidationError("name", ds.Name, "that URL is already in use")
		}
		return errors.WrapResource("update", "dataset", id, err)
	}
	if tag.RowsAffected() == 0 {
		return errors.NewNotFoundError("dataset", id)
	}
	return nil
}

func (d datasets) Delete(ctx context.Context, id string) error {
	const sql = `DELETE FROM datasets WHERE id = $1`

	ctx, cancel := d.s.withTimeout(ctx)
	defer cancel()
	tag, err := d.s.db.Exec(ctx, sql, id)
	if err != nil {
		return errors.WrapResource("delete", "dataset", id, err)
	}
	if tag.RowsAffected() == 0 {
		return errors.NewNotFoundError("dataset", id)
	}
	return nil
}

type organizations struct{ s *Store }

func (o organizations) FindBySlug(ctx context.Context, slug string) (*catalog.Organization, error) {
	const query = `SELECT id, name, title, contact FROM organizations WHERE name = $1`

	ctx, cancel := o.s.withTimeout(ctx)
	defer cancel()
	var org catalog.Organization
	if err := o.s.db.QueryRow(ctx, query, slug).Scan(&org.ID, &org.Name, &org.Title, &org.Contact); err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NewNotFoundError("organization", slug)
		}
		return nil, errors.WrapResource("get", "organization", slug, err)
	}
	return &org, nil
}

func (o organizations) Create(ctx context.Context, org *catalog.Organization) error {
	const sql = `INSERT INTO organizations (id, name, title, contact) VALUES ($1, $2, $3, $4)`

	ctx, cancel := o.s.withTimeout(ctx)
	defer cancel()
	if _, err := o.s.db.Exec(ctx, sql, org.ID, org.Name, org.Title, org.Contact); err != nil {
		if isUniqueViolation(err) {
			return errors.NewAlreadyExistsError("organization", org.Name)
		}
		return errors.WrapResource("create", "organization", org.Name, err)
	}
	return nil
}

type identities struct{ s *Store }

func (i identities) FindBySource(ctx context.Context, sourceID string) (map[string]catalog.Identity, error) {
	const query = `
		SELECT id::text, identifier, dataset_id, digest, harvested_at
		FROM harvest_identities
		WHERE source_id = $1 AND current`

	ctx, cancel := i.s.withTimeout(ctx)
	defer cancel()
	rows, err := i.s.db.Query(ctx, query, sourceID)
	if err != nil {
		return nil, errors.WrapResource("list", "identity", sourceID, err)
	}
	defer rows.Close()

	out := make(map[string]catalog.Identity)
	for rows.Next() {
		var (
			id          = catalog.Identity{SourceID: sourceID, Current: true}
			harvestedAt time.Time
		)
		if err := rows.Scan(&id.ID, &id.Identifier, &id.DatasetID, &id.Digest, &harvestedAt); err != nil {
			return nil, errors.WrapResource("list", "identity", sourceID, err)
		}
		id.HarvestedAt.Time = harvestedAt.UTC()
		out[id.Identifier] = id
	}
	return out, rows.Err()
}

func (i identities) Current(ctx context.Context, sourceID, identifier string) (*catalog.Identity, error) {
	const query = `
		SELECT id::text, source_id, identifier, dataset_id, digest, current, harvested_at
		FROM harvest_identities
		WHERE source_id = $1 AND identifier = $2 AND current`

	ctx, cancel := i.s.withTimeout(ctx)
	defer cancel()
	var (
		id          catalog.Identity
		harvestedAt time.Time
	)
	err := i.s.db.QueryRow(ctx, query, sourceID, identifier).Scan(
		&id.ID, &id.SourceID, &id.Identifier, &id.DatasetID, &id.Digest, &id.Current, &harvestedAt,
	)
	if err != nil {
		if stderrors.Is(err, pgx.ErrNoRows) {
			return nil, errors.NewNotFoundError("identity", identifier)
		}
		return nil, errors.WrapResource("get", "identity", identifier, err)
	}
	id.HarvestedAt.Time = harvestedAt.UTC()
	return &id, nil
}

const markNotCurrent = `
	UPDATE harvest_identities
	SET current = FALSE
	WHERE source_id = $1 AND identifier = $2 AND current`

func (i identities) MarkNotCurrent(ctx context.Context, sourceID, identifier string) error {
	ctx, cancel := i.s.withTimeout(ctx)
	defer cancel()
	if _, err := i.s.db.Exec(ctx, markNotCurrent, sourceID, identifier); err != nil {
		return errors.WrapResource("update", "identity", identifier, err)
	}
	return nil
}

func (i identities) RecordCurrent(ctx context.Context, sourceID, identifier, datasetID, digest string) error {
	const insert = `
		INSERT INTO harvest_identities (source_id, identifier, dataset_id, digest, current, harvested_at)
		VALUES ($1, $2, $3, $4, TRUE, NOW())`

	ctx, cancel := i.s.withTimeout(ctx)
	defer cancel()
	err := pgx.BeginFunc(ctx, i.s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, markNotCurrent, sourceID, identifier); err != nil {
			return err
		}
		_, err := tx.Exec(ctx, insert, sourceID, identifier, datasetID, digest)
		return err
	})
	if err != nil {
		return errors.WrapResource("create", "identity", identifier, err)
	}
	return nil
}
