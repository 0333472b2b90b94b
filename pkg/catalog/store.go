package catalog

import "context"

// Datasets is the dataset half of the catalog contract.
type Datasets interface {
	// Get returns a dataset by local id, or a NotFoundError.
	Get(ctx context.Context, id string) (*Dataset, error)

	// GetByName returns a dataset by slug, or a NotFoundError.
	GetByName(ctx context.Context, name string) (*Dataset, error)

	// Create stores a new dataset under ds.ID and returns the id. A name
	// already in use is reported as a ValidationError.
	Create(ctx context.Context, ds *Dataset) (string, error)

	// Update replaces the dataset stored under id.
	Update(ctx context.Context, id string, ds *Dataset) error

	// Delete removes the dataset stored under id.
	Delete(ctx context.Context, id string) error
}

// Organizations is the organization half of the catalog contract.
type Organizations interface {
	// FindBySlug returns an organization, or a NotFoundError.
	FindBySlug(ctx context.Context, slug string) (*Organization, error)

	// Create stores an organization. A slug already in use is reported as
	// an AlreadyExistsError.
	Create(ctx context.Context, org *Organization) error
}

// Identities is the harvest identity store.
type Identities interface {
	// FindBySource returns the current identity of every identifier of the
	// source, keyed by identifier.
	FindBySource(ctx context.Context, sourceID string) (map[string]Identity, error)

	// Current returns the current identity for an identifier, or a
	// NotFoundError.
	Current(ctx context.Context, sourceID, identifier string) (*Identity, error)

	// MarkNotCurrent clears the current flag of the identifier's rows.
	MarkNotCurrent(ctx context.Context, sourceID, identifier string) error

	// RecordCurrent appends a current identity row, superseding any other.
	// digest identifies the record content the dataset was built from.
	RecordCurrent(ctx context.Context, sourceID, identifier, datasetID, digest string) error
}

// Store bundles the three collaborators.
type Store interface {
	Datasets() Datasets
	Organizations() Organizations
	Identities() Identities
}
