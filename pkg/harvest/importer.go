package harvest

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/agentstation/harvester/pkg/catalog"
	"github.com/agentstation/harvester/pkg/constants"
	"github.com/agentstation/harvester/pkg/convert"
	"github.com/agentstation/harvester/pkg/dcat"
	"github.com/agentstation/harvester/pkg/errors"
	"github.com/agentstation/harvester/pkg/logging"
	"github.com/agentstation/harvester/pkg/slug"
)

// Applied describes an operation the importer carried out.
type Applied struct {
	Kind       OperationKind    `json:"kind"`
	Identifier string           `json:"identifier"`
	DatasetID  string           `json:"dataset_id"`
	Name       string           `json:"name,omitempty"`
	Dataset    *catalog.Dataset `json:"-"`
}

// Importer applies operations to the catalog.
type Importer struct {
	store       catalog.Store
	converter   *convert.Converter
	transformer Transformer
	schema      *Schema
	observer    Observer
	force       bool
	locks       *keyedMutex
	newID       func() string
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithTransformer sets the hook run on every converted dataset.
func WithTransformer(t Transformer) ImporterOption {
	return func(im *Importer) {
		if t != nil {
			im.transformer = t
		}
	}
}

// WithSchema sets the schema applied before create and update.
func WithSchema(s *Schema) ImporterOption {
	return func(im *Importer) {
		if s != nil {
			im.schema = s
		}
	}
}

// WithImportObserver sets the observer notified of each import.
func WithImportObserver(o Observer) ImporterOption {
	return func(im *Importer) {
		if o != nil {
			im.observer = o
		}
	}
}

// WithForceReimport reprocesses every record as an update of its existing
// dataset without superseding the current identity. Operations gathered
// from a source with ForceReimport set behave the same way.
func WithForceReimport(force bool) ImporterOption {
	return func(im *Importer) {
		im.force = force
	}
}

// NewImporter creates an Importer.
func NewImporter(store catalog.Store, converter *convert.Converter, opts ...ImporterOption) *Importer {
	im := &Importer{
		store:       store,
		converter:   converter,
		transformer: NopTransformer{},
		schema:      DefaultSchema(),
		observer:    nopObserver{},
		locks:       newKeyedMutex(),
		newID:       uuid.NewString,
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Import applies one operation. Failures concern this operation only; the
// caller moves on to the next one. Imports of the same identifier are
// serialized.
func (im *Importer) Import(ctx context.Context, op Operation) (applied *Applied, err error) {
	ctx = logging.WithSource(ctx, op.SourceID)
	ctx = logging.WithIdentifier(ctx, op.Identifier)
	ctx = logging.WithOperation(ctx, string(op.Kind))
	log := logging.FromContext(ctx)

	unlock := im.locks.Lock(op.SourceID + "\x00" + op.Identifier)
	defer unlock()

	defer func() {
		if r := recover(); r != nil {
			applied, err = nil, fmt.Errorf("import of %s panicked: %v", op.Identifier, r)
		}
		if err != nil {
			log.Warn().Err(err).Msg("Import failed")
		}
		im.observer.Imported(op.SourceID, op.Kind, err)
	}()

	if err := ctx.Err(); err != nil {
		return nil, errors.Join(errors.ErrCanceled, err)
	}

	switch op.Kind {
	case Delete:
		return im.delete(ctx, op)
	case Create, Update:
		return im.upsert(ctx, op)
	default:
		return nil, errors.NewValidationError("kind", op.Kind, "unknown operation kind")
	}
}

// delete removes the dataset. It is terminal: identities were already
// retired during gather.
func (im *Importer) delete(ctx context.Context, op Operation) (*Applied, error) {
	if op.DatasetID == "" {
		return nil, errors.NewValidationError("dataset_id", op.DatasetID, "delete without a dataset id")
	}
	err := im.store.Datasets().Delete(ctx, op.DatasetID)
	if err != nil && !errors.IsNotFound(err) {
		return nil, errors.WrapResource("delete", "dataset", op.DatasetID, err)
	}
	logging.FromContext(ctx).Info().Str("dataset_id", op.DatasetID).Msg("Deleted dataset")
	return &Applied{Kind: Delete, Identifier: op.Identifier, DatasetID: op.DatasetID}, nil
}

func (im *Importer) upsert(ctx context.Context, op Operation) (*Applied, error) {
	log := logging.FromContext(ctx)
	identities := im.store.Identities()
	kind, datasetID := op.Kind, op.DatasetID

	if len(op.Raw) == 0 {
		return nil, errors.NewConversionError(op.Identifier, "", "empty content", errors.ErrInvalidInput)
	}

	// Step 1: supersede the current identity, unless force reprocessing
	current, err := identities.Current(ctx, op.SourceID, op.Identifier)
	if err != nil && !errors.IsNotFound(err) {
		return nil, errors.WrapResource("lookup", "identity", op.Identifier, err)
	}
	if current != nil {
		if im.force || op.Force {
			kind, datasetID = Update, current.DatasetID
		} else if err := identities.MarkNotCurrent(ctx, op.SourceID, op.Identifier); err != nil {
			return nil, errors.WrapResource("update", "identity", op.Identifier, err)
		}
	}
	if kind == Update && datasetID == "" {
		return nil, errors.NewValidationError("dataset_id", datasetID, "update without a dataset id")
	}

	// Step 2: convert
	rec, err := dcat.Decode(op.Raw)
	if err != nil {
		return nil, errors.NewConversionError(op.Identifier, "", "malformed record", err)
	}
	if rec.Identifier == "" {
		rec.Identifier = op.Identifier
	}
	ds, err := im.converter.ToCatalog(ctx, rec)
	if err != nil {
		return nil, err
	}
	ds.CollectionName = op.SourceID

	// Step 3: name
	if ds.Name == "" {
		if ds.Name, err = im.datasetName(ctx, ds, kind, datasetID); err != nil {
			return nil, err
		}
	}

	// Step 4: deployment hook
	if ds, err = im.transformer.Transform(ctx, ds, rec, op); err != nil {
		return nil, fmt.Errorf("transform %s: %w", op.Identifier, err)
	}
	if ds == nil {
		return nil, errors.NewValidationError("", nil, "transformer returned no dataset")
	}

	// Step 5: owning organization
	if err := im.resolveOrganization(ctx, ds); err != nil {
		return nil, err
	}

	if err := im.schema.Apply(ds); err != nil {
		return nil, err
	}

	// Step 6: write
	switch kind {
	case Create:
		ds.ID = im.newID()
		if datasetID, err = im.store.Datasets().Create(ctx, ds); err != nil {
			return nil, err
		}
		log.Info().Str("dataset_id", datasetID).Str("name", ds.Name).Msg("Created dataset")
	case Update:
		ds.ID = datasetID
		if err := im.store.Datasets().Update(ctx, datasetID, ds); err != nil {
			return nil, err
		}
		log.Info().Str("dataset_id", datasetID).Str("name", ds.Name).Msg("Updated dataset")
	}

	// Step 7: record identity
	digest := op.Digest
	if digest == "" {
		digest = dcat.Digest(op.Raw)
	}
	if err := identities.RecordCurrent(ctx, op.SourceID, op.Identifier, datasetID, digest); err != nil {
		return nil, errors.WrapResource("create", "identity", op.Identifier, err)
	}

	return &Applied{Kind: kind, Identifier: op.Identifier, DatasetID: datasetID, Name: ds.Name, Dataset: ds}, nil
}

// datasetName keeps the stored name when an update leaves the title alone,
// otherwise derives a free name from the title, then numbered variants,
// then the identifier.
func (im *Importer) datasetName(ctx context.Context, ds *catalog.Dataset, kind OperationKind, datasetID string) (string, error) {
	if kind == Update {
		existing, err := im.store.Datasets().Get(ctx, datasetID)
		if err != nil && !errors.IsNotFound(err) {
			return "", errors.WrapResource("lookup", "dataset", datasetID, err)
		}
		if existing != nil && existing.Title == ds.Title && existing.Name != "" {
			return existing.Name, nil
		}
	}

	var candidates []string
	if base := slug.Make(ds.Title); base != "" {
		candidates = append(candidates, base)
		for i := 1; i <= constants.MaxNameSuffix; i++ {
			candidates = append(candidates, slug.WithSuffix(base, i))
		}
	}
	if byID := slug.Make(ds.GUID); byID != "" {
		candidates = append(candidates, byID)
	}

	for _, name := range candidates {
		free, err := im.nameAvailable(ctx, name, datasetID)
		if err != nil {
			return "", err
		}
		if free {
			return name, nil
		}
	}
	return "", errors.NewValidationError("name", ds.Title,
		"could not generate a unique name from the title or the identifier")
}

func (im *Importer) nameAvailable(ctx context.Context, name, datasetID string) (bool, error) {
	existing, err := im.store.Datasets().GetByName(ctx, name)
	switch {
	case errors.IsNotFound(err):
		return true, nil
	case err != nil:
		return false, errors.WrapResource("lookup", "dataset", name, err)
	default:
		return datasetID != "" && existing.ID == datasetID, nil
	}
}

// resolveOrganization creates the owning organization on first use.
// Concurrent imports may race to create it; losing the race is fine.
func (im *Importer) resolveOrganization(ctx context.Context, ds *catalog.Dataset) error {
	orgs := im.store.Organizations()
	_, err := orgs.FindBySlug(ctx, ds.OwnerOrg)
	if err == nil {
		return nil
	}
	if !errors.IsNotFound(err) {
		return &errors.OrganizationError{Slug: ds.OwnerOrg, Err: err}
	}

	title := ds.PublisherTitle
	if title == "" {
		title = ds.Publisher.Name
	}
	org := &catalog.Organization{
		ID:    im.newID(),
		Name:  ds.OwnerOrg,
		Title: title,
		Contact: catalog.Contact{
			Name:  placeholder(ds.Contact.Name),
			Email: placeholder(ds.Publisher.Email),
			Phone: placeholder(ds.Publisher.Phone),
		},
	}
	log := logging.FromContext(ctx)
	if err := orgs.Create(ctx, org); err != nil {
		if !errors.IsAlreadyExists(err) {
			return &errors.OrganizationError{Slug: ds.OwnerOrg, Err: err}
		}
		log.Debug().Str("organization", ds.OwnerOrg).Msg("Organization already exists")
		return nil
	}
	log.Info().Str("organization", ds.OwnerOrg).Msg("Created organization")
	return nil
}

func placeholder(s string) string {
	if s == "" {
		return constants.Placeholder
	}
	return s
}
