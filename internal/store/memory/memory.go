// Package memory provides an in-process catalog store. It backs tests, the
// dry-run command and single-shot harvests that do not need persistence.
package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/agentstation/utc"

	"github.com/agentstation/harvester/pkg/catalog"
	"github.com/agentstation/harvester/pkg/errors"
)

// Store is a catalog.Store kept in memory. Returned values are copies;
// mutating them does not change the store.
type Store struct {
	mu sync.RWMutex

	datasets map[string]*catalog.Dataset // by id
	names    map[string]string           // name -> id
	orgs     map[string]*catalog.Organization

	// identities is append-only; superseded rows stay with Current unset.
	identities []catalog.Identity
	nextID     int
}

var _ catalog.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		datasets: make(map[string]*catalog.Dataset),
		names:    make(map[string]string),
		orgs:     make(map[string]*catalog.Organization),
	}
}

// Datasets implements catalog.Store.
func (s *Store) Datasets() catalog.Datasets { return datasets{s} }

// Organizations implements catalog.Store.
func (s *Store) Organizations() catalog.Organizations { return organizations{s} }

// Identities implements catalog.Store.
func (s *Store) Identities() catalog.Identities { return identities{s} }

// List returns every dataset ordered by name.
func (s *Store) List() []*catalog.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*catalog.Dataset, 0, len(s.datasets))
	for _, ds := range s.datasets {
		out = append(out, cloneDataset(ds))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// History returns every identity row of an identifier, oldest first.
func (s *Store) History(sourceID, identifier string) []catalog.Identity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []catalog.Identity
	for _, id := range s.identities {
		if id.SourceID == sourceID && id.Identifier == identifier {
			out = append(out, id)
		}
	}
	return out
}

type datasets struct{ s *Store }

func (d datasets) Get(_ context.Context, id string) (*catalog.Dataset, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	ds, ok := d.s.datasets[id]
	if !ok {
		return nil, errors.NewNotFoundError("dataset", id)
	}
	return cloneDataset(ds), nil
}

func (d datasets) GetByName(_ context.Context, name string) (*catalog.Dataset, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()
	id, ok := d.s.names[name]
	if !ok {
		return nil, errors.NewNotFoundError("dataset", name)
	}
	return cloneDataset(d.s.datasets[id]), nil
}

func (d datasets) Create(_ context.Context, ds *catalog.Dataset) (string, error) {
	if ds.ID == "" {
		return "", errors.NewValidationError("id", ds.ID, "missing value")
	}
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	if _, ok := d.s.datasets[ds.ID]; ok {
		return "", errors.NewAlreadyExistsError("dataset", ds.ID)
	}
	if _, ok := d.s.names[ds.Name]; ok {
		return "", errors.NewValidationError("name", ds.Name, "that URL is already in use")
	}
	d.s.datasets[ds.ID] = cloneDataset(ds)
	d.s.names[ds.Name] = ds.ID
	return ds.ID, nil
}

func (d datasets) Update(_ context.Context, id string, ds *catalog.Dataset) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	old, ok := d.s.datasets[id]
	if !ok {
		return errors.NewNotFoundError("dataset", id)
	}
	if owner, taken := d.s.names[ds.Name]; taken && owner != id {
		return errors.NewValidationError("name", ds.Name, "that URL is already in use")
	}
	delete(d.s.names, old.Name)
	stored := cloneDataset(ds)
	stored.ID = id
	d.s.datasets[id] = stored
	d.s.names[stored.Name] = id
	return nil
}

func (d datasets) Delete(_ context.Context, id string) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()
	ds, ok := d.s.datasets[id]
	if !ok {
		return errors.NewNotFoundError("dataset", id)
	}
	delete(d.s.names, ds.Name)
	delete(d.s.datasets, id)
	return nil
}

type organizations struct{ s *Store }

func (o organizations) FindBySlug(_ context.Context, slug string) (*catalog.Organization, error) {
	o.s.mu.RLock()
	defer o.s.mu.RUnlock()
	org, ok := o.s.orgs[slug]
	if !ok {
		return nil, errors.NewNotFoundError("organization", slug)
	}
	cp := *org
	return &cp, nil
}

func (o organizations) Create(_ context.Context, org *catalog.Organization) error {
	if org.Name == "" {
		return errors.NewValidationError("name", org.Name, "missing value")
	}
	o.s.mu.Lock()
	defer o.s.mu.Unlock()
	if _, ok := o.s.orgs[org.Name]; ok {
		return errors.NewAlreadyExistsError("organization", org.Name)
	}
	cp := *org
	o.s.orgs[org.Name] = &cp
	return nil
}

type identities struct{ s *Store }

func (i identities) FindBySource(_ context.Context, sourceID string) (map[string]catalog.Identity, error) {
	i.s.mu.RLock()
	defer i.s.mu.RUnlock()
	out := make(map[string]catalog.Identity)
	for _, id := range i.s.identities {
		if id.Current && id.SourceID == sourceID {
			out[id.Identifier] = id
		}
	}
	return out, nil
}

func (i identities) Current(_ context.Context, sourceID, identifier string) (*catalog.Identity, error) {
	i.s.mu.RLock()
	defer i.s.mu.RUnlock()
	for _, id := range i.s.identities {
		if id.Current && id.SourceID == sourceID && id.Identifier == identifier {
			cp := id
			return &cp, nil
		}
	}
	return nil, errors.NewNotFoundError("identity", identifier)
}

func (i identities) MarkNotCurrent(_ context.Context, sourceID, identifier string) error {
	i.s.mu.Lock()
	defer i.s.mu.Unlock()
	i.s.markNotCurrent(sourceID, identifier)
	return nil
}

func (i identities) RecordCurrent(_ context.Context, sourceID, identifier, datasetID, digest string) error {
	i.s.mu.Lock()
	defer i.s.mu.Unlock()
	i.s.markNotCurrent(sourceID, identifier)
	i.s.nextID++
	i.s.identities = append(i.s.identities, catalog.Identity{
		ID:          strconv.Itoa(i.s.nextID),
		SourceID:    sourceID,
		Identifier:  identifier,
		DatasetID:   datasetID,
		Digest:      digest,
		Current:     true,
		HarvestedAt: utc.Now(),
	})
	return nil
}

// markNotCurrent requires s.mu to be held.
func (s *Store) markNotCurrent(sourceID, identifier string) {
	for n := range s.identities {
		id := &s.identities[n]
		if id.SourceID == sourceID && id.Identifier == identifier {
			id.Current = false
		}
	}
}

func cloneDataset(ds *catalog.Dataset) *catalog.Dataset {
	cp := *ds
	cp.Tags = append([]catalog.Tag(nil), ds.Tags...)
	cp.Extras = append([]catalog.Extra(nil), ds.Extras...)
	cp.Resources = make([]catalog.Resource, len(ds.Resources))
	for n, r := range ds.Resources {
		if r.Size != nil {
			size := *r.Size
			r.Size = &size
		}
		cp.Resources[n] = r
	}
	if ds.Resources == nil {
		cp.Resources = nil
	}
	return &cp
}
