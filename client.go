// Package harvester keeps a local data catalog in step with remote DCAT
// feeds. It wires the harvest phases together with storage, event hooks and
// a periodic schedule.
//
// A harvest cycle gathers every page of a source's feed, diffs the record
// identifiers against the identities recorded for that source, and imports
// the resulting create, update and delete operations through a bounded
// worker pool. Per-record failures are collected in the job result and never
// abort the cycle; a failed gather aborts it before anything is written.
//
// Example usage:
//
//	h, err := harvester.New(
//	    harvester.WithStore(memory.New()),
//	    harvester.WithSources(harvest.Source{ID: "met", URL: "https://example.org/data.json"}),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	h.OnDatasetCreated(func(sourceID string, a *harvest.Applied) {
//	    log.Printf("created %s", a.Name)
//	})
//
//	result, err := h.Harvest(ctx, "met")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Applied.Total(), "operations applied")
package harvester

import (
	"context"
	"sync"
	"time"

	"github.com/agentstation/harvester/internal/fetch"
	"github.com/agentstation/harvester/pkg/catalog"
	"github.com/agentstation/harvester/pkg/convert"
	"github.com/agentstation/harvester/pkg/errors"
	"github.com/agentstation/harvester/pkg/harvest"
)

// Compile-time interface check to ensure proper implementation.
var _ Client = (*client)(nil)

// Client harvests DCAT sources into a catalog store.
type Client interface {

	// Harvester runs gather and import phases
	Harvester

	// Scheduler provides access to periodic harvest controls
	Scheduler

	// Hooks provides access to event callback registration
	Hooks

	// Sources returns the configured sources
	Sources() []harvest.Source

	// Store returns the catalog store
	Store() catalog.Store
}

// client is the internal implementation of the Client interface.
type client struct {

	// options are the configured options for the client
	options *options

	converter *convert.Converter
	importer  *harvest.Importer
	hooks     *hooks

	// schedule state
	mu             sync.Mutex
	scheduleTicker *time.Ticker
	stopCh         chan struct{}
	scheduleCancel context.CancelFunc
	running        sync.Map // source id -> struct{}, guards overlapping cycles
}

// New creates a new Client instance with the given options.
func New(opts ...Option) (Client, error) {
	o := defaultOptions()
	if err := o.apply(opts...); err != nil {
		return nil, errors.WrapResource("apply", "options", "", err)
	}
	if o.store == nil {
		return nil, errors.NewConfigError("store", "a catalog store is required", errors.ErrInvalidInput)
	}

	converter, err := convert.New(o.convertOptions...)
	if err != nil {
		return nil, errors.NewConfigError("converter", err.Error(), err)
	}

	c := &client{
		options:   o,
		converter: converter,
		hooks:     newHooks(),
		stopCh:    make(chan struct{}),
	}
	c.importer = harvest.NewImporter(o.store, converter,
		harvest.WithTransformer(o.transformer),
		harvest.WithSchema(o.schema),
		harvest.WithImportObserver(o.observer),
		harvest.WithForceReimport(o.forceReimport),
	)

	if o.scheduleEnabled {
		if err := c.ScheduleOn(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Sources returns a copy of the configured sources.
func (c *client) Sources() []harvest.Source {
	return append([]harvest.Source(nil), c.options.sources...)
}

// Store returns the catalog store.
func (c *client) Store() catalog.Store {
	return c.options.store
}

// source looks up a configured source.
func (c *client) source(id string) (harvest.Source, error) {
	for _, src := range c.options.sources {
		if src.ID == id {
			return src, nil
		}
	}
	return harvest.Source{}, errors.NewNotFoundError("source", id)
}

// fetcher returns the fetcher registered for the source, or the shared one.
func (c *client) fetcher(sourceID string) harvest.Fetcher {
	if f, ok := c.options.fetchers[sourceID]; ok {
		return f
	}
	if c.options.fetcher != nil {
		return c.options.fetcher
	}
	return fetch.New()
}
