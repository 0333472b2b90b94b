package harvester

import (
	"context"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/agentstation/harvester/pkg/errors"
	"github.com/agentstation/harvester/pkg/harvest"
	"github.com/agentstation/harvester/pkg/logging"
)

// Compile-time interface check to ensure proper implementation.
var _ Harvester = (*client)(nil)

// Harvester runs the harvest phases.
type Harvester interface {
	// Gather computes the pending operations for a source
	Gather(ctx context.Context, sourceID string) ([]harvest.Operation, error)

	// Import applies one operation
	Import(ctx context.Context, op harvest.Operation) (*harvest.Applied, error)

	// Harvest runs a complete gather and import cycle for a source
	Harvest(ctx context.Context, sourceID string) (*harvest.Result, error)

	// HarvestAll harvests every configured source in turn
	HarvestAll(ctx context.Context) ([]*harvest.Result, error)
}

// Publisher announces harvest results.
type Publisher interface {
	PublishResult(r *harvest.Result) error
	PublishDataset(sourceID string, a *harvest.Applied) error
}

// cycleObserver is implemented by observers that also track whole cycles.
type cycleObserver interface {
	CycleFinished(r *harvest.Result)
}

// Gather computes the pending operations for a source.
func (c *client) Gather(ctx context.Context, sourceID string) ([]harvest.Operation, error) {
	src, err := c.source(sourceID)
	if err != nil {
		return nil, err
	}
	ops, err := c.gather(ctx, src)
	if err != nil {
		c.hooks.triggerGatherError(src.ID, err)
		return nil, err
	}
	return ops, nil
}

func (c *client) gather(ctx context.Context, src harvest.Source) ([]harvest.Operation, error) {
	maxPages := c.options.maxPages
	if src.MaxPages > 0 {
		maxPages = src.MaxPages
	}
	g := harvest.NewGatherer(c.fetcher(src.ID), c.options.store.Identities(),
		harvest.WithGatherObserver(c.options.observer),
		harvest.WithMaxPages(maxPages),
		harvest.WithGatherForce(c.options.forceReimport),
	)
	return g.Gather(ctx, src)
}

// Import applies one operation and fires the matching hooks.
func (c *client) Import(ctx context.Context, op harvest.Operation) (*harvest.Applied, error) {
	applied, err := c.importer.Import(ctx, op)
	if err != nil {
		return nil, err
	}
	c.announce(ctx, op.SourceID, applied)
	return applied, nil
}

// Harvest runs a complete cycle for a source. The returned error is the
// gather error, if any; per-record failures are reported in the result.
func (c *client) Harvest(ctx context.Context, sourceID string) (*harvest.Result, error) {
	src, err := c.source(sourceID)
	if err != nil {
		return nil, err
	}
	if _, busy := c.running.LoadOrStore(src.ID, struct{}{}); busy {
		return nil, errors.NewValidationError("source", src.ID, "a harvest of this source is already running")
	}
	defer c.running.Delete(src.ID)

	jobID := uuid.NewString()
	ctx = logging.WithJob(ctx, jobID)
	ctx = logging.WithSource(ctx, src.ID)
	log := logging.FromContext(ctx)
	log.Info().Str("url", src.URL).Msg("Harvest started")

	result := harvest.NewResult(jobID, src.ID)

	ops, err := c.gather(ctx, src)
	if err != nil {
		c.hooks.triggerGatherError(src.ID, err)
		result.Finish(err)
		snap := result.Snapshot()
		c.finish(ctx, snap)
		return snap, err
	}
	result.Planned = harvest.Count(ops)

	c.importAll(ctx, ops, result)

	result.Finish(ctx.Err())
	snap := result.Snapshot()
	c.finish(ctx, snap)
	return snap, nil
}

// importAll imports ops through the worker pool. Operations for the same
// identifier are serialized by the importer.
func (c *client) importAll(ctx context.Context, ops []harvest.Operation, result *harvest.Result) {
	var g errgroup.Group
	g.SetLimit(c.options.workers)

	for _, op := range ops {
		if err := ctx.Err(); err != nil {
			result.Record(op, nil, errors.Join(errors.ErrCanceled, err))
			continue
		}
		op := op
		g.Go(func() error {
			applied, err := c.importer.Import(ctx, op)
			result.Record(op, applied, err)
			if err == nil {
				c.announce(ctx, op.SourceID, applied)
			}
			return nil
		})
	}
	_ = g.Wait()
}

// HarvestAll harvests every configured source in turn. Gather failures are
// joined; the remaining sources are still harvested.
func (c *client) HarvestAll(ctx context.Context) ([]*harvest.Result, error) {
	var (
		results []*harvest.Result
		errs    []error
	)
	for _, src := range c.options.sources {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		r, err := c.Harvest(ctx, src.ID)
		if r != nil {
			results = append(results, r)
		}
		if err != nil {
			errs = append(errs, err)
		}
	}
	return results, errors.Join(errs...)
}

func (c *client) announce(ctx context.Context, sourceID string, a *harvest.Applied) {
	c.hooks.triggerApplied(sourceID, a)
	if c.options.publisher == nil {
		return
	}
	if err := c.options.publisher.PublishDataset(sourceID, a); err != nil {
		logging.FromContext(ctx).Warn().Err(err).Msg("Failed to publish dataset event")
	}
}

func (c *client) finish(ctx context.Context, r *harvest.Result) {
	log := logging.FromContext(ctx)
	event := log.Info()
	if r.Status == harvest.StatusFailed {
		event = log.Error()
	}
	event.
		Str("status", string(r.Status)).
		Int("created", r.Applied.Create).
		Int("updated", r.Applied.Update).
		Int("deleted", r.Applied.Delete).
		Int("failed", r.Failed).
		Msg("Harvest finished")

	if obs, ok := c.options.observer.(cycleObserver); ok {
		obs.CycleFinished(r)
	}
	if c.options.publisher != nil {
		if err := c.options.publisher.PublishResult(r); err != nil {
			log.Warn().Err(err).Msg("Failed to publish harvest result")
		}
	}
	c.hooks.triggerJobFinished(r)
}
