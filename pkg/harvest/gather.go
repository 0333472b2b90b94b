package harvest

import (
	"context"
	"sort"
	"time"

	"github.com/agentstation/harvester/pkg/catalog"
	"github.com/agentstation/harvester/pkg/constants"
	"github.com/agentstation/harvester/pkg/dcat"
	"github.com/agentstation/harvester/pkg/errors"
	"github.com/agentstation/harvester/pkg/logging"
)

// Fetcher retrieves one page of a feed.
type Fetcher interface {
	Fetch(ctx context.Context, locator string, page int) ([]byte, error)
}

// Gatherer reconciles a feed against the recorded identities of a source.
type Gatherer struct {
	fetcher    Fetcher
	identities catalog.Identities
	observer   Observer
	maxPages   int
	force      bool
}

// GathererOption configures a Gatherer.
type GathererOption func(*Gatherer)

// WithGatherObserver sets the observer notified of fetched pages and
// aborted cycles.
func WithGatherObserver(o Observer) GathererOption {
	return func(g *Gatherer) {
		if o != nil {
			g.observer = o
		}
	}
}

// WithMaxPages stops pagination after n pages. Zero means no limit.
func WithMaxPages(n int) GathererOption {
	return func(g *Gatherer) {
		g.maxPages = n
	}
}

// WithGatherForce plans an update for every known identifier, even when its
// record is unchanged. Sources with ForceReimport set behave the same way.
func WithGatherForce(force bool) GathererOption {
	return func(g *Gatherer) {
		g.force = force
	}
}

// NewGatherer creates a Gatherer.
func NewGatherer(fetcher Fetcher, identities catalog.Identities, opts ...GathererOption) *Gatherer {
	g := &Gatherer{
		fetcher:    fetcher,
		identities: identities,
		observer:   nopObserver{},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Gather walks the pages of src and returns the operations that bring the
// catalog in line with the feed. Every identifier in the feed or in the
// recorded identities appears in at most one operation. A known identifier
// whose record digest matches the recorded one is unchanged and yields no
// operation unless reimport is forced.
//
// Pagination ends on an empty page, on a page whose identifiers are the
// same set as the previous page's, or on a 404 after the first page. Any
// other fetch or parse failure aborts the cycle with a GatherError and no
// operations. The identities of deleted datasets are retired before Gather
// returns.
func (g *Gatherer) Gather(ctx context.Context, src Source) ([]Operation, error) {
	if err := src.Validate(); err != nil {
		return nil, errors.NewConfigError("source", err.Error(), err)
	}
	ctx = logging.WithSource(ctx, src.ID)
	log := logging.FromContext(ctx)
	start := time.Now()

	// Step 1: load known identities
	known, err := g.identities.FindBySource(ctx, src.ID)
	if err != nil {
		return nil, g.fail(ctx, src, 0, errors.WrapResource("lookup", "identity", src.ID, err))
	}

	// Step 2: walk pages
	var (
		ops       []Operation
		seen      = make(map[string]struct{})
		previous  map[string]struct{}
		unchanged int
		force     = g.force || src.ForceReimport
	)
	for page := constants.FirstPage; ; page++ {
		if err := ctx.Err(); err != nil {
			return nil, g.fail(ctx, src, page, errors.Join(errors.ErrCanceled, err))
		}

		content, err := g.fetcher.Fetch(ctx, src.URL, page)
		if err != nil {
			if errors.IsEndOfPages(err) {
				log.Debug().Int(logging.FieldPage, page).Msg("404 after first page, no more pages")
				break
			}
			return nil, g.fail(ctx, src, page, err)
		}

		entries, err := dcat.ParsePage(content)
		if err != nil {
			var pe *errors.ParseError
			if errors.As(err, &pe) {
				pe.File = src.URL
				pe.Page = page
			}
			return nil, g.fail(ctx, src, page, err)
		}
		g.observer.PageFetched(src.ID, page, len(entries))

		if len(entries) == 0 {
			log.Debug().Int(logging.FieldPage, page).Msg("Empty page, no more records")
			break
		}

		batch := make(map[string]struct{}, len(entries))
		for _, e := range entries {
			batch[e.Identifier] = struct{}{}
			if _, dup := seen[e.Identifier]; dup {
				continue
			}
			seen[e.Identifier] = struct{}{}

			op := Operation{Kind: Create, SourceID: src.ID, Identifier: e.Identifier, Page: page,
				Raw: e.Raw, Digest: e.Digest, Force: src.ForceReimport}
			if id, ok := known[e.Identifier]; ok {
				if !force && id.Digest != "" && id.Digest == e.Digest {
					unchanged++
					continue
				}
				op.Kind = Update
				op.DatasetID = id.DatasetID
			}
			ops = append(ops, op)
		}

		if previous != nil && sameSet(previous, batch) {
			log.Debug().Int(logging.FieldPage, page).Msg("Same identifiers as previous page, no more pages")
			break
		}
		previous = batch

		if g.maxPages > 0 && page >= g.maxPages {
			log.Warn().Int(logging.FieldPage, page).Msg("Page limit reached, stopping pagination")
			break
		}
	}

	// Step 3: known identifiers missing from the feed become deletes
	missing := make([]string, 0)
	for ident := range known {
		if _, ok := seen[ident]; !ok {
			missing = append(missing, ident)
		}
	}
	sort.Strings(missing)
	for _, ident := range missing {
		if err := g.identities.MarkNotCurrent(ctx, src.ID, ident); err != nil {
			return nil, g.fail(ctx, src, 0, errors.WrapResource("update", "identity", ident, err))
		}
		ops = append(ops, Operation{Kind: Delete, SourceID: src.ID, Identifier: ident, DatasetID: known[ident].DatasetID})
	}

	counts := Count(ops)
	log.Info().
		Int("create", counts.Create).
		Int("update", counts.Update).
		Int("delete", counts.Delete).
		Int("unchanged", unchanged).
		Dur("took", time.Since(start)).
		Msg("Gather complete")
	return ops, nil
}

func (g *Gatherer) fail(ctx context.Context, src Source, page int, err error) error {
	g.observer.GatherFailed(src.ID, err)
	logging.FromContext(ctx).Error().Int(logging.FieldPage, page).Err(err).Msg("Gather aborted")
	return &errors.GatherError{Source: src.ID, Page: page, Err: err}
}

func sameSet(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for k := range a {
		if _, ok := b[k]; !ok {
			return false
		}
	}
	return true
}
