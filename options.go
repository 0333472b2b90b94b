package harvester

import (
	"time"

	"github.com/agentstation/harvester/pkg/catalog"
	"github.com/agentstation/harvester/pkg/constants"
	"github.com/agentstation/harvester/pkg/convert"
	"github.com/agentstation/harvester/pkg/errors"
	"github.com/agentstation/harvester/pkg/harvest"
)

// options holds the client configuration.
type options struct {
	store    catalog.Store
	sources  []harvest.Source
	fetcher  harvest.Fetcher
	fetchers map[string]harvest.Fetcher

	convertOptions []convert.Option
	transformer    harvest.Transformer
	schema         *harvest.Schema
	observer       harvest.Observer
	publisher      Publisher
	forceReimport  bool

	workers  int
	maxPages int

	scheduleEnabled  bool
	scheduleInterval time.Duration
	harvestTimeout   time.Duration
}

// Option is a function that configures a Client instance.
type Option func(*options) error

func defaultOptions() *options {
	return &options{
		fetchers:         make(map[string]harvest.Fetcher),
		transformer:      harvest.NopTransformer{},
		schema:           harvest.DefaultSchema(),
		workers:          constants.DefaultImportWorkers,
		scheduleInterval: constants.DefaultScheduleInterval,
		harvestTimeout:   constants.HarvestTimeout,
	}
}

func (o *options) apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return err
		}
	}
	return nil
}

// WithStore sets the catalog store. Required.
func WithStore(s catalog.Store) Option {
	return func(o *options) error {
		o.store = s
		return nil
	}
}

// WithSources registers the sources to harvest. Source ids must be unique.
func WithSources(srcs ...harvest.Source) Option {
	return func(o *options) error {
		for _, src := range srcs {
			if err := src.Validate(); err != nil {
				return errors.NewValidationError("source", src.ID, err.Error())
			}
			for _, existing := range o.sources {
				if existing.ID == src.ID {
					return errors.NewValidationError("source", src.ID, "duplicate source id")
				}
			}
			o.sources = append(o.sources, src)
		}
		return nil
	}
}

// WithFetcher sets the fetcher shared by sources without their own.
func WithFetcher(f harvest.Fetcher) Option {
	return func(o *options) error {
		o.fetcher = f
		return nil
	}
}

// WithSourceFetcher sets the fetcher for one source, typically one carrying
// that source's credentials.
func WithSourceFetcher(sourceID string, f harvest.Fetcher) Option {
	return func(o *options) error {
		o.fetchers[sourceID] = f
		return nil
	}
}

// WithConverterOptions configures the DCAT converter.
func WithConverterOptions(opts ...convert.Option) Option {
	return func(o *options) error {
		o.convertOptions = append(o.convertOptions, opts...)
		return nil
	}
}

// WithTransformer sets the deployment hook run on every converted dataset.
func WithTransformer(t harvest.Transformer) Option {
	return func(o *options) error {
		o.transformer = t
		return nil
	}
}

// WithSchema sets the schema applied before datasets are written.
func WithSchema(s *harvest.Schema) Option {
	return func(o *options) error {
		o.schema = s
		return nil
	}
}

// WithObserver sets the observer notified of pages, gather failures and
// imports.
func WithObserver(obs harvest.Observer) Option {
	return func(o *options) error {
		o.observer = obs
		return nil
	}
}

// WithPublisher sets where job results and dataset events are announced.
func WithPublisher(p Publisher) Option {
	return func(o *options) error {
		o.publisher = p
		return nil
	}
}

// WithForceReimport reprocesses every record of every source.
func WithForceReimport(enabled bool) Option {
	return func(o *options) error {
		o.forceReimport = enabled
		return nil
	}
}

// WithWorkers sets how many operations are imported concurrently.
func WithWorkers(n int) Option {
	return func(o *options) error {
		if n < 1 {
			return errors.NewValidationError("workers", n, "must be at least 1")
		}
		o.workers = n
		return nil
	}
}

// WithMaxPages stops pagination after n pages. Zero means no limit.
func WithMaxPages(n int) Option {
	return func(o *options) error {
		if n < 0 {
			return errors.NewValidationError("maxPages", n, "must not be negative")
		}
		o.maxPages = n
		return nil
	}
}

// WithSchedule enables periodic harvesting of every source.
func WithSchedule(interval time.Duration) Option {
	return func(o *options) error {
		if interval <= 0 {
			return errors.NewValidationError("scheduleInterval", interval, "must be positive")
		}
		o.scheduleEnabled = true
		o.scheduleInterval = interval
		return nil
	}
}

// WithHarvestTimeout bounds each scheduled harvest cycle.
func WithHarvestTimeout(d time.Duration) Option {
	return func(o *options) error {
		o.harvestTimeout = d
		return nil
	}
}
