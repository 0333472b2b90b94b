// Package app provides the application context and dependency management
// for the harvester CLI. It centralizes configuration, dependency injection
// and lifecycle management.
package app

import (
	"context"
	"io"
	"net/http"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/agentstation/harvester"
	"github.com/agentstation/harvester/internal/cache"
	"github.com/agentstation/harvester/internal/config"
	"github.com/agentstation/harvester/internal/fetch"
	"github.com/agentstation/harvester/internal/metrics"
	"github.com/agentstation/harvester/internal/notify"
	"github.com/agentstation/harvester/internal/store/memory"
	"github.com/agentstation/harvester/internal/store/postgres"
	"github.com/agentstation/harvester/pkg/catalog"
	"github.com/agentstation/harvester/pkg/constants"
	"github.com/agentstation/harvester/pkg/convert"
	"github.com/agentstation/harvester/pkg/errors"
)

// App represents the harvester application with all its dependencies.
type App struct {
	// Version information
	version string
	commit  string
	date    string
	builtBy string

	// Configuration
	config *Config

	// Logger
	logger *zerolog.Logger

	metrics *metrics.Metrics

	// Command output, os.Stdout when nil
	out io.Writer

	// Lazily created dependencies, guarded by mu
	mu        sync.RWMutex
	harvester harvester.Client
	store     catalog.Store
	pool      *pgxpool.Pool
	publisher *notify.Publisher
	sources   *config.Sources
}

// New creates a new App instance with the given version information.
// The app is initialized with configuration loaded from the environment
// that can be customized using functional options.
func New(version, commit, date, builtBy string, opts ...Option) (*App, error) {
	app := &App{
		version: version,
		commit:  commit,
		date:    date,
		builtBy: builtBy,
		metrics: metrics.New(),
	}

	config, err := LoadConfig()
	if err != nil {
		return nil, errors.WrapResource("load", "config", "", err)
	}
	app.config = config

	logger := NewLogger(config)
	app.logger = &logger

	for _, opt := range opts {
		if err := opt(app); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// Version returns the version information.
func (a *App) Version() string {
	return a.version
}

// Commit returns the git commit hash.
func (a *App) Commit() string {
	return a.commit
}

// Date returns the build date.
func (a *App) Date() string {
	return a.date
}

// BuiltBy returns the build system identifier.
func (a *App) BuiltBy() string {
	return a.builtBy
}

// Config returns the application configuration.
func (a *App) Config() *Config {
	return a.config
}

// Logger returns the application logger.
func (a *App) Logger() *zerolog.Logger {
	return a.logger
}

// OutputFormat returns the configured output format.
func (a *App) OutputFormat() string {
	return a.config.Format
}

// Metrics returns the metrics collector shared by every harvester the app
// creates.
func (a *App) Metrics() *metrics.Metrics {
	return a.metrics
}

// MetricsAddr returns the listen address for the metrics endpoint.
func (a *App) MetricsAddr() string {
	return a.config.MetricsAddr
}

// Sources returns the source registry, loading it on first use.
func (a *App) Sources() (*config.Sources, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.loadSources()
}

func (a *App) loadSources() (*config.Sources, error) {
	if a.sources != nil {
		return a.sources, nil
	}
	s, err := config.LoadSources(a.config.SourcesFile)
	if err != nil {
		return nil, err
	}
	a.sources = s
	return s, nil
}

// Converter returns a DCAT converter configured from the app config.
func (a *App) Converter() (*convert.Converter, error) {
	return convert.New(a.converterOptions()...)
}

// Harvester returns the harvester, creating it lazily if needed. This is
// thread-safe and ensures only one default instance is created. Options
// produce a separate instance that shares the store, publisher and metrics
// of the default one.
func (a *App) Harvester(opts ...harvester.Option) (harvester.Client, error) {
	if len(opts) == 0 {
		a.mu.RLock()
		if a.harvester != nil {
			h := a.harvester
			a.mu.RUnlock()
			return h, nil
		}
		a.mu.RUnlock()
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	// Double-check after acquiring write lock
	if len(opts) == 0 && a.harvester != nil {
		return a.harvester, nil
	}

	base, err := a.harvesterOptions()
	if err != nil {
		return nil, err
	}
	h, err := harvester.New(append(base, opts...)...)
	if err != nil {
		return nil, errors.WrapResource("create", "harvester", "", err)
	}
	if len(opts) == 0 {
		a.harvester = h
	}
	return h, nil
}

// Migrate runs a goose migration command against the configured database.
func (a *App) Migrate(ctx context.Context, command string) error {
	if a.config.DatabaseURL == "" {
		return errors.NewConfigError("database", "DATABASE_URL is required for migrations", errors.ErrInvalidInput)
	}
	a.mu.Lock()
	pool, err := a.openPool(ctx)
	a.mu.Unlock()
	if err != nil {
		return err
	}
	return postgres.Migrate(ctx, pool, command)
}

// Shutdown performs graceful shutdown of the application. It stops the
// schedule, drains the publisher and closes the database pool.
func (a *App) Shutdown(ctx context.Context) error {
	a.mu.Lock()
	h, publisher, pool := a.harvester, a.publisher, a.pool
	a.publisher, a.pool = nil, nil
	a.mu.Unlock()

	if h != nil {
		if err := h.ScheduleOff(); err != nil {
			a.logger.Error().Err(err).Msg("Failed to stop schedule during shutdown")
		}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		if publisher != nil {
			publisher.Close()
		}
		if pool != nil {
			pool.Close()
		}
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.WrapResource("close", "connections", "", ctx.Err())
	}
}

// harvesterOptions constructs harvester options from the app configuration.
// Callers hold a.mu.
func (a *App) harvesterOptions() ([]harvester.Option, error) {
	store, err := a.catalogStore()
	if err != nil {
		return nil, err
	}
	sources, err := a.loadSources()
	if err != nil {
		return nil, err
	}

	opts := []harvester.Option{
		harvester.WithStore(store),
		harvester.WithConverterOptions(a.converterOptions()...),
		harvester.WithObserver(a.metrics),
		harvester.WithForceReimport(a.config.ForceReimport),
		harvester.WithHarvestTimeout(a.config.HarvestTimeout),
	}
	if a.config.Workers > 0 {
		opts = append(opts, harvester.WithWorkers(a.config.Workers))
	}
	if a.config.MaxPages > 0 {
		opts = append(opts, harvester.WithMaxPages(a.config.MaxPages))
	}

	for _, src := range sources.Sources {
		if src.RateLimit == 0 {
			src.RateLimit = a.config.FetchRate
		}
		client, err := src.Client()
		if err != nil {
			return nil, errors.NewConfigError("source "+src.ID, "invalid auth settings", err)
		}
		opts = append(opts,
			harvester.WithSources(src.Harvest()),
			harvester.WithSourceFetcher(src.ID, fetch.New(
				fetch.WithClient(client),
				fetch.WithMaxSize(a.config.MaxFileSize),
				fetch.WithChunkSize(a.config.ChunkSize),
			)),
		)
	}

	if a.config.NATSURL != "" {
		if a.publisher == nil {
			p, err := notify.Connect(a.config.NATSURL, a.config.NATSSubject)
			if err != nil {
				return nil, err
			}
			a.publisher = p
		}
		opts = append(opts, harvester.WithPublisher(a.publisher))
	}
	return opts, nil
}

// catalogStore returns the Postgres store when a database is configured and
// an in-memory store otherwise. Callers hold a.mu.
func (a *App) catalogStore() (catalog.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	if a.config.DatabaseURL == "" {
		a.logger.Warn().Msg("DATABASE_URL not set, harvested datasets are kept in memory only")
		a.store = memory.New()
		return a.store, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), constants.DefaultTimeout)
	defer cancel()
	pool, err := a.openPool(ctx)
	if err != nil {
		return nil, err
	}
	a.store = postgres.New(pool, a.config.DatabaseTimeout)
	return a.store, nil
}

// openPool connects once and reuses the pool. Callers hold a.mu.
func (a *App) openPool(ctx context.Context) (*pgxpool.Pool, error) {
	if a.pool != nil {
		return a.pool, nil
	}
	pool, err := postgres.Open(ctx, a.config.DatabaseURL)
	if err != nil {
		return nil, err
	}
	a.pool = pool
	return pool, nil
}

func (a *App) converterOptions() []convert.Option {
	var opts []convert.Option
	if a.config.FallbackPublisher != "" {
		opts = append(opts, convert.WithFallbackPublisher(a.config.FallbackPublisher))
	}
	if a.config.FallbackLanguage != "" {
		opts = append(opts, convert.WithFallbackLanguage(a.config.FallbackLanguage))
	}
	if a.config.FallbackTheme != "" {
		opts = append(opts, convert.WithFallbackTheme(a.config.FallbackTheme))
	}
	if a.config.LicenseLookup {
		timeout := a.config.LicenseLookupTimeout
		if timeout <= 0 {
			timeout = constants.LicenseLookupTimeout
		}
		resolver := convert.NewHTTPLicenseResolver(
			&http.Client{Timeout: timeout},
			timeout,
			cache.New[string](constants.LicenseCacheTTL, constants.CacheCleanupInterval),
		)
		opts = append(opts, convert.WithLicenseResolver(resolver))
	}
	return opts
}

// Option is a functional option for configuring the App.
type Option func(*App) error

// WithConfig sets a custom configuration.
func WithConfig(config *Config) Option {
	return func(a *App) error {
		a.config = config
		return nil
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(a *App) error {
		a.logger = logger
		return nil
	}
}

// WithStore sets the catalog store (useful for testing).
func WithStore(store catalog.Store) Option {
	return func(a *App) error {
		a.store = store
		return nil
	}
}

// WithSources sets the source registry instead of reading the sources file.
func WithSources(sources *config.Sources) Option {
	return func(a *App) error {
		if err := sources.Validate(); err != nil {
			return err
		}
		a.sources = sources
		return nil
	}
}

// WithOutput redirects command output.
func WithOutput(w io.Writer) Option {
	return func(a *App) error {
		a.out = w
		return nil
	}
}

// WithHarvester sets a custom harvester instance (useful for testing).
func WithHarvester(h harvester.Client) Option {
	return func(a *App) error {
		a.harvester = h
		return nil
	}
}
