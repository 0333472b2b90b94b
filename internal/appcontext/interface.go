// Package appcontext provides the shared application context interface
// used by all commands. Commands accept this interface rather than the
// concrete App type so they can be tested with Mock.
package appcontext

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/harvester"
	"github.com/agentstation/harvester/internal/config"
	"github.com/agentstation/harvester/internal/metrics"
	"github.com/agentstation/harvester/pkg/convert"
)

// Interface defines the application context interface that commands need.
type Interface interface {
	// Harvester returns the default harvester, creating it lazily if needed.
	// With options it returns a new harvester sharing the default store,
	// publisher and metrics.
	Harvester(opts ...harvester.Option) (harvester.Client, error)

	// Sources returns the source registry loaded from the sources file.
	Sources() (*config.Sources, error)

	// Converter returns a DCAT converter configured from the app config.
	Converter() (*convert.Converter, error)

	// Migrate runs a schema migration command against the database.
	Migrate(ctx context.Context, command string) error

	// Metrics returns the metrics collector.
	Metrics() *metrics.Metrics

	// MetricsAddr returns the listen address for the metrics endpoint.
	MetricsAddr() string

	// Logger returns the configured logger instance.
	Logger() *zerolog.Logger

	// OutputFormat returns the configured output format (json, yaml, table).
	OutputFormat() string

	// Version returns the application version string.
	Version() string

	// Commit returns the git commit hash.
	Commit() string

	// Date returns the build date.
	Date() string

	// BuiltBy returns the build system identifier.
	BuiltBy() string
}
