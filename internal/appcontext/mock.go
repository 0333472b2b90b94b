package appcontext

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/agentstation/harvester"
	"github.com/agentstation/harvester/internal/config"
	"github.com/agentstation/harvester/internal/metrics"
	"github.com/agentstation/harvester/pkg/convert"
	"github.com/agentstation/harvester/pkg/logging"
)

var _ Interface = (*Mock)(nil)

// Mock provides a mock implementation of Interface for testing.
// Each method can be customized by setting the corresponding function field.
// If a function field is nil, the method returns a default/zero value.
//
// Example Usage:
//
//	mock := &appcontext.Mock{
//	    HarvesterFunc: func(...harvester.Option) (harvester.Client, error) {
//	        return harvester.New(harvester.WithStore(memory.New()))
//	    },
//	}
//	cmd := gather.NewCommand(mock)
type Mock struct {
	HarvesterFunc    func(opts ...harvester.Option) (harvester.Client, error)
	SourcesFunc      func() (*config.Sources, error)
	ConverterFunc    func() (*convert.Converter, error)
	MigrateFunc      func(ctx context.Context, command string) error
	MetricsFunc      func() *metrics.Metrics
	MetricsAddrFunc  func() string
	LoggerFunc       func() *zerolog.Logger
	OutputFormatFunc func() string
	VersionFunc      func() string
	CommitFunc       func() string
	DateFunc         func() string
	BuiltByFunc      func() string
}

// Harvester returns a harvester using the mock function or nil.
func (m *Mock) Harvester(opts ...harvester.Option) (harvester.Client, error) {
	if m.HarvesterFunc != nil {
		return m.HarvesterFunc(opts...)
	}
	return nil, nil
}

// Sources returns sources using the mock function or an empty registry.
func (m *Mock) Sources() (*config.Sources, error) {
	if m.SourcesFunc != nil {
		return m.SourcesFunc()
	}
	return &config.Sources{}, nil
}

// Converter returns a converter using the mock function or a default one.
func (m *Mock) Converter() (*convert.Converter, error) {
	if m.ConverterFunc != nil {
		return m.ConverterFunc()
	}
	return convert.New()
}

// Migrate runs the mock function or does nothing.
func (m *Mock) Migrate(ctx context.Context, command string) error {
	if m.MigrateFunc != nil {
		return m.MigrateFunc(ctx, command)
	}
	return nil
}

// Metrics returns metrics using the mock function or nil.
func (m *Mock) Metrics() *metrics.Metrics {
	if m.MetricsFunc != nil {
		return m.MetricsFunc()
	}
	return nil
}

// MetricsAddr returns the address using the mock function or "".
func (m *Mock) MetricsAddr() string {
	if m.MetricsAddrFunc != nil {
		return m.MetricsAddrFunc()
	}
	return ""
}

// Logger returns a logger using the mock function or a no-op logger.
func (m *Mock) Logger() *zerolog.Logger {
	if m.LoggerFunc != nil {
		return m.LoggerFunc()
	}
	return logging.NewNopLogger()
}

// OutputFormat returns the format using the mock function or "json".
func (m *Mock) OutputFormat() string {
	if m.OutputFormatFunc != nil {
		return m.OutputFormatFunc()
	}
	return "json"
}

// Version returns version using the mock function or "dev".
func (m *Mock) Version() string {
	if m.VersionFunc != nil {
		return m.VersionFunc()
	}
	return "dev"
}

// Commit returns commit using the mock function or "unknown".
func (m *Mock) Commit() string {
	if m.CommitFunc != nil {
		return m.CommitFunc()
	}
	return "unknown"
}

// Date returns date using the mock function or "unknown".
func (m *Mock) Date() string {
	if m.DateFunc != nil {
		return m.DateFunc()
	}
	return "unknown"
}

// BuiltBy returns builtBy using the mock function or "unknown".
func (m *Mock) BuiltBy() string {
	if m.BuiltByFunc != nil {
		return m.BuiltByFunc()
	}
	return "unknown"
}
