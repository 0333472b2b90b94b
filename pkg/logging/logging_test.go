package logging_test

import (
	"context"
	"errors"
	"testing"

	"github.com/agentstation/harvester/pkg/logging"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLogger(t *testing.T) {
	require.NotNil(t, logging.Default())
	assert.NotNil(t, logging.Info())
}

func TestFromContext(t *testing.T) {
	t.Run("falls back to default", func(t *testing.T) {
		assert.Equal(t, logging.Default(), logging.FromContext(context.Background()))
	})

	t.Run("returns stored logger", func(t *testing.T) {
		tl := logging.NewTestLogger(t)
		ctx := logging.WithLogger(context.Background(), tl.Logger)
		assert.Equal(t, tl.Logger, logging.Ctx(ctx))
	})
}

func TestCorrelationFields(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)
	ctx = logging.WithSource(ctx, "met")
	ctx = logging.WithPage(ctx, 3)
	ctx = logging.WithIdentifier(ctx, "abc-1")
	ctx = logging.WithOperation(ctx, "create")
	ctx = logging.WithJob(ctx, "job-42")

	logging.FromContext(ctx).Info().Msg("imported")

	assert.Equal(t, 1, tl.Count())
	assert.True(t, tl.ContainsAll(
		`"source_id":"met"`,
		`"page":3`,
		`"identifier":"abc-1"`,
		`"operation":"create"`,
		`"job_id":"job-42"`,
		`"message":"imported"`,
	))
	assert.Equal(t, "job-42", logging.JobID(ctx))
}

func TestWithFieldsAndError(t *testing.T) {
	tl := logging.NewTestLogger(t)
	ctx := logging.WithLogger(context.Background(), tl.Logger)
	ctx = logging.WithFields(ctx, map[string]any{"count": 2, "ok": true})
	ctx = logging.WithError(ctx, errors.New("boom"))
	assert.Equal(t, ctx, logging.WithError(ctx, nil))

	logging.FromContext(ctx).Warn().Msg("partial")
	assert.True(t, tl.ContainsAll(`"count":2`, `"ok":true`, `"error":"boom"`))
}

func TestNewLoggerFromConfig(t *testing.T) {
	t.Cleanup(func() { zerolog.SetGlobalLevel(zerolog.InfoLevel) })

	logger := logging.NewLoggerFromConfig(&logging.Config{
		Level:  "warning",
		Format: "json",
		Output: "discard",
		Fields: map[string]any{"app": "harvester"},
	})
	assert.Equal(t, zerolog.WarnLevel, logger.GetLevel())

	logger = logging.NewLoggerFromConfig(&logging.Config{Level: "nonsense", Output: "discard"})
	assert.Equal(t, zerolog.InfoLevel, logger.GetLevel())
}

func TestCaptureLoggingForTest(t *testing.T) {
	tl := logging.CaptureLoggingForTest(t)
	logging.Warn().Str("identifier", "x").Msg("captured")
	assert.True(t, tl.Contains("captured"))
}

func TestConfigure(t *testing.T) {
	original := *logging.Default()
	t.Cleanup(func() {
		logging.SetDefault(original)
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	})

	logging.Configure(&logging.Config{Level: "error", Format: "json", Output: "discard"})
	assert.Equal(t, zerolog.ErrorLevel, logging.Default().GetLevel())
}

func TestNewNopLogger(t *testing.T) {
	logger := logging.NewNopLogger()
	require.NotNil(t, logger)
	assert.Equal(t, zerolog.Disabled, logger.GetLevel())
}
