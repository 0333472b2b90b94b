package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey int

const (
	loggerKey contextKey = iota
	jobIDKey
)

// Correlation field names attached to harvest log lines.
const (
	FieldSource     = "source_id"
	FieldIdentifier = "identifier"
	FieldPage       = "page"
	FieldOperation  = "operation"
	FieldJob        = "job_id"
)

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	if logger == nil {
		logger = Default()
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the logger from context, or returns the default logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return Default()
	}
	if logger, ok := ctx.Value(loggerKey).(*zerolog.Logger); ok && logger != nil {
		return logger
	}
	return Default()
}

// Ctx is a shorter alias for FromContext.
func Ctx(ctx context.Context) *zerolog.Logger {
	return FromContext(ctx)
}

// WithFields adds structured fields to the logger in the context.
func WithFields(ctx context.Context, fields map[string]any) context.Context {
	logCtx := FromContext(ctx).With()
	for key, value := range fields {
		logCtx = addField(logCtx, key, value)
	}
	newLogger := logCtx.Logger()
	return WithLogger(ctx, &newLogger)
}

// WithField adds a single field to the logger in the context.
func WithField(ctx context.Context, key string, value any) context.Context {
	newLogger := addField(FromContext(ctx).With(), key, value).Logger()
	return WithLogger(ctx, &newLogger)
}

// WithSource tags log lines with the harvest source id.
func WithSource(ctx context.Context, sourceID string) context.Context {
	return WithField(ctx, FieldSource, sourceID)
}

// WithIdentifier tags log lines with a remote dataset identifier.
func WithIdentifier(ctx context.Context, identifier string) context.Context {
	return WithField(ctx, FieldIdentifier, identifier)
}

// WithPage tags log lines with the feed page number.
func WithPage(ctx context.Context, page int) context.Context {
	return WithField(ctx, FieldPage, page)
}

// WithOperation tags log lines with the pending operation kind.
func WithOperation(ctx context.Context, operation string) context.Context {
	return WithField(ctx, FieldOperation, operation)
}

// WithJob stores the job id and tags log lines with it.
func WithJob(ctx context.Context, jobID string) context.Context {
	ctx = context.WithValue(ctx, jobIDKey, jobID)
	return WithField(ctx, FieldJob, jobID)
}

// JobID extracts the job id from context.
func JobID(ctx context.Context) string {
	if id, ok := ctx.Value(jobIDKey).(string); ok {
		return id
	}
	return ""
}

// WithError adds an error to the context logger.
func WithError(ctx context.Context, err error) context.Context {
	if err == nil {
		return ctx
	}
	return WithField(ctx, "error", err)
}
