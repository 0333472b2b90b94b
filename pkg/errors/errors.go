// Package errors provides custom error types for the harvester.
// These errors enable programmatic classification of failures so that
// callers can tell a cycle-aborting fetch failure from a per-record
// conversion problem without string matching.
package errors

import (
	"errors"
	"fmt"
)

// New returns an error that formats as the given text.
// It's an alias for the standard library errors.New for convenience.
var New = errors.New

// Is reports whether any error in err's tree matches target.
var Is = errors.Is

// As finds the first error in err's tree that matches target.
var As = errors.As

// Join returns an error that wraps the given errors.
var Join = errors.Join

// Common sentinel errors for the harvester
var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists indicates that a resource already exists
	ErrAlreadyExists = errors.New("already exists")

	// ErrInvalidInput indicates that provided input was invalid
	ErrInvalidInput = errors.New("invalid input")

	// ErrTooLarge indicates that a remote document exceeds the size ceiling
	ErrTooLarge = errors.New("too large")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrCanceled indicates that an operation was canceled
	ErrCanceled = errors.New("operation canceled")

	// ErrUnavailable indicates that a remote host could not be reached
	ErrUnavailable = errors.New("unavailable")
)

// NotFoundError represents an error when a resource is not found
type NotFoundError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID %s not found", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// AlreadyExistsError represents an attempt to create a resource twice.
type AlreadyExistsError struct {
	Resource string
	ID       string
}

// Error implements the error interface
func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s with ID %s already exists", e.Resource, e.ID)
}

// Is implements errors.Is support
func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// NewAlreadyExistsError creates a new AlreadyExistsError
func NewAlreadyExistsError(resource, id string) *AlreadyExistsError {
	return &AlreadyExistsError{Resource: resource, ID: id}
}

// ValidationError represents a record rejected by the catalog schema.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// Is implements errors.Is support
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Message: message}
}

// FetchErrorKind classifies a failed page retrieval.
type FetchErrorKind string

const (
	// FetchNotFound is a missing local file or an HTTP 404.
	FetchNotFound FetchErrorKind = "not_found"
	// FetchTooLarge is a document above the configured size ceiling.
	FetchTooLarge FetchErrorKind = "too_large"
	// FetchHTTP is any other non-2xx HTTP status.
	FetchHTTP FetchErrorKind = "http"
	// FetchConnection is a transport level failure (DNS, refused, reset).
	FetchConnection FetchErrorKind = "connection"
	// FetchTimeout is a request that exceeded its deadline.
	FetchTimeout FetchErrorKind = "timeout"
)

// FetchError represents a failure to retrieve one page of a remote feed.
type FetchError struct {
	Kind       FetchErrorKind
	URL        string
	Page       int
	StatusCode int
	Reason     string
	Err        error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	switch e.Kind {
	case FetchNotFound:
		return fmt.Sprintf("could not get content for %s (page %d): not found", e.URL, e.Page)
	case FetchTooLarge:
		return fmt.Sprintf("remote file %s is too big: %s", e.URL, e.Reason)
	case FetchHTTP:
		return fmt.Sprintf("could not get content for %s (page %d): server responded with %d %s", e.URL, e.Page, e.StatusCode, e.Reason)
	case FetchTimeout:
		return fmt.Sprintf("could not get content for %s (page %d): the connection timed out", e.URL, e.Page)
	default:
		if e.Err != nil {
			return fmt.Sprintf("could not get content for %s (page %d): connection error: %v", e.URL, e.Page, e.Err)
		}
		return fmt.Sprintf("could not get content for %s (page %d): %s", e.URL, e.Page, e.Reason)
	}
}

// Unwrap implements errors.Unwrap
func (e *FetchError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *FetchError) Is(target error) bool {
	switch e.Kind {
	case FetchNotFound:
		return target == ErrNotFound
	case FetchTooLarge:
		return target == ErrTooLarge
	case FetchTimeout:
		return target == ErrTimeout
	case FetchConnection:
		return target == ErrUnavailable
	}
	return false
}

// NewFetchError creates a new FetchError
func NewFetchError(kind FetchErrorKind, url string, page int, err error) *FetchError {
	return &FetchError{Kind: kind, URL: url, Page: page, Err: err}
}

// ParseError represents an error when parsing data formats
type ParseError struct {
	Format  string // "json", "yaml", ...
	File    string
	Page    int
	Message string
	Err     error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.File != "" && e.Page > 0 {
		return fmt.Sprintf("error parsing %s page %d of %s: %s", e.Format, e.Page, e.File, e.Message)
	}
	if e.File != "" {
		return fmt.Sprintf("error parsing %s file %s: %s", e.Format, e.File, e.Message)
	}
	return fmt.Sprintf("%s parse error: %s", e.Format, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ParseError) Unwrap() error {
	return e.Err
}

// NewParseError creates a new ParseError
func NewParseError(format, file string, message string, err error) *ParseError {
	return &ParseError{
		Format:  format,
		File:    file,
		Message: message,
		Err:     err,
	}
}

// ConversionError represents a remote record that cannot be mapped to the
// local model, e.g. a missing issued date.
type ConversionError struct {
	Identifier string
	Field      string
	Message    string
	Err        error
}

// Error implements the error interface
func (e *ConversionError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("cannot convert record %q: field %s: %s", e.Identifier, e.Field, e.Message)
	}
	return fmt.Sprintf("cannot convert record %q: %s", e.Identifier, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConversionError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is support
func (e *ConversionError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewConversionError creates a new ConversionError
func NewConversionError(identifier, field, message string, err error) *ConversionError {
	return &ConversionError{Identifier: identifier, Field: field, Message: message, Err: err}
}

// OrganizationError represents a failure to find or create the owning
// organization of a dataset.
type OrganizationError struct {
	Slug string
	Err  error
}

// Error implements the error interface
func (e *OrganizationError) Error() string {
	return fmt.Sprintf("cannot resolve organization %s: %v", e.Slug, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *OrganizationError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError
func NewConfigError(component, message string, err error) *ConfigError {
	return &ConfigError{
		Component: component,
		Message:   message,
		Err:       err,
	}
}

// GatherError represents an aborted gather cycle. It is reported against
// the cycle, never against an individual dataset.
type GatherError struct {
	Source string
	Page   int
	Err    error
}

// Error implements the error interface
func (e *GatherError) Error() string {
	return fmt.Sprintf("gather aborted for source %s at page %d: %v", e.Source, e.Page, e.Err)
}

// Unwrap implements errors.Unwrap
func (e *GatherError) Unwrap() error {
	return e.Err
}

// IOError represents an error during I/O operations
type IOError struct {
	Operation string // "read", "write", "open", ...
	Path      string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *IOError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("IO error during %s of %s: %s", e.Operation, e.Path, e.Message)
	}
	return fmt.Sprintf("IO error during %s: %s", e.Operation, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError
func NewIOError(operation, path string, err error) *IOError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &IOError{
		Operation: operation,
		Path:      path,
		Message:   message,
		Err:       err,
	}
}

// ResourceError represents an error during catalog resource operations
type ResourceError struct {
	Operation string // "create", "update", "delete", "lookup"
	Resource  string // "dataset", "organization", "identity"
	ID        string
	Message   string
	Err       error
}

// Error implements the error interface
func (e *ResourceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("failed to %s %s %s: %s", e.Operation, e.Resource, e.ID, e.Message)
	}
	return fmt.Sprintf("failed to %s %s: %s", e.Operation, e.Resource, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *ResourceError) Unwrap() error {
	return e.Err
}

// NewResourceError creates a new ResourceError
func NewResourceError(operation, resource, id string, err error) *ResourceError {
	message := ""
	if err != nil {
		message = err.Error()
	}
	return &ResourceError{
		Operation: operation,
		Resource:  resource,
		ID:        id,
		Message:   message,
		Err:       err,
	}
}

// Helper functions for error checking

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsConversionError checks if an error is a conversion error
func IsConversionError(err error) bool {
	var c *ConversionError
	return errors.As(err, &c)
}

// IsTooLarge checks if an error is a size ceiling error
func IsTooLarge(err error) bool {
	return errors.Is(err, ErrTooLarge)
}

// IsTimeout checks if an error is a timeout error
func IsTimeout(err error) bool {
	return errors.Is(err, ErrTimeout)
}

// IsCanceled checks if an error is a cancellation error
func IsCanceled(err error) bool {
	return errors.Is(err, ErrCanceled)
}

// IsEndOfPages reports whether err is the 404 a paginated feed returns once
// it runs out of pages. A 404 on the first page is a genuine failure.
func IsEndOfPages(err error) bool {
	var f *FetchError
	if !errors.As(err, &f) {
		return false
	}
	return f.Kind == FetchNotFound && f.Page > 1
}

// FetchKind returns the kind of a FetchError in err's tree, or "".
func FetchKind(err error) FetchErrorKind {
	var f *FetchError
	if errors.As(err, &f) {
		return f.Kind
	}
	return ""
}

// Helper wrapping functions for common patterns

// WrapValidation wraps an error as a ValidationError
func WrapValidation(field string, err error) error {
	if err == nil {
		return nil
	}
	return &ValidationError{Field: field, Message: err.Error()}
}

// WrapIO wraps an error as an IOError
func WrapIO(operation, path string, err error) error {
	if err == nil {
		return nil
	}
	return NewIOError(operation, path, err)
}

// WrapResource wraps an error as a ResourceError
func WrapResource(operation, resource, id string, err error) error {
	if err == nil {
		return nil
	}
	return NewResourceError(operation, resource, id, err)
}

// WrapParse wraps an error as a ParseError
func WrapParse(format, file string, err error) error {
	if err == nil {
		return nil
	}
	return NewParseError(format, file, err.Error(), err)
}
