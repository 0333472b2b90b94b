package errors_test

import (
	"errors"
	"fmt"
	"testing"

	pkgerrors "github.com/agentstation/harvester/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	err := pkgerrors.New("test error")
	assert.NotNil(t, err)
	assert.Equal(t, "test error", err.Error())
}

func TestNotFoundError(t *testing.T) {
	t.Run("basic error", func(t *testing.T) {
		err := &pkgerrors.NotFoundError{Resource: "dataset", ID: "abc-1"}
		assert.Equal(t, "dataset with ID abc-1 not found", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrNotFound))
	})

	t.Run("wrapped error", func(t *testing.T) {
		base := pkgerrors.NewNotFoundError("organization", "met-eireann")
		wrapped := errors.Join(errors.New("failed"), base)
		assert.True(t, pkgerrors.IsNotFound(wrapped))
	})
}

func TestAlreadyExistsError(t *testing.T) {
	err := pkgerrors.NewAlreadyExistsError("organization", "met-eireann")
	assert.Equal(t, "organization with ID met-eireann already exists", err.Error())
	assert.True(t, pkgerrors.IsAlreadyExists(fmt.Errorf("create: %w", err)))
	assert.False(t, pkgerrors.IsNotFound(err))
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := pkgerrors.NewValidationError("tags", nil, "at least one tag is required")
		assert.Equal(t, "validation failed for field tags: at least one tag is required", err.Error())
		assert.True(t, errors.Is(err, pkgerrors.ErrInvalidInput))
	})

	t.Run("without field", func(t *testing.T) {
		err := &pkgerrors.ValidationError{Message: "bad record"}
		assert.Equal(t, "validation failed: bad record", err.Error())
		assert.True(t, pkgerrors.IsValidationError(err))
	})
}

func TestFetchError(t *testing.T) {
	tests := []struct {
		name     string
		err      *pkgerrors.FetchError
		sentinel error
		contains string
	}{
		{
			name:     "not found",
			err:      pkgerrors.NewFetchError(pkgerrors.FetchNotFound, "http://x/data.json", 1, nil),
			sentinel: pkgerrors.ErrNotFound,
			contains: "not found",
		},
		{
			name:     "too large",
			err:      &pkgerrors.FetchError{Kind: pkgerrors.FetchTooLarge, URL: "http://x/big.json", Page: 1, Reason: "60000000 bytes"},
			sentinel: pkgerrors.ErrTooLarge,
			contains: "too big",
		},
		{
			name:     "timeout",
			err:      pkgerrors.NewFetchError(pkgerrors.FetchTimeout, "http://x", 2, nil),
			sentinel: pkgerrors.ErrTimeout,
			contains: "timed out",
		},
		{
			name:     "connection",
			err:      pkgerrors.NewFetchError(pkgerrors.FetchConnection, "http://x", 1, errors.New("refused")),
			sentinel: pkgerrors.ErrUnavailable,
			contains: "refused",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, errors.Is(tt.err, tt.sentinel))
			assert.Contains(t, tt.err.Error(), tt.contains)
			assert.Equal(t, tt.err.Kind, pkgerrors.FetchKind(fmt.Errorf("wrap: %w", tt.err)))
		})
	}

	t.Run("http status", func(t *testing.T) {
		err := &pkgerrors.FetchError{Kind: pkgerrors.FetchHTTP, URL: "http://x", Page: 1, StatusCode: 500, Reason: "Internal Server Error"}
		assert.Contains(t, err.Error(), "500 Internal Server Error")
		assert.False(t, errors.Is(err, pkgerrors.ErrNotFound))
	})

	t.Run("unwrap", func(t *testing.T) {
		cause := errors.New("dial tcp: refused")
		err := pkgerrors.NewFetchError(pkgerrors.FetchConnection, "http://x", 1, cause)
		assert.ErrorIs(t, err, cause)
	})
}

func TestIsEndOfPages(t *testing.T) {
	assert.False(t, pkgerrors.IsEndOfPages(nil))
	assert.False(t, pkgerrors.IsEndOfPages(errors.New("other")))
	assert.False(t, pkgerrors.IsEndOfPages(pkgerrors.NewFetchError(pkgerrors.FetchNotFound, "u", 1, nil)))
	assert.True(t, pkgerrors.IsEndOfPages(pkgerrors.NewFetchError(pkgerrors.FetchNotFound, "u", 4, nil)))
	assert.False(t, pkgerrors.IsEndOfPages(pkgerrors.NewFetchError(pkgerrors.FetchHTTP, "u", 4, nil)))
}

func TestConversionError(t *testing.T) {
	cause := errors.New(`parsing time "soon"`)
	err := pkgerrors.NewConversionError("abc-1", "issued", "invalid date", cause)
	assert.Equal(t, `cannot convert record "abc-1": field issued: invalid date`, err.Error())
	assert.True(t, pkgerrors.IsConversionError(err))
	assert.ErrorIs(t, err, pkgerrors.ErrInvalidInput)
	assert.ErrorIs(t, err, cause)
}

func TestGatherError(t *testing.T) {
	cause := pkgerrors.NewFetchError(pkgerrors.FetchHTTP, "http://x", 1, nil)
	err := &pkgerrors.GatherError{Source: "met", Page: 1, Err: cause}
	var f *pkgerrors.FetchError
	require.True(t, errors.As(err, &f))
	assert.Equal(t, pkgerrors.FetchHTTP, f.Kind)
	assert.Contains(t, err.Error(), "source met")
}

func TestWrapHelpers(t *testing.T) {
	assert.NoError(t, pkgerrors.WrapIO("read", "/tmp/x", nil))
	assert.NoError(t, pkgerrors.WrapResource("create", "dataset", "x", nil))
	assert.NoError(t, pkgerrors.WrapParse("json", "x", nil))
	assert.NoError(t, pkgerrors.WrapValidation("x", nil))

	cause := errors.New("boom")
	err := pkgerrors.WrapResource("create", "dataset", "abc", cause)
	assert.Equal(t, "failed to create dataset abc: boom", err.Error())
	assert.ErrorIs(t, err, cause)

	err = pkgerrors.WrapIO("open", "/etc/sources.yaml", cause)
	assert.Equal(t, "IO error during open of /etc/sources.yaml: boom", err.Error())

	err = pkgerrors.WrapParse("json", "page.json", cause)
	assert.Equal(t, "error parsing json file page.json: boom", err.Error())
}
