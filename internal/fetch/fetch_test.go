package fetch_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/harvester/internal/fetch"
	"github.com/agentstation/harvester/internal/transport"
	"github.com/agentstation/harvester/pkg/errors"
)

func newFetcher(srv *httptest.Server, opts ...fetch.Option) *fetch.Fetcher {
	opts = append([]fetch.Option{fetch.WithClient(transport.New(transport.WithHTTPClient(srv.Client())))}, opts...)
	return fetch.New(opts...)
}

func requireKind(t *testing.T, err error, kind errors.FetchErrorKind) *errors.FetchError {
	t.Helper()
	require.Error(t, err)
	var fe *errors.FetchError
	require.True(t, errors.As(err, &fe), "expected FetchError, got %T: %v", err, err)
	assert.Equal(t, kind, fe.Kind)
	return fe
}

func TestPageURL(t *testing.T) {
	tests := []struct {
		locator string
		page    int
		want    string
	}{
		{"http://x/data.json", 1, "http://x/data.json"},
		{"http://x/data.json", 2, "http://x/data.json?page=2"},
		{"http://x/data.json?f=json", 3, "http://x/data.json?f=json&page=3"},
		{"http://x/data.json?", 2, "http://x/data.json?page=2"},
		{"http://x/data.json#top", 2, "http://x/data.json?page=2#top"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, fetch.PageURL(tt.locator, tt.page))
	}
}

func TestFetchHTTP(t *testing.T) {
	var heads, gets atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			heads.Add(1)
		} else {
			gets.Add(1)
		}
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "json", r.URL.Query().Get("f"))
		_, _ = w.Write([]byte(`[{"identifier":"a"}]`))
	}))
	defer srv.Close()

	body, err := newFetcher(srv).Fetch(context.Background(), srv.URL+"/data.json?f=json", 2)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"identifier":"a"}]`, string(body))
	assert.Equal(t, int32(1), heads.Load())
	assert.Equal(t, int32(1), gets.Load())
}

func TestFetchTooLargeDeclared(t *testing.T) {
	var gets atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "60000000")
		if r.Method == http.MethodGet {
			gets.Add(1)
		}
	}))
	defer srv.Close()

	_, err := newFetcher(srv).Fetch(context.Background(), srv.URL, 1)
	requireKind(t, err, errors.FetchTooLarge)
	assert.True(t, errors.IsTooLarge(err))
	assert.Equal(t, int32(0), gets.Load(), "no body transferred")
}

func TestFetchTooLargeStreamed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		for i := 0; i < 10; i++ {
			_, _ = w.Write([]byte(strings.Repeat("x", 64)))
			w.(http.Flusher).Flush()
		}
	}))
	defer srv.Close()

	_, err := newFetcher(srv, fetch.WithMaxSize(100), fetch.WithChunkSize(16)).Fetch(context.Background(), srv.URL, 1)
	requireKind(t, err, errors.FetchTooLarge)
}

func TestFetchHeadFallback(t *testing.T) {
	for _, status := range []int{http.StatusMethodNotAllowed, http.StatusBadRequest} {
		var gets atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodHead {
				w.WriteHeader(status)
				return
			}
			gets.Add(1)
			_, _ = w.Write([]byte(`[]`))
		}))

		body, err := newFetcher(srv).Fetch(context.Background(), srv.URL, 1)
		require.NoError(t, err, "HEAD status %d", status)
		assert.Equal(t, "[]", string(body))
		assert.Equal(t, int32(1), gets.Load())
		srv.Close()
	}
}

func TestFetchNotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()
	f := newFetcher(srv)

	_, err := f.Fetch(context.Background(), srv.URL, 1)
	fe := requireKind(t, err, errors.FetchNotFound)
	assert.Equal(t, 1, fe.Page)
	assert.False(t, errors.IsEndOfPages(err))

	_, err = f.Fetch(context.Background(), srv.URL, 4)
	requireKind(t, err, errors.FetchNotFound)
	assert.True(t, errors.IsEndOfPages(err))
}

func TestFetchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newFetcher(srv).Fetch(context.Background(), srv.URL, 1)
	fe := requireKind(t, err, errors.FetchHTTP)
	assert.Equal(t, http.StatusBadGateway, fe.StatusCode)
	assert.Equal(t, "Bad Gateway", fe.Reason)
}

func TestFetchConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := fetch.New().Fetch(context.Background(), url, 1)
	requireKind(t, err, errors.FetchConnection)
}

func TestFetchTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	_, err := newFetcher(srv).Fetch(ctx, srv.URL, 1)
	requireKind(t, err, errors.FetchTimeout)
	assert.True(t, errors.IsTimeout(err))
}

func TestFetchLocalFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"identifier":"a"}]`), 0o644))

	f := fetch.New()
	body, err := f.Fetch(context.Background(), path, 1)
	require.NoError(t, err)
	assert.Equal(t, `[{"identifier":"a"}]`, string(body))

	body, err = f.Fetch(context.Background(), "file://"+path, 2)
	require.NoError(t, err)
	assert.NotEmpty(t, body)

	_, err = f.Fetch(context.Background(), filepath.Join(dir, "missing.json"), 1)
	requireKind(t, err, errors.FetchNotFound)

	_, err = fetch.New(fetch.WithMaxSize(4)).Fetch(context.Background(), path, 1)
	requireKind(t, err, errors.FetchTooLarge)
}
