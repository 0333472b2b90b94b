package harvest_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/agentstation/harvester/internal/store/memory"
	"github.com/agentstation/harvester/pkg/convert"
	"github.com/agentstation/harvester/pkg/errors"
	"github.com/agentstation/harvester/pkg/harvest"
)

// pagedFeed serves fixed pages; pages past the end answer 404.
type pagedFeed struct {
	mu     sync.Mutex
	pages  map[int]string
	errs   map[int]error
	calls  []int
	repeat string // served for every page when set
}

func (f *pagedFeed) Fetch(_ context.Context, locator string, page int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, page)
	if err, ok := f.errs[page]; ok {
		return nil, err
	}
	if f.repeat != "" {
		return []byte(f.repeat), nil
	}
	body, ok := f.pages[page]
	if !ok {
		return nil, errors.NewFetchError(errors.FetchNotFound, locator, page, nil)
	}
	return []byte(body), nil
}

func (f *pagedFeed) fetches() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.calls...)
}

// record renders a DCAT record that converts cleanly.
func record(id, title string) string {
	return fmt.Sprintf(`{"identifier":%q,"title":%q,"issued":"2020-01-15","publisher":{"name":"Met Éireann","mbox":"info@met.ie"},"keyword":["weather"]}`, id, title)
}

func page(records ...string) string {
	return "[" + strings.Join(records, ",") + "]"
}

func newConverter(t *testing.T) *convert.Converter {
	t.Helper()
	c, err := convert.New()
	require.NoError(t, err)
	return c
}

var testSource = harvest.Source{ID: "src", URL: "https://example.org/data.json"}

// collectingObserver records observer callbacks.
type collectingObserver struct {
	mu       sync.Mutex
	pages    []int
	failures []error
	imported map[harvest.OperationKind]int
	failed   int
}

func (o *collectingObserver) PageFetched(_ string, page, _ int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pages = append(o.pages, page)
}

func (o *collectingObserver) GatherFailed(_ string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.failures = append(o.failures, err)
}

func (o *collectingObserver) Imported(_ string, kind harvest.OperationKind, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if err != nil {
		o.failed++
		return
	}
	if o.imported == nil {
		o.imported = make(map[harvest.OperationKind]int)
	}
	o.imported[kind]++
}

// seed records current identities without digests, so their records
// always compare as changed.
func seed(t *testing.T, store *memory.Store, known map[string]string) {
	t.Helper()
	for ident, id := range known {
		require.NoError(t, store.Identities().RecordCurrent(context.Background(), testSource.ID, ident, id, ""))
	}
}

// knownDatasets returns identifier -> dataset id for the current identities.
func knownDatasets(t *testing.T, store *memory.Store) map[string]string {
	t.Helper()
	known, err := store.Identities().FindBySource(context.Background(), testSource.ID)
	require.NoError(t, err)
	out := make(map[string]string, len(known))
	for ident, id := range known {
		out[ident] = id.DatasetID
	}
	return out
}
