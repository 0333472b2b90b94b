package harvester_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentstation/harvester"
	"github.com/agentstation/harvester/internal/metrics"
	"github.com/agentstation/harvester/internal/store/memory"
	"github.com/agentstation/harvester/pkg/errors"
	"github.com/agentstation/harvester/pkg/harvest"
)

func record(id, title string) string {
	return fmt.Sprintf(`{"identifier":%q,"title":%q,"issued":"2020-01-15","publisher":"Met Éireann"}`, id, title)
}

// feedServer serves one page of records; later pages answer 404.
type feedServer struct {
	mu      sync.Mutex
	records []string
	status  int
}

func (f *feedServer) set(records ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = records
}

func (f *feedServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.status != 0 {
		w.WriteHeader(f.status)
		return
	}
	if r.URL.Query().Get("page") != "" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, "[%s]", strings.Join(f.records, ","))
}

func newHarvester(t *testing.T, feed *feedServer, opts ...harvester.Option) (harvester.Client, *memory.Store) {
	t.Helper()
	srv := httptest.NewServer(feed)
	t.Cleanup(srv.Close)

	store := memory.New()
	opts = append([]harvester.Option{
		harvester.WithStore(store),
		harvester.WithSources(harvest.Source{ID: "met", URL: srv.URL + "/data.json"}),
	}, opts...)
	h, err := harvester.New(opts...)
	require.NoError(t, err)
	return h, store
}

type recordingPublisher struct {
	mu       sync.Mutex
	results  []*harvest.Result
	datasets int
}

func (p *recordingPublisher) PublishResult(r *harvest.Result) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.results = append(p.results, r)
	return nil
}

func (p *recordingPublisher) PublishDataset(string, *harvest.Applied) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.datasets++
	return nil
}

func TestHarvestCycle(t *testing.T) {
	feed := &feedServer{}
	feed.set(record("a", "Rainfall"), record("b", "Wind"), `{"identifier":"bad","title":"Broken"}`)
	pub := &recordingPublisher{}
	m := metrics.New()
	h, store := newHarvester(t, feed, harvester.WithPublisher(pub), harvester.WithObserver(m), harvester.WithWorkers(2))

	var created, deleted atomic.Int32
	h.OnDatasetCreated(func(string, *harvest.Applied) { created.Add(1) })
	h.OnDatasetDeleted(func(string, *harvest.Applied) { deleted.Add(1) })

	result, err := h.Harvest(context.Background(), "met")
	require.NoError(t, err)
	assert.Equal(t, harvest.StatusCompleted, result.Status)
	assert.Equal(t, harvest.Counts{Create: 3}, result.Planned)
	assert.Equal(t, 2, result.Applied.Create)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "bad", result.Errors[0].Identifier)
	assert.Equal(t, int32(2), created.Load())
	assert.Len(t, store.List(), 2)

	// second cycle: one record vanished, one edited
	feed.set(record("a", "Rainfall Daily"))
	result, err = h.Harvest(context.Background(), "met")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Applied.Update)
	assert.Equal(t, 1, result.Applied.Delete)
	assert.Equal(t, int32(1), deleted.Load())
	assert.Len(t, store.List(), 1)

	assert.Len(t, pub.results, 2)
	assert.Equal(t, 4, pub.datasets)
}

func TestGatherAfterHarvest(t *testing.T) {
	feed := &feedServer{}
	feed.set(record("a", "Rainfall"), record("b", "Wind"))
	h, store := newHarvester(t, feed)
	_, err := h.Harvest(context.Background(), "met")
	require.NoError(t, err)

	ops, err := h.Gather(context.Background(), "met")
	require.NoError(t, err)
	assert.Empty(t, ops, "unchanged feed")

	forced, err := harvester.New(
		harvester.WithStore(store),
		harvester.WithSources(h.Sources()...),
		harvester.WithForceReimport(true),
	)
	require.NoError(t, err)
	ops, err = forced.Gather(context.Background(), "met")
	require.NoError(t, err)
	assert.Equal(t, harvest.Counts{Update: 2}, harvest.Count(ops))
}

func TestHarvestGatherFailure(t *testing.T) {
	feed := &feedServer{status: http.StatusInternalServerError}
	h, store := newHarvester(t, feed)

	var gatherErrs atomic.Int32
	h.OnGatherError(func(string, error) { gatherErrs.Add(1) })
	var finished atomic.Int32
	h.OnJobFinished(func(r *harvest.Result) { finished.Add(1) })

	result, err := h.Harvest(context.Background(), "met")
	require.Error(t, err)
	var ge *errors.GatherError
	assert.True(t, errors.As(err, &ge))
	assert.Equal(t, harvest.StatusFailed, result.Status)
	assert.NotEmpty(t, result.GatherErr)
	assert.Equal(t, int32(1), gatherErrs.Load())
	assert.Equal(t, int32(1), finished.Load())
	assert.Empty(t, store.List())
}

func TestHarvestUnknownSource(t *testing.T) {
	h, _ := newHarvester(t, &feedServer{})
	_, err := h.Harvest(context.Background(), "nope")
	assert.True(t, errors.IsNotFound(err))
}

func TestGatherAndImport(t *testing.T) {
	feed := &feedServer{}
	feed.set(record("a", "Rainfall"))
	h, store := newHarvester(t, feed)

	ops, err := h.Gather(context.Background(), "met")
	require.NoError(t, err)
	require.Len(t, ops, 1)
	assert.Equal(t, harvest.Create, ops[0].Kind)

	applied, err := h.Import(context.Background(), ops[0])
	require.NoError(t, err)
	assert.Equal(t, "rainfall", applied.Name)
	assert.Len(t, store.List(), 1)
}

func TestHarvestAll(t *testing.T) {
	good := &feedServer{}
	good.set(record("a", "A"))
	bad := &feedServer{status: http.StatusNotFound}
	goodSrv := httptest.NewServer(good)
	defer goodSrv.Close()
	badSrv := httptest.NewServer(bad)
	defer badSrv.Close()

	h, err := harvester.New(
		harvester.WithStore(memory.New()),
		harvester.WithSources(
			harvest.Source{ID: "bad", URL: badSrv.URL},
			harvest.Source{ID: "good", URL: goodSrv.URL},
		),
	)
	require.NoError(t, err)

	results, err := h.HarvestAll(context.Background())
	require.Error(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, harvest.StatusFailed, results[0].Status)
	assert.Equal(t, harvest.StatusCompleted, results[1].Status)
}

func TestNewValidatesOptions(t *testing.T) {
	_, err := harvester.New()
	require.Error(t, err, "store is required")

	_, err = harvester.New(harvester.WithStore(memory.New()), harvester.WithWorkers(0))
	assert.True(t, errors.IsValidationError(err))

	_, err = harvester.New(harvester.WithStore(memory.New()),
		harvester.WithSources(harvest.Source{ID: "a", URL: "x"}, harvest.Source{ID: "a", URL: "y"}))
	assert.True(t, errors.IsValidationError(err))
}

func TestSchedule(t *testing.T) {
	feed := &feedServer{}
	feed.set(record("a", "A"))

	var runs atomic.Int32
	h, _ := newHarvester(t, feed, harvester.WithSchedule(20*time.Millisecond))
	h.OnJobFinished(func(*harvest.Result) { runs.Add(1) })
	defer func() { _ = h.ScheduleOff() }()

	assert.Eventually(t, func() bool { return runs.Load() >= 2 }, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, h.ScheduleOff())
	require.NoError(t, h.ScheduleOff(), "stopping twice is fine")
	require.NoError(t, h.ScheduleOn())
}
