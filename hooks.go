package harvester

import (
	"sync"

	"github.com/agentstation/harvester/pkg/harvest"
)

// Compile-time interface check to ensure proper implementation.
var _ Hooks = (*client)(nil)

// Hook function types for harvest events
type (
	// DatasetCreatedHook is called after a dataset is created
	DatasetCreatedHook func(sourceID string, applied *harvest.Applied)

	// DatasetUpdatedHook is called after a dataset is updated
	DatasetUpdatedHook func(sourceID string, applied *harvest.Applied)

	// DatasetDeletedHook is called after a dataset is deleted
	DatasetDeletedHook func(sourceID string, applied *harvest.Applied)

	// GatherErrorHook is called when a gather phase aborts
	GatherErrorHook func(sourceID string, err error)

	// JobFinishedHook is called with the result of every harvest cycle
	JobFinishedHook func(result *harvest.Result)
)

// Hooks provides event callback registration.
type Hooks interface {
	OnDatasetCreated(DatasetCreatedHook)
	OnDatasetUpdated(DatasetUpdatedHook)
	OnDatasetDeleted(DatasetDeletedHook)
	OnGatherError(GatherErrorHook)
	OnJobFinished(JobFinishedHook)
}

// hooks manages event callbacks. Callbacks run on the importing goroutine
// and must not block.
type hooks struct {
	mu               sync.RWMutex
	onDatasetCreated []DatasetCreatedHook
	onDatasetUpdated []DatasetUpdatedHook
	onDatasetDeleted []DatasetDeletedHook
	onGatherError    []GatherErrorHook
	onJobFinished    []JobFinishedHook
}

func newHooks() *hooks {
	return &hooks{}
}

// OnDatasetCreated registers a callback for created datasets.
func (c *client) OnDatasetCreated(fn DatasetCreatedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onDatasetCreated = append(c.hooks.onDatasetCreated, fn)
}

// OnDatasetUpdated registers a callback for updated datasets.
func (c *client) OnDatasetUpdated(fn DatasetUpdatedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onDatasetUpdated = append(c.hooks.onDatasetUpdated, fn)
}

// OnDatasetDeleted registers a callback for deleted datasets.
func (c *client) OnDatasetDeleted(fn DatasetDeletedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onDatasetDeleted = append(c.hooks.onDatasetDeleted, fn)
}

// OnGatherError registers a callback for aborted gather phases.
func (c *client) OnGatherError(fn GatherErrorHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onGatherError = append(c.hooks.onGatherError, fn)
}

// OnJobFinished registers a callback for finished harvest cycles.
func (c *client) OnJobFinished(fn JobFinishedHook) {
	c.hooks.mu.Lock()
	defer c.hooks.mu.Unlock()
	c.hooks.onJobFinished = append(c.hooks.onJobFinished, fn)
}

// triggerApplied dispatches an applied operation to the hooks of its kind.
func (h *hooks) triggerApplied(sourceID string, a *harvest.Applied) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	switch a.Kind {
	case harvest.Create:
		for _, hook := range h.onDatasetCreated {
			hook(sourceID, a)
		}
	case harvest.Update:
		for _, hook := range h.onDatasetUpdated {
			hook(sourceID, a)
		}
	case harvest.Delete:
		for _, hook := range h.onDatasetDeleted {
			hook(sourceID, a)
		}
	}
}

func (h *hooks) triggerGatherError(sourceID string, err error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, hook := range h.onGatherError {
		hook(sourceID, err)
	}
}

func (h *hooks) triggerJobFinished(r *harvest.Result) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, hook := range h.onJobFinished {
		hook(r)
	}
}
