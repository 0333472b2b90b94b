package harvester

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/agentstation/harvester/pkg/errors"
	"github.com/agentstation/harvester/pkg/logging"
)

// Compile-time interface check to ensure proper implementation.
var _ Scheduler = (*client)(nil)

// Scheduler provides controls for periodic harvests.
type Scheduler interface {
	// ScheduleOn harvests every source on the configured interval
	ScheduleOn() error

	// ScheduleOff stops periodic harvests
	ScheduleOff() error
}

// ScheduleOn starts harvesting every source on the configured interval.
func (c *client) ScheduleOn() error {
	if c.options.scheduleInterval <= 0 {
		return &errors.ValidationError{
			Field:   "scheduleInterval",
			Value:   c.options.scheduleInterval,
			Message: "schedule interval must be positive",
		}
	}

	// Stop any existing schedule to prevent resource leaks
	if err := c.ScheduleOff(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Recreate stopCh since it was closed in ScheduleOff
	c.stopCh = make(chan struct{})
	c.scheduleTicker = time.NewTicker(c.options.scheduleInterval)

	ctx, cancel := context.WithCancel(context.Background())
	c.scheduleCancel = cancel

	go c.runSchedule(ctx, c.scheduleTicker, c.stopCh)
	return nil
}

func (c *client) runSchedule(parentCtx context.Context, ticker *time.Ticker, stopCh <-chan struct{}) {
	for {
		select {
		case <-ticker.C:
			runCtx, cancel := context.WithTimeout(parentCtx, c.options.harvestTimeout)
			_, err := c.HarvestAll(runCtx)
			cancel()

			if err != nil {
				if stderrors.Is(err, context.Canceled) && parentCtx.Err() != nil {
					return
				}
				logging.Error().Err(err).Msg("Scheduled harvest had errors")
			}
		case <-parentCtx.Done():
			return
		case <-stopCh:
			return
		}
	}
}

// ScheduleOff stops periodic harvests.
func (c *client) ScheduleOff() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.scheduleTicker != nil {
		c.scheduleTicker.Stop()
		c.scheduleTicker = nil
	}
	if c.scheduleCancel != nil {
		c.scheduleCancel()
		c.scheduleCancel = nil
	}
	select {
	case <-c.stopCh:
		// Already closed
	default:
		close(c.stopCh)
	}
	return nil
}
