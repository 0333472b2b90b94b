// Package run provides the run command, which harvests sources once or on
// a schedule.
package run

import (
	"context"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentstation/harvester"
	"github.com/agentstation/harvester/internal/appcontext"
	"github.com/agentstation/harvester/internal/cmd/output"
	"github.com/agentstation/harvester/pkg/constants"
	"github.com/agentstation/harvester/pkg/errors"
	"github.com/agentstation/harvester/pkg/harvest"
)

// Flags holds the run command flags.
type Flags struct {
	Schedule    bool
	Interval    time.Duration
	MetricsAddr string
	Force       bool
	Workers     int
}

// NewCommand creates the run command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	flags := &Flags{}

	cmd := &cobra.Command{
		Use:     "run [source]...",
		GroupID: "core",
		Short:   "Harvest sources into the catalog",
		Long: `Run performs a full harvest cycle for the named sources, or for every
configured source when none is named. Per-record failures are reported
in the job results and do not stop the cycle.

With --schedule the command keeps running and harvests every source each
interval until interrupted, serving Prometheus metrics on --metrics-addr.`,
		Example: `  harvester run                         # Harvest every source once
  harvester run met-eireann             # Harvest one source
  harvester run --force met-eireann     # Reprocess every record
  harvester run --schedule --interval 6h --metrics-addr :9090`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.MetricsAddr == "" {
				flags.MetricsAddr = app.MetricsAddr()
			}
			if flags.Schedule {
				return runScheduled(cmd.Context(), app, flags)
			}
			return runOnce(cmd, app, flags, args)
		},
	}

	cmd.Flags().BoolVar(&flags.Schedule, "schedule", false, "keep running and harvest on an interval")
	cmd.Flags().DurationVar(&flags.Interval, "interval", constants.DefaultScheduleInterval, "interval between scheduled harvests")
	cmd.Flags().StringVar(&flags.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	cmd.Flags().BoolVar(&flags.Force, "force", false, "reprocess every record without superseding identities")
	cmd.Flags().IntVar(&flags.Workers, "workers", 0, "concurrent imports (default from config)")

	return cmd
}

func (f *Flags) options() []harvester.Option {
	var opts []harvester.Option
	if f.Force {
		opts = append(opts, harvester.WithForceReimport(true))
	}
	if f.Workers > 0 {
		opts = append(opts, harvester.WithWorkers(f.Workers))
	}
	return opts
}

func runOnce(cmd *cobra.Command, app appcontext.Interface, flags *Flags, args []string) error {
	ctx := cmd.Context()
	h, err := app.Harvester(flags.options()...)
	if err != nil {
		return err
	}

	var (
		results []*harvest.Result
		runErr  error
	)
	if len(args) == 0 {
		results, runErr = h.HarvestAll(ctx)
	} else {
		var errs []error
		for _, id := range args {
			r, err := h.Harvest(ctx, id)
			if r != nil {
				results = append(results, r)
			}
			if err != nil {
				errs = append(errs, err)
			}
		}
		runErr = errors.Join(errs...)
	}

	if err := output.Print(cmd.OutOrStdout(), app.OutputFormat(), output.Results(results)); err != nil {
		return err
	}
	if failures := output.RecordErrors(results); len(failures.Rows) > 0 &&
		output.DetectFormat(app.OutputFormat()) == output.FormatTable {
		if err := output.Print(cmd.ErrOrStderr(), string(output.FormatTable), failures); err != nil {
			return err
		}
	}
	return runErr
}

func runScheduled(ctx context.Context, app appcontext.Interface, flags *Flags) error {
	if flags.Interval <= 0 {
		return errors.NewValidationError("interval", flags.Interval, "must be positive")
	}
	logger := app.Logger()

	var srv *http.Server
	if flags.MetricsAddr != "" && app.Metrics() != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", app.Metrics().Handler())
		srv = &http.Server{
			Addr:              flags.MetricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: constants.DefaultTimeout,
		}
		go func() {
			logger.Info().Str("addr", flags.MetricsAddr).Msg("Serving metrics")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("Metrics server failed")
			}
		}()
	}

	opts := append(flags.options(), harvester.WithSchedule(flags.Interval))
	h, err := app.Harvester(opts...)
	if err != nil {
		return err
	}

	// The schedule first fires after one interval, harvest straight away too
	if _, err := h.HarvestAll(ctx); err != nil {
		logger.Warn().Err(err).Msg("Initial harvest finished with errors")
	}
	logger.Info().Dur("interval", flags.Interval).Msg("Harvest schedule running")

	<-ctx.Done()

	if err := h.ScheduleOff(); err != nil {
		logger.Error().Err(err).Msg("Failed to stop schedule")
	}
	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return errors.WrapResource("shutdown", "metrics server", flags.MetricsAddr, err)
		}
	}
	return nil
}
