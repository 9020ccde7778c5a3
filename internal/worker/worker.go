// Package worker runs the background distillation sweep: periodically
// distills unprocessed sources into insights for every account and
// re-evaluates lifecycle state so inactivity regressions fire without
// user traffic.
package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/emberwell/wellness-backend/internal/services"
	"github.com/emberwell/wellness-backend/internal/store"
)

// Config controls sweep cadence. A wide sweep re-reads low-signal
// sources so slow-building patterns still surface.
type Config struct {
	Interval   time.Duration // time between sweeps
	WidePeriod time.Duration // time between low-signal re-reads
}

// Worker sweeps all accounts on a fixed cadence.
type Worker struct {
	store    store.Store
	insights *services.InsightService
	states   *services.StateService
	cfg      Config
	log      zerolog.Logger

	nowFn    func() time.Time
	lastWide time.Time
}

// New constructs a Worker from dependencies.
func New(st store.Store, insights *services.InsightService, states *services.StateService, cfg Config, log zerolog.Logger) *Worker {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	if cfg.WidePeriod <= 0 {
		cfg.WidePeriod = 7 * 24 * time.Hour
	}
	return &Worker{store: st, insights: insights, states: states, cfg: cfg, log: log, nowFn: time.Now}
}

// Run starts the sweep loop until ctx is canceled.
func (w *Worker) Run(ctx context.Context) error {
	w.log.Info().Dur("interval", w.cfg.Interval).Dur("wide_period", w.cfg.WidePeriod).Msg("insight worker starting")
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	// Mark the start so the first wide sweep waits a full period.
	w.lastWide = w.nowFn()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("insight worker stopping")
			return ctx.Err()
		case <-ticker.C:
			wide := w.nowFn().Sub(w.lastWide) >= w.cfg.WidePeriod
			if wide {
				w.lastWide = w.nowFn()
			}
			if err := w.Sweep(ctx, wide); err != nil {
				// Log and continue; a failed sweep retries next tick.
				w.log.Error().Err(err).Msg("sweep failed")
			}
		}
	}
}

// Sweep distills and re-evaluates every account once. Per-account
// failures are logged and skipped so one bad account cannot stall the
// rest of the fleet.
func (w *Worker) Sweep(ctx context.Context, wide bool) error {
	users, err := w.store.Users().List(ctx)
	if err != nil {
		return err
	}
	var created int
	for _, u := range users {
		ins, err := w.insights.GenerateInsights(ctx, u.UserID, wide)
		if err != nil {
			w.log.Warn().Err(err).Str("user_id", u.UserID).Msg("distillation failed")
			continue
		}
		created += len(ins)
		if _, err := w.states.Evaluate(ctx, u.UserID); err != nil {
			w.log.Warn().Err(err).Str("user_id", u.UserID).Msg("state evaluation failed")
		}
	}
	w.log.Info().Int("users", len(users)).Int("insights", created).Bool("wide", wide).Msg("sweep complete")
	return nil
}
