// Package insightworker wires the background distillation worker.
package insightworker

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/emberwell/wellness-backend/internal/booking"
	"github.com/emberwell/wellness-backend/internal/config"
	"github.com/emberwell/wellness-backend/internal/events"
	"github.com/emberwell/wellness-backend/internal/factory"
	"github.com/emberwell/wellness-backend/internal/logger"
	"github.com/emberwell/wellness-backend/internal/rules"
	"github.com/emberwell/wellness-backend/internal/services"
	"github.com/emberwell/wellness-backend/internal/worker"
)

// Run starts the insight worker and blocks until shutdown or error.
func Run() error {
	log := logger.New("insight-worker")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("failed to load configuration")
		return err
	}

	st, err := factory.NewStore(cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("store unavailable")
		return err
	}

	ruleSet, err := rules.Load(cfg.RulesPath)
	if err != nil {
		log.Error().Err(err).Str("path", cfg.RulesPath).Msg("failed to load rule table")
		return err
	}

	var bookingSignal booking.Signal = booking.None{}
	if cfg.BookingServiceURL != "" {
		bookingSignal = booking.NewClient(cfg.BookingServiceURL)
	}

	bus := events.NewBus()
	states := services.NewStateService(st, cfg, bookingSignal, bus, log)
	insights := services.NewInsightService(st, ruleSet, cfg, bus, states, log)

	w := worker.New(st, insights, states, worker.Config{
		Interval:   cfg.WorkerInterval,
		WidePeriod: cfg.WorkerWidePeriod,
	}, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := w.Run(ctx); err != nil && err != context.Canceled {
		log.Error().Stack().Err(err).Msg("insight worker exit")
		return err
	}
	return nil
}
