// Package wellnessservice wires the HTTP service: store, rules, services,
// router, health checkers and graceful shutdown.
package wellnessservice

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/emberwell/wellness-backend/internal/api"
	"github.com/emberwell/wellness-backend/internal/auth"
	"github.com/emberwell/wellness-backend/internal/booking"
	"github.com/emberwell/wellness-backend/internal/config"
	"github.com/emberwell/wellness-backend/internal/events"
	"github.com/emberwell/wellness-backend/internal/factory"
	"github.com/emberwell/wellness-backend/internal/health"
	"github.com/emberwell/wellness-backend/internal/logger"
	"github.com/emberwell/wellness-backend/internal/rules"
	"github.com/emberwell/wellness-backend/internal/services"
	"github.com/emberwell/wellness-backend/internal/store"
)

// Run starts the wellness service HTTP server and blocks until shutdown or error.
func Run() error {
	log := logger.New("wellness-service")

	cfg, err := config.New()
	if err != nil {
		log.Error().Err(err).Msg("failed to load configuration")
		return err
	}

	log.Info().
		Str("build_target", cfg.BuildTarget).
		Str("db_driver", cfg.DBDriver).
		Int("http_port", cfg.HTTPPort).
		Str("auth_mode", cfg.AuthMode).
		Msg("wellness service starting")

	ctx, stop := newServerContext()
	defer stop()

	st, err := factory.NewStore(cfg, log)
	if err != nil {
		log.Error().Stack().Err(err).Msg("store unavailable")
		return err
	}

	probeTimeout := time.Duration(cfg.HealthProbeTimeoutSeconds) * time.Second
	storeChecker := store.NewStoreHealthChecker(st, log, probeTimeout)
	svcHealth := health.NewServiceHealthChecker(log, storeChecker)

	router, err := buildRouter(st, cfg, log, svcHealth, storeChecker)
	if err != nil {
		return err
	}

	startHealthCheckers(ctx, cfg, storeChecker, svcHealth)
	if err := waitUntilHealthy(ctx, cfg, svcHealth); err != nil {
		log.Error().Stack().Err(err).Msg("startup health check failed")
		return err
	}

	server := newHTTPServer(ctx, cfg, router)
	errCh := serveHTTP(server, log, cfg)

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server")
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctxShutdown); err != nil {
			log.Error().Stack().Err(err).Msg("server forced to shutdown")
			return err
		}
		log.Info().Msg("server exited")
		return nil
	case err := <-errCh:
		log.Error().Stack().Err(err).Msg("HTTP server failed")
		return err
	}
}

// buildRouter wires services and handlers onto the router.
func buildRouter(st store.Store, cfg *config.Config, log zerolog.Logger, svcHealth *health.ServiceHealthChecker, storeChecker health.HealthChecker) (*mux.Router, error) {
	ruleSet, err := rules.Load(cfg.RulesPath)
	if err != nil {
		log.Error().Err(err).Str("path", cfg.RulesPath).Msg("failed to load rule table")
		return nil, err
	}
	az, err := auth.NewFromConfig(cfg)
	if err != nil {
		return nil, err
	}

	var bookingSignal booking.Signal = booking.None{}
	if cfg.BookingServiceURL != "" {
		bookingSignal = booking.NewClient(cfg.BookingServiceURL)
	}

	bus := events.NewBus()
	states := services.NewStateService(st, cfg, bookingSignal, bus, log)
	checkins := services.NewCheckInService(st, cfg, bus, states, log)
	insights := services.NewInsightService(st, ruleSet, cfg, bus, states, log)

	return api.NewRouter(api.RouterDeps{
		Auth:     az,
		Users:    api.NewUserHandler(services.NewUserService(st)),
		CheckIns: api.NewCheckInHandler(checkins),
		Journal:  api.NewJournalHandler(services.NewJournalService(st, bus)),
		Insights: api.NewInsightHandler(insights),
		States:   api.NewStateHandler(states),
		Reports:  api.NewReportHandler(services.NewReportService(st, cfg, bus)),
		Shares:   api.NewShareHandler(services.NewShareService(st, cfg, bus, log)),
		Consents: api.NewConsentHandler(services.NewConsentService(st)),
		Health:   api.NewHealthHandler(svcHealth, storeChecker),
	}), nil
}

// startHealthCheckers starts the store checker and the service aggregator.
func startHealthCheckers(ctx context.Context, cfg *config.Config, storeChecker health.HealthChecker, svcHealth *health.ServiceHealthChecker) {
	interval := time.Duration(cfg.HealthIntervalSeconds) * time.Second
	go storeChecker.Start(ctx, interval)
	go svcHealth.Start(ctx, interval)
}

func newHTTPServer(ctx context.Context, cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.GetHTTPAddr(),
		Handler:           handler,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
}

func serveHTTP(server *http.Server, log zerolog.Logger, cfg *config.Config) <-chan error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Int("port", cfg.HTTPPort).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()
	return errCh
}

// waitUntilHealthy blocks until service health is green or the startup
// window expires. Checkers start unhealthy and need a first probe cycle.
func waitUntilHealthy(ctx context.Context, cfg *config.Config, svcHealth *health.ServiceHealthChecker) error {
	timeoutSeconds := cfg.HealthIntervalSeconds * 2
	if timeoutSeconds < 60 {
		timeoutSeconds = 60
	}
	deadline := time.Now().Add(time.Duration(timeoutSeconds) * time.Second)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()
	for {
		if svcHealth.IsHealthy() {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("startup aborted: dependencies not healthy within %d seconds", timeoutSeconds)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// newServerContext returns a cancellable context bound to SIGINT/SIGTERM.
func newServerContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
