package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/emberwell/wellness-backend/internal/booking"
	"github.com/emberwell/wellness-backend/internal/config"
	"github.com/emberwell/wellness-backend/internal/events"
	"github.com/emberwell/wellness-backend/internal/model"
	"github.com/emberwell/wellness-backend/internal/store"
)

// StateService owns lifecycle phase transitions. Every transition goes
// through the store's compare-and-swap append, so concurrent evaluations
// cannot double-apply a change.
type StateService struct {
	store   store.Store
	cfg     *config.Config
	booking booking.Signal
	bus     *events.Bus
	log     zerolog.Logger
	nowFn   func() time.Time
}

func NewStateService(s store.Store, cfg *config.Config, b booking.Signal, bus *events.Bus, log zerolog.Logger) *StateService {
	if b == nil {
		b = booking.None{}
	}
	return &StateService{store: s, cfg: cfg, booking: b, bus: bus, log: log, nowFn: time.Now}
}

func (s *StateService) GetState(ctx context.Context, userID string) (*model.UserState, error) {
	return s.store.States().Get(ctx, userID)
}

// Evaluate applies at most one transition rule and returns the resulting
// state. It runs after every check-in and insight generation, and from the
// background sweep, so multi-step progress happens across successive events
// rather than in one pass.
//
// Rule order: inactivity regression first, then forward progression for the
// current phase. Forward transitions follow the phase order strictly; the
// only backward edge is the regression to exploration.
func (s *StateService) Evaluate(ctx context.Context, userID string) (*model.UserState, error) {
	st, err := s.store.States().Get(ctx, userID)
	if errors.Is(err, model.ErrNotFound) {
		st, err = s.store.States().Init(ctx, userID, s.nowFn().UTC())
		if errors.Is(err, model.ErrConflict) {
			st, err = s.store.States().Get(ctx, userID)
		}
	}
	if err != nil {
		return nil, err
	}
	now := s.nowFn().UTC()

	user, err := s.store.Users().Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	latest, err := s.store.CheckIns().Latest(ctx, userID)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}

	if st.CurrentPhase != model.PhaseExploration {
		// Idle time is measured in whole server days since the last
		// check-in's day key, matching the depth streak arithmetic.
		inactive := latest == nil
		if latest != nil {
			idle := daysBetween(latest.Day, dayKey(now, userLocation(user, s.cfg)))
			inactive = time.Duration(idle)*24*time.Hour >= s.cfg.InactivityWindow
		}
		if inactive {
			return s.apply(ctx, userID, model.StateChange{
				From: st.CurrentPhase, To: model.PhaseExploration, Reason: "inactivity", At: now,
			})
		}
	}

	switch st.CurrentPhase {
	case model.PhaseExploration:
		count, err := s.store.CheckIns().Count(ctx, userID)
		if err != nil {
			return nil, err
		}
		insights, err := s.store.Insights().Count(ctx, userID)
		if err != nil {
			return nil, err
		}
		if count >= s.cfg.PreparingCheckInCount && insights >= 1 {
			return s.apply(ctx, userID, model.StateChange{
				From: model.PhaseExploration, To: model.PhasePreparing, Reason: "engagement_threshold", At: now,
			})
		}

	case model.PhasePreparing:
		confirmed, err := s.booking.Confirmed(ctx, userID)
		if err != nil {
			// Booking outage only delays the booking-driven edge.
			s.log.Warn().Err(err).Str("userId", userID).Msg("booking signal unavailable")
			confirmed = false
		}
		if confirmed {
			return s.apply(ctx, userID, model.StateChange{
				From: model.PhasePreparing, To: model.PhaseInTherapy, Reason: "booking_confirmed", At: now,
			})
		}
		count, err := s.store.CheckIns().Count(ctx, userID)
		if err != nil {
			return nil, err
		}
		if count >= s.cfg.InTherapyCheckInCount {
			return s.apply(ctx, userID, model.StateChange{
				From: model.PhasePreparing, To: model.PhaseInTherapy, Reason: "sustained_engagement", At: now,
			})
		}

	case model.PhaseInTherapy:
		if now.Sub(st.EnteredAt) >= s.cfg.MaintenanceAfter {
			upcoming, err := s.booking.HasUpcoming(ctx, userID)
			if err != nil {
				s.log.Warn().Err(err).Str("userId", userID).Msg("booking signal unavailable")
				break
			}
			if !upcoming {
				return s.apply(ctx, userID, model.StateChange{
					From: model.PhaseInTherapy, To: model.PhaseMaintenance, Reason: "therapy_concluded", At: now,
				})
			}
		}
	}
	return st, nil
}

// ConfirmBooking handles the booking-confirmed webhook. The signal only has
// an edge out of preparing; in any other phase it is recorded as a no-op.
func (s *StateService) ConfirmBooking(ctx context.Context, userID string) (*model.UserState, error) {
	st, err := s.store.States().Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if st.CurrentPhase != model.PhasePreparing {
		return st, nil
	}
	return s.apply(ctx, userID, model.StateChange{
		From: model.PhasePreparing, To: model.PhaseInTherapy, Reason: "booking_confirmed", At: s.nowFn().UTC(),
	})
}

// apply performs the compare-and-swap append. Losing the race to a
// concurrent evaluation is not an error; the winner's state is returned.
func (s *StateService) apply(ctx context.Context, userID string, change model.StateChange) (*model.UserState, error) {
	st, err := s.store.States().Append(ctx, userID, change)
	if errors.Is(err, model.ErrConflict) {
		return s.store.States().Get(ctx, userID)
	}
	if err != nil {
		return nil, err
	}
	s.bus.Publish(events.Event{Kind: events.KindStateChanged, UserID: userID, TargetID: string(change.To)})
	return st, nil
}
