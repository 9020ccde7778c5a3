package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/emberwell/wellness-backend/internal/config"
	"github.com/emberwell/wellness-backend/internal/events"
	"github.com/emberwell/wellness-backend/internal/model"
	"github.com/emberwell/wellness-backend/internal/store"
)

// CheckInService records daily check-ins and computes the progressive
// question depth offered to a user.
type CheckInService struct {
	store store.Store
	cfg   *config.Config
	bus   *events.Bus
	state *StateService
	log   zerolog.Logger
	nowFn func() time.Time
}

func NewCheckInService(s store.Store, cfg *config.Config, bus *events.Bus, state *StateService, log zerolog.Logger) *CheckInService {
	return &CheckInService{store: s, cfg: cfg, bus: bus, state: state, log: log, nowFn: time.Now}
}

// Eligibility answers whether a user may check in right now, and at what depth.
type Eligibility struct {
	Eligible  bool   `json:"eligible"`
	Reason    string `json:"reason,omitempty"`
	NextLevel int    `json:"nextLevel"`
	Day       string `json:"day"`
}

// RecordCheckIn persists one check-in for the current server day. The per-day
// uniqueness lives in the store as a write-time constraint; a second attempt
// on the same day surfaces as model.ErrConflict no matter how the requests
// interleave.
func (s *CheckInService) RecordCheckIn(ctx context.Context, userID string, responses map[string]string) (*model.CheckIn, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: userId is required", model.ErrValidation)
	}
	if len(responses) == 0 {
		return nil, fmt.Errorf("%w: responses must not be empty", model.ErrValidation)
	}
	user, err := s.store.Users().Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	loc := userLocation(user, s.cfg)
	day := dayKey(s.nowFn(), loc)

	level, err := s.levelFor(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	created, err := s.store.CheckIns().Create(ctx, &model.CheckIn{
		UserID:    userID,
		Day:       day,
		Level:     level,
		Responses: responses,
	})
	if err != nil {
		if errors.Is(err, model.ErrConflict) {
			return nil, fmt.Errorf("%w: already checked in on %s", model.ErrConflict, day)
		}
		return nil, err
	}
	s.bus.Publish(events.Event{Kind: events.KindCheckInRecorded, UserID: userID, TargetID: created.CheckInID})

	// Lifecycle evaluation rides on every check-in. A failure here must not
	// undo an accepted check-in.
	if _, err := s.state.Evaluate(ctx, userID); err != nil {
		s.log.Warn().Err(err).Str("userId", userID).Msg("lifecycle evaluation after check-in failed")
	}
	return created, nil
}

// CanUserCheckIn reports eligibility for the current server day without
// mutating anything.
func (s *CheckInService) CanUserCheckIn(ctx context.Context, userID string) (*Eligibility, error) {
	user, err := s.store.Users().Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	loc := userLocation(user, s.cfg)
	day := dayKey(s.nowFn(), loc)

	latest, err := s.store.CheckIns().Latest(ctx, userID)
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return nil, err
	}
	if latest != nil && latest.Day == day {
		return &Eligibility{Eligible: false, Reason: "already_checked_in_today", NextLevel: latest.Level, Day: day}, nil
	}
	level, err := s.levelFor(ctx, userID, day)
	if err != nil {
		return nil, err
	}
	return &Eligibility{Eligible: true, NextLevel: level, Day: day}, nil
}

// GetLatestCheckIn returns the most recent check-in, or model.ErrNotFound
// when the user has never checked in.
func (s *CheckInService) GetLatestCheckIn(ctx context.Context, userID string) (*model.CheckIn, error) {
	return s.store.CheckIns().Latest(ctx, userID)
}

func (s *CheckInService) GetCheckIn(ctx context.Context, userID, checkInID string) (*model.CheckIn, error) {
	return s.store.CheckIns().GetByID(ctx, userID, checkInID)
}

func (s *CheckInService) ListCheckIns(ctx context.Context, req model.ListCheckInsRequest) ([]*model.CheckIn, error) {
	return s.store.CheckIns().List(ctx, req)
}

// GetCurrentCheckInLevel computes the depth the next check-in would be
// offered at, as of today.
func (s *CheckInService) GetCurrentCheckInLevel(ctx context.Context, userID string) (int, error) {
	user, err := s.store.Users().Get(ctx, userID)
	if err != nil {
		return 0, err
	}
	return s.levelFor(ctx, userID, dayKey(s.nowFn(), userLocation(user, s.cfg)))
}

// levelFor derives the question depth for a check-in landing on day.
// Depth grows one level per DepthStepSize consecutive days, capped at
// DepthMaxLevel. A gap of more than DepthGraceDays missed days resets the
// streak, so depth never decreases except through that reset.
func (s *CheckInService) levelFor(ctx context.Context, userID, day string) (int, error) {
	limit := s.cfg.DepthMaxLevel*s.cfg.DepthStepSize + s.cfg.DepthGraceDays + 1
	recent, err := s.store.CheckIns().List(ctx, model.ListCheckInsRequest{UserID: userID, Limit: limit})
	if err != nil {
		return 0, err
	}
	if len(recent) == 0 {
		return 1, nil
	}
	// recent is newest first; one check-in per day keeps day order aligned
	// with creation order.
	if missed := daysBetween(recent[0].Day, day) - 1; missed > s.cfg.DepthGraceDays {
		return 1, nil
	}
	streak := 1
	for i := 0; i+1 < len(recent); i++ {
		if missed := daysBetween(recent[i+1].Day, recent[i].Day) - 1; missed > s.cfg.DepthGraceDays {
			break
		}
		streak++
	}
	level := 1 + streak/s.cfg.DepthStepSize
	if level > s.cfg.DepthMaxLevel {
		level = s.cfg.DepthMaxLevel
	}
	return level, nil
}
