package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/emberwell/wellness-backend/internal/config"
	"github.com/emberwell/wellness-backend/internal/events"
	"github.com/emberwell/wellness-backend/internal/model"
	"github.com/emberwell/wellness-backend/internal/store"
)

// TokenSource produces share tokens. The default draws 256 bits from the
// OS entropy pool; tests substitute a low-entropy source to exercise the
// collision retry.
type TokenSource interface {
	Token() (string, error)
}

type randomTokenSource struct{}

func (randomTokenSource) Token() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// tokenRetries bounds the collision loop. With random tokens a single
// retry is already astronomically unlikely.
const tokenRetries = 5

// ShareService issues, validates and revokes share grants for reports.
type ShareService struct {
	store  store.Store
	cfg    *config.Config
	bus    *events.Bus
	tokens TokenSource
	log    zerolog.Logger
	nowFn  func() time.Time
}

func NewShareService(s store.Store, cfg *config.Config, bus *events.Bus, log zerolog.Logger) *ShareService {
	return &ShareService{store: s, cfg: cfg, bus: bus, tokens: randomTokenSource{}, log: log, nowFn: time.Now}
}

// CreateShare grants read-only access to one of the user's reports. The
// returned record carries the token; it is shown once at creation and never
// serialized again. Every grant lands in the consent ledger.
func (s *ShareService) CreateShare(ctx context.Context, userID, reportID string, ttl time.Duration) (*model.ShareRecord, error) {
	if ttl == 0 {
		ttl = s.cfg.ShareTTLDefault
	}
	if ttl < 0 || ttl > s.cfg.ShareTTLMax {
		return nil, fmt.Errorf("%w: ttl must be positive and at most %s", model.ErrValidation, s.cfg.ShareTTLMax)
	}
	// Ownership check doubles as existence check.
	if _, err := s.store.Reports().GetByID(ctx, userID, reportID); err != nil {
		return nil, err
	}

	now := s.nowFn().UTC()
	var created *model.ShareRecord
	for attempt := 0; attempt < tokenRetries; attempt++ {
		token, err := s.tokens.Token()
		if err != nil {
			return nil, fmt.Errorf("generate share token: %w", err)
		}
		created, err = s.store.Shares().Create(ctx, &model.ShareRecord{
			Token:     token,
			UserID:    userID,
			ReportID:  reportID,
			ExpiresAt: now.Add(ttl),
		})
		if errors.Is(err, model.ErrConflict) {
			continue
		}
		if err != nil {
			return nil, err
		}
		break
	}
	if created == nil {
		return nil, fmt.Errorf("%w: share token collisions persisted across %d attempts", model.ErrInvariant, tokenRetries)
	}

	if err := s.store.Consents().Append(ctx, &model.ConsentEntry{
		UserID: userID, Action: model.ConsentReportShared, TargetID: created.ShareID, At: now,
	}); err != nil {
		return nil, err
	}
	s.bus.Publish(events.Event{Kind: events.KindShareCreated, UserID: userID, TargetID: created.ShareID})
	return created, nil
}

// ShareValidation is the outcome of checking a presented token.
type ShareValidation struct {
	Valid  bool
	Reason string // not_found, revoked or expired when invalid
	Share  *model.ShareRecord
}

// ValidateShareToken checks a presented token and records the attempt in
// the share's access log. An unknown token has no record to log against.
func (s *ShareService) ValidateShareToken(ctx context.Context, token string) (*ShareValidation, error) {
	sh, err := s.store.Shares().GetByToken(ctx, token)
	if errors.Is(err, model.ErrNotFound) {
		return &ShareValidation{Valid: false, Reason: "not_found"}, nil
	}
	if err != nil {
		return nil, err
	}
	now := s.nowFn().UTC()

	v := &ShareValidation{Valid: true, Share: sh}
	outcome := "granted"
	switch {
	case sh.Revoked:
		v.Valid, v.Reason, outcome = false, "revoked", "denied_revoked"
	case now.After(sh.ExpiresAt):
		v.Valid, v.Reason, outcome = false, "expired", "denied_expired"
	}
	if err := s.store.Shares().AppendAccess(ctx, sh.ShareID, model.ShareAccess{At: now, Outcome: outcome}); err != nil {
		if v.Valid {
			return nil, err
		}
		// Denials still answer even if the log write fails.
		s.log.Warn().Err(err).Str("shareId", sh.ShareID).Msg("recording denied access failed")
	}
	return v, nil
}

// PublicReport resolves a token to the redacted projection of its report.
// Every failure mode collapses to model.ErrInvalidShareToken so callers
// cannot distinguish unknown, expired and revoked tokens.
func (s *ShareService) PublicReport(ctx context.Context, token string) (*model.RedactedReport, error) {
	v, err := s.ValidateShareToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if !v.Valid {
		return nil, model.ErrInvalidShareToken
	}
	rep, err := s.store.Reports().GetByID(ctx, v.Share.UserID, v.Share.ReportID)
	if err != nil {
		return nil, err
	}
	return rep.Redacted(), nil
}

// RevokeShare terminally disables a share. Revoking an already-revoked
// share succeeds without another ledger entry.
func (s *ShareService) RevokeShare(ctx context.Context, userID, reportID, shareID string) (*model.ShareRecord, error) {
	sh, err := s.store.Shares().GetByID(ctx, userID, shareID)
	if err != nil {
		return nil, err
	}
	if sh.ReportID != reportID {
		return nil, fmt.Errorf("%w: share %s", model.ErrNotFound, shareID)
	}
	if sh.Revoked {
		return sh, nil
	}
	if err := s.store.Shares().Revoke(ctx, userID, shareID); err != nil {
		return nil, err
	}
	if err := s.store.Consents().Append(ctx, &model.ConsentEntry{
		UserID: userID, Action: model.ConsentShareRevoked, TargetID: shareID, At: s.nowFn().UTC(),
	}); err != nil {
		return nil, err
	}
	s.bus.Publish(events.Event{Kind: events.KindShareRevoked, UserID: userID, TargetID: shareID})
	sh.Revoked = true
	return sh, nil
}

func (s *ShareService) ListShares(ctx context.Context, userID, reportID string) ([]*model.ShareRecord, error) {
	return s.store.Shares().List(ctx, userID, reportID)
}
