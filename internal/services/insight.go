package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/emberwell/wellness-backend/internal/config"
	"github.com/emberwell/wellness-backend/internal/events"
	"github.com/emberwell/wellness-backend/internal/model"
	"github.com/emberwell/wellness-backend/internal/rules"
	"github.com/emberwell/wellness-backend/internal/store"
)

// InsightService distills unprocessed check-ins and journal entries into
// pattern insights using the deterministic rule table.
type InsightService struct {
	store store.Store
	rules *rules.RuleSet
	cfg   *config.Config
	bus   *events.Bus
	state *StateService
	log   zerolog.Logger
}

func NewInsightService(s store.Store, rs *rules.RuleSet, cfg *config.Config, bus *events.Bus, state *StateService, log zerolog.Logger) *InsightService {
	return &InsightService{store: s, rules: rs, cfg: cfg, bus: bus, state: state, log: log}
}

// candidate is one unprocessed source with its classification result.
type candidate struct {
	ref     model.SourceRef
	day     string
	pattern string // first matching pattern, empty when nothing matched
}

// GenerateInsights runs one distillation pass over every source not yet
// consumed. Sources are grouped by pattern; a group reaching the minimum
// size becomes one insight and its sources are consumed atomically with the
// insert. Everything left over is marked low-signal so a later wider pass
// (includeLowSignal=true) can reconsider it. A pass with no unprocessed
// sources is a no-op, which makes the operation idempotent.
func (s *InsightService) GenerateInsights(ctx context.Context, userID string, includeLowSignal bool) ([]*model.Insight, error) {
	user, err := s.store.Users().Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	loc := userLocation(user, s.cfg)

	checkIns, err := s.store.CheckIns().ListUnprocessed(ctx, userID, includeLowSignal)
	if err != nil {
		return nil, err
	}
	journals, err := s.store.Journals().ListUnprocessed(ctx, userID, includeLowSignal)
	if err != nil {
		return nil, err
	}

	// Each source joins at most one group: its first matching pattern in
	// table order. That keeps single-consumption trivially true even when a
	// source matches several rules.
	var candidates []candidate
	for _, c := range checkIns {
		candidates = append(candidates, candidate{
			ref:     model.SourceRef{Kind: model.SourceCheckIn, ID: c.CheckInID},
			day:     c.Day,
			pattern: firstPattern(s.rules.Classify(c.Responses, "")),
		})
	}
	for _, j := range journals {
		candidates = append(candidates, candidate{
			ref:     model.SourceRef{Kind: model.SourceJournal, ID: j.EntryID},
			day:     dayKey(j.CreationTime, loc),
			pattern: firstPattern(s.rules.Classify(nil, j.Text)),
		})
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	byPattern := make(map[string][]candidate)
	for _, c := range candidates {
		if c.pattern != "" {
			byPattern[c.pattern] = append(byPattern[c.pattern], c)
		}
	}

	var created []*model.Insight
	consumed := make(map[model.SourceRef]bool)
	for _, pattern := range s.rules.Patterns() {
		group := byPattern[pattern]
		if len(group) < s.cfg.InsightMinSources {
			continue
		}
		ins, err := s.createFromGroup(ctx, userID, pattern, group)
		if err != nil {
			return created, err
		}
		for _, c := range group {
			consumed[c.ref] = true
		}
		created = append(created, ins)
		s.bus.Publish(events.Event{Kind: events.KindInsightCreated, UserID: userID, TargetID: ins.InsightID})
	}

	var leftovers []model.SourceRef
	for _, c := range candidates {
		if !consumed[c.ref] {
			leftovers = append(leftovers, c.ref)
		}
	}
	if len(leftovers) > 0 {
		if err := s.store.Insights().MarkLowSignal(ctx, userID, leftovers); err != nil {
			return created, err
		}
	}

	if len(created) > 0 {
		if _, err := s.state.Evaluate(ctx, userID); err != nil {
			s.log.Warn().Err(err).Str("userId", userID).Msg("lifecycle evaluation after insight generation failed")
		}
	}
	return created, nil
}

func (s *InsightService) createFromGroup(ctx context.Context, userID, pattern string, group []candidate) (*model.Insight, error) {
	days := make(map[string]bool, len(group))
	refs := make([]model.SourceRef, 0, len(group))
	for _, c := range group {
		days[c.day] = true
		refs = append(refs, c.ref)
	}
	first, last := dayRange(days)
	ins := &model.Insight{
		UserID:      userID,
		Pattern:     pattern,
		Recurrence:  recurrence(len(group), len(days)),
		TimeContext: fmt.Sprintf("%s..%s", first, last),
	}
	return s.store.Insights().CreateWithSources(ctx, ins, refs)
}

func (s *InsightService) GetInsight(ctx context.Context, userID, insightID string) (*model.Insight, error) {
	return s.store.Insights().GetByID(ctx, userID, insightID)
}

func (s *InsightService) ListInsights(ctx context.Context, userID string, from, to *time.Time, limit int) ([]*model.Insight, error) {
	return s.store.Insights().List(ctx, store.ListInsightsRequest{UserID: userID, From: from, To: to, Limit: limit})
}

func firstPattern(patterns []string) string {
	if len(patterns) == 0 {
		return ""
	}
	return patterns[0]
}

// recurrence scores how strongly a pattern recurs. Group size contributes,
// and sources spread over distinct days count more than a same-day cluster.
func recurrence(sourceCount, distinctDays int) model.RecurrenceSignal {
	strength := 0.15*float64(sourceCount) + 0.2*float64(distinctDays-1)
	if strength > 1 {
		strength = 1
	}
	return model.RecurrenceSignal{Strength: strength, SourceCount: sourceCount, DistinctDays: distinctDays}
}

func dayRange(days map[string]bool) (first, last string) {
	keys := make([]string, 0, len(days))
	for d := range days {
		keys = append(keys, d)
	}
	sort.Strings(keys)
	return keys[0], keys[len(keys)-1]
}
