package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/emberwell/wellness-backend/internal/config"
	"github.com/emberwell/wellness-backend/internal/events"
	"github.com/emberwell/wellness-backend/internal/model"
	"github.com/emberwell/wellness-backend/internal/store"
)

// ReportService aggregates insights into immutable reports.
type ReportService struct {
	store store.Store
	cfg   *config.Config
	bus   *events.Bus
}

func NewReportService(s store.Store, cfg *config.Config, bus *events.Bus) *ReportService {
	return &ReportService{store: s, cfg: cfg, bus: bus}
}

// minPhaseFor gates heavier report types on lifecycle progress.
func minPhaseFor(t model.ReportType) model.Phase {
	switch t {
	case model.ReportMonthlyProgress:
		return model.PhasePreparing
	case model.ReportTherapistPacket:
		return model.PhaseInTherapy
	}
	return model.PhaseExploration
}

// GenerateReport builds a report over [periodStart, periodEnd]. It fails
// with model.ErrInsufficientData when the period holds fewer qualifying
// insights than the type requires, or when the user's phase has not reached
// the type's minimum. Reports never expose raw check-in or journal content;
// only distilled patterns appear.
func (s *ReportService) GenerateReport(ctx context.Context, userID string, typ model.ReportType, periodStart, periodEnd time.Time) (*model.Report, error) {
	min, ok := s.cfg.MinInsightsFor(string(typ))
	if !ok {
		return nil, fmt.Errorf("%w: unknown report type %q", model.ErrValidation, typ)
	}
	if !periodEnd.After(periodStart) {
		return nil, fmt.Errorf("%w: periodEnd must be after periodStart", model.ErrValidation)
	}
	st, err := s.store.States().Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if required := minPhaseFor(typ); model.PhaseOrder(st.CurrentPhase) < model.PhaseOrder(required) {
		return nil, fmt.Errorf("%w: %s reports require phase %s, user is in %s",
			model.ErrInsufficientData, typ, required, st.CurrentPhase)
	}

	insights, err := s.insightsIn(ctx, userID, periodStart, periodEnd)
	if err != nil {
		return nil, err
	}
	if len(insights) < min {
		return nil, fmt.Errorf("%w: %d insights in period, %s requires %d",
			model.ErrInsufficientData, len(insights), typ, min)
	}

	// Preceding period of equal length; an empty one yields no comparisons
	// rather than an error.
	prevStart := periodStart.Add(-periodEnd.Sub(periodStart))
	previous, err := s.insightsIn(ctx, userID, prevStart, periodStart)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(insights))
	for _, ins := range insights {
		ids = append(ids, ins.InsightID)
	}
	rep := &model.Report{
		UserID:      userID,
		Type:        typ,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
		InsightIDs:  ids,
		Content: model.ReportContent{
			Themes:      buildThemes(insights),
			Patterns:    buildPatterns(insights, s.cfg.PatternDisplayThreshold),
			Comparisons: buildComparisons(insights, previous),
		},
	}
	created, err := s.store.Reports().Create(ctx, rep)
	if err != nil {
		return nil, err
	}
	s.bus.Publish(events.Event{Kind: events.KindReportCreated, UserID: userID, TargetID: created.ReportID})
	return created, nil
}

func (s *ReportService) GetReport(ctx context.Context, userID, reportID string) (*model.Report, error) {
	return s.store.Reports().GetByID(ctx, userID, reportID)
}

func (s *ReportService) ListReports(ctx context.Context, userID string) ([]*model.Report, error) {
	return s.store.Reports().List(ctx, userID)
}

// insightsIn lists insights created in [from, to]. The store's upper bound
// is exclusive, so the end is nudged to keep the period inclusive.
func (s *ReportService) insightsIn(ctx context.Context, userID string, from, to time.Time) ([]*model.Insight, error) {
	upper := to.Add(time.Nanosecond)
	return s.store.Insights().List(ctx, store.ListInsightsRequest{UserID: userID, From: &from, To: &upper})
}

// buildThemes ranks patterns by how many insights support them, most
// frequent first, ties broken by most recent support.
func buildThemes(insights []*model.Insight) []model.Theme {
	byPattern := make(map[string]*model.Theme)
	for _, ins := range insights {
		th, ok := byPattern[ins.Pattern]
		if !ok {
			th = &model.Theme{Pattern: ins.Pattern}
			byPattern[ins.Pattern] = th
		}
		th.Frequency++
		if ins.CreationTime.After(th.LastSupport) {
			th.LastSupport = ins.CreationTime
		}
	}
	out := make([]model.Theme, 0, len(byPattern))
	for _, th := range byPattern {
		out = append(out, *th)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Frequency != out[j].Frequency {
			return out[i].Frequency > out[j].Frequency
		}
		if !out[i].LastSupport.Equal(out[j].LastSupport) {
			return out[i].LastSupport.After(out[j].LastSupport)
		}
		return out[i].Pattern < out[j].Pattern
	})
	return out
}

// buildPatterns surfaces recurrence signals at or above the display
// threshold, strongest first. One entry per pattern, keeping the peak.
func buildPatterns(insights []*model.Insight, threshold float64) []model.Pattern {
	peak := make(map[string]float64)
	for _, ins := range insights {
		if ins.Recurrence.Strength >= threshold && ins.Recurrence.Strength > peak[ins.Pattern] {
			peak[ins.Pattern] = ins.Recurrence.Strength
		}
	}
	out := make([]model.Pattern, 0, len(peak))
	for p, s := range peak {
		out = append(out, model.Pattern{Pattern: p, Strength: s})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Strength != out[j].Strength {
			return out[i].Strength > out[j].Strength
		}
		return out[i].Pattern < out[j].Pattern
	})
	return out
}

// buildComparisons diffs theme frequencies against the preceding period.
// With no preceding insights there is nothing to compare against.
func buildComparisons(current, previous []*model.Insight) []model.Comparison {
	if len(previous) == 0 {
		return []model.Comparison{}
	}
	cur := countByPattern(current)
	prev := countByPattern(previous)
	patterns := make(map[string]bool)
	for p := range cur {
		patterns[p] = true
	}
	for p := range prev {
		patterns[p] = true
	}
	out := make([]model.Comparison, 0, len(patterns))
	for p := range patterns {
		out = append(out, model.Comparison{
			Pattern:  p,
			Current:  cur[p],
			Previous: prev[p],
			Delta:    cur[p] - prev[p],
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Current != out[j].Current {
			return out[i].Current > out[j].Current
		}
		return out[i].Pattern < out[j].Pattern
	})
	return out
}

func countByPattern(insights []*model.Insight) map[string]int {
	out := make(map[string]int)
	for _, ins := range insights {
		out[ins.Pattern]++
	}
	return out
}
