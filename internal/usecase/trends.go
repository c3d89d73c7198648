package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"GTMMonitor/internal/domain"
	"GTMMonitor/internal/ports"
)

const (
	// trendFetchLimit bounds how many historical records one analysis reads.
	trendFetchLimit = 5000

	// DefaultTrendWeeks is the analysis window used by the weekly trigger.
	DefaultTrendWeeks = 4
)

// TrendAggregator buckets stored records by ISO week and derives distribution
// statistics plus a trend direction. It always produces a snapshot; read or
// compute errors are tagged on the result instead of raised.
type TrendAggregator struct {
	store  ports.Store
	logger *slog.Logger
	now    func() time.Time
}

// NewTrendAggregator wires the store.
func NewTrendAggregator(store ports.Store, logger *slog.Logger) *TrendAggregator {
	return &TrendAggregator{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Compute builds a snapshot over the trailing windowWeeks weeks.
func (t *TrendAggregator) Compute(ctx context.Context, windowWeeks int) domain.TrendSnapshot {
	now := t.now()

	if t.store == nil {
		return domain.TrendSnapshot{
			Timestamp: now,
			Trend:     domain.TrendInsufficientData,
			Error:     "store is not configured",
		}
	}

	records, err := t.store.ListRecent(ctx, trendFetchLimit)
	if err != nil {
		t.warn("trend read failed", "error", err)
		return domain.TrendSnapshot{Timestamp: now, Error: err.Error()}
	}

	cutoff := now.Add(-time.Duration(windowWeeks) * 7 * 24 * time.Hour)

	var (
		filtered     []domain.ProcessingRecord
		scoreSum     float64
		weeklyCounts = map[string]int{}
		byIntent     = map[string]int{}
		bySubreddit  = map[string]int{}
		highPriority int
	)

	for _, record := range records {
		ts := record.Post.CreatedAt
		if ts.Before(cutoff) {
			continue
		}
		filtered = append(filtered, record)

		scoreSum += record.Classification.RelevanceScore
		weeklyCounts[isoWeek(ts)]++
		byIntent[string(record.Classification.Intent)]++
		bySubreddit[record.Post.Subreddit]++
		if record.Engagement.Priority == domain.PriorityHigh {
			highPriority++
		}
	}

	snapshot := domain.TrendSnapshot{
		Timestamp:    now,
		TotalPosts:   len(filtered),
		Trend:        trendDirection(filtered, now),
		HighPriority: highPriority,
		WeeklyCounts: weeklyCounts,
		ByIntent:     byIntent,
		BySubreddit:  bySubreddit,
	}
	if len(filtered) > 0 {
		snapshot.AverageRelevance = scoreSum / float64(len(filtered))
	}

	return snapshot
}

// Run computes the default window, persists the snapshot and returns it.
// Persistence failures weaken durability only; the snapshot is still returned.
func (t *TrendAggregator) Run(ctx context.Context) domain.TrendSnapshot {
	snapshot := t.Compute(ctx, DefaultTrendWeeks)

	if t.store != nil {
		if err := t.store.AppendSnapshot(ctx, snapshot); err != nil {
			t.warn("snapshot append failed", "error", err)
		}
	}

	return snapshot
}

// trendDirection compares the trailing 7-day count against the 7 days before
// it. Bands: >1.2x is increasing, <0.8x is decreasing, otherwise stable.
// Fewer than two records in the window is insufficient data.
func trendDirection(records []domain.ProcessingRecord, now time.Time) domain.Trend {
	if len(records) < 2 {
		return domain.TrendInsufficientData
	}

	weekAgo := now.Add(-7 * 24 * time.Hour)
	twoWeeksAgo := now.Add(-14 * 24 * time.Hour)

	var recent, previous int
	for _, record := range records {
		ts := record.Post.CreatedAt
		switch {
		case !ts.Before(weekAgo):
			recent++
		case !ts.Before(twoWeeksAgo):
			previous++
		}
	}

	switch {
	case float64(recent) > float64(previous)*1.2:
		return domain.TrendIncreasing
	case float64(recent) < float64(previous)*0.8:
		return domain.TrendDecreasing
	default:
		return domain.TrendStable
	}
}

func isoWeek(ts time.Time) string {
	year, week := ts.ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

func (t *TrendAggregator) warn(msg string, args ...any) {
	if t.logger != nil {
		t.logger.Warn(msg, args...)
	}
}
