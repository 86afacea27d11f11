// Package usage records per-day, per-persona generation counters through
// the storage collaborator. Counting is a non-critical statistic: the
// read-modify-write is last-write-wins under concurrent calls, and
// failures here must never abort a generation.
package usage

import (
	"context"
	"sort"
	"time"

	"replyassist/internal/storage"
	"replyassist/internal/types"
)

// RetentionDays bounds how many day-keys are kept; older buckets are
// discarded oldest-first once the limit is exceeded.
const RetentionDays = 30

// Tracker increments usage counters in storage.
type Tracker struct {
	store storage.Store
	now   func() time.Time
}

// NewTracker builds a Tracker over the given store.
func NewTracker(store storage.Store) *Tracker {
	return &Tracker{store: store, now: time.Now}
}

// WithClock overrides the time source, for tests.
func (t *Tracker) WithClock(now func() time.Time) *Tracker {
	t.now = now
	return t
}

// Record increments today's total and per-persona counters plus the
// lifetime generation counter, then prunes expired day-keys.
func (t *Tracker) Record(ctx context.Context, personaID string) error {
	stats := types.UsageStats{}
	if _, err := storage.GetInto(ctx, t.store, types.KeyUsageStats, &stats); err != nil {
		return err
	}
	settings := types.DefaultSettings()
	if _, err := storage.GetInto(ctx, t.store, types.KeySettings, &settings); err != nil {
		return err
	}

	dayKey := t.now().Format(types.DayKeyFormat)
	day := stats[dayKey]
	if day.PerPersona == nil {
		day.PerPersona = make(map[string]int)
	}
	day.Total++
	day.PerPersona[personaID]++
	stats[dayKey] = day

	prune(stats)
	settings.TotalGenerations++

	return t.store.Set(ctx, map[string]interface{}{
		types.KeyUsageStats: stats,
		types.KeySettings:   settings,
	})
}

// Stats returns the currently stored usage counters.
func (t *Tracker) Stats(ctx context.Context) (types.UsageStats, error) {
	stats := types.UsageStats{}
	if _, err := storage.GetInto(ctx, t.store, types.KeyUsageStats, &stats); err != nil {
		return nil, err
	}
	return stats, nil
}

// prune drops the oldest day-keys until at most RetentionDays remain.
// Day-keys sort chronologically as strings.
func prune(stats types.UsageStats) {
	if len(stats) <= RetentionDays {
		return
	}
	keys := make([]string, 0, len(stats))
	for k := range stats {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys[:len(keys)-RetentionDays] {
		delete(stats, k)
	}
}
