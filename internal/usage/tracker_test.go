package usage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"replyassist/internal/storage"
	"replyassist/internal/types"
)

func TestRecord_IncrementsDayAndPersonaCounters(t *testing.T) {
	store := storage.NewMemStore()
	day := time.Date(2025, 6, 1, 15, 30, 0, 0, time.UTC)
	tracker := NewTracker(store).WithClock(func() time.Time { return day })
	ctx := context.Background()

	if err := tracker.Record(ctx, "p1"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := tracker.Record(ctx, "p1"); err != nil {
		t.Fatalf("Record: %v", err)
	}

	stats, err := tracker.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	bucket := stats["2025-06-01"]
	if bucket.Total != 2 {
		t.Errorf("Total=%d, want 2", bucket.Total)
	}
	if bucket.PerPersona["p1"] != 2 {
		t.Errorf("PerPersona[p1]=%d, want 2", bucket.PerPersona["p1"])
	}

	var settings types.GenerationSettings
	ok, err := storage.GetInto(ctx, store, types.KeySettings, &settings)
	if err != nil || !ok {
		t.Fatalf("settings read: ok=%v err=%v", ok, err)
	}
	if settings.TotalGenerations != 2 {
		t.Errorf("TotalGenerations=%d, want 2", settings.TotalGenerations)
	}
}

func TestRecord_SeparateDaysAndPersonas(t *testing.T) {
	store := storage.NewMemStore()
	now := time.Date(2025, 6, 1, 23, 59, 0, 0, time.UTC)
	tracker := NewTracker(store).WithClock(func() time.Time { return now })
	ctx := context.Background()

	if err := tracker.Record(ctx, "p1"); err != nil {
		t.Fatalf("Record: %v", err)
	}
	now = now.Add(2 * time.Minute) // crosses midnight
	if err := tracker.Record(ctx, "p2"); err != nil {
		t.Fatalf("Record: %v", err)
	}

	stats, err := tracker.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats["2025-06-01"].PerPersona["p1"] != 1 {
		t.Errorf("day one p1=%d, want 1", stats["2025-06-01"].PerPersona["p1"])
	}
	if stats["2025-06-02"].PerPersona["p2"] != 1 {
		t.Errorf("day two p2=%d, want 1", stats["2025-06-02"].PerPersona["p2"])
	}
}

func TestRecord_RetentionDropsOldestDayKeys(t *testing.T) {
	store := storage.NewMemStore()
	ctx := context.Background()

	// Seed 30 existing day buckets.
	seeded := types.UsageStats{}
	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < RetentionDays; i++ {
		key := start.AddDate(0, 0, i).Format(types.DayKeyFormat)
		seeded[key] = types.DayStats{Total: 1, PerPersona: map[string]int{"p1": 1}}
	}
	if err := store.Set(ctx, map[string]interface{}{types.KeyUsageStats: seeded}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	later := start.AddDate(0, 0, RetentionDays)
	tracker := NewTracker(store).WithClock(func() time.Time { return later })
	if err := tracker.Record(ctx, "p1"); err != nil {
		t.Fatalf("Record: %v", err)
	}

	stats, err := tracker.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if len(stats) != RetentionDays {
		t.Fatalf("len=%d, want %d", len(stats), RetentionDays)
	}
	oldest := start.Format(types.DayKeyFormat)
	if _, ok := stats[oldest]; ok {
		t.Errorf("oldest day-key %s should have been pruned", oldest)
	}
	newest := later.Format(types.DayKeyFormat)
	if stats[newest].Total != 1 {
		t.Errorf("newest bucket total=%d, want 1", stats[newest].Total)
	}
}

func TestRecord_ManyPersonasSameDay(t *testing.T) {
	store := storage.NewMemStore()
	day := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	tracker := NewTracker(store).WithClock(func() time.Time { return day })
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := tracker.Record(ctx, fmt.Sprintf("p%d", i%2)); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	stats, err := tracker.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	bucket := stats["2025-06-01"]
	if bucket.Total != 5 || bucket.PerPersona["p0"] != 3 || bucket.PerPersona["p1"] != 2 {
		t.Errorf("bucket=%+v, want total=5 p0=3 p1=2", bucket)
	}
}
