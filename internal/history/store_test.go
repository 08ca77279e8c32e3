package history_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"lathe/internal/history"
	"lathe/internal/testsupport"
)

func TestRecordAndRecentRunsRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	base := time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC)
	first := history.RunRecord{
		ID:         uuid.NewString(),
		Version:    "2.1.3",
		DryRun:     true,
		Success:    true,
		Stages:     []string{"docs", "build"},
		Errors:     []string{},
		StartedAt:  base,
		FinishedAt: base.Add(2 * time.Minute),
	}
	second := history.RunRecord{
		ID:         uuid.NewString(),
		Version:    "2.1.4",
		Success:    false,
		Stages:     []string{"docs", "build", "publish"},
		Errors:     []string{"upload failed: bundle"},
		ReleaseURL: "https://example.com/releases/v2.1.4",
		StartedAt:  base.Add(time.Hour),
		FinishedAt: base.Add(time.Hour + time.Minute),
	}

	ctx := context.Background()
	for _, record := range []history.RunRecord{first, second} {
		if err := store.RecordRun(ctx, record); err != nil {
			t.Fatalf("RecordRun: %v", err)
		}
	}

	records, err := store.RecentRuns(ctx, 10)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ID != second.ID {
		t.Fatal("expected newest run first")
	}

	got := records[0]
	if got.Version != "2.1.4" || got.Success || got.DryRun {
		t.Fatalf("unexpected record %+v", got)
	}
	if len(got.Stages) != 3 || got.Stages[2] != "publish" {
		t.Fatalf("stages lost in round trip: %v", got.Stages)
	}
	if len(got.Errors) != 1 || got.Errors[0] != "upload failed: bundle" {
		t.Fatalf("errors lost in round trip: %v", got.Errors)
	}
	if !got.StartedAt.Equal(second.StartedAt) {
		t.Fatalf("started_at drifted: %v != %v", got.StartedAt, second.StartedAt)
	}
}

func TestRecentRunsHonorsLimit(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		record := history.RunRecord{
			ID:         uuid.NewString(),
			Version:    "2.1.4",
			StartedAt:  base.Add(time.Duration(i) * time.Minute),
			FinishedAt: base.Add(time.Duration(i)*time.Minute + 30*time.Second),
		}
		if err := store.RecordRun(ctx, record); err != nil {
			t.Fatalf("RecordRun: %v", err)
		}
	}

	records, err := store.RecentRuns(ctx, 3)
	if err != nil {
		t.Fatalf("RecentRuns: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
}

func TestOpenIsReentrant(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("first Open: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}

	again, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("second Open against existing database: %v", err)
	}
	defer again.Close()
}
