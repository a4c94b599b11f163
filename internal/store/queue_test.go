package store

import (
	"testing"
	"time"

	"github.com/CdubVentures/spec-harvester-sub006/internal/queue"
)

func TestUpsertQueueRowRoundTrips(t *testing.T) {
	s := newTestStore(t)
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	row := &queue.Row{
		ProductID:     "p1",
		Status:        queue.StatusRunning,
		Priority:      2,
		AttemptsTotal: 3,
		RetryCount:    1,
		MaxAttempts:   5,
		RoundsCompleted: 2,
		LastSummary: queue.Summary{
			Validated:       false,
			Confidence:      0.8,
			MissingFields:   []string{"weight_g"},
			Contradictions:  1,
			Timestamp:       now,
		},
		CostUSDTotalForProduct: 0.42,
		LastURLsAttempted:      []string{"https://example.com/a", "https://example.com/b"},
	}

	if err := s.UpsertQueueRow("mouse", row); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	got, ok, err := s.QueueRowByProduct("mouse", "p1")
	if err != nil || !ok {
		t.Fatalf("fetch: ok=%v err=%v", ok, err)
	}
	if got.Status != queue.StatusRunning || got.Priority != 2 || got.RoundsCompleted != 2 {
		t.Fatalf("unexpected row: %+v", got)
	}
	if len(got.LastURLsAttempted) != 2 || got.LastURLsAttempted[1] != "https://example.com/b" {
		t.Fatalf("unexpected urls: %v", got.LastURLsAttempted)
	}
	if len(got.LastSummary.MissingFields) != 1 || got.LastSummary.MissingFields[0] != "weight_g" {
		t.Fatalf("unexpected summary round-trip: %+v", got.LastSummary)
	}

	row.Status = queue.StatusComplete
	row.LastCompletedAt = &now
	if err := s.UpsertQueueRow("mouse", row); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	got2, _, err := s.QueueRowByProduct("mouse", "p1")
	if err != nil {
		t.Fatalf("refetch: %v", err)
	}
	if got2.Status != queue.StatusComplete || got2.LastCompletedAt == nil {
		t.Fatalf("expected status update to persist, got %+v", got2)
	}
}

func TestQueueRowsByCategoryUsableWithSelectNext(t *testing.T) {
	s := newTestStore(t)
	if err := s.UpsertQueueRow("mouse", &queue.Row{ProductID: "p1", Status: queue.StatusPending, Priority: 1, MaxAttempts: 5}); err != nil {
		t.Fatalf("upsert p1: %v", err)
	}
	if err := s.UpsertQueueRow("mouse", &queue.Row{ProductID: "p2", Status: queue.StatusBlocked, Priority: 1, MaxAttempts: 5}); err != nil {
		t.Fatalf("upsert p2: %v", err)
	}

	rows, err := s.QueueRowsByCategory("mouse")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}

	next := queue.SelectNext(rows, time.Now())
	if next == nil || next.ProductID != "p1" {
		t.Fatalf("expected p1 selectable over blocked p2, got %+v", next)
	}
}
