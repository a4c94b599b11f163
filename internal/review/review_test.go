package review

import (
	"context"
	"testing"
	"time"

	"github.com/CdubVentures/spec-harvester-sub006/internal/model"
)

func TestTimedModelRecordsLatency(t *testing.T) {
	calls := 0
	ticks := []time.Time{
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 1, 1, 0, 0, 0, 250_000_000, time.UTC),
	}
	clock := func() time.Time {
		tm := ticks[calls]
		calls++
		return tm
	}

	tm := TimedModel{Inner: StubModel{Decision: model.StatusAccepted}, Now: clock}
	verdict, usage, err := tm.Review(context.Background(), Request{FieldKey: "weight_g"})
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if verdict.Decision != model.StatusAccepted {
		t.Fatalf("expected accepted, got %v", verdict.Decision)
	}
	if usage.LatencyMs != 250 {
		t.Fatalf("expected 250ms latency, got %dms", usage.LatencyMs)
	}
}

func TestStubModelDefaultsToAccepted(t *testing.T) {
	verdict, usage, err := (StubModel{}).Review(context.Background(), Request{})
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if verdict.Decision != model.StatusAccepted {
		t.Fatalf("expected default decision accepted, got %v", verdict.Decision)
	}
	if usage.Provider != "stub" {
		t.Fatalf("expected stub provider, got %q", usage.Provider)
	}
}

func TestExtractJSONStripsSurroundingProse(t *testing.T) {
	got := extractJSON("Sure, here you go:\n```json\n{\"decision\": \"accept\"}\n```")
	if got != `{"decision": "accept"}` {
		t.Fatalf("unexpected extraction: %q", got)
	}
}
