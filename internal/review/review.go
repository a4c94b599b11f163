// Package review implements the AI review lane a Key Review Run records
// against a reviewable slot: given a slot's current value and the evidence
// backing it, ask a model whether the value should be accepted, and log the
// provider/model/tokens/cost/latency the run cost. The Runtime Gate and
// Store never depend on this package's client directly; they depend on the
// Model interface so a stub can stand in during tests.
package review

import (
	"context"
	"time"

	"github.com/CdubVentures/spec-harvester-sub006/internal/model"
)

// Request is everything a review model needs to judge one reviewable slot.
type Request struct {
	Category    string
	SlotKind    model.KeyKind
	FieldKey    string
	Value       string
	Evidence    []EvidenceSnippet
	PriorRounds int
}

// EvidenceSnippet is one piece of provenance backing Value.
type EvidenceSnippet struct {
	URL   string
	Quote string
}

// Verdict is a model's judgment of one Request.
type Verdict struct {
	Decision   model.ReviewStatus // accepted or confirmed; pending means "inconclusive"
	Reasoning  string
	Confidence float64
}

// Usage records what one review call cost, the fields a Key Review Run
// persists (spec.md §3).
type Usage struct {
	Provider  string
	Model     string
	Tokens    int
	CostUSD   float64
	LatencyMs int64
}

// Model reviews a slot and reports the verdict plus what the call cost.
// Implementations must be safe for concurrent use.
type Model interface {
	Review(ctx context.Context, req Request) (Verdict, Usage, error)
}

// Clock abstracts time.Now for latency measurement, overridable in tests.
type Clock func() time.Time

// TimedModel wraps an underlying Model and fills in Usage.LatencyMs from
// wall-clock elapsed time around the call, so a Model implementation never
// needs to measure its own latency.
type TimedModel struct {
	Inner Model
	Now   Clock
}

func (t TimedModel) Review(ctx context.Context, req Request) (Verdict, Usage, error) {
	now := t.Now
	if now == nil {
		now = time.Now
	}
	start := now()
	verdict, usage, err := t.Inner.Review(ctx, req)
	usage.LatencyMs = now().Sub(start).Milliseconds()
	return verdict, usage, err
}
