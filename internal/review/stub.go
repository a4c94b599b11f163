package review

import (
	"context"

	"github.com/CdubVentures/spec-harvester-sub006/internal/model"
)

// StubModel is an in-memory Model for tests and for operating the core
// without a configured provider: every Review call returns Decision
// unconditionally, with zero cost and zero tokens.
type StubModel struct {
	Decision  model.ReviewStatus
	Reasoning string
}

func (s StubModel) Review(ctx context.Context, req Request) (Verdict, Usage, error) {
	decision := s.Decision
	if decision == "" {
		decision = model.StatusAccepted
	}
	return Verdict{Decision: decision, Reasoning: s.Reasoning, Confidence: 1}, Usage{Provider: "stub"}, nil
}
