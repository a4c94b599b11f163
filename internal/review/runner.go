package review

import (
	"context"
	"time"

	"github.com/CdubVentures/spec-harvester-sub006/internal/logging"
	"github.com/CdubVentures/spec-harvester-sub006/internal/model"
	"github.com/CdubVentures/spec-harvester-sub006/internal/store"
)

// Runner drives one slot through a Model and persists the resulting Key
// Review Run and Audit rows.
type Runner struct {
	Store *store.Store
	Model Model
}

// RunOne reviews reviewStateID's current slot value via req and appends a
// Key Review Run plus an ai_review Audit event. It returns the verdict so
// the caller (the gate, or a CLI command) can decide whether to apply it.
// If the model call fails, only the run row is appended, no audit event is
// written, and a pending verdict is returned with a nil error.
func (r Runner) RunOne(ctx context.Context, reviewStateID int64, req Request) (Verdict, error) {
	log := logging.For(logging.ComponentGate).Sugar()

	verdict, usage, err := r.Model.Review(ctx, req)
	now := time.Now().UTC().Format(time.RFC3339)

	runID, runErr := r.Store.AppendReviewRun(store.KeyReviewRun{
		ReviewStateID: reviewStateID,
		Provider:      usage.Provider,
		Model:         usage.Model,
		Tokens:        usage.Tokens,
		CostUSD:       usage.CostUSD,
		LatencyMs:     usage.LatencyMs,
		CreatedAt:     now,
	})
	if runErr != nil {
		return Verdict{}, runErr
	}

	if err != nil {
		log.Warnw("review model call failed", "review_state_id", reviewStateID, "err", err)
		return Verdict{Decision: model.StatusPending}, nil
	}

	auditErr := r.Store.AppendReviewAudit(store.KeyReviewAudit{
		ReviewStateID: reviewStateID,
		Event:         model.EventAIReview,
		Actor:         usage.Provider,
		ModelID:       usage.Model,
		CreatedAt:     now,
	})
	if auditErr != nil {
		return Verdict{}, auditErr
	}

	log.Infow("ai review complete", "review_state_id", reviewStateID, "run_id", runID,
		"decision", verdict.Decision, "tokens", usage.Tokens, "cost_usd", usage.CostUSD)
	return verdict, nil
}
