package review

import (
	"context"
	"testing"

	"github.com/CdubVentures/spec-harvester-sub006/internal/model"
	"github.com/CdubVentures/spec-harvester-sub006/internal/store"
)

func TestRunnerPersistsRunAndAudit(t *testing.T) {
	s, err := store.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	fieldID, err := s.UpsertItemFieldState(store.ItemFieldState{
		Category: "mouse", ProductID: "p1", FieldKey: "weight_g", Value: "60",
	})
	if err != nil {
		t.Fatalf("upsert field state: %v", err)
	}
	reviewStateID, err := s.UpsertReviewState(store.KeyReviewState{
		Category: "mouse", Kind: model.KeyGrid, ItemFieldStateID: fieldID,
	})
	if err != nil {
		t.Fatalf("upsert review state: %v", err)
	}

	runner := Runner{Store: s, Model: StubModel{Decision: model.StatusAccepted}}
	verdict, err := runner.RunOne(context.Background(), reviewStateID, Request{
		Category: "mouse", SlotKind: model.KeyGrid, FieldKey: "weight_g", Value: "60",
	})
	if err != nil {
		t.Fatalf("run one: %v", err)
	}
	if verdict.Decision != model.StatusAccepted {
		t.Fatalf("expected accepted verdict, got %v", verdict.Decision)
	}
}
