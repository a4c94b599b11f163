package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/CdubVentures/spec-harvester-sub006/internal/model"
	"github.com/CdubVentures/spec-harvester-sub006/internal/review"
	"github.com/CdubVentures/spec-harvester-sub006/internal/store"
)

var reviewGenAIModel string

var reviewCmd = &cobra.Command{
	Use:   "review <category>",
	Short: "Run the AI review lane over every field flagged needs_ai_review",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category := args[0]

		pending, err := db.ItemFieldStatesNeedingReview(category)
		if err != nil {
			return fmt.Errorf("list fields needing review: %w", err)
		}
		if len(pending) == 0 {
			fmt.Println("no fields pending review")
			return nil
		}

		runner := review.Runner{Store: db, Model: reviewModel(cmd.Context())}

		for _, field := range pending {
			reviewStateID, err := db.UpsertReviewState(store.KeyReviewState{
				Category:         category,
				Kind:             model.KeyGrid,
				ItemFieldStateID: field.ID,
			})
			if err != nil {
				return fmt.Errorf("upsert review state for %s/%s: %w", field.ProductID, field.FieldKey, err)
			}

			verdict, err := runner.RunOne(cmd.Context(), reviewStateID, review.Request{
				Category: category,
				SlotKind: model.KeyGrid,
				FieldKey: field.FieldKey,
				Value:    field.Value,
			})
			if err != nil {
				return fmt.Errorf("review %s/%s: %w", field.ProductID, field.FieldKey, err)
			}

			field.AIReviewComplete = true
			if verdict.Decision == model.StatusAccepted {
				field.NeedsAIReview = false
			}
			if _, err := db.UpsertItemFieldState(field); err != nil {
				return fmt.Errorf("persist review outcome for %s/%s: %w", field.ProductID, field.FieldKey, err)
			}

			fmt.Printf("%s/%s: %s (%s)\n", field.ProductID, field.FieldKey, verdict.Decision, verdict.Reasoning)
		}
		return nil
	},
}

func reviewModel(ctx context.Context) review.Model {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" || reviewGenAIModel == "" {
		return review.TimedModel{Inner: review.StubModel{Decision: model.StatusPending}}
	}
	m, err := review.NewGenAIModel(ctx, apiKey, reviewGenAIModel)
	if err != nil {
		return review.TimedModel{Inner: review.StubModel{Decision: model.StatusPending}}
	}
	return review.TimedModel{Inner: m}
}

func init() {
	reviewCmd.Flags().StringVar(&reviewGenAIModel, "model", "", "genai model name to use (falls back to a stub reviewer when unset or GEMINI_API_KEY is absent)")
}
