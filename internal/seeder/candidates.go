package seeder

import (
	"fmt"
	"time"

	"github.com/CdubVentures/spec-harvester-sub006/internal/candidateid"
	"github.com/CdubVentures/spec-harvester-sub006/internal/model"
	"github.com/CdubVentures/spec-harvester-sub006/internal/store"
)

// candidateEntry is one observed value for one field, as it appears in the
// merged per-product candidates.json (spec.md §6).
type candidateEntry struct {
	Value            string  `json:"value"`
	Score            float64 `json:"score"`
	Rank             int     `json:"rank"`
	RawCandidateID   string  `json:"candidate_id"`
	SourceURL        string  `json:"source_url"`
	SourceHost       string  `json:"source_host"`
	SourceTier       int     `json:"source_tier"`
	SourceMethod     string  `json:"source_method"`
	SnippetID        string  `json:"snippet_id"`
	SnippetHash      string  `json:"snippet_hash"`
	Quote            string  `json:"quote"`
	SourceID         string  `json:"source_id"`
	RetrievedAt      string  `json:"retrieved_at"`
	IsComponentField bool    `json:"is_component_field"`
	IsListField      bool    `json:"is_list_field"`
}

func (sd *Seeder) productCandidatesKey(category, productID string) string {
	return sd.localOutput.ResolveOutputKey(category, productID, "latest", "candidates.json")
}

// seedProductCandidates loads the merged candidates file for one product
// and inserts one row per observed value, in one batch (atomic per R1/store
// contract). Candidate ids are assigned deterministically via
// candidateid.ScopedItem so a reseed of identical inputs is idempotent (R4).
func (sd *Seeder) seedProductCandidates(category, productID string) (int, error) {
	var byField map[string][]candidateEntry
	ok, err := sd.localOutput.ReadJSONOrNull(sd.productCandidatesKey(category, productID), &byField)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, nil
	}

	var rows []store.CandidateRow
	for fieldKey, entries := range byField {
		for i, e := range entries {
			id := candidateid.ScopedItem(productID, fieldKey, e.RawCandidateID, e.Value, e.SourceHost, e.SourceMethod, i, "")
			retrievedAt, _ := time.Parse(time.RFC3339, e.RetrievedAt)
			rows = append(rows, store.CandidateRow{
				CandidateID: id,
				Category:    category,
				ProductID:   productID,
				FieldKey:    fieldKey,
				Value:       e.Value,
				Score:       e.Score,
				Rank:        e.Rank,
				Provenance: model.Provenance{
					URL:         e.SourceURL,
					Host:        e.SourceHost,
					Tier:        e.SourceTier,
					Method:      e.SourceMethod,
					SnippetID:   e.SnippetID,
					SnippetHash: e.SnippetHash,
					Quote:       e.Quote,
					SourceID:    e.SourceID,
					RetrievedAt: retrievedAt,
				},
				IsComponentField: e.IsComponentField,
				IsListField:      e.IsListField,
			})
		}
	}
	if len(rows) == 0 {
		return 0, nil
	}
	if err := sd.store.InsertCandidatesBatch(rows); err != nil {
		return 0, fmt.Errorf("insert candidates batch for %s: %w", productID, err)
	}
	return len(rows), nil
}
