package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/CdubVentures/spec-harvester-sub006/internal/harvesterr"
	"github.com/CdubVentures/spec-harvester-sub006/internal/model"
)

// SourceRegistration is one capture of a source page for a product
// (§3 "Source Registry"): one row per (product, host, run).
type SourceRegistration struct {
	SourceID   string
	Category   string
	ProductID  string
	Host       string
	RunID      string
	CapturedAt time.Time
}

// RegisterSource records a source capture, generating a source id if the
// caller did not supply one.
func (s *Store) RegisterSource(reg SourceRegistration) (string, error) {
	if reg.SourceID == "" {
		reg.SourceID = "source_" + uuid.NewString()
	}
	if reg.CapturedAt.IsZero() {
		reg.CapturedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`INSERT INTO source_registry (source_id, category, product_id, host, run_id, captured_at)
		VALUES (?,?,?,?,?,?)
		ON CONFLICT(source_id) DO NOTHING`,
		reg.SourceID, reg.Category, reg.ProductID, reg.Host, reg.RunID, reg.CapturedAt.Format(time.RFC3339))
	return reg.SourceID, err
}

// SourceAssertion is a persisted Source Assertion row (§3): every assertion
// references a Source Registry row, a field, and exactly one slot matching
// its context kind.
type SourceAssertion struct {
	AssertionID      string // equals the originating candidate id
	SourceID         string
	Category         string
	FieldKey         string
	ContextKind      model.ContextKind
	ItemFieldStateID int64
	ComponentValueID int64
	ListValueID      int64
}

// RecordSourceAssertion inserts an assertion row and its evidence refs in
// one transaction, enforcing invariant 4 (slot reference matches
// context_kind) before any row is written.
func (s *Store) RecordSourceAssertion(a SourceAssertion, evidenceRefs []model.Provenance) error {
	switch a.ContextKind {
	case model.ContextItem:
		if a.ItemFieldStateID == 0 {
			return errSlotMismatch(a)
		}
	case model.ContextComponent:
		if a.ComponentValueID == 0 {
			return errSlotMismatch(a)
		}
	case model.ContextList:
		if a.ListValueID == 0 {
			return errSlotMismatch(a)
		}
	default:
		return errSlotMismatch(a)
	}

	return s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO source_assertions
			(assertion_id, source_id, category, field_key, context_kind, item_field_state_id, component_value_id, list_value_id)
			VALUES (?,?,?,?,?,?,?,?)
			ON CONFLICT(assertion_id) DO UPDATE SET
				source_id=excluded.source_id, field_key=excluded.field_key, context_kind=excluded.context_kind,
				item_field_state_id=excluded.item_field_state_id, component_value_id=excluded.component_value_id,
				list_value_id=excluded.list_value_id`,
			a.AssertionID, a.SourceID, a.Category, a.FieldKey, string(a.ContextKind),
			nullIfZero(a.ItemFieldStateID), nullIfZero(a.ComponentValueID), nullIfZero(a.ListValueID))
		if err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM source_evidence_refs WHERE assertion_id = ?`, a.AssertionID); err != nil {
			return err
		}
		for _, ev := range evidenceRefs {
			if _, err := tx.Exec(`INSERT INTO source_evidence_refs (assertion_id, snippet_id, url) VALUES (?,?,?)`,
				a.AssertionID, ev.SnippetID, ev.URL); err != nil {
				return err
			}
		}
		return nil
	})
}

func errSlotMismatch(a SourceAssertion) error {
	return &harvesterr.SchemaError{
		Table: "source_assertions",
		Op:    "insert",
		Err:   errors.New("no slot reference set for context_kind " + string(a.ContextKind)),
	}
}
