package store

import (
	"database/sql"

	"github.com/CdubVentures/spec-harvester-sub006/internal/model"
)

// KeyReviewState is a persisted Key Review State row (§3): one row per
// reviewable slot, identified by its kind-specific slot identity rather
// than a free-form id.
type KeyReviewState struct {
	ID                   int64
	Category             string
	Kind                 model.KeyKind
	ItemFieldStateID     int64
	ListValueID          int64
	ComponentValueID     int64
	ComponentIdentityID  int64
	ComponentProperty    string
}

// KeyReviewRun is one AI review invocation against a slot.
type KeyReviewRun struct {
	ReviewStateID int64
	Provider      string
	Model         string
	Tokens        int
	CostUSD       float64
	LatencyMs     int64
	CreatedAt     string
}

// KeyReviewAudit is one append-only event against a slot.
type KeyReviewAudit struct {
	ReviewStateID int64
	Event         model.AuditEvent
	Actor         string
	ModelID       string
	CreatedAt     string
}

// UpsertReviewState finds or creates the Key Review State row for a slot,
// keyed by the slot's identity (not a free-form identifier), per §4.1
// "Reviews... Upsert uniqueness keyed by the slot identity."
func (s *Store) UpsertReviewState(rs KeyReviewState) (int64, error) {
	var id int64
	var query string
	var args []interface{}

	switch rs.Kind {
	case model.KeyGrid:
		query = `SELECT id FROM key_review_states WHERE category=? AND kind='grid_key' AND item_field_state_id=?`
		args = []interface{}{rs.Category, rs.ItemFieldStateID}
	case model.KeyEnum:
		query = `SELECT id FROM key_review_states WHERE category=? AND kind='enum_key' AND list_value_id=?`
		args = []interface{}{rs.Category, rs.ListValueID}
	case model.KeyComponent:
		if rs.ComponentValueID != 0 {
			query = `SELECT id FROM key_review_states WHERE category=? AND kind='component_key' AND component_value_id=?`
			args = []interface{}{rs.Category, rs.ComponentValueID}
		} else {
			query = `SELECT id FROM key_review_states WHERE category=? AND kind='component_key' AND component_identity_id=? AND component_property=?`
			args = []interface{}{rs.Category, rs.ComponentIdentityID, rs.ComponentProperty}
		}
	}

	err := s.db.QueryRow(query, args...).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}

	res, err := s.db.Exec(`INSERT INTO key_review_states
		(category, kind, item_field_state_id, list_value_id, component_value_id, component_identity_id, component_property)
		VALUES (?,?,?,?,?,?,?)`,
		rs.Category, string(rs.Kind), nullIfZero(rs.ItemFieldStateID), nullIfZero(rs.ListValueID),
		nullIfZero(rs.ComponentValueID), nullIfZero(rs.ComponentIdentityID), nullIfEmpty(rs.ComponentProperty))
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// AppendReviewRun records an AI review run against a slot (append-only) and
// returns the new row's id.
func (s *Store) AppendReviewRun(r KeyReviewRun) (int64, error) {
	res, err := s.db.Exec(`INSERT INTO key_review_runs
		(review_state_id, provider, model, tokens, cost_usd, latency_ms, created_at)
		VALUES (?,?,?,?,?,?,?)`,
		r.ReviewStateID, r.Provider, r.Model, r.Tokens, r.CostUSD, r.LatencyMs, r.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// AppendReviewAudit records an audit event against a slot (append-only).
func (s *Store) AppendReviewAudit(a KeyReviewAudit) error {
	_, err := s.db.Exec(`INSERT INTO key_review_audits
		(review_state_id, event, actor, model_id, created_at)
		VALUES (?,?,?,?,?)`,
		a.ReviewStateID, string(a.Event), a.Actor, a.ModelID, a.CreatedAt)
	return err
}

func nullIfZero(v int64) interface{} {
	if v == 0 {
		return nil
	}
	return v
}
