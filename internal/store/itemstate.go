package store

import (
	"database/sql"

	"github.com/CdubVentures/spec-harvester-sub006/internal/model"
)

// ItemFieldState is a persisted Item Field State row (§3): the current
// accepted value for one field of one product.
type ItemFieldState struct {
	ID                  int64
	Category            string
	ProductID           string
	FieldKey            string
	Value               string
	Confidence          float64
	AcceptedCandidateID string
	Overridden          bool
	NeedsAIReview       bool
	AIReviewComplete    bool
}

// ItemComponentLink is a persisted Item-Component Link row (§3).
type ItemComponentLink struct {
	Category   string
	ProductID  string
	FieldKey   string
	IdentityID int64
	MatchType  model.MatchType
	Score      float64
}

// UpsertItemFieldState creates or replaces the (category, product, field) row.
func (s *Store) UpsertItemFieldState(f ItemFieldState) (int64, error) {
	_, err := s.db.Exec(`INSERT INTO item_field_states
		(category, product_id, field_key, value, confidence, accepted_candidate_id, overridden, needs_ai_review, ai_review_complete)
		VALUES (?,?,?,?,?,?,?,?,?)
		ON CONFLICT(category, product_id, field_key) DO UPDATE SET
			value=excluded.value, confidence=excluded.confidence, accepted_candidate_id=excluded.accepted_candidate_id,
			overridden=excluded.overridden, needs_ai_review=excluded.needs_ai_review, ai_review_complete=excluded.ai_review_complete`,
		f.Category, f.ProductID, f.FieldKey, f.Value, f.Confidence, nullIfEmpty(f.AcceptedCandidateID),
		boolToInt(f.Overridden), boolToInt(f.NeedsAIReview), boolToInt(f.AIReviewComplete))
	if err != nil {
		return 0, err
	}
	var id int64
	err = s.db.QueryRow(`SELECT id FROM item_field_states WHERE category=? AND product_id=? AND field_key=?`,
		f.Category, f.ProductID, f.FieldKey).Scan(&id)
	return id, err
}

// ItemFieldStateByKey fetches a single field state, or ok=false if absent.
func (s *Store) ItemFieldStateByKey(category, productID, fieldKey string) (ItemFieldState, bool, error) {
	var f ItemFieldState
	var acceptedCandidateID sql.NullString
	var overridden, needsReview, reviewComplete int
	err := s.db.QueryRow(`SELECT id, category, product_id, field_key, value, confidence, accepted_candidate_id,
		overridden, needs_ai_review, ai_review_complete FROM item_field_states
		WHERE category=? AND product_id=? AND field_key=?`, category, productID, fieldKey).Scan(
		&f.ID, &f.Category, &f.ProductID, &f.FieldKey, &f.Value, &f.Confidence, &acceptedCandidateID,
		&overridden, &needsReview, &reviewComplete)
	if err == sql.ErrNoRows {
		return ItemFieldState{}, false, nil
	}
	if err != nil {
		return ItemFieldState{}, false, err
	}
	f.AcceptedCandidateID = acceptedCandidateID.String
	f.Overridden = overridden != 0
	f.NeedsAIReview = needsReview != 0
	f.AIReviewComplete = reviewComplete != 0
	return f, true, nil
}

// ItemFieldStatesNeedingReview lists every field state in category flagged
// needs_ai_review and not yet ai_review_complete, the CLI's review queue.
func (s *Store) ItemFieldStatesNeedingReview(category string) ([]ItemFieldState, error) {
	rows, err := s.db.Query(`SELECT id, category, product_id, field_key, value, confidence, accepted_candidate_id,
		overridden, needs_ai_review, ai_review_complete FROM item_field_states
		WHERE category=? AND needs_ai_review=1 AND ai_review_complete=0`, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ItemFieldState
	for rows.Next() {
		var f ItemFieldState
		var acceptedCandidateID sql.NullString
		var overridden, needsReview, reviewComplete int
		if err := rows.Scan(&f.ID, &f.Category, &f.ProductID, &f.FieldKey, &f.Value, &f.Confidence,
			&acceptedCandidateID, &overridden, &needsReview, &reviewComplete); err != nil {
			return nil, err
		}
		f.AcceptedCandidateID = acceptedCandidateID.String
		f.Overridden = overridden != 0
		f.NeedsAIReview = needsReview != 0
		f.AIReviewComplete = reviewComplete != 0
		out = append(out, f)
	}
	return out, rows.Err()
}

// UpsertItemComponentLink binds one field of one product to a component
// identity.
func (s *Store) UpsertItemComponentLink(l ItemComponentLink) error {
	_, err := s.db.Exec(`INSERT INTO item_component_links (category, product_id, field_key, identity_id, match_type, score)
		VALUES (?,?,?,?,?,?)
		ON CONFLICT(category, product_id, field_key) DO UPDATE SET
			identity_id=excluded.identity_id, match_type=excluded.match_type, score=excluded.score`,
		l.Category, l.ProductID, l.FieldKey, l.IdentityID, string(l.MatchType), l.Score)
	return err
}

// UpsertItemListLink adds a single (field, list_value_id) membership for a
// product, idempotently.
func (s *Store) UpsertItemListLink(category, productID, fieldKey string, listValueID int64) error {
	_, err := s.db.Exec(`INSERT INTO item_list_links (category, product_id, field_key, list_value_id)
		VALUES (?,?,?,?) ON CONFLICT(category, product_id, field_key, list_value_id) DO NOTHING`,
		category, productID, fieldKey, listValueID)
	return err
}

// SyncItemListLinkForFieldValue expands value by tokenizing it (spec.md
// §3/ listDelimiters) and replaces the field's entire set of Item-List
// Links atomically with the links implied by the resulting tokens (R2):
// calling twice with the same value is a no-op on the resulting set;
// calling with a different value replaces the set.
func (s *Store) SyncItemListLinkForFieldValue(category, productID, fieldKey, value string) error {
	tokens := model.SplitList(value)

	return s.withTx(func(tx *sql.Tx) error {
		listID, err := ensureEnumListTx(tx, category, fieldKey)
		if err != nil {
			return err
		}

		var wantIDs []int64
		for _, tok := range tokens {
			var lvID int64
			err := tx.QueryRow(`SELECT id FROM list_values WHERE category=? AND field_key=? AND value=?`,
				category, fieldKey, tok).Scan(&lvID)
			if err == sql.ErrNoRows {
				res, err := tx.Exec(`INSERT INTO list_values (category, field_key, value, enum_list_id) VALUES (?,?,?,?)`,
					category, fieldKey, tok, listID)
				if err != nil {
					return err
				}
				lvID, err = res.LastInsertId()
				if err != nil {
					return err
				}
			} else if err != nil {
				return err
			}
			wantIDs = append(wantIDs, lvID)
		}

		if _, err := tx.Exec(`DELETE FROM item_list_links WHERE category=? AND product_id=? AND field_key=?`,
			category, productID, fieldKey); err != nil {
			return err
		}
		for _, id := range wantIDs {
			if _, err := tx.Exec(`INSERT INTO item_list_links (category, product_id, field_key, list_value_id) VALUES (?,?,?,?)`,
				category, productID, fieldKey, id); err != nil {
				return err
			}
		}
		return nil
	})
}

func ensureEnumListTx(tx *sql.Tx, category, fieldKey string) (int64, error) {
	var id int64
	err := tx.QueryRow(`SELECT id FROM enum_lists WHERE category=? AND field_key=?`, category, fieldKey).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}
	res, err := tx.Exec(`INSERT INTO enum_lists (category, field_key) VALUES (?,?)`, category, fieldKey)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
