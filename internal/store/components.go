package store

import (
	"database/sql"
	"fmt"

	"github.com/CdubVentures/spec-harvester-sub006/internal/model"
)

// ComponentIdentity is a persisted Component Identity row (§3): a physical
// part model identified by (category, component_type, canonical_name, maker).
type ComponentIdentity struct {
	ID                int64
	Category          string
	ComponentType     string
	CanonicalName     string
	Maker             string
	ReviewStatus      model.ReviewStatus
	AliasesOverridden bool
	Aliases           []string
}

// ComponentValue is a persisted Component Value row (§3).
type ComponentValue struct {
	ID             int64
	Category       string
	ComponentType  string
	CanonicalName  string
	Maker          string
	PropertyKey    string
	IdentityID     int64
	Value          string
	Confidence     float64
	VariancePolicy model.VariancePolicy
	Constraints    []string
	NeedsReview    bool
	Overridden     bool
}

// UpsertComponentIdentity creates the identity if absent, otherwise updates
// its review status (identity creation never overwrites a caller-set status
// with an empty one).
func (s *Store) UpsertComponentIdentity(ci ComponentIdentity) (int64, error) {
	var id int64
	err := s.withTx(func(tx *sql.Tx) error {
		row := tx.QueryRow(`SELECT id FROM component_identities
			WHERE category=? AND component_type=? AND canonical_name=? AND maker=?`,
			ci.Category, ci.ComponentType, ci.CanonicalName, ci.Maker)
		scanErr := row.Scan(&id)
		if scanErr == sql.ErrNoRows {
			status := ci.ReviewStatus
			if status == "" {
				status = model.StatusPending
			}
			res, err := tx.Exec(`INSERT INTO component_identities
				(category, component_type, canonical_name, maker, review_status, aliases_overridden)
				VALUES (?,?,?,?,?,?)`,
				ci.Category, ci.ComponentType, ci.CanonicalName, ci.Maker, string(status), boolToInt(ci.AliasesOverridden))
			if err != nil {
				return err
			}
			id, err = res.LastInsertId()
			return err
		}
		if scanErr != nil {
			return scanErr
		}
		if ci.ReviewStatus != "" {
			if _, err := tx.Exec(`UPDATE component_identities SET review_status=? WHERE id=?`, string(ci.ReviewStatus), id); err != nil {
				return err
			}
		}
		return nil
	})
	return id, err
}

// AddComponentAlias attaches alias to the identity, idempotently.
func (s *Store) AddComponentAlias(identityID int64, alias string) error {
	_, err := s.db.Exec(`INSERT INTO component_aliases (identity_id, alias) VALUES (?,?)
		ON CONFLICT(identity_id, alias) DO NOTHING`, identityID, alias)
	return err
}

// UpsertComponentValue creates or replaces the (category, type, name, maker,
// property) row. identityID must reference an existing Component Identity
// (invariant 1).
func (s *Store) UpsertComponentValue(cv ComponentValue) error {
	if cv.IdentityID == 0 {
		return fmt.Errorf("component value %s.%s requires a component identity", cv.CanonicalName, cv.PropertyKey)
	}
	constraints := joinConstraints(cv.Constraints)
	_, err := s.db.Exec(`INSERT INTO component_values
		(category, component_type, canonical_name, maker, property_key, identity_id, value, confidence,
		 variance_policy, constraints, needs_review, overridden)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(category, component_type, canonical_name, maker, property_key) DO UPDATE SET
			identity_id=excluded.identity_id, value=excluded.value, confidence=excluded.confidence,
			variance_policy=excluded.variance_policy, constraints=excluded.constraints,
			needs_review=excluded.needs_review, overridden=excluded.overridden`,
		cv.Category, cv.ComponentType, cv.CanonicalName, cv.Maker, cv.PropertyKey, cv.IdentityID,
		cv.Value, cv.Confidence, string(cv.VariancePolicy), constraints, boolToInt(cv.NeedsReview), boolToInt(cv.Overridden))
	return err
}

// FindComponentIdentityByAlias resolves a free-text alias to its identity
// within (category, componentType), or returns (0, false).
func (s *Store) FindComponentIdentityByAlias(category, componentType, alias string) (int64, bool, error) {
	var id int64
	err := s.db.QueryRow(`SELECT ci.id FROM component_identities ci
		JOIN component_aliases a ON a.identity_id = ci.id
		WHERE ci.category = ? AND ci.component_type = ? AND a.alias = ?`,
		category, componentType, alias).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// MergeComponentIdentities rewrites every reference to sourceID (links,
// values, aliases, review state) to point at targetID, resolving property
// collisions by review-status rank (confirmed > accepted > pending), then
// deletes the source identity.
func (s *Store) MergeComponentIdentities(sourceID, targetID int64) error {
	return s.withTx(func(tx *sql.Tx) error {
		rows, err := tx.Query(`SELECT id, property_key, value, confidence, variance_policy, constraints,
			needs_review, overridden FROM component_values WHERE identity_id = ?`, sourceID)
		if err != nil {
			return err
		}
		type srcValue struct {
			id                                          int64
			propertyKey, value, variancePolicy, constraints string
			confidence                                  float64
			needsReview, overridden                     int
		}
		var sourceValues []srcValue
		for rows.Next() {
			var v srcValue
			if err := rows.Scan(&v.id, &v.propertyKey, &v.value, &v.confidence, &v.variancePolicy,
				&v.constraints, &v.needsReview, &v.overridden); err != nil {
				rows.Close()
				return err
			}
			sourceValues = append(sourceValues, v)
		}
		rows.Close()

		for _, v := range sourceValues {
			var targetValueID int64
			var targetStatusRank, sourceStatusRank int
			err := tx.QueryRow(`SELECT id FROM component_values WHERE identity_id = ? AND property_key = ?`,
				targetID, v.propertyKey).Scan(&targetValueID)
			if err == sql.ErrNoRows {
				if _, err := tx.Exec(`UPDATE component_values SET identity_id = ? WHERE id = ?`, targetID, v.id); err != nil {
					return err
				}
				continue
			}
			if err != nil {
				return err
			}

			targetStatusRank, err = reviewStatusRank(tx, targetID)
			if err != nil {
				return err
			}
			sourceStatusRank, err = reviewStatusRank(tx, sourceID)
			if err != nil {
				return err
			}
			if sourceStatusRank > targetStatusRank {
				if _, err := tx.Exec(`UPDATE component_values SET value=?, confidence=?, variance_policy=?,
					constraints=?, needs_review=?, overridden=? WHERE id=?`,
					v.value, v.confidence, v.variancePolicy, v.constraints, v.needsReview, v.overridden, targetValueID); err != nil {
					return err
				}
			}
			if _, err := tx.Exec(`DELETE FROM component_values WHERE id = ?`, v.id); err != nil {
				return err
			}
		}

		if _, err := tx.Exec(`UPDATE OR IGNORE component_aliases SET identity_id = ? WHERE identity_id = ?`, targetID, sourceID); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM component_aliases WHERE identity_id = ?`, sourceID); err != nil {
			return err
		}
		if _, err := tx.Exec(`UPDATE item_component_links SET identity_id = ? WHERE identity_id = ?`, targetID, sourceID); err != nil {
			return err
		}
		if _, err := tx.Exec(`UPDATE key_review_states SET component_identity_id = ? WHERE component_identity_id = ?`, targetID, sourceID); err != nil {
			return err
		}
		if _, err := tx.Exec(`DELETE FROM component_identities WHERE id = ?`, sourceID); err != nil {
			return err
		}
		return nil
	})
}

func reviewStatusRank(tx *sql.Tx, identityID int64) (int, error) {
	var status string
	if err := tx.QueryRow(`SELECT review_status FROM component_identities WHERE id = ?`, identityID).Scan(&status); err != nil {
		return 0, err
	}
	return model.ReviewStatus(status).Rank(), nil
}

func joinConstraints(cs []string) string {
	out := ""
	for i, c := range cs {
		if i > 0 {
			out += "\x1f"
		}
		out += c
	}
	return out
}

func splitConstraints(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\x1f' {
			out = append(out, s[start:i])
			start = i + 1
		}
	}
	out = append(out, s[start:])
	return out
}
