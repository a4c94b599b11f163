package store

import "database/sql"

// Counts reports the row count for each category-scoped table, for
// diagnostics.
func (s *Store) Counts(category string) (map[string]int, error) {
	tables := []string{
		"products", "component_identities", "component_values", "enum_lists",
		"list_values", "candidates", "item_field_states", "item_component_links",
		"item_list_links", "source_registry", "source_assertions",
		"key_review_states", "product_queue",
	}
	out := make(map[string]int, len(tables))
	for _, t := range tables {
		var n int
		if err := s.db.QueryRow("SELECT COUNT(*) FROM "+t+" WHERE category = ?", category).Scan(&n); err != nil {
			return nil, err
		}
		out[t] = n
	}
	return out, nil
}

// IsSeeded reports true iff at least one of Component Identity, List Value,
// Item Field State, or Product is non-empty for category (I4).
func (s *Store) IsSeeded(category string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT
		(SELECT COUNT(*) FROM component_identities WHERE category = ?) +
		(SELECT COUNT(*) FROM list_values WHERE category = ?) +
		(SELECT COUNT(*) FROM item_field_states WHERE category = ?) +
		(SELECT COUNT(*) FROM products WHERE category = ?)`,
		category, category, category, category).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// OrphanPruneResult reports how many stale pointers were cleared per table.
type OrphanPruneResult struct {
	ItemFieldStatesCleared int
	ItemComponentLinksCleared int
}

// PruneOrphans clears item_field_states.accepted_candidate_id wherever it
// names no candidate of the same category, product and field (spec.md §4.1
// "Orphan pruning"). That is the only candidate pointer column in the
// schema; ItemComponentLinksCleared is always zero.
func (s *Store) PruneOrphans(category string) (OrphanPruneResult, error) {
	var res OrphanPruneResult
	err := s.withTx(func(tx *sql.Tx) error {
		r, err := tx.Exec(`UPDATE item_field_states SET accepted_candidate_id = NULL
			WHERE category = ? AND accepted_candidate_id IS NOT NULL
			AND accepted_candidate_id NOT IN (
				SELECT candidate_id FROM candidates c
				WHERE c.category = item_field_states.category
				AND c.product_id = item_field_states.product_id
				AND c.field_key = item_field_states.field_key
			)`, category)
		if err != nil {
			return err
		}
		n, err := r.RowsAffected()
		if err != nil {
			return err
		}
		res.ItemFieldStatesCleared = int(n)
		return nil
	})
	return res, err
}
