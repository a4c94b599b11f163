package store

import "database/sql"

// ListValue is a persisted List Value row (§3): a member of a controlled
// vocabulary, required to reference an Enum List.
type ListValue struct {
	ID         int64
	Category   string
	FieldKey   string
	Value      string
	EnumListID int64
	Normalized string
	Policy     string
}

// EnsureEnumList creates the (category, fieldKey) enum list if absent and
// returns its id.
func (s *Store) EnsureEnumList(category, fieldKey string) (int64, error) {
	var id int64
	err := s.db.QueryRow(`SELECT id FROM enum_lists WHERE category=? AND field_key=?`, category, fieldKey).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}
	res, err := s.db.Exec(`INSERT INTO enum_lists (category, field_key) VALUES (?,?)`, category, fieldKey)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// UpsertListValue creates or updates a list value under its enum list.
func (s *Store) UpsertListValue(lv ListValue) (int64, error) {
	listID, err := s.EnsureEnumList(lv.Category, lv.FieldKey)
	if err != nil {
		return 0, err
	}
	var id int64
	err = s.withTx(func(tx *sql.Tx) error {
		_, err := tx.Exec(`INSERT INTO list_values (category, field_key, value, enum_list_id, normalized, policy)
			VALUES (?,?,?,?,?,?)
			ON CONFLICT(category, field_key, value) DO UPDATE SET
				enum_list_id=excluded.enum_list_id, normalized=excluded.normalized, policy=excluded.policy`,
			lv.Category, lv.FieldKey, lv.Value, listID, lv.Normalized, lv.Policy)
		if err != nil {
			return err
		}
		return tx.QueryRow(`SELECT id FROM list_values WHERE category=? AND field_key=? AND value=?`,
			lv.Category, lv.FieldKey, lv.Value).Scan(&id)
	})
	return id, err
}

// LookupListValue resolves value within (category, fieldKey), trying an
// exact match first and falling back to a case-insensitive match.
func (s *Store) LookupListValue(category, fieldKey, value string) (ListValue, bool, error) {
	lv, ok, err := s.scanListValue(`SELECT id, category, field_key, value, enum_list_id, normalized, policy
		FROM list_values WHERE category=? AND field_key=? AND value=?`, category, fieldKey, value)
	if err != nil || ok {
		return lv, ok, err
	}
	return s.scanListValue(`SELECT id, category, field_key, value, enum_list_id, normalized, policy
		FROM list_values WHERE category=? AND field_key=? AND value COLLATE NOCASE = ?`, category, fieldKey, value)
}

func (s *Store) scanListValue(query string, args ...interface{}) (ListValue, bool, error) {
	var lv ListValue
	err := s.db.QueryRow(query, args...).Scan(&lv.ID, &lv.Category, &lv.FieldKey, &lv.Value, &lv.EnumListID, &lv.Normalized, &lv.Policy)
	if err == sql.ErrNoRows {
		return ListValue{}, false, nil
	}
	if err != nil {
		return ListValue{}, false, err
	}
	return lv, true, nil
}

// RenameListValue changes a list value's text by id. R3: a subsequent
// rename back to the original text restores the original product mapping,
// since Item-List Links reference list_value_id, not the value text.
func (s *Store) RenameListValue(id int64, newValue string) error {
	_, err := s.db.Exec(`UPDATE list_values SET value = ? WHERE id = ?`, newValue, id)
	return err
}

// DeleteListValue removes a list value, cascading to Item-List Links,
// nullifying orphaned Source Assertion pointers, and removing any now
// slot-incomplete Key Review State rows and their history.
func (s *Store) DeleteListValue(id int64) error {
	return s.withTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(`DELETE FROM item_list_links WHERE list_value_id = ?`, id); err != nil {
			return err
		}
		if _, err := tx.Exec(`UPDATE source_assertions SET list_value_id = NULL WHERE list_value_id = ?`, id); err != nil {
			return err
		}

		rows, err := tx.Query(`SELECT id FROM key_review_states WHERE list_value_id = ?`, id)
		if err != nil {
			return err
		}
		var reviewIDs []int64
		for rows.Next() {
			var rid int64
			if err := rows.Scan(&rid); err != nil {
				rows.Close()
				return err
			}
			reviewIDs = append(reviewIDs, rid)
		}
		rows.Close()

		for _, rid := range reviewIDs {
			if _, err := tx.Exec(`DELETE FROM key_review_runs WHERE review_state_id = ?`, rid); err != nil {
				return err
			}
			if _, err := tx.Exec(`DELETE FROM key_review_audits WHERE review_state_id = ?`, rid); err != nil {
				return err
			}
			if _, err := tx.Exec(`DELETE FROM key_review_states WHERE id = ?`, rid); err != nil {
				return err
			}
		}

		_, err = tx.Exec(`DELETE FROM list_values WHERE id = ?`, id)
		return err
	})
}
