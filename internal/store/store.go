// Package store implements the SpecDb: a typed, per-category relational
// store over an embedded SQL engine, with schema migrations, integrity
// invariants, and the authoritative-component cascade engine.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/CdubVentures/spec-harvester-sub006/internal/harvesterr"
	"github.com/CdubVentures/spec-harvester-sub006/internal/logging"

	_ "modernc.org/sqlite"
)

// Store is synchronous, single-writer, single-process access to the
// category-scoped schema. Modeled on the teacher's LocalStore: one
// *sql.DB, opened once, with SetMaxOpenConns(1) to serialize writers the
// way the contract requires.
type Store struct {
	db   *sql.DB
	path string
}

// Open creates (if needed) and initializes a Store at path. path may be
// ":memory:" for tests.
func Open(path string) (*Store, error) {
	log := logging.For(logging.ComponentStore)

	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create store directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		log.Warn("failed to enable foreign_keys pragma")
	}
	if _, err := db.Exec(`PRAGMA journal_mode = WAL`); err != nil {
		log.Warn("failed to set journal_mode=WAL")
	}

	s := &Store{db: db, path: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// initialize runs the five schema-initialization steps of the store
// contract: create tables, migrate, create partial unique indexes, sweep
// slot-incomplete review rows, and verify invariants 1-4.
func (s *Store) initialize() error {
	log := logging.For(logging.ComponentStore)

	for _, stmt := range createStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement: %w", err)
		}
	}

	if err := runMigrations(s.db); err != nil {
		return err
	}

	removed, err := s.sweepSlotIncompleteReviewRows()
	if err != nil {
		return fmt.Errorf("sweep slot-incomplete review rows: %w", err)
	}
	if removed > 0 {
		log.Sugar().Infow("removed slot-incomplete key review rows", "count", removed)
	}

	if err := s.verifyIntegrity(); err != nil {
		return err
	}
	return nil
}

// sweepSlotIncompleteReviewRows deletes Key Review State rows that are not
// slot-complete per §3 (a pre-existing corruption from older schemas), and
// cascades the delete to their Runs and Audit entries. Returns the count of
// review-state rows removed.
func (s *Store) sweepSlotIncompleteReviewRows() (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	rows, err := tx.Query(`SELECT id FROM key_review_states WHERE
		(kind = 'grid_key' AND item_field_state_id IS NULL) OR
		(kind = 'enum_key' AND list_value_id IS NULL) OR
		(kind = 'component_key' AND component_value_id IS NULL AND
			(component_identity_id IS NULL OR component_property IS NULL OR component_property = ''))`)
	if err != nil {
		return 0, err
	}
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return 0, err
		}
		ids = append(ids, id)
	}
	rows.Close()

	for _, id := range ids {
		if _, err := tx.Exec(`DELETE FROM key_review_runs WHERE review_state_id = ?`, id); err != nil {
			return 0, err
		}
		if _, err := tx.Exec(`DELETE FROM key_review_audits WHERE review_state_id = ?`, id); err != nil {
			return 0, err
		}
		if _, err := tx.Exec(`DELETE FROM key_review_states WHERE id = ?`, id); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// verifyIntegrity checks invariants 1-4 of §3. A violation is fatal: the
// caller must not continue with a corrupt store.
func (s *Store) verifyIntegrity() error {
	checks := []struct {
		invariant string
		query     string
	}{
		{
			"component_value_requires_identity",
			`SELECT COUNT(*) FROM component_values WHERE identity_id IS NULL`,
		},
		{
			"list_value_requires_enum_list",
			`SELECT COUNT(*) FROM list_values WHERE enum_list_id IS NULL`,
		},
		{
			"key_review_state_slot_complete",
			`SELECT COUNT(*) FROM key_review_states WHERE
				(kind = 'grid_key' AND item_field_state_id IS NULL) OR
				(kind = 'enum_key' AND list_value_id IS NULL) OR
				(kind = 'component_key' AND component_value_id IS NULL AND
					(component_identity_id IS NULL OR component_property IS NULL OR component_property = ''))`,
		},
		{
			"source_assertion_slot_matches_context_kind",
			`SELECT COUNT(*) FROM source_assertions WHERE
				(context_kind = 'item' AND item_field_state_id IS NULL) OR
				(context_kind = 'component' AND component_value_id IS NULL) OR
				(context_kind = 'list' AND list_value_id IS NULL)`,
		},
	}

	for _, c := range checks {
		var n int
		if err := s.db.QueryRow(c.query).Scan(&n); err != nil {
			return fmt.Errorf("integrity check %s: %w", c.invariant, err)
		}
		if n > 0 {
			return &harvesterr.IntegrityError{Invariant: c.invariant, Violations: n}
		}
	}
	return nil
}

// withTx runs fn inside a transaction, committing on success and rolling
// back on any error fn returns.
func (s *Store) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}
