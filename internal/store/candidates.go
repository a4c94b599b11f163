package store

import (
	"database/sql"

	"github.com/CdubVentures/spec-harvester-sub006/internal/model"
)

// CandidateRow is a persisted Candidate (§3): an atomic "this value was
// observed for this field for this product" assertion with full source
// provenance.
type CandidateRow struct {
	CandidateID      string
	Category         string
	ProductID        string
	FieldKey         string
	Value            string
	Score            float64
	Rank             int
	Provenance       model.Provenance
	IsComponentField bool
	IsListField      bool
}

func fromCandidate(c model.Candidate, category string) CandidateRow {
	return CandidateRow{
		CandidateID:      c.CandidateID,
		Category:         category,
		ProductID:        c.ProductID,
		FieldKey:         c.FieldKey,
		Value:            c.Value,
		Score:            c.Score,
		Rank:             c.Rank,
		Provenance:       c.Provenance,
		IsComponentField: c.IsComponentField,
		IsListField:      c.IsListField,
	}
}

// InsertCandidate inserts or replaces a single candidate row (R1: inserting
// the same candidate id twice yields a single row with the second payload).
func (s *Store) InsertCandidate(row CandidateRow) error {
	return s.withTx(func(tx *sql.Tx) error {
		return insertCandidateTx(tx, row)
	})
}

// InsertCandidatesBatch inserts many candidates atomically.
func (s *Store) InsertCandidatesBatch(rows []CandidateRow) error {
	return s.withTx(func(tx *sql.Tx) error {
		for _, row := range rows {
			if err := insertCandidateTx(tx, row); err != nil {
				return err
			}
		}
		return nil
	})
}

func insertCandidateTx(tx *sql.Tx, row CandidateRow) error {
	_, err := tx.Exec(`INSERT INTO candidates (
		candidate_id, category, product_id, field_key, value, score, rank,
		source_url, source_host, source_tier, source_method,
		snippet_id, snippet_hash, quote, source_id, retrieved_at,
		is_component_field, is_list_field
	) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
	ON CONFLICT(candidate_id) DO UPDATE SET
		category=excluded.category, product_id=excluded.product_id, field_key=excluded.field_key,
		value=excluded.value, score=excluded.score, rank=excluded.rank,
		source_url=excluded.source_url, source_host=excluded.source_host,
		source_tier=excluded.source_tier, source_method=excluded.source_method,
		snippet_id=excluded.snippet_id, snippet_hash=excluded.snippet_hash,
		quote=excluded.quote, source_id=excluded.source_id, retrieved_at=excluded.retrieved_at,
		is_component_field=excluded.is_component_field, is_list_field=excluded.is_list_field`,
		row.CandidateID, row.Category, row.ProductID, row.FieldKey, row.Value, row.Score, row.Rank,
		row.Provenance.URL, row.Provenance.Host, row.Provenance.Tier, row.Provenance.Method,
		row.Provenance.SnippetID, row.Provenance.SnippetHash, row.Provenance.Quote,
		row.Provenance.SourceID, row.Provenance.RetrievedAt,
		boolToInt(row.IsComponentField), boolToInt(row.IsListField),
	)
	return err
}

// CandidatesByProduct fetches every candidate for (category, productID).
func (s *Store) CandidatesByProduct(category, productID string) ([]CandidateRow, error) {
	return s.queryCandidates(`SELECT candidate_id, category, product_id, field_key, value, score, rank,
		source_url, source_host, source_tier, source_method, snippet_id, snippet_hash, quote, source_id,
		retrieved_at, is_component_field, is_list_field
		FROM candidates WHERE category = ? AND product_id = ?`, category, productID)
}

// CandidatesByProductField fetches candidates for one field of one product.
func (s *Store) CandidatesByProductField(category, productID, fieldKey string) ([]CandidateRow, error) {
	return s.queryCandidates(`SELECT candidate_id, category, product_id, field_key, value, score, rank,
		source_url, source_host, source_tier, source_method, snippet_id, snippet_hash, quote, source_id,
		retrieved_at, is_component_field, is_list_field
		FROM candidates WHERE category = ? AND product_id = ? AND field_key = ?`, category, productID, fieldKey)
}

func (s *Store) queryCandidates(query string, args ...interface{}) ([]CandidateRow, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CandidateRow
	for rows.Next() {
		var r CandidateRow
		var isComponent, isList int
		if err := rows.Scan(&r.CandidateID, &r.Category, &r.ProductID, &r.FieldKey, &r.Value, &r.Score, &r.Rank,
			&r.Provenance.URL, &r.Provenance.Host, &r.Provenance.Tier, &r.Provenance.Method,
			&r.Provenance.SnippetID, &r.Provenance.SnippetHash, &r.Provenance.Quote, &r.Provenance.SourceID,
			&r.Provenance.RetrievedAt, &isComponent, &isList); err != nil {
			return nil, err
		}
		r.IsComponentField = isComponent != 0
		r.IsListField = isList != 0
		out = append(out, r)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
