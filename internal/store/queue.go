package store

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/CdubVentures/spec-harvester-sub006/internal/queue"
)

// UpsertQueueRow persists row's current state, creating the product_queue
// row if this is the first time the product has been queued.
func (s *Store) UpsertQueueRow(category string, row *queue.Row) error {
	summaryJSON, err := json.Marshal(row.LastSummary)
	if err != nil {
		return err
	}
	urls := strings.Join(row.LastURLsAttempted, "\x1f")

	_, err = s.db.Exec(`INSERT INTO product_queue
		(category, product_id, status, priority, attempts_total, retry_count, max_attempts, rounds_completed,
		 next_retry_at, last_summary, cost_usd_total_for_product, last_urls_attempted, last_completed_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(category, product_id) DO UPDATE SET
			status=excluded.status, priority=excluded.priority, attempts_total=excluded.attempts_total,
			retry_count=excluded.retry_count, max_attempts=excluded.max_attempts, rounds_completed=excluded.rounds_completed,
			next_retry_at=excluded.next_retry_at, last_summary=excluded.last_summary,
			cost_usd_total_for_product=excluded.cost_usd_total_for_product,
			last_urls_attempted=excluded.last_urls_attempted, last_completed_at=excluded.last_completed_at`,
		category, row.ProductID, string(row.Status), row.Priority, row.AttemptsTotal, row.RetryCount, row.MaxAttempts,
		row.RoundsCompleted, nullableTime(row.NextRetryAt), string(summaryJSON), row.CostUSDTotalForProduct,
		nullIfEmpty(urls), nullableTime(row.LastCompletedAt))
	return err
}

// QueueRowsByCategory loads every product_queue row for category as
// queue.Row values, ready to hand to queue.SelectNext or queue.SortSelectable.
func (s *Store) QueueRowsByCategory(category string) ([]*queue.Row, error) {
	rows, err := s.db.Query(`SELECT product_id, status, priority, attempts_total, retry_count, max_attempts, rounds_completed,
		next_retry_at, last_summary, cost_usd_total_for_product, last_urls_attempted, last_completed_at
		FROM product_queue WHERE category = ?`, category)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*queue.Row
	for rows.Next() {
		r, err := scanQueueRow(rows)
		if err != nil {
			return nil, err
		}
		r.Category = category
		out = append(out, r)
	}
	return out, rows.Err()
}

// QueueRowByProduct fetches a single product's queue row, or ok=false if the
// product has never been queued.
func (s *Store) QueueRowByProduct(category, productID string) (*queue.Row, bool, error) {
	row := s.db.QueryRow(`SELECT product_id, status, priority, attempts_total, retry_count, max_attempts, rounds_completed,
		next_retry_at, last_summary, cost_usd_total_for_product, last_urls_attempted, last_completed_at
		FROM product_queue WHERE category = ? AND product_id = ?`, category, productID)
	r, err := scanQueueRow(row)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	r.Category = category
	return r, true, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanQueueRow(scanner rowScanner) (*queue.Row, error) {
	var r queue.Row
	var status string
	var nextRetryAt, lastCompletedAt, lastURLs sql.NullString
	var summaryJSON string
	if err := scanner.Scan(&r.ProductID, &status, &r.Priority, &r.AttemptsTotal, &r.RetryCount, &r.MaxAttempts,
		&r.RoundsCompleted, &nextRetryAt, &summaryJSON, &r.CostUSDTotalForProduct, &lastURLs, &lastCompletedAt); err != nil {
		return nil, err
	}
	r.Status = queue.Status(status)
	if err := json.Unmarshal([]byte(summaryJSON), &r.LastSummary); err != nil {
		return nil, err
	}
	if lastURLs.Valid && lastURLs.String != "" {
		r.LastURLsAttempted = strings.Split(lastURLs.String, "\x1f")
	}
	r.NextRetryAt = parseNullableTime(nextRetryAt)
	r.LastCompletedAt = parseNullableTime(lastCompletedAt)
	return &r, nil
}

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func parseNullableTime(ns sql.NullString) *time.Time {
	if !ns.Valid || ns.String == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, ns.String)
	if err != nil {
		return nil
	}
	return &t
}
