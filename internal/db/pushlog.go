package db

import (
	"fmt"

	"github.com/marcus/wo/internal/models"
)

// AppendPushLog records one push attempt outcome in the audit log.
func (db *DB) AppendPushLog(entry *models.PushLogEntry) error {
	return db.withWriteLock(func() error {
		_, err := db.conn.Exec(
			`INSERT INTO push_log (work_order_id, seq, outcome, detail) VALUES (?, ?, ?, ?)`,
			entry.WorkOrderID, entry.Seq, entry.Outcome, entry.Detail)
		if err != nil {
			return fmt.Errorf("append push log: %w", err)
		}
		return nil
	})
}

// RecentPushLog returns the most recent push log entries, newest first.
// When workOrderID is non-empty, results are scoped to that work order.
func (db *DB) RecentPushLog(workOrderID string, limit int) ([]models.PushLogEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `SELECT id, work_order_id, seq, outcome, detail, timestamp
	          FROM push_log ORDER BY id DESC LIMIT ?`
	args := []any{limit}
	if workOrderID != "" {
		query = `SELECT id, work_order_id, seq, outcome, detail, timestamp
		         FROM push_log WHERE work_order_id = ? ORDER BY id DESC LIMIT ?`
		args = []any{workOrderID, limit}
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("read push log: %w", err)
	}
	defer rows.Close()

	var entries []models.PushLogEntry
	for rows.Next() {
		var e models.PushLogEntry
		if err := rows.Scan(&e.ID, &e.WorkOrderID, &e.Seq, &e.Outcome, &e.Detail, &e.Timestamp); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
