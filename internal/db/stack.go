package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/marcus/wo/internal/models"
)

// UpsertBatch replaces the stored batch for a work order inside a single
// transaction. Services in the new batch that match an already-pushed
// service by identity key (timestamp, verb, noun, minutes) keep their
// pushed state, so re-stacking a work order never causes a re-push.
func (db *DB) UpsertBatch(batch *models.WorkOrderBatch) error {
	return db.withWriteLock(func() error {
		pushed, err := db.pushedIdentities(batch.WorkOrderID)
		if err != nil {
			return fmt.Errorf("read pushed services: %w", err)
		}

		tx, err := db.conn.Begin()
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer tx.Rollback()

		if _, err := tx.Exec(`DELETE FROM services WHERE work_order_id = ?`, batch.WorkOrderID); err != nil {
			return fmt.Errorf("clear services: %w", err)
		}
		if _, err := tx.Exec(`DELETE FROM batches WHERE work_order_id = ?`, batch.WorkOrderID); err != nil {
			return fmt.Errorf("clear batch: %w", err)
		}

		stackedAt := batch.StackedAt
		if stackedAt.IsZero() {
			stackedAt = time.Now()
		}
		_, err = tx.Exec(
			`INSERT INTO batches (work_order_id, control_number, combined_note, stacked_at)
			 VALUES (?, ?, ?, ?)`,
			batch.WorkOrderID, batch.ControlNumber, batch.CombinedNote, stackedAt)
		if err != nil {
			return fmt.Errorf("insert batch: %w", err)
		}

		for i := range batch.Services {
			s := &batch.Services[i]
			// Each pushed identity is consumed at most once: two rebuilt
			// entries sharing a key represent two pieces of work, and only
			// one of them reached the remote.
			if pushed[s.Identity()] > 0 {
				pushed[s.Identity()]--
				s.PushState = models.StatePushed
			}
			var noun any
			if s.NounCode != nil {
				noun = *s.NounCode
			}
			_, err := tx.Exec(
				`INSERT INTO services (work_order_id, seq, verb_code, noun_code, timestamp, note, elapsed_minutes, push_state)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
				batch.WorkOrderID, s.Seq, s.VerbCode, noun, s.Timestamp, s.Note, s.ElapsedMinutes, s.PushState)
			if err != nil {
				return fmt.Errorf("insert service %d: %w", s.Seq, err)
			}
		}

		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit batch: %w", err)
		}
		return nil
	})
}

// pushedIdentities returns the identity keys of already-pushed services for
// a work order, with how many pushed rows carry each key.
func (db *DB) pushedIdentities(workOrderID string) (map[models.IdentityKey]int, error) {
	rows, err := db.conn.Query(
		`SELECT verb_code, noun_code, timestamp, elapsed_minutes FROM services
		 WHERE work_order_id = ? AND push_state = ?`,
		workOrderID, models.StatePushed)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pushed := make(map[models.IdentityKey]int)
	for rows.Next() {
		var (
			verbCode int
			nounCode sql.NullInt64
			ts       string
			minutes  int
		)
		if err := rows.Scan(&verbCode, &nounCode, &ts, &minutes); err != nil {
			return nil, err
		}
		noun := -1
		if nounCode.Valid {
			noun = int(nounCode.Int64)
		}
		pushed[models.IdentityKey{
			Timestamp:      ts,
			VerbCode:       verbCode,
			NounCode:       noun,
			ElapsedMinutes: minutes,
		}]++
	}
	return pushed, rows.Err()
}

// GetBatch returns the stored batch for a work order, or nil if not stacked.
func (db *DB) GetBatch(workOrderID string) (*models.WorkOrderBatch, error) {
	var batch models.WorkOrderBatch
	err := db.conn.QueryRow(
		`SELECT work_order_id, control_number, combined_note, stacked_at
		 FROM batches WHERE work_order_id = ?`, workOrderID).
		Scan(&batch.WorkOrderID, &batch.ControlNumber, &batch.CombinedNote, &batch.StackedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read batch: %w", err)
	}

	if err := db.loadServices(&batch); err != nil {
		return nil, err
	}
	return &batch, nil
}

// GetAllBatches returns every stored batch ordered by stacking time.
func (db *DB) GetAllBatches() ([]models.WorkOrderBatch, error) {
	rows, err := db.conn.Query(
		`SELECT work_order_id, control_number, combined_note, stacked_at
		 FROM batches ORDER BY stacked_at, work_order_id`)
	if err != nil {
		return nil, fmt.Errorf("read batches: %w", err)
	}
	defer rows.Close()

	var batches []models.WorkOrderBatch
	for rows.Next() {
		var b models.WorkOrderBatch
		if err := rows.Scan(&b.WorkOrderID, &b.ControlNumber, &b.CombinedNote, &b.StackedAt); err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range batches {
		if err := db.loadServices(&batches[i]); err != nil {
			return nil, err
		}
	}
	return batches, nil
}

func (db *DB) loadServices(batch *models.WorkOrderBatch) error {
	rows, err := db.conn.Query(
		`SELECT seq, verb_code, noun_code, timestamp, note, elapsed_minutes, push_state
		 FROM services WHERE work_order_id = ? ORDER BY seq`, batch.WorkOrderID)
	if err != nil {
		return fmt.Errorf("read services: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			s        models.EncodedService
			nounCode sql.NullInt64
		)
		if err := rows.Scan(&s.Seq, &s.VerbCode, &nounCode, &s.Timestamp, &s.Note, &s.ElapsedMinutes, &s.PushState); err != nil {
			return err
		}
		if nounCode.Valid {
			n := int(nounCode.Int64)
			s.NounCode = &n
		}
		batch.Services = append(batch.Services, s)
	}
	return rows.Err()
}

// MarkPushed transitions one service to pushed state, persisted immediately
// so an interrupted push run resumes exactly where it stopped.
func (db *DB) MarkPushed(workOrderID string, seq int) error {
	return db.withWriteLock(func() error {
		res, err := db.conn.Exec(
			`UPDATE services SET push_state = ? WHERE work_order_id = ? AND seq = ?`,
			models.StatePushed, workOrderID, seq)
		if err != nil {
			return fmt.Errorf("mark pushed: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("service %s/%d not found", workOrderID, seq)
		}
		return nil
	})
}

// DeleteBatch removes one work order's batch from the stack.
func (db *DB) DeleteBatch(workOrderID string) error {
	return db.withWriteLock(func() error {
		tx, err := db.conn.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()
		if _, err := tx.Exec(`DELETE FROM services WHERE work_order_id = ?`, workOrderID); err != nil {
			return fmt.Errorf("delete services: %w", err)
		}
		if _, err := tx.Exec(`DELETE FROM batches WHERE work_order_id = ?`, workOrderID); err != nil {
			return fmt.Errorf("delete batch: %w", err)
		}
		return tx.Commit()
	})
}

// Clear empties the whole stack.
func (db *DB) Clear() error {
	return db.withWriteLock(func() error {
		tx, err := db.conn.Begin()
		if err != nil {
			return err
		}
		defer tx.Rollback()
		if _, err := tx.Exec(`DELETE FROM services`); err != nil {
			return fmt.Errorf("clear services: %w", err)
		}
		if _, err := tx.Exec(`DELETE FROM batches`); err != nil {
			return fmt.Errorf("clear batches: %w", err)
		}
		return tx.Commit()
	})
}
