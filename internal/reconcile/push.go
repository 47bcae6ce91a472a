// Package reconcile contains the batch reconciliation engines that mutate
// remote state: pushing the pending stack, collapsing duplicate records,
// and purging a servicer's month. All three re-derive what still needs
// doing from freshly observed state (push_state in the stack database, or a
// fresh remote extraction), so re-running any of them after a crash or
// cancellation is safe without a checkpoint.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/marcus/wo/internal/db"
	"github.com/marcus/wo/internal/models"
	"github.com/marcus/wo/internal/remote"
)

// PushFailure is one entry that stayed pending after this run.
type PushFailure struct {
	WorkOrderID string
	Seq         int
	Err         error
}

// PushReport summarizes one push run.
type PushReport struct {
	Pushed     int
	AlreadyUp  int // entries already pushed, skipped without remote calls
	Failures   []PushFailure
	WorkOrders int
}

// Pusher replays pending batches against the remote facade, one entry at a
// time, marking each success durably before touching the next entry.
type Pusher struct {
	Store   *db.DB
	Facade  remote.Facade
	Retrier *remote.Retrier
}

// PushAll pushes every batch in the stack in stacking order.
func (p *Pusher) PushAll(ctx context.Context) (*PushReport, error) {
	batches, err := p.Store.GetAllBatches()
	if err != nil {
		return nil, fmt.Errorf("read stack: %w", err)
	}

	report := &PushReport{}
	for i := range batches {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		if err := p.pushBatch(ctx, &batches[i], report); err != nil {
			return report, err
		}
		report.WorkOrders++
	}
	return report, nil
}

// PushOne pushes a single work order's batch.
func (p *Pusher) PushOne(ctx context.Context, workOrderID string) (*PushReport, error) {
	batch, err := p.Store.GetBatch(workOrderID)
	if err != nil {
		return nil, fmt.Errorf("read stack: %w", err)
	}
	if batch == nil {
		return nil, fmt.Errorf("work order %s is not stacked", workOrderID)
	}

	report := &PushReport{}
	if err := p.pushBatch(ctx, batch, report); err != nil {
		return report, err
	}
	report.WorkOrders = 1
	return report, nil
}

// pushBatch walks the batch in original order. Entry-level failures are
// recorded and never abort the batch; persistence failures do abort, since
// continuing without durable state risks double-pushing.
func (p *Pusher) pushBatch(ctx context.Context, batch *models.WorkOrderBatch, report *PushReport) error {
	for i := range batch.Services {
		s := &batch.Services[i]
		if s.PushState == models.StatePushed {
			report.AlreadyUp++
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := p.pushEntry(ctx, batch.WorkOrderID, s); err != nil {
			report.Failures = append(report.Failures, PushFailure{
				WorkOrderID: batch.WorkOrderID,
				Seq:         s.Seq,
				Err:         err,
			})
			outcome := models.OutcomeFailed
			var verr *remote.VerificationError
			if errors.As(err, &verr) {
				outcome = models.OutcomeUnverified
			}
			if logErr := p.Store.AppendPushLog(&models.PushLogEntry{
				WorkOrderID: batch.WorkOrderID,
				Seq:         s.Seq,
				Outcome:     outcome,
				Detail:      err.Error(),
			}); logErr != nil {
				return logErr
			}
			slog.Warn("push failed, entry stays pending",
				"work_order", batch.WorkOrderID, "seq", s.Seq, "err", err)
			continue
		}

		// Persist the transition before the next entry so a later failure
		// never rolls back this success.
		if err := p.Store.MarkPushed(batch.WorkOrderID, s.Seq); err != nil {
			return fmt.Errorf("persist push state: %w", err)
		}
		s.PushState = models.StatePushed
		if err := p.Store.AppendPushLog(&models.PushLogEntry{
			WorkOrderID: batch.WorkOrderID,
			Seq:         s.Seq,
			Outcome:     models.OutcomePushed,
		}); err != nil {
			return err
		}
		report.Pushed++
	}
	return nil
}

// pushEntry creates the remote record and confirms it is now visible with a
// matching verb code and service date. Only a verified create counts.
func (p *Pusher) pushEntry(ctx context.Context, workOrderID string, s *models.EncodedService) error {
	err := p.Retrier.Do(ctx, "create", func(ctx context.Context) error {
		return p.Facade.CreateServiceRecord(ctx, workOrderID, remote.NewService{
			VerbCode:       s.VerbCode,
			NounCode:       s.NounCode,
			Timestamp:      s.Timestamp,
			ElapsedMinutes: s.ElapsedMinutes,
			Note:           s.Note,
		})
	})
	if err != nil {
		return err
	}

	var snap *remote.Snapshot
	err = p.Retrier.Do(ctx, "verify", func(ctx context.Context) error {
		var err error
		snap, err = p.Facade.ExtractServiceRecords(ctx, workOrderID)
		return err
	})
	if err != nil {
		return &remote.VerificationError{WorkOrderID: workOrderID, Detail: err.Error()}
	}

	for _, r := range snap.Records {
		if r.VerbCode == s.VerbCode && r.Date() == s.Date() {
			return nil
		}
	}
	return &remote.VerificationError{
		WorkOrderID: workOrderID,
		Detail:      fmt.Sprintf("no record with verb %d on %s after create", s.VerbCode, s.Date()),
	}
}
