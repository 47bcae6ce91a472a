package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/marcus/wo/internal/models"
	"github.com/marcus/wo/internal/remote"
)

// PurgeTarget scopes a purge to one servicer and one calendar month.
// Records outside the target are never inspected for mutation.
type PurgeTarget struct {
	Servicer string
	Year     int
	Month    time.Month
}

// Matches reports whether a record falls inside the purge scope.
func (t PurgeTarget) Matches(r remote.ServiceRecord) bool {
	if r.Servicer != t.Servicer {
		return false
	}
	ts, err := time.ParseInLocation(models.TimeLayout, r.Timestamp, time.Local)
	if err != nil {
		// Try date-only, some grids omit the time portion.
		ts, err = time.ParseInLocation("2006-01-02", r.Timestamp, time.Local)
		if err != nil {
			return false
		}
	}
	return ts.Year() == t.Year && ts.Month() == t.Month
}

// PurgeAction classifies what the purge does to a matching record.
type PurgeAction string

const (
	ActionDelete  PurgeAction = "delete"
	ActionZeroOut PurgeAction = "zero-out" // linked sub-items block deletion
)

// Classify returns the action for a matching record.
func Classify(r remote.ServiceRecord) PurgeAction {
	if r.HasLinkedSubItems {
		return ActionZeroOut
	}
	return ActionDelete
}

// PurgeFailure is one record mutation that failed during a purge run.
type PurgeFailure struct {
	Key    GroupKey
	Action PurgeAction
	Err    error
}

// PurgeReport summarizes one purge run over one work order.
type PurgeReport struct {
	Matched  int // matching records seen at first extraction
	Deleted  int
	Zeroed   int
	Failures []PurgeFailure
}

// Purger deletes or zeroes out a servicer's records for one month across
// work orders.
type Purger struct {
	Facade  remote.Facade
	Retrier *remote.Retrier
}

// Run purges one work order. Matching records are processed in strict
// reverse extraction order — mutating a record shifts the positional
// identity of every record after it in the remote grid, so walking
// front-to-back would target wrong rows. After every mutation the view is
// re-extracted before the next record is touched. A matching record that
// already has zero minutes and linked sub-items counts as done, which is
// what makes an interrupted purge resumable.
func (p *Purger) Run(ctx context.Context, workOrderID string, target PurgeTarget, dryRun bool) (*PurgeReport, error) {
	report := &PurgeReport{}
	failed := make(map[GroupKey]bool)
	first := true

	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		var snap *remote.Snapshot
		err := p.Retrier.Do(ctx, "extract", func(ctx context.Context) error {
			var err error
			snap, err = p.Facade.ExtractServiceRecords(ctx, workOrderID)
			return err
		})
		if err != nil {
			return report, fmt.Errorf("extract %s: %w", workOrderID, err)
		}

		if first {
			for _, r := range snap.Records {
				if target.Matches(r) {
					report.Matched++
				}
			}
			first = false
			if dryRun {
				for _, r := range snap.Records {
					if !target.Matches(r) || purgeDone(r) {
						continue
					}
					if Classify(r) == ActionZeroOut {
						report.Zeroed++
					} else {
						report.Deleted++
					}
				}
				return report, nil
			}
		}

		// Last unfinished matching record: strict reverse extraction order.
		idx := -1
		for i := len(snap.Records) - 1; i >= 0; i-- {
			r := snap.Records[i]
			if !target.Matches(r) || purgeDone(r) {
				continue
			}
			if failed[GroupKey{Timestamp: r.Timestamp, Description: r.Description}] {
				continue
			}
			idx = i
			break
		}
		if idx == -1 {
			return report, nil
		}

		rec := snap.Records[idx]
		handle := snap.Handle(idx)
		action := Classify(rec)

		var mutErr error
		switch action {
		case ActionZeroOut:
			zero := 0
			mutErr = p.Retrier.Do(ctx, "edit", func(ctx context.Context) error {
				return p.Facade.EditServiceRecord(ctx, handle, remote.FieldEdit{ElapsedMinutes: &zero})
			})
		case ActionDelete:
			mutErr = p.Retrier.Do(ctx, "delete", func(ctx context.Context) error {
				return p.Facade.DeleteServiceRecord(ctx, handle)
			})
		}

		if mutErr != nil {
			report.Failures = append(report.Failures, PurgeFailure{
				Key:    GroupKey{Timestamp: rec.Timestamp, Description: rec.Description},
				Action: action,
				Err:    mutErr,
			})
			failed[GroupKey{Timestamp: rec.Timestamp, Description: rec.Description}] = true
			slog.Warn("purge mutation failed",
				"work_order", workOrderID, "action", action, "timestamp", rec.Timestamp, "err", mutErr)
			continue
		}

		switch action {
		case ActionZeroOut:
			report.Zeroed++
		case ActionDelete:
			report.Deleted++
		}
		slog.Debug("purged record",
			"work_order", workOrderID, "action", action, "timestamp", rec.Timestamp)
	}
}

// purgeDone reports whether a matching record needs no further mutation:
// zero-out targets are finished once their minutes are zero. Deletable
// records disappear on success, so presence alone means unfinished.
func purgeDone(r remote.ServiceRecord) bool {
	return r.HasLinkedSubItems && r.ElapsedMinutes == 0
}
