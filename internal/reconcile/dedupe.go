package reconcile

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/marcus/wo/internal/remote"
)

// GroupKey is the content identity of a remote record for duplicate
// detection.
type GroupKey struct {
	Timestamp   string
	Description string
}

// DuplicateGroup is a set of remote records sharing one content identity,
// in extraction order. Members[0] is canonical; the rest are deletion
// candidates.
type DuplicateGroup struct {
	Key     GroupKey
	Members []remote.ServiceRecord
	indices []int // positions in the snapshot the group came from
}

// GroupDuplicates groups a snapshot's records by content identity,
// preserving first-seen order of the groups.
func GroupDuplicates(snap *remote.Snapshot) []DuplicateGroup {
	byKey := make(map[GroupKey]int)
	var groups []DuplicateGroup

	for i, r := range snap.Records {
		key := GroupKey{Timestamp: r.Timestamp, Description: r.Description}
		gi, seen := byKey[key]
		if !seen {
			byKey[key] = len(groups)
			groups = append(groups, DuplicateGroup{Key: key})
			gi = len(groups) - 1
		}
		groups[gi].Members = append(groups[gi].Members, r)
		groups[gi].indices = append(groups[gi].indices, i)
	}
	return groups
}

// DedupeFailure is one deletion that failed; the group is left alone for
// the rest of the run.
type DedupeFailure struct {
	Key GroupKey
	Err error
}

// DedupeReport summarizes one duplicate-collapse run.
type DedupeReport struct {
	GroupsFound int // groups with more than one member at first extraction
	Deleted     int
	Failures    []DedupeFailure
}

// Deduper collapses duplicate remote records for a work order, keeping the
// first-observed member of each group.
type Deduper struct {
	Facade  remote.Facade
	Retrier *remote.Retrier
}

// Run deletes surplus duplicate members one at a time. Because a deletion
// invalidates every remoteId extracted in the same snapshot, the view is
// re-extracted after each deletion; a stale snapshot is never reused for a
// second mutation. With dryRun set, the report is computed from a single
// extraction and nothing is mutated.
func (d *Deduper) Run(ctx context.Context, workOrderID string, dryRun bool) (*DedupeReport, error) {
	report := &DedupeReport{}
	failed := make(map[GroupKey]bool)
	first := true

	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		var snap *remote.Snapshot
		err := d.Retrier.Do(ctx, "extract", func(ctx context.Context) error {
			var err error
			snap, err = d.Facade.ExtractServiceRecords(ctx, workOrderID)
			return err
		})
		if err != nil {
			return report, fmt.Errorf("extract %s: %w", workOrderID, err)
		}

		groups := GroupDuplicates(snap)
		if first {
			for _, g := range groups {
				if len(g.Members) > 1 {
					report.GroupsFound++
				}
			}
			first = false
			if dryRun {
				for _, g := range groups {
					if len(g.Members) > 1 {
						report.Deleted += len(g.Members) - 1
					}
				}
				return report, nil
			}
		}

		// Find the next group that still has a surplus member.
		target := -1
		for gi, g := range groups {
			if len(g.Members) > 1 && !failed[g.Key] {
				target = gi
				break
			}
		}
		if target == -1 {
			return report, nil
		}

		// Delete the second member; members[0] stays canonical. The handle
		// comes from the snapshot just extracted.
		g := groups[target]
		handle := snap.Handle(g.indices[1])
		err = d.Retrier.Do(ctx, "delete", func(ctx context.Context) error {
			return d.Facade.DeleteServiceRecord(ctx, handle)
		})
		if err != nil {
			// Reported, not retried within this run.
			report.Failures = append(report.Failures, DedupeFailure{Key: g.Key, Err: err})
			failed[g.Key] = true
			slog.Warn("duplicate deletion failed",
				"work_order", workOrderID, "timestamp", g.Key.Timestamp, "err", err)
			continue
		}
		report.Deleted++
		slog.Debug("duplicate deleted",
			"work_order", workOrderID, "timestamp", g.Key.Timestamp, "remaining", len(g.Members)-1)
	}
}
