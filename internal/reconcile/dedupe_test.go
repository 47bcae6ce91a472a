package reconcile

import (
	"context"
	"errors"
	"testing"

	"github.com/marcus/wo/internal/remote"
)

func rec(servicer, ts, desc string, minutes int) remote.ServiceRecord {
	return remote.ServiceRecord{
		Servicer:       servicer,
		VerbCode:       12,
		Timestamp:      ts,
		ElapsedMinutes: minutes,
		Description:    desc,
	}
}

func newDeduper(facade *fakeFacade) *Deduper {
	return &Deduper{Facade: facade, Retrier: fastRetrier(facade)}
}

func TestGroupDuplicates(t *testing.T) {
	snap := remote.NewSnapshot("1234567", []remote.ServiceRecord{
		rec("A", "2025-03-01 09:00", "valve swap", 20),
		rec("A", "2025-03-01 10:00", "test run", 15),
		rec("A", "2025-03-01 09:00", "valve swap", 20),
	}, 0)

	groups := GroupDuplicates(snap)
	if len(groups) != 2 {
		t.Fatalf("got %d groups, want 2", len(groups))
	}
	if len(groups[0].Members) != 2 {
		t.Errorf("first group has %d members, want 2", len(groups[0].Members))
	}
	if groups[0].Key.Description != "valve swap" {
		t.Errorf("group order not first-seen: %+v", groups[0].Key)
	}
	// Same timestamp but different description is not a duplicate
	if len(groups[1].Members) != 1 {
		t.Errorf("second group has %d members, want 1", len(groups[1].Members))
	}
}

func TestDedupe_KeepsFirstMember(t *testing.T) {
	facade := &fakeFacade{}
	facade.seed(
		rec("A", "2025-03-01 09:00", "valve swap", 20),
		rec("A", "2025-03-01 09:00", "valve swap", 20),
		rec("A", "2025-03-01 10:00", "test run", 15),
	)
	keeper := facade.records[0].RemoteID

	report, err := newDeduper(facade).Run(context.Background(), "1234567", false)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.GroupsFound != 1 || report.Deleted != 1 || len(report.Failures) != 0 {
		t.Errorf("report = %+v, want 1 group, 1 deleted", report)
	}
	if len(facade.records) != 2 {
		t.Fatalf("remote has %d records, want 2", len(facade.records))
	}
	if facade.records[0].RemoteID != keeper {
		t.Errorf("first-observed member was deleted, keeper %s gone", keeper)
	}
}

func TestDedupe_ReExtractsAfterEveryDeletion(t *testing.T) {
	facade := &fakeFacade{}
	facade.seed(
		rec("A", "2025-03-01 09:00", "valve swap", 20),
		rec("A", "2025-03-01 09:00", "valve swap", 20),
		rec("A", "2025-03-01 09:00", "valve swap", 20),
	)

	report, err := newDeduper(facade).Run(context.Background(), "1234567", false)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.Deleted != 2 {
		t.Errorf("deleted = %d, want 2", report.Deleted)
	}
	if len(facade.records) != 1 {
		t.Errorf("remote has %d records, want 1", len(facade.records))
	}
	// One extraction per deletion plus the final clean pass. Every delete
	// used a fresh snapshot, or the fake would have rejected the handle.
	if facade.extracts != 3 {
		t.Errorf("extracts = %d, want 3", facade.extracts)
	}
	if facade.deletes != 2 {
		t.Errorf("deletes = %d, want 2", facade.deletes)
	}
}

func TestDedupe_DryRun(t *testing.T) {
	facade := &fakeFacade{}
	facade.seed(
		rec("A", "2025-03-01 09:00", "valve swap", 20),
		rec("A", "2025-03-01 09:00", "valve swap", 20),
		rec("A", "2025-03-01 09:00", "valve swap", 20),
		rec("A", "2025-03-01 10:00", "test run", 15),
	)

	report, err := newDeduper(facade).Run(context.Background(), "1234567", true)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.GroupsFound != 1 || report.Deleted != 2 {
		t.Errorf("report = %+v, want 1 group, 2 would-be deletions", report)
	}
	if facade.deletes != 0 || len(facade.records) != 4 {
		t.Error("dry run must not mutate the remote")
	}
	if facade.extracts != 1 {
		t.Errorf("extracts = %d, want 1", facade.extracts)
	}
}

func TestDedupe_FailedGroupSkippedOthersProcessed(t *testing.T) {
	facade := &fakeFacade{}
	facade.seed(
		rec("A", "2025-03-01 09:00", "stuck", 20),
		rec("A", "2025-03-01 09:00", "stuck", 20),
		rec("A", "2025-03-01 10:00", "fine", 15),
		rec("A", "2025-03-01 10:00", "fine", 15),
	)
	facade.deleteErr = func(r remote.ServiceRecord) error {
		if r.Description == "stuck" {
			return errors.New("confirmation dialog never appeared")
		}
		return nil
	}

	report, err := newDeduper(facade).Run(context.Background(), "1234567", false)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Deleted != 1 {
		t.Errorf("deleted = %d, want 1 (the fine group)", report.Deleted)
	}
	if len(report.Failures) != 1 || report.Failures[0].Key.Description != "stuck" {
		t.Errorf("failures = %+v, want one for the stuck group", report.Failures)
	}
	// The stuck group is not retried within the run
	stuckAttempts := 0
	for _, r := range facade.records {
		if r.Description == "stuck" {
			stuckAttempts++
		}
	}
	if stuckAttempts != 2 {
		t.Errorf("stuck group has %d members left, want both", stuckAttempts)
	}
}

func TestDedupe_NothingToDo(t *testing.T) {
	facade := &fakeFacade{}
	facade.seed(rec("A", "2025-03-01 09:00", "valve swap", 20))

	report, err := newDeduper(facade).Run(context.Background(), "1234567", false)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.GroupsFound != 0 || report.Deleted != 0 {
		t.Errorf("report = %+v, want nothing found", report)
	}
	if facade.extracts != 1 || facade.deletes != 0 {
		t.Errorf("calls = %d extracts / %d deletes, want 1/0", facade.extracts, facade.deletes)
	}
}
