package reconcile

import (
	"context"
	"fmt"

	"github.com/marcus/wo/internal/remote"
)

// fakeFacade is an in-memory remote with the same view-generation semantics
// as the real driver: every mutation bumps the generation, and a handle
// minted from an older snapshot is rejected. Per-op error queues let tests
// script failures.
type fakeFacade struct {
	records    []remote.ServiceRecord
	generation uint64
	nextID     int

	logins   int
	extracts int
	creates  int
	edits    int
	deletes  int

	// When set, the verb code of created records is corrupted so the
	// follow-up verification read cannot find them.
	mangleCreates bool

	createErrs  []error
	extractErrs []error
	deleteErr   func(r remote.ServiceRecord) error
	editErr     func(r remote.ServiceRecord) error
}

func (f *fakeFacade) totalCalls() int {
	return f.logins + f.extracts + f.creates + f.edits + f.deletes
}

func (f *fakeFacade) seed(records ...remote.ServiceRecord) {
	for i := range records {
		f.nextID++
		records[i].RemoteID = fmt.Sprintf("r%d", f.nextID)
	}
	f.records = append(f.records, records...)
}

func (f *fakeFacade) popErr(queue *[]error) error {
	if len(*queue) == 0 {
		return nil
	}
	err := (*queue)[0]
	*queue = (*queue)[1:]
	return err
}

func (f *fakeFacade) checkHandle(h remote.Handle) error {
	if h.Snapshot().Generation() != f.generation {
		return remote.ErrStaleSnapshot
	}
	return nil
}

func (f *fakeFacade) find(remoteID string) int {
	for i, r := range f.records {
		if r.RemoteID == remoteID {
			return i
		}
	}
	return -1
}

func (f *fakeFacade) Login(ctx context.Context, creds remote.Credentials) error {
	f.logins++
	return nil
}

func (f *fakeFacade) ExtractServiceRecords(ctx context.Context, workOrderID string) (*remote.Snapshot, error) {
	f.extracts++
	if err := f.popErr(&f.extractErrs); err != nil {
		return nil, err
	}
	records := make([]remote.ServiceRecord, len(f.records))
	copy(records, f.records)
	return remote.NewSnapshot(workOrderID, records, f.generation), nil
}

func (f *fakeFacade) CreateServiceRecord(ctx context.Context, workOrderID string, svc remote.NewService) error {
	f.creates++
	if err := f.popErr(&f.createErrs); err != nil {
		return err
	}
	verb := svc.VerbCode
	if f.mangleCreates {
		verb++
	}
	f.nextID++
	f.records = append(f.records, remote.ServiceRecord{
		RemoteID:       fmt.Sprintf("r%d", f.nextID),
		Servicer:       "Alex Tech",
		VerbCode:       verb,
		Timestamp:      svc.Timestamp,
		ElapsedMinutes: svc.ElapsedMinutes,
		Description:    svc.Note,
	})
	f.generation++
	return nil
}

func (f *fakeFacade) EditServiceRecord(ctx context.Context, h remote.Handle, edit remote.FieldEdit) error {
	f.edits++
	if err := f.checkHandle(h); err != nil {
		return err
	}
	if f.editErr != nil {
		if err := f.editErr(h.Record()); err != nil {
			return err
		}
	}
	i := f.find(h.Record().RemoteID)
	if i == -1 {
		return fmt.Errorf("record %s not found", h.Record().RemoteID)
	}
	if edit.ElapsedMinutes != nil {
		f.records[i].ElapsedMinutes = *edit.ElapsedMinutes
	}
	f.generation++
	return nil
}

func (f *fakeFacade) DeleteServiceRecord(ctx context.Context, h remote.Handle) error {
	f.deletes++
	if err := f.checkHandle(h); err != nil {
		return err
	}
	if f.deleteErr != nil {
		if err := f.deleteErr(h.Record()); err != nil {
			return err
		}
	}
	i := f.find(h.Record().RemoteID)
	if i == -1 {
		return fmt.Errorf("record %s not found", h.Record().RemoteID)
	}
	f.records = append(f.records[:i], f.records[i+1:]...)
	f.generation++
	return nil
}

func fastRetrier(f *fakeFacade) *remote.Retrier {
	return &remote.Retrier{Facade: f, Attempts: 3, Delay: 1}
}
