package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/marcus/wo/internal/db"
	"github.com/marcus/wo/internal/models"
	"github.com/marcus/wo/internal/remote"
)

func testStore(t *testing.T) *db.DB {
	t.Helper()
	store, err := db.Initialize(t.TempDir())
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func stack(t *testing.T, store *db.DB, workOrderID string, services ...models.EncodedService) {
	t.Helper()
	err := store.UpsertBatch(&models.WorkOrderBatch{
		WorkOrderID: workOrderID,
		Services:    services,
		StackedAt:   time.Now(),
	})
	if err != nil {
		t.Fatalf("UpsertBatch failed: %v", err)
	}
}

func pending(seq, verbCode int, ts string, minutes int) models.EncodedService {
	return models.EncodedService{
		Seq:            seq,
		VerbCode:       verbCode,
		Timestamp:      ts,
		Note:           "n",
		ElapsedMinutes: minutes,
		PushState:      models.StatePending,
	}
}

func newPusher(store *db.DB, facade *fakeFacade) *Pusher {
	return &Pusher{Store: store, Facade: facade, Retrier: fastRetrier(facade)}
}

func TestPush_AllPendingEntries(t *testing.T) {
	store := testStore(t)
	stack(t, store, "1234567",
		pending(0, 12, "2025-03-01 09:00", 20),
		pending(1, 3, "2025-03-01 09:30", 30))

	facade := &fakeFacade{}
	report, err := newPusher(store, facade).PushOne(context.Background(), "1234567")
	if err != nil {
		t.Fatalf("PushOne failed: %v", err)
	}

	if report.Pushed != 2 || len(report.Failures) != 0 {
		t.Errorf("report = %+v, want 2 pushed, no failures", report)
	}
	if facade.creates != 2 {
		t.Errorf("creates = %d, want 2", facade.creates)
	}
	if len(facade.records) != 2 {
		t.Errorf("remote has %d records, want 2", len(facade.records))
	}

	batch, err := store.GetBatch("1234567")
	if err != nil {
		t.Fatal(err)
	}
	if batch.PendingCount() != 0 {
		t.Errorf("pending after push = %d, want 0", batch.PendingCount())
	}
}

func TestPush_SecondRunTouchesNothing(t *testing.T) {
	store := testStore(t)
	stack(t, store, "1234567", pending(0, 12, "2025-03-01 09:00", 20))

	facade := &fakeFacade{}
	pusher := newPusher(store, facade)
	if _, err := pusher.PushOne(context.Background(), "1234567"); err != nil {
		t.Fatal(err)
	}
	callsAfterFirst := facade.totalCalls()

	report, err := pusher.PushOne(context.Background(), "1234567")
	if err != nil {
		t.Fatal(err)
	}
	if report.Pushed != 0 || report.AlreadyUp != 1 {
		t.Errorf("second run report = %+v, want 0 pushed, 1 already up", report)
	}
	if facade.totalCalls() != callsAfterFirst {
		t.Errorf("second run made %d remote calls, want 0",
			facade.totalCalls()-callsAfterFirst)
	}
	if len(facade.records) != 1 {
		t.Errorf("remote has %d records, want 1", len(facade.records))
	}
}

func TestPush_ResumesAfterEntryFailure(t *testing.T) {
	store := testStore(t)
	stack(t, store, "1234567",
		pending(0, 12, "2025-03-01 09:00", 20),
		pending(1, 3, "2025-03-01 09:30", 30),
		pending(2, 5, "2025-03-01 10:00", 15))

	facade := &fakeFacade{
		// First create succeeds, second fails hard; non-transient, so no
		// in-run retry.
		createErrs: []error{nil, errors.New("grid never loaded")},
	}
	pusher := newPusher(store, facade)

	report, err := pusher.PushOne(context.Background(), "1234567")
	if err != nil {
		t.Fatalf("PushOne failed: %v", err)
	}
	if report.Pushed != 2 || len(report.Failures) != 1 {
		t.Fatalf("report = %+v, want 2 pushed, 1 failure", report)
	}
	if report.Failures[0].Seq != 1 {
		t.Errorf("failed seq = %d, want 1", report.Failures[0].Seq)
	}

	batch, _ := store.GetBatch("1234567")
	if batch.Services[0].PushState != models.StatePushed ||
		batch.Services[2].PushState != models.StatePushed {
		t.Error("successful entries not marked pushed")
	}
	if batch.Services[1].PushState != models.StatePending {
		t.Error("failed entry must stay pending")
	}

	// Second run pushes only the one remaining entry.
	createsBefore := facade.creates
	report, err = pusher.PushOne(context.Background(), "1234567")
	if err != nil {
		t.Fatal(err)
	}
	if report.Pushed != 1 || report.AlreadyUp != 2 {
		t.Errorf("resume report = %+v, want 1 pushed, 2 already up", report)
	}
	if facade.creates != createsBefore+1 {
		t.Errorf("resume made %d creates, want 1", facade.creates-createsBefore)
	}
}

func TestPush_TransientFailureRetriedWithinRun(t *testing.T) {
	store := testStore(t)
	stack(t, store, "1234567", pending(0, 12, "2025-03-01 09:00", 20))

	facade := &fakeFacade{
		createErrs: []error{&remote.InteractionError{Op: "create", Reason: "button not rendered"}},
	}
	report, err := newPusher(store, facade).PushOne(context.Background(), "1234567")
	if err != nil {
		t.Fatal(err)
	}
	if report.Pushed != 1 || len(report.Failures) != 0 {
		t.Errorf("report = %+v, want 1 pushed after retry", report)
	}
	if facade.creates != 2 {
		t.Errorf("creates = %d, want 2 (one failed attempt, one retry)", facade.creates)
	}
}

func TestPush_UnverifiedCreateStaysPending(t *testing.T) {
	store := testStore(t)
	stack(t, store, "1234567", pending(0, 12, "2025-03-01 09:00", 20))

	facade := &fakeFacade{mangleCreates: true}
	report, err := newPusher(store, facade).PushOne(context.Background(), "1234567")
	if err != nil {
		t.Fatal(err)
	}

	if report.Pushed != 0 || len(report.Failures) != 1 {
		t.Fatalf("report = %+v, want 0 pushed, 1 failure", report)
	}
	var verr *remote.VerificationError
	if !errors.As(report.Failures[0].Err, &verr) {
		t.Errorf("failure err = %v, want a verification error", report.Failures[0].Err)
	}

	batch, _ := store.GetBatch("1234567")
	if batch.Services[0].PushState != models.StatePending {
		t.Error("unverified entry must stay pending")
	}

	log, err := store.RecentPushLog("1234567", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(log) != 1 || log[0].Outcome != models.OutcomeUnverified {
		t.Errorf("push log = %+v, want one unverified entry", log)
	}
}

func TestPushAll_WalksStackingOrder(t *testing.T) {
	store := testStore(t)

	older := &models.WorkOrderBatch{
		WorkOrderID: "1111111",
		Services:    []models.EncodedService{pending(0, 12, "2025-03-01 09:00", 20)},
		StackedAt:   time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	newer := &models.WorkOrderBatch{
		WorkOrderID: "2222222",
		Services:    []models.EncodedService{pending(0, 3, "2025-03-02 09:00", 10)},
		StackedAt:   time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC),
	}
	if err := store.UpsertBatch(newer); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertBatch(older); err != nil {
		t.Fatal(err)
	}

	facade := &fakeFacade{}
	report, err := newPusher(store, facade).PushAll(context.Background())
	if err != nil {
		t.Fatalf("PushAll failed: %v", err)
	}
	if report.WorkOrders != 2 || report.Pushed != 2 {
		t.Errorf("report = %+v, want 2 work orders, 2 pushed", report)
	}
	if facade.records[0].VerbCode != 12 {
		t.Errorf("first pushed record verb = %d, want the older batch's 12", facade.records[0].VerbCode)
	}
}

func TestPushOne_NotStacked(t *testing.T) {
	store := testStore(t)
	facade := &fakeFacade{}
	if _, err := newPusher(store, facade).PushOne(context.Background(), "7654321"); err == nil {
		t.Error("expected error for a work order that is not stacked")
	}
	if facade.totalCalls() != 0 {
		t.Errorf("made %d remote calls for a missing batch, want 0", facade.totalCalls())
	}
}

func TestPush_CancelledContext(t *testing.T) {
	store := testStore(t)
	stack(t, store, "1234567", pending(0, 12, "2025-03-01 09:00", 20))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	facade := &fakeFacade{}
	if _, err := newPusher(store, facade).PushOne(ctx, "1234567"); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
	if facade.creates != 0 {
		t.Errorf("creates = %d, want 0 after cancellation", facade.creates)
	}
}
