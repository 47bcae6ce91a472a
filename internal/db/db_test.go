package db

import (
	"testing"
	"time"

	"github.com/marcus/wo/internal/models"
)

func testDB(t *testing.T) *DB {
	t.Helper()
	database, err := Initialize(t.TempDir())
	if err != nil {
		t.Fatalf("Initialize failed: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func intPtr(v int) *int { return &v }

func sampleBatch(workOrderID string) *models.WorkOrderBatch {
	return &models.WorkOrderBatch{
		WorkOrderID:   workOrderID,
		ControlNumber: "445",
		CombinedNote:  "replaced the inlet valve; full cycle",
		StackedAt:     time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		Services: []models.EncodedService{
			{Seq: 0, VerbCode: 12, NounCode: intPtr(7), Timestamp: "2025-03-01 09:00", Note: "replaced the inlet valve", ElapsedMinutes: 20, PushState: models.StatePending},
			{Seq: 1, VerbCode: 3, Timestamp: "2025-03-01 09:30", Note: "full cycle", ElapsedMinutes: 30, PushState: models.StatePending},
		},
	}
}

func TestInitialize_SchemaVersion(t *testing.T) {
	database := testDB(t)
	v, err := database.SchemaVersionInDB()
	if err != nil {
		t.Fatalf("SchemaVersionInDB failed: %v", err)
	}
	if v != SchemaVersion {
		t.Errorf("schema version = %d, want %d", v, SchemaVersion)
	}
}

func TestOpen_RequiresInit(t *testing.T) {
	if _, err := Open(t.TempDir()); err == nil {
		t.Error("Open should fail before Initialize")
	}
}

func TestUpsertGetRoundtrip(t *testing.T) {
	database := testDB(t)

	if err := database.UpsertBatch(sampleBatch("1234567")); err != nil {
		t.Fatalf("UpsertBatch failed: %v", err)
	}

	got, err := database.GetBatch("1234567")
	if err != nil {
		t.Fatalf("GetBatch failed: %v", err)
	}
	if got == nil {
		t.Fatal("GetBatch returned nil for a stacked work order")
	}
	if got.ControlNumber != "445" {
		t.Errorf("control number = %q, want 445", got.ControlNumber)
	}
	if len(got.Services) != 2 {
		t.Fatalf("got %d services, want 2", len(got.Services))
	}
	s := got.Services[0]
	if s.VerbCode != 12 || s.NounCode == nil || *s.NounCode != 7 {
		t.Errorf("service 0 codes = %d/%v, want 12/7", s.VerbCode, s.NounCode)
	}
	if got.Services[1].NounCode != nil {
		t.Errorf("service 1 noun = %v, want nil", got.Services[1].NounCode)
	}
	if got.PendingCount() != 2 {
		t.Errorf("pending = %d, want 2", got.PendingCount())
	}
	if got.TotalMinutes() != 50 {
		t.Errorf("total minutes = %d, want 50", got.TotalMinutes())
	}
}

func TestGetBatch_NotStacked(t *testing.T) {
	database := testDB(t)
	got, err := database.GetBatch("7654321")
	if err != nil {
		t.Fatalf("GetBatch failed: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil for unknown work order, got %+v", got)
	}
}

func TestMarkPushed(t *testing.T) {
	database := testDB(t)
	if err := database.UpsertBatch(sampleBatch("1234567")); err != nil {
		t.Fatal(err)
	}

	if err := database.MarkPushed("1234567", 0); err != nil {
		t.Fatalf("MarkPushed failed: %v", err)
	}

	got, err := database.GetBatch("1234567")
	if err != nil {
		t.Fatal(err)
	}
	if got.Services[0].PushState != models.StatePushed {
		t.Errorf("service 0 state = %q, want pushed", got.Services[0].PushState)
	}
	if got.Services[1].PushState != models.StatePending {
		t.Errorf("service 1 state = %q, want pending", got.Services[1].PushState)
	}
	if got.PendingCount() != 1 {
		t.Errorf("pending = %d, want 1", got.PendingCount())
	}

	if err := database.MarkPushed("1234567", 99); err == nil {
		t.Error("MarkPushed on a missing service should error")
	}
}

func TestUpsert_PreservesPushedStateOnRestack(t *testing.T) {
	database := testDB(t)
	if err := database.UpsertBatch(sampleBatch("1234567")); err != nil {
		t.Fatal(err)
	}
	if err := database.MarkPushed("1234567", 0); err != nil {
		t.Fatal(err)
	}

	// Re-stack with the same first service plus one brand-new service.
	restacked := sampleBatch("1234567")
	restacked.Services = append(restacked.Services, models.EncodedService{
		Seq: 2, VerbCode: 5, Timestamp: "2025-03-01 10:15", Note: "cleanup", ElapsedMinutes: 45, PushState: models.StatePending,
	})
	if err := database.UpsertBatch(restacked); err != nil {
		t.Fatalf("re-stack failed: %v", err)
	}

	got, err := database.GetBatch("1234567")
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Services) != 3 {
		t.Fatalf("got %d services, want 3", len(got.Services))
	}
	if got.Services[0].PushState != models.StatePushed {
		t.Errorf("matching service lost its pushed state on re-stack")
	}
	if got.Services[1].PushState != models.StatePending || got.Services[2].PushState != models.StatePending {
		t.Errorf("new services should stay pending: %q, %q",
			got.Services[1].PushState, got.Services[2].PushState)
	}
}

func TestUpsert_ChangedServiceBecomesPendingAgain(t *testing.T) {
	database := testDB(t)
	if err := database.UpsertBatch(sampleBatch("1234567")); err != nil {
		t.Fatal(err)
	}
	if err := database.MarkPushed("1234567", 0); err != nil {
		t.Fatal(err)
	}

	// Same timestamp, different minutes: no longer the pushed service.
	restacked := sampleBatch("1234567")
	restacked.Services[0].ElapsedMinutes = 25
	if err := database.UpsertBatch(restacked); err != nil {
		t.Fatal(err)
	}

	got, err := database.GetBatch("1234567")
	if err != nil {
		t.Fatal(err)
	}
	if got.Services[0].PushState != models.StatePending {
		t.Errorf("edited service kept pushed state, want pending")
	}
}

func TestUpsert_DuplicateIdentityConsumedOnce(t *testing.T) {
	database := testDB(t)

	// Two distinct services that happen to share an identity key.
	twin := models.EncodedService{
		VerbCode: 12, Timestamp: "2025-03-01 09:00", Note: "same work twice", ElapsedMinutes: 20, PushState: models.StatePending,
	}
	batch := &models.WorkOrderBatch{
		WorkOrderID: "1234567",
		StackedAt:   time.Now(),
		Services:    []models.EncodedService{twin, twin},
	}
	batch.Services[1].Seq = 1
	if err := database.UpsertBatch(batch); err != nil {
		t.Fatal(err)
	}
	if err := database.MarkPushed("1234567", 0); err != nil {
		t.Fatal(err)
	}

	restacked := &models.WorkOrderBatch{
		WorkOrderID: "1234567",
		StackedAt:   time.Now(),
		Services:    []models.EncodedService{twin, twin},
	}
	restacked.Services[1].Seq = 1
	if err := database.UpsertBatch(restacked); err != nil {
		t.Fatal(err)
	}

	got, err := database.GetBatch("1234567")
	if err != nil {
		t.Fatal(err)
	}
	pushedCount := 0
	for _, s := range got.Services {
		if s.PushState == models.StatePushed {
			pushedCount++
		}
	}
	if pushedCount != 1 {
		t.Errorf("pushed services = %d, want exactly 1: only one of the twins reached the remote", pushedCount)
	}
}

func TestGetAllBatches_OrderedByStackTime(t *testing.T) {
	database := testDB(t)

	second := sampleBatch("2222222")
	second.StackedAt = time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)
	first := sampleBatch("1111111")
	first.StackedAt = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	if err := database.UpsertBatch(second); err != nil {
		t.Fatal(err)
	}
	if err := database.UpsertBatch(first); err != nil {
		t.Fatal(err)
	}

	all, err := database.GetAllBatches()
	if err != nil {
		t.Fatalf("GetAllBatches failed: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d batches, want 2", len(all))
	}
	if all[0].WorkOrderID != "1111111" || all[1].WorkOrderID != "2222222" {
		t.Errorf("order = %s, %s; want 1111111, 2222222", all[0].WorkOrderID, all[1].WorkOrderID)
	}
	if len(all[0].Services) != 2 {
		t.Errorf("services not loaded for listed batches")
	}
}

func TestDeleteBatchAndClear(t *testing.T) {
	database := testDB(t)
	if err := database.UpsertBatch(sampleBatch("1111111")); err != nil {
		t.Fatal(err)
	}
	if err := database.UpsertBatch(sampleBatch("2222222")); err != nil {
		t.Fatal(err)
	}

	if err := database.DeleteBatch("1111111"); err != nil {
		t.Fatalf("DeleteBatch failed: %v", err)
	}
	got, err := database.GetBatch("1111111")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Error("deleted batch still present")
	}

	if err := database.Clear(); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}
	all, err := database.GetAllBatches()
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 0 {
		t.Errorf("stack not empty after Clear: %d batches", len(all))
	}
}

func TestPushLog(t *testing.T) {
	database := testDB(t)

	entries := []models.PushLogEntry{
		{WorkOrderID: "1111111", Seq: 0, Outcome: models.OutcomePushed},
		{WorkOrderID: "1111111", Seq: 1, Outcome: models.OutcomeFailed, Detail: "remote interaction failed"},
		{WorkOrderID: "2222222", Seq: 0, Outcome: models.OutcomeUnverified, Detail: "no matching record"},
	}
	for i := range entries {
		if err := database.AppendPushLog(&entries[i]); err != nil {
			t.Fatalf("AppendPushLog failed: %v", err)
		}
	}

	all, err := database.RecentPushLog("", 0)
	if err != nil {
		t.Fatalf("RecentPushLog failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("got %d log entries, want 3", len(all))
	}
	// Newest first
	if all[0].WorkOrderID != "2222222" {
		t.Errorf("newest entry = %s, want 2222222", all[0].WorkOrderID)
	}

	scoped, err := database.RecentPushLog("1111111", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(scoped) != 2 {
		t.Fatalf("got %d scoped entries, want 2", len(scoped))
	}
	if scoped[0].Outcome != models.OutcomeFailed || scoped[1].Outcome != models.OutcomePushed {
		t.Errorf("scoped order wrong: %s, %s", scoped[0].Outcome, scoped[1].Outcome)
	}

	limited, err := database.RecentPushLog("", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Errorf("limit not applied: got %d entries", len(limited))
	}
}
