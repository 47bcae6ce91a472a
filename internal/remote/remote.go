// Package remote defines the facade through which the engine talks to the
// maintenance-management system. The remote exposes no API, only a
// script-driven web UI, so every operation is an opaque interaction that may
// fail transiently; the concrete driver lives in remote/script.
//
// The remote's record identifiers are positional and shift whenever the
// visible grid is mutated, so extracted records are only addressable through
// the snapshot they came from: any create/edit/delete invalidates every
// earlier snapshot, and a handle from a stale snapshot is rejected before
// any remote interaction happens.
package remote

import "context"

// Credentials authenticates one remote session.
type Credentials struct {
	URL      string
	Username string
	Password string
}

// ServiceRecord is a read-only view of one remote service record, valid only
// within the snapshot it was extracted from.
type ServiceRecord struct {
	RemoteID          string // opaque, snapshot-scoped
	Servicer          string
	VerbCode          int
	Timestamp         string // models.TimeLayout
	ElapsedMinutes    int
	Description       string
	HasLinkedSubItems bool
}

// Date returns the date portion of the record timestamp.
func (r ServiceRecord) Date() string {
	if len(r.Timestamp) < 10 {
		return r.Timestamp
	}
	return r.Timestamp[:10]
}

// NewService carries the fields of a record to be created remotely.
type NewService struct {
	VerbCode       int
	NounCode       *int
	Timestamp      string
	ElapsedMinutes int
	Note           string
}

// FieldEdit carries the editable fields of an existing record. Nil fields
// are left untouched.
type FieldEdit struct {
	ElapsedMinutes *int
}

// Facade is one logical authenticated session against the remote system.
// All operations are strictly sequential: the currently displayed view is
// itself shared state, so no two calls may be in flight at once.
type Facade interface {
	Login(ctx context.Context, creds Credentials) error
	ExtractServiceRecords(ctx context.Context, workOrderID string) (*Snapshot, error)
	CreateServiceRecord(ctx context.Context, workOrderID string, svc NewService) error
	EditServiceRecord(ctx context.Context, h Handle, edit FieldEdit) error
	DeleteServiceRecord(ctx context.Context, h Handle) error
}
