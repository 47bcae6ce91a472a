package remote

// Snapshot is one extraction of a work order's visible service records.
// Record handles can only be minted from a snapshot, and drivers reject
// handles whose snapshot has been superseded by a later mutation, making
// stale-handle misuse an explicit error instead of a silent wrong-row
// mutation.
type Snapshot struct {
	WorkOrderID string
	Records     []ServiceRecord

	// generation is assigned by the driver; a mutation bumps the driver's
	// current generation, invalidating every earlier snapshot.
	generation uint64
}

// NewSnapshot is used by drivers to construct a snapshot tied to their
// current view generation.
func NewSnapshot(workOrderID string, records []ServiceRecord, generation uint64) *Snapshot {
	return &Snapshot{WorkOrderID: workOrderID, Records: records, generation: generation}
}

// Generation exposes the snapshot's view generation to drivers.
func (s *Snapshot) Generation() uint64 { return s.generation }

// Handle returns a mutation handle for the i-th record of this snapshot.
func (s *Snapshot) Handle(i int) Handle {
	return Handle{snapshot: s, record: s.Records[i]}
}

// Handle addresses one record of one specific snapshot for edit/delete.
type Handle struct {
	snapshot *Snapshot
	record   ServiceRecord
}

// Record returns the record this handle addresses.
func (h Handle) Record() ServiceRecord { return h.record }

// Snapshot returns the snapshot the handle was minted from.
func (h Handle) Snapshot() *Snapshot { return h.snapshot }
