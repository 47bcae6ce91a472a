package models

import (
	"regexp"
	"time"
)

// TimeLayout is the timestamp layout used throughout: naive local date-time,
// no timezone.
const TimeLayout = "2006-01-02 15:04"

// workOrderPattern matches valid work order IDs: exactly seven digits.
var workOrderPattern = regexp.MustCompile(`^\d{7}$`)

// IsValidWorkOrderID reports whether id is a well-formed work order ID.
func IsValidWorkOrderID(id string) bool {
	return workOrderPattern.MatchString(id)
}

// PushState tracks whether an encoded service has reached the remote system.
type PushState string

const (
	StatePending PushState = "pending"
	StatePushed  PushState = "pushed"
)

// RawEntry is a single log line extracted from a work order's notes file,
// before any time or vocabulary resolution.
type RawEntry struct {
	Verb      string `json:"verb"`
	Noun      string `json:"noun,omitempty"`
	Timestamp string `json:"timestamp"` // TimeLayout, naive local time
	Note      string `json:"note"`
}

// TimedEntry is a RawEntry with its elapsed duration derived from the
// previous entry (or the day-start anchor for the first entry).
type TimedEntry struct {
	RawEntry
	ElapsedMinutes int `json:"elapsed_minutes"`
}

// EncodedService is a fully resolved service line ready to push.
type EncodedService struct {
	Seq            int       `json:"seq"` // position within the batch
	VerbCode       int       `json:"verb_code"`
	NounCode       *int      `json:"noun_code,omitempty"`
	Timestamp      string    `json:"timestamp"`
	Note           string    `json:"note"`
	ElapsedMinutes int       `json:"elapsed_minutes"`
	PushState      PushState `json:"push_state"`
}

// Date returns the service date portion of the timestamp.
func (s EncodedService) Date() string {
	if len(s.Timestamp) < 10 {
		return s.Timestamp
	}
	return s.Timestamp[:10]
}

// IdentityKey identifies a service independent of push state. Re-stacking a
// work order uses it to carry pushed state forward onto rebuilt entries.
type IdentityKey struct {
	Timestamp      string
	VerbCode       int
	NounCode       int // -1 when absent
	ElapsedMinutes int
}

// Identity returns the service's identity key.
func (s EncodedService) Identity() IdentityKey {
	noun := -1
	if s.NounCode != nil {
		noun = *s.NounCode
	}
	return IdentityKey{
		Timestamp:      s.Timestamp,
		VerbCode:       s.VerbCode,
		NounCode:       noun,
		ElapsedMinutes: s.ElapsedMinutes,
	}
}

// WorkOrderBatch is the pending queue for one work order. Rebuilt wholesale
// each time the work order is stacked from its notes.
type WorkOrderBatch struct {
	WorkOrderID   string           `json:"work_order_id"`
	ControlNumber string           `json:"control_number,omitempty"`
	Services      []EncodedService `json:"services"`
	CombinedNote  string           `json:"combined_note"`
	StackedAt     time.Time        `json:"stacked_at"`
}

// PendingCount returns the number of services not yet pushed.
func (b *WorkOrderBatch) PendingCount() int {
	n := 0
	for _, s := range b.Services {
		if s.PushState == StatePending {
			n++
		}
	}
	return n
}

// TotalMinutes sums elapsed minutes across all services in the batch.
func (b *WorkOrderBatch) TotalMinutes() int {
	total := 0
	for _, s := range b.Services {
		total += s.ElapsedMinutes
	}
	return total
}

// PushOutcome records one push attempt in the audit log.
type PushOutcome string

const (
	OutcomePushed     PushOutcome = "pushed"
	OutcomeFailed     PushOutcome = "failed"
	OutcomeUnverified PushOutcome = "unverified"
)

// PushLogEntry is one row of the push audit log.
type PushLogEntry struct {
	ID          int64       `json:"id"`
	WorkOrderID string      `json:"work_order_id"`
	Seq         int         `json:"seq"`
	Outcome     PushOutcome `json:"outcome"`
	Detail      string      `json:"detail,omitempty"`
	Timestamp   time.Time   `json:"timestamp"`
}

// Config holds operator configuration persisted in .wo/config.json.
type Config struct {
	Servicer      string `json:"servicer,omitempty"`       // technician name as it appears remotely
	DriverCommand string `json:"driver_command,omitempty"` // external automation command for the remote facade
	RemoteURL     string `json:"remote_url,omitempty"`
	Username      string `json:"username,omitempty"`
	Password      string `json:"password,omitempty"`
	NotesDir      string `json:"notes_dir,omitempty"` // override for the notes directory
}
