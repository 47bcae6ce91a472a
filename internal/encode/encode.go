// Package encode resolves timed notes entries into coded service lines via
// the vocabulary tables. Resolution failures are per-entry diagnostics, not
// errors: one bad line never blocks the rest of the batch.
package encode

import (
	"fmt"
	"strings"
	"time"

	"github.com/marcus/wo/internal/models"
	"github.com/marcus/wo/internal/notes"
	"github.com/marcus/wo/internal/vocab"
)

// Diagnostic explains why a single entry could not be encoded.
type Diagnostic struct {
	Entry  models.TimedEntry
	Reason string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("[%s] (%s): %s", d.Entry.Verb, d.Entry.Timestamp, d.Reason)
}

// Resolve encodes each timed entry against the vocabulary table. Entries
// that fail resolution are dropped with a diagnostic; the rest keep their
// original order and are numbered sequentially.
func Resolve(entries []models.TimedEntry, table *vocab.Table) ([]models.EncodedService, []Diagnostic) {
	var services []models.EncodedService
	var diags []Diagnostic

	for _, e := range entries {
		verb, ok := table.Verb(e.Verb)
		if !ok {
			diags = append(diags, Diagnostic{Entry: e, Reason: fmt.Sprintf("unknown verb %q", e.Verb)})
			continue
		}

		var nounCode *int
		if verb.RequiresNoun {
			if e.Noun == "" {
				diags = append(diags, Diagnostic{Entry: e, Reason: fmt.Sprintf("verb %q requires a noun", e.Verb)})
				continue
			}
			code, ok := table.Noun(e.Noun)
			if !ok {
				diags = append(diags, Diagnostic{Entry: e, Reason: fmt.Sprintf("unknown noun %q", e.Noun)})
				continue
			}
			nounCode = &code
		}

		services = append(services, models.EncodedService{
			Seq:            len(services),
			VerbCode:       verb.Code,
			NounCode:       nounCode,
			Timestamp:      e.Timestamp,
			Note:           e.Note,
			ElapsedMinutes: e.ElapsedMinutes,
			PushState:      models.StatePending,
		})
	}

	return services, diags
}

// Batch builds a complete work order batch from a parsed notes file.
func Batch(workOrderID string, res notes.ParseResult, table *vocab.Table, now time.Time) (models.WorkOrderBatch, []Diagnostic) {
	timed := notes.Timed(res.Entries, res.Anchor)
	services, diags := Resolve(timed, table)

	noteParts := make([]string, 0, len(services))
	for _, s := range services {
		if s.Note != "" {
			noteParts = append(noteParts, s.Note)
		}
	}

	return models.WorkOrderBatch{
		WorkOrderID:   workOrderID,
		ControlNumber: res.ControlNumber,
		Services:      services,
		CombinedNote:  strings.Join(noteParts, "; "),
		StackedAt:     now,
	}, diags
}
