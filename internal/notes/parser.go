// Package notes extracts service log entries from a work order's free-form
// notes file and derives elapsed durations. Notes are human text; only lines
// matching the entry or anchor patterns are meaningful, everything else is
// ignored.
package notes

import (
	"regexp"
	"strings"

	"github.com/marcus/wo/internal/models"
)

// SyncedMarker tags a notes line whose entry has already been pushed.
// Lines carrying it are excluded from parsing.
const SyncedMarker = "{synced}"

// entryPattern matches service log lines:
//
//	[Verb] (2025-03-01 09:00) => note text
//	[Verb, Noun] (2025-03-01 09:00) => note text
var entryPattern = regexp.MustCompile(`^\s*\[([^,\]]+)(?:,([^\]]+))?\]\s*\((\d{4}-\d{2}-\d{2} \d{2}:\d{2})\)\s*=>\s*(.*)$`)

// anchorPattern matches day-start/resume markers:
//
//	Start (2025-03-01 08:40)
//	Resume (2025-03-01 12:30)
var anchorPattern = regexp.MustCompile(`(?i)^\s*(start|resume)\s*\((\d{4}-\d{2}-\d{2} \d{2}:\d{2})\)\s*$`)

// controlPattern matches the control number header line, if present.
var controlPattern = regexp.MustCompile(`(?i)^control:\s*(\S+)\s*$`)

// ParseResult is the outcome of scanning one notes file.
type ParseResult struct {
	Entries       []models.RawEntry // document order, synced entries excluded
	Anchor        string            // last Start/Resume timestamp, "" if none
	ControlNumber string
}

// Parse scans the full text of a notes file. Malformed entry-ish lines are
// skipped silently; notes are free-form and most lines are not entries.
func Parse(text string) ParseResult {
	var result ParseResult

	for _, line := range strings.Split(text, "\n") {
		if m := anchorPattern.FindStringSubmatch(line); m != nil {
			result.Anchor = m[2]
			continue
		}
		if m := controlPattern.FindStringSubmatch(line); m != nil {
			result.ControlNumber = m[1]
			continue
		}
		m := entryPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		note := strings.TrimSpace(m[4])
		if strings.Contains(note, SyncedMarker) {
			continue
		}
		result.Entries = append(result.Entries, models.RawEntry{
			Verb:      strings.TrimSpace(m[1]),
			Noun:      strings.TrimSpace(m[2]),
			Timestamp: m[3],
			Note:      note,
		})
	}

	return result
}
