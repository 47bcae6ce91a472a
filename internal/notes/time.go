package notes

import (
	"log/slog"
	"math"
	"time"

	"github.com/marcus/wo/internal/models"
)

// Timed converts raw entries into timed entries by computing elapsed minutes
// against the previous boundary: the prior entry's timestamp, or the anchor
// for the first entry.
//
// Entries whose computed elapsed is zero or negative are dropped, not
// clamped: a non-positive delta means the log lines are out of order, not
// that real work took no time. With no anchor, the first entry has no
// boundary and is dropped too. The boundary always advances to the current
// entry's timestamp, even when the entry itself is dropped.
func Timed(entries []models.RawEntry, anchor string) []models.TimedEntry {
	var out []models.TimedEntry

	var boundary time.Time
	haveBoundary := false
	if anchor != "" {
		if t, err := time.ParseInLocation(models.TimeLayout, anchor, time.Local); err == nil {
			boundary = t
			haveBoundary = true
		} else {
			slog.Warn("unparseable anchor ignored", "anchor", anchor)
		}
	}

	for _, e := range entries {
		t, err := time.ParseInLocation(models.TimeLayout, e.Timestamp, time.Local)
		if err != nil {
			slog.Warn("entry with unparseable timestamp dropped", "timestamp", e.Timestamp)
			continue
		}

		if haveBoundary {
			elapsed := int(math.Round(t.Sub(boundary).Seconds() / 60))
			if elapsed > 0 {
				out = append(out, models.TimedEntry{RawEntry: e, ElapsedMinutes: elapsed})
			} else {
				slog.Debug("non-positive elapsed, entry dropped", "timestamp", e.Timestamp, "elapsed", elapsed)
			}
		} else {
			slog.Debug("no anchor, first entry dropped", "timestamp", e.Timestamp)
		}

		boundary = t
		haveBoundary = true
	}

	return out
}
