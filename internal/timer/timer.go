// Package timer is the day timer: it records when the technician started
// (or resumed) working so notes anchors and end-of-day totals have a
// reference point.
package timer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const stateFile = ".wo/timer.json"

// State is the persisted day-timer state.
type State struct {
	StartedAt time.Time `json:"started_at"`
	Label     string    `json:"label,omitempty"` // optional work order or free text
}

// Elapsed returns the time since the timer started.
func (s *State) Elapsed(now time.Time) time.Duration {
	return now.Sub(s.StartedAt)
}

// Load reads the timer state. Returns nil when no timer is running.
func Load(baseDir string) (*State, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, stateFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("corrupt timer state: %w", err)
	}
	return &s, nil
}

// Start begins a new day timer, replacing any running one.
func Start(baseDir string, now time.Time, label string) (*State, error) {
	s := &State{StartedAt: now, Label: label}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, err
	}
	path := filepath.Join(baseDir, stateFile)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, err
	}
	return s, nil
}

// Stop clears the timer and returns the final state, or nil if none was
// running.
func Stop(baseDir string) (*State, error) {
	s, err := Load(baseDir)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, nil
	}
	if err := os.Remove(filepath.Join(baseDir, stateFile)); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return s, nil
}

// FormatDuration renders a duration as "3h07m" / "42m".
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Minute)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h == 0 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh%02dm", h, m)
}
