// Package output provides styled terminal output helpers (success, error,
// warning, batch and report formatting) using lipgloss.
package output

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/marcus/wo/internal/models"
)

var (
	// Styles
	titleStyle   = lipgloss.NewStyle().Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	stateStyles  = map[models.PushState]lipgloss.Style{
		models.StatePending: lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		models.StatePushed:  lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
	}
)

// Success prints a success message
func Success(format string, args ...interface{}) {
	fmt.Println(successStyle.Render(fmt.Sprintf(format, args...)))
}

// Error prints an error message
func Error(format string, args ...interface{}) {
	fmt.Println(errorStyle.Render("ERROR: " + fmt.Sprintf(format, args...)))
}

// Warning prints a warning message
func Warning(format string, args ...interface{}) {
	fmt.Println(warningStyle.Render("Warning: " + fmt.Sprintf(format, args...)))
}

// Info prints an info message
func Info(format string, args ...interface{}) {
	fmt.Println(fmt.Sprintf(format, args...))
}

// JSON outputs data as JSON
func JSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

// FormatService renders one encoded service line.
func FormatService(s models.EncodedService) string {
	state := stateStyles[s.PushState].Render(string(s.PushState))

	code := fmt.Sprintf("%d", s.VerbCode)
	if s.NounCode != nil {
		code = fmt.Sprintf("%d/%d", s.VerbCode, *s.NounCode)
	}

	line := fmt.Sprintf("  %2d. %-7s %s  %3dm  [%s]", s.Seq, code, s.Timestamp, s.ElapsedMinutes, state)
	if s.Note != "" {
		line += "  " + subtleStyle.Render(truncate(s.Note, 48))
	}
	return line
}

// FormatBatch renders a batch header plus its services.
func FormatBatch(b *models.WorkOrderBatch) string {
	var sb strings.Builder

	header := fmt.Sprintf("WO %s", b.WorkOrderID)
	if b.ControlNumber != "" {
		header += fmt.Sprintf(" (control %s)", b.ControlNumber)
	}
	sb.WriteString(titleStyle.Render(header))
	sb.WriteString(subtleStyle.Render(fmt.Sprintf("  %d services, %d min total, %d pending",
		len(b.Services), b.TotalMinutes(), b.PendingCount())))
	sb.WriteString("\n")

	for _, s := range b.Services {
		sb.WriteString(FormatService(s))
		sb.WriteString("\n")
	}
	return sb.String()
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "…"
}
