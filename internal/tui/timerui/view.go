package timerui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	clockStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("42")).
			Padding(0, 2)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Padding(0, 2)
	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("241")).
			Padding(1, 2)
)

// View renders the elapsed clock and start time.
func (m Model) View() string {
	elapsed := m.State.Elapsed(m.Now)
	h := int(elapsed.Hours())
	mm := int(elapsed.Minutes()) % 60
	ss := int(elapsed.Seconds()) % 60

	var sb strings.Builder
	sb.WriteString(clockStyle.Render(fmt.Sprintf("%02d:%02d:%02d", h, mm, ss)))
	sb.WriteString("\n")
	sb.WriteString(labelStyle.Render("since " + m.State.StartedAt.Format(time.Kitchen)))
	if m.State.Label != "" {
		sb.WriteString(labelStyle.Render(" · " + m.State.Label))
	}

	return borderStyle.Render(sb.String()) + "\n" + m.help.View(keys)
}
