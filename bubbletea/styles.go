package bubbletea

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/iklavya/coach"
)

// Styles maps a Theme to lipgloss styles for TUI rendering.
type Styles struct {
	UserMsg       lipgloss.Style
	UserBg        lipgloss.Style
	Assistant     lipgloss.Style
	Error         lipgloss.Style
	Success       lipgloss.Style
	Muted         lipgloss.Style
	Accent        lipgloss.Style
	ArtifactPanel lipgloss.Style
}

// NewStyles creates Styles from a Theme.
func NewStyles(t coach.Theme) Styles {
	return Styles{
		UserMsg:   lipgloss.NewStyle().Foreground(ansiColor(t.UserMsg)).Bold(true),
		UserBg:    lipgloss.NewStyle().Background(ansiColor(t.CodeBg)).PaddingLeft(1),
		Assistant: lipgloss.NewStyle().Foreground(ansiColor(t.Accent)).Bold(true),
		Error:     lipgloss.NewStyle().Foreground(ansiColor(t.Error)),
		Success:   lipgloss.NewStyle().Foreground(ansiColor(t.Success)),
		Muted:     lipgloss.NewStyle().Foreground(ansiColor(t.Muted)).Faint(true),
		Accent:    lipgloss.NewStyle().Foreground(ansiColor(t.Accent)).Bold(true),
		ArtifactPanel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ansiColor(t.Artifact)).
			Padding(0, 1),
	}
}

func ansiColor(index int) lipgloss.TerminalColor {
	if index < 0 {
		return lipgloss.NoColor{}
	}
	return lipgloss.Color(strconv.Itoa(index))
}
