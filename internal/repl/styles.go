package repl

import "github.com/charmbracelet/lipgloss"

// Styles holds the lipgloss styles used to print responses.
type Styles struct {
	Prompt  lipgloss.Style
	Title   lipgloss.Style
	Success lipgloss.Style
	Error   lipgloss.Style
	Muted   lipgloss.Style
	Accent  lipgloss.Style
}

// NewStyles builds styles for r, which decides whether colors are emitted.
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Prompt:  r.NewStyle().Foreground(lipgloss.Color("4")).Bold(true),
		Title:   r.NewStyle().Foreground(lipgloss.Color("5")).Bold(true),
		Success: r.NewStyle().Foreground(lipgloss.Color("2")),
		Error:   r.NewStyle().Foreground(lipgloss.Color("1")),
		Muted:   r.NewStyle().Foreground(lipgloss.Color("8")).Faint(true),
		Accent:  r.NewStyle().Foreground(lipgloss.Color("3")),
	}
}
