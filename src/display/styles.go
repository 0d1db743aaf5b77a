package display

import "github.com/charmbracelet/lipgloss"

// StyleConfig holds the palette used for terminal output.
type StyleConfig struct {
	SuccessColor  lipgloss.Color
	WarningColor  lipgloss.Color
	ErrorColor    lipgloss.Color
	AccentColor   lipgloss.Color
	TextSecondary lipgloss.Color
	BorderColor   lipgloss.Color
}

// DefaultStyles returns the default color palette
func DefaultStyles() *StyleConfig {
	return &StyleConfig{
		SuccessColor:  lipgloss.Color("#34A853"),
		WarningColor:  lipgloss.Color("#FBBC04"),
		ErrorColor:    lipgloss.Color("#EA4335"),
		AccentColor:   lipgloss.Color("#8AB4F8"),
		TextSecondary: lipgloss.Color("#9AA0A6"),
		BorderColor:   lipgloss.Color("#5F6368"),
	}
}

func (s *StyleConfig) SuccessStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(s.SuccessColor)
}

func (s *StyleConfig) WarningStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(s.WarningColor)
}

func (s *StyleConfig) ErrorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(s.ErrorColor).Bold(true)
}

// HeaderStyle is used for table headers.
func (s *StyleConfig) HeaderStyle() lipgloss.Style {
	return lipgloss.NewStyle().
		Foreground(s.AccentColor).
		Bold(true).
		Padding(0, 1)
}

// CellStyle is used for table cells.
func (s *StyleConfig) CellStyle() lipgloss.Style {
	return lipgloss.NewStyle().Padding(0, 1)
}

// RuleStyle renders the "------" separators.
func (s *StyleConfig) RuleStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(s.TextSecondary)
}
