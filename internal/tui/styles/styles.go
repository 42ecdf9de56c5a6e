// Package styles provides Lip Gloss styling for the TUI.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	Primary     = lipgloss.Color("#B19CD9") // Pastel purple
	PrimaryDark = lipgloss.Color("#9B7BC7")
	Secondary   = lipgloss.Color("#6B4423") // Brown
	Cream       = lipgloss.Color("#FFF8DC")
	Success     = lipgloss.Color("#4CAF50")
	Warning     = lipgloss.Color("#FF9800")
	Error       = lipgloss.Color("#F44336")
	Surface     = lipgloss.Color("#4A2C17")
	TextMuted   = lipgloss.Color("#9E9E9E")

	// Header
	Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary).
		Padding(0, 1).
		MarginBottom(1)

	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Cream)

	Subtitle = lipgloss.NewStyle().
			Foreground(TextMuted).
			Italic(true)

	// Chat message styles
	UserMessage = lipgloss.NewStyle().
			Foreground(Primary).
			PaddingLeft(2)

	AssistantMessage = lipgloss.NewStyle().
				Foreground(Cream).
				PaddingLeft(2)

	InputPrompt = lipgloss.NewStyle().
			Foreground(Primary).
			Bold(true)

	StatusBar = lipgloss.NewStyle().
			Background(Surface).
			Foreground(Cream).
			Padding(0, 1)

	ErrorText = lipgloss.NewStyle().
			Foreground(Error).
			Bold(true)

	InfoText = lipgloss.NewStyle().
			Foreground(PrimaryDark)

	SuccessText = lipgloss.NewStyle().
			Foreground(Success)

	MutedText = lipgloss.NewStyle().
			Foreground(TextMuted)

	// Help
	HelpKey = lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true)

	HelpDesc = lipgloss.NewStyle().
			Foreground(TextMuted)

	// Reader page
	Page = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Secondary).
		Padding(1, 2)

	Favorite = lipgloss.NewStyle().
			Foreground(Warning)

	Spinner = lipgloss.NewStyle().
		Foreground(Primary)
)

// Width returns the available width for content.
func Width(termWidth int) int {
	return termWidth - 4 // Account for padding
}
