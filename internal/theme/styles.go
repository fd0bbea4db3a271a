package theme

import "github.com/charmbracelet/lipgloss"

// Main UI styles
var (
	HelpStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Padding(1, 0)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	NormalStyle = lipgloss.NewStyle().
			Foreground(ColorNormal)

	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)
)

// Mod list styles
var (
	ConflictStyle = lipgloss.NewStyle().
			Foreground(ColorConflict)

	CursorRowStyle = lipgloss.NewStyle().
			Background(ColorCursor)

	DirtyStyle = lipgloss.NewStyle().
			Foreground(ColorDirty).
			Bold(true)

	DisabledStyle = lipgloss.NewStyle().
			Foreground(ColorDisabled)

	DropMarkerStyle = lipgloss.NewStyle().
			Foreground(ColorDrop).
			Bold(true)

	EnabledStyle = lipgloss.NewStyle().
			Foreground(ColorEnabled)

	SelectedMarkerStyle = lipgloss.NewStyle().
				Foreground(ColorSelected).
				Bold(true)

	SpinnerStyle = lipgloss.NewStyle().
			Foreground(ColorSpinner)
)

// Dialog header styles
var (
	AppNameStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	SubtitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorSecondary)

	TaglineStyle = lipgloss.NewStyle().
			Foreground(ColorNormal)

	VersionStyle = lipgloss.NewStyle().
			Foreground(ColorVersion)
)

// Help screen styles
var (
	HelpDescStyle = lipgloss.NewStyle().
			Foreground(ColorSubtle)

	HelpGroupStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorHelpGroup).
			MarginTop(1)

	HelpKeyStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight).
			Bold(true).
			Width(25)
)

// Error styles
var (
	ErrorBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorError).
			Padding(1, 2)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)
)
