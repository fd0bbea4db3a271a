package theme

import "github.com/charmbracelet/lipgloss"

// Color is an alias for lipgloss.Color for convenience
type Color = lipgloss.Color

// Brand colors
const (
	ColorPrimary   Color = "99" // Purple - app name, titles
	ColorSecondary Color = "86" // Cyan - subtitles
)

// Mod state colors
const (
	ColorDisabled Color = "8"   // Gray - disabled mod
	ColorDirty    Color = "214" // Orange - unapplied changes
	ColorEnabled  Color = "2"   // Green - enabled mod
	ColorConflict Color = "3"   // Yellow - shares files with another mod
)

// UI semantic colors
const (
	ColorCursor    Color = "237" // Dark background - cursor row
	ColorDrop      Color = "205" // Pink - drop marker
	ColorError     Color = "196" // Bright red
	ColorHighlight Color = "255" // White - emphasis
	ColorMuted     Color = "241" // Gray - secondary text
	ColorNormal    Color = "250" // Default text
	ColorSelected  Color = "141" // Purple - selection marker
	ColorSubtle    Color = "245" // Light gray - labels
	ColorVersion   Color = "240" // Dark gray
)

// Accent colors
const (
	ColorHelpGroup Color = "141" // Purple
	ColorSpinner   Color = "205" // Pink
)
