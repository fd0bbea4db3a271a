package ui

import (
	"fmt"

	"github.com/renato0307/modshell/internal/theme"
	"github.com/renato0307/modshell/version"
)

// renderHeader renders the app name, the tagline and an optional subtitle.
// In dev mode the build information follows the app name.
func renderHeader(devMode bool, subtitle string) string {
	appNameLine := theme.AppNameStyle.Render("modshell")
	if devMode {
		commit := version.Commit
		if len(commit) > 7 {
			commit = commit[:7]
		}
		appNameLine += theme.VersionStyle.Render(fmt.Sprintf(" %s | %s | %s | %s",
			version.Version,
			commit,
			version.Date,
			version.GoVersion))
	}

	result := appNameLine + "\n"
	result += theme.TaglineStyle.Render(version.Tagline)

	if subtitle != "" {
		result += "\n\n" + theme.SubtitleStyle.Render(subtitle)
	}

	result += "\n"
	return result
}
