package ui

import (
	"fmt"
	"strings"

	"github.com/renato0307/modshell/internal/domain"
	"github.com/renato0307/modshell/internal/theme"
)

// ownerLookup is the part of the session the conflicts report reads
type ownerLookup interface {
	ConflictingWith(hash domain.Hash) []domain.Mod
	OwnersOf(path string) []domain.Mod
}

// conflictReport describes, for every file of mod that another mod also
// touches, the owners in load order and which one wins
func conflictReport(session ownerLookup, mod domain.Mod) string {
	others := session.ConflictingWith(mod.Hash)
	if len(others) == 0 {
		return theme.NormalStyle.Render(mod.DisplayName()+" shares no files with other mods.") + "\n"
	}

	names := make([]string, len(others))
	for i, o := range others {
		names[i] = o.DisplayName()
	}

	var b strings.Builder
	b.WriteString(theme.NormalStyle.Render("Shares files with: "+strings.Join(names, ", ")) + "\n")

	var paths []string
	for _, p := range mod.Manifest.Content {
		paths = append(paths, domain.BaseFilesRoot+p)
	}
	for _, p := range mod.Manifest.AOC {
		paths = append(paths, domain.DLCFilesRoot+p)
	}

	for _, p := range paths {
		owners := session.OwnersOf(p)
		if len(owners) < 2 {
			continue
		}
		b.WriteString("\n" + theme.ConflictStyle.Render(p) + "\n")

		winner := -1
		for i := len(owners) - 1; i >= 0; i-- {
			if owners[i].Enabled {
				winner = i
				break
			}
		}
		for i, o := range owners {
			line := fmt.Sprintf("  %d. %s", i+1, o.DisplayName())
			switch {
			case i == winner:
				line = theme.EnabledStyle.Render(line + "  (wins)")
			case !o.Enabled:
				line = theme.DisabledStyle.Render(line + "  (disabled)")
			default:
				line = theme.NormalStyle.Render(line)
			}
			b.WriteString(line + "\n")
		}
	}
	return b.String()
}
