package ui

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/renato0307/modshell/internal/domain"
	"github.com/renato0307/modshell/internal/theme"
)

// Screen layout of the list view: two header lines, the status line and a
// blank line above the rows; a blank line, the details line and the help
// bar below them.
const (
	listTop     = 4
	footerLines = 3
)

func (m *Model) listHeight() int {
	if m.height == 0 {
		return 1 << 20
	}
	return max(m.height-listTop-footerLines, 1)
}

func (m *Model) View() string {
	if m.state != stateList && m.dialog != nil {
		return m.dialog.View()
	}
	if m.errorManager.HasError() {
		return m.renderErrorModal()
	}
	return m.renderList()
}

func (m *Model) renderList() string {
	mods := m.session.Mods()

	var b strings.Builder
	b.WriteString(renderHeader(m.devMode, ""))
	b.WriteString(m.renderStatusLine(mods) + "\n\n")

	selected := make(map[int]bool)
	for _, pos := range m.session.Selection() {
		selected[pos] = true
	}
	conflicting := m.conflictingMods()
	dragging := m.session.Dragging()
	dropRow := m.session.DragTarget()

	if len(mods) == 0 {
		b.WriteString(theme.MutedStyle.Render("  No mods yet. Press "+m.keys.Mods.Add.Help().Key+" to add one.") + "\n")
	}

	end := min(m.offset+m.listHeight(), len(mods))
	for i := m.offset; i < end; i++ {
		row := renderRow(i, mods[i], selected[i], conflicting[mods[i].Hash], dragging && dropRow == i)
		if i == m.cursor {
			row = theme.CursorRowStyle.Width(max(m.width, lipgloss.Width(row))).Render(row)
		}
		b.WriteString(row + "\n")
	}
	if dragging && dropRow == len(mods) && end == len(mods) {
		b.WriteString(theme.DropMarkerStyle.Render("▶ ── drop here ──") + "\n")
	}

	b.WriteString("\n" + m.renderDetails(mods) + "\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m *Model) renderStatusLine(mods []domain.Mod) string {
	enabled := 0
	for _, mod := range mods {
		if mod.Enabled {
			enabled++
		}
	}

	status := theme.TitleStyle.Render("Profile: "+m.session.CurrentProfile()) +
		theme.MutedStyle.Render(fmt.Sprintf("  ·  %d mods, %d enabled", len(mods), enabled))
	if n := len(m.session.Selection()); n > 0 {
		status += theme.MutedStyle.Render(fmt.Sprintf("  ·  %d selected", n))
	}
	if m.session.Dirty() {
		status += theme.DirtyStyle.Render("  ·  * unapplied changes")
	}
	return status
}

// renderRow renders one mod; index is its load order position
func renderRow(index int, mod domain.Mod, selected, conflicting, dropBefore bool) string {
	marker := " "
	if selected {
		marker = theme.SelectedMarkerStyle.Render("▌")
	}
	drop := " "
	if dropBefore {
		drop = theme.DropMarkerStyle.Render("▶")
	}

	icon := theme.DisabledStyle.Render("○")
	name := theme.DisabledStyle.Render(mod.DisplayName())
	if mod.Enabled {
		icon = theme.EnabledStyle.Render("●")
		name = theme.NormalStyle.Render(mod.DisplayName())
	}

	var extra []string
	if mod.Meta.Version != "" {
		extra = append(extra, "v"+mod.Meta.Version)
	}
	if mod.Meta.Category != "" {
		extra = append(extra, mod.Meta.Category)
	}

	row := fmt.Sprintf("%s%s %s %3d  %s", drop, marker, icon, index+1, name)
	if len(extra) > 0 {
		row += "  " + theme.MutedStyle.Render(strings.Join(extra, " · "))
	}
	if conflicting {
		row += "  " + theme.ConflictStyle.Render("⚠")
	}
	return row
}

// conflictingMods returns the mods sharing at least one file with another
func (m *Model) conflictingMods() map[domain.Hash]bool {
	result := make(map[domain.Hash]bool)
	for _, path := range m.session.Conflicts() {
		for _, owner := range m.session.OwnersOf(path) {
			result[owner.Hash] = true
		}
	}
	return result
}

func (m *Model) renderDetails(mods []domain.Mod) string {
	if m.session.Dragging() {
		return theme.DropMarkerStyle.Render("Moving mods: ↑/↓ to choose where, " +
			m.keys.Reorder.Drop.Help().Key + " to drop, " +
			m.keys.Navigation.ClearSelection.Help().Key + " to cancel")
	}

	mod, ok := m.cursorMod(mods)
	if !ok {
		return ""
	}
	parts := []string{mod.DisplayName()}
	if mod.Meta.Author != "" {
		parts = append(parts, "by "+mod.Meta.Author)
	}
	parts = append(parts, fmt.Sprintf("%d files", mod.Manifest.Len()))
	if len(mod.EnabledOptions) > 0 {
		parts = append(parts, fmt.Sprintf("%d options", len(mod.EnabledOptions)))
	}
	if p, ok := m.previews[mod.Hash]; ok {
		parts = append(parts, p)
	}
	return theme.MutedStyle.Render(strings.Join(parts, "  ·  "))
}

func (m *Model) renderFooter() string {
	if m.session.Busy() {
		line := m.lastLog
		if line == "" {
			line = "Working..."
		}
		return m.spinner.View() + " " + theme.NormalStyle.Render(line)
	}
	return m.help.View(m.keys)
}

// errorModalWidth is the content width of the error modal
func (m *Model) errorModalWidth() int {
	return min(max(m.width-10, 20), 72)
}

func (m *Model) renderErrorModal() string {
	body := theme.ErrorStyle.Render("Error") + "\n\n" +
		formatErrorForDisplay(m.errorManager.GetError(), m.errorModalWidth())
	footer := "press any key to dismiss"
	if m.errorManager.HasTrace() {
		body += "\n\n" + theme.MutedStyle.Render("Trace") + "\n" + m.errorManager.TraceView()
		footer = "↑↓/jk/PgUp/PgDn to scroll • any other key to dismiss"
	}
	box := theme.ErrorBoxStyle.Render(body + "\n\n" + theme.MutedStyle.Render(footer))
	if m.width == 0 || m.height == 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}

// describePreview summarizes a thumbnail for the details line
func describePreview(data []byte) string {
	if len(data) == 0 {
		return "no preview"
	}
	return fmt.Sprintf("preview: %s, %s", http.DetectContentType(data), humanize.Bytes(uint64(len(data))))
}
