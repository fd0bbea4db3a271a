package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/renato0307/modshell/internal/theme"
)

// TextView is a scrollable read-only page, used for the help screen and the
// conflicts report
type TextView struct {
	completed   bool
	content     string
	footer      string
	initialized bool
	keys        *KeyMap
	viewport    viewport.Model
}

// NewTextView creates a text view showing content
func NewTextView(content, footer string, keys *KeyMap) *TextView {
	return &TextView{
		content:  content,
		footer:   footer,
		keys:     keys,
		viewport: viewport.New(0, 0),
	}
}

// NewHelpScreen creates the keyboard shortcuts page
func NewHelpScreen(keys *KeyMap) *TextView {
	return NewTextView(buildHelpContent(keys), "Press esc, q or ? to close • ↑↓/jk/PgUp/PgDn to scroll", keys)
}

func (v *TextView) Init() tea.Cmd {
	v.viewport.KeyMap.Up.SetKeys("up", "k")
	v.viewport.KeyMap.Down.SetKeys("down", "j")
	return nil
}

func (v *TextView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		// Dialog header: 4 lines, footer: 3 lines
		v.viewport.Width = msg.Width
		v.viewport.Height = max(msg.Height-7, 5)
		v.viewport.SetContent(v.content)
		v.initialized = true
		return v, nil

	case tea.KeyMsg:
		if msg.String() == "esc" || key.Matches(msg, v.keys.Application.Quit, v.keys.Application.Help) {
			v.completed = true
			return v, nil
		}
	}

	var cmd tea.Cmd
	v.viewport, cmd = v.viewport.Update(msg)
	return v, cmd
}

func (v *TextView) View() string {
	if !v.initialized {
		return "Loading..."
	}
	return v.viewport.View() + "\n" + theme.HelpStyle.Render(v.footer)
}

// Done reports whether the view was closed
func (v *TextView) Done() bool {
	return v.completed
}

// buildHelpContent lists every binding under its group
func buildHelpContent(keys *KeyMap) string {
	groups := []struct {
		name     string
		bindings []key.Binding
	}{
		{groupNavigation, []key.Binding{keys.Navigation.Up, keys.Navigation.Down, keys.Navigation.Select, keys.Navigation.ClearSelection}},
		{groupMods, []key.Binding{keys.Mods.Toggle, keys.Mods.Options, keys.Mods.Conflicts, keys.Mods.OpenFolder, keys.Mods.Add, keys.Mods.Remove, keys.Mods.Apply, keys.Mods.CancelChanges}},
		{groupReorder, []key.Binding{keys.Reorder.Grab, keys.Reorder.Drop, keys.Reorder.MoveUp, keys.Reorder.MoveDown}},
		{groupApplication, []key.Binding{keys.Application.Help, keys.Application.Quit, keys.Application.ForceQuit}},
	}

	var b strings.Builder
	for i, g := range groups {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(theme.HelpGroupStyle.Render(g.name) + "\n")
		for _, binding := range g.bindings {
			b.WriteString(renderBinding(binding))
		}
	}

	b.WriteString("\n" + theme.HelpGroupStyle.Render("Indicators") + "\n")
	b.WriteString(renderShortcut("●", "mod is enabled"))
	b.WriteString(renderShortcut("○", "mod is disabled"))
	b.WriteString(renderShortcut("▌", "mod is selected"))
	b.WriteString(renderShortcut("⚠", "mod shares files with another mod"))
	b.WriteString(renderShortcut("▶", "drop position while reordering"))
	b.WriteString(renderShortcut("*", "load order has unapplied changes"))
	b.WriteString("\n" + theme.HelpDescStyle.Render("Mods further down the list win file conflicts.") + "\n")

	return b.String()
}

// renderShortcut renders a single shortcut line with key and description
func renderShortcut(key, description string) string {
	return theme.HelpKeyStyle.Render(key) + theme.HelpDescStyle.Render(description) + "\n"
}

// renderBinding renders a single shortcut line from a key binding
func renderBinding(binding key.Binding) string {
	help := binding.Help()
	return renderShortcut(help.Key, help.Desc)
}
