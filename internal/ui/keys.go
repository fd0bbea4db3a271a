package ui

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"

	"github.com/renato0307/modshell/internal/config"
)

// KeyMap contains all keyboard shortcuts organized by context
type KeyMap struct {
	Application ApplicationKeys
	Mods        ModKeys
	Navigation  NavigationKeys
	Reorder     ReorderKeys
}

// ApplicationKeys defines key bindings for application-level actions
type ApplicationKeys struct {
	ForceQuit key.Binding
	Help      key.Binding
	Quit      key.Binding
}

// NavigationKeys defines key bindings for moving around the mod list
type NavigationKeys struct {
	ClearSelection key.Binding
	Down           key.Binding
	Select         key.Binding
	Up             key.Binding
}

// ModKeys defines key bindings acting on mods and the load order
type ModKeys struct {
	Add           key.Binding
	Apply         key.Binding
	CancelChanges key.Binding
	Conflicts     key.Binding
	OpenFolder    key.Binding
	Options       key.Binding
	Remove        key.Binding
	Toggle        key.Binding
}

// ReorderKeys defines key bindings for grab/drop reordering
type ReorderKeys struct {
	Drop     key.Binding
	Grab     key.Binding
	MoveDown key.Binding
	MoveUp   key.Binding
}

// NewKeyMap creates a KeyMap, applying custom bindings over the defaults.
// Pass nil for keysConfig to use default bindings.
func NewKeyMap(keysConfig config.KeyBindingsConfig) KeyMap {
	b := func(name string) key.Binding {
		return buildBinding(name, GetDefaultKeyBindings(), keysConfig)
	}

	return KeyMap{
		Application: ApplicationKeys{
			ForceQuit: b("force_quit"),
			Help:      b("help"),
			Quit:      b("quit"),
		},
		Mods: ModKeys{
			Add:           b("add"),
			Apply:         b("apply"),
			CancelChanges: b("cancel_changes"),
			Conflicts:     b("conflicts"),
			OpenFolder:    b("open_folder"),
			Options:       b("options"),
			Remove:        b("remove"),
			Toggle:        b("toggle"),
		},
		Navigation: NavigationKeys{
			ClearSelection: b("clear_selection"),
			Down:           b("down"),
			Select:         b("select"),
			Up:             b("up"),
		},
		Reorder: ReorderKeys{
			Drop:     b("drop"),
			Grab:     b("grab"),
			MoveDown: b("move_down"),
			MoveUp:   b("move_up"),
		},
	}
}

// buildBinding creates a binding from the key definition, using custom keys if provided
func buildBinding(name string, defaults map[string][]string, customKeys config.KeyBindingsConfig) key.Binding {
	def := GetKeyDefinition(name)
	if def == nil {
		panic("unknown key definition: " + name)
	}

	keys := defaults[name]
	if custom, ok := customKeys[name]; ok && len(custom) > 0 {
		keys = custom
	}

	helpKeys := make([]string, len(keys))
	for i, k := range keys {
		if k == " " {
			k = "space"
		}
		helpKeys[i] = k
	}

	return key.NewBinding(
		key.WithKeys(keys...),
		key.WithHelp(strings.Join(helpKeys, "/"), def.Help),
	)
}

// ShortHelp returns the bindings shown in the bottom bar
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Navigation.Select,
		k.Reorder.Grab,
		k.Mods.Toggle,
		k.Mods.Apply,
		k.Mods.CancelChanges,
		k.Mods.Add,
		k.Application.Help,
		k.Application.Quit,
	}
}

// FullHelp returns all bindings grouped like the help screen
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Navigation.Up, k.Navigation.Down, k.Navigation.Select, k.Navigation.ClearSelection},
		{k.Mods.Toggle, k.Mods.Options, k.Mods.Conflicts, k.Mods.OpenFolder, k.Mods.Add, k.Mods.Remove, k.Mods.Apply, k.Mods.CancelChanges},
		{k.Reorder.Grab, k.Reorder.Drop, k.Reorder.MoveUp, k.Reorder.MoveDown},
		{k.Application.Help, k.Application.Quit, k.Application.ForceQuit},
	}
}
