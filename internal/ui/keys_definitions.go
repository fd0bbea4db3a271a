package ui

import (
	"sort"
	"sync"
)

// KeyDefinition defines the metadata for a configurable key binding.
// All key bindings are defined here as the single source of truth.
type KeyDefinition struct {
	Defaults []string
	Group    string
	Help     string
	Name     string
}

// Key groups, in the order the help screen shows them
const (
	groupNavigation  = "Navigation"
	groupMods        = "Mods"
	groupReorder     = "Reorder"
	groupApplication = "Application"
)

// AllKeyDefinitions contains all configurable key bindings
var AllKeyDefinitions = []KeyDefinition{
	// Application keys
	{Name: "force_quit", Group: groupApplication, Defaults: []string{"ctrl+c"}, Help: "force quit"},
	{Name: "help", Group: groupApplication, Defaults: []string{"?"}, Help: "show keyboard shortcuts"},
	{Name: "quit", Group: groupApplication, Defaults: []string{"q"}, Help: "exit application"},

	// Navigation keys
	{Name: "clear_selection", Group: groupNavigation, Defaults: []string{"esc"}, Help: "clear selection"},
	{Name: "down", Group: groupNavigation, Defaults: []string{"down", "j"}, Help: "next mod"},
	{Name: "select", Group: groupNavigation, Defaults: []string{" "}, Help: "add/remove mod from selection"},
	{Name: "up", Group: groupNavigation, Defaults: []string{"up", "k"}, Help: "previous mod"},

	// Mod keys
	{Name: "add", Group: groupMods, Defaults: []string{"a"}, Help: "add mod from file or folder"},
	{Name: "apply", Group: groupMods, Defaults: []string{"A"}, Help: "apply load order"},
	{Name: "cancel_changes", Group: groupMods, Defaults: []string{"u"}, Help: "discard unapplied changes"},
	{Name: "conflicts", Group: groupMods, Defaults: []string{"c"}, Help: "show file conflicts"},
	{Name: "open_folder", Group: groupMods, Defaults: []string{"O"}, Help: "open mod folder"},
	{Name: "options", Group: groupMods, Defaults: []string{"o"}, Help: "choose mod options"},
	{Name: "remove", Group: groupMods, Defaults: []string{"x"}, Help: "remove mod from load order"},
	{Name: "toggle", Group: groupMods, Defaults: []string{"e"}, Help: "enable/disable mod"},

	// Reorder keys
	{Name: "drop", Group: groupReorder, Defaults: []string{"enter"}, Help: "drop grabbed mods"},
	{Name: "grab", Group: groupReorder, Defaults: []string{"m"}, Help: "grab selected mods"},
	{Name: "move_down", Group: groupReorder, Defaults: []string{"J", "shift+down"}, Help: "move mods later in the load order"},
	{Name: "move_up", Group: groupReorder, Defaults: []string{"K", "shift+up"}, Help: "move mods earlier in the load order"},
}

var (
	defaultBindingsCache map[string][]string
	defaultBindingsOnce  sync.Once

	keyDefinitionsMap     map[string]KeyDefinition
	keyDefinitionsMapOnce sync.Once

	validKeyNames     []string
	validKeyNamesOnce sync.Once
)

// GetDefaultKeyBindings returns the default key bindings as a map
func GetDefaultKeyBindings() map[string][]string {
	defaultBindingsOnce.Do(func() {
		defaultBindingsCache = make(map[string][]string, len(AllKeyDefinitions))
		for _, def := range AllKeyDefinitions {
			defaultBindingsCache[def.Name] = def.Defaults
		}
	})
	return defaultBindingsCache
}

// GetKeyDefinition returns the definition for a key by name, or nil
func GetKeyDefinition(name string) *KeyDefinition {
	keyDefinitionsMapOnce.Do(func() {
		keyDefinitionsMap = make(map[string]KeyDefinition, len(AllKeyDefinitions))
		for _, def := range AllKeyDefinitions {
			keyDefinitionsMap[def.Name] = def
		}
	})
	if def, ok := keyDefinitionsMap[name]; ok {
		return &def
	}
	return nil
}

// GetValidKeyNames returns all valid key binding names in sorted order
func GetValidKeyNames() []string {
	validKeyNamesOnce.Do(func() {
		validKeyNames = make([]string, len(AllKeyDefinitions))
		for i, def := range AllKeyDefinitions {
			validKeyNames[i] = def.Name
		}
		sort.Strings(validKeyNames)
	})
	return validKeyNames
}

// IsValidKeyName checks if a name is a valid key binding name
func IsValidKeyName(name string) bool {
	return GetKeyDefinition(name) != nil
}
