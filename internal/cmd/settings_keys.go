package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/renato0307/modshell/internal/config"
	"github.com/renato0307/modshell/internal/logging"
	"github.com/renato0307/modshell/internal/ui"
)

// SettingsKeysCmd manages keyboard shortcuts
type SettingsKeysCmd struct {
	List SettingsKeysListCmd `cmd:"list" help:"List all key bindings (defaults and custom)" default:"1"`
	Set  SettingsKeysSetCmd  `cmd:"set" help:"Set a key binding"`
}

// SettingsKeysListCmd lists all key bindings
type SettingsKeysListCmd struct {
	Format string `help:"Output format: table or json" enum:"table,json" default:"table"`
}

type keyBindingEntry struct {
	Custom  []string `json:"custom,omitempty"`
	Default []string `json:"default"`
	Group   string   `json:"group"`
	Help    string   `json:"help"`
}

// Run executes the list command
func (s *SettingsKeysListCmd) Run(cli *CLI) error {
	defaults := ui.GetDefaultKeyBindings()
	names := ui.GetValidKeyNames()

	var customKeys config.KeyBindingsConfig
	if cli.settings != nil {
		customKeys = cli.settings.Keys
	}

	if s.Format == "json" {
		result := make(map[string]keyBindingEntry, len(names))
		for _, name := range names {
			def := ui.GetKeyDefinition(name)
			result[name] = keyBindingEntry{
				Custom:  customKeys[name],
				Default: defaults[name],
				Group:   def.Group,
				Help:    def.Help,
			}
		}
		return printJSON(result)
	}

	fmt.Fprintf(output, "Key Bindings (settings file: %s)\n\n", cli.paths.Settings())

	w := tabwriter.NewWriter(output, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "Name\tDefault\tCustom")
	fmt.Fprintln(w, "────\t───────\t──────")
	for _, name := range names {
		customStr := "-"
		if custom := customKeys[name]; len(custom) > 0 {
			customStr = strings.Join(custom, ", ")
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", name, displayKeys(defaults[name]), customStr)
	}
	w.Flush()

	fmt.Fprintln(output)
	fmt.Fprintln(output, "Use 'modshell settings keys set <name> <value>' to customize.")
	return nil
}

// displayKeys names the space bar so it shows up in tables
func displayKeys(keys []string) string {
	shown := make([]string, len(keys))
	for i, k := range keys {
		if k == " " {
			k = "space"
		}
		shown[i] = k
	}
	return strings.Join(shown, ", ")
}

// SettingsKeysSetCmd sets a key binding
type SettingsKeysSetCmd struct {
	Key   string `arg:"" help:"Key name (e.g., apply, grab, quit)"`
	Value string `arg:"" help:"Key binding (e.g., a, ctrl+s, or comma-separated for multiple: up,k)"`
}

// Run executes the set command
func (s *SettingsKeysSetCmd) Run(cli *CLI) error {
	if !ui.IsValidKeyName(s.Key) {
		return fmt.Errorf("unknown key '%s'. Valid keys: %s",
			s.Key, strings.Join(ui.GetValidKeyNames(), ", "))
	}

	values := parseKeyValues(s.Value)
	if len(values) == 0 {
		return fmt.Errorf("value cannot be empty")
	}

	logging.Logger.Debug("Setting key binding", "key", s.Key, "values", values)

	path := cli.paths.Settings()
	settings, err := config.LoadSettings(path)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if settings.Keys == nil {
		settings.Keys = make(config.KeyBindingsConfig)
	}
	settings.Keys[s.Key] = values

	if err := settings.Keys.Validate(ui.GetValidKeyNames()); err != nil {
		return fmt.Errorf("conflict: %w", err)
	}

	if err := config.SaveSettings(path, settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	fmt.Fprintf(output, "Set '%s' to: %s\n", s.Key, strings.Join(values, ", "))
	return nil
}

// parseKeyValues parses comma-separated key values; "space" means the space bar
func parseKeyValues(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		switch {
		case trimmed == "space":
			result = append(result, " ")
		case trimmed != "":
			result = append(result, trimmed)
		}
	}
	return result
}
