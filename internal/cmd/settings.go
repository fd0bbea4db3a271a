package cmd

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"text/tabwriter"

	"github.com/renato0307/modshell/internal/config"
)

// SettingsCmd manages settings
type SettingsCmd struct {
	Keys SettingsKeysCmd `cmd:"keys" help:"Manage keyboard shortcuts"`
	Meta SettingsMetaCmd `cmd:"meta" help:"Show settings file location and available options" default:"1"`
}

// SettingsMetaCmd displays settings metadata
type SettingsMetaCmd struct {
	Format string `help:"Output format: table or json" enum:"table,json" default:"table"`
}

// Run executes the meta command
func (s *SettingsMetaCmd) Run(cli *CLI) error {
	settingsFile := cli.paths.Settings()
	example := config.GetSettingsExample()

	if s.Format == "json" {
		return printJSON(map[string]any{
			"settings_file": settingsFile,
			"format":        example,
		})
	}

	fmt.Fprintf(output, "Settings file: %s\n\n", settingsFile)
	fmt.Fprintln(output, "Example settings.json:")
	fmt.Fprintln(output)

	w := tabwriter.NewWriter(output, 0, 0, 2, ' ', 0)
	for _, key := range slices.Sorted(maps.Keys(example)) {
		var valueStr string
		switch v := example[key].(type) {
		case string:
			valueStr = v
		case bool, int:
			valueStr = fmt.Sprintf("%v", v)
		default:
			data, _ := json.Marshal(v)
			valueStr = string(data)
		}
		fmt.Fprintf(w, "%s\t%s\n", key, valueStr)
	}
	w.Flush()

	fmt.Fprintln(output)
	fmt.Fprintln(output, "Create or edit this file to configure modshell.")
	fmt.Fprintln(output, "All settings are optional and have sensible defaults.")
	return nil
}
