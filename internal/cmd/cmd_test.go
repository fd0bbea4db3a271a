package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renato0307/modshell/internal/config"
	"github.com/renato0307/modshell/internal/domain"
	"github.com/renato0307/modshell/internal/logging"
)

func newTestCLI(t *testing.T, profile string) (*CLI, *bytes.Buffer) {
	t.Helper()
	paths := config.NewPaths(t.TempDir())
	container, err := NewContainer(paths, profile)
	require.NoError(t, err)

	cli := &CLI{Container: container, Profile: profile, paths: paths, settings: &config.Settings{}}
	t.Cleanup(func() { _ = cli.Close() })

	buf := &bytes.Buffer{}
	previous := output
	output = buf
	t.Cleanup(func() { output = previous })
	return cli, buf
}

// writeMod creates a native mod directory touching the given content files
func writeMod(t *testing.T, name string, content ...string) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), name)
	files := map[string]string{"meta.yml": "name: " + name + "\nversion: \"1.0\"\n"}
	for _, c := range content {
		files["content/"+c] = name
	}
	for rel, body := range files {
		p := filepath.Join(dir, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0644))
	}
	return dir
}

func listMods(t *testing.T, cli *CLI, buf *bytes.Buffer) []domain.Mod {
	t.Helper()
	buf.Reset()
	require.NoError(t, (&ModsListCmd{Format: "json"}).Run(cli))
	var mods []domain.Mod
	require.NoError(t, json.Unmarshal(buf.Bytes(), &mods))
	return mods
}

func names(mods []domain.Mod) []string {
	result := make([]string, len(mods))
	for i, m := range mods {
		result[i] = m.Meta.Name
	}
	return result
}

func TestApplySettings_Precedence(t *testing.T) {
	settingsProfile := "FromSettings"
	debug := true
	maxLogs := 5
	settings := &config.Settings{Debug: &debug, MaxLogFiles: &maxLogs, Profile: &settingsProfile}

	tests := []struct {
		name            string
		cli             CLI
		env             map[string]string
		expectedProfile string
		expectedDebug   bool
		expectedMaxLogs int
	}{
		{
			name:            "settings fill defaults",
			cli:             CLI{MaxLogFiles: logging.DefaultMaxLogFiles},
			expectedProfile: "FromSettings",
			expectedDebug:   true,
			expectedMaxLogs: 5,
		},
		{
			name:            "env beats settings",
			cli:             CLI{MaxLogFiles: logging.DefaultMaxLogFiles},
			env:             map[string]string{EnvProfile: "FromEnv", logging.EnvDebug: "0", logging.EnvMaxLogFiles: "7"},
			expectedProfile: "FromEnv",
			expectedDebug:   false,
			expectedMaxLogs: logging.DefaultMaxLogFiles,
		},
		{
			name:            "flags beat everything",
			cli:             CLI{MaxLogFiles: 2, Profile: "FromFlag"},
			env:             map[string]string{EnvProfile: "FromEnv"},
			expectedProfile: "FromFlag",
			expectedDebug:   true,
			expectedMaxLogs: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cli := tt.cli
			cli.SetSettings(settings)

			cli.applySettings(func(k string) (string, bool) {
				v, ok := tt.env[k]
				return v, ok
			})

			assert.Equal(t, tt.expectedProfile, cli.Profile)
			assert.Equal(t, tt.expectedDebug, cli.Debug)
			assert.Equal(t, tt.expectedMaxLogs, cli.MaxLogFiles)
		})
	}
}

func TestApplySettings_NoSettings(t *testing.T) {
	cli := CLI{MaxLogFiles: logging.DefaultMaxLogFiles}

	cli.applySettings(func(string) (string, bool) { return "", false })

	assert.Empty(t, cli.Profile)
	assert.False(t, cli.Debug)
	assert.Equal(t, logging.DefaultMaxLogFiles, cli.MaxLogFiles)
}

func TestModsWorkflow(t *testing.T) {
	cli, buf := newTestCLI(t, "")

	require.NoError(t, (&ModsAddCmd{Path: writeMod(t, "Low", "shared.pack", "low.pack"), Enable: true}).Run(cli))
	assert.Contains(t, buf.String(), "Added 'Low'")
	require.NoError(t, (&ModsAddCmd{Path: writeMod(t, "High", "shared.pack"), Enable: true}).Run(cli))

	mods := listMods(t, cli, buf)
	require.Equal(t, []string{"Low", "High"}, names(mods))
	assert.True(t, mods[0].Enabled)

	buf.Reset()
	require.NoError(t, (&ModsConflictsCmd{Format: "json"}).Run(cli))
	var conflicts []conflictEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &conflicts))
	require.Len(t, conflicts, 1)
	assert.Equal(t, domain.BaseFilesRoot+"shared.pack", conflicts[0].Path)
	assert.Equal(t, "High", conflicts[0].Winner)

	require.NoError(t, (&ModsMoveCmd{Positions: []int{1}, To: 0}).Run(cli))
	assert.Equal(t, []string{"High", "Low"}, names(listMods(t, cli, buf)))

	require.NoError(t, (&ModsDisableCmd{Mods: []string{"low"}}).Run(cli))
	mods = listMods(t, cli, buf)
	assert.False(t, mods[1].Enabled, "names match case-insensitively")

	buf.Reset()
	require.NoError(t, (&ModsDisableCmd{Mods: []string{"Low"}}).Run(cli))
	assert.Contains(t, buf.String(), "No changes to apply")

	require.NoError(t, (&ModsRemoveCmd{Mods: []string{"High"}}).Run(cli))
	assert.Equal(t, []string{"Low"}, names(listMods(t, cli, buf)))

	// Removed mods stay installed and can be added back
	require.NoError(t, (&ModsAddCmd{Path: writeMod(t, "High", "shared.pack")}).Run(cli))
	assert.Equal(t, []string{"Low", "High"}, names(listMods(t, cli, buf)))
}

func TestModsMove_RejectsInvalidPositions(t *testing.T) {
	cli, _ := newTestCLI(t, "")
	require.NoError(t, (&ModsAddCmd{Path: writeMod(t, "A", "a.pack")}).Run(cli))

	err := (&ModsMoveCmd{Positions: []int{3}, To: 0}).Run(cli)

	assert.ErrorContains(t, err, "invalid or repeated positions")
}

func TestModsEnable_UnknownMod(t *testing.T) {
	cli, _ := newTestCLI(t, "")

	err := (&ModsEnableCmd{Mods: []string{"ghost"}}).Run(cli)

	assert.ErrorContains(t, err, "mod 'ghost' not found")
}

func TestModsOptions_NoOptions(t *testing.T) {
	cli, buf := newTestCLI(t, "")
	require.NoError(t, (&ModsAddCmd{Path: writeMod(t, "Plain", "a.pack")}).Run(cli))
	buf.Reset()

	require.NoError(t, (&ModsOptionsCmd{Mod: "Plain"}).Run(cli))

	assert.Contains(t, buf.String(), "'Plain' has no options")
}

func TestProfiles_MarksCurrent(t *testing.T) {
	cli, buf := newTestCLI(t, "Hardcore")

	require.NoError(t, (&ProfilesCmd{Format: "json"}).Run(cli))

	var entries []profileEntry
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entries))
	assert.Contains(t, entries, profileEntry{Current: true, Name: "Hardcore"})
}

func TestApply_WritesDeployPlan(t *testing.T) {
	cli, buf := newTestCLI(t, "")
	require.NoError(t, (&ModsAddCmd{Path: writeMod(t, "A", "a.pack"), Enable: true}).Run(cli))
	buf.Reset()

	require.NoError(t, (&ApplyCmd{}).Run(cli))

	assert.Contains(t, buf.String(), "Deploy plan written to")
	assert.FileExists(t, filepath.Join(cli.paths.Deploy(config.DefaultProfile), "deploy.json"))
}

func TestOpen_ResolvesTargets(t *testing.T) {
	cli, _ := newTestCLI(t, "")
	require.NoError(t, (&ModsAddCmd{Path: writeMod(t, "A", "a.pack")}).Run(cli))

	path, err := (&OpenCmd{Target: "mods"}).resolve(cli)
	require.NoError(t, err)
	assert.Equal(t, cli.paths.Mods(), path)

	path, err = (&OpenCmd{Target: "deploy"}).resolve(cli)
	require.NoError(t, err)
	assert.Equal(t, cli.paths.Deploy(config.DefaultProfile), path)

	path, err = (&OpenCmd{Target: "A"}).resolve(cli)
	require.NoError(t, err)
	assert.DirExists(t, path)
}

func TestSettingsKeysSet(t *testing.T) {
	cli, buf := newTestCLI(t, "")

	require.NoError(t, (&SettingsKeysSetCmd{Key: "grab", Value: "g, space"}).Run(cli))
	assert.Contains(t, buf.String(), "Set 'grab'")

	settings, err := config.LoadSettings(cli.paths.Settings())
	require.NoError(t, err)
	assert.Equal(t, config.KeyBindingValue{"g", " "}, settings.Keys["grab"])

	assert.Error(t, (&SettingsKeysSetCmd{Key: "launch", Value: "l"}).Run(cli))
	assert.ErrorContains(t, (&SettingsKeysSetCmd{Key: "quit", Value: "g"}).Run(cli), "conflict")
}

func TestParseKeyValues(t *testing.T) {
	assert.Equal(t, []string{"up", "k"}, parseKeyValues(" up , k ,"))
	assert.Equal(t, []string{" "}, parseKeyValues("space"))
	assert.Empty(t, parseKeyValues(" , "))
}
