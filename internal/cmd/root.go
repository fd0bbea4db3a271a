package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/renato0307/modshell/internal/config"
	"github.com/renato0307/modshell/internal/logging"
	"github.com/renato0307/modshell/internal/ui"
)

// EnvProfile selects the profile when --profile is not given
const EnvProfile = "MODSHELL_PROFILE"

// CLI represents the command-line interface structure
type CLI struct {
	ShowVersion kong.VersionFlag `name:"version" help:"Show version information"`
	Debug       bool             `help:"Enable debug logging to file" short:"d"`
	DebugFile   string           `help:"Custom path for debug log file (disables automatic cleanup)"`
	Home        string           `help:"modshell home directory (overrides $MODSHELL_HOME)"`
	MaxLogFiles int              `help:"Maximum number of log files to keep (0 = unlimited)" default:"1000"`
	Profile     string           `help:"Profile to work on (overrides $MODSHELL_PROFILE)" short:"p"`

	Run      RunCmd      `cmd:"" help:"Start the modshell TUI (default)" default:"1"`
	Apply    ApplyCmd    `cmd:"apply" help:"Re-apply the stored load order of the current profile"`
	Mods     ModsCmd     `cmd:"mods" help:"Manage mods (list, enable, disable, move, add, remove, conflicts, options)"`
	Open     OpenCmd     `cmd:"open" help:"Open a modshell folder or a mod folder in the file manager"`
	Profiles ProfilesCmd `cmd:"profiles" help:"List profiles"`
	Serve    ServeCmd    `cmd:"serve" help:"Serve the TUI over SSH"`
	Settings SettingsCmd `cmd:"settings" help:"Manage settings (meta, keys)"`
	Version  VersionCmd  `cmd:"version" help:"Print version information"`

	// Internal fields (not flags)
	Container *Container       `kong:"-"`
	paths     config.Paths     `kong:"-"`
	settings  *config.Settings `kong:"-"`
}

// SetSettings sets the settings on the CLI struct
func (c *CLI) SetSettings(settings *config.Settings) {
	c.settings = settings
}

// AfterApply initializes logging after CLI parsing and applies settings
func (c *CLI) AfterApply() error {
	c.paths = config.NewPaths(c.Home)

	// settings.json lives under the home, which --home may have moved
	if c.Home != "" {
		settings, err := config.LoadSettings(c.paths.Settings())
		if err != nil {
			return err
		}
		c.settings = settings
	}

	// CLI flags > env vars > settings.json > defaults
	c.applySettings(os.LookupEnv)

	logFilePath, err := logging.Initialize(c.Debug, c.DebugFile, c.MaxLogFiles)
	if err != nil {
		return err
	}

	// SSH sessions and child processes share the same log file
	if c.Debug || c.DebugFile != "" {
		os.Setenv(logging.EnvDebug, "1")
		if logFilePath != "" {
			os.Setenv(logging.EnvDebugFile, logFilePath)
		}
	}
	if c.MaxLogFiles != logging.DefaultMaxLogFiles {
		os.Setenv(logging.EnvMaxLogFiles, fmt.Sprintf("%d", c.MaxLogFiles))
	}

	logging.Logger.Debug("CLI configured",
		"home", c.paths.Home,
		"profile", c.Profile,
		"max_log_files", c.MaxLogFiles)

	// The repository logs through logging.Logger, so it comes after Initialize
	container, err := NewContainer(c.paths, c.Profile)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	c.Container = container

	return nil
}

// applySettings fills flags left at their defaults from the environment and
// settings.json, in that order
func (c *CLI) applySettings(lookupEnv func(string) (string, bool)) {
	if c.Profile == "" {
		if env, hasEnv := lookupEnv(EnvProfile); hasEnv && env != "" {
			c.Profile = env
		} else if c.settings != nil && c.settings.Profile != nil {
			c.Profile = *c.settings.Profile
		}
	}

	if c.settings == nil {
		return
	}

	if c.MaxLogFiles == logging.DefaultMaxLogFiles {
		if _, hasEnv := lookupEnv(logging.EnvMaxLogFiles); !hasEnv {
			if c.settings.MaxLogFiles != nil {
				c.MaxLogFiles = *c.settings.MaxLogFiles
			}
		}
	}

	if !c.Debug {
		if _, hasEnv := lookupEnv(logging.EnvDebug); !hasEnv {
			if c.settings.Debug != nil && *c.settings.Debug {
				c.Debug = true
			}
		}
	}
}

// Close closes all resources held by the CLI
func (c *CLI) Close() error {
	if c.Container != nil {
		return c.Container.Close()
	}
	return nil
}

// keyBindings returns the validated key binding overrides from settings.json
func (c *CLI) keyBindings() (config.KeyBindingsConfig, error) {
	if c.settings == nil || c.settings.Keys == nil {
		return nil, nil
	}
	if err := c.settings.Keys.Validate(ui.GetValidKeyNames()); err != nil {
		return nil, fmt.Errorf("invalid key bindings in settings.json: %w", err)
	}
	logging.Logger.Debug("Custom key bindings loaded and validated")
	return c.settings.Keys, nil
}

// errorClearDelay resolves the error display time, flag first
func (c *CLI) errorClearDelay(flag int) time.Duration {
	seconds := flag
	if seconds == config.DefaultErrorClearDelay && c.settings != nil {
		seconds = c.settings.ErrorClearDelayOrDefault()
	}
	return time.Duration(seconds) * time.Second
}

// RunCmd starts the TUI application
type RunCmd struct {
	Dev             bool `help:"Enable development mode (shows version info in dialogs)"`
	ErrorClearDelay int  `help:"Seconds before local error messages auto-clear (0 = never); backend failures stay until dismissed" default:"10"`
}

// Run executes the TUI
func (r *RunCmd) Run(cli *CLI) error {
	logging.Logger.Info("Starting modshell TUI")

	keysConfig, err := cli.keyBindings()
	if err != nil {
		return err
	}

	model := ui.NewModel(
		cli.Container.NewSession(),
		keysConfig,
		cli.errorClearDelay(r.ErrorClearDelay),
		r.Dev,
	)
	model.SetOpener(cli.Container.Opener)
	defer model.Close()

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	logging.Logger.Info("Starting TUI program")
	if _, err := p.Run(); err != nil {
		logging.Logger.Error("TUI program error", "error", err)
		return fmt.Errorf("error running program: %w", err)
	}

	logging.Logger.Info("TUI program exited normally")
	return nil
}
