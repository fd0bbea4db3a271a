package config

import (
	"os"
	"path/filepath"
)

// EnvHome overrides the modshell home directory
const EnvHome = "MODSHELL_HOME"

// GetHome returns $MODSHELL_HOME or ~/.modshell
func GetHome() string {
	home := os.Getenv(EnvHome)
	if home == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return ".modshell"
		}
		return filepath.Join(homeDir, ".modshell")
	}
	return ExpandPath(home)
}

// Paths locates everything modshell keeps on disk under one home directory
type Paths struct {
	Home string
}

// NewPaths returns the paths rooted at home, or at GetHome when home is empty
func NewPaths(home string) Paths {
	if home == "" {
		home = GetHome()
	}
	return Paths{Home: ExpandPath(home)}
}

// DB returns the SQLite state database path
func (p Paths) DB() string {
	return filepath.Join(p.Home, "state.db")
}

// Mods returns the directory holding installed mods
func (p Paths) Mods() string {
	return filepath.Join(p.Home, "mods")
}

// Staging returns the directory converted mods are written to before install
func (p Paths) Staging() string {
	return filepath.Join(p.Home, "staging")
}

// Deploy returns the deploy directory of a profile
func (p Paths) Deploy(profile string) string {
	return filepath.Join(p.Home, "deploy", profile)
}

// Settings returns the settings.json path
func (p Paths) Settings() string {
	return filepath.Join(p.Home, "settings.json")
}

// Lock returns the lock file serializing apply across processes
func (p Paths) Lock() string {
	return filepath.Join(p.Home, ".lock")
}

// HostKey returns the SSH server host key path
func (p Paths) HostKey() string {
	return filepath.Join(p.Home, "ssh_host_ed25519")
}

// GetSettingsPath returns $MODSHELL_HOME/settings.json
func GetSettingsPath() string {
	return NewPaths("").Settings()
}

// ExpandPath expands ~ to home directory
func ExpandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		homeDir, err := os.UserHomeDir()
		if err == nil {
			if len(path) == 1 {
				return homeDir
			}
			return filepath.Join(homeDir, path[1:])
		}
	}
	return path
}
