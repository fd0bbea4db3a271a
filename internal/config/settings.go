package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// KeyBindingValue supports "a" or ["up", "k"] in JSON
type KeyBindingValue []string

// UnmarshalJSON implements custom unmarshaling for KeyBindingValue
func (kv *KeyBindingValue) UnmarshalJSON(data []byte) error {
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		*kv = arr
		return nil
	}

	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	if str != "" {
		*kv = []string{str}
	}
	return nil
}

// MarshalJSON implements custom marshaling for KeyBindingValue
func (kv KeyBindingValue) MarshalJSON() ([]byte, error) {
	if len(kv) == 1 {
		return json.Marshal(kv[0])
	}
	return json.Marshal([]string(kv))
}

// KeyBindingsConfig holds custom key binding overrides.
// Keys are binding names (e.g., "apply", "grab"), values are key sequences.
type KeyBindingsConfig map[string]KeyBindingValue

// Validate checks for unknown binding names, empty keys and keys bound twice.
// validNames should come from ui.GetValidKeyNames().
func (k KeyBindingsConfig) Validate(validNames []string) error {
	if k == nil {
		return nil
	}

	validSet := make(map[string]bool, len(validNames))
	for _, name := range validNames {
		validSet[name] = true
	}

	keyToAction := make(map[string]string)
	for name, keys := range k {
		if !validSet[name] {
			return fmt.Errorf("unknown key binding '%s'", name)
		}
		for _, key := range keys {
			if key == "" {
				return fmt.Errorf("key binding for '%s' contains empty value", name)
			}
			if existing, found := keyToAction[key]; found {
				return fmt.Errorf("key '%s' is assigned to both '%s' and '%s'", key, existing, name)
			}
			keyToAction[key] = name
		}
	}

	return nil
}

// Defaults applied when a setting is unset
const (
	DefaultErrorClearDelay = 10
	DefaultProfile         = "Default"
	DefaultSSHHost         = "localhost"
	DefaultSSHPort         = 23234
)

// Settings represents the structure of $MODSHELL_HOME/settings.json.
// Pointer fields distinguish "unset" from the zero value.
type Settings struct {
	Debug           *bool             `json:"debug,omitempty"`
	ErrorClearDelay *int              `json:"error_clear_delay,omitempty"`
	Keys            KeyBindingsConfig `json:"keys,omitempty"`
	MaxLogFiles     *int              `json:"max_log_files,omitempty"`
	Profile         *string           `json:"profile,omitempty"`
	SSHHost         *string           `json:"ssh_host,omitempty"`
	SSHPort         *int              `json:"ssh_port,omitempty"`
}

// ProfileOrDefault returns the configured profile or DefaultProfile
func (s *Settings) ProfileOrDefault() string {
	if s == nil || s.Profile == nil || *s.Profile == "" {
		return DefaultProfile
	}
	return *s.Profile
}

// ErrorClearDelayOrDefault returns the seconds an error stays on screen
func (s *Settings) ErrorClearDelayOrDefault() int {
	if s == nil || s.ErrorClearDelay == nil {
		return DefaultErrorClearDelay
	}
	return *s.ErrorClearDelay
}

// SSHAddress returns the host and port the SSH server listens on
func (s *Settings) SSHAddress() (string, int) {
	host, port := DefaultSSHHost, DefaultSSHPort
	if s != nil && s.SSHHost != nil && *s.SSHHost != "" {
		host = *s.SSHHost
	}
	if s != nil && s.SSHPort != nil {
		port = *s.SSHPort
	}
	return host, port
}

// LoadSettings loads settings from path.
// Returns empty Settings if the file doesn't exist.
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Settings{}, nil
		}
		return nil, fmt.Errorf("failed to read settings file: %w", err)
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("invalid settings.json: %w", err)
	}

	return &settings, nil
}

// SaveSettings writes settings to path
func SaveSettings(path string, settings *Settings) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create settings directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write settings file: %w", err)
	}

	return nil
}
