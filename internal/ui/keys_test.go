package ui

import (
	"sort"
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/renato0307/modshell/internal/config"
)

func TestGetValidKeyNames(t *testing.T) {
	names := GetValidKeyNames()

	assert.True(t, sort.StringsAreSorted(names))
	assert.Contains(t, names, "apply")
	assert.Contains(t, names, "grab")
	assert.Len(t, names, len(AllKeyDefinitions))
}

func TestNewKeyMap_CustomBindings(t *testing.T) {
	keys := NewKeyMap(config.KeyBindingsConfig{"apply": {"ctrl+s"}})

	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyCtrlS}, keys.Mods.Apply))
	assert.False(t, key.Matches(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("A")}, keys.Mods.Apply))
	assert.Equal(t, "ctrl+s", keys.Mods.Apply.Help().Key)
	assert.True(t, key.Matches(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("m")}, keys.Reorder.Grab))
}

func TestNewKeyMap_SpaceHelpLabel(t *testing.T) {
	keys := NewKeyMap(nil)

	assert.Equal(t, "space", keys.Navigation.Select.Help().Key)
}

func TestSettingsValidationUsesKeyNames(t *testing.T) {
	require.NoError(t, config.KeyBindingsConfig{"grab": {"g"}}.Validate(GetValidKeyNames()))
	assert.Error(t, config.KeyBindingsConfig{"launch": {"l"}}.Validate(GetValidKeyNames()))
}
