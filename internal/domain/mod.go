package domain

import (
	"fmt"
	"slices"
)

// Hash is the content-addressed identifier of a mod
type Hash string

// OptionGroupKind tells how many options of a group may be enabled at once
type OptionGroupKind string

const (
	OptionGroupExclusive OptionGroupKind = "exclusive"
	OptionGroupMultiple  OptionGroupKind = "multiple"
)

// ModOption is a single optional component of a mod.
// ID is the option's path inside the mod and is what gets enabled.
type ModOption struct {
	Description string   `json:"description" yaml:"description"`
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Requires    []string `json:"requires,omitempty" yaml:"requires,omitempty"`
}

// OptionGroup groups related options of a mod
type OptionGroup struct {
	Defaults    []string        `json:"defaults,omitempty" yaml:"defaults,omitempty"`
	Description string          `json:"description" yaml:"description"`
	Kind        OptionGroupKind `json:"kind" yaml:"kind"`
	Name        string          `json:"name" yaml:"name"`
	Options     []ModOption     `json:"options" yaml:"options"`
	Required    bool            `json:"required" yaml:"required"`
}

// Meta is the descriptive metadata of a mod
type Meta struct {
	Author       string        `json:"author" yaml:"author"`
	Category     string        `json:"category" yaml:"category"`
	Description  string        `json:"description" yaml:"description"`
	Name         string        `json:"name" yaml:"name"`
	OptionGroups []OptionGroup `json:"option_groups,omitempty" yaml:"option_groups,omitempty"`
	URL          *string       `json:"url,omitempty" yaml:"url,omitempty"`
	Version      string        `json:"version" yaml:"version"`
}

// Manifest lists the game files a mod touches
type Manifest struct {
	AOC     []string `json:"aoc" yaml:"aoc"`
	Content []string `json:"content" yaml:"content"`
}

// Len returns the total number of manifest entries
func (m Manifest) Len() int {
	return len(m.Content) + len(m.AOC)
}

// Mod is an installable game modification (domain entity).
// Hash is immutable; only Enabled and EnabledOptions change during a session.
type Mod struct {
	Enabled        bool     `json:"enabled"`
	EnabledOptions []string `json:"enabled_options"`
	Hash           Hash     `json:"hash"`
	Manifest       Manifest `json:"manifest"`
	Meta           Meta     `json:"meta"`
	Path           string   `json:"path"`
}

// Clone returns a deep copy of the mod
func (m Mod) Clone() Mod {
	c := m
	c.EnabledOptions = slices.Clone(m.EnabledOptions)
	c.Manifest = Manifest{
		AOC:     slices.Clone(m.Manifest.AOC),
		Content: slices.Clone(m.Manifest.Content),
	}
	c.Meta.OptionGroups = slices.Clone(m.Meta.OptionGroups)
	return c
}

// IsOptionEnabled reports whether the option with the given id is enabled
func (m Mod) IsOptionEnabled(id string) bool {
	return slices.Contains(m.EnabledOptions, id)
}

// DisplayName returns the name shown in lists, falling back to the hash
func (m Mod) DisplayName() string {
	if m.Meta.Name != "" {
		return m.Meta.Name
	}
	return string(m.Hash)
}

// ValidateOptions checks a set of option ids against the mod's option groups.
// Exclusive groups allow at most one enabled option and required groups need one.
func ValidateOptions(meta Meta, ids []string) error {
	known := make(map[string]string)
	for _, group := range meta.OptionGroups {
		for _, opt := range group.Options {
			known[opt.ID] = group.Name
		}
	}

	for _, id := range ids {
		if _, ok := known[id]; !ok {
			return fmt.Errorf("%w: unknown option %q", ErrInvalidOptions, id)
		}
	}

	for _, group := range meta.OptionGroups {
		enabled := 0
		for _, opt := range group.Options {
			if slices.Contains(ids, opt.ID) {
				enabled++
			}
		}
		if group.Kind == OptionGroupExclusive && enabled > 1 {
			return fmt.Errorf("%w: group %q allows only one option", ErrInvalidOptions, group.Name)
		}
		if group.Required && enabled == 0 {
			return fmt.Errorf("%w: group %q requires an option", ErrInvalidOptions, group.Name)
		}
	}

	return nil
}
