package storage

import (
	"slices"

	"github.com/renato0307/modshell/internal/domain"
)

// modModelToDomain converts a ModModel (GORM) to domain.Mod.
// Enabled state lives in the profile, so the result is disabled.
func modModelToDomain(m ModModel) domain.Mod {
	return domain.Mod{
		Hash:     domain.Hash(m.Hash),
		Manifest: m.Manifest,
		Meta:     m.Meta,
		Path:     m.Path,
	}
}

// domainToModModel converts a domain.Mod to ModModel (GORM)
func domainToModModel(mod domain.Mod) ModModel {
	return ModModel{
		Author:   mod.Meta.Author,
		Category: mod.Meta.Category,
		Hash:     string(mod.Hash),
		Manifest: mod.Manifest,
		Meta:     mod.Meta,
		Name:     mod.Meta.Name,
		Path:     mod.Path,
		Version:  mod.Meta.Version,
	}
}

// profileEntryToDomain merges a load order entry with its installed mod
func profileEntryToDomain(entry ProfileModModel, m ModModel) domain.Mod {
	mod := modModelToDomain(m)
	mod.Enabled = entry.Enabled
	mod.EnabledOptions = slices.Clone(entry.EnabledOptions)
	return mod
}
