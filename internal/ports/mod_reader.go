package ports

import "github.com/renato0307/modshell/internal/domain"

// ModReader reads mod packages from disk
type ModReader interface {
	// Parse reads a mod directory or archive. Fails with domain.ErrMissingMeta
	// or domain.ErrInvalidArchive when the package is not in the native format.
	Parse(path string) (*domain.Mod, error)
	// Convert stages a foreign package as a native mod and returns the staged
	// path. meta overrides whatever metadata the package carries.
	Convert(path string, meta *domain.Meta) (string, error)
	// Install copies a parsed mod into dir and returns its new path
	Install(mod domain.Mod, dir string) (string, error)
	// Preview returns the mod's thumbnail image, or nil when it has none
	Preview(path string) ([]byte, error)
}
