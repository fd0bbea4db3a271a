package ports

import (
	"context"

	"github.com/renato0307/modshell/internal/domain"
)

// ModCatalogReader reads installed mods
type ModCatalogReader interface {
	GetMod(ctx context.Context, hash domain.Hash) (*domain.Mod, error)
	ListMods(ctx context.Context) ([]domain.Mod, error)
}

// ModCatalogWriter registers and removes installed mods
type ModCatalogWriter interface {
	AddMod(ctx context.Context, mod domain.Mod) error
	DeleteMod(ctx context.Context, hash domain.Hash) error
}

// ProfileReader reads profiles and their load orders
type ProfileReader interface {
	CurrentProfile(ctx context.Context) (string, error)
	ListProfiles(ctx context.Context) ([]string, error)
	LoadProfile(ctx context.Context, profile string) ([]domain.Mod, error)
}

// ProfileWriter persists profiles and their load orders
type ProfileWriter interface {
	SaveProfile(ctx context.Context, profile string, mods []domain.Mod) error
	SetCurrentProfile(ctx context.Context, profile string) error
}

// ModStore is the composite interface
type ModStore interface {
	ModCatalogReader
	ModCatalogWriter
	ProfileReader
	ProfileWriter
	Close() error
}
