package cmd

import (
	"context"
	"fmt"

	"github.com/renato0307/modshell/internal/adapters/backend"
	"github.com/renato0307/modshell/internal/adapters/modfile"
	"github.com/renato0307/modshell/internal/adapters/opener"
	"github.com/renato0307/modshell/internal/adapters/storage"
	"github.com/renato0307/modshell/internal/config"
	"github.com/renato0307/modshell/internal/logging"
	"github.com/renato0307/modshell/internal/services"
	"github.com/renato0307/modshell/internal/tasks"
)

// Container holds all dependencies for the application
type Container struct {
	Backend *backend.LocalBackend
	Opener  *opener.Opener
	Paths   config.Paths
	Reader  *modfile.Reader
	Store   *storage.SQLiteRepository
}

// NewContainer creates a new Container with all dependencies wired.
// A non-empty profile becomes the current profile.
func NewContainer(paths config.Paths, profile string) (*Container, error) {
	store, err := storage.NewSQLiteRepository(paths.DB())
	if err != nil {
		return nil, err
	}

	if profile != "" {
		if err := store.SetCurrentProfile(context.Background(), profile); err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to select profile %q: %w", profile, err)
		}
		logging.Logger.Info("Profile selected", "profile", profile)
	}

	reader := modfile.NewReader(paths.Staging())

	return &Container{
		Backend: backend.NewLocalBackend(store, reader, paths),
		Opener:  opener.NewOpener(""),
		Paths:   paths,
		Reader:  reader,
		Store:   store,
	}, nil
}

// NewSession creates an independent mod session over the local backend
func (c *Container) NewSession() *services.ModSessionService {
	return services.NewModSessionService(tasks.NewRunner(c.Backend))
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	if c.Store != nil {
		return c.Store.Close()
	}
	return nil
}
