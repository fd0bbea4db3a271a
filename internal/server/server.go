package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/activeterm"
	"github.com/charmbracelet/wish/bubbletea"
	wishlogging "github.com/charmbracelet/wish/logging"

	"github.com/renato0307/modshell/internal/config"
	"github.com/renato0307/modshell/internal/logging"
	"github.com/renato0307/modshell/internal/services"
)

// shutdownTimeout bounds the graceful shutdown
const shutdownTimeout = 30 * time.Second

// SessionFactory creates an independent mod session for a new connection
type SessionFactory func() *services.ModSessionService

// Options configures the SSH server
type Options struct {
	AuthorizedKeysPath string // Defaults to ~/.ssh/authorized_keys
	ErrorClearDelay    time.Duration
	Host               string
	HostKeyPath        string
	Keys               config.KeyBindingsConfig
	Port               int
}

// Server serves the mod manager UI over SSH
type Server struct {
	address            string
	authorizedKeysPath string
	newSession         SessionFactory
	opts               Options
	wishServer         *ssh.Server
}

// NewServer creates a new SSH server instance
func NewServer(opts Options, newSession SessionFactory) (*Server, error) {
	if opts.AuthorizedKeysPath == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		opts.AuthorizedKeysPath = filepath.Join(homeDir, ".ssh", "authorized_keys")
	}
	if err := os.MkdirAll(filepath.Dir(opts.HostKeyPath), 0700); err != nil {
		return nil, fmt.Errorf("failed to create host key directory: %w", err)
	}

	s := &Server{
		address:            net.JoinHostPort(opts.Host, strconv.Itoa(opts.Port)),
		authorizedKeysPath: opts.AuthorizedKeysPath,
		newSession:         newSession,
		opts:               opts,
	}

	// Middleware executes in reverse order (last to first)
	wishServer, err := wish.NewServer(
		wish.WithAddress(s.address),
		wish.WithHostKeyPath(opts.HostKeyPath),
		wish.WithPublicKeyAuth(s.publicKeyHandler),
		wish.WithMiddleware(
			bubbletea.Middleware(s.teaHandler),
			activeterm.Middleware(),
			wishlogging.Middleware(),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create SSH server: %w", err)
	}

	s.wishServer = wishServer
	return s, nil
}

// Address returns the host:port the server listens on
func (s *Server) Address() string {
	return s.address
}

// Start runs the server until SIGINT or SIGTERM, then shuts it down gracefully
func (s *Server) Start() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return s.Serve(ctx)
}

// Serve runs the server until ctx is done
func (s *Server) Serve(ctx context.Context) error {
	logging.Logger.Info("Starting SSH server", "address", s.address)

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.wishServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, ssh.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("SSH server error: %w", err)
	case <-ctx.Done():
	}

	logging.Logger.Info("Shutting down SSH server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.wishServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, ssh.ErrServerClosed) {
		return fmt.Errorf("failed to shutdown SSH server: %w", err)
	}

	logging.Logger.Info("SSH server stopped")
	return nil
}
