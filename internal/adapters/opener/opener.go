package opener

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/renato0307/modshell/internal/logging"
)

// EnvOpener names the program used to open folders
const EnvOpener = "MODSHELL_OPENER"

// Opener implements ports.FolderOpener
type Opener struct {
	command string
}

// NewOpener creates an opener.
// Priority: command → $MODSHELL_OPENER → platform file manager.
func NewOpener(command string) *Opener {
	return &Opener{command: command}
}

// Open opens path with the configured program without waiting for it
func (o *Opener) Open(path string) error {
	if path == "" {
		return fmt.Errorf("no path provided")
	}

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("path does not exist: %w", err)
	}

	program, args := o.find(path)
	if program == "" {
		return fmt.Errorf("no program found to open folders. Set $%s", EnvOpener)
	}

	logging.Logger.Info("Opening folder", "program", program, "path", path)

	cmd := exec.Command(program, args...)
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", program, err)
	}

	go func() {
		if err := cmd.Wait(); err != nil {
			logging.Logger.Warn("Opener exited with error", "error", err, "program", program)
		}
	}()

	return nil
}

func (o *Opener) find(path string) (string, []string) {
	if o.command != "" {
		return o.command, []string{path}
	}
	if program := os.Getenv(EnvOpener); program != "" {
		return program, []string{path}
	}
	return findPlatformOpener(path)
}
