package cmd

import (
	"context"
	"fmt"

	"github.com/renato0307/modshell/internal/domain"
	"github.com/renato0307/modshell/internal/logging"
)

// ApplyCmd re-applies the stored load order, rebuilding the deploy plan
type ApplyCmd struct{}

// Run executes the apply command
func (a *ApplyCmd) Run(cli *CLI) error {
	ctx := context.Background()
	session, err := openSession(ctx, cli)
	if err != nil {
		return err
	}

	session.OnProgress(func(record domain.LogRecord) {
		fmt.Fprintf(output, "%s\n", record.Message)
	})

	logging.Logger.Info("Re-applying stored load order", "profile", session.CurrentProfile())
	if err := session.Apply(ctx); err != nil {
		return err
	}

	fmt.Fprintf(output, "Deploy plan written to %s\n", cli.paths.Deploy(session.CurrentProfile()))
	return nil
}
