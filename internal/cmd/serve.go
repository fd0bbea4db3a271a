package cmd

import (
	"fmt"

	"github.com/renato0307/modshell/internal/logging"
	"github.com/renato0307/modshell/internal/server"
)

// ServeCmd serves the TUI over SSH, one independent session per connection
type ServeCmd struct {
	AuthorizedKeys  string `help:"authorized_keys file (default ~/.ssh/authorized_keys)" type:"path"`
	ErrorClearDelay int    `help:"Seconds before local error messages auto-clear (0 = never); backend failures stay until dismissed" default:"10"`
	Host            string `help:"Address to listen on (overrides settings ssh_host)"`
	Port            int    `help:"Port to listen on (overrides settings ssh_port)"`
}

// Run executes the serve command
func (s *ServeCmd) Run(cli *CLI) error {
	host, port := cli.settings.SSHAddress()
	if s.Host != "" {
		host = s.Host
	}
	if s.Port != 0 {
		port = s.Port
	}

	keysConfig, err := cli.keyBindings()
	if err != nil {
		return err
	}

	srv, err := server.NewServer(server.Options{
		AuthorizedKeysPath: s.AuthorizedKeys,
		ErrorClearDelay:    cli.errorClearDelay(s.ErrorClearDelay),
		Host:               host,
		HostKeyPath:        cli.paths.HostKey(),
		Keys:               keysConfig,
		Port:               port,
	}, cli.Container.NewSession)
	if err != nil {
		return err
	}

	fmt.Fprintf(output, "Listening on %s (ctrl+c to stop)\n", srv.Address())
	logging.Logger.Info("Serving over SSH", "address", srv.Address(), "profile", cli.Profile)
	return srv.Start()
}
