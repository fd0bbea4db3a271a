package cmd

import (
	"context"
	"fmt"
)

// OpenCmd opens one of the folders modshell manages
type OpenCmd struct {
	Target string `arg:"" optional:"" default:"home" help:"home, mods, deploy, settings, or a mod hash/name"`
}

// Run executes the open command
func (o *OpenCmd) Run(cli *CLI) error {
	path, err := o.resolve(cli)
	if err != nil {
		return err
	}
	if err := cli.Container.Opener.Open(path); err != nil {
		return err
	}
	fmt.Fprintf(output, "Opened %s\n", path)
	return nil
}

func (o *OpenCmd) resolve(cli *CLI) (string, error) {
	switch o.Target {
	case "home", "settings":
		return cli.paths.Home, nil
	case "mods":
		return cli.paths.Mods(), nil
	case "deploy":
		profile, err := cli.Container.Store.CurrentProfile(context.Background())
		if err != nil {
			return "", err
		}
		return cli.paths.Deploy(profile), nil
	}

	session, err := openSession(context.Background(), cli)
	if err != nil {
		return "", err
	}
	hashes, err := resolveMods(session, []string{o.Target})
	if err != nil {
		return "", err
	}
	mod, _ := session.Mod(hashes[0])
	return mod.Path, nil
}
