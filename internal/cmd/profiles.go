package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
)

// ProfilesCmd lists profiles, marking the current one
type ProfilesCmd struct {
	Format string `help:"Output format: table or json" enum:"table,json" default:"table"`
}

type profileEntry struct {
	Current bool   `json:"current"`
	Name    string `json:"name"`
}

// Run executes the profiles command
func (p *ProfilesCmd) Run(cli *CLI) error {
	session, err := openSession(context.Background(), cli)
	if err != nil {
		return err
	}

	current := session.CurrentProfile()
	profiles := session.Profiles()
	entries := make([]profileEntry, len(profiles))
	for i, name := range profiles {
		entries[i] = profileEntry{Current: name == current, Name: name}
	}

	if p.Format == "json" {
		return printJSON(entries)
	}

	w := tabwriter.NewWriter(output, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CURRENT\tNAME")
	for _, e := range entries {
		mark := ""
		if e.Current {
			mark = "*"
		}
		fmt.Fprintf(w, "%s\t%s\n", mark, e.Name)
	}
	w.Flush()

	fmt.Fprintln(output)
	fmt.Fprintln(output, "Use 'modshell --profile <name>' to switch or create a profile.")
	return nil
}
