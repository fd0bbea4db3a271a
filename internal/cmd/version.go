package cmd

import (
	"fmt"

	"github.com/renato0307/modshell/version"
)

// VersionCmd prints version information
type VersionCmd struct{}

// Run executes the version command
func (v *VersionCmd) Run(cli *CLI) error {
	fmt.Fprintln(output, version.Info())
	return nil
}
