// Package cli implements the iscsi-exportctl commands.
package cli

import (
	"net/http"

	"github.com/spf13/cobra"
)

// Args contains the configuration for a new CLI instance.
type Args struct {
	DefaultListFormat string
	DoHTTP            func(req *http.Request) (*http.Response, error)
}

// NewCommand returns the root command of the CLI.
func NewCommand(args *Args) *cobra.Command {
	cmd := cmdRoot{
		args: args,
	}

	return cmd.command()
}
