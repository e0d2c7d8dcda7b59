// Package main is used for the iscsi-exportctl client.
package main

import (
	"context"
	"net"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/lxc/incus-os/iscsi-exportd/cli"
	"github.com/lxc/incus-os/iscsi-exportd/internal/config"
)

func main() {
	var flagSocket string

	client := &http.Client{
		Transport: &http.Transport{
			DialContext: func(ctx context.Context, _ string, _ string) (net.Conn, error) {
				d := net.Dialer{}

				return d.DialContext(ctx, "unix", flagSocket)
			},
		},
	}

	app := cli.NewCommand(&cli.Args{
		DefaultListFormat: "table",
		DoHTTP: func(req *http.Request) (*http.Response, error) {
			req.URL.Scheme = "http"
			req.URL.Host = "unix.socket"

			return client.Do(req)
		},
	})

	app.PersistentFlags().StringVar(&flagSocket, "socket", config.Default().SocketPath, "Path to the daemon socket``")

	// Help handling.
	app.SetHelpCommand(&cobra.Command{
		Use:    "no-help",
		Hidden: true,
	})

	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
