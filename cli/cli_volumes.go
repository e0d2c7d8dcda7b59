package cli

import (
	"errors"
	"net/url"
	"os"

	cli "github.com/lxc/incus/v6/shared/cmd"
	"github.com/spf13/cobra"

	"github.com/lxc/incus-os/iscsi-exportd/api"
)

// Connector.
type cmdConnector struct {
	root *cmdRoot
}

func (c *cmdConnector) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = cli.Usage("connector", "<instance-uuid>")
	cmd.Short = "Show the volume connector of this host"
	cmd.Long = cli.FormatSection("Description", "Show the volume connector of this host")
	cmd.RunE = c.run

	return cmd
}

func (c *cmdConnector) run(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := cli.CheckArgs(cmd, args, 1, 1)
	if exit {
		return err
	}

	resp, err := doQuery(c.root.args.DoHTTP, "GET", "/1.0/connector?instance="+url.QueryEscape(args[0]), nil, nil)
	if err != nil {
		return err
	}

	return printYAML(os.Stdout, resp)
}

// Attach and detach.
type cmdVolume struct {
	root *cmdRoot

	action      string
	description string

	flagType       string
	flagDevicePath string
	flagPortal     string
	flagIQN        string
	flagLUN        int
}

func (c *cmdVolume) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = cli.Usage(c.action, "[<instance-uuid> <instance-name> <mountpoint>]")
	cmd.Short = c.description
	cmd.Long = cli.FormatSection("Description", c.description+`

The volume is described either through flags or, when no argument is
given, by a YAML document on stdin.`)
	cmd.Example = cli.FormatSection("", `iscsi-exportctl `+c.action+` 7c8a2ab0-38b5-4f6c-9b0e-56c4b5d1b0a1 vm1 /dev/vdb --type local --device-path /dev/sdb
    `+c.description+` using a local block device.

iscsi-exportctl `+c.action+` < volume.yaml
    `+c.description+` using the content of volume.yaml.`)

	cmd.Flags().StringVar(&c.flagType, "type", "iscsi", "Volume transport (iscsi|local)``")
	cmd.Flags().StringVar(&c.flagDevicePath, "device-path", "", "Block device of a local volume``")
	cmd.Flags().StringVar(&c.flagPortal, "portal", "", "Portal of an iSCSI volume``")
	cmd.Flags().StringVar(&c.flagIQN, "iqn", "", "Target name of an iSCSI volume``")
	cmd.Flags().IntVar(&c.flagLUN, "lun", 0, "LUN of an iSCSI volume``")

	cmd.RunE = c.run

	return cmd
}

func (c *cmdVolume) run(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := cli.CheckArgs(cmd, args, 0, 3)
	if exit {
		return err
	}

	req := api.VolumePost{}

	switch len(args) {
	case 0:
		err = readYAML(&req)
		if err != nil {
			return err
		}

	case 3:
		req.Instance = api.Instance{UUID: args[0], Name: args[1]}
		req.Mountpoint = args[2]
		req.Connection = api.Connection{
			DriverVolumeType: c.flagType,
			Data: api.ConnectionData{
				TargetPortal: c.flagPortal,
				TargetIQN:    c.flagIQN,
				TargetLUN:    c.flagLUN,
				DevicePath:   c.flagDevicePath,
			},
		}

	default:
		_ = cmd.Usage()

		return errors.New("invalid number of arguments")
	}

	_, err = doQuery(c.root.args.DoHTTP, "POST", "/1.0/volumes/:"+c.action, req, nil)
	if err != nil {
		return err
	}

	return nil
}
