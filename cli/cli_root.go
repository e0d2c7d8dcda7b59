package cli

import (
	cli "github.com/lxc/incus/v6/shared/cmd"
	"github.com/spf13/cobra"
)

type cmdRoot struct {
	args *Args
}

func (c *cmdRoot) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = "iscsi-exportctl"
	cmd.Short = "Manage iSCSI exports of bare-metal volumes"
	cmd.Long = cli.FormatSection("Description", `Manage iSCSI exports of bare-metal volumes

This tool talks to the local iscsi-exportd daemon to attach and detach
volumes, inspect the exported targets and manage the node inventory.`)
	cmd.SilenceUsage = true
	cmd.CompletionOptions = cobra.CompletionOptions{DisableDefaultCmd: true}

	// Volumes.
	connectorCmd := cmdConnector{root: c}
	cmd.AddCommand(connectorCmd.command())

	attachCmd := cmdVolume{root: c, action: "attach", description: "Attach a volume and export it to the instance's node"}
	cmd.AddCommand(attachCmd.command())

	detachCmd := cmdVolume{root: c, action: "detach", description: "Remove a volume export and detach the volume"}
	cmd.AddCommand(detachCmd.command())

	// Exports.
	exportCmd := cmdExport{root: c}
	cmd.AddCommand(exportCmd.command())

	blockDevicesCmd := cmdBlockDevices{root: c}
	cmd.AddCommand(blockDevicesCmd.command())

	// Nodes.
	nodeCmd := cmdNode{root: c}
	cmd.AddCommand(nodeCmd.command())

	// Debug.
	debugCmd := cmdDebug{root: c}
	cmd.AddCommand(debugCmd.command())

	// Workaround for subcommand usage errors. See: https://github.com/spf13/cobra/issues/706.
	cmd.Args = cobra.NoArgs
	cmd.Run = func(cmd *cobra.Command, _ []string) { _ = cmd.Usage() }

	return cmd
}
