package cli

import (
	"bufio"
	"fmt"
	"net/url"
	"os"
	"sort"

	"github.com/lxc/incus/v6/shared/ask"
	cli "github.com/lxc/incus/v6/shared/cmd"
	"github.com/spf13/cobra"

	"github.com/lxc/incus-os/iscsi-exportd/api"
)

type cmdNode struct {
	root *cmdRoot

	flagFormat  string
	flagAddress string
	flagForce   bool
}

func (c *cmdNode) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = cli.Usage("node")
	cmd.Short = "Manage the node inventory"
	cmd.Long = cli.FormatSection("Description", "Manage the node inventory")

	// List.
	listCmd := &cobra.Command{}
	listCmd.Use = cli.Usage("list")
	listCmd.Aliases = []string{"ls"}
	listCmd.Short = "List nodes"
	listCmd.Long = cli.FormatSection("Description", "List nodes")
	listCmd.Flags().StringVarP(&c.flagFormat, "format", "f", c.root.args.DefaultListFormat, "Format (csv|json|table|yaml|compact|markdown), use suffix \",noheader\" to disable headers and \",header\" to enable it if missing, e.g. csv,header``")
	listCmd.PreRunE = func(cmd *cobra.Command, _ []string) error {
		return cli.ValidateFlagFormatForListOutput(cmd.Flag("format").Value.String())
	}

	listCmd.RunE = c.runList
	cmd.AddCommand(listCmd)

	// Show.
	showCmd := &cobra.Command{}
	showCmd.Use = cli.Usage("show", "<node>")
	showCmd.Short = "Show node details"
	showCmd.Long = cli.FormatSection("Description", "Show node details")
	showCmd.RunE = c.runShow
	cmd.AddCommand(showCmd)

	// Set.
	setCmd := &cobra.Command{}
	setCmd.Use = cli.Usage("set", "<node> <instance-uuid>")
	setCmd.Short = "Record the instance running on a node"
	setCmd.Long = cli.FormatSection("Description", `Record the instance running on a node

Without a provisioning address, volumes of the instance can only be
attached when the daemon runs in unsafe mode.`)
	setCmd.Flags().StringVar(&c.flagAddress, "address", "", "Provisioning address of the node``")
	setCmd.RunE = c.runSet
	cmd.AddCommand(setCmd)

	// Delete.
	deleteCmd := &cobra.Command{}
	deleteCmd.Use = cli.Usage("delete", "<node>")
	deleteCmd.Aliases = []string{"rm"}
	deleteCmd.Short = "Remove a node"
	deleteCmd.Long = cli.FormatSection("Description", "Remove a node")
	deleteCmd.Flags().BoolVar(&c.flagForce, "force", false, "Don't ask for confirmation")
	deleteCmd.RunE = c.runDelete
	cmd.AddCommand(deleteCmd)

	// Workaround for subcommand usage errors. See: https://github.com/spf13/cobra/issues/706.
	cmd.Args = cobra.NoArgs
	cmd.Run = func(cmd *cobra.Command, _ []string) { _ = cmd.Usage() }

	return cmd
}

func (c *cmdNode) runList(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := cli.CheckArgs(cmd, args, 0, 0)
	if exit {
		return err
	}

	resp, err := doQuery(c.root.args.DoHTTP, "GET", "/1.0/nodes?recursion=1", nil, nil)
	if err != nil {
		return err
	}

	nodes := []api.Node{}

	err = resp.MetadataAsStruct(&nodes)
	if err != nil {
		return err
	}

	data := [][]string{}
	for _, node := range nodes {
		data = append(data, []string{node.ID, node.InstanceUUID, node.ProvisioningAddress})
	}

	sort.Sort(cli.SortColumnsNaturally(data))

	header := []string{
		"NAME",
		"INSTANCE",
		"ADDRESS",
	}

	return cli.RenderTable(os.Stdout, c.flagFormat, header, data, nodes)
}

func (c *cmdNode) runShow(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := cli.CheckArgs(cmd, args, 1, 1)
	if exit {
		return err
	}

	resp, err := doQuery(c.root.args.DoHTTP, "GET", "/1.0/nodes/"+url.PathEscape(args[0]), nil, nil)
	if err != nil {
		return err
	}

	return printYAML(os.Stdout, resp)
}

func (c *cmdNode) runSet(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := cli.CheckArgs(cmd, args, 2, 2)
	if exit {
		return err
	}

	req := api.NodePut{
		InstanceUUID:        args[1],
		ProvisioningAddress: c.flagAddress,
	}

	_, err = doQuery(c.root.args.DoHTTP, "PUT", "/1.0/nodes/"+url.PathEscape(args[0]), req, nil)

	return err
}

func (c *cmdNode) runDelete(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := cli.CheckArgs(cmd, args, 1, 1)
	if exit {
		return err
	}

	// Ask for confirmation if needed.
	if !c.flagForce {
		asker := ask.NewAsker(bufio.NewReader(os.Stdin))

		confirm, err := asker.AskBool(fmt.Sprintf("Are you sure you want to remove node %q? (yes/no) [default=no]: ", args[0]), "no")
		if err != nil {
			return err
		}

		if !confirm {
			return nil
		}
	}

	_, err = doQuery(c.root.args.DoHTTP, "DELETE", "/1.0/nodes/"+url.PathEscape(args[0]), nil, nil)

	return err
}
