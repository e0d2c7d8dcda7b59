package cli

import (
	"os"
	"sort"
	"strconv"

	cli "github.com/lxc/incus/v6/shared/cmd"
	"github.com/spf13/cobra"

	"github.com/lxc/incus-os/iscsi-exportd/api"
)

type cmdExport struct {
	root *cmdRoot

	flagFormat string
}

func (c *cmdExport) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = cli.Usage("export")
	cmd.Short = "Inspect the exported targets"
	cmd.Long = cli.FormatSection("Description", "Inspect the exported targets")

	// List.
	listCmd := &cobra.Command{}
	listCmd.Use = cli.Usage("list")
	listCmd.Aliases = []string{"ls"}
	listCmd.Short = "List targets"
	listCmd.Long = cli.FormatSection("Description", "List targets")
	listCmd.Flags().StringVarP(&c.flagFormat, "format", "f", c.root.args.DefaultListFormat, "Format (csv|json|table|yaml|compact|markdown), use suffix \",noheader\" to disable headers and \",header\" to enable it if missing, e.g. csv,header``")
	listCmd.PreRunE = func(cmd *cobra.Command, _ []string) error {
		return cli.ValidateFlagFormatForListOutput(cmd.Flag("format").Value.String())
	}

	listCmd.RunE = c.runList
	cmd.AddCommand(listCmd)

	// Show.
	showCmd := &cobra.Command{}
	showCmd.Use = cli.Usage("show", "<tid>")
	showCmd.Short = "Show target details"
	showCmd.Long = cli.FormatSection("Description", "Show target details")
	showCmd.RunE = c.runShow
	cmd.AddCommand(showCmd)

	// Audit.
	auditCmd := &cobra.Command{}
	auditCmd.Use = cli.Usage("audit")
	auditCmd.Short = "Check the backing store of every export"
	auditCmd.Long = cli.FormatSection("Description", "Check the backing store of every export")
	auditCmd.RunE = c.runAudit
	cmd.AddCommand(auditCmd)

	// Workaround for subcommand usage errors. See: https://github.com/spf13/cobra/issues/706.
	cmd.Args = cobra.NoArgs
	cmd.Run = func(cmd *cobra.Command, _ []string) { _ = cmd.Usage() }

	return cmd
}

func (c *cmdExport) runList(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := cli.CheckArgs(cmd, args, 0, 0)
	if exit {
		return err
	}

	resp, err := doQuery(c.root.args.DoHTTP, "GET", "/1.0/exports?recursion=1", nil, nil)
	if err != nil {
		return err
	}

	targets := []api.Target{}

	err = resp.MetadataAsStruct(&targets)
	if err != nil {
		return err
	}

	data := [][]string{}
	for _, target := range targets {
		data = append(data, []string{strconv.Itoa(target.ID), target.IQN, target.BackingStore})
	}

	sort.Sort(cli.SortColumnsNaturally(data))

	header := []string{
		"TID",
		"IQN",
		"BACKING STORE",
	}

	return cli.RenderTable(os.Stdout, c.flagFormat, header, data, targets)
}

func (c *cmdExport) runShow(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := cli.CheckArgs(cmd, args, 1, 1)
	if exit {
		return err
	}

	resp, err := doQuery(c.root.args.DoHTTP, "GET", "/1.0/exports/"+args[0], nil, nil)
	if err != nil {
		return err
	}

	return printYAML(os.Stdout, resp)
}

func (c *cmdExport) runAudit(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := cli.CheckArgs(cmd, args, 0, 0)
	if exit {
		return err
	}

	resp, err := doQuery(c.root.args.DoHTTP, "POST", "/1.0/exports/:audit", nil, nil)
	if err != nil {
		return err
	}

	return printYAML(os.Stdout, resp)
}

// Block devices.
type cmdBlockDevices struct {
	root *cmdRoot
}

func (c *cmdBlockDevices) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = cli.Usage("block-devices")
	cmd.Short = "List the exported block devices"
	cmd.Long = cli.FormatSection("Description", "List the exported block devices")
	cmd.RunE = c.run

	return cmd
}

func (c *cmdBlockDevices) run(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := cli.CheckArgs(cmd, args, 0, 0)
	if exit {
		return err
	}

	resp, err := doQuery(c.root.args.DoHTTP, "GET", "/1.0/block-devices", nil, nil)
	if err != nil {
		return err
	}

	return printYAML(os.Stdout, resp)
}

// Debug.
type cmdDebug struct {
	root *cmdRoot
}

func (c *cmdDebug) command() *cobra.Command {
	cmd := &cobra.Command{}
	cmd.Use = cli.Usage("debug")
	cmd.Short = "Debug commands"
	cmd.Long = cli.FormatSection("Description", "Debug commands")

	tgtadmCmd := &cobra.Command{}
	tgtadmCmd.Use = cli.Usage("tgtadm")
	tgtadmCmd.Short = "Show the raw target daemon status"
	tgtadmCmd.Long = cli.FormatSection("Description", "Show the raw target daemon status")
	tgtadmCmd.RunE = c.runTgtadm
	cmd.AddCommand(tgtadmCmd)

	// Workaround for subcommand usage errors. See: https://github.com/spf13/cobra/issues/706.
	cmd.Args = cobra.NoArgs
	cmd.Run = func(cmd *cobra.Command, _ []string) { _ = cmd.Usage() }

	return cmd
}

func (c *cmdDebug) runTgtadm(cmd *cobra.Command, args []string) error {
	// Quick checks.
	exit, err := cli.CheckArgs(cmd, args, 0, 0)
	if exit {
		return err
	}

	_, err = doQuery(c.root.args.DoHTTP, "GET", "/1.0/debug/tgtadm", nil, os.Stdout)

	return err
}
