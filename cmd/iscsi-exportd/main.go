// Package main is used for the iscsi-exportd daemon.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"

	"github.com/lxc/incus-os/iscsi-exportd/internal/config"
	"github.com/lxc/incus-os/iscsi-exportd/internal/exports"
	"github.com/lxc/incus-os/iscsi-exportd/internal/initiator"
	"github.com/lxc/incus-os/iscsi-exportd/internal/inventory"
	"github.com/lxc/incus-os/iscsi-exportd/internal/metrics"
	"github.com/lxc/incus-os/iscsi-exportd/internal/rest"
	"github.com/lxc/incus-os/iscsi-exportd/internal/scheduling"
	"github.com/lxc/incus-os/iscsi-exportd/internal/state"
	"github.com/lxc/incus-os/iscsi-exportd/internal/tgtadm"
	"github.com/lxc/incus-os/iscsi-exportd/internal/transport"
)

type cmdDaemon struct {
	flagConfig string
	flagDebug  bool
}

func main() {
	daemonCmd := cmdDaemon{}

	app := &cobra.Command{
		Use:               "iscsi-exportd",
		Short:             "iSCSI export manager for bare-metal volumes",
		Long:              "iSCSI export manager for bare-metal volumes\n\nExports volumes attached to this host as iSCSI targets so bare-metal\ninstances can boot from and use them.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		CompletionOptions: cobra.CompletionOptions{DisableDefaultCmd: true},
		Args:              cobra.NoArgs,
		RunE:              daemonCmd.run,
	}

	app.Flags().StringVarP(&daemonCmd.flagConfig, "config", "c", config.DefaultPath, "Path to the configuration file")
	app.Flags().BoolVarP(&daemonCmd.flagDebug, "debug", "d", false, "Show debug messages")

	err := app.Execute()
	if err != nil {
		// Sleep for a second to allow output buffers to flush.
		time.Sleep(1 * time.Second)

		os.Exit(1)
	}
}

func (c *cmdDaemon) run(_ *cobra.Command, _ []string) error {
	// Check privileges.
	if os.Getuid() != 0 {
		return errors.New("iscsi-exportd must be run as root")
	}

	// Prepare a logger.
	level := slog.LevelInfo
	if c.flagDebug {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), unix.SIGINT, unix.SIGTERM)
	defer cancel()

	err := c.serve(ctx)
	if err != nil {
		slog.ErrorContext(ctx, err.Error())

		return err
	}

	return nil
}

func (c *cmdDaemon) serve(ctx context.Context) error {
	// Load the configuration.
	cfg, err := config.Load(c.flagConfig)
	if err != nil {
		return err
	}

	if cfg.UseUnsafeISCSI {
		slog.WarnContext(ctx, "Unsafe iSCSI mode enabled, volumes of nodes without a provisioning address are exported to all initiators")
	}

	// Create storage path if missing.
	err = os.MkdirAll(filepath.Dir(cfg.StatePath), 0o700)
	if err != nil {
		return err
	}

	// Get persistent state.
	s, err := state.LoadOrCreate(cfg.StatePath)
	if err != nil {
		return err
	}

	nodes := inventory.NewStore(s)

	// Setup the export controller.
	dispatcher, err := transport.Load(cfg.VolumeDrivers)
	if err != nil {
		return err
	}

	admin := tgtadm.New(cfg.TgtadmPath, cfg.RootHelper)

	controller := exports.NewController(cfg.Exports(), admin, dispatcher, nodes, initiator.Discoverer{Path: initiator.DefaultPath})

	// Setup metrics.
	registry, err := metrics.NewRegistry(controller)
	if err != nil {
		return err
	}

	// Setup periodic jobs.
	scheduler, err := scheduling.NewScheduler()
	if err != nil {
		return err
	}

	if cfg.AuditSchedule != "" {
		err = scheduler.RegisterJob(scheduling.JobAudit, cfg.AuditSchedule, func(ctx context.Context) error {
			_, err := controller.Audit(ctx)

			return err
		})
		if err != nil {
			return fmt.Errorf("failed to register the audit job: %w", err)
		}
	}

	// Setup the REST API.
	server, err := rest.NewServer(ctx, cfg.SocketPath, controller, nodes, dispatcher.Types(), metrics.Handler(registry))
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Starting iscsi-exportd", "socket", cfg.SocketPath, "iqn_prefix", cfg.IQNPrefix, "drivers", dispatcher.Types())

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Serve(ctx)
	})

	g.Go(func() error {
		scheduler.Start()

		<-ctx.Done()

		return scheduler.Shutdown()
	})

	err = g.Wait()
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Stopped iscsi-exportd")

	return nil
}
