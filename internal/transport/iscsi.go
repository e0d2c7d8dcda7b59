package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/lxc/incus/v6/shared/subprocess"

	"github.com/lxc/incus-os/iscsi-exportd/api"
	"github.com/lxc/incus-os/iscsi-exportd/internal/util"
)

// iscsiadm exit codes.
const (
	iscsiadmErrSessionExists = 15
	iscsiadmErrNoObjects     = 21
)

// ISCSI logs into remote iSCSI targets with iscsiadm.
type ISCSI struct {
	run    func(ctx context.Context, name string, args ...string) (string, error)
	exists func(path string) bool

	attempts uint
	delay    time.Duration
}

// NewISCSI returns the iscsi sub-driver.
func NewISCSI() *ISCSI {
	return &ISCSI{
		run:      subprocess.RunCommandContext,
		exists:   pathExists,
		attempts: 10,
		delay:    500 * time.Millisecond,
	}
}

// ConnectVolume discovers and logs into the target, then waits for the
// by-path device node to show up.
func (d *ISCSI) ConnectVolume(ctx context.Context, conn api.Connection, _ string) (string, error) {
	portal, err := iscsiPortal(conn.Data)
	if err != nil {
		return "", err
	}

	// Discover the targets.
	err = d.retry(ctx, func() error {
		_, err := d.run(ctx, "iscsiadm", "-m", "discovery", "-t", "sendtargets", "-p", portal)

		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to discover targets on %s: %w", portal, err)
	}

	// Login to the target.
	_, err = d.run(ctx, "iscsiadm", "-m", "node", "-T", conn.Data.TargetIQN, "-p", portal, "--login")
	if err != nil && util.ExitCode(err) != iscsiadmErrSessionExists {
		return "", fmt.Errorf("failed to log into %s: %w", conn.Data.TargetIQN, err)
	}

	// Wait for the device.
	devicePath := iscsiDevicePath(portal, conn.Data.TargetIQN, conn.Data.TargetLUN)

	err = d.retry(ctx, func() error {
		if !d.exists(devicePath) {
			return fmt.Errorf("device %q doesn't exist yet", devicePath)
		}

		return nil
	})
	if err != nil {
		return "", err
	}

	slog.DebugContext(ctx, "Connected iSCSI volume", "iqn", conn.Data.TargetIQN, "portal", portal, "device", devicePath)

	return devicePath, nil
}

// DisconnectVolume logs out of the target and removes its node record.
func (d *ISCSI) DisconnectVolume(ctx context.Context, conn api.Connection, _ string) error {
	portal, err := iscsiPortal(conn.Data)
	if err != nil {
		return err
	}

	_, err = d.run(ctx, "iscsiadm", "-m", "node", "-T", conn.Data.TargetIQN, "-p", portal, "--logout")
	if err != nil && util.ExitCode(err) != iscsiadmErrNoObjects {
		return fmt.Errorf("failed to log out of %s: %w", conn.Data.TargetIQN, err)
	}

	_, err = d.run(ctx, "iscsiadm", "-m", "node", "-T", conn.Data.TargetIQN, "-p", portal, "-o", "delete")
	if err != nil && util.ExitCode(err) != iscsiadmErrNoObjects {
		return fmt.Errorf("failed to delete node record for %s: %w", conn.Data.TargetIQN, err)
	}

	return nil
}

func (d *ISCSI) retry(ctx context.Context, fn func() error) error {
	return retry.Do(fn,
		retry.Context(ctx),
		retry.Attempts(d.attempts),
		retry.Delay(d.delay),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
}

// iscsiPortal validates the connection data and returns the portal in
// address:port form, bracketing IPv6 addresses.
func iscsiPortal(data api.ConnectionData) (string, error) {
	if data.TargetPortal == "" {
		return "", errors.New("missing target portal")
	}

	if data.TargetIQN == "" {
		return "", errors.New("missing target IQN")
	}

	host, port, err := net.SplitHostPort(data.TargetPortal)
	if err != nil {
		host = strings.TrimSuffix(strings.TrimPrefix(data.TargetPortal, "["), "]")
		port = "3260"
	}

	return net.JoinHostPort(host, port), nil
}

func iscsiDevicePath(portal string, iqn string, lun int) string {
	return fmt.Sprintf("/dev/disk/by-path/ip-%s-iscsi-%s-lun-%d", portal, iqn, lun)
}

func pathExists(path string) bool {
	_, err := os.Stat(path)

	return err == nil
}
