package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sys/unix"

	"github.com/lxc/incus-os/iscsi-exportd/api"
)

// Local exports block devices already attached to the host.
type Local struct {
	stat func(path string, st *unix.Stat_t) error
}

// NewLocal returns the local block device sub-driver.
func NewLocal() *Local {
	return &Local{stat: unix.Stat}
}

// ConnectVolume checks that the device path is a block device and returns it.
func (d *Local) ConnectVolume(_ context.Context, conn api.Connection, _ string) (string, error) {
	path := conn.Data.DevicePath
	if path == "" {
		return "", errors.New("missing device path")
	}

	var st unix.Stat_t

	err := d.stat(path, &st)
	if err != nil {
		return "", fmt.Errorf("failed to stat %q: %w", path, err)
	}

	if st.Mode&unix.S_IFMT != unix.S_IFBLK {
		return "", fmt.Errorf("%q isn't a block device", path)
	}

	return path, nil
}

// DisconnectVolume is a no-op, the device stays attached to the host.
func (*Local) DisconnectVolume(ctx context.Context, conn api.Connection, _ string) error {
	slog.DebugContext(ctx, "Leaving local block device in place", "device", conn.Data.DevicePath)

	return nil
}
