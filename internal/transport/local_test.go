package transport

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/lxc/incus-os/iscsi-exportd/api"
)

func TestLocalConnect(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		path    string
		mode    uint32
		statErr error
		wantErr string
	}{
		{
			name: "Block device",
			path: "/dev/sdb",
			mode: unix.S_IFBLK | 0o660,
		},
		{
			name:    "Regular file",
			path:    "/var/lib/images/disk.img",
			mode:    unix.S_IFREG | 0o644,
			wantErr: "isn't a block device",
		},
		{
			name:    "Missing device",
			path:    "/dev/sdz",
			statErr: unix.ENOENT,
			wantErr: "failed to stat",
		},
		{
			name:    "No path",
			wantErr: "missing device path",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			d := &Local{stat: func(_ string, st *unix.Stat_t) error {
				if tc.statErr != nil {
					return tc.statErr
				}

				st.Mode = tc.mode

				return nil
			}}

			conn := api.Connection{DriverVolumeType: "local", Data: api.ConnectionData{DevicePath: tc.path}}

			path, err := d.ConnectVolume(context.Background(), conn, "vdb")
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)

				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.path, path)
		})
	}
}

func TestLocalDisconnect(t *testing.T) {
	t.Parallel()

	d := &Local{stat: func(string, *unix.Stat_t) error { return errors.New("unexpected stat") }}

	err := d.DisconnectVolume(context.Background(), api.Connection{Data: api.ConnectionData{DevicePath: "/dev/sdb"}}, "vdb")
	require.NoError(t, err)
}
