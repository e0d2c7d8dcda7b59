package transport

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lxc/incus-os/iscsi-exportd/api"
)

func exitError(t *testing.T, code string) error {
	t.Helper()

	err := exec.Command("sh", "-c", "exit "+code).Run()
	require.Error(t, err)

	return err
}

func newTestISCSI(run func(args []string) error, exists func(string) bool) (*ISCSI, *[]string) {
	cmds := []string{}

	d := &ISCSI{
		run: func(_ context.Context, _ string, args ...string) (string, error) {
			cmds = append(cmds, strings.Join(args, " "))

			return "", run(args)
		},
		exists:   exists,
		attempts: 3,
		delay:    0,
	}

	return d, &cmds
}

var testConnection = api.Connection{
	DriverVolumeType: "iscsi",
	Data: api.ConnectionData{
		TargetPortal: "10.0.0.5:3260",
		TargetIQN:    "iqn.2010-10.org.openstack:volume-1",
		TargetLUN:    1,
	},
}

func TestISCSIConnect(t *testing.T) {
	t.Parallel()

	discoveries := 0

	d, cmds := newTestISCSI(func(args []string) error {
		if args[1] == "discovery" {
			discoveries++
			if discoveries < 2 {
				return errors.New("portal not ready")
			}
		}

		return nil
	}, func(string) bool { return true })

	path, err := d.ConnectVolume(context.Background(), testConnection, "vdb")
	require.NoError(t, err)
	require.Equal(t, "/dev/disk/by-path/ip-10.0.0.5:3260-iscsi-iqn.2010-10.org.openstack:volume-1-lun-1", path)
	require.Equal(t, []string{
		"-m discovery -t sendtargets -p 10.0.0.5:3260",
		"-m discovery -t sendtargets -p 10.0.0.5:3260",
		"-m node -T iqn.2010-10.org.openstack:volume-1 -p 10.0.0.5:3260 --login",
	}, *cmds)
}

func TestISCSIConnectExistingSession(t *testing.T) {
	t.Parallel()

	sessionExists := exitError(t, "15")

	d, _ := newTestISCSI(func(args []string) error {
		if args[len(args)-1] == "--login" {
			return sessionExists
		}

		return nil
	}, func(string) bool { return true })

	_, err := d.ConnectVolume(context.Background(), testConnection, "vdb")
	require.NoError(t, err)
}

func TestISCSIConnectMissingDevice(t *testing.T) {
	t.Parallel()

	d, _ := newTestISCSI(func([]string) error { return nil }, func(string) bool { return false })

	_, err := d.ConnectVolume(context.Background(), testConnection, "vdb")
	require.ErrorContains(t, err, "doesn't exist yet")
}

func TestISCSIConnectInvalid(t *testing.T) {
	t.Parallel()

	d, cmds := newTestISCSI(func([]string) error { return nil }, func(string) bool { return true })

	_, err := d.ConnectVolume(context.Background(), api.Connection{DriverVolumeType: "iscsi"}, "vdb")
	require.Error(t, err)
	require.Empty(t, *cmds)
}

func TestISCSIDisconnect(t *testing.T) {
	t.Parallel()

	noSession := exitError(t, "21")

	d, cmds := newTestISCSI(func(args []string) error {
		if args[len(args)-1] == "--logout" {
			return noSession
		}

		return nil
	}, func(string) bool { return true })

	err := d.DisconnectVolume(context.Background(), testConnection, "vdb")
	require.NoError(t, err)
	require.Equal(t, []string{
		"-m node -T iqn.2010-10.org.openstack:volume-1 -p 10.0.0.5:3260 --logout",
		"-m node -T iqn.2010-10.org.openstack:volume-1 -p 10.0.0.5:3260 -o delete",
	}, *cmds)

	failing, _ := newTestISCSI(func([]string) error { return errors.New("iscsiadm crashed") }, func(string) bool { return true })

	err = failing.DisconnectVolume(context.Background(), testConnection, "vdb")
	require.ErrorContains(t, err, "failed to log out")
}

func TestISCSIPortal(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		portal   string
		expected string
	}{
		{
			name:     "IPv4 with port",
			portal:   "10.0.0.5:3261",
			expected: "10.0.0.5:3261",
		},
		{
			name:     "IPv4 without port",
			portal:   "10.0.0.5",
			expected: "10.0.0.5:3260",
		},
		{
			name:     "IPv6 without port",
			portal:   "fd00::5",
			expected: "[fd00::5]:3260",
		},
		{
			name:     "Bracketed IPv6 without port",
			portal:   "[fd00::5]",
			expected: "[fd00::5]:3260",
		},
		{
			name:     "Bracketed IPv6 with port",
			portal:   "[fd00::5]:3262",
			expected: "[fd00::5]:3262",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := iscsiPortal(api.ConnectionData{TargetPortal: tc.portal, TargetIQN: "iqn.test:a"})
			require.NoError(t, err)
			require.Equal(t, tc.expected, got, tc.name)
		})
	}
}
