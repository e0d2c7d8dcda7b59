package targets

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComposeIQN(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name       string
		prefix     string
		instance   string
		mountpoint string
		expected   string
	}{
		{
			name:       "Device path",
			prefix:     "iqn.test",
			instance:   "vm1",
			mountpoint: "/dev/vdb",
			expected:   "iqn.test:vm1-dev-vdb",
		},
		{
			name:       "Trailing separator",
			prefix:     "iqn.test",
			instance:   "vm1",
			mountpoint: "/dev/vdb/",
			expected:   "iqn.test:vm1-dev-vdb",
		},
		{
			name:       "Bare device name",
			prefix:     "iqn.2010-10.org.openstack.baremetal",
			instance:   "instance-00000001",
			mountpoint: "vdc",
			expected:   "iqn.2010-10.org.openstack.baremetal:instance-00000001-vdc",
		},
		{
			name:       "Repeated separators",
			prefix:     "iqn.test",
			instance:   "vm1",
			mountpoint: "//dev//vdb",
			expected:   "iqn.test:vm1-dev--vdb",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tc.expected, ComposeIQN(tc.prefix, tc.instance, tc.mountpoint), tc.name)
		})
	}
}

func TestComposeIQNUnique(t *testing.T) {
	t.Parallel()

	require.NotEqual(t, ComposeIQN("iqn.test", "vm1", "/dev/vdb"), ComposeIQN("iqn.test", "vm2", "/dev/vdb"))
	require.NotEqual(t, ComposeIQN("iqn.test", "vm1", "/dev/vdb"), ComposeIQN("iqn.test", "vm1", "/dev/vdc"))
}

func TestMountDevice(t *testing.T) {
	t.Parallel()

	require.Equal(t, "vdb", MountDevice("/dev/vdb"))
	require.Equal(t, "vdb", MountDevice("vdb"))
	require.Empty(t, MountDevice("/dev/"))
}
