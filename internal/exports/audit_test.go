package exports

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lxc/incus-os/iscsi-exportd/api"
)

func TestAudit(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, admin, _ := newTestController(false, fakeNodes{address: "10.0.1.15"})
	admin.AddTarget(1, "iqn.test:vm1-dev-vdb", "/dev/sdb")
	admin.AddTarget(2, "iqn.test:vm2-dev-vdb", "/dev/sdc")
	admin.AddTarget(3, "iqn.test:vm3-dev-vdb", "")
	admin.AddTarget(4, "iqn.2003-01.org.example:foreign", "/dev/sdz")

	report, err := c.audit(ctx, func(path string) bool { return path == "/dev/sdb" })
	require.NoError(t, err)

	require.Equal(t, 4, report.Targets)
	require.Equal(t, 3, report.Managed)
	require.Equal(t, []api.Target{
		{ID: 2, IQN: "iqn.test:vm2-dev-vdb", BackingStore: "/dev/sdc"},
		{ID: 3, IQN: "iqn.test:vm3-dev-vdb"},
	}, report.MissingDevice)
}

func TestAuditStatusFailure(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	c, admin, _ := newTestController(false, fakeNodes{})
	admin.Errors["ShowAll"] = context.DeadlineExceeded

	_, err := c.Audit(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
