package inventory

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lxc/incus-os/iscsi-exportd/api"
	"github.com/lxc/incus-os/iscsi-exportd/internal/state"
)

const (
	instance1 = "7c8a2ab0-38b5-4f6c-9b0e-56c4b5d1b0a1"
	instance2 = "0d2b7f3e-5a51-4a59-8a8e-4f1f3b8b9c22"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := state.LoadOrCreate(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, err)

	return NewStore(s)
}

func TestStoreLookups(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)

	err := st.PutNode(ctx, "node-1", api.NodePut{InstanceUUID: instance1, ProvisioningAddress: "10.0.1.15"})
	require.NoError(t, err)

	err = st.PutNode(ctx, "node-2", api.NodePut{InstanceUUID: instance2})
	require.NoError(t, err)

	node, err := st.GetNodeByInstanceUUID(ctx, instance1)
	require.NoError(t, err)
	require.Equal(t, "node-1", node.ID)

	addr, err := st.GetProvisioningAddress(ctx, node.ID)
	require.NoError(t, err)
	require.Equal(t, "10.0.1.15", addr)

	node, err = st.GetNodeByInstanceUUID(ctx, instance2)
	require.NoError(t, err)

	addr, err = st.GetProvisioningAddress(ctx, node.ID)
	require.NoError(t, err)
	require.Empty(t, addr)

	_, err = st.GetNodeByInstanceUUID(ctx, "00000000-0000-0000-0000-000000000000")
	require.ErrorIs(t, err, ErrNodeNotFound)

	nodes, err := st.ListNodes(ctx)
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	require.Equal(t, "node-1", nodes[0].ID)
}

func TestStoreValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)

	cases := []struct {
		name   string
		nodeID string
		req    api.NodePut
	}{
		{
			name:   "Missing ID",
			nodeID: "",
			req:    api.NodePut{InstanceUUID: instance1},
		},
		{
			name:   "Bad UUID",
			nodeID: "node-1",
			req:    api.NodePut{InstanceUUID: "instance-00000001"},
		},
		{
			name:   "Bad address",
			nodeID: "node-1",
			req:    api.NodePut{InstanceUUID: instance1, ProvisioningAddress: "10.0.1"},
		},
	}

	for _, tc := range cases {
		err := st.PutNode(ctx, tc.nodeID, tc.req)
		require.ErrorIs(t, err, ErrInvalidNode, tc.name)
	}

	// An instance can only run on one node.
	err := st.PutNode(ctx, "node-1", api.NodePut{InstanceUUID: instance1})
	require.NoError(t, err)

	err = st.PutNode(ctx, "node-2", api.NodePut{InstanceUUID: instance1})
	require.ErrorIs(t, err, ErrInvalidNode)
}

func TestStoreDelete(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	st := newTestStore(t)

	err := st.PutNode(ctx, "node-1", api.NodePut{InstanceUUID: instance1})
	require.NoError(t, err)

	err = st.DeleteNode(ctx, "node-1")
	require.NoError(t, err)

	err = st.DeleteNode(ctx, "node-1")
	require.ErrorIs(t, err, ErrNodeNotFound)

	_, err = st.GetNode(ctx, "node-1")
	require.ErrorIs(t, err, ErrNodeNotFound)
}
