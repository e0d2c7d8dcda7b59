package state_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lxc/incus-os/iscsi-exportd/api"
	"github.com/lxc/incus-os/iscsi-exportd/internal/state"
)

var goldJSON = `{"version":1,"nodes":{"node-1":{"id":"node-1","instance_uuid":"7c8a2ab0-38b5-4f6c-9b0e-56c4b5d1b0a1","provisioning_address":"10.0.1.15"}}}`

// Test basic json decoding/encoding of state.
func TestJsonEncoding(t *testing.T) {
	t.Parallel()

	var s state.State

	err := json.Unmarshal([]byte(goldJSON), &s)
	require.NoError(t, err)

	content, err := json.Marshal(&s)
	require.NoError(t, err)

	require.JSONEq(t, goldJSON, string(content))
}

func TestLoadOrCreate(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json")

	// A missing file is created empty.
	s, err := state.LoadOrCreate(path)
	require.NoError(t, err)
	require.Empty(t, s.Nodes)
	require.FileExists(t, path)

	err = s.Update(func(s *state.State) error {
		s.Nodes["node-1"] = api.Node{ID: "node-1", InstanceUUID: "7c8a2ab0-38b5-4f6c-9b0e-56c4b5d1b0a1", ProvisioningAddress: "10.0.1.15"}

		return nil
	})
	require.NoError(t, err)

	// Reloading returns the saved nodes.
	s2, err := state.LoadOrCreate(path)
	require.NoError(t, err)
	require.Equal(t, s.Nodes, s2.Nodes)

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	require.JSONEq(t, goldJSON, string(body))
}

func TestLoadInvalid(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json")

	err := os.WriteFile(path, []byte(`{"version":99}`), 0o600)
	require.NoError(t, err)

	_, err = state.LoadOrCreate(path)
	require.ErrorContains(t, err, "unsupported version")

	err = os.WriteFile(path, []byte(`not json`), 0o600)
	require.NoError(t, err)

	_, err = state.LoadOrCreate(path)
	require.ErrorContains(t, err, "failed to parse")
}
