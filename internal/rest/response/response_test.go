package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/lxc/incus/v6/shared/api"
	"github.com/stretchr/testify/require"

	"github.com/lxc/incus-os/iscsi-exportd/internal/exports"
	"github.com/lxc/incus-os/iscsi-exportd/internal/inventory"
	"github.com/lxc/incus-os/iscsi-exportd/internal/tgtadm"
	"github.com/lxc/incus-os/iscsi-exportd/internal/transport"
)

func TestSmartError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		err      error
		expected int
	}{
		{
			name:     "No error",
			expected: http.StatusOK,
		},
		{
			name:     "Policy",
			err:      &exports.PolicyError{InstanceUUID: "abc"},
			expected: http.StatusForbidden,
		},
		{
			name:     "Unknown node",
			err:      fmt.Errorf("lookup: %w", inventory.ErrNodeNotFound),
			expected: http.StatusNotFound,
		},
		{
			name:     "Unknown transport",
			err:      &transport.DriverNotFoundError{Type: "rbd"},
			expected: http.StatusBadRequest,
		},
		{
			name:     "Consistency",
			err:      &exports.ConsistencyError{TargetID: 3},
			expected: http.StatusInternalServerError,
		},
		{
			name:     "Execution",
			err:      &tgtadm.ExecutionError{ExitCode: 1, Err: errors.New("exit status 1")},
			expected: http.StatusInternalServerError,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := httptest.NewRecorder()

			err := SmartError(tc.err).Render(rec)
			require.NoError(t, err)
			require.Equal(t, tc.expected, rec.Code)

			resp := api.ResponseRaw{}
			err = json.NewDecoder(rec.Body).Decode(&resp)
			require.NoError(t, err)

			if tc.err != nil {
				require.Equal(t, tc.err.Error(), resp.Error)
				require.Equal(t, tc.expected, resp.Code)
			}
		})
	}
}

func TestSyncResponsePlain(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()

	err := SyncResponsePlain(true, false, "Target 1: iqn.test:vm1\n").Render(rec)
	require.NoError(t, err)
	require.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
	require.Equal(t, "Target 1: iqn.test:vm1\n", rec.Body.String())

	// Compressed.
	rec = httptest.NewRecorder()

	err = SyncResponsePlain(true, true, "Target 1: iqn.test:vm1\n").Render(rec)
	require.NoError(t, err)
	require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

	reader, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)

	content, err := io.ReadAll(reader)
	require.NoError(t, err)
	require.Equal(t, "Target 1: iqn.test:vm1\n", string(content))
}

func TestSyncResponseLocation(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()

	err := SyncResponseLocation(true, nil, "/1.0/nodes/node-1").Render(rec)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, rec.Code)
	require.Equal(t, "/1.0/nodes/node-1", rec.Header().Get("Location"))
}
