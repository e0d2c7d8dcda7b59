package util

import (
	"errors"
	"fmt"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExitCode(t *testing.T) {
	t.Parallel()

	require.Equal(t, 0, ExitCode(nil))
	require.Equal(t, -1, ExitCode(errors.New("not a process error")))

	err := exec.Command("sh", "-c", "exit 22").Run()
	require.Error(t, err)
	require.Equal(t, 22, ExitCode(err))
	require.Equal(t, 22, ExitCode(fmt.Errorf("wrapped: %w", err)))
}
