package tgtadm

import (
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/require"
)

type recordedCommand struct {
	name string
	args []string
}

func recordingClient(rootHelper []string, stdout string, err error) (*Tgtadm, *[]recordedCommand) {
	cmds := []recordedCommand{}

	client := New("tgtadm", rootHelper).WithRunner(func(_ context.Context, name string, args ...string) (string, string, error) {
		cmds = append(cmds, recordedCommand{name: name, args: args})

		if err != nil {
			return "", "tgtadm: can't find the target", err
		}

		return stdout, "", nil
	})

	return client, &cmds
}

func TestCommandLines(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		call     func(context.Context, *Tgtadm) error
		expected []string
	}{
		{
			name: "Create target",
			call: func(ctx context.Context, c *Tgtadm) error {
				return c.CreateTarget(ctx, 3, "iqn.test:vm1-dev-vdb")
			},
			expected: []string{"--lld", "iscsi", "--mode", "target", "--op", "new", "--tid", "3", "--targetname", "iqn.test:vm1-dev-vdb"},
		},
		{
			name: "Create logical unit",
			call: func(ctx context.Context, c *Tgtadm) error {
				return c.CreateLogicalUnit(ctx, 3, "/dev/sdb")
			},
			expected: []string{"--lld", "iscsi", "--mode", "logicalunit", "--op", "new", "--tid", "3", "--lun", "1", "--backing-store", "/dev/sdb"},
		},
		{
			name: "Bind initiator",
			call: func(ctx context.Context, c *Tgtadm) error {
				return c.BindInitiator(ctx, 3, AllInitiators)
			},
			expected: []string{"--lld", "iscsi", "--mode", "target", "--op", "bind", "--tid", "3", "--initiator-address", "ALL"},
		},
		{
			name: "Delete logical unit",
			call: func(ctx context.Context, c *Tgtadm) error {
				return c.DeleteLogicalUnit(ctx, 3)
			},
			expected: []string{"--lld", "iscsi", "--mode", "logicalunit", "--op", "delete", "--tid", "3", "--lun", "1"},
		},
		{
			name: "Delete target",
			call: func(ctx context.Context, c *Tgtadm) error {
				return c.DeleteTarget(ctx, 3)
			},
			expected: []string{"--lld", "iscsi", "--mode", "target", "--op", "delete", "--tid", "3"},
		},
		{
			name: "Show target",
			call: func(ctx context.Context, c *Tgtadm) error {
				_, err := c.ShowTarget(ctx, 3)

				return err
			},
			expected: []string{"--lld", "iscsi", "--mode", "target", "--op", "show", "--tid", "3"},
		},
		{
			name: "Show all",
			call: func(ctx context.Context, c *Tgtadm) error {
				_, err := c.ShowAll(ctx)

				return err
			},
			expected: []string{"--lld", "iscsi", "--mode", "target", "--op", "show"},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			client, cmds := recordingClient(nil, "", nil)

			err := tc.call(context.Background(), client)
			require.NoError(t, err)
			require.Len(t, *cmds, 1)
			require.Equal(t, "tgtadm", (*cmds)[0].name)
			require.Equal(t, tc.expected, (*cmds)[0].args)
		})
	}
}

func TestRootHelper(t *testing.T) {
	t.Parallel()

	client, cmds := recordingClient([]string{"sudo", "-n"}, "", nil)

	err := client.DeleteTarget(context.Background(), 7)
	require.NoError(t, err)
	require.Equal(t, "sudo", (*cmds)[0].name)
	require.Equal(t, []string{"-n", "tgtadm", "--lld", "iscsi", "--mode", "target", "--op", "delete", "--tid", "7"}, (*cmds)[0].args)
}

func TestShowAllOutput(t *testing.T) {
	t.Parallel()

	client, _ := recordingClient(nil, "Target 1: iqn.test:vm1-dev-vdb\n", nil)

	out, err := client.ShowAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Target 1: iqn.test:vm1-dev-vdb\n", out)
}

func TestExecutionError(t *testing.T) {
	t.Parallel()

	exitErr := exec.Command("sh", "-c", "exit 22").Run()
	require.Error(t, exitErr)

	client, _ := recordingClient(nil, "", exitErr)

	_, err := client.ShowTarget(context.Background(), 9)
	require.Error(t, err)

	var execErr *ExecutionError
	require.ErrorAs(t, err, &execErr)
	require.Equal(t, ExitCodeNoTarget, execErr.ExitCode)
	require.Equal(t, "tgtadm: can't find the target", execErr.Stderr)
	require.Contains(t, execErr.Error(), "--tid 9")
	require.Equal(t, ResultAbsent, Classify(err))
}

func TestClassify(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		err      error
		expected Result
	}{
		{
			name:     "Success",
			err:      nil,
			expected: ResultOK,
		},
		{
			name:     "Missing target",
			err:      &ExecutionError{ExitCode: ExitCodeNoTarget},
			expected: ResultAbsent,
		},
		{
			name:     "Other exit code",
			err:      &ExecutionError{ExitCode: 107},
			expected: ResultFailed,
		},
		{
			name:     "Not an execution error",
			err:      errors.New("context canceled"),
			expected: ResultFailed,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			require.Equal(t, tc.expected, Classify(tc.err), tc.name)
		})
	}
}
