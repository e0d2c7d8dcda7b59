package util

import (
	"errors"
	"os/exec"
)

// ExitCode returns the exit code of a failed command, or -1 if the error didn't
// come from a process exiting.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}

	return -1
}
