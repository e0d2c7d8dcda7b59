package tgtadm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lxc/incus-os/iscsi-exportd/internal/util"
)

// ExitCodeNoTarget is the exit code tgtadm returns when the requested target doesn't exist.
const ExitCodeNoTarget = 22

// ExecutionError is returned when a tgtadm invocation exits with a non-zero status.
type ExecutionError struct {
	Args     []string
	ExitCode int
	Stdout   string
	Stderr   string

	Err error
}

func (e *ExecutionError) Error() string {
	msg := strings.TrimSpace(e.Stderr)
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}

	return fmt.Sprintf("tgtadm %s failed with exit code %d: %s", strings.Join(e.Args, " "), e.ExitCode, msg)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// Result is the outcome of a tgtadm operation as seen by callers that tolerate
// missing resources.
type Result int

const (
	// ResultOK means the command succeeded.
	ResultOK Result = iota

	// ResultAbsent means the command failed because the target doesn't exist.
	ResultAbsent

	// ResultFailed means the command failed for any other reason.
	ResultFailed
)

func (r Result) String() string {
	switch r {
	case ResultOK:
		return "ok"
	case ResultAbsent:
		return "absent"
	default:
		return "failed"
	}
}

// Classify maps the error returned by an Admin call to a Result, using the
// process exit code rather than the message text.
func Classify(err error) Result {
	if err == nil {
		return ResultOK
	}

	var execErr *ExecutionError
	if errors.As(err, &execErr) && execErr.ExitCode == ExitCodeNoTarget {
		return ResultAbsent
	}

	return ResultFailed
}

func newExecutionError(args []string, stdout string, stderr string, err error) *ExecutionError {
	return &ExecutionError{
		Args:     args,
		ExitCode: util.ExitCode(err),
		Stdout:   stdout,
		Stderr:   stderr,
		Err:      err,
	}
}
