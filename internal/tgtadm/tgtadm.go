// Package tgtadm drives the tgtd iSCSI target daemon through its tgtadm
// administration tool.
package tgtadm

import (
	"context"
	"slices"
	"strconv"
	"time"

	"github.com/lxc/incus/v6/shared/subprocess"

	"github.com/lxc/incus-os/iscsi-exportd/internal/metrics"
)

// AllInitiators is the initiator address that opens a target to every initiator.
const AllInitiators = "ALL"

// LUN is the logical unit number used for the exported device. LUN 0 is the
// controller LUN tgtd creates with every target.
const LUN = 1

// Admin is the set of tgtd administrative operations. None of them is
// idempotent; callers interpret failures with Classify.
type Admin interface {
	CreateTarget(ctx context.Context, tid int, iqn string) error
	CreateLogicalUnit(ctx context.Context, tid int, path string) error
	BindInitiator(ctx context.Context, tid int, address string) error
	DeleteLogicalUnit(ctx context.Context, tid int) error
	DeleteTarget(ctx context.Context, tid int) error
	ShowTarget(ctx context.Context, tid int) (string, error)
	ShowAll(ctx context.Context) (string, error)
}

// RunFunc executes a command and returns its standard output and error.
type RunFunc func(ctx context.Context, name string, args ...string) (string, string, error)

// Tgtadm is an Admin backed by the tgtadm binary.
type Tgtadm struct {
	path       string
	rootHelper []string
	run        RunFunc
}

// New returns a Tgtadm running the binary at path, prefixed by the optional
// root helper command (for example "sudo").
func New(path string, rootHelper []string) *Tgtadm {
	if path == "" {
		path = "tgtadm"
	}

	return &Tgtadm{
		path:       path,
		rootHelper: rootHelper,
		run:        runSubprocess,
	}
}

// WithRunner returns a copy of the client using a custom command runner.
func (t *Tgtadm) WithRunner(run RunFunc) *Tgtadm {
	c := *t
	c.run = run

	return &c
}

func runSubprocess(ctx context.Context, name string, args ...string) (string, string, error) {
	return subprocess.RunCommandSplit(ctx, nil, nil, name, args...)
}

// CreateTarget creates a new target with the given ID and IQN.
func (t *Tgtadm) CreateTarget(ctx context.Context, tid int, iqn string) error {
	_, err := t.exec(ctx, "target", "new", "--tid", strconv.Itoa(tid), "--targetname", iqn)

	return err
}

// CreateLogicalUnit exposes path as LUN 1 of the target.
func (t *Tgtadm) CreateLogicalUnit(ctx context.Context, tid int, path string) error {
	_, err := t.exec(ctx, "logicalunit", "new", "--tid", strconv.Itoa(tid), "--lun", strconv.Itoa(LUN), "--backing-store", path)

	return err
}

// BindInitiator allows the initiator address (or AllInitiators) to log into the target.
func (t *Tgtadm) BindInitiator(ctx context.Context, tid int, address string) error {
	_, err := t.exec(ctx, "target", "bind", "--tid", strconv.Itoa(tid), "--initiator-address", address)

	return err
}

// DeleteLogicalUnit removes LUN 1 from the target.
func (t *Tgtadm) DeleteLogicalUnit(ctx context.Context, tid int) error {
	_, err := t.exec(ctx, "logicalunit", "delete", "--tid", strconv.Itoa(tid), "--lun", strconv.Itoa(LUN))

	return err
}

// DeleteTarget removes the target.
func (t *Tgtadm) DeleteTarget(ctx context.Context, tid int) error {
	_, err := t.exec(ctx, "target", "delete", "--tid", strconv.Itoa(tid))

	return err
}

// ShowTarget returns the status of a single target. A missing target fails
// with an ExecutionError carrying ExitCodeNoTarget.
func (t *Tgtadm) ShowTarget(ctx context.Context, tid int) (string, error) {
	return t.exec(ctx, "target", "show", "--tid", strconv.Itoa(tid))
}

// ShowAll returns the status of every target.
func (t *Tgtadm) ShowAll(ctx context.Context) (string, error) {
	return t.exec(ctx, "target", "show")
}

func (t *Tgtadm) exec(ctx context.Context, mode string, op string, extra ...string) (string, error) {
	args := []string{"--lld", "iscsi", "--mode", mode, "--op", op}
	args = append(args, extra...)

	name := t.path
	cmdArgs := args

	if len(t.rootHelper) > 0 {
		name = t.rootHelper[0]
		cmdArgs = slices.Concat(t.rootHelper[1:], []string{t.path}, args)
	}

	start := time.Now()
	stdout, stderr, err := t.run(ctx, name, cmdArgs...)

	if err != nil {
		execErr := newExecutionError(args, stdout, stderr, err)
		metrics.ObserveCommand(mode, op, Classify(execErr).String(), time.Since(start))

		return stdout, execErr
	}

	metrics.ObserveCommand(mode, op, ResultOK.String(), time.Since(start))

	return stdout, nil
}
