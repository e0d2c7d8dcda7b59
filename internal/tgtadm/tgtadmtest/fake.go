// Package tgtadmtest provides an in-memory tgtadm.Admin for tests.
package tgtadmtest

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/lxc/incus-os/iscsi-exportd/internal/tgtadm"
)

// Call records a single operation issued against the Fake.
type Call struct {
	Op  string
	TID int
	Arg string
}

var _ tgtadm.Admin = (*Fake)(nil)

type target struct {
	iqn        string
	lun        string
	initiators []string
}

// Fake is an in-memory target daemon. Missing targets fail with
// tgtadm.ExitCodeNoTarget the same way tgtd does.
type Fake struct {
	mu      sync.Mutex
	targets map[int]*target
	calls   []Call

	// Errors forces the named operation (for example "DeleteTarget") to fail.
	Errors map[string]error

	// Sticky keeps targets in place when DeleteTarget reports success.
	Sticky bool
}

// New returns an empty Fake.
func New() *Fake {
	return &Fake{
		targets: map[int]*target{},
		Errors:  map[string]error{},
	}
}

// ExecError returns the error tgtadm would produce for the given exit code.
func ExecError(code int) error {
	return &tgtadm.ExecutionError{
		ExitCode: code,
		Stderr:   "tgtadm: simulated failure",
		Err:      fmt.Errorf("exit status %d", code),
	}
}

// AddTarget seeds a target, optionally with a backing store on LUN 1.
func (f *Fake) AddTarget(tid int, iqn string, path string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.targets[tid] = &target{iqn: iqn, lun: path}
}

// Calls returns a copy of the recorded calls.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()

	return slices.Clone(f.calls)
}

// Count returns how many times the named operation was issued.
func (f *Fake) Count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0

	for _, call := range f.calls {
		if call.Op == op {
			n++
		}
	}

	return n
}

// Initiators returns the initiator addresses bound to a target.
func (f *Fake) Initiators(tid int) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	t, ok := f.targets[tid]
	if !ok {
		return nil
	}

	return slices.Clone(t.initiators)
}

func (f *Fake) record(op string, tid int, arg string) error {
	f.calls = append(f.calls, Call{Op: op, TID: tid, Arg: arg})

	return f.Errors[op]
}

func (f *Fake) lookup(tid int) (*target, error) {
	t, ok := f.targets[tid]
	if !ok {
		return nil, ExecError(tgtadm.ExitCodeNoTarget)
	}

	return t, nil
}

// CreateTarget implements tgtadm.Admin.
func (f *Fake) CreateTarget(_ context.Context, tid int, iqn string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := f.record("CreateTarget", tid, iqn)
	if err != nil {
		return err
	}

	_, exists := f.targets[tid]
	if exists {
		return ExecError(1)
	}

	f.targets[tid] = &target{iqn: iqn}

	return nil
}

// CreateLogicalUnit implements tgtadm.Admin.
func (f *Fake) CreateLogicalUnit(_ context.Context, tid int, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := f.record("CreateLogicalUnit", tid, path)
	if err != nil {
		return err
	}

	t, err := f.lookup(tid)
	if err != nil {
		return err
	}

	t.lun = path

	return nil
}

// BindInitiator implements tgtadm.Admin.
func (f *Fake) BindInitiator(_ context.Context, tid int, address string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := f.record("BindInitiator", tid, address)
	if err != nil {
		return err
	}

	t, err := f.lookup(tid)
	if err != nil {
		return err
	}

	t.initiators = append(t.initiators, address)

	return nil
}

// DeleteLogicalUnit implements tgtadm.Admin.
func (f *Fake) DeleteLogicalUnit(_ context.Context, tid int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := f.record("DeleteLogicalUnit", tid, "")
	if err != nil {
		return err
	}

	t, err := f.lookup(tid)
	if err != nil {
		return err
	}

	t.lun = ""

	return nil
}

// DeleteTarget implements tgtadm.Admin.
func (f *Fake) DeleteTarget(_ context.Context, tid int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := f.record("DeleteTarget", tid, "")
	if err != nil {
		return err
	}

	_, err = f.lookup(tid)
	if err != nil {
		return err
	}

	if !f.Sticky {
		delete(f.targets, tid)
	}

	return nil
}

// ShowTarget implements tgtadm.Admin.
func (f *Fake) ShowTarget(_ context.Context, tid int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := f.record("ShowTarget", tid, "")
	if err != nil {
		return "", err
	}

	t, err := f.lookup(tid)
	if err != nil {
		return "", err
	}

	var b strings.Builder

	render(&b, tid, t)

	return b.String(), nil
}

// ShowAll implements tgtadm.Admin.
func (f *Fake) ShowAll(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	err := f.record("ShowAll", 0, "")
	if err != nil {
		return "", err
	}

	var b strings.Builder

	for _, tid := range slices.Sorted(maps.Keys(f.targets)) {
		render(&b, tid, f.targets[tid])
	}

	return b.String(), nil
}

// render writes a target in the layout printed by "tgtadm --mode target --op show".
func render(b *strings.Builder, tid int, t *target) {
	b.WriteString("Target " + strconv.Itoa(tid) + ": " + t.iqn + "\n")
	b.WriteString("    System information:\n")
	b.WriteString("        Driver: iscsi\n")
	b.WriteString("        State: ready\n")
	b.WriteString("    I_T nexus information:\n")
	b.WriteString("    LUN information:\n")
	b.WriteString("        LUN: 0\n")
	b.WriteString("            Type: controller\n")
	b.WriteString("            Backing store type: null\n")
	b.WriteString("            Backing store path: None\n")
	b.WriteString("            Backing store flags: \n")

	if t.lun != "" {
		b.WriteString("        LUN: 1\n")
		b.WriteString("            Type: disk\n")
		b.WriteString("            Backing store type: rdwr\n")
		b.WriteString("            Backing store path: " + t.lun + "\n")
		b.WriteString("            Backing store flags: \n")
	}

	b.WriteString("    Account information:\n")
	b.WriteString("    ACL information:\n")

	for _, initiator := range t.initiators {
		b.WriteString("        " + initiator + "\n")
	}
}
