package exports

import (
	"errors"
	"fmt"
)

// ErrNoProvisioningAddress is returned when an instance has no fixed
// provisioning address and unsafe exports are disabled.
var ErrNoProvisioningAddress = errors.New("no fixed provisioning address")

// PolicyError is returned when attaching would require an export open to all initiators.
type PolicyError struct {
	InstanceUUID string
}

func (e *PolicyError) Error() string {
	return fmt.Sprintf("%s is associated to instance %s", ErrNoProvisioningAddress, e.InstanceUUID)
}

// Is makes errors.Is(err, ErrNoProvisioningAddress) hold.
func (*PolicyError) Is(target error) bool {
	return target == ErrNoProvisioningAddress
}

// ConsistencyError is returned when a target is still reported by the daemon
// after it was deleted.
type ConsistencyError struct {
	TargetID int

	// Err is the unexpected error of the existence check, if any.
	Err error
}

func (e *ConsistencyError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unable to delete target %d: %v", e.TargetID, e.Err)
	}

	return fmt.Sprintf("unable to delete target %d", e.TargetID)
}

func (e *ConsistencyError) Unwrap() error {
	return e.Err
}
