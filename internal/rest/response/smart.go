package response

import (
	"errors"

	"github.com/lxc/incus-os/iscsi-exportd/internal/exports"
	"github.com/lxc/incus-os/iscsi-exportd/internal/inventory"
	"github.com/lxc/incus-os/iscsi-exportd/internal/transport"
)

// SmartError picks the response matching the kind of err. Target daemon
// failures and inconsistent exports are internal errors.
func SmartError(err error) Response {
	switch {
	case err == nil:
		return EmptySyncResponse
	case errors.Is(err, exports.ErrNoProvisioningAddress):
		return Forbidden(err)
	case errors.Is(err, inventory.ErrNodeNotFound):
		return NotFound(err)
	case errors.Is(err, transport.ErrDriverNotFound), errors.Is(err, inventory.ErrInvalidNode):
		return BadRequest(err)
	default:
		return InternalError(err)
	}
}
