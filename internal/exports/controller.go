// Package exports exposes volumes attached to this host as iSCSI targets for
// bare-metal instances.
package exports

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lxc/incus-os/iscsi-exportd/api"
	"github.com/lxc/incus-os/iscsi-exportd/internal/metrics"
	"github.com/lxc/incus-os/iscsi-exportd/internal/targets"
	"github.com/lxc/incus-os/iscsi-exportd/internal/tgtadm"
	"github.com/lxc/incus-os/iscsi-exportd/internal/transport"
)

// Config holds the controller settings.
type Config struct {
	// UnsafeISCSI exports volumes to every initiator when an instance has no
	// fixed provisioning address. Only meant for dev/test environments.
	UnsafeISCSI bool

	IQNPrefix string

	// MyIP and Host are reported in the volume connector.
	MyIP string
	Host string

	// SerializeAllocation holds a lock from target ID allocation until the
	// target exists. It only covers this process.
	SerializeAllocation bool
}

// NodeLookup resolves instances to nodes and their provisioning addresses.
type NodeLookup interface {
	GetNodeByInstanceUUID(ctx context.Context, instanceUUID string) (*api.Node, error)
	GetProvisioningAddress(ctx context.Context, nodeID string) (string, error)
}

// InitiatorDiscoverer returns the host's iSCSI initiator name.
type InitiatorDiscoverer interface {
	Discover(ctx context.Context) (string, error)
}

// Controller creates and removes the iSCSI exports of attached volumes.
type Controller struct {
	config    Config
	admin     tgtadm.Admin
	volumes   transport.Driver
	nodes     NodeLookup
	initiator InitiatorDiscoverer

	allocMu sync.Mutex

	initiatorMu   sync.Mutex
	initiatorName string
}

// NewController returns a Controller.
func NewController(config Config, admin tgtadm.Admin, volumes transport.Driver, nodes NodeLookup, initiator InitiatorDiscoverer) *Controller {
	return &Controller{
		config:    config,
		admin:     admin,
		volumes:   volumes,
		nodes:     nodes,
		initiator: initiator,
	}
}

// GetVolumeConnector describes this host to the volume service.
func (c *Controller) GetVolumeConnector(ctx context.Context, instance api.Instance) api.VolumeConnector {
	c.initiatorMu.Lock()
	defer c.initiatorMu.Unlock()

	if c.initiatorName == "" {
		name, err := c.initiator.Discover(ctx)
		if err != nil {
			slog.WarnContext(ctx, "Could not determine iSCSI initiator name", "instance", instance.UUID, "err", err)
		}

		c.initiatorName = name
	}

	return api.VolumeConnector{
		IP:        c.config.MyIP,
		Initiator: c.initiatorName,
		Host:      c.config.Host,
	}
}

// AttachVolume connects the volume to this host and exports it to the
// instance's node. A failure after the volume was connected leaves it
// connected; a later detach cleans it up.
func (c *Controller) AttachVolume(ctx context.Context, conn api.Connection, instance api.Instance, mountpoint string) (err error) {
	defer func() { metrics.ObserveVolumeOperation("attach", err) }()

	// Determine who may log into the export.
	node, err := c.nodes.GetNodeByInstanceUUID(ctx, instance.UUID)
	if err != nil {
		return err
	}

	address, err := c.nodes.GetProvisioningAddress(ctx, node.ID)
	if err != nil {
		return err
	}

	if address == "" && !c.config.UnsafeISCSI {
		return &PolicyError{InstanceUUID: instance.UUID}
	}

	// Connect the volume to this host.
	devicePath, err := c.volumes.ConnectVolume(ctx, conn, targets.MountDevice(mountpoint))
	if err != nil {
		return err
	}

	// Create the export.
	iqn := targets.ComposeIQN(c.config.IQNPrefix, instance.Name, mountpoint)

	tid, err := c.createExport(ctx, iqn, devicePath)
	if err != nil {
		return err
	}

	// Restrict access.
	if address == "" {
		// The initiator address of the instance is unknown, any initiator may
		// connect to the volume, including other instances.
		slog.WarnContext(ctx, "Exporting volume to all initiators", "instance", instance.UUID, "tid", tid, "iqn", iqn)

		address = tgtadm.AllInitiators
	}

	err = c.admin.BindInitiator(ctx, tid, address)
	if err != nil {
		return fmt.Errorf("failed to bind target %d to %s: %w", tid, address, err)
	}

	slog.InfoContext(ctx, "Exported volume", "instance", instance.UUID, "tid", tid, "iqn", iqn, "device", devicePath, "initiator", address)

	return nil
}

func (c *Controller) createExport(ctx context.Context, iqn string, devicePath string) (int, error) {
	if c.config.SerializeAllocation {
		c.allocMu.Lock()
		defer c.allocMu.Unlock()
	}

	tid, err := targets.NextID(ctx, c.admin)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate target ID: %w", err)
	}

	err = c.admin.CreateTarget(ctx, tid, iqn)
	if err != nil {
		return 0, fmt.Errorf("failed to create target %d: %w", tid, err)
	}

	err = c.admin.CreateLogicalUnit(ctx, tid, devicePath)
	if err != nil {
		return 0, fmt.Errorf("failed to add %q to target %d: %w", devicePath, tid, err)
	}

	return tid, nil
}

// DetachVolume removes the instance's export of the volume, then disconnects
// the volume from this host. The disconnect is attempted once on every path,
// including when the export couldn't be removed.
func (c *Controller) DetachVolume(ctx context.Context, conn api.Connection, instance api.Instance, mountpoint string) (err error) {
	defer func() { metrics.ObserveVolumeOperation("detach", err) }()

	mountDevice := targets.MountDevice(mountpoint)

	defer func() {
		disconnectErr := c.volumes.DisconnectVolume(ctx, conn, mountDevice)
		if disconnectErr != nil {
			err = errors.Join(err, disconnectErr)
		}
	}()

	iqn := targets.ComposeIQN(c.config.IQNPrefix, instance.Name, mountpoint)

	tid, found, err := targets.FindID(ctx, c.admin, iqn)
	if err != nil {
		return fmt.Errorf("failed to look up target %q: %w", iqn, err)
	}

	if !found {
		slog.WarnContext(ctx, "Detach volume could not find target", "instance", instance.UUID, "iqn", iqn)

		return nil
	}

	err = c.deleteExport(ctx, tid)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Removed volume export", "instance", instance.UUID, "tid", tid, "iqn", iqn)

	return nil
}

// deleteExport removes the logical unit and the target. Failures of either
// step are tolerated, the final existence check decides the outcome.
func (c *Controller) deleteExport(ctx context.Context, tid int) error {
	c.absorb(ctx, "logical unit", tid, c.admin.DeleteLogicalUnit(ctx, tid))
	c.absorb(ctx, "target", tid, c.admin.DeleteTarget(ctx, tid))

	_, err := c.admin.ShowTarget(ctx, tid)

	switch tgtadm.Classify(err) {
	case tgtadm.ResultAbsent:
		return nil
	case tgtadm.ResultOK:
		return &ConsistencyError{TargetID: tid}
	default:
		return &ConsistencyError{TargetID: tid, Err: err}
	}
}

func (*Controller) absorb(ctx context.Context, resource string, tid int, err error) {
	switch tgtadm.Classify(err) {
	case tgtadm.ResultOK:
	case tgtadm.ResultAbsent:
		slog.DebugContext(ctx, "Export resource already absent", "resource", resource, "tid", tid)
	default:
		slog.WarnContext(ctx, "Failed to delete export resource", "resource", resource, "tid", tid, "err", err)
	}
}

// ListBlockDevices returns every block device currently exported.
func (c *Controller) ListBlockDevices(ctx context.Context) ([]string, error) {
	return targets.ListBackingStores(ctx, c.admin)
}

// ListTargets returns every target reported by the daemon.
func (c *Controller) ListTargets(ctx context.Context) ([]api.Target, error) {
	return targets.List(ctx, c.admin)
}

// GetTarget returns a single target. The boolean is false if it doesn't exist.
func (c *Controller) GetTarget(ctx context.Context, tid int) (*api.Target, bool, error) {
	list, err := c.ListTargets(ctx)
	if err != nil {
		return nil, false, err
	}

	for _, target := range list {
		if target.ID == tid {
			return &target, true, nil
		}
	}

	return nil, false, nil
}

// RawStatus returns the daemon's status dump unparsed.
func (c *Controller) RawStatus(ctx context.Context) (string, error) {
	return c.admin.ShowAll(ctx)
}

// Config returns the controller settings.
func (c *Controller) Config() Config {
	return c.config
}
