// Package transport connects the block device behind a volume to this host,
// using the sub-driver matching the volume's declared transport type.
package transport

import (
	"context"
	"errors"
	"fmt"

	"github.com/lxc/incus-os/iscsi-exportd/api"
)

// Type is a volume transport type, as found in api.Connection.DriverVolumeType.
type Type string

const (
	// TypeISCSI volumes are reached by logging into a remote iSCSI target.
	TypeISCSI Type = "iscsi"

	// TypeLocal volumes are block devices already present on the host.
	TypeLocal Type = "local"
)

// Supported lists every transport type with a sub-driver.
var Supported = []Type{TypeISCSI, TypeLocal}

// ErrDriverNotFound is returned when no sub-driver handles a transport type.
var ErrDriverNotFound = errors.New("volume driver not found")

// DriverNotFoundError names the transport type that has no sub-driver.
type DriverNotFoundError struct {
	Type string
}

func (e *DriverNotFoundError) Error() string {
	return fmt.Sprintf("%s for type %q", ErrDriverNotFound, e.Type)
}

// Is makes errors.Is(err, ErrDriverNotFound) hold.
func (*DriverNotFoundError) Is(target error) bool {
	return target == ErrDriverNotFound
}

// Driver connects and disconnects a volume. ConnectVolume returns the path of
// the local block device backing the volume.
type Driver interface {
	ConnectVolume(ctx context.Context, conn api.Connection, mountDevice string) (string, error)
	DisconnectVolume(ctx context.Context, conn api.Connection, mountDevice string) error
}

// Dispatcher routes volume operations to the sub-driver of each connection's type.
type Dispatcher struct {
	drivers map[Type]Driver
}

// NewDispatcher returns a Dispatcher using the given sub-drivers.
func NewDispatcher(drivers map[Type]Driver) *Dispatcher {
	return &Dispatcher{drivers: drivers}
}

// Load returns a Dispatcher with the named sub-drivers enabled.
func Load(names []string) (*Dispatcher, error) {
	drivers := make(map[Type]Driver, len(names))

	for _, name := range names {
		switch Type(name) {
		case TypeISCSI:
			drivers[TypeISCSI] = NewISCSI()
		case TypeLocal:
			drivers[TypeLocal] = NewLocal()
		default:
			return nil, &DriverNotFoundError{Type: name}
		}
	}

	return NewDispatcher(drivers), nil
}

// Types returns the enabled transport types.
func (d *Dispatcher) Types() []string {
	names := []string{}

	for _, t := range Supported {
		_, ok := d.drivers[t]
		if ok {
			names = append(names, string(t))
		}
	}

	return names
}

// ConnectVolume implements Driver.
func (d *Dispatcher) ConnectVolume(ctx context.Context, conn api.Connection, mountDevice string) (string, error) {
	driver, err := d.driver(conn)
	if err != nil {
		return "", err
	}

	return driver.ConnectVolume(ctx, conn, mountDevice)
}

// DisconnectVolume implements Driver.
func (d *Dispatcher) DisconnectVolume(ctx context.Context, conn api.Connection, mountDevice string) error {
	driver, err := d.driver(conn)
	if err != nil {
		return err
	}

	return driver.DisconnectVolume(ctx, conn, mountDevice)
}

func (d *Dispatcher) driver(conn api.Connection) (Driver, error) {
	driver, ok := d.drivers[Type(conn.DriverVolumeType)]
	if !ok {
		return nil, &DriverNotFoundError{Type: conn.DriverVolumeType}
	}

	return driver, nil
}
