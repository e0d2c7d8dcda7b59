// Package config loads the daemon configuration file.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lxc/incus-os/iscsi-exportd/internal/exports"
	"github.com/lxc/incus-os/iscsi-exportd/internal/scheduling"
	"github.com/lxc/incus-os/iscsi-exportd/internal/transport"
)

// DefaultPath is where the daemon looks for its configuration.
const DefaultPath = "/etc/iscsi-exportd/config.yaml"

// ErrInvalidConfig is returned when a configuration value is rejected.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config represents the daemon configuration.
type Config struct {
	// Exports volumes to every initiator when a node has no provisioning
	// address. Unsafe outside of dev/test environments.
	UseUnsafeISCSI bool `yaml:"use_unsafe_iscsi"`

	IQNPrefix string `yaml:"iscsi_iqn_prefix"`

	MyIP string `yaml:"my_ip"`
	Host string `yaml:"host"`

	TgtadmPath string   `yaml:"tgtadm_path"`
	RootHelper []string `yaml:"root_helper"`

	VolumeDrivers []string `yaml:"volume_drivers"`

	// AuditSchedule is a crontab expression, empty disables the audit.
	AuditSchedule string `yaml:"audit_schedule"`

	SocketPath string `yaml:"socket_path"`
	StatePath  string `yaml:"state_path"`

	SerializeAllocation bool `yaml:"serialize_allocation"`
}

// Default returns the configuration used when no file is present. MyIP and
// Host are left empty and filled in by Load.
func Default() Config {
	return Config{
		IQNPrefix:           "iqn.2010-10.org.openstack.baremetal",
		TgtadmPath:          "tgtadm",
		RootHelper:          []string{},
		VolumeDrivers:       []string{string(transport.TypeISCSI), string(transport.TypeLocal)},
		AuditSchedule:       "*/10 * * * *",
		SocketPath:          "/run/iscsi-exportd/unix.socket",
		StatePath:           "/var/lib/iscsi-exportd/state.json",
		SerializeAllocation: true,
	}
}

// Load reads the configuration at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}

		slog.Debug("No configuration file, using defaults", "path", path)

		content = nil
	}

	cfg, err := Parse(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %q: %w", path, err)
	}

	err = cfg.fillHost()
	if err != nil {
		return nil, err
	}

	return cfg, nil
}

// Parse decodes and validates a YAML configuration, applying defaults for
// unset keys.
func Parse(content []byte) (*Config, error) {
	cfg := Default()

	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)

	err := decoder.Decode(&cfg)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}

	err = cfg.Validate()
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks the configuration values.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.IQNPrefix, "iqn.") {
		return fmt.Errorf("%w: iscsi_iqn_prefix %q must start with \"iqn.\"", ErrInvalidConfig, c.IQNPrefix)
	}

	if c.TgtadmPath == "" {
		return fmt.Errorf("%w: tgtadm_path can't be empty", ErrInvalidConfig)
	}

	if c.AuditSchedule != "" {
		err := scheduling.ValidateCronTab(c.AuditSchedule)
		if err != nil {
			return fmt.Errorf("%w: audit_schedule: %w", ErrInvalidConfig, err)
		}
	}

	for _, name := range c.VolumeDrivers {
		if !slices.Contains(transport.Supported, transport.Type(name)) {
			return fmt.Errorf("%w: unknown volume driver %q", ErrInvalidConfig, name)
		}
	}

	if c.MyIP != "" && net.ParseIP(c.MyIP) == nil {
		return fmt.Errorf("%w: my_ip %q isn't an IP address", ErrInvalidConfig, c.MyIP)
	}

	if c.SocketPath == "" || c.StatePath == "" {
		return fmt.Errorf("%w: socket_path and state_path are required", ErrInvalidConfig)
	}

	return nil
}

// Exports returns the settings of the export controller.
func (c *Config) Exports() exports.Config {
	return exports.Config{
		UnsafeISCSI:         c.UseUnsafeISCSI,
		IQNPrefix:           c.IQNPrefix,
		MyIP:                c.MyIP,
		Host:                c.Host,
		SerializeAllocation: c.SerializeAllocation,
	}
}

func (c *Config) fillHost() error {
	if c.Host == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return err
		}

		c.Host = hostname
	}

	if c.MyIP == "" {
		addrs, err := net.InterfaceAddrs()
		if err != nil {
			return err
		}

		c.MyIP = firstIPv4(addrs)
	}

	return nil
}

// firstIPv4 returns the first global IPv4 address, or the loopback address.
func firstIPv4(addrs []net.Addr) string {
	for _, addr := range addrs {
		ipNet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}

		ip := ipNet.IP.To4()
		if ip == nil || ip.IsLoopback() || ip.IsLinkLocalUnicast() {
			continue
		}

		return ip.String()
	}

	return "127.0.0.1"
}
