// Package api contains the types exchanged over the iscsi-exportd REST API.
package api

// ServerEnvironment describes the daemon's runtime configuration.
type ServerEnvironment struct {
	Host          string   `json:"host"           yaml:"host"`
	IP            string   `json:"ip"             yaml:"ip"`
	IQNPrefix     string   `json:"iqn_prefix"     yaml:"iqn_prefix"`
	UnsafeISCSI   bool     `json:"unsafe_iscsi"   yaml:"unsafe_iscsi"`
	VolumeDrivers []string `json:"volume_drivers" yaml:"volume_drivers"`
}

// Server represents the response of the API root.
type Server struct {
	Environment ServerEnvironment `json:"environment" yaml:"environment"`
}
