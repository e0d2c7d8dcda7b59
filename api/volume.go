package api

// ConnectionData holds the transport specific part of a Connection.
type ConnectionData struct {
	// iSCSI transport.
	TargetPortal string `json:"target_portal,omitempty" yaml:"target_portal,omitempty"`
	TargetIQN    string `json:"target_iqn,omitempty"    yaml:"target_iqn,omitempty"`
	TargetLUN    int    `json:"target_lun,omitempty"    yaml:"target_lun,omitempty"`

	// Local block device transport.
	DevicePath string `json:"device_path,omitempty" yaml:"device_path,omitempty"`
}

// Connection describes how the host reaches a volume.
type Connection struct {
	DriverVolumeType string         `json:"driver_volume_type" yaml:"driver_volume_type"`
	Data             ConnectionData `json:"data"               yaml:"data"`
}

// Instance identifies the bare-metal instance a volume is attached to.
type Instance struct {
	UUID string `json:"uuid" yaml:"uuid"`
	Name string `json:"name" yaml:"name"`
}

// VolumePost represents the body of an attach or detach request.
type VolumePost struct {
	Connection Connection `json:"connection" yaml:"connection"`
	Instance   Instance   `json:"instance"   yaml:"instance"`
	Mountpoint string     `json:"mountpoint" yaml:"mountpoint"`
}

// VolumeConnector describes this host to the volume service.
type VolumeConnector struct {
	IP        string `json:"ip"        yaml:"ip"`
	Initiator string `json:"initiator" yaml:"initiator"`
	Host      string `json:"host"      yaml:"host"`
}
