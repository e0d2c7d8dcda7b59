package api

// ExportsAudit summarizes an audit of the exports.
type ExportsAudit struct {
	Targets int `json:"targets" yaml:"targets"`

	// Managed counts the targets named with the configured IQN prefix.
	Managed int `json:"managed" yaml:"managed"`

	// MissingDevice lists managed targets without a backing store, or whose
	// backing store no longer exists on the host.
	MissingDevice []Target `json:"missing_device" yaml:"missing_device"`
}
