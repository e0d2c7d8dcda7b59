package api

// Node represents a bare-metal node known to the exporter.
type Node struct {
	ID           string `json:"id"            yaml:"id"`
	InstanceUUID string `json:"instance_uuid" yaml:"instance_uuid"`

	// ProvisioningAddress is the node's fixed address on the provisioning
	// network. Exports for the node are restricted to it.
	ProvisioningAddress string `json:"provisioning_address,omitempty" yaml:"provisioning_address,omitempty"`
}

// NodePut represents the fields of a Node that can be updated.
type NodePut struct {
	InstanceUUID        string `json:"instance_uuid"                  yaml:"instance_uuid"`
	ProvisioningAddress string `json:"provisioning_address,omitempty" yaml:"provisioning_address,omitempty"`
}
