package api

// Target represents an iSCSI target as reported by the target daemon.
type Target struct {
	ID           int    `json:"tid"                     yaml:"tid"`
	IQN          string `json:"iqn"                     yaml:"iqn"`
	BackingStore string `json:"backing_store,omitempty" yaml:"backing_store,omitempty"`
}
