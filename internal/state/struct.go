package state

import (
	"sync"

	"github.com/lxc/incus-os/iscsi-exportd/api"
)

// State represents the on-disk persistent state.
type State struct {
	mu   sync.Mutex
	path string

	StateVersion int `json:"version"`

	Nodes map[string]api.Node `json:"nodes"`
}
