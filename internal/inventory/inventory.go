// Package inventory resolves bare-metal instances to their nodes and
// provisioning network addresses.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"net"
	"slices"

	"github.com/google/uuid"

	"github.com/lxc/incus-os/iscsi-exportd/api"
	"github.com/lxc/incus-os/iscsi-exportd/internal/state"
)

// ErrNodeNotFound is returned when no node matches the lookup.
var ErrNodeNotFound = errors.New("node not found")

// ErrInvalidNode is returned when a node definition is rejected.
var ErrInvalidNode = errors.New("invalid node")

// Store is the node inventory, persisted in the daemon state.
type Store struct {
	state *state.State
}

// NewStore returns a Store backed by s.
func NewStore(s *state.State) *Store {
	return &Store{state: s}
}

// GetNodeByInstanceUUID returns the node running the instance.
func (st *Store) GetNodeByInstanceUUID(_ context.Context, instanceUUID string) (*api.Node, error) {
	var node *api.Node

	err := st.state.View(func(s *state.State) error {
		for _, id := range slices.Sorted(maps.Keys(s.Nodes)) {
			n := s.Nodes[id]
			if n.InstanceUUID == instanceUUID {
				node = &n

				return nil
			}
		}

		return fmt.Errorf("%w: no node runs instance %q", ErrNodeNotFound, instanceUUID)
	})
	if err != nil {
		return nil, err
	}

	return node, nil
}

// GetProvisioningAddress returns the fixed provisioning address of a node, or
// an empty string if it has none.
func (st *Store) GetProvisioningAddress(ctx context.Context, nodeID string) (string, error) {
	node, err := st.GetNode(ctx, nodeID)
	if err != nil {
		return "", err
	}

	return node.ProvisioningAddress, nil
}

// GetNode returns a node by ID.
func (st *Store) GetNode(_ context.Context, nodeID string) (*api.Node, error) {
	var node *api.Node

	err := st.state.View(func(s *state.State) error {
		n, ok := s.Nodes[nodeID]
		if !ok {
			return fmt.Errorf("%w: %q", ErrNodeNotFound, nodeID)
		}

		node = &n

		return nil
	})
	if err != nil {
		return nil, err
	}

	return node, nil
}

// ListNodes returns every node, sorted by ID.
func (st *Store) ListNodes(_ context.Context) ([]api.Node, error) {
	nodes := []api.Node{}

	err := st.state.View(func(s *state.State) error {
		for _, id := range slices.Sorted(maps.Keys(s.Nodes)) {
			nodes = append(nodes, s.Nodes[id])
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return nodes, nil
}

// PutNode creates or replaces a node.
func (st *Store) PutNode(_ context.Context, nodeID string, req api.NodePut) error {
	err := validateNode(nodeID, req)
	if err != nil {
		return err
	}

	return st.state.Update(func(s *state.State) error {
		for id, n := range s.Nodes {
			if id != nodeID && n.InstanceUUID == req.InstanceUUID {
				return fmt.Errorf("%w: instance %q already runs on node %q", ErrInvalidNode, req.InstanceUUID, id)
			}
		}

		s.Nodes[nodeID] = api.Node{
			ID:                  nodeID,
			InstanceUUID:        req.InstanceUUID,
			ProvisioningAddress: req.ProvisioningAddress,
		}

		return nil
	})
}

// DeleteNode removes a node.
func (st *Store) DeleteNode(_ context.Context, nodeID string) error {
	return st.state.Update(func(s *state.State) error {
		_, ok := s.Nodes[nodeID]
		if !ok {
			return fmt.Errorf("%w: %q", ErrNodeNotFound, nodeID)
		}

		delete(s.Nodes, nodeID)

		return nil
	})
}

func validateNode(nodeID string, req api.NodePut) error {
	if nodeID == "" {
		return fmt.Errorf("%w: missing node ID", ErrInvalidNode)
	}

	_, err := uuid.Parse(req.InstanceUUID)
	if err != nil {
		return fmt.Errorf("%w: bad instance UUID %q: %w", ErrInvalidNode, req.InstanceUUID, err)
	}

	if req.ProvisioningAddress != "" && net.ParseIP(req.ProvisioningAddress) == nil {
		return fmt.Errorf("%w: bad provisioning address %q", ErrInvalidNode, req.ProvisioningAddress)
	}

	return nil
}
