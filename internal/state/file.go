// Package state persists the daemon's node inventory.
package state

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/lxc/incus-os/iscsi-exportd/api"
)

const currentStateVersion = 1

// LoadOrCreate parses the on-disk state file and returns a State struct.
// If no file exists, a new empty one is created.
func LoadOrCreate(path string) (*State, error) {
	s := State{
		path: path,

		StateVersion: currentStateVersion,

		Nodes: map[string]api.Node{},
	}

	body, err := os.ReadFile(s.path)
	if err == nil {
		err = json.Unmarshal(body, &s)
		if err != nil {
			return nil, fmt.Errorf("failed to parse state file %q: %w", path, err)
		}

		if s.StateVersion > currentStateVersion {
			return nil, fmt.Errorf("state file %q has unsupported version %d", path, s.StateVersion)
		}

		if s.Nodes == nil {
			s.Nodes = map[string]api.Node{}
		}

		return &s, nil
	}

	if os.IsNotExist(err) {
		slog.Info("Creating new state file", "path", path)

		// State file doesn't exist, create it and return it.
		err = s.Save()
		if err != nil {
			return nil, err
		}

		return &s, nil
	}

	return nil, err
}

// Update runs fn with the state locked and saves the result if fn succeeds.
func (s *State) Update(fn func(s *State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := fn(s)
	if err != nil {
		return err
	}

	return s.save()
}

// View runs fn with the state locked for reading.
func (s *State) View(fn func(s *State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return fn(s)
}

// Save writes out the current state struct into its on-disk storage.
func (s *State) Save() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.save()
}

func (s *State) save() error {
	s.StateVersion = currentStateVersion

	body, err := json.Marshal(s)
	if err != nil {
		return err
	}

	// Replace the file atomically.
	tmpPath := s.path + ".tmp"

	err = os.WriteFile(tmpPath, body, 0o600)
	if err != nil {
		return err
	}

	return os.Rename(tmpPath, s.path)
}
