package targets

import (
	"context"
	"slices"

	"github.com/lxc/incus-os/iscsi-exportd/api"
)

// Shower returns the raw status of every target.
type Shower interface {
	ShowAll(ctx context.Context) (string, error)
}

// NextID returns one more than the highest target ID reported by the daemon,
// or 1 when there are no targets. The daemon isn't locked between this call
// and the creation of the target.
func NextID(ctx context.Context, s Shower) (int, error) {
	raw, err := s.ShowAll(ctx)
	if err != nil {
		return 0, err
	}

	last := 0

	for target := range Parse(raw) {
		last = max(last, target.ID)
	}

	return last + 1, nil
}

// FindID returns the ID of the first target named iqn. The boolean is false
// when no such target exists.
func FindID(ctx context.Context, s Shower, iqn string) (int, bool, error) {
	raw, err := s.ShowAll(ctx)
	if err != nil {
		return 0, false, err
	}

	for target := range Parse(raw) {
		if target.IQN == iqn {
			return target.ID, true, nil
		}
	}

	return 0, false, nil
}

// List returns every target reported by the daemon.
func List(ctx context.Context, s Shower) ([]api.Target, error) {
	raw, err := s.ShowAll(ctx)
	if err != nil {
		return nil, err
	}

	list := slices.Collect(Parse(raw))
	if list == nil {
		list = []api.Target{}
	}

	return list, nil
}

// ListBackingStores returns every block device currently exported.
func ListBackingStores(ctx context.Context, s Shower) ([]string, error) {
	raw, err := s.ShowAll(ctx)
	if err != nil {
		return nil, err
	}

	paths := slices.Collect(BackingStores(raw))
	if paths == nil {
		paths = []string{}
	}

	return paths, nil
}
