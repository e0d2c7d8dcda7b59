// Package targets interprets tgtd status output: it lists targets, allocates
// target IDs and composes export IQNs.
package targets

import (
	"iter"
	"regexp"
	"strconv"
	"strings"

	"github.com/lxc/incus-os/iscsi-exportd/api"
)

var (
	targetHeader     = regexp.MustCompile(`^Target (\d+):\s*(.*)$`)
	backingStoreLine = regexp.MustCompile(`Backing store path: (.*)$`)
)

// Parse lazily yields one record per "Target <id>: <iqn>" header of a
// "tgtadm --op show" dump. The record carries the first real backing store
// listed under the target. Unrecognized lines are skipped.
func Parse(raw string) iter.Seq[api.Target] {
	return func(yield func(api.Target) bool) {
		var current *api.Target

		for line := range strings.Lines(raw) {
			line = strings.TrimRight(line, "\r\n")

			m := targetHeader.FindStringSubmatch(line)
			if m != nil {
				if current != nil && !yield(*current) {
					return
				}

				current = nil

				// tgtd IDs fit in an int; a header that doesn't is skipped.
				id, err := strconv.Atoi(m[1])
				if err != nil {
					continue
				}

				current = &api.Target{ID: id, IQN: strings.TrimSpace(m[2])}

				continue
			}

			path, ok := backingStorePath(line)
			if ok && current != nil && current.BackingStore == "" {
				current.BackingStore = path
			}
		}

		if current != nil {
			yield(*current)
		}
	}
}

// BackingStores lazily yields every real backing store path in the dump.
func BackingStores(raw string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for line := range strings.Lines(raw) {
			path, ok := backingStorePath(strings.TrimRight(line, "\r\n"))
			if ok && !yield(path) {
				return
			}
		}
	}
}

// backingStorePath extracts the value of a "Backing store path:" line. tgtd
// reports "None" for the controller LUN, so only values containing a path
// separator count.
func backingStorePath(line string) (string, bool) {
	m := backingStoreLine.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}

	path := strings.TrimSpace(m[1])
	if !strings.Contains(path, "/") {
		return "", false
	}

	return path, true
}
