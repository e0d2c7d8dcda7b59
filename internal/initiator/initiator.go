// Package initiator discovers the host's iSCSI initiator name.
package initiator

import (
	"bufio"
	"context"
	"errors"
	"os"
	"strings"
)

// DefaultPath is where open-iscsi stores the initiator name.
const DefaultPath = "/etc/iscsi/initiatorname.iscsi"

// ErrNoInitiatorName is returned when the file has no InitiatorName entry.
var ErrNoInitiatorName = errors.New("no initiator name configured")

// Discoverer reads the initiator name from a file.
type Discoverer struct {
	Path string
}

// Discover returns the initiator name configured on the host.
func (d Discoverer) Discover(_ context.Context) (string, error) {
	path := d.Path
	if path == "" {
		path = DefaultPath
	}

	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return "", err
	}

	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "#") {
			continue
		}

		name, ok := strings.CutPrefix(line, "InitiatorName=")
		if ok && strings.TrimSpace(name) != "" {
			return strings.TrimSpace(name), nil
		}
	}

	err = scanner.Err()
	if err != nil {
		return "", err
	}

	return "", ErrNoInitiatorName
}
