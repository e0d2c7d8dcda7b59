package targets

import (
	"fmt"
	"strings"
)

// ComposeIQN returns the target name exporting mountpoint of an instance.
// Attach and detach compute it independently, so it must stay deterministic.
func ComposeIQN(prefix string, instanceName string, mountpoint string) string {
	mp := strings.Trim(strings.ReplaceAll(mountpoint, "/", "-"), "-")

	return fmt.Sprintf("%s:%s-%s", prefix, instanceName, mp)
}

// MountDevice returns the device name part of a mount point ("/dev/vdb" is "vdb").
func MountDevice(mountpoint string) string {
	_, device, _ := cutLast(mountpoint, "/")

	return device
}

func cutLast(s string, sep string) (string, string, bool) {
	i := strings.LastIndex(s, sep)
	if i < 0 {
		return "", s, false
	}

	return s[:i], s[i+len(sep):], true
}
