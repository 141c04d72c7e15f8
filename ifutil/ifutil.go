// File: ifutil/ifutil.go
// Package ifutil resolves network interface names to kernel ifindexes and
// back, the values the socket and filter packages need to bind to a device.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package ifutil

import (
	"fmt"
	"net"
	"path/filepath"
	"regexp"
)

// validNameRE matches a conservative interface-name character set (no '/',
// no whitespace; the IFNAMSIZ length limit is not checked); rejecting anything
// else here means a caller-supplied name can never reach net.InterfaceByName
// carrying a path separator or control character.
var validNameRE = regexp.MustCompile(`^[a-zA-Z0-9_.:-]+$`)

// InterfaceIndexByName returns the kernel ifindex for the named interface.
// Delegating to net.InterfaceByName here (rather than
// reading /sys/class/net/<name>/ifindex by hand, the way the rest of this
// module reaches for golang.org/x/sys/unix directly) is the one intentional
// exception: resolving a device name to an index is exactly what the
// standard net package already validates and caches correctly, and getting
// it wrong via ad hoc sysfs parsing (trailing newlines, symlink edge cases,
// interface renames mid-read) buys nothing over the stdlib call. name is
// still validated against the kernel's permitted character set and cleaned
// via filepath.Clean before being handed to net, since a future caller may
// wire this up to a raw sysfs path without revisiting this check.
func InterfaceIndexByName(name string) (int, error) {
	cleaned := filepath.Clean(name)
	if cleaned != name || !validNameRE.MatchString(name) {
		return 0, fmt.Errorf("ifutil: invalid interface name %q", name)
	}
	iface, err := net.InterfaceByName(name)
	if err != nil {
		return 0, fmt.Errorf("ifutil: resolving interface %q: %w", name, err)
	}
	return iface.Index, nil
}

// InterfaceNameByIndex returns the interface name for the given ifindex.
func InterfaceNameByIndex(index int) (string, error) {
	iface, err := net.InterfaceByIndex(index)
	if err != nil {
		return "", fmt.Errorf("ifutil: resolving ifindex %d: %w", index, err)
	}
	return iface.Name, nil
}
