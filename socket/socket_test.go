//go:build linux
// +build linux

// File: socket/socket_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package socket

import (
	"os"
	"testing"

	"github.com/momentics/hioload-ws/config"
	"github.com/momentics/hioload-ws/umem"
)

// TestNew_RequiresRootAndRealInterface opens a real AF_XDP socket against
// an interface named by the XDP_TEST_INTERFACE environment variable. This
// needs CAP_NET_RAW/root and a live NIC queue, neither of which is
// available in a normal test sandbox, so it is skipped unless the
// environment variable is set, matching the integration-vs-unit split used
// for hardware-bound tests elsewhere in this module.
func TestNew_RequiresRootAndRealInterface(t *testing.T) {
	ifaceName := os.Getenv("XDP_TEST_INTERFACE")
	if ifaceName == "" {
		t.Skip("set XDP_TEST_INTERFACE to run this test against a real NIC queue")
	}

	u, err := umem.New(umem.ChunkSize2K, 4096)
	if err != nil {
		t.Fatalf("umem.New: %v", err)
	}
	defer u.Release()

	cfg := config.DefaultSocketConfig(ifaceName)
	s, err := New(cfg, u)
	if err != nil {
		t.Fatalf("socket.New: %v", err)
	}
	defer s.Close()

	if s.FD() <= 0 {
		t.Errorf("expected a valid socket fd, got %d", s.FD())
	}

	stats, err := s.Statistics()
	if err != nil {
		t.Fatalf("Statistics: %v", err)
	}
	if stats == nil {
		t.Fatalf("expected non-nil statistics")
	}
}

// TestNew_RejectsInvalidConfig exercises the config.Validate() path that New
// delegates to before touching any syscall, independent of hardware.
func TestNew_RejectsInvalidConfig(t *testing.T) {
	u, err := umem.New(umem.ChunkSize2K, 16)
	if err != nil {
		t.Fatalf("umem.New: %v", err)
	}
	defer u.Release()

	cfg := config.DefaultSocketConfig("")
	if _, err := New(cfg, u); err == nil {
		t.Fatalf("expected New to reject an empty interface name before any syscall")
	}
}
