//go:build linux
// +build linux

// File: config/config.go
// Package config holds the tunables for a socket and the flows it should
// receive, plus validation of caller-supplied values.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package config

import (
	"fmt"

	"github.com/momentics/hioload-ws/umem"
	"github.com/momentics/hioload-ws/xdperrors"
)

// SocketConfig holds every parameter needed to stand up one AF_XDP socket:
// which interface/queue to bind to, the UMEM geometry backing it, and the
// four ring sizes.
type SocketConfig struct {
	InterfaceName string // e.g. "eth0"
	QueueID       int    // NIC RX/TX queue index to bind to

	ChunkSize int // umem.ChunkSize2K or umem.ChunkSize4K
	NumChunks int // total UMEM chunks; must be > 0

	RXRingSize   int // entries in the RX ring; power of two
	TXRingSize   int // entries in the TX ring; power of two
	FillRingSize int // entries in the Fill ring; power of two
	CompRingSize int // entries in the Completion ring; power of two

	NeedWakeup    bool // set XDP_USE_NEED_WAKEUP; avoids a busy-polling kernel thread
	ZeroCopy      bool // request XDP_ZEROCOPY; bind fails if the driver cannot do zero-copy (no fallback to copy mode)
	ForceCopyMode bool // request XDP_COPY explicitly, skipping the zero-copy attempt
}

// DefaultSocketConfig returns defaults tuned for a single RX/TX queue pair
// at a conservative depth: enough in-flight frames to absorb a scheduling
// hiccup without needing a NIC-specific tune-up first.
func DefaultSocketConfig(interfaceName string) *SocketConfig {
	return &SocketConfig{
		InterfaceName: interfaceName,
		QueueID:       0,
		ChunkSize:     umem.ChunkSize2K,
		NumChunks:     4096,
		RXRingSize:    2048,
		TXRingSize:    2048,
		FillRingSize:  2048,
		CompRingSize:  2048,
		NeedWakeup:    true,
		ZeroCopy:      true,
		ForceCopyMode: false,
	}
}

// Validate reports any caller-supplied values that cannot produce a working
// socket. Unlike internal/xdpassert's panics, these are errors: the values
// here come from a config file or flags, not from a programmer's own code.
func (c *SocketConfig) Validate() error {
	if c.InterfaceName == "" {
		return &xdperrors.ConfigValidationFailure{Field: "InterfaceName", Reason: "must not be empty"}
	}
	if c.QueueID < 0 {
		return &xdperrors.ConfigValidationFailure{Field: "QueueID", Reason: "must be non-negative"}
	}
	if c.ChunkSize != umem.ChunkSize2K && c.ChunkSize != umem.ChunkSize4K {
		return &xdperrors.ConfigValidationFailure{
			Field:  "ChunkSize",
			Reason: fmt.Sprintf("must be %d or %d, got %d", umem.ChunkSize2K, umem.ChunkSize4K, c.ChunkSize),
		}
	}
	if c.NumChunks <= 0 {
		return &xdperrors.ConfigValidationFailure{Field: "NumChunks", Reason: "must be positive"}
	}
	// Ring sizes are NOT validated here: a non-power-of-two ring size is a
	// precondition violation, not a caller-data error, and is left to panic
	// via internal/xdpassert.PowerOfTwo in socket.New (before any syscall)
	// and in ring.mapRing, matching the original's
	// assert!(rings_size.is_power_of_two()).
	if c.ForceCopyMode && c.ZeroCopy {
		return &xdperrors.ConfigValidationFailure{
			Field:  "ZeroCopy",
			Reason: "cannot request zero-copy mode together with ForceCopyMode",
		}
	}
	return nil
}

// FilterConfig holds the parameters needed to load and attach the steering
// program to an interface.
type FilterConfig struct {
	InterfaceName string // interface the program attaches to
	ProgramPath   string // path to the compiled BPF object; empty uses the built-in default path
	Native        bool   // attempt native (driver) XDP mode before falling back to generic/SKB mode
}

// DefaultFilterConfig returns defaults that attempt the fastest attach mode
// available and fall back automatically.
func DefaultFilterConfig(interfaceName string) *FilterConfig {
	return &FilterConfig{
		InterfaceName: interfaceName,
		ProgramPath:   "",
		Native:        true,
	}
}

// Validate reports any caller-supplied values that cannot produce a working
// filter attachment.
func (c *FilterConfig) Validate() error {
	if c.InterfaceName == "" {
		return &xdperrors.ConfigValidationFailure{Field: "InterfaceName", Reason: "must not be empty"}
	}
	return nil
}
