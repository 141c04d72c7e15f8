//go:build linux
// +build linux

// File: config/config_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package config

import "testing"

func TestDefaultSocketConfig_Validates(t *testing.T) {
	cfg := DefaultSocketConfig("eth0")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate, got: %v", err)
	}
}

func TestSocketConfig_Validate_RejectsEmptyInterface(t *testing.T) {
	cfg := DefaultSocketConfig("")
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error for empty interface name")
	}
}

func TestSocketConfig_Validate_RejectsBadChunkSize(t *testing.T) {
	cfg := DefaultSocketConfig("eth0")
	cfg.ChunkSize = 1234
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error for non-2048/4096 chunk size")
	}
}

func TestSocketConfig_Validate_LeavesRingSizeToPrecondition(t *testing.T) {
	// A non-power-of-two ring size is a programmer-error precondition, not a
	// caller-data error: Validate must not reject it. socket.New panics via
	// internal/xdpassert.PowerOfTwo when the socket is actually constructed.
	cfg := DefaultSocketConfig("eth0")
	cfg.RXRingSize = 1000
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate must not flag ring size, got: %v", err)
	}
}

func TestSocketConfig_Validate_RejectsConflictingCopyModes(t *testing.T) {
	cfg := DefaultSocketConfig("eth0")
	cfg.ForceCopyMode = true
	cfg.ZeroCopy = true
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error for ZeroCopy+ForceCopyMode conflict")
	}
}

func TestDefaultFilterConfig_Validates(t *testing.T) {
	cfg := DefaultFilterConfig("eth0")
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default filter config should validate, got: %v", err)
	}
}
