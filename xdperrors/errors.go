// File: xdperrors/errors.go
// Package xdperrors defines the closed set of failure kinds raised by the
// AF_XDP core (umem, ring, allocator, socket, filter).
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package xdperrors

import "fmt"

// Sentinel errors for conditions that carry no structured context.
var (
	ErrRingFull           = fmt.Errorf("xdp: ring is full")
	ErrRingEmpty          = fmt.Errorf("xdp: ring is empty")
	ErrAllocatorExhausted = fmt.Errorf("xdp: allocator has no free chunks")
	ErrPollFailure        = fmt.Errorf("xdp: poll returned without readability")
)

// MemoryAllocationFailure is raised when the UMEM's anonymous mapping fails.
type MemoryAllocationFailure struct {
	Cause error
}

func (e *MemoryAllocationFailure) Error() string {
	return fmt.Sprintf("xdp: memory allocation failure: %v", e.Cause)
}
func (e *MemoryAllocationFailure) Unwrap() error { return e.Cause }

// MemoryMapFailure is raised when a ring's mmap fails.
type MemoryMapFailure struct {
	Cause error
}

func (e *MemoryMapFailure) Error() string {
	return fmt.Sprintf("xdp: memory map failure: %v", e.Cause)
}
func (e *MemoryMapFailure) Unwrap() error { return e.Cause }

// SocketCreationFailure is raised when the AF_XDP socket() call fails.
type SocketCreationFailure struct {
	Cause error
}

func (e *SocketCreationFailure) Error() string {
	return fmt.Sprintf("xdp: socket creation failure: %v", e.Cause)
}
func (e *SocketCreationFailure) Unwrap() error { return e.Cause }

// SocketSetOptionFailure is raised when a setsockopt(2) call fails.
type SocketSetOptionFailure struct {
	Level int
	Name  int
	Cause error
}

func (e *SocketSetOptionFailure) Error() string {
	return fmt.Sprintf("xdp: setsockopt failure (level=%d name=%d): %v", e.Level, e.Name, e.Cause)
}
func (e *SocketSetOptionFailure) Unwrap() error { return e.Cause }

// SocketGetOptionFailure is raised when a getsockopt(2) call fails.
type SocketGetOptionFailure struct {
	Level int
	Name  int
	Cause error
}

func (e *SocketGetOptionFailure) Error() string {
	return fmt.Sprintf("xdp: getsockopt failure (level=%d name=%d): %v", e.Level, e.Name, e.Cause)
}
func (e *SocketGetOptionFailure) Unwrap() error { return e.Cause }

// SocketGetOptionSizeFailure is raised when the kernel returns an option of
// unexpected size.
type SocketGetOptionSizeFailure struct {
	Expected int
	Received int
}

func (e *SocketGetOptionSizeFailure) Error() string {
	return fmt.Sprintf("xdp: getsockopt size mismatch (expected=%d received=%d)", e.Expected, e.Received)
}

// SocketBindFailure is raised when bind(2) fails.
type SocketBindFailure struct {
	Cause error
}

func (e *SocketBindFailure) Error() string {
	return fmt.Sprintf("xdp: socket bind failure: %v", e.Cause)
}
func (e *SocketBindFailure) Unwrap() error { return e.Cause }

// SocketSendFailure is raised when the TX wake-up send fails.
type SocketSendFailure struct {
	Cause error
}

func (e *SocketSendFailure) Error() string {
	return fmt.Sprintf("xdp: socket send failure: %v", e.Cause)
}
func (e *SocketSendFailure) Unwrap() error { return e.Cause }

// FilterLoadFailure is raised when the steering program fails to load or attach.
type FilterLoadFailure struct {
	Cause error
}

func (e *FilterLoadFailure) Error() string {
	return fmt.Sprintf("xdp: filter load/attach failure: %v", e.Cause)
}
func (e *FilterLoadFailure) Unwrap() error { return e.Cause }

// ConfigValidationFailure is raised by config.Validate() for caller-supplied
// invalid configuration (as opposed to a programmer-error precondition, which
// panics via internal/xdpassert).
type ConfigValidationFailure struct {
	Field  string
	Reason string
}

func (e *ConfigValidationFailure) Error() string {
	return fmt.Sprintf("xdp: invalid config field %q: %s", e.Field, e.Reason)
}
