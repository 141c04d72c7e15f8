//go:build linux
// +build linux

// File: allocator/allocator.go
// Package allocator implements the UMEM chunk allocator: a concurrent
// free-list over a UMEM's chunk indices, with two interchangeable
// implementations (bounded MPMC queue, default; atomic bitset).
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package allocator

import (
	"fmt"

	"github.com/momentics/hioload-ws/internal/xdpassert"
	"github.com/momentics/hioload-ws/umem"
)

// Allocator tracks which UMEM chunk indices are currently free versus
// loaned out (to the kernel via a ring, or held by a userspace caller).
// Both implementations are safe for concurrent TryAllocate/TryRelease from
// many goroutines.
type Allocator interface {
	// TryAllocate returns a free index and removes it from the free set, or
	// ok=false if none remain.
	TryAllocate() (index uint32, ok bool)

	// TryRelease returns index to the free set. Returns false if index is
	// out of range or the free set refuses it: the bitset variant refuses an
	// index that is already free, while the queue variant does not detect a
	// double release and refuses only when its ring is full.
	TryRelease(index uint32) bool

	// Release is a panic-on-failure wrapper around TryRelease.
	Release(index uint32)

	// ReleaseOffset releases the chunk containing the given UMEM offset.
	ReleaseOffset(offset uint64)

	// NumAvailable is a best-effort count of currently-free indices.
	NumAvailable() int

	// NumAllocated is a best-effort count of currently-allocated indices.
	NumAllocated() int
}

// releaseOffset is shared by both variants: translate an offset to a chunk
// index via the UMEM's arithmetic, then delegate to TryRelease.
func releaseOffset(a Allocator, u *umem.UMEM, offset uint64) {
	idx := u.IndexOf(offset)
	if !a.TryRelease(uint32(idx)) {
		panic(fmt.Sprintf("xdp: failed releasing chunk at offset %d (index %d)", offset, idx))
	}
}

// release is shared by both variants: panic if TryRelease refuses.
func release(a Allocator, index uint32) {
	if !a.TryRelease(index) {
		panic(fmt.Sprintf("xdp: failed releasing chunk at index %d", index))
	}
}

// assertIndexWithinUMEM is a convenience precondition used by constructors.
func assertIndexWithinUMEM(u *umem.UMEM) {
	xdpassert.True(u.NumChunks() > 0, "umem passed to allocator has zero chunks")
}

// New returns the default Allocator for u: the bounded-queue variant, which
// has no divisibility requirement on NumChunks() and is the right choice
// unless a caller specifically wants the bitset variant's tighter memory
// footprint (see NewBitsetAllocator).
func New(u *umem.UMEM) Allocator {
	return NewQueueAllocator(u)
}
