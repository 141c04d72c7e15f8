//go:build linux
// +build linux

// File: umem/umem.go
// Package umem implements the AF_XDP UMEM: a page-aligned, anonymous shared
// memory arena partitioned into fixed-size frame chunks, with stable
// index<->offset arithmetic shared by userspace and the kernel.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package umem

import (
	"fmt"
	"sync/atomic"
	"unsafe"

	"github.com/momentics/hioload-ws/internal/xdpassert"
	"github.com/momentics/hioload-ws/xdperrors"
	"golang.org/x/sys/unix"
)

// Supported chunk sizes, per the AF_XDP uAPI.
const (
	ChunkSize2K = 2048
	ChunkSize4K = 4096
)

// UMEM is a contiguous, page-aligned memory region of chunkSize*numChunks
// bytes, shared with the kernel via mmap. Safe to share across goroutines:
// mutation is per-chunk and disjoint by construction (see allocator).
//
// A UMEM is reference-counted: New hands the creator one reference and
// socket.New acquires another that Socket.Close releases; the mapping is
// unmapped only once every holder has released it (see Acquire/Release).
// The allocators neither acquire nor release a reference.
type UMEM struct {
	chunkSize int
	numChunks int
	data      []byte
	refs      atomic.Int32
}

// New allocates a new UMEM with numChunks chunks of chunkSize bytes each.
// chunkSize must be ChunkSize2K or ChunkSize4K; violating this is a
// programmer error and panics.
func New(chunkSize, numChunks int) (*UMEM, error) {
	xdpassert.True(chunkSize == ChunkSize2K || chunkSize == ChunkSize4K,
		fmt.Sprintf("umem chunk size %d is not 2048 or 4096", chunkSize))
	xdpassert.True(numChunks > 0, "umem num chunks must be positive")

	size := chunkSize * numChunks
	data, err := unix.Mmap(-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_SHARED|unix.MAP_ANONYMOUS)
	if err != nil {
		return nil, &xdperrors.MemoryAllocationFailure{Cause: err}
	}

	pageSize := unix.Getpagesize()
	base := uintptr(unsafe.Pointer(&data[0]))
	xdpassert.True(base%uintptr(pageSize) == 0, "umem mapping is not page-aligned")

	u := &UMEM{
		chunkSize: chunkSize,
		numChunks: numChunks,
		data:      data,
	}
	u.refs.Store(1)
	return u, nil
}

// ChunkSize returns the fixed chunk size in bytes.
func (u *UMEM) ChunkSize() int { return u.chunkSize }

// NumChunks returns the total chunk count.
func (u *UMEM) NumChunks() int { return u.numChunks }

// MemorySize returns the total mapped size in bytes.
func (u *UMEM) MemorySize() int { return u.chunkSize * u.numChunks }

// OffsetOf returns the byte offset at which chunk i begins. i must satisfy
// 0 <= i < NumChunks(); violating this is a programmer error.
func (u *UMEM) OffsetOf(i int) uint64 {
	xdpassert.InRange("umem chunk index", i, u.numChunks)
	return uint64(i * u.chunkSize)
}

// IndexOf returns the chunk index containing the given byte offset. offset
// must satisfy 0 <= offset < MemorySize(); violating this is a programmer
// error.
func (u *UMEM) IndexOf(offset uint64) int {
	xdpassert.True(offset < uint64(u.MemorySize()), "umem offset out of range")
	return int(offset) / u.chunkSize
}

// BasePtr returns the raw pointer to the start of the mapping. Used only by
// Ring when materialising frame slices.
func (u *UMEM) BasePtr() unsafe.Pointer {
	return unsafe.Pointer(&u.data[0])
}

// Frame returns a zero-copy byte view [offset, offset+length) of the UMEM,
// used by DescRing.SliceOf and by callers to read/write frame contents
// directly.
func (u *UMEM) Frame(offset uint64, length uint32) []byte {
	end := offset + uint64(length)
	xdpassert.True(end <= uint64(u.MemorySize()), "umem frame slice out of bounds")
	return u.data[offset:end:end]
}

// Acquire increments the UMEM's reference count. Pair with Release.
func (u *UMEM) Acquire() {
	u.refs.Add(1)
}

// Release decrements the UMEM's reference count, unmapping the underlying
// memory once the count reaches zero. Safe to call from any goroutine.
func (u *UMEM) Release() error {
	if u.refs.Add(-1) == 0 {
		return unix.Munmap(u.data)
	}
	return nil
}
