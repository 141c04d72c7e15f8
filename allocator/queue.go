//go:build linux
// +build linux

// File: allocator/queue.go
// queueAllocator is the default Allocator: a bounded MPMC free-list built on
// the same sequence-numbered-cell ring used by the teacher's
// core/concurrency.LockFreeQueue, generalized here to uint32 chunk indices.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package allocator

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"

	"github.com/momentics/hioload-ws/umem"
)

// cacheLinePad sizes the padding between head/tail cursors so they never
// share a cache line; cpu.CacheLinePadSize is a compile-time constant chosen
// per target architecture (e.g. 64 on amd64, 128 on arm64), rather than
// hardcoding x86-64's 64 bytes.
const cacheLinePad = cpu.CacheLinePadSize

type queueCell struct {
	sequence atomic.Uint64
	index    uint32
}

// queueAllocator holds every free chunk index as an entry in a bounded
// MPMC ring; TryAllocate dequeues, TryRelease enqueues. Capacity is
// umem.NumChunks() rounded up to a power of two, so the ring always has room
// for every chunk index of its own free set.
type queueAllocator struct {
	u *umem.UMEM

	head uint64
	_    [cacheLinePad]byte
	tail uint64
	_    [cacheLinePad]byte

	mask  uint64
	cells []queueCell

	allocated atomic.Int64
}

// NewQueueAllocator constructs a queueAllocator pre-seeded with every chunk
// index of u marked free.
func NewQueueAllocator(u *umem.UMEM) Allocator {
	assertIndexWithinUMEM(u)

	size := 1
	for size < u.NumChunks() {
		size <<= 1
	}

	a := &queueAllocator{
		u:     u,
		mask:  uint64(size - 1),
		cells: make([]queueCell, size),
	}
	for i := range a.cells {
		a.cells[i].sequence.Store(uint64(i))
	}

	// Seed the free list: enqueue every real chunk index. Padding slots
	// introduced by the power-of-two round-up stay empty after seeding;
	// later releases advance tail into them and they are then used like
	// any other cell.
	for i := 0; i < u.NumChunks(); i++ {
		if !a.enqueue(uint32(i)) {
			panic("xdp: queue allocator seeding failed, capacity miscalculated")
		}
	}
	return a
}

func (a *queueAllocator) enqueue(idx uint32) bool {
	for {
		tail := atomic.LoadUint64(&a.tail)
		slot := &a.cells[tail&a.mask]
		seq := slot.sequence.Load()
		dif := int64(seq) - int64(tail)

		switch {
		case dif == 0:
			if atomic.CompareAndSwapUint64(&a.tail, tail, tail+1) {
				slot.index = idx
				slot.sequence.Store(tail + 1)
				return true
			}
		case dif < 0:
			return false
		default:
			// tail moved underneath us, retry
		}
	}
}

func (a *queueAllocator) dequeue() (uint32, bool) {
	for {
		head := atomic.LoadUint64(&a.head)
		slot := &a.cells[head&a.mask]
		seq := slot.sequence.Load()
		dif := int64(seq) - int64(head+1)

		switch {
		case dif == 0:
			if atomic.CompareAndSwapUint64(&a.head, head, head+1) {
				idx := slot.index
				slot.sequence.Store(head + a.mask + 1)
				return idx, true
			}
		case dif < 0:
			return 0, false
		default:
			// head moved underneath us, retry
		}
	}
}

func (a *queueAllocator) TryAllocate() (uint32, bool) {
	idx, ok := a.dequeue()
	if ok {
		a.allocated.Add(1)
	}
	return idx, ok
}

func (a *queueAllocator) TryRelease(index uint32) bool {
	if int(index) >= a.u.NumChunks() {
		return false
	}
	if !a.enqueue(index) {
		return false
	}
	a.allocated.Add(-1)
	return true
}

func (a *queueAllocator) Release(index uint32)          { release(a, index) }
func (a *queueAllocator) ReleaseOffset(offset uint64)    { releaseOffset(a, a.u, offset) }
func (a *queueAllocator) NumAllocated() int              { return int(a.allocated.Load()) }
func (a *queueAllocator) NumAvailable() int              { return a.u.NumChunks() - a.NumAllocated() }
