//go:build linux
// +build linux

// File: ring/ring.go
// Package ring implements the four AF_XDP SPSC ring types (RX, TX, Fill,
// Completion) as lock-free queues living in kernel-shared mmap'd memory.
//
// The teacher's core/concurrency.RingBuffer[T] models a pure-Go lock-free
// ring with its own backing array; here the backing array and cursors are
// owned by the kernel and merely overlaid onto an mmap region, so element
// layout must match the kernel's exact wire ABI. That rules out a Go
// generic the way RingBuffer[T] uses one: instead the shared cursor/mmap
// machinery lives in an unexported ringCore, and OffsetRing/DescRing are
// thin typed views over it (see §4.2 / §9 of SPEC_FULL.md).
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package ring

import (
	"sync/atomic"
	"unsafe"

	"github.com/momentics/hioload-ws/internal/xdpassert"
	"github.com/momentics/hioload-ws/umem"
	"github.com/momentics/hioload-ws/xdperrors"
	"golang.org/x/sys/unix"
)

// Offsets mirrors one ring's offset triple as returned by a single
// XDP_MMAP_OFFSETS getsockopt call (unix.XDPMmapOffsets' per-ring fields).
type Offsets struct {
	Producer uint64
	Consumer uint64
	Desc     uint64
	Flags    uint64
}

// ringCore is the shared mmap + cursor machinery for all four ring types.
// It is not exported: callers interact with OffsetRing or DescRing, which
// fix the element width and expose type-appropriate accessors.
type ringCore struct {
	mem       []byte
	numElems  uint32
	mask      uint32
	elemSize  uintptr
	descBase  uintptr
	producer  *uint32
	consumer  *uint32
}

// mapRing mmaps descOffset+elemSize*numElems bytes from fd at pageOffset and
// wires up the producer/consumer cursor pointers.
func mapRing(fd int, numElems uint32, off Offsets, pageOffset int64, elemSize uintptr) (*ringCore, error) {
	xdpassert.PowerOfTwo("ring element count", int(numElems))

	size := int(off.Desc) + int(elemSize)*int(numElems)
	mem, err := unix.Mmap(fd, pageOffset, size,
		unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED|unix.MAP_POPULATE)
	if err != nil {
		return nil, &xdperrors.MemoryMapFailure{Cause: err}
	}
	base := uintptr(unsafe.Pointer(&mem[0]))

	return &ringCore{
		mem:      mem,
		numElems: numElems,
		mask:     numElems - 1,
		elemSize: elemSize,
		descBase: base + uintptr(off.Desc),
		producer: (*uint32)(unsafe.Pointer(base + uintptr(off.Producer))),
		consumer: (*uint32)(unsafe.Pointer(base + uintptr(off.Consumer))),
	}, nil
}

// unmap releases the ring's mmap region.
func (r *ringCore) unmap() error {
	return unix.Munmap(r.mem)
}

// consumerIndex loads the consumer cursor (relaxed) masked by N-1.
func (r *ringCore) consumerIndex() uint32 {
	return atomic.LoadUint32(r.consumer) & r.mask
}

// producerIndex loads the producer cursor (relaxed) masked by N-1.
func (r *ringCore) producerIndex() uint32 {
	return atomic.LoadUint32(r.producer) & r.mask
}

// rawConsumer/rawProducer return the unmasked, free-running cursor values;
// used only for the full/empty comparisons below.
func (r *ringCore) rawConsumer() uint32 { return atomic.LoadUint32(r.consumer) }
func (r *ringCore) rawProducer() uint32 { return atomic.LoadUint32(r.producer) }

func (r *ringCore) advanceConsumer() { atomic.AddUint32(r.consumer, 1) }
func (r *ringCore) advanceProducer() { atomic.AddUint32(r.producer, 1) }

// canConsume reports whether the consumer may dequeue: masked producer !=
// masked consumer.
func (r *ringCore) canConsume() bool {
	return r.rawProducer()&r.mask != r.rawConsumer()&r.mask
}

// canProduce reports whether the producer may enqueue: (producer+1)&mask !=
// consumer&mask.
func (r *ringCore) canProduce() bool {
	return (r.rawProducer()+1)&r.mask != r.rawConsumer()&r.mask
}

func (r *ringCore) elemPtr(i uint32) unsafe.Pointer {
	return unsafe.Pointer(r.descBase + uintptr(i)*r.elemSize)
}
