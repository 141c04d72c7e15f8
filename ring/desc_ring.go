//go:build linux
// +build linux

// File: ring/desc_ring.go
// DescRing is the 16-byte-descriptor-element ring used for RX and TX.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package ring

import (
	"unsafe"

	"github.com/momentics/hioload-ws/umem"
)

// Desc is the AF_XDP descriptor layout: address into the UMEM, frame
// length, and kernel-defined options bits. This mirrors unix.XDPDesc
// byte-for-byte (addr u64, len u32, options u32) so it can be overlaid
// directly onto the kernel-shared mmap region.
type Desc struct {
	Addr    uint64
	Len     uint32
	Options uint32
}

// DescRing is a ring whose elements are Desc values: used by the RX ring
// (kernel -> userspace, descriptors of received frames) and the TX ring
// (userspace -> kernel, descriptors of frames to transmit).
type DescRing struct {
	core *ringCore
}

// NewDescRing constructs a descriptor ring of numElems (a power of two)
// mmap'd from fd at pageOffset using the given offset triple.
func NewDescRing(fd int, numElems uint32, off Offsets, pageOffset int64) (*DescRing, error) {
	core, err := mapRing(fd, numElems, off, pageOffset, unsafe.Sizeof(Desc{}))
	if err != nil {
		return nil, err
	}
	return &DescRing{core: core}, nil
}

// Close unmaps the ring's backing memory.
func (r *DescRing) Close() error { return r.core.unmap() }

// ConsumerIndex returns the masked consumer cursor.
func (r *DescRing) ConsumerIndex() uint32 { return r.core.consumerIndex() }

// ProducerIndex returns the masked producer cursor.
func (r *DescRing) ProducerIndex() uint32 { return r.core.producerIndex() }

// AdvanceConsumer advances the consumer cursor by one.
func (r *DescRing) AdvanceConsumer() { r.core.advanceConsumer() }

// AdvanceProducer advances the producer cursor by one.
func (r *DescRing) AdvanceProducer() { r.core.advanceProducer() }

// CanConsume reports whether a descriptor is available to dequeue.
func (r *DescRing) CanConsume() bool { return r.core.canConsume() }

// CanProduce reports whether space is available to enqueue a descriptor.
func (r *DescRing) CanProduce() bool { return r.core.canProduce() }

// GetNth returns the descriptor at index i.
func (r *DescRing) GetNth(i uint32) Desc {
	return *(*Desc)(r.core.elemPtr(i))
}

// SetNth stores a descriptor at index i.
func (r *DescRing) SetNth(i uint32, d Desc) {
	*(*Desc)(r.core.elemPtr(i)) = d
}

// SliceOf materialises a zero-copy byte view of the frame referenced by the
// descriptor at index i. If setOffset/setLen are non-nil, the descriptor's
// addr/len are updated first (used when producing a TX descriptor).
func (r *DescRing) SliceOf(i uint32, u *umem.UMEM, setOffset *uint64, setLen *uint32) []byte {
	d := r.GetNth(i)
	if setOffset != nil {
		d.Addr = *setOffset
	}
	if setLen != nil {
		d.Len = *setLen
	}
	if setOffset != nil || setLen != nil {
		r.SetNth(i, d)
	}
	return u.Frame(d.Addr, d.Len)
}
