//go:build linux
// +build linux

// File: ring/offset_ring.go
// OffsetRing is the u64-offset-element ring used for Fill and Completion.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package ring

import "unsafe"

// OffsetRing is a ring whose elements are bare 64-bit UMEM offsets: used by
// the Fill ring (userspace -> kernel, offsets of chunks available to
// receive into) and the Completion ring (kernel -> userspace, offsets of
// chunks whose transmission completed).
type OffsetRing struct {
	core *ringCore
}

// NewOffsetRing constructs an offset ring of numElems (a power of two)
// mmap'd from fd at pageOffset using the given offset triple.
func NewOffsetRing(fd int, numElems uint32, off Offsets, pageOffset int64) (*OffsetRing, error) {
	core, err := mapRing(fd, numElems, off, pageOffset, unsafe.Sizeof(uint64(0)))
	if err != nil {
		return nil, err
	}
	return &OffsetRing{core: core}, nil
}

// Close unmaps the ring's backing memory.
func (r *OffsetRing) Close() error { return r.core.unmap() }

// ConsumerIndex returns the masked consumer cursor.
func (r *OffsetRing) ConsumerIndex() uint32 { return r.core.consumerIndex() }

// ProducerIndex returns the masked producer cursor.
func (r *OffsetRing) ProducerIndex() uint32 { return r.core.producerIndex() }

// AdvanceConsumer advances the consumer cursor by one.
func (r *OffsetRing) AdvanceConsumer() { r.core.advanceConsumer() }

// AdvanceProducer advances the producer cursor by one.
func (r *OffsetRing) AdvanceProducer() { r.core.advanceProducer() }

// CanConsume reports whether an element is available to dequeue.
func (r *OffsetRing) CanConsume() bool { return r.core.canConsume() }

// CanProduce reports whether space is available to enqueue.
func (r *OffsetRing) CanProduce() bool { return r.core.canProduce() }

// GetNth returns the UMEM offset stored at descriptor index i.
func (r *OffsetRing) GetNth(i uint32) uint64 {
	return *(*uint64)(r.core.elemPtr(i))
}

// SetNth stores a UMEM offset at descriptor index i.
func (r *OffsetRing) SetNth(i uint32, offset uint64) {
	*(*uint64)(r.core.elemPtr(i)) = offset
}

// ProduceOffset writes offset at the current producer index then advances
// the producer cursor. Callers must have checked CanProduce beforehand.
func (r *OffsetRing) ProduceOffset(offset uint64) {
	r.SetNth(r.ProducerIndex(), offset)
	r.AdvanceProducer()
}
