//go:build linux
// +build linux

// File: ring/ring_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package ring

import (
	"testing"

	"golang.org/x/sys/unix"
)

// backingFile creates a memfd large enough to back a ring's mmap region,
// standing in for the socket fd an AF_XDP ring would normally be mmap'd
// from. This lets the SPSC cursor/mask logic be exercised without a real
// kernel XDP socket.
func backingFile(t *testing.T, size int) int {
	t.Helper()
	fd, err := unix.MemfdCreate("ring-test", 0)
	if err != nil {
		t.Fatalf("memfd_create: %v", err)
	}
	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		unix.Close(fd)
		t.Fatalf("ftruncate: %v", err)
	}
	t.Cleanup(func() { unix.Close(fd) })
	return fd
}

func testOffsets(descOffset uint64) Offsets {
	return Offsets{
		Producer: 0,
		Consumer: 4,
		Desc:     descOffset,
	}
}

func TestOffsetRing_SPSCRoundTrip(t *testing.T) {
	const n = 8
	fd := backingFile(t, 4096)
	r, err := NewOffsetRing(fd, n, testOffsets(64), 0)
	if err != nil {
		t.Fatalf("NewOffsetRing: %v", err)
	}
	defer r.Close()

	produced := []uint64{0, 2048, 4096, 6144}
	for _, off := range produced {
		if !r.CanProduce() {
			t.Fatalf("expected CanProduce before producing %d", off)
		}
		r.ProduceOffset(off)
	}

	var consumed []uint64
	for range produced {
		if !r.CanConsume() {
			t.Fatalf("expected CanConsume")
		}
		consumed = append(consumed, r.GetNth(r.ConsumerIndex()))
		r.AdvanceConsumer()
	}

	for i, want := range produced {
		if consumed[i] != want {
			t.Errorf("index %d: got %d want %d", i, consumed[i], want)
		}
	}
	if r.CanConsume() {
		t.Errorf("ring should be empty after consuming all produced elements")
	}
}

func TestRing_FullEmptyInvariants(t *testing.T) {
	const n = 4
	fd := backingFile(t, 4096)
	r, err := NewOffsetRing(fd, n, testOffsets(64), 0)
	if err != nil {
		t.Fatalf("NewOffsetRing: %v", err)
	}
	defer r.Close()

	if r.CanConsume() {
		t.Errorf("freshly constructed ring must be empty")
	}

	// Fill until CanProduce reports false: capacity is n-1 usable slots.
	filled := 0
	for r.CanProduce() {
		r.ProduceOffset(uint64(filled))
		filled++
	}
	if filled != n-1 {
		t.Errorf("expected to fill %d slots before full, filled %d", n-1, filled)
	}
	if r.CanProduce() {
		t.Errorf("ring should report full")
	}

	for i := 0; i < filled; i++ {
		if !r.CanConsume() {
			t.Fatalf("expected CanConsume at step %d", i)
		}
		r.AdvanceConsumer()
	}
	if r.CanConsume() {
		t.Errorf("ring should be empty after draining")
	}
}

func TestDescRing_ProduceConsumeOrder(t *testing.T) {
	const n = 8
	fd := backingFile(t, 8192)
	r, err := NewDescRing(fd, n, testOffsets(64), 0)
	if err != nil {
		t.Fatalf("NewDescRing: %v", err)
	}
	defer r.Close()

	want := []Desc{
		{Addr: 0, Len: 64, Options: 0},
		{Addr: 2048, Len: 128, Options: 0},
		{Addr: 4096, Len: 1500, Options: 0},
	}
	for _, d := range want {
		idx := r.ProducerIndex()
		r.SetNth(idx, d)
		r.AdvanceProducer()
	}

	for i, w := range want {
		idx := r.ConsumerIndex()
		got := r.GetNth(idx)
		if got != w {
			t.Errorf("index %d: got %+v want %+v", i, got, w)
		}
		r.AdvanceConsumer()
	}
}
