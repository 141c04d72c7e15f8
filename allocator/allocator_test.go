//go:build linux
// +build linux

// File: allocator/allocator_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package allocator

import (
	"sync"
	"testing"

	"github.com/momentics/hioload-ws/umem"
)

func newTestUMEM(t *testing.T, numChunks int) *umem.UMEM {
	t.Helper()
	u, err := umem.New(umem.ChunkSize2K, numChunks)
	if err != nil {
		t.Fatalf("umem.New: %v", err)
	}
	t.Cleanup(func() { _ = u.Release() })
	return u
}

// crunchAllocator exhausts an allocator, verifies every index is unique and
// within range, releases them all, and verifies full capacity returns.
func crunchAllocator(t *testing.T, a Allocator, numChunks int) {
	t.Helper()

	seen := make(map[uint32]bool, numChunks)
	for i := 0; i < numChunks; i++ {
		idx, ok := a.TryAllocate()
		if !ok {
			t.Fatalf("TryAllocate failed at iteration %d of %d", i, numChunks)
		}
		if idx >= uint32(numChunks) {
			t.Fatalf("allocated index %d out of range [0,%d)", idx, numChunks)
		}
		if seen[idx] {
			t.Fatalf("index %d allocated twice", idx)
		}
		seen[idx] = true
	}

	if _, ok := a.TryAllocate(); ok {
		t.Fatalf("expected allocator to be exhausted")
	}
	if a.NumAvailable() != 0 {
		t.Errorf("NumAvailable: got %d want 0", a.NumAvailable())
	}
	if a.NumAllocated() != numChunks {
		t.Errorf("NumAllocated: got %d want %d", a.NumAllocated(), numChunks)
	}

	for idx := range seen {
		a.Release(idx)
	}
	if a.NumAvailable() != numChunks {
		t.Errorf("NumAvailable after full release: got %d want %d", a.NumAvailable(), numChunks)
	}

	idx, ok := a.TryAllocate()
	if !ok {
		t.Fatalf("expected allocation to succeed after full release")
	}
	a.Release(idx)
}

func TestQueueAllocator_Crunch(t *testing.T) {
	u := newTestUMEM(t, 100)
	crunchAllocator(t, NewQueueAllocator(u), 100)
}

func TestBitsetAllocator_Crunch(t *testing.T) {
	u := newTestUMEM(t, 128)
	crunchAllocator(t, NewBitsetAllocator(u), 128)
}

func TestBitsetAllocator_ReleaseUnallocatedReturnsFalse(t *testing.T) {
	u := newTestUMEM(t, 64)
	a := NewBitsetAllocator(u)

	if a.TryRelease(5) {
		t.Errorf("releasing a never-allocated index should report false")
	}
}

func TestBitsetAllocator_ReleaseOutOfRangeReturnsFalse(t *testing.T) {
	u := newTestUMEM(t, 64)
	a := NewBitsetAllocator(u)

	if a.TryRelease(999) {
		t.Errorf("releasing an out-of-range index should report false")
	}
}

func TestQueueAllocator_ReleaseOffset(t *testing.T) {
	u := newTestUMEM(t, 16)
	a := NewQueueAllocator(u)

	idx, ok := a.TryAllocate()
	if !ok {
		t.Fatalf("TryAllocate failed")
	}
	offset := u.OffsetOf(int(idx))
	a.ReleaseOffset(offset)

	if a.NumAvailable() != 16 {
		t.Errorf("NumAvailable after ReleaseOffset: got %d want 16", a.NumAvailable())
	}
}

// TestAllocators_ConcurrentUniqueAllocation stresses both variants from many
// goroutines and verifies no index is ever handed out twice concurrently.
func TestAllocators_ConcurrentUniqueAllocation(t *testing.T) {
	const numChunks = 1024
	const workers = 16

	for _, variant := range []struct {
		name string
		new  func(*umem.UMEM) Allocator
	}{
		{"queue", NewQueueAllocator},
		{"bitset", NewBitsetAllocator},
	} {
		t.Run(variant.name, func(t *testing.T) {
			u := newTestUMEM(t, numChunks)
			a := variant.new(u)

			var mu sync.Mutex
			seen := make(map[uint32]bool, numChunks)
			var wg sync.WaitGroup

			for w := 0; w < workers; w++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for {
						idx, ok := a.TryAllocate()
						if !ok {
							return
						}
						mu.Lock()
						if seen[idx] {
							mu.Unlock()
							t.Errorf("index %d allocated twice", idx)
							return
						}
						seen[idx] = true
						mu.Unlock()
					}
				}()
			}
			wg.Wait()

			if len(seen) != numChunks {
				t.Errorf("total unique allocations: got %d want %d", len(seen), numChunks)
			}
		})
	}
}
