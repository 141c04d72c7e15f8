//go:build linux
// +build linux

// File: allocator/bitset.go
// bitsetAllocator is the atomic-bitset Allocator variant: one bit per
// chunk, packed into 64-bit words, with a relaxed "next free word" hint to
// keep TryAllocate roughly O(1) under low contention.
//
// This is a direct port of the umem_allocator/atomics.rs bitset design; Go's
// sync/atomic has no fetch_min/fetch_and, so both are emulated with a
// compare-and-swap retry loop (see lowerHintTo/clearBit below).
//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package allocator

import (
	"fmt"
	"math/bits"
	"sync/atomic"

	"github.com/momentics/hioload-ws/internal/xdpassert"
	"github.com/momentics/hioload-ws/umem"
)

// bitsetAllocator tracks free/allocated chunks as one bit per chunk (1 =
// allocated), packed 64 per word. NumChunks() must be divisible by 64.
type bitsetAllocator struct {
	u        *umem.UMEM
	storage  []atomic.Uint64
	nextHint atomic.Int64
}

// NewBitsetAllocator constructs a bitsetAllocator for u. u.NumChunks() must
// be divisible by 64; violating this is a programmer error.
func NewBitsetAllocator(u *umem.UMEM) Allocator {
	assertIndexWithinUMEM(u)
	xdpassert.True(u.NumChunks()%64 == 0,
		fmt.Sprintf("umem chunk count %d is not divisible by 64", u.NumChunks()))

	return &bitsetAllocator{
		u:       u,
		storage: make([]atomic.Uint64, u.NumChunks()/64),
	}
}

// lowerHintTo atomically sets nextHint to min(current, candidate), emulating
// Rust's AtomicUsize::fetch_min via a CAS retry loop.
func (a *bitsetAllocator) lowerHintTo(candidate int64) {
	for {
		cur := a.nextHint.Load()
		if candidate >= cur {
			return
		}
		if a.nextHint.CompareAndSwap(cur, candidate) {
			return
		}
	}
}

// clearBit atomically clears mask's bit in storage[wordIndex], emulating
// Rust's AtomicU64::fetch_and via a CAS retry loop. Returns the word's value
// immediately before the clear.
func (a *bitsetAllocator) clearBit(wordIndex int, mask uint64) uint64 {
	word := &a.storage[wordIndex]
	for {
		prev := word.Load()
		next := prev &^ mask
		if word.CompareAndSwap(prev, next) {
			return prev
		}
	}
}

func (a *bitsetAllocator) TryAllocate() (uint32, bool) {
	n := len(a.storage)
	for offset := 0; offset < n; offset++ {
		wordIndex := (int(a.nextHint.Load()) + offset) % n
		word := a.storage[wordIndex].Load()

		if word == ^uint64(0) {
			continue
		}

		for {
			// leadingOnes counts the run of set bits from the MSB, matching
			// Rust's u64::leading_ones on the same bit-numbering (bit 63 is
			// the first/leftmost chunk in the word).
			leadingOnes := bits.LeadingZeros64(^word)
			bitIndex := leadingOnes
			mask := uint64(1) << uint(63-bitIndex)
			allocated := word | mask

			if a.storage[wordIndex].CompareAndSwap(word, allocated) {
				if allocated == ^uint64(0) {
					a.lowerHintTo(int64((wordIndex + 1) % n))
				} else {
					a.lowerHintTo(int64(wordIndex))
				}
				return uint32(wordIndex*64 + bitIndex), true
			}
			word = a.storage[wordIndex].Load()
			if word == ^uint64(0) {
				break
			}
		}
	}
	return 0, false
}

func (a *bitsetAllocator) TryRelease(index uint32) bool {
	wordIndex := int(index) / 64
	bitIndex := int(index) - wordIndex*64

	if wordIndex >= len(a.storage) {
		return false
	}

	mask := uint64(1) << uint(63-bitIndex)
	prev := a.clearBit(wordIndex, mask)
	a.lowerHintTo(int64(wordIndex))

	return prev&mask != 0
}

func (a *bitsetAllocator) Release(index uint32)       { release(a, index) }
func (a *bitsetAllocator) ReleaseOffset(offset uint64) { releaseOffset(a, a.u, offset) }

func (a *bitsetAllocator) NumAvailable() int {
	total := 0
	for i := range a.storage {
		word := a.storage[i].Load()
		total += 64 - bits.OnesCount64(word)
	}
	return total
}

func (a *bitsetAllocator) NumAllocated() int {
	total := 0
	for i := range a.storage {
		word := a.storage[i].Load()
		total += bits.OnesCount64(word)
	}
	return total
}
