// Copyright © 2023-2024 Wei Shen <shenwei356@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package icf implements an Interleaved Cuckoo Filter: a flat array of bins,
// each an independent cuckoo filter of fixed bucket width, addressed by a
// global bin index. Bins never share storage, so callers inserting into
// disjoint bin indices need no cross-bin synchronization; within a bin,
// slot updates are lock-free via atomic compare-and-swap.
package icf

import (
	"fmt"
	"math/rand"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/zeebo/wyhash"
)

const (
	fpBits     = 13 // fingerprint bits per slot
	cBits      = 3  // count bits per slot, sizeof(uint16)*8 - fpBits
	fpMask     = (1 << fpBits) - 1
	cMask      = (1 << cBits) - 1
	maxCount   = cMask
	bucketSize = 4   // slots per bucket, tuned for ~95% max load like a classical cuckoo filter
	maxKicks   = 500 // bounded random-walk kick budget before insertion is declared failed
)

// combine packs a fingerprint and a count into one slot value.
func combine(fp uint16, count uint16) uint32 {
	return uint32(fp&fpMask)<<cBits | uint32(count&cMask)
}

func sFinger(v uint32) uint16 { return uint16(v >> cBits) }
func sCount(v uint32) uint16  { return uint16(v & cMask) }

func upperPower2(x uint64) uint64 {
	if x < 1 {
		return 1
	}
	x--
	x |= x >> 1
	x |= x >> 2
	x |= x >> 4
	x |= x >> 8
	x |= x >> 16
	x |= x >> 32
	x++
	return x
}

// fingerprint derives a non-zero fpBits-wide fingerprint from a 64-bit
// minimizer hash.
func fingerprint(hash uint64) uint16 {
	var buf [8]byte
	for i := 0; i < 8; i++ {
		buf[i] = byte(hash >> (8 * i))
	}
	h := xxhash.Sum64(buf[:])
	return uint16(h%uint64(fpMask) + 1)
}

// KickLimitError reports that insertion into a bin exceeded the cuckoo
// kick budget; the caller treats this as a fatal build error.
type KickLimitError struct {
	BinIndex uint64
}

func (e *KickLimitError) Error() string {
	return fmt.Sprintf("icf: exceeded kick limit inserting into bin %d", e.BinIndex)
}

// ICF is an Interleaved Cuckoo Filter: bins×binSize capacity laid out as
// one independent cuckoo filter per bin.
type ICF struct {
	bins    []bin
	BinSize uint64 // capacity per bin, in fingerprints
}

type bin struct {
	buckets []bucket
}

type bucket struct {
	slots [bucketSize]uint32
}

// New allocates an ICF with the given number of bins, each holding
// upperPower2(binSize) slots (at least one bucket of bucketSize slots); no
// extra room is added beyond that rounding.
func New(bins uint64, binSize uint64) *ICF {
	f := &ICF{
		bins:    make([]bin, bins),
		BinSize: binSize,
	}
	numBuckets := upperPower2(binSize) / bucketSize
	if numBuckets < 1 {
		numBuckets = 1
	}
	for i := range f.bins {
		f.bins[i].buckets = make([]bucket, numBuckets)
	}
	return f
}

// Bins returns the number of bins in the filter.
func (f *ICF) Bins() uint64 { return uint64(len(f.bins)) }

func (b *bin) indexHash(h uint64) uint64 {
	return h % uint64(len(b.buckets))
}

func (b *bin) altIndex(index uint64, fp uint16) uint64 {
	var buf [2]byte
	buf[0] = byte(fp >> 8)
	buf[1] = byte(fp)
	seed := wyhash.Hash(buf[:], 0x9E3779B97F4A7C15)
	return (index ^ seed) % uint64(len(b.buckets))
}

func (bk *bucket) contains(fp uint16) bool {
	for _, v := range bk.slots {
		if sCount(v) > 0 && sFinger(v) == fp {
			return true
		}
	}
	return false
}

// tryAdd attempts to place v in an empty slot, or bump the count of a
// matching fingerprint's slot. Returns true if v was consumed.
func (bk *bucket) tryAdd(fp uint16, v uint32) bool {
	for i := range bk.slots {
		for {
			old := bk.slots[i]
			if sCount(old) == 0 {
				if atomic.CompareAndSwapUint32(&bk.slots[i], old, v) {
					return true
				}
				continue
			}
			if sFinger(old) == fp {
				if sCount(old) >= maxCount {
					return true // saturated counter, treat as already present
				}
				bumped := combine(fp, sCount(old)+1)
				if atomic.CompareAndSwapUint32(&bk.slots[i], old, bumped) {
					return true
				}
				continue
			}
			break
		}
	}
	return false
}

// kickOne evicts a random slot's contents and installs v in its place,
// returning the evicted value.
func (bk *bucket) kickOne(v uint32) uint32 {
	i := rand.Intn(bucketSize)
	for {
		old := bk.slots[i]
		if atomic.CompareAndSwapUint32(&bk.slots[i], old, v) {
			return old
		}
	}
}

// insertTag inserts hash into the bin, following the classical two-choice
// cuckoo scheme with a bounded random-walk eviction chain.
func (b *bin) insertTag(binIndex uint64, hash uint64) error {
	fp := fingerprint(hash)
	i1 := b.indexHash(hash)
	i2 := b.altIndex(i1, fp)

	v := combine(fp, 1)
	if b.buckets[i1].tryAdd(fp, v) {
		return nil
	}
	if b.buckets[i2].tryAdd(fp, v) {
		return nil
	}

	idx := i1
	if rand.Intn(2) == 1 {
		idx = i2
	}
	for k := 0; k < maxKicks; k++ {
		evicted := b.buckets[idx].kickOne(v)
		efp := sFinger(evicted)
		idx = b.altIndex(idx, efp)
		v = combine(efp, sCount(evicted))
		if b.buckets[idx].tryAdd(efp, v) {
			return nil
		}
	}
	return &KickLimitError{BinIndex: binIndex}
}

// InsertTag inserts a 64-bit minimizer hash into the bin at binIndex. It is
// safe to call concurrently for distinct binIndex values; calls targeting
// the same bin are also safe, serialized internally by atomic CAS, but
// callers of this build pipeline never need that since bin ranges are
// disjoint per taxid.
func (f *ICF) InsertTag(binIndex uint64, hash uint64) error {
	return f.bins[binIndex].insertTag(binIndex, hash)
}

// Contains reports whether hash may have been inserted into any bin in
// [start, end). False positives are possible; false negatives are not.
func (f *ICF) Contains(start, end uint64, hash uint64) bool {
	fp := fingerprint(hash)
	for bi := start; bi < end; bi++ {
		b := &f.bins[bi]
		i1 := b.indexHash(hash)
		if b.buckets[i1].contains(fp) {
			return true
		}
		i2 := b.altIndex(i1, fp)
		if b.buckets[i2].contains(fp) {
			return true
		}
	}
	return false
}
