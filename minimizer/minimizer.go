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

// Package minimizer computes window minimizers over DNA sequences: each
// k-mer is canonicalized against its reverse complement, hashed, and the
// minimum hash in every sliding window of k-mers is emitted, with
// consecutive repeats collapsed to a single emission.
package minimizer

import (
	"container/list"

	"github.com/shenwei356/kmers"
)

// seed is the base value adjust_seed derives from. It matches the constant
// used by the C++ reference this package's semantics were ported from.
const seed uint64 = 0x8F3F73B5CF1C9ADE

// AdjustSeed derives the per-k seed used to XOR-salt minimizer hashes, so
// that filters built with different k-mer sizes don't collide on identical
// low-order bits.
func AdjustSeed(kmerSize int) uint64 {
	shift := uint(64 - 2*kmerSize)
	return seed >> shift
}

// mix64 is a general-purpose 64-bit avalanche mixer.
// https://gist.github.com/badboy/6267743 (mask variant).
func mix64(key uint64) uint64 {
	key = (^key) + (key << 21)
	key = key ^ (key >> 24)
	key = (key + (key << 3)) + (key << 8)
	key = key ^ (key >> 14)
	key = (key + (key << 2)) + (key << 4)
	key = key ^ (key >> 28)
	key = key + (key << 31)
	return key
}

var base2bit [256]uint8

func init() {
	for i := range base2bit {
		base2bit[i] = 0xff
	}
	base2bit['A'], base2bit['a'] = 0, 0
	base2bit['C'], base2bit['c'] = 1, 1
	base2bit['G'], base2bit['g'] = 2, 2
	base2bit['T'], base2bit['t'] = 3, 3
}

// revComp returns the reverse complement of a k-mer 2-bit code, where the
// first base occupies the most significant pair of bits.
func revComp(code uint64, k int) uint64 {
	var rc uint64
	c := code
	for i := 0; i < k; i++ {
		rc = (rc << 2) | (3 - (c & 3))
		c >>= 2
	}
	return rc
}

// Encoder computes the stream of canonical k-mer hashes, and minimizers
// over sliding windows of those hashes, for one (kmer_size, window_size)
// configuration.
type Encoder struct {
	K      int
	W      int // window size, in bases
	Seed   uint64
	nKmers int // k-mers per window: W - K + 1

	// DecodeSample, if true, causes the first canonical k-mer encountered
	// by kmerHashes to be kept decodable via LastSampleKmer, for verbose
	// diagnostics. It is not safe for concurrent Encoders sharing state;
	// each worker should use its own Encoder.
	DecodeSample  bool
	sampleTaken   bool
	lastSampleStr string
}

// NewEncoder builds an Encoder for the given k-mer and window size. Callers
// should construct one Encoder per worker goroutine; Encoder carries no
// shared mutable state besides an optional debug sample.
func NewEncoder(kmerSize, windowSize int) *Encoder {
	return &Encoder{
		K:      kmerSize,
		W:      windowSize,
		Seed:   AdjustSeed(kmerSize),
		nKmers: windowSize - kmerSize + 1,
	}
}

// LastSampleKmer returns the decoded bases of the first canonical k-mer
// this Encoder hashed, if DecodeSample was set. Used only for verbose
// logging, never for correctness.
func (e *Encoder) LastSampleKmer() string {
	return e.lastSampleStr
}

// kmerHashes encodes every canonical k-mer hash of seq, in order, into dst
// (reused across calls to avoid reallocation).
func (e *Encoder) kmerHashes(seq []byte, dst []uint64) []uint64 {
	k := e.K
	n := len(seq) - k + 1
	if n <= 0 {
		return dst[:0]
	}
	if cap(dst) < n {
		dst = make([]uint64, n)
	}
	dst = dst[:n]

	var code uint64
	var valid int // number of valid trailing bases accumulated
	mask := uint64(1)<<(2*uint(k)) - 1

	for i := 0; i < len(seq); i++ {
		b := base2bit[seq[i]]
		if b == 0xff {
			// Non-ACGT base: restart accumulation; positions that can't
			// form a full k-mer yet are left unwritten.
			code = 0
			valid = 0
			continue
		}
		code = ((code << 2) | uint64(b)) & mask
		valid++
		if valid < k {
			continue
		}
		pos := i - k + 1
		rc := revComp(code, k)
		canon := code
		if rc < canon {
			canon = rc
		}
		if e.DecodeSample && !e.sampleTaken {
			e.sampleTaken = true
			e.lastSampleStr = string(kmers.MustDecode(canon, k))
		}
		dst[pos] = mix64(canon) ^ e.Seed
	}

	// Slots following a non-ACGT run hold a stale or zero code; Minimizers
	// never trusts them directly, consulting validKmerMask first.
	return dst
}

// Minimizers streams the deduplicated (consecutive-equal collapsed)
// minimizer hashes of one sequence to emit, in window order. Sequences
// shorter than the window size yield nothing.
func (e *Encoder) Minimizers(seq []byte, scratch []uint64, emit func(hash uint64)) {
	if len(seq) < e.W {
		return
	}

	hashes := e.kmerHashes(seq, scratch)
	valid := validKmerMask(seq, e.K)

	win := e.nKmers
	dq := list.New() // monotonic deque of indices into hashes, increasing hash

	var lastEmitted uint64
	var hasLast bool

	pushBack := func(i int) {
		for dq.Len() > 0 && hashes[dq.Back().Value.(int)] >= hashes[i] {
			dq.Remove(dq.Back())
		}
		dq.PushBack(i)
	}
	popExpired := func(windowStart int) {
		for dq.Len() > 0 && dq.Front().Value.(int) < windowStart {
			dq.Remove(dq.Front())
		}
	}

	for i := 0; i < len(hashes); i++ {
		if !valid[i] {
			continue
		}
		pushBack(i)
		windowStart := i - win + 1
		if windowStart < 0 {
			continue
		}
		popExpired(windowStart)
		if dq.Len() == 0 {
			continue
		}
		m := hashes[dq.Front().Value.(int)]
		if !hasLast || m != lastEmitted {
			emit(m)
			lastEmitted = m
			hasLast = true
		}
	}
}

// validKmerMask reports, for every k-mer start position in seq, whether the
// k bases starting there are all valid ACGT bases.
func validKmerMask(seq []byte, k int) []bool {
	n := len(seq) - k + 1
	if n <= 0 {
		return nil
	}
	mask := make([]bool, n)
	run := 0 // length of the current run of valid bases ending at i
	for i := 0; i < len(seq); i++ {
		if base2bit[seq[i]] == 0xff {
			run = 0
		} else {
			run++
		}
		if i-k+1 >= 0 && i-k+1 < n {
			mask[i-k+1] = run >= k
		}
	}
	return mask
}
