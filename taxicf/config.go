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

// Package taxicf builds a taxid-partitioned Interleaved Cuckoo Filter from a
// manifest of sequence files, following the pipeline: parse manifest, count
// minimizers per taxid, size the filter, assign bin ranges, fill the filter,
// and serialize the result.
package taxicf

import "fmt"

// BuildConfig holds the immutable parameters of one build run.
type BuildConfig struct {
	KmerSize   int     // k-mer size, <= 32
	WindowSize int     // minimizer window size, >= KmerSize
	MinLength  int     // sequences shorter than this are skipped
	LoadFactor float64 // target load factor, in (0, 1]
	Threads    int     // worker pool size
	Mode       string  // free-form tag recorded for operator bookkeeping
	InputFile  string  // manifest path
	OutputFile string  // archive path
	Verbose    bool
}

// Validate checks the invariants BuildConfig must satisfy before a run
// starts.
func (c *BuildConfig) Validate() error {
	if c.KmerSize < 1 || c.KmerSize > 32 {
		return fmt.Errorf("invalid kmer size: %d, valid range [1, 32]", c.KmerSize)
	}
	if c.WindowSize < c.KmerSize {
		return fmt.Errorf("window size (%d) must be >= kmer size (%d)", c.WindowSize, c.KmerSize)
	}
	if c.MinLength < 0 {
		return fmt.Errorf("invalid min length: %d", c.MinLength)
	}
	if c.LoadFactor <= 0 || c.LoadFactor > 1 {
		return fmt.Errorf("invalid load factor: %g, valid range (0, 1]", c.LoadFactor)
	}
	if c.InputFile == "" {
		return fmt.Errorf("input manifest path is required")
	}
	if c.OutputFile == "" {
		return fmt.Errorf("output archive path is required")
	}
	if c.Threads <= 0 {
		c.Threads = 1
	}
	return nil
}

// ICFConfig holds the filter parameters derived by the Filter Sizer stage.
type ICFConfig struct {
	KmerSize   int
	WindowSize int
	Bins       uint64 // total number of bins in the filter
	BinSize    uint64 // capacity (hashes) per bin
}

// FileInfo accumulates monotonic statistics across the whole build.
type FileInfo struct {
	FileNum     uint64
	InvalidNum  uint64
	SequenceNum uint64
	SkippedNum  uint64
	BpLength    uint64
}

// Add merges another FileInfo's counters into this one. Used to fold
// per-worker deltas into the shared accumulator.
func (fi *FileInfo) Add(o FileInfo) {
	fi.FileNum += o.FileNum
	fi.InvalidNum += o.InvalidNum
	fi.SequenceNum += o.SequenceNum
	fi.SkippedNum += o.SkippedNum
	fi.BpLength += o.BpLength
}

// InputFiles maps a taxid to the ordered list of sequence file paths
// registered for it in the manifest.
type InputFiles map[string][]string

// HashCount maps a taxid to its accumulated distinct-minimizer count, as
// defined in stage 2 (§4.2): the sum of per-file distinct-hash-set sizes.
type HashCount map[string]uint64

// TaxidBins maps a taxid to the exclusive end of its half-open bin range.
// The start of a taxid's range is the end of the taxid immediately
// preceding it in the canonical iteration order used by the Bin Assigner
// (0 for the first).
type TaxidBins map[string]uint64
