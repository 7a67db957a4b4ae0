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

package taxicf

import (
	"sort"
	"testing"
)

// sequentialAssign computes the same prefix sum with a plain loop in sorted
// taxid order, the ground truth AssignBins' parallel version must match.
func sequentialAssign(hashCount HashCount, binSize uint64) TaxidBins {
	taxids := make([]string, 0, len(hashCount))
	for t := range hashCount {
		taxids = append(taxids, t)
	}
	sort.Strings(taxids)

	out := make(TaxidBins, len(taxids))
	var running uint64
	for _, t := range taxids {
		running += ceilDiv(hashCount[t], binSize)
		out[t] = running
	}
	return out
}

func TestAssignBinsMatchesSequential(t *testing.T) {
	hashCount := HashCount{
		"9606": 1000, "10090": 0, "562": 7, "4932": 4096, "7227": 1,
		"3702": 999, "6239": 12345, "7955": 3, "9031": 256, "9913": 17,
	}
	binSize := uint64(64)

	want := sequentialAssign(hashCount, binSize)
	for _, threads := range []int{1, 2, 3, 4, 16} {
		got := AssignBins(hashCount, binSize, threads)
		if len(got) != len(want) {
			t.Fatalf("threads=%d: len=%d, want %d", threads, len(got), len(want))
		}
		for taxid, end := range want {
			if got[taxid] != end {
				t.Fatalf("threads=%d: taxid %s got end=%d, want %d", threads, taxid, got[taxid], end)
			}
		}
	}
}

func TestAssignBinsWidthsSumToFinalEnd(t *testing.T) {
	hashCount := HashCount{"a": 130, "b": 0, "c": 65, "d": 1}
	binSize := uint64(64)

	got := AssignBins(hashCount, binSize, 4)

	var wantTotal uint64
	for _, c := range hashCount {
		wantTotal += ceilDiv(c, binSize)
	}

	var maxEnd uint64
	for _, end := range got {
		if end > maxEnd {
			maxEnd = end
		}
	}
	if maxEnd != wantTotal {
		t.Fatalf("final end = %d, want %d", maxEnd, wantTotal)
	}

	if got["b"]-0 != got["b"] {
		t.Fatalf("sanity check failed")
	}
}

func TestAssignBinsEmpty(t *testing.T) {
	got := AssignBins(HashCount{}, 64, 4)
	if len(got) != 0 {
		t.Fatalf("expected empty TaxidBins, got %v", got)
	}
}
