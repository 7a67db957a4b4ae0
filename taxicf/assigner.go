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
	"sync"
)

// AssignBins is the Bin Assigner stage (§4.4). It lays hashCount's taxids
// out in a fixed order, computes each taxid's bin width as
// ceil(hashCount[t]/binSize), and turns those widths into a parallel
// inclusive prefix sum: taxidBins[t] ends up holding the exclusive end of
// t's half-open bin range.
//
// The prefix sum is computed the way the original tool computes it: split
// the ordered taxids into near-equal chunks across threads, have each
// thread prefix-sum its own chunk independently, then serially fold in
// each thread's running total as an offset before the final parallel pass
// adds that offset across the chunk. Unlike the bin-width computation this
// replaces, ceilDiv here never truncates before rounding up; see DESIGN.md
// for why that divergence from the original C++ is intentional.
func AssignBins(hashCount HashCount, binSize uint64, threads int) TaxidBins {
	n := len(hashCount)
	taxidBins := make(TaxidBins, n)
	if n == 0 {
		return taxidBins
	}

	taxids := make([]string, 0, n)
	for t := range hashCount {
		taxids = append(taxids, t)
	}
	sort.Strings(taxids)

	widths := make([]uint64, n)
	prefix := make([]uint64, n)

	if threads < 1 {
		threads = 1
	}
	if threads > n {
		threads = n
	}
	chunk := (n + threads - 1) / threads

	bounds := make([][2]int, 0, threads)
	for start := 0; start < n; start += chunk {
		end := start + chunk
		if end > n {
			end = n
		}
		bounds = append(bounds, [2]int{start, end})
	}

	var wg sync.WaitGroup
	for _, b := range bounds {
		wg.Add(1)
		go func(start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				widths[i] = ceilDiv(hashCount[taxids[i]], binSize)
			}
			var running uint64
			for i := start; i < end; i++ {
				running += widths[i]
				prefix[i] = running
			}
		}(b[0], b[1])
	}
	wg.Wait()

	// Serial pass: each chunk's running total becomes the offset added to
	// every prefix value in the next chunk.
	offsets := make([]uint64, len(bounds))
	var running uint64
	for i, b := range bounds {
		offsets[i] = running
		if b[1] > b[0] {
			running += prefix[b[1]-1]
		}
	}

	wg = sync.WaitGroup{}
	for i, b := range bounds {
		wg.Add(1)
		go func(offset uint64, start, end int) {
			defer wg.Done()
			for i := start; i < end; i++ {
				prefix[i] += offset
			}
		}(offsets[i], b[0], b[1])
	}
	wg.Wait()

	for i, t := range taxids {
		taxidBins[t] = prefix[i]
	}
	return taxidBins
}
