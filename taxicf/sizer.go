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
	"sync"
)

// SizeFilter is the Filter Sizer stage (§4.3). It picks bin_size by binary
// search over [1, 2M] (M = max hash count across taxids) so the overall
// load T/(bins*bin_size) is as close as possible to loadFactor without
// exceeding it, and populates icfConfig.Bins / icfConfig.BinSize.
func SizeFilter(hashCount HashCount, icfConfig *ICFConfig, loadFactor float64, threads int) {
	var maxValue, total uint64
	for _, c := range hashCount {
		if c > maxValue {
			maxValue = c
		}
		total += c
	}

	if total == 0 {
		icfConfig.BinSize = 1
		icfConfig.Bins = 0
		return
	}

	counts := make([]uint64, 0, len(hashCount))
	for _, c := range hashCount {
		counts = append(counts, c)
	}

	lower := uint64(1)
	upper := maxValue * 2
	if upper < lower {
		upper = lower
	}

	var bestBinSize, bestBins uint64

	for lower <= upper {
		binSize := lower + (upper-lower)/2
		bins := binCount(counts, binSize, threads)

		load := float64(total) / float64(bins*binSize)

		if load > loadFactor {
			lower = binSize + 1
			continue
		}

		bestBinSize = binSize
		bestBins = bins
		if load == loadFactor {
			break
		}
		if binSize == 0 {
			break
		}
		upper = binSize - 1
	}

	icfConfig.BinSize = bestBinSize
	icfConfig.Bins = bestBins
}

// binCount computes sum(ceil(c/binSize)) over counts, using threads
// goroutines over disjoint chunks (the per-taxid reduction the sizer's
// candidate evaluation calls out as parallelizable).
func binCount(counts []uint64, binSize uint64, threads int) uint64 {
	n := len(counts)
	if n == 0 {
		return 0
	}
	if threads < 1 {
		threads = 1
	}
	if threads > n {
		threads = n
	}

	partials := make([]uint64, threads)
	chunk := (n + threads - 1) / threads

	var wg sync.WaitGroup
	for t := 0; t < threads; t++ {
		start := t * chunk
		end := start + chunk
		if start >= n {
			break
		}
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(t, start, end int) {
			defer wg.Done()
			var sum uint64
			for _, c := range counts[start:end] {
				sum += ceilDiv(c, binSize)
			}
			partials[t] = sum
		}(t, start, end)
	}
	wg.Wait()

	var total uint64
	for _, p := range partials {
		total += p
	}
	return total
}

// ceilDiv returns ceil(a/b), treating a==0 as 0 bins needed.
func ceilDiv(a, b uint64) uint64 {
	if a == 0 {
		return 0
	}
	return (a + b - 1) / b
}
