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
	"os"
	"sort"
	"sync"

	"github.com/shenwei356/taxicf/icf"
)

// BuildFilter is the Filter Builder stage (§4.5). It allocates an ICF of
// icfConfig.Bins x icfConfig.BinSize capacity, then for every taxid in
// parallel reads its scratch file and round-robins each hash across the
// taxid's assigned bin range, deleting the scratch file once drained.
//
// Taxids are processed with dynamic scheduling, mirroring the Minimizer
// Counter's worker pool. Bin ranges are disjoint by construction, so no
// synchronization is needed across taxids; within a taxid, inserts happen
// strictly sequentially in scratch-file order, as required to round-robin
// correctly.
func BuildFilter(taxidBins TaxidBins, icfConfig *ICFConfig, threads int) (*icf.ICF, error) {
	f := icf.New(icfConfig.Bins, icfConfig.BinSize)

	taxids := make([]string, 0, len(taxidBins))
	for t := range taxidBins {
		taxids = append(taxids, t)
	}
	sort.Strings(taxids)

	var start uint64
	ranges := make(map[string][2]uint64, len(taxids))
	for _, t := range taxids {
		end := taxidBins[t]
		ranges[t] = [2]uint64{start, end}
		start = end
	}

	if threads < 1 {
		threads = 1
	}

	var wg sync.WaitGroup
	tokens := make(chan int, threads)
	var firstErr error
	var errMu sync.Mutex

	for _, t := range taxids {
		tokens <- 1
		wg.Add(1)
		go func(taxid string, r [2]uint64) {
			defer func() {
				wg.Done()
				<-tokens
			}()

			if err := fillTaxidRange(f, taxid, r[0], r[1]); err != nil {
				errMu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				errMu.Unlock()
			}
		}(t, ranges[t])
	}
	wg.Wait()

	return f, firstErr
}

// fillTaxidRange drains one taxid's scratch file into [start, end), cycling
// back to start whenever pos reaches end. A missing scratch file is logged
// and skipped, leaving the taxid's bins empty; an ICF insertion failure is
// fatal.
func fillTaxidRange(f *icf.ICF, taxid string, start, end uint64) error {
	if start == end {
		return deleteScratch(taxid)
	}

	pos := start
	err := readScratchHashes(taxid, func(hash uint64) error {
		if err := f.InsertTag(pos, hash); err != nil {
			return err
		}
		pos++
		if pos == end {
			pos = start
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			log.Warningf("no scratch file for taxid %s, leaving its bins empty", taxid)
			return nil
		}
		return err
	}

	return deleteScratch(taxid)
}
