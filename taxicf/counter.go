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
	"io"
	"os"
	"sync"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/shenwei356/taxicf/minimizer"
	"github.com/shenwei356/taxicf/seqio"
)

type taxidFile struct {
	taxid string
	file  string
}

// CountMinimizers is the Minimizer Counter stage (§4.2). It processes every
// (taxid, file) pair with dynamic scheduling across cfg.Threads workers,
// appending each file's distinct minimizer hashes to tmp/<taxid>.mini and
// accumulating hashCount and fileInfo.
func CountMinimizers(cfg *BuildConfig, inputFiles InputFiles, hashCount HashCount, fileInfo *FileInfo) error {
	if err := resetScratchDir(); err != nil {
		return err
	}

	pairs := make([]taxidFile, 0, len(inputFiles))
	mutexes := make(map[string]*sync.Mutex, len(inputFiles))
	for taxid, files := range inputFiles {
		mutexes[taxid] = &sync.Mutex{}
		for _, f := range files {
			pairs = append(pairs, taxidFile{taxid: taxid, file: f})
		}
	}

	var hashCountMu sync.Mutex
	var fileInfoMu sync.Mutex

	var pbs *mpb.Progress
	var bar *mpb.Bar
	var chDuration chan time.Duration
	var doneDuration chan int
	if cfg.Verbose && len(pairs) > 0 {
		pbs = mpb.New(mpb.WithWidth(40), mpb.WithOutput(os.Stderr))
		bar = pbs.AddBar(int64(len(pairs)),
			mpb.PrependDecorators(
				decor.Name("counting minimizers: ", decor.WC{W: len("counting minimizers: "), C: decor.DindentRight}),
				decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
			),
			mpb.AppendDecorators(
				decor.Name("ETA: "),
				decor.EwmaETA(decor.ET_STYLE_GO, 10),
				decor.OnComplete(decor.Name(""), ". done"),
			),
		)
		chDuration = make(chan time.Duration, cfg.Threads)
		doneDuration = make(chan int)
		go func() {
			for t := range chDuration {
				bar.Increment()
				bar.EwmaIncrBy(1, t)
			}
			doneDuration <- 1
		}()
	}

	var wg sync.WaitGroup
	tokens := make(chan int, cfg.Threads)
	var sampleLogged bool
	var sampleMu sync.Mutex

	for _, pair := range pairs {
		tokens <- 1
		wg.Add(1)
		go func(pair taxidFile) {
			start := time.Now()
			defer func() {
				wg.Done()
				<-tokens
				if chDuration != nil {
					chDuration <- time.Since(start)
				}
			}()

			localHashCount := make(HashCount, 1)
			var localInfo FileInfo

			_, err := countOneFile(cfg, pair.file, &localInfo, localHashCount, pair.taxid, mutexes[pair.taxid], &sampleMu, &sampleLogged)
			if err != nil {
				log.Warningf("skipping %s (taxid %s): %v", pair.file, pair.taxid, err)
			}

			hashCountMu.Lock()
			for t, c := range localHashCount {
				hashCount[t] += c
			}
			hashCountMu.Unlock()

			fileInfoMu.Lock()
			fileInfo.Add(localInfo)
			fileInfoMu.Unlock()
		}(pair)
	}
	wg.Wait()

	if pbs != nil {
		close(chDuration)
		<-doneDuration
		pbs.Wait()
	}

	return nil
}

// countOneFile streams one sequence file, computes its distinct minimizer
// set, appends it to the taxid's scratch file, and folds the set's
// cardinality into localHashCount. taxidMutex is the taxid's entry in
// CountMinimizers' mutex map, which is pre-populated before the parallel
// region so looking it up never races on insertion.
func countOneFile(cfg *BuildConfig, file string, info *FileInfo, localHashCount HashCount, taxid string, taxidMutex *sync.Mutex, sampleMu *sync.Mutex, sampleLogged *bool) (int, error) {
	rdr, err := seqio.NewReader(file)
	if err != nil {
		return 0, err
	}
	defer rdr.Close()

	enc := minimizer.NewEncoder(cfg.KmerSize, cfg.WindowSize)
	if cfg.Verbose {
		sampleMu.Lock()
		if !*sampleLogged {
			enc.DecodeSample = true
		}
		sampleMu.Unlock()
	}

	set := make(map[uint64]struct{}, 4096)
	var scratch []uint64

	for {
		rec, err := rdr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return 0, err
		}

		if len(rec.Seq) < cfg.MinLength {
			info.SkippedNum++
			continue
		}
		info.SequenceNum++
		info.BpLength += uint64(len(rec.Seq))

		enc.Minimizers(rec.Seq, scratch, func(h uint64) {
			set[h] = struct{}{}
		})
	}

	if enc.DecodeSample && enc.LastSampleKmer() != "" {
		sampleMu.Lock()
		if !*sampleLogged {
			*sampleLogged = true
			log.Infof("sample canonical k-mer: %s", enc.LastSampleKmer())
		}
		sampleMu.Unlock()
	}

	if len(set) == 0 {
		localHashCount[taxid] += 0
		return 0, nil
	}

	hashes := make([]uint64, 0, len(set))
	for h := range set {
		hashes = append(hashes, h)
	}

	taxidMutex.Lock()
	err = appendHashes(taxid, hashes)
	taxidMutex.Unlock()
	if err != nil {
		return 0, err
	}

	localHashCount[taxid] += uint64(len(hashes))
	return len(hashes), nil
}
