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
	"fmt"
	"time"

	"gonum.org/v1/gonum/stat"
)

// printBuildTime is a Go analogue of the original tool's stage timer: it
// logs how long a named stage took, only when verbose logging is enabled.
func printBuildTime(verbose bool, stage string, start time.Time) {
	if !verbose {
		return
	}
	log.Infof("%s: %s", stage, time.Since(start))
}

// Run drives the whole build pipeline (§4) end to end: parse the manifest,
// count minimizers, size the filter, assign bin ranges, fill the filter,
// and serialize the result to cfg.OutputFile.
func Run(cfg *BuildConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	overall := time.Now()

	t := time.Now()
	inputFiles, hashCount, fileInfo, err := ParseManifest(cfg.InputFile)
	if err != nil {
		log.Warningf("parsing manifest %s: %v", cfg.InputFile, err)
	}
	printBuildTime(cfg.Verbose, "parse manifest", t)
	if cfg.Verbose {
		log.Infof("%d taxids, %d files, %d invalid lines", len(inputFiles), fileInfo.FileNum, fileInfo.InvalidNum)
	}

	t = time.Now()
	if err := CountMinimizers(cfg, inputFiles, hashCount, &fileInfo); err != nil {
		return fmt.Errorf("counting minimizers: %w", err)
	}
	printBuildTime(cfg.Verbose, "count minimizers", t)
	if cfg.Verbose {
		log.Infof("%d sequences kept, %d skipped (< min length), %d bp total",
			fileInfo.SequenceNum, fileInfo.SkippedNum, fileInfo.BpLength)
		logHashCountSummary(hashCount)
	}

	icfConfig := &ICFConfig{KmerSize: cfg.KmerSize, WindowSize: cfg.WindowSize}
	t = time.Now()
	SizeFilter(hashCount, icfConfig, cfg.LoadFactor, cfg.Threads)
	printBuildTime(cfg.Verbose, "size filter", t)
	if cfg.Verbose {
		log.Infof("bin_size=%d bins=%d", icfConfig.BinSize, icfConfig.Bins)
	}

	t = time.Now()
	taxidBins := AssignBins(hashCount, icfConfig.BinSize, cfg.Threads)
	printBuildTime(cfg.Verbose, "assign bins", t)

	t = time.Now()
	f, err := BuildFilter(taxidBins, icfConfig, cfg.Threads)
	if err != nil {
		return fmt.Errorf("building filter: %w", err)
	}
	printBuildTime(cfg.Verbose, "build filter", t)

	t = time.Now()
	if err := WriteArchive(cfg.OutputFile, f, icfConfig, hashCount, taxidBins); err != nil {
		return fmt.Errorf("writing archive %s: %w", cfg.OutputFile, err)
	}
	printBuildTime(cfg.Verbose, "serialize", t)

	printBuildTime(cfg.Verbose, "total build time", overall)
	return nil
}

// logHashCountSummary reports the mean and standard deviation of per-taxid
// minimizer counts, a quick signal for whether a manifest's taxids are
// wildly imbalanced (which in turn skews how tight the sizer's load factor
// can get, since a handful of huge taxids dominate total).
func logHashCountSummary(hashCount HashCount) {
	if len(hashCount) == 0 {
		return
	}
	xs := make([]float64, 0, len(hashCount))
	for _, c := range hashCount {
		xs = append(xs, float64(c))
	}
	mean := stat.Mean(xs, nil)
	sd := stat.StdDev(xs, nil)
	log.Infof("hashCount per taxid: mean=%.1f stddev=%.1f", mean, sd)
}
