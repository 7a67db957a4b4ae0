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

package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/shenwei356/taxicf/taxicf"
)

const minK = 3

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build a taxid-partitioned Interleaved Cuckoo Filter from a sequence manifest",
	Long: `Build a taxid-partitioned Interleaved Cuckoo Filter from a sequence manifest

The manifest is a plain text file with one "<sequence-file-path> <taxid>"
pair per line. Every sequence file is scanned for window minimizers, the
filter is sized to the target load factor, and the result is written to
a single binary archive.
`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)
		defaults, _ := loadBuildDefaults(opt.ConfigFile)

		var fhLog *os.File
		if opt.Log2File {
			fhLog = addLog(opt.LogFile, true)
		}
		timeStart := time.Now()
		defer func() {
			if opt.Verbose || opt.Log2File {
				log.Info()
				log.Infof("elapsed time: %s", time.Since(timeStart))
				log.Info()
			}
			if opt.Log2File {
				fhLog.Close()
			}
		}()

		manifest := getFlagString(cmd, "manifest")
		if manifest == "" {
			checkError(fmt.Errorf("flag -m/--manifest is required"))
		}
		outFile := getFlagString(cmd, "out-file")
		if outFile == "" {
			checkError(fmt.Errorf("flag -O/--out-file is required"))
		}

		k := getFlagInt(cmd, "kmer")
		if k <= 0 {
			k = defaults.KmerSize
		}
		if k < minK || k > 32 {
			checkError(fmt.Errorf("the value of flag -k/--kmer should be in range of [%d, 32]", minK))
		}

		w := getFlagInt(cmd, "window")
		if w <= 0 {
			w = defaults.WindowSize
		}

		minLen := getFlagInt(cmd, "min-len")
		if minLen <= 0 {
			minLen = defaults.MinLength
		}

		loadFactor := getFlagFloat64(cmd, "load-factor")
		if loadFactor <= 0 {
			loadFactor = defaults.LoadFactor
		}

		mode := getFlagString(cmd, "mode")
		if mode == "" {
			mode = defaults.Mode
		}

		cfg := &taxicf.BuildConfig{
			KmerSize:   k,
			WindowSize: w,
			MinLength:  minLen,
			LoadFactor: loadFactor,
			Threads:    opt.NumCPUs,
			Mode:       mode,
			InputFile:  manifest,
			OutputFile: outFile,
			Verbose:    opt.Verbose,
		}

		checkError(taxicf.Run(cfg))
	},
}

func init() {
	RootCmd.AddCommand(buildCmd)

	buildCmd.Flags().StringP("manifest", "m", "", formatFlagUsage("Manifest file: one '<sequence-file-path> <taxid>' pair per line."))
	buildCmd.Flags().StringP("out-file", "O", "", formatFlagUsage("Output archive path."))
	buildCmd.Flags().IntP("kmer", "k", 0, formatFlagUsage("K-mer size, 0 to use the config default."))
	buildCmd.Flags().IntP("window", "w", 0, formatFlagUsage("Minimizer window size, 0 to use the config default."))
	buildCmd.Flags().IntP("min-len", "", 0, formatFlagUsage("Minimum sequence length to consider, 0 to use the config default."))
	buildCmd.Flags().Float64P("load-factor", "", 0, formatFlagUsage("Target filter load factor, 0 to use the config default."))
	buildCmd.Flags().StringP("mode", "", "", formatFlagUsage("Free-form tag recorded for operator bookkeeping."))
}
