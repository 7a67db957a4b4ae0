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
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/shenwei356/util/pathutil"
)

var genManifestCmd = &cobra.Command{
	Use:   "gen-manifest",
	Short: "Generate a build manifest from a directory of taxid-named subdirectories",
	Long: `Generate a build manifest from a directory of taxid-named subdirectories

Expects a layout of:

  <in-dir>/<taxid>/<sequence files...>

Every sequence file found under a taxid's subdirectory becomes one
"<path> <taxid>" line in the manifest, one taxid subdirectory at a time.
`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)

		inDir := getFlagString(cmd, "in-dir")
		if inDir == "" {
			checkError(fmt.Errorf("flag -I/--in-dir is required"))
		}
		outFile := getFlagString(cmd, "out-file")
		if outFile == "" {
			checkError(fmt.Errorf("flag -O/--out-file is required"))
		}

		reFileStr := getFlagString(cmd, "file-regexp")
		re, err := compileCaseInsensitive(reFileStr)
		checkError(errors.Wrapf(err, "failed to parse regular expression for matching file: %s", reFileStr))

		entries, err := os.ReadDir(inDir)
		checkError(errors.Wrap(err, inDir))

		taxids := make([]string, 0, len(entries))
		for _, e := range entries {
			if e.IsDir() {
				taxids = append(taxids, e.Name())
			}
		}
		sort.Strings(taxids)

		out, err := os.Create(outFile)
		checkError(err)
		defer out.Close()

		var nFiles, nTaxids int
		for _, taxid := range taxids {
			taxidDir := filepath.Join(inDir, taxid)
			ok, err := pathutil.IsDir(taxidDir)
			checkError(errors.Wrap(err, taxidDir))
			if !ok {
				continue
			}

			files, err := getFileListFromDir(taxidDir, re, opt.NumCPUs)
			checkError(errors.Wrap(err, taxidDir))
			if len(files) == 0 {
				continue
			}
			sort.Strings(files)

			for _, file := range files {
				if _, err := fmt.Fprintf(out, "%s\t%s\n", file, taxid); err != nil {
					checkError(err)
				}
				nFiles++
			}
			nTaxids++
		}

		if opt.Verbose {
			log.Infof("wrote %d files across %d taxids to %s", nFiles, nTaxids, outFile)
		}
	},
}

func init() {
	RootCmd.AddCommand(genManifestCmd)

	genManifestCmd.Flags().StringP("in-dir", "I", "", formatFlagUsage("Directory of taxid-named subdirectories."))
	genManifestCmd.Flags().StringP("out-file", "O", "", formatFlagUsage("Output manifest path."))
	genManifestCmd.Flags().StringP("file-regexp", "r", `\.(fa|fasta|fq|fastq)(.gz)?$`,
		formatFlagUsage("Regular expression for matching sequence files."))
}
