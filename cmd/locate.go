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
	"sort"

	"github.com/rdleal/intervalst/interval"
	"github.com/spf13/cobra"

	"github.com/shenwei356/taxicf/taxicf"
)

var locateCmd = &cobra.Command{
	Use:   "locate <archive> <bin-index>...",
	Short: "Report which taxid owns each given bin index",
	Long: `Report which taxid owns each given bin index

Builds an interval tree over the archive's taxid bin ranges and reports,
for every requested bin index, which taxid's range contains it. Useful
for diagnosing a build or inspecting how unevenly bins are distributed
across taxids.
`,
	Args: cobra.MinimumNArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		archive := args[0]

		_, _, _, taxidBins, err := taxicf.ReadArchive(archive)
		checkError(err)

		cmp := func(a, b uint64) int {
			switch {
			case a < b:
				return -1
			case a > b:
				return 1
			default:
				return 0
			}
		}
		st := interval.NewSearchTree[string](cmp)

		taxids := make([]string, 0, len(taxidBins))
		for t := range taxidBins {
			taxids = append(taxids, t)
		}
		sort.Strings(taxids)

		var start uint64
		for _, t := range taxids {
			end := taxidBins[t]
			if end > start {
				checkError(st.Insert(start, end, t))
			}
			start = end
		}

		for _, arg := range args[1:] {
			var bin uint64
			if _, err := fmt.Sscanf(arg, "%d", &bin); err != nil {
				checkError(fmt.Errorf("invalid bin index: %s", arg))
			}

			taxid, found := st.AnyIntersection(bin, bin+1)
			if !found {
				fmt.Fprintf(outStream, "%d\t-\n", bin)
				continue
			}
			fmt.Fprintf(outStream, "%d\t%s\n", bin, taxid)
		}
	},
}

func init() {
	RootCmd.AddCommand(locateCmd)
}
