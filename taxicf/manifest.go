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
	"bufio"
	"strings"

	"github.com/shenwei356/xopen"
)

// ParseManifest reads a manifest file, one "<sequence-file-path> <taxid>"
// entry per line, and returns the taxid→files mapping, a taxid→count
// accumulator seeded at zero for every taxid seen, and aggregate file
// statistics. No failure here is fatal: an unopenable manifest yields an
// empty result plus a diagnostic logged by the caller.
func ParseManifest(path string) (InputFiles, HashCount, FileInfo, error) {
	inputFiles := make(InputFiles, 1024)
	hashCount := make(HashCount, 1024)
	var fileInfo FileInfo

	fh, err := xopen.Ropen(path)
	if err != nil {
		return inputFiles, hashCount, fileInfo, err
	}
	defer fh.Close()

	scanner := bufio.NewScanner(fh)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1<<20)

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")

		fields := strings.Fields(line)
		if len(fields) < 2 {
			fileInfo.InvalidNum++
			continue
		}

		seqPath, taxid := fields[0], fields[1]
		inputFiles[taxid] = append(inputFiles[taxid], seqPath)
		if _, ok := hashCount[taxid]; !ok {
			hashCount[taxid] = 0
		}
		fileInfo.FileNum++
	}

	return inputFiles, hashCount, fileInfo, scanner.Err()
}
