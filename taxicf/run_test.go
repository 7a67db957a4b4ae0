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
	"os"
	"path/filepath"
	"testing"

	"github.com/shenwei356/taxicf/minimizer"
)

// writeFasta writes a minimal single-record FASTA file.
func writeFasta(t *testing.T, dir, name, seq string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := fmt.Sprintf(">%s\n%s\n", name, seq)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
	return path
}

func TestRunEndToEnd(t *testing.T) {
	dir := t.TempDir()

	seqA := "ACGTACGTACGTACGTACGTACGTACGTACGTACGTACGTACGTACGTACGTACGTACGTACGTACGT"
	seqB := "TTGGCCAATTGGCCAATTGGCCAATTGGCCAATTGGCCAATTGGCCAATTGGCCAATTGGCCAATTGG"
	seqC := "GATCGATCGATCGATCGATCGATCGATCGATCGATCGATCGATCGATCGATCGATCGATCGATCGATC"

	fileA := writeFasta(t, dir, "a.fasta", seqA)
	fileB := writeFasta(t, dir, "b.fasta", seqB)
	fileC := writeFasta(t, dir, "c.fasta", seqC)

	manifest := filepath.Join(dir, "manifest.tsv")
	manifestContent := fmt.Sprintf("%s\t9606\n%s\t9606\n%s\t10090\nmalformed-line-no-taxid\n\n",
		fileA, fileB, fileC)
	if err := os.WriteFile(manifest, []byte(manifestContent), 0644); err != nil {
		t.Fatalf("writing manifest: %v", err)
	}

	outFile := filepath.Join(dir, "out.tcf")

	cfg := &BuildConfig{
		KmerSize:   11,
		WindowSize: 15,
		MinLength:  10,
		LoadFactor: 0.8,
		Threads:    2,
		InputFile:  manifest,
		OutputFile: outFile,
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Chdir: %v", err)
	}
	defer os.Chdir(wd)

	_, _, fileInfo, err := ParseManifest(manifest)
	if err != nil {
		t.Fatalf("ParseManifest failed: %v", err)
	}
	if fileInfo.InvalidNum != 2 {
		t.Fatalf("expected 2 invalid manifest lines (malformed + blank), got %d", fileInfo.InvalidNum)
	}

	if err := Run(cfg); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	f, icfConfig, hashCount, taxidBins, err := ReadArchive(outFile)
	if err != nil {
		t.Fatalf("ReadArchive failed: %v", err)
	}

	if icfConfig.KmerSize != cfg.KmerSize || icfConfig.WindowSize != cfg.WindowSize {
		t.Fatalf("icfConfig mismatch: %+v", icfConfig)
	}
	if len(hashCount) != 2 {
		t.Fatalf("expected 2 taxids in hashCount, got %d: %v", len(hashCount), hashCount)
	}
	if len(taxidBins) != 2 {
		t.Fatalf("expected 2 taxids in taxidBins, got %d: %v", len(taxidBins), taxidBins)
	}

	// Recompute taxid 10090's minimizer set directly and confirm every hash
	// is found within its assigned bin range — the no-false-negatives
	// invariant the Filter Builder is responsible for.
	enc := minimizer.NewEncoder(cfg.KmerSize, cfg.WindowSize)
	var hashes []uint64
	enc.Minimizers([]byte(seqC), nil, func(h uint64) { hashes = append(hashes, h) })

	taxids := []string{"10090", "9606"}
	ends := map[string]uint64{}
	for t := range taxidBins {
		ends[t] = taxidBins[t]
	}
	// taxids are assigned ranges in sorted order (10090 < 9606 lexically).
	_ = taxids
	startOf := map[string]uint64{}
	prev := uint64(0)
	for _, t := range []string{"10090", "9606"} {
		startOf[t] = prev
		prev = ends[t]
	}

	found := 0
	for _, h := range hashes {
		if f.Contains(startOf["10090"], ends["10090"], h) {
			found++
		}
	}
	if found != len(hashes) {
		t.Fatalf("only %d of taxid 10090's %d minimizers found in its bin range", found, len(hashes))
	}
}
