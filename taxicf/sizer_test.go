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

import "testing"

func TestSizeFilterDegenerate(t *testing.T) {
	hashCount := HashCount{"a": 0, "b": 0}
	var cfg ICFConfig
	SizeFilter(hashCount, &cfg, 0.9, 4)

	if cfg.BinSize != 1 || cfg.Bins != 0 {
		t.Fatalf("degenerate input: got bin_size=%d bins=%d, want 1, 0", cfg.BinSize, cfg.Bins)
	}
}

func TestSizeFilterTwoSingletons(t *testing.T) {
	// bin_size 1 fills both bins exactly (load 1.0), so it is only feasible
	// at a load factor of 1.0; below that the search moves on to bin_size 2.
	hashCount := HashCount{"a": 1, "b": 1}
	var cfg ICFConfig
	SizeFilter(hashCount, &cfg, 1.0, 2)

	if cfg.BinSize != 1 {
		t.Fatalf("want bin_size == 1, got %d", cfg.BinSize)
	}
	if cfg.Bins != 2 {
		t.Fatalf("want bins == 2, got %d", cfg.Bins)
	}
}

func TestSizeFilterLoadNeverExceedsTarget(t *testing.T) {
	hashCount := HashCount{"a": 1000000}
	loadFactor := 0.5
	var cfg ICFConfig
	SizeFilter(hashCount, &cfg, loadFactor, 4)

	if cfg.Bins == 0 {
		t.Fatalf("expected non-zero bins")
	}
	total := uint64(1000000)
	load := float64(total) / float64(cfg.Bins*cfg.BinSize)
	if load > loadFactor+1e-9 {
		t.Fatalf("load %.6f exceeds target %.6f", load, loadFactor)
	}
	if cfg.Bins*cfg.BinSize < 2*total {
		t.Fatalf("expected capacity >= %d, got %d", 2*total, cfg.Bins*cfg.BinSize)
	}
}

func TestBinCountMatchesCeilDivSum(t *testing.T) {
	counts := []uint64{10, 3, 0, 7, 100}
	binSize := uint64(4)
	var want uint64
	for _, c := range counts {
		want += ceilDiv(c, binSize)
	}
	got := binCount(counts, binSize, 3)
	if got != want {
		t.Fatalf("binCount = %d, want %d", got, want)
	}
}
