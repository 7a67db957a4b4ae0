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

package icf

import (
	"bytes"
	"sync"
	"testing"
)

func TestInsertAndContainsNoFalseNegatives(t *testing.T) {
	f := New(4, 64)
	hashes := make([]uint64, 0, 100)
	for i := uint64(0); i < 100; i++ {
		hashes = append(hashes, i*2654435761+1)
	}

	for i, h := range hashes {
		bin := uint64(i) % f.Bins()
		if err := f.InsertTag(bin, h); err != nil {
			t.Fatalf("insert %d failed: %v", h, err)
		}
	}

	for i, h := range hashes {
		bin := uint64(i) % f.Bins()
		if !f.Contains(bin, bin+1, h) {
			t.Fatalf("false negative for hash %d in bin %d", h, bin)
		}
	}
}

func TestInsertConcurrentDisjointBins(t *testing.T) {
	f := New(8, 256)
	var wg sync.WaitGroup
	errs := make(chan error, 8)

	for bin := uint64(0); bin < 8; bin++ {
		wg.Add(1)
		go func(bin uint64) {
			defer wg.Done()
			for i := uint64(0); i < 200; i++ {
				h := bin*1_000_003 + i
				if err := f.InsertTag(bin, h); err != nil {
					errs <- err
					return
				}
			}
		}(bin)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("concurrent insert into disjoint bins failed: %v", err)
	}

	for bin := uint64(0); bin < 8; bin++ {
		for i := uint64(0); i < 200; i++ {
			h := bin*1_000_003 + i
			if !f.Contains(bin, bin+1, h) {
				t.Fatalf("bin %d: missing hash %d after concurrent insert", bin, h)
			}
		}
	}
}

func TestWriteToReadFromRoundTrip(t *testing.T) {
	f := New(3, 32)
	for i := uint64(0); i < 30; i++ {
		bin := i % 3
		if err := f.InsertTag(bin, i*7919+13); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo failed: %v", err)
	}

	f2, err := ReadFrom(&buf)
	if err != nil {
		t.Fatalf("ReadFrom failed: %v", err)
	}
	if f2.Bins() != f.Bins() || f2.BinSize != f.BinSize {
		t.Fatalf("round trip mismatch: bins=%d binSize=%d, want bins=%d binSize=%d",
			f2.Bins(), f2.BinSize, f.Bins(), f.BinSize)
	}

	for i := uint64(0); i < 30; i++ {
		bin := i % 3
		h := i*7919 + 13
		if !f2.Contains(bin, bin+1, h) {
			t.Fatalf("round trip lost hash %d in bin %d", h, bin)
		}
	}
}

func TestInsertionFailureOnKickLimit(t *testing.T) {
	f := New(1, 4)
	var kickErr error
	for i := uint64(0); i < 100000; i++ {
		if err := f.InsertTag(0, i); err != nil {
			kickErr = err
			break
		}
	}
	if kickErr == nil {
		t.Skip("bin did not saturate within the sample size on this run")
	}
	if _, ok := kickErr.(*KickLimitError); !ok {
		t.Fatalf("expected *KickLimitError, got %T: %v", kickErr, kickErr)
	}
}
