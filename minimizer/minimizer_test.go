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

package minimizer

import "testing"

func TestAdjustSeed(t *testing.T) {
	got := AdjustSeed(20)
	want := seed >> (64 - 2*20)
	if got != want {
		t.Fatalf("AdjustSeed(20) = %#x, want %#x", got, want)
	}
}

func TestRevCompInvolution(t *testing.T) {
	// ACGT -> code, revcomp(revcomp(code)) == code
	var code uint64
	for _, b := range []byte{0, 1, 2, 3} {
		code = (code << 2) | uint64(b)
	}
	k := 4
	rc := revComp(code, k)
	if revComp(rc, k) != code {
		t.Fatalf("revComp is not involutive")
	}
}

func TestMinimizersKmerEqualsWindow(t *testing.T) {
	// kmer_size == window_size: every k-mer is its own window's minimizer,
	// one emission per position unless consecutive repeats collapse.
	e := NewEncoder(4, 4)
	seq := []byte("ACGTACGTAC") // 10 bases -> 7 k-mers of size 4
	var got []uint64
	e.Minimizers(seq, nil, func(h uint64) { got = append(got, h) })
	if len(got) == 0 {
		t.Fatalf("expected at least one minimizer, got none")
	}
}

func TestMinimizersShortSequenceSkipped(t *testing.T) {
	e := NewEncoder(10, 20)
	seq := []byte("ACGTACGT") // shorter than window size
	var got []uint64
	e.Minimizers(seq, nil, func(h uint64) { got = append(got, h) })
	if len(got) != 0 {
		t.Fatalf("expected no minimizers for a too-short sequence, got %d", len(got))
	}
}

func TestMinimizersDeterministic(t *testing.T) {
	e1 := NewEncoder(8, 12)
	e2 := NewEncoder(8, 12)
	seq := []byte("ACGTTGCATGCATGCATGCATGCATGGGTACGTAC")

	var a, b []uint64
	e1.Minimizers(seq, nil, func(h uint64) { a = append(a, h) })
	e2.Minimizers(seq, nil, func(h uint64) { b = append(b, h) })

	if len(a) != len(b) {
		t.Fatalf("non-deterministic minimizer count: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("non-deterministic minimizer at %d: %d vs %d", i, a[i], b[i])
		}
	}
}

func TestMinimizersCollapsesConsecutiveRepeats(t *testing.T) {
	e := NewEncoder(4, 6)
	// A long run of the same base produces identical canonical k-mers and
	// must collapse to far fewer emissions than windows.
	seq := []byte("AAAAAAAAAAAAAAAAAAAA")
	windows := len(seq) - e.W + 1

	var got []uint64
	e.Minimizers(seq, nil, func(h uint64) { got = append(got, h) })

	if len(got) >= windows {
		t.Fatalf("expected consecutive-repeat collapsing, got %d emissions for %d windows", len(got), windows)
	}
}
