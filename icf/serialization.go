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
	"encoding/binary"
	"fmt"
	"io"
)

var be = binary.BigEndian

// MainVersion is used for checking compatibility of serialized filters.
var MainVersion uint8 = 0

// MinorVersion is less important than MainVersion.
var MinorVersion uint8 = 1

// ErrVersionMismatch means the filter's on-disk version is newer than this
// build understands.
var ErrVersionMismatch = fmt.Errorf("icf: version mismatch")

// WriteTo encodes the filter as: version byte pair, bin count, bin size,
// buckets-per-bin, then every bin's raw slot words in order.
func (f *ICF) WriteTo(w io.Writer) (int64, error) {
	var written int64

	if err := binary.Write(w, be, [2]uint8{MainVersion, MinorVersion}); err != nil {
		return written, err
	}
	written += 2

	if err := binary.Write(w, be, f.Bins()); err != nil {
		return written, err
	}
	written += 8

	if err := binary.Write(w, be, f.BinSize); err != nil {
		return written, err
	}
	written += 8

	var numBuckets uint64
	if len(f.bins) > 0 {
		numBuckets = uint64(len(f.bins[0].buckets))
	}
	if err := binary.Write(w, be, numBuckets); err != nil {
		return written, err
	}
	written += 8

	for i := range f.bins {
		for j := range f.bins[i].buckets {
			if err := binary.Write(w, be, f.bins[i].buckets[j].slots); err != nil {
				return written, err
			}
			written += int64(bucketSize * 4)
		}
	}

	return written, nil
}

// ReadFrom decodes a filter previously written by WriteTo.
func ReadFrom(r io.Reader) (*ICF, error) {
	var version [2]uint8
	if err := binary.Read(r, be, &version); err != nil {
		return nil, err
	}
	if version[0] > MainVersion {
		return nil, ErrVersionMismatch
	}

	var bins, binSize, numBuckets uint64
	if err := binary.Read(r, be, &bins); err != nil {
		return nil, err
	}
	if err := binary.Read(r, be, &binSize); err != nil {
		return nil, err
	}
	if err := binary.Read(r, be, &numBuckets); err != nil {
		return nil, err
	}

	f := &ICF{
		bins:    make([]bin, bins),
		BinSize: binSize,
	}
	for i := range f.bins {
		f.bins[i].buckets = make([]bucket, numBuckets)
		for j := range f.bins[i].buckets {
			if err := binary.Read(r, be, &f.bins[i].buckets[j].slots); err != nil {
				return nil, err
			}
		}
	}

	return f, nil
}
