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

// Package seqio decodes FASTA/FASTQ sequence files, plain or gzipped, into
// (id, sequence) records. It is a thin adapter over shenwei356/bio so the
// rest of the build pipeline depends only on this package's small surface.
package seqio

import (
	"io"

	"github.com/shenwei356/bio/seqio/fastx"
)

// Record is a decoded sequence. ID is carried for completeness but unused
// by the build pipeline.
type Record struct {
	ID  []byte
	Seq []byte
}

// Reader streams records from one sequence file.
type Reader struct {
	r *fastx.Reader
}

// NewReader opens a FASTA/FASTQ file, transparently decompressing it if
// gzipped, xz'd, zstd'd, or bzip2'd based on its extension.
func NewReader(file string) (*Reader, error) {
	r, err := fastx.NewDefaultReader(file)
	if err != nil {
		return nil, err
	}
	return &Reader{r: r}, nil
}

// Next returns the next record, or io.EOF when the file is exhausted.
func (r *Reader) Next() (Record, error) {
	rec, err := r.r.Read()
	if err != nil {
		if err == io.EOF {
			return Record{}, io.EOF
		}
		return Record{}, err
	}
	return Record{ID: rec.ID, Seq: rec.Seq.Seq}, nil
}

// Close releases the underlying file handle.
func (r *Reader) Close() {
	r.r.Close()
}
