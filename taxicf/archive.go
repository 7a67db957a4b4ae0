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
	"encoding/binary"
	"errors"
	"io"
	"os"
	"runtime"

	"github.com/klauspost/pgzip"

	"github.com/shenwei356/taxicf/icf"
)

var be = binary.BigEndian

// archiveMagic tags the start of every archive so a reader can reject
// unrelated files before trying to parse one.
var archiveMagic = [8]byte{'t', 'a', 'x', 'i', 'c', 'f', '0', '1'}

// ArchiveMainVersion is used for checking compatibility of archive files.
var ArchiveMainVersion uint8 = 0

// ArchiveMinorVersion is less important than ArchiveMainVersion.
var ArchiveMinorVersion uint8 = 1

// ErrInvalidArchive means the file's magic bytes did not match.
var ErrInvalidArchive = errors.New("taxicf: not a taxicf archive")

// ErrArchiveVersionMismatch means the archive was written by a newer
// incompatible version of this tool.
var ErrArchiveVersionMismatch = errors.New("taxicf: archive version mismatch")

// WriteArchive is the Serializer stage (§4.6). It writes, in one
// pgzip-compressed binary stream, the ICF, the ICFConfig, hashCount
// linearized as (taxid, count) pairs, and taxidBins linearized as
// (taxid, end) pairs.
func WriteArchive(path string, f *icf.ICF, icfConfig *ICFConfig, hashCount HashCount, taxidBins TaxidBins) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	defer fh.Close()

	gz, err := pgzip.NewWriterLevel(fh, pgzip.BestSpeed)
	if err != nil {
		return err
	}
	if err := gz.SetConcurrency(1<<20, runtime.NumCPU()); err != nil {
		return err
	}
	defer gz.Close()

	w := bufio.NewWriterSize(gz, 1<<20)

	if err := binary.Write(w, be, archiveMagic); err != nil {
		return err
	}
	if err := binary.Write(w, be, [2]uint8{ArchiveMainVersion, ArchiveMinorVersion}); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return err
	}

	if err := writeICFConfig(w, icfConfig); err != nil {
		return err
	}
	if err := writeTaxidUint64Map(w, hashCount); err != nil {
		return err
	}
	if err := writeTaxidUint64Map(w, taxidBins); err != nil {
		return err
	}

	if err := w.Flush(); err != nil {
		return err
	}
	return gz.Flush()
}

// ReadArchive reads an archive previously written by WriteArchive.
func ReadArchive(path string) (*icf.ICF, *ICFConfig, HashCount, TaxidBins, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	defer fh.Close()

	gz, err := pgzip.NewReader(fh)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	defer gz.Close()

	r := bufio.NewReaderSize(gz, 1<<20)

	var magic [8]byte
	if err := binary.Read(r, be, &magic); err != nil {
		return nil, nil, nil, nil, err
	}
	if magic != archiveMagic {
		return nil, nil, nil, nil, ErrInvalidArchive
	}

	var version [2]uint8
	if err := binary.Read(r, be, &version); err != nil {
		return nil, nil, nil, nil, err
	}
	if version[0] > ArchiveMainVersion {
		return nil, nil, nil, nil, ErrArchiveVersionMismatch
	}

	f, err := icf.ReadFrom(r)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	icfConfig, err := readICFConfig(r)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	hashCount, err := readTaxidUint64Map(r)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	taxidBinsRaw, err := readTaxidUint64Map(r)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	return f, icfConfig, HashCount(hashCount), TaxidBins(taxidBinsRaw), nil
}

func writeICFConfig(w io.Writer, c *ICFConfig) error {
	if err := binary.Write(w, be, int64(c.KmerSize)); err != nil {
		return err
	}
	if err := binary.Write(w, be, int64(c.WindowSize)); err != nil {
		return err
	}
	if err := binary.Write(w, be, c.Bins); err != nil {
		return err
	}
	return binary.Write(w, be, c.BinSize)
}

func readICFConfig(r io.Reader) (*ICFConfig, error) {
	var c ICFConfig
	var kmerSize, windowSize int64
	if err := binary.Read(r, be, &kmerSize); err != nil {
		return nil, err
	}
	if err := binary.Read(r, be, &windowSize); err != nil {
		return nil, err
	}
	if err := binary.Read(r, be, &c.Bins); err != nil {
		return nil, err
	}
	if err := binary.Read(r, be, &c.BinSize); err != nil {
		return nil, err
	}
	c.KmerSize = int(kmerSize)
	c.WindowSize = int(windowSize)
	return &c, nil
}

// writeTaxidUint64Map linearizes a taxid-keyed uint64 map as a count
// followed by (length-prefixed taxid, value) pairs.
func writeTaxidUint64Map(w io.Writer, m map[string]uint64) error {
	if err := binary.Write(w, be, uint64(len(m))); err != nil {
		return err
	}
	for taxid, v := range m {
		if err := binary.Write(w, be, uint32(len(taxid))); err != nil {
			return err
		}
		if _, err := io.WriteString(w, taxid); err != nil {
			return err
		}
		if err := binary.Write(w, be, v); err != nil {
			return err
		}
	}
	return nil
}

func readTaxidUint64Map(r io.Reader) (map[string]uint64, error) {
	var n uint64
	if err := binary.Read(r, be, &n); err != nil {
		return nil, err
	}
	m := make(map[string]uint64, n)
	for i := uint64(0); i < n; i++ {
		var taxidLen uint32
		if err := binary.Read(r, be, &taxidLen); err != nil {
			return nil, err
		}
		buf := make([]byte, taxidLen)
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, err
		}
		var v uint64
		if err := binary.Read(r, be, &v); err != nil {
			return nil, err
		}
		m[string(buf)] = v
	}
	return m, nil
}
