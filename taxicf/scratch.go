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
	"io"
	"os"
	"path/filepath"
)

// scratchDir is the directory holding per-taxid minimizer scratch files
// during a build. It is reset at the start of the Minimizer Counter stage
// and fully drained by the Filter Builder stage.
const scratchDir = "tmp"

// resetScratchDir removes and recreates scratchDir.
func resetScratchDir() error {
	if err := os.RemoveAll(scratchDir); err != nil {
		return err
	}
	return os.MkdirAll(scratchDir, 0777)
}

// scratchPath returns the scratch file path for a taxid.
func scratchPath(taxid string) string {
	return filepath.Join(scratchDir, taxid+".mini")
}

// appendHashes appends hashes to the taxid's scratch file as raw
// little-endian uint64 words. Callers must hold the taxid's mutex.
func appendHashes(taxid string, hashes []uint64) error {
	f, err := os.OpenFile(scratchPath(taxid), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	buf := make([]byte, 8)
	for _, h := range hashes {
		binary.LittleEndian.PutUint64(buf, h)
		if _, err := w.Write(buf); err != nil {
			return err
		}
	}
	return w.Flush()
}

// readScratchHashes streams the raw little-endian uint64 words of a taxid's
// scratch file to fn, in file order. It returns os.ErrNotExist (wrapped) if
// the scratch file is missing, which callers treat as a non-fatal skip.
func readScratchHashes(taxid string, fn func(hash uint64) error) error {
	f, err := os.Open(scratchPath(taxid))
	if err != nil {
		return err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	buf := make([]byte, 8)
	for {
		_, err := io.ReadFull(r, buf)
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := fn(binary.LittleEndian.Uint64(buf)); err != nil {
			return err
		}
	}
}

// deleteScratch removes a taxid's scratch file. A missing file is not an
// error: it simply means the taxid produced no hashes.
func deleteScratch(taxid string) error {
	err := os.Remove(scratchPath(taxid))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
