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
	"os"
	"path/filepath"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// buildDefaults holds the values the "build" subcommand falls back to when a
// flag is left at its zero value. They come only from the TOML config file;
// fields the file does not set stay zero, as there are no built-in defaults.
type buildDefaults struct {
	KmerSize   int     `toml:"kmer_size"`
	WindowSize int     `toml:"window_size"`
	MinLength  int     `toml:"min_length"`
	LoadFactor float64 `toml:"load_factor"`
	Mode       string  `toml:"mode"`
}

// defaultConfigPath returns ~/.taxicf.toml, the config file consulted when
// --config is not given and the file happens to exist.
func defaultConfigPath() string {
	home, err := homedir.Dir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".taxicf.toml")
}

// loadBuildDefaults reads a TOML config file, if any. path == "" falls back
// to defaultConfigPath(); if that file doesn't exist, zero defaults are
// returned without error since the config file is entirely optional.
func loadBuildDefaults(path string) (buildDefaults, error) {
	var d buildDefaults
	explicit := path != ""
	if path == "" {
		path = defaultConfigPath()
		if path == "" {
			return d, nil
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return d, nil
		}
		return d, errors.Wrapf(err, "reading config file: %s", path)
	}

	if err := toml.Unmarshal(data, &d); err != nil {
		return d, errors.Wrapf(err, "parsing config file: %s", path)
	}
	return d, nil
}
