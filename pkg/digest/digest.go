// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package digest reads a directory tree into a single context string.
//
// Every file under the root is decoded as UTF-8 when possible and as Latin-1
// otherwise, so some text is produced for every readable file. Unreadable
// files are skipped individually; a digest never fails as a whole. Traversal
// order is lexical, so output is deterministic for a given tree.
package digest

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

// Result is the outcome of digesting a directory.
type Result struct {
	// Text is the concatenated file contents, each file prefixed by a
	// delimiter line carrying its path relative to the root. Empty when the
	// root does not exist or holds no readable files.
	Text string

	// Files is the number of files included.
	Files int

	// Skipped is the number of files skipped due to read errors.
	Skipped int

	// Tokens is an approximate token count of Text, for judging context
	// size. No size cap is enforced here.
	Tokens int
}

// Digester walks directories and produces context digests.
type Digester struct {
	maxFileSize int64
}

// Option configures a Digester.
type Option func(*Digester)

// WithMaxFileSize skips files larger than size bytes. Zero means no limit.
func WithMaxFileSize(size int64) Option {
	return func(d *Digester) {
		d.maxFileSize = size
	}
}

// New creates a Digester.
func New(opts ...Option) *Digester {
	d := &Digester{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Digest reads every file under root into one string. It is read-only and
// total: missing roots, empty directories, and per-file read failures all
// produce a (possibly empty) Result rather than an error.
func (d *Digester) Digest(root string) Result {
	var result Result
	var sb strings.Builder

	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entry, skip it without aborting the walk.
			if entry != nil && entry.IsDir() {
				result.Skipped++
				return filepath.SkipDir
			}
			result.Skipped++
			return nil
		}
		if entry.IsDir() {
			return nil
		}

		if d.maxFileSize > 0 {
			if info, err := entry.Info(); err == nil && info.Size() > d.maxFileSize {
				result.Skipped++
				return nil
			}
		}

		data, err := os.ReadFile(path)
		if err != nil {
			slog.Debug("skipping unreadable file", "path", path, "error", err)
			result.Skipped++
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			relPath = path
		}

		sb.WriteString(fmt.Sprintf("--- %s ---\n", filepath.ToSlash(relPath)))
		sb.WriteString(decode(data))
		sb.WriteString("\n")
		result.Files++

		return nil
	})
	if err != nil {
		// WalkDir only errors here when the root itself is inaccessible.
		slog.Debug("digest root not readable", "root", root, "error", err)
	}

	result.Text = sb.String()
	result.Tokens = estimateTokens(result.Text)
	return result
}

// decode is a two-step decode: UTF-8 when the bytes validate, otherwise a
// Latin-1 byte-to-rune mapping, which cannot fail.
func decode(data []byte) string {
	if utf8.Valid(data) {
		return string(data)
	}
	return decodeLatin1(data)
}

// decodeLatin1 maps each byte to the Unicode code point of the same value.
func decodeLatin1(data []byte) string {
	runes := make([]rune, len(data))
	for i, b := range data {
		runes[i] = rune(b)
	}
	return string(runes)
}
