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

package digest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDigestMixedEncodings(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.md"), []byte("# Hello UTF-8"), 0644))
	// 0xE9 is "é" in Latin-1 and invalid as a standalone UTF-8 byte.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "legacy.txt"), []byte{'c', 'a', 'f', 0xE9}, 0644))

	result := New().Digest(dir)

	assert.Equal(t, 2, result.Files)
	assert.Zero(t, result.Skipped)
	assert.Contains(t, result.Text, "# Hello UTF-8")
	assert.Contains(t, result.Text, "café")
	assert.Contains(t, result.Text, "--- readme.md ---")
	assert.Contains(t, result.Text, "--- legacy.txt ---")
	assert.Positive(t, result.Tokens)
}

func TestDigestRecursesSubdirectories(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "pkg", "inner")
	require.NoError(t, os.MkdirAll(sub, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "deep.go"), []byte("package inner"), 0644))

	result := New().Digest(dir)

	assert.Equal(t, 1, result.Files)
	assert.Contains(t, result.Text, "--- pkg/inner/deep.go ---")
	assert.Contains(t, result.Text, "package inner")
}

func TestDigestDeterministicOrder(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("second"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("first"), 0644))

	first := New().Digest(dir)
	second := New().Digest(dir)

	assert.Equal(t, first.Text, second.Text)
	assert.Less(t, strings.Index(first.Text, "a.txt"), strings.Index(first.Text, "b.txt"))
}

func TestDigestMissingRoot(t *testing.T) {
	result := New().Digest(filepath.Join(t.TempDir(), "does-not-exist"))

	assert.Empty(t, result.Text)
	assert.Zero(t, result.Files)
}

func TestDigestEmptyDirectory(t *testing.T) {
	result := New().Digest(t.TempDir())

	assert.Empty(t, result.Text)
	assert.Zero(t, result.Files)
}

func TestDigestSkipsUnreadableFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "good.txt"), []byte("readable"), 0644))
	// A broken symlink fails on read but must not abort the walk.
	require.NoError(t, os.Symlink(filepath.Join(dir, "gone"), filepath.Join(dir, "broken.txt")))

	result := New().Digest(dir)

	assert.Equal(t, 1, result.Files)
	assert.Equal(t, 1, result.Skipped)
	assert.Contains(t, result.Text, "readable")
}

func TestDigestMaxFileSize(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "small.txt"), []byte("ok"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "large.txt"), make([]byte, 1024), 0644))

	result := New(WithMaxFileSize(100)).Digest(dir)

	assert.Equal(t, 1, result.Files)
	assert.Equal(t, 1, result.Skipped)
	assert.Contains(t, result.Text, "small.txt")
	assert.NotContains(t, result.Text, "large.txt")
}

func TestDecodeLatin1NeverFails(t *testing.T) {
	all := make([]byte, 256)
	for i := range all {
		all[i] = byte(i)
	}

	decoded := decodeLatin1(all)
	assert.Equal(t, 256, len([]rune(decoded)))
}
