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

package store

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreGetSet(t *testing.T) {
	s := New()

	_, ok := s.Get("blog_outline")
	assert.False(t, ok)

	s.Set("blog_outline", "# Outline")
	value, ok := s.Get("blog_outline")
	require.True(t, ok)
	assert.Equal(t, "# Outline", value)
}

func TestStoreLastWriteWins(t *testing.T) {
	s := New()

	s.Set("blog_post", "draft one")
	s.Set("blog_post", "draft two")

	value, ok := s.Get("blog_post")
	require.True(t, ok)
	assert.Equal(t, "draft two", value)
	assert.Equal(t, 1, s.Len())
}

func TestStoreHasDistinguishesEmptyFromAbsent(t *testing.T) {
	s := New()

	assert.False(t, s.Has("codebase_context"))

	s.Set("codebase_context", "")
	assert.True(t, s.Has("codebase_context"))

	value, ok := s.Get("codebase_context")
	require.True(t, ok)
	assert.Empty(t, value)
}

func TestStoreDelete(t *testing.T) {
	s := New()

	s.Set("a", "1")
	s.Delete("a")
	assert.False(t, s.Has("a"))

	// Deleting an absent key is a no-op.
	s.Delete("missing")
	assert.Equal(t, 0, s.Len())
}

func TestStoreKeysSorted(t *testing.T) {
	s := New()

	s.Set("blog_post", "p")
	s.Set("blog_outline", "o")
	s.Set("codebase_context", "c")

	assert.Equal(t, []string{"blog_outline", "blog_post", "codebase_context"}, s.Keys())
}

func TestStoreSnapshotIsCopy(t *testing.T) {
	s := New()
	s.Set("blog_post", "original")

	snapshot := s.Snapshot()
	snapshot["blog_post"] = "mutated"

	value, _ := s.Get("blog_post")
	assert.Equal(t, "original", value)
}

func TestStoreConcurrentAccess(t *testing.T) {
	s := New()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("key_%d", i%4)
			s.Set(key, fmt.Sprintf("value_%d", i))
			s.Get(key)
			s.Snapshot()
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 4, s.Len())
}
