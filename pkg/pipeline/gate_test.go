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

package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kadirpekel/blogsmith/pkg/store"
)

func TestGateEvaluate(t *testing.T) {
	tests := []struct {
		name  string
		setup func(s *store.Store)
		gate  Gate
		want  Outcome
	}{
		{
			name:  "absent key retries",
			setup: func(s *store.Store) {},
			gate:  Gate{Key: KeyBlogOutline},
			want:  Retry,
		},
		{
			name:  "empty value retries",
			setup: func(s *store.Store) { s.Set(KeyBlogOutline, "") },
			gate:  Gate{Key: KeyBlogOutline},
			want:  Retry,
		},
		{
			name:  "whitespace-only value retries",
			setup: func(s *store.Store) { s.Set(KeyBlogOutline, "  \n\t ") },
			gate:  Gate{Key: KeyBlogOutline},
			want:  Retry,
		},
		{
			name:  "non-empty value proceeds",
			setup: func(s *store.Store) { s.Set(KeyBlogOutline, "content") },
			gate:  Gate{Key: KeyBlogOutline},
			want:  Proceed,
		},
		{
			name:  "predicate rejection retries",
			setup: func(s *store.Store) { s.Set(KeyBlogOutline, "no heading here") },
			gate:  Gate{Key: KeyBlogOutline, Predicate: HasMarkdownHeading},
			want:  Retry,
		},
		{
			name:  "predicate acceptance proceeds",
			setup: func(s *store.Store) { s.Set(KeyBlogOutline, "# Intro\ntext") },
			gate:  Gate{Key: KeyBlogOutline, Predicate: HasMarkdownHeading},
			want:  Proceed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := store.New()
			tt.setup(s)
			assert.Equal(t, tt.want, tt.gate.Evaluate(s))
		})
	}
}

func TestGateEvaluateIsIdempotent(t *testing.T) {
	s := store.New()
	s.Set(KeyBlogPost, "post")
	gate := Gate{Key: KeyBlogPost}

	first := gate.Evaluate(s)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, gate.Evaluate(s))
	}
	// Evaluation never mutates the store.
	assert.Equal(t, 1, s.Len())
}

func TestHasMarkdownHeading(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"# Title", true},
		{"## Section", true},
		{"text\n### Deep\nmore", true},
		{"#", true},
		{"#hashtag no space", false},
		{"plain text", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HasMarkdownHeading(tt.value), "value %q", tt.value)
	}
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "PROCEED", Proceed.String())
	assert.Equal(t, "RETRY", Retry.String())
}
