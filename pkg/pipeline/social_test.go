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
	"github.com/stretchr/testify/require"
)

func TestSocialPostsSchema(t *testing.T) {
	schema, err := socialPostsSchema()
	require.NoError(t, err)

	assert.Equal(t, "object", schema["type"])
	assert.NotContains(t, schema, "$schema")
	assert.NotContains(t, schema, "$id")

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "twitter")
	assert.Contains(t, props, "linkedin")
	assert.Contains(t, props, "mastodon")

	required, ok := schema["required"].([]any)
	require.True(t, ok)
	assert.Contains(t, required, "twitter")
	assert.Contains(t, required, "linkedin")
	assert.NotContains(t, required, "mastodon")
}

func TestRenderSocialPosts(t *testing.T) {
	rendered := renderSocialPosts(`{"twitter":"tw","linkedin":"li","mastodon":"ma"}`)
	assert.Contains(t, rendered, "## X/Twitter\n\ntw")
	assert.Contains(t, rendered, "## LinkedIn\n\nli")
	assert.Contains(t, rendered, "## Mastodon\n\nma")
}

func TestRenderSocialPostsHandlesCodeFences(t *testing.T) {
	raw := "```json\n{\"twitter\":\"tw\",\"linkedin\":\"li\"}\n```"
	rendered := renderSocialPosts(raw)
	assert.Contains(t, rendered, "## X/Twitter")
	assert.NotContains(t, rendered, "```")
}

func TestRenderSocialPostsPassesThroughNonJSON(t *testing.T) {
	raw := "Here are some posts the model refused to structure."
	assert.Equal(t, raw, renderSocialPosts(raw))
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extractJSON(tt.raw))
	}
}
