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
	"encoding/json"
	"strings"

	"github.com/invopop/jsonschema"
)

// socialPosts is the structured output contract for the social stage.
type socialPosts struct {
	Twitter  string `json:"twitter" jsonschema:"required,description=Announcement post for X/Twitter under 280 characters"`
	LinkedIn string `json:"linkedin" jsonschema:"required,description=Announcement post for LinkedIn with a short hook"`
	Mastodon string `json:"mastodon,omitempty" jsonschema:"description=Announcement post for Mastodon under 500 characters"`
}

// socialPostsSchema generates the JSON schema handed to the model for
// structured output.
func socialPostsSchema() (map[string]any, error) {
	reflector := &jsonschema.Reflector{
		RequiredFromJSONSchemaTags: true,
		ExpandedStruct:             true,
		DoNotReference:             true,
	}

	schema := reflector.Reflect(&socialPosts{})

	data, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}

	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}
	delete(result, "$schema")
	delete(result, "$id")

	return result, nil
}

// renderSocialPosts converts the model's JSON payload to the markdown stored
// under the social output key. Raw text that fails to parse as the expected
// JSON is passed through unchanged rather than discarded.
func renderSocialPosts(raw string) string {
	var posts socialPosts
	if err := json.Unmarshal([]byte(extractJSON(raw)), &posts); err != nil {
		return raw
	}

	var sb strings.Builder
	if posts.Twitter != "" {
		sb.WriteString("## X/Twitter\n\n")
		sb.WriteString(posts.Twitter)
		sb.WriteString("\n")
	}
	if posts.LinkedIn != "" {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("## LinkedIn\n\n")
		sb.WriteString(posts.LinkedIn)
		sb.WriteString("\n")
	}
	if posts.Mastodon != "" {
		if sb.Len() > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString("## Mastodon\n\n")
		sb.WriteString(posts.Mastodon)
		sb.WriteString("\n")
	}

	if sb.Len() == 0 {
		return raw
	}
	return sb.String()
}

// extractJSON trims code fences some models wrap around JSON payloads.
func extractJSON(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "```") {
		trimmed = strings.TrimPrefix(trimmed, "```json")
		trimmed = strings.TrimPrefix(trimmed, "```")
		if idx := strings.LastIndex(trimmed, "```"); idx >= 0 {
			trimmed = trimmed[:idx]
		}
		trimmed = strings.TrimSpace(trimmed)
	}
	return trimmed
}
