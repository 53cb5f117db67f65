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

// Package instruction provides placeholder templating for stage prompts.
//
// Instructions can contain placeholders resolved against the run's shared
// store at generation time:
//
//	{key}   - resolves from the store; error if absent
//	{key?}  - optional (empty string if absent)
//
// Example:
//
//	tpl := "Write a blog post following this outline:\n{blog_outline}"
//	resolved, err := instruction.Render(tpl, st)
package instruction

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/kadirpekel/blogsmith/pkg/store"
)

// placeholderRegex matches {key} and {key?}.
// One or more opening braces, content without braces, one or more closing braces.
var placeholderRegex = regexp.MustCompile(`{+[^{}]*}+`)

// Template represents an instruction template with placeholders.
type Template struct {
	raw string
}

// New creates a new instruction template.
func New(template string) *Template {
	return &Template{raw: template}
}

// Raw returns the raw template string.
func (t *Template) Raw() string {
	return t.raw
}

// Render resolves all placeholders against the store.
func (t *Template) Render(s *store.Store) (string, error) {
	return Render(t.raw, s)
}

// Render populates placeholder values in a template from the store.
//
// A required placeholder whose key is absent produces an error. Invalid
// placeholder names (not matching identifier rules) are left as-is, so prose
// braces survive untouched.
func Render(template string, s *store.Store) (string, error) {
	if template == "" {
		return "", nil
	}

	var result strings.Builder
	lastIndex := 0
	matches := placeholderRegex.FindAllStringIndex(template, -1)

	for _, matchIndexes := range matches {
		startIndex, endIndex := matchIndexes[0], matchIndexes[1]

		result.WriteString(template[lastIndex:startIndex])

		matchStr := template[startIndex:endIndex]
		replacement, err := replaceMatch(s, matchStr)
		if err != nil {
			return "", err
		}
		result.WriteString(replacement)

		lastIndex = endIndex
	}

	result.WriteString(template[lastIndex:])
	return result.String(), nil
}

// replaceMatch resolves a single placeholder match.
func replaceMatch(s *store.Store, match string) (string, error) {
	key := strings.TrimSpace(strings.Trim(match, "{}"))

	optional := false
	if strings.HasSuffix(key, "?") {
		optional = true
		key = strings.TrimSuffix(key, "?")
	}

	if !isIdentifier(key) {
		// Treat as literal
		return match, nil
	}

	value, ok := s.Get(key)
	if !ok {
		if optional {
			return "", nil
		}
		return "", fmt.Errorf("store key %q not present", key)
	}
	return value, nil
}

// isIdentifier checks if a string is a valid placeholder name: a letter or
// underscore followed by letters, digits, or underscores.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		if i == 0 {
			if !unicode.IsLetter(r) && r != '_' {
				return false
			}
		} else {
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
				return false
			}
		}
	}
	return true
}

// HasPlaceholders returns true if the template contains any placeholders.
func HasPlaceholders(template string) bool {
	return placeholderRegex.MatchString(template)
}

// ListPlaceholders returns the distinct placeholder names in the template.
func ListPlaceholders(template string) []string {
	matches := placeholderRegex.FindAllString(template, -1)
	var names []string
	seen := make(map[string]bool)

	for _, match := range matches {
		name := strings.TrimSpace(strings.Trim(match, "{}"))
		name = strings.TrimSuffix(name, "?")
		if !seen[name] {
			names = append(names, name)
			seen[name] = true
		}
	}
	return names
}
