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
	"strings"

	"github.com/kadirpekel/blogsmith/pkg/store"
)

// Outcome is a validation gate's verdict. A plain enumerated value, not an
// event side channel: the caller decides what to do with it.
type Outcome int

const (
	// Retry signals that the stage output is absent or invalid and must be
	// regenerated.
	Retry Outcome = iota

	// Proceed signals that the stage output is acceptable.
	Proceed
)

func (o Outcome) String() string {
	if o == Proceed {
		return "PROCEED"
	}
	return "RETRY"
}

// Predicate is an optional validity check applied to a non-empty value.
type Predicate func(value string) bool

// Gate decides whether a stage's output key holds acceptable content. It is
// a pure function of store contents: no side effects, no mutation, and
// repeated evaluation without mutation yields the same result.
//
// A Gate is the sole enforcement point keeping a stage from handing control
// forward with an absent or empty output key. It does not regenerate
// content, only signals whether regeneration is needed.
type Gate struct {
	// Key is the store key to inspect.
	Key string

	// Predicate, when set, is applied on top of the presence and
	// non-emptiness checks.
	Predicate Predicate
}

// Evaluate returns Proceed iff the key is present, non-blank, and passes the
// predicate (when one is set).
func (g Gate) Evaluate(s *store.Store) Outcome {
	value, ok := s.Get(g.Key)
	if !ok || strings.TrimSpace(value) == "" {
		return Retry
	}
	if g.Predicate != nil && !g.Predicate(value) {
		return Retry
	}
	return Proceed
}

// HasMarkdownHeading accepts values containing at least one markdown
// heading line. Used as the outline gate's validity predicate.
func HasMarkdownHeading(value string) bool {
	for _, line := range strings.Split(value, "\n") {
		trimmed := strings.TrimSpace(line)
		if !strings.HasPrefix(trimmed, "#") {
			continue
		}
		rest := strings.TrimLeft(trimmed, "#")
		if rest == "" || strings.HasPrefix(rest, " ") {
			return true
		}
	}
	return false
}
