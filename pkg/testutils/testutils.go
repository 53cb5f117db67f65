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

// Package testutils provides test doubles for the pipeline.
package testutils

import (
	"context"
	"fmt"
	"sync"

	"github.com/a2aproject/a2a-go/a2a"

	"github.com/kadirpekel/blogsmith/pkg/model"
)

// StubReply is one scripted LLM turn: either a text response or an error.
type StubReply struct {
	Text string
	Err  error
}

// StubLLM implements model.LLM with a scripted sequence of replies. Once the
// script is exhausted it repeats the last reply. It records every request it
// receives.
type StubLLM struct {
	mu       sync.Mutex
	script   []StubReply
	calls    int
	Requests []*model.Request
}

// NewStubLLM creates a StubLLM with the given script.
func NewStubLLM(script ...StubReply) *StubLLM {
	return &StubLLM{script: script}
}

// Text is a convenience for a successful reply.
func Text(text string) StubReply {
	return StubReply{Text: text}
}

// Fail is a convenience for an error reply.
func Fail(err error) StubReply {
	return StubReply{Err: err}
}

// Name returns the stub model identifier.
func (s *StubLLM) Name() string { return "stub-model" }

// Provider returns the stub provider type.
func (s *StubLLM) Provider() model.Provider { return model.ProviderUnknown }

// Close is a no-op.
func (s *StubLLM) Close() error { return nil }

// Calls returns how many generation requests the stub has served.
func (s *StubLLM) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// GenerateContent serves the next scripted reply.
func (s *StubLLM) GenerateContent(_ context.Context, req *model.Request) (*model.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.Requests = append(s.Requests, req)

	idx := s.calls
	if idx >= len(s.script) {
		idx = len(s.script) - 1
	}
	s.calls++

	if len(s.script) == 0 {
		return nil, fmt.Errorf("stub LLM has no scripted replies")
	}

	reply := s.script[idx]
	if reply.Err != nil {
		return nil, reply.Err
	}
	return &model.Response{
		Content: &model.Content{
			Parts: []a2a.Part{a2a.TextPart{Text: reply.Text}},
			Role:  a2a.MessageRoleAgent,
		},
		FinishReason: model.FinishReasonStop,
	}, nil
}

// LastPrompt returns the rendered user prompt of the most recent request.
func (s *StubLLM) LastPrompt() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.Requests) == 0 {
		return ""
	}
	req := s.Requests[len(s.Requests)-1]
	var text string
	for _, msg := range req.Messages {
		for _, part := range msg.Parts {
			if tp, ok := part.(a2a.TextPart); ok {
				text += tp.Text
			}
		}
	}
	return text
}

// Verify interface compliance at compile time
var _ model.LLM = (*StubLLM)(nil)

// Presentation is one recorded Present call.
type Presentation struct {
	Title   string
	Content string
}

// ScriptedInterviewer implements pipeline.Interviewer with queued answers.
type ScriptedInterviewer struct {
	mu sync.Mutex

	// Confirms are consumed in order by Confirm. When exhausted, Confirm
	// returns true.
	Confirms []bool

	// Lines are consumed in order by Line. When exhausted, Line returns "".
	Lines []string

	// Presented records every Present call.
	Presented []Presentation
}

// Present records the shown content.
func (i *ScriptedInterviewer) Present(title, content string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.Presented = append(i.Presented, Presentation{Title: title, Content: content})
}

// Confirm pops the next scripted answer.
func (i *ScriptedInterviewer) Confirm(_ context.Context, _ string) (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if len(i.Confirms) == 0 {
		return true, nil
	}
	answer := i.Confirms[0]
	i.Confirms = i.Confirms[1:]
	return answer, nil
}

// Line pops the next scripted input line.
func (i *ScriptedInterviewer) Line(_ context.Context, _ string) (string, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if len(i.Lines) == 0 {
		return "", nil
	}
	line := i.Lines[0]
	i.Lines = i.Lines[1:]
	return line, nil
}
