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

// Package pipeline implements the blog-writing workflow: an ordered set of
// generation stages wired through a shared key-value store, with bounded
// validation-gated retries and user-approval pauses.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kadirpekel/blogsmith/pkg/digest"
	"github.com/kadirpekel/blogsmith/pkg/export"
	"github.com/kadirpekel/blogsmith/pkg/instruction"
	"github.com/kadirpekel/blogsmith/pkg/model"
	"github.com/kadirpekel/blogsmith/pkg/observability"
	"github.com/kadirpekel/blogsmith/pkg/store"
)

// ErrAbandoned is returned when the user declines to continue at an
// approval pause.
var ErrAbandoned = errors.New("run abandoned by user")

// Interviewer collects user input at the workflow's pause points. Pause
// points are not timeouts: implementations block until the user responds.
type Interviewer interface {
	// Present shows content to the user.
	Present(title, content string)

	// Confirm asks a yes/no question.
	Confirm(ctx context.Context, prompt string) (bool, error)

	// Line collects one line of free-form input.
	Line(ctx context.Context, prompt string) (string, error)
}

// Recorder persists a run's artifact history. Implementations must tolerate
// being called once per stage completion.
type Recorder interface {
	StartRun(runID, topic string) error
	RecordOutput(runID, stage, key, value string, attempts int) error
	FinishRun(runID, status string) error
}

// Config configures a Sequencer.
type Config struct {
	// Model is the text-generation client.
	Model model.LLM

	// Interviewer collects user input at pause points.
	Interviewer Interviewer

	// Digester reads optional codebase context. Defaults to digest.New().
	Digester *digest.Digester

	// Exporter writes the final post. Defaults to the current directory.
	Exporter *export.Exporter

	// Metrics records pipeline counters when set.
	Metrics *observability.Metrics

	// Recorder persists run transcripts when set.
	Recorder Recorder

	// MaxIterations bounds each retrying stage. Defaults to
	// DefaultMaxIterations.
	MaxIterations int

	// GenerateConfig is applied to every generation call.
	GenerateConfig *model.GenerateConfig
}

// RunParams are the inputs of one workflow run.
type RunParams struct {
	// Topic is the blog post subject. Required.
	Topic string

	// CodebasePath, when set, is digested into codebase context before
	// planning.
	CodebasePath string
}

// RunResult is the outcome of a completed run.
type RunResult struct {
	// RunID identifies the run.
	RunID string

	// Post is the final blog post markdown.
	Post string

	// SocialPosts is the social stage output, empty when declined.
	SocialPosts string

	// ExportPath is the file written, empty when the export was skipped.
	ExportPath string

	// EditRounds is how many times the editing step ran.
	EditRounds int
}

// Sequencer runs the fixed stage sequence: optional codebase digest, outline
// planning (retrying), outline approval pause, writing (retrying), the
// unbounded user edit loop, optional social posts, and export.
//
// One Sequencer may serve concurrent runs; each run owns its store.
type Sequencer struct {
	cfg Config
}

// NewSequencer validates cfg and creates a Sequencer.
func NewSequencer(cfg Config) (*Sequencer, error) {
	if cfg.Model == nil {
		return nil, fmt.Errorf("model is required")
	}
	if cfg.Interviewer == nil {
		return nil, fmt.Errorf("interviewer is required")
	}
	if cfg.Digester == nil {
		cfg.Digester = digest.New()
	}
	if cfg.Exporter == nil {
		cfg.Exporter = export.New("")
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	return &Sequencer{cfg: cfg}, nil
}

// Run executes one workflow run end to end. It returns ErrAbandoned when the
// user declines the outline, and the underlying error for fatal failures
// (credential errors, cancelled context).
func (sq *Sequencer) Run(ctx context.Context, params RunParams) (*RunResult, error) {
	if strings.TrimSpace(params.Topic) == "" {
		return nil, fmt.Errorf("topic is required")
	}

	runID := uuid.NewString()
	s := store.New()
	s.Set(KeyTopic, params.Topic)

	if sq.cfg.Recorder != nil {
		if err := sq.cfg.Recorder.StartRun(runID, params.Topic); err != nil {
			slog.Warn("failed to record run start", "run_id", runID, "error", err)
		}
	}

	result, err := sq.run(ctx, runID, s, params)
	switch {
	case err == nil:
		sq.cfg.Metrics.RecordRun("completed")
		sq.finishRun(runID, "completed")
	case errors.Is(err, ErrAbandoned):
		sq.cfg.Metrics.RecordRun("abandoned")
		sq.finishRun(runID, "abandoned")
	default:
		sq.cfg.Metrics.RecordRun("failed")
		sq.finishRun(runID, "failed")
	}
	return result, err
}

func (sq *Sequencer) run(ctx context.Context, runID string, s *store.Store, params RunParams) (*RunResult, error) {
	result := &RunResult{RunID: runID}

	// Optional leading step: digest the codebase into shared context.
	if params.CodebasePath != "" {
		digestStage := NewPlainStage("codebase_digest", KeyCodebaseContext,
			func(ctx context.Context, s *store.Store) (string, error) {
				res := sq.cfg.Digester.Digest(params.CodebasePath)
				slog.Info("codebase digested",
					"path", params.CodebasePath,
					"files", res.Files,
					"skipped", res.Skipped,
					"tokens", res.Tokens)
				return res.Text, nil
			})
		if err := digestStage.Run(ctx, s); err != nil {
			return nil, err
		}
		sq.record(runID, "codebase_digest", KeyCodebaseContext, s, 1)
	}

	// Outline planning with validation-gated retries.
	planning := NewRetryingStage(RetryingStageConfig{
		Name:          "outline_planning",
		OutputKey:     KeyBlogOutline,
		Generate:      sq.generator("outline_planning", planningSystem, planningPrompt, nil),
		Gate:          Gate{Key: KeyBlogOutline, Predicate: HasMarkdownHeading},
		MaxIterations: sq.cfg.MaxIterations,
		Metrics:       sq.cfg.Metrics,
	})
	if err := planning.Run(ctx, s); err != nil {
		return nil, err
	}
	sq.record(runID, planning.Name(), KeyBlogOutline, s, planning.Attempts())

	// Approval pause. Declining abandons the run.
	outline, _ := s.Get(KeyBlogOutline)
	sq.cfg.Interviewer.Present("Proposed outline", outline)
	approved, err := sq.cfg.Interviewer.Confirm(ctx, "Approve this outline and start writing?")
	if err != nil {
		return nil, err
	}
	if !approved {
		return nil, ErrAbandoned
	}

	// Writing with validation-gated retries.
	writing := NewRetryingStage(RetryingStageConfig{
		Name:          "blog_writing",
		OutputKey:     KeyBlogPost,
		Generate:      sq.generator("blog_writing", writingSystem, writingPrompt, nil),
		MaxIterations: sq.cfg.MaxIterations,
		Metrics:       sq.cfg.Metrics,
	})
	if err := writing.Run(ctx, s); err != nil {
		return nil, err
	}
	sq.record(runID, writing.Name(), KeyBlogPost, s, writing.Attempts())

	// Edit loop: present, collect feedback, revise, repeat. No automatic
	// validity check and no iteration bound; it exits only on explicit
	// user approval.
	editing := NewPlainStage("blog_editing", KeyBlogPost,
		sq.generator("blog_editing", editingSystem, editingPrompt, nil))
	for {
		post, _ := s.Get(KeyBlogPost)
		sq.cfg.Interviewer.Present("Blog post draft", post)

		feedback, err := sq.cfg.Interviewer.Line(ctx,
			"Press Enter to approve, or type feedback to revise:")
		if err != nil {
			return nil, err
		}
		if isApproval(feedback) {
			break
		}

		s.Set(KeyUserFeedback, feedback)
		if err := editing.Run(ctx, s); err != nil {
			if model.IsAuth(err) || ctx.Err() != nil {
				return nil, err
			}
			// A failed revision keeps the previous draft; the user sees it
			// again and may retry or approve.
			slog.Warn("editing step failed, keeping previous draft", "error", err)
			continue
		}
		result.EditRounds++
		sq.record(runID, editing.Name(), KeyBlogPost, s, 1)
	}
	result.Post, _ = s.Get(KeyBlogPost)

	// Optional social posts.
	wantSocial, err := sq.cfg.Interviewer.Confirm(ctx, "Generate social media posts?")
	if err != nil {
		return nil, err
	}
	if wantSocial {
		if err := sq.runSocial(ctx, runID, s, result); err != nil {
			return nil, err
		}
	}

	// Export. Failures are surfaced and the user may retry with another
	// filename; an empty filename skips the export.
	if err := sq.runExport(ctx, s, result); err != nil {
		return nil, err
	}

	return result, nil
}

func (sq *Sequencer) runSocial(ctx context.Context, runID string, s *store.Store, result *RunResult) error {
	schema, err := socialPostsSchema()
	if err != nil {
		return fmt.Errorf("failed to build social posts schema: %w", err)
	}

	cfg := sq.cfg.GenerateConfig.Clone()
	if cfg == nil {
		cfg = &model.GenerateConfig{}
	}
	cfg.ResponseMIMEType = "application/json"
	cfg.ResponseSchema = schema

	social := NewPlainStage("social_posts", KeySocialMediaPosts,
		func(ctx context.Context, s *store.Store) (string, error) {
			raw, err := sq.generateWith(ctx, "social_posts", socialSystem, socialPrompt, cfg, s)
			if err != nil {
				return "", err
			}
			return renderSocialPosts(raw), nil
		})

	if err := social.Run(ctx, s); err != nil {
		if model.IsAuth(err) || ctx.Err() != nil {
			return err
		}
		// Social posts are optional; a failure here never loses the post.
		slog.Warn("social posts generation failed", "error", err)
		return nil
	}

	result.SocialPosts, _ = s.Get(KeySocialMediaPosts)
	sq.cfg.Interviewer.Present("Social media posts", result.SocialPosts)
	sq.record(runID, "social_posts", KeySocialMediaPosts, s, 1)
	return nil
}

func (sq *Sequencer) runExport(ctx context.Context, s *store.Store, result *RunResult) error {
	for {
		filename, err := sq.cfg.Interviewer.Line(ctx,
			"Filename to export the post to (empty to skip):")
		if err != nil {
			return err
		}
		if strings.TrimSpace(filename) == "" {
			return nil
		}

		post, _ := s.Get(KeyBlogPost)
		path, err := sq.cfg.Exporter.Export(post, strings.TrimSpace(filename))
		if err != nil {
			sq.cfg.Metrics.RecordExport("failure")
			sq.cfg.Interviewer.Present("Export failed", err.Error())
			continue
		}

		sq.cfg.Metrics.RecordExport("success")
		result.ExportPath = path
		slog.Info("post exported", "path", path)
		return nil
	}
}

// generator builds a GenerateFunc rendering the given templates against the
// store and calling the model.
func (sq *Sequencer) generator(stage, system, prompt string, cfg *model.GenerateConfig) GenerateFunc {
	return func(ctx context.Context, s *store.Store) (string, error) {
		if cfg == nil {
			cfg = sq.cfg.GenerateConfig
		}
		return sq.generateWith(ctx, stage, system, prompt, cfg, s)
	}
}

func (sq *Sequencer) generateWith(ctx context.Context, stage, system, prompt string, cfg *model.GenerateConfig, s *store.Store) (string, error) {
	rendered, err := instruction.Render(prompt, s)
	if err != nil {
		return "", fmt.Errorf("failed to render instruction for %s: %w", stage, err)
	}

	start := time.Now()
	resp, err := sq.cfg.Model.GenerateContent(ctx, model.NewTextRequest(system, rendered, cfg.Clone()))
	sq.cfg.Metrics.RecordGeneration(stage, time.Since(start))
	if err != nil {
		return "", err
	}
	return resp.TextContent(), nil
}

// record persists a stage's output when a recorder is configured.
func (sq *Sequencer) record(runID, stage, key string, s *store.Store, attempts int) {
	if sq.cfg.Recorder == nil {
		return
	}
	value, _ := s.Get(key)
	if err := sq.cfg.Recorder.RecordOutput(runID, stage, key, value, attempts); err != nil {
		slog.Warn("failed to record stage output", "run_id", runID, "stage", stage, "error", err)
	}
}

func (sq *Sequencer) finishRun(runID, status string) {
	if sq.cfg.Recorder == nil {
		return
	}
	if err := sq.cfg.Recorder.FinishRun(runID, status); err != nil {
		slog.Warn("failed to record run finish", "run_id", runID, "error", err)
	}
}

// isApproval reports whether an edit-loop reply signals satisfaction.
func isApproval(reply string) bool {
	switch strings.ToLower(strings.TrimSpace(reply)) {
	case "", "approve", "approved", "ok", "yes", "y", "done", "lgtm", "looks good":
		return true
	default:
		return false
	}
}
