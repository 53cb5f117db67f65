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
	"context"
	"log/slog"

	"github.com/kadirpekel/blogsmith/pkg/model"
	"github.com/kadirpekel/blogsmith/pkg/observability"
	"github.com/kadirpekel/blogsmith/pkg/store"
)

// GenerateFunc produces the textual output of one generation attempt, given
// the current store contents.
type GenerateFunc func(ctx context.Context, s *store.Store) (string, error)

// Stage is one named step of the workflow. The stage set is closed: a stage
// is either a PlainStage or a RetryingStage.
type Stage interface {
	// Name returns the stage name.
	Name() string

	// Run executes the stage against the run's shared store.
	Run(ctx context.Context, s *store.Store) error
}

// PlainStage runs its generation step exactly once and writes the result to
// its output key. Used for the codebase digest, the editing step, and the
// social posts step.
type PlainStage struct {
	name      string
	outputKey string
	generate  GenerateFunc
}

// NewPlainStage creates a single-shot stage writing to outputKey.
func NewPlainStage(name, outputKey string, generate GenerateFunc) *PlainStage {
	return &PlainStage{name: name, outputKey: outputKey, generate: generate}
}

// Name returns the stage name.
func (p *PlainStage) Name() string {
	return p.name
}

// Run invokes the generation step once. A failure is returned as-is; the
// output key is written only on success.
func (p *PlainStage) Run(ctx context.Context, s *store.Store) error {
	output, err := p.generate(ctx, s)
	if err != nil {
		return err
	}
	s.Set(p.outputKey, output)
	return nil
}

// DefaultMaxIterations bounds a RetryingStage's generation attempts.
const DefaultMaxIterations = 3

// RetryingStage wraps a generation step and a validation gate into a bounded
// retry loop:
//
//	GENERATING -> VALIDATING -> {DONE | GENERATING}
//
// Each attempt writes its result to the output key, then the gate decides.
// When the gate still rejects after the final attempt the stage terminates
// anyway, forwarding whatever occupies the output key: forward progress is
// preferred over blocking indefinitely, at the cost of a possibly
// low-quality artifact reaching the next stage.
//
// A transient generation failure consumes one attempt like any rejected
// output. Credential failures (model.AuthError) and context cancellation
// propagate immediately and abort the run.
type RetryingStage struct {
	name          string
	outputKey     string
	generate      GenerateFunc
	gate          Gate
	maxIterations int
	metrics       *observability.Metrics

	attempts int
}

// RetryingStageConfig configures a RetryingStage.
type RetryingStageConfig struct {
	// Name identifies the stage in logs and metrics.
	Name string

	// OutputKey is the store key each attempt writes.
	OutputKey string

	// Generate is the wrapped generation step.
	Generate GenerateFunc

	// Gate validates the output key after each attempt. Zero value gates on
	// OutputKey being present and non-empty.
	Gate Gate

	// MaxIterations bounds generation attempts. Defaults to
	// DefaultMaxIterations.
	MaxIterations int

	// Metrics records retries when set.
	Metrics *observability.Metrics
}

// NewRetryingStage creates a validation-gated retrying stage.
func NewRetryingStage(cfg RetryingStageConfig) *RetryingStage {
	gate := cfg.Gate
	if gate.Key == "" {
		gate.Key = cfg.OutputKey
	}
	maxIterations := cfg.MaxIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &RetryingStage{
		name:          cfg.Name,
		outputKey:     cfg.OutputKey,
		generate:      cfg.Generate,
		gate:          gate,
		maxIterations: maxIterations,
		metrics:       cfg.Metrics,
	}
}

// Name returns the stage name.
func (r *RetryingStage) Name() string {
	return r.name
}

// Attempts returns the number of generation attempts of the most recent Run.
func (r *RetryingStage) Attempts() int {
	return r.attempts
}

// Run executes the retry loop.
func (r *RetryingStage) Run(ctx context.Context, s *store.Store) error {
	r.attempts = 0

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		r.attempts = attempt

		output, err := r.generate(ctx, s)
		switch {
		case err == nil:
			s.Set(r.outputKey, output)
		case model.IsAuth(err):
			return err
		case ctx.Err() != nil:
			return ctx.Err()
		default:
			// Transient failure: same as a rejected output, costs one attempt.
			slog.Warn("generation attempt failed",
				"stage", r.name,
				"attempt", attempt,
				"error", err)
		}

		if r.gate.Evaluate(s) == Proceed {
			return nil
		}

		if attempt >= r.maxIterations {
			slog.Warn("max iterations reached, forwarding best-effort output",
				"stage", r.name,
				"attempts", attempt)
			return nil
		}

		r.metrics.RecordRetry(r.name)
		slog.Debug("validation rejected output, regenerating",
			"stage", r.name,
			"attempt", attempt)
	}
}

// Verify the closed stage set at compile time
var (
	_ Stage = (*PlainStage)(nil)
	_ Stage = (*RetryingStage)(nil)
)
