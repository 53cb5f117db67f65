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
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kadirpekel/blogsmith/pkg/model"
	"github.com/kadirpekel/blogsmith/pkg/store"
)

// sequencedGenerate returns a GenerateFunc serving outputs in order, counting
// invocations.
func sequencedGenerate(calls *int, outputs ...string) GenerateFunc {
	return func(_ context.Context, _ *store.Store) (string, error) {
		idx := *calls
		if idx >= len(outputs) {
			idx = len(outputs) - 1
		}
		*calls++
		return outputs[idx], nil
	}
}

func TestPlainStageWritesOutputOnSuccess(t *testing.T) {
	stage := NewPlainStage("single", "result",
		func(_ context.Context, _ *store.Store) (string, error) {
			return "value", nil
		})

	s := store.New()
	require.NoError(t, stage.Run(context.Background(), s))

	got, ok := s.Get("result")
	assert.True(t, ok)
	assert.Equal(t, "value", got)
	assert.Equal(t, "single", stage.Name())
}

func TestPlainStageLeavesStoreUntouchedOnFailure(t *testing.T) {
	stage := NewPlainStage("single", "result",
		func(_ context.Context, _ *store.Store) (string, error) {
			return "", errors.New("boom")
		})

	s := store.New()
	err := stage.Run(context.Background(), s)
	require.Error(t, err)
	assert.False(t, s.Has("result"))
}

func TestRetryingStageExhaustsIterationsAndForwardsLastOutput(t *testing.T) {
	var calls int
	stage := NewRetryingStage(RetryingStageConfig{
		Name:      "planning",
		OutputKey: "out",
		Generate:  sequencedGenerate(&calls, "first", "second", "third"),
		Gate: Gate{Key: "out", Predicate: func(string) bool {
			return false
		}},
	})

	s := store.New()
	err := stage.Run(context.Background(), s)

	// Exhaustion is not an error: the stage forwards its best effort.
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, stage.Attempts())

	got, ok := s.Get("out")
	assert.True(t, ok)
	assert.Equal(t, "third", got)
}

func TestRetryingStageStopsOnSecondValidAttempt(t *testing.T) {
	var calls int
	stage := NewRetryingStage(RetryingStageConfig{
		Name:      "planning",
		OutputKey: "out",
		Generate:  sequencedGenerate(&calls, "", "valid output"),
	})

	s := store.New()
	require.NoError(t, stage.Run(context.Background(), s))

	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, stage.Attempts())

	got, _ := s.Get("out")
	assert.Equal(t, "valid output", got)
}

func TestRetryingStageSucceedsFirstAttempt(t *testing.T) {
	var calls int
	stage := NewRetryingStage(RetryingStageConfig{
		Name:      "planning",
		OutputKey: "out",
		Generate:  sequencedGenerate(&calls, "good"),
	})

	s := store.New()
	require.NoError(t, stage.Run(context.Background(), s))
	assert.Equal(t, 1, stage.Attempts())
}

func TestRetryingStageTransientErrorConsumesOneAttempt(t *testing.T) {
	var calls int
	stage := NewRetryingStage(RetryingStageConfig{
		Name:      "planning",
		OutputKey: "out",
		Generate: func(_ context.Context, _ *store.Store) (string, error) {
			calls++
			if calls == 1 {
				return "", fmt.Errorf("transient upstream hiccup")
			}
			return "recovered", nil
		},
	})

	s := store.New()
	require.NoError(t, stage.Run(context.Background(), s))

	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, stage.Attempts())

	got, _ := s.Get("out")
	assert.Equal(t, "recovered", got)
}

func TestRetryingStageAbortsOnAuthError(t *testing.T) {
	authErr := model.NewAuthError(model.ProviderGemini, errors.New("API key not valid"))

	var calls int
	stage := NewRetryingStage(RetryingStageConfig{
		Name:      "planning",
		OutputKey: "out",
		Generate: func(_ context.Context, _ *store.Store) (string, error) {
			calls++
			return "", authErr
		},
	})

	s := store.New()
	err := stage.Run(context.Background(), s)

	require.Error(t, err)
	assert.True(t, model.IsAuth(err))
	assert.Equal(t, 1, calls)
	assert.False(t, s.Has("out"))
}

func TestRetryingStageAbortsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	stage := NewRetryingStage(RetryingStageConfig{
		Name:      "planning",
		OutputKey: "out",
		Generate: func(_ context.Context, _ *store.Store) (string, error) {
			return "never", nil
		},
	})

	err := stage.Run(ctx, store.New())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRetryingStageDefaultsGateToOutputKey(t *testing.T) {
	var calls int
	stage := NewRetryingStage(RetryingStageConfig{
		Name:      "planning",
		OutputKey: "out",
		Generate:  sequencedGenerate(&calls, "", "", "still empty"),
	})

	s := store.New()
	// Empty attempts are rejected by the default non-empty gate.
	require.NoError(t, stage.Run(context.Background(), s))
	assert.Equal(t, 3, stage.Attempts())
}

func TestRetryingStageAttemptsResetBetweenRuns(t *testing.T) {
	var calls int
	stage := NewRetryingStage(RetryingStageConfig{
		Name:      "planning",
		OutputKey: "out",
		Generate:  sequencedGenerate(&calls, "good"),
	})

	s := store.New()
	require.NoError(t, stage.Run(context.Background(), s))
	require.NoError(t, stage.Run(context.Background(), s))
	assert.Equal(t, 1, stage.Attempts())
}
