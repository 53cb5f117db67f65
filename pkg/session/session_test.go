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

package session

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRecorder(t *testing.T) *SQLRecorder {
	t.Helper()
	r, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = r.Close() })
	return r
}

func TestOpenValidation(t *testing.T) {
	_, err := Open("")
	assert.ErrorContains(t, err, "database path is required")

	_, err = New(nil)
	assert.ErrorContains(t, err, "database connection is required")
}

func TestRecorderRunLifecycle(t *testing.T) {
	r := newTestRecorder(t)

	require.NoError(t, r.StartRun("run-1", "testing in Go"))
	require.NoError(t, r.FinishRun("run-1", "completed"))

	runs, err := r.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
	assert.Equal(t, "testing in Go", runs[0].Topic)
	assert.Equal(t, "completed", runs[0].Status)
}

func TestRecorderOutputsKeepOrder(t *testing.T) {
	r := newTestRecorder(t)
	require.NoError(t, r.StartRun("run-1", "topic"))

	require.NoError(t, r.RecordOutput("run-1", "outline_planning", "blog_outline", "# Outline", 2))
	require.NoError(t, r.RecordOutput("run-1", "blog_writing", "blog_post", "draft v1", 1))
	require.NoError(t, r.RecordOutput("run-1", "blog_editing", "blog_post", "draft v2", 1))

	outputs, err := r.Outputs("run-1")
	require.NoError(t, err)
	require.Len(t, outputs, 3)

	assert.Equal(t, "outline_planning", outputs[0].Stage)
	assert.Equal(t, 2, outputs[0].Attempts)
	assert.Equal(t, "draft v1", outputs[1].Value)
	assert.Equal(t, "draft v2", outputs[2].Value)
}

func TestRecorderIsolatesRuns(t *testing.T) {
	r := newTestRecorder(t)
	require.NoError(t, r.StartRun("run-1", "first"))
	require.NoError(t, r.StartRun("run-2", "second"))
	require.NoError(t, r.RecordOutput("run-1", "blog_writing", "blog_post", "post one", 1))
	require.NoError(t, r.RecordOutput("run-2", "blog_writing", "blog_post", "post two", 1))

	outputs, err := r.Outputs("run-2")
	require.NoError(t, err)
	require.Len(t, outputs, 1)
	assert.Equal(t, "post two", outputs[0].Value)
}

func TestRecorderRejectsEmptyRunID(t *testing.T) {
	r := newTestRecorder(t)
	assert.Error(t, r.StartRun("", "topic"))
	assert.Error(t, r.RecordOutput("", "stage", "key", "value", 1))
	assert.Error(t, r.FinishRun("", "completed"))
}

func TestOpenCreatesFileDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.db")
	r, err := Open(path)
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.StartRun("run-1", "persisted"))
	assert.FileExists(t, path)
}
