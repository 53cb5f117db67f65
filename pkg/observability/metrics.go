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

// Package observability provides Prometheus metrics for workflow runs.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the counters and histograms recorded by the pipeline.
type Metrics struct {
	registry *prometheus.Registry

	generationAttempts *prometheus.CounterVec
	stageRetries       *prometheus.CounterVec
	runsTotal          *prometheus.CounterVec
	exportsTotal       *prometheus.CounterVec
	generationLatency  *prometheus.HistogramVec
}

// NewMetrics creates a Metrics instance backed by its own registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	m := &Metrics{
		registry: registry,
		generationAttempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blogsmith",
			Name:      "generation_attempts_total",
			Help:      "Generation attempts per stage, including retries.",
		}, []string{"stage"}),
		stageRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blogsmith",
			Name:      "stage_retries_total",
			Help:      "Validation-driven retries per stage.",
		}, []string{"stage"}),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blogsmith",
			Name:      "runs_total",
			Help:      "Workflow runs by terminal status.",
		}, []string{"status"}),
		exportsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blogsmith",
			Name:      "exports_total",
			Help:      "File exports by outcome.",
		}, []string{"outcome"}),
		generationLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "blogsmith",
			Name:      "generation_duration_seconds",
			Help:      "Latency of text generation calls per stage.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		}, []string{"stage"}),
	}

	registry.MustRegister(
		m.generationAttempts,
		m.stageRetries,
		m.runsTotal,
		m.exportsTotal,
		m.generationLatency,
	)

	return m
}

// Registry returns the backing Prometheus registry for exposition.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordGeneration records one generation attempt and its latency.
// Safe on a nil receiver so callers can leave metrics unconfigured.
func (m *Metrics) RecordGeneration(stage string, duration time.Duration) {
	if m == nil {
		return
	}
	m.generationAttempts.WithLabelValues(stage).Inc()
	m.generationLatency.WithLabelValues(stage).Observe(duration.Seconds())
}

// RecordRetry records a validation-driven retry for a stage.
func (m *Metrics) RecordRetry(stage string) {
	if m == nil {
		return
	}
	m.stageRetries.WithLabelValues(stage).Inc()
}

// RecordRun records a workflow run's terminal status
// ("completed", "abandoned", "failed").
func (m *Metrics) RecordRun(status string) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(status).Inc()
}

// RecordExport records a file export outcome ("success", "failure").
func (m *Metrics) RecordExport(outcome string) {
	if m == nil {
		return
	}
	m.exportsTotal.WithLabelValues(outcome).Inc()
}
