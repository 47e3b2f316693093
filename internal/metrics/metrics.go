// Package metrics instruments phase durations, adapter call outcomes,
// and the completeness/confidence score distributions the pipeline
// produces, via prometheus/client_golang (SPEC_FULL.md §1.1 ambient
// stack expansion — the teacher carries no metrics package of its own,
// so this is grounded on client_golang's own idiomatic registration
// pattern rather than a teacher file).
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Londondannyboy/quest-sub002/internal/workflow/engine"
)

var (
	phaseDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "quest_content",
		Name:      "phase_duration_seconds",
		Help:      "Duration of one workflow phase execution.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"workflow", "phase", "status"})

	phaseTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quest_content",
		Name:      "phase_total",
		Help:      "Count of phase terminations by status.",
	}, []string{"workflow", "phase", "status"})

	executionTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quest_content",
		Name:      "execution_total",
		Help:      "Count of workflow executions by terminal status.",
	}, []string{"workflow", "status"})

	completenessScore = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "quest_content",
		Name:      "completeness_score",
		Help:      "Completeness score [0,100] at persistence time.",
		Buckets:   []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
	}, []string{"kind"})

	confidenceScore = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "quest_content",
		Name:      "confidence_score",
		Help:      "Confidence score [0,1] at persistence time.",
		Buckets:   prometheus.LinearBuckets(0, 0.1, 11),
	}, []string{"kind"})

	adapterCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "quest_content",
		Name:      "adapter_calls_total",
		Help:      "Count of external adapter invocations by outcome.",
	}, []string{"adapter", "outcome"})
)

// Register adds every collector to reg. Call once at process startup.
func Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{phaseDuration, phaseTotal, executionTotal, completenessScore, confidenceScore, adapterCalls} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// ObserveCompleteness records a payload's completeness score at
// persistence time (spec §4.10). kind is "article" or "company".
func ObserveCompleteness(kind string, score float64) {
	completenessScore.WithLabelValues(kind).Observe(score)
}

// ObserveConfidence records a payload's confidence score.
func ObserveConfidence(kind string, score float64) {
	confidenceScore.WithLabelValues(kind).Observe(score)
}

// ObserveAdapterCall records one adapter invocation outcome ("ok" or
// "error") on the adapter_calls_total counter.
func ObserveAdapterCall(adapterName, outcome string) {
	adapterCalls.WithLabelValues(adapterName, outcome).Inc()
}

// EngineObserver adapts the metrics package to engine.Observer, so phase
// durations and execution outcomes are recorded without the engine
// package itself depending on prometheus.
type EngineObserver struct {
	workflow string
}

// NewEngineObserver builds an EngineObserver labeling events with
// workflow (e.g. "article" or "company").
func NewEngineObserver(workflow string) *EngineObserver {
	return &EngineObserver{workflow: workflow}
}

func (o *EngineObserver) Name() string { return "metrics." + o.workflow }

func (o *EngineObserver) Filter() engine.EventFilter {
	return engine.NewEventTypeFilter(
		engine.EventTypePhaseCompleted, engine.EventTypePhaseFailed, engine.EventTypePhaseSkipped,
		engine.EventTypeExecutionCompleted, engine.EventTypeExecutionFailed,
	)
}

func (o *EngineObserver) OnEvent(_ context.Context, event engine.Event) error {
	switch event.Type {
	case engine.EventTypePhaseCompleted, engine.EventTypePhaseFailed, engine.EventTypePhaseSkipped:
		status := statusFor(event.Type)
		phaseTotal.WithLabelValues(o.workflow, event.PhaseName, status).Inc()
		if event.DurationMs > 0 {
			phaseDuration.WithLabelValues(o.workflow, event.PhaseName, status).Observe(float64(event.DurationMs) / 1000.0)
		}
	case engine.EventTypeExecutionCompleted:
		executionTotal.WithLabelValues(o.workflow, "completed").Inc()
	case engine.EventTypeExecutionFailed:
		executionTotal.WithLabelValues(o.workflow, "failed").Inc()
	}
	return nil
}

func statusFor(t engine.EventType) string {
	switch t {
	case engine.EventTypePhaseCompleted:
		return "completed"
	case engine.EventTypePhaseFailed:
		return "failed"
	case engine.EventTypePhaseSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}
