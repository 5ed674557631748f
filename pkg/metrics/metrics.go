// Package metrics exposes Prometheus counters for suite execution.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	MetricsNamespace = "suitekit"
)

var (
	stepsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "steps_total",
		Help:      "Count of executed steps",
	}, []string{
		"suite",
		"result",
	})

	testsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "tests_total",
		Help:      "Count of executed tests",
	}, []string{
		"suite",
		"run_id",
		"result",
	})

	testFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: MetricsNamespace,
		Name:      "test_failures_total",
		Help:      "Count of test failures by failure kind",
	}, []string{
		"suite",
		"kind",
	})

	suiteResults = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "suite_results",
		Help:      "Result of suite runs",
	}, []string{
		"suite",
		"run_id",
		"result",
	})

	suiteDurationSeconds = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: MetricsNamespace,
		Name:      "suite_duration_seconds",
		Help:      "Duration of suite runs",
	}, []string{
		"suite",
		"run_id",
	})
)

func resultLabel(passed bool) string {
	if passed {
		return "pass"
	}
	return "fail"
}

// RecordStep counts one executed step.
func RecordStep(suiteName string, passed bool) {
	stepsTotal.WithLabelValues(suiteName, resultLabel(passed)).Inc()
}

// RecordTest counts one finished test. Failures are also counted by kind.
func RecordTest(suiteName, runID string, passed bool, failureKind string) {
	testsTotal.WithLabelValues(suiteName, runID, resultLabel(passed)).Inc()
	if !passed && failureKind != "" {
		testFailuresTotal.WithLabelValues(suiteName, failureKind).Inc()
	}
}

// RecordSuite records the outcome of a finished suite run.
func RecordSuite(suiteName, runID string, passed bool, duration time.Duration) {
	suiteResults.WithLabelValues(suiteName, runID, resultLabel(passed)).Set(1)
	suiteDurationSeconds.WithLabelValues(suiteName, runID).Set(duration.Seconds())
}
