// Package engine orchestrates suite execution: test scheduling, lifecycle
// hooks, the per-test watchdog, and result aggregation.
package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/devicelab-dev/suitekit/pkg/config"
	"github.com/devicelab-dev/suitekit/pkg/core"
	"github.com/devicelab-dev/suitekit/pkg/logger"
	"github.com/devicelab-dev/suitekit/pkg/metrics"
	"github.com/devicelab-dev/suitekit/pkg/report"
	"github.com/devicelab-dev/suitekit/pkg/script"
	"github.com/devicelab-dev/suitekit/pkg/suite"
)

// Config configures a Scheduler.
type Config struct {
	App      config.App
	DeviceID string // Informational, shown in logs

	// Progress callbacks, all optional
	OnTestStart func(testIdx, totalTests int, name string)
	OnTestEnd   func(name string, passed bool, durationMs int64)
	OnStepEnd   func(depth int, name string, passed bool, durationMs int64, errMsg string)
}

// Scheduler runs suites. Tests execute one at a time, in registration order,
// each under its own watchdog; one test's failure never stops the next.
type Scheduler struct {
	exec   core.Executor
	config Config
}

// New creates a Scheduler that drives the given executor.
func New(exec core.Executor, cfg Config) *Scheduler {
	return &Scheduler{
		exec:   exec,
		config: cfg,
	}
}

// RunSuite executes every test of the suite and returns the aggregated
// result. A beforeAll failure halts the suite before any test runs; afterAll
// runs regardless of what came before it.
func (s *Scheduler) RunSuite(ctx context.Context, su *suite.Suite) *report.SuiteResult {
	runID := uuid.New().String()
	start := time.Now()

	logger.Info("suite %q: run %s, %d tests, device %q", su.Name, runID, len(su.Tests), s.config.DeviceID)

	sr := &scopeRunner{
		exec:      s.exec,
		app:       s.config.App,
		script:    script.New(),
		suiteName: su.Name,
		onStep:    s.config.OnStepEnd,
	}

	var tests []report.TestResult
	var hookErrs []string

	if err := s.runSuiteHook(ctx, sr, su.BeforeAll, "beforeAll"); err != nil {
		hookErrs = append(hookErrs, err.Error())
	} else {
		tests = s.runTests(ctx, sr, su, runID)
	}

	// afterAll runs even when beforeAll or the tests failed
	if err := s.runSuiteHook(ctx, sr, su.AfterAll, "afterAll"); err != nil {
		hookErrs = append(hookErrs, err.Error())
	}

	res := report.Build(su.Name, runID, start, time.Since(start), tests, strings.Join(hookErrs, "; "))

	metrics.RecordSuite(su.Name, runID, res.Passed, time.Since(start))
	logger.Info("suite %q finished: passed=%t (%d passed, %d failed, %dms)",
		su.Name, res.Passed, res.PassedCount, res.FailedCount, res.Duration)

	return res
}

// runSuiteHook executes a beforeAll/afterAll step sequence. Step results of
// suite-level hooks are not part of the report; only their failure is.
func (s *Scheduler) runSuiteHook(ctx context.Context, sr *scopeRunner, steps []suite.Step, name string) error {
	if len(steps) == 0 {
		return nil
	}

	logger.Debug("suite %q: %s", sr.suiteName, name)
	if _, err := sr.runSteps(ctx, steps); err != nil {
		logger.Error("suite %q: %s failed: %v", sr.suiteName, name, err)
		return core.NewFailure(core.KindHook, "%s failed", name).WithCause(err)
	}
	return nil
}

func (s *Scheduler) runTests(ctx context.Context, sr *scopeRunner, su *suite.Suite, runID string) []report.TestResult {
	results := make([]report.TestResult, 0, len(su.Tests))

	for i, t := range su.Tests {
		if ctx.Err() != nil {
			logger.Warn("suite %q: run canceled, %d tests not attempted", su.Name, len(su.Tests)-i)
			break
		}

		if s.config.OnTestStart != nil {
			s.config.OnTestStart(i, len(su.Tests), t.Name)
		}

		res := s.runTestWithWatchdog(ctx, sr, su, t)
		results = append(results, res)

		metrics.RecordTest(su.Name, runID, res.Passed, res.FailureKind)
		if s.config.OnTestEnd != nil {
			s.config.OnTestEnd(t.Name, res.Passed, res.Duration)
		}
	}

	return results
}

// runTestWithWatchdog runs one test under its timeout. The body runs in a
// goroutine; when the deadline wins the race the late result stays in the
// buffered channel and is discarded.
func (s *Scheduler) runTestWithWatchdog(ctx context.Context, sr *scopeRunner, su *suite.Suite, t *suite.Test) report.TestResult {
	timeout := t.Timeout
	if timeout <= 0 {
		timeout = s.config.App.DefaultTimeout
	}

	tctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	done := make(chan report.TestResult, 1)
	go func() {
		done <- sr.runTest(tctx, t, su.BeforeEach, su.AfterEach)
	}()

	select {
	case res := <-done:
		return res
	case <-tctx.Done():
		res := report.TestResult{
			TestName:    t.Name,
			Duration:    time.Since(start).Milliseconds(),
			StepResults: []report.StepResult{},
		}
		if ctx.Err() != nil {
			logger.Warn("test %q: run canceled", t.Name)
			res.Error = "run canceled"
			res.FailureKind = core.KindCanceled.String()
			return res
		}
		logger.Warn("test %q: timed out after %v", t.Name, timeout)
		res.Error = fmt.Sprintf("timed out after %v", timeout)
		res.FailureKind = core.KindTimeout.String()
		return res
	}
}
