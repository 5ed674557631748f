package engine

import (
	"context"
	"time"

	"github.com/devicelab-dev/suitekit/pkg/core"
	"github.com/devicelab-dev/suitekit/pkg/logger"
	"github.com/devicelab-dev/suitekit/pkg/report"
	"github.com/devicelab-dev/suitekit/pkg/suite"
)

// runTest executes one test with its per-test hooks.
//
// Order is beforeEach, body, afterEach. afterEach runs no matter how the
// earlier phases ended. A beforeEach failure skips the body, so the result
// carries no step results. The first failure decides the test's error and
// kind; a later afterEach failure is appended to the message, it never
// replaces the original.
func (sr *scopeRunner) runTest(ctx context.Context, t *suite.Test, beforeEach, afterEach []suite.Step) report.TestResult {
	start := time.Now()
	res := report.TestResult{
		TestName:    t.Name,
		StepResults: []report.StepResult{},
	}

	var failure error

	if len(beforeEach) > 0 {
		if _, err := sr.runSteps(ctx, beforeEach); err != nil {
			failure = core.NewFailure(core.KindHook, "beforeEach failed").WithCause(err)
			logger.Error("test %q: beforeEach: %v", t.Name, err)
		}
	}

	if failure == nil {
		stepResults, err := sr.runSteps(ctx, t.Steps)
		if stepResults != nil {
			res.StepResults = stepResults
		}
		failure = err
	}

	var afterErr error
	if len(afterEach) > 0 {
		if _, err := sr.runSteps(ctx, afterEach); err != nil {
			afterErr = core.NewFailure(core.KindHook, "afterEach failed").WithCause(err)
			logger.Error("test %q: afterEach: %v", t.Name, err)
		}
	}

	res.Duration = time.Since(start).Milliseconds()

	switch {
	case failure == nil && afterErr == nil:
		res.Passed = true
	case failure == nil:
		res.Error = afterErr.Error()
		res.FailureKind = core.KindHook.String()
	default:
		res.Error = failure.Error()
		res.FailureKind = core.KindOf(failure).String()
		if afterErr != nil {
			res.Error += "; " + afterErr.Error()
		}
	}

	return res
}
