package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/devicelab-dev/suitekit/pkg/config"
	"github.com/devicelab-dev/suitekit/pkg/core"
	"github.com/devicelab-dev/suitekit/pkg/logger"
	"github.com/devicelab-dev/suitekit/pkg/metrics"
	"github.com/devicelab-dev/suitekit/pkg/report"
	"github.com/devicelab-dev/suitekit/pkg/script"
	"github.com/devicelab-dev/suitekit/pkg/suite"
)

// scopeRunner executes one step sequence: a test body, a hook, or a nested
// block. Block steps run their children through a child runner one level
// deeper.
type scopeRunner struct {
	exec      core.Executor
	app       config.App
	script    *script.Engine
	suiteName string
	depth     int
	onStep    func(depth int, name string, passed bool, durationMs int64, errMsg string)
}

// stepOutcome carries extra data a step produced beyond pass/fail.
type stepOutcome struct {
	nested     []report.StepResult
	screenshot string
}

// child returns a runner for nested blocks, one level deeper.
func (sr *scopeRunner) child() *scopeRunner {
	c := *sr
	c.depth++
	return &c
}

// ============================================
// Step sequence execution
// ============================================

// runSteps executes steps in order and stops at the first failure. It returns
// one result per executed step; steps after a failure never run and get no
// results. The returned error is the failure that stopped the sequence.
func (sr *scopeRunner) runSteps(ctx context.Context, steps []suite.Step) ([]report.StepResult, error) {
	var results []report.StepResult

	for _, st := range steps {
		if err := ctx.Err(); err != nil {
			return results, core.NewFailure(core.KindOf(err), "run interrupted").WithCause(err)
		}

		name := suite.Name(st)
		logger.Debug("step: %s", name)

		start := time.Now()
		outcome, err := sr.executeStep(ctx, st)

		res := report.StepResult{
			StepName:       name,
			Passed:         err == nil,
			Duration:       time.Since(start).Milliseconds(),
			ScreenshotPath: outcome.screenshot,
			Nested:         outcome.nested,
		}

		if err != nil {
			res.Error = err.Error()
			res.FailureKind = core.KindOf(err).String()
			if res.ScreenshotPath == "" {
				res.ScreenshotPath = sr.captureFailureScreenshot(ctx, st)
			}
		}

		results = append(results, res)
		metrics.RecordStep(sr.suiteName, res.Passed)
		if sr.onStep != nil {
			sr.onStep(sr.depth, res.StepName, res.Passed, res.Duration, res.Error)
		}

		if err != nil {
			return results, err
		}
	}

	return results, nil
}

// captureFailureScreenshot grabs the screen after a failed step. Capture
// problems are logged, never turned into failures of their own.
func (sr *scopeRunner) captureFailureScreenshot(ctx context.Context, st suite.Step) string {
	if !sr.app.CaptureScreenshotOnFailure {
		return ""
	}
	if ctx.Err() != nil {
		return ""
	}

	name := fmt.Sprintf("failure-%s-%d", st.Type(), time.Now().UnixMilli())
	art, err := sr.exec.TakeScreenshot(ctx, name)
	if err != nil {
		logger.Warn("failure screenshot for %q: %v", suite.Name(st), err)
		return ""
	}
	return art.Path
}

// ============================================
// Step execution
// ============================================

// executeStep dispatches a single step to the executor, the script engine, or
// a nested block run.
func (sr *scopeRunner) executeStep(ctx context.Context, st suite.Step) (stepOutcome, error) {
	var out stepOutcome

	switch s := st.(type) {
	// Interaction
	case *suite.TapStep:
		target := sr.expandTarget(s.Target)
		if err := sr.exec.Tap(ctx, target); err != nil {
			return out, core.NewFailure(core.KindExecutor, "tap %s", target).WithCause(err)
		}

	case *suite.TypeTextStep:
		text := sr.script.Expand(s.Text)
		if err := sr.exec.Type(ctx, text, s.Submit); err != nil {
			return out, core.NewFailure(core.KindExecutor, "type text").WithCause(err)
		}

	case *suite.SwipeStep:
		if err := sr.exec.Swipe(ctx, s.Direction, s.Distance); err != nil {
			return out, core.NewFailure(core.KindExecutor, "swipe %s", s.Direction).WithCause(err)
		}

	case *suite.PressButtonStep:
		if err := sr.exec.PressButton(ctx, s.Button); err != nil {
			return out, core.NewFailure(core.KindExecutor, "press button %q", s.Button).WithCause(err)
		}

	case *suite.SetOrientationStep:
		if err := sr.exec.SetOrientation(ctx, s.Mode); err != nil {
			return out, core.NewFailure(core.KindExecutor, "set orientation %s", s.Mode).WithCause(err)
		}

	// App management
	case *suite.LaunchAppStep:
		return out, sr.launchApp(ctx, s)

	case *suite.TerminateAppStep:
		pkg := sr.packageFor(s.Package)
		if err := sr.exec.TerminateApp(ctx, pkg); err != nil {
			return out, core.NewFailure(core.KindExecutor, "terminate app %q", pkg).WithCause(err)
		}

	// Assertions
	case *suite.AssertVisibleStep:
		target := sr.expandTarget(s.Target)
		visible, err := sr.anyVisible(ctx, target)
		if err != nil {
			return out, err
		}
		if !visible {
			return out, core.NewFailure(core.KindAssertion, "element %s is not visible", target)
		}

	case *suite.AssertScreenStep:
		expectation := sr.script.Expand(s.Expectation)
		v, err := sr.exec.VerifyScreen(ctx, expectation, s.Strictness.OrDefault())
		if err != nil {
			return out, core.NewFailure(core.KindExecutor, "verify screen").WithCause(err)
		}
		if !v.Matches {
			return out, screenMismatch(expectation, v)
		}

	case *suite.AssertScriptStep:
		ok, err := sr.script.EvalCondition(s.Condition)
		if err != nil {
			return out, core.NewFailure(core.KindAssertion, "condition %q", s.Condition).WithCause(err)
		}
		if !ok {
			return out, core.NewFailure(core.KindAssertion, "condition %q evaluated to false", s.Condition)
		}

	// Waits
	case *suite.WaitForElementStep:
		target := sr.expandTarget(s.Target)
		timeout, interval := sr.waitBudget(s.Timeout, s.Interval)
		return out, PollUntil(ctx, "element "+target.String(), timeout, interval, func(ctx context.Context) (bool, error) {
			return sr.anyVisible(ctx, target)
		})

	case *suite.WaitForAnyStep:
		return out, sr.waitForAny(ctx, s)

	case *suite.WaitForScreenStep:
		expectation := sr.script.Expand(s.Expectation)
		timeout, interval := sr.waitBudget(s.Timeout, s.Interval)
		return out, PollUntil(ctx, fmt.Sprintf("screen %q", expectation), timeout, interval, func(ctx context.Context) (bool, error) {
			v, err := sr.exec.VerifyScreen(ctx, expectation, s.Strictness.OrDefault())
			if err != nil {
				return false, core.NewFailure(core.KindExecutor, "verify screen").WithCause(err)
			}
			return v.Matches, nil
		})

	// Blocks
	case *suite.IfPresentStep:
		return sr.executeIfPresent(ctx, s)

	case *suite.RetryStep:
		return sr.executeRetry(ctx, s)

	case *suite.RepeatStep:
		return sr.executeRepeat(ctx, s)

	// Scripts & media
	case *suite.RunScriptStep:
		if err := sr.script.Run(s.Script); err != nil {
			return out, core.NewFailure(core.KindAssertion, "script failed").WithCause(err)
		}

	case *suite.TakeScreenshotStep:
		name := s.Name
		if name == "" {
			name = fmt.Sprintf("screenshot-%d", time.Now().UnixMilli())
		}
		art, err := sr.exec.TakeScreenshot(ctx, name)
		if err != nil {
			return out, core.NewFailure(core.KindExecutor, "take screenshot %q", name).WithCause(err)
		}
		out.screenshot = art.Path

	default:
		return out, core.NewFailure(core.KindExecutor, "unsupported step type: %s", st.Type())
	}

	return out, nil
}

// launchApp starts the app under its own launch budget.
func (sr *scopeRunner) launchApp(ctx context.Context, s *suite.LaunchAppStep) error {
	pkg := sr.packageFor(s.Package)
	if pkg == "" {
		return core.NewFailure(core.KindExecutor, "launch app: no package configured")
	}

	lctx := ctx
	if sr.app.AppLaunchTimeout > 0 {
		var cancel context.CancelFunc
		lctx, cancel = context.WithTimeout(ctx, sr.app.AppLaunchTimeout)
		defer cancel()
	}

	if err := sr.exec.LaunchApp(lctx, pkg); err != nil {
		if lctx.Err() != nil && ctx.Err() == nil {
			return core.NewFailure(core.KindTimeout, "app %q did not launch within %v", pkg, sr.app.AppLaunchTimeout)
		}
		return core.NewFailure(core.KindExecutor, "launch app %q", pkg).WithCause(err)
	}
	return nil
}

// waitForAny polls until any of the targets becomes visible.
func (sr *scopeRunner) waitForAny(ctx context.Context, s *suite.WaitForAnyStep) error {
	if len(s.Targets) == 0 {
		return core.NewFailure(core.KindAssertion, "waitForAnyOf has no targets")
	}

	targets := make([]core.Target, len(s.Targets))
	desc := "any of:"
	for i, tgt := range s.Targets {
		targets[i] = sr.expandTarget(tgt)
		desc += " [" + targets[i].String() + "]"
	}

	timeout, interval := sr.waitBudget(s.Timeout, s.Interval)
	return PollUntil(ctx, desc, timeout, interval, func(ctx context.Context) (bool, error) {
		els, err := sr.listElements(ctx)
		if err != nil {
			return false, err
		}
		for _, tgt := range targets {
			if matchVisible(els, tgt) {
				return true, nil
			}
		}
		return false, nil
	})
}

// executeIfPresent runs the nested steps only when the target is visible.
// An absent target is a no-op, never a failure.
func (sr *scopeRunner) executeIfPresent(ctx context.Context, s *suite.IfPresentStep) (stepOutcome, error) {
	var out stepOutcome

	target := sr.expandTarget(s.Target)
	visible, err := sr.anyVisible(ctx, target)
	if err != nil {
		return out, err
	}
	if !visible {
		logger.Debug("ifPresent: %s not visible, skipping block", target)
		return out, nil
	}

	nested, err := sr.child().runSteps(ctx, s.Steps)
	out.nested = nested
	return out, err
}

// executeRetry runs the block up to MaxAttempts times, stopping at the first
// attempt that passes. Every attempt's step results are kept; on exhaustion
// the last attempt's failure is the one reported.
func (sr *scopeRunner) executeRetry(ctx context.Context, s *suite.RetryStep) (stepOutcome, error) {
	var out stepOutcome

	attempts := s.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	child := sr.child()
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return out, core.NewFailure(core.KindOf(err), "retry interrupted").WithCause(err)
		}

		nested, err := child.runSteps(ctx, s.Steps)
		out.nested = append(out.nested, nested...)
		if err == nil {
			if attempt > 1 {
				logger.Debug("retry passed on attempt %d/%d", attempt, attempts)
			}
			return out, nil
		}
		lastErr = err
		logger.Debug("retry attempt %d/%d failed: %v", attempt, attempts, err)

		if attempt < attempts && s.Delay > 0 {
			if serr := sleepCtx(ctx, s.Delay); serr != nil {
				return out, serr
			}
		}
	}

	return out, core.NewFailure(core.KindOf(lastErr), "retry failed after %d attempts", attempts).WithCause(lastErr)
}

// executeRepeat runs the block Times times, aborting on the first failing
// iteration.
func (sr *scopeRunner) executeRepeat(ctx context.Context, s *suite.RepeatStep) (stepOutcome, error) {
	var out stepOutcome

	child := sr.child()
	for i := 0; i < s.Times; i++ {
		if err := ctx.Err(); err != nil {
			return out, core.NewFailure(core.KindOf(err), "repeat interrupted").WithCause(err)
		}

		nested, err := child.runSteps(ctx, s.Steps)
		out.nested = append(out.nested, nested...)
		if err != nil {
			return out, core.NewFailure(core.KindOf(err), "iteration %d of %d failed", i+1, s.Times).WithCause(err)
		}
	}

	return out, nil
}

// ============================================
// Helpers
// ============================================

// packageFor resolves the app package: the step's own when set, the
// configured one otherwise.
func (sr *scopeRunner) packageFor(pkg string) string {
	if pkg != "" {
		return pkg
	}
	return sr.app.PackageName
}

// waitBudget resolves wait timeout and poll interval against the configured
// defaults.
func (sr *scopeRunner) waitBudget(timeout, interval time.Duration) (time.Duration, time.Duration) {
	if timeout <= 0 {
		timeout = sr.app.DefaultTimeout
	}
	if interval <= 0 {
		interval = sr.app.DefaultPollInterval
	}
	return timeout, interval
}

// expandTarget interpolates script variables in every criterion.
func (sr *scopeRunner) expandTarget(t core.Target) core.Target {
	t.ID = sr.script.Expand(t.ID)
	t.Text = sr.script.Expand(t.Text)
	t.Label = sr.script.Expand(t.Label)
	return t
}

// anyVisible reports whether any currently visible element matches the target.
func (sr *scopeRunner) anyVisible(ctx context.Context, target core.Target) (bool, error) {
	els, err := sr.listElements(ctx)
	if err != nil {
		return false, err
	}
	return matchVisible(els, target), nil
}

func (sr *scopeRunner) listElements(ctx context.Context) ([]core.Element, error) {
	els, err := sr.exec.ListElements(ctx)
	if err != nil {
		return nil, core.NewFailure(core.KindExecutor, "list elements").WithCause(err)
	}
	return els, nil
}

func matchVisible(els []core.Element, target core.Target) bool {
	for _, el := range els {
		if el.Visible && target.Matches(el) {
			return true
		}
	}
	return false
}

func screenMismatch(expectation string, v core.Verification) error {
	msg := fmt.Sprintf("screen does not match %q (confidence %.2f)", expectation, v.Confidence)
	if v.Details != "" {
		msg += ": " + v.Details
	}
	return core.NewFailure(core.KindAssertion, "%s", msg)
}
