// Package suite defines the test model: suites, tests, steps, and hooks.
package suite

import (
	"fmt"
	"time"

	"github.com/devicelab-dev/suitekit/pkg/core"
)

// StepType represents the type of step.
type StepType string

// Step type constants.
const (
	// Interaction
	StepTap            StepType = "tap"
	StepTypeText       StepType = "typeText"
	StepSwipe          StepType = "swipe"
	StepPressButton    StepType = "pressButton"
	StepSetOrientation StepType = "setOrientation"

	// App management
	StepLaunchApp    StepType = "launchApp"
	StepTerminateApp StepType = "terminateApp"

	// Assertions
	StepAssertVisible StepType = "assertVisible"
	StepAssertScreen  StepType = "assertScreen"
	StepAssertScript  StepType = "assertScript"

	// Waits
	StepWaitForElement StepType = "waitForElement"
	StepWaitForAny     StepType = "waitForAnyOf"
	StepWaitForScreen  StepType = "waitForScreen"

	// Blocks
	StepIfPresent StepType = "ifPresent"
	StepRetry     StepType = "retry"
	StepRepeat    StepType = "repeat"

	// Scripts & media
	StepRunScript      StepType = "runScript"
	StepTakeScreenshot StepType = "takeScreenshot"
)

// Step is the interface for all test steps.
type Step interface {
	Type() StepType
	Label() string
	Describe() string
}

// BaseStep contains common fields for all steps.
type BaseStep struct {
	StepLabel string // Optional label shown in results instead of the description
}

// Label returns the step label.
func (b BaseStep) Label() string { return b.StepLabel }

// ============================================
// Interaction Steps
// ============================================

// TapStep taps on an element.
type TapStep struct {
	BaseStep
	Target core.Target
}

// TypeTextStep types text into the focused element.
type TypeTextStep struct {
	BaseStep
	Text   string // Supports ${expr} interpolation
	Submit bool   // Submit the input after typing
}

// SwipeStep performs a directional swipe gesture.
type SwipeStep struct {
	BaseStep
	Direction core.Direction
	Distance  int // Swipe distance in pixels; 0 lets the backend choose
}

// PressButtonStep presses a named hardware or navigation button.
type PressButtonStep struct {
	BaseStep
	Button string // e.g. "back", "home", "enter"
}

// SetOrientationStep rotates the screen.
type SetOrientationStep struct {
	BaseStep
	Mode core.Orientation
}

// ============================================
// App Management Steps
// ============================================

// LaunchAppStep launches an app.
type LaunchAppStep struct {
	BaseStep
	Package string // Empty means the configured package
}

// TerminateAppStep stops an app.
type TerminateAppStep struct {
	BaseStep
	Package string // Empty means the configured package
}

// ============================================
// Assertion Steps
// ============================================

// AssertVisibleStep asserts an element is currently visible.
type AssertVisibleStep struct {
	BaseStep
	Target core.Target
}

// AssertScreenStep verifies the whole screen against an expectation.
type AssertScreenStep struct {
	BaseStep
	Expectation string // Supports ${expr} interpolation
	Strictness  core.Strictness
}

// AssertScriptStep asserts a script condition is true.
type AssertScriptStep struct {
	BaseStep
	Condition string
}

// ============================================
// Wait Steps
// ============================================

// WaitForElementStep polls until an element is visible.
type WaitForElementStep struct {
	BaseStep
	Target   core.Target
	Timeout  time.Duration // 0 means the configured default
	Interval time.Duration // 0 means the configured default
}

// WaitForAnyStep polls until any of the targets is visible.
type WaitForAnyStep struct {
	BaseStep
	Targets  []core.Target
	Timeout  time.Duration
	Interval time.Duration
}

// WaitForScreenStep polls until the screen matches an expectation.
type WaitForScreenStep struct {
	BaseStep
	Expectation string
	Strictness  core.Strictness
	Timeout     time.Duration
	Interval    time.Duration
}

// ============================================
// Block Steps
// ============================================

// IfPresentStep runs nested steps only when the target is visible.
// Absence is a no-op, never a failure.
type IfPresentStep struct {
	BaseStep
	Target core.Target
	Steps  []Step
}

// RetryStep retries its block on failure, up to MaxAttempts total attempts.
type RetryStep struct {
	BaseStep
	MaxAttempts int           // Values below 1 are treated as 1
	Delay       time.Duration // Pause between attempts
	Steps       []Step
}

// RepeatStep runs its block a fixed number of times.
type RepeatStep struct {
	BaseStep
	Times int
	Steps []Step
}

// ============================================
// Script & Media Steps
// ============================================

// RunScriptStep evaluates JavaScript in the suite's script engine.
type RunScriptStep struct {
	BaseStep
	Script string
}

// TakeScreenshotStep captures a named screenshot.
type TakeScreenshotStep struct {
	BaseStep
	Name string
}

// ============================================
// Type() implementations
// ============================================

// Type returns the step type.
func (s *TapStep) Type() StepType { return StepTap }

// Type returns the step type.
func (s *TypeTextStep) Type() StepType { return StepTypeText }

// Type returns the step type.
func (s *SwipeStep) Type() StepType { return StepSwipe }

// Type returns the step type.
func (s *PressButtonStep) Type() StepType { return StepPressButton }

// Type returns the step type.
func (s *SetOrientationStep) Type() StepType { return StepSetOrientation }

// Type returns the step type.
func (s *LaunchAppStep) Type() StepType { return StepLaunchApp }

// Type returns the step type.
func (s *TerminateAppStep) Type() StepType { return StepTerminateApp }

// Type returns the step type.
func (s *AssertVisibleStep) Type() StepType { return StepAssertVisible }

// Type returns the step type.
func (s *AssertScreenStep) Type() StepType { return StepAssertScreen }

// Type returns the step type.
func (s *AssertScriptStep) Type() StepType { return StepAssertScript }

// Type returns the step type.
func (s *WaitForElementStep) Type() StepType { return StepWaitForElement }

// Type returns the step type.
func (s *WaitForAnyStep) Type() StepType { return StepWaitForAny }

// Type returns the step type.
func (s *WaitForScreenStep) Type() StepType { return StepWaitForScreen }

// Type returns the step type.
func (s *IfPresentStep) Type() StepType { return StepIfPresent }

// Type returns the step type.
func (s *RetryStep) Type() StepType { return StepRetry }

// Type returns the step type.
func (s *RepeatStep) Type() StepType { return StepRepeat }

// Type returns the step type.
func (s *RunScriptStep) Type() StepType { return StepRunScript }

// Type returns the step type.
func (s *TakeScreenshotStep) Type() StepType { return StepTakeScreenshot }

// ============================================
// Describe() implementations for detailed output
// ============================================

// Describe returns a human-readable description of the tap step.
func (s *TapStep) Describe() string {
	return "tap: " + s.Target.String()
}

// Describe returns a human-readable description of the type text step.
func (s *TypeTextStep) Describe() string {
	return fmt.Sprintf("typeText: %q", s.Text)
}

// Describe returns a human-readable description of the swipe step.
func (s *SwipeStep) Describe() string {
	if s.Direction != "" {
		return "swipe: " + string(s.Direction)
	}
	return "swipe"
}

// Describe returns a human-readable description of the press button step.
func (s *PressButtonStep) Describe() string {
	return "pressButton: " + s.Button
}

// Describe returns a human-readable description of the set orientation step.
func (s *SetOrientationStep) Describe() string {
	return "setOrientation: " + string(s.Mode)
}

// Describe returns a human-readable description of the launch app step.
func (s *LaunchAppStep) Describe() string {
	if s.Package != "" {
		return "launchApp: " + s.Package
	}
	return "launchApp"
}

// Describe returns a human-readable description of the terminate app step.
func (s *TerminateAppStep) Describe() string {
	if s.Package != "" {
		return "terminateApp: " + s.Package
	}
	return "terminateApp"
}

// Describe returns a human-readable description of the assert visible step.
func (s *AssertVisibleStep) Describe() string {
	return "assertVisible: " + s.Target.String()
}

// Describe returns a human-readable description of the assert screen step.
func (s *AssertScreenStep) Describe() string {
	return fmt.Sprintf("assertScreen: %q", s.Expectation)
}

// Describe returns a human-readable description of the assert script step.
func (s *AssertScriptStep) Describe() string {
	return "assertScript: " + s.Condition
}

// Describe returns a human-readable description of the wait for element step.
func (s *WaitForElementStep) Describe() string {
	return "waitForElement: " + s.Target.String()
}

// Describe returns a human-readable description of the wait for any step.
func (s *WaitForAnyStep) Describe() string {
	desc := "waitForAnyOf:"
	for _, tgt := range s.Targets {
		desc += " [" + tgt.String() + "]"
	}
	return desc
}

// Describe returns a human-readable description of the wait for screen step.
func (s *WaitForScreenStep) Describe() string {
	return fmt.Sprintf("waitForScreen: %q", s.Expectation)
}

// Describe returns a human-readable description of the if present step.
func (s *IfPresentStep) Describe() string {
	return "ifPresent: " + s.Target.String()
}

// Describe returns a human-readable description of the retry step.
func (s *RetryStep) Describe() string {
	return fmt.Sprintf("retry (maxAttempts: %d)", s.MaxAttempts)
}

// Describe returns a human-readable description of the repeat step.
func (s *RepeatStep) Describe() string {
	return fmt.Sprintf("repeat (times: %d)", s.Times)
}

// Describe returns a human-readable description of the run script step.
func (s *RunScriptStep) Describe() string {
	return "runScript"
}

// Describe returns a human-readable description of the take screenshot step.
func (s *TakeScreenshotStep) Describe() string {
	if s.Name != "" {
		return "takeScreenshot: " + s.Name
	}
	return "takeScreenshot"
}

// Name returns the step's display name: the label when set, the description
// otherwise.
func Name(s Step) string {
	if s.Label() != "" {
		return s.Label()
	}
	return s.Describe()
}
