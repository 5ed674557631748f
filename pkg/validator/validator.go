// Package validator checks suites for structural problems before execution.
// It walks the whole suite tree, including hooks and nested blocks, and
// reports every problem found rather than stopping at the first.
package validator

import (
	"fmt"

	"github.com/devicelab-dev/suitekit/pkg/core"
	"github.com/devicelab-dev/suitekit/pkg/suite"
)

// ValidationError represents a structural problem with its location.
type ValidationError struct {
	Suite   string
	Scope   string // test name or hook name ("beforeAll", ...)
	Message string
}

func (e *ValidationError) Error() string {
	if e.Scope != "" {
		return fmt.Sprintf("%s: %s: %s", e.Suite, e.Scope, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Suite, e.Message)
}

// Result contains the validation result.
type Result struct {
	// Errors contains all validation errors found.
	Errors []error
}

// IsValid returns true if there are no validation errors.
func (r *Result) IsValid() bool {
	return len(r.Errors) == 0
}

// Validate checks one or more suites. A suite must have a name and uniquely
// named, non-empty tests; every step must carry the parameters its kind
// needs.
func Validate(suites ...*suite.Suite) *Result {
	result := &Result{}
	for _, su := range suites {
		validateSuite(su, result)
	}
	return result
}

func validateSuite(su *suite.Suite, result *Result) {
	name := su.Name
	if name == "" {
		name = "<unnamed suite>"
		result.Errors = append(result.Errors, &ValidationError{
			Suite:   name,
			Message: "suite has no name",
		})
	}

	hooks := []struct {
		name  string
		steps []suite.Step
	}{
		{"beforeAll", su.BeforeAll},
		{"afterAll", su.AfterAll},
		{"beforeEach", su.BeforeEach},
		{"afterEach", su.AfterEach},
	}
	for _, h := range hooks {
		validateSteps(h.steps, name, h.name, result)
	}

	seen := make(map[string]bool, len(su.Tests))
	for i, t := range su.Tests {
		scope := t.Name
		if t.Name == "" {
			scope = fmt.Sprintf("test #%d", i+1)
			result.Errors = append(result.Errors, &ValidationError{
				Suite:   name,
				Scope:   scope,
				Message: "test has no name",
			})
		} else if seen[t.Name] {
			result.Errors = append(result.Errors, &ValidationError{
				Suite:   name,
				Scope:   scope,
				Message: "duplicate test name",
			})
		}
		seen[t.Name] = true

		if len(t.Steps) == 0 {
			result.Errors = append(result.Errors, &ValidationError{
				Suite:   name,
				Scope:   scope,
				Message: "test has no steps",
			})
		}
		if t.Timeout < 0 {
			result.Errors = append(result.Errors, &ValidationError{
				Suite:   name,
				Scope:   scope,
				Message: fmt.Sprintf("negative timeout %v", t.Timeout),
			})
		}

		validateSteps(t.Steps, name, scope, result)
	}
}

// validateSteps checks each step's parameters and recurses into blocks.
func validateSteps(steps []suite.Step, suiteName, scope string, result *Result) {
	fail := func(st suite.Step, format string, args ...interface{}) {
		result.Errors = append(result.Errors, &ValidationError{
			Suite:   suiteName,
			Scope:   scope,
			Message: fmt.Sprintf("%s: %s", st.Type(), fmt.Sprintf(format, args...)),
		})
	}

	for _, st := range steps {
		switch s := st.(type) {
		case *suite.TapStep:
			if s.Target.Empty() {
				fail(st, "empty target")
			}

		case *suite.SwipeStep:
			if !validDirection(s.Direction) {
				fail(st, "invalid direction %q", s.Direction)
			}
			if s.Distance < 0 {
				fail(st, "negative distance %d", s.Distance)
			}

		case *suite.PressButtonStep:
			if s.Button == "" {
				fail(st, "no button name")
			}

		case *suite.SetOrientationStep:
			if s.Mode != core.OrientationPortrait && s.Mode != core.OrientationLandscape {
				fail(st, "invalid orientation %q", s.Mode)
			}

		case *suite.AssertVisibleStep:
			if s.Target.Empty() {
				fail(st, "empty target")
			}

		case *suite.AssertScreenStep:
			if s.Expectation == "" {
				fail(st, "no expectation")
			}
			if !validStrictness(s.Strictness) {
				fail(st, "invalid strictness %q", s.Strictness)
			}

		case *suite.AssertScriptStep:
			if s.Condition == "" {
				fail(st, "no condition")
			}

		case *suite.WaitForElementStep:
			if s.Target.Empty() {
				fail(st, "empty target")
			}

		case *suite.WaitForAnyStep:
			if len(s.Targets) == 0 {
				fail(st, "no targets")
			}
			for i, tgt := range s.Targets {
				if tgt.Empty() {
					fail(st, "target #%d is empty", i+1)
				}
			}

		case *suite.WaitForScreenStep:
			if s.Expectation == "" {
				fail(st, "no expectation")
			}
			if !validStrictness(s.Strictness) {
				fail(st, "invalid strictness %q", s.Strictness)
			}

		case *suite.IfPresentStep:
			if s.Target.Empty() {
				fail(st, "empty target")
			}
			if len(s.Steps) == 0 {
				fail(st, "block has no steps")
			}
			validateSteps(s.Steps, suiteName, scope, result)

		case *suite.RetryStep:
			if len(s.Steps) == 0 {
				fail(st, "block has no steps")
			}
			if s.Delay < 0 {
				fail(st, "negative delay %v", s.Delay)
			}
			validateSteps(s.Steps, suiteName, scope, result)

		case *suite.RepeatStep:
			if s.Times < 0 {
				fail(st, "negative repeat count %d", s.Times)
			}
			if len(s.Steps) == 0 {
				fail(st, "block has no steps")
			}
			validateSteps(s.Steps, suiteName, scope, result)

		case *suite.RunScriptStep:
			if s.Script == "" {
				fail(st, "empty script")
			}
		}
	}
}

func validDirection(d core.Direction) bool {
	switch d {
	case core.DirectionUp, core.DirectionDown, core.DirectionLeft, core.DirectionRight:
		return true
	}
	return false
}

func validStrictness(s core.Strictness) bool {
	switch s {
	case "", core.StrictnessStrict, core.StrictnessNormal, core.StrictnessLenient:
		return true
	}
	return false
}
