// Package report defines execution results and their JSON and console output.
package report

import "time"

// StepResult captures the outcome of executing a single step
type StepResult struct {
	// Identity
	StepName string `json:"stepName"`

	// Status
	Passed      bool   `json:"passed"`
	Error       string `json:"error,omitempty"`
	FailureKind string `json:"failureKind,omitempty"`

	// Timing
	Duration int64 `json:"duration"` // Milliseconds

	// Artifacts
	ScreenshotPath string `json:"screenshotPath,omitempty"`

	// Nested results (for ifPresent, retry, repeat)
	Nested []StepResult `json:"nested,omitempty"`
}

// TestResult captures the outcome of executing a single test
type TestResult struct {
	// Identity
	TestName string `json:"testName"`

	// Status
	Passed      bool   `json:"passed"`
	Error       string `json:"error,omitempty"`
	FailureKind string `json:"failureKind,omitempty"`

	// Timing
	Duration int64 `json:"duration"` // Milliseconds

	// Results. Steps aborted by an earlier failure have no entry here.
	StepResults []StepResult `json:"stepResults"`
}

// SuiteResult captures the outcome of a whole suite run
type SuiteResult struct {
	// Identity
	SuiteName string `json:"suiteName"`
	RunID     string `json:"runId"` // Unique execution ID (UUID)

	// Status
	Passed bool   `json:"passed"`
	Error  string `json:"error,omitempty"` // Suite-level hook failures

	// Timing
	StartTime time.Time `json:"startTime"`
	Duration  int64     `json:"duration"` // Milliseconds

	// Summary (computed)
	PassedCount int `json:"passedCount"`
	FailedCount int `json:"failedCount"`

	// Results
	TestResults []TestResult `json:"testResults"`
}

// Build aggregates per-test results into a suite result. Counts are derived
// by counting; the suite passes only when no suite-level hook failed and
// every test passed.
func Build(suiteName, runID string, start time.Time, duration time.Duration, tests []TestResult, hookErr string) *SuiteResult {
	res := &SuiteResult{
		SuiteName:   suiteName,
		RunID:       runID,
		StartTime:   start,
		Duration:    duration.Milliseconds(),
		Error:       hookErr,
		TestResults: tests,
	}
	if res.TestResults == nil {
		res.TestResults = []TestResult{}
	}

	for _, t := range res.TestResults {
		if t.Passed {
			res.PassedCount++
		} else {
			res.FailedCount++
		}
	}

	res.Passed = hookErr == "" && res.FailedCount == 0
	return res
}
