package cli

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/suitekit/pkg/config"
	"github.com/devicelab-dev/suitekit/pkg/core"
	"github.com/devicelab-dev/suitekit/pkg/suite"
)

func passingSuite(name string) *suite.Suite {
	return suite.New(name).
		Test("taps the mock element",
			&suite.LaunchAppStep{Package: "com.example.app"},
			&suite.AssertVisibleStep{Target: core.Target{Text: "Mock Element"}},
			&suite.TapStep{Target: core.Target{Text: "Mock Element"}},
		).
		Build()
}

func TestResolveOutputDir_Default(t *testing.T) {
	home := t.TempDir()
	t.Setenv("SUITEKIT_HOME", home)
	config.ResetHome()
	t.Cleanup(config.ResetHome)

	dir := resolveOutputDir("")

	wantPrefix := filepath.Join(home, "reports") + string(filepath.Separator)
	if !strings.HasPrefix(dir, wantPrefix) {
		t.Errorf("expected dir to start with %s, got %s", wantPrefix, dir)
	}
	// Should have timestamp subfolder
	if filepath.Dir(dir) != filepath.Join(home, "reports") {
		t.Errorf("expected reports/<timestamp>, got %s", dir)
	}
}

func TestResolveOutputDir_CustomOutput(t *testing.T) {
	dir := resolveOutputDir("./my-reports")
	if dir != "my-reports" {
		t.Errorf("resolveOutputDir(./my-reports) = %s, want my-reports", dir)
	}
}

func TestReportFileName(t *testing.T) {
	tests := []struct {
		name     string
		expected string
	}{
		{"checkout", "checkout.json"},
		{"Login Flow", "Login-Flow.json"},
		{"smoke_test-1.2", "smoke_test-1.2.json"},
		{"a/b\\c", "a-b-c.json"},
		{"...", "suite.json"},
		{"", "suite.json"},
	}

	for _, tc := range tests {
		result := reportFileName(tc.name)
		if result != tc.expected {
			t.Errorf("reportFileName(%q) = %q, want %q", tc.name, result, tc.expected)
		}
	}
}

func TestSelectSuites_All(t *testing.T) {
	suites := []*suite.Suite{passingSuite("a"), passingSuite("b")}

	selected, err := selectSuites(suites, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(selected) != 2 {
		t.Errorf("expected 2 suites, got %d", len(selected))
	}
}

func TestSelectSuites_ByName(t *testing.T) {
	suites := []*suite.Suite{passingSuite("a"), passingSuite("b"), passingSuite("c")}

	selected, err := selectSuites(suites, []string{"c", "a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(selected) != 2 {
		t.Fatalf("expected 2 suites, got %d", len(selected))
	}
	if selected[0].Name != "c" || selected[1].Name != "a" {
		t.Errorf("expected argument order [c a], got [%s %s]", selected[0].Name, selected[1].Name)
	}
}

func TestSelectSuites_UnknownName(t *testing.T) {
	suites := []*suite.Suite{passingSuite("a")}

	_, err := selectSuites(suites, []string{"nope"})
	if err == nil {
		t.Fatal("expected error for unknown suite name")
	}
	if !strings.Contains(err.Error(), `unknown suite "nope"`) {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestSelectSuites_NoneRegistered(t *testing.T) {
	_, err := selectSuites(nil, nil)
	if err == nil {
		t.Error("expected error when no suites are registered")
	}
}

func TestFilterSuites_NoFilters(t *testing.T) {
	suites := []*suite.Suite{passingSuite("a")}

	filtered := filterSuites(suites, nil, nil)
	if len(filtered) != 1 || filtered[0] != suites[0] {
		t.Error("expected no-filter call to return the suites unchanged")
	}
}

func TestFilterSuites_IncludeAndExclude(t *testing.T) {
	su := suite.New("tagged").
		AddTest(&suite.Test{Name: "smoke test", Tags: []string{"smoke"}, Steps: []suite.Step{&suite.LaunchAppStep{}}}).
		AddTest(&suite.Test{Name: "wip test", Tags: []string{"smoke", "wip"}, Steps: []suite.Step{&suite.LaunchAppStep{}}}).
		AddTest(&suite.Test{Name: "slow test", Tags: []string{"slow"}, Steps: []suite.Step{&suite.LaunchAppStep{}}}).
		Build()

	filtered := filterSuites([]*suite.Suite{su}, []string{"smoke"}, []string{"wip"})
	if len(filtered) != 1 {
		t.Fatalf("expected 1 suite, got %d", len(filtered))
	}
	if len(filtered[0].Tests) != 1 || filtered[0].Tests[0].Name != "smoke test" {
		t.Errorf("expected only the smoke test to survive, got %d tests", len(filtered[0].Tests))
	}

	// The registered suite must stay untouched
	if len(su.Tests) != 3 {
		t.Errorf("filtering modified the original suite: %d tests", len(su.Tests))
	}
}

func TestFilterSuites_DropsEmptySuites(t *testing.T) {
	su := suite.New("untagged").
		AddTest(&suite.Test{Name: "plain test", Steps: []suite.Step{&suite.LaunchAppStep{}}}).
		Build()

	filtered := filterSuites([]*suite.Suite{su}, []string{"smoke"}, nil)
	if len(filtered) != 0 {
		t.Errorf("expected no suites to survive, got %d", len(filtered))
	}
}

func TestLoadApp_ExplicitPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `packageName: com.example.shop
defaultTimeout: 5000
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	app, err := loadApp(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if app.PackageName != "com.example.shop" {
		t.Errorf("PackageName = %q, want com.example.shop", app.PackageName)
	}
}

func TestLoadApp_MissingExplicitPath(t *testing.T) {
	_, err := loadApp("/nonexistent/config.yaml")
	if err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestLoadApp_DefaultsWithoutFile(t *testing.T) {
	app, err := loadApp("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if app.DefaultTimeout != config.Default().DefaultTimeout {
		t.Errorf("DefaultTimeout = %v, want %v", app.DefaultTimeout, config.Default().DefaultTimeout)
	}
}

func TestGlobalFlags(t *testing.T) {
	flagNames := make(map[string]bool)
	for _, f := range GlobalFlags {
		for _, name := range f.Names() {
			flagNames[name] = true
		}
	}

	requiredFlags := []string{"agent-url", "device", "udid", "mock", "verbose", "no-ansi"}
	for _, name := range requiredFlags {
		if !flagNames[name] {
			t.Errorf("expected flag %q to be defined", name)
		}
	}
}

func TestNewApp_Commands(t *testing.T) {
	app := NewApp(passingSuite("a"))

	commands := make(map[string]bool)
	for _, cmd := range app.Commands {
		commands[cmd.Name] = true
	}
	for _, name := range []string{"run", "check"} {
		if !commands[name] {
			t.Errorf("expected command %q to be defined", name)
		}
	}
}

func TestRunCommand_MockRun(t *testing.T) {
	dir := t.TempDir()

	app := NewApp(passingSuite("cli-smoke"))

	// Capture stdout to suppress output
	oldStdout := os.Stdout
	os.Stdout, _ = os.Open(os.DevNull)
	defer func() { os.Stdout = oldStdout }()

	err := app.Run([]string{"suitekit", "--mock", "run", "--output", dir})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reportPath := filepath.Join(dir, "cli-smoke.json")
	if _, err := os.Stat(reportPath); err != nil {
		t.Errorf("expected report at %s: %v", reportPath, err)
	}
	logPath := filepath.Join(dir, "suitekit.log")
	if _, err := os.Stat(logPath); err != nil {
		t.Errorf("expected log file at %s: %v", logPath, err)
	}
}

func TestRunCommand_SelectsNamedSuite(t *testing.T) {
	dir := t.TempDir()

	app := NewApp(passingSuite("first"), passingSuite("second"))

	oldStdout := os.Stdout
	os.Stdout, _ = os.Open(os.DevNull)
	defer func() { os.Stdout = oldStdout }()

	err := app.Run([]string{"suitekit", "--mock", "run", "--output", dir, "second"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "second.json")); err != nil {
		t.Error("expected a report for the named suite")
	}
	if _, err := os.Stat(filepath.Join(dir, "first.json")); err == nil {
		t.Error("expected no report for the unnamed suite")
	}
}

func TestRunCommand_FailingSuiteExitCode(t *testing.T) {
	dir := t.TempDir()

	// Failures normally capture a screenshot; point the run at a config that
	// turns that off so nothing is written outside the temp dir.
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("captureScreenshotOnFailure: false\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	failing := suite.New("broken").
		Test("asserts a missing element",
			&suite.AssertVisibleStep{Target: core.Target{Text: "No Such Element"}},
		).
		Build()
	app := NewApp(failing)

	exitCode := 0
	oldExiter := cli.OsExiter
	cli.OsExiter = func(code int) { exitCode = code }
	defer func() { cli.OsExiter = oldExiter }()

	oldStdout := os.Stdout
	os.Stdout, _ = os.Open(os.DevNull)
	defer func() { os.Stdout = oldStdout }()

	err := app.Run([]string{"suitekit", "--mock", "run", "--config", configPath, "--output", dir})
	if err == nil {
		t.Fatal("expected error for failing suite")
	}
	if exitCode != 1 {
		t.Errorf("exit code = %d, want 1", exitCode)
	}

	// The report is still written for failed runs
	if _, statErr := os.Stat(filepath.Join(dir, "broken.json")); statErr != nil {
		t.Errorf("expected report for failing suite: %v", statErr)
	}
}

func TestRunCommand_UnknownSuiteArg(t *testing.T) {
	app := NewApp(passingSuite("a"))

	err := app.Run([]string{"suitekit", "run", "nope"})
	if err == nil {
		t.Error("expected error for unknown suite argument")
	}
}

func TestRunCommand_NoSuitesRegistered(t *testing.T) {
	app := NewApp()

	err := app.Run([]string{"suitekit", "run"})
	if err == nil {
		t.Error("expected error when no suites are registered")
	}
}

func TestRunCommand_ValidationFailure(t *testing.T) {
	invalid := suite.New("invalid").
		Test("", &suite.LaunchAppStep{}).
		Build()
	app := NewApp(invalid)

	// Validation errors are listed on stderr; suppress both streams
	oldStdout, oldStderr := os.Stdout, os.Stderr
	os.Stdout, _ = os.Open(os.DevNull)
	os.Stderr, _ = os.Open(os.DevNull)
	defer func() { os.Stdout, os.Stderr = oldStdout, oldStderr }()

	err := app.Run([]string{"suitekit", "run"})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if !strings.Contains(err.Error(), "validation failed") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestRunCommand_TagFilterMatchesNothing(t *testing.T) {
	app := NewApp(passingSuite("untagged"))

	err := app.Run([]string{"suitekit", "run", "--include-tags", "smoke"})
	if err == nil {
		t.Fatal("expected error when no tests match the filters")
	}
	if !strings.Contains(err.Error(), "no tests match") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCheckCommand_Ready(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/status" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"value":{"ready":true}}`))
	}))
	defer srv.Close()

	app := NewApp()

	oldStdout := os.Stdout
	os.Stdout, _ = os.Open(os.DevNull)
	defer func() { os.Stdout = oldStdout }()

	err := app.Run([]string{"suitekit", "--agent-url", srv.URL, "check"})
	if err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestCheckCommand_NotReady(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"value":{"ready":false,"message":"no devices"}}`))
	}))
	defer srv.Close()

	exitCode := 0
	oldExiter := cli.OsExiter
	cli.OsExiter = func(code int) { exitCode = code }
	defer func() { cli.OsExiter = oldExiter }()

	app := NewApp()
	err := app.Run([]string{"suitekit", "--agent-url", srv.URL, "check"})
	if err == nil {
		t.Fatal("expected error for not-ready agent")
	}
	if exitCode != 1 {
		t.Errorf("exit code = %d, want 1", exitCode)
	}
}

func TestCheckCommand_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	app := NewApp()
	err := app.Run([]string{"suitekit", "--agent-url", url, "check"})
	if err == nil {
		t.Error("expected error for unreachable agent")
	}
}

func TestRunCommand_AgentUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	dir := t.TempDir()
	app := NewApp(passingSuite("a"))

	oldStdout := os.Stdout
	os.Stdout, _ = os.Open(os.DevNull)
	defer func() { os.Stdout = oldStdout }()

	err := app.Run([]string{"suitekit", "--agent-url", url, "run", "--output", dir})
	if err == nil {
		t.Error("expected error when the agent is unreachable")
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		ms       int64
		expected string
	}{
		{0, "0ms"},
		{50, "50ms"},
		{999, "999ms"},
		{1000, "1.0s"},
		{1500, "1.5s"},
		{10500, "10.5s"},
		{59999, "60.0s"},
		{60000, "1m 0s"},
		{61000, "1m 1s"},
		{90000, "1m 30s"},
		{125000, "2m 5s"},
	}

	for _, tc := range tests {
		result := formatDuration(tc.ms)
		if result != tc.expected {
			t.Errorf("formatDuration(%d) = %q, expected %q", tc.ms, result, tc.expected)
		}
	}
}

func TestColor_Enabled(t *testing.T) {
	oldEnabled := colorsEnabled
	defer func() { colorsEnabled = oldEnabled }()

	colorsEnabled = true
	result := color(colorGreen)
	if result != colorGreen {
		t.Errorf("color(colorGreen) with colors enabled = %q, want %q", result, colorGreen)
	}
}

func TestColor_Disabled(t *testing.T) {
	oldEnabled := colorsEnabled
	defer func() { colorsEnabled = oldEnabled }()

	colorsEnabled = false
	result := color(colorGreen)
	if result != "" {
		t.Errorf("color(colorGreen) with colors disabled = %q, want empty string", result)
	}
}

func TestProgressCallbacks_NoCrash(t *testing.T) {
	oldStdout := os.Stdout
	os.Stdout, _ = os.Open(os.DevNull)
	defer func() { os.Stdout = oldStdout }()

	printSuiteHeader(passingSuite("smoke"))
	onTestStart(0, 5, "login test")
	onStepEnd(0, "tap: text=\"Button\"", true, 100, "")
	onStepEnd(0, "tap: text=\"Button\"", false, 100, "element not found")
	onStepEnd(1, "assertVisible: text=\"Cart\"", true, 50, "")
	// Slow step shows a warning symbol
	onStepEnd(0, "waitForElement: text=\"Cart\"", true, 6000, "")
	// Compound steps are never marked slow
	onStepEnd(0, "retry (maxAttempts: 3)", true, 10000, "")
	onTestEnd("login test", true, 2000)
	onTestEnd("checkout test", false, 5000)
}
