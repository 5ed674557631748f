package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/suitekit/pkg/config"
	"github.com/devicelab-dev/suitekit/pkg/core"
	"github.com/devicelab-dev/suitekit/pkg/driver/agent"
	"github.com/devicelab-dev/suitekit/pkg/driver/mock"
	"github.com/devicelab-dev/suitekit/pkg/engine"
	"github.com/devicelab-dev/suitekit/pkg/logger"
	"github.com/devicelab-dev/suitekit/pkg/report"
	"github.com/devicelab-dev/suitekit/pkg/suite"
	"github.com/devicelab-dev/suitekit/pkg/validator"
)

// sessionBudget bounds agent session setup and teardown calls.
const sessionBudget = 30 * time.Second

func runCommand(suites []*suite.Suite) *cli.Command {
	return &cli.Command{
		Name:      "run",
		Usage:     "Run the registered suites",
		ArgsUsage: "[suite-name]...",
		Description: `Run all registered suites, or only the ones named as arguments.

Reports are written to the output directory:
  - Default: <home>/reports/<timestamp>/
  - With --output: <output>/

Examples:
  suitekit run
  suitekit run checkout-smoke
  suitekit run --include-tags smoke --output ./reports
  suitekit run --mock --verbose`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "Path to config.yaml (default: ./config.yaml when present)",
			},
			&cli.StringSliceFlag{
				Name:  "include-tags",
				Usage: "Only run tests with these tags",
			},
			&cli.StringSliceFlag{
				Name:  "exclude-tags",
				Usage: "Skip tests with these tags",
			},
			&cli.StringFlag{
				Name:  "output",
				Usage: "Output directory for reports",
			},
			&cli.StringFlag{
				Name:  "log-file",
				Usage: "Log file path (default: <output>/suitekit.log)",
			},
		},
		Action: func(c *cli.Context) error {
			return runSuites(c, suites)
		},
	}
}

func runSuites(c *cli.Context, suites []*suite.Suite) error {
	if c.Bool("no-ansi") {
		colorsEnabled = false
	}

	selected, err := selectSuites(suites, c.Args().Slice())
	if err != nil {
		return err
	}

	app, err := loadApp(c.String("config"))
	if err != nil {
		return err
	}

	// Structural validation before anything touches a device.
	if result := validator.Validate(selected...); !result.IsValid() {
		fmt.Fprintf(os.Stderr, "Validation errors:\n")
		for _, verr := range result.Errors {
			fmt.Fprintf(os.Stderr, "  - %v\n", verr)
		}
		return fmt.Errorf("validation failed with %d error(s)", len(result.Errors))
	}

	selected = filterSuites(selected, c.StringSlice("include-tags"), c.StringSlice("exclude-tags"))
	if len(selected) == 0 {
		return fmt.Errorf("no tests match the tag filters")
	}

	outputDir := resolveOutputDir(c.String("output"))
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	if c.Bool("verbose") {
		logger.InitWriter(os.Stderr)
	} else {
		logPath := c.String("log-file")
		if logPath == "" {
			logPath = filepath.Join(outputDir, "suitekit.log")
		}
		if err := logger.Init(logPath); err != nil {
			fmt.Printf("Warning: failed to initialize logger: %v\n", err)
		}
	}
	defer logger.Close()

	logger.Info("=== suitekit run started ===")
	logger.Info("output directory: %s", outputDir)
	logger.Info("running %d suite(s)", len(selected))

	exec, cleanup, err := buildExecutor(c, app)
	if err != nil {
		logger.Error("executor setup failed: %v", err)
		return err
	}
	defer cleanup()

	// Ctrl+C cancels the run; the engine records in-flight work as canceled.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	failed := 0
	for _, su := range selected {
		sched := engine.New(exec, engine.Config{
			App:         app,
			DeviceID:    c.String("device"),
			OnTestStart: onTestStart,
			OnTestEnd:   onTestEnd,
			OnStepEnd:   onStepEnd,
		})

		printSuiteHeader(su)
		res := sched.RunSuite(ctx, su)

		fmt.Println()
		report.WriteSummary(os.Stdout, res)

		path := filepath.Join(outputDir, reportFileName(su.Name))
		if err := report.WriteFile(path, res); err != nil {
			fmt.Printf("Warning: failed to write report: %v\n", err)
		} else {
			fmt.Printf("\n  Report: %s\n", path)
		}

		if !res.Passed {
			failed++
		}
		if ctx.Err() != nil {
			// Interrupted: the in-flight suite is recorded, the rest are not attempted.
			break
		}
	}

	if failed > 0 {
		return cli.Exit(fmt.Sprintf("%d of %d suite(s) failed", failed, len(selected)), 1)
	}
	return nil
}

// loadApp resolves the run configuration: the --config file when given,
// config.yaml from the working directory otherwise.
func loadApp(path string) (config.App, error) {
	if path != "" {
		app, err := config.Load(path)
		if err != nil {
			return config.App{}, fmt.Errorf("load config: %w", err)
		}
		return app, nil
	}
	return config.LoadFromDir(".")
}

// selectSuites picks the suites to run: all of them, or the named ones in
// argument order.
func selectSuites(suites []*suite.Suite, names []string) ([]*suite.Suite, error) {
	if len(suites) == 0 {
		return nil, fmt.Errorf("no suites registered")
	}
	if len(names) == 0 {
		return suites, nil
	}

	byName := make(map[string]*suite.Suite, len(suites))
	for _, su := range suites {
		byName[su.Name] = su
	}

	selected := make([]*suite.Suite, 0, len(names))
	for _, name := range names {
		su, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("unknown suite %q", name)
		}
		selected = append(selected, su)
	}
	return selected, nil
}

// filterSuites applies tag filters, dropping tests that do not match and
// suites left without tests. Filtered suites are copies; the registered
// ones stay untouched.
func filterSuites(suites []*suite.Suite, include, exclude []string) []*suite.Suite {
	if len(include) == 0 && len(exclude) == 0 {
		return suites
	}

	var out []*suite.Suite
	for _, su := range suites {
		var tests []*suite.Test
		for _, t := range su.Tests {
			if suite.ShouldIncludeTest(t, include, exclude) {
				tests = append(tests, t)
			}
		}
		if len(tests) == 0 {
			continue
		}
		filtered := *su
		filtered.Tests = tests
		out = append(out, &filtered)
	}
	return out
}

// resolveOutputDir determines the report directory: the --output value as
// given, or <home>/reports/<timestamp> by default.
func resolveOutputDir(output string) string {
	if output != "" {
		return filepath.Clean(output)
	}
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(config.GetReportsDir(), timestamp)
}

// reportFileName derives a filesystem-safe JSON file name from a suite name.
func reportFileName(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('-')
		}
	}
	cleaned := strings.Trim(b.String(), "-.")
	if cleaned == "" {
		cleaned = "suite"
	}
	return cleaned + ".json"
}

// buildExecutor creates the executor the run drives: the in-memory mock, or
// an agent session torn down by the returned cleanup.
func buildExecutor(c *cli.Context, app config.App) (core.Executor, func(), error) {
	if c.Bool("mock") {
		logger.Info("using mock executor")
		return mock.New(mock.Config{ScreenshotDir: app.ScreenshotDirectory}), func() {}, nil
	}

	agentURL := c.String("agent-url")
	client := agent.NewClient(agentURL)

	ctx, cancel := context.WithTimeout(context.Background(), sessionBudget)
	defer cancel()

	ready, err := client.Status(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("agent at %s: %w", agentURL, err)
	}
	if !ready {
		return nil, nil, fmt.Errorf("agent at %s is not ready", agentURL)
	}

	if err := client.CreateSession(ctx, c.String("device"), app.PackageName); err != nil {
		return nil, nil, fmt.Errorf("create session: %w", err)
	}
	logger.Info("agent session %s created", client.SessionID())

	cleanup := func() {
		ctx, cancel := context.WithTimeout(context.Background(), sessionBudget)
		defer cancel()
		if err := client.DeleteSession(ctx); err != nil {
			logger.Warn("delete session: %v", err)
		}
	}
	return agent.NewExecutor(client, app.ScreenshotDirectory), cleanup, nil
}
