// Package cli provides the suitekit command surface. Suites are authored in
// Go by the embedding binary and handed to Execute.
package cli

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/suitekit/pkg/suite"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "agent-url",
		Usage:   "Devicelab agent URL",
		Value:   "http://127.0.0.1:8787",
		EnvVars: []string{"SUITEKIT_AGENT_URL"},
	},
	&cli.StringFlag{
		Name:    "device",
		Aliases: []string{"udid"},
		Usage:   "Device ID to run on",
		EnvVars: []string{"SUITEKIT_DEVICE"},
	},
	&cli.BoolFlag{
		Name:    "mock",
		Usage:   "Run against the in-memory mock executor instead of an agent",
		EnvVars: []string{"SUITEKIT_MOCK"},
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Log to stderr instead of the log file",
		EnvVars: []string{"SUITEKIT_VERBOSE"},
	},
	&cli.BoolFlag{
		Name:  "no-ansi",
		Usage: "Disable ANSI colors",
	},
}

// NewApp builds the CLI application for the given suites.
func NewApp(suites ...*suite.Suite) *cli.App {
	return &cli.App{
		Name:    "suitekit",
		Usage:   "Run UI test suites against an app",
		Version: Version,
		Description: `Suitekit executes Go-authored UI test suites through a devicelab
agent or the built-in mock executor.

Examples:
  suitekit run
  suitekit run --include-tags smoke --output ./reports
  suitekit run --mock
  suitekit check`,
		Flags: GlobalFlags,
		Commands: []*cli.Command{
			runCommand(suites),
			checkCommand(),
		},
	}
}

// Execute runs the CLI.
func Execute(suites ...*suite.Suite) {
	app := NewApp(suites...)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
