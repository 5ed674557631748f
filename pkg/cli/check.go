package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/suitekit/pkg/driver/agent"
)

// checkBudget bounds the health probe.
const checkBudget = 10 * time.Second

func checkCommand() *cli.Command {
	return &cli.Command{
		Name:  "check",
		Usage: "Check that the devicelab agent is reachable and ready",
		Description: `Probe the agent's health endpoint and report whether it can accept
sessions. Exits non-zero when the agent is unreachable or not ready.

Examples:
  suitekit check
  suitekit check --agent-url http://10.0.0.5:8787`,
		Action: runCheck,
	}
}

func runCheck(c *cli.Context) error {
	agentURL := c.String("agent-url")
	client := agent.NewClient(agentURL)

	ctx, cancel := context.WithTimeout(context.Background(), checkBudget)
	defer cancel()

	ready, err := client.Status(ctx)
	if err != nil {
		return fmt.Errorf("agent at %s: %w", agentURL, err)
	}
	if !ready {
		return cli.Exit(fmt.Sprintf("%s✗%s agent at %s is not ready", color(colorRed), color(colorReset), agentURL), 1)
	}

	fmt.Printf("%s✓%s agent at %s is ready\n", color(colorGreen), color(colorReset), agentURL)
	return nil
}
