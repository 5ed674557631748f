package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/devicelab-dev/suitekit/pkg/suite"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// Slow step threshold in milliseconds (5 seconds)
const slowThresholdMs = 5000

// colorsEnabled determines if ANSI colors should be used
var colorsEnabled = true

func init() {
	// Respect NO_COLOR environment variable
	if os.Getenv("NO_COLOR") != "" {
		colorsEnabled = false
		return
	}
	// Check if stdout is a terminal
	if fileInfo, err := os.Stdout.Stat(); err == nil {
		if (fileInfo.Mode() & os.ModeCharDevice) == 0 {
			colorsEnabled = false
		}
	}
}

// color returns the color code if colors are enabled, empty string otherwise
func color(c string) string {
	if colorsEnabled {
		return c
	}
	return ""
}

func printSuiteHeader(su *suite.Suite) {
	fmt.Printf("\n%sSuite: %s%s (%d tests)\n",
		color(colorBold), su.Name, color(colorReset), len(su.Tests))
	fmt.Println(strings.Repeat("─", 60))
}

// Live progress callbacks

func onTestStart(testIdx, totalTests int, name string) {
	fmt.Printf("\n  %s[%d/%d]%s %s%s%s\n",
		color(colorCyan), testIdx+1, totalTests, color(colorReset),
		color(colorBold), name, color(colorReset))
}

func onStepEnd(depth int, name string, passed bool, durationMs int64, errMsg string) {
	// Base indent (4 spaces) + 2 spaces per nesting level
	indent := strings.Repeat("  ", 2+depth)

	// Don't mark retry/repeat/ifPresent as slow - they contain multiple steps
	isCompoundStep := strings.HasPrefix(name, "retry") ||
		strings.HasPrefix(name, "repeat") ||
		strings.HasPrefix(name, "ifPresent")
	isSlow := durationMs >= slowThresholdMs && !isCompoundStep
	durStr := formatDuration(durationMs)

	if passed {
		symbol := "✓"
		symbolColor := color(colorGreen)
		durColor := ""
		if isSlow {
			durColor = color(colorYellow)
			symbol = "⚠"
			symbolColor = color(colorYellow)
		}
		fmt.Printf("%s%s%s%s %s %s(%s)%s\n",
			indent, symbolColor, symbol, color(colorReset), name, durColor, durStr, color(colorReset))
	} else {
		fmt.Printf("%s%s✗%s %s (%s)\n", indent, color(colorRed), color(colorReset), name, durStr)
		if errMsg != "" {
			fmt.Printf("%s  %s╰─%s %s\n", indent, color(colorGray), color(colorReset), errMsg)
		}
	}
}

func onTestEnd(name string, passed bool, durationMs int64) {
	if passed {
		fmt.Printf("  %s✓ %s%s %s%s%s\n",
			color(colorGreen), color(colorReset), name, color(colorGray), formatDuration(durationMs), color(colorReset))
	} else {
		fmt.Printf("  %s✗ %s%s %s%s%s\n",
			color(colorRed), color(colorReset), name, color(colorGray), formatDuration(durationMs), color(colorReset))
	}
}

// formatDuration formats milliseconds to a human-readable string.
// Shows milliseconds for values < 1s, seconds otherwise.
func formatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	if ms < 60000 {
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	}
	mins := ms / 60000
	secs := (ms % 60000) / 1000
	return fmt.Sprintf("%dm %ds", mins, secs)
}
