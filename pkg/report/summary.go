package report

import (
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// WriteSummary renders the suite result as a console table: one row per test
// and a totals footer. The table is colored by the overall outcome.
func WriteSummary(w io.Writer, res *SuiteResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle("Suite: %s", res.SuiteName)

	t.AppendHeader(table.Row{"Test", "Status", "Duration", "Error"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Error", WidthMax: 60, WidthMaxEnforcer: text.WrapSoft},
	})

	for _, tr := range res.TestResults {
		t.AppendRow(table.Row{
			tr.TestName,
			statusString(tr.Passed),
			formatDuration(tr.Duration),
			tr.Error,
		})
	}

	// Suite-level hook failures have no test row of their own.
	if res.Error != "" {
		t.AppendSeparator()
		t.AppendRow(table.Row{"(suite hooks)", statusString(false), "", res.Error})
	}

	if res.Passed {
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	} else {
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	}

	t.AppendFooter(table.Row{
		fmt.Sprintf("%d passed, %d failed", res.PassedCount, res.FailedCount),
		statusString(res.Passed),
		formatDuration(res.Duration),
		"",
	})

	t.Render()
}

func statusString(passed bool) string {
	if passed {
		return "PASS"
	}
	return "FAIL"
}

// formatDuration formats a millisecond duration for display
func formatDuration(ms int64) string {
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	d := time.Duration(ms) * time.Millisecond
	return d.Truncate(time.Millisecond).String()
}
