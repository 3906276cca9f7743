package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/brhoades44/batchbench/internal/engine"
	"github.com/brhoades44/batchbench/internal/workload"
)

var (
	headlineStyle = lipgloss.NewStyle().Bold(true)
	okStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle      = lipgloss.NewStyle().Faint(true)
)

// RenderReport renders one run's report for the terminal.
func RenderReport(report *engine.Report[workload.Response], problem string) string {
	p := message.NewPrinter(language.English)
	var b strings.Builder

	fmt.Fprintf(&b, "%s  %s\n",
		headlineStyle.Render(report.Strategy),
		dimStyle.Render("run "+report.RunID.String()))

	switch problem {
	case problemIO:
		fmt.Fprintln(&b, p.Sprintf("Downloaded %d of %d sites (%d bytes) in %s",
			report.Succeeded(), report.Total, totalBytes(report), formatDuration(report.Elapsed)))
	default:
		fmt.Fprintln(&b, p.Sprintf("Computed %d of %d items in %s",
			report.Succeeded(), report.Total, formatDuration(report.Elapsed)))
	}

	if report.Failures == 0 {
		fmt.Fprintln(&b, okStyle.Render("all items succeeded"))
		return b.String()
	}

	fmt.Fprintln(&b, failStyle.Render(p.Sprintf("%d items failed (%d cancelled)",
		report.Failures, report.Cancelled)))
	for _, res := range report.Results {
		if res.Failed() {
			fmt.Fprintf(&b, "  %s\n", dimStyle.Render(fmt.Sprintf("item %d: %v", res.Index, res.Err)))
		}
	}
	return b.String()
}

// CompareRow is one strategy's outcome in a comparison table.
type CompareRow struct {
	Strategy string
	Total    int
	Failures int
	Elapsed  time.Duration
	Err      error
}

// RenderComparison renders the strategy comparison table, fastest run
// highlighted.
func RenderComparison(problem string, rows []CompareRow) string {
	p := message.NewPrinter(language.English)
	var b strings.Builder

	fmt.Fprintf(&b, "%s\n", headlineStyle.Render("strategy comparison — "+problem))

	fastest := -1
	for i, row := range rows {
		if row.Err != nil {
			continue
		}
		if fastest < 0 || row.Elapsed < rows[fastest].Elapsed {
			fastest = i
		}
	}

	for i, row := range rows {
		name := fmt.Sprintf("%-12s", row.Strategy)
		switch {
		case row.Err != nil:
			fmt.Fprintf(&b, "  %s %s\n", name, failStyle.Render(fmt.Sprintf("failed: %v", row.Err)))
		case i == fastest:
			fmt.Fprintln(&b, okStyle.Render(p.Sprintf("* %s %10s  %d items, %d failures",
				name, formatDuration(row.Elapsed), row.Total, row.Failures)))
		default:
			fmt.Fprintln(&b, p.Sprintf("  %s %10s  %d items, %d failures",
				name, formatDuration(row.Elapsed), row.Total, row.Failures))
		}
	}
	return b.String()
}

func totalBytes(report *engine.Report[workload.Response]) int64 {
	var n int64
	for _, res := range report.Results {
		if !res.Failed() {
			n += res.Value.Bytes
		}
	}
	return n
}

// formatDuration trims sub-millisecond noise out of displayed durations.
func formatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
