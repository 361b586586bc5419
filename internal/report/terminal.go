package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/appsecsanta/research/internal/metrics"
)

// F1 thresholds for scorecard row coloring.
const (
	f1Good = 0.7
	f1Fair = 0.4
)

// TerminalWriter renders the scorecard to the terminal with colors.
type TerminalWriter struct {
	out io.Writer
}

// NewTerminalWriter creates a terminal output writer. noColor disables
// ANSI escapes process-wide.
func NewTerminalWriter(out io.Writer, noColor bool) *TerminalWriter {
	if noColor {
		color.NoColor = true
	}
	return &TerminalWriter{out: out}
}

// WriteScorecard prints the per-tool ranking table. Rows arrive already
// sorted by average F1, best first.
func (w *TerminalWriter) WriteScorecard(rows []metrics.ScorecardRow) {
	toolWidth := len("Tool")
	for _, row := range rows {
		if len(row.Tool) > toolWidth {
			toolWidth = len(row.Tool)
		}
	}

	bold := color.New(color.Bold)
	bold.Fprintf(w.out, "\nTool Scorecard\n")
	fmt.Fprintln(w.out, strings.Repeat("─", toolWidth+57))

	fmt.Fprintf(w.out, "%-*s  %7s  %7s  %7s  %7s  %5s  %5s  %5s\n",
		toolWidth, "Tool", "Targets", "Avg F1", "Avg P", "Avg R", "TP", "FP", "CWEs")

	if len(rows) == 0 {
		gray := color.New(color.FgHiBlack)
		gray.Fprintln(w.out, "  no triaged results to score")
		return
	}

	for _, row := range rows {
		fmt.Fprintf(w.out, "%-*s  %7d  ", toolWidth, row.Tool, row.TargetsScanned)
		w.f1Color(row.AvgF1).Fprintf(w.out, "%7.3f", row.AvgF1)
		fmt.Fprintf(w.out, "  %7.3f  %7.3f  %5d  %5d  %5d\n",
			row.AvgPrecision, row.AvgRecall, row.TotalTP, row.TotalFP, row.UniqueCWEsFound)
	}
	fmt.Fprintln(w.out)
}

func (w *TerminalWriter) f1Color(f1 float64) *color.Color {
	switch {
	case f1 >= f1Good:
		return color.New(color.FgGreen)
	case f1 >= f1Fair:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgRed)
	}
}
