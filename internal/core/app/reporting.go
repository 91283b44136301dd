package app

import (
	"fmt"
	"io"
	"strings"
	"time"

	"scopecheck/internal/data/history"
	"scopecheck/internal/engine/parser"
)

var findingHeadings = []struct {
	kind  parser.FindingKind
	label string
}{
	{parser.FindingSyntax, "⛔ FOUND %d SYNTAX ERRORS:"},
	{parser.FindingRedeclared, "⚠️  FOUND %d REDECLARATIONS:"},
	{parser.FindingShadowed, "🌗 FOUND %d SHADOWED DECLARATIONS:"},
	{parser.FindingUnresolved, "❓ FOUND %d UNRESOLVED NAMES:"},
}

// PrintSummary writes a human-readable summary of report to the app's output.
func (a *App) PrintSummary(report *parser.Report) {
	WriteSummary(a.out, report)
}

func WriteSummary(w io.Writer, report *parser.Report) {
	if report == nil {
		return
	}
	fmt.Fprintln(w, strings.Repeat("-", 40))
	fmt.Fprintf(w, "Analyzed %d files in %d packages in %v\n", report.Files, report.Packages, report.Duration.Round(time.Millisecond))

	if len(report.Findings) == 0 {
		fmt.Fprintln(w, "✅ No scope problems found.")
		fmt.Fprintln(w, strings.Repeat("-", 40))
		return
	}

	byKind := make(map[parser.FindingKind][]parser.Finding)
	for _, f := range report.Findings {
		byKind[f.Kind] = append(byKind[f.Kind], f)
	}
	for _, h := range findingHeadings {
		findings := byKind[h.kind]
		if len(findings) == 0 {
			continue
		}
		fmt.Fprintf(w, h.label+"\n", len(findings))
		for _, f := range findings {
			fmt.Fprintf(w, "   %s: %s\n", f.Pos, f.Message)
		}
	}
	fmt.Fprintln(w, strings.Repeat("-", 40))
}

// WriteTrend prints one line per recorded run, oldest first.
func WriteTrend(w io.Writer, trend history.TrendReport) {
	fmt.Fprintf(w, "%d runs from %s to %s (window %s)\n",
		trend.RunCount,
		trend.Since.Format("2006-01-02 15:04:05"),
		trend.Until.Format("2006-01-02 15:04:05"),
		trend.Window,
	)
	for _, p := range trend.Points {
		fmt.Fprintf(w, "  %s  %s  files=%d findings=%d (%+d) avg=%.2f\n",
			p.Timestamp.Format("2006-01-02 15:04:05"),
			shortID(p.RunID),
			p.Files,
			p.Findings,
			p.DeltaFindings,
			p.AvgFindings,
		)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
