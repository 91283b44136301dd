package report

import (
	"encoding/json"
	"fmt"
	"strings"

	"scopecheck/internal/data/history"
)

func RenderTrendTSV(report history.TrendReport) ([]byte, error) {
	var buf strings.Builder

	buf.WriteString("Timestamp\tRun\tFiles\tFindings\tDeltaFiles\tDeltaFindings\tAvgFindings\tWindow\n")
	for _, point := range report.Points {
		buf.WriteString(fmt.Sprintf(
			"%s\t%s\t%d\t%d\t%d\t%d\t%.2f\t%s\n",
			point.Timestamp.Format("2006-01-02T15:04:05Z07:00"),
			point.RunID,
			point.Files,
			point.Findings,
			point.DeltaFiles,
			point.DeltaFindings,
			point.AvgFindings,
			report.Window,
		))
	}

	return []byte(buf.String()), nil
}

func RenderTrendJSON(report history.TrendReport) ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}
