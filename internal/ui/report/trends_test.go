package report

import (
	"strings"
	"testing"
	"time"

	"scopecheck/internal/data/history"
)

func TestRenderTrendTSV(t *testing.T) {
	report := history.TrendReport{
		Since:    time.Date(2026, 2, 12, 0, 0, 0, 0, time.UTC),
		Until:    time.Date(2026, 2, 13, 0, 0, 0, 0, time.UTC),
		Window:   "24h0m0s",
		RunCount: 1,
		Points: []history.TrendPoint{
			{
				RunID:         "abc123",
				Timestamp:     time.Date(2026, 2, 13, 0, 0, 0, 0, time.UTC),
				Files:         15,
				Findings:      4,
				DeltaFiles:    2,
				DeltaFindings: -1,
				AvgFindings:   4.5,
			},
		},
	}

	out, err := RenderTrendTSV(report)
	if err != nil {
		t.Fatalf("render tsv: %v", err)
	}

	body := string(out)
	if !strings.Contains(body, "Timestamp\tRun\tFiles") {
		t.Fatalf("missing header in output: %s", body)
	}
	if !strings.Contains(body, "2026-02-13T00:00:00Z\tabc123\t15\t4\t2\t-1\t4.50\t24h0m0s") {
		t.Fatalf("missing row values in output: %s", body)
	}
}

func TestRenderTrendJSON(t *testing.T) {
	report := history.TrendReport{RunCount: 2}

	out, err := RenderTrendJSON(report)
	if err != nil {
		t.Fatalf("render json: %v", err)
	}
	if !strings.Contains(string(out), "\"run_count\": 2") {
		t.Fatalf("missing run_count in json: %s", string(out))
	}
}
