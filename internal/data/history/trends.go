package history

import (
	"fmt"
	"math"
	"time"
)

type TrendPoint struct {
	RunID         string    `json:"run_id"`
	Timestamp     time.Time `json:"timestamp"`
	Files         int       `json:"files"`
	Findings      int       `json:"findings"`
	DeltaFiles    int       `json:"delta_files"`
	DeltaFindings int       `json:"delta_findings"`
	// mean finding count over the runs inside the window ending here
	AvgFindings float64 `json:"avg_findings"`
}

type TrendReport struct {
	Since    time.Time    `json:"since"`
	Until    time.Time    `json:"until"`
	Window   string       `json:"window"`
	RunCount int          `json:"run_count"`
	Points   []TrendPoint `json:"points"`
}

// BuildTrendReport turns runs, oldest first, into per-run deltas and a
// moving average of finding counts over window.
func BuildTrendReport(runs []Run, window time.Duration) (TrendReport, error) {
	if len(runs) == 0 {
		return TrendReport{}, fmt.Errorf("no runs recorded")
	}

	points := make([]TrendPoint, 0, len(runs))
	for i, current := range runs {
		point := TrendPoint{
			RunID:     current.ID,
			Timestamp: current.Timestamp,
			Files:     current.Files,
			Findings:  current.FindingCount,
		}
		if i > 0 {
			prev := runs[i-1]
			point.DeltaFiles = current.Files - prev.Files
			point.DeltaFindings = current.FindingCount - prev.FindingCount
		}
		point.AvgFindings = round2(movingAverage(runs, i, window))
		points = append(points, point)
	}

	return TrendReport{
		Since:    runs[0].Timestamp,
		Until:    runs[len(runs)-1].Timestamp,
		Window:   window.String(),
		RunCount: len(points),
		Points:   points,
	}, nil
}

func movingAverage(runs []Run, index int, window time.Duration) float64 {
	if window <= 0 {
		return float64(runs[index].FindingCount)
	}

	cutoff := runs[index].Timestamp.Add(-window)
	total, count := 0, 0
	for i := index; i >= 0; i-- {
		if runs[i].Timestamp.Before(cutoff) {
			break
		}
		total += runs[i].FindingCount
		count++
	}
	if count == 0 {
		return 0
	}
	return float64(total) / float64(count)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
