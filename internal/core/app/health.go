package app

import (
	"context"
	"time"

	"scopecheck/internal/engine/parser"
	"scopecheck/internal/shared/observability"
)

// Health reports "up" once a run has completed without redeclarations or
// syntax errors, "degraded" when the last run had them and "starting"
// before the first run.
func (a *App) Health(ctx context.Context) observability.HealthStatus {
	status := observability.HealthStatus{Status: "up", CheckedAt: time.Now().UTC()}

	report, _ := a.LastReport()
	if report == nil {
		status.Status = "starting"
		return status
	}

	status.LastRun = report.StartedAt
	status.Findings = len(report.Findings)
	counts := report.CountByKind()
	if counts[parser.FindingRedeclared] > 0 || counts[parser.FindingSyntax] > 0 {
		status.Status = "degraded"
	}
	return status
}
