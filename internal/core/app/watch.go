package app

import (
	"context"
	"log/slog"

	"scopecheck/internal/core/watcher"
	"scopecheck/internal/shared/observability"
)

// StartWatcher re-analyses the watch paths whenever .go files under them
// change, until ctx is cancelled or the app is closed.
func (a *App) StartWatcher(ctx context.Context) error {
	w, err := watcher.NewWatcher(
		a.Config.Watch.Debounce,
		a.Config.Exclude.Dirs,
		a.Config.Exclude.Files,
		a.HandleChanges,
	)
	if err != nil {
		return err
	}
	a.watchCtx = ctx
	a.activeWatcher = w
	return w.Watch(a.Config.WatchPaths)
}

// HandleChanges is the watcher callback. Re-analyses beyond the configured
// rate wait for a token rather than being dropped.
func (a *App) HandleChanges(paths []string) {
	ctx := a.watchCtx
	if ctx == nil {
		ctx = context.Background()
	}

	slog.Info("detected changes", "count", len(paths))
	delayed, err := a.limiter.Throttle(ctx)
	if delayed {
		observability.ReanalysisThrottledTotal.Inc()
		slog.Debug("re-analysis throttled", "count", len(paths))
	}
	if err != nil {
		if ctx.Err() == nil {
			slog.Error("re-analysis not admitted", "error", err)
		}
		return
	}

	report, err := a.analyze(ctx, "watch", nil, paths)
	if err != nil {
		if ctx.Err() == nil {
			slog.Error("re-analysis failed", "error", err)
		}
		return
	}
	a.PrintSummary(report)
}
