package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"scopecheck/internal/core/config"
	"scopecheck/internal/core/errors"
	"scopecheck/internal/core/watcher"
	"scopecheck/internal/data/history"
	"scopecheck/internal/data/queue"
	"scopecheck/internal/engine/parser"
	"scopecheck/internal/shared/observability"
	"scopecheck/internal/shared/util"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Update is emitted after every completed analysis run.
type Update struct {
	RunID  string
	Report *parser.Report
	// files that triggered the run; empty for a full run
	Changed []string
}

type App struct {
	Config   *config.Config
	Analyzer *parser.Analyzer
	// nil unless history is enabled in config
	History *history.Store

	writeQueue *queue.MemoryQueue
	workerDone chan struct{}

	out     io.Writer
	limiter *util.Limiter

	mu        sync.RWMutex
	last      *parser.Report
	lastRunID string

	updateMu sync.RWMutex
	onUpdate func(Update)

	activeWatcher *watcher.Watcher
	watchCtx      context.Context
}

func New(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New(errors.CodeInvalidArgument, "config is required")
	}

	analyzer, err := newAnalyzer(cfg)
	if err != nil {
		return nil, err
	}

	a := &App{
		Config:   cfg,
		Analyzer: analyzer,
		out:      os.Stdout,
		limiter:  util.NewLimiter(cfg.Watch.Rate, cfg.Watch.Burst),
	}

	if cfg.DB.Enabled {
		store, err := history.Open(cfg.DB.Path)
		if err != nil {
			return nil, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "open history"), errors.CtxPath, cfg.DB.Path)
		}
		a.History = store
		a.writeQueue = queue.NewMemoryQueue(cfg.DB.QueueCapacity)
		a.workerDone = make(chan struct{})
		go a.runWriteWorker()
	}
	return a, nil
}

func newAnalyzer(cfg *config.Config) (*parser.Analyzer, error) {
	return parser.NewAnalyzer(parser.Options{
		ReportShadowing:  cfg.Analysis.ShadowingEnabled(),
		ReportUnresolved: cfg.Analysis.UnresolvedEnabled(),
		IgnoreNames:      append([]string(nil), cfg.Analysis.IgnoreNames...),
	}, cfg.Exclude.Dirs, cfg.Exclude.Files, observability.TableObserver{})
}

// Reconfigure applies the analysis options and excludes of a reloaded
// config to later runs. Watch paths, history and the running watcher keep
// their startup settings.
func (a *App) Reconfigure(cfg *config.Config) error {
	if cfg == nil {
		return errors.New(errors.CodeInvalidArgument, "config is required")
	}
	analyzer, err := newAnalyzer(cfg)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.Analyzer = analyzer
	a.Config.Analysis = cfg.Analysis
	a.Config.Exclude = cfg.Exclude
	a.mu.Unlock()

	slog.Info("analysis settings reloaded",
		"shadowing", cfg.Analysis.ShadowingEnabled(),
		"unresolved", cfg.Analysis.UnresolvedEnabled(),
		"ignored", len(cfg.Analysis.IgnoreNames))
	return nil
}

// SetOutput redirects the run summaries. A nil w silences them.
func (a *App) SetOutput(w io.Writer) {
	if w == nil {
		w = io.Discard
	}
	a.out = w
}

func (a *App) SetUpdateHandler(handler func(Update)) {
	a.updateMu.Lock()
	defer a.updateMu.Unlock()
	a.onUpdate = handler
}

// Analyze runs the analyzer over paths, or the configured watch paths when
// paths is empty, then records the run.
func (a *App) Analyze(ctx context.Context, paths []string) (*parser.Report, error) {
	return a.analyze(ctx, "full", paths, nil)
}

func (a *App) analyze(ctx context.Context, task string, paths, changed []string) (*parser.Report, error) {
	if len(paths) == 0 {
		paths = a.Config.WatchPaths
	}

	ctx, span := observability.Tracer.Start(ctx, "app.Analyze", trace.WithAttributes(
		attribute.String("task", task),
		attribute.StringSlice("paths", paths),
	))
	defer span.End()

	a.mu.RLock()
	analyzer := a.Analyzer
	a.mu.RUnlock()

	start := time.Now()
	report, err := analyzer.AnalyzePaths(ctx, paths)
	observability.AnalysisDuration.WithLabelValues(task).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, errors.AddContext(err, errors.CtxOperation, "analyze")
	}

	observability.FilesAnalyzedTotal.Add(float64(report.Files))
	for kind, n := range report.CountByKind() {
		observability.FindingsTotal.WithLabelValues(string(kind)).Add(float64(n))
	}
	span.SetAttributes(
		attribute.Int("files", report.Files),
		attribute.Int("findings", len(report.Findings)),
	)

	runID := a.saveRun(report, task == "watch")

	a.mu.Lock()
	a.last = report
	a.lastRunID = runID
	a.mu.Unlock()

	a.emitUpdate(Update{RunID: runID, Report: report, Changed: changed})
	return report, nil
}

const (
	writeBatchSize     = 8
	writeFlushInterval = 100 * time.Millisecond
)

// saveRun stores the report when history is enabled and returns its run id.
// With async the run goes through the write queue and the id is returned
// before it is stored. A failed save is logged, not returned: the analysis
// itself succeeded.
func (a *App) saveRun(report *parser.Report, async bool) string {
	if a.History == nil {
		return ""
	}
	req := queue.WriteRequest{
		Run: history.Run{
			ID:        uuid.NewString(),
			Timestamp: report.StartedAt,
			Files:     report.Files,
			Packages:  report.Packages,
			Duration:  report.Duration,
		},
		Findings: findingRecords(report.Findings),
	}
	if !async {
		return a.writeRun(req)
	}

	if a.writeQueue.Enqueue(req) == queue.EnqueueDropped {
		observability.HistoryWritesTotal.WithLabelValues("dropped").Inc()
		slog.Warn("history queue full, run not recorded", "capacity", a.Config.DB.QueueCapacity)
		return ""
	}
	observability.HistoryQueueDepth.Set(float64(a.writeQueue.Len()))
	return req.Run.ID
}

func (a *App) writeRun(req queue.WriteRequest) string {
	run, err := a.History.SaveRun(req.Run, req.Findings)
	if err != nil {
		observability.HistoryWritesTotal.WithLabelValues("failed").Inc()
		slog.Error("failed to save run", "error", err, "corrupt", history.IsCorruptError(err))
		return ""
	}
	observability.HistoryWritesTotal.WithLabelValues("saved").Inc()
	slog.Debug("saved run", "id", run.ID, "findings", run.FindingCount)
	return run.ID
}

// runWriteWorker drains the write queue until it is closed.
func (a *App) runWriteWorker() {
	defer close(a.workerDone)
	for {
		batch, err := a.writeQueue.DequeueBatch(context.Background(), writeBatchSize, writeFlushInterval)
		for _, req := range batch {
			a.writeRun(req)
		}
		observability.HistoryQueueDepth.Set(float64(a.writeQueue.Len()))
		if err == io.EOF {
			return
		}
	}
}

func findingRecords(findings []parser.Finding) []history.FindingRecord {
	records := make([]history.FindingRecord, 0, len(findings))
	for _, f := range findings {
		records = append(records, history.FindingRecord{
			File:    f.Pos.File,
			Line:    f.Pos.Line,
			Column:  f.Pos.Column,
			Kind:    string(f.Kind),
			Name:    f.Name,
			Message: f.Message,
		})
	}
	return records
}

func (a *App) emitUpdate(update Update) {
	a.updateMu.RLock()
	handler := a.onUpdate
	a.updateMu.RUnlock()
	if handler != nil {
		handler(update)
	}
}

// LastReport returns the most recent report and its history run id, if any.
func (a *App) LastReport() (*parser.Report, string) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.last, a.lastRunID
}

// Trend builds a trend report from the runs recorded since since.
func (a *App) Trend(since time.Time, window time.Duration) (history.TrendReport, error) {
	if a.History == nil {
		return history.TrendReport{}, errors.New(errors.CodeNotSupported, "history is disabled; set db.enabled = true")
	}
	runs, err := a.History.LoadRuns(since)
	if err != nil {
		return history.TrendReport{}, err
	}
	return history.BuildTrendReport(runs, window)
}

func (a *App) Close() error {
	var firstErr error
	if a.activeWatcher != nil {
		if err := a.activeWatcher.Close(); err != nil {
			firstErr = err
		}
		a.activeWatcher = nil
	}
	if a.writeQueue != nil {
		_ = a.writeQueue.Close()
		<-a.workerDone
		a.writeQueue = nil
	}
	if a.History != nil {
		if err := a.History.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close history: %w", err)
		}
		a.History = nil
	}
	return firstErr
}
