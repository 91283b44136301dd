package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	coreapp "scopecheck/internal/core/app"
	"scopecheck/internal/core/config"
	"scopecheck/internal/data/history"
	"scopecheck/internal/engine/parser"
	"scopecheck/internal/engine/script"
	"scopecheck/internal/shared/observability"
	"scopecheck/internal/shared/util"
	"scopecheck/internal/ui/report"
	"scopecheck/internal/ui/shell"
)

const shutdownTimeout = 5 * time.Second

// Run executes the command line and returns the process exit code.
func Run(args []string) int {
	return run(args, os.Stdin, os.Stdout)
}

func run(args []string, stdin io.Reader, stdout io.Writer) int {
	opts, err := parseOptions(args)
	if err != nil {
		return 2
	}

	if opts.version {
		fmt.Fprintf(stdout, "scopecheck v%s\n", versionString)
		return 0
	}

	if err := validateModeOptions(opts); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 2
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to detect working directory: %v\n", err)
		return 1
	}

	cfg, cfgPath, err := loadConfig(opts.configPath, cwd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		return 2
	}

	cleanupLogs := configureLogging(opts.shell, opts.verbose, cfg.Log)
	defer cleanupLogs()
	if cfgPath != "" {
		slog.Debug("loaded config", "path", cfgPath)
	}

	if opts.script != "" {
		return runScript(opts.script, stdin, stdout)
	}
	if opts.shell {
		if err := shell.Run(script.New(observability.TableObserver{})); err != nil {
			slog.Error("failed to run shell", "error", err)
			return 1
		}
		return 0
	}

	applyModeOptions(opts, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, observability.TracingOptions{
		Enabled:     cfg.Observability.EnableTracing,
		Endpoint:    cfg.Observability.OTLPEndpoint,
		ServiceName: cfg.Observability.ServiceName,
	})
	if err != nil {
		slog.Error("failed to initialize tracing", "error", err)
		return 1
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			slog.Warn("tracing shutdown failed", "error", err)
		}
	}()

	application, err := coreapp.New(cfg)
	if err != nil {
		slog.Error("failed to initialize app", "error", err)
		return 1
	}
	defer func() {
		if err := application.Close(); err != nil {
			slog.Warn("failed to close app", "error", err)
		}
	}()
	application.SetOutput(stdout)

	if opts.serve || cfg.Observability.Enabled {
		server := observability.NewServer(cfg.Observability.Address, application.Health)
		if err := server.Start(ctx); err != nil {
			slog.Error("failed to start observability server", "error", err, "addr", cfg.Observability.Address)
			return 1
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = server.Stop(shutdownCtx)
		}()
	}

	result, err := application.Analyze(ctx, nil)
	if err != nil {
		slog.Error("analysis failed", "error", err)
		return 1
	}
	application.PrintSummary(result)
	if err := writeReports(opts, result, cwd); err != nil {
		slog.Error("failed to write reports", "error", err)
		return 1
	}

	if opts.history {
		if err := runHistoryMode(opts, application, stdout); err != nil {
			slog.Error("history mode failed", "error", err)
			return 1
		}
	}

	if !opts.watch {
		if len(result.Findings) > 0 {
			return 1
		}
		return 0
	}

	if err := application.StartWatcher(ctx); err != nil {
		slog.Error("failed to start watcher", "error", err)
		return 1
	}
	if cfgPath != "" {
		cw := config.NewWatcher(cfgPath, func(next *config.Config) {
			if err := application.Reconfigure(next); err != nil {
				slog.Error("failed to apply reloaded config", "error", err)
			}
		})
		if err := cw.Start(ctx); err != nil {
			slog.Warn("config reload disabled", "path", cfgPath, "error", err)
		} else {
			defer cw.Stop()
		}
	}

	slog.Info("watching for changes", "paths", cfg.WatchPaths)
	<-ctx.Done()
	slog.Info("shutting down")
	return 0
}

// runScript executes a table script from path, or stdin when path is "-".
// Any failed line makes the exit code 1.
func runScript(path string, stdin io.Reader, stdout io.Writer) int {
	r := stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			slog.Error("failed to open script", "path", path, "error", err)
			return 1
		}
		defer f.Close()
		r = f
	}

	interp := script.New(observability.TableObserver{})
	failures, err := interp.Run(r, stdout)
	if err != nil {
		slog.Error("script failed", "path", path, "error", err)
		return 1
	}
	if failures > 0 {
		slog.Warn("script finished with errors", "path", path, "failed_lines", failures)
		return 1
	}
	return 0
}

func runHistoryMode(opts cliOptions, application *coreapp.App, w io.Writer) error {
	since, err := parseSince(opts.since)
	if err != nil {
		return err
	}
	window, err := parseHistoryWindow(opts.historyWindow)
	if err != nil {
		return err
	}

	trend, err := application.Trend(since, window)
	if err != nil {
		return err
	}
	coreapp.WriteTrend(w, trend)

	outputs := []struct {
		path   string
		render func(history.TrendReport) ([]byte, error)
	}{
		{opts.historyJSON, report.RenderTrendJSON},
		{opts.historyTSV, report.RenderTrendTSV},
	}
	for _, out := range outputs {
		if out.path == "" {
			continue
		}
		data, err := out.render(trend)
		if err != nil {
			return fmt.Errorf("render trend report: %w", err)
		}
		if err := util.WriteFileWithDirs(out.path, data, 0o644); err != nil {
			return fmt.Errorf("write trend report: %w", err)
		}
		slog.Info("wrote trend report", "path", out.path)
	}
	return nil
}

// writeReports writes the SARIF and markdown outputs requested on the
// command line. Paths in them are relative to cwd.
func writeReports(opts cliOptions, result *parser.Report, cwd string) error {
	if opts.sarifPath != "" {
		data, err := report.GenerateSARIF(cwd, versionString, result.Findings)
		if err != nil {
			return err
		}
		if err := util.WriteFileWithDirs(opts.sarifPath, data, 0o644); err != nil {
			return fmt.Errorf("write sarif report: %w", err)
		}
		slog.Info("wrote sarif report", "path", opts.sarifPath, "results", len(result.Findings))
	}

	if opts.markdownPath != "" {
		gen := report.NewMarkdownGenerator()
		mdOpts := report.MarkdownReportOptions{
			ProjectName:   filepath.Base(cwd),
			ProjectRoot:   cwd,
			Version:       versionString,
			CollapseAfter: 10,
		}
		full, err := gen.Generate(result, mdOpts)
		if err != nil {
			return err
		}
		if err := report.WriteMarkdown(opts.markdownPath, full, gen.Body(result, mdOpts)); err != nil {
			return err
		}
		slog.Info("wrote markdown report", "path", opts.markdownPath)
	}
	return nil
}

func validateModeOptions(opts cliOptions) error {
	modes := 0
	for _, on := range []bool{opts.script != "", opts.shell, opts.watch} {
		if on {
			modes++
		}
	}
	if modes > 1 {
		return fmt.Errorf("--script, --shell, and --watch cannot be combined")
	}

	if (opts.script != "" || opts.shell) && len(opts.args) > 0 {
		return fmt.Errorf("--script and --shell do not accept path arguments")
	}
	if (opts.script != "" || opts.shell) && (opts.history || opts.serve) {
		return fmt.Errorf("--history and --serve apply to analysis runs only")
	}

	if (opts.historyJSON != "" || opts.historyTSV != "" || opts.since != "") && !opts.history {
		return fmt.Errorf("--since, --history-json and --history-tsv require --history")
	}
	if (opts.script != "" || opts.shell) && (opts.sarifPath != "" || opts.markdownPath != "") {
		return fmt.Errorf("--sarif and --report-md apply to analysis runs only")
	}
	if opts.history {
		if _, err := parseSince(opts.since); err != nil {
			return err
		}
		if _, err := parseHistoryWindow(opts.historyWindow); err != nil {
			return err
		}
	}
	return nil
}

// applyModeOptions folds flags that override config into cfg.
func applyModeOptions(opts cliOptions, cfg *config.Config) {
	if len(opts.args) > 0 {
		cfg.WatchPaths = append([]string(nil), opts.args...)
	}
	if opts.history {
		cfg.DB.Enabled = true
	}
	if opts.serve {
		cfg.Observability.Enabled = true
	}
}

// loadConfig reads path when it was given explicitly. With the default path
// the first existing candidate wins, and built-in defaults apply when there
// is none; the returned path is then empty.
func loadConfig(path, cwd string) (*config.Config, string, error) {
	if path != defaultConfigPath {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, "", err
		}
		return cfg, path, nil
	}

	for _, candidate := range discoverDefaultConfig(cwd) {
		cfg, err := config.Load(candidate)
		if err == nil {
			return cfg, candidate, nil
		}
		if !os.IsNotExist(err) {
			return nil, "", err
		}
	}

	cfg := config.DefaultConfig()
	config.ApplyEnvOverrides(cfg)
	return cfg, "", nil
}

func discoverDefaultConfig(cwd string) []string {
	return []string{
		filepath.Clean(filepath.Join(cwd, "scopecheck.toml")),
		filepath.Clean(filepath.Join(cwd, "data/config/scopecheck.toml")),
	}
}

func parseSince(value string) (time.Time, error) {
	raw := strings.TrimSpace(value)
	if raw == "" {
		return time.Time{}, nil
	}

	rfc3339, err := time.Parse(time.RFC3339, raw)
	if err == nil {
		return rfc3339.UTC(), nil
	}

	dateOnly, err := time.Parse("2006-01-02", raw)
	if err == nil {
		return dateOnly.UTC(), nil
	}

	return time.Time{}, fmt.Errorf("--since must be RFC3339 or YYYY-MM-DD, got %q", value)
}

func parseHistoryWindow(value string) (time.Duration, error) {
	window, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || window <= 0 {
		return 0, fmt.Errorf("--history-window must be a positive duration, got %q", value)
	}
	return window, nil
}

// configureLogging installs the default slog logger. Logs go to stderr so
// they never mix with reports on stdout; the shell logs to a file instead.
func configureLogging(toFile, verbose bool, logCfg config.Log) func() {
	level := parseLevel(logCfg.Level)
	if verbose {
		level = slog.LevelDebug
	}

	var output io.Writer = os.Stderr
	closeFn := func() {}
	if toFile {
		logPath := resolveLogPath()
		if err := os.MkdirAll(filepath.Dir(logPath), 0o700); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to create log dir for %s: %v\n", logPath, err)
		} else if fi, err := os.Lstat(logPath); err == nil && (fi.Mode()&os.ModeSymlink) != 0 {
			fmt.Fprintf(os.Stderr, "warning: refusing to write logs to symlink path %s\n", logPath)
		} else {
			f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
			if err == nil {
				output = f
				closeFn = func() { _ = f.Close() }
			} else {
				fmt.Fprintf(os.Stderr, "warning: failed to open log file %s: %v\n", logPath, err)
			}
		}
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler = slog.NewTextHandler(output, handlerOpts)
	if strings.EqualFold(strings.TrimSpace(logCfg.Format), "json") {
		handler = slog.NewJSONHandler(output, handlerOpts)
	}
	slog.SetDefault(slog.New(handler))
	return closeFn
}

func parseLevel(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func resolveLogPath() string {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "scopecheck", "scopecheck.log")
	}

	home, err := os.UserHomeDir()
	if err == nil && home != "" {
		return filepath.Join(home, ".local", "state", "scopecheck", "scopecheck.log")
	}

	return "scopecheck.log"
}
