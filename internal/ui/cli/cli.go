// Package cli wires configuration, logging and the analysis app behind the
// scopecheck command line.
package cli

import "flag"

const versionString = "1.0.0"
const defaultConfigPath = "./scopecheck.toml"

type cliOptions struct {
	configPath    string
	script        string
	shell         bool
	watch         bool
	history       bool
	since         string
	historyWindow string
	historyJSON   string
	historyTSV    string
	sarifPath     string
	markdownPath  string
	serve         bool
	verbose       bool
	version       bool
	args          []string
}

func parseOptions(args []string) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("scopecheck", flag.ContinueOnError)

	fs.StringVar(&opts.configPath, "config", defaultConfigPath, "Path to config file")
	fs.StringVar(&opts.script, "script", "", "Run a symbol table script from this file (- for stdin) and exit")
	fs.BoolVar(&opts.shell, "shell", false, "Open the interactive symbol table shell")
	fs.BoolVar(&opts.watch, "watch", false, "Keep running and re-analyse when .go files change")
	fs.BoolVar(&opts.history, "history", false, "Record runs in the local history database and print the trend")
	fs.StringVar(&opts.since, "since", "", "Include recorded runs at/after this timestamp (RFC3339 or YYYY-MM-DD)")
	fs.StringVar(&opts.historyWindow, "history-window", "24h", "Moving-window duration for trend averages (requires --history)")
	fs.StringVar(&opts.historyJSON, "history-json", "", "Write the trend report as JSON to this path (requires --history)")
	fs.StringVar(&opts.historyTSV, "history-tsv", "", "Write the trend report as TSV to this path (requires --history)")
	fs.StringVar(&opts.sarifPath, "sarif", "", "Write findings as a SARIF 2.1.0 document to this path")
	fs.StringVar(&opts.markdownPath, "report-md", "", "Write a markdown report to this path, or into its scopecheck:findings markers")
	fs.BoolVar(&opts.serve, "serve", false, "Serve /metrics and /health while running")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}

	opts.args = fs.Args()
	return opts, nil
}
