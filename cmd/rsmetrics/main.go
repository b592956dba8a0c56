package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"

	"github.com/TFMV/rsmetrics"
	"github.com/TFMV/rsmetrics/analysis"
	"github.com/TFMV/rsmetrics/config"
	"github.com/TFMV/rsmetrics/report"
	"github.com/TFMV/rsmetrics/types"
	"github.com/docopt/docopt-go"
)

const version = "rsmetrics 0.1.0"

const usage = `rsmetrics - cohesion, coupling and complexity of Rust types.

Reports LCOM (Henderson-Sellers), CBO and WMC for every struct, union and
enum defined in the given file or directory.

Usage:
  rsmetrics [options] [--exclude=<glob>]... <path>
  rsmetrics -h | --help
  rsmetrics --version

Options:
  -h --help             Show this screen.
  --version             Show version.
  -c --config=<file>    TOML config file (default: .rsmetrics.toml if present).
  -f --format=<fmt>     Output format: table, json or csv.
  -m --metrics=<list>   Comma separated metrics: lcom, cbo, wmc or all.
  -e --exclude=<glob>   Skip files and directories matching glob.
  -o --output=<file>    Write results to file instead of stdout.
  -s --sort=<key>       Sort by discovery (default), name, lcom, cbo or wmc.
  -t --type=<name>      Dump the resolved model of one type as JSON.
  -w --workers=<n>      Parallel workers (default: number of CPUs).
  --count-bool-ops      Count && and || toward cyclomatic complexity.
  --store               Store the run in SurrealDB.
  --debug               Print merge warnings and progress.
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, analysis.ErrNoAnalyzableFiles) {
			log.Fatalf("Nothing to analyze: %v", err)
		}
		log.Fatalf("Failed to analyze: %v", err)
	}
}

func run(ctx context.Context, argv []string, stdout, stderr io.Writer) error {
	parser := &docopt.Parser{HelpHandler: docopt.PrintHelpOnly}
	opts, err := parser.ParseArgs(usage, argv, version)
	if err != nil {
		return err
	}
	if len(opts) == 0 || opts["<path>"] == nil {
		// --help or --version was handled by docopt
		return nil
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	runner, err := rsmetrics.New(cfg)
	if err != nil {
		return err
	}
	defer runner.Close()

	if err := runner.Initialize(ctx); err != nil {
		return err
	}

	path, _ := opts.String("<path>")
	rep, err := runner.Analyze(ctx, path)
	printWarnings(stderr, rep, cfg.Debug)
	if err != nil {
		return err
	}
	if cfg.Debug {
		fmt.Fprintln(stderr, rep.PrettyPrint())
	}

	if name, ok := optString(opts, "--type"); ok {
		rec, found := rep.Lookup(name)
		if !found {
			return fmt.Errorf("type %q not found", name)
		}
		return report.WriteType(stdout, rec)
	}

	if cfg.Output == "" {
		return runner.Write(stdout, rep)
	}

	f, err := os.Create(cfg.Output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if err := runner.Write(f, rep); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	fmt.Fprintf(stdout, "Results written to %s\n", cfg.Output)
	return nil
}

// loadConfig applies command-line options on top of the file and
// environment configuration.
func loadConfig(opts docopt.Opts) (config.Config, error) {
	path, _ := optString(opts, "--config")
	cfg, err := config.Load(path)
	if err != nil {
		return cfg, err
	}

	if v, ok := optString(opts, "--format"); ok {
		cfg.Format = v
	}
	if v, ok := optString(opts, "--metrics"); ok {
		cfg.Metrics = []string{v}
	}
	if v, ok := optString(opts, "--sort"); ok {
		cfg.Sort = v
	}
	if v, ok := optString(opts, "--output"); ok {
		cfg.Output = v
	}
	if v, ok := optString(opts, "--workers"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid --workers %q: %w", v, err)
		}
		cfg.Workers = n
	}
	if excludes, ok := opts["--exclude"].([]string); ok && len(excludes) > 0 {
		cfg.Exclude = append(cfg.Exclude, excludes...)
	}
	if b, _ := opts.Bool("--count-bool-ops"); b {
		cfg.CountBooleanOperators = true
	}
	if b, _ := opts.Bool("--store"); b {
		cfg.Store = true
	}
	if b, _ := opts.Bool("--debug"); b {
		cfg.Debug = true
	}

	return cfg, cfg.Validate()
}

func optString(opts docopt.Opts, key string) (string, bool) {
	s, ok := opts[key].(string)
	return s, ok && s != ""
}

// printWarnings always reports skipped files; merge diagnostics only in
// debug mode.
func printWarnings(w io.Writer, rep types.AnalysisReport, debug bool) {
	for _, warning := range rep.Warnings {
		if warning.Kind == types.WarnParseFailure || debug {
			fmt.Fprintf(w, "warning: %s\n", warning)
		}
	}
}
