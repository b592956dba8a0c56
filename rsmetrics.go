package rsmetrics

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/TFMV/rsmetrics/analysis"
	"github.com/TFMV/rsmetrics/config"
	"github.com/TFMV/rsmetrics/db"
	"github.com/TFMV/rsmetrics/parser"
	"github.com/TFMV/rsmetrics/report"
	"github.com/TFMV/rsmetrics/types"
)

/*
Start SurrealDB before running with store enabled:
surreal start --user root --pass root --bind 0.0.0.0:8000 memory
*/

// Runner wires the analyzer, the optional store and the output settings
// of one Config.
type Runner struct {
	Config   config.Config
	Analyzer *analysis.Analyzer
	metrics  []report.Metric
	format   report.Format
}

// New validates cfg and builds a Runner. When cfg.Store is set it connects
// to SurrealDB; call Initialize before the first Analyze.
func New(cfg config.Config) (*Runner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	format, err := report.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	metrics, err := cfg.SelectedMetrics()
	if err != nil {
		return nil, err
	}

	analyzer := analysis.NewAnalyzer(analysis.Options{
		Parser:  parser.Options{CountBooleanOperators: cfg.CountBooleanOperators},
		Workers: cfg.Workers,
	})
	if cfg.Debug {
		analyzer.Logger = log.New(os.Stderr, "rsmetrics: ", log.LstdFlags)
	}

	if cfg.Store {
		store, err := db.NewSurrealDB(cfg.DB)
		if err != nil {
			return nil, err
		}
		analyzer.DB = store
	}

	return &Runner{
		Config:   cfg,
		Analyzer: analyzer,
		metrics:  metrics,
		format:   format,
	}, nil
}

// Initialize prepares the store, if any.
func (r *Runner) Initialize(ctx context.Context) error {
	if err := r.Analyzer.Initialize(ctx); err != nil {
		return fmt.Errorf("failed to initialize store: %w", err)
	}
	return nil
}

// Analyze measures every Rust file under path, a directory or a single file,
// and returns the results ordered by the configured sort key.
func (r *Runner) Analyze(ctx context.Context, path string) (types.AnalysisReport, error) {
	rep, err := r.Analyzer.AnalyzeDirectory(ctx, path, r.Config.Exclude)
	if err != nil {
		return rep, err
	}
	if err := report.Sort(rep.Results, r.Config.Sort); err != nil {
		return rep, err
	}
	return rep, nil
}

// Lookup analyzes path and returns the resolved record of one type. ok is
// false when no analyzed file defines it.
func (r *Runner) Lookup(ctx context.Context, path, name string) (types.TypeRecord, bool, error) {
	rep, err := r.Analyzer.AnalyzeDirectory(ctx, path, r.Config.Exclude)
	if err != nil {
		return types.TypeRecord{}, false, err
	}
	rec, ok := rep.Lookup(name)
	return rec, ok, nil
}

// Write renders results in the configured format and metric selection.
func (r *Runner) Write(w io.Writer, rep types.AnalysisReport) error {
	return report.Write(w, rep.Results, r.format, r.metrics)
}

// Close releases the store, if any.
func (r *Runner) Close() error {
	if r.Analyzer.DB == nil {
		return nil
	}
	return r.Analyzer.DB.Close()
}
