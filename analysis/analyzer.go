package analysis

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"

	"github.com/TFMV/rsmetrics/db"
	"github.com/TFMV/rsmetrics/discover"
	"github.com/TFMV/rsmetrics/expr"
	"github.com/TFMV/rsmetrics/parser"
	"github.com/TFMV/rsmetrics/types"
	"golang.org/x/sync/errgroup"
)

// ErrNoAnalyzableFiles is returned when a run has no input, or no input
// file could be parsed.
var ErrNoAnalyzableFiles = errors.New("no analyzable files found")

// Options configures an Analyzer
type Options struct {
	Parser parser.Options
	// Workers bounds parallel extraction and measurement; 0 means GOMAXPROCS.
	Workers       int
	TypeCacheSize int
	FileCacheSize int
}

// Analyzer provides a high-level interface for code analysis and storage
type Analyzer struct {
	DB        db.DB
	TypeNames *expr.TypeNameCache
	Parser    *parser.Parser
	Files     *FileCache
	Workers   int
	Logger    *log.Logger
}

// NewAnalyzer creates a new Analyzer with the given options. The DB is left
// nil; results are only stored when the caller sets one.
func NewAnalyzer(opts Options) *Analyzer {
	if opts.TypeCacheSize <= 0 {
		opts.TypeCacheSize = 10000
	}
	if opts.FileCacheSize <= 0 {
		opts.FileCacheSize = 1000
	}

	cache := expr.NewTypeNameCache(opts.TypeCacheSize)
	return &Analyzer{
		TypeNames: cache,
		Parser:    parser.NewParser(cache, opts.Parser),
		Files:     NewFileCache(opts.FileCacheSize),
		Workers:   opts.Workers,
	}
}

// Initialize sets up the database connection and schema, if a DB is set
func (a *Analyzer) Initialize(ctx context.Context) error {
	if a.DB == nil {
		return nil
	}
	return a.DB.Initialize(ctx)
}

// AnalyzeDirectory scans a directory tree for Rust files, analyzes them and
// stores the results when a DB is set.
func (a *Analyzer) AnalyzeDirectory(ctx context.Context, dir string, excludes []string) (types.AnalysisReport, error) {
	sources, err := discover.Walk(dir, excludes)
	if err != nil {
		return types.AnalysisReport{}, fmt.Errorf("failed to scan directory %s: %w", dir, err)
	}

	report, err := a.GetAnalysis(ctx, sources)
	if err != nil {
		return report, err
	}

	if a.DB != nil {
		if err := a.DB.StoreAnalysis(ctx, report); err != nil {
			return report, fmt.Errorf("failed to store analysis results: %w", err)
		}
	}

	return report, nil
}

// GetAnalysis runs the pipeline over in-memory sources without storing
// results. Files that fail to parse are skipped with a warning; the run
// fails only when nothing could be analyzed.
func (a *Analyzer) GetAnalysis(ctx context.Context, sources []types.Source) (types.AnalysisReport, error) {
	if len(sources) == 0 {
		return types.AnalysisReport{}, ErrNoAnalyzableFiles
	}

	files := make([]parser.FileAnalysis, len(sources))
	parseErrs := make([]error, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers())
	for i, src := range sources {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			files[i], parseErrs[i] = a.extract(src)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return types.AnalysisReport{}, err
	}

	var report types.AnalysisReport
	analyzed := make([]parser.FileAnalysis, 0, len(files))
	for i, src := range sources {
		if err := parseErrs[i]; err != nil {
			a.logf("skipping %s: %v", src.Path, err)
			report.FilesSkipped++
			report.Warnings = append(report.Warnings, types.Warning{
				Kind:    types.WarnParseFailure,
				File:    src.Path,
				Message: err.Error(),
			})
			continue
		}
		analyzed = append(analyzed, files[i])
	}
	report.FilesAnalyzed = len(analyzed)
	if len(analyzed) == 0 {
		return report, fmt.Errorf("%w: all %d files failed to parse", ErrNoAnalyzableFiles, len(sources))
	}

	records, warnings := Aggregate(analyzed)
	report.Types = records
	report.Warnings = append(report.Warnings, warnings...)

	results, err := a.measure(ctx, records)
	if err != nil {
		return report, err
	}
	report.Results = results
	a.logf("analyzed %d files, %d types", report.FilesAnalyzed, len(records))

	return report, nil
}

func (a *Analyzer) extract(src types.Source) (parser.FileAnalysis, error) {
	key := Digest(src)
	if a.Files != nil {
		if fa, ok := a.Files.Get(key); ok {
			return fa, nil
		}
	}

	fa, err := a.Parser.ParseSource(src.Path, src.Content)
	if err != nil {
		return parser.FileAnalysis{}, err
	}
	if a.Files != nil {
		a.Files.Put(key, fa)
	}
	return fa, nil
}

func (a *Analyzer) measure(ctx context.Context, records []types.TypeRecord) ([]types.AnalysisResult, error) {
	results := make([]types.AnalysisResult, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers())
	for i := range records {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = Measure(records[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

func (a *Analyzer) workers() int {
	if a.Workers > 0 {
		return a.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (a *Analyzer) logf(format string, args ...any) {
	if a.Logger != nil {
		a.Logger.Printf(format, args...)
	}
}
