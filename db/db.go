package db

import (
	"context"

	"github.com/TFMV/rsmetrics/types"
)

// DB persists the outcome of an analysis run.
type DB interface {
	Initialize(ctx context.Context) error
	StoreAnalysis(ctx context.Context, report types.AnalysisReport) error
	Close() error
}
