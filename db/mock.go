package db

import (
	"context"
	"sync"

	"github.com/TFMV/rsmetrics/types"
)

// MockDB records what it is asked to store. Any of the funcs may be set to
// inject behaviour.
type MockDB struct {
	InitializeFunc    func(ctx context.Context) error
	StoreAnalysisFunc func(ctx context.Context, report types.AnalysisReport) error

	mu     sync.Mutex
	stored []types.AnalysisReport
	closed bool
}

func NewMockDB() *MockDB {
	return &MockDB{
		InitializeFunc: func(ctx context.Context) error {
			return nil
		},
	}
}

func (m *MockDB) Initialize(ctx context.Context) error {
	if m.InitializeFunc == nil {
		return nil
	}
	return m.InitializeFunc(ctx)
}

func (m *MockDB) StoreAnalysis(ctx context.Context, report types.AnalysisReport) error {
	if m.StoreAnalysisFunc != nil {
		if err := m.StoreAnalysisFunc(ctx, report); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.stored = append(m.stored, report)
	m.mu.Unlock()
	return nil
}

func (m *MockDB) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}

// Stored returns every report stored so far.
func (m *MockDB) Stored() []types.AnalysisReport {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]types.AnalysisReport(nil), m.stored...)
}

// Closed reports whether Close was called.
func (m *MockDB) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}
