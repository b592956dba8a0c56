package db

import (
	"context"
	"fmt"

	"github.com/TFMV/rsmetrics/schema"
	"github.com/TFMV/rsmetrics/types"
	surrealdb "github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/pkg/models"
)

// Config holds the SurrealDB connection settings
type Config struct {
	URL       string `toml:"url"`
	Namespace string `toml:"namespace"`
	Database  string `toml:"database"`
	Username  string `toml:"username"`
	Password  string `toml:"password"`
}

// DefaultConfig matches a local `surreal start --user root --pass root memory`.
func DefaultConfig() Config {
	return Config{
		URL:       "ws://localhost:8000/rpc",
		Namespace: "rsmetrics",
		Database:  "rsmetrics",
		Username:  "root",
		Password:  "root",
	}
}

type SurrealDB struct {
	db     *surrealdb.DB
	config Config
}

func NewSurrealDB(config Config) (*SurrealDB, error) {
	db, err := surrealdb.New(config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &SurrealDB{
		db:     db,
		config: config,
	}, nil
}

func (s *SurrealDB) Initialize(ctx context.Context) error {
	if err := s.db.Use(s.config.Namespace, s.config.Database); err != nil {
		return fmt.Errorf("failed to set namespace/database: %w", err)
	}

	authData := &surrealdb.Auth{
		Username: s.config.Username,
		Password: s.config.Password,
	}
	token, err := s.db.SignIn(authData)
	if err != nil {
		return fmt.Errorf("failed to sign in: %w", err)
	}

	if err := s.db.Authenticate(token); err != nil {
		return fmt.Errorf("failed to authenticate: %w", err)
	}

	if err := schema.InitializeSchema(s.db); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// StoreAnalysis replaces the contents of the metric tables with one run.
func (s *SurrealDB) StoreAnalysis(ctx context.Context, report types.AnalysisReport) error {
	for _, table := range schema.Tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := surrealdb.Query[any](s.db, "DELETE "+table, map[string]interface{}{}); err != nil {
			return fmt.Errorf("failed to clear table %s: %w", table, err)
		}
	}

	for _, rec := range report.Types {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := surrealdb.Create[types.TypeRecord](s.db, models.Table(schema.TypeRecords), rec); err != nil {
			return fmt.Errorf("failed to store type %s: %w", rec.Name, err)
		}
	}

	for _, res := range report.Results {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := surrealdb.Create[types.AnalysisResult](s.db, models.Table(schema.AnalysisResults), res); err != nil {
			return fmt.Errorf("failed to store metrics of %s: %w", res.TypeName, err)
		}
	}

	for _, w := range report.Warnings {
		if _, err := surrealdb.Create[types.Warning](s.db, models.Table(schema.Warnings), w); err != nil {
			return fmt.Errorf("failed to store warning %s: %w", w.Kind, err)
		}
	}

	return nil
}

func (s *SurrealDB) Close() error {
	return s.db.Close()
}
