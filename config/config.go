package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/TFMV/rsmetrics/db"
	"github.com/TFMV/rsmetrics/report"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// DefaultFile is read from the working directory when no config path is given.
const DefaultFile = ".rsmetrics.toml"

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "RSMETRICS_"

type Config struct {
	Format                string    `toml:"format"`
	Metrics               []string  `toml:"metrics"`
	Exclude               []string  `toml:"exclude"`
	Sort                  string    `toml:"sort"`
	Output                string    `toml:"output"`
	Workers               int       `toml:"workers"`
	CountBooleanOperators bool      `toml:"count_boolean_operators"`
	Debug                 bool      `toml:"debug"`
	Store                 bool      `toml:"store"`
	DB                    db.Config `toml:"db"`
}

func Default() Config {
	return Config{
		Format:  string(report.FormatTable),
		Metrics: []string{"all"},
		Sort:    report.SortDiscovery,
		DB:      db.DefaultConfig(),
	}
}

// Load builds a Config from defaults, the TOML file at path, a .env file
// and RSMETRICS_* environment variables, later sources winning. An empty
// path reads DefaultFile if it exists.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}
	if err := cfg.LoadFile(path); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return cfg, err
		}
	}

	// A missing .env is the common case.
	_ = godotenv.Load()

	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadFile overlays the TOML file at path onto c.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

// ApplyEnv overlays the RSMETRICS_* environment variables onto c.
func (c *Config) ApplyEnv() error {
	setString(&c.Format, "FORMAT")
	setString(&c.Sort, "SORT")
	setString(&c.Output, "OUTPUT")
	setString(&c.DB.URL, "DB_URL")
	setString(&c.DB.Namespace, "DB_NAMESPACE")
	setString(&c.DB.Database, "DB_DATABASE")
	setString(&c.DB.Username, "DB_USER")
	setString(&c.DB.Password, "DB_PASS")

	if v := getenv("METRICS"); v != "" {
		c.Metrics = splitList(v)
	}
	if v := getenv("EXCLUDE"); v != "" {
		c.Exclude = splitList(v)
	}
	if v := getenv("WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %sWORKERS %q: %w", EnvPrefix, v, err)
		}
		c.Workers = n
	}
	for key, dst := range map[string]*bool{
		"COUNT_BOOL_OPS": &c.CountBooleanOperators,
		"DEBUG":          &c.Debug,
		"STORE":          &c.Store,
	} {
		if v := getenv(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("invalid %s%s %q: %w", EnvPrefix, key, v, err)
			}
			*dst = b
		}
	}
	return nil
}

// Validate checks every field that has a closed set of values.
func (c Config) Validate() error {
	if _, err := report.ParseFormat(c.Format); err != nil {
		return err
	}
	if _, err := c.SelectedMetrics(); err != nil {
		return err
	}
	if err := report.Sort(nil, c.Sort); err != nil {
		return err
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", c.Workers)
	}
	for _, pattern := range c.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid exclude pattern %q", pattern)
		}
	}
	if c.Store && c.DB.URL == "" {
		return errors.New("store requested but no database URL configured")
	}
	return nil
}

// SelectedMetrics parses Metrics.
func (c Config) SelectedMetrics() ([]report.Metric, error) {
	return report.ParseMetrics(strings.Join(c.Metrics, ","))
}

func getenv(key string) string {
	return strings.TrimSpace(os.Getenv(EnvPrefix + key))
}

func setString(dst *string, key string) {
	if v := getenv(key); v != "" {
		*dst = v
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
