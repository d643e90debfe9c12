// Package config loads feedme settings from defaults, an optional YAML file
// and environment variables, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/nadmax/feedme/internal/task"
	"gopkg.in/yaml.v3"
)

const (
	BackendFile     = "file"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
)

const SnapshotFileName = "task_master.json"

type Config struct {
	Store       StoreConfig  `yaml:"store"`
	Engine      EngineConfig `yaml:"engine"`
	MetricsFile string       `yaml:"metrics_file"`
}

type StoreConfig struct {
	Backend     string `yaml:"backend"`
	DataDir     string `yaml:"data_dir"`
	RedisAddr   string `yaml:"redis_addr"`
	RedisKey    string `yaml:"redis_key"`
	PostgresDSN string `yaml:"postgres_dsn"`
}

type EngineConfig struct {
	MaxScore float64       `yaml:"max_score"`
	MinSpan  time.Duration `yaml:"min_span"`
	Indent   string        `yaml:"indent"`
}

func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Backend:   BackendFile,
			DataDir:   "./data",
			RedisAddr: "localhost:6379",
			RedisKey:  "feedme:snapshot",
		},
		Engine: EngineConfig{
			MaxScore: task.DefaultMaxScore,
			MinSpan:  task.DefaultMinSpan,
			Indent:   task.DefaultIndent,
		},
	}
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. A missing file is not an error; an empty path
// falls back to FEEDME_CONFIG.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("FEEDME_CONFIG")
	}

	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("FEEDME_STORE"); v != "" {
		c.Store.Backend = v
	}
	if v := os.Getenv("FEEDME_DATA_DIR"); v != "" {
		c.Store.DataDir = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Store.RedisAddr = v
	}
	if v := os.Getenv("FEEDME_REDIS_KEY"); v != "" {
		c.Store.RedisKey = v
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		c.Store.PostgresDSN = v
	}
	if v := os.Getenv("FEEDME_METRICS_FILE"); v != "" {
		c.MetricsFile = v
	}

	if v := os.Getenv("FEEDME_MAX_SCORE"); v != "" {
		maxScore, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid FEEDME_MAX_SCORE %q: %w", v, err)
		}
		c.Engine.MaxScore = maxScore
	}

	if v := os.Getenv("FEEDME_MIN_SPAN"); v != "" {
		minSpan, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid FEEDME_MIN_SPAN %q: %w", v, err)
		}
		c.Engine.MinSpan = minSpan
	}

	return nil
}

func (c *Config) Validate() error {
	if c.Engine.MaxScore <= 0 {
		return fmt.Errorf("engine.max_score must be positive, got %v", c.Engine.MaxScore)
	}
	if c.Engine.MinSpan <= 0 {
		return fmt.Errorf("engine.min_span must be positive, got %s", c.Engine.MinSpan)
	}

	switch c.Store.Backend {
	case BackendFile:
		if c.Store.DataDir == "" {
			return errors.New("store.data_dir is required for the file backend")
		}
	case BackendRedis:
		if c.Store.RedisAddr == "" {
			return errors.New("store.redis_addr is required for the redis backend")
		}
	case BackendPostgres:
		if c.Store.PostgresDSN == "" {
			return errors.New("POSTGRES_DSN is required for the postgres backend")
		}
	default:
		return fmt.Errorf("unknown store backend %q (available: file, redis, postgres)", c.Store.Backend)
	}

	return nil
}

// TaskConfig returns the engine constants in the form the task package uses.
func (c *Config) TaskConfig() task.Config {
	indent := c.Engine.Indent
	if indent == "" {
		indent = task.DefaultIndent
	}

	return task.Config{
		MaxScore: c.Engine.MaxScore,
		MinSpan:  c.Engine.MinSpan,
		Indent:   indent,
	}
}

func (c *Config) SnapshotPath() string {
	return filepath.Join(c.Store.DataDir, SnapshotFileName)
}
