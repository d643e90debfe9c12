package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nadmax/feedme/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "feedme.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, BackendFile, cfg.Store.Backend)
	assert.Equal(t, "./data", cfg.Store.DataDir)
	assert.Equal(t, task.DefaultMaxScore, cfg.Engine.MaxScore)
	assert.Equal(t, 100*time.Millisecond, cfg.Engine.MinSpan)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))

	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
store:
  backend: redis
  redis_addr: cache:6379
engine:
  max_score: 250
  min_span: 2s
  indent: "  "
metrics_file: /tmp/feedme.prom
`)

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, BackendRedis, cfg.Store.Backend)
	assert.Equal(t, "cache:6379", cfg.Store.RedisAddr)
	assert.Equal(t, "feedme:snapshot", cfg.Store.RedisKey)
	assert.Equal(t, 250.0, cfg.Engine.MaxScore)
	assert.Equal(t, 2*time.Second, cfg.Engine.MinSpan)
	assert.Equal(t, "/tmp/feedme.prom", cfg.MetricsFile)
	assert.Equal(t, task.Config{MaxScore: 250, MinSpan: 2 * time.Second, Indent: "  "}, cfg.TaskConfig())
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := writeConfig(t, `
store:
  backend: redis
engine:
  max_score: 250
`)
	t.Setenv("FEEDME_STORE", "postgres")
	t.Setenv("POSTGRES_DSN", "postgres://localhost/feedme")
	t.Setenv("FEEDME_MAX_SCORE", "500")
	t.Setenv("FEEDME_MIN_SPAN", "1s")
	t.Setenv("FEEDME_DATA_DIR", "/var/lib/feedme")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, BackendPostgres, cfg.Store.Backend)
	assert.Equal(t, "postgres://localhost/feedme", cfg.Store.PostgresDSN)
	assert.Equal(t, 500.0, cfg.Engine.MaxScore)
	assert.Equal(t, time.Second, cfg.Engine.MinSpan)
	assert.Equal(t, filepath.Join("/var/lib/feedme", SnapshotFileName), cfg.SnapshotPath())
}

func TestLoad_ConfigPathFromEnv(t *testing.T) {
	path := writeConfig(t, "engine:\n  max_score: 42\n")
	t.Setenv("FEEDME_CONFIG", path)

	cfg, err := Load("")

	require.NoError(t, err)
	assert.Equal(t, 42.0, cfg.Engine.MaxScore)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		env  map[string]string
	}{
		{name: "malformed yaml", yaml: "store: [unclosed"},
		{name: "unknown backend", yaml: "store:\n  backend: sqlite\n"},
		{name: "negative max score", yaml: "engine:\n  max_score: -1\n"},
		{name: "postgres without dsn", yaml: "store:\n  backend: postgres\n"},
		{name: "bad max score env", yaml: "", env: map[string]string{"FEEDME_MAX_SCORE": "lots"}},
		{name: "bad min span env", yaml: "", env: map[string]string{"FEEDME_MIN_SPAN": "soon"}},
		{name: "zero min span env", yaml: "", env: map[string]string{"FEEDME_MIN_SPAN": "0s"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load(writeConfig(t, tt.yaml))

			assert.Error(t, err)
		})
	}
}
