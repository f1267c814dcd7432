package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoadConfigDefaults(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, path, err := LoadConfig("")
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, "localhost", cfg.Redis.Host)
	assert.Equal(t, 6379, cfg.Redis.Port)
	assert.Equal(t, "bullet4go", cfg.Redis.KeyPrefix)
	assert.Equal(t, 24*time.Hour, cfg.Redis.ReportTTL)
	assert.Equal(t, 2, cfg.Detection.MinObjects)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bullet4go.yaml")
	content := `
redis:
  host: cache.internal
  report_ttl: 30m
  max_recent: 50
detection:
  min_objects: 3
  detect_unused_eager_loading: true
log:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("BULLET4GO_REDIS_PORT", "6380")

	cfg, used, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, "cache.internal", cfg.Redis.Host)
	assert.Equal(t, 6380, cfg.Redis.Port)
	assert.Equal(t, 30*time.Minute, cfg.Redis.ReportTTL)
	assert.Equal(t, int64(50), cfg.Redis.MaxRecent)
	assert.Equal(t, 3, cfg.Detection.MinObjects)
	assert.True(t, cfg.Detection.DetectUnusedEagerLoading)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadConfigAutoDiscovery(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bullet4go.yml"), []byte("redis:\n  key_prefix: staging\n"), 0o600))
	chdir(t, dir)

	cfg, path, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "bullet4go.yml", path)
	assert.Equal(t, "staging", cfg.Redis.KeyPrefix)
}

func TestLoadConfigErrors(t *testing.T) {
	_, _, err := LoadConfig("/nonexistent/bullet4go.yaml")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bullet4go.yaml")
	require.NoError(t, os.WriteFile(path, []byte("detection:\n  min_objects: 0\n"), 0o600))
	_, _, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestConfigRedacted(t *testing.T) {
	var cfg Config
	cfg.Redis.Password = "hunter2"
	cfg.Redis.Cluster.Password = "cluster-secret"

	red := cfg.Redacted()
	assert.Equal(t, "********", red.Redis.Password)
	assert.Equal(t, "********", red.Redis.Cluster.Password)
	assert.Equal(t, "hunter2", cfg.Redis.Password)

	assert.Empty(t, Config{}.Redacted().Redis.Password)
}

func TestLoadConfigEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bullet4go.yaml")
	require.NoError(t, os.WriteFile(path, []byte("redis:\n  host: from-file\n"), 0o600))
	t.Setenv("BULLET4GO_REDIS_HOST", "from-env")

	cfg, _, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "from-env", cfg.Redis.Host)
}
