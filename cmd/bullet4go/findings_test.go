package main

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammar0144/bullet4go/internal/cli"
	"github.com/ammar0144/bullet4go/pkg/association"
	"github.com/ammar0144/bullet4go/pkg/redis"
)

func setupStore(t *testing.T) *redis.Manager {
	t.Helper()
	color.NoColor = true

	mr := miniredis.RunT(t)
	t.Setenv("BULLET4GO_REDIS_HOST", mr.Host())
	t.Setenv("BULLET4GO_REDIS_PORT", mr.Port())
	t.Setenv("BULLET4GO_LOG_LEVEL", "error")

	config := redis.DefaultConfig()
	config.Host = mr.Host()
	config.Port = mr.Server().Addr().Port
	store, err := redis.NewManager(config)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func seed(t *testing.T, store *redis.Manager, id string) {
	t.Helper()
	err := store.SaveSummary(context.Background(), association.Summary{
		RequestID: id,
		Label:     "GET /categories",
		StartedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Unpreloaded: association.Report{{
			Key:     association.Key{Owner: "Category", Name: "posts"},
			Context: association.Path{},
			Objects: 2,
		}},
	})
	require.NoError(t, err)
}

func TestFindingsCommands(t *testing.T) {
	store := setupStore(t)
	seed(t, store, "req-1")
	seed(t, store, "req-2")

	out, err := run(t, "findings", "recent", "--limit", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "req-1")
	assert.Contains(t, out, "req-2")
	assert.Contains(t, out, "N+1 Category#posts under [] (2 objects)")

	out, err = run(t, "findings", "top")
	require.NoError(t, err)
	assert.Contains(t, out, "x2 Category#posts")

	out, err = run(t, "findings", "show", "req-1")
	require.NoError(t, err)
	assert.Contains(t, out, "GET /categories req-1")

	_, err = run(t, "findings", "show", "missing")
	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, cli.ExitStore, exitErr.Code)

	out, err = run(t, "findings", "clear")
	require.NoError(t, err)
	assert.Contains(t, out, `cleared keys under "bullet4go"`)

	out, err = run(t, "findings", "recent")
	require.NoError(t, err)
	assert.Contains(t, out, "no summaries recorded")
}

func TestFindingsStoreDisabled(t *testing.T) {
	setupStore(t)
	t.Setenv("BULLET4GO_REDIS_ENABLED", "false")

	_, err := run(t, "findings", "top")
	var exitErr *cli.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, cli.ExitConfig, exitErr.Code)
	assert.ErrorIs(t, err, redis.ErrStoreDisabled)
}

func TestConfigShow(t *testing.T) {
	setupStore(t)
	t.Setenv("BULLET4GO_DETECTION_MIN_OBJECTS", "3")
	t.Setenv("BULLET4GO_REDIS_PASSWORD", "hunter2")

	out, err := run(t, "config", "show", "--source")
	require.NoError(t, err)
	assert.Contains(t, out, "Config file:")
	assert.Contains(t, out, "min_objects: 3")
	assert.Contains(t, out, "key_prefix: bullet4go")
	assert.NotContains(t, out, "hunter2")
	assert.Contains(t, out, "********")
}
