package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ammar0144/bullet4go/pkg/association"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	postComments    = association.Key{Owner: "Post", Name: "comments"}
	categoryEntries = association.Key{Owner: "Category", Name: "entries"}
)

func setupTestStore(t *testing.T, mutate func(*Config)) (*Manager, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	config := DefaultConfig()
	if mutate != nil {
		mutate(config)
	}

	store, err := NewManagerWithClient(client, config)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store, mr
}

func summaryWith(id string, findings ...association.Finding) association.Summary {
	return association.Summary{
		RequestID:   id,
		Label:       "GET /posts",
		StartedAt:   time.Now(),
		Duration:    15 * time.Millisecond,
		Unpreloaded: association.Report(findings),
	}
}

func TestSaveAndGetSummary(t *testing.T) {
	store, mr := setupTestStore(t, nil)
	ctx := context.Background()

	finding := association.Finding{Key: postComments, Context: association.Path{}, Objects: 2}
	require.NoError(t, store.SaveSummary(ctx, summaryWith("req-1", finding)))

	got, err := store.GetSummary(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, "req-1", got.RequestID)
	assert.Equal(t, "GET /posts", got.Label)
	assert.Equal(t, 15*time.Millisecond, got.Duration)
	require.Len(t, got.Unpreloaded, 1)
	assert.Equal(t, postComments, got.Unpreloaded[0].Key)
	assert.Equal(t, 2, got.Unpreloaded[0].Objects)

	assert.True(t, mr.Exists("bullet4go:summary:req-1"))
	assert.Equal(t, 24*time.Hour, mr.TTL("bullet4go:summary:req-1"))

	snapshot := store.GetMetrics()
	assert.Equal(t, uint64(1), snapshot.SummariesSaved)
	assert.Equal(t, uint64(1), snapshot.FindingsRecorded)
}

func TestGetSummaryNotFound(t *testing.T) {
	store, _ := setupTestStore(t, nil)
	_, err := store.GetSummary(context.Background(), "missing")
	assert.True(t, IsKeyNotFound(err))
}

func TestCleanSummariesSkipped(t *testing.T) {
	store, _ := setupTestStore(t, nil)
	ctx := context.Background()

	require.NoError(t, store.SaveSummary(ctx, summaryWith("clean")))
	_, err := store.GetSummary(ctx, "clean")
	assert.True(t, IsKeyNotFound(err))
	assert.Equal(t, uint64(1), store.GetMetrics().SummariesSkipped)

	keeping, _ := setupTestStore(t, func(c *Config) { c.StoreClean = true })
	require.NoError(t, keeping.SaveSummary(ctx, summaryWith("clean")))
	_, err = keeping.GetSummary(ctx, "clean")
	assert.NoError(t, err)
}

func TestRecentSummariesNewestFirst(t *testing.T) {
	store, _ := setupTestStore(t, func(c *Config) { c.MaxRecent = 2 })
	ctx := context.Background()
	finding := association.Finding{Key: postComments, Context: association.Path{}, Objects: 2}

	for _, id := range []string{"req-1", "req-2", "req-3"} {
		require.NoError(t, store.SaveSummary(ctx, summaryWith(id, finding)))
	}

	recent, err := store.RecentSummaries(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "req-3", recent[0].RequestID)
	assert.Equal(t, "req-2", recent[1].RequestID)
}

func TestRecentSummariesSkipsExpired(t *testing.T) {
	store, mr := setupTestStore(t, nil)
	ctx := context.Background()
	finding := association.Finding{Key: postComments, Context: association.Path{}, Objects: 2}

	require.NoError(t, store.SaveSummary(ctx, summaryWith("req-1", finding)))
	mr.FastForward(25 * time.Hour)
	require.NoError(t, store.SaveSummary(ctx, summaryWith("req-2", finding)))

	recent, err := store.RecentSummaries(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "req-2", recent[0].RequestID)
}

func TestTopFindings(t *testing.T) {
	store, _ := setupTestStore(t, nil)
	ctx := context.Background()

	comments := association.Finding{Key: postComments, Context: association.Path{}, Objects: 2}
	entries := association.Finding{Key: categoryEntries, Context: association.Path{}, Objects: 3}

	require.NoError(t, store.SaveSummary(ctx, summaryWith("req-1", comments, entries)))
	require.NoError(t, store.SaveSummary(ctx, summaryWith("req-2", comments)))

	top, err := store.TopFindings(ctx, 5)
	require.NoError(t, err)
	require.Len(t, top, 2)
	assert.Equal(t, postComments, top[0].Finding.Key)
	assert.Equal(t, int64(2), top[0].Occurrences)
	assert.Equal(t, categoryEntries, top[1].Finding.Key)
	assert.Equal(t, int64(1), top[1].Occurrences)
}

func TestClear(t *testing.T) {
	store, mr := setupTestStore(t, nil)
	ctx := context.Background()
	require.NoError(t, mr.Set("other:key", "kept"))

	finding := association.Finding{Key: postComments, Context: association.Path{}, Objects: 2}
	require.NoError(t, store.SaveSummary(ctx, summaryWith("req-1", finding)))
	require.NoError(t, store.Clear(ctx))

	top, err := store.TopFindings(ctx, 5)
	require.NoError(t, err)
	assert.Empty(t, top)
	assert.True(t, mr.Exists("other:key"))
}

func TestDisabledStore(t *testing.T) {
	store, err := NewManager(&Config{Enabled: false})
	require.NoError(t, err)

	assert.NoError(t, store.Ping(context.Background()))
	err = store.SaveSummary(context.Background(), summaryWith("req-1"))
	assert.True(t, IsStoreDisabled(err))
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())

	config := DefaultConfig()
	config.Host = ""
	assert.Error(t, config.Validate())

	config = DefaultConfig()
	config.MaxRecent = 0
	assert.Error(t, config.Validate())

	config = DefaultConfig()
	config.Host = ""
	config.Cluster = ClusterConfig{Enabled: true, Addresses: []string{"node-1:6379"}}
	assert.NoError(t, config.Validate())

	_, err := NewManager(nil)
	assert.Error(t, err)
}
