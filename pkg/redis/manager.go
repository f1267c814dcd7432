package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/ammar0144/bullet4go/pkg/association"

	"github.com/redis/go-redis/v9"
	"github.com/vmihailenco/msgpack/v5"
)

// Key layout constants
const (
	keySeparator     = ":"
	keySummary       = "summary"
	keyRecent        = "recent"
	keyFindingCounts = "findings"
	keyFinding       = "finding"
)

// FindingCount is a finding together with the number of stored requests it
// was reported in
type FindingCount struct {
	Finding     association.Finding
	Occurrences int64
}

// Manager persists request summaries and aggregates findings across requests
type Manager struct {
	config        *Config
	client        redis.UniversalClient
	clusterClient *redis.ClusterClient
	metrics       *Metrics
}

// NewManager creates a new findings store
func NewManager(config *Config) (*Manager, error) {
	if config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid redis config: %w", err)
	}

	manager := &Manager{
		config:  config,
		metrics: NewMetrics(),
	}
	manager.initializeClient()

	return manager, nil
}

// NewManagerWithClient creates a findings store around an existing client
func NewManagerWithClient(client redis.UniversalClient, config *Config) (*Manager, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid redis config: %w", err)
	}
	return &Manager{config: config, client: client, metrics: NewMetrics()}, nil
}

// initializeClient sets up the Redis client based on configuration
func (m *Manager) initializeClient() {
	if !m.config.Enabled {
		return // Skip initialization if the store is disabled
	}

	if m.config.IsClusterMode() {
		// Redis Cluster configuration
		m.clusterClient = redis.NewClusterClient(&redis.ClusterOptions{
			Addrs:           m.config.Cluster.Addresses,
			Username:        m.config.Cluster.Username,
			Password:        m.config.Cluster.Password,
			PoolSize:        m.config.PoolSize,
			MinIdleConns:    m.config.MinIdleConns,
			ConnMaxLifetime: m.config.MaxConnAge,
			PoolTimeout:     m.config.PoolTimeout,
			ConnMaxIdleTime: m.config.IdleTimeout,
			ReadTimeout:     m.config.ReadTimeout,
			WriteTimeout:    m.config.WriteTimeout,
			DialTimeout:     m.config.DialTimeout,
		})
		m.client = m.clusterClient
		return
	}

	// Single Redis instance configuration
	m.client = redis.NewClient(&redis.Options{
		Addr:            m.config.GetAddr(),
		Password:        m.config.Password,
		DB:              m.config.Database,
		PoolSize:        m.config.PoolSize,
		MinIdleConns:    m.config.MinIdleConns,
		ConnMaxLifetime: m.config.MaxConnAge,
		PoolTimeout:     m.config.PoolTimeout,
		ConnMaxIdleTime: m.config.IdleTimeout,
		ReadTimeout:     m.config.ReadTimeout,
		WriteTimeout:    m.config.WriteTimeout,
		DialTimeout:     m.config.DialTimeout,
	})
}

// Config returns the manager's configuration
func (m *Manager) Config() *Config {
	return m.config
}

// Close closes the Redis connection
func (m *Manager) Close() error {
	if m.client != nil {
		return m.client.Close()
	}
	return nil
}

// Ping tests the Redis connection
// Returns nil if the store is disabled (not an error condition)
func (m *Manager) Ping(ctx context.Context) error {
	if !m.config.Enabled {
		return nil
	}
	if m.client == nil {
		return ErrClientNotInitialized
	}

	if err := m.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	return nil
}

// checkClient validates that the store is enabled and client is initialized
func (m *Manager) checkClient() error {
	if !m.config.Enabled {
		return ErrStoreDisabled
	}
	if m.client == nil {
		return ErrClientNotInitialized
	}
	return nil
}

func (m *Manager) key(parts ...string) string {
	k := m.config.KeyPrefix
	for _, p := range parts {
		k += keySeparator + p
	}
	return k
}

// SaveSummary stores a request summary and bumps the occurrence counter of
// each of its findings. Clean summaries are skipped unless StoreClean is set.
func (m *Manager) SaveSummary(ctx context.Context, summary association.Summary) error {
	if err := m.checkClient(); err != nil {
		return err
	}
	if !summary.HasFindings() && !m.config.StoreClean {
		m.metrics.RecordSkip()
		return nil
	}

	data, err := msgpack.Marshal(summary)
	if err != nil {
		m.metrics.RecordError()
		return fmt.Errorf("%w: %v", ErrSerializationFailed, err)
	}

	findings := summary.Unpreloaded
	encoded := make(map[string][]byte, len(findings))
	for _, f := range findings {
		b, err := msgpack.Marshal(f)
		if err != nil {
			m.metrics.RecordError()
			return fmt.Errorf("%w: %v", ErrSerializationFailed, err)
		}
		encoded[f.Fingerprint()] = b
	}

	start := time.Now()
	_, err = m.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, m.key(keySummary, summary.RequestID), data, m.config.ReportTTL)
		pipe.LPush(ctx, m.key(keyRecent), summary.RequestID)
		pipe.LTrim(ctx, m.key(keyRecent), 0, m.config.MaxRecent-1)
		for fingerprint, b := range encoded {
			pipe.ZIncrBy(ctx, m.key(keyFindingCounts), 1, fingerprint)
			pipe.Set(ctx, m.key(keyFinding, fingerprint), b, 0)
		}
		return nil
	})
	if err != nil {
		m.metrics.RecordError()
		return fmt.Errorf("failed to save summary %s: %w", summary.RequestID, err)
	}

	m.metrics.RecordSave(len(findings), time.Since(start))
	return nil
}

// GetSummary loads a stored request summary
func (m *Manager) GetSummary(ctx context.Context, requestID string) (*association.Summary, error) {
	if err := m.checkClient(); err != nil {
		return nil, err
	}

	start := time.Now()
	data, err := m.client.Get(ctx, m.key(keySummary, requestID)).Bytes()
	m.metrics.RecordRead(time.Since(start))
	if err == redis.Nil {
		return nil, ErrKeyNotFound
	}
	if err != nil {
		m.metrics.RecordError()
		return nil, fmt.Errorf("redis get error: %w", err)
	}

	var summary association.Summary
	if err := msgpack.Unmarshal(data, &summary); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerializationFailed, err)
	}
	return &summary, nil
}

// RecentSummaries returns up to limit stored summaries, newest first.
// Summaries that expired since being listed are skipped.
func (m *Manager) RecentSummaries(ctx context.Context, limit int64) ([]association.Summary, error) {
	if err := m.checkClient(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = m.config.MaxRecent
	}

	ids, err := m.client.LRange(ctx, m.key(keyRecent), 0, limit-1).Result()
	if err != nil {
		m.metrics.RecordError()
		return nil, fmt.Errorf("failed to list recent summaries: %w", err)
	}

	summaries := make([]association.Summary, 0, len(ids))
	for _, id := range ids {
		summary, err := m.GetSummary(ctx, id)
		if IsKeyNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, *summary)
	}
	return summaries, nil
}

// TopFindings returns the findings reported in the most requests
func (m *Manager) TopFindings(ctx context.Context, limit int64) ([]FindingCount, error) {
	if err := m.checkClient(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = 10
	}

	start := time.Now()
	scored, err := m.client.ZRevRangeWithScores(ctx, m.key(keyFindingCounts), 0, limit-1).Result()
	m.metrics.RecordRead(time.Since(start))
	if err != nil {
		m.metrics.RecordError()
		return nil, fmt.Errorf("failed to rank findings: %w", err)
	}

	counts := make([]FindingCount, 0, len(scored))
	for _, z := range scored {
		fingerprint, _ := z.Member.(string)
		data, err := m.client.Get(ctx, m.key(keyFinding, fingerprint)).Bytes()
		if err == redis.Nil {
			continue
		}
		if err != nil {
			m.metrics.RecordError()
			return nil, fmt.Errorf("redis get error: %w", err)
		}

		var f association.Finding
		if err := msgpack.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSerializationFailed, err)
		}
		counts = append(counts, FindingCount{Finding: f, Occurrences: int64(z.Score)})
	}
	return counts, nil
}

// Clear removes every key under the configured prefix using SCAN instead of KEYS
func (m *Manager) Clear(ctx context.Context) error {
	if err := m.checkClient(); err != nil {
		return err
	}

	var cursor uint64
	const scanBatchSize = 100
	pattern := m.config.KeyPrefix + keySeparator + "*"

	for {
		var batch []string
		var err error

		batch, cursor, err = m.client.Scan(ctx, cursor, pattern, scanBatchSize).Result()
		if err != nil {
			return fmt.Errorf("failed to scan keys with pattern %s: %w", pattern, err)
		}

		if len(batch) > 0 {
			if err := m.client.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("failed to delete batch: %w", err)
			}
		}

		// cursor == 0 means we've iterated through all keys
		if cursor == 0 {
			break
		}
	}

	return nil
}

// GetMetrics returns current store metrics
func (m *Manager) GetMetrics() MetricsSnapshot {
	return m.metrics.GetSnapshot()
}

// ResetMetrics resets all metrics counters
func (m *Manager) ResetMetrics() {
	m.metrics.Reset()
}
