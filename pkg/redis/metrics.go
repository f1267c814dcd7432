package redis

import (
	"sync/atomic"
	"time"
)

// Metrics tracks findings store statistics
type Metrics struct {
	// Store counters
	summariesSaved   atomic.Uint64
	summariesSkipped atomic.Uint64
	findingsRecorded atomic.Uint64
	storeErrors      atomic.Uint64

	// Operation counters
	saveOperations atomic.Uint64
	readOperations atomic.Uint64

	// Timing metrics (in nanoseconds)
	totalSaveLatency atomic.Uint64
	totalReadLatency atomic.Uint64
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordSave records a saved summary with its finding count and latency
func (m *Metrics) RecordSave(findings int, duration time.Duration) {
	m.summariesSaved.Add(1)
	m.findingsRecorded.Add(uint64(findings))
	m.saveOperations.Add(1)
	m.totalSaveLatency.Add(uint64(duration.Nanoseconds()))
}

// RecordSkip increments the counter of clean summaries not stored
func (m *Metrics) RecordSkip() {
	m.summariesSkipped.Add(1)
}

// RecordRead records a read operation with latency
func (m *Metrics) RecordRead(duration time.Duration) {
	m.readOperations.Add(1)
	m.totalReadLatency.Add(uint64(duration.Nanoseconds()))
}

// RecordError increments the store error counter
func (m *Metrics) RecordError() {
	m.storeErrors.Add(1)
}

// GetSnapshot returns a snapshot of current metrics
func (m *Metrics) GetSnapshot() MetricsSnapshot {
	saveOps := m.saveOperations.Load()
	readOps := m.readOperations.Load()

	var avgSaveLatency, avgReadLatency time.Duration
	if saveOps > 0 {
		avgSaveLatency = time.Duration(m.totalSaveLatency.Load() / saveOps)
	}
	if readOps > 0 {
		avgReadLatency = time.Duration(m.totalReadLatency.Load() / readOps)
	}

	return MetricsSnapshot{
		SummariesSaved:   m.summariesSaved.Load(),
		SummariesSkipped: m.summariesSkipped.Load(),
		FindingsRecorded: m.findingsRecorded.Load(),
		StoreErrors:      m.storeErrors.Load(),
		SaveOperations:   saveOps,
		ReadOperations:   readOps,
		AvgSaveLatency:   avgSaveLatency,
		AvgReadLatency:   avgReadLatency,
	}
}

// Reset resets all metrics counters
func (m *Metrics) Reset() {
	m.summariesSaved.Store(0)
	m.summariesSkipped.Store(0)
	m.findingsRecorded.Store(0)
	m.storeErrors.Store(0)
	m.saveOperations.Store(0)
	m.readOperations.Store(0)
	m.totalSaveLatency.Store(0)
	m.totalReadLatency.Store(0)
}

// MetricsSnapshot represents a point-in-time snapshot of metrics
type MetricsSnapshot struct {
	// Store metrics
	SummariesSaved   uint64
	SummariesSkipped uint64
	FindingsRecorded uint64
	StoreErrors      uint64

	// Operation counts
	SaveOperations uint64
	ReadOperations uint64

	// Latency metrics
	AvgSaveLatency time.Duration
	AvgReadLatency time.Duration
}
