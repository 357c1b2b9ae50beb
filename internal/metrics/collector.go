// Package metrics provides in-memory timing statistics for toolkit runs.
package metrics

import (
	"sync"
	"time"
)

// Operation names recorded by the toolkit.
const (
	OpEmbedding = "embedding"
	OpRetrieval = "retrieval"
	OpProvider  = "provider" // suffixed with ":<name>"
)

// OperationStats holds aggregated timings for one operation type.
type OperationStats struct {
	Count     int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
	Failures  int64
}

// AvgMs returns the mean duration in milliseconds.
func (s OperationStats) AvgMs() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.TotalTime.Milliseconds()) / float64(s.Count)
}

// Collector aggregates timings across a process run. All methods are
// safe for concurrent use; the fan-out dispatch records from several
// goroutines at once.
type Collector struct {
	mu  sync.Mutex
	ops map[string]*OperationStats
}

// NewCollector creates an empty collector.
func NewCollector() *Collector {
	return &Collector{ops: make(map[string]*OperationStats)}
}

// Record adds one observation for an operation.
func (c *Collector) Record(op string, d time.Duration, failed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	stats, ok := c.ops[op]
	if !ok {
		stats = &OperationStats{MinTime: d, MaxTime: d}
		c.ops[op] = stats
	}
	stats.Count++
	stats.TotalTime += d
	if d < stats.MinTime {
		stats.MinTime = d
	}
	if d > stats.MaxTime {
		stats.MaxTime = d
	}
	if failed {
		stats.Failures++
	}
}

// Snapshot copies the current stats keyed by operation name.
func (c *Collector) Snapshot() map[string]OperationStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make(map[string]OperationStats, len(c.ops))
	for op, stats := range c.ops {
		out[op] = *stats
	}
	return out
}
