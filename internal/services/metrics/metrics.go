// Package metrics collects in-process counters for the status API.
package metrics

import (
	"runtime"
	"sync"
	"time"
)

// Histogram bucket labels for job durations
var durationBuckets = []string{"<10s", "<30s", "<60s", "<90s", ">=90s"}

// Collector accumulates scan counters and job-duration observations.
// All methods are safe for concurrent use.
type Collector struct {
	mu sync.Mutex

	started          int64
	succeeded        int64
	failed           int64
	cached           int64
	ssrfBlocked      int64
	validationErrors int64

	durations   [5]int64
	totalTime   time.Duration
	observation int64

	startedAt time.Time
}

// NewCollector creates a collector anchored at process start
func NewCollector() *Collector {
	return &Collector{startedAt: time.Now()}
}

func (c *Collector) IncStarted()          { c.inc(&c.started) }
func (c *Collector) IncSucceeded()        { c.inc(&c.succeeded) }
func (c *Collector) IncFailed()           { c.inc(&c.failed) }
func (c *Collector) IncCached()           { c.inc(&c.cached) }
func (c *Collector) IncSSRFBlocked()      { c.inc(&c.ssrfBlocked) }
func (c *Collector) IncValidationErrors() { c.inc(&c.validationErrors) }

func (c *Collector) inc(counter *int64) {
	c.mu.Lock()
	*counter++
	c.mu.Unlock()
}

// ObserveJobDuration records one completed job's wall time
func (c *Collector) ObserveJobDuration(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.durations[bucketIndex(d)]++
	c.totalTime += d
	c.observation++
}

func bucketIndex(d time.Duration) int {
	switch {
	case d < 10*time.Second:
		return 0
	case d < 30*time.Second:
		return 1
	case d < 60*time.Second:
		return 2
	case d < 90*time.Second:
		return 3
	default:
		return 4
	}
}

// Snapshot is the point-in-time metrics report
type Snapshot struct {
	Jobs struct {
		Started          int64 `json:"started"`
		Succeeded        int64 `json:"succeeded"`
		Failed           int64 `json:"failed"`
		Cached           int64 `json:"cached"`
		SSRFBlocked      int64 `json:"ssrfBlocked"`
		ValidationErrors int64 `json:"validationErrors"`
	} `json:"jobs"`
	Durations      map[string]int64 `json:"durations"`
	AvgDurationMS  int64            `json:"avgDurationMs"`
	UptimeSeconds  int64            `json:"uptimeSeconds"`
	MemoryAllocMB  float64          `json:"memoryAllocMb"`
	NumGoroutine   int              `json:"numGoroutine"`
	GCPauseTotalMS float64          `json:"gcPauseTotalMs"`
}

// Snapshot returns the current counters plus runtime stats
func (c *Collector) Snapshot() Snapshot {
	c.mu.Lock()
	var snap Snapshot
	snap.Jobs.Started = c.started
	snap.Jobs.Succeeded = c.succeeded
	snap.Jobs.Failed = c.failed
	snap.Jobs.Cached = c.cached
	snap.Jobs.SSRFBlocked = c.ssrfBlocked
	snap.Jobs.ValidationErrors = c.validationErrors

	snap.Durations = make(map[string]int64, len(durationBuckets))
	for i, label := range durationBuckets {
		snap.Durations[label] = c.durations[i]
	}
	if c.observation > 0 {
		snap.AvgDurationMS = c.totalTime.Milliseconds() / c.observation
	}
	snap.UptimeSeconds = int64(time.Since(c.startedAt).Seconds())
	c.mu.Unlock()

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	snap.MemoryAllocMB = float64(mem.Alloc) / (1024 * 1024)
	snap.NumGoroutine = runtime.NumGoroutine()
	snap.GCPauseTotalMS = float64(mem.PauseTotalNs) / 1e6

	return snap
}
