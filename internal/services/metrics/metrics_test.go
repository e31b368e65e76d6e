package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCollector_Counters(t *testing.T) {
	c := NewCollector()
	c.IncStarted()
	c.IncStarted()
	c.IncSucceeded()
	c.IncFailed()
	c.IncCached()
	c.IncSSRFBlocked()
	c.IncValidationErrors()

	snap := c.Snapshot()
	assert.Equal(t, int64(2), snap.Jobs.Started)
	assert.Equal(t, int64(1), snap.Jobs.Succeeded)
	assert.Equal(t, int64(1), snap.Jobs.Failed)
	assert.Equal(t, int64(1), snap.Jobs.Cached)
	assert.Equal(t, int64(1), snap.Jobs.SSRFBlocked)
	assert.Equal(t, int64(1), snap.Jobs.ValidationErrors)
}

func TestCollector_DurationBuckets(t *testing.T) {
	c := NewCollector()
	c.ObserveJobDuration(3 * time.Second)
	c.ObserveJobDuration(12 * time.Second)
	c.ObserveJobDuration(45 * time.Second)
	c.ObserveJobDuration(75 * time.Second)
	c.ObserveJobDuration(120 * time.Second)
	c.ObserveJobDuration(8 * time.Second)

	snap := c.Snapshot()
	assert.Equal(t, int64(2), snap.Durations["<10s"])
	assert.Equal(t, int64(1), snap.Durations["<30s"])
	assert.Equal(t, int64(1), snap.Durations["<60s"])
	assert.Equal(t, int64(1), snap.Durations["<90s"])
	assert.Equal(t, int64(1), snap.Durations[">=90s"])
}

func TestCollector_BoundaryDurations(t *testing.T) {
	assert.Equal(t, 1, bucketIndex(10*time.Second))
	assert.Equal(t, 2, bucketIndex(30*time.Second))
	assert.Equal(t, 3, bucketIndex(60*time.Second))
	assert.Equal(t, 4, bucketIndex(90*time.Second))
}
