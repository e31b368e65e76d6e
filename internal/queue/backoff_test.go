package queue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff_DoublesFromBase(t *testing.T) {
	base := 5 * time.Second
	assert.Equal(t, 5*time.Second, Backoff(base, 1))
	assert.Equal(t, 10*time.Second, Backoff(base, 2))
	assert.Equal(t, 20*time.Second, Backoff(base, 3))
}

func TestBackoff_ClampsBadAttempt(t *testing.T) {
	base := 5 * time.Second
	assert.Equal(t, base, Backoff(base, 0))
	assert.Equal(t, base, Backoff(base, -3))
}

func TestBackoff_Capped(t *testing.T) {
	assert.Equal(t, maxBackoff, Backoff(5*time.Second, 30))
}

func TestReadyScore_PriorityDominates(t *testing.T) {
	now := time.Now()
	later := now.Add(time.Hour)

	// A lower-priority-class job enqueued later still dequeues first
	assert.Less(t, readyScore(0, later), readyScore(1, now))
	// FIFO within a class
	assert.Less(t, readyScore(1, now), readyScore(1, later))
}
