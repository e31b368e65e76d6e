package retention

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/interfaces"
)

type pruneRecorder struct {
	interfaces.JobStorage

	mu      sync.Mutex
	cutoffs []time.Time
}

func (r *pruneRecorder) PruneJobs(ctx context.Context, olderThan time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cutoffs = append(r.cutoffs, olderThan)
	return 3, nil
}

func (r *pruneRecorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cutoffs)
}

func TestStart_RejectsBadSchedule(t *testing.T) {
	svc := NewService(&pruneRecorder{}, 30*24*time.Hour, common.GetLogger())
	assert.Error(t, svc.Start("not a cron expression"))
}

func TestStart_DisabledWithoutMaxAge(t *testing.T) {
	storage := &pruneRecorder{}
	svc := NewService(storage, 0, common.GetLogger())
	require.NoError(t, svc.Start("@every 1ms"))

	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, storage.count())
}

func TestPrune_UsesMaxAgeCutoff(t *testing.T) {
	storage := &pruneRecorder{}
	svc := NewService(storage, 30*24*time.Hour, common.GetLogger())

	svc.prune()
	require.Equal(t, 1, storage.count())
	assert.WithinDuration(t, time.Now().Add(-30*24*time.Hour), storage.cutoffs[0], time.Minute)
}

func TestSchedule_Fires(t *testing.T) {
	storage := &pruneRecorder{}
	svc := NewService(storage, time.Hour, common.GetLogger())
	require.NoError(t, svc.Start("@every 100ms"))
	defer svc.Stop()

	assert.Eventually(t, func() bool { return storage.count() >= 1 }, 2*time.Second, 20*time.Millisecond)
}
