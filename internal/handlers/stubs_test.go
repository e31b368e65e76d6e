package handlers

import (
	"context"
	"net"
	"time"

	"github.com/google/uuid"

	"github.com/ternarybob/vigil/internal/common"
	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/models"
	"github.com/ternarybob/vigil/internal/services/ingress"
	"github.com/ternarybob/vigil/internal/services/metrics"
)

type stubStorage struct {
	interfaces.JobStorage

	jobs      map[string]*models.ScanJob
	results   map[string]*models.ScanResult
	recent    *models.ScanJob
	active    *models.ScanJob
	listJobs  []*models.ScanJob
	listTotal int

	lastFilter models.JobFilter
	deleteErr  error
	pingErr    error
}

func newStubStorage() *stubStorage {
	return &stubStorage{
		jobs:    make(map[string]*models.ScanJob),
		results: make(map[string]*models.ScanResult),
	}
}

func (s *stubStorage) CreateJob(ctx context.Context, targetURL string, userID *string) (*models.ScanJob, error) {
	job := &models.ScanJob{
		ID:        uuid.New().String(),
		TargetURL: targetURL,
		Status:    models.JobStatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	s.jobs[job.ID] = job
	return job, nil
}

func (s *stubStorage) GetJob(ctx context.Context, id string) (*models.ScanJob, error) {
	job, ok := s.jobs[id]
	if !ok {
		return nil, interfaces.ErrJobNotFound
	}
	return job, nil
}

func (s *stubStorage) GetResult(ctx context.Context, jobID string) (*models.ScanResult, error) {
	result, ok := s.results[jobID]
	if !ok {
		return nil, interfaces.ErrJobNotFound
	}
	return result, nil
}

func (s *stubStorage) Transition(ctx context.Context, id string, from, to models.JobStatus, errorMessage *string) error {
	return nil
}

func (s *stubStorage) FindRecentSuccess(ctx context.Context, targetURL string, since time.Time) (*models.ScanJob, error) {
	return s.recent, nil
}

func (s *stubStorage) FindActive(ctx context.Context, targetURL string) (*models.ScanJob, error) {
	return s.active, nil
}

func (s *stubStorage) ListJobs(ctx context.Context, filter models.JobFilter) ([]*models.ScanJob, int, error) {
	s.lastFilter = filter
	return s.listJobs, s.listTotal, nil
}

func (s *stubStorage) DeleteJob(ctx context.Context, id string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	if _, ok := s.jobs[id]; !ok {
		return interfaces.ErrJobNotFound
	}
	delete(s.jobs, id)
	return nil
}

func (s *stubStorage) Ping(ctx context.Context) error { return s.pingErr }

type stubQueue struct {
	interfaces.QueueManager

	enqueued   []models.ScanPayload
	enqueueErr error
	depth      models.QueueDepth
	pingErr    error
}

func (q *stubQueue) Enqueue(ctx context.Context, payload models.ScanPayload, opts interfaces.EnqueueOptions) error {
	if q.enqueueErr != nil {
		return q.enqueueErr
	}
	q.enqueued = append(q.enqueued, payload)
	return nil
}

func (q *stubQueue) Depth(ctx context.Context) (models.QueueDepth, error) {
	return q.depth, nil
}

func (q *stubQueue) Ping(ctx context.Context) error { return q.pingErr }

type stubDedup struct {
	held bool
}

func (d *stubDedup) AcquireInFlight(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return !d.held, nil
}

func (d *stubDedup) ReleaseInFlight(ctx context.Context, key string) error { return nil }

type stubResolver struct {
	ip  net.IP
	err error
}

func (r *stubResolver) Resolve(ctx context.Context, hostname string) (net.IP, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.ip, nil
}

func newTestAdmission(storage *stubStorage, queue *stubQueue, resolver ingress.Resolver) *ingress.Service {
	return ingress.NewService(storage, queue, &stubDedup{}, resolver, metrics.NewCollector(), 10*time.Minute, common.GetLogger())
}
