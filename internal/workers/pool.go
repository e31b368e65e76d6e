// Package workers runs the scan worker pool over the work queue.
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/vigil/internal/interfaces"
	"github.com/ternarybob/vigil/internal/models"
	"github.com/ternarybob/vigil/internal/services/metrics"
)

const idlePollInterval = 500 * time.Millisecond

// drainTimeout bounds how long Stop waits for in-flight scans before
// aborting them. Sized above the worst-case single crawl plus analysis.
const drainTimeout = 4 * time.Minute

// Crawler drives the headless browser over one target URL
type Crawler interface {
	Crawl(ctx context.Context, targetURL string) (*models.CrawlRecord, error)
}

// Analyzer turns a crawl record into the full analysis report
type Analyzer interface {
	Analyze(ctx context.Context, record *models.CrawlRecord) (*models.AnalysisReport, error)
}

// Pool runs N concurrent scan workers against the queue
type Pool struct {
	queue              interfaces.QueueManager
	storage            interfaces.JobStorage
	crawler            Crawler
	analyzer           Analyzer
	collector          *metrics.Collector
	concurrency        int
	leaseRenewInterval time.Duration
	logger             arbor.ILogger

	stopping  chan struct{}
	stopOnce  sync.Once
	jobCtx    context.Context
	jobCancel context.CancelFunc
	wg        sync.WaitGroup
}

// NewPool creates the worker pool
func NewPool(queue interfaces.QueueManager, storage interfaces.JobStorage, crawler Crawler, analyzer Analyzer, collector *metrics.Collector, concurrency int, leaseRenewInterval time.Duration, logger arbor.ILogger) *Pool {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Pool{
		queue:              queue,
		storage:            storage,
		crawler:            crawler,
		analyzer:           analyzer,
		collector:          collector,
		concurrency:        concurrency,
		leaseRenewInterval: leaseRenewInterval,
		logger:             logger,
	}
}

// Start launches the workers. Jobs run on a context detached from the
// dequeue loop, so a shutdown signal stops new pickups without aborting a
// crawl that is already in flight.
func (p *Pool) Start(ctx context.Context) {
	p.stopping = make(chan struct{})
	p.jobCtx, p.jobCancel = context.WithCancel(context.Background())
	for i := 0; i < p.concurrency; i++ {
		p.wg.Add(1)
		go p.runWorker(ctx, i)
	}
	p.logger.Info().Int("concurrency", p.concurrency).Msg("Worker pool started")
}

// Stop drains the pool. Workers stop picking up new jobs immediately;
// in-flight jobs get drainTimeout to settle before their contexts are
// cancelled.
func (p *Pool) Stop() {
	if p.stopping == nil {
		return
	}
	p.stopOnce.Do(func() { close(p.stopping) })

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(drainTimeout):
		p.logger.Warn().Msg("Drain timeout reached, aborting in-flight scans")
		p.jobCancel()
		<-done
	}

	p.jobCancel()
	p.logger.Info().Msg("Worker pool stopped")
}

func (p *Pool) runWorker(ctx context.Context, id int) {
	defer p.wg.Done()
	logger := p.logger

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopping:
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn().Int("worker", id).Err(err).Msg("Dequeue failed")
			p.sleep(ctx, idlePollInterval)
			continue
		}
		if job == nil {
			p.sleep(ctx, idlePollInterval)
			continue
		}

		p.process(p.jobCtx, id, job)
	}
}

func (p *Pool) sleep(ctx context.Context, d time.Duration) {
	select {
	case <-ctx.Done():
	case <-p.stopping:
	case <-time.After(d):
	}
}
