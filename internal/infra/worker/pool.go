// File: internal/infra/worker/pool.go
package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"iptv-subscription-platform/internal/domain"
	"iptv-subscription-platform/internal/infra/metrics"
)

// Job is a unit of background work. Retryable failures (transport errors
// during provisioning) are requeued with exponential backoff up to
// maxAttempts; everything else fails once and is dropped.
type Job struct {
	Kind    string
	Run     func(ctx context.Context) error
	attempt int
}

type Pool struct {
	wg          sync.WaitGroup
	jobs        chan *Job
	quit        chan struct{}
	n           int
	maxAttempts int
	retryDelay  time.Duration
	log         *zerolog.Logger
}

func NewPool(workers, queueSize, maxAttempts int, retryDelay time.Duration, logger *zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = 4
	}
	if queueSize <= 0 {
		queueSize = workers * 4
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	if retryDelay <= 0 {
		retryDelay = 30 * time.Second
	}
	return &Pool{
		jobs:        make(chan *Job, queueSize),
		quit:        make(chan struct{}),
		n:           workers,
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
		log:         logger,
	}
}

func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.n; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case <-p.quit:
					return
				case job := <-p.jobs:
					if job == nil {
						continue
					}
					p.runJob(ctx, id, job)
					metrics.SetJobQueueDepth(len(p.jobs))
				}
			}
		}(i)
	}
}

func (p *Pool) runJob(ctx context.Context, workerID int, job *Job) {
	job.attempt++
	err := job.Run(ctx)
	if err == nil {
		metrics.IncJob(job.Kind, "completed")
		return
	}

	if domain.IsRetryable(err) && job.attempt < p.maxAttempts {
		// Exponential backoff: retryDelay, 2x, 4x ...
		delay := p.retryDelay << (job.attempt - 1)
		metrics.IncJob(job.Kind, "retried")
		p.log.Warn().Err(err).
			Int("worker", workerID).
			Str("kind", job.Kind).
			Int("attempt", job.attempt).
			Dur("retry_in", delay).
			Msg("job failed, scheduling retry")

		time.AfterFunc(delay, func() {
			select {
			case p.jobs <- job:
			default:
				metrics.IncJob(job.Kind, "failed")
				p.log.Error().Str("kind", job.Kind).Msg("retry dropped, queue full")
			}
		})
		return
	}

	metrics.IncJob(job.Kind, "failed")
	p.log.Error().Err(err).
		Int("worker", workerID).
		Str("kind", job.Kind).
		Int("attempt", job.attempt).
		Msg("job failed")
}

func (p *Pool) Stop() {
	close(p.quit)
	p.wg.Wait()
}

func (p *Pool) Submit(kind string, run func(ctx context.Context) error) error {
	if run == nil {
		return errors.New("nil task")
	}
	job := &Job{Kind: kind, Run: run}
	select {
	case p.jobs <- job:
		metrics.SetJobQueueDepth(len(p.jobs))
		return nil
	default:
		// drop when saturated to avoid back-pressure in v1
		return errors.New("worker queue full")
	}
}
