package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/sirupsen/logrus"

	"github.com/ardiansyah/talent-match/internal/config"
	"github.com/ardiansyah/talent-match/internal/model"
)

// Handler processes one claimed job. The returned value is stored as the
// job's result payload. A plain error triggers retry with backoff; an error
// wrapped with Permanent fails the job immediately.
type Handler func(ctx context.Context, job *ActiveJob) (any, error)

// ActiveJob is a claimed job plus the hooks a handler may use while
// running, currently progress reporting.
type ActiveJob struct {
	Job   *model.QueueJob
	store Store
	log   *logrus.Entry
}

// NewActiveJob wraps a claimed job for direct handler invocation outside a
// pool.
func NewActiveJob(job *model.QueueJob, store Store) *ActiveJob {
	return &ActiveJob{
		Job:   job,
		store: store,
		log:   logrus.WithField("job_id", job.ID),
	}
}

// Progress records the job's progress percentage. Best effort: a progress
// write failure must not fail the job itself.
func (a *ActiveJob) Progress(ctx context.Context, pct int) {
	if err := a.store.SetProgress(ctx, a.Job.ID, pct); err != nil {
		a.log.WithError(err).Warn("progress update failed")
	}
}

// Pool runs N workers over the kinds it serves. Each kind gets its own pool
// so a backlog of one kind cannot starve another.
type Pool struct {
	kinds        []string
	cfg          config.KindConfig
	pollInterval time.Duration
	store        Store
	handler      Handler
	clock        clock.Clock
	log          *logrus.Entry

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewPool(kinds []string, cfg config.KindConfig, pollInterval time.Duration, store Store, handler Handler, clk clock.Clock) *Pool {
	if clk == nil {
		clk = clock.New()
	}
	return &Pool{
		kinds:        kinds,
		cfg:          cfg,
		pollInterval: pollInterval,
		store:        store,
		handler:      handler,
		clock:        clk,
		log:          logrus.WithField("component", "worker").WithField("kinds", kinds),
	}
}

// Start launches the worker goroutines. Stop waits for in-flight jobs.
func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)

	for i := 0; i < p.cfg.Concurrency; i++ {
		p.wg.Add(1)
		go p.loop(ctx, i)
	}

	p.log.WithField("concurrency", p.cfg.Concurrency).Info("worker pool started")
}

func (p *Pool) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
	p.log.Info("worker pool stopped")
}

// RunOne processes a single already-claimed job synchronously, outside the
// polling loop.
func (p *Pool) RunOne(ctx context.Context, job *model.QueueJob) {
	p.process(ctx, job)
}

func (p *Pool) loop(ctx context.Context, worker int) {
	defer p.wg.Done()

	log := p.log.WithField("worker", worker)
	for {
		if ctx.Err() != nil {
			return
		}

		job, err := p.store.ClaimNext(ctx, p.kinds, p.clock.Now())
		if err != nil {
			log.WithError(err).Error("claim failed")
		}
		if job != nil {
			p.process(ctx, job)
			// Drain: look for the next job immediately.
			continue
		}

		timer := p.clock.Timer(p.pollInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}
}

func (p *Pool) process(ctx context.Context, job *model.QueueJob) {
	log := p.log.WithFields(logrus.Fields{
		"job_id":   job.ID,
		"kind":     job.Kind,
		"owner_id": job.OwnerID,
		"attempt":  job.Attempts + 1,
	})
	log.Info("processing job")

	jobCtx := ctx
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		jobCtx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	result, err := p.handler(jobCtx, &ActiveJob{Job: job, store: p.store, log: log})
	attempts := job.Attempts + 1
	now := p.clock.Now()

	// The outcome write must land even when the pool is shutting down;
	// a canceled context here would strand the job in active.
	writeCtx := context.WithoutCancel(ctx)

	if err == nil {
		payload, merr := json.Marshal(result)
		if merr != nil {
			err = Permanent(fmt.Errorf("marshal result: %w", merr))
		} else {
			if serr := p.store.MarkCompleted(writeCtx, job.ID, payload, now); serr != nil {
				log.WithError(serr).Error("completion write failed")
				return
			}
			log.Info("job completed")
			return
		}
	}

	if IsPermanent(err) || attempts >= job.MaxAttempts {
		if serr := p.store.MarkFailed(writeCtx, job.ID, attempts, err.Error(), now); serr != nil {
			log.WithError(serr).Error("failure write failed")
			return
		}
		log.WithError(err).Error("job failed terminally")
		return
	}

	delay := Backoff(p.cfg.BackoffBase, attempts)
	if serr := p.store.MarkRetry(writeCtx, job.ID, attempts, now.Add(delay), err.Error()); serr != nil {
		log.WithError(serr).Error("retry write failed")
		return
	}
	log.WithError(err).WithField("retry_in", delay).Warn("job failed, retrying")
}
