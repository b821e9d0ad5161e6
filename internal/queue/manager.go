package queue

import (
	"context"
	"fmt"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ardiansyah/talent-match/internal/config"
	"github.com/ardiansyah/talent-match/internal/model"
)

// Manager is the enqueue/status surface of the queue. Dispatchers enqueue
// through it, the job status endpoint reads through it, and it owns the
// retention pruner.
type Manager struct {
	store Store
	cfg   *config.QueueConfig
	clock clock.Clock
	log   *logrus.Entry
}

func NewManager(store Store, cfg *config.QueueConfig, clk clock.Clock) *Manager {
	if clk == nil {
		clk = clock.New()
	}
	return &Manager{
		store: store,
		cfg:   cfg,
		clock: clk,
		log:   logrus.WithField("component", "queue"),
	}
}

// Enqueue creates one queued job of the given kind. The kind's configured
// priority and attempt limit are stamped onto the job at enqueue time.
// secondaryID is set for comparison jobs only (the job posting side of the
// pair).
func (m *Manager) Enqueue(ctx context.Context, kind string, ownerID uuid.UUID, secondaryID *uuid.UUID, invalidateCache bool) (*model.QueueJob, error) {
	kc, ok := m.cfg.Kinds[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}

	now := m.clock.Now()
	job := &model.QueueJob{
		ID:              uuid.New(),
		Kind:            kind,
		Status:          model.JobStatusQueued,
		OwnerID:         ownerID,
		SecondaryID:     secondaryID,
		InvalidateCache: invalidateCache,
		Priority:        kc.Priority,
		MaxAttempts:     kc.MaxAttempts,
		RunAt:           now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := m.store.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("enqueue %s: %w", kind, err)
	}

	m.log.WithFields(logrus.Fields{
		"job_id":           job.ID,
		"kind":             kind,
		"owner_id":         ownerID,
		"invalidate_cache": invalidateCache,
	}).Info("job enqueued")

	return job, nil
}

// Status returns the job row for polling endpoints.
func (m *Manager) Status(ctx context.Context, id uuid.UUID) (*model.QueueJob, error) {
	return m.store.Get(ctx, id)
}

// RunPruner purges finished jobs beyond the retention windows and requeues
// stalled active jobs until the context is canceled.
func (m *Manager) RunPruner(ctx context.Context) {
	policy := RetentionPolicy{
		CompletedAge: m.cfg.CompletedRetention,
		CompletedMax: m.cfg.CompletedMax,
		FailedAge:    m.cfg.FailedRetention,
	}

	ticker := m.clock.Ticker(m.cfg.PruneInterval)
	defer ticker.Stop()
	stalled := m.clock.Ticker(m.cfg.StalledSweepInterval)
	defer stalled.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pruned, err := m.store.Prune(ctx, m.clock.Now(), policy)
			if err != nil {
				m.log.WithError(err).Error("job pruning failed")
				continue
			}
			if pruned > 0 {
				m.log.WithField("pruned", pruned).Info("pruned finished jobs")
			}
		case <-stalled.C:
			now := m.clock.Now()
			requeued, err := m.store.RequeueStalled(ctx, now.Add(-m.cfg.StalledAfter), now)
			if err != nil {
				m.log.WithError(err).Error("stalled job sweep failed")
				continue
			}
			if requeued > 0 {
				m.log.WithField("requeued", requeued).Warn("requeued stalled jobs")
			}
		}
	}
}
