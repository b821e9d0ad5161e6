package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ardiansyah/talent-match/internal/model"
)

// RetentionPolicy bounds how long finished jobs stay around for status
// lookups and diagnosis.
type RetentionPolicy struct {
	CompletedAge time.Duration
	CompletedMax int
	FailedAge    time.Duration
}

// Store is the queue's persistence contract. GormStore backs it with
// Postgres; MemStore is an in-memory implementation for tests and local
// development.
type Store interface {
	Create(ctx context.Context, job *model.QueueJob) error
	// ClaimNext atomically moves the oldest runnable queued job of one of
	// the given kinds to active and returns it. (nil, nil) when nothing
	// is runnable. Each job is handed to exactly one caller.
	ClaimNext(ctx context.Context, kinds []string, now time.Time) (*model.QueueJob, error)
	Get(ctx context.Context, id uuid.UUID) (*model.QueueJob, error)
	SetProgress(ctx context.Context, id uuid.UUID, progress int) error
	MarkCompleted(ctx context.Context, id uuid.UUID, result []byte, now time.Time) error
	MarkRetry(ctx context.Context, id uuid.UUID, attempts int, runAt time.Time, lastError string) error
	MarkFailed(ctx context.Context, id uuid.UUID, attempts int, lastError string, now time.Time) error
	// RequeueStalled returns active jobs claimed before cutoff to the
	// queued state so another worker picks them up. Covers workers that
	// died mid-job without writing an outcome.
	RequeueStalled(ctx context.Context, cutoff time.Time, now time.Time) (int64, error)
	Prune(ctx context.Context, now time.Time, policy RetentionPolicy) (int64, error)
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Create(ctx context.Context, job *model.QueueJob) error {
	return s.db.WithContext(ctx).Create(job).Error
}

func (s *GormStore) ClaimNext(ctx context.Context, kinds []string, now time.Time) (*model.QueueJob, error) {
	var job model.QueueJob
	err := s.db.WithContext(ctx).Raw(`
        UPDATE queue_jobs
        SET status = ?, started_at = ?, updated_at = ?
        WHERE id = (
            SELECT id FROM queue_jobs
            WHERE status = ? AND kind IN ? AND run_at <= ?
            ORDER BY priority ASC, created_at ASC
            LIMIT 1
            FOR UPDATE SKIP LOCKED
        )
        RETURNING *
    `, model.JobStatusActive, now, now, model.JobStatusQueued, kinds, now).Scan(&job).Error
	if err != nil {
		return nil, err
	}
	if job.ID == uuid.Nil {
		return nil, nil
	}
	return &job, nil
}

func (s *GormStore) Get(ctx context.Context, id uuid.UUID) (*model.QueueJob, error) {
	var job model.QueueJob
	err := s.db.WithContext(ctx).First(&job, "id = ?", id).Error
	if err == gorm.ErrRecordNotFound {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (s *GormStore) SetProgress(ctx context.Context, id uuid.UUID, progress int) error {
	return s.db.WithContext(ctx).Model(&model.QueueJob{}).
		Where("id = ?", id).
		Update("progress", progress).Error
}

func (s *GormStore) MarkCompleted(ctx context.Context, id uuid.UUID, result []byte, now time.Time) error {
	return s.db.WithContext(ctx).Model(&model.QueueJob{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":      model.JobStatusCompleted,
			"progress":    100,
			"result":      result,
			"finished_at": now,
			"updated_at":  now,
		}).Error
}

func (s *GormStore) MarkRetry(ctx context.Context, id uuid.UUID, attempts int, runAt time.Time, lastError string) error {
	return s.db.WithContext(ctx).Model(&model.QueueJob{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     model.JobStatusQueued,
			"attempts":   attempts,
			"run_at":     runAt,
			"last_error": lastError,
		}).Error
}

func (s *GormStore) MarkFailed(ctx context.Context, id uuid.UUID, attempts int, lastError string, now time.Time) error {
	return s.db.WithContext(ctx).Model(&model.QueueJob{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":      model.JobStatusFailed,
			"attempts":    attempts,
			"last_error":  lastError,
			"finished_at": now,
			"updated_at":  now,
		}).Error
}

func (s *GormStore) RequeueStalled(ctx context.Context, cutoff, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&model.QueueJob{}).
		Where("status = ? AND started_at < ?", model.JobStatusActive, cutoff).
		Updates(map[string]any{
			"status":     model.JobStatusQueued,
			"started_at": nil,
			"run_at":     now,
			"updated_at": now,
		})
	return res.RowsAffected, res.Error
}

func (s *GormStore) Prune(ctx context.Context, now time.Time, policy RetentionPolicy) (int64, error) {
	var total int64

	res := s.db.WithContext(ctx).Delete(&model.QueueJob{},
		"status = ? AND finished_at < ?", model.JobStatusCompleted, now.Add(-policy.CompletedAge))
	if res.Error != nil {
		return total, res.Error
	}
	total += res.RowsAffected

	res = s.db.WithContext(ctx).Delete(&model.QueueJob{},
		"status = ? AND finished_at < ?", model.JobStatusFailed, now.Add(-policy.FailedAge))
	if res.Error != nil {
		return total, res.Error
	}
	total += res.RowsAffected

	if policy.CompletedMax > 0 {
		res = s.db.WithContext(ctx).Exec(`
            DELETE FROM queue_jobs
            WHERE status = ? AND id NOT IN (
                SELECT id FROM queue_jobs
                WHERE status = ?
                ORDER BY finished_at DESC
                LIMIT ?
            )
        `, model.JobStatusCompleted, model.JobStatusCompleted, policy.CompletedMax)
		if res.Error != nil {
			return total, res.Error
		}
		total += res.RowsAffected
	}

	return total, nil
}
