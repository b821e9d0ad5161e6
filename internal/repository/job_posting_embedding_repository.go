package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/ardiansyah/talent-match/internal/model"
)

type JobPostingEmbeddingRepositoryInterface interface {
	Get(ctx context.Context, jobPostingID uuid.UUID) (*model.JobPostingEmbedding, error)
	Upsert(ctx context.Context, embedding *model.JobPostingEmbedding) error
	ResetToEmpty(ctx context.Context, jobPostingID uuid.UUID, now time.Time) error
	Delete(ctx context.Context, jobPostingID uuid.UUID) error
	DeleteGeneratedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type JobPostingEmbeddingRepository struct {
	db *gorm.DB
}

func NewJobPostingEmbeddingRepository(db *gorm.DB) *JobPostingEmbeddingRepository {
	return &JobPostingEmbeddingRepository{db}
}

func (r *JobPostingEmbeddingRepository) Get(ctx context.Context, jobPostingID uuid.UUID) (*model.JobPostingEmbedding, error) {
	var embedding model.JobPostingEmbedding
	err := r.db.WithContext(ctx).First(&embedding, "job_posting_id = ?", jobPostingID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &embedding, nil
}

func (r *JobPostingEmbeddingRepository) Upsert(ctx context.Context, embedding *model.JobPostingEmbedding) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "job_posting_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"description_mean", "requirements_mean", "skills_mean",
			"model_name", "model_version", "generated_at", "updated_at",
		}),
	}).Create(embedding).Error
}

func (r *JobPostingEmbeddingRepository) ResetToEmpty(ctx context.Context, jobPostingID uuid.UUID, now time.Time) error {
	empty := &model.JobPostingEmbedding{
		JobPostingID: jobPostingID,
		GeneratedAt:  now,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "job_posting_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"description_mean":  nil,
			"requirements_mean": nil,
			"skills_mean":       nil,
			"model_name":        "",
			"model_version":     "",
			"generated_at":      now,
			"updated_at":        now,
		}),
	}).Create(empty).Error
}

func (r *JobPostingEmbeddingRepository) Delete(ctx context.Context, jobPostingID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.JobPostingEmbedding{}, "job_posting_id = ?", jobPostingID).Error
}

func (r *JobPostingEmbeddingRepository) DeleteGeneratedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&model.JobPostingEmbedding{}, "generated_at < ?", cutoff)
	return res.RowsAffected, res.Error
}
