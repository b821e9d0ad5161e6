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

// ResumeEmbeddingRepositoryInterface is the derived-cache store for resume
// embeddings. Get returns (nil, nil) on a miss; a miss is a normal branch.
// Upsert and ResetToEmpty rely on the unique index on resume_id, so the
// at-most-one-row-per-resume invariant holds under concurrent writers.
type ResumeEmbeddingRepositoryInterface interface {
	Get(ctx context.Context, resumeID uuid.UUID) (*model.ResumeEmbedding, error)
	Upsert(ctx context.Context, embedding *model.ResumeEmbedding) error
	ResetToEmpty(ctx context.Context, resumeID uuid.UUID, now time.Time) error
	Delete(ctx context.Context, resumeID uuid.UUID) error
	DeleteGeneratedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type ResumeEmbeddingRepository struct {
	db *gorm.DB
}

func NewResumeEmbeddingRepository(db *gorm.DB) *ResumeEmbeddingRepository {
	return &ResumeEmbeddingRepository{db}
}

func (r *ResumeEmbeddingRepository) Get(ctx context.Context, resumeID uuid.UUID) (*model.ResumeEmbedding, error) {
	var embedding model.ResumeEmbedding
	err := r.db.WithContext(ctx).First(&embedding, "resume_id = ?", resumeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &embedding, nil
}

func (r *ResumeEmbeddingRepository) Upsert(ctx context.Context, embedding *model.ResumeEmbedding) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "resume_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"skills_mean", "work_experience_mean", "certifications_mean",
			"total_experience_years", "model_name", "model_version",
			"generated_at", "updated_at",
		}),
	}).Create(embedding).Error
}

// ResetToEmpty nulls the payload and bumps generated_at, creating the row
// if it does not exist. The row survives so worker upserts stay simple.
func (r *ResumeEmbeddingRepository) ResetToEmpty(ctx context.Context, resumeID uuid.UUID, now time.Time) error {
	empty := &model.ResumeEmbedding{
		ResumeID:    resumeID,
		GeneratedAt: now,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "resume_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"skills_mean":            nil,
			"work_experience_mean":   nil,
			"certifications_mean":    nil,
			"total_experience_years": 0,
			"model_name":             "",
			"model_version":          "",
			"generated_at":           now,
			"updated_at":             now,
		}),
	}).Create(empty).Error
}

func (r *ResumeEmbeddingRepository) Delete(ctx context.Context, resumeID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.ResumeEmbedding{}, "resume_id = ?", resumeID).Error
}

func (r *ResumeEmbeddingRepository) DeleteGeneratedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&model.ResumeEmbedding{}, "generated_at < ?", cutoff)
	return res.RowsAffected, res.Error
}
