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

type ResumeScoreRepositoryInterface interface {
	Get(ctx context.Context, resumeID uuid.UUID) (*model.ResumeScore, error)
	Upsert(ctx context.Context, score *model.ResumeScore) error
	ResetToEmpty(ctx context.Context, resumeID uuid.UUID, now time.Time) error
	Delete(ctx context.Context, resumeID uuid.UUID) error
	DeleteGeneratedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type ResumeScoreRepository struct {
	db *gorm.DB
}

func NewResumeScoreRepository(db *gorm.DB) *ResumeScoreRepository {
	return &ResumeScoreRepository{db}
}

func (r *ResumeScoreRepository) Get(ctx context.Context, resumeID uuid.UUID) (*model.ResumeScore, error) {
	var score model.ResumeScore
	err := r.db.WithContext(ctx).First(&score, "resume_id = ?", resumeID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &score, nil
}

func (r *ResumeScoreRepository) Upsert(ctx context.Context, score *model.ResumeScore) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "resume_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"completeness_score", "experience_score", "skills_score",
			"certification_score", "total_score", "grade", "overall_message",
			"estimated_experience_years", "strengths", "improvements",
			"recommendations", "generated_at", "updated_at",
		}),
	}).Create(score).Error
}

func (r *ResumeScoreRepository) ResetToEmpty(ctx context.Context, resumeID uuid.UUID, now time.Time) error {
	empty := &model.ResumeScore{
		ResumeID:    resumeID,
		GeneratedAt: now,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "resume_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"completeness_score":         0,
			"experience_score":           0,
			"skills_score":               0,
			"certification_score":        0,
			"total_score":                0,
			"grade":                      "",
			"overall_message":            "",
			"estimated_experience_years": 0,
			"strengths":                  nil,
			"improvements":               nil,
			"recommendations":            nil,
			"generated_at":               now,
			"updated_at":                 now,
		}),
	}).Create(empty).Error
}

func (r *ResumeScoreRepository) Delete(ctx context.Context, resumeID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&model.ResumeScore{}, "resume_id = ?", resumeID).Error
}

func (r *ResumeScoreRepository) DeleteGeneratedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&model.ResumeScore{}, "generated_at < ?", cutoff)
	return res.RowsAffected, res.Error
}
