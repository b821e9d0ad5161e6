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

// ComparisonRepositoryInterface is the pairwise comparison cache, keyed by
// (resume, job posting). Comparisons are deleted on invalidation rather
// than reset: both owning entities can invalidate them, and a placeholder
// row has no value to either.
type ComparisonRepositoryInterface interface {
	Get(ctx context.Context, resumeID, jobPostingID uuid.UUID) (*model.ResumeJobComparison, error)
	Upsert(ctx context.Context, comparison *model.ResumeJobComparison) error
	DeleteByResume(ctx context.Context, resumeID uuid.UUID) (int64, error)
	DeleteByJobPosting(ctx context.Context, jobPostingID uuid.UUID) (int64, error)
	DeleteGeneratedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type ComparisonRepository struct {
	db *gorm.DB
}

func NewComparisonRepository(db *gorm.DB) *ComparisonRepository {
	return &ComparisonRepository{db}
}

func (r *ComparisonRepository) Get(ctx context.Context, resumeID, jobPostingID uuid.UUID) (*model.ResumeJobComparison, error) {
	var comparison model.ResumeJobComparison
	err := r.db.WithContext(ctx).
		First(&comparison, "resume_id = ? AND job_posting_id = ?", resumeID, jobPostingID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &comparison, nil
}

func (r *ComparisonRepository) Upsert(ctx context.Context, comparison *model.ResumeJobComparison) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "resume_id"}, {Name: "job_posting_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"skill_similarity", "experience_similarity", "requirement_similarity",
			"total_score", "matched_skills", "missing_skills",
			"strengths", "improvements", "generated_at", "updated_at",
		}),
	}).Create(comparison).Error
}

func (r *ComparisonRepository) DeleteByResume(ctx context.Context, resumeID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&model.ResumeJobComparison{}, "resume_id = ?", resumeID)
	return res.RowsAffected, res.Error
}

func (r *ComparisonRepository) DeleteByJobPosting(ctx context.Context, jobPostingID uuid.UUID) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&model.ResumeJobComparison{}, "job_posting_id = ?", jobPostingID)
	return res.RowsAffected, res.Error
}

func (r *ComparisonRepository) DeleteGeneratedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&model.ResumeJobComparison{}, "generated_at < ?", cutoff)
	return res.RowsAffected, res.Error
}
