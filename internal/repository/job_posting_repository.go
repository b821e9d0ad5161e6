package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"

	"github.com/ardiansyah/talent-match/internal/model"
)

type JobPostingRepositoryInterface interface {
	Create(ctx context.Context, posting *model.JobPosting) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.JobPosting, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]any, now time.Time) (*model.JobPosting, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, page, limit int) ([]model.JobPosting, int64, error)
	MatchByVector(ctx context.Context, embedding pgvector.Vector, topK int) ([]JobPostingMatch, error)
}

// JobPostingMatch is a posting plus its vector distance to the query
// embedding, smaller is closer.
type JobPostingMatch struct {
	model.JobPosting
	Distance float64 `json:"distance"`
}

type JobPostingRepository struct {
	db *gorm.DB
}

func NewJobPostingRepository(db *gorm.DB) *JobPostingRepository {
	return &JobPostingRepository{db}
}

func (r *JobPostingRepository) Create(ctx context.Context, posting *model.JobPosting) error {
	return r.db.WithContext(ctx).Create(posting).Error
}

func (r *JobPostingRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.JobPosting, error) {
	var posting model.JobPosting
	err := r.db.WithContext(ctx).First(&posting, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &posting, nil
}

func (r *JobPostingRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]any, now time.Time) (*model.JobPosting, error) {
	columns := make(map[string]any, len(fields)+1)
	for name, value := range fields {
		columns[name] = value
	}
	columns["updated_at"] = now
	res := r.db.WithContext(ctx).Model(&model.JobPosting{}).Where("id = ?", id).Updates(columns)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *JobPostingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.JobPosting{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *JobPostingRepository) List(ctx context.Context, page, limit int) ([]model.JobPosting, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&model.JobPosting{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var postings []model.JobPosting
	err := r.db.WithContext(ctx).Order("created_at DESC").
		Offset((page - 1) * limit).
		Limit(limit).
		Find(&postings).Error
	return postings, total, err
}

// MatchByVector returns the postings closest to the given embedding using
// the pgvector distance operator on the cached posting embeddings.
func (r *JobPostingRepository) MatchByVector(ctx context.Context, embedding pgvector.Vector, topK int) ([]JobPostingMatch, error) {
	if topK < 1 {
		topK = 5
	}

	var matches []JobPostingMatch
	err := r.db.WithContext(ctx).Raw(`
        SELECT p.*, e.description_mean <-> ? AS distance
        FROM job_postings p
        JOIN job_posting_embeddings e ON e.job_posting_id = p.id
        WHERE e.description_mean IS NOT NULL
        ORDER BY e.description_mean <-> ?
        LIMIT ?
    `, embedding, embedding, topK).Scan(&matches).Error

	return matches, err
}
