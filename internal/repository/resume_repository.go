package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ardiansyah/talent-match/internal/model"
)

type ResumeRepositoryInterface interface {
	Create(ctx context.Context, resume *model.Resume) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Resume, error)
	Update(ctx context.Context, id uuid.UUID, fields map[string]any, now time.Time) (*model.Resume, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, q ListResumesQuery) ([]model.Resume, int64, error)
}

// ListResumesQuery carries the user-facing list filters.
type ListResumesQuery struct {
	Skill string
	Page  int
	Limit int
}

type ResumeRepository struct {
	db *gorm.DB
}

func NewResumeRepository(db *gorm.DB) *ResumeRepository {
	return &ResumeRepository{db}
}

func (r *ResumeRepository) Create(ctx context.Context, resume *model.Resume) error {
	return r.db.WithContext(ctx).Create(resume).Error
}

func (r *ResumeRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Resume, error) {
	var resume model.Resume
	err := r.db.WithContext(ctx).First(&resume, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &resume, nil
}

// Update applies the given column map and returns the updated row.
// RowsAffected zero means the resume does not exist. The caller's map is
// left untouched.
func (r *ResumeRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]any, now time.Time) (*model.Resume, error) {
	columns := make(map[string]any, len(fields)+1)
	for name, value := range fields {
		columns[name] = value
	}
	columns["updated_at"] = now
	res := r.db.WithContext(ctx).Model(&model.Resume{}).Where("id = ?", id).Updates(columns)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *ResumeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&model.Resume{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ResumeRepository) List(ctx context.Context, q ListResumesQuery) ([]model.Resume, int64, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 20
	}

	tx := r.db.WithContext(ctx).Model(&model.Resume{})
	if q.Skill != "" {
		// jsonb containment on the skills array
		filter, err := json.Marshal([]map[string]string{{"name": q.Skill}})
		if err == nil {
			tx = tx.Where(`skills @> ?`, string(filter))
		}
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var resumes []model.Resume
	err := tx.Order("created_at DESC").
		Offset((q.Page - 1) * q.Limit).
		Limit(q.Limit).
		Find(&resumes).Error
	return resumes, total, err
}
