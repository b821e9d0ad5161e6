package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// JobPostingEmbedding caches the vector representation of a job posting.
// DescriptionMean doubles as the similarity-search column for matching
// resumes against postings.
type JobPostingEmbedding struct {
	ID               uuid.UUID        `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	JobPostingID     uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex" json:"job_posting_id"`
	DescriptionMean  *pgvector.Vector `gorm:"type:vector(768)" json:"description_mean"`
	RequirementsMean *pgvector.Vector `gorm:"type:vector(768)" json:"requirements_mean"`
	SkillsMean       *pgvector.Vector `gorm:"type:vector(768)" json:"skills_mean"`
	ModelName        string           `gorm:"type:varchar(100)" json:"model_name"`
	ModelVersion     string           `gorm:"type:varchar(20)" json:"model_version"`
	GeneratedAt      time.Time        `gorm:"index" json:"generated_at"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

func (e *JobPostingEmbedding) TableName() string {
	return "job_posting_embeddings"
}

func (e *JobPostingEmbedding) Placeholder() bool {
	return e.DescriptionMean == nil && e.RequirementsMean == nil && e.SkillsMean == nil
}

func (e *JobPostingEmbedding) GeneratedTime() time.Time {
	return e.GeneratedAt
}
