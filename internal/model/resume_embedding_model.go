package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
)

// ResumeEmbedding caches the vector representation of a resume so AI
// operations do not have to recompute it on every request.
//
// Rows are created empty when the resume is created and populated by a
// background worker. An invalidating resume update resets the vectors to
// NULL instead of deleting the row, so worker upserts stay simple.
type ResumeEmbedding struct {
	ID                   uuid.UUID        `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ResumeID             uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex" json:"resume_id"`
	SkillsMean           *pgvector.Vector `gorm:"type:vector(768)" json:"skills_mean"`
	WorkExperienceMean   *pgvector.Vector `gorm:"type:vector(768)" json:"work_experience_mean"`
	CertificationsMean   *pgvector.Vector `gorm:"type:vector(768)" json:"certifications_mean"`
	TotalExperienceYears float64          `json:"total_experience_years"`
	ModelName            string           `gorm:"type:varchar(100)" json:"model_name"`
	ModelVersion         string           `gorm:"type:varchar(20)" json:"model_version"`
	GeneratedAt          time.Time        `gorm:"index" json:"generated_at"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
}

func (e *ResumeEmbedding) TableName() string {
	return "resume_embeddings"
}

// Placeholder reports whether the row is an empty slot waiting for a
// background worker, as opposed to a populated embedding.
func (e *ResumeEmbedding) Placeholder() bool {
	return e.SkillsMean == nil && e.WorkExperienceMean == nil && e.CertificationsMean == nil
}

func (e *ResumeEmbedding) GeneratedTime() time.Time {
	return e.GeneratedAt
}
