package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ResumeJobComparison caches the match analysis between one resume and one
// job posting. Unlike embeddings and scores there is no placeholder phase:
// rows are written only by workers and deleted outright on invalidation.
type ResumeJobComparison struct {
	ID                    uuid.UUID                   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ResumeID              uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex:idx_resume_job_posting" json:"resume_id"`
	JobPostingID          uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex:idx_resume_job_posting" json:"job_posting_id"`
	SkillSimilarity       float64                     `json:"skill_similarity"`
	ExperienceSimilarity  float64                     `json:"experience_similarity"`
	RequirementSimilarity float64                     `json:"requirement_similarity"`
	TotalScore            float64                     `json:"total_score"`
	MatchedSkills         datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"matched_skills"`
	MissingSkills         datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"missing_skills"`
	Strengths             datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"strengths"`
	Improvements          datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"improvements"`
	GeneratedAt           time.Time                   `gorm:"index" json:"generated_at"`
	CreatedAt             time.Time                   `json:"created_at"`
	UpdatedAt             time.Time                   `json:"updated_at"`
}

func (c *ResumeJobComparison) TableName() string {
	return "resume_job_comparisons"
}

func (c *ResumeJobComparison) Placeholder() bool {
	return c.GeneratedAt.IsZero()
}

func (c *ResumeJobComparison) GeneratedTime() time.Time {
	return c.GeneratedAt
}
