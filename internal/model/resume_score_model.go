package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// ResumeScore caches AI-calculated quality metrics for a resume: a score
// breakdown, an overall score with letter grade, and textual insights.
//
// Grades: A+ (95-100), A (90-94), B+ (85-89), B (80-84), C+ (75-79),
// C (70-74), D (60-69), F (0-59).
type ResumeScore struct {
	ID                       uuid.UUID                   `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	ResumeID                 uuid.UUID                   `gorm:"type:uuid;not null;uniqueIndex" json:"resume_id"`
	CompletenessScore        float64                     `json:"completeness_score"`
	ExperienceScore          float64                     `json:"experience_score"`
	SkillsScore              float64                     `json:"skills_score"`
	CertificationScore       float64                     `json:"certification_score"`
	TotalScore               float64                     `gorm:"index" json:"total_score"`
	Grade                    string                      `gorm:"type:varchar(2)" json:"grade"`
	OverallMessage           string                      `gorm:"type:text" json:"overall_message"`
	EstimatedExperienceYears float64                     `json:"estimated_experience_years"`
	Strengths                datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"strengths"`
	Improvements             datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"improvements"`
	Recommendations          datatypes.JSONSlice[string] `gorm:"type:jsonb" json:"recommendations"`
	GeneratedAt              time.Time                   `gorm:"index" json:"generated_at"`
	CreatedAt                time.Time                   `json:"created_at"`
	UpdatedAt                time.Time                   `json:"updated_at"`
}

func (s *ResumeScore) TableName() string {
	return "resume_scores"
}

// Placeholder reports whether the row has never been populated (or was reset
// by an invalidating update). An empty grade only exists on reset rows.
func (s *ResumeScore) Placeholder() bool {
	return s.Grade == ""
}

func (s *ResumeScore) GeneratedTime() time.Time {
	return s.GeneratedAt
}
