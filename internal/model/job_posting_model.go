package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type JobPosting struct {
	ID           uuid.UUID                    `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Title        string                       `gorm:"type:varchar(255)" json:"title"`
	CompanyName  string                       `gorm:"type:varchar(255)" json:"company_name"`
	Location     string                       `gorm:"type:varchar(255)" json:"location"`
	Description  string                       `gorm:"type:text" json:"description"`
	Requirements datatypes.JSONSlice[string]  `gorm:"type:jsonb" json:"requirements"`
	Skills       datatypes.JSONSlice[string]  `gorm:"type:jsonb" json:"skills"`
	SalaryMin    float64                      `json:"salary_min"`
	SalaryMax    float64                      `json:"salary_max"`
	CreatedAt    time.Time                    `json:"created_at"`
	UpdatedAt    time.Time                    `json:"updated_at"`
}

func (j *JobPosting) TableName() string {
	return "job_postings"
}
