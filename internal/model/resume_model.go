package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Skill is one entry of a resume's skills list, stored inside a jsonb column.
type Skill struct {
	Name  string `json:"name"`
	Level string `json:"level,omitempty"`
}

// WorkExperience is one entry of a resume's work history.
type WorkExperience struct {
	Company     string `json:"company"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	StartYear   int    `json:"start_year"`
	EndYear     int    `json:"end_year,omitempty"` // zero means current
}

// Certification is one certification entry.
type Certification struct {
	Name   string `json:"name"`
	Issuer string `json:"issuer,omitempty"`
	Year   int    `json:"year,omitempty"`
}

type Resume struct {
	ID             uuid.UUID                            `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	FirstName      string                               `gorm:"type:varchar(100)" json:"first_name"`
	LastName       string                               `gorm:"type:varchar(100)" json:"last_name"`
	Email          string                               `gorm:"type:varchar(255)" json:"email"`
	Phone          string                               `gorm:"type:varchar(50)" json:"phone"`
	Address        string                               `gorm:"type:text" json:"address"`
	Summary        string                               `gorm:"type:text" json:"summary"`
	Skills         datatypes.JSONSlice[Skill]           `gorm:"type:jsonb" json:"skills"`
	WorkExperience datatypes.JSONSlice[WorkExperience]  `gorm:"type:jsonb" json:"work_experience"`
	Certifications datatypes.JSONSlice[Certification]   `gorm:"type:jsonb" json:"certifications"`
	SocialMedia    datatypes.JSONType[map[string]string] `gorm:"type:jsonb" json:"social_media"`
	CreatedAt      time.Time                            `json:"created_at"`
	UpdatedAt      time.Time                            `json:"updated_at"`
}

func (r *Resume) TableName() string {
	return "resumes"
}
