package dto

import (
	"gorm.io/datatypes"

	"github.com/ardiansyah/talent-match/internal/model"
)

type CreateJobPostingRequest struct {
	Title        string   `json:"title"`
	CompanyName  string   `json:"company_name"`
	Location     string   `json:"location"`
	Description  string   `json:"description"`
	Requirements []string `json:"requirements"`
	Skills       []string `json:"skills"`
	SalaryMin    float64  `json:"salary_min"`
	SalaryMax    float64  `json:"salary_max"`
}

func (r *CreateJobPostingRequest) ToModel() *model.JobPosting {
	return &model.JobPosting{
		Title:        r.Title,
		CompanyName:  r.CompanyName,
		Location:     r.Location,
		Description:  r.Description,
		Requirements: datatypes.NewJSONSlice(r.Requirements),
		Skills:       datatypes.NewJSONSlice(r.Skills),
		SalaryMin:    r.SalaryMin,
		SalaryMax:    r.SalaryMax,
	}
}

type UpdateJobPostingRequest struct {
	Title        *string   `json:"title"`
	CompanyName  *string   `json:"company_name"`
	Location     *string   `json:"location"`
	Description  *string   `json:"description"`
	Requirements *[]string `json:"requirements"`
	Skills       *[]string `json:"skills"`
	SalaryMin    *float64  `json:"salary_min"`
	SalaryMax    *float64  `json:"salary_max"`
}

func (r *UpdateJobPostingRequest) Fields() map[string]any {
	fields := map[string]any{}
	if r.Title != nil {
		fields["title"] = *r.Title
	}
	if r.CompanyName != nil {
		fields["company_name"] = *r.CompanyName
	}
	if r.Location != nil {
		fields["location"] = *r.Location
	}
	if r.Description != nil {
		fields["description"] = *r.Description
	}
	if r.Requirements != nil {
		fields["requirements"] = datatypes.NewJSONSlice(*r.Requirements)
	}
	if r.Skills != nil {
		fields["skills"] = datatypes.NewJSONSlice(*r.Skills)
	}
	if r.SalaryMin != nil {
		fields["salary_min"] = *r.SalaryMin
	}
	if r.SalaryMax != nil {
		fields["salary_max"] = *r.SalaryMax
	}
	return fields
}
