package dto

import (
	"gorm.io/datatypes"

	"github.com/ardiansyah/talent-match/internal/model"
)

type CreateResumeRequest struct {
	FirstName      string                 `json:"first_name"`
	LastName       string                 `json:"last_name"`
	Email          string                 `json:"email"`
	Phone          string                 `json:"phone"`
	Address        string                 `json:"address"`
	Summary        string                 `json:"summary"`
	Skills         []model.Skill          `json:"skills"`
	WorkExperience []model.WorkExperience `json:"work_experience"`
	Certifications []model.Certification  `json:"certifications"`
	SocialMedia    map[string]string      `json:"social_media"`
}

func (r *CreateResumeRequest) ToModel() *model.Resume {
	return &model.Resume{
		FirstName:      r.FirstName,
		LastName:       r.LastName,
		Email:          r.Email,
		Phone:          r.Phone,
		Address:        r.Address,
		Summary:        r.Summary,
		Skills:         datatypes.NewJSONSlice(r.Skills),
		WorkExperience: datatypes.NewJSONSlice(r.WorkExperience),
		Certifications: datatypes.NewJSONSlice(r.Certifications),
		SocialMedia:    datatypes.NewJSONType(r.SocialMedia),
	}
}

// UpdateResumeRequest carries a partial update. Pointer fields distinguish
// "not sent" from "set to zero", which matters because the set of changed
// columns drives cache invalidation.
type UpdateResumeRequest struct {
	FirstName      *string                 `json:"first_name"`
	LastName       *string                 `json:"last_name"`
	Email          *string                 `json:"email"`
	Phone          *string                 `json:"phone"`
	Address        *string                 `json:"address"`
	Summary        *string                 `json:"summary"`
	Skills         *[]model.Skill          `json:"skills"`
	WorkExperience *[]model.WorkExperience `json:"work_experience"`
	Certifications *[]model.Certification  `json:"certifications"`
	SocialMedia    *map[string]string      `json:"social_media"`
}

// Fields returns the column/value map of only the fields present in the
// request body.
func (r *UpdateResumeRequest) Fields() map[string]any {
	fields := map[string]any{}
	if r.FirstName != nil {
		fields["first_name"] = *r.FirstName
	}
	if r.LastName != nil {
		fields["last_name"] = *r.LastName
	}
	if r.Email != nil {
		fields["email"] = *r.Email
	}
	if r.Phone != nil {
		fields["phone"] = *r.Phone
	}
	if r.Address != nil {
		fields["address"] = *r.Address
	}
	if r.Summary != nil {
		fields["summary"] = *r.Summary
	}
	if r.Skills != nil {
		fields["skills"] = datatypes.NewJSONSlice(*r.Skills)
	}
	if r.WorkExperience != nil {
		fields["work_experience"] = datatypes.NewJSONSlice(*r.WorkExperience)
	}
	if r.Certifications != nil {
		fields["certifications"] = datatypes.NewJSONSlice(*r.Certifications)
	}
	if r.SocialMedia != nil {
		fields["social_media"] = datatypes.NewJSONType(*r.SocialMedia)
	}
	return fields
}
