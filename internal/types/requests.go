package types

import (
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// RoadmapRequest asks the service for a roadmap bridging a profile's skills to a job
type RoadmapRequest struct {
	ProfileSkills []string `json:"profile_skills"`
	JobSkills     string   `json:"job_skills"`
	JobTitle      string   `json:"job_title"`
}

// FeedbackRequest records the user's outcome for a job
type FeedbackRequest struct {
	ProfileID string `validate:"required"`
	JobID     string `validate:"required"`
	Outcome   string
	Reason    string
}

// PostMortemRequest asks why a profile was not a fit for a job
type PostMortemRequest struct {
	JobTitle        string
	JobDescription  string
	UserSkills      string
	RejectionReason string
}

// AuditRequest submits resume text for an ATS-style audit
type AuditRequest struct {
	ResumeText     string `json:"resume_text" validate:"required"`
	JobDescription string `json:"job_description"`
}

// TailorRequest asks for resume bullets tailored to a job
type TailorRequest struct {
	UserSkills     string
	JobDescription string
	JobTitle       string
}

// Validate validates the RoadmapRequest using the validator.
func (r *RoadmapRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the FeedbackRequest using the validator.
func (r *FeedbackRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the PostMortemRequest using the validator.
func (r *PostMortemRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the AuditRequest using the validator.
func (r *AuditRequest) Validate() error {
	return validate.Struct(r)
}

// Validate validates the TailorRequest using the validator.
func (r *TailorRequest) Validate() error {
	return validate.Struct(r)
}
