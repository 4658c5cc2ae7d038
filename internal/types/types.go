// Package types holds the records exchanged with the CareerOS service and kept in the view state.
package types

import (
	"strings"
)

// ProfileData is the parsed content of an uploaded resume
type ProfileData struct {
	Name           string   `json:"name"`
	Email          string   `json:"email"`
	Phone          string   `json:"phone"`
	HardSkills     []string `json:"hard_skills"`
	RawTextSummary string   `json:"raw_text_summary"`
}

// Profile is the candidate record returned by a successful upload
type Profile struct {
	ProfileID FlexString  `json:"profile_id"`
	Data      ProfileData `json:"data"`
}

// Job is one scored match for a profile
type Job struct {
	JobID       FlexString `json:"job_id"`
	Title       string     `json:"title"`
	Company     string     `json:"company"`
	Score       float64    `json:"score"`
	Skills      string     `json:"skills"`
	URL         string     `json:"url"`
	Description string     `json:"description,omitempty"`
	Applicants  *int       `json:"applicants,omitempty"`
	DaysLeft    *int       `json:"days_left,omitempty"`
	Salary      string     `json:"salary,omitempty"`
	JobType     string     `json:"job_type,omitempty"`
	Experience  string     `json:"experience,omitempty"`
	PostedDate  string     `json:"posted_date,omitempty"`
}

// SkillList splits the comma-delimited skills string, dropping blanks
func (j Job) SkillList() []string {
	return SplitSkills(j.Skills)
}

// MatchesResponse wraps the match list returned for a profile
type MatchesResponse struct {
	Matches []Job `json:"matches"`
}

// SplitSkills splits a comma-delimited skill string into trimmed, non-empty entries
func SplitSkills(s string) []string {
	parts := strings.Split(s, ",")
	skills := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			skills = append(skills, trimmed)
		}
	}
	return skills
}
