package types

import "encoding/json"

// PostMortem explains why a candidate was not a fit for a job
type PostMortem struct {
	RootCause        string   `json:"root_cause"`
	CorrectiveAction string   `json:"corrective_action"`
	Resources        []string `json:"resources,omitempty"`
}

// AuditSection is one scored area of a resume audit
type AuditSection struct {
	Name        string   `json:"name"`
	Score       float64  `json:"score"`
	Status      string   `json:"status"`
	Issues      []string `json:"issues"`
	Suggestions []string `json:"suggestions"`
}

// AuditReport is the ATS-style critique of a resume.
// Raw keeps the service payload so it can be shown verbatim.
type AuditReport struct {
	Score           float64         `json:"score"`
	Summary         string          `json:"summary"`
	Sections        []AuditSection  `json:"sections"`
	MissingKeywords []string        `json:"missing_keywords"`
	Raw             json.RawMessage `json:"-"`
}

// MarshalJSON emits the original payload when one was captured
func (a AuditReport) MarshalJSON() ([]byte, error) {
	if len(a.Raw) > 0 {
		return a.Raw, nil
	}
	type plain AuditReport
	return json.Marshal(plain(a))
}

// TailorResult holds resume bullet points rewritten for one job
type TailorResult struct {
	JobID           FlexString `json:"job_id"`
	TailoredBullets []string   `json:"tailored_bullets"`
}

// FeedbackResult is the service acknowledgement for submitted feedback
type FeedbackResult struct {
	Status     string `json:"status"`
	Outcome    string `json:"outcome"`
	Suggestion string `json:"suggestion,omitempty"`
	Action     string `json:"action,omitempty"`
}

// ActionFetchNewRoadmap is the feedback action asking the client to refresh its roadmap
const ActionFetchNewRoadmap = "fetch_new_roadmap"

// HealthStatus is the service liveness report
type HealthStatus struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}
