// Package state holds the session's view state and the transitions that change it.
//
// A State is never modified in place. Reduce returns a new value and the
// slices, maps and pointers it shares with the previous one are treated as
// read-only, so a published snapshot stays valid while other goroutines dispatch.
package state

import (
	"careeros/internal/types"
)

// Operation identifies one kind of remote call
type Operation string

const (
	OpUpload     Operation = "upload"
	OpMatches    Operation = "matches"
	OpRoadmap    Operation = "roadmap"
	OpFeedback   Operation = "feedback"
	OpPostMortem Operation = "post_mortem"
	OpAudit      Operation = "audit"
	OpTailor     Operation = "tailor"
)

// Operations lists every operation tracked in State.Ops
var Operations = []Operation{OpUpload, OpMatches, OpRoadmap, OpFeedback, OpPostMortem, OpAudit, OpTailor}

// Status is the lifecycle of the latest calls of one operation
type Status string

const (
	StatusIdle      Status = "idle"
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// OpStatus tracks one operation. InFlight counts calls that have started and
// not finished; Status stays pending until it drops to zero.
type OpStatus struct {
	Status   Status `json:"status"`
	InFlight int    `json:"in_flight"`
	Error    string `json:"error,omitempty"`
}

// Toast is the transient feedback message. Seq identifies which expiry may clear it.
type Toast struct {
	Message string `json:"message"`
	Seq     uint64 `json:"seq"`
}

// ScrollRoadmap is the section the view moves to after a roadmap arrives
const ScrollRoadmap = "roadmap"

// State is the complete view state of one session
type State struct {
	Profile       *types.Profile         `json:"profile"`
	Matches       []types.Job            `json:"matches"`
	Roadmap       *types.Roadmap         `json:"roadmap"`
	SelectedJobID string                 `json:"selected_job_id,omitempty"`
	PostMortem    *types.PostMortem      `json:"post_mortem"`
	Audit         *types.AuditReport     `json:"audit"`
	Tailor        *types.TailorResult    `json:"tailor"`
	Toast         Toast                  `json:"toast"`
	Ops           map[Operation]OpStatus `json:"ops"`
	ScrollTarget  string                 `json:"scroll_target,omitempty"`
}

// Status returns the status of op, idle when it never ran
func (s State) Status(op Operation) OpStatus {
	if st, ok := s.Ops[op]; ok {
		return st
	}
	return OpStatus{Status: StatusIdle}
}

// Pending reports whether op has a call in flight
func (s State) Pending(op Operation) bool {
	return s.Status(op).InFlight > 0
}

// Busy reports whether any operation has a call in flight
func (s State) Busy() bool {
	for _, st := range s.Ops {
		if st.InFlight > 0 {
			return true
		}
	}
	return false
}

// SelectedJob resolves SelectedJobID against the current match list
func (s State) SelectedJob() (*types.Job, bool) {
	if s.SelectedJobID == "" {
		return nil, false
	}
	return s.FindJob(s.SelectedJobID)
}

// FindJob looks a job up by id in the current match list
func (s State) FindJob(jobID string) (*types.Job, bool) {
	for i := range s.Matches {
		if s.Matches[i].JobID.String() == jobID {
			return &s.Matches[i], true
		}
	}
	return nil, false
}

// ProfileID returns the current profile's id, empty when no profile is loaded
func (s State) ProfileID() string {
	if s.Profile == nil {
		return ""
	}
	return s.Profile.ProfileID.String()
}

// PostMortemOpen reports whether the post-mortem modal is shown
func (s State) PostMortemOpen() bool {
	return s.PostMortem != nil
}

// JobDetailOpen reports whether the job-detail modal is shown
func (s State) JobDetailOpen() bool {
	_, ok := s.SelectedJob()
	return ok
}
