package state

import (
	"careeros/internal/types"
)

// Action is one transition of the view state
type Action interface {
	action()
}

// OpStarted marks a call of Op as in flight
type OpStarted struct{ Op Operation }

// OpFinished marks a call of Op as done. A non-empty Err records a failure.
type OpFinished struct {
	Op  Operation
	Err string
}

// UploadSucceeded commits a new profile together with its matches
type UploadSucceeded struct {
	Profile *types.Profile
	Matches []types.Job
}

// RoadmapSucceeded replaces the roadmap generated for ProfileID
type RoadmapSucceeded struct {
	ProfileID string
	Roadmap   *types.Roadmap
}

// FeedbackSucceeded shows a toast
type FeedbackSucceeded struct{ Message string }

// ToastExpired clears the toast if it is still the one numbered Seq
type ToastExpired struct{ Seq uint64 }

// PostMortemSucceeded opens the post-mortem modal
type PostMortemSucceeded struct {
	ProfileID  string
	PostMortem *types.PostMortem
}

// AuditSucceeded shows the audit panel
type AuditSucceeded struct {
	ProfileID string
	Report    *types.AuditReport
}

// TailorSucceeded stores bullet points tailored for one job
type TailorSucceeded struct {
	ProfileID string
	Result    *types.TailorResult
}

// JobSelected opens the job-detail modal
type JobSelected struct{ JobID string }

// JobDetailClosed closes the job-detail modal
type JobDetailClosed struct{}

// PostMortemClosed closes the post-mortem modal
type PostMortemClosed struct{}

// AuditClosed hides the audit panel
type AuditClosed struct{}

// ScrollConsumed acknowledges the pending scroll request
type ScrollConsumed struct{}

// Reset discards the profile and everything derived from it ("New Upload")
type Reset struct{}

func (OpStarted) action()           {}
func (OpFinished) action()          {}
func (UploadSucceeded) action()     {}
func (RoadmapSucceeded) action()    {}
func (FeedbackSucceeded) action()   {}
func (ToastExpired) action()        {}
func (PostMortemSucceeded) action() {}
func (AuditSucceeded) action()      {}
func (TailorSucceeded) action()     {}
func (JobSelected) action()         {}
func (JobDetailClosed) action()     {}
func (PostMortemClosed) action()    {}
func (AuditClosed) action()         {}
func (ScrollConsumed) action()      {}
func (Reset) action()               {}

// Reduce applies a to s and returns the resulting state. It never mutates s.
//
// Results tagged with a ProfileID are dropped when that profile is no longer
// loaded, so a call finishing after Reset or a newer upload cannot attach
// stale data to the wrong profile.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case OpStarted:
		st := s.Status(a.Op)
		st.InFlight++
		st.Status = StatusPending
		st.Error = ""
		s.Ops = withOp(s.Ops, a.Op, st)

	case OpFinished:
		st := s.Status(a.Op)
		if st.InFlight > 0 {
			st.InFlight--
		}
		if a.Err != "" {
			st.Error = a.Err
		}
		switch {
		case st.InFlight > 0:
			st.Status = StatusPending
		case st.Error != "":
			st.Status = StatusFailed
		default:
			st.Status = StatusSucceeded
		}
		s.Ops = withOp(s.Ops, a.Op, st)

	case UploadSucceeded:
		if a.Profile == nil {
			return s
		}
		s.Profile = a.Profile
		s.Matches = a.Matches
		if s.Matches == nil {
			s.Matches = []types.Job{}
		}
		s.Roadmap = nil
		s.PostMortem = nil
		s.Audit = nil
		s.Tailor = nil
		s.ScrollTarget = ""
		if _, ok := s.SelectedJob(); !ok {
			s.SelectedJobID = ""
		}

	case RoadmapSucceeded:
		if !s.currentProfile(a.ProfileID) || a.Roadmap == nil {
			return s
		}
		s.Roadmap = a.Roadmap
		s.ScrollTarget = ScrollRoadmap

	case FeedbackSucceeded:
		s.Toast = Toast{Message: a.Message, Seq: s.Toast.Seq + 1}

	case ToastExpired:
		if s.Toast.Seq == a.Seq {
			s.Toast.Message = ""
		}

	case PostMortemSucceeded:
		if !s.currentProfile(a.ProfileID) || a.PostMortem == nil {
			return s
		}
		s.PostMortem = a.PostMortem

	case AuditSucceeded:
		if !s.currentProfile(a.ProfileID) || a.Report == nil {
			return s
		}
		s.Audit = a.Report

	case TailorSucceeded:
		if !s.currentProfile(a.ProfileID) || a.Result == nil {
			return s
		}
		s.Tailor = a.Result

	case JobSelected:
		if _, ok := s.FindJob(a.JobID); ok {
			s.SelectedJobID = a.JobID
		}

	case JobDetailClosed:
		s.SelectedJobID = ""

	case PostMortemClosed:
		s.PostMortem = nil

	case AuditClosed:
		s.Audit = nil

	case ScrollConsumed:
		s.ScrollTarget = ""

	case Reset:
		// Toast and operation statuses belong to calls that may still be running
		s = State{Toast: s.Toast, Ops: s.Ops}
	}

	return s
}

func (s State) currentProfile(profileID string) bool {
	return s.Profile != nil && s.ProfileID() == profileID
}

func withOp(ops map[Operation]OpStatus, op Operation, st OpStatus) map[Operation]OpStatus {
	next := make(map[Operation]OpStatus, len(ops)+1)
	for k, v := range ops {
		next[k] = v
	}
	next[op] = st
	return next
}
