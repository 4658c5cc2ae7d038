// Package session turns user actions into remote calls and state transitions.
package session

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync/atomic"

	"careeros/internal/config"
	"careeros/internal/errors"
	"careeros/internal/state"
	"careeros/internal/types"

	"github.com/google/uuid"
)

// User-facing alert texts
const (
	AlertUploadFailed     = "Error uploading resume. Ensure backend is running."
	AlertRoadmapFailed    = "Error generating roadmap. Please try again."
	AlertPostMortemFailed = "Error analyzing rejection."
	AlertNoProfile        = "Profile not found. Please upload a resume first."
	alertAuditFailed      = "Error analyzing resume: %s"
)

// Business events reported to Metrics
const (
	EventResumeUploaded   = "resume_uploaded"
	EventRoadmapGenerated = "roadmap_generated"
	EventFeedbackLogged   = "feedback_submitted"
	EventPostMortem       = "post_mortem_requested"
	EventResumeAudited    = "resume_audited"
	EventResumeTailored   = "resume_tailored"
)

// RemoteClient is the subset of the service client a session drives
type RemoteClient interface {
	UploadResume(ctx context.Context, filename string, r io.Reader) (*types.Profile, error)
	FetchMatches(ctx context.Context, profileID string) ([]types.Job, error)
	GenerateRoadmap(ctx context.Context, req types.RoadmapRequest) (*types.Roadmap, error)
	SubmitFeedback(ctx context.Context, req types.FeedbackRequest) (*types.FeedbackResult, error)
	PostMortem(ctx context.Context, req types.PostMortemRequest) (*types.PostMortem, error)
	Audit(ctx context.Context, req types.AuditRequest) (*types.AuditReport, error)
	Tailor(ctx context.Context, req types.TailorRequest) (*types.TailorResult, error)
}

// Notifier presents blocking alerts and moves the view
type Notifier interface {
	Alert(message string)
	ScrollTo(section string)
}

// Metrics receives business events
type Metrics interface {
	RecordBusinessEvent(ctx context.Context, event string, success bool)
}

// Session is one user's working session against the service
type Session struct {
	id        string
	client    RemoteClient
	store     *state.Store
	notifier  Notifier
	metrics   Metrics
	clock     state.Clock
	cfg       config.SessionConfig
	logger    *errors.Logger
	uploading atomic.Bool
}

// Option customizes a Session
type Option func(*Session)

// WithNotifier sets where alerts go
func WithNotifier(n Notifier) Option {
	return func(s *Session) { s.notifier = n }
}

// WithMetrics attaches a business metrics sink
func WithMetrics(m Metrics) Option {
	return func(s *Session) { s.metrics = m }
}

// WithClock replaces the clock used for toast expiry
func WithClock(c state.Clock) Option {
	return func(s *Session) { s.clock = c }
}

// WithStore uses an existing store instead of a fresh one
func WithStore(store *state.Store) Option {
	return func(s *Session) { s.store = store }
}

// New creates a session with an empty view state
func New(client RemoteClient, cfg config.SessionConfig, logger *errors.Logger, opts ...Option) *Session {
	if logger == nil {
		logger = errors.Discard()
	}

	s := &Session{
		id:     uuid.NewString(),
		client: client,
		cfg:    cfg,
		clock:  state.RealClock{},
	}
	s.logger = logger.With("session_id", s.id)

	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = state.NewStore(s.logger)
	}
	if s.notifier == nil {
		s.notifier = logNotifier{logger: s.logger}
	}
	return s
}

// ID identifies the session in logs
func (s *Session) ID() string {
	return s.id
}

// Store exposes the session's state store
func (s *Session) Store() *state.Store {
	return s.store
}

// Snapshot returns the current view state
func (s *Session) Snapshot() state.State {
	return s.store.Snapshot()
}

// begin marks op in flight. The returned func must be deferred with the
// caller's named error so the status is released on every return path:
//
//	defer s.begin(state.OpRoadmap)(&err)
func (s *Session) begin(op state.Operation) func(*error) {
	s.store.Dispatch(state.OpStarted{Op: op})
	return func(errp *error) {
		var msg string
		if errp != nil && *errp != nil {
			msg = (*errp).Error()
		}
		s.store.Dispatch(state.OpFinished{Op: op, Err: msg})
	}
}

func (s *Session) alert(message string, err error) {
	s.logger.LogError(err, message)
	s.notifier.Alert(message)
}

func (s *Session) record(ctx context.Context, event string, err error) {
	if s.metrics != nil {
		s.metrics.RecordBusinessEvent(ctx, event, err == nil)
	}
}

// UploadResume uploads a resume and fetches its matches. Nothing is committed
// unless both calls succeed. A second upload while one is running is refused.
func (s *Session) UploadResume(ctx context.Context, filename string, r io.Reader) (err error) {
	if !s.uploading.CompareAndSwap(false, true) {
		return errors.NewStateError(errors.ErrCodeBusy, "an upload is already in progress", nil)
	}
	defer s.uploading.Store(false)
	defer s.begin(state.OpUpload)(&err)
	defer func() {
		s.record(ctx, EventResumeUploaded, err)
		if err != nil {
			s.alert(AlertUploadFailed, err)
		}
	}()

	profile, err := s.client.UploadResume(ctx, filename, r)
	if err != nil {
		return err
	}

	matches, err := s.fetchMatches(ctx, profile.ProfileID.String())
	if err != nil {
		return err
	}

	s.store.Dispatch(state.UploadSucceeded{Profile: profile, Matches: matches})
	s.logger.Info("Resume uploaded",
		"profile_id", profile.ProfileID.String(),
		"skills", len(profile.Data.HardSkills),
		"matches", len(matches))
	return nil
}

func (s *Session) fetchMatches(ctx context.Context, profileID string) (matches []types.Job, err error) {
	defer s.begin(state.OpMatches)(&err)
	return s.client.FetchMatches(ctx, profileID)
}

// lookup resolves the profile and a job of the current view
func (s *Session) lookup(jobID string) (*types.Profile, *types.Job, error) {
	snap := s.store.Snapshot()
	if snap.Profile == nil {
		return nil, nil, nil
	}
	job, ok := snap.FindJob(jobID)
	if !ok {
		return nil, nil, errors.NewStateError(errors.ErrCodeUnknownJob,
			fmt.Sprintf("job %q is not in the current matches", jobID), nil).
			WithContext("job_id", jobID)
	}
	return snap.Profile, job, nil
}

// GenerateRoadmap builds a roadmap from the profile's skills toward one job.
// Without a profile it does nothing.
func (s *Session) GenerateRoadmap(ctx context.Context, jobID string) (err error) {
	profile, job, err := s.lookup(jobID)
	if err != nil || profile == nil {
		return err
	}

	defer s.begin(state.OpRoadmap)(&err)
	defer func() {
		s.record(ctx, EventRoadmapGenerated, err)
		if err != nil {
			s.alert(AlertRoadmapFailed, err)
		}
	}()

	roadmap, err := s.client.GenerateRoadmap(ctx, types.RoadmapRequest{
		ProfileSkills: profile.Data.HardSkills,
		JobSkills:     job.Skills,
		JobTitle:      job.Title,
	})
	if err != nil {
		return err
	}

	next := s.store.Dispatch(state.RoadmapSucceeded{ProfileID: profile.ProfileID.String(), Roadmap: roadmap})
	if next.ScrollTarget != "" {
		s.notifier.ScrollTo(next.ScrollTarget)
	}
	return nil
}

// ConsumeScroll acknowledges that the view has moved to the requested section
func (s *Session) ConsumeScroll() {
	s.store.Dispatch(state.ScrollConsumed{})
}

// RejectJob tells the service the user rejected a job. Success shows a toast;
// a remote failure is only logged.
func (s *Session) RejectJob(ctx context.Context, jobID string) error {
	profile, job, err := s.lookup(jobID)
	if err != nil || profile == nil {
		return err
	}

	result, err := s.submitFeedback(ctx, profile, job)
	s.record(ctx, EventFeedbackLogged, err)
	if err != nil {
		s.logger.LogError(err, "Feedback submission failed", "job_id", jobID)
		return nil
	}

	message := fmt.Sprintf("Feedback logged: %s", s.cfg.RejectOutcome)
	if result.Action == types.ActionFetchNewRoadmap && result.Suggestion != "" {
		message += ". " + result.Suggestion
	}
	s.store.ShowToast(s.clock, message, s.cfg.ToastDelay)
	return nil
}

func (s *Session) submitFeedback(ctx context.Context, profile *types.Profile, job *types.Job) (result *types.FeedbackResult, err error) {
	defer s.begin(state.OpFeedback)(&err)
	return s.client.SubmitFeedback(ctx, types.FeedbackRequest{
		ProfileID: profile.ProfileID.String(),
		JobID:     job.JobID.String(),
		Outcome:   s.cfg.RejectOutcome,
		Reason:    s.cfg.RejectReason,
	})
}

// RequestPostMortem asks why the profile was not a fit for a job and opens the
// post-mortem modal. Without a profile it does nothing.
func (s *Session) RequestPostMortem(ctx context.Context, jobID string) (err error) {
	profile, job, err := s.lookup(jobID)
	if err != nil || profile == nil {
		return err
	}

	defer s.begin(state.OpPostMortem)(&err)
	defer func() {
		s.record(ctx, EventPostMortem, err)
		if err != nil {
			s.alert(AlertPostMortemFailed, err)
		}
	}()

	description := job.Description
	if description == "" {
		description = s.cfg.MissingDescription
	}

	result, err := s.client.PostMortem(ctx, types.PostMortemRequest{
		JobTitle:        job.Title,
		JobDescription:  description,
		UserSkills:      strings.Join(profile.Data.HardSkills, ","),
		RejectionReason: s.cfg.RejectionReason,
	})
	if err != nil {
		return err
	}

	s.store.Dispatch(state.PostMortemSucceeded{ProfileID: profile.ProfileID.String(), PostMortem: result})
	return nil
}

// AuditResume requests an audit of the loaded profile. Without a profile it
// alerts immediately and sends nothing.
func (s *Session) AuditResume(ctx context.Context) (err error) {
	profile := s.store.Snapshot().Profile
	if profile == nil {
		s.notifier.Alert(AlertNoProfile)
		return errors.NewStateError(errors.ErrCodeNoProfile, "no profile loaded", nil)
	}

	defer s.begin(state.OpAudit)(&err)
	defer func() {
		s.record(ctx, EventResumeAudited, err)
		if err != nil {
			s.alert(fmt.Sprintf(alertAuditFailed, errors.Message(err)), err)
		}
	}()

	report, err := s.client.Audit(ctx, types.AuditRequest{
		ResumeText:     ResumeText(profile),
		JobDescription: s.cfg.AuditJobDescription,
	})
	if err != nil {
		return err
	}

	s.store.Dispatch(state.AuditSucceeded{ProfileID: profile.ProfileID.String(), Report: report})
	return nil
}

// ResumeText rebuilds a plain resume from the parsed profile fields
func ResumeText(profile *types.Profile) string {
	d := profile.Data
	var b strings.Builder
	fmt.Fprintf(&b, "Name: %s\n", d.Name)
	fmt.Fprintf(&b, "Email: %s\n", d.Email)
	fmt.Fprintf(&b, "Phone: %s\n", d.Phone)
	fmt.Fprintf(&b, "Skills: %s\n", strings.Join(d.HardSkills, ", "))
	fmt.Fprintf(&b, "Summary: %s\n", d.RawTextSummary)
	return b.String()
}

// TailorResume asks for resume bullet points aimed at one job
func (s *Session) TailorResume(ctx context.Context, jobID string) (err error) {
	profile, job, err := s.lookup(jobID)
	if err != nil {
		return err
	}
	if profile == nil {
		s.notifier.Alert(AlertNoProfile)
		return errors.NewStateError(errors.ErrCodeNoProfile, "no profile loaded", nil)
	}

	defer s.begin(state.OpTailor)(&err)
	defer func() { s.record(ctx, EventResumeTailored, err) }()

	description := job.Description
	if description == "" {
		description = s.cfg.MissingDescription
	}

	result, err := s.client.Tailor(ctx, types.TailorRequest{
		UserSkills:     strings.Join(profile.Data.HardSkills, ","),
		JobDescription: description,
		JobTitle:       job.Title,
	})
	if err != nil {
		s.logger.LogError(err, "Tailoring failed", "job_id", jobID)
		return err
	}
	if result.JobID == "" {
		result.JobID = job.JobID
	}

	s.store.Dispatch(state.TailorSucceeded{ProfileID: profile.ProfileID.String(), Result: result})
	return nil
}

// SelectJob opens the job-detail modal for a job in the current matches
func (s *Session) SelectJob(jobID string) error {
	if _, ok := s.store.Snapshot().FindJob(jobID); !ok {
		return errors.NewStateError(errors.ErrCodeUnknownJob,
			fmt.Sprintf("job %q is not in the current matches", jobID), nil).
			WithContext("job_id", jobID)
	}
	s.store.Dispatch(state.JobSelected{JobID: jobID})
	return nil
}

// CloseJobDetail closes the job-detail modal
func (s *Session) CloseJobDetail() {
	s.store.Dispatch(state.JobDetailClosed{})
}

// ClosePostMortem closes the post-mortem modal
func (s *Session) ClosePostMortem() {
	s.store.Dispatch(state.PostMortemClosed{})
}

// CloseAudit hides the audit panel
func (s *Session) CloseAudit() {
	s.store.Dispatch(state.AuditClosed{})
}

// Reset discards the profile so a new resume can be uploaded
func (s *Session) Reset() {
	s.store.Dispatch(state.Reset{})
	s.logger.Info("Session reset")
}

// logNotifier is used when no interactive notifier is attached
type logNotifier struct {
	logger *errors.Logger
}

func (n logNotifier) Alert(message string) {
	n.logger.Warn("Alert", "message", message)
}

func (n logNotifier) ScrollTo(section string) {
	n.logger.Debug("Scroll requested", "section", section)
}
