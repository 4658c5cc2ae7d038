package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"careeros/internal/config"
	"careeros/internal/errors"
	"careeros/internal/session"
	"careeros/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeService struct {
	roadmapJob string
	auditErr   error
}

func (f *fakeService) UploadResume(_ context.Context, _ string, r io.Reader) (*types.Profile, error) {
	_, _ = io.ReadAll(r)
	return &types.Profile{
		ProfileID: "p-42",
		Data:      types.ProfileData{Name: "Linus", HardSkills: []string{"C", "Git"}},
	}, nil
}

func (f *fakeService) FetchMatches(context.Context, string) ([]types.Job, error) {
	return []types.Job{
		{JobID: "k-1", Title: "Kernel Developer", Company: "Foundation", Score: 95},
		{JobID: "k-2", Title: "Release Manager", Company: "Distro", Score: 61},
	}, nil
}

func (f *fakeService) GenerateRoadmap(_ context.Context, req types.RoadmapRequest) (*types.Roadmap, error) {
	f.roadmapJob = req.JobTitle
	return &types.Roadmap{Nodes: []types.RoadmapNode{{ID: "1", Label: "Learn Rust", Phase: "Advanced", Week: "3"}}}, nil
}

func (f *fakeService) SubmitFeedback(context.Context, types.FeedbackRequest) (*types.FeedbackResult, error) {
	return &types.FeedbackResult{Status: "ok"}, nil
}

func (f *fakeService) PostMortem(context.Context, types.PostMortemRequest) (*types.PostMortem, error) {
	return &types.PostMortem{RootCause: "No release tooling", CorrectiveAction: "Ship a release"}, nil
}

func (f *fakeService) Audit(context.Context, types.AuditRequest) (*types.AuditReport, error) {
	if f.auditErr != nil {
		return nil, f.auditErr
	}
	return &types.AuditReport{Score: 64, Summary: "Terse"}, nil
}

func (f *fakeService) Tailor(context.Context, types.TailorRequest) (*types.TailorResult, error) {
	return &types.TailorResult{TailoredBullets: []string{"Maintained a kernel"}}, nil
}

type shellHarness struct {
	sh     *shell
	out    *bytes.Buffer
	errOut *bytes.Buffer
	svc    *fakeService
}

func newShellHarness(t *testing.T) *shellHarness {
	t.Helper()
	var out, errOut bytes.Buffer
	svc := &fakeService{}
	sess := session.New(svc, config.SessionConfig{
		ToastDelay:    time.Minute,
		RejectOutcome: "Rejected",
		RejectReason:  "User clicked reject",
	}, nil, session.WithNotifier(newConsoleNotifier(&errOut)))

	return &shellHarness{
		sh:     newShell(sess, nil, 1<<20, "text", &out, &errOut),
		out:    &out,
		errOut: &errOut,
		svc:    svc,
	}
}

func resumeFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "resume.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.4"), 0600))
	return path
}

func TestShellSession(t *testing.T) {
	h := newShellHarness(t)

	script := strings.Join([]string{
		"upload " + resumeFile(t),
		"roadmap 2",
		"why k-1",
		"reject 1",
		"quit",
		"audit",
	}, "\n")
	require.NoError(t, h.sh.run(context.Background(), strings.NewReader(script)))

	out := h.out.String()
	assert.Contains(t, out, "Analyzing Profile...")
	assert.Contains(t, out, "1. Kernel Developer - Foundation [k-1]")
	assert.Contains(t, out, "Learn Rust")
	assert.Contains(t, out, "=== POST-MORTEM ANALYSIS ===")
	assert.Contains(t, out, ">> Feedback logged: Rejected")
	assert.NotContains(t, out, "=== ATS AUDIT ===", "commands after quit are not run")
	assert.Equal(t, "Release Manager", h.svc.roadmapJob)

	assert.Contains(t, h.errOut.String(), "(see roadmap below)")
	assert.Empty(t, h.sh.sess.Snapshot().ScrollTarget)
}

func TestShellReportsErrors(t *testing.T) {
	h := newShellHarness(t)

	h.sh.exec(context.Background(), "audit")
	assert.Contains(t, h.errOut.String(), "! "+session.AlertNoProfile)
	assert.Contains(t, h.errOut.String(), "error: no profile loaded")

	h.errOut.Reset()
	h.sh.exec(context.Background(), "dance")
	assert.Contains(t, h.errOut.String(), `unknown command "dance"`)

	h.errOut.Reset()
	h.sh.exec(context.Background(), "upload")
	assert.Contains(t, h.errOut.String(), "usage: upload <file>")

	h.sh.exec(context.Background(), "upload "+resumeFile(t))
	h.errOut.Reset()
	h.sh.exec(context.Background(), "select 9")
	assert.Contains(t, h.errOut.String(), `no job matches "9"`)

	h.svc.auditErr = errors.NewNetworkError(errors.ErrCodeBadStatus, "audit returned status 502", nil)
	h.errOut.Reset()
	h.sh.exec(context.Background(), "audit")
	assert.Contains(t, h.errOut.String(), "! Error analyzing resume: audit returned status 502")
}

func TestShellCloseAndReset(t *testing.T) {
	h := newShellHarness(t)
	ctx := context.Background()

	assert.True(t, h.sh.exec(ctx, "upload "+resumeFile(t)))
	assert.True(t, h.sh.exec(ctx, "select 1"))
	assert.True(t, h.sh.exec(ctx, "audit"))

	snap := h.sh.sess.Snapshot()
	assert.Equal(t, "k-1", snap.SelectedJobID)
	require.NotNil(t, snap.Audit)

	assert.True(t, h.sh.exec(ctx, "close"))
	snap = h.sh.sess.Snapshot()
	assert.Empty(t, snap.SelectedJobID)
	assert.Nil(t, snap.Audit)

	assert.True(t, h.sh.exec(ctx, "reset"))
	assert.Nil(t, h.sh.sess.Snapshot().Profile)
	assert.Contains(t, h.out.String(), "=== UPLOAD YOUR RESUME ===")

	assert.False(t, h.sh.exec(ctx, "exit"))
}
