package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"careeros/internal/config"
	"careeros/internal/errors"
	"careeros/internal/session"
	"careeros/internal/state"
	"careeros/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// remoteStub stands in for the CareerOS service
type remoteStub struct {
	uploads   int
	uploadErr error
	roadmaps  int
	healthErr error
}

func (r *remoteStub) UploadResume(_ context.Context, _ string, body io.Reader) (*types.Profile, error) {
	_, _ = io.ReadAll(body)
	r.uploads++
	if r.uploadErr != nil {
		return nil, r.uploadErr
	}
	return &types.Profile{
		ProfileID: "p-7",
		Data:      types.ProfileData{Name: "Ada", HardSkills: []string{"Go"}},
	}, nil
}

func (r *remoteStub) FetchMatches(context.Context, string) ([]types.Job, error) {
	return []types.Job{{JobID: "j-1", Title: "Platform Engineer", Company: "Acme", Score: 88}}, nil
}

func (r *remoteStub) GenerateRoadmap(context.Context, types.RoadmapRequest) (*types.Roadmap, error) {
	r.roadmaps++
	return &types.Roadmap{Nodes: []types.RoadmapNode{{ID: "1", Label: "Kubernetes", Phase: "Basics"}}}, nil
}

func (r *remoteStub) SubmitFeedback(context.Context, types.FeedbackRequest) (*types.FeedbackResult, error) {
	return &types.FeedbackResult{Status: "ok"}, nil
}

func (r *remoteStub) PostMortem(context.Context, types.PostMortemRequest) (*types.PostMortem, error) {
	return &types.PostMortem{RootCause: "No Kubernetes", CorrectiveAction: "Learn it"}, nil
}

func (r *remoteStub) Audit(context.Context, types.AuditRequest) (*types.AuditReport, error) {
	return &types.AuditReport{Score: 72, Summary: "Solid"}, nil
}

func (r *remoteStub) Tailor(context.Context, types.TailorRequest) (*types.TailorResult, error) {
	return &types.TailorResult{TailoredBullets: []string{"Built platforms"}}, nil
}

func (r *remoteStub) Health(context.Context) (*types.HealthStatus, error) {
	if r.healthErr != nil {
		return nil, r.healthErr
	}
	return &types.HealthStatus{Status: "healthy", Service: "careeros-api"}, nil
}

func (r *remoteStub) BreakerStats() map[string]any {
	return map[string]any{"upload": map[string]any{"state": "closed"}}
}

func testAppConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{SupportedFormats: []string{"json", "text", "markdown"}},
	}
}

func newTestServer(t *testing.T, remote *remoteStub, mutate ...func(*ServerConfig)) *Server {
	t.Helper()

	sess := session.New(remote, config.SessionConfig{
		ToastDelay:    time.Minute,
		RejectOutcome: "Rejected",
		RejectReason:  "User clicked reject",
	}, nil)

	cfg := ServerConfig{
		Host:           "127.0.0.1",
		Port:           "0",
		Version:        "test",
		MaxRequestSize: 1 << 20,
		Session:        sess,
		Remote:         remote,
	}
	for _, m := range mutate {
		m(&cfg)
	}

	s := NewServer(testAppConfig(), cfg, nil)
	s.Out = io.Discard
	t.Cleanup(s.cleanupRateLimiter)
	return s
}

func do(t *testing.T, s *Server, method, target string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func uploadBody(t *testing.T, field string) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile(field, "resume.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func upload(t *testing.T, s *Server) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := uploadBody(t, "file")
	return do(t, s, http.MethodPost, "/upload", body, map[string]string{"Content-Type": contentType})
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) state.State {
	t.Helper()
	var snap state.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &snap))
	return snap
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestUploadAndRoadmapFlow(t *testing.T) {
	remote := &remoteStub{}
	s := newTestServer(t, remote)

	rec := upload(t, s)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	snap := decodeState(t, rec)
	require.NotNil(t, snap.Profile)
	assert.Equal(t, "p-7", snap.Profile.ProfileID.String())
	require.Len(t, snap.Matches, 1)

	rec = do(t, s, http.MethodPost, "/jobs/j-1/roadmap", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	snap = decodeState(t, rec)
	require.NotNil(t, snap.Roadmap)
	assert.Equal(t, state.ScrollRoadmap, snap.ScrollTarget, "scroll request is delivered once")
	assert.Empty(t, s.Session.Snapshot().ScrollTarget)

	rec = do(t, s, http.MethodGet, "/view?format=text", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "Platform Engineer")
	assert.Contains(t, rec.Body.String(), "Kubernetes")
}

func TestJobModals(t *testing.T) {
	s := newTestServer(t, &remoteStub{})
	require.Equal(t, http.StatusOK, upload(t, s).Code)

	rec := do(t, s, http.MethodPost, "/jobs/j-1/select", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "j-1", decodeState(t, rec).SelectedJobID)

	rec = do(t, s, http.MethodDelete, "/selection", nil, nil)
	assert.Empty(t, decodeState(t, rec).SelectedJobID)

	rec = do(t, s, http.MethodPost, "/jobs/j-1/post-mortem", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, decodeState(t, rec).PostMortem)

	rec = do(t, s, http.MethodDelete, "/post-mortem", nil, nil)
	assert.Nil(t, decodeState(t, rec).PostMortem)

	rec = do(t, s, http.MethodPost, "/audit", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, decodeState(t, rec).Audit)

	rec = do(t, s, http.MethodDelete, "/audit", nil, nil)
	assert.Nil(t, decodeState(t, rec).Audit)

	rec = do(t, s, http.MethodPost, "/jobs/j-1/tailor", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Built platforms"}, decodeState(t, rec).Tailor.TailoredBullets)

	rec = do(t, s, http.MethodPost, "/jobs/j-1/reject", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Feedback logged: Rejected", decodeState(t, rec).Toast.Message)

	rec = do(t, s, http.MethodPost, "/reset", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, decodeState(t, rec).Profile)
}

func TestSessionErrorsMapToStatus(t *testing.T) {
	remote := &remoteStub{}
	s := newTestServer(t, remote)

	// Without a profile the audit is refused
	rec := do(t, s, http.MethodPost, "/audit", nil, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, errors.ErrCodeNoProfile, decodeError(t, rec).Code)

	// Roadmap without a profile is a silent no-op
	rec = do(t, s, http.MethodPost, "/jobs/j-1/roadmap", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Zero(t, remote.roadmaps)

	require.Equal(t, http.StatusOK, upload(t, s).Code)

	rec = do(t, s, http.MethodPost, "/jobs/nope/select", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, errors.ErrCodeUnknownJob, decodeError(t, rec).Code)

	rec = do(t, s, http.MethodPost, "/jobs/nope/roadmap", nil, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadFailures(t *testing.T) {
	remote := &remoteStub{uploadErr: errors.NewNetworkError(errors.ErrCodeBadStatus, "upload returned status 500", nil)}
	s := newTestServer(t, remote)

	rec := upload(t, s)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	resp := decodeError(t, rec)
	assert.Equal(t, errors.ErrCodeBadStatus, resp.Code)
	assert.Equal(t, "upload returned status 500", resp.Message)

	body, contentType := uploadBody(t, "resume")
	rec = do(t, s, http.MethodPost, "/upload", body, map[string]string{"Content-Type": contentType})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 1, remote.uploads, "nothing is sent without a file field")
}

func TestViewFormats(t *testing.T) {
	s := newTestServer(t, &remoteStub{})

	rec := do(t, s, http.MethodGet, "/view", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Nil(t, decodeState(t, rec).Profile)

	rec = do(t, s, http.MethodGet, "/view?format=markdown", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/markdown"))

	rec = do(t, s, http.MethodGet, "/view?format=yaml", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errors.ErrCodeInvalidFormat, decodeError(t, rec).Code)
}

func TestMethodRouting(t *testing.T) {
	s := newTestServer(t, &remoteStub{})

	rec := do(t, s, http.MethodGet, "/upload", nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = do(t, s, http.MethodPost, "/health", nil, nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthHandler(t *testing.T) {
	remote := &remoteStub{}
	s := newTestServer(t, remote)

	rec := do(t, s, http.MethodGet, "/health", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, s.Session.ID(), body["session_id"])
	assert.Contains(t, body, "circuit_breakers")

	remote.healthErr = errors.NewNetworkError(errors.ErrCodeRequestFailed, "health request failed", nil)
	rec = do(t, s, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body["status"])
}

func TestStatsHandler(t *testing.T) {
	s := newTestServer(t, &remoteStub{})
	require.Equal(t, http.StatusOK, upload(t, s).Code)

	rec := do(t, s, http.MethodGet, "/stats", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Session struct {
			ProfileLoaded bool                      `json:"profile_loaded"`
			Matches       int                       `json:"matches"`
			Operations    map[string]state.OpStatus `json:"operations"`
		} `json:"session"`
		RateLimiting map[string]any `json:"rate_limiting"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Session.ProfileLoaded)
	assert.Equal(t, 1, body.Session.Matches)
	assert.Equal(t, state.StatusSucceeded, body.Session.Operations["upload"].Status)
	assert.Equal(t, false, body.RateLimiting["enabled"])
}

func TestAuthMiddleware(t *testing.T) {
	s := newTestServer(t, &remoteStub{}, func(cfg *ServerConfig) {
		cfg.APIKeys = []string{"secret-key-123"}
	})

	rec := do(t, s, http.MethodGet, "/view", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, s, http.MethodGet, "/view", nil, map[string]string{"X-API-Key": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, s, http.MethodGet, "/view", nil, map[string]string{"X-API-Key": "secret-key-123"})
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, s, http.MethodGet, "/view", nil, map[string]string{"Authorization": "Bearer secret-key-123"})
	assert.Equal(t, http.StatusOK, rec.Code)

	// Health stays open for probes
	rec = do(t, s, http.MethodGet, "/health", nil, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequestSizeLimit(t *testing.T) {
	remote := &remoteStub{}
	s := newTestServer(t, remote, func(cfg *ServerConfig) {
		cfg.MaxRequestSize = 32
	})

	rec := upload(t, s)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Zero(t, remote.uploads)
}

func TestRateLimitMiddleware(t *testing.T) {
	s := newTestServer(t, &remoteStub{}, func(cfg *ServerConfig) {
		cfg.RateLimit = &config.RateLimitConfig{Enabled: true, RequestsPerMin: 1, BurstCapacity: 2, ByIP: true}
	})

	headers := map[string]string{"X-Forwarded-For": "203.0.113.9"}
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/view", nil, headers).Code)
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/view", nil, headers).Code)

	rec := do(t, s, http.MethodGet, "/view", nil, headers)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, errors.ErrCodeRateLimited, decodeError(t, rec).Code)

	// Another client has its own bucket
	other := map[string]string{"X-Forwarded-For": "198.51.100.4"}
	assert.Equal(t, http.StatusOK, do(t, s, http.MethodGet, "/view", nil, other).Code)

	assert.Equal(t, 2, s.RateLimiter.GetStats()["active_limiters"])
}

func TestServeShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t, &remoteStub{})

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, listener) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + listener.Addr().String() + "/health")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
