package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"careeros/internal/config"
	"careeros/internal/errors"
	"careeros/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		API: config.APIConfig{
			BaseURL:        baseURL + "/api/v1",
			DefaultTimeout: 5 * time.Second,
			UserAgent:      "careeros-test",
		},
	}
}

func newTestClient(t *testing.T, srv *httptest.Server, mutate ...func(*config.Config)) *Client {
	t.Helper()
	cfg := testConfig(srv.URL)
	for _, m := range mutate {
		m(cfg)
	}
	c, err := New(cfg, nil, WithHTTPClient(srv.Client()))
	require.NoError(t, err)
	return c
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, code), "expected %s, got %v", code, err)
}

func TestUploadResume(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/profile/upload", r.URL.Path)
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.Equal(t, "careeros-test", r.Header.Get("User-Agent"))

		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		content, _ := io.ReadAll(file)
		assert.Equal(t, "resume.pdf", header.Filename)
		assert.Equal(t, "%PDF-1.4 test", string(content))

		writeJSON(w, http.StatusOK, `{"profile_id":"p-123","data":{"name":"Ada","email":null,"phone":null,"hard_skills":["Go","SQL"],"raw_text_summary":"Backend engineer"}}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	profile, err := c.UploadResume(context.Background(), "/tmp/resume.pdf", strings.NewReader("%PDF-1.4 test"))
	require.NoError(t, err)

	assert.Equal(t, types.FlexString("p-123"), profile.ProfileID)
	assert.Equal(t, "Ada", profile.Data.Name)
	assert.Empty(t, profile.Data.Email)
	assert.Equal(t, []string{"Go", "SQL"}, profile.Data.HardSkills)
}

func TestUploadResumeBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusInternalServerError, `{"detail":"could not parse pdf"}`)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).UploadResume(context.Background(), "resume.pdf", strings.NewReader("x"))
	assertCode(t, err, errors.ErrCodeBadStatus)
	assert.Contains(t, err.Error(), "could not parse pdf")
}

func TestUploadResumeRejectsMissingProfileID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"data":{"name":"Ada"}}`)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).UploadResume(context.Background(), "resume.pdf", strings.NewReader("x"))
	assertCode(t, err, errors.ErrCodeInvalidResponse)
}

func TestFetchMatchesUsesProfileID(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		writeJSON(w, http.StatusOK, `{"matches":[{"job_id":42,"title":"Backend Engineer","company":"Acme","score":85,"skills":"Go, Kubernetes","url":"#","salary":"Not Disclosed","applicants":0}]}`)
	}))
	defer srv.Close()

	jobs, err := newTestClient(t, srv).FetchMatches(context.Background(), "p-123")
	require.NoError(t, err)

	assert.Equal(t, "/api/v1/matches/p-123", gotPath)
	require.Len(t, jobs, 1)
	assert.Equal(t, types.FlexString("42"), jobs[0].JobID)
	assert.Equal(t, 85.0, jobs[0].Score)
	require.NotNil(t, jobs[0].Applicants)
	assert.Equal(t, 0, *jobs[0].Applicants)
}

func TestFetchMatchesEmptyList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"matches":[]}`)
	}))
	defer srv.Close()

	jobs, err := newTestClient(t, srv).FetchMatches(context.Background(), "p")
	require.NoError(t, err)
	assert.NotNil(t, jobs)
	assert.Empty(t, jobs)
}

func TestGenerateRoadmapAcceptsBothShapes(t *testing.T) {
	roadmap := `{"nodes":[{"id":"1","label":"Learn Kubernetes","status":"Pending","week":"1","phase":"Basics"}],"edges":[{"source":"1","target":"2"}]}`

	tests := []struct {
		name string
		body string
	}{
		{name: "wrapped", body: `{"roadmap_json":` + roadmap + `}`},
		{name: "bare", body: roadmap},
		{name: "wrapped null falls back to body", body: strings.TrimSuffix(roadmap, "}") + `,"roadmap_json":null}`},
		{name: "wrapped empty string falls back to body", body: strings.TrimSuffix(roadmap, "}") + `,"roadmap_json":""}`},
	}

	expected := &types.Roadmap{
		Nodes: []types.RoadmapNode{{ID: "1", Label: "Learn Kubernetes", Status: "Pending", Week: "1", Phase: "Basics"}},
		Edges: []types.RoadmapEdge{{Source: "1", Target: "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var sent types.RoadmapRequest
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/api/v1/roadmap", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				require.NoError(t, json.NewDecoder(r.Body).Decode(&sent))
				writeJSON(w, http.StatusOK, tt.body)
			}))
			defer srv.Close()

			got, err := newTestClient(t, srv).GenerateRoadmap(context.Background(), types.RoadmapRequest{
				ProfileSkills: []string{"Go", "SQL"},
				JobSkills:     "Go, Kubernetes",
				JobTitle:      "Backend Engineer",
			})
			require.NoError(t, err)
			assert.Equal(t, expected, got)
			assert.Equal(t, []string{"Go", "SQL"}, sent.ProfileSkills)
			assert.Equal(t, "Go, Kubernetes", sent.JobSkills)
			assert.Equal(t, "Backend Engineer", sent.JobTitle)
		})
	}
}

func TestUntitledJobRequestsAreSent(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/api/v1/roadmap":
			writeJSON(w, http.StatusOK, `{"nodes":[],"edges":[]}`)
		default:
			assert.Empty(t, r.URL.Query().Get("job_title"))
			writeJSON(w, http.StatusOK, `{"root_cause":"r","corrective_action":"c","resources":[]}`)
		}
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.GenerateRoadmap(context.Background(), types.RoadmapRequest{JobSkills: "Go"})
	require.NoError(t, err)
	_, err = c.PostMortem(context.Background(), types.PostMortemRequest{UserSkills: "Go"})
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestGenerateRoadmapFailures(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "error with traceback", body: `{"error":"model offline","traceback":"..."}`},
		{name: "empty wrapper", body: `{"roadmap_json":{}}`},
		{name: "not an object", body: `[1,2]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, http.StatusOK, tt.body)
			}))
			defer srv.Close()

			_, err := newTestClient(t, srv).GenerateRoadmap(context.Background(), types.RoadmapRequest{JobTitle: "SRE"})
			assertCode(t, err, errors.ErrCodeInvalidResponse)
		})
	}
}

func TestSubmitFeedbackQueryParams(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/feedback", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "p-1", q.Get("profile_id"))
		assert.Equal(t, "j-9", q.Get("job_id"))
		assert.Equal(t, "Rejected", q.Get("outcome"))
		assert.Equal(t, "User clicked reject", q.Get("reason"))
		writeJSON(w, http.StatusOK, `{"status":"Feedback logged","outcome":"Rejected","suggestion":"Roadmap update recommended based on feedback.","action":"fetch_new_roadmap"}`)
	}))
	defer srv.Close()

	result, err := newTestClient(t, srv).SubmitFeedback(context.Background(), types.FeedbackRequest{
		ProfileID: "p-1", JobID: "j-9", Outcome: "Rejected", Reason: "User clicked reject",
	})
	require.NoError(t, err)
	assert.Equal(t, types.ActionFetchNewRoadmap, result.Action)
}

func TestSubmitFeedbackErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"error":"Profile not found"}`)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).SubmitFeedback(context.Background(), types.FeedbackRequest{
		ProfileID: "p", JobID: "j", Outcome: "Rejected", Reason: "r",
	})
	assertCode(t, err, errors.ErrCodeInvalidResponse)
	assert.Contains(t, err.Error(), "Profile not found")
}

func TestInvalidRequestIsNotSent(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	_, err := newTestClient(t, srv).SubmitFeedback(context.Background(), types.FeedbackRequest{ProfileID: "p"})
	assertCode(t, err, errors.ErrCodeInvalidRequest)
	assert.Zero(t, hits.Load())
}

func TestPostMortem(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/post-mortem", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "Platform Engineer", q.Get("job_title"))
		assert.Equal(t, "No description", q.Get("job_description"))
		assert.Equal(t, "Go,SQL", q.Get("user_skills"))
		assert.Equal(t, "User dismissed this job as not a fit.", q.Get("rejection_reason"))
		writeJSON(w, http.StatusOK, `{"root_cause":"No Terraform","corrective_action":"Ship an IaC project","resources":["Terraform docs"]}`)
	}))
	defer srv.Close()

	result, err := newTestClient(t, srv).PostMortem(context.Background(), types.PostMortemRequest{
		JobTitle:        "Platform Engineer",
		JobDescription:  "No description",
		UserSkills:      "Go,SQL",
		RejectionReason: "User dismissed this job as not a fit.",
	})
	require.NoError(t, err)
	assert.Equal(t, &types.PostMortem{
		RootCause:        "No Terraform",
		CorrectiveAction: "Ship an IaC project",
		Resources:        []string{"Terraform docs"},
	}, result)
}

func TestAuditKeepsRawPayload(t *testing.T) {
	body := `{"score":75,"summary":"Lacks metrics","sections":[{"name":"Impact","score":60,"status":"warning","issues":["Passive voice"],"suggestions":["Use strong verbs"]}],"missing_keywords":["CI/CD"],"model":"gemma"}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req types.AuditRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.ResumeText, "Name: Ada")
		writeJSON(w, http.StatusOK, body)
	}))
	defer srv.Close()

	report, err := newTestClient(t, srv).Audit(context.Background(), types.AuditRequest{
		ResumeText:     "Name: Ada",
		JobDescription: "General Software Engineering Role",
	})
	require.NoError(t, err)
	assert.Equal(t, 75.0, report.Score)
	require.Len(t, report.Sections, 1)
	assert.Equal(t, []string{"CI/CD"}, report.MissingKeywords)
	assert.JSONEq(t, body, string(report.Raw))
}

func TestTailor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "/api/v1/tailor", r.URL.Path)
		assert.Equal(t, "Go,SQL", q.Get("user_skills"))
		assert.Equal(t, "Backend Engineer", q.Get("job_title"))
		writeJSON(w, http.StatusOK, `{"tailored_bullets":["Built Go services"]}`)
	}))
	defer srv.Close()

	result, err := newTestClient(t, srv).Tailor(context.Background(), types.TailorRequest{
		UserSkills: "Go,SQL", JobDescription: "Build APIs", JobTitle: "Backend Engineer",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Built Go services"}, result.TailoredBullets)
}

func TestHealthUsesServiceRoot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/health", r.URL.Path)
		writeJSON(w, http.StatusOK, `{"status":"healthy","service":"CareerOS"}`)
	}))
	defer srv.Close()

	status, err := newTestClient(t, srv).Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "healthy", status.Status)
}

func TestOperationTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	timeout := 50 * time.Millisecond
	c := newTestClient(t, srv, func(cfg *config.Config) {
		cfg.Operations.Audit.Timeout = &timeout
	})

	_, err := c.Audit(context.Background(), types.AuditRequest{ResumeText: "x"})
	assertCode(t, err, errors.ErrCodeRequestTimeout)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestOperationsWithoutTimeoutHaveNoDeadline(t *testing.T) {
	deadlines := map[string]bool{}
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		_, ok := r.Context().Deadline()
		deadlines[r.URL.Path] = ok
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": []string{"application/json"}},
			Body:       io.NopCloser(strings.NewReader(`{"score":70}`)),
			Request:    r,
		}, nil
	})

	uploadTimeout := time.Minute
	cfg := &config.Config{API: config.APIConfig{BaseURL: "http://service.test/api/v1"}}
	cfg.Operations.Upload.Timeout = &uploadTimeout

	c, err := New(cfg, nil, WithHTTPClient(&http.Client{Transport: rt}))
	require.NoError(t, err)

	_, err = c.Audit(context.Background(), types.AuditRequest{ResumeText: "x"})
	require.NoError(t, err)
	assert.False(t, deadlines["/api/v1/audit"], "audit has no configured timeout")

	_, _ = c.UploadResume(context.Background(), "resume.pdf", strings.NewReader("%PDF"))
	assert.True(t, deadlines["/api/v1/profile/upload"], "upload keeps its own timeout")
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	c := newTestClient(t, srv)
	srv.Close()

	_, err := c.FetchMatches(context.Background(), "p")
	assertCode(t, err, errors.ErrCodeRequestFailed)
}

func TestFailuresDoNotBlockLaterRequestsByDefault(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) <= 3 {
			writeJSON(w, http.StatusInternalServerError, `{"detail":"backend starting"}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"profile_id":"p-1","data":{"hard_skills":["Go"]}}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	for range 3 {
		_, err := c.UploadResume(context.Background(), "resume.pdf", strings.NewReader("%PDF"))
		assertCode(t, err, errors.ErrCodeBadStatus)
	}

	profile, err := c.UploadResume(context.Background(), "resume.pdf", strings.NewReader("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, types.FlexString("p-1"), profile.ProfileID)
	assert.Equal(t, int32(4), hits.Load())
}

func TestCircuitBreakerIsPerOperation(t *testing.T) {
	var matchHits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/v1/matches/") {
			matchHits.Add(1)
			writeJSON(w, http.StatusBadGateway, `{}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"status":"healthy"}`)
	}))
	defer srv.Close()

	breaker := config.CircuitBreakerConfig{
		Enabled:          true,
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          time.Minute,
		MinRequests:      1,
		FailureThreshold: 0.5,
	}
	c := newTestClient(t, srv, func(cfg *config.Config) {
		cfg.Operations.Matches.CircuitBreaker = breaker
		cfg.Operations.Health.CircuitBreaker = breaker
	})

	_, err := c.FetchMatches(context.Background(), "p")
	assertCode(t, err, errors.ErrCodeBadStatus)

	_, err = c.FetchMatches(context.Background(), "p")
	assertCode(t, err, errors.ErrCodeCircuitOpen)
	assert.Equal(t, int32(1), matchHits.Load())

	_, err = c.Health(context.Background())
	assert.NoError(t, err)

	stats := c.BreakerStats()
	assert.Equal(t, "open", stats[config.OpMatches].(map[string]any)["state"])
	assert.Equal(t, false, stats[config.OpMatches].(map[string]any)["healthy"])
	assert.Equal(t, true, stats[config.OpHealth].(map[string]any)["healthy"])
	assert.Equal(t, false, stats[config.OpAudit].(map[string]any)["enabled"])
	assert.Equal(t, true, stats[config.OpAudit].(map[string]any)["healthy"])
}

func TestBearerTokenHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer secret-token", r.Header.Get("Authorization"))
		writeJSON(w, http.StatusOK, `{"status":"healthy"}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, func(cfg *config.Config) {
		cfg.API.Token = "secret-token"
	})
	_, err := c.Health(context.Background())
	require.NoError(t, err)
}

type recordedCall struct {
	operation string
	err       error
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []recordedCall
}

func (f *fakeRecorder) RecordRemoteCall(_ context.Context, operation string, _ time.Duration, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, recordedCall{operation: operation, err: err})
}

func TestRecorderSeesEveryCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			writeJSON(w, http.StatusOK, `{"status":"healthy"}`)
			return
		}
		writeJSON(w, http.StatusNotFound, `{}`)
	}))
	defer srv.Close()

	recorder := &fakeRecorder{}
	c, err := New(testConfig(srv.URL), nil, WithHTTPClient(srv.Client()), WithRecorder(recorder))
	require.NoError(t, err)

	_, _ = c.Health(context.Background())
	_, _ = c.FetchMatches(context.Background(), "p")

	require.Len(t, recorder.calls, 2)
	assert.Equal(t, config.OpHealth, recorder.calls[0].operation)
	assert.NoError(t, recorder.calls[0].err)
	assert.Equal(t, config.OpMatches, recorder.calls[1].operation)
	assert.Error(t, recorder.calls[1].err)
}
