package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"path/filepath"

	"careeros/internal/config"
	"careeros/internal/errors"
	"careeros/internal/schemas"
	"careeros/internal/types"
)

// UploadResume sends the resume as multipart field "file" and returns the parsed profile
func (c *Client) UploadResume(ctx context.Context, filename string, r io.Reader) (*types.Profile, error) {
	body, contentType, err := multipartFile(filename, r)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to read resume", err).
			WithContext("filename", filename)
	}

	raw, err := c.do(ctx, call{
		operation:   config.OpUpload,
		method:      http.MethodPost,
		url:         c.baseURL + "/profile/upload",
		body:        body,
		contentType: contentType,
		schema:      schemas.Profile,
	})
	if err != nil {
		return nil, err
	}

	var profile types.Profile
	if err := decode(config.OpUpload, raw, &profile); err != nil {
		return nil, err
	}
	if profile.ProfileID == "" {
		return nil, invalidResponse(config.OpUpload, fmt.Errorf("empty profile_id"))
	}
	return &profile, nil
}

func multipartFile(filename string, r io.Reader) ([]byte, string, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	partType := mime.TypeByExtension(filepath.Ext(filename))
	if partType == "" {
		partType = "application/octet-stream"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filepath.Base(filename)))
	header.Set("Content-Type", partType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}

	return buf.Bytes(), writer.FormDataContentType(), nil
}

// FetchMatches returns the scored jobs for a profile
func (c *Client) FetchMatches(ctx context.Context, profileID string) ([]types.Job, error) {
	raw, err := c.do(ctx, call{
		operation: config.OpMatches,
		method:    http.MethodGet,
		url:       c.baseURL + "/matches/" + url.PathEscape(profileID),
		schema:    schemas.Matches,
	})
	if err != nil {
		return nil, err
	}

	var resp types.MatchesResponse
	if err := decode(config.OpMatches, raw, &resp); err != nil {
		return nil, err
	}
	if resp.Matches == nil {
		resp.Matches = []types.Job{}
	}
	return resp.Matches, nil
}

// GenerateRoadmap requests a roadmap; the response may be wrapped in roadmap_json or bare
func (c *Client) GenerateRoadmap(ctx context.Context, req types.RoadmapRequest) (*types.Roadmap, error) {
	if req.ProfileSkills == nil {
		req.ProfileSkills = []string{}
	}
	body, err := jsonBody(config.OpRoadmap, &req)
	if err != nil {
		return nil, err
	}

	raw, err := c.do(ctx, call{
		operation:   config.OpRoadmap,
		method:      http.MethodPost,
		url:         c.baseURL + "/roadmap",
		body:        body,
		contentType: "application/json",
		schema:      schemas.Roadmap,
		transform:   NormalizeRoadmap,
	})
	if err != nil {
		return nil, err
	}

	var roadmap types.Roadmap
	if err := decode(config.OpRoadmap, raw, &roadmap); err != nil {
		return nil, err
	}
	if roadmap.Edges == nil {
		roadmap.Edges = []types.RoadmapEdge{}
	}
	return &roadmap, nil
}

// SubmitFeedback records an outcome for a job
func (c *Client) SubmitFeedback(ctx context.Context, req types.FeedbackRequest) (*types.FeedbackResult, error) {
	if err := validateRequest(config.OpFeedback, &req); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("profile_id", req.ProfileID)
	query.Set("job_id", req.JobID)
	query.Set("outcome", req.Outcome)
	query.Set("reason", req.Reason)

	raw, err := c.do(ctx, call{
		operation: config.OpFeedback,
		method:    http.MethodPost,
		url:       c.baseURL + "/feedback?" + query.Encode(),
		transform: rejectErrorBody,
		schema:    schemas.Feedback,
	})
	if err != nil {
		return nil, err
	}

	var result types.FeedbackResult
	if err := decode(config.OpFeedback, raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PostMortem asks why a profile was not a fit for a job
func (c *Client) PostMortem(ctx context.Context, req types.PostMortemRequest) (*types.PostMortem, error) {
	if err := validateRequest(config.OpPostMortem, &req); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("job_title", req.JobTitle)
	query.Set("job_description", req.JobDescription)
	query.Set("user_skills", req.UserSkills)
	query.Set("rejection_reason", req.RejectionReason)

	raw, err := c.do(ctx, call{
		operation: config.OpPostMortem,
		method:    http.MethodPost,
		url:       c.baseURL + "/post-mortem?" + query.Encode(),
		schema:    schemas.PostMortem,
	})
	if err != nil {
		return nil, err
	}

	var result types.PostMortem
	if err := decode(config.OpPostMortem, raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Audit requests an ATS-style audit of resume text
func (c *Client) Audit(ctx context.Context, req types.AuditRequest) (*types.AuditReport, error) {
	body, err := jsonBody(config.OpAudit, &req)
	if err != nil {
		return nil, err
	}

	raw, err := c.do(ctx, call{
		operation:   config.OpAudit,
		method:      http.MethodPost,
		url:         c.baseURL + "/audit",
		body:        body,
		contentType: "application/json",
		transform:   rejectErrorBody,
		schema:      schemas.Audit,
	})
	if err != nil {
		return nil, err
	}

	var report types.AuditReport
	if err := decode(config.OpAudit, raw, &report); err != nil {
		return nil, err
	}
	report.Raw = json.RawMessage(raw)
	return &report, nil
}

// Tailor requests resume bullet points rewritten for a job
func (c *Client) Tailor(ctx context.Context, req types.TailorRequest) (*types.TailorResult, error) {
	if err := validateRequest(config.OpTailor, &req); err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("user_skills", req.UserSkills)
	query.Set("job_description", req.JobDescription)
	query.Set("job_title", req.JobTitle)

	raw, err := c.do(ctx, call{
		operation: config.OpTailor,
		method:    http.MethodPost,
		url:       c.baseURL + "/tailor?" + query.Encode(),
		schema:    schemas.Tailor,
	})
	if err != nil {
		return nil, err
	}

	var result types.TailorResult
	if err := decode(config.OpTailor, raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Health reports whether the service is up
func (c *Client) Health(ctx context.Context) (*types.HealthStatus, error) {
	if c.healthURL == "" {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "health URL is not configured", nil)
	}

	raw, err := c.do(ctx, call{
		operation: config.OpHealth,
		method:    http.MethodGet,
		url:       c.healthURL,
		schema:    schemas.Health,
	})
	if err != nil {
		return nil, err
	}

	var status types.HealthStatus
	if err := decode(config.OpHealth, raw, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

type validatable interface {
	Validate() error
}

func validateRequest(operation string, req validatable) error {
	if err := req.Validate(); err != nil {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			fmt.Sprintf("invalid %s request", operation), err).
			WithContext("operation", operation)
	}
	return nil
}

func jsonBody(operation string, req validatable) ([]byte, error) {
	if err := validateRequest(operation, req); err != nil {
		return nil, err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, errors.NewInternalError(errors.ErrCodeInvalidRequest, "failed to encode request", err).
			WithContext("operation", operation)
	}
	return body, nil
}
