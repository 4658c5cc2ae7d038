package server

import (
	"context"
	stderrors "errors"
	"net/http"

	"careeros/internal/common"
	"careeros/internal/errors"
	"careeros/internal/utils"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// startSpan opens a span for one dashboard action
func (s *Server) startSpan(r *http.Request, name string) (context.Context, oteltrace.Span) {
	ctx, span := s.Observability.Tracer("careeros.dashboard").Start(r.Context(), "dashboard."+name)
	span.SetAttributes(
		attribute.String("session.id", s.Session.ID()),
		attribute.String("operation", name),
	)
	return ctx, span
}

// viewHandler renders the current view in the requested format
func (s *Server) viewHandler(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}

	var supported []string
	if s.AppConfig != nil {
		supported = s.AppConfig.App.SupportedFormats
	}
	if err := common.ValidateOutputFormat(format, supported); err != nil {
		writeErrorResponse(w, "Unsupported format", err.Error(), errors.ErrCodeInvalidFormat, http.StatusBadRequest)
		return
	}

	output, err := s.renderer.Render(s.Session.Snapshot(), format)
	if err != nil {
		s.writeSessionError(w, nil, err)
		return
	}

	w.Header().Set("Content-Type", contentTypeFor(format))
	if _, err := w.Write([]byte(output)); err != nil {
		s.Logger.LogError(err, "Failed to write view")
	}
}

func contentTypeFor(format string) string {
	switch format {
	case "json":
		return "application/json"
	case "markdown":
		return "text/markdown; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// uploadHandler accepts a multipart resume in the `file` field
func (s *Server) uploadHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "upload")
	defer span.End()

	file, header, err := r.FormFile("file")
	if err != nil {
		span.RecordError(err)
		var maxBytesErr *http.MaxBytesError
		if stderrors.As(err, &maxBytesErr) {
			writeErrorResponse(w, "Request too large",
				"resume exceeds the upload size limit", "", http.StatusRequestEntityTooLarge)
			return
		}
		writeErrorResponse(w, "Missing file", "multipart field 'file' is required", "", http.StatusBadRequest)
		return
	}
	defer func() {
		if err := file.Close(); err != nil {
			s.Logger.Warn("Failed to close uploaded file", "error", err)
		}
	}()

	if !utils.IsResumeFile(header.Filename) {
		s.Logger.Warn("Uploaded file may not be a PDF resume", "filename", header.Filename)
	}
	span.SetAttributes(
		attribute.String("upload.filename", header.Filename),
		attribute.Int64("upload.size", header.Size),
	)

	if err := s.Session.UploadResume(ctx, header.Filename, file); err != nil {
		s.writeSessionError(w, span, err)
		return
	}
	s.writeState(w)
}

// jobAction adapts a session action on one job to a handler for /jobs/{id}/...
func (s *Server) jobAction(name string, action func(ctx context.Context, jobID string) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := s.startSpan(r, name)
		defer span.End()

		jobID := r.PathValue("id")
		span.SetAttributes(attribute.String("job.id", jobID))

		if err := action(ctx, jobID); err != nil {
			s.writeSessionError(w, span, err)
			return
		}
		s.writeState(w)
	}
}

func (s *Server) roadmapHandler(w http.ResponseWriter, r *http.Request) {
	s.jobAction("roadmap", s.Session.GenerateRoadmap)(w, r)
}

func (s *Server) rejectHandler(w http.ResponseWriter, r *http.Request) {
	s.jobAction("reject", s.Session.RejectJob)(w, r)
}

func (s *Server) postMortemHandler(w http.ResponseWriter, r *http.Request) {
	s.jobAction("post_mortem", s.Session.RequestPostMortem)(w, r)
}

func (s *Server) tailorHandler(w http.ResponseWriter, r *http.Request) {
	s.jobAction("tailor", s.Session.TailorResume)(w, r)
}

func (s *Server) selectHandler(w http.ResponseWriter, r *http.Request) {
	s.jobAction("select", func(_ context.Context, jobID string) error {
		return s.Session.SelectJob(jobID)
	})(w, r)
}

func (s *Server) auditHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := s.startSpan(r, "audit")
	defer span.End()

	if err := s.Session.AuditResume(ctx); err != nil {
		s.writeSessionError(w, span, err)
		return
	}
	s.writeState(w)
}

func (s *Server) closeSelectionHandler(w http.ResponseWriter, r *http.Request) {
	s.Session.CloseJobDetail()
	s.writeState(w)
}

func (s *Server) closePostMortemHandler(w http.ResponseWriter, r *http.Request) {
	s.Session.ClosePostMortem()
	s.writeState(w)
}

func (s *Server) closeAuditHandler(w http.ResponseWriter, r *http.Request) {
	s.Session.CloseAudit()
	s.writeState(w)
}

func (s *Server) resetHandler(w http.ResponseWriter, r *http.Request) {
	s.Session.Reset()
	s.writeState(w)
}

// writeState answers with the current view. A pending scroll request is
// delivered with this response and then consumed.
func (s *Server) writeState(w http.ResponseWriter) {
	snap := s.Session.Snapshot()
	if snap.ScrollTarget != "" {
		s.Session.ConsumeScroll()
	}
	writeJSON(w, http.StatusOK, snap)
}

// writeSessionError maps a session failure onto an HTTP status
func (s *Server) writeSessionError(w http.ResponseWriter, span oteltrace.Span, err error) {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, errors.Message(err))
	}

	status := statusForError(err)
	code := ""
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		code = appErr.Code
	}
	writeErrorResponse(w, http.StatusText(status), errors.Message(err), code, status)
}

func statusForError(err error) int {
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		return http.StatusInternalServerError
	}

	switch appErr.Code {
	case errors.ErrCodeUnknownJob:
		return http.StatusNotFound
	case errors.ErrCodeNoProfile, errors.ErrCodeBusy:
		return http.StatusConflict
	case errors.ErrCodeRequestTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeCircuitOpen, errors.ErrCodeRateLimited:
		return http.StatusServiceUnavailable
	}

	switch appErr.Type {
	case errors.ErrorTypeValidation:
		return http.StatusBadRequest
	case errors.ErrorTypeNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
