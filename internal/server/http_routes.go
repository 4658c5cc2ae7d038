package server

import (
	"net/http"
	"strings"
)

// Handler builds the routed, instrumented handler served by Start
func (s *Server) Handler() http.Handler {
	return s.Observability.HTTPMiddleware()(s.setupRoutes())
}

// setupRoutes configures all HTTP routes and middleware
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	rateLimit := s.rateLimitMiddleware()
	requestLimit := s.requestSizeLimitMiddleware()

	// guarded applies the middleware every session route shares
	guarded := func(h http.HandlerFunc) http.HandlerFunc {
		return rateLimit(s.authMiddleware(requestLimit(h)))
	}

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.HandleFunc("GET /stats", s.statsHandler)

	mux.HandleFunc("GET /view", guarded(s.viewHandler))
	mux.HandleFunc("POST /upload", guarded(s.uploadHandler))
	mux.HandleFunc("POST /reset", guarded(s.resetHandler))

	mux.HandleFunc("POST /jobs/{id}/select", guarded(s.selectHandler))
	mux.HandleFunc("DELETE /selection", guarded(s.closeSelectionHandler))
	mux.HandleFunc("POST /jobs/{id}/roadmap", guarded(s.roadmapHandler))
	mux.HandleFunc("POST /jobs/{id}/reject", guarded(s.rejectHandler))
	mux.HandleFunc("POST /jobs/{id}/post-mortem", guarded(s.postMortemHandler))
	mux.HandleFunc("DELETE /post-mortem", guarded(s.closePostMortemHandler))
	mux.HandleFunc("POST /jobs/{id}/tailor", guarded(s.tailorHandler))
	mux.HandleFunc("POST /audit", guarded(s.auditHandler))
	mux.HandleFunc("DELETE /audit", guarded(s.closeAuditHandler))

	return mux
}

// authMiddleware provides API key authentication
func (s *Server) authMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Skip authentication if no API keys are configured
		if len(s.APIKeys) == 0 {
			next(w, r)
			return
		}

		apiKey := requestAPIKey(r)
		if apiKey == "" {
			s.Logger.Info("Authentication failed: missing API key",
				"endpoint", r.URL.Path,
				"client_ip", getClientIP(r))
			writeErrorResponse(w, "Missing API key", "X-API-Key header or Authorization Bearer token required", "", http.StatusUnauthorized)
			return
		}

		if !s.APIKeys[apiKey] {
			s.Logger.Info("Authentication failed: invalid API key",
				"endpoint", r.URL.Path,
				"client_ip", getClientIP(r),
				"api_key_prefix", maskAPIKey(apiKey))
			writeErrorResponse(w, "Invalid API key", "Unauthorized access", "", http.StatusUnauthorized)
			return
		}

		next(w, r)
	}
}

// requestAPIKey reads the key from X-API-Key, falling back to a bearer token
func requestAPIKey(r *http.Request) string {
	if apiKey := r.Header.Get("X-API-Key"); apiKey != "" {
		return apiKey
	}
	if after, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return after
	}
	return ""
}

// requestSizeLimitMiddleware limits the size of incoming requests
func (s *Server) requestSizeLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if s.MaxRequestSize > 0 {
				r.Body = http.MaxBytesReader(w, r.Body, s.MaxRequestSize)
			}
			next(w, r)
		}
	}
}

// maskAPIKey masks an API key for logging (shows only first 8 characters)
func maskAPIKey(apiKey string) string {
	if len(apiKey) <= 8 {
		return "****"
	}
	return apiKey[:8] + "****"
}
