package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"careeros/internal/errors"
	"careeros/internal/state"
)

// healthCheckTimeout bounds the call to the service health endpoint
const healthCheckTimeout = 5 * time.Second

// healthHandler reports the dashboard's own health and the service behind it
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]any{
		"status":     "healthy",
		"service":    "careeros-dashboard",
		"version":    s.Version,
		"session_id": s.Session.ID(),
	}

	status := http.StatusOK
	if s.Remote != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()

		remote, err := s.Remote.Health(ctx)
		if err != nil {
			response["remote"] = map[string]any{
				"healthy": false,
				"error":   errors.Message(err),
			}
			response["status"] = "degraded"
			status = http.StatusServiceUnavailable
		} else {
			response["remote"] = map[string]any{
				"healthy": true,
				"status":  remote.Status,
				"service": remote.Service,
			}
		}

		response["circuit_breakers"] = s.Remote.BreakerStats()
	}

	writeJSON(w, status, response)
}

// statsHandler provides server statistics including rate limiting info
func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	snap := s.Session.Snapshot()

	ops := make(map[string]any, len(state.Operations))
	for _, op := range state.Operations {
		ops[string(op)] = snap.Status(op)
	}

	response := map[string]any{
		"service": "careeros-dashboard",
		"version": s.Version,
		"server": map[string]any{
			"max_request_size_bytes": s.MaxRequestSize,
		},
		"session": map[string]any{
			"id":             s.Session.ID(),
			"profile_loaded": snap.Profile != nil,
			"matches":        len(snap.Matches),
			"busy":           snap.Busy(),
			"operations":     ops,
		},
	}

	if s.RateLimiter != nil {
		response["rate_limiting"] = s.RateLimiter.GetStats()
	} else {
		response["rate_limiting"] = map[string]any{
			"enabled": false,
		}
	}

	if s.RateLimit != nil {
		response["rate_limit_config"] = map[string]any{
			"enabled":          s.RateLimit.Enabled,
			"requests_per_min": s.RateLimit.RequestsPerMin,
			"burst_capacity":   s.RateLimit.BurstCapacity,
			"by_ip":            s.RateLimit.ByIP,
			"by_api_key":       s.RateLimit.ByAPIKey,
		}
	}

	writeJSON(w, http.StatusOK, response)
}

// writeJSON writes v with the given status
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// writeErrorResponse writes a standardized error response
func writeErrorResponse(w http.ResponseWriter, error, message, code string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{
		Error:   error,
		Message: message,
		Code:    code,
	})
}
