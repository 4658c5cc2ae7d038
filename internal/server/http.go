// Package server exposes one Session as a local dashboard HTTP API.
package server

import (
	"context"
	"io"
	"os"
	"time"

	"careeros/internal/common"
	"careeros/internal/config"
	"careeros/internal/errors"
	"careeros/internal/observability"
	"careeros/internal/session"
	"careeros/internal/types"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// RemoteStatus reports on the CareerOS service behind the session
type RemoteStatus interface {
	Health(ctx context.Context) (*types.HealthStatus, error)
	BreakerStats() map[string]any
}

// Server holds configuration for the HTTP server
type Server struct {
	Host    string
	Port    string
	Version string

	// Full application configuration
	AppConfig *config.Config

	// The session every request acts on, and the service behind it
	Session *session.Session
	Remote  RemoteStatus

	// API Authentication
	APIKeys map[string]bool

	// Timeout configurations
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration

	// Request size limit
	MaxRequestSize int64

	// Rate limiting
	RateLimit   *config.RateLimitConfig
	RateLimiter *RateLimiter

	Observability *observability.ObservabilityManager
	Logger        *errors.Logger

	// Out receives the startup banner
	Out io.Writer

	renderer *common.OutputHandler
}

// ServerConfig holds configuration for creating a Server instance
type ServerConfig struct {
	Host           string
	Port           string
	Version        string
	APIKeys        []string
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxRequestSize int64
	RateLimit      *config.RateLimitConfig
	Session        *session.Session
	Remote         RemoteStatus
	Observability  *observability.ObservabilityManager
}

// NewServer creates a new Server instance from a ServerConfig struct
func NewServer(appCfg *config.Config, cfg ServerConfig, logger *errors.Logger) *Server {
	if logger == nil {
		logger = errors.Discard()
	}

	// Convert API keys slice to map for O(1) lookup
	apiKeyMap := make(map[string]bool)
	for _, key := range cfg.APIKeys {
		if key != "" {
			apiKeyMap[key] = true
		}
	}

	var rateLimiter *RateLimiter
	if cfg.RateLimit != nil && cfg.RateLimit.Enabled {
		rateLimiter = NewRateLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstCapacity, logger)
	}

	om := cfg.Observability
	if om == nil {
		// A disabled manager records nothing
		om, _ = observability.NewObservabilityManager(observability.ObservabilityConfig{}, appCfg, logger)
	}

	return &Server{
		Host:           cfg.Host,
		Port:           cfg.Port,
		Version:        cfg.Version,
		AppConfig:      appCfg,
		Session:        cfg.Session,
		Remote:         cfg.Remote,
		APIKeys:        apiKeyMap,
		ReadTimeout:    cfg.ReadTimeout,
		WriteTimeout:   cfg.WriteTimeout,
		IdleTimeout:    cfg.IdleTimeout,
		MaxRequestSize: cfg.MaxRequestSize,
		RateLimit:      cfg.RateLimit,
		RateLimiter:    rateLimiter,
		Observability:  om,
		Logger:         logger,
		Out:            os.Stdout,
		renderer:       common.NewOutputHandlerWithWriter(logger, io.Discard),
	}
}
