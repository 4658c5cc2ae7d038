package cli

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"careeros/internal/client"
	"careeros/internal/config"
	"careeros/internal/errors"
	"careeros/internal/observability"
	"careeros/internal/session"
)

// runtime is everything a command needs to drive one session
type runtime struct {
	client        *client.Client
	session       *session.Session
	observability *observability.ObservabilityManager
}

// newRuntime wires observability, the service client and a session.
// The caller must call close when done.
func newRuntime(cfg *config.Config, logger *errors.Logger, opts ...session.Option) (*runtime, error) {
	om, err := observability.NewObservabilityManager(
		observability.GetObservabilityConfig(cfg, Version), cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize observability: %w", err)
	}

	base, err := client.NewTransport(cfg.TLS)
	if err != nil {
		_ = om.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to build client transport: %w", err)
	}

	c, err := client.New(cfg, logger,
		client.WithHTTPClient(&http.Client{Transport: om.Transport(base)}),
		client.WithRecorder(om))
	if err != nil {
		_ = om.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to create service client: %w", err)
	}

	opts = append([]session.Option{session.WithMetrics(om)}, opts...)
	sess := session.New(c, cfg.Session, logger, opts...)

	return &runtime{client: c, session: sess, observability: om}, nil
}

// close flushes telemetry
func (rt *runtime) close(logger *errors.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rt.observability.Shutdown(ctx); err != nil {
		logger.LogError(err, "Failed to shutdown observability")
	}
}
