package cli

import (
	"careeros/internal/server"

	"github.com/spf13/cobra"
)

// multipartOverhead leaves room for the form framing around an upload
const multipartOverhead = 64 << 10

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dashboard API for one session",
	Long: `Start a local HTTP server exposing one CareerOS session.

Available endpoints:
- GET /health: Dashboard and service health
- GET /stats: Session and rate limiting statistics
- GET /view?format=json|text|markdown: Current view
- POST /upload: Upload a resume (multipart field 'file')
- POST /jobs/{id}/select, DELETE /selection: Job details
- POST /jobs/{id}/roadmap: Generate a learning roadmap
- POST /jobs/{id}/reject: Reject a job
- POST /jobs/{id}/post-mortem, DELETE /post-mortem: Explain a rejection
- POST /jobs/{id}/tailor: Tailor resume bullets to a job
- POST /audit, DELETE /audit: Audit the resume
- POST /reset: Start over`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringP("port", "p", "", "Port to listen on (default from config)")
	serveCmd.Flags().String("host", "", "Host to bind to (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := getConfigFromContext(cmd.Context())
	logger := getLoggerFromContext(cmd.Context())

	// Flags win over the loaded config
	if port, _ := cmd.Flags().GetString("port"); port != "" {
		cfg.Server.Port = port
	}
	if host, _ := cmd.Flags().GetString("host"); host != "" {
		cfg.Server.Host = host
	}

	rt, err := newRuntime(cfg, logger)
	if err != nil {
		return err
	}
	defer rt.close(logger)

	serverCfg := server.ServerConfig{
		Host:           cfg.Server.Host,
		Port:           cfg.Server.Port,
		Version:        Version,
		APIKeys:        cfg.Server.APIKeys,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		MaxRequestSize: cfg.App.MaxFileSize + multipartOverhead,
		RateLimit:      &cfg.Server.RateLimit,
		Session:        rt.session,
		Remote:         rt.client,
		Observability:  rt.observability,
	}
	return server.NewServer(cfg, serverCfg, logger).Start(cmd.Context())
}
