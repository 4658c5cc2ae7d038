package server

import "fmt"

// displayServerInfo shows server configuration information
func (s *Server) displayServerInfo(addr string) {
	fmt.Fprintf(s.Out, "CareerOS dashboard listening on http://%s\n", addr)
	s.displayEndpoints()
	s.displayAuthInfo()
	s.displayRequestLimitInfo()
	s.displayRateLimitInfo()
}

// displayEndpoints shows available API endpoints
func (s *Server) displayEndpoints() {
	fmt.Fprintln(s.Out, "Available endpoints:")
	fmt.Fprintln(s.Out, "  GET    /health                 - Dashboard and service health")
	fmt.Fprintln(s.Out, "  GET    /stats                  - Session and rate limiting statistics")
	fmt.Fprintln(s.Out, "  GET    /view?format=           - Current view (json, text, markdown)")
	fmt.Fprintln(s.Out, "  POST   /upload                 - Upload a resume (multipart field 'file')")
	fmt.Fprintln(s.Out, "  POST   /jobs/{id}/select       - Open job details")
	fmt.Fprintln(s.Out, "  DELETE /selection              - Close job details")
	fmt.Fprintln(s.Out, "  POST   /jobs/{id}/roadmap      - Generate a learning roadmap")
	fmt.Fprintln(s.Out, "  POST   /jobs/{id}/reject       - Reject a job")
	fmt.Fprintln(s.Out, "  POST   /jobs/{id}/post-mortem  - Explain a rejection")
	fmt.Fprintln(s.Out, "  DELETE /post-mortem            - Close the post-mortem")
	fmt.Fprintln(s.Out, "  POST   /jobs/{id}/tailor       - Tailor resume bullets to a job")
	fmt.Fprintln(s.Out, "  POST   /audit                  - Audit the resume")
	fmt.Fprintln(s.Out, "  DELETE /audit                  - Close the audit")
	fmt.Fprintln(s.Out, "  POST   /reset                  - Start over with a new resume")
}

// displayAuthInfo shows authentication configuration
func (s *Server) displayAuthInfo() {
	if len(s.APIKeys) > 0 {
		fmt.Fprintf(s.Out, "API authentication: ENABLED (%d keys configured)\n", len(s.APIKeys))
		fmt.Fprintln(s.Out, "Include 'X-API-Key: <your-key>' header in requests to session endpoints")
	} else {
		fmt.Fprintln(s.Out, "API authentication: DISABLED (no API keys configured)")
	}
}

// displayRequestLimitInfo shows request size limit configuration
func (s *Server) displayRequestLimitInfo() {
	if s.MaxRequestSize > 0 {
		fmt.Fprintf(s.Out, "Request size limit: %d bytes (%.1f MB)\n", s.MaxRequestSize, float64(s.MaxRequestSize)/(1024*1024))
	} else {
		fmt.Fprintln(s.Out, "Request size limit: DISABLED")
	}
}

// displayRateLimitInfo shows rate limiting configuration
func (s *Server) displayRateLimitInfo() {
	if s.RateLimit != nil && s.RateLimit.Enabled {
		fmt.Fprintf(s.Out, "Rate limiting: ENABLED (%d requests/min, burst: %d)\n",
			s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
		if s.RateLimit.ByAPIKey {
			fmt.Fprintln(s.Out, "  - Per API key rate limiting enabled")
		}
		if s.RateLimit.ByIP {
			fmt.Fprintln(s.Out, "  - Per IP address rate limiting enabled")
		}
	} else {
		fmt.Fprintln(s.Out, "Rate limiting: DISABLED")
	}
}
