package config

import (
	"time"

	"github.com/spf13/viper"
)

// setDefaults sets the default configuration values
func setDefaults(v *viper.Viper) {
	// API Configuration
	v.SetDefault("api.baseURL", "http://127.0.0.1:8000/api/v1")
	v.SetDefault("api.healthURL", "")
	v.SetDefault("api.token", "")
	v.SetDefault("api.defaultTimeout", 0) // 0 leaves the call without a deadline
	v.SetDefault("api.userAgent", "careeros-cli")

	// Operation timeouts; unset operations fall back to api.defaultTimeout
	v.SetDefault("operations.upload.timeout", 60*time.Second)
	v.SetDefault("operations.roadmap.timeout", 300*time.Second) // Generation runs a slow model downstream

	// Circuit breakers are opt-in per operation
	for _, name := range OperationNames {
		prefix := "operations." + operationKey(name) + ".circuitBreaker."
		v.SetDefault(prefix+"enabled", false)
		v.SetDefault(prefix+"maxRequests", 3)
		v.SetDefault(prefix+"interval", 60*time.Second)
		v.SetDefault(prefix+"timeout", 60*time.Second)
		v.SetDefault(prefix+"minRequests", 3)
		v.SetDefault(prefix+"failureThreshold", 0.6)
	}

	// Client TLS defaults
	v.SetDefault("tls.mode", "disabled") // disabled, tls, mutual
	v.SetDefault("tls.caFile", "")
	v.SetDefault("tls.certFile", "")
	v.SetDefault("tls.keyFile", "")
	v.SetDefault("tls.minVersion", "1.2")
	v.SetDefault("tls.insecureSkipVerify", false)
	v.SetDefault("tls.serverName", "")

	// Client rate limiting defaults
	v.SetDefault("rateLimit.enabled", false)
	v.SetDefault("rateLimit.requestsPerMin", 60)
	v.SetDefault("rateLimit.burstCapacity", 10)

	// Session defaults
	v.SetDefault("session.toastDelay", 3*time.Second)
	v.SetDefault("session.rejectOutcome", "Rejected")
	v.SetDefault("session.rejectReason", "User clicked reject")
	v.SetDefault("session.rejectionReason", "User dismissed this job as not a fit.")
	v.SetDefault("session.missingDescription", "No description")
	v.SetDefault("session.auditJobDescription", "General Software Engineering Role")

	// Server Configuration
	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", 30*time.Second)
	v.SetDefault("server.writeTimeout", 330*time.Second) // Must outlast a roadmap generation
	v.SetDefault("server.idleTimeout", 120*time.Second)
	// API Authentication defaults
	v.SetDefault("server.apiKeys", []string{})
	// Rate limiting defaults
	v.SetDefault("server.rateLimit.enabled", false)
	v.SetDefault("server.rateLimit.requestsPerMin", 60)
	v.SetDefault("server.rateLimit.burstCapacity", 10)
	v.SetDefault("server.rateLimit.byIP", true)
	v.SetDefault("server.rateLimit.byAPIKey", false)
	v.SetDefault("server.rateLimit.window", time.Minute)

	// Watcher defaults
	v.SetDefault("watch.debounceDelay", time.Second)
	v.SetDefault("watch.extensions", []string{".pdf"})

	// App Configuration
	v.SetDefault("app.logLevel", "info")
	v.SetDefault("app.defaultFormat", "text")
	v.SetDefault("app.supportedFormats", []string{"json", "text", "markdown"})
	v.SetDefault("app.maxFileSize", 10*1024*1024) // 10MB

	// Vault Configuration
	v.SetDefault("vault.enabled", false)
	v.SetDefault("vault.address", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.tokenFile", "")
	v.SetDefault("vault.namespace", "")
	v.SetDefault("vault.secrets.apiToken", "")
	v.SetDefault("vault.secrets.apiKeys", "")

	// Observability Configuration
	v.SetDefault("observability.enabled", false)
	v.SetDefault("observability.serviceName", "careeros")
	v.SetDefault("observability.serviceVersion", "")  // Will use app version if empty
	v.SetDefault("observability.serviceInstance", "") // Will be auto-generated if empty
	v.SetDefault("observability.consoleOutput", false)
	v.SetDefault("observability.sampleRate", 1.0)
	v.SetDefault("observability.metrics.collectionInterval", 15*time.Second)

	// Custom Metrics Configuration
	v.SetDefault("observability.customMetrics.remoteOperations.enabled", true)
	v.SetDefault("observability.customMetrics.remoteOperations.trackDuration", true)
	v.SetDefault("observability.customMetrics.businessMetrics.enabled", true)
	v.SetDefault("observability.customMetrics.infrastructure.trackRateLimits", true)

	// Console Configuration
	v.SetDefault("observability.console.prettyPrint", true)

	// Prometheus Configuration
	v.SetDefault("observability.prometheus.enabled", false)
	v.SetDefault("observability.prometheus.endpoint", "/metrics")
	v.SetDefault("observability.prometheus.port", "9090")

	// OTLP Configuration
	v.SetDefault("observability.otlp.enabled", false)
	v.SetDefault("observability.otlp.endpoint", "http://localhost:4318")
	v.SetDefault("observability.otlp.insecure", true)
	v.SetDefault("observability.otlp.headers", map[string]string{})
}
