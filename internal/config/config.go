package config

import (
	"fmt"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
// API Token Precedence Order:
// 1. Vault (if configured) - Highest priority
// 2. Config File values
// 3. Environment Variables (CAREEROS_API_TOKEN, etc.)
// 4. Default values - Lowest priority
type Config struct {
	API           APIConfig             `mapstructure:"api"`
	Operations    OperationsConfig      `mapstructure:"operations"`
	TLS           TLSConfig             `mapstructure:"tls"`
	RateLimit     ClientRateLimitConfig `mapstructure:"rateLimit"`
	Session       SessionConfig         `mapstructure:"session"`
	Server        ServerConfig          `mapstructure:"server"`
	Watch         WatchConfig           `mapstructure:"watch"`
	App           AppConfig             `mapstructure:"app"`
	Vault         VaultConfig           `mapstructure:"vault"`
	Observability ObservabilityConfig   `mapstructure:"observability"`
}

// APIConfig holds the CareerOS service connection settings
type APIConfig struct {
	BaseURL        string        `mapstructure:"baseURL"`
	HealthURL      string        `mapstructure:"healthURL"` // Derived from baseURL origin when empty
	Token          string        `mapstructure:"token"`     // Optional bearer token
	DefaultTimeout time.Duration `mapstructure:"defaultTimeout"`
	UserAgent      string        `mapstructure:"userAgent"`
}

// ClientRateLimitConfig throttles outgoing requests to the service
type ClientRateLimitConfig struct {
	Enabled        bool `mapstructure:"enabled"`
	RequestsPerMin int  `mapstructure:"requestsPerMin"`
	BurstCapacity  int  `mapstructure:"burstCapacity"`
}

// SessionConfig holds the canned values the session sends on the user's behalf
type SessionConfig struct {
	ToastDelay          time.Duration `mapstructure:"toastDelay"`
	RejectOutcome       string        `mapstructure:"rejectOutcome"`
	RejectReason        string        `mapstructure:"rejectReason"`
	RejectionReason     string        `mapstructure:"rejectionReason"`
	MissingDescription  string        `mapstructure:"missingDescription"`
	AuditJobDescription string        `mapstructure:"auditJobDescription"`
}

// ServerConfig holds local dashboard HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"readTimeout"`
	WriteTimeout time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout  time.Duration `mapstructure:"idleTimeout"`

	// API Authentication
	APIKeys []string `mapstructure:"apiKeys"` // Valid API keys for authentication

	// Rate Limiting Configuration
	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool          `mapstructure:"enabled"`        // Enable/disable rate limiting
	RequestsPerMin int           `mapstructure:"requestsPerMin"` // Requests allowed per minute
	BurstCapacity  int           `mapstructure:"burstCapacity"`  // Burst capacity for token bucket
	ByIP           bool          `mapstructure:"byIP"`           // Enable per-IP rate limiting
	ByAPIKey       bool          `mapstructure:"byAPIKey"`       // Enable per-API-key rate limiting
	Window         time.Duration `mapstructure:"window"`         // Rate limiting window duration
}

// WatchConfig holds settings for the resume directory watcher
type WatchConfig struct {
	DebounceDelay time.Duration `mapstructure:"debounceDelay"`
	Extensions    []string      `mapstructure:"extensions"`
}

// AppConfig holds general application configuration
type AppConfig struct {
	LogLevel         string   `mapstructure:"logLevel"`
	DefaultFormat    string   `mapstructure:"defaultFormat"`
	SupportedFormats []string `mapstructure:"supportedFormats"`
	MaxFileSize      int64    `mapstructure:"maxFileSize"`
}

// ObservabilityConfig holds observability configuration
type ObservabilityConfig struct {
	Enabled         bool                `mapstructure:"enabled"`
	ServiceName     string              `mapstructure:"serviceName"`
	ServiceVersion  string              `mapstructure:"serviceVersion"`
	ServiceInstance string              `mapstructure:"serviceInstance"`
	ConsoleOutput   bool                `mapstructure:"consoleOutput"`
	SampleRate      float64             `mapstructure:"sampleRate"`
	Metrics         MetricsConfig       `mapstructure:"metrics"`
	CustomMetrics   CustomMetricsConfig `mapstructure:"customMetrics"`
	Console         ConsoleConfig       `mapstructure:"console"`
	Prometheus      PrometheusConfig    `mapstructure:"prometheus"`
	OTLP            OTLPConfig          `mapstructure:"otlp"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	CollectionInterval time.Duration `mapstructure:"collectionInterval"`
}

// ConsoleConfig holds console output configuration
type ConsoleConfig struct {
	PrettyPrint bool `mapstructure:"prettyPrint"`
}

// CustomMetricsConfig holds fine-grained custom metrics configuration
type CustomMetricsConfig struct {
	RemoteOperations RemoteOperationsMetricsConfig `mapstructure:"remoteOperations"`
	BusinessMetrics  BusinessMetricsConfig         `mapstructure:"businessMetrics"`
	Infrastructure   InfrastructureMetricsConfig   `mapstructure:"infrastructure"`
}

// RemoteOperationsMetricsConfig holds metrics configuration for calls to the service
type RemoteOperationsMetricsConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	TrackDuration bool `mapstructure:"trackDuration"`
}

// BusinessMetricsConfig holds business metrics configuration
type BusinessMetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// InfrastructureMetricsConfig holds infrastructure metrics configuration
type InfrastructureMetricsConfig struct {
	TrackRateLimits bool `mapstructure:"trackRateLimits"`
}

// PrometheusConfig holds Prometheus configuration
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
	Port     string `mapstructure:"port"`
}

// OTLPConfig holds OTLP exporter configuration
type OTLPConfig struct {
	Enabled  bool              `mapstructure:"enabled"`
	Endpoint string            `mapstructure:"endpoint"`
	Insecure bool              `mapstructure:"insecure"`
	Headers  map[string]string `mapstructure:"headers"`
}

// LoadConfig loads configuration from environment variables and a config file
func LoadConfig() (*Config, error) {
	return loadFromViper(newViper())
}

// LoadConfigFile loads configuration from an explicit file instead of the search paths
func LoadConfigFile(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)
	return loadFromViper(v)
}

func newViper() *viper.Viper {
	v := viper.New()

	// Set default values
	setDefaults(v)

	// Set up environment variable handling
	v.SetEnvPrefix("CAREEROS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set up config file handling
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/careeros/")
	v.AddConfigPath("$HOME/.careeros")
	v.AddConfigPath(".")

	return v
}

func loadFromViper(v *viper.Viper) (*Config, error) {
	// Read the config file
	configFileUsed := ""
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		configFileUsed = v.ConfigFileUsed()
	}

	// Unmarshal the configuration into the Config struct
	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config.applyFallbacks()

	if config.App.LogLevel == "debug" {
		config.logConfigurationSources(configFileUsed)
	} else if configFileUsed != "" {
		log.Printf("[CONFIG] Loaded config file: %s", configFileUsed)
	}

	// Validate the configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if err := validateBaseURL(c.API.BaseURL); err != nil {
		return err
	}

	if c.API.DefaultTimeout < 0 {
		return fmt.Errorf("api default timeout must not be negative")
	}

	for _, name := range OperationNames {
		opCfg := c.GetOperationConfig(name)
		if opCfg.Timeout == nil || *opCfg.Timeout < 0 {
			return fmt.Errorf("operation %s timeout must not be negative", name)
		}
		if err := validateCircuitBreaker(name, opCfg.CircuitBreaker); err != nil {
			return err
		}
	}

	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMin <= 0 {
		return fmt.Errorf("client rate limit requestsPerMin must be positive when enabled")
	}

	if c.Session.ToastDelay <= 0 {
		return fmt.Errorf("session toast delay must be positive")
	}

	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}

	if c.App.MaxFileSize <= 0 {
		return fmt.Errorf("app maxFileSize must be positive")
	}

	validFormats := make(map[string]bool)
	for _, format := range c.App.SupportedFormats {
		validFormats[format] = true
	}
	if !validFormats[c.App.DefaultFormat] {
		return fmt.Errorf("invalid default format: %s", c.App.DefaultFormat)
	}

	// Validate TLS configuration
	if err := c.ValidateTLSConfig(); err != nil {
		return fmt.Errorf("TLS configuration error: %w", err)
	}

	return nil
}

func validateBaseURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("api baseURL is required (set CAREEROS_API_BASEURL environment variable)")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid api baseURL %q: %w", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid api baseURL %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid api baseURL %q: host is required", raw)
	}
	return nil
}

func validateCircuitBreaker(name string, cb CircuitBreakerConfig) error {
	if !cb.Enabled {
		return nil
	}
	if cb.FailureThreshold <= 0 || cb.FailureThreshold > 1 {
		return fmt.Errorf("operation %s circuit breaker failureThreshold must be in (0, 1]", name)
	}
	return nil
}
