package config

import "time"

// Operation names, one per service endpoint
const (
	OpUpload     = "upload"
	OpMatches    = "matches"
	OpRoadmap    = "roadmap"
	OpFeedback   = "feedback"
	OpPostMortem = "post_mortem"
	OpAudit      = "audit"
	OpTailor     = "tailor"
	OpHealth     = "health"
)

// OperationNames lists every configurable operation
var OperationNames = []string{OpUpload, OpMatches, OpRoadmap, OpFeedback, OpPostMortem, OpAudit, OpTailor, OpHealth}

// OperationsConfig holds per-endpoint overrides
type OperationsConfig struct {
	Upload     OperationConfig `mapstructure:"upload"`
	Matches    OperationConfig `mapstructure:"matches"`
	Roadmap    OperationConfig `mapstructure:"roadmap"`
	Feedback   OperationConfig `mapstructure:"feedback"`
	PostMortem OperationConfig `mapstructure:"postMortem"`
	Audit      OperationConfig `mapstructure:"audit"`
	Tailor     OperationConfig `mapstructure:"tailor"`
	Health     OperationConfig `mapstructure:"health"`
}

// OperationConfig holds settings for a single service endpoint
type OperationConfig struct {
	Timeout        *time.Duration       `mapstructure:"timeout"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuitBreaker"`
}

// CircuitBreakerConfig represents circuit breaker configuration
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`          // Whether circuit breaker is enabled
	MaxRequests      uint32        `mapstructure:"maxRequests"`      // Max requests allowed when half-open
	Interval         time.Duration `mapstructure:"interval"`         // Interval to clear counts
	Timeout          time.Duration `mapstructure:"timeout"`          // Timeout for half-open to open
	MinRequests      uint32        `mapstructure:"minRequests"`      // Minimum requests before tripping
	FailureThreshold float64       `mapstructure:"failureThreshold"` // Failure ratio threshold (0.0-1.0)
}

// operationKey maps an operation name to its configuration key
func operationKey(name string) string {
	if name == OpPostMortem {
		return "postMortem"
	}
	return name
}

func (o *OperationsConfig) byName(name string) OperationConfig {
	switch name {
	case OpUpload:
		return o.Upload
	case OpMatches:
		return o.Matches
	case OpRoadmap:
		return o.Roadmap
	case OpFeedback:
		return o.Feedback
	case OpPostMortem:
		return o.PostMortem
	case OpAudit:
		return o.Audit
	case OpTailor:
		return o.Tailor
	case OpHealth:
		return o.Health
	default:
		return OperationConfig{}
	}
}

// applyOperationDefaults applies global defaults to operation-specific configuration
func (c *Config) applyOperationDefaults(opCfg *OperationConfig) {
	if opCfg.Timeout == nil {
		timeout := c.API.DefaultTimeout
		opCfg.Timeout = &timeout
	}
}

// GetOperationConfig returns the configuration for one operation with fallback to api defaults
func (c *Config) GetOperationConfig(name string) OperationConfig {
	config := c.Operations.byName(name)
	c.applyOperationDefaults(&config)
	return config
}

// OperationTimeout returns the resolved timeout for one operation
func (c *Config) OperationTimeout(name string) time.Duration {
	return *c.GetOperationConfig(name).Timeout
}
