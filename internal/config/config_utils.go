package config

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
)

// applyFallbacks applies environment variable fallbacks and derived values
func (c *Config) applyFallbacks() {
	c.applyServerAPIKeyFallbacks()
	c.applyAPIDefaults()
	c.applyTLSDefaults()
	c.applyObservabilityDefaults()
}

// applyServerAPIKeyFallbacks applies API key fallbacks from environment variables
func (c *Config) applyServerAPIKeyFallbacks() {
	if len(c.Server.APIKeys) == 0 {
		if apiKeysEnv := os.Getenv("CAREEROS_SERVER_APIKEYS"); apiKeysEnv != "" {
			c.Server.APIKeys = strings.Split(apiKeysEnv, ",")
			// Trim whitespace from each key
			for i, key := range c.Server.APIKeys {
				c.Server.APIKeys[i] = strings.TrimSpace(key)
			}
		}
	}
}

// applyAPIDefaults derives the health endpoint from the base address
func (c *Config) applyAPIDefaults() {
	c.API.BaseURL = strings.TrimRight(c.API.BaseURL, "/")
	if c.API.HealthURL == "" {
		c.API.HealthURL = DeriveHealthURL(c.API.BaseURL)
	}
}

// DeriveHealthURL returns {scheme}://{host}/health for a versioned base address.
// The service exposes health at its root, outside the API prefix.
func DeriveHealthURL(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return ""
	}
	return fmt.Sprintf("%s://%s/health", u.Scheme, u.Host)
}

// applyTLSDefaults applies default TLS configuration values
func (c *Config) applyTLSDefaults() {
	if c.TLS.Mode == "" {
		c.TLS.Mode = "disabled"
	}
	if c.TLS.MinVersion == "" && c.TLS.Mode != "disabled" {
		c.TLS.MinVersion = "1.2"
	}
}

// applyObservabilityDefaults applies default observability configuration values
func (c *Config) applyObservabilityDefaults() {
	if c.Observability.ServiceInstance == "" {
		c.Observability.ServiceInstance = generateServiceInstanceID(c.Observability.ServiceName)
	}
}

// generateServiceInstanceID generates a unique service instance ID
func generateServiceInstanceID(serviceName string) string {
	// Try to get hostname, fallback to default
	if hostname, err := os.Hostname(); err == nil {
		return fmt.Sprintf("%s-%s", serviceName, hostname)
	}
	return fmt.Sprintf("%s-1", serviceName)
}

// logConfigurationSources logs a summary of configuration sources being used
func (c *Config) logConfigurationSources(configFileUsed string) {
	log.Println("[CONFIG] === Configuration Sources Summary ===")

	if configFileUsed != "" {
		log.Printf("[CONFIG] Config file: %s", configFileUsed)
	} else {
		log.Println("[CONFIG] Config file: None (using defaults)")
	}

	envVars := []string{
		"CAREEROS_API_BASEURL",
		"CAREEROS_API_TOKEN",
		"CAREEROS_API_DEFAULTTIMEOUT",
		"CAREEROS_SERVER_PORT",
		"CAREEROS_SERVER_HOST",
		"CAREEROS_APP_LOGLEVEL",
		"CAREEROS_VAULT_ENABLED",
	}

	log.Println("[CONFIG] Environment variables:")
	hasEnvVars := false
	for _, envVar := range envVars {
		if value := os.Getenv(envVar); value != "" {
			if strings.Contains(strings.ToLower(envVar), "token") {
				log.Printf("[CONFIG]   %s=***MASKED***", envVar)
			} else {
				log.Printf("[CONFIG]   %s=%s", envVar, value)
			}
			hasEnvVars = true
		}
	}
	if !hasEnvVars {
		log.Println("[CONFIG]   None set")
	}

	log.Println("[CONFIG] === Key Configuration Values ===")
	log.Printf("[CONFIG] API Base URL: %s", c.API.BaseURL)
	log.Printf("[CONFIG] API Health URL: %s", c.API.HealthURL)
	if c.API.Token != "" {
		log.Println("[CONFIG] API Token: ***CONFIGURED***")
	} else {
		log.Println("[CONFIG] API Token: ***NOT SET***")
	}
	log.Printf("[CONFIG] Server Host: %s", c.Server.Host)
	log.Printf("[CONFIG] Server Port: %s", c.Server.Port)
	log.Printf("[CONFIG] TLS Mode: %s", c.TLS.Mode)
	log.Printf("[CONFIG] Vault Enabled: %t", c.Vault.Enabled)
	log.Printf("[CONFIG] Observability Enabled: %t", c.Observability.Enabled)

	log.Println("[CONFIG] === Operation Timeouts ===")
	for _, name := range OperationNames {
		log.Printf("[CONFIG] %s: %s", name, c.OperationTimeout(name))
	}

	log.Println("[CONFIG] =====================================")
}
