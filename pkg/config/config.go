package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/marketgrid/gatekeeper/pkg/observability"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Server ServerConfig

	// Identity backend configuration
	Identity IdentityConfig

	// Audit sink configuration
	Audit AuditConfig

	// Policy configuration
	Policy PolicyConfig

	// Observability configuration
	Observability ObservabilityConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// Health/metrics server (separate port for k8s probes)
	HealthPort string
}

// IdentityConfig holds identity backend settings
type IdentityConfig struct {
	// BackendURL is the base URL of the identity/business backend
	BackendURL string

	// CookieName is the cookie carrying the bearer token
	CookieName string

	// FetchTimeout bounds the per-request session exchange; on timeout the
	// caller is treated as unauthenticated
	FetchTimeout time.Duration
}

// AuditConfig holds audit sink settings
type AuditConfig struct {
	// Enabled toggles audit delivery; when false a no-op recorder is used
	Enabled bool

	// InternalKey is the shared secret sent in the x-internal-secret header
	InternalKey string

	// DeliveryTimeout bounds a single fire-and-forget delivery attempt
	DeliveryTimeout time.Duration
}

// PolicyConfig holds authorization policy settings
type PolicyConfig struct {
	// Mode selects the rule set: "portal" or "onboarding"
	Mode string

	// BypassPrefixes are path prefixes the gate never intercepts
	BypassPrefixes []string
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	LogLevel       observability.LogLevel
	MetricsEnabled bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Server:        loadServerConfig(),
		Identity:      loadIdentityConfig(),
		Audit:         loadAuditConfig(),
		Policy:        loadPolicyConfig(),
		Observability: loadObservabilityConfig(),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// loadServerConfig loads server configuration from environment
func loadServerConfig() ServerConfig {
	return ServerConfig{
		Host:            getEnv("GATE_HOST", "0.0.0.0"),
		Port:            getEnv("GATE_PORT", "8080"),
		ReadTimeout:     getEnvDuration("GATE_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    getEnvDuration("GATE_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:     getEnvDuration("GATE_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: getEnvDuration("GATE_SHUTDOWN_TIMEOUT", 30*time.Second),
		HealthPort:      getEnv("GATE_HEALTH_PORT", "9090"),
	}
}

// loadIdentityConfig loads identity backend configuration from environment
func loadIdentityConfig() IdentityConfig {
	return IdentityConfig{
		BackendURL:   getEnv("GATE_BACKEND_API_URL", ""),
		CookieName:   getEnv("GATE_SESSION_COOKIE", "auth_token"),
		FetchTimeout: getEnvDuration("GATE_SESSION_FETCH_TIMEOUT", 3*time.Second),
	}
}

// loadAuditConfig loads audit sink configuration from environment
func loadAuditConfig() AuditConfig {
	return AuditConfig{
		Enabled:         getEnvBool("GATE_AUDIT_ENABLED", true),
		InternalKey:     getEnv("GATE_INTERNAL_AUTH_KEY", ""),
		DeliveryTimeout: getEnvDuration("GATE_AUDIT_TIMEOUT", 5*time.Second),
	}
}

// loadPolicyConfig loads policy configuration from environment
func loadPolicyConfig() PolicyConfig {
	cfg := PolicyConfig{
		Mode: getEnv("GATE_POLICY_MODE", "portal"),
		BypassPrefixes: []string{
			"/api",
			"/_next/static",
			"/_next/image",
		},
	}

	if prefixes := getEnv("GATE_BYPASS_PREFIXES", ""); prefixes != "" {
		cfg.BypassPrefixes = nil
		for _, p := range strings.Split(prefixes, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.BypassPrefixes = append(cfg.BypassPrefixes, p)
			}
		}
	}

	return cfg
}

// loadObservabilityConfig loads observability configuration from environment
func loadObservabilityConfig() ObservabilityConfig {
	return ObservabilityConfig{
		LogLevel:       parseLogLevel(getEnv("GATE_LOG_LEVEL", "info")),
		MetricsEnabled: getEnvBool("GATE_METRICS_ENABLED", true),
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("server port is required")
	}
	if c.Server.HealthPort == "" {
		return fmt.Errorf("health port is required")
	}
	if c.Server.Port == c.Server.HealthPort {
		return fmt.Errorf("server port and health port must be different")
	}

	if c.Identity.BackendURL == "" {
		return fmt.Errorf("backend API URL is required (GATE_BACKEND_API_URL)")
	}
	if u, err := url.Parse(c.Identity.BackendURL); err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend API URL is not a valid absolute URL: %s", c.Identity.BackendURL)
	}
	if c.Identity.CookieName == "" {
		return fmt.Errorf("session cookie name is required")
	}
	if c.Identity.FetchTimeout <= 0 {
		return fmt.Errorf("session fetch timeout must be positive")
	}

	if c.Audit.Enabled && c.Audit.InternalKey == "" {
		return fmt.Errorf("internal auth key is required when audit is enabled (GATE_INTERNAL_AUTH_KEY)")
	}

	switch c.Policy.Mode {
	case "portal", "onboarding":
	default:
		return fmt.Errorf("invalid policy mode: %s (must be portal or onboarding)", c.Policy.Mode)
	}

	return nil
}

// parseLogLevel parses a log level string
func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "info":
		return observability.InfoLevel
	case "warn", "warning":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}

// getEnv returns an environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool returns a boolean environment variable or a default
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return strings.ToLower(value) == "true" || value == "1"
	}
	return defaultValue
}

// getEnvDuration returns a duration environment variable or a default
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
