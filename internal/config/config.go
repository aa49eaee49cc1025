package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	// Server
	ServerAddr string
	ServerPort int

	// Platform database (tenant registry and shared platform records)
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Tenant database defaults, used when a tenant record carries no
	// explicit database URL
	TenantDBHost     string
	TenantDBPort     int
	TenantDBUser     string
	TenantDBPassword string
	TenantDBSSLMode  string

	// Tenant connection pool
	Pool PoolConfig

	// Development mode: bypasses header-based tenant resolution
	DevMode     bool
	DevTenantID string

	// Paths that bypass tenant resolution entirely. Entries ending in "*"
	// match by prefix, everything else matches exactly.
	ExcludedPaths []string

	// Rate limiting
	RateLimit RateLimitConfig

	// Security response headers
	SecurityHeaders SecurityHeadersConfig

	// Request validation
	Validation ValidationConfig
}

// PoolConfig holds tenant connection pool tuning parameters.
type PoolConfig struct {
	MaxConns       int
	IdleTimeout    time.Duration
	AcquireTimeout time.Duration
	ReapInterval   time.Duration
}

// RateLimitConfig holds rate limiting configuration.
type RateLimitConfig struct {
	Enabled                bool
	WriteRequestsPerMinute int
	OpsRequestsPerMinute   int
}

// SecurityHeadersConfig holds the security headers applied to every
// response. Empty values leave the corresponding header unset.
type SecurityHeadersConfig struct {
	Enabled            bool
	CSP                string
	HSTSMaxAge         int
	FrameOptions       string
	ContentTypeOptions string
	XSSProtection      string
	ReferrerPolicy     string
	PermissionsPolicy  string
}

// ValidationConfig holds request validation limits.
type ValidationConfig struct {
	MaxRequestBodySize int64
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		// Server defaults
		ServerAddr: getEnv("SERVER_ADDR", "0.0.0.0"),
		ServerPort: getEnvInt("SERVER_PORT", 8080),

		// Platform database defaults
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnvInt("DB_PORT", 5432),
		DBUser:     getEnv("DB_USER", "postgres"),
		DBPassword: getEnv("DB_PASSWORD", "postgres"),
		DBName:     getEnv("DB_NAME", "mentorhub_platform"),
		DBSSLMode:  getEnv("DB_SSLMODE", "disable"),

		// Tenant database defaults (fall back to the platform host)
		TenantDBHost:     getEnv("TENANT_DB_HOST", getEnv("DB_HOST", "localhost")),
		TenantDBPort:     getEnvInt("TENANT_DB_PORT", getEnvInt("DB_PORT", 5432)),
		TenantDBUser:     getEnv("TENANT_DB_USER", getEnv("DB_USER", "postgres")),
		TenantDBPassword: getEnv("TENANT_DB_PASSWORD", getEnv("DB_PASSWORD", "postgres")),
		TenantDBSSLMode:  getEnv("TENANT_DB_SSLMODE", getEnv("DB_SSLMODE", "disable")),

		// Pool defaults
		Pool: PoolConfig{
			MaxConns:       getEnvInt("POOL_MAX_CONNS", 10),
			IdleTimeout:    getEnvDuration("POOL_IDLE_TIMEOUT", 10*time.Minute),
			AcquireTimeout: getEnvDuration("POOL_ACQUIRE_TIMEOUT", 5*time.Second),
			ReapInterval:   getEnvDuration("POOL_REAP_INTERVAL", time.Minute),
		},

		// Development mode (never enable in a production posture)
		DevMode:     getEnvBool("DEV_MODE", false),
		DevTenantID: getEnv("DEV_TENANT_ID", "tnt_dev"),

		ExcludedPaths: getEnvList("EXCLUDED_PATHS", []string{"/health", "/metrics", "/v1/ops/*"}),

		RateLimit: RateLimitConfig{
			Enabled:                getEnvBool("RATE_LIMIT_ENABLED", true),
			WriteRequestsPerMinute: getEnvInt("RATE_LIMIT_WRITE_PER_MINUTE", 60),
			OpsRequestsPerMinute:   getEnvInt("RATE_LIMIT_OPS_PER_MINUTE", 30),
		},

		// JSON API defaults; HSTS stays off until TLS terminates here
		SecurityHeaders: SecurityHeadersConfig{
			Enabled:            getEnvBool("SECURITY_HEADERS_ENABLED", true),
			CSP:                getEnv("SECURITY_CSP", "default-src 'none'"),
			HSTSMaxAge:         getEnvInt("SECURITY_HSTS_MAX_AGE", 0),
			FrameOptions:       getEnv("SECURITY_FRAME_OPTIONS", "DENY"),
			ContentTypeOptions: getEnv("SECURITY_CONTENT_TYPE_OPTIONS", "nosniff"),
			XSSProtection:      getEnv("SECURITY_XSS_PROTECTION", "1; mode=block"),
			ReferrerPolicy:     getEnv("SECURITY_REFERRER_POLICY", "strict-origin-when-cross-origin"),
			PermissionsPolicy:  getEnv("SECURITY_PERMISSIONS_POLICY", ""),
		},

		Validation: ValidationConfig{
			MaxRequestBodySize: getEnvInt64("MAX_REQUEST_BODY_SIZE", 1<<20),
		},
	}

	// Validate pool parameters
	if cfg.Pool.IdleTimeout <= 0 {
		return nil, fmt.Errorf("POOL_IDLE_TIMEOUT must be positive")
	}
	if cfg.Pool.AcquireTimeout <= 0 {
		return nil, fmt.Errorf("POOL_ACQUIRE_TIMEOUT must be positive")
	}
	if cfg.Pool.ReapInterval <= 0 {
		return nil, fmt.Errorf("POOL_REAP_INTERVAL must be positive")
	}
	if cfg.Validation.MaxRequestBodySize <= 0 {
		return nil, fmt.Errorf("MAX_REQUEST_BODY_SIZE must be positive")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parts := strings.Split(value, ",")
	list := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			list = append(list, p)
		}
	}
	if len(list) == 0 {
		return defaultValue
	}
	return list
}
