package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Environment constants
const (
	EnvironmentDevelopment = "development"
	EnvironmentProduction  = "production"
)

// Database driver constants
const (
	DatabaseDriverSQLite   = "sqlite"
	DatabaseDriverPostgres = "postgres"
)

// Rate limit store constants
const (
	RateLimitStoreMemory = "memory"
	RateLimitStoreRedis  = "redis"
)

// Revocation cache type constants
const (
	RevocationCacheTypeMemory = "memory"
	RevocationCacheTypeRedis  = "redis"
)

// Default secrets; rejected when ENVIRONMENT=production.
const (
	defaultJWTSecret     = "your-256-bit-secret-change-in-production"
	defaultSessionSecret = "session-secret-change-in-production"
)

type Config struct {
	// Server settings
	ServerAddr  string
	BaseURL     string
	Environment string // "development" or "production"
	LogLevel    string

	// Token settings
	JWTSecret                   string
	AccessTokenExpiration       time.Duration
	IDTokenExpiration           time.Duration
	RefreshTokenExpiration      time.Duration
	AuthorizationCodeExpiration time.Duration

	// Session settings
	SessionSecret string
	SessionMaxAge int // seconds
	LoginPath     string

	// Database
	DatabaseDriver string // "sqlite" or "postgres"
	DatabaseDSN    string // Database connection string (DSN or path)

	// Account lockout
	LockoutMaxFailedAttempts int
	LockoutDuration          time.Duration

	// Revocation list backend
	RevocationCacheType string // "memory" or "redis"

	// Redis settings (shared by rate limiting and the revocation list)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Rate limiting
	EnableRateLimit bool
	RateLimitStore  string // "memory" or "redis"
	TokenRateLimit  int    // requests per minute on /connect/token
	LoginRateLimit  int    // requests per minute on /account/login

	// Prometheus metrics
	MetricsEnabled bool
	MetricsToken   string // Bearer token protecting /metrics; empty means open

	// Seed data
	SeedDefaultData              bool
	DefaultUser                  string
	DefaultPassword              string
	DefaultClientID              string
	DefaultClientSecret          string
	DefaultRedirectURI           string
	DefaultPostLogoutRedirectURI string

	// Timeouts
	DBInitTimeout         time.Duration
	DBCloseTimeout        time.Duration
	RedisConnTimeout      time.Duration
	RedisCloseTimeout     time.Duration
	CacheInitTimeout      time.Duration
	CacheCloseTimeout     time.Duration
	ServerShutdownTimeout time.Duration
}

func Load() *Config {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	driver := getEnv("DATABASE_DRIVER", DatabaseDriverSQLite)
	var dsn string
	if driver == DatabaseDriverSQLite {
		dsn = getEnv("DATABASE_DSN", "oidcgate.db")
	} else {
		dsn = getEnv("DATABASE_DSN", "")
	}

	return &Config{
		ServerAddr:  getEnv("SERVER_ADDR", ":8080"),
		BaseURL:     strings.TrimRight(getEnv("BASE_URL", "http://localhost:8080"), "/"),
		Environment: getEnv("ENVIRONMENT", EnvironmentDevelopment),
		LogLevel:    getEnv("LOG_LEVEL", "info"),

		JWTSecret:                   getEnv("JWT_SECRET", defaultJWTSecret),
		AccessTokenExpiration:       getEnvDuration("ACCESS_TOKEN_EXPIRATION", time.Hour),
		IDTokenExpiration:           getEnvDuration("ID_TOKEN_EXPIRATION", time.Hour),
		RefreshTokenExpiration:      getEnvDuration("REFRESH_TOKEN_EXPIRATION", 14*24*time.Hour),
		AuthorizationCodeExpiration: getEnvDuration("AUTHORIZATION_CODE_EXPIRATION", 5*time.Minute),

		SessionSecret: getEnv("SESSION_SECRET", defaultSessionSecret),
		SessionMaxAge: getEnvInt("SESSION_MAX_AGE", 3600),
		LoginPath:     "/account/login",

		DatabaseDriver: driver,
		DatabaseDSN:    dsn,

		LockoutMaxFailedAttempts: getEnvInt("LOCKOUT_MAX_FAILED_ATTEMPTS", 5),
		LockoutDuration:          getEnvDuration("LOCKOUT_DURATION", 5*time.Minute),

		RevocationCacheType: getEnv("REVOCATION_CACHE_TYPE", RevocationCacheTypeMemory),

		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		EnableRateLimit: getEnvBool("ENABLE_RATE_LIMIT", true),
		RateLimitStore:  getEnv("RATE_LIMIT_STORE", RateLimitStoreMemory),
		TokenRateLimit:  getEnvInt("TOKEN_RATE_LIMIT", 20),
		LoginRateLimit:  getEnvInt("LOGIN_RATE_LIMIT", 5),

		MetricsEnabled: getEnvBool("METRICS_ENABLED", false),
		MetricsToken:   getEnv("METRICS_TOKEN", ""),

		SeedDefaultData:              getEnvBool("SEED_DEFAULT_DATA", true),
		DefaultUser:                  getEnv("DEFAULT_USER", "vipwan@sina.com"),
		DefaultPassword:              getEnv("DEFAULT_PASSWORD", "123456"),
		DefaultClientID:              getEnv("DEFAULT_CLIENT_ID", "client_id"),
		DefaultClientSecret:          getEnv("DEFAULT_CLIENT_SECRET", "client_secret"),
		DefaultRedirectURI:           getEnv("DEFAULT_REDIRECT_URI", "http://localhost:7125/signin-oidc"),
		DefaultPostLogoutRedirectURI: getEnv("DEFAULT_POST_LOGOUT_REDIRECT_URI", "http://localhost:7125/signout-callback-oidc"),

		DBInitTimeout:         getEnvDuration("DB_INIT_TIMEOUT", 30*time.Second),
		DBCloseTimeout:        getEnvDuration("DB_CLOSE_TIMEOUT", 5*time.Second),
		RedisConnTimeout:      getEnvDuration("REDIS_CONN_TIMEOUT", 5*time.Second),
		RedisCloseTimeout:     getEnvDuration("REDIS_CLOSE_TIMEOUT", 5*time.Second),
		CacheInitTimeout:      getEnvDuration("CACHE_INIT_TIMEOUT", 5*time.Second),
		CacheCloseTimeout:     getEnvDuration("CACHE_CLOSE_TIMEOUT", 5*time.Second),
		ServerShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 5*time.Second),
	}
}

// IsProduction reports whether ENVIRONMENT=production.
func (c *Config) IsProduction() bool {
	return c.Environment == EnvironmentProduction
}

// Validate checks enumerated values and secrets. It does not touch the network.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case DatabaseDriverSQLite, DatabaseDriverPostgres:
	default:
		return fmt.Errorf(
			"invalid DATABASE_DRIVER value: %q (must be %q or %q)",
			c.DatabaseDriver, DatabaseDriverSQLite, DatabaseDriverPostgres,
		)
	}

	if c.EnableRateLimit {
		switch c.RateLimitStore {
		case RateLimitStoreMemory:
		case RateLimitStoreRedis:
			if c.RedisAddr == "" {
				return errors.New(`RATE_LIMIT_STORE="redis" requires REDIS_ADDR`)
			}
		default:
			return fmt.Errorf(
				"invalid RATE_LIMIT_STORE value: %q (must be %q or %q)",
				c.RateLimitStore, RateLimitStoreMemory, RateLimitStoreRedis,
			)
		}
	}

	switch c.RevocationCacheType {
	case RevocationCacheTypeMemory:
	case RevocationCacheTypeRedis:
		if c.RedisAddr == "" {
			return errors.New(`REVOCATION_CACHE_TYPE="redis" requires REDIS_ADDR`)
		}
	default:
		return fmt.Errorf(
			"invalid REVOCATION_CACHE_TYPE value: %q (must be %q or %q)",
			c.RevocationCacheType, RevocationCacheTypeMemory, RevocationCacheTypeRedis,
		)
	}

	if c.AccessTokenExpiration <= 0 || c.IDTokenExpiration <= 0 ||
		c.RefreshTokenExpiration <= 0 || c.AuthorizationCodeExpiration <= 0 {
		return errors.New("token lifetimes must be positive")
	}

	if c.IsProduction() {
		if c.JWTSecret == "" || c.JWTSecret == defaultJWTSecret {
			return errors.New("JWT_SECRET must be set to a non-default value in production")
		}
		if c.SessionSecret == "" || c.SessionSecret == defaultSessionSecret {
			return errors.New("SESSION_SECRET must be set to a non-default value in production")
		}
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must not be empty")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var i int
		if _, err := fmt.Sscanf(value, "%d", &i); err == nil {
			return i
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
