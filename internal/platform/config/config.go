package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	AdminToken      string
	ShutdownTimeout time.Duration
}

// Registry configures the institution registry index.
//
// MinQueryLength is the core matcher threshold; HTTPMinQueryLength is the
// threshold applied by the search endpoint before the core is called.
type Registry struct {
	Path               string
	MinQueryLength     int
	HTTPMinQueryLength int
}

// RedisConfig configures the optional Redis connection used to fan out
// registry invalidations across instances. An empty URL disables Redis.
type RedisConfig struct {
	URL                 string
	PoolSize            int
	MinIdleConns        int
	DialTimeout         time.Duration
	ReadTimeout         time.Duration
	WriteTimeout        time.Duration
	InvalidationChannel string
}

// Log configures the structured logger.
type Log struct {
	Level  string
	Format string
}

// Config is the full process configuration.
type Config struct {
	Server   Server
	Registry Registry
	Redis    RedisConfig
	Log      Log
}

const (
	DefaultRegistryPath          = "data/rspo.csv"
	DefaultMinQueryLength        = 2
	DefaultHTTPMinQueryLength    = 3
	DefaultInvalidationChannel   = "intake:registry:invalidate"
	defaultAdminTokenDevelopment = "dev-admin-token-change-in-production"
)

// FromEnv builds a Config from environment variables so main stays lean.
func FromEnv() Config {
	adminToken := os.Getenv("ADMIN_API_TOKEN")
	if adminToken == "" {
		// Development default; production deployments set ADMIN_API_TOKEN.
		adminToken = defaultAdminTokenDevelopment
	}

	return Config{
		Server: Server{
			Addr:            envString("INTAKE_ADDR", ":8080"),
			AdminToken:      adminToken,
			ShutdownTimeout: envDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Registry: Registry{
			Path:               envString("REGISTRY_PATH", DefaultRegistryPath),
			MinQueryLength:     envInt("REGISTRY_MIN_QUERY_LENGTH", DefaultMinQueryLength),
			HTTPMinQueryLength: envInt("REGISTRY_HTTP_MIN_QUERY_LENGTH", DefaultHTTPMinQueryLength),
		},
		Redis: RedisConfig{
			URL:                 os.Getenv("REDIS_URL"),
			PoolSize:            envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns:        envInt("REDIS_MIN_IDLE_CONNS", 1),
			DialTimeout:         envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:         envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout:        envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
			InvalidationChannel: envString("REDIS_INVALIDATION_CHANNEL", DefaultInvalidationChannel),
		},
		Log: Log{
			Level:  envString("LOG_LEVEL", "info"),
			Format: envString("LOG_FORMAT", "json"),
		},
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// envInt ignores malformed and negative values rather than failing startup.
func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
