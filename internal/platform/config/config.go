package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config captures everything the server reads from the environment. It is
// loaded once in main and passed down read-only.
type Config struct {
	Addr        string
	Environment string
	StaticDir   string

	Cookie   Cookie
	Provider Provider
	Redis    RedisConfig
	Audit    Audit
	Lockout  Lockout
}

// Cookie controls the session cookie issued after authentication.
type Cookie struct {
	Name   string
	MaxAge time.Duration
}

// Provider points at the external identity provider. An empty URL selects the
// in-process development provider.
type Provider struct {
	URL     string
	APIKey  string
	JWKSURL string
	Timeout time.Duration
}

// RedisConfig tunes the shared Redis client. An empty URL disables Redis and
// the lockout store falls back to memory.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// Audit selects where audit events are drained to. With neither a DSN nor
// brokers configured, events stay in the in-memory store.
type Audit struct {
	PostgresDSN  string
	KafkaBrokers []string
	KafkaTopic   string
	BufferSize   int
}

// Lockout tunes the failed sign-in lockout.
type Lockout struct {
	MaxFailures  int
	Window       time.Duration
	LockDuration time.Duration
	Disabled     bool
}

// IsProduction reports whether the server runs with production hardening
// (secure cookies, JSON logs).
func (c Config) IsProduction() bool {
	return c.Environment == "production"
}

// FromEnv builds the config from environment variables so main stays lean.
func FromEnv() Config {
	return Config{
		Addr:        getEnv("AUTHGATE_ADDR", ":8080"),
		Environment: getEnv("AUTHGATE_ENV", "development"),
		StaticDir:   getEnv("AUTHGATE_STATIC_DIR", "./client/dist"),
		Cookie: Cookie{
			Name:   getEnv("AUTHGATE_COOKIE_NAME", "session"),
			MaxAge: getDuration("AUTHGATE_COOKIE_MAX_AGE", 168*time.Hour),
		},
		Provider: Provider{
			URL:     os.Getenv("AUTHGATE_PROVIDER_URL"),
			APIKey:  os.Getenv("AUTHGATE_PROVIDER_API_KEY"),
			JWKSURL: os.Getenv("AUTHGATE_PROVIDER_JWKS_URL"),
			Timeout: getDuration("AUTHGATE_PROVIDER_TIMEOUT", 10*time.Second),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("AUTHGATE_REDIS_URL"),
			PoolSize:     getInt("AUTHGATE_REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("AUTHGATE_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("AUTHGATE_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("AUTHGATE_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("AUTHGATE_REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Audit: Audit{
			PostgresDSN:  os.Getenv("AUTHGATE_AUDIT_POSTGRES_DSN"),
			KafkaBrokers: getList("AUTHGATE_AUDIT_KAFKA_BROKERS"),
			KafkaTopic:   getEnv("AUTHGATE_AUDIT_KAFKA_TOPIC", "authgate.audit"),
			BufferSize:   getInt("AUTHGATE_AUDIT_BUFFER_SIZE", 1024),
		},
		Lockout: Lockout{
			MaxFailures:  getInt("AUTHGATE_LOCKOUT_MAX_FAILURES", 5),
			Window:       getDuration("AUTHGATE_LOCKOUT_WINDOW", 15*time.Minute),
			LockDuration: getDuration("AUTHGATE_LOCKOUT_DURATION", 15*time.Minute),
			Disabled:     os.Getenv("AUTHGATE_LOCKOUT_DISABLED") == "true",
		},
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

// getList splits a comma-separated variable, dropping empty entries.
func getList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
