package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	RateLimit    RateLimitConfig
	Throttle     ThrottleConfig
	Notification NotificationConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
	TrustProxy            bool
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN               string
	ApplicationName   string
	MaxConns          int32
	MinConns          int32
	RunMigrations     bool
	MigrationsDir     string
	ConnMaxIdleSec    int32
	ConnMaxLifeSec    int32
	ConnectTimeoutSec int
	HealthCheckSec    int
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines how callers are identified and which roles they get.
type AuthConfig struct {
	JWTSecret       string
	TokenTTLMinutes int
	CookieName      string
	HostEmails      []string
	AgentEmails     []string
}

// RateLimitConfig bounds agent application submissions per client IP.
type RateLimitConfig struct {
	Submissions  int
	WindowHours  int
	Backend      string
	SweepMinutes int
}

// ThrottleConfig is a coarse per-IP request throttle for every route.
type ThrottleConfig struct {
	RequestsPerSecond float64
	Burst             int
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	rps, err := strconv.ParseFloat(getEnv("THROTTLE_RPS", "20"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid THROTTLE_RPS: %w", err)
	}

	backend := strings.ToLower(getEnv("RATE_LIMIT_BACKEND", "memory"))
	if backend != "memory" && backend != "redis" {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BACKEND %q: want memory or redis", backend)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "primewheels-agent-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
			TrustProxy:            getEnvAsBool("APP_TRUST_PROXY", false),
		},
		Postgres: PostgresConfig{
			DSN:               os.Getenv("POSTGRES_DSN"),
			ApplicationName:   getEnv("POSTGRES_APPLICATION_NAME", getEnv("APP_NAME", "primewheels-agent-service")),
			MaxConns:          int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:          int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:     getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			MigrationsDir:     getEnv("MIGRATIONS_DIR", "migrations"),
			ConnMaxIdleSec:    int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec:    int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
			ConnectTimeoutSec: getEnvAsInt("POSTGRES_CONNECT_TIMEOUT_SECONDS", 5),
			HealthCheckSec:    getEnvAsInt("POSTGRES_HEALTH_CHECK_SECONDS", 30),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:       getEnv("AUTH_JWT_SECRET", "dev-secret"),
			TokenTTLMinutes: getEnvAsInt("AUTH_TOKEN_TTL_MINUTES", 60),
			CookieName:      getEnv("AUTH_COOKIE_NAME", "access_token"),
			HostEmails:      getEnvAsList("HOST_EMAILS"),
			AgentEmails:     getEnvAsList("AGENT_EMAILS"),
		},
		RateLimit: RateLimitConfig{
			Submissions:  getEnvAsInt("RATE_LIMIT_SUBMISSIONS", 3),
			WindowHours:  getEnvAsInt("RATE_LIMIT_WINDOW_HOURS", 24),
			Backend:      backend,
			SweepMinutes: getEnvAsInt("RATE_LIMIT_SWEEP_MINUTES", 15),
		},
		Throttle: ThrottleConfig{
			RequestsPerSecond: rps,
			Burst:             getEnvAsInt("THROTTLE_BURST", 40),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@primewheels.example"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Window returns the submission window length.
func (r RateLimitConfig) Window() time.Duration {
	if r.WindowHours <= 0 {
		return 0
	}
	return time.Duration(r.WindowHours) * time.Hour
}

// SweepInterval returns how often expired in-memory counters are pruned.
func (r RateLimitConfig) SweepInterval() time.Duration {
	if r.SweepMinutes <= 0 {
		return 0
	}
	return time.Duration(r.SweepMinutes) * time.Minute
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

// getEnvAsList splits a comma separated value, dropping blanks.
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
