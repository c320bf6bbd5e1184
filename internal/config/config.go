package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Supported values for DataBackend and GoalClockBackend.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"

	ClockMemory = "memory"
	ClockNATS   = "nats"
)

type Config struct {
	// HTTP Server
	Port               string        `yaml:"port"`
	LogLevel           string        `yaml:"log_level"`
	RateLimitPerMinute int           `yaml:"rate_limit_per_minute"`
	CORSAllowedOrigins []string      `yaml:"cors_allowed_origins"`
	SummaryCacheTTL    time.Duration `yaml:"summary_cache_ttl"`

	// Auth
	AuthSecret string `yaml:"auth_secret"`

	// Backend selection
	DataBackend string `yaml:"data_backend"`

	// Database
	SQLiteDBPath string `yaml:"sqlite_db_path"`
	PostgresURL  string `yaml:"postgres_url"`

	// AMQP
	AMQPURL      string `yaml:"amqp_url"`
	AMQPExchange string `yaml:"amqp_exchange"`
	AMQPQueue    string `yaml:"amqp_queue"`

	// Passive income goal throttle
	GoalClockBackend   string        `yaml:"goal_clock_backend"`
	NATSURL            string        `yaml:"nats_url"`
	GoalClockBucket    string        `yaml:"goal_clock_bucket"`
	GoalUpdateCooldown time.Duration `yaml:"goal_update_cooldown"`
	GoalClockMaxUsers  int           `yaml:"goal_clock_max_users"`

	// Worker
	SnapshotSchedule    string `yaml:"snapshot_schedule"`
	GoalRefreshSchedule string `yaml:"goal_refresh_schedule"`
}

func Load() *Config {
	cfg := &Config{
		Port:               getEnv("PORT", "8081"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", nil),
		SummaryCacheTTL:    getEnvDuration("SUMMARY_CACHE_TTL", 30*time.Second),

		AuthSecret: getEnv("AUTH_SECRET", ""),

		DataBackend: getEnv("DATA_BACKEND", BackendMemory),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/finboard.db"),
		PostgresURL:  getEnv("POSTGRES_URL", ""),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "finboard"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "finance_changed"),

		GoalClockBackend:   getEnv("GOAL_CLOCK_BACKEND", ClockMemory),
		NATSURL:            getEnv("NATS_URL", ""),
		GoalClockBucket:    getEnv("GOAL_CLOCK_BUCKET", "finboard_goal_clock"),
		GoalUpdateCooldown: getEnvDuration("GOAL_UPDATE_COOLDOWN", 5*time.Second),
		GoalClockMaxUsers:  getEnvInt("GOAL_CLOCK_MAX_USERS", 10000),

		SnapshotSchedule:    getEnv("SNAPSHOT_SCHEDULE", "0 2 * * *"),
		GoalRefreshSchedule: getEnv("GOAL_REFRESH_SCHEDULE", "@every 1m"),
	}

	return cfg
}

// ApplyFile overlays the non-zero values of a YAML file on top of c.
// Keys missing from the file keep their environment value.
func (c *Config) ApplyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}

	var overlay Config
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}

	setString(&c.Port, overlay.Port)
	setString(&c.LogLevel, overlay.LogLevel)
	setString(&c.AuthSecret, overlay.AuthSecret)
	setString(&c.DataBackend, overlay.DataBackend)
	setString(&c.SQLiteDBPath, overlay.SQLiteDBPath)
	setString(&c.PostgresURL, overlay.PostgresURL)
	setString(&c.AMQPURL, overlay.AMQPURL)
	setString(&c.AMQPExchange, overlay.AMQPExchange)
	setString(&c.AMQPQueue, overlay.AMQPQueue)
	setString(&c.GoalClockBackend, overlay.GoalClockBackend)
	setString(&c.NATSURL, overlay.NATSURL)
	setString(&c.GoalClockBucket, overlay.GoalClockBucket)
	setString(&c.SnapshotSchedule, overlay.SnapshotSchedule)
	setString(&c.GoalRefreshSchedule, overlay.GoalRefreshSchedule)

	if overlay.RateLimitPerMinute != 0 {
		c.RateLimitPerMinute = overlay.RateLimitPerMinute
	}
	if overlay.GoalClockMaxUsers != 0 {
		c.GoalClockMaxUsers = overlay.GoalClockMaxUsers
	}
	if overlay.GoalUpdateCooldown != 0 {
		c.GoalUpdateCooldown = overlay.GoalUpdateCooldown
	}
	if overlay.SummaryCacheTTL != 0 {
		c.SummaryCacheTTL = overlay.SummaryCacheTTL
	}
	if len(overlay.CORSAllowedOrigins) > 0 {
		c.CORSAllowedOrigins = overlay.CORSAllowedOrigins
	}
	return nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	// Validate data backend
	validBackends := []string{BackendMemory, BackendSQLite, BackendPostgres}
	if !oneOf(c.DataBackend, validBackends) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	// Validate SQLite configuration if backend is sqlite
	if c.DataBackend == BackendSQLite {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	// Validate Postgres configuration if backend is postgres
	if c.DataBackend == BackendPostgres {
		if c.PostgresURL == "" {
			errors = append(errors, "Postgres URL cannot be empty when using postgres backend")
		} else if parsedURL, err := url.Parse(c.PostgresURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid Postgres URL: %v", err))
		} else if parsedURL.Scheme != "postgres" && parsedURL.Scheme != "postgresql" {
			errors = append(errors, fmt.Sprintf("invalid Postgres URL scheme '%s': must be 'postgres' or 'postgresql'", parsedURL.Scheme))
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.AuthSecret != "" && len(c.AuthSecret) < 16 {
		errors = append(errors, "auth secret must be at least 16 characters")
	}

	// Validate goal clock
	validClocks := []string{ClockMemory, ClockNATS}
	if !oneOf(c.GoalClockBackend, validClocks) {
		errors = append(errors, fmt.Sprintf("invalid goal clock backend '%s': must be one of %v", c.GoalClockBackend, validClocks))
	}
	if c.GoalClockBackend == ClockNATS {
		if c.NATSURL == "" {
			errors = append(errors, "NATS URL is required when using nats goal clock")
		}
		if c.GoalClockBucket == "" {
			errors = append(errors, "goal clock bucket cannot be empty when using nats goal clock")
		}
	}
	if c.GoalUpdateCooldown < 0 {
		errors = append(errors, fmt.Sprintf("invalid goal update cooldown %v: must not be negative", c.GoalUpdateCooldown))
	} else if c.GoalUpdateCooldown > time.Hour {
		errors = append(errors, fmt.Sprintf("invalid goal update cooldown %v: must be at most 1 hour", c.GoalUpdateCooldown))
	}
	if c.GoalClockMaxUsers < 1 {
		errors = append(errors, fmt.Sprintf("invalid goal clock max users %d: must be at least 1", c.GoalClockMaxUsers))
	}

	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 per minute", c.RateLimitPerMinute))
	}
	if c.SummaryCacheTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid summary cache TTL %v: must not be negative", c.SummaryCacheTTL))
	}

	if c.SnapshotSchedule != "" {
		if _, err := cron.ParseStandard(c.SnapshotSchedule); err != nil {
			errors = append(errors, fmt.Sprintf("invalid snapshot schedule '%s': %v", c.SnapshotSchedule, err))
		}
	}
	if c.GoalRefreshSchedule != "" {
		if _, err := cron.ParseStandard(c.GoalRefreshSchedule); err != nil {
			errors = append(errors, fmt.Sprintf("invalid goal refresh schedule '%s': %v", c.GoalRefreshSchedule, err))
		}
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
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
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
