// Package config builds runtime configuration from environment variables so
// main stays lean. Every knob has a development default; production overrides
// via STC_* variables.
package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config aggregates all runtime configuration.
type Config struct {
	Server   Server
	Token    Token
	Postgres Postgres
	Redis    Redis
	Kafka    Kafka
	Audit    Audit
	Scope    Scope
	Device   Device
	LogLevel string
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	ShutdownTimeout time.Duration
}

// Token configures verification of identity provider tokens.
type Token struct {
	SigningKey string
	Issuer     string
	Audience   string
}

// Postgres configures the catalog and profile database pool.
type Postgres struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Redis configures the device scope cache backend.
type Redis struct {
	URL            string
	PoolSize       int
	MinIdleConns   int
	DialTimeout    time.Duration
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	DeviceScopeTTL time.Duration
}

// Kafka configures the audit publisher and the identity event consumer.
// Empty Brokers disables Kafka entirely.
type Kafka struct {
	Brokers         []string
	AuditTopic      string
	IdentityTopic   string
	ConsumerGroup   string
	TopicPartitions int32
}

// Audit configures the in-process audit pipeline.
type Audit struct {
	BufferSize    int
	FlushInterval time.Duration
}

// Scope tunes the resolution engine.
type Scope struct {
	ResolveTimeout      time.Duration
	ProfileWriteTimeout time.Duration
}

// Device configures the device enrollment registry. With enforcement off,
// unenrolled device ids still key the device scope cache.
type Device struct {
	EnforceEnrollment bool
}

// FromEnv builds a Config from environment variables.
func FromEnv() Config {
	return Config{
		Server: Server{
			Addr:            getEnv("STC_ADDR", ":8080"),
			ShutdownTimeout: getDuration("STC_SHUTDOWN_TIMEOUT", 15*time.Second),
		},
		Token: Token{
			// Default is for development only; production must override.
			SigningKey: getEnv("STC_TOKEN_SIGNING_KEY", "dev-secret-key-change-in-production"),
			Issuer:     getEnv("STC_TOKEN_ISSUER", "shepherds-table-identity"),
			Audience:   getEnv("STC_TOKEN_AUDIENCE", "shepherds-table-cloud"),
		},
		Postgres: Postgres{
			DSN:             getEnv("STC_POSTGRES_DSN", ""),
			MaxOpenConns:    getInt("STC_POSTGRES_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("STC_POSTGRES_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDuration("STC_POSTGRES_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: Redis{
			URL:            getEnv("STC_REDIS_URL", ""),
			PoolSize:       getInt("STC_REDIS_POOL_SIZE", 10),
			MinIdleConns:   getInt("STC_REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:    getDuration("STC_REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:    getDuration("STC_REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout:   getDuration("STC_REDIS_WRITE_TIMEOUT", 3*time.Second),
			DeviceScopeTTL: getDuration("STC_REDIS_DEVICE_SCOPE_TTL", 30*24*time.Hour),
		},
		Kafka: Kafka{
			Brokers:         getList("STC_KAFKA_BROKERS"),
			AuditTopic:      getEnv("STC_KAFKA_AUDIT_TOPIC", "scope-audit"),
			IdentityTopic:   getEnv("STC_KAFKA_IDENTITY_TOPIC", "identity-events"),
			ConsumerGroup:   getEnv("STC_KAFKA_CONSUMER_GROUP", "shepherds-table-cloud"),
			TopicPartitions: int32(getInt("STC_KAFKA_TOPIC_PARTITIONS", 3)),
		},
		Audit: Audit{
			BufferSize:    getInt("STC_AUDIT_BUFFER_SIZE", 4096),
			FlushInterval: getDuration("STC_AUDIT_FLUSH_INTERVAL", 2*time.Second),
		},
		Scope: Scope{
			ResolveTimeout:      getDuration("STC_SCOPE_RESOLVE_TIMEOUT", 10*time.Second),
			ProfileWriteTimeout: getDuration("STC_SCOPE_PROFILE_WRITE_TIMEOUT", 5*time.Second),
		},
		Device: Device{
			EnforceEnrollment: getBool("STC_DEVICE_ENFORCE_ENROLLMENT", false),
		},
		LogLevel: getEnv("STC_LOG_LEVEL", "info"),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getList(key string) []string {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
