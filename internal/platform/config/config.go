package config

import (
	"fmt"
	"log/slog"
	"math"
	"net/netip"
	"os"
	"strconv"
	"strings"
	"time"

	id "classreg/pkg/domain"
)

// Storage backends accepted by REGISTRY_BACKEND.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendRedis    = "redis"
)

// Config is the full process configuration.
type Config struct {
	Server    Server
	Registry  Registry
	Database  DatabaseConfig
	SQLite    SQLiteConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	NATS      NATSConfig
	Notifier  NotifierConfig
	Auth      AuthConfig
	RateLimit RateLimitConfig
}

// MinJWTSigningKeyLen is the shortest HMAC key accepted for bearer tokens.
const MinJWTSigningKeyLen = 32

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string
	LogLevel        slog.Level
	ShutdownTimeout time.Duration
	// TrustedProxies lists the peers whose X-Forwarded-For and X-Real-IP
	// headers are believed. Empty means the socket peer is the client.
	TrustedProxies []netip.Prefix
}

// Registry names the owner and where the registry lives.
type Registry struct {
	Owner   id.AccountID
	Backend string
}

type DatabaseConfig struct {
	// Driver is the database/sql driver name: "pgx" or "postgres" (lib/pq).
	Driver       string
	URL          string
	MaxOpenConns int
	MaxIdleConns int
}

type SQLiteConfig struct {
	Path string
}

type RedisConfig struct {
	URL          string
	Prefix       string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig enables the Kafka notifier when Brokers is non-empty.
type KafkaConfig struct {
	Brokers           []string
	Topic             string
	ClientID          string
	Partitions        int32
	ReplicationFactor int16
	ProduceTimeout    time.Duration
}

// NATSConfig enables the NATS notifier when URL is set.
type NATSConfig struct {
	URL     string
	Subject string
}

type NotifierConfig struct {
	FailureThreshold int
	Cooldown         time.Duration
}

type AuthConfig struct {
	JWTSigningKey string
	Issuer        string
	Audience      string
	TokenTTL      time.Duration
}

// RateLimitConfig bounds reads per client IP. Zero disables the limiter.
type RateLimitConfig struct {
	ReadsPerWindow int
	Window         time.Duration
}

// FromEnv builds the config from environment variables so main stays lean.
func FromEnv() (Config, error) {
	var cfg Config
	var err error

	cfg.Server = Server{
		Addr:            getEnv("CLASSREG_ADDR", ":8080"),
		ShutdownTimeout: 15 * time.Second,
	}
	if cfg.Server.LogLevel, err = parseLevel(getEnv("LOG_LEVEL", "info")); err != nil {
		return Config{}, err
	}
	if cfg.Server.ShutdownTimeout, err = getDuration("SHUTDOWN_TIMEOUT", cfg.Server.ShutdownTimeout); err != nil {
		return Config{}, err
	}
	if cfg.Server.TrustedProxies, err = parsePrefixes("TRUSTED_PROXIES", os.Getenv("TRUSTED_PROXIES")); err != nil {
		return Config{}, err
	}

	rawOwner := os.Getenv("REGISTRY_OWNER")
	if rawOwner == "" {
		return Config{}, fmt.Errorf("REGISTRY_OWNER is required")
	}
	if cfg.Registry.Owner, err = id.ParseAccountID(rawOwner); err != nil {
		return Config{}, fmt.Errorf("REGISTRY_OWNER: %w", err)
	}
	cfg.Registry.Backend = strings.ToLower(getEnv("REGISTRY_BACKEND", BackendMemory))

	cfg.Database = DatabaseConfig{
		Driver: getEnv("DATABASE_DRIVER", "pgx"),
		URL:    os.Getenv("DATABASE_URL"),
	}
	if cfg.Database.MaxOpenConns, err = getInt("DATABASE_MAX_OPEN_CONNS", 10); err != nil {
		return Config{}, err
	}
	if cfg.Database.MaxIdleConns, err = getInt("DATABASE_MAX_IDLE_CONNS", 5); err != nil {
		return Config{}, err
	}

	cfg.SQLite = SQLiteConfig{Path: getEnv("SQLITE_PATH", "classreg.db")}

	cfg.Redis = RedisConfig{
		URL:    os.Getenv("REDIS_URL"),
		Prefix: getEnv("REDIS_PREFIX", "classreg:"),
	}
	if cfg.Redis.PoolSize, err = getInt("REDIS_POOL_SIZE", 10); err != nil {
		return Config{}, err
	}
	if cfg.Redis.MinIdleConns, err = getInt("REDIS_MIN_IDLE_CONNS", 2); err != nil {
		return Config{}, err
	}
	if cfg.Redis.DialTimeout, err = getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.Redis.ReadTimeout, err = getDuration("REDIS_READ_TIMEOUT", 3*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.Redis.WriteTimeout, err = getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second); err != nil {
		return Config{}, err
	}

	cfg.Kafka = KafkaConfig{
		Brokers:           splitList(os.Getenv("KAFKA_BROKERS")),
		Topic:             getEnv("KAFKA_TOPIC", "classreg.student.updated"),
		ClientID:          getEnv("KAFKA_CLIENT_ID", "classreg"),
		Partitions:        1,
		ReplicationFactor: 1,
	}
	partitions, err := getIntInRange("KAFKA_PARTITIONS", 1, 1, math.MaxInt32)
	if err != nil {
		return Config{}, err
	}
	cfg.Kafka.Partitions = int32(partitions)
	replication, err := getIntInRange("KAFKA_REPLICATION_FACTOR", 1, 1, math.MaxInt16)
	if err != nil {
		return Config{}, err
	}
	cfg.Kafka.ReplicationFactor = int16(replication)
	if cfg.Kafka.ProduceTimeout, err = getDuration("KAFKA_PRODUCE_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}

	cfg.NATS = NATSConfig{
		URL:     os.Getenv("NATS_URL"),
		Subject: getEnv("NATS_SUBJECT", "classreg.student.updated"),
	}

	if cfg.Notifier.FailureThreshold, err = getInt("NOTIFIER_FAILURE_THRESHOLD", 5); err != nil {
		return Config{}, err
	}
	if cfg.Notifier.Cooldown, err = getDuration("NOTIFIER_COOLDOWN", 30*time.Second); err != nil {
		return Config{}, err
	}

	cfg.Auth = AuthConfig{
		JWTSigningKey: os.Getenv("JWT_SIGNING_KEY"),
		Issuer:        getEnv("JWT_ISSUER", "classreg"),
		Audience:      getEnv("JWT_AUDIENCE", "classreg-api"),
	}
	if cfg.Auth.TokenTTL, err = getDuration("JWT_TOKEN_TTL", time.Hour); err != nil {
		return Config{}, err
	}

	if cfg.RateLimit.ReadsPerWindow, err = getInt("RATE_LIMIT_READS_PER_MINUTE", 600); err != nil {
		return Config{}, err
	}
	cfg.RateLimit.Window = time.Minute

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field requirements that FromEnv cannot express per
// variable.
func (c Config) Validate() error {
	if c.Registry.Owner.IsZero() {
		return fmt.Errorf("registry owner is required")
	}
	switch c.Registry.Backend {
	case BackendMemory, BackendSQLite:
	case BackendPostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required for the %s backend", BackendPostgres)
		}
		if c.Database.Driver != "pgx" && c.Database.Driver != "postgres" {
			return fmt.Errorf("DATABASE_DRIVER must be pgx or postgres, got %q", c.Database.Driver)
		}
	case BackendRedis:
		if c.Redis.URL == "" {
			return fmt.Errorf("REDIS_URL is required for the %s backend", BackendRedis)
		}
	default:
		return fmt.Errorf("unknown REGISTRY_BACKEND %q", c.Registry.Backend)
	}
	if c.Auth.JWTSigningKey == "" {
		return fmt.Errorf("JWT_SIGNING_KEY is required")
	}
	if len(c.Auth.JWTSigningKey) < MinJWTSigningKeyLen {
		return fmt.Errorf("JWT_SIGNING_KEY must be at least %d bytes", MinJWTSigningKeyLen)
	}
	if c.RateLimit.ReadsPerWindow < 0 {
		return fmt.Errorf("RATE_LIMIT_READS_PER_MINUTE must not be negative")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func getIntInRange(key string, fallback, lo, hi int) (int, error) {
	v, err := getInt(key, fallback)
	if err != nil {
		return 0, err
	}
	if v < lo || v > hi {
		return 0, fmt.Errorf("%s: %d is outside [%d, %d]", key, v, lo, hi)
	}
	return v, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return v, nil
}

func parseLevel(raw string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(raw)); err != nil {
		return 0, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// parsePrefixes reads a comma separated list of CIDRs or bare addresses.
func parsePrefixes(key, raw string) ([]netip.Prefix, error) {
	var out []netip.Prefix
	for _, part := range splitList(raw) {
		if strings.Contains(part, "/") {
			p, err := netip.ParsePrefix(part)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(part)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}
