package config

import (
	"time"

	"github.com/joho/godotenv"
)

// Config holds the core runtime configuration for a service instance.
// It supports environment-based initialization, with sensible defaults.
//
// Tenant-facing validation settings (auth mode, tenant/subscription scope,
// conflict strategy, cache TTL) are not here: those are operator-editable
// and live in the settings store. Config covers only process-level knobs.
type Config struct {
	ServiceName string // e.g. "nameforge"
	Env         string // e.g. "dev", "uat", "prod"
	LogLevel    string // "debug", "info", etc.
	Port        int    // service HTTP port

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	HTTPBodyLimit    int

	RedisAddr string // e.g. localhost:6379
	RedisDB   int
	RedisPass string

	NATSURL         string // e.g. nats://localhost:4222
	OutboundSubject string // NATS subject for settings/invalidation events

	// ValidationEnabled is the operator-level kill switch. When false the
	// validator answers every request without touching cache or network,
	// regardless of the per-tenant settings.
	ValidationEnabled bool

	// EncryptionKey is the base64-encoded 32-byte AES key used to decrypt
	// "encrypted:" secrets held in local configuration.
	EncryptionKey string

	// QueryTimeout bounds a single Resource Graph call.
	QueryTimeout time.Duration

	// Rate limiting for outbound Resource Graph queries.
	QueryRatePerSecond int
	QueryBurst         int
}

// Load loads configuration from environment variables and .env file if present.
func Load() *Config {
	// load .env silently (no error if missing)
	_ = godotenv.Load()

	return &Config{
		ServiceName:        GetEnv("SERVICE_NAME", "nameforge"),
		Env:                GetEnv("ENV", "dev"),
		LogLevel:           GetEnv("LOG_LEVEL", "info"),
		Port:               GetEnvInt("NAMEFORGE_PORT", 9020),
		HTTPReadTimeout:    GetEnvDuration("HTTP_READ_TIMEOUT", 10*time.Second),
		HTTPWriteTimeout:   GetEnvDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
		HTTPIdleTimeout:    GetEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		HTTPBodyLimit:      GetEnvInt("HTTP_BODY_LIMIT", 1*1024*1024),
		RedisAddr:          GetEnv("REDIS_ADDR", "localhost:6379"),
		RedisDB:            GetEnvInt("REDIS_DB", 0),
		RedisPass:          GetEnv("REDIS_PASS", ""),
		NATSURL:            GetEnv("NATS_URL", "nats://localhost:4222"),
		OutboundSubject:    GetEnv("OUTBOUND_SUBJECT", "evt.nameforge.settings_updated"),
		ValidationEnabled:  GetEnvBool("NAME_VALIDATION_ENABLED", true),
		EncryptionKey:      GetEnv("NAMEFORGE_ENCRYPTION_KEY", ""),
		QueryTimeout:       GetEnvDuration("QUERY_TIMEOUT", 5*time.Second),
		QueryRatePerSecond: GetEnvInt("QUERY_RATE_PER_SECOND", 10),
		QueryBurst:         GetEnvInt("QUERY_BURST", 15),
	}
}
