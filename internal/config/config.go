package config

import (
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the service. It is built once
// at startup and passed by reference; no component reads the environment
// afterwards.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Crypto       CryptoConfig
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
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
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

// AuthConfig defines authentication parameters. The RSA key pair is
// provisioned out-of-band (see cmd/keygen) and referenced here by path;
// the service never generates or persists key material itself.
type AuthConfig struct {
	JWTPrivateKeyPath     string
	JWTPublicKeyPath      string
	AccessTokenTTLMinutes int
	BcryptCost            int
	OtpTTLMinutes         int
	OtpLength             int
	OtpMaxAttempts        int
	// DevOtpEcho returns the OTP in the login response for local testing.
	// Load forces it off when APP_ENV is production.
	DevOtpEcho              bool
	PasswordResetTTLMinutes int
}

// CryptoConfig carries the field-encryption keys, hex encoded, 32 bytes
// each. They are decoded once at startup and never logged.
type CryptoConfig struct {
	FieldKeyHex      string
	LookupHashKeyHex string
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

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "registration-portal"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
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
			JWTPrivateKeyPath:       getEnv("AUTH_JWT_PRIVATE_KEY_PATH", "config/private.key"),
			JWTPublicKeyPath:        getEnv("AUTH_JWT_PUBLIC_KEY_PATH", "config/public.key"),
			AccessTokenTTLMinutes:   getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			BcryptCost:              getEnvAsInt("AUTH_BCRYPT_COST", 12),
			OtpTTLMinutes:           getEnvAsInt("AUTH_OTP_TTL_MINUTES", 5),
			OtpLength:               getEnvAsInt("AUTH_OTP_LENGTH", 6),
			OtpMaxAttempts:          getEnvAsInt("AUTH_OTP_MAX_ATTEMPTS", 5),
			DevOtpEcho:              getEnvAsBool("AUTH_DEV_OTP_ECHO", false),
			PasswordResetTTLMinutes: getEnvAsInt("AUTH_PASSWORD_RESET_TTL_MINUTES", 30),
		},
		Crypto: CryptoConfig{
			FieldKeyHex:      os.Getenv("CRYPTO_FIELD_KEY"),
			LookupHashKeyHex: os.Getenv("CRYPTO_LOOKUP_HASH_KEY"),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@example.com"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
	}

	if cfg.App.Env == "production" {
		cfg.Auth.DevOtpEcho = false
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

// OtpTTL returns the challenge lifetime.
func (a AuthConfig) OtpTTL() time.Duration {
	return time.Duration(a.OtpTTLMinutes) * time.Minute
}

// AccessTokenTTL returns the session token lifetime.
func (a AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(a.AccessTokenTTLMinutes) * time.Minute
}

// PasswordResetTTL returns the reset token lifetime.
func (a AuthConfig) PasswordResetTTL() time.Duration {
	return time.Duration(a.PasswordResetTTLMinutes) * time.Minute
}

// Keys decodes the field-encryption and lookup-hash keys.
func (c CryptoConfig) Keys() (fieldKey, hashKey []byte, err error) {
	fieldKey, err = hex.DecodeString(c.FieldKeyHex)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid CRYPTO_FIELD_KEY: %w", err)
	}
	hashKey, err = hex.DecodeString(c.LookupHashKeyHex)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid CRYPTO_LOOKUP_HASH_KEY: %w", err)
	}
	return fieldKey, hashKey, nil
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
