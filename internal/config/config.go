package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode      Mode
	HTTPAddr  string
	PublicURL string // base of the standalone take-exam links

	DBDriver string
	DBDSN    string

	BlobDriver   string // fs|minio
	BlobBasePath string // fs root, or key prefix for minio

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool

	// Optional. Empty RedisAddr keeps change fan-out and token revocation in-process.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Optional. Empty AMQPURL keeps domain events in the event_log table only.
	AMQPURL   string
	AMQPQueue string

	AdminEmail    string
	AdminPassHash string // bcrypt

	AuthHMACSecret string
	TokenTTL       time.Duration

	CORSOrigins []string

	LogLevel  string
	LogFormat string // text|json

	// Location used for exam dates entered without an offset.
	Timezone *time.Location
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	defOrigins := "http://localhost:3000,http://localhost:5173"
	if mode == ModeOnline {
		defOrigins = envOr("PUBLIC_URL", "")
	}
	return Config{
		Mode:      mode,
		HTTPAddr:  envOr("HTTP_ADDR", ":8080"),
		PublicURL: strings.TrimSuffix(envOr("PUBLIC_URL", "http://localhost:8080"), "/"),

		DBDriver: envOr("DB_DRIVER", "sqlite"),
		DBDSN:    envOr("DB_DSN", "file:examdesk.db?_pragma=busy_timeout(5000)"),

		BlobDriver:   envOr("BLOB_DRIVER", "fs"),
		BlobBasePath: envOr("BLOB_BASE_PATH", "./data"),

		MinIOEndpoint:  envOr("MINIO_ENDPOINT", "localhost:9000"),
		MinIOAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinIOSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinIOBucket:    envOr("MINIO_BUCKET", "exam-materials"),
		MinIOUseSSL:    envBool("MINIO_USE_SSL", mode == ModeOnline),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envInt("REDIS_DB", 0),

		AMQPURL:   os.Getenv("AMQP_URL"),
		AMQPQueue: envOr("AMQP_QUEUE", "examdesk.events"),

		AdminEmail:    envOr("ADMIN_EMAIL", "admin@example.com"),
		AdminPassHash: os.Getenv("ADMIN_PASS_HASH"),

		AuthHMACSecret: envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		TokenTTL:       envDuration("TOKEN_TTL", 8*time.Hour),

		CORSOrigins: csvOr("CORS_ORIGINS", defOrigins),

		LogLevel:  envOr("LOG_LEVEL", "info"),
		LogFormat: envOr("LOG_FORMAT", "text"),

		Timezone: envLocation("TIMEZONE", time.UTC),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func envInt(k string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(k)); err == nil {
		return v
	}
	return def
}

func envDuration(k string, def time.Duration) time.Duration {
	if v, err := time.ParseDuration(os.Getenv(k)); err == nil && v > 0 {
		return v
	}
	return def
}

func envLocation(k string, def *time.Location) *time.Location {
	name := os.Getenv(k)
	if name == "" {
		return def
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return def
	}
	return loc
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
