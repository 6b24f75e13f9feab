package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName   string
	AppEnv    string
	Port      string
	StaticDir string

	// Security
	JWTSecret    string
	CookieSecure bool
	TrustProxy   bool // Honor X-Forwarded-For / X-Real-IP

	// AWS
	AWSRegion string

	// Record store
	StoreDriver string // "dynamodb" or "memory"

	// DynamoDB (single shared table for goals, events and todos)
	DynamoTable       string
	DynamoEndpoint    string // Optional: DynamoDB Local / LocalStack
	DynamoCreateTable bool
	StoreTimeout      time.Duration

	// Observability (optional)
	SentryDSN string

	// Storage (S3-compatible: AWS S3, MinIO, LocalStack, etc.)
	S3Region         string
	S3Bucket         string
	S3AccessKey      string
	S3SecretKey      string
	S3Endpoint       string // Optional: for S3-compatible services
	S3CreateBucket   bool
	S3KeyPrefix      string
	UploadTimeout    time.Duration
	UploadMaxBytes   int64
	UploadRateLimit  int
	UploadRateWindow time.Duration
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	region := envString("AWS_REGION", "ap-northeast-2")

	cfg := &Config{
		// Application
		AppName:   envString("APP_NAME", "copple"),
		AppEnv:    envRequired("APP_ENV"), // Required: 'development' or 'production'
		Port:      envString("PORT", "8090"),
		StaticDir: envString("STATIC_DIR", "public"),

		// Security
		JWTSecret:    envRequired("JWT_SECRET"),
		CookieSecure: envBool("COOKIE_SECURE", envString("APP_ENV", "development") == "production"),
		TrustProxy:   envBool("TRUST_PROXY", false),

		AWSRegion: region,

		// Record store
		StoreDriver: envString("STORE_DRIVER", "dynamodb"),

		// DynamoDB
		DynamoTable:       envString("DYNAMODB_TABLE", "Event"),
		DynamoEndpoint:    envString("DYNAMODB_ENDPOINT", ""),
		DynamoCreateTable: envBool("DYNAMODB_CREATE_TABLE", false),
		StoreTimeout:      envDuration("STORE_TIMEOUT", 5*time.Second),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),

		// Storage
		S3Region:         envString("S3_REGION", region),
		S3Bucket:         envRequired("S3_BUCKET"),
		S3AccessKey:      envString("S3_ACCESS_KEY", ""), // Empty: default AWS credential chain
		S3SecretKey:      envString("S3_SECRET_KEY", ""),
		S3Endpoint:       envString("S3_ENDPOINT", ""),
		S3CreateBucket:   envBool("S3_CREATE_BUCKET", false),
		S3KeyPrefix:      envString("S3_KEY_PREFIX", "travel_photos"),
		UploadTimeout:    envDuration("UPLOAD_TIMEOUT", 30*time.Second),
		UploadMaxBytes:   envInt64("UPLOAD_MAX_BYTES", 5<<20), // 5MB
		UploadRateLimit:  envInt("UPLOAD_RATE_LIMIT", 20),
		UploadRateWindow: envDuration("UPLOAD_RATE_WINDOW", 1*time.Minute),
	}

	return cfg
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envInt64(key string, def int64) int64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}
