package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadENV loads .env when GO_ENV is unset or development. A missing file
// is not an error; the process environment is used as is.
func LoadENV() error {
	goEnv := os.Getenv("GO_ENV")

	if goEnv == "" || goEnv == "development" {
		if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	return nil
}

type EnvironmentVariable struct {
	GO_ENV string
	PORT   int

	// Database
	DB_HOST       string
	DB_PORT       string
	DB_USER       string
	DB_PASSWORD   string
	DB_NAME       string
	DB_SSLMODE    string
	STORE_BACKEND string

	// Session cache and expiry
	REDIS_URL                 string
	SESSION_CACHE_TTL_MINUTES int
	SESSION_TIMEOUT_HOURS     int
	SESSION_CLEANUP_SCHEDULE  string
	CRON_ENABLED              bool

	// HTTP
	ALLOWED_ORIGINS     string
	RATE_LIMIT_REQUESTS int
	RATE_LIMIT_WINDOW   int
	JWT_SECRET          string

	// Uploads
	MAX_UPLOAD_SIZE_MB  int
	MAX_IMAGE_DIMENSION int
	MAX_DOCUMENT_PAGES  int
	UPLOAD_DIR          string

	// Agent
	LLM_API_KEY      string
	LLM_BASE_URL     string
	LLM_MODEL        string
	// GENERATION_TOOLS overrides the reconciler's generation tool names when set
	GENERATION_TOOLS []string

	// Video generation backend
	VIDEO_API_URL       string
	VIDEO_API_KEY       string
	// VIDEO_MAX_MIRROR_MB caps videos copied into storage
	VIDEO_MAX_MIRROR_MB int

	// DigitalOcean Spaces
	SPACES_ACCESS_KEY string
	SPACES_SECRET_KEY string
	SPACES_BUCKET     string
	SPACES_REGION     string
	SPACES_ENDPOINT   string
	SPACES_CDN_URL    string
}

func Get() (*EnvironmentVariable, error) {
	return &EnvironmentVariable{
		GO_ENV: getString("GO_ENV", "development"),
		PORT:   getInt("PORT", 5002),

		DB_HOST:       getString("DB_HOST", "localhost"),
		DB_PORT:       getString("DB_PORT", "5432"),
		DB_USER:       getString("DB_USER", "postgres"),
		DB_PASSWORD:   os.Getenv("DB_PASSWORD"),
		DB_NAME:       getString("DB_NAME", "video_agent"),
		DB_SSLMODE:    getString("DB_SSLMODE", "disable"),
		STORE_BACKEND: strings.ToLower(getString("STORE_BACKEND", "postgres")),

		REDIS_URL:                 os.Getenv("REDIS_URL"),
		SESSION_CACHE_TTL_MINUTES: getInt("SESSION_CACHE_TTL_MINUTES", 60),
		SESSION_TIMEOUT_HOURS:     getInt("SESSION_TIMEOUT_HOURS", 24),
		SESSION_CLEANUP_SCHEDULE:  getString("SESSION_CLEANUP_SCHEDULE", "0 0 * * * *"),
		CRON_ENABLED:              os.Getenv("CRON_ENABLED") != "false",

		ALLOWED_ORIGINS:     getString("ALLOWED_ORIGINS", "http://localhost:5002,http://127.0.0.1:5002"),
		RATE_LIMIT_REQUESTS: getInt("RATE_LIMIT_REQUESTS", 60),
		RATE_LIMIT_WINDOW:   getInt("RATE_LIMIT_WINDOW", 60),
		JWT_SECRET:          os.Getenv("JWT_SECRET"),

		MAX_UPLOAD_SIZE_MB:  getInt("MAX_UPLOAD_SIZE_MB", 10),
		MAX_IMAGE_DIMENSION: getInt("MAX_IMAGE_DIMENSION", 4096),
		MAX_DOCUMENT_PAGES:  getInt("MAX_DOCUMENT_PAGES", 50),
		UPLOAD_DIR:          getString("UPLOAD_DIR", "uploads"),

		LLM_API_KEY:      os.Getenv("LLM_API_KEY"),
		LLM_BASE_URL:     os.Getenv("LLM_BASE_URL"),
		LLM_MODEL:        getString("LLM_MODEL", "gpt-4o-mini"),
		GENERATION_TOOLS: getList("GENERATION_TOOLS", nil),

		VIDEO_API_URL:       os.Getenv("VIDEO_API_URL"),
		VIDEO_API_KEY:       os.Getenv("VIDEO_API_KEY"),
		VIDEO_MAX_MIRROR_MB: getInt("VIDEO_MAX_MIRROR_MB", 512),

		SPACES_ACCESS_KEY: os.Getenv("SPACES_ACCESS_KEY"),
		SPACES_SECRET_KEY: os.Getenv("SPACES_SECRET_KEY"),
		SPACES_BUCKET:     os.Getenv("SPACES_BUCKET"),
		SPACES_REGION:     getString("SPACES_REGION", "nyc3"),
		SPACES_ENDPOINT:   os.Getenv("SPACES_ENDPOINT"),
		SPACES_CDN_URL:    os.Getenv("SPACES_CDN_URL"),
	}, nil
}

func getString(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key)))
	if err != nil || v <= 0 {
		return def
	}
	return v
}

func getList(key string, def []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
