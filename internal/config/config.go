package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds runtime configuration values. It is built once in main and
// passed into each component constructor; nothing reads the environment after
// startup.
type Config struct {
	Port          string
	AppEnv        string
	BaseJobsDir   string
	WebhookSecret string
	LabelFontPath string

	Google   GoogleConfig
	Airtable AirtableConfig
	SMTP     SMTPConfig
	Media    MediaConfig
}

// GoogleConfig describes the Gemini model endpoints and retry budgets.
type GoogleConfig struct {
	APIKey            string
	VisionModel       string
	ImageModel        string
	RequestTimeout    time.Duration
	AnalyzeMaxRetries int
	StageMaxRetries   int
}

// AirtableConfig describes the status-sink connection. Leaving the key or
// base ID empty disables outbound status updates.
type AirtableConfig struct {
	APIKey    string
	BaseID    string
	TableName string
}

// SMTPConfig describes outbound email delivery.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// MediaConfig describes S3 (or S3-compatible) storage for oversize archives.
type MediaConfig struct {
	Bucket         string
	Region         string
	Endpoint       string
	PublicURL      string
	KeyPrefix      string
	ForcePathStyle bool
}

// FromEnv loads configuration from environment variables and applies defaults.
// A .env file is read first when present.
func FromEnv() Config {
	_ = godotenv.Load(".env")

	return Config{
		Port:          getenv("APP_PORT", "8080"),
		AppEnv:        getenv("APP_ENV", "development"),
		BaseJobsDir:   getenv("BASE_JOBS_DIR", "./stager_jobs"),
		WebhookSecret: os.Getenv("WEBHOOK_SECRET"),
		LabelFontPath: getenv("LABEL_FONT_PATH", "/usr/share/fonts/truetype/dejavu/DejaVuSans-Bold.ttf"),
		Google: GoogleConfig{
			APIKey:            os.Getenv("GOOGLE_API_KEY"),
			VisionModel:       getenv("GEMINI_VISION_MODEL", "gemini-2.5-pro"),
			ImageModel:        getenv("GEMINI_IMAGE_MODEL", "gemini-2.5-flash-image"),
			RequestTimeout:    time.Duration(getenvInt("REQUEST_TIMEOUT_SECONDS", 120)) * time.Second,
			AnalyzeMaxRetries: getenvInt("ANALYZE_MAX_RETRIES", 3),
			StageMaxRetries:   getenvInt("STAGE_MAX_RETRIES", 6),
		},
		Airtable: AirtableConfig{
			APIKey:    os.Getenv("AIRTABLE_API_KEY"),
			BaseID:    os.Getenv("AIRTABLE_BASE_ID"),
			TableName: getenv("AIRTABLE_TABLE_NAME", "Orders"),
		},
		SMTP: SMTPConfig{
			Host:     getenv("SMTP_HOST", "smtp.gmail.com"),
			Port:     getenvInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     getenv("EMAIL_FROM", "Stage Vision <no-reply@stagevision.example>"),
		},
		Media: MediaConfig{
			Bucket:         os.Getenv("S3_BUCKET"),
			Region:         os.Getenv("S3_REGION"),
			Endpoint:       os.Getenv("S3_ENDPOINT"),
			PublicURL:      os.Getenv("S3_PUBLIC_URL"),
			KeyPrefix:      strings.Trim(os.Getenv("S3_KEY_PREFIX"), "/"),
			ForcePathStyle: getenvBool("S3_FORCE_PATH_STYLE", false),
		},
	}
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return fallback
}

func getenvInt(key string, fallback int) int {
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

func getenvBool(key string, fallback bool) bool {
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
