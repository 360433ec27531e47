package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv          string
	LogLevel        string
	Port            string
	DatabaseURL     string
	StoragePath     string
	GeoIPDBPath     string
	DefaultLanguage string
	CORSAllowOrigin []string

	TextGenProvider  string
	TextGenFallbacks []string
	GeminiAPIKey     string
	GeminiModel      string
	GeminiBaseURL    string
	VertexProject    string
	VertexLocation   string
	VertexModel      string
	OpenAIAPIKey     string
	OpenAIModel      string
	OpenAIBaseURL    string
	QwenAPIKey       string
	QwenModel        string
	QwenBaseURL      string

	SectionDelay      time.Duration
	MaxAttempts       int
	RetryBaseDelay    time.Duration
	BatchSize         int
	WorkerConcurrency int
	WorkerPoll        time.Duration
	AbortPoll         time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:          getEnv("APP_ENV", "development"),
		LogLevel:        os.Getenv("LOG_LEVEL"),
		Port:            getEnv("PORT", "8080"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		StoragePath:     getEnv("STORAGE_PATH", "./storage"),
		GeoIPDBPath:     os.Getenv("GEOIP_DB_PATH"),
		DefaultLanguage: strings.ToLower(getEnv("DEFAULT_LANGUAGE", "en")),
		CORSAllowOrigin: splitAndTrim(getEnv("CORS_ALLOW_ORIGINS", "http://localhost:5173")),

		TextGenProvider:  strings.ToLower(getEnv("TEXTGEN_PROVIDER", "gemini")),
		TextGenFallbacks: splitAndTrim(strings.ToLower(getEnv("TEXTGEN_FALLBACKS", "openai,static"))),
		GeminiAPIKey:     os.Getenv("GEMINI_API_KEY"),
		GeminiModel:      getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
		GeminiBaseURL:    getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		VertexProject:    os.Getenv("VERTEX_PROJECT"),
		VertexLocation:   getEnv("VERTEX_LOCATION", "us-central1"),
		VertexModel:      getEnv("VERTEX_MODEL", "gemini-2.5-flash"),
		OpenAIAPIKey:     os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:      getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:    os.Getenv("OPENAI_BASE_URL"),
		QwenAPIKey:       os.Getenv("QWEN_API_KEY"),
		QwenModel:        getEnv("QWEN_MODEL", "qwen-plus"),
		QwenBaseURL:      getEnv("QWEN_BASE_URL", "https://dashscope-intl.aliyuncs.com/compatible-mode/v1"),

		SectionDelay:      time.Millisecond * time.Duration(getEnvInt("PIPELINE_SECTION_DELAY_MS", 500)),
		MaxAttempts:       getEnvInt("PIPELINE_MAX_ATTEMPTS", 2),
		RetryBaseDelay:    time.Millisecond * time.Duration(getEnvInt("PIPELINE_RETRY_BASE_MS", 1000)),
		BatchSize:         getEnvInt("PIPELINE_BATCH_SIZE", 3),
		WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 2),
		WorkerPoll:        time.Millisecond * time.Duration(getEnvInt("WORKER_POLL_INTERVAL_MS", 2000)),
		AbortPoll:         time.Millisecond * time.Duration(getEnvInt("ABORT_POLL_INTERVAL_MS", 1000)),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.MaxAttempts < 1 {
		return nil, fmt.Errorf("PIPELINE_MAX_ATTEMPTS must be at least 1, got %d", cfg.MaxAttempts)
	}
	if cfg.BatchSize < 1 {
		return nil, fmt.Errorf("PIPELINE_BATCH_SIZE must be at least 1, got %d", cfg.BatchSize)
	}
	if cfg.WorkerConcurrency < 1 {
		cfg.WorkerConcurrency = 1
	}

	return cfg, nil
}

// RequireDatabase reports an error when no database URL is configured.
func (c *Config) RequireDatabase() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func splitAndTrim(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
