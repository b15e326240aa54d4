package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Backend names accepted by STORE_BACKEND and LEDGER_BACKEND.
const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv            string
	Port              string
	MetricsPort       string
	DatabaseURL       string
	StoreBackend      string
	LedgerBackend     string
	RedisAddr         string
	RedisPassword     string
	RedisDB           int
	JWTSecret         string
	InternalAPISecret string
	StoragePath       string
	StorageBaseURL    string
	GeoIPDBPath       string
	CORSOrigins       []string
	DefaultLocale     string

	ContentProvider string
	ImageProvider   string
	GeminiAPIKey    string
	GeminiModel     string
	GeminiBaseURL   string
	OpenAIAPIKey    string
	OpenAIModel     string
	OpenAIBaseURL   string
	OpenAIOrg       string
	StabilityAPIKey string
	ReplicateAPIKey string
	IdeogramAPIKey  string

	GenerationPoolSize        int
	GenerationCreditCost      int64
	ImageCreditCost           int64
	PriceSuggestionCreditCost int64
	JobPollInterval           time.Duration
	JobMaxAttempts            int
	JobResultTTL              time.Duration
	PricingMode               string
	AutoApproveSchedule       string
	AutoApproveRefresh        bool

	KafkaBrokers []string
	KafkaTopic   string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitPerMin  int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	port := getEnv("PORT", "8080")
	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		Port:              port,
		MetricsPort:       getEnv("METRICS_PORT", "9090"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		StoreBackend:      strings.ToLower(getEnv("STORE_BACKEND", BackendMemory)),
		LedgerBackend:     strings.ToLower(getEnv("LEDGER_BACKEND", BackendMemory)),
		RedisAddr:         os.Getenv("REDIS_ADDR"),
		RedisPassword:     os.Getenv("REDIS_PASSWORD"),
		RedisDB:           getEnvInt("REDIS_DB", 0),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		InternalAPISecret: os.Getenv("INTERNAL_API_SECRET"),
		StoragePath:       getEnv("STORAGE_PATH", "./data/artifacts"),
		StorageBaseURL:    getEnv("STORAGE_BASE_URL", fmt.Sprintf("http://localhost:%s/static", port)),
		GeoIPDBPath:       os.Getenv("GEOIP_DB_PATH"),
		CORSOrigins:       getEnvList("CORS_ALLOWED_ORIGINS"),
		DefaultLocale:     strings.ToLower(getEnv("DEFAULT_LOCALE", "en")),

		ContentProvider: strings.ToLower(getEnv("CONTENT_PROVIDER", "gemini")),
		ImageProvider:   strings.ToLower(getEnv("IMAGE_PROVIDER", "openai")),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiBaseURL:   getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:     getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:   getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		OpenAIOrg:       os.Getenv("OPENAI_ORG"),
		StabilityAPIKey: os.Getenv("STABILITY_API_KEY"),
		ReplicateAPIKey: os.Getenv("REPLICATE_API_TOKEN"),
		IdeogramAPIKey:  os.Getenv("IDEOGRAM_API_KEY"),

		GenerationPoolSize:        getEnvInt("GENERATION_POOL_SIZE", 4),
		GenerationCreditCost:      int64(getEnvInt("GENERATION_CREDIT_COST", 1)),
		ImageCreditCost:           int64(getEnvInt("IMAGE_CREDIT_COST", 1)),
		PriceSuggestionCreditCost: int64(getEnvInt("PRICE_SUGGESTION_CREDIT_COST", 1)),
		JobPollInterval:           getEnvDuration("JOB_POLL_INTERVAL", time.Second),
		JobMaxAttempts:            getEnvInt("JOB_MAX_ATTEMPTS", 60),
		JobResultTTL:              getEnvDuration("JOB_RESULT_TTL", time.Hour),
		PricingMode:               strings.ToLower(getEnv("PRICING_MODE", "formula")),
		AutoApproveSchedule:       getEnv("AUTO_APPROVE_SCHEDULE", "0 2 * * *"),
		AutoApproveRefresh:        getEnvBool("AUTO_APPROVE_REFRESH", false),

		KafkaBrokers: getEnvList("KAFKA_BROKERS"),
		KafkaTopic:   getEnv("KAFKA_TOPIC", "engine-events"),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 120)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:  getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}
	if err := validateBackend("STORE_BACKEND", cfg.StoreBackend, BackendMemory, BackendPostgres); err != nil {
		return nil, err
	}
	if err := validateBackend("LEDGER_BACKEND", cfg.LedgerBackend, BackendMemory, BackendPostgres, BackendRedis); err != nil {
		return nil, err
	}
	if cfg.UsesPostgres() && cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required for the postgres backend")
	}
	if cfg.LedgerBackend == BackendRedis && cfg.RedisAddr == "" {
		return nil, fmt.Errorf("REDIS_ADDR is required for the redis ledger backend")
	}
	if cfg.GenerationPoolSize < 1 {
		return nil, fmt.Errorf("GENERATION_POOL_SIZE must be at least 1")
	}
	if cfg.JobMaxAttempts < 1 {
		return nil, fmt.Errorf("JOB_MAX_ATTEMPTS must be at least 1")
	}
	if cfg.PricingMode != "formula" && cfg.PricingMode != "llm" {
		return nil, fmt.Errorf("PRICING_MODE must be formula or llm")
	}

	return cfg, nil
}

// UsesPostgres reports whether any store needs the database pool.
func (c *Config) UsesPostgres() bool {
	return c.StoreBackend == BackendPostgres || c.LedgerBackend == BackendPostgres
}

func validateBackend(key, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s must be one of %s", key, strings.Join(allowed, ", "))
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

func getEnvBool(key string, fallback bool) bool {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getEnvList(key string) []string {
	raw := os.Getenv(key)
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
