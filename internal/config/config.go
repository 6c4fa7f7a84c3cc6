package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Inference InferenceConfig
	Validator ValidatorConfig
	Valuation ValuationConfig
	JWT       JWTConfig
}

type AppConfig struct {
	AppName     string
	Environment string
	HTTPPort    string
	Timezone    string
}

type DatabaseConfig struct {
	DBHost     string
	DBPort     string
	DBName     string
	DBUser     string
	DBPassword string
	DBSSLMode  string

	ConnectTimeout time.Duration
	PoolMaxConns   int32
	PoolMinConns   int32
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
}

type InferenceConfig struct {
	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	OllamaBaseURL  string
	OllamaModel    string
	EmbeddingModel string

	ProviderTimeout time.Duration
	RetryBackoff    time.Duration
}

type ValidatorConfig struct {
	// SuspectRatio scales the district floor: price_per_m2 below
	// floor*SuspectRatio flags the listing as suspect.
	SuspectRatio   float64
	SpamDailyLimit int64
}

type ValuationConfig struct {
	MinSamples    int
	MaxNeighbors  int
	AreaTolerance float64
	MaxAgeDays    int
	LowPercentile float64
	HiPercentile  float64
}

type JWTConfig struct {
	AccessSecret     string
	RefreshSecret    string
	AccessExpiresIn  time.Duration
	RefreshExpiresIn time.Duration
}

var errMissingRequiredEnv = errors.New("missing required environment variables")

func Load() (Config, error) {
	// .env is optional; real env always wins.
	_ = godotenv.Load()

	cfg := Config{}

	var missing []string
	req := func(key string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			missing = append(missing, key)
		}
		return v
	}
	opt := func(key, def string) string {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return def
		}
		return v
	}

	cfg.App = AppConfig{
		AppName:     opt("APP_NAME", "bds-sync"),
		Environment: opt("APP_ENV", "development"),
		HTTPPort:    req("HTTP_PORT"),
		Timezone:    opt("APP_TIMEZONE", "Asia/Ho_Chi_Minh"),
	}

	cfg.Database = DatabaseConfig{
		DBHost:         opt("DB_HOST", "localhost"),
		DBPort:         opt("DB_PORT", "5432"),
		DBName:         req("DB_NAME"),
		DBUser:         req("DB_USER"),
		DBPassword:     opt("DB_PASSWORD", ""),
		DBSSLMode:      opt("DB_SSL_MODE", "disable"),
		ConnectTimeout: optDuration("DB_CONNECT_TIMEOUT", 10*time.Second),
		PoolMaxConns:   int32(optInt("DB_POOL_MAX_CONNS", 8)),
		PoolMinConns:   int32(optInt("DB_POOL_MIN_CONNS", 1)),
	}

	cfg.Redis = RedisConfig{
		Host:     opt("REDIS_HOST", "localhost"),
		Port:     opt("REDIS_PORT", "6379"),
		Password: opt("REDIS_PASSWORD", ""),
	}

	cfg.Inference = InferenceConfig{
		GeminiAPIKey:    opt("GEMINI_API_KEY", ""),
		GeminiModel:     opt("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiBaseURL:   opt("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta"),
		OllamaBaseURL:   opt("OLLAMA_BASE_URL", "http://localhost:11434"),
		OllamaModel:     opt("OLLAMA_MODEL", "qwen2.5:7b"),
		EmbeddingModel:  opt("EMBEDDING_MODEL", "nomic-embed-text"),
		ProviderTimeout: optDuration("LLM_PROVIDER_TIMEOUT", 10*time.Second),
		RetryBackoff:    optDuration("LLM_RETRY_BACKOFF", 500*time.Millisecond),
	}

	cfg.Validator = ValidatorConfig{
		SuspectRatio:   optFloat("VALIDATOR_SUSPECT_RATIO", 0.3),
		SpamDailyLimit: int64(optInt("VALIDATOR_SPAM_DAILY_LIMIT", 50)),
	}

	cfg.Valuation = ValuationConfig{
		MinSamples:    optInt("VALUATION_MIN_SAMPLES", 5),
		MaxNeighbors:  optInt("VALUATION_MAX_NEIGHBORS", 15),
		AreaTolerance: optFloat("VALUATION_AREA_TOLERANCE", 0.3),
		MaxAgeDays:    optInt("VALUATION_MAX_AGE_DAYS", 90),
		LowPercentile: optFloat("VALUATION_LOW_PERCENTILE", 0.10),
		HiPercentile:  optFloat("VALUATION_HI_PERCENTILE", 0.90),
	}

	cfg.JWT = JWTConfig{
		AccessSecret:     opt("JWT_ACCESS_SECRET", ""),
		RefreshSecret:    opt("JWT_REFRESH_SECRET", ""),
		AccessExpiresIn:  optDuration("JWT_ACCESS_EXPIRES_IN", 15*time.Minute),
		RefreshExpiresIn: optDuration("JWT_REFRESH_EXPIRES_IN", 7*24*time.Hour),
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("%w: %s", errMissingRequiredEnv, strings.Join(missing, ", "))
	}

	return cfg, nil
}

func optInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func optFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return def
	}
	return f
}

func optDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
