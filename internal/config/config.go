package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	APIPort  string
	LogLevel string

	NATSURL            string
	NATSSubmitSubject  string
	NATSResultSubject  string
	NATSPublishTimeout time.Duration

	StoragePath string
	CatalogPath string

	ONNXRuntimeLib        string
	FineTunedModelPath    string
	FineTunedMetadataPath string
	BaseModelPath         string
	BaseMetadataPath      string
	FreshnessModelPath    string
	FreshnessMetadataPath string
	InferenceTimeout      time.Duration

	OCRLanguages  []string
	OCRTimeout    time.Duration
	OCRPreprocess bool
	JPEGQuality   int

	LLMProvider string
	LLMModel    string
	LLMAPIKey   string
	LLMBaseURL  string
	LLMTimeout  time.Duration

	RetryMaxAttempts        int
	BreakerEnabled          bool
	BreakerMinRequests      int
	BreakerFailureRatio     float64
	BreakerOpenTimeout      time.Duration
	BreakerHalfOpenMaxCalls int

	APIKey                     string
	APIMaxUploadBytes          int64
	APIRateLimitRPS            float64
	APIRateLimitBurst          int
	APIBackpressureMaxInFlight int
	APIBackpressureWaitTimeout time.Duration

	WorkerMetricsPort    string
	WorkerHandlerTimeout time.Duration
}

// LoadWithDotEnv reads .env files (missing files are ignored) before Load.
// Variables already set in the environment win.
func LoadWithDotEnv(files ...string) Config {
	_ = godotenv.Load(files...)
	return Load()
}

func Load() Config {
	return Config{
		APIPort:  mustEnv("API_PORT", "8080"),
		LogLevel: mustEnv("LOG_LEVEL", "info"),

		NATSURL:            mustEnv("NATS_URL", "nats://localhost:4222"),
		NATSSubmitSubject:  mustEnv("NATS_SUBMIT_SUBJECT", "images.submitted"),
		NATSResultSubject:  mustEnv("NATS_RESULT_SUBJECT", "images.analyzed"),
		NATSPublishTimeout: mustEnvDuration("NATS_PUBLISH_TIMEOUT", 5*time.Second),

		StoragePath: mustEnv("STORAGE_PATH", "./data/uploads"),
		CatalogPath: mustEnv("CATALOG_PATH", ""),

		ONNXRuntimeLib:        mustEnv("ONNXRUNTIME_LIB", ""),
		FineTunedModelPath:    mustEnv("FINE_TUNED_MODEL_PATH", "./models/identification_finetuned.onnx"),
		FineTunedMetadataPath: mustEnv("FINE_TUNED_METADATA_PATH", "./models/identification_finetuned.json"),
		BaseModelPath:         mustEnv("BASE_MODEL_PATH", "./models/identification_base.onnx"),
		BaseMetadataPath:      mustEnv("BASE_METADATA_PATH", "./models/identification_base.json"),
		FreshnessModelPath:    mustEnv("FRESHNESS_MODEL_PATH", "./models/freshness.onnx"),
		FreshnessMetadataPath: mustEnv("FRESHNESS_METADATA_PATH", "./models/freshness.json"),
		InferenceTimeout:      mustEnvDuration("INFERENCE_TIMEOUT", 10*time.Second),

		OCRLanguages:  mustEnvList("OCR_LANGUAGES", []string{"eng"}),
		OCRTimeout:    mustEnvDuration("OCR_TIMEOUT", 30*time.Second),
		OCRPreprocess: mustEnvBool("OCR_PREPROCESS", false),
		JPEGQuality:   mustEnvInt("OCR_JPEG_QUALITY", 92),

		LLMProvider: mustEnv("LLM_PROVIDER", "ollama"),
		LLMModel:    mustEnv("LLM_MODEL", "llama3.1:8b"),
		LLMAPIKey:   mustEnv("LLM_API_KEY", ""),
		LLMBaseURL:  mustEnv("LLM_BASE_URL", ""),
		LLMTimeout:  mustEnvDuration("LLM_TIMEOUT", 60*time.Second),

		RetryMaxAttempts:        mustEnvInt("RETRY_MAX_ATTEMPTS", 1),
		BreakerEnabled:          mustEnvBool("BREAKER_ENABLED", true),
		BreakerMinRequests:      mustEnvInt("BREAKER_MIN_REQUESTS", 10),
		BreakerFailureRatio:     mustEnvFloat("BREAKER_FAILURE_RATIO", 0.5),
		BreakerOpenTimeout:      mustEnvDuration("BREAKER_OPEN_TIMEOUT", 30*time.Second),
		BreakerHalfOpenMaxCalls: mustEnvInt("BREAKER_HALF_OPEN_MAX_CALLS", 2),

		APIKey:                     mustEnv("API_KEY", ""),
		APIMaxUploadBytes:          int64(mustEnvInt("API_MAX_UPLOAD_BYTES", 10<<20)),
		APIRateLimitRPS:            mustEnvFloat("API_RATE_LIMIT_RPS", 0),
		APIRateLimitBurst:          mustEnvInt("API_RATE_LIMIT_BURST", 10),
		APIBackpressureMaxInFlight: mustEnvInt("API_BACKPRESSURE_MAX_IN_FLIGHT", 0),
		APIBackpressureWaitTimeout: mustEnvDuration("API_BACKPRESSURE_WAIT_TIMEOUT", 250*time.Millisecond),

		WorkerMetricsPort:    mustEnv("WORKER_METRICS_PORT", "9090"),
		WorkerHandlerTimeout: mustEnvDuration("WORKER_HANDLER_TIMEOUT", 2*time.Minute),
	}
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func mustEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func mustEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func mustEnvList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
