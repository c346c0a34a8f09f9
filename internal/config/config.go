package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host     string
	Port     string
	Debug    bool
	LogLevel string
	TimeZone string
}

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
}

// MinIOConfig holds object storage settings for MinIO.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// StorageConfig selects the file storage backend.
// Type is either "local" or "minio".
type StorageConfig struct {
	Type      string
	LocalPath string
	MinIO     MinIOConfig
}

// AuthConfig holds JWT settings.
type AuthConfig struct {
	SecretKey   string
	Algorithm   string
	TokenExpiry time.Duration
}

// GPUConfig points at the video generation and evaluation agent services.
type GPUConfig struct {
	VideoServiceURL      string
	EvaluationServiceURL string
	RequestTimeout       time.Duration
	RateLimit            float64
}

// RunPodConfig holds RunPod API settings.
type RunPodConfig struct {
	APIKey          string
	APIURL          string
	VideoTemplateID string
	EvalTemplateID  string
	GPUTypeID       string
}

// ScalingConfig holds auto-scaler thresholds and cost limits.
type ScalingConfig struct {
	Enabled               bool
	MinInstances          int
	MaxInstances          int
	VideoScaleUpThreshold int
	EvalScaleUpThreshold  int
	IdleTimeout           time.Duration
	Interval              time.Duration
	ErrorBackoff          time.Duration
	HourlyCost            float64
	DailyCostLimit        float64
	MonthlyCostLimit      float64
}

// RedisConfig holds the GPU queue backend settings.
type RedisConfig struct {
	URL string
}

// HTTPConfig holds cross-cutting HTTP policies.
type HTTPConfig struct {
	CORSOrigins        []string
	RateLimitPerMinute int
}

// InterviewConfig holds interview session settings.
type InterviewConfig struct {
	MaxDuration          time.Duration
	QuestionsPerSession  int
	MonthlyQuestionCount int
	PreGenerationEnabled bool
}

// AIConfig holds question generation settings.
type AIConfig struct {
	GroqAPIKey string
	GroqAPIURL string
	GroqModel  string
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Storage   StorageConfig
	Auth      AuthConfig
	GPU       GPUConfig
	RunPod    RunPodConfig
	Scaling   ScalingConfig
	Redis     RedisConfig
	HTTP      HTTPConfig
	Interview InterviewConfig
	AI        AIConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Host:     getEnv("HOST", "0.0.0.0"),
			Port:     getEnv("PORT", "8000"),
			Debug:    getEnvBool("DEBUG", false),
			LogLevel: getEnv("LOG_LEVEL", "info"),
			TimeZone: getEnv("TZ", "UTC"),
		},
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
		},
		Storage: StorageConfig{
			Type:      getEnv("STORAGE_TYPE", "local"),
			LocalPath: getEnv("LOCAL_STORAGE_PATH", "./local_storage"),
			MinIO: MinIOConfig{
				Endpoint:  getEnv("MINIO_ENDPOINT", ""),
				AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
				SecretKey: getEnv("MINIO_SECRET_KEY", ""),
				Bucket:    getEnv("MINIO_BUCKET", ""),
				UseSSL:    getEnvBool("MINIO_USE_SSL", false),
			},
		},
		Auth: AuthConfig{
			SecretKey:   getEnv("JWT_SECRET_KEY", ""),
			Algorithm:   getEnv("JWT_ALGORITHM", "HS256"),
			TokenExpiry: time.Duration(getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30)) * time.Minute,
		},
		GPU: GPUConfig{
			VideoServiceURL:      getEnv("VIDEO_SERVICE_URL", "http://localhost:8001"),
			EvaluationServiceURL: getEnv("EVALUATION_SERVICE_URL", "http://localhost:8002"),
			RequestTimeout:       getEnvDuration("GPU_REQUEST_TIMEOUT", 5*time.Minute),
			RateLimit:            getEnvFloat("GPU_RATE_LIMIT", 5),
		},
		RunPod: RunPodConfig{
			APIKey:          getEnv("RUNPOD_API_KEY", ""),
			APIURL:          getEnv("RUNPOD_API_URL", "https://rest.runpod.io/v1"),
			VideoTemplateID: getEnv("RUNPOD_VIDEO_TEMPLATE_ID", "video-gen-template"),
			EvalTemplateID:  getEnv("RUNPOD_EVAL_TEMPLATE_ID", "eval-template"),
			GPUTypeID:       getEnv("RUNPOD_GPU_TYPE", "NVIDIA RTX A5000"),
		},
		Scaling: ScalingConfig{
			Enabled:               getEnvBool("SCALING_ENABLED", true),
			MinInstances:          getEnvInt("MIN_GPU_INSTANCES", 0),
			MaxInstances:          getEnvInt("MAX_GPU_INSTANCES", 2),
			VideoScaleUpThreshold: getEnvInt("VIDEO_SCALE_UP_THRESHOLD", 1),
			EvalScaleUpThreshold:  getEnvInt("EVAL_SCALE_UP_THRESHOLD", 2),
			IdleTimeout:           getEnvDuration("GPU_IDLE_TIMEOUT", 5*time.Minute),
			Interval:              getEnvDuration("SCALER_INTERVAL", 30*time.Second),
			ErrorBackoff:          getEnvDuration("SCALER_ERROR_BACKOFF", time.Minute),
			HourlyCost:            getEnvFloat("GPU_HOURLY_COST", 0.27),
			DailyCostLimit:        getEnvFloat("DAILY_COST_LIMIT", 50),
			MonthlyCostLimit:      getEnvFloat("MONTHLY_COST_LIMIT", 500),
		},
		Redis: RedisConfig{
			URL: getEnv("REDIS_URL", "redis://localhost:6379/0"),
		},
		HTTP: HTTPConfig{
			CORSOrigins: getEnvList("CORS_ORIGINS", []string{
				"http://localhost:3000",
				"http://localhost:8080",
				"http://localhost:8000",
			}),
			RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		},
		Interview: InterviewConfig{
			MaxDuration:          getEnvDuration("MAX_INTERVIEW_DURATION", 30*time.Minute),
			QuestionsPerSession:  getEnvInt("QUESTIONS_PER_SESSION", 10),
			MonthlyQuestionCount: getEnvInt("MONTHLY_QUESTION_COUNT", 30),
			PreGenerationEnabled: getEnvBool("PRE_GENERATION_ENABLED", true),
		},
		AI: AIConfig{
			GroqAPIKey: getEnv("GROQ_API_KEY", ""),
			GroqAPIURL: getEnv("GROQ_API_URL", "https://api.groq.com/openai/v1/chat/completions"),
			GroqModel:  getEnv("GROQ_MODEL", "llama-3.3-70b-versatile"),
		},
	}
}

// Location resolves the configured time zone, falling back to UTC.
func (c ServerConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}

// getEnvDuration accepts Go duration strings ("90s", "5m") or a bare number of seconds.
func getEnvDuration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}

func getEnvList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
