package app

import (
	"strings"
	"time"

	"github.com/yungbote/pathforge-backend/internal/modules/learning/steps"
	"github.com/yungbote/pathforge-backend/internal/platform/envutil"
	"github.com/yungbote/pathforge-backend/internal/platform/logger"
)

const (
	VectorProviderPgvector = "pgvector"
	VectorProviderQdrant   = "qdrant"

	defaultJWTSecret = "defaultsecret"
)

type Config struct {
	Port    string
	LogMode string
	Env     string
	Version string
	Service string

	JWTSecretKey   string
	AccessTokenTTL time.Duration

	VectorProvider string
	EmbeddingDim   int

	RedisAddr     string
	RedisPassword string
	RedisChannel  string

	CORSOrigins []string

	GenerationStaleAfter time.Duration
	PipelineConfigFile   string
	Pipeline             steps.PipelineConfig
}

// LoadConfig reads the process configuration from the environment. Invalid pipeline files fall back
// to the defaults with a warning.
func LoadConfig(log *logger.Logger) Config {
	cfg := Config{
		Port:    envutil.String("PORT", "8080"),
		LogMode: envutil.String("LOG_MODE", "development"),
		Env:     envutil.String("APP_ENV", "development"),
		Version: envutil.String("APP_VERSION", "dev"),
		Service: envutil.String("OTEL_SERVICE_NAME", "pathforge"),

		JWTSecretKey:   envutil.String("JWT_SECRET_KEY", defaultJWTSecret),
		AccessTokenTTL: time.Duration(envutil.Int("ACCESS_TOKEN_TTL", 3600)) * time.Second,

		VectorProvider: strings.ToLower(envutil.String("VECTOR_PROVIDER", VectorProviderPgvector)),
		EmbeddingDim:   envutil.Int("EMBEDDING_DIM", 1536),

		RedisAddr:     envutil.String("REDIS_ADDR", ""),
		RedisPassword: envutil.String("REDIS_PASSWORD", ""),
		RedisChannel:  envutil.String("REDIS_CHANNEL", "pathforge:sse"),

		CORSOrigins: splitList(envutil.String("CORS_ALLOWED_ORIGINS", "")),

		GenerationStaleAfter: envutil.Duration("GENERATION_STALE_AFTER", 15*time.Minute),
		PipelineConfigFile:   envutil.String("PIPELINE_CONFIG_FILE", ""),
	}
	if cfg.EmbeddingDim <= 0 {
		log.Warn("EMBEDDING_DIM must be positive; using 1536", "value", cfg.EmbeddingDim)
		cfg.EmbeddingDim = 1536
	}
	if cfg.JWTSecretKey == defaultJWTSecret {
		log.Warn("JWT_SECRET_KEY not set; using the development default")
	}

	pipeline, err := steps.LoadPipelineConfig(cfg.PipelineConfigFile)
	if err != nil {
		log.Warn("pipeline config invalid; using defaults", "file", cfg.PipelineConfigFile, "error", err)
		pipeline = steps.DefaultPipelineConfig()
	}
	cfg.Pipeline = pipeline
	return cfg
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
