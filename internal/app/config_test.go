package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/yungbote/pathforge-backend/internal/platform/logger"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "VECTOR_PROVIDER", "EMBEDDING_DIM", "GENERATION_STALE_AFTER", "CORS_ALLOWED_ORIGINS", "PIPELINE_CONFIG_FILE", "ACCESS_TOKEN_TTL"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig(logger.Nop())
	if cfg.Port != "8080" {
		t.Fatalf("Port: got %q", cfg.Port)
	}
	if cfg.VectorProvider != VectorProviderPgvector {
		t.Fatalf("VectorProvider: got %q", cfg.VectorProvider)
	}
	if cfg.EmbeddingDim != 1536 {
		t.Fatalf("EmbeddingDim: got %d", cfg.EmbeddingDim)
	}
	if cfg.GenerationStaleAfter != 15*time.Minute {
		t.Fatalf("GenerationStaleAfter: got %s", cfg.GenerationStaleAfter)
	}
	if cfg.AccessTokenTTL != time.Hour {
		t.Fatalf("AccessTokenTTL: got %s", cfg.AccessTokenTTL)
	}
	if cfg.CORSOrigins != nil {
		t.Fatalf("CORSOrigins: got %v", cfg.CORSOrigins)
	}
	if cfg.Pipeline.Search.TopK != 8 {
		t.Fatalf("Pipeline.Search.TopK: got %d", cfg.Pipeline.Search.TopK)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "pipeline.yaml")
	if err := os.WriteFile(file, []byte("search:\n  top_k: 4\n"), 0o600); err != nil {
		t.Fatalf("write pipeline file: %v", err)
	}
	t.Setenv("VECTOR_PROVIDER", "Qdrant")
	t.Setenv("EMBEDDING_DIM", "-3")
	t.Setenv("GENERATION_STALE_AFTER", "2m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("PIPELINE_CONFIG_FILE", file)

	cfg := LoadConfig(logger.Nop())
	if cfg.VectorProvider != VectorProviderQdrant {
		t.Fatalf("VectorProvider: got %q", cfg.VectorProvider)
	}
	if cfg.EmbeddingDim != 1536 {
		t.Fatalf("EmbeddingDim: invalid value should fall back, got %d", cfg.EmbeddingDim)
	}
	if cfg.GenerationStaleAfter != 2*time.Minute {
		t.Fatalf("GenerationStaleAfter: got %s", cfg.GenerationStaleAfter)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example" {
		t.Fatalf("CORSOrigins: got %v", cfg.CORSOrigins)
	}
	if cfg.Pipeline.Search.TopK != 4 {
		t.Fatalf("Pipeline.Search.TopK: got %d", cfg.Pipeline.Search.TopK)
	}
}
