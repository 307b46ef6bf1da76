package app

import (
	"errors"
	"fmt"
	"net"
	neturl "net/url"
	"strings"

	"github.com/yungbote/pathforge-backend/internal/data/repos"
	"github.com/yungbote/pathforge-backend/internal/modules/learning/courseindex"
	"github.com/yungbote/pathforge-backend/internal/observability"
	"github.com/yungbote/pathforge-backend/internal/platform/logger"
	"github.com/yungbote/pathforge-backend/internal/platform/qdrant"
)

var (
	resolveQdrantConfig  = qdrant.ResolveConfigFromEnv
	newQdrantVectorStore = qdrant.NewVectorStore
)

type VectorProviderBootstrapErrorCode string

const (
	VectorProviderBootstrapErrorInvalidProvider     VectorProviderBootstrapErrorCode = "invalid_provider"
	VectorProviderBootstrapErrorMissingQdrantURL    VectorProviderBootstrapErrorCode = "missing_qdrant_url"
	VectorProviderBootstrapErrorInvalidQdrantURL    VectorProviderBootstrapErrorCode = "invalid_qdrant_url"
	VectorProviderBootstrapErrorMissingQdrantColl   VectorProviderBootstrapErrorCode = "missing_qdrant_collection"
	VectorProviderBootstrapErrorMissingQdrantVector VectorProviderBootstrapErrorCode = "missing_qdrant_vector_dim"
	VectorProviderBootstrapErrorInvalidQdrantVector VectorProviderBootstrapErrorCode = "invalid_qdrant_vector_dim"
	VectorProviderBootstrapErrorDimMismatch         VectorProviderBootstrapErrorCode = "vector_dim_mismatch"
	VectorProviderBootstrapErrorQdrantConfigFailed  VectorProviderBootstrapErrorCode = "qdrant_config_failed"
	VectorProviderBootstrapErrorConnectFailed       VectorProviderBootstrapErrorCode = "connect_failed"
	VectorProviderBootstrapErrorProviderInitFailed  VectorProviderBootstrapErrorCode = "provider_init_failed"
)

type VectorProviderBootstrapError struct {
	Code     VectorProviderBootstrapErrorCode
	Provider string
	Cause    error
}

func (e *VectorProviderBootstrapError) Error() string {
	if e == nil {
		return "vector provider bootstrap failed"
	}
	return fmt.Sprintf("vector provider bootstrap failed (code=%s provider=%q): %v", e.Code, e.Provider, e.Cause)
}

func (e *VectorProviderBootstrapError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// resolveCourseIndex selects the neighbour search backend. pgvector queries the course_embeddings
// table directly; qdrant mirrors every persisted embedding into a collection and queries it.
func resolveCourseIndex(log *logger.Logger, cfg Config, embeddings repos.CourseEmbeddingRepo) (courseindex.Index, error) {
	provider := strings.TrimSpace(strings.ToLower(cfg.VectorProvider))
	metrics := observability.Current()

	switch provider {
	case "", VectorProviderPgvector:
		log.Info("Selecting vector provider", "provider", VectorProviderPgvector, "embedding_dim", cfg.EmbeddingDim)
		metrics.ObserveVectorProviderBootstrap(VectorProviderPgvector, "success", "none")
		return courseindex.NewPgvectorIndex(log, embeddings), nil

	case VectorProviderQdrant:
		idx, err := bootstrapQdrantIndex(log, cfg)
		if err != nil {
			classified := classifyVectorProviderBootstrapError(provider, err)
			code := vectorProviderBootstrapErrorCode(classified)
			metrics.ObserveVectorProviderBootstrap(provider, "error", string(code))
			log.Error("Vector provider bootstrap failed", "provider", provider, "error_code", code, "error", classified)
			return nil, classified
		}
		metrics.ObserveVectorProviderBootstrap(provider, "success", "none")
		return idx, nil

	default:
		err := &VectorProviderBootstrapError{
			Code:     VectorProviderBootstrapErrorInvalidProvider,
			Provider: provider,
			Cause:    fmt.Errorf("unsupported vector provider %q", provider),
		}
		metrics.ObserveVectorProviderBootstrap(provider, "error", string(err.Code))
		log.Error("Vector provider selection failed", "provider", provider, "error_code", err.Code, "error", err)
		return nil, err
	}
}

func bootstrapQdrantIndex(log *logger.Logger, cfg Config) (courseindex.Index, error) {
	qcfg, err := resolveQdrantConfig()
	if err != nil {
		return nil, err
	}
	if qcfg.VectorDim != cfg.EmbeddingDim {
		return nil, &VectorProviderBootstrapError{
			Code:     VectorProviderBootstrapErrorDimMismatch,
			Provider: VectorProviderQdrant,
			Cause:    fmt.Errorf("QDRANT_VECTOR_DIM=%d differs from EMBEDDING_DIM=%d", qcfg.VectorDim, cfg.EmbeddingDim),
		}
	}
	log.Info(
		"Selecting vector provider",
		"provider", VectorProviderQdrant,
		"qdrant_url", qcfg.URL,
		"qdrant_collection", qcfg.Collection,
		"qdrant_namespace_prefix", qcfg.NamespacePrefix,
		"qdrant_vector_dim", qcfg.VectorDim,
	)
	store, err := newQdrantVectorStore(log, qcfg)
	if err != nil {
		return nil, err
	}
	return courseindex.NewVectorStoreIndex(log, instrumentVectorStore(VectorProviderQdrant, store)), nil
}

func classifyVectorProviderBootstrapError(provider string, err error) error {
	var already *VectorProviderBootstrapError
	if errors.As(err, &already) {
		return err
	}
	wrap := func(code VectorProviderBootstrapErrorCode) error {
		return &VectorProviderBootstrapError{Code: code, Provider: provider, Cause: err}
	}

	var urlErr *neturl.Error
	if errors.As(err, &urlErr) {
		return wrap(VectorProviderBootstrapErrorConnectFailed)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return wrap(VectorProviderBootstrapErrorConnectFailed)
	}
	errLower := strings.ToLower(err.Error())
	if strings.Contains(errLower, "ready check failed") || strings.Contains(errLower, "connection refused") {
		return wrap(VectorProviderBootstrapErrorConnectFailed)
	}

	var cfgErr *qdrant.ConfigError
	if errors.As(err, &cfgErr) {
		switch cfgErr.Code {
		case qdrant.ConfigErrorMissingURL:
			return wrap(VectorProviderBootstrapErrorMissingQdrantURL)
		case qdrant.ConfigErrorInvalidURL:
			return wrap(VectorProviderBootstrapErrorInvalidQdrantURL)
		case qdrant.ConfigErrorMissingCollection:
			return wrap(VectorProviderBootstrapErrorMissingQdrantColl)
		case qdrant.ConfigErrorMissingVectorDim:
			return wrap(VectorProviderBootstrapErrorMissingQdrantVector)
		case qdrant.ConfigErrorInvalidVectorDim:
			return wrap(VectorProviderBootstrapErrorInvalidQdrantVector)
		default:
			return wrap(VectorProviderBootstrapErrorQdrantConfigFailed)
		}
	}
	return wrap(VectorProviderBootstrapErrorProviderInitFailed)
}

func vectorProviderBootstrapErrorCode(err error) VectorProviderBootstrapErrorCode {
	var bootstrapErr *VectorProviderBootstrapError
	if errors.As(err, &bootstrapErr) && bootstrapErr.Code != "" {
		return bootstrapErr.Code
	}
	return VectorProviderBootstrapErrorConnectFailed
}
