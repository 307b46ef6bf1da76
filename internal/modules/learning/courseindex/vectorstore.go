package courseindex

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/pathforge-backend/internal/platform/logger"
	"github.com/yungbote/pathforge-backend/internal/platform/vectorstore"
)

// Namespace holds course vectors inside the shared collection.
const Namespace = "courses"

// publicOnly restricts library search to courses mirrored with is_public set.
var publicOnly = map[string]any{"is_public": true}

type vectorStoreIndex struct {
	log   *logger.Logger
	store vectorstore.VectorStore
}

func NewVectorStoreIndex(log *logger.Logger, store vectorstore.VectorStore) Index {
	return &vectorStoreIndex{log: log.With("index", "vectorstore"), store: store}
}

func (v *vectorStoreIndex) Query(ctx context.Context, vector []float32, limit int, minScore float64) ([]Match, error) {
	if len(vector) == 0 || limit <= 0 {
		return []Match{}, nil
	}
	hits, err := v.store.QueryMatches(ctx, Namespace, vector, limit, publicOnly)
	if err != nil {
		return nil, fmt.Errorf("vector store query: %w", err)
	}
	out := make([]Match, 0, len(hits))
	for _, h := range hits {
		id, err := uuid.Parse(h.ID)
		if err != nil {
			v.log.Warn("skipping vector with non-uuid id", "id", h.ID)
			continue
		}
		if h.Score < minScore {
			continue
		}
		out = append(out, Match{CourseID: id, Score: h.Score})
	}
	return out, nil
}

func (v *vectorStoreIndex) Mirror(ctx context.Context, e Entry) error {
	if e.CourseID == uuid.Nil || len(e.Vector) == 0 {
		return fmt.Errorf("vector store mirror: missing course id or vector")
	}
	return v.store.Upsert(ctx, Namespace, []vectorstore.Vector{{
		ID:     e.CourseID.String(),
		Values: e.Vector,
		Metadata: map[string]any{
			"title":     e.Title,
			"is_public": e.IsPublic,
		},
	}})
}
