// Package courseindex serves nearest-neighbour course lookups from either the pgvector
// course_embeddings table or an external vector store.
package courseindex

import (
	"context"

	"github.com/google/uuid"
)

const (
	ProviderPgvector = "pgvector"
	ProviderQdrant   = "qdrant"
)

type Match struct {
	CourseID uuid.UUID
	Score    float64
}

type Entry struct {
	CourseID uuid.UUID
	Title    string
	IsPublic bool
	Vector   []float32
}

type Index interface {
	// Query returns up to limit matches with score >= minScore, best first.
	Query(ctx context.Context, vector []float32, limit int, minScore float64) ([]Match, error)
	// Mirror copies a committed course embedding into the index. Indexes that read
	// course_embeddings directly treat it as a no-op.
	Mirror(ctx context.Context, e Entry) error
}
