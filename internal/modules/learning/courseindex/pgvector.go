package courseindex

import (
	"context"
	"fmt"

	"github.com/yungbote/pathforge-backend/internal/data/repos"
	"github.com/yungbote/pathforge-backend/internal/pkg/dbctx"
	"github.com/yungbote/pathforge-backend/internal/platform/logger"
)

type pgvectorIndex struct {
	log  *logger.Logger
	repo repos.CourseEmbeddingRepo
}

func NewPgvectorIndex(log *logger.Logger, repo repos.CourseEmbeddingRepo) Index {
	return &pgvectorIndex{log: log.With("index", "pgvector"), repo: repo}
}

func (p *pgvectorIndex) Query(ctx context.Context, vector []float32, limit int, minScore float64) ([]Match, error) {
	if len(vector) == 0 || limit <= 0 {
		return []Match{}, nil
	}
	rows, err := p.repo.Match(dbctx.Context{Ctx: ctx}, vector, limit, minScore)
	if err != nil {
		return nil, fmt.Errorf("pgvector match: %w", err)
	}
	out := make([]Match, 0, len(rows))
	for _, r := range rows {
		out = append(out, Match{CourseID: r.CourseID, Score: r.Score})
	}
	return out, nil
}

func (p *pgvectorIndex) Mirror(ctx context.Context, e Entry) error {
	return nil
}
