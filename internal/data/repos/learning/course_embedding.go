package learning

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	types "github.com/yungbote/pathforge-backend/internal/domain"
	"github.com/yungbote/pathforge-backend/internal/pkg/dbctx"
	"github.com/yungbote/pathforge-backend/internal/platform/logger"
)

type EmbeddingMatch struct {
	CourseID uuid.UUID
	Score    float64
}

type CourseEmbeddingRepo interface {
	// Upsert overwrites the row keyed by course_id.
	Upsert(dbc dbctx.Context, row *types.CourseEmbedding) error
	GetByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) ([]*types.CourseEmbedding, error)
	// Match returns up to limit courses by cosine similarity (1 - distance), best first,
	// keeping only scores >= minScore.
	Match(dbc dbctx.Context, vec []float32, limit int, minScore float64) ([]EmbeddingMatch, error)
}

type courseEmbeddingRepo struct {
	db  *gorm.DB
	log *logger.Logger
	dim int
}

func NewCourseEmbeddingRepo(db *gorm.DB, baseLog *logger.Logger, dim int) CourseEmbeddingRepo {
	return &courseEmbeddingRepo{db: db, log: baseLog.With("repo", "CourseEmbeddingRepo"), dim: dim}
}

func (r *courseEmbeddingRepo) Upsert(dbc dbctx.Context, row *types.CourseEmbedding) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil || row.CourseID == uuid.Nil {
		return nil
	}
	if got := len(row.Embedding.Slice()); r.dim > 0 && got != r.dim {
		return fmt.Errorf("course embedding dimension mismatch: expected=%d got=%d", r.dim, got)
	}
	row.UpdatedAt = time.Now().UTC()
	return classify(t.WithContext(dbc.Ctx).
		Omit("Course").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "course_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"title", "description_preview", "embedding", "updated_at"}),
		}).
		Create(row).Error)
}

func (r *courseEmbeddingRepo) GetByCourseIDs(dbc dbctx.Context, courseIDs []uuid.UUID) ([]*types.CourseEmbedding, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.CourseEmbedding{}
	if len(courseIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Omit("embedding").
		Where("course_id IN ?", courseIDs).
		Find(&out).Error; err != nil {
		return nil, classify(err)
	}
	return out, nil
}

func (r *courseEmbeddingRepo) Match(dbc dbctx.Context, vec []float32, limit int, minScore float64) ([]EmbeddingMatch, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []EmbeddingMatch{}
	if len(vec) == 0 || limit <= 0 {
		return out, nil
	}
	if r.dim > 0 && len(vec) != r.dim {
		return nil, fmt.Errorf("query vector dimension mismatch: expected=%d got=%d", r.dim, len(vec))
	}

	// The cast matches the expression index created by AutoMigrateAll.
	distance := fmt.Sprintf("embedding::vector(%d) <=> ?::vector(%d)", len(vec), len(vec))
	q := pgvector.NewVector(vec)

	var rows []struct {
		CourseID uuid.UUID
		Score    float64
	}
	err := t.WithContext(dbc.Ctx).
		Raw(
			"SELECT course_id, 1 - ("+distance+") AS score FROM course_embeddings ORDER BY "+distance+" ASC, course_id LIMIT ?",
			q, q, limit,
		).
		Scan(&rows).Error
	if err != nil {
		return nil, classify(err)
	}
	for _, row := range rows {
		if row.Score < minScore {
			continue
		}
		out = append(out, EmbeddingMatch{CourseID: row.CourseID, Score: row.Score})
	}
	return out, nil
}
