package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/pathforge-backend/internal/domain"
)

// AutoMigrateAll creates or updates every table plus the cosine ANN index over
// course_embeddings, cast to embeddingDim.
func AutoMigrateAll(db *gorm.DB, embeddingDim int) error {
	if err := db.AutoMigrate(types.Models()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	if embeddingDim <= 0 {
		return nil
	}
	stmt := fmt.Sprintf(
		`CREATE INDEX IF NOT EXISTS idx_course_embeddings_hnsw_%d ON course_embeddings USING hnsw ((embedding::vector(%d)) vector_cosine_ops);`,
		embeddingDim, embeddingDim,
	)
	if err := db.Exec(stmt).Error; err != nil {
		return fmt.Errorf("create embedding index: %w", err)
	}
	return nil
}
