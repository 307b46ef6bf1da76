package learning

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
)

const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

func ValidLevel(level string) bool {
	switch level {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	}
	return false
}

type Course struct {
	ID uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	// Owner is nil for library courses.
	Owner       *uuid.UUID     `gorm:"type:uuid;column:owner;index" json:"owner,omitempty"`
	Title       string         `gorm:"column:title;not null" json:"title"`
	Subtitle    *string        `gorm:"column:subtitle" json:"subtitle,omitempty"`
	Description string         `gorm:"column:description;type:text;not null" json:"description"`
	Level       *string        `gorm:"column:level" json:"level,omitempty"`
	Tags        pq.StringArray `gorm:"column:tags;type:text[]" json:"tags"`
	IsPublic    bool           `gorm:"column:is_public;not null;default:true" json:"is_public"`
	CreatedAt   time.Time      `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (Course) TableName() string { return "courses" }

// VisibleTo reports whether userID may read the course.
func (c *Course) VisibleTo(userID uuid.UUID) bool {
	if c == nil {
		return false
	}
	return c.IsPublic || (c.Owner != nil && *c.Owner == userID)
}

type Lesson struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	CourseID  uuid.UUID `gorm:"type:uuid;not null;index:idx_lesson_course_idx,unique,priority:1" json:"course_id"`
	Course    *Course   `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"-"`
	Idx       int       `gorm:"column:idx;not null;index:idx_lesson_course_idx,unique,priority:2" json:"idx"`
	Title     string    `gorm:"column:title;not null" json:"title"`
	Content   string    `gorm:"column:content;type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:now()" json:"updated_at"`
}

func (Lesson) TableName() string { return "lessons" }

// CourseEmbedding is the retrieval row for a course. The column is declared without a
// dimension; the ANN index casts to the configured EMBEDDING_DIM.
type CourseEmbedding struct {
	CourseID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"course_id"`
	Course             *Course         `gorm:"constraint:OnDelete:CASCADE;foreignKey:CourseID;references:ID" json:"-"`
	Title              string          `gorm:"column:title;not null" json:"title"`
	DescriptionPreview string          `gorm:"column:description_preview;type:text;not null" json:"description_preview"`
	Embedding          pgvector.Vector `gorm:"column:embedding;type:vector;not null" json:"-"`
	UpdatedAt          time.Time       `gorm:"not null;default:now()" json:"updated_at"`
}

func (CourseEmbedding) TableName() string { return "course_embeddings" }
