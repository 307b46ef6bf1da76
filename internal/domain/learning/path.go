package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

const (
	PathItemKindReuse = "reuse"
	PathItemKindNew   = "new"

	PathItemStatusPending    = "pending"
	PathItemStatusGenerating = "generating"
	PathItemStatusReady      = "ready"
	PathItemStatusFailed     = "failed"
)

// LearningPath is immutable after creation apart from Title.
type LearningPath struct {
	ID         uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	OwnerID    uuid.UUID      `gorm:"type:uuid;not null;index" json:"owner_id"`
	UserPrompt string         `gorm:"column:user_prompt;type:text;not null" json:"user_prompt"`
	Title      *string        `gorm:"column:title" json:"title,omitempty"`
	Metadata   datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	Items      []PathItem     `gorm:"foreignKey:PathID;references:ID;constraint:OnDelete:CASCADE" json:"path_items,omitempty"`
	CreatedAt  time.Time      `gorm:"not null;default:now();index" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"not null;default:now()" json:"updated_at"`
}

func (LearningPath) TableName() string { return "learning_paths" }

type PathItem struct {
	ID       uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PathID   uuid.UUID  `gorm:"type:uuid;not null;index:idx_path_item_idx,unique,priority:1" json:"path_id"`
	Idx      int        `gorm:"column:idx;not null;index:idx_path_item_idx,unique,priority:2" json:"idx"`
	Kind     string     `gorm:"column:kind;not null" json:"type"`
	CourseID *uuid.UUID `gorm:"type:uuid;column:course_id;index" json:"course_id"`
	NewTitle *string    `gorm:"column:new_title" json:"new_title"`
	Note     string     `gorm:"column:note;type:text;not null;default:''" json:"note"`
	Status   string     `gorm:"column:status;not null;default:'pending';index" json:"status"`
	Error    *string    `gorm:"column:error;type:text" json:"error,omitempty"`
	// AttemptID identifies the generation run that currently owns the item.
	AttemptID           *uuid.UUID `gorm:"type:uuid;column:attempt_id" json:"-"`
	GenerationStartedAt *time.Time `gorm:"column:generation_started_at" json:"generation_started_at,omitempty"`
	CreatedAt           time.Time  `gorm:"not null;default:now()" json:"created_at"`
	UpdatedAt           time.Time  `gorm:"not null;default:now()" json:"updated_at"`
}

func (PathItem) TableName() string { return "path_items" }

// PlanMetadata is the snapshot stored in LearningPath.Metadata.
type PlanMetadata struct {
	Candidates []PlanCandidateRef `json:"candidates"`
	Fallback   bool               `json:"fallback"`
	Enforced   bool               `json:"enforced"`
	Model      string             `json:"model,omitempty"`
}

type PlanCandidateRef struct {
	ID    uuid.UUID `json:"id"`
	Score float64   `json:"score"`
}
