package domain

import "github.com/yungbote/pathforge-backend/internal/domain/learning"

const (
	PathItemKindReuse = learning.PathItemKindReuse
	PathItemKindNew   = learning.PathItemKindNew

	PathItemStatusPending    = learning.PathItemStatusPending
	PathItemStatusGenerating = learning.PathItemStatusGenerating
	PathItemStatusReady      = learning.PathItemStatusReady
	PathItemStatusFailed     = learning.PathItemStatusFailed

	LevelBeginner     = learning.LevelBeginner
	LevelIntermediate = learning.LevelIntermediate
	LevelAdvanced     = learning.LevelAdvanced
)

type (
	LearningPath     = learning.LearningPath
	PathItem         = learning.PathItem
	PlanMetadata     = learning.PlanMetadata
	PlanCandidateRef = learning.PlanCandidateRef
	Course           = learning.Course
	Lesson           = learning.Lesson
	CourseEmbedding  = learning.CourseEmbedding
)

var ValidLevel = learning.ValidLevel

// Models lists every table for automigration, parents first.
func Models() []any {
	return []any{
		&Course{},
		&Lesson{},
		&CourseEmbedding{},
		&LearningPath{},
		&PathItem{},
	}
}
