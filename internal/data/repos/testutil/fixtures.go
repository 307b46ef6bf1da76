package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/pathforge-backend/internal/domain"
)

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }

func PtrTime(v time.Time) *time.Time { return &v }

func PtrString(v string) *string { return &v }

func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, owner *uuid.UUID, title string, public bool) *types.Course {
	tb.Helper()
	c := &types.Course{
		ID:          uuid.New(),
		Owner:       owner,
		Title:       title,
		Description: "A course about " + title,
		Tags:        []string{"test"},
		IsPublic:    public,
	}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	// is_public has a DB default of true; force the requested value.
	if !public {
		if err := tx.WithContext(ctx).Model(c).Update("is_public", false).Error; err != nil {
			tb.Fatalf("seed course visibility: %v", err)
		}
	}
	return c
}

func SeedLessons(tb testing.TB, ctx context.Context, tx *gorm.DB, courseID uuid.UUID, n int) []*types.Lesson {
	tb.Helper()
	out := make([]*types.Lesson, 0, n)
	for i := 1; i <= n; i++ {
		l := &types.Lesson{
			ID:       uuid.New(),
			CourseID: courseID,
			Idx:      i,
			Title:    fmt.Sprintf("Lesson %d", i),
			Content:  "content",
		}
		if err := tx.WithContext(ctx).Omit("Course").Create(l).Error; err != nil {
			tb.Fatalf("seed lesson: %v", err)
		}
		out = append(out, l)
	}
	return out
}

func SeedPath(tb testing.TB, ctx context.Context, tx *gorm.DB, ownerID uuid.UUID, prompt string) *types.LearningPath {
	tb.Helper()
	p := &types.LearningPath{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		UserPrompt: prompt,
	}
	if err := tx.WithContext(ctx).Omit("Items").Create(p).Error; err != nil {
		tb.Fatalf("seed path: %v", err)
	}
	return p
}

func SeedPathItem(tb testing.TB, ctx context.Context, tx *gorm.DB, pathID uuid.UUID, idx int, kind, status string) *types.PathItem {
	tb.Helper()
	it := &types.PathItem{
		ID:     uuid.New(),
		PathID: pathID,
		Idx:    idx,
		Kind:   kind,
		Note:   "note",
		Status: status,
	}
	if kind == types.PathItemKindNew {
		it.NewTitle = PtrString(fmt.Sprintf("Step %d", idx))
	}
	if err := tx.WithContext(ctx).Create(it).Error; err != nil {
		tb.Fatalf("seed path item: %v", err)
	}
	return it
}
