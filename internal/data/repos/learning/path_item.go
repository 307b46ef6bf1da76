package learning

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/pathforge-backend/internal/domain"
	"github.com/yungbote/pathforge-backend/internal/pkg/dbctx"
	"github.com/yungbote/pathforge-backend/internal/platform/logger"
)

type PathItemRepo interface {
	Create(dbc dbctx.Context, rows []*types.PathItem) ([]*types.PathItem, error)
	GetByPathIdx(dbc dbctx.Context, pathID uuid.UUID, idx int) (*types.PathItem, error)
	ListByPathIDs(dbc dbctx.Context, pathIDs []uuid.UUID) ([]*types.PathItem, error)

	// ClaimForGeneration moves a new item from pending/failed (or a generating claim started
	// before staleBefore) to generating under attemptID. It reports whether a row was claimed.
	ClaimForGeneration(dbc dbctx.Context, pathID uuid.UUID, idx int, attemptID uuid.UUID, now time.Time, staleBefore time.Time) (bool, error)
	// MarkReady and MarkFailed only touch the row while attemptID still owns it.
	MarkReady(dbc dbctx.Context, pathID uuid.UUID, idx int, attemptID uuid.UUID, courseID uuid.UUID) (bool, error)
	MarkFailed(dbc dbctx.Context, pathID uuid.UUID, idx int, attemptID uuid.UUID, message string) (bool, error)
}

type pathItemRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPathItemRepo(db *gorm.DB, baseLog *logger.Logger) PathItemRepo {
	return &pathItemRepo{db: db, log: baseLog.With("repo", "PathItemRepo")}
}

func (r *pathItemRepo) Create(dbc dbctx.Context, rows []*types.PathItem) ([]*types.PathItem, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if len(rows) == 0 {
		return []*types.PathItem{}, nil
	}
	if err := t.WithContext(dbc.Ctx).Create(&rows).Error; err != nil {
		return nil, classify(err)
	}
	return rows, nil
}

func (r *pathItemRepo) GetByPathIdx(dbc dbctx.Context, pathID uuid.UUID, idx int) (*types.PathItem, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if pathID == uuid.Nil {
		return nil, nil
	}
	var rows []*types.PathItem
	if err := t.WithContext(dbc.Ctx).
		Where("path_id = ? AND idx = ?", pathID, idx).
		Limit(1).
		Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *pathItemRepo) ListByPathIDs(dbc dbctx.Context, pathIDs []uuid.UUID) ([]*types.PathItem, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.PathItem{}
	if len(pathIDs) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).
		Where("path_id IN ?", pathIDs).
		Order("path_id").
		Order("idx ASC").
		Find(&out).Error; err != nil {
		return nil, classify(err)
	}
	return out, nil
}

func (r *pathItemRepo) ClaimForGeneration(dbc dbctx.Context, pathID uuid.UUID, idx int, attemptID uuid.UUID, now time.Time, staleBefore time.Time) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(dbc.Ctx).
		Model(&types.PathItem{}).
		Where("path_id = ? AND idx = ? AND kind = ?", pathID, idx, types.PathItemKindNew).
		Where(
			t.Where("status IN ?", []string{types.PathItemStatusPending, types.PathItemStatusFailed}).
				Or("status = ? AND (generation_started_at IS NULL OR generation_started_at < ?)", types.PathItemStatusGenerating, staleBefore),
		).
		Updates(map[string]any{
			"status":                types.PathItemStatusGenerating,
			"attempt_id":            attemptID,
			"generation_started_at": now,
			"error":                 nil,
			"updated_at":            now,
		})
	if res.Error != nil {
		return false, classify(res.Error)
	}
	return res.RowsAffected == 1, nil
}

func (r *pathItemRepo) MarkReady(dbc dbctx.Context, pathID uuid.UUID, idx int, attemptID uuid.UUID, courseID uuid.UUID) (bool, error) {
	return r.finish(dbc, pathID, idx, attemptID, map[string]any{
		"status":     types.PathItemStatusReady,
		"course_id":  courseID,
		"error":      nil,
		"updated_at": time.Now().UTC(),
	})
}

func (r *pathItemRepo) MarkFailed(dbc dbctx.Context, pathID uuid.UUID, idx int, attemptID uuid.UUID, message string) (bool, error) {
	return r.finish(dbc, pathID, idx, attemptID, map[string]any{
		"status":     types.PathItemStatusFailed,
		"error":      message,
		"updated_at": time.Now().UTC(),
	})
}

func (r *pathItemRepo) finish(dbc dbctx.Context, pathID uuid.UUID, idx int, attemptID uuid.UUID, updates map[string]any) (bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	res := t.WithContext(dbc.Ctx).
		Model(&types.PathItem{}).
		Where("path_id = ? AND idx = ? AND attempt_id = ? AND status = ?", pathID, idx, attemptID, types.PathItemStatusGenerating).
		Updates(updates)
	if res.Error != nil {
		return false, classify(res.Error)
	}
	return res.RowsAffected == 1, nil
}
