package learning

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/pathforge-backend/internal/domain"
	"github.com/yungbote/pathforge-backend/internal/pkg/dbctx"
	"github.com/yungbote/pathforge-backend/internal/platform/logger"
)

type LearningPathRepo interface {
	Create(dbc dbctx.Context, row *types.LearningPath) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.LearningPath, error)
	// GetForOwner returns nil when the path does not exist or belongs to someone else.
	GetForOwner(dbc dbctx.Context, id uuid.UUID, ownerID uuid.UUID, withItems bool) (*types.LearningPath, error)
	ListByOwner(dbc dbctx.Context, ownerID uuid.UUID, withItems bool) ([]*types.LearningPath, error)
	UpdateTitle(dbc dbctx.Context, id uuid.UUID, title string) error
}

type learningPathRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewLearningPathRepo(db *gorm.DB, baseLog *logger.Logger) LearningPathRepo {
	return &learningPathRepo{db: db, log: baseLog.With("repo", "LearningPathRepo")}
}

func (r *learningPathRepo) Create(dbc dbctx.Context, row *types.LearningPath) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil
	}
	return classify(t.WithContext(dbc.Ctx).Omit("Items").Create(row).Error)
}

func (r *learningPathRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.LearningPath, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil, nil
	}
	var rows []*types.LearningPath
	if err := t.WithContext(dbc.Ctx).Where("id = ?", id).Limit(1).Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *learningPathRepo) GetForOwner(dbc dbctx.Context, id uuid.UUID, ownerID uuid.UUID, withItems bool) (*types.LearningPath, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil || ownerID == uuid.Nil {
		return nil, nil
	}
	q := t.WithContext(dbc.Ctx).Where("id = ? AND owner_id = ?", id, ownerID)
	if withItems {
		q = q.Preload("Items", orderByIdx)
	}
	var rows []*types.LearningPath
	if err := q.Limit(1).Find(&rows).Error; err != nil {
		return nil, classify(err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *learningPathRepo) ListByOwner(dbc dbctx.Context, ownerID uuid.UUID, withItems bool) ([]*types.LearningPath, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.LearningPath{}
	if ownerID == uuid.Nil {
		return out, nil
	}
	q := t.WithContext(dbc.Ctx).Where("owner_id = ?", ownerID).Order("created_at DESC").Order("id")
	if withItems {
		q = q.Preload("Items", orderByIdx)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, classify(err)
	}
	return out, nil
}

func (r *learningPathRepo) UpdateTitle(dbc dbctx.Context, id uuid.UUID, title string) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if id == uuid.Nil {
		return nil
	}
	return classify(t.WithContext(dbc.Ctx).
		Model(&types.LearningPath{}).
		Where("id = ?", id).
		Updates(map[string]any{"title": title, "updated_at": gorm.Expr("now()")}).Error)
}

func orderByIdx(db *gorm.DB) *gorm.DB {
	return db.Order("idx ASC")
}
