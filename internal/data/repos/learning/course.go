package learning

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/pathforge-backend/internal/domain"
	"github.com/yungbote/pathforge-backend/internal/pkg/dbctx"
	"github.com/yungbote/pathforge-backend/internal/platform/logger"
)

type CourseRepo interface {
	Create(dbc dbctx.Context, row *types.Course) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Course, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Course, error)
	// ExistingIDs returns the subset of ids that have a course row.
	ExistingIDs(dbc dbctx.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error)
	ListLibrary(dbc dbctx.Context) ([]*types.Course, error)
}

type courseRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	return &courseRepo{db: db, log: baseLog.With("repo", "CourseRepo")}
}

func (r *courseRepo) Create(dbc dbctx.Context, row *types.Course) error {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	if row == nil {
		return nil
	}
	return classify(t.WithContext(dbc.Ctx).Create(row).Error)
}

func (r *courseRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Course, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	rows, err := r.GetByIDs(dbc, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

func (r *courseRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Course, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.Course{}
	if len(ids) == 0 {
		return out, nil
	}
	if err := t.WithContext(dbc.Ctx).Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, classify(err)
	}
	return out, nil
}

func (r *courseRepo) ExistingIDs(dbc dbctx.Context, ids []uuid.UUID) (map[uuid.UUID]bool, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := map[uuid.UUID]bool{}
	if len(ids) == 0 {
		return out, nil
	}
	var found []uuid.UUID
	if err := t.WithContext(dbc.Ctx).
		Model(&types.Course{}).
		Where("id IN ?", ids).
		Pluck("id", &found).Error; err != nil {
		return nil, classify(err)
	}
	for _, id := range found {
		out[id] = true
	}
	return out, nil
}

func (r *courseRepo) ListLibrary(dbc dbctx.Context) ([]*types.Course, error) {
	t := dbc.Tx
	if t == nil {
		t = r.db
	}
	out := []*types.Course{}
	if err := t.WithContext(dbc.Ctx).
		Where("owner IS NULL").
		Order("created_at ASC").
		Find(&out).Error; err != nil {
		return nil, classify(err)
	}
	return out, nil
}
