package learning

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	pkgerrors "github.com/yungbote/pathforge-backend/internal/pkg/errors"
)

// classify maps driver errors onto the service taxonomy.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return pkgerrors.Wrap(pkgerrors.ErrNotFound, err)
	case IsUniqueViolation(err):
		return pkgerrors.Wrap(pkgerrors.ErrConflict, err)
	}
	return pkgerrors.Wrap(pkgerrors.ErrPersistence, err)
}

func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return strings.Contains(strings.ToLower(err.Error()), "sqlstate 23505")
}
