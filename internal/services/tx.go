package services

import (
	"context"

	"gorm.io/gorm"
)

// TxRunner runs fn inside one database transaction; fn's error rolls it back.
type TxRunner func(ctx context.Context, fn func(tx *gorm.DB) error) error

func GormTx(db *gorm.DB) TxRunner {
	return func(ctx context.Context, fn func(tx *gorm.DB) error) error {
		return db.WithContext(ctx).Transaction(fn)
	}
}
