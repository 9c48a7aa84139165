package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// Base is embedded by the catalog, quote, sales and user repositories.
type Base struct {
	db *gorm.DB
}

// NewBase binds a repository to a GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the connection bound to ctx, or the raw connection when ctx is nil.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// Paged applies a 0-based page window to stmt.
func Paged(stmt *gorm.DB, offset, limit int) *gorm.DB {
	if offset > 0 {
		stmt = stmt.Offset(offset)
	}
	if limit > 0 {
		stmt = stmt.Limit(limit)
	}
	return stmt
}

// IsNotFound reports whether err means the requested row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
