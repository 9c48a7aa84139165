package pagination

import (
	"context"
)

const (
	// DefaultPageSize is the number of rows requested per page when none is configured.
	DefaultPageSize = 1000
	// DefaultMaxRows caps a full walk when no ceiling is configured.
	DefaultMaxRows = 30000
)

// Window bounds an offset walk over a remote table.
type Window struct {
	PageSize int
	MaxRows  int
}

// Normalize fills in defaults and keeps the page no larger than the ceiling.
func (w Window) Normalize() Window {
	if w.PageSize <= 0 {
		w.PageSize = DefaultPageSize
	}
	if w.MaxRows <= 0 {
		w.MaxRows = DefaultMaxRows
	}
	if w.PageSize > w.MaxRows {
		w.PageSize = w.MaxRows
	}
	return w
}

// FetchFunc reads one page starting at offset and reports how many rows it returned.
type FetchFunc func(ctx context.Context, offset, limit int) (int, error)

// Walk requests successive pages until one comes back short, the ceiling is hit, or ctx ends.
// It returns the number of rows read.
func Walk(ctx context.Context, w Window, fetch FetchFunc) (int, error) {
	w = w.Normalize()
	total := 0
	for total < w.MaxRows {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		limit := w.PageSize
		if remaining := w.MaxRows - total; remaining < limit {
			limit = remaining
		}
		n, err := fetch(ctx, total, limit)
		if err != nil {
			return total, err
		}
		total += n
		if n < limit {
			break
		}
	}
	return total, nil
}
