package store

import (
	"context"

	"pclima/internal/table"
)

// Store persists downloaded tables outside of flat files.
type Store interface {
	SaveTable(ctx context.Context, name string, t *table.Table) error
	ListTables(ctx context.Context) ([]string, error)
	Close() error
}
