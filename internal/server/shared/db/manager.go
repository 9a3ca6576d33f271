// Package db selects and owns the user store backend.
package db

import (
	"context"

	"github.com/dmitrijs2005/shopauth/internal/server/users"
)

// RepositoryManager vends repositories and owns the underlying connection.
type RepositoryManager interface {
	RunMigrations(ctx context.Context) error
	Users() users.Repository
	Close() error
}

// NewRepositoryManager returns a Postgres manager for a non-empty dsn and
// an in-memory one otherwise.
func NewRepositoryManager(ctx context.Context, dsn string) (RepositoryManager, error) {
	if dsn == "" {
		return NewInMemoryRepositoryManager(), nil
	}
	return NewPostgresRepositoryManager(ctx, dsn)
}
