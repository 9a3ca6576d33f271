package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/shopauth/internal/dbx"
	"github.com/dmitrijs2005/shopauth/internal/server/migrations"
	"github.com/dmitrijs2005/shopauth/internal/server/users"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repositories and runs
// the embedded goose migrations.
type PostgresRepositoryManager struct {
	db    *sql.DB
	users *users.PostgresRepository
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// NewPostgresRepositoryManager opens dsn and migrates the schema.
func NewPostgresRepositoryManager(ctx context.Context, dsn string) (*PostgresRepositoryManager, error) {
	conn, err := dbx.Open(ctx, dsn)
	if err != nil {
		return nil, err
	}

	m := newPostgresRepositoryManager(conn)
	if err := m.RunMigrations(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}
	return m, nil
}

func newPostgresRepositoryManager(conn *sql.DB) *PostgresRepositoryManager {
	return &PostgresRepositoryManager{
		db:    conn,
		users: users.NewPostgresRepository(conn),
	}
}

func (m *PostgresRepositoryManager) Users() users.Repository {
	return m.users
}

// RunMigrations applies the embedded migrations with the pgx dialect.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, m.db, ".")
}

func (m *PostgresRepositoryManager) Close() error {
	return m.db.Close()
}
