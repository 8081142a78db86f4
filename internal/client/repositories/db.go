// Package repositories opens the local SQLite store and wires the
// repositories that live on top of it.
package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/dmitrijs2005/researcher/internal/client/migrations"
	"github.com/dmitrijs2005/researcher/internal/client/repositories/credentials"
	"github.com/dmitrijs2005/researcher/internal/client/repositories/metadata"
)

type Repositories struct {
	DB          *sql.DB
	Metadata    metadata.Repository
	Credentials *credentials.SQLiteRepository
}

func (r *Repositories) Close() error {
	return r.DB.Close()
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens the SQLite file at dsn, applies migrations and returns
// the repositories bound to it.
func InitDatabase(ctx context.Context, dsn string) (*Repositories, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	// one writer keeps the token and profile updates serialized
	db.SetMaxOpenConns(1)

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", dsn, err)
	}

	return &Repositories{
		DB:          db,
		Metadata:    metadata.NewSQLiteRepository(db),
		Credentials: credentials.NewSQLiteRepository(db),
	}, nil
}
