// Package migrations embeds the goose SQL migrations for the Aurora
// Postgres schema and exposes Up/Down helpers for the migration job
// (cmd/migrate), which is the only program in this module that opens a
// direct database/sql connection — see internal/database.
package migrations

import (
	"context"
	"database/sql"
	"embed"
	"fmt"

	"github.com/pressly/goose/v3"
)

//go:embed *.sql
var fs embed.FS

// provider returns a goose.Provider bound to the embedded migration
// files and the pgx-backed *sql.DB the caller already opened via
// internal/database.Connect.
func provider(db *sql.DB) (*goose.Provider, error) {
	p, err := goose.NewProvider(goose.DialectPostgres, db, fs)
	if err != nil {
		return nil, fmt.Errorf("build goose provider: %w", err)
	}
	return p, nil
}

// Up applies every pending migration in order.
func Up(db *sql.DB) error {
	p, err := provider(db)
	if err != nil {
		return err
	}
	_, err = p.Up(context.Background())
	return err
}

// Down rolls back exactly one migration.
func Down(db *sql.DB) error {
	p, err := provider(db)
	if err != nil {
		return err
	}
	_, err = p.Down(context.Background())
	return err
}

// Status returns the applied/pending state of every migration.
func Status(db *sql.DB) ([]*goose.MigrationStatus, error) {
	p, err := provider(db)
	if err != nil {
		return nil, err
	}
	return p.Status(context.Background())
}
