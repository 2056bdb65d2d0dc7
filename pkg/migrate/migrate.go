// Package migrate runs the embedded goose migrations.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"

	"condo-automation/migrations"

	"github.com/pressly/goose/v3"
)

// Dir is the root of the embedded migration FS.
const Dir = "."

// Commands lists the goose commands the CLI accepts.
var Commands = map[string]bool{
	"up":        true,
	"up-by-one": true,
	"down":      true,
	"redo":      true,
	"reset":     true,
	"status":    true,
	"version":   true,
}

func setup(fsys fs.FS) error {
	goose.SetBaseFS(fsys)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}
	return nil
}

// Run executes a goose command against db using the embedded migrations.
func Run(ctx context.Context, db *sql.DB, command string, args ...string) error {
	if db == nil {
		return fmt.Errorf("db is required")
	}
	if !Commands[command] {
		return fmt.Errorf("unsupported migration command %q", command)
	}
	if err := setup(migrations.FS); err != nil {
		return err
	}
	if err := goose.RunContext(ctx, command, db, Dir, args...); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}

// Versions returns the embedded migration versions in apply order. No database
// is needed, so it doubles as a sanity check of the embedded files.
func Versions() ([]int64, error) {
	if err := setup(migrations.FS); err != nil {
		return nil, err
	}
	ms, err := goose.CollectMigrations(Dir, 0, goose.MaxVersion)
	if err != nil {
		return nil, fmt.Errorf("collect migrations: %w", err)
	}
	out := make([]int64, 0, len(ms))
	for _, m := range ms {
		out = append(out, m.Version)
	}
	return out, nil
}
