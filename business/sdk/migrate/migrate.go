// Package migrate contains the database schema and the logic to apply it.
package migrate

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/jcpaschoal/confmgmt/business/sdk/sqldb"
	"github.com/jmoiron/sqlx"
)

//go:embed sql/schema.sql
var schemaDoc string

// Migration is one versioned step of the schema.
type Migration struct {
	Version     string
	Description string
	Script      string
}

// Migrate attempts to bring the database up to date with the migrations
// defined in this package. Versions already recorded are skipped.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	if err := sqldb.StatusCheck(ctx, db); err != nil {
		return fmt.Errorf("status check database: %w", err)
	}

	migrations, err := Parse(schemaDoc)
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}

	const q = `
	CREATE TABLE IF NOT EXISTS schema_version (
		version    TEXT        NOT NULL,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now(),

		PRIMARY KEY (version)
	)`

	if _, err := db.ExecContext(ctx, q); err != nil {
		return fmt.Errorf("create version table: %w", err)
	}

	for _, m := range migrations {
		if err := apply(ctx, db, m); err != nil {
			return fmt.Errorf("version %s: %w", m.Version, err)
		}
	}

	return nil
}

func apply(ctx context.Context, db *sqlx.DB, m Migration) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var applied bool
	const q = `SELECT EXISTS (SELECT 1 FROM schema_version WHERE version = $1)`
	if err := tx.QueryRowContext(ctx, q, m.Version).Scan(&applied); err != nil {
		return fmt.Errorf("lookup: %w", err)
	}

	if applied {
		return nil
	}

	for _, stmt := range statements(m.Script) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("exec %q: %w", m.Description, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_version (version) VALUES ($1)`, m.Version); err != nil {
		return fmt.Errorf("record: %w", err)
	}

	return tx.Commit()
}

// Parse splits a schema document into migrations. Each migration starts with
// a "-- Version:" line optionally followed by a "-- Description:" line.
func Parse(doc string) ([]Migration, error) {
	var migrations []Migration
	var cur *Migration
	seen := make(map[string]bool)

	for _, line := range strings.Split(doc, "\n") {
		trimmed := strings.TrimSpace(line)

		switch {
		case strings.HasPrefix(trimmed, "-- Version:"):
			v := strings.TrimSpace(strings.TrimPrefix(trimmed, "-- Version:"))
			if v == "" {
				return nil, errors.New("empty version")
			}
			if seen[v] {
				return nil, fmt.Errorf("duplicate version %s", v)
			}
			seen[v] = true

			migrations = append(migrations, Migration{Version: v})
			cur = &migrations[len(migrations)-1]

		case strings.HasPrefix(trimmed, "-- Description:"):
			if cur == nil {
				return nil, errors.New("description before version")
			}
			cur.Description = strings.TrimSpace(strings.TrimPrefix(trimmed, "-- Description:"))

		default:
			if cur == nil {
				if trimmed != "" {
					return nil, errors.New("statement before version")
				}
				continue
			}
			cur.Script += line + "\n"
		}
	}

	return migrations, nil
}

func statements(script string) []string {
	var out []string
	for _, s := range strings.Split(script, ";") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
