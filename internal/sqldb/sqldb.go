// Package sqldb opens the relational store. Queries elsewhere are written
// with "?" placeholders and passed through sqlx.DB.Rebind, which maps them to
// the numbered "$n" dialect when the postgres driver is active; the mapping is
// fixed by the driver chosen here at startup.
package sqldb

import (
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const (
	TypeSQLite   = "sqlite"
	TypePostgres = "postgres"
)

type Options struct {
	Type string // sqlite (default) or postgres
	DSN  string // sqlite file path / source name, or postgres connection url
}

// Connect opens the configured backend and verifies the connection.
func Connect(opts Options) (*sqlx.DB, error) {
	switch opts.Type {
	case "", TypeSQLite:
		db, err := sqlx.Connect("sqlite3", "file:"+opts.DSN)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite database: %w", err)
		}
		return db, nil
	case TypePostgres:
		db, err := sqlx.Connect("pgx", opts.DSN)
		if err != nil {
			return nil, fmt.Errorf("opening postgres database: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown database type %q", opts.Type)
	}
}
