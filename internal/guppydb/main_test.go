package guppydb

import (
	"testing"

	"github.com/stellularorg/guppy/internal/cachedb"
	"github.com/stellularorg/guppy/internal/sqldb"
)

// newTestDB opens a fresh shared-cache in-memory sqlite database plus an
// in-memory cache. name must be unique per test so parallel tests do not
// share state.
func newTestDB(t *testing.T, name string) *GuppyDB {
	t.Helper()

	opts := sqldb.Options{
		Type: sqldb.TypeSQLite,
		DSN:  name + "?mode=memory&cache=shared",
	}

	db, err := sqldb.Connect(opts)
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cache, err := cachedb.New("")
	if err != nil {
		t.Fatalf("opening test cache: %v", err)
	}
	t.Cleanup(func() { cache.Close() })

	g := New(db, cache, opts, func(s string) string { return "<p>" + s + "</p>" })
	if err := g.Init(); err != nil {
		t.Fatalf("creating tables: %v", err)
	}
	return g
}
