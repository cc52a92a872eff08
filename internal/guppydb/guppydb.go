// Package guppydb is the data-access core: it translates domain operations
// (create user, toggle follow, create post, toggle favorite, create mail
// stream) into consistent reads and writes across the relational store and
// the cache.
package guppydb

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/stellularorg/guppy/internal/cachedb"
	"github.com/stellularorg/guppy/internal/sqldb"
)

// Renderer is the markup transform applied once at post-creation time.
type Renderer func(input string) string

type GuppyDB struct {
	db      *sqlx.DB
	cache   *cachedb.CacheDB
	options sqldb.Options
	render  Renderer
}

// New wires the store around already-opened handles. Both are injected so
// tests can point the core at in-memory instances.
func New(db *sqlx.DB, cache *cachedb.CacheDB, options sqldb.Options, render Renderer) *GuppyDB {
	return &GuppyDB{db: db, cache: cache, options: options, render: render}
}

// Init creates the four logical tables. The unique username index is what
// turns a racing duplicate registration into a constraint error rather than a
// second row.
func (g *GuppyDB) Init() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS "Users" (
			username TEXT NOT NULL,
			id_hashed TEXT NOT NULL,
			role TEXT NOT NULL,
			timestamp BIGINT NOT NULL,
			metadata TEXT NOT NULL
		)`,
		`CREATE UNIQUE INDEX IF NOT EXISTS "idx_users_username" ON "Users"(username)`,
		`CREATE TABLE IF NOT EXISTS "Logs" (
			id TEXT NOT NULL,
			logtype TEXT NOT NULL,
			timestamp BIGINT NOT NULL,
			content TEXT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS "gup_posts" (
			id TEXT NOT NULL,
			author TEXT NOT NULL,
			content TEXT NOT NULL,
			content_html TEXT NOT NULL,
			reply TEXT NOT NULL,
			timestamp BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS "Boards" (
			name TEXT NOT NULL,
			timestamp BIGINT NOT NULL,
			metadata TEXT NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := g.db.Exec(stmt); err != nil {
			return fmt.Errorf("creating tables: %w", err)
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint") || strings.Contains(msg, "duplicate key")
}

// jsonField renders `"name":"value"` with encoding/json quoting, so LIKE
// needles match the serializer's output exactly.
func jsonField(name, value string) string {
	k, _ := json.Marshal(name)
	v, _ := json.Marshal(value)
	return string(k) + ":" + string(v)
}

// jsonPairs marshals v and strips the outer braces, leaving the inner
// key/value sequence as it appears in a stored record.
func jsonPairs(v any) string {
	b, _ := json.Marshal(v)
	s := string(b)
	return strings.TrimSuffix(strings.TrimPrefix(s, "{"), "}")
}

// nested re-escapes a JSON fragment the way it appears inside a JSON string
// value (quotes become \"), for needles matched against embedded documents
// like the mail-stream marker in a board's about text.
func nested(fragment string) string {
	b, _ := json.Marshal(fragment)
	return string(b[1 : len(b)-1])
}

// escapeLike neutralizes LIKE metacharacters in a literal needle. Queries
// built with it carry an ESCAPE '\' clause.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// contains wraps a literal needle in LIKE wildcards.
func contains(needle string) string {
	return "%" + escapeLike(needle) + "%"
}
