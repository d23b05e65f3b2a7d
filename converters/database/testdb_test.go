package database_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/pjxcog/mojap-metadata/converters/database"
)

// openTestDB opens an in-memory sqlite database.  The pool is limited to a single
// connection, since every connection to :memory: is a distinct database.
func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(context.Background(), "sqlite", ":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func exec(t *testing.T, db *sql.DB, statements ...string) {
	t.Helper()
	for _, s := range statements {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("could not execute %s: %v", s, err)
		}
	}
}
