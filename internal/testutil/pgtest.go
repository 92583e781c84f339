// Package testutil provides shared test infrastructure for integration tests.
package testutil

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
)

// PGTest connects to the database named by POSTGRES_URL, brings the
// schema up to date with goose, and returns the connection plus a
// cleanup function that wipes application tables. Tests call it at the
// top:
//
//	db, cleanup := testutil.PGTest(t)
//	defer cleanup()
//
// Without POSTGRES_URL the test is skipped, so the integration suite
// only runs where a database is provisioned.
func PGTest(t *testing.T) (*sql.DB, func()) {
	t.Helper()

	dsn := os.Getenv("POSTGRES_URL")
	if dsn == "" {
		t.Skip("POSTGRES_URL not set, skipping integration test")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("pgtest: open database: %v", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		t.Fatalf("pgtest: connect to database: %v", err)
	}

	ctx := context.Background()
	if err := goose.RunContext(ctx, "up", db, migrationsDir(t)); err != nil {
		_ = db.Close()
		t.Fatalf("pgtest: run migrations: %v", err)
	}

	return db, func() {
		wipeTables(ctx, db)
		_ = db.Close()
	}
}

// migrationsDir locates the project migrations/ directory by walking
// up from the package under test.
func migrationsDir(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("pgtest: getwd: %v", err)
	}
	for prev := ""; dir != prev; prev, dir = dir, filepath.Dir(dir) {
		candidate := filepath.Join(dir, "migrations")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate
		}
	}
	t.Fatal("pgtest: no migrations/ directory above the test working directory")
	return ""
}

// wipeTables truncates every application table in one statement so the
// next test starts from an empty schema. The goose bookkeeping table
// survives, which keeps migrations from re-running.
func wipeTables(ctx context.Context, db *sql.DB) {
	var tables sql.NullString
	err := db.QueryRowContext(ctx, `
		SELECT string_agg(quote_ident(tablename), ', ')
		FROM pg_tables
		WHERE schemaname = 'public'
		  AND tablename <> 'goose_db_version'
	`).Scan(&tables)
	if err != nil || !tables.Valid || tables.String == "" {
		return
	}

	// Identifiers come quoted from pg_tables, not from user input.
	_, _ = db.ExecContext(ctx, "TRUNCATE "+tables.String+" CASCADE") // #nosec G202 G104
}
