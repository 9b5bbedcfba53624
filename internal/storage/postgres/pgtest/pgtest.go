// Package pgtest opens a migrated Postgres database for repository tests.
package pgtest

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/donna-backend/internal/storage/postgres"
)

const truncate = `truncate payments, deals, clients, tasks, projects, settings, daily_schedules;`

// Open connects to TEST_DB_DSN, applies the migrations and empties every
// table. The test is skipped when TEST_DB_DSN is not set.
func Open(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set, skipping PostgreSQL integration test")
	}
	ctx := context.Background()

	db, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	defer db.Close()
	_, err = postgres.Migrate(ctx, db)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, truncate)
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}
