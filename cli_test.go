package main

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedSqlite creates a small sqlite database on disk and returns its path.
// sqlite runs in-process, so these tests need no external services.
func seedSqlite(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "app.db")
	pool, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer pool.Close()

	_, err = pool.Exec(`
		create table accounts (
			id integer primary key,
			email text not null,
			balance real
		);
		create unique index idx_accounts_email on accounts(email);
		insert into accounts (email, balance) values ('a@example.com', 10.5), ('b@example.com', 0);
	`)
	require.NoError(t, err)
	return path
}

func TestCrawlEndToEnd(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping cli integration test in short mode")
	}

	path := seedSqlite(t)
	ctx := context.Background()

	t.Run("info_format", func(t *testing.T) {
		output, err := crawlSchemaCore(ctx, path, "sqlite", CrawlConfig{})
		require.NoError(t, err)
		assert.Contains(t, output, "Schema: main")
		assert.Contains(t, output, "Table: accounts")
		assert.Contains(t, output, "email TEXT NOT NULL")
		assert.Contains(t, output, "idx_accounts_email on (email) (UNIQUE)")
	})

	t.Run("sql_format", func(t *testing.T) {
		output, err := crawlSchemaCore(ctx, path, "sqlite", CrawlConfig{Format: "sql"})
		require.NoError(t, err)
		assert.Contains(t, output, "create table accounts")
		assert.Contains(t, output, "primary key (id)")
		assert.Contains(t, output, "create unique index idx_accounts_email on accounts (email);")
	})

	t.Run("schema_filter_excludes_everything", func(t *testing.T) {
		_, err := crawlSchemaCore(ctx, path, "sqlite", CrawlConfig{Schemas: []string{"no_such_schema"}})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "could not find any matching schema")
	})

	t.Run("run_query", func(t *testing.T) {
		output, err := runQueryCore(ctx, path, "sqlite", "select email from accounts order by id")
		require.NoError(t, err)
		assert.Contains(t, output, "a@example.com")
		assert.Contains(t, output, "b@example.com")
	})
}
