package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daebok/speedment/db"
	"github.com/daebok/speedment/schema"
)

func TestCrawlSchema(t *testing.T) {
	t.Run("renders_info_format_by_default", func(t *testing.T) {
		crawler := &MockCrawler{}
		crawler.CrawlFunc = func(ctx context.Context, filter func(string) bool) (*schema.Dbms, error) {
			return buildSampleDbms()
		}

		output, err := crawlSchema(context.Background(), crawler, CrawlConfig{})
		require.NoError(t, err)
		assert.True(t, crawler.CrawlCalled)
		assert.Contains(t, output, "Schema: public")
		assert.Contains(t, output, "Table: users")
		assert.Contains(t, output, "id INT4 NOT NULL (PRIMARY KEY)")
	})

	t.Run("renders_sql_format_when_asked", func(t *testing.T) {
		crawler := &MockCrawler{}
		crawler.CrawlFunc = func(ctx context.Context, filter func(string) bool) (*schema.Dbms, error) {
			return buildSampleDbms()
		}

		output, err := crawlSchema(context.Background(), crawler, CrawlConfig{Format: "sql"})
		require.NoError(t, err)
		assert.Contains(t, output, "create table users")
		assert.Contains(t, output, "primary key (id)")
	})

	t.Run("passes_schema_filter_through", func(t *testing.T) {
		crawler := &MockCrawler{}

		_, err := crawlSchema(context.Background(), crawler, CrawlConfig{Schemas: []string{"sales"}})
		require.NoError(t, err)
		require.NotNil(t, crawler.LastFilter)
		assert.True(t, crawler.LastFilter("sales"))
		assert.False(t, crawler.LastFilter("hr"))
	})

	t.Run("empty_schema_list_means_nil_filter", func(t *testing.T) {
		crawler := &MockCrawler{}

		_, err := crawlSchema(context.Background(), crawler, CrawlConfig{})
		require.NoError(t, err)
		assert.Nil(t, crawler.LastFilter)
	})

	t.Run("wraps_crawl_failure", func(t *testing.T) {
		crawler := &MockCrawler{}
		crawler.CrawlFunc = func(ctx context.Context, filter func(string) bool) (*schema.Dbms, error) {
			return nil, assert.AnError
		}

		_, err := crawlSchema(context.Background(), crawler, CrawlConfig{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to crawl schema")
		assert.ErrorIs(t, err, assert.AnError)
	})
}

func TestQuerySchema(t *testing.T) {
	t.Run("renders_rows_as_json", func(t *testing.T) {
		runner := &MockQueryRunner{}
		runner.QueryFunc = func(ctx context.Context, sql string, values ...any) ([]db.Row, error) {
			return []db.Row{{"ID": int64(1), "NAME": "alice"}}, nil
		}

		output, err := querySchema(context.Background(), runner, "select * from users", nil)
		require.NoError(t, err)
		assert.True(t, runner.QueryCalled)
		assert.Contains(t, output, `"NAME": "alice"`)
	})

	t.Run("forwards_positional_arguments", func(t *testing.T) {
		runner := &MockQueryRunner{}

		_, err := querySchema(context.Background(), runner, "select * from users where id = $1", []string{"42"})
		require.NoError(t, err)
		assert.Equal(t, "select * from users where id = $1", runner.LastSQL)
		assert.Equal(t, []any{"42"}, runner.LastValues)
	})

	t.Run("propagates_query_failure", func(t *testing.T) {
		runner := &MockQueryRunner{}
		runner.QueryFunc = func(ctx context.Context, sql string, values ...any) ([]db.Row, error) {
			return nil, assert.AnError
		}

		_, err := querySchema(context.Background(), runner, "select 1", nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to run query")
	})
}

func TestOpenProvider(t *testing.T) {
	t.Run("unknown_dbms_type_is_an_error", func(t *testing.T) {
		_, _, err := openProvider(DatabaseConfig{Type: "oracle", URL: "whatever"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown dbms type")
	})

	t.Run("known_types_open", func(t *testing.T) {
		for _, name := range []string{"postgres", "pgx", "sqlite"} {
			typ, provider, err := openProvider(DatabaseConfig{Type: name, URL: "localhost"})
			require.NoError(t, err, name)
			assert.Equal(t, name, typ.Name())
			require.NoError(t, provider.Close())
		}
	})
}
