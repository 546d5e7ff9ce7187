package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daebok/speedment/typemapper"
)

func TestSqliteType(t *testing.T) {
	typ := NewSqliteType()

	t.Run("dsn_is_the_file_path", func(t *testing.T) {
		assert.Equal(t, "file:app.db", typ.DSN("file:app.db", "ignored", "ignored"))
	})

	t.Run("type_resolution_is_static", func(t *testing.T) {
		assert.NotEmpty(t, typ.DataTypes())
	})

	t.Run("maps_declared_types_by_affinity", func(t *testing.T) {
		cases := map[string]typemapper.Type{
			"INTEGER":      typemapper.Int64,
			"BIGINT":       typemapper.Int64,
			"REAL":         typemapper.Float64,
			"NUMERIC":      typemapper.Float64,
			"TEXT":         typemapper.String,
			"VARCHAR(255)": typemapper.String,
			"BLOB":         typemapper.Bytes,
			"BOOLEAN":      typemapper.Bool,
			"DATETIME":     typemapper.Time,
		}
		for name, want := range cases {
			got, ok := typ.MapType(typemapper.SQLTypeInfo{Name: name})
			require.True(t, ok, name)
			assert.Equal(t, want, got, name)
		}
	})

	t.Run("schemas_query_yields_no_rows", func(t *testing.T) {
		assert.Contains(t, typ.SchemasQuery().SQL, "WHERE 0")
	})

	t.Run("catalogs_come_from_database_list", func(t *testing.T) {
		assert.Contains(t, typ.CatalogsQuery().SQL, "pragma_database_list")
	})

	t.Run("metadata_queries_use_pragmas", func(t *testing.T) {
		cols := typ.ColumnsQuery("main", "users")
		assert.Contains(t, cols.SQL, "pragma_table_info")
		assert.Equal(t, []any{"users"}, cols.Args)
		// No IS_AUTOINCREMENT column: the crawler must degrade
		assert.NotContains(t, cols.SQL, "IS_AUTOINCREMENT")

		idx := typ.IndexesQuery("main", "users")
		assert.Contains(t, idx.SQL, "pragma_index_list")
		assert.Contains(t, idx.SQL, "origin != 'pk'")

		pks := typ.PrimaryKeysQuery("main", "users")
		assert.Contains(t, pks.SQL, "pk > 0")

		fks := typ.ForeignKeysQuery("main", "users")
		assert.Contains(t, fks.SQL, "pragma_foreign_key_list")
		assert.Equal(t, []any{"users", "users"}, fks.Args)
	})

	t.Run("temp_schema_is_excluded", func(t *testing.T) {
		assert.True(t, typ.Naming().Excluded("temp"))
		assert.False(t, typ.Naming().Excluded("main"))
	})
}
