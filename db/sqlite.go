package db

import (
	"strings"

	_ "modernc.org/sqlite"

	"github.com/daebok/speedment/typemapper"
)

// SqliteType is the SQLite vendor profile backed by the modernc driver.
// SQLite has no schema namespaces: attached databases surface only through
// the catalog pass, and the static vendor type set drives type resolution.
type SqliteType struct{}

// NewSqliteType creates the SQLite profile
func NewSqliteType() DbmsType {
	return &SqliteType{}
}

func (s *SqliteType) Name() string       { return "sqlite" }
func (s *SqliteType) DriverName() string { return "sqlite" }

// DSN returns the file path or URI unchanged; SQLite has no credentials
func (s *SqliteType) DSN(url, user, password string) string {
	return url
}

func (s *SqliteType) Naming() NamingConvention {
	return NamingConvention{
		SchemaExcludeSet: map[string]struct{}{
			"temp": {},
		},
	}
}

// DataTypes declares the SQLite storage classes and common declared types
// statically, selecting the static resolver strategy.
func (s *SqliteType) DataTypes() []typemapper.SQLTypeInfo {
	return []typemapper.SQLTypeInfo{
		{Name: "INTEGER", DataType: 1},
		{Name: "INT", DataType: 1},
		{Name: "BIGINT", DataType: 1},
		{Name: "SMALLINT", DataType: 1},
		{Name: "TINYINT", DataType: 1},
		{Name: "REAL", DataType: 2},
		{Name: "DOUBLE", DataType: 2},
		{Name: "FLOAT", DataType: 2},
		{Name: "NUMERIC", DataType: 2},
		{Name: "DECIMAL", DataType: 2},
		{Name: "TEXT", DataType: 3},
		{Name: "VARCHAR", DataType: 3},
		{Name: "CHAR", DataType: 3},
		{Name: "CLOB", DataType: 3},
		{Name: "BLOB", DataType: 4},
		{Name: "BOOLEAN", DataType: 5},
		{Name: "DATE", DataType: 6},
		{Name: "DATETIME", DataType: 6},
		{Name: "TIMESTAMP", DataType: 6},
	}
}

// TypeInfoQuery is unused: the static type set above always applies
func (s *SqliteType) TypeInfoQuery() Query {
	return Query{SQL: `SELECT '' AS "TYPE_NAME", 0 AS "DATA_TYPE", 0 AS "PRECISION" WHERE 0`}
}

// MapType resolves declared SQLite types by affinity
func (s *SqliteType) MapType(info typemapper.SQLTypeInfo) (typemapper.Type, bool) {
	name := strings.ToUpper(info.Name)
	switch {
	case strings.Contains(name, "INT"):
		return typemapper.Int64, true
	case strings.Contains(name, "BOOL"):
		return typemapper.Bool, true
	case strings.Contains(name, "DATE"), strings.Contains(name, "TIME"):
		return typemapper.Time, true
	case strings.Contains(name, "BLOB"):
		return typemapper.Bytes, true
	case strings.Contains(name, "REAL"), strings.Contains(name, "FLOA"), strings.Contains(name, "DOUB"),
		strings.Contains(name, "NUMERIC"), strings.Contains(name, "DECIMAL"):
		return typemapper.Float64, true
	case strings.Contains(name, "CHAR"), strings.Contains(name, "TEXT"), strings.Contains(name, "CLOB"):
		return typemapper.String, true
	default:
		return "", false
	}
}

// TransientStates returns the default table; SQLite reports no SQLSTATEs
func (s *SqliteType) TransientStates() map[string]struct{} {
	return DefaultTransientStates()
}

// SchemasQuery yields no rows: SQLite databases are catalogs, not schemas
func (s *SqliteType) SchemasQuery() Query {
	return Query{SQL: `SELECT '' AS "TABLE_SCHEM", '' AS "TABLE_CATALOG" WHERE 0`}
}

func (s *SqliteType) CatalogsQuery() Query {
	return Query{SQL: `SELECT name AS "TABLE_CAT" FROM pragma_database_list ORDER BY seq`}
}

func (s *SqliteType) TablesQuery(schemaName string) Query {
	return Query{
		SQL: `SELECT name AS "TABLE_NAME" FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`,
	}
}

// ColumnsQuery reads pragma_table_info. SQLite exposes no auto-increment
// attribute here; the crawler tolerates its absence.
func (s *SqliteType) ColumnsQuery(schemaName, tableName string) Query {
	return Query{
		SQL: `SELECT name AS "COLUMN_NAME", cid + 1 AS "ORDINAL_POSITION", ` +
			`CASE "notnull" WHEN 1 THEN 0 ELSE 1 END AS "NULLABLE", ` +
			`type AS "TYPE_NAME", 0 AS "COLUMN_SIZE" ` +
			`FROM pragma_table_info(?) ORDER BY cid`,
		Args: []any{tableName},
	}
}

// IndexesQuery reads pragma_index_list joined with pragma_index_info.
// SQLite reports no per-column direction; the crawler degrades to NONE.
func (s *SqliteType) IndexesQuery(schemaName, tableName string) Query {
	return Query{
		SQL: `SELECT il.name AS "INDEX_NAME", ` +
			`CASE il."unique" WHEN 1 THEN 0 ELSE 1 END AS "NON_UNIQUE", ` +
			`ii.name AS "COLUMN_NAME", ii.seqno + 1 AS "ORDINAL_POSITION" ` +
			`FROM pragma_index_list(?) il, pragma_index_info(il.name) ii ` +
			`WHERE il.origin != 'pk' ORDER BY il.name, ii.seqno`,
		Args: []any{tableName},
	}
}

func (s *SqliteType) PrimaryKeysQuery(schemaName, tableName string) Query {
	return Query{
		SQL: `SELECT name AS "COLUMN_NAME", pk AS "KEY_SEQ" ` +
			`FROM pragma_table_info(?) WHERE pk > 0 ORDER BY pk`,
		Args: []any{tableName},
	}
}

func (s *SqliteType) ForeignKeysQuery(schemaName, tableName string) Query {
	return Query{
		SQL: `SELECT 'fk_' || ? || '_' || id AS "FK_NAME", "from" AS "FKCOLUMN_NAME", ` +
			`seq + 1 AS "KEY_SEQ", "table" AS "PKTABLE_NAME", "to" AS "PKCOLUMN_NAME" ` +
			`FROM pragma_foreign_key_list(?) ORDER BY id, seq`,
		Args: []any{tableName, tableName},
	}
}
