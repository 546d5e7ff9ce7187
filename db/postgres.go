package db

import (
	"fmt"
	"net/url"
	"strings"

	sq "github.com/Masterminds/squirrel"
	_ "github.com/lib/pq"

	"github.com/daebok/speedment/typemapper"
)

// psq is the PostgreSQL statement builder with dollar placeholders
var psq = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresType is the PostgreSQL vendor profile backed by the lib/pq driver.
// It resolves types dynamically from pg_catalog.pg_type.
type PostgresType struct{}

// NewPostgresType creates the PostgreSQL profile
func NewPostgresType() DbmsType {
	return &PostgresType{}
}

func (p *PostgresType) Name() string       { return "postgres" }
func (p *PostgresType) DriverName() string { return "postgres" }

// DSN folds user and password into the connection URL or keyword DSN
func (p *PostgresType) DSN(rawURL, user, password string) string {
	if user == "" && password == "" {
		return rawURL
	}
	if strings.Contains(rawURL, "://") {
		u, err := url.Parse(rawURL)
		if err != nil {
			return rawURL
		}
		u.User = url.UserPassword(user, password)
		return u.String()
	}
	dsn := rawURL
	if user != "" {
		dsn += fmt.Sprintf(" user=%s", user)
	}
	if password != "" {
		dsn += fmt.Sprintf(" password=%s", password)
	}
	return strings.TrimSpace(dsn)
}

func (p *PostgresType) Naming() NamingConvention {
	return NamingConvention{
		SchemaExcludeSet: map[string]struct{}{
			"pg_catalog":         {},
			"pg_toast":           {},
			"information_schema": {},
			"template0":          {},
			"template1":          {},
		},
	}
}

// DataTypes is empty: PostgreSQL types are read from the live connection
func (p *PostgresType) DataTypes() []typemapper.SQLTypeInfo { return nil }

func (p *PostgresType) TypeInfoQuery() Query {
	return buildQuery(psq.
		Select(
			`t.typname AS "TYPE_NAME"`,
			`t.oid::int AS "DATA_TYPE"`,
			`COALESCE(t.typlen, 0)::int AS "PRECISION"`,
		).
		From("pg_catalog.pg_type t").
		Join("pg_catalog.pg_namespace n ON n.oid = t.typnamespace").
		Where(sq.Eq{"n.nspname": "pg_catalog"}).
		Where(sq.Eq{"t.typtype": "b"}))
}

// MapType resolves PostgreSQL type names to intermediate Go types
func (p *PostgresType) MapType(info typemapper.SQLTypeInfo) (typemapper.Type, bool) {
	switch strings.ToLower(info.Name) {
	case "bool", "boolean":
		return typemapper.Bool, true
	case "int2", "smallint", "smallserial":
		return typemapper.Int16, true
	case "int4", "integer", "serial", "oid":
		return typemapper.Int32, true
	case "int8", "bigint", "bigserial":
		return typemapper.Int64, true
	case "float4", "real":
		return typemapper.Float32, true
	case "float8", "double precision":
		return typemapper.Float64, true
	case "bytea":
		return typemapper.Bytes, true
	case "date", "time", "timetz", "timestamp", "timestamptz":
		return typemapper.Time, true
	case "text", "varchar", "bpchar", "char", "name", "uuid", "numeric", "json", "jsonb", "xml", "inet", "cidr", "macaddr", "interval":
		return typemapper.String, true
	default:
		return "", false
	}
}

// TransientStates extends the default table with the PostgreSQL deadlock
// and connection failure states.
func (p *PostgresType) TransientStates() map[string]struct{} {
	states := DefaultTransientStates()
	states["40P01"] = struct{}{}
	states["08006"] = struct{}{}
	return states
}

func (p *PostgresType) SchemasQuery() Query {
	return buildQuery(psq.
		Select(
			`schema_name AS "TABLE_SCHEM"`,
			`catalog_name AS "TABLE_CATALOG"`,
		).
		From("information_schema.schemata").
		OrderBy("schema_name"))
}

func (p *PostgresType) CatalogsQuery() Query {
	return buildQuery(psq.
		Select(`datname AS "TABLE_CAT"`).
		From("pg_catalog.pg_database").
		Where(sq.Eq{"datistemplate": false}).
		OrderBy("datname"))
}

func (p *PostgresType) TablesQuery(schemaName string) Query {
	return buildQuery(psq.
		Select(`table_name AS "TABLE_NAME"`).
		From("information_schema.tables").
		Where(sq.Eq{"table_schema": schemaName}).
		Where(sq.Eq{"table_type": "BASE TABLE"}).
		OrderBy("table_name"))
}

func (p *PostgresType) ColumnsQuery(schemaName, tableName string) Query {
	return buildQuery(psq.
		Select(
			`c.column_name AS "COLUMN_NAME"`,
			`c.ordinal_position::int AS "ORDINAL_POSITION"`,
			`CASE c.is_nullable WHEN 'YES' THEN 1 WHEN 'NO' THEN 0 ELSE 2 END AS "NULLABLE"`,
			`c.udt_name AS "TYPE_NAME"`,
			`COALESCE(c.character_maximum_length, c.numeric_precision, 0)::int AS "COLUMN_SIZE"`,
			`CASE WHEN c.is_identity = 'YES' OR c.column_default LIKE 'nextval(%' THEN 'YES' ELSE 'NO' END AS "IS_AUTOINCREMENT"`,
		).
		From("information_schema.columns c").
		Where(sq.Eq{"c.table_schema": schemaName}).
		Where(sq.Eq{"c.table_name": tableName}).
		OrderBy("c.ordinal_position"))
}

func (p *PostgresType) IndexesQuery(schemaName, tableName string) Query {
	return buildQuery(psq.
		Select(
			`i.relname AS "INDEX_NAME"`,
			`NOT ix.indisunique AS "NON_UNIQUE"`,
			`a.attname AS "COLUMN_NAME"`,
			`array_position(ix.indkey, a.attnum)::int + 1 AS "ORDINAL_POSITION"`,
			`CASE WHEN ix.indoption[array_position(ix.indkey, a.attnum)] & 1 = 1 THEN 'D' ELSE 'A' END AS "ASC_OR_DESC"`,
		).
		From("pg_catalog.pg_class t").
		Join("pg_catalog.pg_index ix ON t.oid = ix.indrelid").
		Join("pg_catalog.pg_class i ON i.oid = ix.indexrelid").
		Join("pg_catalog.pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)").
		Join("pg_catalog.pg_namespace n ON n.oid = t.relnamespace").
		Where(sq.Eq{"n.nspname": schemaName}).
		Where(sq.Eq{"t.relname": tableName}).
		Where("NOT ix.indisprimary").
		OrderBy("i.relname", "array_position(ix.indkey, a.attnum)"))
}

func (p *PostgresType) PrimaryKeysQuery(schemaName, tableName string) Query {
	return buildQuery(psq.
		Select(
			`kcu.column_name AS "COLUMN_NAME"`,
			`kcu.ordinal_position::int AS "KEY_SEQ"`,
		).
		From("information_schema.table_constraints tc").
		Join("information_schema.key_column_usage kcu ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema").
		Where(sq.Eq{"tc.constraint_type": "PRIMARY KEY"}).
		Where(sq.Eq{"tc.table_schema": schemaName}).
		Where(sq.Eq{"tc.table_name": tableName}).
		OrderBy("kcu.ordinal_position"))
}

func (p *PostgresType) ForeignKeysQuery(schemaName, tableName string) Query {
	return buildQuery(psq.
		Select(
			`tc.constraint_name AS "FK_NAME"`,
			`kcu.column_name AS "FKCOLUMN_NAME"`,
			`kcu.ordinal_position::int AS "KEY_SEQ"`,
			`ccu.table_name AS "PKTABLE_NAME"`,
			`ccu.column_name AS "PKCOLUMN_NAME"`,
		).
		From("information_schema.table_constraints tc").
		Join("information_schema.key_column_usage kcu ON tc.constraint_name = kcu.constraint_name AND tc.table_schema = kcu.table_schema").
		Join("information_schema.constraint_column_usage ccu ON ccu.constraint_name = tc.constraint_name AND ccu.table_schema = tc.table_schema").
		Where(sq.Eq{"tc.constraint_type": "FOREIGN KEY"}).
		Where(sq.Eq{"tc.table_schema": schemaName}).
		Where(sq.Eq{"tc.table_name": tableName}).
		OrderBy("tc.constraint_name", "kcu.ordinal_position"))
}

// buildQuery renders a statically shaped builder. The builders above cannot
// fail to render, so an error here is a programming mistake.
func buildQuery(b sq.SelectBuilder) Query {
	sqlStr, args, err := b.ToSql()
	if err != nil {
		panic(fmt.Sprintf("malformed metadata query: %v", err))
	}
	return Query{SQL: sqlStr, Args: args}
}
