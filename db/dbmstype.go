package db

import (
	"github.com/daebok/speedment/typemapper"
)

// Standard vendor nullable codes for column metadata
const (
	ColumnNoNulls         = 0
	ColumnNullable        = 1
	ColumnNullableUnknown = 2
)

// DefaultTransientStates are the SQLSTATE codes every profile treats as
// retryable unless it overrides the table: communication link failure and
// serialization/deadlock conflict.
func DefaultTransientStates() map[string]struct{} {
	return map[string]struct{}{
		"08S01": {},
		"40001": {},
	}
}

// Query is one parametrized metadata query
type Query struct {
	SQL  string
	Args []any
}

// NamingConvention carries vendor naming rules applied during discovery
type NamingConvention struct {
	// SchemaExcludeSet lists known-noise schema names removed before the
	// caller filter is applied
	SchemaExcludeSet map[string]struct{}
}

// Excluded reports whether a schema name is in the exclude set
func (n NamingConvention) Excluded(name string) bool {
	_, ok := n.SchemaExcludeSet[name]
	return ok
}

// DbmsType is one vendor profile: driver, naming rules, metadata queries and
// type resolution strategy. Metadata queries alias their result columns to
// the conventional vocabulary (TABLE_SCHEM, COLUMN_NAME, ORDINAL_POSITION,
// NULLABLE, TYPE_NAME, NON_UNIQUE, ASC_OR_DESC, KEY_SEQ, FK_NAME, ...).
type DbmsType interface {
	// Name returns the profile name used for registry lookup
	Name() string
	// DriverName returns the registered database/sql driver name
	DriverName() string
	// DSN folds url, user and password into a driver DSN
	DSN(url, user, password string) string
	// Naming returns the vendor naming convention
	Naming() NamingConvention

	// DataTypes returns the vendor-declared static type set. An empty set
	// selects the dynamic strategy: TypeInfoQuery against the live
	// connection.
	DataTypes() []typemapper.SQLTypeInfo
	// TypeInfoQuery lists the vendor's supported types (dynamic strategy)
	TypeInfoQuery() Query
	// MapType resolves one vendor type to an intermediate database type.
	// ok is false for types that stay unmapped.
	MapType(info typemapper.SQLTypeInfo) (t typemapper.Type, ok bool)

	// TransientStates returns the SQLSTATE codes retried by the
	// transactional write path
	TransientStates() map[string]struct{}

	SchemasQuery() Query
	CatalogsQuery() Query
	TablesQuery(schemaName string) Query
	ColumnsQuery(schemaName, tableName string) Query
	IndexesQuery(schemaName, tableName string) Query
	PrimaryKeysQuery(schemaName, tableName string) Query
	ForeignKeysQuery(schemaName, tableName string) Query
}

// TypeRegistry manages available vendor profiles
type TypeRegistry struct {
	types map[string]DbmsType
	order []string
}

// NewTypeRegistry creates an empty profile registry
func NewTypeRegistry() *TypeRegistry {
	return &TypeRegistry{types: make(map[string]DbmsType)}
}

// StandardTypeRegistry creates a registry with every profile this package
// ships: postgres, pgx and sqlite.
func StandardTypeRegistry() *TypeRegistry {
	r := NewTypeRegistry()
	r.Register(NewPostgresType())
	r.Register(NewPgxType())
	r.Register(NewSqliteType())
	return r
}

// Register adds a profile to the registry
func (r *TypeRegistry) Register(typ DbmsType) {
	if _, exists := r.types[typ.Name()]; !exists {
		r.order = append(r.order, typ.Name())
	}
	r.types[typ.Name()] = typ
}

// Get retrieves a profile by name
func (r *TypeRegistry) Get(name string) (DbmsType, bool) {
	typ, exists := r.types[name]
	return typ, exists
}

// Names returns the registered profile names in registration order
func (r *TypeRegistry) Names() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}
