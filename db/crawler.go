// Package db is the schema introspection and write-execution engine: it
// crawls catalog/schema/table/column/index/foreign-key metadata from a live
// connection into a schema document, and executes parametrized reads and
// transactional, retryable writes.
package db

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/daebok/speedment/schema"
	"github.com/daebok/speedment/typemapper"
)

// Handler drives metadata discovery and query execution for one database.
// The type mapping resolved at the start of a crawl is the only state shared
// across calls; it is written once per crawl and read-only afterwards, so
// concurrent readers are safe as long as re-crawls are serialized by the
// caller.
type Handler struct {
	provider ConnectionProvider
	typ      DbmsType
	mappers  *typemapper.Registry
	logger   *slog.Logger

	typeMapping map[string]typemapper.Type
}

// HandlerOption configures a Handler
type HandlerOption func(*Handler)

// WithTypeMappers replaces the standard type mapper registry
func WithTypeMappers(r *typemapper.Registry) HandlerOption {
	return func(h *Handler) { h.mappers = r }
}

// WithLogger replaces the default logger
func WithLogger(l *slog.Logger) HandlerOption {
	return func(h *Handler) { h.logger = l }
}

// NewHandler creates a handler for one vendor profile and connection source
func NewHandler(provider ConnectionProvider, typ DbmsType, opts ...HandlerOption) *Handler {
	h := &Handler{
		provider: provider,
		typ:      typ,
		mappers:  typemapper.StandardRegistry(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Type returns the handler's vendor profile
func (h *Handler) Type() DbmsType { return h.typ }

// namespaceSource parametrizes one discovery pass. Schemas and catalogs use
// the same routine with different cursors so the filter-then-exclude logic
// cannot drift between them.
type namespaceSource struct {
	stage     string
	query     Query
	nameField string
	fallback  string
}

// Crawl discovers the database structure into a frozen schema document.
// filter accepts candidate schema/catalog names; nil accepts everything.
func (h *Handler) Crawl(ctx context.Context, filter func(string) bool) (*schema.Dbms, error) {
	if filter == nil {
		filter = func(string) bool { return true }
	}

	conn, err := h.provider.Connection(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	h.logger.Info("reading metadata", "dbms", h.typ.Name())

	// Type mapping must be in place before any column work; failure here
	// is fatal for the whole crawl.
	mapping, err := h.resolveTypeMapping(ctx, conn)
	if err != nil {
		return nil, &DiscoveryError{Stage: "type mapping", Err: err}
	}
	h.typeMapping = mapping

	dbms := schema.NewDbms(h.typ.Name())

	var discarded []string
	sources := []namespaceSource{
		{stage: "schemas", query: h.typ.SchemasQuery(), nameField: "TABLE_SCHEM", fallback: "TABLE_CATALOG"},
		{stage: "catalogs", query: h.typ.CatalogsQuery(), nameField: "TABLE_CAT"},
	}
	for _, src := range sources {
		rejected, err := h.discoverNamespaces(ctx, conn, dbms, filter, src)
		if err != nil {
			return nil, err
		}
		discarded = append(discarded, rejected...)
	}

	if len(dbms.Schemas()) == 0 {
		return nil, &SchemaDiscoveryError{Considered: discarded}
	}

	for _, s := range dbms.Schemas() {
		if err := h.tables(ctx, conn, s); err != nil {
			return nil, err
		}
	}

	dbms.Freeze()
	h.logger.Info("metadata crawl completed", "dbms", h.typ.Name(), "schemas", len(dbms.Schemas()))
	return dbms, nil
}

// discoverNamespaces runs one discovery pass. The exclude set removes
// known-noise names before the caller filter sees them; a name already added
// by an earlier pass is deduplicated, not discarded.
func (h *Handler) discoverNamespaces(ctx context.Context, conn *sql.Conn, dbms *schema.Dbms, filter func(string) bool, src namespaceSource) ([]string, error) {
	rows, err := conn.QueryContext(ctx, src.query.SQL, src.query.Args...)
	if err != nil {
		return nil, &DiscoveryError{Stage: src.stage, Err: err}
	}
	defer rows.Close()

	naming := h.typ.Naming()
	var discarded []string

	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, &DiscoveryError{Stage: src.stage, Err: err}
		}

		name, err := row.String(src.nameField)
		if err != nil {
			return nil, &DiscoveryError{Stage: src.stage, Err: err}
		}
		if name == "" && src.fallback != "" {
			// Some vendors leave the schema name null and expose only
			// the catalog name.
			if name, err = row.String(src.fallback); err != nil {
				h.logger.Info("fallback name field not in result set", "field", src.fallback)
				name = ""
			}
		}

		if naming.Excluded(name) || !filter(name) {
			discarded = append(discarded, name)
			continue
		}
		if _, exists := dbms.Schema(name); exists {
			h.logger.Debug("schema already discovered, skipping duplicate", "schema", name, "pass", src.stage)
			continue
		}
		if _, err := dbms.AddSchema(name); err != nil {
			return nil, &DiscoveryError{Stage: src.stage, Err: err}
		}
		h.logger.Debug("accepted schema", "schema", name, "pass", src.stage)
	}
	if err := rows.Err(); err != nil {
		return nil, &DiscoveryError{Stage: src.stage, Err: err}
	}

	return discarded, nil
}

func (h *Handler) tables(ctx context.Context, conn *sql.Conn, s *schema.Schema) error {
	h.logger.Info("parsing schema", "schema", s.Name())

	q := h.typ.TablesQuery(s.Name())
	rows, err := conn.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return &DiscoveryError{Stage: "tables", Schema: s.Name(), Err: err}
	}

	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			rows.Close()
			return &DiscoveryError{Stage: "tables", Schema: s.Name(), Err: err}
		}
		name, err := row.String("TABLE_NAME")
		if err != nil {
			rows.Close()
			return &DiscoveryError{Stage: "tables", Schema: s.Name(), Err: err}
		}
		if _, err := s.AddTable(name); err != nil {
			rows.Close()
			return &DiscoveryError{Stage: "tables", Schema: s.Name(), Err: err}
		}
	}
	if err := closeRows(rows); err != nil {
		return &DiscoveryError{Stage: "tables", Schema: s.Name(), Err: err}
	}

	// Columns resolve type mappings first; the remaining three categories
	// only make sense to downstream consumers once columns exist.
	for _, table := range s.Tables() {
		if err := h.columns(ctx, conn, table); err != nil {
			return err
		}
		if err := h.indexes(ctx, conn, table); err != nil {
			return err
		}
		if err := h.primaryKeyColumns(ctx, conn, table); err != nil {
			return err
		}
		if err := h.foreignKeys(ctx, conn, table); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) columns(ctx context.Context, conn *sql.Conn, table *schema.Table) error {
	q := h.typ.ColumnsQuery(table.Schema().Name(), table.Name())

	create := func(row Row) (*schema.Column, error) {
		name, err := row.String("COLUMN_NAME")
		if err != nil {
			return nil, err
		}
		return table.AddColumn(name)
	}

	mutate := func(column *schema.Column, row Row) error {
		pos, err := row.Int("ORDINAL_POSITION")
		if err != nil {
			return err
		}
		if err := column.SetOrdinalPosition(pos); err != nil {
			return err
		}

		code, err := row.Int("NULLABLE")
		if err != nil {
			return err
		}
		switch code {
		case ColumnNullable, ColumnNullableUnknown:
			err = column.SetNullable(true)
		case ColumnNoNulls:
			err = column.SetNullable(false)
		default:
			return &UnknownNullableCodeError{Table: table.Name(), Column: column.Name(), Code: code}
		}
		if err != nil {
			return err
		}

		typeName, err := row.String("TYPE_NAME")
		if err != nil {
			return err
		}
		if err := column.SetTypeName(typeName); err != nil {
			return err
		}
		if size, err := row.Int("COLUMN_SIZE"); err == nil {
			if err := column.SetSize(size); err != nil {
				return err
			}
		}

		if dbType, ok := h.typeMapping[typeName]; ok {
			mapper, err := h.mappers.FindIdentity(dbType)
			if err != nil {
				return &ColumnResolutionError{Table: table.Name(), Column: column.Name(), Err: err}
			}
			if err := column.SetTypeMapper(mapper); err != nil {
				return err
			}
			if err := column.SetDatabaseType(dbType); err != nil {
				return err
			}
		} else {
			h.logger.Warn("unable to determine mapping", "table", table.Name(), "column", column.Name(), "type", typeName)
		}

		if auto, err := row.Bool("IS_AUTOINCREMENT"); err != nil {
			h.logger.Warn("unable to determine IS_AUTOINCREMENT", "table", table.Name(), "column", column.Name())
		} else if err := column.SetAutoIncrement(auto); err != nil {
			return err
		}

		return nil
	}

	return tableChildren(ctx, conn, q, create, mutate, nil, h.logger, h.discoveryErr("columns", table))
}

func (h *Handler) indexes(ctx context.Context, conn *sql.Conn, table *schema.Table) error {
	q := h.typ.IndexesQuery(table.Schema().Name(), table.Name())

	create := func(row Row) (*schema.Index, error) {
		return table.AddIndex()
	}

	mutate := func(index *schema.Index, row Row) error {
		name, err := row.String("INDEX_NAME")
		if err != nil {
			return err
		}
		if err := index.SetName(name); err != nil {
			return err
		}

		nonUnique, err := row.Bool("NON_UNIQUE")
		if err != nil {
			return err
		}
		if err := index.SetUnique(!nonUnique); err != nil {
			return err
		}

		columnName, err := row.String("COLUMN_NAME")
		if err != nil {
			return err
		}
		pos, err := row.Int("ORDINAL_POSITION")
		if err != nil {
			return err
		}

		// Direction is optional vendor metadata; anything but A or D
		// degrades to NONE.
		order := schema.OrderNone
		if ascOrDesc, err := row.String("ASC_OR_DESC"); err == nil {
			switch ascOrDesc {
			case "A", "a":
				order = schema.OrderAsc
			case "D", "d":
				order = schema.OrderDesc
			}
		}

		_, err = index.AddColumn(columnName, pos, order)
		return err
	}

	// Statistics rows carry no index name and are not indexes
	filter := func(row Row) (bool, error) {
		name, err := row.String("INDEX_NAME")
		if err != nil {
			return false, err
		}
		return name != "" && !row.Null("INDEX_NAME"), nil
	}

	return tableChildren(ctx, conn, q, create, mutate, filter, h.logger, h.discoveryErr("indexes", table))
}

func (h *Handler) primaryKeyColumns(ctx context.Context, conn *sql.Conn, table *schema.Table) error {
	q := h.typ.PrimaryKeysQuery(table.Schema().Name(), table.Name())

	create := func(row Row) (*schema.PrimaryKeyColumn, error) {
		name, err := row.String("COLUMN_NAME")
		if err != nil {
			return nil, err
		}
		return table.AddPrimaryKeyColumn(name)
	}

	mutate := func(pk *schema.PrimaryKeyColumn, row Row) error {
		seq, err := row.Int("KEY_SEQ")
		if err != nil {
			return err
		}
		return pk.SetOrdinalPosition(seq)
	}

	return tableChildren(ctx, conn, q, create, mutate, nil, h.logger, h.discoveryErr("primary keys", table))
}

func (h *Handler) foreignKeys(ctx context.Context, conn *sql.Conn, table *schema.Table) error {
	q := h.typ.ForeignKeysQuery(table.Schema().Name(), table.Name())

	create := func(row Row) (*schema.ForeignKey, error) {
		return table.AddForeignKey()
	}

	mutate := func(fk *schema.ForeignKey, row Row) error {
		name, err := row.String("FK_NAME")
		if err != nil {
			return err
		}
		if err := fk.SetName(name); err != nil {
			return err
		}

		columnName, err := row.String("FKCOLUMN_NAME")
		if err != nil {
			return err
		}
		seq, err := row.Int("KEY_SEQ")
		if err != nil {
			return err
		}
		foreignTable, err := row.String("PKTABLE_NAME")
		if err != nil {
			return err
		}
		foreignColumn, err := row.String("PKCOLUMN_NAME")
		if err != nil {
			return err
		}

		_, err = fk.AddColumn(columnName, seq, foreignTable, foreignColumn)
		return err
	}

	return tableChildren(ctx, conn, q, create, mutate, nil, h.logger, h.discoveryErr("foreign keys", table))
}

func (h *Handler) discoveryErr(stage string, table *schema.Table) func(error) error {
	return func(err error) error {
		return &DiscoveryError{Stage: stage, Schema: table.Schema().Name(), Table: table.Name(), Err: err}
	}
}

// tableChildren streams one metadata cursor into child entities: one created
// and populated per accepted row, in cursor order. The cursor is closed on
// every exit path. Any failure while reading or mutating is fatal to the
// enclosing table's discovery.
func tableChildren[T any](
	ctx context.Context,
	conn *sql.Conn,
	q Query,
	create func(Row) (T, error),
	mutate func(T, Row) error,
	filter func(Row) (bool, error),
	logger *slog.Logger,
	wrap func(error) error,
) error {
	rows, err := conn.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return wrap(err)
	}
	defer rows.Close()

	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return wrap(err)
		}

		if filter != nil {
			ok, err := filter(row)
			if err != nil {
				return wrap(err)
			}
			if !ok {
				logger.Debug("skipped metadata row due to filtering")
				continue
			}
		}

		child, err := create(row)
		if err != nil {
			return wrap(err)
		}
		if err := mutate(child, row); err != nil {
			return wrap(err)
		}
	}
	if err := rows.Err(); err != nil {
		return wrap(err)
	}
	return nil
}

func closeRows(rows *sql.Rows) error {
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	return rows.Close()
}
