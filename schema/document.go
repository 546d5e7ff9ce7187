// Package schema holds the document model a crawl produces: a containment
// tree of Dbms, Schema, Table, Column, Index, PrimaryKeyColumn and ForeignKey
// entities. The tree is built during a construction phase and then frozen;
// downstream consumers only ever see frozen documents.
package schema

import (
	"fmt"

	"github.com/daebok/speedment/typemapper"
)

// OrderType is the ordering direction of an index column
type OrderType string

const (
	OrderAsc  OrderType = "ASC"
	OrderDesc OrderType = "DESC"
	OrderNone OrderType = "NONE"
)

// Dbms is the root handle for one database instance. It is the construction
// root: adding or mutating any entity in the tree fails after Freeze.
type Dbms struct {
	name    string
	schemas []*Schema
	byName  map[string]*Schema
	frozen  bool
}

// NewDbms creates an empty document in the construction phase
func NewDbms(name string) *Dbms {
	return &Dbms{
		name:   name,
		byName: make(map[string]*Schema),
	}
}

func (d *Dbms) Name() string { return d.name }

// Frozen reports whether the construction phase has ended
func (d *Dbms) Frozen() bool { return d.frozen }

// Freeze ends the construction phase. Indexes and foreign keys discovered as
// one entity per metadata row are coalesced by name here, so the frozen
// document satisfies name uniqueness within each parent.
func (d *Dbms) Freeze() {
	if d.frozen {
		return
	}
	for _, s := range d.schemas {
		for _, t := range s.tables {
			t.indexes = mergeByName(t.indexes, func(dst, src *Index) {
				dst.columns = append(dst.columns, src.columns...)
			})
			t.foreignKeys = mergeByName(t.foreignKeys, func(dst, src *ForeignKey) {
				dst.columns = append(dst.columns, src.columns...)
			})
		}
	}
	d.frozen = true
}

type named interface {
	comparable
	getName() string
}

func mergeByName[T named](entities []T, merge func(dst, src T)) []T {
	seen := make(map[string]T, len(entities))
	var out []T
	for _, e := range entities {
		if prev, ok := seen[e.getName()]; ok {
			merge(prev, e)
			continue
		}
		seen[e.getName()] = e
		out = append(out, e)
	}
	return out
}

// AddSchema attaches a new schema. The name must be unique on the Dbms.
func (d *Dbms) AddSchema(name string) (*Schema, error) {
	if d.frozen {
		return nil, fmt.Errorf("dbms %s is frozen", d.name)
	}
	if _, exists := d.byName[name]; exists {
		return nil, fmt.Errorf("schema %q already exists", name)
	}
	s := &Schema{name: name, dbms: d, byName: make(map[string]*Table)}
	d.schemas = append(d.schemas, s)
	d.byName[name] = s
	return s, nil
}

// Schemas returns the schemas in discovery order
func (d *Dbms) Schemas() []*Schema {
	out := make([]*Schema, len(d.schemas))
	copy(out, d.schemas)
	return out
}

// Schema looks up a schema by name
func (d *Dbms) Schema(name string) (*Schema, bool) {
	s, ok := d.byName[name]
	return s, ok
}

// Schema owns the tables of one vendor namespace
type Schema struct {
	name   string
	dbms   *Dbms
	tables []*Table
	byName map[string]*Table
}

func (s *Schema) Name() string { return s.name }

// Dbms returns the owning database document
func (s *Schema) Dbms() *Dbms { return s.dbms }

// AddTable attaches a new table. The name must be unique within the schema.
func (s *Schema) AddTable(name string) (*Table, error) {
	if s.dbms.frozen {
		return nil, fmt.Errorf("dbms %s is frozen", s.dbms.name)
	}
	if _, exists := s.byName[name]; exists {
		return nil, fmt.Errorf("table %q already exists in schema %q", name, s.name)
	}
	t := &Table{name: name, schema: s, columnsByName: make(map[string]*Column)}
	s.tables = append(s.tables, t)
	s.byName[name] = t
	return t, nil
}

// Tables returns the tables in discovery order
func (s *Schema) Tables() []*Table {
	out := make([]*Table, len(s.tables))
	copy(out, s.tables)
	return out
}

// Table looks up a table by name
func (s *Schema) Table(name string) (*Table, bool) {
	t, ok := s.byName[name]
	return t, ok
}

// Table owns columns, indexes, primary key columns and foreign keys
type Table struct {
	name          string
	schema        *Schema
	columns       []*Column
	columnsByName map[string]*Column
	indexes       []*Index
	primaryKey    []*PrimaryKeyColumn
	foreignKeys   []*ForeignKey
}

func (t *Table) Name() string { return t.name }

// Schema returns the owning schema
func (t *Table) Schema() *Schema { return t.schema }

func (t *Table) frozen() error {
	if t.schema.dbms.frozen {
		return fmt.Errorf("dbms %s is frozen", t.schema.dbms.name)
	}
	return nil
}

// AddColumn attaches a new column. The name must be unique within the table.
func (t *Table) AddColumn(name string) (*Column, error) {
	if err := t.frozen(); err != nil {
		return nil, err
	}
	if _, exists := t.columnsByName[name]; exists {
		return nil, fmt.Errorf("column %q already exists in table %q", name, t.name)
	}
	c := &Column{name: name, table: t}
	t.columns = append(t.columns, c)
	t.columnsByName[name] = c
	return c, nil
}

// Columns returns the columns in discovery order
func (t *Table) Columns() []*Column {
	out := make([]*Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// Column looks up a column by name
func (t *Table) Column(name string) (*Column, bool) {
	c, ok := t.columnsByName[name]
	return c, ok
}

// AddIndex attaches a new, still unnamed index entity. Metadata cursors yield
// one row per index column, so several entities may share a name until Freeze
// coalesces them.
func (t *Table) AddIndex() (*Index, error) {
	if err := t.frozen(); err != nil {
		return nil, err
	}
	i := &Index{table: t}
	t.indexes = append(t.indexes, i)
	return i, nil
}

// Indexes returns the indexes in discovery order
func (t *Table) Indexes() []*Index {
	out := make([]*Index, len(t.indexes))
	copy(out, t.indexes)
	return out
}

// AddPrimaryKeyColumn attaches a new primary key column
func (t *Table) AddPrimaryKeyColumn(name string) (*PrimaryKeyColumn, error) {
	if err := t.frozen(); err != nil {
		return nil, err
	}
	for _, pk := range t.primaryKey {
		if pk.name == name {
			return nil, fmt.Errorf("primary key column %q already exists in table %q", name, t.name)
		}
	}
	pk := &PrimaryKeyColumn{name: name, table: t}
	t.primaryKey = append(t.primaryKey, pk)
	return pk, nil
}

// PrimaryKeyColumns returns the primary key columns in discovery order
func (t *Table) PrimaryKeyColumns() []*PrimaryKeyColumn {
	out := make([]*PrimaryKeyColumn, len(t.primaryKey))
	copy(out, t.primaryKey)
	return out
}

// AddForeignKey attaches a new, still unnamed foreign key entity. As with
// indexes, one entity per metadata row is created and Freeze coalesces them.
func (t *Table) AddForeignKey() (*ForeignKey, error) {
	if err := t.frozen(); err != nil {
		return nil, err
	}
	fk := &ForeignKey{table: t}
	t.foreignKeys = append(t.foreignKeys, fk)
	return fk, nil
}

// ForeignKeys returns the foreign keys in discovery order
func (t *Table) ForeignKeys() []*ForeignKey {
	out := make([]*ForeignKey, len(t.foreignKeys))
	copy(out, t.foreignKeys)
	return out
}

// Column is one table column. A column is fully resolved when both its
// database type and type mapper are set; unresolved columns are legal.
type Column struct {
	name          string
	table         *Table
	ordinal       int
	nullable      bool
	typeName      string
	size          int
	databaseType  typemapper.Type
	mapper        typemapper.TypeMapper
	autoIncrement bool
}

func (c *Column) Name() string { return c.name }

// Table returns the owning table
func (c *Column) Table() *Table { return c.table }

// SetOrdinalPosition assigns the 1-based position. It is assigned exactly
// once and never renumbered.
func (c *Column) SetOrdinalPosition(pos int) error {
	if err := c.table.frozen(); err != nil {
		return err
	}
	if c.ordinal != 0 {
		return fmt.Errorf("ordinal position of column %q already assigned", c.name)
	}
	if pos < 1 {
		return fmt.Errorf("ordinal position %d of column %q is not 1-based", pos, c.name)
	}
	c.ordinal = pos
	return nil
}

func (c *Column) OrdinalPosition() int { return c.ordinal }

func (c *Column) SetNullable(nullable bool) error {
	if err := c.table.frozen(); err != nil {
		return err
	}
	c.nullable = nullable
	return nil
}

func (c *Column) Nullable() bool { return c.nullable }

// SetTypeName records the vendor-reported SQL type name
func (c *Column) SetTypeName(name string) error {
	if err := c.table.frozen(); err != nil {
		return err
	}
	c.typeName = name
	return nil
}

func (c *Column) TypeName() string { return c.typeName }

func (c *Column) SetSize(size int) error {
	if err := c.table.frozen(); err != nil {
		return err
	}
	c.size = size
	return nil
}

func (c *Column) Size() int { return c.size }

func (c *Column) SetDatabaseType(t typemapper.Type) error {
	if err := c.table.frozen(); err != nil {
		return err
	}
	c.databaseType = t
	return nil
}

func (c *Column) DatabaseType() typemapper.Type { return c.databaseType }

func (c *Column) SetTypeMapper(m typemapper.TypeMapper) error {
	if err := c.table.frozen(); err != nil {
		return err
	}
	c.mapper = m
	return nil
}

func (c *Column) TypeMapper() typemapper.TypeMapper { return c.mapper }

// Resolved reports whether the column carries both a database type and mapper
func (c *Column) Resolved() bool { return c.mapper != nil && c.databaseType != "" }

func (c *Column) SetAutoIncrement(auto bool) error {
	if err := c.table.frozen(); err != nil {
		return err
	}
	c.autoIncrement = auto
	return nil
}

func (c *Column) AutoIncrement() bool { return c.autoIncrement }

// Index is one table index owning one or more index columns
type Index struct {
	name    string
	table   *Table
	unique  bool
	columns []*IndexColumn
}

func (i *Index) getName() string { return i.name }
func (i *Index) Name() string    { return i.name }

func (i *Index) SetName(name string) error {
	if err := i.table.frozen(); err != nil {
		return err
	}
	i.name = name
	return nil
}

func (i *Index) SetUnique(unique bool) error {
	if err := i.table.frozen(); err != nil {
		return err
	}
	i.unique = unique
	return nil
}

func (i *Index) Unique() bool { return i.unique }

// AddColumn attaches one index column with its position and direction
func (i *Index) AddColumn(name string, ordinal int, order OrderType) (*IndexColumn, error) {
	if err := i.table.frozen(); err != nil {
		return nil, err
	}
	ic := &IndexColumn{name: name, ordinal: ordinal, order: order}
	i.columns = append(i.columns, ic)
	return ic, nil
}

// Columns returns the index columns in discovery order
func (i *Index) Columns() []*IndexColumn {
	out := make([]*IndexColumn, len(i.columns))
	copy(out, i.columns)
	return out
}

// IndexColumn is one column of an index
type IndexColumn struct {
	name    string
	ordinal int
	order   OrderType
}

func (ic *IndexColumn) Name() string         { return ic.name }
func (ic *IndexColumn) OrdinalPosition() int { return ic.ordinal }
func (ic *IndexColumn) Order() OrderType     { return ic.order }

// PrimaryKeyColumn is one column of the table's primary key
type PrimaryKeyColumn struct {
	name    string
	table   *Table
	ordinal int
}

func (pk *PrimaryKeyColumn) Name() string { return pk.name }

// SetOrdinalPosition assigns the key sequence, exactly once
func (pk *PrimaryKeyColumn) SetOrdinalPosition(pos int) error {
	if err := pk.table.frozen(); err != nil {
		return err
	}
	if pk.ordinal != 0 {
		return fmt.Errorf("ordinal position of primary key column %q already assigned", pk.name)
	}
	pk.ordinal = pos
	return nil
}

func (pk *PrimaryKeyColumn) OrdinalPosition() int { return pk.ordinal }

// ForeignKey is one foreign key owning one or more foreign key columns
type ForeignKey struct {
	name    string
	table   *Table
	columns []*ForeignKeyColumn
}

func (fk *ForeignKey) getName() string { return fk.name }
func (fk *ForeignKey) Name() string    { return fk.name }

func (fk *ForeignKey) SetName(name string) error {
	if err := fk.table.frozen(); err != nil {
		return err
	}
	fk.name = name
	return nil
}

// AddColumn attaches one foreign key column. The referenced table is recorded
// by name only; resolution against Table entities happens after the crawl.
func (fk *ForeignKey) AddColumn(name string, ordinal int, foreignTable, foreignColumn string) (*ForeignKeyColumn, error) {
	if err := fk.table.frozen(); err != nil {
		return nil, err
	}
	fkc := &ForeignKeyColumn{
		name:          name,
		ordinal:       ordinal,
		foreignTable:  foreignTable,
		foreignColumn: foreignColumn,
	}
	fk.columns = append(fk.columns, fkc)
	return fkc, nil
}

// Columns returns the foreign key columns in discovery order
func (fk *ForeignKey) Columns() []*ForeignKeyColumn {
	out := make([]*ForeignKeyColumn, len(fk.columns))
	copy(out, fk.columns)
	return out
}

// ForeignKeyColumn references a column and the table/column it points at
type ForeignKeyColumn struct {
	name          string
	ordinal       int
	foreignTable  string
	foreignColumn string
}

func (fkc *ForeignKeyColumn) Name() string              { return fkc.name }
func (fkc *ForeignKeyColumn) OrdinalPosition() int      { return fkc.ordinal }
func (fkc *ForeignKeyColumn) ForeignTableName() string  { return fkc.foreignTable }
func (fkc *ForeignKeyColumn) ForeignColumnName() string { return fkc.foreignColumn }
