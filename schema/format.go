package schema

import (
	"fmt"
	"strings"
)

// FormatInfo formats a crawled document as human-readable text
func FormatInfo(d *Dbms) string {
	var sb strings.Builder

	for _, s := range d.Schemas() {
		sb.WriteString(fmt.Sprintf("Schema: %s\n", s.Name()))

		for _, table := range s.Tables() {
			sb.WriteString(fmt.Sprintf("Table: %s\n", table.Name()))
			sb.WriteString("Columns:\n")

			pkSet := make(map[string]struct{})
			for _, pk := range table.PrimaryKeyColumns() {
				pkSet[pk.Name()] = struct{}{}
			}

			for _, col := range table.Columns() {
				nullable := "NOT NULL"
				if col.Nullable() {
					nullable = "NULL"
				}

				pk := ""
				if _, ok := pkSet[col.Name()]; ok {
					pk = " (PRIMARY KEY)"
				}

				mapped := ""
				if col.Resolved() {
					mapped = fmt.Sprintf(" -> %s", col.DatabaseType())
				}

				sb.WriteString(fmt.Sprintf("  - %s %s %s%s%s\n",
					col.Name(), strings.ToUpper(col.TypeName()), nullable, mapped, pk))
			}

			if indexes := table.Indexes(); len(indexes) > 0 {
				sb.WriteString("Indexes:\n")
				for _, idx := range indexes {
					unique := ""
					if idx.Unique() {
						unique = " (UNIQUE)"
					}
					sb.WriteString(fmt.Sprintf("  - %s on (%s)%s\n",
						idx.Name(), strings.Join(indexColumnNames(idx), ", "), unique))
				}
			}

			if fks := table.ForeignKeys(); len(fks) > 0 {
				sb.WriteString("Foreign keys:\n")
				for _, fk := range fks {
					for _, fkc := range fk.Columns() {
						sb.WriteString(fmt.Sprintf("  - %s: %s -> %s(%s)\n",
							fk.Name(), fkc.Name(), fkc.ForeignTableName(), fkc.ForeignColumnName()))
					}
				}
			}

			sb.WriteString("\n")
		}
	}

	return sb.String()
}

// FormatSQL formats a crawled document as SQL CREATE statements
func FormatSQL(d *Dbms) string {
	var sb strings.Builder

	for _, s := range d.Schemas() {
		for _, table := range s.Tables() {
			sb.WriteString(fmt.Sprintf("create table %s (\n", table.Name()))

			var columnDefs []string
			for _, col := range table.Columns() {
				var colDef strings.Builder
				colDef.WriteString(fmt.Sprintf("    %s %s", col.Name(), strings.ToLower(col.TypeName())))
				if !col.Nullable() {
					colDef.WriteString(" not null")
				}
				columnDefs = append(columnDefs, colDef.String())
			}
			sb.WriteString(strings.Join(columnDefs, ",\n"))

			if pks := table.PrimaryKeyColumns(); len(pks) > 0 {
				names := make([]string, 0, len(pks))
				for _, pk := range pks {
					names = append(names, pk.Name())
				}
				sb.WriteString(fmt.Sprintf(",\n    primary key (%s)", strings.Join(names, ", ")))
			}

			for _, fk := range table.ForeignKeys() {
				for _, fkc := range fk.Columns() {
					sb.WriteString(fmt.Sprintf(",\n    foreign key (%s) references %s (%s)",
						fkc.Name(), fkc.ForeignTableName(), fkc.ForeignColumnName()))
				}
			}

			sb.WriteString("\n);\n\n")

			for _, idx := range table.Indexes() {
				unique := ""
				if idx.Unique() {
					unique = "unique "
				}
				sb.WriteString(fmt.Sprintf("create %sindex %s on %s (%s);\n",
					unique, idx.Name(), table.Name(), strings.Join(indexColumnNames(idx), ", ")))
			}

			if len(table.Indexes()) > 0 {
				sb.WriteString("\n")
			}
		}
	}

	return sb.String()
}

func indexColumnNames(idx *Index) []string {
	cols := idx.Columns()
	names := make([]string, 0, len(cols))
	for _, ic := range cols {
		names = append(names, ic.Name())
	}
	return names
}
