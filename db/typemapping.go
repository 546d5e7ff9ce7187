package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/daebok/speedment/typemapper"
)

// resolveTypeMapping builds the vendor-type-name to database-type mapping,
// from the profile's static type set when it declares one, otherwise from
// the live connection's supported-types metadata.
func (h *Handler) resolveTypeMapping(ctx context.Context, conn *sql.Conn) (map[string]typemapper.Type, error) {
	if set := h.typ.DataTypes(); len(set) > 0 {
		return h.typeMapFromSet(set), nil
	}
	return h.typeMapFromDB(ctx, conn)
}

func (h *Handler) typeMapFromSet(infos []typemapper.SQLTypeInfo) map[string]typemapper.Type {
	mapping := make(map[string]typemapper.Type, len(infos))
	for _, info := range infos {
		if t, ok := h.typ.MapType(info); ok {
			mapping[info.Name] = t
		}
	}
	h.logger.Debug("resolved type mapping from vendor type set", "types", len(mapping))
	return mapping
}

func (h *Handler) typeMapFromDB(ctx context.Context, conn *sql.Conn) (map[string]typemapper.Type, error) {
	q := h.typ.TypeInfoQuery()
	rows, err := conn.QueryContext(ctx, q.SQL, q.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list supported types: %w", err)
	}
	defer rows.Close()

	mapping := make(map[string]typemapper.Type)
	for rows.Next() {
		row, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		info, err := sqlTypeInfoFrom(row)
		if err != nil {
			return nil, err
		}
		if t, ok := h.typ.MapType(info); ok {
			mapping[info.Name] = t
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read supported types: %w", err)
	}

	h.logger.Debug("resolved type mapping from connection metadata", "types", len(mapping))
	return mapping, nil
}

func sqlTypeInfoFrom(row Row) (typemapper.SQLTypeInfo, error) {
	name, err := row.String("TYPE_NAME")
	if err != nil {
		return typemapper.SQLTypeInfo{}, err
	}
	dataType, err := row.Int("DATA_TYPE")
	if err != nil {
		return typemapper.SQLTypeInfo{}, err
	}
	precision, err := row.Int("PRECISION")
	if err != nil {
		return typemapper.SQLTypeInfo{}, err
	}
	return typemapper.SQLTypeInfo{Name: name, DataType: dataType, Precision: precision}, nil
}
