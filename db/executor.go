package db

import (
	"context"
	"database/sql"
)

// RowMapper converts the cursor's current row into a value
type RowMapper[T any] func(*sql.Rows) (T, error)

// ExecuteQuery runs one parametrized read on a single connection and
// materializes every mapped row, in cursor order, before returning. The
// connection and cursor are released before the caller sees the result, so
// the returned slice has no lifecycle of its own.
func ExecuteQuery[T any](ctx context.Context, provider ConnectionProvider, sqlStr string, values []any, mapper RowMapper[T]) ([]T, error) {
	conn, err := provider.Connection(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, sqlStr, values...)
	if err != nil {
		return nil, &QueryExecutionError{SQL: sqlStr, Err: err}
	}
	defer rows.Close()

	var result []T
	for rows.Next() {
		v, err := mapper(rows)
		if err != nil {
			return nil, &QueryExecutionError{SQL: sqlStr, Err: err}
		}
		result = append(result, v)
	}
	if err := rows.Err(); err != nil {
		return nil, &QueryExecutionError{SQL: sqlStr, Err: err}
	}
	return result, nil
}

// Query runs one parametrized read and returns the rows as named-field maps
func (h *Handler) Query(ctx context.Context, sqlStr string, values ...any) ([]Row, error) {
	return ExecuteQuery(ctx, h.provider, sqlStr, values, scanRow)
}
