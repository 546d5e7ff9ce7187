package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrColumnAbsent reports that a metadata cursor row does not expose a named
// field. Callers treat it as "vendor does not support this attribute" and
// fall back to a default rather than aborting the row.
var ErrColumnAbsent = errors.New("metadata column absent")

// Row is one metadata cursor row with case-insensitive named-field access.
// Field names follow the conventional metadata vocabulary (COLUMN_NAME,
// ORDINAL_POSITION, NULLABLE, TYPE_NAME, ...).
type Row map[string]any

func scanRow(rows *sql.Rows) (Row, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read cursor columns: %w", err)
	}

	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("failed to scan cursor row: %w", err)
	}

	row := make(Row, len(cols))
	for i, name := range cols {
		row[strings.ToUpper(name)] = values[i]
	}
	return row, nil
}

func (r Row) value(name string) (any, error) {
	v, ok := r[strings.ToUpper(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrColumnAbsent, name)
	}
	return v, nil
}

// String returns the named field as a string. A SQL NULL yields "".
func (r Row) String(name string) (string, error) {
	v, err := r.value(name)
	if err != nil {
		return "", err
	}
	switch t := v.(type) {
	case nil:
		return "", nil
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	default:
		return fmt.Sprintf("%v", t), nil
	}
}

// Null reports whether the named field is present and SQL NULL
func (r Row) Null(name string) bool {
	v, err := r.value(name)
	return err == nil && v == nil
}

// Int returns the named field as an int. A SQL NULL yields 0.
func (r Row) Int(name string) (int, error) {
	v, err := r.value(name)
	if err != nil {
		return 0, err
	}
	switch t := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return int(t), nil
	case int32:
		return int(t), nil
	case int:
		return t, nil
	case float64:
		return int(t), nil
	case []byte:
		return parseInt(name, string(t))
	case string:
		return parseInt(name, t)
	default:
		return 0, fmt.Errorf("metadata column %s has non-numeric value %v", name, v)
	}
}

func parseInt(name, s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("metadata column %s has non-numeric value %q", name, s)
	}
	return n, nil
}

// Bool returns the named field as a bool. Vendors report booleans as native
// booleans, 0/1 integers, or YES/NO strings; all are accepted. A SQL NULL
// yields false.
func (r Row) Bool(name string) (bool, error) {
	v, err := r.value(name)
	if err != nil {
		return false, err
	}
	switch t := v.(type) {
	case nil:
		return false, nil
	case bool:
		return t, nil
	case int64:
		return t != 0, nil
	case int:
		return t != 0, nil
	case []byte:
		return parseBool(name, string(t))
	case string:
		return parseBool(name, t)
	default:
		return false, fmt.Errorf("metadata column %s has non-boolean value %v", name, v)
	}
}

func parseBool(name, s string) (bool, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "YES", "TRUE", "T", "Y", "1":
		return true, nil
	case "NO", "FALSE", "F", "N", "0", "":
		return false, nil
	default:
		return false, fmt.Errorf("metadata column %s has non-boolean value %q", name, s)
	}
}
