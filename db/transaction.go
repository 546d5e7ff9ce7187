package db

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/lib/pq"
)

// maxUpdateAttempts bounds how many times a write batch is retried on
// transient failures before giving up.
const maxUpdateAttempts = 5

// GeneratedKeysConsumer receives the keys a statement generated, after the
// enclosing transaction committed.
type GeneratedKeysConsumer func(keys []int64)

// UpdateStatement is one parametrized write. A statement with a consumer
// asks for its generated keys to be harvested and delivered after commit.
type UpdateStatement struct {
	sql      string
	values   []any
	consumer GeneratedKeysConsumer

	generatedKeys []int64
}

// NewUpdateStatement creates a write statement without key harvesting
func NewUpdateStatement(sqlStr string, values ...any) *UpdateStatement {
	return &UpdateStatement{sql: sqlStr, values: values}
}

// WithGeneratedKeys registers a consumer for the keys this statement
// generates. The statement must yield its keys as a result set, with the key
// in the first column.
func (s *UpdateStatement) WithGeneratedKeys(consumer GeneratedKeysConsumer) *UpdateStatement {
	s.consumer = consumer
	return s
}

// SQL returns the statement text
func (s *UpdateStatement) SQL() string { return s.sql }

// UpdateExecutor runs write batches atomically with bounded retry on
// transient failures.
type UpdateExecutor struct {
	provider ConnectionProvider
	typ      DbmsType
	logger   *slog.Logger
}

// NewUpdateExecutor creates an executor over one connection source and
// vendor profile.
func NewUpdateExecutor(provider ConnectionProvider, typ DbmsType, logger *slog.Logger) *UpdateExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &UpdateExecutor{provider: provider, typ: typ, logger: logger}
}

// ExecuteUpdate runs the batch in one transaction. All statements commit or
// none do. Transient failures (per the profile's SQLSTATE set) are retried
// with a fresh connection and transaction, up to the attempt budget; any
// other failure aborts immediately. Generated-key consumers fire only after
// a successful commit, in statement order.
func (e *UpdateExecutor) ExecuteUpdate(ctx context.Context, statements []*UpdateStatement) error {
	transient := e.typ.TransientStates()

	var lastErr error
	for attempt := 1; attempt <= maxUpdateAttempts; attempt++ {
		err := e.executeOnce(ctx, statements)
		if err == nil {
			for _, s := range statements {
				if s.consumer != nil {
					s.consumer(s.generatedKeys)
				}
			}
			return nil
		}

		var rbErr *RollbackError
		if errors.As(err, &rbErr) {
			return &TransactionError{Attempts: attempt, Err: err}
		}

		state := sqlState(err)
		if _, ok := transient[state]; !ok {
			return &TransactionError{Attempts: attempt, Err: err}
		}

		e.logger.Warn("transient transaction failure, retrying", "sqlstate", state, "attempt", attempt, "err", err)
		lastErr = err
	}

	return &TransactionError{Attempts: maxUpdateAttempts, Transient: true, Err: lastErr}
}

// executeOnce runs the whole batch in one transaction on a fresh connection.
// Harvested keys from an earlier attempt are discarded before the batch runs
// again.
func (e *UpdateExecutor) executeOnce(ctx context.Context, statements []*UpdateStatement) error {
	for _, s := range statements {
		s.generatedKeys = nil
	}

	conn, err := e.provider.Connection(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	for _, s := range statements {
		if err := e.executeStatement(ctx, tx, s); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				return &RollbackError{Cause: err, Err: rbErr}
			}
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	return nil
}

func (e *UpdateExecutor) executeStatement(ctx context.Context, tx *sql.Tx, s *UpdateStatement) error {
	if s.consumer == nil {
		_, err := tx.ExecContext(ctx, s.sql, s.values...)
		return err
	}

	rows, err := tx.QueryContext(ctx, s.sql, s.values...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var key any
		if err := rows.Scan(&key); err != nil {
			return err
		}
		// Non-numeric keys (ROWID style identifiers) are skipped, not
		// errors.
		if k, ok := asInt64(key); ok {
			s.generatedKeys = append(s.generatedKeys, k)
		}
	}
	return rows.Err()
}

func asInt64(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int32:
		return int64(t), true
	case int:
		return int64(t), true
	default:
		return 0, false
	}
}

// sqlState extracts the five-character SQLSTATE from a driver error, or ""
// when the driver does not expose one.
func sqlState(err error) string {
	var coded interface{ SQLState() string }
	if errors.As(err, &coded) {
		return coded.SQLState()
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}
