package db

import (
	"context"
	"database/sql"
	"log/slog"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stateError is a driver-style error carrying a SQLSTATE
type stateError struct {
	state string
}

func (e *stateError) Error() string    { return "sqlstate " + e.state }
func (e *stateError) SQLState() string { return e.state }

// countingProvider counts connection acquisitions so retry behavior can be
// asserted: each attempt must use a fresh connection.
type countingProvider struct {
	db           *sql.DB
	acquisitions int
}

func (p *countingProvider) Connection(ctx context.Context) (*sql.Conn, error) {
	p.acquisitions++
	return p.db.Conn(ctx)
}

func newUpdateExecutor(t *testing.T) (*UpdateExecutor, *countingProvider, sqlmock.Sqlmock, func()) {
	t.Helper()
	pool, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)

	provider := &countingProvider{db: pool}
	exec := NewUpdateExecutor(provider, newStubType(), slog.New(slog.DiscardHandler))
	return exec, provider, mock, func() { pool.Close() }
}

func TestUpdateExecutor(t *testing.T) {
	t.Run("commits_batch_and_delivers_generated_keys", func(t *testing.T) {
		exec, provider, mock, done := newUpdateExecutor(t)
		defer done()

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE users SET name = $1 WHERE id = $2").WithArgs("bob", 1).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("INSERT INTO users (name) VALUES ($1) RETURNING id").WithArgs("carol").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(42)))
		mock.ExpectCommit()

		var keys []int64
		statements := []*UpdateStatement{
			NewUpdateStatement("UPDATE users SET name = $1 WHERE id = $2", "bob", 1),
			NewUpdateStatement("INSERT INTO users (name) VALUES ($1) RETURNING id", "carol").
				WithGeneratedKeys(func(k []int64) { keys = append(keys, k...) }),
		}

		err := exec.ExecuteUpdate(context.Background(), statements)
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
		assert.Equal(t, []int64{42}, keys)
		assert.Equal(t, 1, provider.acquisitions)
	})

	t.Run("non_numeric_generated_keys_are_skipped", func(t *testing.T) {
		exec, _, mock, done := newUpdateExecutor(t)
		defer done()

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO docs DEFAULT VALUES RETURNING rowid").
			WillReturnRows(sqlmock.NewRows([]string{"rowid"}).
				AddRow("AAAbCdEf==").
				AddRow(int64(7)))
		mock.ExpectCommit()

		var keys []int64
		s := NewUpdateStatement("INSERT INTO docs DEFAULT VALUES RETURNING rowid").
			WithGeneratedKeys(func(k []int64) { keys = k })

		err := exec.ExecuteUpdate(context.Background(), []*UpdateStatement{s})
		require.NoError(t, err)
		assert.Equal(t, []int64{7}, keys)
	})

	t.Run("retries_transient_failures_on_fresh_connections", func(t *testing.T) {
		exec, provider, mock, done := newUpdateExecutor(t)
		defer done()

		// Two transient failures, then success on the third attempt:
		// exactly 3 acquisitions, 1 commit, consumers fired once each.
		for _, state := range []string{"40001", "08S01"} {
			mock.ExpectBegin()
			mock.ExpectExec("UPDATE t SET v = $1").WithArgs(1).
				WillReturnError(&stateError{state: state})
			mock.ExpectRollback()
		}
		mock.ExpectBegin()
		mock.ExpectExec("UPDATE t SET v = $1").WithArgs(1).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery("INSERT INTO t (v) VALUES ($1) RETURNING id").WithArgs(2).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(5)))
		mock.ExpectCommit()

		var calls int
		var keys []int64
		statements := []*UpdateStatement{
			NewUpdateStatement("UPDATE t SET v = $1", 1),
			NewUpdateStatement("INSERT INTO t (v) VALUES ($1) RETURNING id", 2).
				WithGeneratedKeys(func(k []int64) {
					calls++
					keys = append(keys, k...)
				}),
		}

		err := exec.ExecuteUpdate(context.Background(), statements)
		require.NoError(t, err)
		require.NoError(t, mock.ExpectationsWereMet())
		assert.Equal(t, 3, provider.acquisitions)
		assert.Equal(t, 1, calls)
		assert.Equal(t, []int64{5}, keys)
	})

	t.Run("non_transient_failure_aborts_after_one_attempt", func(t *testing.T) {
		exec, provider, mock, done := newUpdateExecutor(t)
		defer done()

		mock.ExpectBegin()
		mock.ExpectExec("DELETE FROM t").
			WillReturnError(&stateError{state: "23505"})
		mock.ExpectRollback()

		var consumerFired bool
		err := exec.ExecuteUpdate(context.Background(), []*UpdateStatement{
			NewUpdateStatement("DELETE FROM t"),
			NewUpdateStatement("INSERT INTO t DEFAULT VALUES RETURNING id").
				WithGeneratedKeys(func([]int64) { consumerFired = true }),
		})
		var te *TransactionError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, 1, te.Attempts)
		assert.False(t, te.Transient)
		assert.Equal(t, 1, provider.acquisitions)
		assert.False(t, consumerFired)
	})

	t.Run("transient_failures_exhaust_attempt_budget", func(t *testing.T) {
		exec, provider, mock, done := newUpdateExecutor(t)
		defer done()

		for i := 0; i < maxUpdateAttempts; i++ {
			mock.ExpectBegin()
			mock.ExpectExec("UPDATE t SET v = $1").WithArgs(1).
				WillReturnError(&stateError{state: "08S01"})
			mock.ExpectRollback()
		}

		var consumerFired bool
		err := exec.ExecuteUpdate(context.Background(), []*UpdateStatement{
			NewUpdateStatement("UPDATE t SET v = $1", 1),
			NewUpdateStatement("INSERT INTO t DEFAULT VALUES RETURNING id").
				WithGeneratedKeys(func([]int64) { consumerFired = true }),
		})
		var te *TransactionError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, maxUpdateAttempts, te.Attempts)
		assert.True(t, te.Transient)
		assert.Equal(t, maxUpdateAttempts, provider.acquisitions)
		assert.False(t, consumerFired)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rollback_failure_supersedes_original_error", func(t *testing.T) {
		exec, _, mock, done := newUpdateExecutor(t)
		defer done()

		mock.ExpectBegin()
		mock.ExpectExec("UPDATE t SET v = $1").WithArgs(1).
			WillReturnError(&stateError{state: "40001"})
		mock.ExpectRollback().WillReturnError(assert.AnError)

		err := exec.ExecuteUpdate(context.Background(), []*UpdateStatement{
			NewUpdateStatement("UPDATE t SET v = $1", 1),
		})
		// Even though the trigger was transient, a failed rollback is
		// never retried.
		var te *TransactionError
		require.ErrorAs(t, err, &te)
		assert.Equal(t, 1, te.Attempts)
		var rbe *RollbackError
		require.ErrorAs(t, err, &rbe)
		assert.ErrorIs(t, rbe.Err, assert.AnError)
		var original *stateError
		assert.ErrorAs(t, rbe.Cause, &original)
	})

	t.Run("consumers_fire_once_with_final_attempt_keys", func(t *testing.T) {
		exec, _, mock, done := newUpdateExecutor(t)
		defer done()

		// Attempt 1 harvests a key but fails at commit with a transient
		// state; its keys must not leak into the delivered set.
		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO t DEFAULT VALUES RETURNING id").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
		mock.ExpectCommit().WillReturnError(&stateError{state: "40001"})
		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO t DEFAULT VALUES RETURNING id").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))
		mock.ExpectCommit()

		var deliveries [][]int64
		s := NewUpdateStatement("INSERT INTO t DEFAULT VALUES RETURNING id").
			WithGeneratedKeys(func(k []int64) { deliveries = append(deliveries, k) })

		err := exec.ExecuteUpdate(context.Background(), []*UpdateStatement{s})
		require.NoError(t, err)
		require.Equal(t, [][]int64{{2}}, deliveries)
	})

	t.Run("consumers_fire_in_statement_order", func(t *testing.T) {
		exec, _, mock, done := newUpdateExecutor(t)
		defer done()

		mock.ExpectBegin()
		mock.ExpectQuery("INSERT INTO a DEFAULT VALUES RETURNING id").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(10)))
		mock.ExpectQuery("INSERT INTO b DEFAULT VALUES RETURNING id").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(20)))
		mock.ExpectCommit()

		var order []int64
		statements := []*UpdateStatement{
			NewUpdateStatement("INSERT INTO a DEFAULT VALUES RETURNING id").
				WithGeneratedKeys(func(k []int64) { order = append(order, k...) }),
			NewUpdateStatement("INSERT INTO b DEFAULT VALUES RETURNING id").
				WithGeneratedKeys(func(k []int64) { order = append(order, k...) }),
		}

		err := exec.ExecuteUpdate(context.Background(), statements)
		require.NoError(t, err)
		assert.Equal(t, []int64{10, 20}, order)
	})
}

func TestSQLState(t *testing.T) {
	t.Run("reads_sqlstate_interface", func(t *testing.T) {
		assert.Equal(t, "40001", sqlState(&stateError{state: "40001"}))
	})

	t.Run("empty_for_plain_errors", func(t *testing.T) {
		assert.Equal(t, "", sqlState(assert.AnError))
	})
}
