package db

import (
	"context"
	"fmt"
	"sync/atomic"
)

// DeferredQuery lifecycle states
const (
	StateCreated int32 = iota
	StateExecuting
	StateCompleted
)

// DeferredQuery is a read whose execution is deferred until Execute is
// called. Construction performs no I/O. A DeferredQuery runs at most once;
// its state only ever moves forward.
type DeferredQuery[T any] struct {
	provider ConnectionProvider
	sql      string
	values   []any
	mapper   RowMapper[T]

	state atomic.Int32
}

// ExecuteQueryAsync prepares a deferred read without touching the database
func ExecuteQueryAsync[T any](provider ConnectionProvider, sqlStr string, values []any, mapper RowMapper[T]) *DeferredQuery[T] {
	return &DeferredQuery[T]{
		provider: provider,
		sql:      sqlStr,
		values:   values,
		mapper:   mapper,
	}
}

// State returns the current lifecycle state
func (q *DeferredQuery[T]) State() int32 { return q.state.Load() }

// SQL returns the statement this query will run
func (q *DeferredQuery[T]) SQL() string { return q.sql }

// Execute runs the query and materializes the result. Only the first call
// executes; any further call fails without touching the database.
func (q *DeferredQuery[T]) Execute(ctx context.Context) ([]T, error) {
	if !q.state.CompareAndSwap(StateCreated, StateExecuting) {
		return nil, fmt.Errorf("deferred query already executed: %s", q.sql)
	}
	defer q.state.Store(StateCompleted)

	return ExecuteQuery(ctx, q.provider, q.sql, q.values, q.mapper)
}
