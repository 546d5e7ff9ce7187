package db

import (
	"fmt"
	"strings"
)

// ConnectivityError reports a failed connection acquisition. The password is
// never carried in the error, only the URL and user.
type ConnectivityError struct {
	URL  string
	User string
	Err  error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("unable to get connection for url %q, user = %s, password = %s: %v",
		e.URL, e.User, passwordProtected, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// SchemaDiscoveryError reports that zero schemas matched after filtering.
// It carries every discarded candidate name for diagnostics.
type SchemaDiscoveryError struct {
	Considered []string
}

func (e *SchemaDiscoveryError) Error() string {
	return fmt.Sprintf("could not find any matching schema, the following schemas were considered: [%s]",
		strings.Join(e.Considered, ", "))
}

// DiscoveryError reports a fatal failure while crawling one metadata
// category of one table or schema, wrapping the underlying cause.
type DiscoveryError struct {
	Stage  string
	Schema string
	Table  string
	Err    error
}

func (e *DiscoveryError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("discovering %s in schema %q: %v", e.Stage, e.Schema, e.Err)
	}
	return fmt.Sprintf("discovering %s for table %q in schema %q: %v", e.Stage, e.Table, e.Schema, e.Err)
}

func (e *DiscoveryError) Unwrap() error { return e.Err }

// ColumnResolutionError reports that a recognized vendor type resolved to
// zero or multiple identity type mappers.
type ColumnResolutionError struct {
	Table  string
	Column string
	Err    error
}

func (e *ColumnResolutionError) Error() string {
	return fmt.Sprintf("no identity type mapper for table %q, column %q: %v", e.Table, e.Column, e.Err)
}

func (e *ColumnResolutionError) Unwrap() error { return e.Err }

// UnknownNullableCodeError reports a vendor nullable code outside the
// recognized set.
type UnknownNullableCodeError struct {
	Table  string
	Column string
	Code   int
}

func (e *UnknownNullableCodeError) Error() string {
	return fmt.Sprintf("unknown nullable type %d for table %q, column %q", e.Code, e.Table, e.Column)
}

// QueryExecutionError reports a failed read query. The connection is always
// released before this error is returned.
type QueryExecutionError struct {
	SQL string
	Err error
}

func (e *QueryExecutionError) Error() string {
	return fmt.Sprintf("error querying %q: %v", e.SQL, e.Err)
}

func (e *QueryExecutionError) Unwrap() error { return e.Err }

// TransactionError reports a failed write batch. Transient marks the
// retryable sub-kind: the batch was retried and the retry budget exhausted.
type TransactionError struct {
	Attempts  int
	Transient bool
	Err       error
}

func (e *TransactionError) Error() string {
	if e.Transient {
		return fmt.Sprintf("transaction failed after %d attempts on transient errors: %v", e.Attempts, e.Err)
	}
	return fmt.Sprintf("transaction failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }

// RollbackError reports a rollback failure during error handling. It is
// treated as more severe than the failure that triggered the rollback and
// supersedes it.
type RollbackError struct {
	Cause error
	Err   error
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("rollback failed: %v (while handling: %v)", e.Err, e.Cause)
}

func (e *RollbackError) Unwrap() error { return e.Err }
