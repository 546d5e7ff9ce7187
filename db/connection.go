package db

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

const passwordProtected = "********"

// ConnectionProvider supplies one live connection per call. Pooling and
// lifecycle belong to the provider; callers release each connection before
// returning (or as part of their own deferred execution).
type ConnectionProvider interface {
	Connection(ctx context.Context) (*sql.Conn, error)
}

// PoolProvider hands out connections from a database/sql pool opened once
// from a URL and credentials.
type PoolProvider struct {
	db   *sql.DB
	url  string
	user string
}

// Open opens a pool for the given vendor profile. The password is folded
// into the DSN by the profile and never logged or carried in errors.
func Open(typ DbmsType, url, user, password string) (*PoolProvider, error) {
	dsn := typ.DSN(url, user, password)
	pool, err := sql.Open(typ.DriverName(), dsn)
	if err != nil {
		slog.Error("unable to open connection pool", "url", url, "user", user, "password", passwordProtected)
		return nil, &ConnectivityError{URL: url, User: user, Err: err}
	}
	slog.Debug("opened connection pool", "dbms", typ.Name(), "url", url, "user", user)
	return &PoolProvider{db: pool, url: url, user: user}, nil
}

// NewPoolProvider wraps an externally supplied pool
func NewPoolProvider(pool *sql.DB) *PoolProvider {
	return &PoolProvider{db: pool}
}

// Connection acquires one connection from the pool
func (p *PoolProvider) Connection(ctx context.Context) (*sql.Conn, error) {
	conn, err := p.db.Conn(ctx)
	if err != nil {
		return nil, &ConnectivityError{URL: p.url, User: p.user, Err: err}
	}
	return conn, nil
}

// DB returns the underlying pool
func (p *PoolProvider) DB() *sql.DB {
	return p.db
}

// Close closes the pool
func (p *PoolProvider) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// Ping verifies the pool can reach the database
func (p *PoolProvider) Ping(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}
