package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Sandbox is a disposable PostgreSQL instance for crawling a schema that
// only exists as a SQL seed file.
type Sandbox struct {
	Container testcontainers.Container
	DB        *sql.DB
	ConnStr   string
}

// StartSandbox starts a PostgreSQL container and opens a pool against it
func StartSandbox(ctx context.Context) (*Sandbox, error) {
	slog.Debug("starting postgresql container")
	container, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("sandbox"),
		postgres.WithUsername("sandbox"),
		postgres.WithPassword("sandbox"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return nil, fmt.Errorf("failed to get connection string: %w", err)
	}

	pool, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}
	if err := pool.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	slog.Info("sandbox postgresql container ready")
	return &Sandbox{Container: container, DB: pool, ConnStr: connStr}, nil
}

// Seed applies a SQL file to the sandbox database
func (s *Sandbox) Seed(ctx context.Context, path string) error {
	slog.Debug("applying seed file", "file", path)

	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file %s: %w", path, err)
	}
	if _, err := s.DB.ExecContext(ctx, string(content)); err != nil {
		return fmt.Errorf("failed to execute seed file %s: %w", path, err)
	}

	slog.Info("seed file applied", "file", path)
	return nil
}

// Close releases the pool and terminates the container
func (s *Sandbox) Close(ctx context.Context) error {
	if s.DB != nil {
		s.DB.Close()
	}
	if s.Container != nil {
		return s.Container.Terminate(ctx)
	}
	return nil
}
