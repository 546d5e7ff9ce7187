package main

import (
	"context"

	"github.com/daebok/speedment/db"
	"github.com/daebok/speedment/schema"
)

// Crawler discovers the structure of a live database
type Crawler interface {
	// Crawl reads the metadata into a frozen schema document. filter
	// accepts candidate schema names; nil accepts everything.
	Crawl(ctx context.Context, filter func(string) bool) (*schema.Dbms, error)
}

// QueryRunner executes parametrized reads against a live database
type QueryRunner interface {
	// Query runs one statement and returns the rows as named-field maps
	Query(ctx context.Context, sql string, values ...any) ([]db.Row, error)
}
