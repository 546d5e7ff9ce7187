package main

import (
	"context"

	"github.com/daebok/speedment/db"
	"github.com/daebok/speedment/schema"
)

// MockCrawler is a mock implementation of Crawler for testing
type MockCrawler struct {
	CrawlFunc func(ctx context.Context, filter func(string) bool) (*schema.Dbms, error)

	// Track calls for verification
	CrawlCalled bool
	LastFilter  func(string) bool
}

func (m *MockCrawler) Crawl(ctx context.Context, filter func(string) bool) (*schema.Dbms, error) {
	m.CrawlCalled = true
	m.LastFilter = filter
	if m.CrawlFunc != nil {
		return m.CrawlFunc(ctx, filter)
	}
	d := schema.NewDbms("mock")
	d.Freeze()
	return d, nil
}

// MockQueryRunner is a mock implementation of QueryRunner for testing
type MockQueryRunner struct {
	QueryFunc func(ctx context.Context, sql string, values ...any) ([]db.Row, error)

	QueryCalled bool
	LastSQL     string
	LastValues  []any
}

func (m *MockQueryRunner) Query(ctx context.Context, sql string, values ...any) ([]db.Row, error) {
	m.QueryCalled = true
	m.LastSQL = sql
	m.LastValues = values
	if m.QueryFunc != nil {
		return m.QueryFunc(ctx, sql, values...)
	}
	return []db.Row{}, nil
}

// buildSampleDbms builds a small frozen document for renderer tests
func buildSampleDbms() (*schema.Dbms, error) {
	d := schema.NewDbms("postgres")
	s, err := d.AddSchema("public")
	if err != nil {
		return nil, err
	}
	table, err := s.AddTable("users")
	if err != nil {
		return nil, err
	}

	id, err := table.AddColumn("id")
	if err != nil {
		return nil, err
	}
	if err := id.SetOrdinalPosition(1); err != nil {
		return nil, err
	}
	if err := id.SetNullable(false); err != nil {
		return nil, err
	}
	if err := id.SetTypeName("INT4"); err != nil {
		return nil, err
	}

	if _, err := table.AddPrimaryKeyColumn("id"); err != nil {
		return nil, err
	}

	d.Freeze()
	return d, nil
}
