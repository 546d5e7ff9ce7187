package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/daebok/speedment/db"
)

// StartMCPServer starts the MCP server exposing schema crawling and query
// execution as tools.
func StartMCPServer() error {
	s := server.NewMCPServer(
		"speedment",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	crawlSchemaTool := mcp.NewTool("crawl_schema",
		mcp.WithDescription("Crawl a relational database and return its schema as info text or SQL CREATE statements"),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Connection URL or DSN"),
		),
		mcp.WithString("dbms",
			mcp.Description("Database type: postgres, pgx or sqlite (default: postgres)"),
			mcp.Enum("postgres", "pgx", "sqlite"),
		),
		mcp.WithString("schemas",
			mcp.Description("Comma-separated schema names to crawl (default: all)"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: 'info' for human-readable (default) or 'sql' for CREATE statements"),
			mcp.Enum("info", "sql"),
		),
	)

	s.AddTool(crawlSchemaTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleCrawlSchema(ctx, request)
	})

	runQueryTool := mcp.NewTool("run_query",
		mcp.WithDescription("Run a single SQL query against a relational database and return the rows as JSON"),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Connection URL or DSN"),
		),
		mcp.WithString("dbms",
			mcp.Description("Database type: postgres, pgx or sqlite (default: postgres)"),
			mcp.Enum("postgres", "pgx", "sqlite"),
		),
		mcp.WithString("sql",
			mcp.Required(),
			mcp.Description("SQL statement to run"),
		),
	)

	s.AddTool(runQueryTool, func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleRunQuery(ctx, request)
	})

	slog.Info("starting speedment mcp server")
	return server.ServeStdio(s)
}

// handleCrawlSchema processes the crawl_schema tool request
func handleCrawlSchema(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("url parameter is required"), nil
	}

	dbms := request.GetString("dbms", "postgres")
	format := request.GetString("format", "info")
	var schemas []string
	if raw := request.GetString("schemas", ""); raw != "" {
		for _, name := range strings.Split(raw, ",") {
			schemas = append(schemas, strings.TrimSpace(name))
		}
	}

	output, err := crawlSchemaCore(ctx, url, dbms, CrawlConfig{Schemas: schemas, Format: format})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("schema crawled successfully:\n\n%s", output)), nil
}

// crawlSchemaCore contains the core crawl logic, separated for testing
func crawlSchemaCore(ctx context.Context, url, dbms string, cc CrawlConfig) (string, error) {
	typ, provider, err := openProvider(DatabaseConfig{Type: dbms, URL: url})
	if err != nil {
		return "", err
	}
	defer provider.Close()

	return crawlSchema(ctx, db.NewHandler(provider, typ), cc)
}

// handleRunQuery processes the run_query tool request
func handleRunQuery(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	url, err := request.RequireString("url")
	if err != nil {
		return mcp.NewToolResultError("url parameter is required"), nil
	}
	sqlText, err := request.RequireString("sql")
	if err != nil {
		return mcp.NewToolResultError("sql parameter is required"), nil
	}
	dbms := request.GetString("dbms", "postgres")

	output, err := runQueryCore(ctx, url, dbms, sqlText)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(output), nil
}

// runQueryCore contains the core query logic, separated for testing
func runQueryCore(ctx context.Context, url, dbms, sqlText string) (string, error) {
	typ, provider, err := openProvider(DatabaseConfig{Type: dbms, URL: url})
	if err != nil {
		return "", err
	}
	defer provider.Close()

	return querySchema(ctx, db.NewHandler(provider, typ), sqlText, nil)
}
