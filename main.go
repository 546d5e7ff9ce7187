package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/daebok/speedment/db"
	"github.com/daebok/speedment/schema"
)

var (
	configPath  string
	dbmsName    string
	dbURL       string
	dbUser      string
	dbPassword  string
	schemaNames []string
	extractMode bool
	queryText   string
	queryArgs   []string
	seedFile    string
	mcpMode     bool
)

var rootCmd = &cobra.Command{
	Use:   "speedment",
	Short: "Crawl relational database metadata into a schema document",
	Long: `speedment connects to a relational database, crawls its catalog, schema,
table, column, index and foreign key metadata into a typed schema document,
and renders it as human-readable info or SQL CREATE statements.

Modes:
  info mode (default): Shows human-readable schema information
  extract mode (-e): Outputs SQL CREATE statements
  query mode (-q): Runs a single SQL query and prints the rows as JSON
  sandbox mode (--seed): Crawls a disposable PostgreSQL container seeded from a SQL file
  mcp mode (--mcp): Run as Model Context Protocol server`,
	RunE: runRoot,
}

func main() {
	if err := run(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))

	flags := rootCmd.Flags()
	if flags.Lookup("config") == nil {
		flags.StringVarP(&configPath, "config", "c", "", "Path to YAML config file")
		flags.StringVarP(&dbmsName, "dbms", "d", "", "Database type: postgres, pgx or sqlite")
		flags.StringVar(&dbURL, "url", "", "Connection URL or DSN")
		flags.StringVar(&dbUser, "user", "", "Database user")
		flags.StringVar(&dbPassword, "password", "", "Database password")
		flags.StringSliceVar(&schemaNames, "schemas", nil, "Schema names to crawl (default all)")
		flags.BoolVarP(&extractMode, "extract", "e", false, "Extract schema as SQL CREATE statements")
		flags.StringVarP(&queryText, "query", "q", "", "Run a single SQL query instead of crawling")
		flags.StringArrayVar(&queryArgs, "arg", nil, "Positional argument for --query (repeatable)")
		flags.StringVar(&seedFile, "seed", "", "SQL file to seed a disposable PostgreSQL container")
		flags.BoolVar(&mcpMode, "mcp", false, "Run as Model Context Protocol server")
	}

	return rootCmd.Execute()
}

func runRoot(cmd *cobra.Command, args []string) error {
	if mcpMode {
		slog.Info("starting mcp server")
		return StartMCPServer()
	}

	cfg, err := resolveConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()

	if seedFile != "" {
		return runSandbox(ctx, cfg)
	}

	if cfg.Database.URL == "" {
		return fmt.Errorf("no connection url given, use --url or a config file")
	}

	typ, provider, err := openProvider(cfg.Database)
	if err != nil {
		return err
	}
	defer provider.Close()

	h := db.NewHandler(provider, typ)

	if queryText != "" {
		return runQuery(ctx, cmd, h)
	}
	return runCrawl(ctx, cmd, h, cfg.Crawl)
}

// resolveConfig loads the YAML config when present and lets flags override it
func resolveConfig() (*Config, error) {
	cfg := &Config{}

	path := configPath
	if path == "" {
		if _, err := os.Stat(DefaultConfigPath()); err == nil {
			path = DefaultConfigPath()
		}
	}
	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
		slog.Info("loaded config", "path", path)
	}

	if dbmsName != "" {
		cfg.Database.Type = dbmsName
	}
	if cfg.Database.Type == "" {
		cfg.Database.Type = "postgres"
	}
	if dbURL != "" {
		cfg.Database.URL = dbURL
	}
	if dbUser != "" {
		cfg.Database.User = dbUser
	}
	if dbPassword != "" {
		cfg.Database.Password = dbPassword
	}
	if len(schemaNames) > 0 {
		cfg.Crawl.Schemas = schemaNames
	}
	if extractMode {
		cfg.Crawl.Format = "sql"
	}
	return cfg, nil
}

func openProvider(dc DatabaseConfig) (db.DbmsType, *db.PoolProvider, error) {
	typ, ok := db.StandardTypeRegistry().Get(dc.Type)
	if !ok {
		return nil, nil, fmt.Errorf("unknown dbms type: %s", dc.Type)
	}

	provider, err := db.Open(typ, dc.URL, dc.User, dc.Password)
	if err != nil {
		return nil, nil, err
	}
	return typ, provider, nil
}

func runCrawl(ctx context.Context, cmd *cobra.Command, crawler Crawler, cc CrawlConfig) error {
	output, err := crawlSchema(ctx, crawler, cc)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), output)
	return nil
}

// crawlSchema runs the crawl and renders the frozen document
func crawlSchema(ctx context.Context, crawler Crawler, cc CrawlConfig) (string, error) {
	slog.Info("crawling database metadata")

	dbms, err := crawler.Crawl(ctx, cc.Filter())
	if err != nil {
		return "", fmt.Errorf("failed to crawl schema: %w", err)
	}

	if cc.Format == "sql" {
		return schema.FormatSQL(dbms), nil
	}
	return schema.FormatInfo(dbms), nil
}

func runQuery(ctx context.Context, cmd *cobra.Command, runner QueryRunner) error {
	output, err := querySchema(ctx, runner, queryText, queryArgs)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), output)
	return nil
}

// querySchema runs one read query and renders the rows as indented JSON
func querySchema(ctx context.Context, runner QueryRunner, sqlText string, args []string) (string, error) {
	values := make([]any, len(args))
	for i, a := range args {
		values[i] = a
	}

	rows, err := runner.Query(ctx, sqlText, values...)
	if err != nil {
		return "", fmt.Errorf("failed to run query: %w", err)
	}

	out, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal rows: %w", err)
	}
	return string(out), nil
}

// runSandbox crawls a disposable PostgreSQL container seeded from a SQL file
func runSandbox(ctx context.Context, cfg *Config) error {
	sandbox, err := StartSandbox(ctx)
	if err != nil {
		return fmt.Errorf("failed to start sandbox database: %w", err)
	}
	defer func() {
		if err := sandbox.Close(ctx); err != nil {
			slog.Error("failed to cleanup sandbox", "error", err)
		}
	}()

	if err := sandbox.Seed(ctx, seedFile); err != nil {
		return fmt.Errorf("failed to seed sandbox database: %w", err)
	}

	h := db.NewHandler(db.NewPoolProvider(sandbox.DB), db.NewPostgresType())
	output, err := crawlSchema(ctx, h, cfg.Crawl)
	if err != nil {
		return err
	}
	fmt.Print(output)
	return nil
}
