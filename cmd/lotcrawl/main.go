package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"

	"github.com/mackayauctioneers-design/lotcrawl"
	"github.com/mackayauctioneers-design/lotcrawl/crawl"
	"github.com/mackayauctioneers-design/lotcrawl/fs"
	"github.com/mackayauctioneers-design/lotcrawl/goquery"
	lchttp "github.com/mackayauctioneers-design/lotcrawl/http"
	lcslog "github.com/mackayauctioneers-design/lotcrawl/slog"
	"github.com/mackayauctioneers-design/lotcrawl/sqlite"
)

func main() {
	ctx := context.Background()

	// Local development convenience; a missing .env is not an error.
	_ = godotenv.Load()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path. Set before calling Run().
	DBPath string

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Services for end-to-end testing.
	TargetService lotcrawl.TargetService
	RunService    lotcrawl.RunService
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath: defaultDBPath(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
		Logger: newLogger(stderr),
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("lotcrawl"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'lotcrawl --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	m.DB = sqlite.NewDB(m.DBPath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set LOTCRAWL_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", m.DBPath, err)
	}
	defer m.Close()

	m.TargetService = sqlite.NewTargetService(m.DB)
	m.RunService = sqlite.NewRunService(m.DB)
	deps.DB = m.DB
	deps.Targets = m.TargetService
	deps.Runs = m.RunService

	// Crawl-carrying commands get the full pipeline; target admin
	// commands only need the store.
	switch cmd {
	case "cron", "validate", "run":
		deps.Orchestrator = m.newOrchestrator(cli, deps)
	}

	return kongCtx.Run(deps)
}

// newOrchestrator wires the crawl pipeline from flags and environment
// configuration.
func (m *Main) newOrchestrator(cli *CLI, deps *Dependencies) *crawl.Orchestrator {
	var fetchOpts []lchttp.Option
	if ua := os.Getenv("LOTCRAWL_USER_AGENT"); ua != "" {
		fetchOpts = append(fetchOpts, lchttp.WithUserAgent(ua))
	}
	if timeout := os.Getenv("LOTCRAWL_FETCH_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			fetchOpts = append(fetchOpts, lchttp.WithTimeout(d))
		}
	}
	if endpoint := os.Getenv("SCRAPE_API_URL"); endpoint != "" {
		fetchOpts = append(fetchOpts, lchttp.WithScrapeAPI(endpoint, os.Getenv("SCRAPE_API_KEY")))
	}

	var fetcher lotcrawl.Fetcher = lchttp.NewFetcher(fetchOpts...)
	fetcher = lcslog.NewLoggingFetcher(fetcher, deps.Logger)

	var ingestor lotcrawl.Ingestor
	if endpoint := os.Getenv("INGEST_API_URL"); endpoint != "" {
		ingestor = lchttp.NewIngestor(endpoint, os.Getenv("INGEST_API_KEY"))
		ingestor = lcslog.NewLoggingIngestor(ingestor, deps.Logger)
	} else {
		deps.Logger.Warn("INGEST_API_URL not set; crawled records will not be forwarded")
	}

	var snapshots lotcrawl.SnapshotStore
	if dir := os.Getenv("LOTCRAWL_SNAPSHOT_DIR"); dir != "" {
		snapshots = fs.NewSnapshotStore(dir)
	}

	registry := goquery.NewRegistry()
	registry.Register(lotcrawl.StrategyDense, &goquery.DenseExtractor{Logger: deps.Logger})

	cfg := crawl.DefaultConfig()
	if cli.Cron.Batch > 0 {
		cfg.CronBatchSize = cli.Cron.Batch
	}
	if cli.Validate.RunCap > 0 {
		cfg.ValidationRunCap = cli.Validate.RunCap
	}

	return &crawl.Orchestrator{
		Targets:    deps.Targets,
		Runs:       deps.Runs,
		Fetcher:    fetcher,
		Extractors: registry,
		Ingestor:   ingestor,
		Gate:       lotcrawl.DefaultGate(),
		Limiter:    crawl.NewHostLimiter(cli.Rate),
		Logger:     deps.Logger,
		Config:     cfg,
		Snapshots:  snapshots,
	}
}

// newLogger builds the process logger: colorized text for terminals,
// machine-readable JSON when LOG_FORMAT=json.
func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}
	if os.Getenv("LOG_FORMAT") == "json" {
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(tint.NewHandler(w, &tint.Options{Level: level}))
}

func defaultDBPath() string {
	if path := os.Getenv("LOTCRAWL_DB"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "lotcrawl.db"
	}
	dir := filepath.Join(home, ".lotcrawl")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "lotcrawl.db")
}
