// Command mnemograph-import seeds the graph from a directory of Markdown
// notes (an Obsidian vault, an exported wiki, any folder of .md files).
// Every note becomes a memory; wiki links between notes become RELATED_TO
// edges and entity mentions. With -watch the command keeps running and
// re-imports notes as they change, superseding each edited note's previous
// memory version.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/haldane/mnemograph/internal/config"
	"github.com/haldane/mnemograph/internal/graph"
	"github.com/haldane/mnemograph/internal/graph/neo4j"
	"github.com/haldane/mnemograph/internal/graph/postgres"
	"github.com/haldane/mnemograph/internal/graph/sqlite"
	"github.com/haldane/mnemograph/internal/importer"
)

var (
	dir         = flag.String("dir", "", "Directory of Markdown notes to import (required)")
	watch       = flag.Bool("watch", false, "Keep running and re-import notes as they change")
	backend     = flag.String("backend", "", "Graph backend: neo4j, sqlite, postgres (overrides MNEMO_BACKEND)")
	sqlitePath  = flag.String("sqlite-path", "", "SQLite database file (overrides MNEMO_SQLITE_PATH)")
	postgresDSN = flag.String("postgres-dsn", "", "PostgreSQL connection string (overrides MNEMO_POSTGRES_DSN)")
	neo4jURI    = flag.String("neo4j-uri", "", "Neo4j bolt URI (overrides MNEMO_NEO4J_URI)")
	timeout     = flag.Duration("timeout", 5*time.Minute, "Time limit for the initial import pass")
)

// applyOverrides pushes flag values into the environment so that
// config.LoadConfig validates the effective settings, not the pre-flag ones.
func applyOverrides() {
	if *backend != "" {
		os.Setenv("MNEMO_BACKEND", *backend)
	}
	if *sqlitePath != "" {
		os.Setenv("MNEMO_SQLITE_PATH", *sqlitePath)
	}
	if *postgresDSN != "" {
		os.Setenv("MNEMO_POSTGRES_DSN", *postgresDSN)
	}
	if *neo4jURI != "" {
		os.Setenv("MNEMO_NEO4J_URI", *neo4jURI)
	}
}

func main() {
	flag.Parse()
	applyOverrides()

	if *dir == "" {
		fmt.Fprintln(os.Stderr, "usage: mnemograph-import -dir <notes> [-watch]")
		os.Exit(2)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("shutting down", zap.String("signal", sig.String()))
		cancel()
	}()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open backend",
			zap.String("backend", cfg.Backend.Engine), zap.Error(err))
	}
	defer store.Close()

	imp := importer.New(store, logger)

	scanCtx, scanCancel := context.WithTimeout(ctx, *timeout)
	res, err := imp.ImportDir(scanCtx, *dir)
	scanCancel()
	if err != nil {
		logger.Fatal("import failed", zap.String("dir", *dir), zap.Error(err))
	}

	fmt.Println("mnemograph import complete")
	fmt.Printf("  files:         %d found, %d imported, %d skipped, %d failed\n",
		res.FilesFound, res.FilesImported, res.FilesSkipped, res.FilesFailed)
	fmt.Printf("  relationships: %d\n", res.Relationships)
	fmt.Printf("  mentions:      %d\n", res.Mentions)
	fmt.Printf("  took:          %s\n", res.Took.Round(time.Millisecond))
	for _, msg := range res.Errors {
		fmt.Printf("  issue: %s\n", msg)
	}

	if !*watch {
		if res.FilesFailed > 0 {
			os.Exit(1)
		}
		return
	}

	w := importer.NewWatcher(*dir, imp, logger)
	if err := w.Start(ctx); err != nil {
		logger.Fatal("failed to start watcher", zap.Error(err))
	}
	<-ctx.Done()
	w.Stop()
}

// openStore opens the backend selected by the configuration.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (graph.Store, error) {
	switch cfg.Backend.Engine {
	case "neo4j":
		return neo4j.New(ctx, neo4j.Config{
			URI:      cfg.Neo4j.URI,
			Username: cfg.Neo4j.Username,
			Password: cfg.Neo4j.Password,
			Database: cfg.Neo4j.Database,
		}, logger)
	case "postgres":
		return postgres.New(cfg.Postgres.DSN, logger)
	case "sqlite":
		if dir := filepath.Dir(cfg.SQLite.Path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("failed to create data directory %q: %w", dir, err)
			}
		}
		return sqlite.New(cfg.SQLite.Path, logger)
	default:
		return nil, fmt.Errorf("unknown backend engine %q", cfg.Backend.Engine)
	}
}
