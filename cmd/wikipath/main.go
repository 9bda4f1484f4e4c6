// Command wikipath builds and serves the Wikipedia shortest-path
// graph database. Grounded on the teacher's main.go: the same
// flag.NewFlagSet-per-subcommand dispatch, generalized to the new
// ingest/httpapi/config packages.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/ldobbelsteen/wikipath/internal/config"
	"github.com/ldobbelsteen/wikipath/internal/graph"
	"github.com/ldobbelsteen/wikipath/internal/httpapi"
	"github.com/ldobbelsteen/wikipath/internal/ingest"
	"github.com/ldobbelsteen/wikipath/internal/solver"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "expected 'build' or 'serve' subcommand")
		os.Exit(1)
	}

	switch os.Args[1] {
	case "build":
		runBuild(os.Args[2:])
	case "serve":
		runServe(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "unexpected subcommand %q, expected 'build' or 'serve'\n", os.Args[1])
		os.Exit(1)
	}
}

func runBuild(args []string) {
	buildCmd := flag.NewFlagSet("build", flag.ExitOnError)
	pages := buildCmd.String("pages", "pages.tsv", "Path to the extracted page list")
	redirects := buildCmd.String("redirects", "redirects.tsv", "Path to the extracted redirect list")
	links := buildCmd.String("links", "links.tsv", "Path to the extracted link list")
	output := buildCmd.String("output", "wikipath.sqlite3", "Path to write the built database to")
	if err := buildCmd.Parse(args); err != nil {
		fatal(err)
	}

	log := newLogger("info", true)
	err := ingest.Build(context.Background(), ingest.Config{
		PagesPath:     *pages,
		RedirectsPath: *redirects,
		LinksPath:     *links,
		OutputPath:    *output,
	}, log)
	if err != nil {
		fatal(err)
	}
}

func runServe(args []string) {
	serveCmd := flag.NewFlagSet("serve", flag.ExitOnError)
	listenAddr := serveCmd.String("listen", "", "Address to listen on (overrides WIKIPATH_LISTEN_ADDR)")
	databasePath := serveCmd.String("database", "", "Path to the graph database (overrides WIKIPATH_DATABASE_PATH)")
	if err := serveCmd.Parse(args); err != nil {
		fatal(err)
	}

	cfg, err := config.Load()
	if err != nil {
		fatal(err)
	}
	if *listenAddr != "" {
		cfg.ListenAddr = *listenAddr
	}
	if *databasePath != "" {
		cfg.DatabasePath = *databasePath
	}

	log := newLogger(cfg.LogLevel, cfg.LogJSON)

	store, err := graph.Open(context.Background(), cfg.DatabasePath, log)
	if err != nil {
		fatal(err)
	}
	defer store.Close()

	strategy := solver.FrontierSize
	if cfg.DirectionStrategy == "edge_count_query" {
		strategy = solver.EdgeCountQuery
	}
	solve := solver.New(store, log, solver.WithDirectionStrategy(strategy), solver.WithTier1EntryCap(cfg.Tier1EntryCap))

	server := httpapi.New(store, solve, log)

	log.Info("listening", slog.String("addr", cfg.ListenAddr))
	if err := http.ListenAndServe(cfg.ListenAddr, server); err != nil {
		fatal(err)
	}
}

func newLogger(level string, jsonOutput bool) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	var handler slog.Handler
	if jsonOutput {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
