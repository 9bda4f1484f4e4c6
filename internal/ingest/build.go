package ingest

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/ldobbelsteen/wikipath/internal/graph"
	"github.com/ldobbelsteen/wikipath/internal/progressbar"
	"github.com/pbnjay/memory"

	_ "github.com/mattn/go-sqlite3"
)

// TempFileExtension marks a database file that is still being built;
// Build renames it away once the transaction commits successfully,
// mirroring the teacher's buildDatabase temp-then-rename discipline.
const TempFileExtension = ".tmp"

// defaultCacheFraction is the share of available system memory the
// build transaction's page cache may use, the same role
// github.com/pbnjay/memory plays sizing the teacher's buildDatabase
// cache (there a flat percentage flag, here the fraction is a Config
// field set by the caller).
const defaultCacheFraction = 0.25

// Config describes one ingest run.
type Config struct {
	PagesPath     string
	RedirectsPath string
	LinksPath     string
	OutputPath    string

	// CacheFraction overrides defaultCacheFraction; zero means use the default.
	CacheFraction float64
}

// Build reads the three flat files described in pages.tsv/redirects.tsv/
// links.tsv, and writes them as the sqlite graph database described by
// internal/graph.Schema. Grounded on the teacher's buildDatabase: same
// temp-file-then-atomic-rename discipline, same
// parse-then-insert-per-table ordering, same redirect-chain-resolution
// rule (follow until a non-redirect target is found, breaking any
// cycle by dropping the page that would re-enter it).
func Build(ctx context.Context, cfg Config, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	if cfg.CacheFraction <= 0 {
		cfg.CacheFraction = defaultCacheFraction
	}

	tempPath := cfg.OutputPath + TempFileExtension
	if err := os.Remove(tempPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("ingest: remove stale temp file: %w", err)
	}

	cacheBytes := int64(float64(memory.TotalMemory()) * cfg.CacheFraction)
	cachePages := -(cacheBytes / 1024) // negative cache_size is interpreted as KiB by sqlite

	db, err := sql.Open("sqlite3", fmt.Sprintf(
		"file:%s?_journal=OFF&_sync=OFF&_locking=EXCLUSIVE&_cache_size=%d", tempPath, cachePages))
	if err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("ingest: open temp database: %w", err)
	}
	defer db.Close()

	stages := progressbar.NewStages(4)
	start := time.Now()

	if err := run(ctx, db, cfg, stages, log); err != nil {
		os.Remove(tempPath)
		return err
	}

	if err := os.Remove(cfg.OutputPath); err != nil && !os.IsNotExist(err) {
		os.Remove(tempPath)
		return fmt.Errorf("ingest: remove previous database: %w", err)
	}
	if err := os.Rename(tempPath, cfg.OutputPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("ingest: rename temp database into place: %w", err)
	}

	log.Info("finished database build", slog.Duration("elapsed", time.Since(start)), slog.String("path", cfg.OutputPath))
	return nil
}

func run(ctx context.Context, db *sql.DB, cfg Config, stages *progressbar.Stages, log *slog.Logger) error {
	if _, err := db.ExecContext(ctx, graph.Schema); err != nil {
		return fmt.Errorf("ingest: create schema: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ingest: begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op once committed

	insertPage, err := tx.PrepareContext(ctx, "INSERT INTO pages (id, namespace, title, is_redirect) VALUES (?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("ingest: prepare page insert: %w", err)
	}
	insertRedirect, err := tx.PrepareContext(ctx, "INSERT INTO redirects (source_id, target_id) VALUES (?, ?)")
	if err != nil {
		return fmt.Errorf("ingest: prepare redirect insert: %w", err)
	}
	insertLinks, err := tx.PrepareContext(ctx,
		"INSERT INTO links (id, outgoing_links, incoming_links, outgoing_links_count, incoming_links_count) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("ingest: prepare links insert: %w", err)
	}

	log.Info("ingesting pages")
	bar := stages.Step("pages", fileSize(cfg.PagesPath))
	pageRows, pageErrs, err := parsePages(cfg.PagesPath)
	if err != nil {
		return err
	}
	redirectSources := make(map[graph.PageID]bool)
	pageCount := 0
	for page := range pageRows {
		if _, err := insertPage.ExecContext(ctx, page.ID, page.Namespace, page.Title, boolToInt(page.IsRedirect)); err != nil {
			return fmt.Errorf("ingest: insert page %d: %w", page.ID, err)
		}
		if page.IsRedirect {
			redirectSources[page.ID] = true
		}
		pageCount++
		bar.Add64(1)
	}
	bar.Finish()
	if err := <-pageErrs; err != nil {
		return err
	}

	log.Info("resolving and ingesting redirects")
	bar = stages.Step("redirects", fileSize(cfg.RedirectsPath))
	rawRedirects := make(map[graph.PageID]graph.PageID)
	redirectRows, redirectErrs, err := parseRedirects(cfg.RedirectsPath)
	if err != nil {
		return err
	}
	for r := range redirectRows {
		rawRedirects[r.Source] = r.Target
		bar.Add64(1)
	}
	bar.Finish()
	if err := <-redirectErrs; err != nil {
		return err
	}

	// Follow chains to their non-redirect target, breaking cycles by
	// dropping whichever source would re-enter one already visited —
	// grounded on buildDatabase's redirect cleanup loop.
	resolved := resolveRedirectChains(rawRedirects)
	for source, target := range resolved {
		if _, err := insertRedirect.ExecContext(ctx, source, target); err != nil {
			return fmt.Errorf("ingest: insert redirect %d -> %d: %w", source, target, err)
		}
	}

	log.Info("building and ingesting link adjacency")
	bar = stages.Step("links", fileSize(cfg.LinksPath))
	outgoing := make(map[graph.PageID][]graph.PageID)
	incoming := make(map[graph.PageID][]graph.PageID)
	allSources := make(map[graph.PageID]struct{})
	allTargets := make(map[graph.PageID]struct{})
	linkRows, linkErrs, err := parseLinks(cfg.LinksPath)
	if err != nil {
		return err
	}
	for l := range linkRows {
		outgoing[l.Source] = append(outgoing[l.Source], l.Target)
		incoming[l.Target] = append(incoming[l.Target], l.Source)
		allSources[l.Source] = struct{}{}
		allTargets[l.Target] = struct{}{}
		bar.Add64(1)
	}
	bar.Finish()
	if err := <-linkErrs; err != nil {
		return err
	}

	ids := make(map[graph.PageID]struct{}, len(allSources)+len(allTargets))
	for id := range allSources {
		ids[id] = struct{}{}
	}
	for id := range allTargets {
		ids[id] = struct{}{}
	}

	ingestBar := stages.Step("adjacency rows", int64(len(ids)))
	for id := range ids {
		out := encodeLinks(outgoing[id])
		in := encodeLinks(incoming[id])
		if _, err := insertLinks.ExecContext(ctx, id, out, in, len(outgoing[id]), len(incoming[id])); err != nil {
			return fmt.Errorf("ingest: insert links row %d: %w", id, err)
		}
		ingestBar.Add64(1)
	}
	ingestBar.Finish()

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ingest: commit transaction: %w", err)
	}

	log.Info("ingest summary", slog.Int("pages", pageCount), slog.Int("redirects", len(resolved)), slog.Int("adjacency_rows", len(ids)))
	return nil
}

// resolveRedirectChains walks every source's redirect chain to its
// terminal, non-redirect target. A source whose chain revisits a page
// already seen in the current walk is dropped rather than looped
// forever — cyclic redirects only arise from dumps captured mid-edit,
// per the teacher's comment on the same cleanup step.
func resolveRedirectChains(raw map[graph.PageID]graph.PageID) map[graph.PageID]graph.PageID {
	resolved := make(map[graph.PageID]graph.PageID, len(raw))
	for source := range raw {
		seen := map[graph.PageID]bool{source: true}
		current := raw[source]
		for {
			next, isRedirect := raw[current]
			if !isRedirect {
				break
			}
			if seen[current] {
				current = 0 // cyclic chain, drop this source
				break
			}
			seen[current] = true
			current = next
		}
		if current != 0 {
			resolved[source] = current
		}
	}
	return resolved
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
