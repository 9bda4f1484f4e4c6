// Package graph is the sole gateway to the on-disk link-graph database.
//
// It translates between article titles and the dense integer page IDs
// used everywhere else, follows single-hop redirects, and streams
// adjacency lists. Everything here is read-only: the database is built
// once offline (see internal/ingest) and opened immutable at serve time.
package graph

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/mattn/go-sqlite3"
)

// PageID is the dense, positive integer identifier assigned to a page
// at build time.
type PageID = uint32

// ArticleNamespace is the only namespace that participates in gameplay.
const ArticleNamespace = 0

// AllNamespaces tells ResolveTitle to search across every namespace.
const AllNamespaces = -1

// Store is the read-only gateway to the link-graph database whose
// tables are defined by Schema. All methods are
// safe to call concurrently; the underlying *sql.DB pools connections.
type Store struct {
	db     *sql.DB
	log    *slog.Logger
	path   string
	opened bool

	// maxVariables is the storage engine's bound-variable limit,
	// discovered once at startup and used to chunk multi-key queries.
	maxVariables int

	resolveStmt  *sql.Stmt
	titleStmt    *sql.Stmt
	redirectStmt *sql.Stmt
	outgoingStmt *sql.Stmt
	incomingStmt *sql.Stmt
}

// defaultMaxVariables is used if the engine's compile options can't be
// read; it matches SQLite's historical default of 999 prior to 3.32.0
// being bumped, kept conservative so chunking never overflows a real
// engine's limit even when discovery fails.
const defaultMaxVariables = 999

// Open opens the database at path in read-only, immutable mode. A
// missing file is logged but does not return an error — per
// spec.md §7, that failure is deferred to the first operation, which
// will then surface a Storage error.
func Open(ctx context.Context, path string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}

	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro&immutable=true")
	if err != nil {
		return nil, fmt.Errorf("graph: open %s: %w", path, err)
	}

	s := &Store{db: db, log: log, path: path, maxVariables: defaultMaxVariables}

	if err := db.PingContext(ctx); err != nil {
		log.Error("graph database file not reachable at startup, deferring failure to first query",
			slog.String("path", path), slog.Any("error", err))
		return s, nil
	}
	s.opened = true

	s.discoverMaxVariables(ctx)

	if err := s.prepareStatements(); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Store) prepareStatements() error {
	var err error
	if s.resolveStmt, err = s.db.Prepare(
		`SELECT id, title, is_redirect FROM pages WHERE title = ? COLLATE NOCASE AND (namespace = ? OR ? = -1)`,
	); err != nil {
		return fmt.Errorf("graph: prepare resolve statement: %w", err)
	}
	if s.titleStmt, err = s.db.Prepare(`SELECT title FROM pages WHERE id = ?`); err != nil {
		return fmt.Errorf("graph: prepare title statement: %w", err)
	}
	if s.redirectStmt, err = s.db.Prepare(`SELECT target_id FROM redirects WHERE source_id = ?`); err != nil {
		return fmt.Errorf("graph: prepare redirect statement: %w", err)
	}
	if s.outgoingStmt, err = s.db.Prepare(`SELECT outgoing_links, outgoing_links_count FROM links WHERE id = ?`); err != nil {
		return fmt.Errorf("graph: prepare outgoing statement: %w", err)
	}
	if s.incomingStmt, err = s.db.Prepare(`SELECT incoming_links, incoming_links_count FROM links WHERE id = ?`); err != nil {
		return fmt.Errorf("graph: prepare incoming statement: %w", err)
	}
	return nil
}

func (s *Store) discoverMaxVariables(ctx context.Context) {
	rows, err := s.db.QueryContext(ctx, "PRAGMA compile_options")
	if err != nil {
		s.log.Warn("failed to read sqlite compile options, using default bound-variable limit",
			slog.Int("default", defaultMaxVariables), slog.Any("error", err))
		return
	}
	defer rows.Close()

	const prefix = "MAX_VARIABLE_NUMBER="
	for rows.Next() {
		var option string
		if err := rows.Scan(&option); err != nil {
			continue
		}
		if len(option) > len(prefix) && option[:len(prefix)] == prefix {
			var n int
			if _, err := fmt.Sscanf(option[len(prefix):], "%d", &n); err == nil && n > 0 {
				s.maxVariables = n
				s.log.Info("discovered sqlite bound-variable limit", slog.Int("max_variables", n))
				return
			}
		}
	}
	s.log.Warn("MAX_VARIABLE_NUMBER not found in compile options, using default",
		slog.Int("default", defaultMaxVariables))
}

// MaxVariables returns the storage engine's bound-variable limit used
// to chunk multi-key operations.
func (s *Store) MaxVariables() int {
	return s.maxVariables
}

// Close releases the underlying database connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}

// ErrNotOpen is returned by any operation when the database file could
// not be opened at startup.
var ErrNotOpen = errors.New("graph: database was never successfully opened")

func (s *Store) checkOpen() error {
	if !s.opened {
		return ErrNotOpen
	}
	return nil
}

// Stats returns the total page count and the sum of all outgoing edges.
func (s *Store) Stats(ctx context.Context) (pageCount int64, totalOutgoingEdges int64, err error) {
	if err := s.checkOpen(); err != nil {
		return 0, 0, err
	}
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM pages").Scan(&pageCount); err != nil {
		return 0, 0, fmt.Errorf("graph: stats page count: %w", err)
	}
	var sum sql.NullInt64
	if err := s.db.QueryRowContext(ctx, "SELECT SUM(outgoing_links_count) FROM links").Scan(&sum); err != nil {
		return 0, 0, fmt.Errorf("graph: stats outgoing edge sum: %w", err)
	}
	return pageCount, sum.Int64, nil
}

// PageExists is shorthand for ResolveTitle(title, ArticleNamespace) being non-absent.
func (s *Store) PageExists(ctx context.Context, title string) (bool, error) {
	id, err := s.ResolveTitle(ctx, title, ArticleNamespace)
	if err != nil {
		return false, err
	}
	return id != 0, nil
}
