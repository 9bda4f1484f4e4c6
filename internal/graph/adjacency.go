package graph

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// decodeLinks splits the pipe-delimited ASCII-integer neighbor list
// format described in spec.md §6. An empty string decodes to an empty
// (non-nil) slice.
func decodeLinks(raw string) ([]PageID, error) {
	if raw == "" {
		return []PageID{}, nil
	}
	parts := strings.Split(raw, "|")
	ids := make([]PageID, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		n, err := strconv.ParseUint(p, 10, 32)
		if err != nil {
			return nil, fmt.Errorf("graph: decode neighbor id %q: %w", p, err)
		}
		ids = append(ids, PageID(n))
	}
	return ids, nil
}

// Outgoing returns the page IDs that id links to.
func (s *Store) Outgoing(ctx context.Context, id PageID) ([]PageID, error) {
	return s.links(ctx, id, s.outgoingStmt)
}

// Incoming returns the page IDs that link to id.
func (s *Store) Incoming(ctx context.Context, id PageID) ([]PageID, error) {
	return s.links(ctx, id, s.incomingStmt)
}

func (s *Store) links(ctx context.Context, id PageID, stmt *sql.Stmt) ([]PageID, error) {
	if id == 0 {
		return nil, ErrNonPositiveID
	}
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	var raw string
	var count int
	err := stmt.QueryRowContext(ctx, id).Scan(&raw, &count)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []PageID{}, nil
		}
		return nil, fmt.Errorf("graph: links for %d: %w", id, err)
	}
	return decodeLinks(raw)
}

// OutgoingCountSum sums the precomputed outgoing-link counts of the
// given IDs, never decoding the adjacency lists themselves.
func (s *Store) OutgoingCountSum(ctx context.Context, ids []PageID) (uint64, error) {
	return s.countSum(ctx, ids, "outgoing_links_count")
}

// IncomingCountSum sums the precomputed incoming-link counts of the
// given IDs, never decoding the adjacency lists themselves.
func (s *Store) IncomingCountSum(ctx context.Context, ids []PageID) (uint64, error) {
	return s.countSum(ctx, ids, "incoming_links_count")
}

func (s *Store) countSum(ctx context.Context, ids []PageID, column string) (uint64, error) {
	if err := s.checkOpen(); err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}
	for _, id := range ids {
		if id == 0 {
			return 0, ErrNonPositiveID
		}
	}

	var total uint64
	err := chunked(ids, s.maxVariables, func(chunk []PageID, _ int) error {
		placeholders, args := placeholdersFor(chunk)
		query := "SELECT SUM(" + column + ") FROM links WHERE id IN (" + placeholders + ")"
		var sum sql.NullInt64
		if err := s.db.QueryRowContext(ctx, query, args...).Scan(&sum); err != nil {
			return fmt.Errorf("graph: count sum over %s: %w", column, err)
		}
		if sum.Valid {
			total += uint64(sum.Int64)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}
