package graph

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrEmptyTitle is a precondition violation reported synchronously by
// any operation taking a title.
var ErrEmptyTitle = errors.New("graph: title must not be empty")

// ErrNonPositiveID is a precondition violation reported synchronously
// by any operation taking a page ID.
var ErrNonPositiveID = errors.New("graph: page id must be positive")

// ResolveTitle computes the sanitized form of title and resolves it to
// a canonical page ID, following a single redirect hop if necessary.
// namespace restricts the search to one namespace; pass AllNamespaces
// to search every namespace. A result of 0 means no match was found.
//
// Tie-break order among rows matching the sanitized title
// case-insensitively (grounded on the original resolve_title's
// _get_page_id_impl): an exact sanitized-form non-redirect row wins;
// otherwise the first non-redirect row wins; otherwise the first row's
// single redirect target is returned.
func (s *Store) ResolveTitle(ctx context.Context, title string, namespace int) (PageID, error) {
	if title == "" {
		return 0, ErrEmptyTitle
	}
	if err := s.checkOpen(); err != nil {
		return 0, err
	}

	sanitized := sanitizeTitle(title)

	rows, err := s.resolveStmt.QueryContext(ctx, sanitized, namespace, namespace)
	if err != nil {
		return 0, fmt.Errorf("graph: resolve title %q: %w", title, err)
	}
	defer rows.Close()

	type candidate struct {
		id         PageID
		dbTitle    string
		isRedirect bool
	}
	var candidates []candidate
	for rows.Next() {
		var c candidate
		if err := rows.Scan(&c.id, &c.dbTitle, &c.isRedirect); err != nil {
			return 0, fmt.Errorf("graph: scan resolve row: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("graph: iterate resolve rows: %w", err)
	}
	if len(candidates) == 0 {
		return 0, nil
	}

	for _, c := range candidates {
		if c.dbTitle == sanitized && !c.isRedirect {
			return c.id, nil
		}
	}
	for _, c := range candidates {
		if !c.isRedirect {
			return c.id, nil
		}
	}

	var target PageID
	err = s.redirectStmt.QueryRowContext(ctx, candidates[0].id).Scan(&target)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, nil
		}
		return 0, fmt.Errorf("graph: resolve redirect target for %q: %w", title, err)
	}
	return target, nil
}

// PageTitle returns the readable title for a page ID, or "" if the ID
// is unknown.
func (s *Store) PageTitle(ctx context.Context, id PageID) (string, error) {
	if id == 0 {
		return "", ErrNonPositiveID
	}
	if err := s.checkOpen(); err != nil {
		return "", err
	}

	var sanitized string
	err := s.titleStmt.QueryRowContext(ctx, id).Scan(&sanitized)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("graph: page title for %d: %w", id, err)
	}
	return readableTitle(sanitized), nil
}

// BatchPageTitles returns titles for multiple page IDs, positionally —
// an unknown ID yields "" in its slot. Input is chunked to respect the
// engine's bound-variable limit.
func (s *Store) BatchPageTitles(ctx context.Context, ids []PageID) ([]string, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	for _, id := range ids {
		if id == 0 {
			return nil, ErrNonPositiveID
		}
	}

	results := make([]string, len(ids))
	err := chunked(ids, s.maxVariables, func(chunk []PageID, offset int) error {
		index := make(map[PageID][]int, len(chunk))
		for i, id := range chunk {
			index[id] = append(index[id], offset+i)
		}

		placeholders, args := placeholdersFor(chunk)
		query := "SELECT id, title FROM pages WHERE id IN (" + placeholders + ")"
		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("graph: batch page titles: %w", err)
		}
		defer rows.Close()

		for rows.Next() {
			var id PageID
			var sanitized string
			if err := rows.Scan(&id, &sanitized); err != nil {
				return fmt.Errorf("graph: scan batch title row: %w", err)
			}
			for _, pos := range index[id] {
				results[pos] = readableTitle(sanitized)
			}
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}
