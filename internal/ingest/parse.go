// Package ingest turns three pre-extracted flat files — a page list, a
// redirect list, and a link list, the output of the (out-of-scope)
// offline dump-extraction pipeline — into the sqlite graph database
// described by internal/graph's schema.
package ingest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/ldobbelsteen/wikipath/internal/graph"
)

// PageRecord is one row of pages.tsv: id, namespace, title, is_redirect.
type PageRecord struct {
	ID         graph.PageID
	Namespace  int
	Title      string
	IsRedirect bool
}

// RedirectRecord is one row of redirects.tsv: source_id, target_id.
type RedirectRecord struct {
	Source graph.PageID
	Target graph.PageID
}

// LinkRecord is one row of links.tsv: a single source -> target edge.
type LinkRecord struct {
	Source graph.PageID
	Target graph.PageID
}

// parsePages streams PageRecord values from a tab-separated file with
// columns id, namespace, title, is_redirect (0 or 1).
func parsePages(path string) (<-chan PageRecord, <-chan error, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("ingest: open pages file: %w", err)
	}

	out := make(chan PageRecord)
	errc := make(chan error, 1)
	go func() {
		defer file.Close()
		defer close(out)
		defer close(errc)

		scanner := bufio.NewScanner(file)
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		line := 0
		for scanner.Scan() {
			line++
			fields := strings.Split(scanner.Text(), "\t")
			if len(fields) != 4 {
				errc <- fmt.Errorf("ingest: pages.tsv line %d: expected 4 fields, got %d", line, len(fields))
				return
			}
			id, err := strconv.ParseUint(fields[0], 10, 32)
			if err != nil {
				errc <- fmt.Errorf("ingest: pages.tsv line %d: bad id: %w", line, err)
				return
			}
			namespace, err := strconv.Atoi(fields[1])
			if err != nil {
				errc <- fmt.Errorf("ingest: pages.tsv line %d: bad namespace: %w", line, err)
				return
			}
			isRedirect := fields[3] == "1"
			out <- PageRecord{ID: graph.PageID(id), Namespace: namespace, Title: fields[2], IsRedirect: isRedirect}
		}
		if err := scanner.Err(); err != nil && err != io.EOF {
			errc <- fmt.Errorf("ingest: reading pages.tsv: %w", err)
		}
	}()
	return out, errc, nil
}

// parseRedirects streams RedirectRecord values from a tab-separated
// file with columns source_id, target_id.
func parseRedirects(path string) (<-chan RedirectRecord, <-chan error, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("ingest: open redirects file: %w", err)
	}

	out := make(chan RedirectRecord)
	errc := make(chan error, 1)
	go func() {
		defer file.Close()
		defer close(out)
		defer close(errc)

		scanner := bufio.NewScanner(file)
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		line := 0
		for scanner.Scan() {
			line++
			fields := strings.Split(scanner.Text(), "\t")
			if len(fields) != 2 {
				errc <- fmt.Errorf("ingest: redirects.tsv line %d: expected 2 fields, got %d", line, len(fields))
				return
			}
			source, err := strconv.ParseUint(fields[0], 10, 32)
			if err != nil {
				errc <- fmt.Errorf("ingest: redirects.tsv line %d: bad source: %w", line, err)
				return
			}
			target, err := strconv.ParseUint(fields[1], 10, 32)
			if err != nil {
				errc <- fmt.Errorf("ingest: redirects.tsv line %d: bad target: %w", line, err)
				return
			}
			out <- RedirectRecord{Source: graph.PageID(source), Target: graph.PageID(target)}
		}
		if err := scanner.Err(); err != nil && err != io.EOF {
			errc <- fmt.Errorf("ingest: reading redirects.tsv: %w", err)
		}
	}()
	return out, errc, nil
}

// parseLinks streams LinkRecord values from a tab-separated file with
// columns source_id, target_id — one row per edge, already resolved
// past redirects by the upstream extraction pipeline.
func parseLinks(path string) (<-chan LinkRecord, <-chan error, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("ingest: open links file: %w", err)
	}

	out := make(chan LinkRecord)
	errc := make(chan error, 1)
	go func() {
		defer file.Close()
		defer close(out)
		defer close(errc)

		scanner := bufio.NewScanner(file)
		scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		line := 0
		for scanner.Scan() {
			line++
			fields := strings.Split(scanner.Text(), "\t")
			if len(fields) != 2 {
				errc <- fmt.Errorf("ingest: links.tsv line %d: expected 2 fields, got %d", line, len(fields))
				return
			}
			source, err := strconv.ParseUint(fields[0], 10, 32)
			if err != nil {
				errc <- fmt.Errorf("ingest: links.tsv line %d: bad source: %w", line, err)
				return
			}
			target, err := strconv.ParseUint(fields[1], 10, 32)
			if err != nil {
				errc <- fmt.Errorf("ingest: links.tsv line %d: bad target: %w", line, err)
				return
			}
			out <- LinkRecord{Source: graph.PageID(source), Target: graph.PageID(target)}
		}
		if err := scanner.Err(); err != nil && err != io.EOF {
			errc <- fmt.Errorf("ingest: reading links.tsv: %w", err)
		}
	}()
	return out, errc, nil
}
