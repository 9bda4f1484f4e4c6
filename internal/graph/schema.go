package graph

// Schema is the DDL for the three tables described in spec.md §6. It is
// shared between internal/ingest (which creates a fresh database) and
// tests (which build small fixture databases against the same schema).
const Schema = `
CREATE TABLE pages (
	id INTEGER PRIMARY KEY,
	namespace INTEGER NOT NULL,
	title TEXT NOT NULL,
	is_redirect INTEGER NOT NULL
);
CREATE INDEX idx_pages_title ON pages (title COLLATE NOCASE, namespace);

CREATE TABLE redirects (
	source_id INTEGER PRIMARY KEY,
	target_id INTEGER NOT NULL
);

CREATE TABLE links (
	id INTEGER PRIMARY KEY,
	outgoing_links TEXT NOT NULL,
	incoming_links TEXT NOT NULL,
	outgoing_links_count INTEGER NOT NULL,
	incoming_links_count INTEGER NOT NULL
);
`
