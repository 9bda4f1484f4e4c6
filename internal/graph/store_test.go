package graph

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestStore builds a minimal graph used across the table-driven tests:
//
//	1 Philosophy  -> 2 Logic, 3 Banana
//	2 Logic       -> 3 Banana
//	3 Banana      (no outgoing)
//	4 USA         redirects to 5
//	5 United_States -> 3 Banana
func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixture.sqlite3")

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(Schema)
	require.NoError(t, err)

	pages := []struct {
		id         PageID
		namespace  int
		title      string
		isRedirect bool
	}{
		{1, 0, "Philosophy", false},
		{2, 0, "Logic", false},
		{3, 0, "Banana", false},
		{4, 0, "USA", true},
		{5, 0, "United_States", false},
		{6, 1, "Talk:Banana", false}, // non-article namespace, should be ignored by default lookups
	}
	for _, p := range pages {
		_, err := db.Exec("INSERT INTO pages (id, namespace, title, is_redirect) VALUES (?, ?, ?, ?)",
			p.id, p.namespace, p.title, p.isRedirect)
		require.NoError(t, err)
	}
	_, err = db.Exec("INSERT INTO redirects (source_id, target_id) VALUES (?, ?)", 4, 5)
	require.NoError(t, err)

	links := []struct {
		id                                     PageID
		outgoing, incoming                     string
		outgoingCount, incomingCount           int
	}{
		{1, "2|3", "", 2, 0},
		{2, "3", "1", 1, 1},
		{3, "", "1|2|5", 0, 3},
		{5, "3", "", 1, 0},
	}
	for _, l := range links {
		_, err := db.Exec(
			"INSERT INTO links (id, outgoing_links, incoming_links, outgoing_links_count, incoming_links_count) VALUES (?, ?, ?, ?, ?)",
			l.id, l.outgoing, l.incoming, l.outgoingCount, l.incomingCount)
		require.NoError(t, err)
	}
	require.NoError(t, db.Close())

	store, err := Open(context.Background(), path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestResolveTitleExactMatch(t *testing.T) {
	store := newTestStore(t)
	id, err := store.ResolveTitle(context.Background(), "Philosophy", ArticleNamespace)
	require.NoError(t, err)
	require.EqualValues(t, 1, id)
}

func TestResolveTitleCaseInsensitive(t *testing.T) {
	store := newTestStore(t)
	id, err := store.ResolveTitle(context.Background(), "pHILOSOPHY", ArticleNamespace)
	require.NoError(t, err)
	require.EqualValues(t, 1, id)
}

func TestResolveTitleSpacesBecomeUnderscores(t *testing.T) {
	store := newTestStore(t)
	id, err := store.ResolveTitle(context.Background(), "United States", ArticleNamespace)
	require.NoError(t, err)
	require.EqualValues(t, 5, id)
}

func TestResolveTitleFollowsRedirect(t *testing.T) {
	store := newTestStore(t)
	id, err := store.ResolveTitle(context.Background(), "USA", ArticleNamespace)
	require.NoError(t, err)
	require.EqualValues(t, 5, id)
}

func TestResolveTitleUnknown(t *testing.T) {
	store := newTestStore(t)
	id, err := store.ResolveTitle(context.Background(), "NonExistentPage_QZZ", ArticleNamespace)
	require.NoError(t, err)
	require.EqualValues(t, 0, id)
}

func TestResolveTitleNamespaceFilter(t *testing.T) {
	store := newTestStore(t)
	id, err := store.ResolveTitle(context.Background(), "Talk:Banana", ArticleNamespace)
	require.NoError(t, err)
	require.EqualValues(t, 0, id, "namespace 0 lookup must not match a namespace-1 page")

	id, err = store.ResolveTitle(context.Background(), "Talk:Banana", AllNamespaces)
	require.NoError(t, err)
	require.EqualValues(t, 6, id)
}

func TestResolveTitleEmptyIsPreconditionViolation(t *testing.T) {
	store := newTestStore(t)
	_, err := store.ResolveTitle(context.Background(), "", ArticleNamespace)
	require.ErrorIs(t, err, ErrEmptyTitle)
}

func TestPageTitleRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, title := range []string{"Philosophy", "United States"} {
		id, err := store.ResolveTitle(ctx, title, ArticleNamespace)
		require.NoError(t, err)
		require.NotZero(t, id)

		readable, err := store.PageTitle(ctx, id)
		require.NoError(t, err)
		require.Equal(t, title, readable)
	}
}

func TestPageTitleUnknownID(t *testing.T) {
	store := newTestStore(t)
	title, err := store.PageTitle(context.Background(), 999)
	require.NoError(t, err)
	require.Empty(t, title)
}

func TestPageTitleNonPositiveID(t *testing.T) {
	store := newTestStore(t)
	_, err := store.PageTitle(context.Background(), 0)
	require.ErrorIs(t, err, ErrNonPositiveID)
}

func TestOutgoingAndIncoming(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	out, err := store.Outgoing(ctx, 1)
	require.NoError(t, err)
	require.ElementsMatch(t, []PageID{2, 3}, out)

	in, err := store.Incoming(ctx, 3)
	require.NoError(t, err)
	require.ElementsMatch(t, []PageID{1, 2, 5}, in)

	out, err = store.Outgoing(ctx, 3)
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestOutgoingUnknownPage(t *testing.T) {
	store := newTestStore(t)
	out, err := store.Outgoing(context.Background(), 42)
	require.NoError(t, err)
	require.Empty(t, out)
}

func TestCountSums(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	sum, err := store.OutgoingCountSum(ctx, []PageID{1, 2, 3})
	require.NoError(t, err)
	require.EqualValues(t, 3, sum) // 2 + 1 + 0

	sum, err = store.IncomingCountSum(ctx, []PageID{1, 2, 3})
	require.NoError(t, err)
	require.EqualValues(t, 4, sum) // 0 + 1 + 3
}

func TestBatchPageTitlesPreservesOrderAndMissing(t *testing.T) {
	store := newTestStore(t)
	titles, err := store.BatchPageTitles(context.Background(), []PageID{3, 999, 1})
	require.NoError(t, err)
	require.Equal(t, []string{"Banana", "", "Philosophy"}, titles)
}

// TestChunkingMatchesUnchunkedResult verifies property 13 from spec.md
// §8: invoking a multi-key operation with a list longer than the
// engine's variable limit returns the same result as chunking it
// manually.
func TestChunkingMatchesUnchunkedResult(t *testing.T) {
	store := newTestStore(t)
	store.maxVariables = 1 // force one ID per chunk
	ctx := context.Background()

	titles, err := store.BatchPageTitles(ctx, []PageID{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, []string{"Philosophy", "Logic", "Banana"}, titles)

	sum, err := store.OutgoingCountSum(ctx, []PageID{1, 2, 3})
	require.NoError(t, err)
	require.EqualValues(t, 3, sum)
}

func TestStats(t *testing.T) {
	store := newTestStore(t)
	pageCount, edges, err := store.Stats(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 6, pageCount)
	require.EqualValues(t, 4, edges) // sum of outgoing_links_count column: 2+1+0+1
}

func TestPageExists(t *testing.T) {
	store := newTestStore(t)
	exists, err := store.PageExists(context.Background(), "Banana")
	require.NoError(t, err)
	require.True(t, exists)

	exists, err = store.PageExists(context.Background(), "NonExistentPage_QZZ")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestOpenMissingFileDoesNotError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "does-not-exist.sqlite3")
	store, err := Open(context.Background(), path, nil)
	require.NoError(t, err)

	_, statErr := store.ResolveTitle(context.Background(), "Philosophy", ArticleNamespace)
	require.ErrorIs(t, statErr, ErrNotOpen)
}

func TestSanitizeRoundTrip(t *testing.T) {
	cases := []string{"Philosophy", "United States", "O'Brien's Law", "Already_Underscored"}
	for _, title := range cases {
		title := title
		t.Run(title, func(t *testing.T) {
			sanitized := sanitizeTitle(title)
			back := readableTitle(sanitized)
			expected := title
			if title == "Already_Underscored" {
				expected = "Already Underscored"
			}
			require.Equal(t, expected, back)
		})
	}
}

func TestSanitizeExamples(t *testing.T) {
	require.Equal(t, "United_States", sanitizeTitle("United States"))
	require.Equal(t, `O\'Brien`, sanitizeTitle("O'Brien"))
}

func Example_sanitizeTitle() {
	fmt.Println(sanitizeTitle("hello world"))
	// Output: hello_world
}
