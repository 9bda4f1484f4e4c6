package solver

import (
	"context"

	"github.com/ldobbelsteen/wikipath/internal/graph"
)

// PageID is re-exported from the graph package so callers of this
// package never need to import internal/graph directly.
type PageID = graph.PageID

// ArticleNamespace re-exports graph.ArticleNamespace for callers that
// only import the solver package.
const ArticleNamespace = graph.ArticleNamespace

// Store is the subset of the Graph Store's operations the Solver
// depends on (spec.md §4.1). *graph.Store satisfies this directly; a
// fake satisfying it is enough to unit test the BFS without sqlite.
type Store interface {
	ResolveTitle(ctx context.Context, title string, namespace int) (PageID, error)
	PageTitle(ctx context.Context, id PageID) (string, error)
	BatchPageTitles(ctx context.Context, ids []PageID) ([]string, error)
	Outgoing(ctx context.Context, id PageID) ([]PageID, error)
	Incoming(ctx context.Context, id PageID) ([]PageID, error)
	OutgoingCountSum(ctx context.Context, ids []PageID) (uint64, error)
	IncomingCountSum(ctx context.Context, ids []PageID) (uint64, error)
}

// tier1 is the per-process memoization layer of spec.md §4.3: strictly
// additive caches over the immutable graph, shared across every query a
// Solver serves. DefaultTier1EntryCap bounds each map with the same
// oldest-in-first-out discipline as the teacher's cache, "without changing
// semantics" per spec.md §4.3.
const DefaultTier1EntryCap = 1_000_000

type tier1 struct {
	store Store

	titleToID      *boundedCache[string, PageID]
	idToTitle      *boundedCache[PageID, string]
	outgoing       *boundedCache[PageID, []PageID]
	incoming       *boundedCache[PageID, []PageID]
	outgoingCount  *boundedCache[PageID, uint64]
	incomingCount  *boundedCache[PageID, uint64]
}

func newTier1(store Store, entryCap int) *tier1 {
	return &tier1{
		store:         store,
		titleToID:     newBoundedCache[string, PageID](entryCap),
		idToTitle:     newBoundedCache[PageID, string](entryCap),
		outgoing:      newBoundedCache[PageID, []PageID](entryCap),
		incoming:      newBoundedCache[PageID, []PageID](entryCap),
		outgoingCount: newBoundedCache[PageID, uint64](entryCap),
		incomingCount: newBoundedCache[PageID, uint64](entryCap),
	}
}

func (t *tier1) resolveTitle(ctx context.Context, title string, namespace int) (PageID, error) {
	cacheKey := title
	if namespace != graph.ArticleNamespace {
		// Namespace-qualify the key so an all-namespace lookup never
		// shadows a namespace-0 one (or vice versa) for the same title.
		cacheKey = title + "\x00" + itoa(namespace)
	}
	if id, ok := t.titleToID.Get(cacheKey); ok {
		return id, nil
	}
	id, err := t.store.ResolveTitle(ctx, title, namespace)
	if err != nil {
		return 0, err
	}
	t.titleToID.Set(cacheKey, id)
	return id, nil
}

func (t *tier1) pageTitle(ctx context.Context, id PageID) (string, error) {
	if title, ok := t.idToTitle.Get(id); ok {
		return title, nil
	}
	title, err := t.store.PageTitle(ctx, id)
	if err != nil {
		return "", err
	}
	t.idToTitle.Set(id, title)
	return title, nil
}

// batchPageTitles resolves titles for many IDs, only going to the store
// for IDs that Tier-1 hasn't already seen.
func (t *tier1) batchPageTitles(ctx context.Context, ids []PageID) (map[PageID]string, error) {
	result := make(map[PageID]string, len(ids))
	var missing []PageID
	for _, id := range ids {
		if title, ok := t.idToTitle.Get(id); ok {
			result[id] = title
		} else {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		titles, err := t.store.BatchPageTitles(ctx, missing)
		if err != nil {
			return nil, err
		}
		for i, id := range missing {
			t.idToTitle.Set(id, titles[i])
			result[id] = titles[i]
		}
	}
	return result, nil
}

func (t *tier1) outgoingOf(ctx context.Context, id PageID) ([]PageID, error) {
	if links, ok := t.outgoing.Get(id); ok {
		return links, nil
	}
	links, err := t.store.Outgoing(ctx, id)
	if err != nil {
		return nil, err
	}
	t.outgoing.Set(id, links)
	// Opportunistic count caching, mirroring the original
	// _get_outgoing_links: a count is only ever populated as a side
	// effect of fetching the full adjacency list, never independently.
	t.outgoingCount.Set(id, uint64(len(links)))
	return links, nil
}

func (t *tier1) incomingOf(ctx context.Context, id PageID) ([]PageID, error) {
	if links, ok := t.incoming.Get(id); ok {
		return links, nil
	}
	links, err := t.store.Incoming(ctx, id)
	if err != nil {
		return nil, err
	}
	t.incoming.Set(id, links)
	t.incomingCount.Set(id, uint64(len(links)))
	return links, nil
}

// outgoingCountSum sums cached per-page counts for IDs Tier-1 already
// has, falling back to a single SUM() query for the rest. The
// resulting sum total is not split back up per page — see
// SPEC_FULL.md's "Supplemented features" #2, which resolves the Open
// Question in spec.md §9 in favor of never attributing a SUM() back to
// individual pages.
func (t *tier1) outgoingCountSum(ctx context.Context, ids []PageID) (uint64, error) {
	return sumWithFallback(ctx, ids, t.outgoingCount, t.store.OutgoingCountSum)
}

func (t *tier1) incomingCountSum(ctx context.Context, ids []PageID) (uint64, error) {
	return sumWithFallback(ctx, ids, t.incomingCount, t.store.IncomingCountSum)
}

func sumWithFallback(
	ctx context.Context,
	ids []PageID,
	cache *boundedCache[PageID, uint64],
	fetchSum func(context.Context, []PageID) (uint64, error),
) (uint64, error) {
	var total uint64
	var missing []PageID
	for _, id := range ids {
		if count, ok := cache.Get(id); ok {
			total += count
		} else {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		sum, err := fetchSum(ctx, missing)
		if err != nil {
			return 0, err
		}
		total += sum
	}
	return total, nil
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
