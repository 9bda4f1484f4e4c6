package solver

import (
	"context"
	"strings"
	"sync"
)

// fakeStore is an in-memory Store used to unit test the BFS and cache
// logic without a real sqlite database (internal/graph already covers
// the storage-engine semantics directly).
type fakeStore struct {
	mu sync.Mutex

	titleToID map[string]PageID // lower-cased title -> id
	idToTitle map[PageID]string
	outgoing  map[PageID][]PageID
	incoming  map[PageID][]PageID

	outgoingCalls map[PageID]int
	incomingCalls map[PageID]int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		titleToID:     map[string]PageID{},
		idToTitle:     map[PageID]string{},
		outgoing:      map[PageID][]PageID{},
		incoming:      map[PageID][]PageID{},
		outgoingCalls: map[PageID]int{},
		incomingCalls: map[PageID]int{},
	}
}

// addPage registers a page with its canonical title.
func (f *fakeStore) addPage(id PageID, title string) {
	f.idToTitle[id] = title
	f.titleToID[strings.ToLower(title)] = id
}

// addAlias makes an additional title resolve to an existing page ID,
// modeling a redirect.
func (f *fakeStore) addAlias(title string, id PageID) {
	f.titleToID[strings.ToLower(title)] = id
}

// link adds a directed edge id -> to, updating both adjacency lists.
func (f *fakeStore) link(id, to PageID) {
	f.outgoing[id] = append(f.outgoing[id], to)
	f.incoming[to] = append(f.incoming[to], id)
}

func (f *fakeStore) ResolveTitle(_ context.Context, title string, _ int) (PageID, error) {
	return f.titleToID[strings.ToLower(title)], nil
}

func (f *fakeStore) PageTitle(_ context.Context, id PageID) (string, error) {
	return f.idToTitle[id], nil
}

func (f *fakeStore) BatchPageTitles(_ context.Context, ids []PageID) ([]string, error) {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = f.idToTitle[id]
	}
	return out, nil
}

func (f *fakeStore) Outgoing(_ context.Context, id PageID) ([]PageID, error) {
	f.mu.Lock()
	f.outgoingCalls[id]++
	f.mu.Unlock()
	return append([]PageID(nil), f.outgoing[id]...), nil
}

func (f *fakeStore) Incoming(_ context.Context, id PageID) ([]PageID, error) {
	f.mu.Lock()
	f.incomingCalls[id]++
	f.mu.Unlock()
	return append([]PageID(nil), f.incoming[id]...), nil
}

func (f *fakeStore) OutgoingCountSum(_ context.Context, ids []PageID) (uint64, error) {
	var sum uint64
	for _, id := range ids {
		sum += uint64(len(f.outgoing[id]))
	}
	return sum, nil
}

func (f *fakeStore) IncomingCountSum(_ context.Context, ids []PageID) (uint64, error) {
	var sum uint64
	for _, id := range ids {
		sum += uint64(len(f.incoming[id]))
	}
	return sum, nil
}

func (f *fakeStore) totalIncomingCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	total := 0
	for _, n := range f.incomingCalls {
		total += n
	}
	return total
}
