package solver

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// originSentinel marks a BFS origin (the start, for the forward side;
// the target, for the backward side) in a parent list. Real page IDs
// are positive (spec.md §3's invariants), so 0 is free to reuse here,
// the same trick the teacher's database.go uses for "no redirect".
const originSentinel PageID = 0

// DirectionStrategy selects how the bidirectional BFS picks which side
// to expand at each level (spec.md §4.2 step 1, §6's configuration).
type DirectionStrategy int

const (
	// FrontierSize expands whichever side's frontier is smaller — no
	// database work, just a map-length comparison. Default.
	FrontierSize DirectionStrategy = iota
	// EdgeCountQuery expands whichever side would read fewer edges,
	// determined by an exact but costly fetch-count query per level.
	EdgeCountQuery
)

// parentMap maps a discovered page ID to the list of its parents in
// this BFS direction (the node(s) it was reached from this level).
type parentMap map[PageID][]PageID

// side is one direction's BFS state: the current frontier and
// everything already expanded.
type side struct {
	unvisited parentMap
	visited   parentMap
}

func newSide(origin PageID) side {
	return side{
		unvisited: parentMap{origin: {originSentinel}},
		visited:   parentMap{},
	}
}

func copyParentMap(m parentMap) parentMap {
	out := make(parentMap, len(m))
	for k, v := range m {
		out[k] = append([]PageID(nil), v...)
	}
	return out
}

// promote moves every node in unvisited into visited, merging parent
// lists for any node that (in the snapshot-reuse case) already exists
// in both, then clears the frontier.
func (s *side) promote() []PageID {
	expanded := make([]PageID, 0, len(s.unvisited))
	for id, parents := range s.unvisited {
		expanded = append(expanded, id)
		if existing, ok := s.visited[id]; ok {
			s.visited[id] = mergeUnique(existing, parents)
		} else {
			s.visited[id] = parents
		}
	}
	s.unvisited = parentMap{}
	return expanded
}

func mergeUnique(existing, extra []PageID) []PageID {
	seen := make(map[PageID]struct{}, len(existing))
	for _, p := range existing {
		seen[p] = struct{}{}
	}
	for _, p := range extra {
		if _, dup := seen[p]; !dup {
			existing = append(existing, p)
			seen[p] = struct{}{}
		}
	}
	return existing
}

// fetchNeighbors concurrently fetches either the outgoing or incoming
// adjacency list for every node in ids, one fan-out batch awaited
// together per spec.md §5.
func fetchNeighbors(ctx context.Context, ids []PageID, fetch func(context.Context, PageID) ([]PageID, error)) ([][]PageID, error) {
	results := make([][]PageID, len(ids))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, id := range ids {
		i, id := i, id
		group.Go(func() error {
			neighbors, err := fetch(groupCtx, id)
			if err != nil {
				return err
			}
			results[i] = neighbors
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// expand runs one level of expansion on a side: promotes its frontier
// into visited, fetches neighbors for every promoted node, and builds
// the new frontier from neighbors not already visited.
func expand(ctx context.Context, s *side, fetch func(context.Context, PageID) ([]PageID, error)) error {
	expandedIDs := s.promote()

	neighborLists, err := fetchNeighbors(ctx, expandedIDs, fetch)
	if err != nil {
		return err
	}

	next := parentMap{}
	for i, id := range expandedIDs {
		for _, neighbor := range neighborLists[i] {
			if _, alreadyVisited := s.visited[neighbor]; alreadyVisited {
				continue
			}
			next[neighbor] = append(next[neighbor], id)
		}
	}
	s.unvisited = next
	return nil
}

// intersect returns every ID in newFrontier that also appears in the
// opposite side's visited set or current frontier — the meeting nodes
// of spec.md §4.2 step 4.
func intersect(newFrontier parentMap, opposite *side) []PageID {
	var meeting []PageID
	for id := range newFrontier {
		if _, inVisited := opposite.visited[id]; inVisited {
			meeting = append(meeting, id)
			continue
		}
		if _, inFrontier := opposite.unvisited[id]; inFrontier {
			meeting = append(meeting, id)
		}
	}
	return meeting
}

// reconstructChain expands a parent list into every path from the
// side's origin up to (but not including) the node the list belongs
// to, grounded on the original _get_paths_recursive. A sentinel entry
// terminates a branch with the empty path. This is what lets meeting
// nodes at the start or target be reconstructed without any special
// casing: the origin's own parent list is just [originSentinel].
func reconstructChain(ids []PageID, parents parentMap) [][]PageID {
	var out [][]PageID
	for _, id := range ids {
		if id == originSentinel {
			out = append(out, []PageID{})
			continue
		}
		ancestorParents, ok := parents[id]
		if !ok {
			// Internal invariant violation (spec.md §7): a parent
			// pointer referenced a node missing from the visited map.
			// Skip this branch; the caller drops the path if nothing
			// else survives.
			continue
		}
		for _, chain := range reconstructChain(ancestorParents, parents) {
			full := make([]PageID, len(chain)+1)
			copy(full, chain)
			full[len(chain)] = id
			out = append(out, full)
		}
	}
	return out
}

func reversed(ids []PageID) []PageID {
	out := make([]PageID, len(ids))
	for i, id := range ids {
		out[len(ids)-1-i] = id
	}
	return out
}

func pathKey(path []PageID) string {
	buf := make([]byte, 0, len(path)*5)
	for _, id := range path {
		buf = append(buf, byte(id), byte(id>>8), byte(id>>16), byte(id>>24), '|')
	}
	return string(buf)
}

// reconstructPaths builds every shortest path through meeting, given
// the combined (visited ∪ unvisited) parent maps of both sides at the
// moment the BFS terminated. Meeting nodes can sit at different
// backward depths (a reused backward snapshot holds several levels), so
// only the paths of minimum length are kept.
func reconstructPaths(meeting []PageID, forwardParents, backwardParents parentMap) [][]PageID {
	var final [][]PageID
	seen := make(map[string]struct{})

	for _, m := range meeting {
		fwdParentIDs, hasFwd := forwardParents[m]
		bwdParentIDs, hasBwd := backwardParents[m]
		if !hasFwd || !hasBwd {
			continue
		}

		forwardChains := reconstructChain(fwdParentIDs, forwardParents)
		backwardChains := reconstructChain(bwdParentIDs, backwardParents)

		for _, fwd := range forwardChains {
			for _, bwd := range backwardChains {
				full := make([]PageID, 0, len(fwd)+1+len(bwd))
				full = append(full, fwd...)
				full = append(full, m)
				full = append(full, reversed(bwd)...)

				key := pathKey(full)
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				final = append(final, full)
			}
		}
	}

	shortest := 0
	for _, p := range final {
		if shortest == 0 || len(p) < shortest {
			shortest = len(p)
		}
	}
	kept := final[:0]
	for _, p := range final {
		if len(p) == shortest {
			kept = append(kept, p)
		}
	}
	return kept
}

func mergeVisitedAndFrontier(s *side) parentMap {
	merged := make(parentMap, len(s.visited)+len(s.unvisited))
	for k, v := range s.visited {
		merged[k] = v
	}
	for k, v := range s.unvisited {
		merged[k] = v
	}
	return merged
}
