// Package solver implements the bidirectional breadth-first path solver
// (spec.md §4.2) and its two-tier query-scoped cache (§4.3) on top of a
// Graph Store.
package solver

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Response is the Solver's public result (spec.md §6's SolverResponse).
type Response struct {
	Paths             [][]string
	PathLength        int
	ComputationTimeMs float64
}

// Solver finds every shortest path between two titles using the
// backing Graph Store, a Tier-1 memoization cache, and a Tier-2
// backward-BFS snapshot scoped to the active target.
type Solver struct {
	store    Store
	log      *slog.Logger
	strategy DirectionStrategy
	tier1    *tier1

	// tier2Mu serializes access to the snapshot: spec.md §5 says only
	// one query may read or write it at a time.
	tier2Mu        sync.Mutex
	activeTargetID PageID
	snapshot       *backwardSnapshot
}

type backwardSnapshot struct {
	visited   parentMap
	unvisited parentMap
}

// Option configures a new Solver.
type Option func(*Solver)

// WithDirectionStrategy overrides the default frontier-size heuristic.
func WithDirectionStrategy(strategy DirectionStrategy) Option {
	return func(s *Solver) { s.strategy = strategy }
}

// WithTier1EntryCap bounds each Tier-1 map to at most n entries (0 means
// unbounded). Purely a memory knob; does not change query semantics.
func WithTier1EntryCap(n int) Option {
	return func(s *Solver) { s.tier1 = newTier1(s.store, n) }
}

// New builds a Solver over store. Pass nil for log to use slog's
// default logger.
func New(store Store, log *slog.Logger, opts ...Option) *Solver {
	if log == nil {
		log = slog.Default()
	}
	s := &Solver{
		store:    store,
		log:      log,
		strategy: FrontierSize,
	}
	s.tier1 = newTier1(store, DefaultTier1EntryCap)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ShortestPaths finds every shortest path from startTitle to
// targetTitle (spec.md §4.2).
func (s *Solver) ShortestPaths(ctx context.Context, startTitle, targetTitle string) (*Response, error) {
	start := time.Now()

	startID, err := s.tier1.resolveTitle(ctx, startTitle, ArticleNamespace)
	if err != nil {
		return nil, storageErr(err)
	}
	if startID == 0 {
		return nil, startNotFound(startTitle)
	}

	targetID, err := s.tier1.resolveTitle(ctx, targetTitle, ArticleNamespace)
	if err != nil {
		return nil, storageErr(err)
	}
	if targetID == 0 {
		return nil, targetNotFound(targetTitle)
	}

	// Cache management runs before the trivial-case check: even a
	// same-page query updates which target's backward snapshot is
	// active, matching the original find_shortest_path ordering.
	s.tier2Mu.Lock()
	defer s.tier2Mu.Unlock()

	if s.activeTargetID != targetID {
		s.log.Info("target changed, dropping backward BFS snapshot",
			slog.Uint64("previous_target", uint64(s.activeTargetID)), slog.Uint64("new_target", uint64(targetID)))
		s.activeTargetID = targetID
		s.snapshot = nil
	}

	if startID == targetID {
		canonical, err := s.tier1.pageTitle(ctx, startID)
		if err != nil {
			return nil, storageErr(err)
		}
		return &Response{
			Paths:             [][]string{{canonical}},
			PathLength:        0,
			ComputationTimeMs: elapsedMs(start),
		}, nil
	}

	idPaths, levels, err := s.bidirectionalBFS(ctx, startID, targetID)
	if err != nil {
		return nil, storageErr(err)
	}
	if len(idPaths) == 0 {
		return nil, noPath(startTitle, targetTitle)
	}

	titlePaths, err := s.titlesForPaths(ctx, idPaths)
	if err != nil {
		return nil, storageErr(err)
	}
	if len(titlePaths) == 0 {
		return nil, noPath(startTitle, targetTitle)
	}

	elapsed := elapsedMs(start)
	s.log.Info("solved shortest path",
		slog.String("start", startTitle),
		slog.String("target", targetTitle),
		slog.Int("path_length", len(titlePaths[0])-1),
		slog.Int("paths_found", len(titlePaths)),
		slog.Int("bfs_levels", levels),
		slog.Float64("computation_time_ms", elapsed),
	)

	return &Response{
		Paths:             titlePaths,
		PathLength:        len(titlePaths[0]) - 1,
		ComputationTimeMs: elapsed,
	}, nil
}

// titlesForPaths converts ID paths to title paths in one batched,
// Tier-1-backed lookup over the union of every ID involved. Any path
// containing an ID the store can't rename back to a title is logged
// and skipped (spec.md §7).
func (s *Solver) titlesForPaths(ctx context.Context, idPaths [][]PageID) ([][]string, error) {
	unique := make(map[PageID]struct{})
	for _, path := range idPaths {
		for _, id := range path {
			unique[id] = struct{}{}
		}
	}
	ids := make([]PageID, 0, len(unique))
	for id := range unique {
		ids = append(ids, id)
	}

	titleByID, err := s.tier1.batchPageTitles(ctx, ids)
	if err != nil {
		return nil, err
	}

	titlePaths := make([][]string, 0, len(idPaths))
pathLoop:
	for _, idPath := range idPaths {
		titlePath := make([]string, len(idPath))
		for i, id := range idPath {
			title, ok := titleByID[id]
			if !ok || title == "" {
				s.log.Error("reconstructed path contained an id with no title, skipping path",
					slog.Uint64("page_id", uint64(id)))
				continue pathLoop
			}
			titlePath[i] = title
		}
		titlePaths = append(titlePaths, titlePath)
	}
	return titlePaths, nil
}

// bidirectionalBFS is the algorithm of spec.md §4.2: level-synchronous
// bidirectional BFS with full shortest-path-set enumeration, backed by
// the Tier-2 backward snapshot when the target hasn't changed. Caller
// must hold tier2Mu.
func (s *Solver) bidirectionalBFS(ctx context.Context, startID, targetID PageID) ([][]PageID, int, error) {
	forward := newSide(startID)

	var backward side
	usedSnapshot := false
	if s.snapshot != nil {
		s.log.Info("reusing cached backward bfs snapshot", slog.Uint64("target_id", uint64(targetID)))
		backward = side{
			visited:   copyParentMap(s.snapshot.visited),
			unvisited: copyParentMap(s.snapshot.unvisited),
		}
		usedSnapshot = true
	} else {
		backward = newSide(targetID)
	}

	var finalPaths [][]PageID
	level := 0

	for len(finalPaths) == 0 && len(forward.unvisited) > 0 && len(backward.unvisited) > 0 {
		expandForward, err := s.chooseDirection(ctx, &forward, &backward)
		if err != nil {
			return nil, level, err
		}

		var meeting []PageID
		if expandForward {
			if err := expand(ctx, &forward, s.tier1.outgoingOf); err != nil {
				return nil, level, err
			}
			meeting = intersect(forward.unvisited, &backward)
		} else {
			if err := expand(ctx, &backward, s.tier1.incomingOf); err != nil {
				return nil, level, err
			}
			meeting = intersect(backward.unvisited, &forward)
		}

		if len(meeting) > 0 {
			forwardParents := mergeVisitedAndFrontier(&forward)
			backwardParents := mergeVisitedAndFrontier(&backward)
			finalPaths = reconstructPaths(meeting, forwardParents, backwardParents)
		}

		level++
	}

	if !usedSnapshot && (len(backward.visited) > 0 || len(backward.unvisited) > 0) {
		s.snapshot = &backwardSnapshot{
			visited:   copyParentMap(backward.visited),
			unvisited: copyParentMap(backward.unvisited),
		}
		s.log.Info("cached backward bfs snapshot",
			slog.Uint64("target_id", uint64(targetID)),
			slog.Int("visited", len(backward.visited)),
			slog.Int("unvisited", len(backward.unvisited)),
		)
	}

	return finalPaths, level, nil
}

// chooseDirection implements spec.md §4.2 step 1.
func (s *Solver) chooseDirection(ctx context.Context, forward, backward *side) (bool, error) {
	if len(forward.unvisited) == 0 {
		return false, nil
	}
	if len(backward.unvisited) == 0 {
		return true, nil
	}

	if s.strategy == FrontierSize {
		return len(forward.unvisited) < len(backward.unvisited), nil
	}

	forwardIDs := keysOf(forward.unvisited)
	backwardIDs := keysOf(backward.unvisited)

	forwardCount, err := s.tier1.outgoingCountSum(ctx, forwardIDs)
	if err != nil {
		return false, err
	}
	backwardCount, err := s.tier1.incomingCountSum(ctx, backwardIDs)
	if err != nil {
		return false, err
	}
	return forwardCount < backwardCount, nil
}

func keysOf(m parentMap) []PageID {
	ids := make([]PageID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	return ids
}

func elapsedMs(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}
