package solver

import (
	"context"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func sortedPaths(paths [][]string) [][]string {
	out := append([][]string(nil), paths...)
	sort.Slice(out, func(i, j int) bool {
		for k := 0; k < len(out[i]) && k < len(out[j]); k++ {
			if out[i][k] != out[j][k] {
				return out[i][k] < out[j][k]
			}
		}
		return len(out[i]) < len(out[j])
	})
	return out
}

// E1: trivial same-page query.
func TestShortestPathsTrivialCase(t *testing.T) {
	store := newFakeStore()
	store.addPage(1, "Philosophy")
	s := New(store, nil)

	resp, err := s.ShortestPaths(context.Background(), "Philosophy", "Philosophy")
	require.NoError(t, err)
	require.Equal(t, 0, resp.PathLength)
	require.Equal(t, [][]string{{"Philosophy"}}, resp.Paths)
}

// E2: start and target resolve to the same page via an alias.
func TestShortestPathsAliasCollapsesToTrivial(t *testing.T) {
	store := newFakeStore()
	store.addPage(100, "United States")
	store.addAlias("USA", 100)
	s := New(store, nil)

	resp, err := s.ShortestPaths(context.Background(), "USA", "United States")
	require.NoError(t, err)
	require.Equal(t, 0, resp.PathLength)
	require.Equal(t, [][]string{{"United States"}}, resp.Paths)
}

// E3: exactly two shortest paths of length 2 between A and B.
func TestShortestPathsDiamondFindsBothPaths(t *testing.T) {
	store := newFakeStore()
	store.addPage(1, "A")
	store.addPage(2, "X")
	store.addPage(3, "Y")
	store.addPage(4, "B")
	store.link(1, 2)
	store.link(1, 3)
	store.link(2, 4)
	store.link(3, 4)

	s := New(store, nil)
	resp, err := s.ShortestPaths(context.Background(), "A", "B")
	require.NoError(t, err)
	require.Equal(t, 2, resp.PathLength)
	require.ElementsMatch(t, [][]string{{"A", "X", "B"}, {"A", "Y", "B"}}, resp.Paths)
}

// E4: at least one path exists, every returned path is
// connectivity-verifiable against the graph.
func TestShortestPathsConnectivityVerifiable(t *testing.T) {
	store := newFakeStore()
	store.addPage(1, "Philosophy")
	store.addPage(2, "Mid")
	store.addPage(3, "Banana")
	store.link(1, 2)
	store.link(2, 3)

	s := New(store, nil)
	resp, err := s.ShortestPaths(context.Background(), "Philosophy", "Banana")
	require.NoError(t, err)
	require.GreaterOrEqual(t, resp.PathLength, 1)

	for _, path := range resp.Paths {
		for i := 0; i+1 < len(path); i++ {
			fromID := store.titleToID[toLower(path[i])]
			toID := store.titleToID[toLower(path[i+1])]
			require.Contains(t, store.outgoing[fromID], toID,
				"edge %s -> %s must exist in the graph", path[i], path[i+1])
		}
	}
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 32
		}
	}
	return string(b)
}

// E5: unknown start.
func TestShortestPathsStartNotFound(t *testing.T) {
	store := newFakeStore()
	store.addPage(1, "Philosophy")
	s := New(store, nil)

	_, err := s.ShortestPaths(context.Background(), "NonExistentPage_QZZ", "Philosophy")
	require.ErrorIs(t, err, ErrStartPageNotFound)
}

// E6: unknown target.
func TestShortestPathsTargetNotFound(t *testing.T) {
	store := newFakeStore()
	store.addPage(1, "Philosophy")
	s := New(store, nil)

	_, err := s.ShortestPaths(context.Background(), "Philosophy", "NonExistentPage_QZZ")
	require.ErrorIs(t, err, ErrTargetPageNotFound)
}

func TestShortestPathsNoPath(t *testing.T) {
	store := newFakeStore()
	store.addPage(1, "Island")
	store.addPage(2, "Mainland")
	s := New(store, nil)

	_, err := s.ShortestPaths(context.Background(), "Island", "Mainland")
	require.ErrorIs(t, err, ErrNoPath)
}

// E7: two back-to-back calls sharing a target reuse the backward
// snapshot — observable as the stored snapshot staying the same one
// (a recomputed backward state would replace it), and as no new
// incoming-link fetches for the second call.
func TestBackwardSnapshotReusedAcrossQueries(t *testing.T) {
	store := newFakeStore()
	store.addPage(1, "Philosophy")
	store.addPage(2, "Logic")
	store.addPage(3, "Mid")
	store.addPage(4, "Banana")
	store.link(1, 3)
	store.link(3, 4)
	store.link(2, 3)

	s := New(store, nil)

	_, err := s.ShortestPaths(context.Background(), "Philosophy", "Banana")
	require.NoError(t, err)
	callsAfterFirst := store.totalIncomingCalls()
	require.Greater(t, callsAfterFirst, 0)
	snapshotAfterFirst := s.snapshot
	require.NotNil(t, snapshotAfterFirst)

	_, err = s.ShortestPaths(context.Background(), "Logic", "Banana")
	require.NoError(t, err)
	callsAfterSecond := store.totalIncomingCalls()
	require.Same(t, snapshotAfterFirst, s.snapshot,
		"second query against the same target must reuse the stored backward snapshot")

	require.Equal(t, callsAfterFirst, callsAfterSecond,
		"second query against the same target must not re-fetch the backward frontier")
}

// Property 6: for a fixed (start, target), the set of returned paths
// is identical across both direction strategies.
func TestDirectionStrategiesAgree(t *testing.T) {
	buildStore := func() *fakeStore {
		store := newFakeStore()
		store.addPage(1, "A")
		store.addPage(2, "X")
		store.addPage(3, "Y")
		store.addPage(4, "Z")
		store.addPage(5, "B")
		store.link(1, 2)
		store.link(1, 3)
		store.link(2, 4)
		store.link(3, 4)
		store.link(4, 5)
		return store
	}

	frontierSolver := New(buildStore(), nil, WithDirectionStrategy(FrontierSize))
	edgeCountSolver := New(buildStore(), nil, WithDirectionStrategy(EdgeCountQuery))

	respA, err := frontierSolver.ShortestPaths(context.Background(), "A", "B")
	require.NoError(t, err)
	respB, err := edgeCountSolver.ShortestPaths(context.Background(), "A", "B")
	require.NoError(t, err)

	require.Equal(t, respA.PathLength, respB.PathLength)
	require.Equal(t, sortedPaths(respA.Paths), sortedPaths(respB.Paths))
}

// Property 9: idempotence — calling twice yields the same paths and length.
func TestShortestPathsIdempotent(t *testing.T) {
	store := newFakeStore()
	store.addPage(1, "A")
	store.addPage(2, "X")
	store.addPage(3, "B")
	store.link(1, 2)
	store.link(2, 3)
	s := New(store, nil)

	first, err := s.ShortestPaths(context.Background(), "A", "B")
	require.NoError(t, err)
	second, err := s.ShortestPaths(context.Background(), "A", "B")
	require.NoError(t, err)

	require.Equal(t, first.PathLength, second.PathLength)
	require.Equal(t, sortedPaths(first.Paths), sortedPaths(second.Paths))
}

// Property 4: returned paths are pairwise distinct.
func TestShortestPathsNoDuplicatePaths(t *testing.T) {
	store := newFakeStore()
	store.addPage(1, "A")
	store.addPage(2, "X")
	store.addPage(3, "Y")
	store.addPage(4, "B")
	store.link(1, 2)
	store.link(1, 3)
	store.link(2, 4)
	store.link(3, 4)
	s := New(store, nil)

	resp, err := s.ShortestPaths(context.Background(), "A", "B")
	require.NoError(t, err)

	seen := map[string]bool{}
	for _, p := range resp.Paths {
		key := ""
		for _, t := range p {
			key += t + ">"
		}
		require.False(t, seen[key], "duplicate path returned: %v", p)
		seen[key] = true
	}
}

func TestShortestPathsPathLengthMatchesEveryPath(t *testing.T) {
	store := newFakeStore()
	store.addPage(1, "A")
	store.addPage(2, "X")
	store.addPage(3, "Y")
	store.addPage(4, "B")
	store.link(1, 2)
	store.link(1, 3)
	store.link(2, 4)
	store.link(3, 4)
	s := New(store, nil)

	resp, err := s.ShortestPaths(context.Background(), "A", "B")
	require.NoError(t, err)
	for _, p := range resp.Paths {
		require.Equal(t, resp.PathLength, len(p)-1)
		require.Equal(t, "A", p[0])
		require.Equal(t, "B", p[len(p)-1])
	}
}
