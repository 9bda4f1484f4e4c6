package ingest

import (
	"strconv"
	"strings"

	"github.com/ldobbelsteen/wikipath/internal/graph"
)

// encodeLinks joins page IDs into the pipe-delimited ASCII-integer
// format internal/graph decodes (spec.md §6), deduplicating along the
// way — the ASCII analogue of the teacher's pagesToBytes, which
// deduplicates a slice of page IDs before concatenating their 4-byte
// representations.
func encodeLinks(ids []graph.PageID) string {
	if len(ids) == 0 {
		return ""
	}
	seen := make(map[graph.PageID]struct{}, len(ids))
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		parts = append(parts, strconv.FormatUint(uint64(id), 10))
	}
	return strings.Join(parts, "|")
}
