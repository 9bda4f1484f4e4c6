package graph

import "strings"

// chunked splits ids into groups no larger than maxSize and invokes fn
// once per group with the group's offset into the original slice. This
// is the chunking discipline imposed by the storage engine's
// bound-variable limit (spec.md §4.1).
func chunked(ids []PageID, maxSize int, fn func(chunk []PageID, offset int) error) error {
	if maxSize <= 0 {
		maxSize = defaultMaxVariables
	}
	for offset := 0; offset < len(ids); offset += maxSize {
		end := offset + maxSize
		if end > len(ids) {
			end = len(ids)
		}
		if err := fn(ids[offset:end], offset); err != nil {
			return err
		}
	}
	return nil
}

// placeholdersFor builds a "?,?,?" placeholder string and the
// corresponding driver argument slice for an IN (...) clause.
func placeholdersFor(ids []PageID) (string, []any) {
	var b strings.Builder
	args := make([]any, len(ids))
	for i, id := range ids {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('?')
		args[i] = id
	}
	return b.String(), args
}
