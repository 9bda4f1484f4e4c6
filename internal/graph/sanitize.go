package graph

import "strings"

// sanitizeTitle converts a human-entered title into its on-disk
// canonical form (spec.md §3): spaces become underscores and single
// quotes are escaped with a leading backslash.
func sanitizeTitle(title string) string {
	var b strings.Builder
	b.Grow(len(title) + 4)
	for _, r := range title {
		switch r {
		case ' ':
			b.WriteByte('_')
		case '\'':
			b.WriteByte('\\')
			b.WriteByte('\'')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// readableTitle is the inverse of sanitizeTitle: underscores become
// spaces and escaped quotes are unescaped.
func readableTitle(sanitized string) string {
	unescaped := strings.ReplaceAll(sanitized, `\'`, `'`)
	return strings.ReplaceAll(unescaped, "_", " ")
}
