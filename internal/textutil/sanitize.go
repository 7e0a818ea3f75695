package textutil

import "strings"

// SanitizeToken converts a string to a lowercase key-safe token.
// Letters are lowercased, digits and hyphens/underscores/dots are kept,
// everything else becomes an underscore. Returns "unknown" for empty input.
func SanitizeToken(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	var b strings.Builder
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_' || r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	out := strings.Trim(b.String(), "_-.")
	if out == "" {
		return "unknown"
	}
	return out
}

// JoinTokens sanitizes each part and joins the results with "|".
func JoinTokens(parts ...string) string {
	tokens := make([]string, len(parts))
	for i, part := range parts {
		tokens[i] = SanitizeToken(part)
	}
	return strings.Join(tokens, "|")
}

// Truncate shortens s to at most limit runes. A limit <= 0 disables
// truncation.
func Truncate(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	count := 0
	for idx := range s {
		if count == limit {
			return s[:idx]
		}
		count++
	}
	return s
}

// Tail keeps the last limit runes of s.
func Tail(s string, limit int) string {
	if limit <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[len(runes)-limit:])
}

// Ternary returns a if cond is true, otherwise b.
func Ternary[T any](cond bool, a, b T) T {
	if cond {
		return a
	}
	return b
}
