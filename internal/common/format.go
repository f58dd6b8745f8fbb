// File: internal/common/format.go
package common

import "strings"

// FormatName capitalizes the first character of a name and lowercases the
// rest, e.g. "jAnE" -> "Jane".
func FormatName(val string) string {
	trimmed := strings.TrimSpace(val)
	if trimmed == "" {
		return trimmed
	}
	runes := []rune(trimmed)
	first := strings.ToUpper(string(runes[0]))
	rest := strings.ToLower(string(runes[1:]))
	return first + rest
}

// NormalizeEmail trims surrounding whitespace and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
