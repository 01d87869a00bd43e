package core

import "strings"

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// TitleCase cleans `s` and capitalizes the first letter of each word.
// Applied to name fields on every save; idempotent.
func TitleCase(s string) string {
	return strings.Title(strings.ToLower(CleanString(s)))
}
