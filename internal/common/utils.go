package common

import "strings"

// Normalize turns free-text user input into a lookup key.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// StripThousands removes the group separators upstream pages put into large numbers.
func StripThousands(s string) string {
	return strings.NewReplacer(",", "", " ", "", "\u00a0", "", "\u202f", "").Replace(s)
}
