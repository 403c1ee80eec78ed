// Package utils provides shared utilities for text previews and logging.
package utils

import "strings"

// Truncate returns s cut to maxLen characters (runes), with "..." appended if truncated.
// Line breaks are flattened to spaces so the result fits on one log line.
// If maxLen is 0 or negative, returns s unchanged.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	s = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ").Replace(s)
	n := 0
	for i := range s {
		if n == maxLen {
			return s[:i] + "..."
		}
		n++
	}
	return s
}
