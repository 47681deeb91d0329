package common

import "strings"

// HasAny returns true if s contains any of the substrings.
func HasAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// ValidPathSegment reports whether name is safe to use as a single
// storage-path segment. Source names end up in archive object paths and
// local filenames, so separators and traversal characters are rejected.
func ValidPathSegment(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, "/\\:*?\"<>|\x00")
}
