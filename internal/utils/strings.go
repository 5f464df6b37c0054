package utils

import "strings"

// SplitList splits a comma-separated setting into trimmed, non-empty,
// de-duplicated values in first-seen order. Returns nil when nothing is left.
func SplitList(s string) []string {
	var out []string
	seen := make(map[string]struct{})
	for _, v := range strings.Split(s, ",") {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
