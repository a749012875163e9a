package utils

import "strings"

// NormalizeTags lowercases and trims interest tags, dropping empties and
// duplicates while preserving first-seen order.
func NormalizeTags(tags []string) []string {
	seen := map[string]struct{}{}
	var normalized []string
	for _, tag := range tags {
		t := strings.ToLower(strings.TrimSpace(tag))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		normalized = append(normalized, t)
	}
	return normalized
}

// IntersectTags returns the tags present in both normalized sets, in the
// order they appear in a.
func IntersectTags(a, b []string) []string {
	inB := map[string]struct{}{}
	for _, tag := range b {
		inB[tag] = struct{}{}
	}
	var shared []string
	for _, tag := range a {
		if _, ok := inB[tag]; ok {
			shared = append(shared, tag)
		}
	}
	return shared
}
