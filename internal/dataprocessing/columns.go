package dataprocessing

import (
	"strings"
)

// normalizeHeader upper-cases a column name and replaces spaces with
// underscores, matching the publication's conventions regardless of which
// month's file is being read.
func normalizeHeader(header string) string {
	return strings.ReplaceAll(strings.ToUpper(strings.TrimSpace(header)), " ", "_")
}

// columnIndex maps normalized header names to their position in the table.
type columnIndex map[string]int

// buildColumnIndex indexes a header row. The first occurrence of a
// duplicated header wins.
func buildColumnIndex(headers []string) columnIndex {
	idx := make(columnIndex, len(headers))
	for i, h := range headers {
		key := normalizeHeader(h)
		if _, exists := idx[key]; !exists {
			idx[key] = i
		}
	}
	return idx
}

// find returns the position of the first exact candidate match.
func (c columnIndex) find(candidates ...string) (int, bool) {
	for _, cand := range candidates {
		if i, ok := c[normalizeHeader(cand)]; ok {
			return i, true
		}
	}
	return 0, false
}

// findContaining returns the position of the first column whose name
// contains every given fragment. Column order in the source file decides
// ties, so the result is deterministic for a given input.
func (c columnIndex) findContaining(fragments ...string) (int, bool) {
	best := -1
	for name, i := range c {
		matches := true
		for _, frag := range fragments {
			if !strings.Contains(name, normalizeHeader(frag)) {
				matches = false
				break
			}
		}
		if matches && (best == -1 || i < best) {
			best = i
		}
	}
	if best == -1 {
		return 0, false
	}
	return best, true
}

// cell returns the trimmed cell at position i, or "" when the row is short.
func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// stripBOM removes a leading UTF-8 byte order mark. NHS Digital CSVs are
// published with one.
func stripBOM(s string) string {
	return strings.TrimPrefix(s, "\uFEFF")
}
