// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package suggest finds the known name closest to a mistyped one. The
// CLI uses it for unknown commands and flags, the task dispatcher for
// unknown task names.
package suggest

// Closest returns the candidate with the smallest edit distance to
// input, provided that distance is at most maxDistance. Ties go to the
// earliest candidate. Returns "" when nothing is close enough.
func Closest(input string, candidates []string, maxDistance int) string {
	best := ""
	bestDistance := maxDistance + 1
	for _, candidate := range candidates {
		if distance := Distance(input, candidate); distance < bestDistance {
			bestDistance = distance
			best = candidate
		}
	}
	return best
}

// Distance is the Levenshtein edit distance between a and b: the
// number of single-byte insertions, deletions, and substitutions that
// turn one into the other. Computed with a pair of rows of the
// distance matrix.
func Distance(a, b string) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	previous := make([]int, len(a)+1)
	for i := range previous {
		previous[i] = i
	}
	current := make([]int, len(a)+1)
	for j := 1; j <= len(b); j++ {
		current[0] = j
		for i := 1; i <= len(a); i++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			current[i] = min(previous[i]+1, current[i-1]+1, previous[i-1]+cost)
		}
		previous, current = current, previous
	}
	return previous[len(a)]
}
