package recommend

import (
	"sort"
	"strings"
)

// TopGenres ranks genres by how often they appear across the supplied
// per-entry genre lists and returns the top n. Ranking is deterministic:
// frequency descending, then name ascending. Pure function, no I/O.
func TopGenres(genreLists [][]string, n int) []string {
	counts := make(map[string]int)
	for _, genres := range genreLists {
		seen := make(map[string]struct{}, len(genres))
		for _, genre := range genres {
			genre = strings.TrimSpace(genre)
			if genre == "" {
				continue
			}
			// Count each genre once per entry so one multi-genre title
			// does not dominate the ranking.
			if _, dup := seen[genre]; dup {
				continue
			}
			seen[genre] = struct{}{}
			counts[genre]++
		}
	}

	ranked := make([]string, 0, len(counts))
	for genre := range counts {
		ranked = append(ranked, genre)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if counts[ranked[i]] != counts[ranked[j]] {
			return counts[ranked[i]] > counts[ranked[j]]
		}
		return ranked[i] < ranked[j]
	})

	if n > 0 && len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}
