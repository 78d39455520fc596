package query

// ShortestPath returns the relationship ids of a minimal-length path from
// sourceID to targetID over edges valid at the view's as-of time, or nil if
// no path exists. Among equal-length paths the lexicographically smallest
// sequence of relationship ids wins, making the result deterministic.
//
// Unweighted breadth-first search, finalized level by level: the best path
// to every node at distance d is fixed before any node at distance d+1 is
// expanded, so comparing candidate paths per discovered node yields the
// global lexicographic minimum.
func ShortestPath(v *View, sourceID, targetID string) []string {
	if !v.Contains(sourceID) || !v.Contains(targetID) {
		return nil
	}
	if sourceID == targetID {
		return []string{}
	}

	best := map[string][]string{sourceID: {}}
	level := []string{sourceID}

	for len(level) > 0 {
		next := make(map[string][]string)

		for _, u := range level {
			base := best[u]
			for _, r := range v.Neighbors(u) {
				w, ok := traverse(r, u)
				if !ok || !v.Contains(w) {
					continue
				}
				if _, settled := best[w]; settled {
					continue
				}
				candidate := append(append(make([]string, 0, len(base)+1), base...), r.ID)
				if cur, seen := next[w]; !seen || pathLess(candidate, cur) {
					next[w] = candidate
				}
			}
		}

		if path, found := next[targetID]; found {
			return path
		}

		level = level[:0]
		for w, path := range next {
			best[w] = path
			level = append(level, w)
		}
	}

	return nil
}

// pathLess compares relationship-id sequences lexicographically.
func pathLess(a, b []string) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}
