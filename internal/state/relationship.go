package state

import "sort"

// Neighbors returns the relationships incident to entityID (as source or
// target) that are valid at time t: ValidFrom <= t and (ValidTo unset or
// t < ValidTo). Self-loops are deduplicated. Result order is unspecified;
// callers needing determinism sort by relationship id.
//
// Adjacency lookup is O(1) amortized via the bySource/byTarget indexes.
func (s *State) Neighbors(entityID string, t int64) []*Relationship {
	var out []*Relationship
	seen := make(map[string]struct{})

	for _, ids := range [][]string{s.bySource[entityID], s.byTarget[entityID]} {
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			if r := s.rels[id]; r.ValidAt(t) {
				out = append(out, r)
			}
		}
	}
	return out
}

// Incident returns all relationships touching entityID regardless of
// validity. Used by time-slice queries that filter by interval
// intersection rather than a point in time.
func (s *State) Incident(entityID string) []*Relationship {
	var out []*Relationship
	seen := make(map[string]struct{})

	for _, ids := range [][]string{s.bySource[entityID], s.byTarget[entityID]} {
		for _, id := range ids {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, s.rels[id])
		}
	}
	return out
}

// Window returns all relationships whose validity interval intersects
// [start, end), ordered by (ValidFrom, ID).
//
// The byStart index is sorted by validity start, so the scan stops at the
// first relationship starting at or after end instead of visiting every
// relationship in the store.
func (s *State) Window(start, end int64) []*Relationship {
	// Upper bound: first index with interval start >= end.
	hi := sort.Search(len(s.byStart), func(i int) bool {
		return s.byStart[i].start >= end
	})

	var out []*Relationship
	for _, key := range s.byStart[:hi] {
		r := s.rels[key.relID]
		if r.Intersects(start, end) {
			out = append(out, r)
		}
	}
	return out
}
