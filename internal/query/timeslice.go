package query

import (
	"sort"

	"github.com/DennisN22042003/H3imd3ll/internal/state"
)

// TimeSlice returns the relationships incident to entityID whose validity
// interval intersects [start, end), ordered by (validity start, id).
// Returns a typed error when the entity id is unknown.
func TimeSlice(st *state.State, entityID string, start, end int64) ([]*state.Relationship, error) {
	if _, err := st.Current(entityID); err != nil {
		return nil, err
	}

	var out []*state.Relationship
	for _, r := range st.Incident(entityID) {
		if r.Intersects(start, end) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ValidFrom != out[j].ValidFrom {
			return out[i].ValidFrom < out[j].ValidFrom
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// Window returns every relationship in the store whose validity interval
// intersects [start, end), ordered by (validity start, id). Backed by the
// store's interval index rather than a full scan.
func Window(st *state.State, start, end int64) []*state.Relationship {
	return st.Window(start, end)
}
