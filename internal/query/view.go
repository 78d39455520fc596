// Package query implements the read-only operations over the materialized
// graph: search, shortest path, ego networks, time slices, timelines and
// case building. Every operation is a pure function of (store contents,
// as-of time, parameters); the package keeps no state of its own.
package query

import (
	"sort"

	"github.com/DennisN22042003/H3imd3ll/internal/state"
)

// View is the graph as of a single point in time: the node set is every
// entity that has a version at or before the as-of time, and the edge set
// is every relationship whose validity interval covers it. Two views built
// from the same store state and the same as-of time are structurally
// identical.
type View struct {
	st   *state.State
	asOf int64
}

// NewView builds a view of st as of time t.
func NewView(st *state.State, t int64) *View {
	return &View{st: st, asOf: t}
}

// AsOf returns the view's as-of time.
func (v *View) AsOf() int64 { return v.asOf }

// Node is an entity projected to the view's as-of time.
type Node struct {
	ID    string
	Kind  string
	Name  string
	Attrs map[string]string
}

// Contains reports whether the entity exists in the view (created and
// versioned at or before the as-of time).
func (v *View) Contains(entityID string) bool {
	_, err := v.st.AsOf(entityID, v.asOf)
	return err == nil
}

// Node projects one entity to the as-of time. Returns a typed
// NO_VERSION_AT_TIME or UNKNOWN_ENTITY error when the entity is not part
// of the view.
func (v *View) Node(entityID string) (Node, error) {
	ver, err := v.st.AsOf(entityID, v.asOf)
	if err != nil {
		return Node{}, err
	}
	e, _ := v.st.Entity(entityID)
	return Node{ID: e.ID, Kind: e.Kind, Name: e.Name, Attrs: ver.Attrs}, nil
}

// Nodes returns every entity in the view, sorted by id.
func (v *View) Nodes() []Node {
	var out []Node
	for _, id := range v.st.EntityIDs() {
		n, err := v.Node(id)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

// Edges returns every relationship valid at the as-of time, sorted by id.
func (v *View) Edges() []*state.Relationship {
	var out []*state.Relationship
	for _, id := range v.st.RelationshipIDs() {
		r, _ := v.st.Relationship(id)
		if r.ValidAt(v.asOf) {
			out = append(out, r)
		}
	}
	return out
}

// Neighbors returns the relationships incident to entityID and valid at the
// as-of time, sorted by relationship id for deterministic traversal.
func (v *View) Neighbors(entityID string) []*state.Relationship {
	rels := v.st.Neighbors(entityID, v.asOf)
	sort.Slice(rels, func(i, j int) bool { return rels[i].ID < rels[j].ID })
	return rels
}

// traverse returns the entity reached by crossing r from entity `from`,
// honoring directedness: a directed edge is crossed source to target only,
// an undirected edge either way. ok is false when the edge cannot be
// crossed from this side.
func traverse(r *state.Relationship, from string) (to string, ok bool) {
	switch {
	case r.SourceID == from:
		return r.TargetID, true
	case r.TargetID == from && !r.Directed:
		return r.SourceID, true
	default:
		return "", false
	}
}
