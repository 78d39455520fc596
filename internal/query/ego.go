package query

import (
	"sort"

	"github.com/DennisN22042003/H3imd3ll/internal/state"
)

// Subgraph is an induced subgraph of a view: a node set plus every edge of
// the view whose endpoints are both in the set.
type Subgraph struct {
	// Center is the seed entity.
	Center string
	// Nodes are the reachable entities, sorted by id.
	Nodes []Node
	// Edges are the induced relationships, sorted by id.
	Edges []*state.Relationship
}

// EgoNetwork returns the induced subgraph of all entities reachable from
// entityID within depth hops through edges valid at the view's as-of time.
// Depth 0 yields just the seed. Returns a typed error when the seed is not
// part of the view.
func EgoNetwork(v *View, entityID string, depth int) (*Subgraph, error) {
	if _, err := v.Node(entityID); err != nil {
		return nil, err
	}

	reached := map[string]struct{}{entityID: {}}
	frontier := []string{entityID}

	for d := 0; d < depth && len(frontier) > 0; d++ {
		var next []string
		for _, u := range frontier {
			for _, r := range v.Neighbors(u) {
				w, ok := traverse(r, u)
				if !ok || !v.Contains(w) {
					continue
				}
				if _, seen := reached[w]; seen {
					continue
				}
				reached[w] = struct{}{}
				next = append(next, w)
			}
		}
		frontier = next
	}

	sub := &Subgraph{Center: entityID}

	ids := make([]string, 0, len(reached))
	for id := range reached {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		n, err := v.Node(id)
		if err != nil {
			continue
		}
		sub.Nodes = append(sub.Nodes, n)
	}

	for _, r := range v.Edges() {
		_, srcIn := reached[r.SourceID]
		_, tgtIn := reached[r.TargetID]
		if srcIn && tgtIn {
			sub.Edges = append(sub.Edges, r)
		}
	}

	return sub, nil
}
