package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DennisN22042003/H3imd3ll/internal/state"
)

func egoFixture(t *testing.T) *View {
	t.Helper()
	// a - b - c - d chain plus a direct a - e edge.
	st := buildState(t,
		person("a", "A", 0),
		person("b", "B", 0),
		person("c", "C", 0),
		person("d", "D", 0),
		person("e", "E", 0),
		edge("r1", "a", "b", "knows", false, 0),
		edge("r2", "b", "c", "knows", false, 0),
		edge("r3", "c", "d", "knows", false, 0),
		edge("r4", "a", "e", "knows", false, 0),
	)
	return NewView(st, 100)
}

func nodeIDs(sub *Subgraph) []string {
	ids := make([]string, 0, len(sub.Nodes))
	for _, n := range sub.Nodes {
		ids = append(ids, n.ID)
	}
	return ids
}

func TestEgoNetwork_DepthZero(t *testing.T) {
	sub, err := EgoNetwork(egoFixture(t), "a", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, nodeIDs(sub))
	assert.Empty(t, sub.Edges)
}

func TestEgoNetwork_DepthOne(t *testing.T) {
	sub, err := EgoNetwork(egoFixture(t), "a", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "e"}, nodeIDs(sub))

	// Induced edges: both endpoints inside the node set.
	var edgeIDs []string
	for _, r := range sub.Edges {
		edgeIDs = append(edgeIDs, r.ID)
	}
	assert.Equal(t, []string{"r1", "r4"}, edgeIDs)
}

func TestEgoNetwork_DepthTwo(t *testing.T) {
	sub, err := EgoNetwork(egoFixture(t), "a", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "e"}, nodeIDs(sub))
}

func TestEgoNetwork_UnknownSeed(t *testing.T) {
	_, err := EgoNetwork(egoFixture(t), "zz", 1)
	require.Error(t, err)
	assert.Equal(t, state.ErrCodeUnknownEntity, state.CodeOf(err))
}

func TestEgoNetwork_DirectedEdgesLimitReach(t *testing.T) {
	st := buildState(t,
		person("a", "A", 0),
		person("b", "B", 0),
		edge("r1", "b", "a", "works_at", true, 0),
	)
	v := NewView(st, 100)

	// The only edge points b -> a; expanding from a cannot cross it.
	sub, err := EgoNetwork(v, "a", 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, nodeIDs(sub))
	assert.Empty(t, sub.Edges)
}
