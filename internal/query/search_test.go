package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DennisN22042003/H3imd3ll/internal/fact"
)

func searchFixture(t *testing.T) *View {
	t.Helper()
	st := buildState(t,
		person("p1", "Alice Smith", 0),
		person("p2", "Alise Smith", 0),
		person("p3", "Bob Jones", 0),
		org("o1", "Alice Smith", 0),
	)
	return NewView(st, 100)
}

func TestSearch_ExactMatchesFirst(t *testing.T) {
	v := searchFixture(t)

	matches := Search(v, SearchQuery{Value: "Alice Smith", Threshold: 0.5})
	require.NotEmpty(t, matches)

	// Both exact hits precede every fuzzy hit, ordered by entity id.
	require.GreaterOrEqual(t, len(matches), 3)
	assert.True(t, matches[0].Exact)
	assert.True(t, matches[1].Exact)
	assert.Equal(t, "o1", matches[0].Node.ID)
	assert.Equal(t, "p1", matches[1].Node.ID)
	assert.False(t, matches[2].Exact)
	assert.Equal(t, "p2", matches[2].Node.ID)
	assert.Less(t, matches[2].Score, 1.0)
}

func TestSearch_KindFilter(t *testing.T) {
	v := searchFixture(t)

	matches := Search(v, SearchQuery{Value: "Alice Smith", Kind: "organization"})
	require.Len(t, matches, 1)
	assert.Equal(t, "o1", matches[0].Node.ID)
}

func TestSearch_ThresholdCutsFuzzyMatches(t *testing.T) {
	v := searchFixture(t)

	strict := Search(v, SearchQuery{Value: "Alice Smith", Threshold: 0.95})
	for _, m := range strict {
		assert.True(t, m.Exact, "threshold 0.95 should drop the one-edit variant")
	}

	loose := Search(v, SearchQuery{Value: "Alice Smith", Threshold: 0.5})
	assert.Greater(t, len(loose), len(strict))
}

func TestSearch_ZeroThresholdExactOnly(t *testing.T) {
	v := searchFixture(t)

	matches := Search(v, SearchQuery{Value: "Alise Smith"})
	require.Len(t, matches, 1)
	assert.Equal(t, "p2", matches[0].Node.ID)
	assert.True(t, matches[0].Exact)
}

func TestSearch_AttributeTarget(t *testing.T) {
	st := buildState(t,
		person("p1", "Alice", 0),
		fact.EntityVersionedPayload{EntityID: "p1", Attrs: map[string]string{"alias": "Nightingale"}, ValidFrom: 10},
		person("p2", "Bob", 0),
	)
	v := NewView(st, 100)

	matches := Search(v, SearchQuery{Attr: "alias", Value: "Nightingale"})
	require.Len(t, matches, 1)
	assert.Equal(t, "p1", matches[0].Node.ID)
}

func TestSearch_UnicodeNormalizedComparison(t *testing.T) {
	// Name stored with a combining accent, queried precomposed.
	st := buildState(t, person("p1", "Rémy", 0))
	v := NewView(st, 100)

	matches := Search(v, SearchQuery{Value: "Rémy"})
	require.Len(t, matches, 1)
	assert.True(t, matches[0].Exact)
}

func TestSearch_AsOfChangesResults(t *testing.T) {
	st := buildState(t,
		person("p1", "Alice", 0),
		fact.EntityVersionedPayload{EntityID: "p1", Attrs: map[string]string{"status": "active"}, ValidFrom: 100},
		fact.EntityVersionedPayload{EntityID: "p1", Attrs: map[string]string{"status": "retired"}, ValidFrom: 200},
	)

	at150 := Search(NewView(st, 150), SearchQuery{Attr: "status", Value: "active"})
	assert.Len(t, at150, 1)

	at250 := Search(NewView(st, 250), SearchQuery{Attr: "status", Value: "active"})
	assert.Empty(t, at250)
}
