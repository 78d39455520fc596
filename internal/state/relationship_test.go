package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seedNeighbors builds entity 1 with two relationships: r1 valid [100, 200)
// and r2 open from 220.
func seedNeighbors(t *testing.T) *State {
	t.Helper()
	a := newApplier(t)
	a.apply(10, entity("1", "person", 10, nil))
	a.apply(10, entity("2", "person", 10, nil))
	a.apply(10, entity("3", "person", 10, nil))
	a.apply(20, relation("r1", "1", "2", "knows", 100, ptr(200)))
	a.apply(30, relation("r2", "3", "1", "knows", 220, nil))
	return a.st
}

func TestNeighbors_FiltersByValidity(t *testing.T) {
	st := seedNeighbors(t)

	at150 := st.Neighbors("1", 150)
	require.Len(t, at150, 1)
	assert.Equal(t, "r1", at150[0].ID)

	at250 := st.Neighbors("1", 250)
	require.Len(t, at250, 1)
	assert.Equal(t, "r2", at250[0].ID)

	at50 := st.Neighbors("1", 50)
	assert.Empty(t, at50)
}

func TestNeighbors_CoversBothDirections(t *testing.T) {
	st := seedNeighbors(t)

	// Entity 1 is source of r1 and target of r2; both count as incident.
	ids := map[string]bool{}
	for _, r := range st.Incident("1") {
		ids[r.ID] = true
	}
	assert.True(t, ids["r1"])
	assert.True(t, ids["r2"])
}

func TestWindow_IntervalIntersection(t *testing.T) {
	st := seedNeighbors(t)

	in := func(start, end int64) []string {
		var ids []string
		for _, r := range st.Window(start, end) {
			ids = append(ids, r.ID)
		}
		return ids
	}

	assert.Equal(t, []string{"r1"}, in(150, 210))
	assert.Equal(t, []string{"r1", "r2"}, in(150, 230))
	assert.Equal(t, []string{"r2"}, in(200, 230), "r1 ends at 200 exclusive")
	assert.Empty(t, in(200, 220), "r2 starts at 220 and the window ends before it")
	assert.Equal(t, []string{"r2"}, in(1000, 2000), "open interval intersects any later window")
}
