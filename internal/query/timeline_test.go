package query

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DennisN22042003/H3imd3ll/internal/fact"
	"github.com/DennisN22042003/H3imd3ll/internal/ledger"
	"github.com/DennisN22042003/H3imd3ll/internal/state"
)

// buildLedger appends payloads with the given timestamps and folds them into
// a store.
func buildLedger(t *testing.T, payloads []fact.Payload, stamps []int64) (*ledger.Ledger, *state.State) {
	t.Helper()
	require.Equal(t, len(payloads), len(stamps))

	l, err := ledger.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })

	st := state.New()
	ctx := context.Background()
	for i, p := range payloads {
		seq, err := l.Append(ctx, stamps[i], p.FactKind(), p)
		require.NoError(t, err)
		require.NoError(t, st.Apply(fact.Fact{Seq: seq, Timestamp: stamps[i], Kind: p.FactKind(), Payload: p}))
	}
	return l, st
}

func timelineFixture(t *testing.T) (*ledger.Ledger, *state.State) {
	t.Helper()
	return buildLedger(t,
		[]fact.Payload{
			person("a", "A", 0),
			person("b", "B", 0),
			person("c", "C", 0),
			edge("r1", "a", "b", "knows", false, 100),
			fact.EntityVersionedPayload{EntityID: "c", Attrs: map[string]string{"x": "1"}, ValidFrom: 150},
			fact.RelationshipEndedPayload{RelID: "r1", ValidTo: 200},
		},
		[]int64{10, 20, 30, 40, 50, 60},
	)
}

func TestTimeline_AllFactsInLogOrder(t *testing.T) {
	l, st := timelineFixture(t)

	facts, err := Timeline(context.Background(), l, st, TimelineQuery{})
	require.NoError(t, err)
	require.Len(t, facts, 6)
	for i, f := range facts {
		assert.Equal(t, int64(i+1), f.Seq)
	}
}

func TestTimeline_EntityInvolvement(t *testing.T) {
	l, st := timelineFixture(t)

	facts, err := Timeline(context.Background(), l, st, TimelineQuery{EntityID: "b"})
	require.NoError(t, err)

	// b: its creation, the r1 creation and the r1 ending.
	require.Len(t, facts, 3)
	assert.Equal(t, fact.EntityCreated, facts[0].Kind)
	assert.Equal(t, fact.RelationshipCreated, facts[1].Kind)
	assert.Equal(t, fact.RelationshipEnded, facts[2].Kind)
}

func TestTimeline_TimeWindow(t *testing.T) {
	l, st := timelineFixture(t)

	from, to := int64(25), int64(45)
	facts, err := Timeline(context.Background(), l, st, TimelineQuery{From: &from, To: &to})
	require.NoError(t, err)
	require.Len(t, facts, 2)
	assert.Equal(t, int64(30), facts[0].Timestamp)
	assert.Equal(t, int64(40), facts[1].Timestamp)
}

func TestTimeline_WindowAndEntity(t *testing.T) {
	l, st := timelineFixture(t)

	from := int64(40)
	facts, err := Timeline(context.Background(), l, st, TimelineQuery{EntityID: "a", From: &from})
	require.NoError(t, err)

	// Only the relationship facts fall at or after ts 40.
	require.Len(t, facts, 2)
	assert.Equal(t, fact.RelationshipCreated, facts[0].Kind)
	assert.Equal(t, fact.RelationshipEnded, facts[1].Kind)
}
