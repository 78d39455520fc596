package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DennisN22042003/H3imd3ll/internal/fact"
)

// seedFacts is a small but representative fact sequence.
func seedFacts() []fact.Fact {
	to := int64(400)
	payloads := []fact.Payload{
		fact.EntityCreatedPayload{EntityID: "alice", EntityKind: "person", Name: "Alice", Attrs: map[string]string{"role": "analyst"}, ValidFrom: 100},
		fact.EntityCreatedPayload{EntityID: "acme", EntityKind: "organization", Name: "Acme", ValidFrom: 100},
		fact.RelationshipCreatedPayload{RelID: "r1", SourceID: "alice", TargetID: "acme", RelType: "works_at", Directed: true, ValidFrom: 150, ValidTo: &to},
		fact.EntityVersionedPayload{EntityID: "alice", Attrs: map[string]string{"role": "lead"}, ValidFrom: 300},
		fact.RelationshipAttributeChangedPayload{RelID: "r1", Attrs: map[string]string{"confidence": "high"}},
	}
	facts := make([]fact.Fact, len(payloads))
	for i, p := range payloads {
		facts[i] = fact.Fact{Seq: int64(i + 1), Timestamp: int64((i + 1) * 10), Kind: p.FactKind(), Payload: p}
	}
	return facts
}

func TestMarshalCanonical_ReplayDeterminism(t *testing.T) {
	st1 := New()
	require.NoError(t, st1.Replay(seedFacts()))
	st2 := New()
	require.NoError(t, st2.Replay(seedFacts()))

	b1, err := st1.MarshalCanonical()
	require.NoError(t, err)
	b2, err := st2.MarshalCanonical()
	require.NoError(t, err)
	assert.Equal(t, string(b1), string(b2), "two replays of the same log must serialize identically")

	d1, err := st1.Digest()
	require.NoError(t, err)
	d2, err := st2.Digest()
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
}

func TestUnmarshal_RebuildsIndexes(t *testing.T) {
	st := New()
	require.NoError(t, st.Replay(seedFacts()))

	data, err := st.MarshalCanonical()
	require.NoError(t, err)

	loaded, err := Unmarshal(data)
	require.NoError(t, err)

	assert.Equal(t, st.LastApplied(), loaded.LastApplied())
	assert.Equal(t, st.EntityCount(), loaded.EntityCount())
	assert.Equal(t, st.RelationshipCount(), loaded.RelationshipCount())

	// Adjacency works after the round trip.
	rels := loaded.Neighbors("alice", 200)
	require.Len(t, rels, 1)
	assert.Equal(t, "r1", rels[0].ID)
	assert.Equal(t, "high", rels[0].Attrs["confidence"])

	// Interval index works after the round trip.
	win := loaded.Window(100, 500)
	require.Len(t, win, 1)
	assert.Equal(t, "r1", win[0].ID)

	// And the round-tripped state serializes back to the same bytes.
	again, err := loaded.MarshalCanonical()
	require.NoError(t, err)
	assert.Equal(t, string(data), string(again))
}

func TestUnmarshal_RejectsEntityWithoutVersions(t *testing.T) {
	_, err := Unmarshal([]byte(`{"last_applied":1,"entities":[{"id":"x","kind":"person","name":"X","versions":[]}],"relationships":[]}`))
	require.Error(t, err)
}

func TestDigest_ChangesWithState(t *testing.T) {
	st := New()
	require.NoError(t, st.Replay(seedFacts()))
	before, err := st.Digest()
	require.NoError(t, err)

	require.NoError(t, st.Apply(fact.Fact{
		Seq:     st.LastApplied() + 1,
		Kind:    fact.EntityCreated,
		Payload: fact.EntityCreatedPayload{EntityID: "bob", EntityKind: "person", ValidFrom: 500},
	}))
	after, err := st.Digest()
	require.NoError(t, err)
	assert.NotEqual(t, before, after)
}
