package snapshot

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

func openLedger(t *testing.T) *ledger.Ledger {
	t.Helper()
	l, err := ledger.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

// appendAll writes payloads to the ledger and applies them to st.
func appendAll(t *testing.T, l *ledger.Ledger, st *state.State, payloads []fact.Payload) {
	t.Helper()
	ctx := context.Background()
	for i, p := range payloads {
		seq, err := l.Append(ctx, int64((i+1)*10), p.FactKind(), p)
		require.NoError(t, err)
		require.NoError(t, st.Apply(fact.Fact{Seq: seq, Timestamp: int64((i + 1) * 10), Kind: p.FactKind(), Payload: p}))
	}
}

func samplePayloads() []fact.Payload {
	return []fact.Payload{
		fact.EntityCreatedPayload{EntityID: "a", EntityKind: "person", Name: "A", ValidFrom: 10},
		fact.EntityCreatedPayload{EntityID: "b", EntityKind: "person", Name: "B", ValidFrom: 10},
		fact.RelationshipCreatedPayload{RelID: "r1", SourceID: "a", TargetID: "b", RelType: "knows", ValidFrom: 20},
		fact.EntityVersionedPayload{EntityID: "a", Attrs: map[string]string{"city": "Oslo"}, ValidFrom: 30},
	}
}

func TestObserve_IntervalPolicy(t *testing.T) {
	m := NewManager(openLedger(t), 3)

	assert.False(t, m.Observe(1))
	assert.False(t, m.Observe(1))
	assert.True(t, m.Observe(1), "third applied fact makes a snapshot due")
}

func TestObserve_DisabledInterval(t *testing.T) {
	m := NewManager(openLedger(t), 0)
	for i := 0; i < 10; i++ {
		assert.False(t, m.Observe(1))
	}
}

func TestLoadLatest_NoSnapshot(t *testing.T) {
	m := NewManager(openLedger(t), 0)

	snap, err := m.LoadLatest(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	l := openLedger(t)
	st := state.New()
	appendAll(t, l, st, samplePayloads())

	m := NewManager(l, 0)
	ctx := context.Background()
	require.NoError(t, m.Save(ctx, st))

	snap, err := m.LoadLatest(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, st.LastApplied(), snap.Seq)

	want, err := st.Digest()
	require.NoError(t, err)
	got, err := snap.State.Digest()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

// Snapshot-plus-tail must land on exactly the same state as a full replay.
func TestSnapshotEquivalence(t *testing.T) {
	l := openLedger(t)
	live := state.New()
	ctx := context.Background()

	appendAll(t, l, live, samplePayloads())

	m := NewManager(l, 0)
	require.NoError(t, m.Save(ctx, live))

	// More facts after the snapshot.
	appendAll(t, l, live, []fact.Payload{
		fact.EntityCreatedPayload{EntityID: "c", EntityKind: "organization", Name: "C", ValidFrom: 40},
		fact.RelationshipEndedPayload{RelID: "r1", ValidTo: 50},
	})

	// Rebuild 1: full replay from seq 1.
	full := state.New()
	facts, err := l.ReadFrom(ctx, 1)
	require.NoError(t, err)
	require.NoError(t, full.Replay(facts))

	// Rebuild 2: snapshot plus tail.
	snap, err := m.LoadLatest(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap)
	tail, err := l.ReadFrom(ctx, snap.Seq+1)
	require.NoError(t, err)
	require.NoError(t, snap.State.Replay(tail))

	liveDigest, err := live.Digest()
	require.NoError(t, err)
	fullDigest, err := full.Digest()
	require.NoError(t, err)
	snapDigest, err := snap.State.Digest()
	require.NoError(t, err)

	assert.Equal(t, liveDigest, fullDigest)
	assert.Equal(t, liveDigest, snapDigest)
}
