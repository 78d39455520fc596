package query

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/DennisN22042003/H3imd3ll/internal/fact"
	"github.com/DennisN22042003/H3imd3ll/internal/state"
)

// buildState folds payloads into a fresh store, assigning seqs in order.
func buildState(t *testing.T, payloads ...fact.Payload) *state.State {
	t.Helper()
	st := state.New()
	for i, p := range payloads {
		err := st.Apply(fact.Fact{Seq: int64(i + 1), Timestamp: int64((i + 1) * 10), Kind: p.FactKind(), Payload: p})
		require.NoError(t, err, "payload %d (%s)", i, p.FactKind())
	}
	return st
}

func person(id, name string, validFrom int64) fact.EntityCreatedPayload {
	return fact.EntityCreatedPayload{EntityID: id, EntityKind: "person", Name: name, ValidFrom: validFrom}
}

func org(id, name string, validFrom int64) fact.EntityCreatedPayload {
	return fact.EntityCreatedPayload{EntityID: id, EntityKind: "organization", Name: name, ValidFrom: validFrom}
}

func edge(id, src, tgt, typ string, directed bool, validFrom int64) fact.RelationshipCreatedPayload {
	return fact.RelationshipCreatedPayload{
		RelID:     id,
		SourceID:  src,
		TargetID:  tgt,
		RelType:   typ,
		Directed:  directed,
		ValidFrom: validFrom,
	}
}
