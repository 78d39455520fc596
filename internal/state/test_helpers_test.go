package state

import (
	"testing"

	"github.com/DennisN22042003/H3imd3ll/internal/fact"
)

// applier feeds facts into a store with automatic seq assignment.
type applier struct {
	t   *testing.T
	st  *State
	seq int64
}

func newApplier(t *testing.T) *applier {
	t.Helper()
	return &applier{t: t, st: New()}
}

// apply applies one payload, failing the test on rejection.
func (a *applier) apply(ts int64, p fact.Payload) {
	a.t.Helper()
	a.seq++
	if err := a.st.Apply(fact.Fact{Seq: a.seq, Timestamp: ts, Kind: p.FactKind(), Payload: p}); err != nil {
		a.t.Fatalf("Apply(seq %d, %s) failed: %v", a.seq, p.FactKind(), err)
	}
}

// tryApply applies one payload and returns the error. The seq is only
// consumed when the apply succeeds, mirroring the engine's check-then-append
// flow.
func (a *applier) tryApply(ts int64, p fact.Payload) error {
	a.t.Helper()
	err := a.st.Apply(fact.Fact{Seq: a.seq + 1, Timestamp: ts, Kind: p.FactKind(), Payload: p})
	if err == nil {
		a.seq++
	}
	return err
}

func entity(id, kind string, validFrom int64, attrs map[string]string) fact.EntityCreatedPayload {
	return fact.EntityCreatedPayload{
		EntityID:   id,
		EntityKind: kind,
		Name:       id,
		Attrs:      attrs,
		ValidFrom:  validFrom,
	}
}

func version(id string, validFrom int64, attrs map[string]string) fact.EntityVersionedPayload {
	return fact.EntityVersionedPayload{EntityID: id, Attrs: attrs, ValidFrom: validFrom}
}

func relation(id, src, tgt, typ string, validFrom int64, validTo *int64) fact.RelationshipCreatedPayload {
	return fact.RelationshipCreatedPayload{
		RelID:     id,
		SourceID:  src,
		TargetID:  tgt,
		RelType:   typ,
		ValidFrom: validFrom,
		ValidTo:   validTo,
	}
}

func ptr(v int64) *int64 { return &v }
