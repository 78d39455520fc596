package query

import (
	"context"

	"github.com/DennisN22042003/H3imd3ll/internal/fact"
	"github.com/DennisN22042003/H3imd3ll/internal/ledger"
	"github.com/DennisN22042003/H3imd3ll/internal/state"
)

// TimelineQuery filters the fact log.
type TimelineQuery struct {
	// EntityID, when set, restricts results to facts involving this
	// entity (directly, or through a relationship it is an endpoint of).
	EntityID string
	// From and To bound the wall-clock timestamp window, inclusive.
	// Nil means unbounded.
	From *int64
	To   *int64
}

// Timeline returns the facts matching q in log order (ascending seq, which
// is also ascending append time). Relationship facts that reference a
// relationship by id are resolved against st to decide entity involvement.
func Timeline(ctx context.Context, led *ledger.Ledger, st *state.State, q TimelineQuery) ([]fact.Fact, error) {
	var (
		facts []fact.Fact
		err   error
	)
	if q.From != nil || q.To != nil {
		from, to := int64(0), int64(1<<62)
		if q.From != nil {
			from = *q.From
		}
		if q.To != nil {
			to = *q.To
		}
		facts, err = led.ReadRange(ctx, from, to)
	} else {
		facts, err = led.ReadFrom(ctx, 1)
	}
	if err != nil {
		return nil, err
	}

	if q.EntityID == "" {
		return facts, nil
	}

	out := make([]fact.Fact, 0, len(facts))
	for _, f := range facts {
		if involves(st, f, q.EntityID) {
			out = append(out, f)
		}
	}
	return out, nil
}

// involves reports whether f concerns entityID.
func involves(st *state.State, f fact.Fact, entityID string) bool {
	switch p := f.Payload.(type) {
	case fact.EntityCreatedPayload:
		return p.EntityID == entityID
	case fact.EntityVersionedPayload:
		return p.EntityID == entityID
	case fact.RelationshipCreatedPayload:
		return p.SourceID == entityID || p.TargetID == entityID
	case fact.RelationshipEndedPayload:
		return relTouches(st, p.RelID, entityID)
	case fact.RelationshipAttributeChangedPayload:
		return relTouches(st, p.RelID, entityID)
	}
	return false
}

func relTouches(st *state.State, relID, entityID string) bool {
	r, ok := st.Relationship(relID)
	if !ok {
		return false
	}
	return r.SourceID == entityID || r.TargetID == entityID
}
