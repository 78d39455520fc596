package state

import (
	"sort"

	"github.com/DennisN22042003/H3imd3ll/internal/fact"
)

// Apply folds one fact into the stores.
//
// Apply is all-or-nothing: every precondition is checked before any store is
// touched, so a returned error leaves the state exactly as it was. Sequence
// numbers must arrive gap-free: f.Seq must be exactly LastApplied()+1, and
// a duplicate or gap is an integrity error (the caller decides whether that
// is fatal - during replay it always is).
func (s *State) Apply(f fact.Fact) error {
	if f.Seq != s.lastApplied+1 {
		return integrityErr(f.Seq, "sequence break: applied %d, got %d", s.lastApplied, f.Seq)
	}
	if err := s.Check(f.Payload); err != nil {
		return err
	}

	switch p := f.Payload.(type) {
	case fact.EntityCreatedPayload:
		s.entities[p.EntityID] = &Entity{
			ID:   p.EntityID,
			Kind: p.EntityKind,
			Name: p.Name,
			Versions: []Version{{
				ValidFrom: p.ValidFrom,
				Attrs:     copyAttrs(p.Attrs),
				Seq:       f.Seq,
			}},
		}

	case fact.EntityVersionedPayload:
		e := s.entities[p.EntityID]
		latest := &e.Versions[len(e.Versions)-1]
		merged := mergeAttrs(latest.Attrs, p.Attrs)
		if p.ValidFrom == latest.ValidFrom {
			// Same validity start: last write wins by seq, replacing
			// the snapshot in place so History stays strictly ordered.
			latest.Attrs = merged
			latest.Seq = f.Seq
		} else {
			e.Versions = append(e.Versions, Version{
				ValidFrom: p.ValidFrom,
				Attrs:     merged,
				Seq:       f.Seq,
			})
		}

	case fact.RelationshipCreatedPayload:
		r := &Relationship{
			ID:        p.RelID,
			SourceID:  p.SourceID,
			TargetID:  p.TargetID,
			Type:      p.RelType,
			Directed:  p.Directed,
			Attrs:     copyAttrs(p.Attrs),
			ValidFrom: p.ValidFrom,
			ValidTo:   copyInt64Ptr(p.ValidTo),
		}
		s.rels[r.ID] = r
		s.bySource[r.SourceID] = append(s.bySource[r.SourceID], r.ID)
		s.byTarget[r.TargetID] = append(s.byTarget[r.TargetID], r.ID)
		s.insertInterval(r)

	case fact.RelationshipEndedPayload:
		to := p.ValidTo
		s.rels[p.RelID].ValidTo = &to

	case fact.RelationshipAttributeChangedPayload:
		r := s.rels[p.RelID]
		r.Attrs = mergeAttrs(r.Attrs, p.Attrs)
	}

	s.lastApplied = f.Seq
	return nil
}

// Check validates a payload against the current stores without mutating
// them. The engine runs Check before appending to the ledger so that the
// log never records a fact that cannot be applied.
func (s *State) Check(p fact.Payload) error {
	switch p := p.(type) {
	case fact.EntityCreatedPayload:
		if p.EntityID == "" {
			return integrityErr(0, "entity_created: empty entity id")
		}
		if p.EntityKind == "" {
			return integrityErr(0, "entity_created: empty entity kind")
		}
		if _, ok := s.entities[p.EntityID]; ok {
			return &ApplyError{
				Code:     ErrCodeDuplicateEntity,
				EntityID: p.EntityID,
				Message:  "entity id already exists",
			}
		}

	case fact.EntityVersionedPayload:
		e, ok := s.entities[p.EntityID]
		if !ok {
			return unknownEntityErr(0, p.EntityID)
		}
		if len(p.Attrs) == 0 {
			return integrityErr(0, "entity_versioned: empty attribute update")
		}
		latest := e.Versions[len(e.Versions)-1]
		if p.ValidFrom < latest.ValidFrom {
			return &ApplyError{
				Code:     ErrCodeNonMonotonicTime,
				EntityID: p.EntityID,
				Message:  "version validity start precedes latest version",
			}
		}

	case fact.RelationshipCreatedPayload:
		if p.RelID == "" {
			return integrityErr(0, "relationship_created: empty relationship id")
		}
		if p.RelType == "" {
			return integrityErr(0, "relationship_created: empty relationship type")
		}
		if _, ok := s.rels[p.RelID]; ok {
			return integrityErr(0, "relationship_created: relationship id %s already exists", p.RelID)
		}
		if _, ok := s.entities[p.SourceID]; !ok {
			return unknownEntityErr(0, p.SourceID)
		}
		if _, ok := s.entities[p.TargetID]; !ok {
			return unknownEntityErr(0, p.TargetID)
		}
		if p.ValidTo != nil && *p.ValidTo < p.ValidFrom {
			return integrityErr(0, "relationship_created: valid_to %d precedes valid_from %d", *p.ValidTo, p.ValidFrom)
		}

	case fact.RelationshipEndedPayload:
		r, ok := s.rels[p.RelID]
		if !ok {
			return unknownRelationshipErr(0, p.RelID)
		}
		if r.ValidTo != nil {
			return &ApplyError{
				Code:           ErrCodeAlreadyClosed,
				RelationshipID: p.RelID,
				Message:        "relationship validity interval is already closed",
			}
		}
		if p.ValidTo < r.ValidFrom {
			return integrityErr(0, "relationship_ended: valid_to %d precedes valid_from %d", p.ValidTo, r.ValidFrom)
		}

	case fact.RelationshipAttributeChangedPayload:
		if _, ok := s.rels[p.RelID]; !ok {
			return unknownRelationshipErr(0, p.RelID)
		}
		if len(p.Attrs) == 0 {
			return integrityErr(0, "relationship_attribute_changed: empty attribute update")
		}

	default:
		return integrityErr(0, "unknown payload type %T", p)
	}
	return nil
}

// Replay applies a fact sequence in order, stopping at the first error.
// Any error during replay means the log and the state disagree structurally,
// which is a fatal startup condition for the caller.
func (s *State) Replay(facts []fact.Fact) error {
	for _, f := range facts {
		if err := s.Apply(f); err != nil {
			return err
		}
	}
	return nil
}

// insertInterval adds r to the byStart index, keeping it sorted by
// (start, relID).
func (s *State) insertInterval(r *Relationship) {
	key := intervalKey{start: r.ValidFrom, relID: r.ID}
	i := sort.Search(len(s.byStart), func(i int) bool {
		if s.byStart[i].start != key.start {
			return s.byStart[i].start > key.start
		}
		return s.byStart[i].relID >= key.relID
	})
	s.byStart = append(s.byStart, intervalKey{})
	copy(s.byStart[i+1:], s.byStart[i:])
	s.byStart[i] = key
}

func copyAttrs(attrs map[string]string) map[string]string {
	out := make(map[string]string, len(attrs))
	for k, v := range attrs {
		out[k] = v
	}
	return out
}

func mergeAttrs(base, update map[string]string) map[string]string {
	out := make(map[string]string, len(base)+len(update))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range update {
		out[k] = v
	}
	return out
}

func copyInt64Ptr(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
