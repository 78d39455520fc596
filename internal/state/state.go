// Package state holds the materialized stores: the entity version store and
// the relationship store, both owned by the apply step. No caller mutates
// them directly - every change arrives as a fact, and the stores are always
// a deterministic function of the fact sequence applied so far.
package state

import "sort"

// Version is one attribute snapshot of an entity.
//
// Attrs is the complete attribute map as of ValidFrom, not a delta: applying
// an EntityVersioned fact merges the changed attributes over the previous
// snapshot. Seq records the fact that produced this version.
type Version struct {
	ValidFrom int64
	Attrs     map[string]string
	Seq       int64
}

// Entity is a registered subject. Versions are strictly ordered by
// ValidFrom; the version current as of time t is the last one with
// ValidFrom <= t.
type Entity struct {
	ID       string
	Kind     string
	Name     string
	Versions []Version
}

// Relationship is a typed edge between two entity ids with an optional
// validity interval [ValidFrom, ValidTo). A nil ValidTo means still open.
type Relationship struct {
	ID        string
	SourceID  string
	TargetID  string
	Type      string
	Directed  bool
	Attrs     map[string]string
	ValidFrom int64
	ValidTo   *int64
}

// ValidAt reports whether the relationship's validity interval covers t.
func (r *Relationship) ValidAt(t int64) bool {
	if t < r.ValidFrom {
		return false
	}
	return r.ValidTo == nil || t < *r.ValidTo
}

// Intersects reports whether the validity interval intersects [start, end).
func (r *Relationship) Intersects(start, end int64) bool {
	if r.ValidFrom >= end {
		return false
	}
	return r.ValidTo == nil || *r.ValidTo > start
}

// intervalKey orders relationships by validity start for time-range scans.
type intervalKey struct {
	start int64
	relID string
}

// State is the pair of materialized stores plus the adjacency and interval
// indexes derived from them.
//
// Not safe for concurrent use on its own; the engine guards it with a
// reader-writer lock so queries never observe a partially applied fact.
type State struct {
	entities map[string]*Entity
	rels     map[string]*Relationship

	// Adjacency: entity id -> incident relationship ids, in seq order.
	bySource map[string][]string
	byTarget map[string][]string

	// Secondary index ordered by validity start; supports time-range
	// scans without touching every relationship.
	byStart []intervalKey

	// lastApplied is the seq of the last applied fact; used to detect
	// duplicates and gaps.
	lastApplied int64
}

// New returns empty stores at sequence 0.
func New() *State {
	return &State{
		entities: make(map[string]*Entity),
		rels:     make(map[string]*Relationship),
		bySource: make(map[string][]string),
		byTarget: make(map[string][]string),
	}
}

// LastApplied returns the seq of the last applied fact.
func (s *State) LastApplied() int64 { return s.lastApplied }

// EntityCount returns the number of registered entities.
func (s *State) EntityCount() int { return len(s.entities) }

// RelationshipCount returns the number of registered relationships.
func (s *State) RelationshipCount() int { return len(s.rels) }

// Entity returns the entity with the given id, if registered.
func (s *State) Entity(id string) (*Entity, bool) {
	e, ok := s.entities[id]
	return e, ok
}

// Relationship returns the relationship with the given id, if registered.
func (s *State) Relationship(id string) (*Relationship, bool) {
	r, ok := s.rels[id]
	return r, ok
}

// EntityIDs returns all registered entity ids, sorted for determinism.
func (s *State) EntityIDs() []string {
	ids := make([]string, 0, len(s.entities))
	for id := range s.entities {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// RelationshipIDs returns all registered relationship ids, sorted.
func (s *State) RelationshipIDs() []string {
	ids := make([]string, 0, len(s.rels))
	for id := range s.rels {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
