// Package fact defines the immutable fact records that make up the event
// log. A fact is the unit of truth: every change to the graph is expressed
// as exactly one fact, and the materialized stores are a pure fold over the
// fact sequence.
package fact

import (
	"encoding/json"
	"fmt"
)

// Kind identifies what a fact describes.
type Kind string

const (
	// EntityCreated registers a new entity id with its first version.
	EntityCreated Kind = "entity_created"
	// EntityVersioned appends an attribute snapshot to an existing entity.
	EntityVersioned Kind = "entity_versioned"
	// RelationshipCreated registers a typed edge between two entities.
	RelationshipCreated Kind = "relationship_created"
	// RelationshipEnded closes the validity interval of an open relationship.
	RelationshipEnded Kind = "relationship_ended"
	// RelationshipAttributeChanged merges attribute updates into a relationship.
	RelationshipAttributeChanged Kind = "relationship_attribute_changed"
)

// Kinds lists all fact kinds in declaration order.
var Kinds = []Kind{
	EntityCreated,
	EntityVersioned,
	RelationshipCreated,
	RelationshipEnded,
	RelationshipAttributeChanged,
}

// Valid reports whether k is a known fact kind.
func (k Kind) Valid() bool {
	switch k {
	case EntityCreated, EntityVersioned, RelationshipCreated,
		RelationshipEnded, RelationshipAttributeChanged:
		return true
	}
	return false
}

// Fact is one immutable record of the log.
//
// Seq is assigned by the ledger at append time and is gap-free and strictly
// increasing. Timestamp is wall-clock unix milliseconds and is informational
// only: all conflict resolution uses Seq, never Timestamp, so replay stays
// deterministic under clock skew.
type Fact struct {
	Seq       int64   `json:"seq"`
	Timestamp int64   `json:"ts"`
	Kind      Kind    `json:"kind"`
	Payload   Payload `json:"payload"`
}

// Payload is the kind-specific body of a fact.
type Payload interface {
	// FactKind returns the kind this payload belongs to.
	FactKind() Kind
	// canonicalMap returns the payload as a map suitable for canonical
	// JSON serialization. Values are strings, int64s, bools, nested maps
	// or arrays thereof - never floats.
	canonicalMap() map[string]any
}

// EntityCreatedPayload registers entity EntityID of kind EntityKind.
// Attrs becomes the entity's first version, valid from ValidFrom.
type EntityCreatedPayload struct {
	EntityID   string            `json:"entity_id"`
	EntityKind string            `json:"entity_kind"`
	Name       string            `json:"name"`
	Attrs      map[string]string `json:"attrs,omitempty"`
	ValidFrom  int64             `json:"valid_from"`
}

func (p EntityCreatedPayload) FactKind() Kind { return EntityCreated }

func (p EntityCreatedPayload) canonicalMap() map[string]any {
	return map[string]any{
		"entity_id":   p.EntityID,
		"entity_kind": p.EntityKind,
		"name":        p.Name,
		"attrs":       attrsToMap(p.Attrs),
		"valid_from":  p.ValidFrom,
	}
}

// EntityVersionedPayload appends a version to entity EntityID. Attrs holds
// only the changed attributes; the store merges them over the previous
// version to build the new snapshot.
type EntityVersionedPayload struct {
	EntityID  string            `json:"entity_id"`
	Attrs     map[string]string `json:"attrs"`
	ValidFrom int64             `json:"valid_from"`
}

func (p EntityVersionedPayload) FactKind() Kind { return EntityVersioned }

func (p EntityVersionedPayload) canonicalMap() map[string]any {
	return map[string]any{
		"entity_id":  p.EntityID,
		"attrs":      attrsToMap(p.Attrs),
		"valid_from": p.ValidFrom,
	}
}

// RelationshipCreatedPayload registers relationship RelID from SourceID to
// TargetID. Directed is resolved from the schema at append time and recorded
// in the fact so that replay does not depend on the schema file.
// ValidTo, when nil, means the relationship is still open.
type RelationshipCreatedPayload struct {
	RelID     string            `json:"rel_id"`
	SourceID  string            `json:"source_id"`
	TargetID  string            `json:"target_id"`
	RelType   string            `json:"rel_type"`
	Directed  bool              `json:"directed"`
	Attrs     map[string]string `json:"attrs,omitempty"`
	ValidFrom int64             `json:"valid_from"`
	ValidTo   *int64            `json:"valid_to,omitempty"`
}

func (p RelationshipCreatedPayload) FactKind() Kind { return RelationshipCreated }

func (p RelationshipCreatedPayload) canonicalMap() map[string]any {
	m := map[string]any{
		"rel_id":     p.RelID,
		"source_id":  p.SourceID,
		"target_id":  p.TargetID,
		"rel_type":   p.RelType,
		"directed":   p.Directed,
		"attrs":      attrsToMap(p.Attrs),
		"valid_from": p.ValidFrom,
	}
	if p.ValidTo != nil {
		m["valid_to"] = *p.ValidTo
	}
	return m
}

// RelationshipEndedPayload closes relationship RelID at ValidTo.
type RelationshipEndedPayload struct {
	RelID   string `json:"rel_id"`
	ValidTo int64  `json:"valid_to"`
}

func (p RelationshipEndedPayload) FactKind() Kind { return RelationshipEnded }

func (p RelationshipEndedPayload) canonicalMap() map[string]any {
	return map[string]any{
		"rel_id":   p.RelID,
		"valid_to": p.ValidTo,
	}
}

// RelationshipAttributeChangedPayload merges Attrs into relationship RelID.
// Last write wins by fact seq.
type RelationshipAttributeChangedPayload struct {
	RelID string            `json:"rel_id"`
	Attrs map[string]string `json:"attrs"`
}

func (p RelationshipAttributeChangedPayload) FactKind() Kind { return RelationshipAttributeChanged }

func (p RelationshipAttributeChangedPayload) canonicalMap() map[string]any {
	return map[string]any{
		"rel_id": p.RelID,
		"attrs":  attrsToMap(p.Attrs),
	}
}

func attrsToMap(attrs map[string]string) map[string]any {
	m := make(map[string]any, len(attrs))
	for k, v := range attrs {
		m[k] = v
	}
	return m
}

// EncodePayload serializes a payload to canonical JSON for storage.
func EncodePayload(p Payload) ([]byte, error) {
	data, err := MarshalCanonical(p.canonicalMap())
	if err != nil {
		return nil, fmt.Errorf("encode %s payload: %w", p.FactKind(), err)
	}
	return data, nil
}

// DecodePayload parses a stored payload for the given kind.
func DecodePayload(kind Kind, data []byte) (Payload, error) {
	var (
		p   Payload
		err error
	)
	switch kind {
	case EntityCreated:
		var v EntityCreatedPayload
		err = json.Unmarshal(data, &v)
		p = v
	case EntityVersioned:
		var v EntityVersionedPayload
		err = json.Unmarshal(data, &v)
		p = v
	case RelationshipCreated:
		var v RelationshipCreatedPayload
		err = json.Unmarshal(data, &v)
		p = v
	case RelationshipEnded:
		var v RelationshipEndedPayload
		err = json.Unmarshal(data, &v)
		p = v
	case RelationshipAttributeChanged:
		var v RelationshipAttributeChangedPayload
		err = json.Unmarshal(data, &v)
		p = v
	default:
		return nil, fmt.Errorf("decode payload: unknown fact kind %q", kind)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", kind, err)
	}
	return p, nil
}
