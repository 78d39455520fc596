package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/DennisN22042003/H3imd3ll/internal/fact"
)

// MarshalCanonical serializes the stores to canonical JSON. Entities and
// relationships are emitted sorted by id, so two states built from the same
// fact sequence serialize to identical bytes. This is the snapshot format
// and the input to Digest.
func (s *State) MarshalCanonical() ([]byte, error) {
	entities := make([]any, 0, len(s.entities))
	for _, id := range s.EntityIDs() {
		e := s.entities[id]
		versions := make([]any, len(e.Versions))
		for i, v := range e.Versions {
			versions[i] = map[string]any{
				"valid_from": v.ValidFrom,
				"attrs":      attrsAny(v.Attrs),
				"seq":        v.Seq,
			}
		}
		entities = append(entities, map[string]any{
			"id":       e.ID,
			"kind":     e.Kind,
			"name":     e.Name,
			"versions": versions,
		})
	}

	rels := make([]any, 0, len(s.rels))
	for _, id := range s.RelationshipIDs() {
		r := s.rels[id]
		m := map[string]any{
			"id":         r.ID,
			"source_id":  r.SourceID,
			"target_id":  r.TargetID,
			"type":       r.Type,
			"directed":   r.Directed,
			"attrs":      attrsAny(r.Attrs),
			"valid_from": r.ValidFrom,
		}
		if r.ValidTo != nil {
			m["valid_to"] = *r.ValidTo
		}
		rels = append(rels, m)
	}

	return fact.MarshalCanonical(map[string]any{
		"last_applied":  s.lastApplied,
		"entities":      entities,
		"relationships": rels,
	})
}

// Digest returns the hex SHA-256 of the canonical serialization. Two states
// are equal iff their digests match; verify-replay compares digests of a
// full rebuild against a snapshot-plus-tail rebuild.
func (s *State) Digest() (string, error) {
	data, err := s.MarshalCanonical()
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// stateDoc mirrors the canonical serialization for decoding.
type stateDoc struct {
	LastApplied   int64        `json:"last_applied"`
	Entities      []entityDoc  `json:"entities"`
	Relationships []relDoc     `json:"relationships"`
}

type entityDoc struct {
	ID       string       `json:"id"`
	Kind     string       `json:"kind"`
	Name     string       `json:"name"`
	Versions []versionDoc `json:"versions"`
}

type versionDoc struct {
	ValidFrom int64             `json:"valid_from"`
	Attrs     map[string]string `json:"attrs"`
	Seq       int64             `json:"seq"`
}

type relDoc struct {
	ID        string            `json:"id"`
	SourceID  string            `json:"source_id"`
	TargetID  string            `json:"target_id"`
	Type      string            `json:"type"`
	Directed  bool              `json:"directed"`
	Attrs     map[string]string `json:"attrs"`
	ValidFrom int64             `json:"valid_from"`
	ValidTo   *int64            `json:"valid_to,omitempty"`
}

// Unmarshal reconstructs a State from its canonical serialization,
// rebuilding the adjacency and interval indexes.
func Unmarshal(data []byte) (*State, error) {
	var doc stateDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}

	s := New()
	s.lastApplied = doc.LastApplied

	for _, ed := range doc.Entities {
		if len(ed.Versions) == 0 {
			return nil, fmt.Errorf("unmarshal state: entity %s has no versions", ed.ID)
		}
		e := &Entity{
			ID:       ed.ID,
			Kind:     ed.Kind,
			Name:     ed.Name,
			Versions: make([]Version, len(ed.Versions)),
		}
		for i, vd := range ed.Versions {
			e.Versions[i] = Version{
				ValidFrom: vd.ValidFrom,
				Attrs:     copyAttrs(vd.Attrs),
				Seq:       vd.Seq,
			}
		}
		s.entities[e.ID] = e
	}

	for _, rd := range doc.Relationships {
		r := &Relationship{
			ID:        rd.ID,
			SourceID:  rd.SourceID,
			TargetID:  rd.TargetID,
			Type:      rd.Type,
			Directed:  rd.Directed,
			Attrs:     copyAttrs(rd.Attrs),
			ValidFrom: rd.ValidFrom,
			ValidTo:   copyInt64Ptr(rd.ValidTo),
		}
		s.rels[r.ID] = r
		s.bySource[r.SourceID] = append(s.bySource[r.SourceID], r.ID)
		s.byTarget[r.TargetID] = append(s.byTarget[r.TargetID], r.ID)
		s.insertInterval(r)
	}

	return s, nil
}

func attrsAny(attrs map[string]string) map[string]any {
	m := make(map[string]any, len(attrs))
	for k, v := range attrs {
		m[k] = v
	}
	return m
}
