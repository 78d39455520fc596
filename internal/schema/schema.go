// Package schema defines the investigation schema: which entity kinds and
// relationship types the engine accepts. Schemas are authored in CUE and
// validated at load time; facts that reference an unknown kind or type are
// rejected at append with an integrity error.
package schema

import (
	_ "embed"
	"fmt"
	"os"
	"sort"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

//go:embed default.cue
var defaultCUE string

// RelationshipType describes one edge type.
type RelationshipType struct {
	Name     string
	Directed bool
}

// Schema is the compiled set of entity kinds and relationship types.
type Schema struct {
	entityKinds map[string]struct{}
	relTypes    map[string]RelationshipType
}

// Default returns the built-in schema shipped with the binary.
func Default() (*Schema, error) {
	return compile(cuecontext.New().CompileString(defaultCUE))
}

// LoadFile compiles a schema from a CUE file on disk.
func LoadFile(path string) (*Schema, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	return compile(cuecontext.New().CompileBytes(src, cue.Filename(path)))
}

// compile extracts entity kinds and relationship types from a CUE value.
//
// The expected shape is:
//
//	entity: person: {}
//	relationship: works_at: {directed: true}
func compile(v cue.Value) (*Schema, error) {
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	s := &Schema{
		entityKinds: make(map[string]struct{}),
		relTypes:    make(map[string]RelationshipType),
	}

	entities := v.LookupPath(cue.ParsePath("entity"))
	if !entities.Exists() {
		return nil, fmt.Errorf("compile schema: missing entity block")
	}
	iter, err := entities.Fields()
	if err != nil {
		return nil, fmt.Errorf("compile schema: entity block: %w", err)
	}
	for iter.Next() {
		s.entityKinds[iter.Selector().Unquoted()] = struct{}{}
	}
	if len(s.entityKinds) == 0 {
		return nil, fmt.Errorf("compile schema: at least one entity kind is required")
	}

	rels := v.LookupPath(cue.ParsePath("relationship"))
	if !rels.Exists() {
		return nil, fmt.Errorf("compile schema: missing relationship block")
	}
	iter, err = rels.Fields()
	if err != nil {
		return nil, fmt.Errorf("compile schema: relationship block: %w", err)
	}
	for iter.Next() {
		name := iter.Selector().Unquoted()
		rt := RelationshipType{Name: name}

		directed := iter.Value().LookupPath(cue.ParsePath("directed"))
		if directed.Exists() {
			b, err := directed.Bool()
			if err != nil {
				return nil, fmt.Errorf("compile schema: relationship %q: directed: %w", name, err)
			}
			rt.Directed = b
		}
		s.relTypes[name] = rt
	}
	if len(s.relTypes) == 0 {
		return nil, fmt.Errorf("compile schema: at least one relationship type is required")
	}

	return s, nil
}

// HasEntityKind reports whether kind is declared in the schema.
func (s *Schema) HasEntityKind(kind string) bool {
	_, ok := s.entityKinds[kind]
	return ok
}

// RelationshipType returns the declared relationship type, if any.
func (s *Schema) RelationshipType(name string) (RelationshipType, bool) {
	rt, ok := s.relTypes[name]
	return rt, ok
}

// EntityKinds returns all declared entity kinds, sorted.
func (s *Schema) EntityKinds() []string {
	kinds := make([]string, 0, len(s.entityKinds))
	for k := range s.entityKinds {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// RelationshipTypes returns all declared relationship types, sorted by name.
func (s *Schema) RelationshipTypes() []RelationshipType {
	types := make([]RelationshipType, 0, len(s.relTypes))
	for _, rt := range s.relTypes {
		types = append(types, rt)
	}
	sort.Slice(types, func(i, j int) bool { return types[i].Name < types[j].Name })
	return types
}
