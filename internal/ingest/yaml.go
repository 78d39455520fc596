package ingest

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// ParseYAML reads a batch descriptor:
//
//	entities:
//	  - id: alice
//	    kind: person
//	    name: Alice Smith
//	    attrs: {role: analyst}
//	    valid_from: 1700000000000
//	relationships:
//	  - source: alice
//	    target: acme
//	    type: works_at
//	    valid_from: 1700000000000
//
// Unknown fields are a parse error so that typos surface instead of
// silently dropping data.
func ParseYAML(r io.Reader) (*Batch, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	b := &Batch{}
	if err := dec.Decode(b); err != nil {
		if err == io.EOF {
			return b, nil
		}
		return nil, fmt.Errorf("parse yaml batch: %w", err)
	}
	return b, nil
}
