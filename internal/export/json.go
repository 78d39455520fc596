package export

import (
	"encoding/json"
	"io"

	"github.com/DennisN22042003/H3imd3ll/internal/query"
)

// JSONExporter renders a view as a single JSON document. Field order is
// fixed by the document structs and map keys are emitted sorted, so the
// output is stable across runs.
type JSONExporter struct{}

type jsonDoc struct {
	AsOf  int64      `json:"as_of"`
	Nodes []jsonNode `json:"nodes"`
	Edges []jsonEdge `json:"edges"`
}

type jsonNode struct {
	ID    string            `json:"id"`
	Kind  string            `json:"kind"`
	Name  string            `json:"name,omitempty"`
	Attrs map[string]string `json:"attrs,omitempty"`
}

type jsonEdge struct {
	ID        string            `json:"id"`
	Source    string            `json:"source"`
	Target    string            `json:"target"`
	Type      string            `json:"type"`
	Directed  bool              `json:"directed"`
	Attrs     map[string]string `json:"attrs,omitempty"`
	ValidFrom int64             `json:"valid_from"`
	ValidTo   *int64            `json:"valid_to,omitempty"`
}

// Export writes the view as indented JSON.
func (x *JSONExporter) Export(w io.Writer, v *query.View) error {
	doc := jsonDoc{AsOf: v.AsOf(), Nodes: []jsonNode{}, Edges: []jsonEdge{}}

	for _, n := range v.Nodes() {
		doc.Nodes = append(doc.Nodes, jsonNode{
			ID:    n.ID,
			Kind:  n.Kind,
			Name:  n.Name,
			Attrs: n.Attrs,
		})
	}

	for _, r := range v.Edges() {
		doc.Edges = append(doc.Edges, jsonEdge{
			ID:        r.ID,
			Source:    r.SourceID,
			Target:    r.TargetID,
			Type:      r.Type,
			Directed:  r.Directed,
			Attrs:     r.Attrs,
			ValidFrom: r.ValidFrom,
			ValidTo:   r.ValidTo,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(doc)
}
