// Package export renders a point-in-time view of the graph to interchange
// formats. Output is deterministic: nodes and edges are emitted in id order
// and attribute keys are sorted, so two exports of the same view are
// byte-identical.
package export

import (
	"io"

	"github.com/DennisN22042003/H3imd3ll/internal/query"
)

// Format names an export encoding.
type Format string

const (
	FormatDOT  Format = "dot"
	FormatJSON Format = "json"
)

// Exporter writes one encoding of a view.
type Exporter interface {
	Export(w io.Writer, v *query.View) error
}

// New returns the exporter for format, or false for an unknown format.
func New(format Format) (Exporter, bool) {
	switch format {
	case FormatDOT:
		return &DOTExporter{}, true
	case FormatJSON:
		return &JSONExporter{}, true
	default:
		return nil, false
	}
}
