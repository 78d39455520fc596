package export

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/DennisN22042003/H3imd3ll/internal/query"
)

// DOTExporter renders a view as a Graphviz digraph. Undirected
// relationships are drawn with dir=none rather than switching the graph
// kind, so one output handles mixed directedness.
type DOTExporter struct{}

// Export writes the view in DOT syntax.
func (x *DOTExporter) Export(w io.Writer, v *query.View) error {
	var b strings.Builder
	b.WriteString("digraph h3imd3ll {\n")
	fmt.Fprintf(&b, "  // as of %d\n", v.AsOf())

	for _, n := range v.Nodes() {
		attrs := []string{
			fmt.Sprintf("label=%s", quote(nodeLabel(n))),
			fmt.Sprintf("kind=%s", quote(n.Kind)),
		}
		for _, k := range sortedKeys(n.Attrs) {
			attrs = append(attrs, fmt.Sprintf("%s=%s", quote("attr_"+k), quote(n.Attrs[k])))
		}
		fmt.Fprintf(&b, "  %s [%s];\n", quote(n.ID), strings.Join(attrs, ", "))
	}

	for _, r := range v.Edges() {
		attrs := []string{fmt.Sprintf("label=%s", quote(r.Type))}
		if !r.Directed {
			attrs = append(attrs, "dir=none")
		}
		fmt.Fprintf(&b, "  %s -> %s [%s];\n",
			quote(r.SourceID), quote(r.TargetID), strings.Join(attrs, ", "))
	}

	b.WriteString("}\n")
	_, err := io.WriteString(w, b.String())
	return err
}

func nodeLabel(n query.Node) string {
	if n.Name != "" {
		return n.Name
	}
	return n.ID
}

// quote produces a double-quoted DOT identifier with the quote and
// backslash characters escaped.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		if r == '"' || r == '\\' {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	b.WriteByte('"')
	return b.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
