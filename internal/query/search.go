package query

import (
	"sort"

	"golang.org/x/text/unicode/norm"
)

// SearchQuery is a predicate over entity attributes.
type SearchQuery struct {
	// Attr is the attribute to match. "name" falls back to the entity
	// name when the attribute map has no explicit name key.
	Attr string
	// Value is the wanted value.
	Value string
	// Kind, when set, restricts results to entities of that kind.
	Kind string
	// Threshold is the minimum similarity for fuzzy matches, in (0, 1].
	// Zero disables fuzzy matching entirely.
	Threshold float64
}

// Match is one search result.
type Match struct {
	Node  Node
	Score float64
	Exact bool
}

// Search evaluates q against every entity in the view.
//
// Ranking: exact matches first (ordered by entity id), then fuzzy matches
// with similarity >= q.Threshold ordered by descending similarity, ties
// broken by entity id, so results are deterministic.
func Search(v *View, q SearchQuery) []Match {
	if q.Attr == "" {
		q.Attr = "name"
	}
	want := norm.NFC.String(q.Value)

	var exact, fuzzy []Match
	for _, n := range v.Nodes() {
		if q.Kind != "" && n.Kind != q.Kind {
			continue
		}
		val, ok := n.Attrs[q.Attr]
		if !ok && q.Attr == "name" {
			val = n.Name
			ok = n.Name != ""
		}
		if !ok {
			continue
		}
		val = norm.NFC.String(val)

		if val == want {
			exact = append(exact, Match{Node: n, Score: 1, Exact: true})
			continue
		}
		if q.Threshold > 0 {
			if score := similarity(want, val); score >= q.Threshold {
				fuzzy = append(fuzzy, Match{Node: n, Score: score})
			}
		}
	}

	// Nodes() is id-sorted, so exact is already ordered by entity id.
	sort.SliceStable(fuzzy, func(i, j int) bool {
		if fuzzy[i].Score != fuzzy[j].Score {
			return fuzzy[i].Score > fuzzy[j].Score
		}
		return fuzzy[i].Node.ID < fuzzy[j].Node.ID
	})

	return append(exact, fuzzy...)
}

// similarity is 1 - d/maxLen where d is the Levenshtein distance over
// runes. Equal strings score 1, fully dissimilar strings score 0.
func similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}

// levenshtein computes edit distance with a single-row buffer.
func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	row := make([]int, len(b)+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= len(a); i++ {
		prev := row[0]
		row[0] = i
		for j := 1; j <= len(b); j++ {
			cur := row[j]
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			row[j] = min3(row[j]+1, row[j-1]+1, prev+cost)
			prev = cur
		}
	}
	return row[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
