package query

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/DennisN22042003/H3imd3ll/internal/fact"
	"github.com/DennisN22042003/H3imd3ll/internal/ledger"
	"github.com/DennisN22042003/H3imd3ll/internal/state"
)

// Case is a logical grouping of related entities and the facts that concern
// them: an investigation, a narrative thread, any cluster worth naming.
// Cases are derived query results; pinning a case onto the graph itself is
// done through ordinary attribute facts, not a separate store.
type Case struct {
	ID          string
	Name        string
	Description string
	CreatedAt   int64
	// EntityIDs are the involved entities, sorted.
	EntityIDs []string
	// Facts are the relevant log records in seq order.
	Facts []fact.Fact
}

// InvolvesEntity reports whether entityID is part of the case.
func (c *Case) InvolvesEntity(entityID string) bool {
	i := sort.SearchStrings(c.EntityIDs, entityID)
	return i < len(c.EntityIDs) && c.EntityIDs[i] == entityID
}

// CaseBuilder expands a seed entity through its connections up to a maximum
// depth and gathers every fact involving the collected entities, optionally
// restricted to a time window.
type CaseBuilder struct {
	led *ledger.Ledger
	st  *state.State

	seed  string
	depth int
	from  *int64
	to    *int64
}

// NewCaseBuilder starts a builder around a seed entity with a default
// depth of 2 and no time filter.
func NewCaseBuilder(led *ledger.Ledger, st *state.State, seedEntityID string) *CaseBuilder {
	return &CaseBuilder{led: led, st: st, seed: seedEntityID, depth: 2}
}

// WithDepth sets the maximum expansion depth.
func (b *CaseBuilder) WithDepth(depth int) *CaseBuilder {
	b.depth = depth
	return b
}

// WithTimeRange restricts collected facts to [from, to]. Nil bounds are
// open.
func (b *CaseBuilder) WithTimeRange(from, to *int64) *CaseBuilder {
	b.from = from
	b.to = to
	return b
}

// Build collects related entities and their facts into a Case. Expansion
// crosses relationships regardless of validity interval - an ended
// relationship still ties its endpoints to the investigation.
func (b *CaseBuilder) Build(ctx context.Context, name, description string) (*Case, error) {
	if _, err := b.st.Current(b.seed); err != nil {
		return nil, err
	}

	related := b.collectRelated()

	var (
		facts []fact.Fact
		err   error
	)
	q := TimelineQuery{From: b.from, To: b.to}
	facts, err = Timeline(ctx, b.led, b.st, q)
	if err != nil {
		return nil, err
	}

	inCase := make(map[string]struct{}, len(related))
	for _, id := range related {
		inCase[id] = struct{}{}
	}
	kept := facts[:0]
	for _, f := range facts {
		for id := range inCase {
			if involves(b.st, f, id) {
				kept = append(kept, f)
				break
			}
		}
	}

	sort.Strings(related)
	return &Case{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		CreatedAt:   time.Now().UnixMilli(),
		EntityIDs:   related,
		Facts:       kept,
	}, nil
}

// collectRelated runs a breadth-first expansion from the seed over incident
// relationships, ignoring validity, up to the configured depth.
func (b *CaseBuilder) collectRelated() []string {
	reached := map[string]struct{}{b.seed: {}}
	frontier := []string{b.seed}

	for d := 0; d < b.depth && len(frontier) > 0; d++ {
		var next []string
		for _, u := range frontier {
			rels := b.st.Incident(u)
			sort.Slice(rels, func(i, j int) bool { return rels[i].ID < rels[j].ID })
			for _, r := range rels {
				for _, w := range []string{r.SourceID, r.TargetID} {
					if _, seen := reached[w]; seen {
						continue
					}
					reached[w] = struct{}{}
					next = append(next, w)
				}
			}
		}
		frontier = next
	}

	out := make([]string, 0, len(reached))
	for id := range reached {
		out = append(out, id)
	}
	return out
}
