// Package engine ties the ledger, the materialized stores, the schema and
// the snapshot manager together behind a single-writer facade. All mutation
// flows through one path: validate against the stores, append to the ledger,
// apply to the stores. The log therefore never records a fact that cannot
// be applied, and the stores are always the fold of the log.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/DennisN22042003/H3imd3ll/internal/fact"
	"github.com/DennisN22042003/H3imd3ll/internal/ledger"
	"github.com/DennisN22042003/H3imd3ll/internal/query"
	"github.com/DennisN22042003/H3imd3ll/internal/schema"
	"github.com/DennisN22042003/H3imd3ll/internal/snapshot"
	"github.com/DennisN22042003/H3imd3ll/internal/state"
)

// Options configures an Engine.
type Options struct {
	// SnapshotInterval is the number of applied facts between automatic
	// snapshots. Zero disables automatic snapshots.
	SnapshotInterval int64
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Engine is the write-path owner. One Engine per database; mutations are
// serialized under a write lock, queries run under a read lock so they never
// observe a partially applied fact.
type Engine struct {
	mu sync.RWMutex

	schema *schema.Schema
	led    *ledger.Ledger
	st     *state.State
	clock  *Clock
	snaps  *snapshot.Manager
	log    *slog.Logger
}

// Open opens the ledger database at path and rebuilds the materialized
// stores: latest snapshot first (if any), then the log tail. Any sequence
// break or unappliable fact during rebuild is fatal.
func Open(ctx context.Context, path string, sch *schema.Schema, opts Options) (*Engine, error) {
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	led, err := ledger.Open(path)
	if err != nil {
		return nil, err
	}

	snaps := snapshot.NewManager(led, opts.SnapshotInterval)

	st := state.New()
	if snap, err := snaps.LoadLatest(ctx); err != nil {
		led.Close()
		return nil, err
	} else if snap != nil {
		st = snap.State
		log.Info("snapshot loaded", "upto_seq", snap.Seq)
	}

	tail, err := led.ReadFrom(ctx, st.LastApplied()+1)
	if err != nil {
		led.Close()
		return nil, err
	}
	if err := st.Replay(tail); err != nil {
		led.Close()
		return nil, fmt.Errorf("rebuild: %w", err)
	}

	last, err := led.LastSeq(ctx)
	if err != nil {
		led.Close()
		return nil, err
	}
	if last != st.LastApplied() {
		led.Close()
		return nil, fmt.Errorf("rebuild: ledger at seq %d but state reflects %d", last, st.LastApplied())
	}

	log.Info("engine open",
		"path", path,
		"last_seq", last,
		"entities", st.EntityCount(),
		"relationships", st.RelationshipCount())

	return &Engine{
		schema: sch,
		led:    led,
		st:     st,
		clock:  NewClockAt(last),
		snaps:  snaps,
		log:    log,
	}, nil
}

// Close snapshots the current stores and closes the ledger. Safe to call on
// an engine that never appended anything.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.st.LastApplied() > 0 {
		if err := e.snaps.Save(ctx, e.st); err != nil {
			e.log.Warn("final snapshot failed", "error", err)
		}
	}
	return e.led.Close()
}

// Schema returns the schema the engine validates against.
func (e *Engine) Schema() *schema.Schema { return e.schema }

// LastSeq returns the seq of the last applied fact.
func (e *Engine) LastSeq() int64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.st.LastApplied()
}

// CreateEntity registers a new entity and returns its id and the fact's
// assigned seq. An empty id asks the engine to generate one.
func (e *Engine) CreateEntity(ctx context.Context, ts int64, id, kind, name string, attrs map[string]string, validFrom int64) (string, int64, error) {
	if !e.schema.HasEntityKind(kind) {
		return "", 0, &state.ApplyError{
			Code:    state.ErrCodeIntegrity,
			Message: fmt.Sprintf("entity kind %q is not declared in the schema", kind),
		}
	}
	if id == "" {
		id = uuid.NewString()
	}
	seq, err := e.submit(ctx, ts, fact.EntityCreatedPayload{
		EntityID:   id,
		EntityKind: kind,
		Name:       name,
		Attrs:      attrs,
		ValidFrom:  validFrom,
	})
	return id, seq, err
}

// AddVersion records a new attribute version for an existing entity.
func (e *Engine) AddVersion(ctx context.Context, ts int64, entityID string, attrs map[string]string, validFrom int64) (int64, error) {
	return e.submit(ctx, ts, fact.EntityVersionedPayload{
		EntityID:  entityID,
		Attrs:     attrs,
		ValidFrom: validFrom,
	})
}

// Relate creates a relationship between two existing entities. Directedness
// comes from the schema's declaration of relType and is recorded in the fact
// itself, so replay does not depend on the schema. An empty relID asks the
// engine to generate one.
func (e *Engine) Relate(ctx context.Context, ts int64, relID, sourceID, targetID, relType string, attrs map[string]string, validFrom int64, validTo *int64) (string, int64, error) {
	rt, ok := e.schema.RelationshipType(relType)
	if !ok {
		return "", 0, &state.ApplyError{
			Code:    state.ErrCodeIntegrity,
			Message: fmt.Sprintf("relationship type %q is not declared in the schema", relType),
		}
	}
	if relID == "" {
		relID = uuid.NewString()
	}
	seq, err := e.submit(ctx, ts, fact.RelationshipCreatedPayload{
		RelID:     relID,
		SourceID:  sourceID,
		TargetID:  targetID,
		RelType:   relType,
		Directed:  rt.Directed,
		Attrs:     attrs,
		ValidFrom: validFrom,
		ValidTo:   validTo,
	})
	return relID, seq, err
}

// EndRelationship closes an open relationship's validity interval.
func (e *Engine) EndRelationship(ctx context.Context, ts int64, relID string, validTo int64) (int64, error) {
	return e.submit(ctx, ts, fact.RelationshipEndedPayload{
		RelID:   relID,
		ValidTo: validTo,
	})
}

// SetRelationshipAttrs merges attrs over a relationship's attribute map.
func (e *Engine) SetRelationshipAttrs(ctx context.Context, ts int64, relID string, attrs map[string]string) (int64, error) {
	return e.submit(ctx, ts, fact.RelationshipAttributeChangedPayload{
		RelID: relID,
		Attrs: attrs,
	})
}

// submit is the single write path: check, append, apply, all under the
// write lock. A Check failure rejects the fact before it touches the log.
// An Apply failure after a successful append means the log and the stores
// disagree, which the engine treats as fatal for the process.
func (e *Engine) submit(ctx context.Context, ts int64, p fact.Payload) (int64, error) {
	if ts == 0 {
		ts = time.Now().UnixMilli()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.st.Check(p); err != nil {
		return 0, err
	}

	seq, err := e.led.Append(ctx, ts, p.FactKind(), p)
	if err != nil {
		return 0, err
	}
	if want := e.clock.Next(); seq != want {
		return 0, fmt.Errorf("submit: ledger assigned seq %d, expected %d", seq, want)
	}

	if err := e.st.Apply(fact.Fact{Seq: seq, Timestamp: ts, Kind: p.FactKind(), Payload: p}); err != nil {
		return 0, fmt.Errorf("submit: appended seq %d but apply failed: %w", seq, err)
	}

	e.log.Debug("fact applied", "seq", seq, "kind", string(p.FactKind()))

	if e.snaps.Observe(1) {
		if err := e.snaps.Save(ctx, e.st); err != nil {
			e.log.Warn("interval snapshot failed", "seq", seq, "error", err)
		}
	}
	return seq, nil
}

// Snapshot persists a snapshot of the current stores immediately,
// independent of the interval policy.
func (e *Engine) Snapshot(ctx context.Context) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.snaps.Save(ctx, e.st)
}

// Read runs fn against the materialized stores under the read lock. fn must
// not retain the *state.State or any pointer obtained from it beyond the
// call; copy what it needs into the closure's result.
func (e *Engine) Read(fn func(st *state.State) error) error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return fn(e.st)
}

// Current returns the entity's latest version.
func (e *Engine) Current(entityID string) (state.Version, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.st.Current(entityID)
}

// AsOf returns the entity's version as of time t.
func (e *Engine) AsOf(entityID string, t int64) (state.Version, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.st.AsOf(entityID, t)
}

// History returns the entity's full version sequence.
func (e *Engine) History(entityID string) ([]state.Version, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.st.History(entityID)
}

// Search runs a fuzzy attribute search against the view as of time t.
func (e *Engine) Search(t int64, q query.SearchQuery) []query.Match {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return query.Search(query.NewView(e.st, t), q)
}

// ShortestPath returns the relationship ids of a minimal path between two
// entities over edges valid at time t, or nil if none exists.
func (e *Engine) ShortestPath(t int64, sourceID, targetID string) []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return query.ShortestPath(query.NewView(e.st, t), sourceID, targetID)
}

// EgoNetwork returns the induced subgraph around entityID within depth hops
// as of time t.
func (e *Engine) EgoNetwork(t int64, entityID string, depth int) (*query.Subgraph, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	sub, err := query.EgoNetwork(query.NewView(e.st, t), entityID, depth)
	if err != nil {
		return nil, err
	}
	out := &query.Subgraph{Center: sub.Center, Nodes: sub.Nodes}
	out.Edges = copyRels(sub.Edges)
	return out, nil
}

// TimeSlice returns the relationships incident to entityID intersecting
// [start, end).
func (e *Engine) TimeSlice(entityID string, start, end int64) ([]*state.Relationship, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	rels, err := query.TimeSlice(e.st, entityID, start, end)
	if err != nil {
		return nil, err
	}
	return copyRels(rels), nil
}

// Window returns every relationship intersecting [start, end).
func (e *Engine) Window(start, end int64) []*state.Relationship {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return copyRels(e.st.Window(start, end))
}

// Timeline returns the facts matching q in log order.
func (e *Engine) Timeline(ctx context.Context, q query.TimelineQuery) ([]fact.Fact, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return query.Timeline(ctx, e.led, e.st, q)
}

// BuildCase expands seedEntityID through its connections and collects the
// facts involving the result.
func (e *Engine) BuildCase(ctx context.Context, seedEntityID, name, description string, depth int, from, to *int64) (*query.Case, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	b := query.NewCaseBuilder(e.led, e.st, seedEntityID).WithDepth(depth).WithTimeRange(from, to)
	return b.Build(ctx, name, description)
}

// ReplayReport is the result of a replay verification pass.
type ReplayReport struct {
	// LastSeq is the seq both rebuilds ran up to.
	LastSeq int64
	// LiveDigest is the digest of the in-memory stores.
	LiveDigest string
	// FullDigest is the digest after a full rebuild from seq 1.
	FullDigest string
	// SnapshotDigest is the digest after rebuilding from the latest
	// snapshot plus the log tail; equals FullDigest when no snapshot
	// exists.
	SnapshotDigest string
	// Consistent is true when all three digests agree.
	Consistent bool
}

// VerifyReplay rebuilds the stores twice, once from scratch and once from
// the latest snapshot, and compares their canonical digests against the
// live stores. Divergence means the log, the snapshot or the apply logic
// is broken.
func (e *Engine) VerifyReplay(ctx context.Context) (*ReplayReport, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	live, err := e.st.Digest()
	if err != nil {
		return nil, err
	}

	full := state.New()
	facts, err := e.led.ReadFrom(ctx, 1)
	if err != nil {
		return nil, err
	}
	if err := full.Replay(facts); err != nil {
		return nil, fmt.Errorf("verify replay: full rebuild: %w", err)
	}
	fullDigest, err := full.Digest()
	if err != nil {
		return nil, err
	}

	snapDigest := fullDigest
	if snap, err := e.snaps.LoadLatest(ctx); err != nil {
		return nil, err
	} else if snap != nil {
		tail, err := e.led.ReadFrom(ctx, snap.Seq+1)
		if err != nil {
			return nil, err
		}
		if err := snap.State.Replay(tail); err != nil {
			return nil, fmt.Errorf("verify replay: snapshot rebuild: %w", err)
		}
		snapDigest, err = snap.State.Digest()
		if err != nil {
			return nil, err
		}
	}

	return &ReplayReport{
		LastSeq:        e.st.LastApplied(),
		LiveDigest:     live,
		FullDigest:     fullDigest,
		SnapshotDigest: snapDigest,
		Consistent:     live == fullDigest && live == snapDigest,
	}, nil
}

// copyRels copies relationship values out of the stores so results stay
// stable after the read lock is released.
func copyRels(rels []*state.Relationship) []*state.Relationship {
	out := make([]*state.Relationship, len(rels))
	for i, r := range rels {
		c := *r
		out[i] = &c
	}
	return out
}
