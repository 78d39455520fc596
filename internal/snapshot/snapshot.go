// Package snapshot bounds replay cost: it serializes the materialized
// stores together with the last fact seq they reflect, so a cold start can
// load the latest snapshot and replay only the log tail. Loading a snapshot
// is never required for correctness - a system with no snapshot rebuilds
// fully from seq 0.
package snapshot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/DennisN22042003/H3imd3ll/internal/ledger"
	"github.com/DennisN22042003/H3imd3ll/internal/state"
)

// Snapshot is a loaded checkpoint: the deserialized stores plus the seq
// they reflect.
type Snapshot struct {
	Seq   int64
	State *state.State
}

// Manager persists and loads snapshots through the ledger database.
type Manager struct {
	ledger *ledger.Ledger

	// interval is the number of applied facts between snapshots.
	// Zero disables the policy; Save can still be called explicitly.
	interval int64
	sinceLast int64
}

// NewManager returns a manager that suggests a snapshot every interval
// applied facts. The policy is caller-driven: the manager never snapshots
// on its own, it only answers Due.
func NewManager(l *ledger.Ledger, interval int64) *Manager {
	return &Manager{ledger: l, interval: interval}
}

// Observe records n newly applied facts and reports whether a snapshot is
// due under the configured interval policy.
func (m *Manager) Observe(n int64) bool {
	if m.interval <= 0 {
		return false
	}
	m.sinceLast += n
	return m.sinceLast >= m.interval
}

// Save serializes st and persists it keyed by st.LastApplied(). The write
// completes or fails atomically; a failure leaves any previous snapshot
// intact.
func (m *Manager) Save(ctx context.Context, st *state.State) error {
	data, err := st.MarshalCanonical()
	if err != nil {
		return fmt.Errorf("snapshot save: %w", err)
	}
	if err := m.ledger.WriteSnapshot(ctx, st.LastApplied(), data); err != nil {
		return fmt.Errorf("snapshot save: %w", err)
	}
	m.sinceLast = 0
	slog.Info("snapshot saved", "upto_seq", st.LastApplied(), "bytes", len(data))
	return nil
}

// LoadLatest returns the most recent snapshot, or nil if none exists.
func (m *Manager) LoadLatest(ctx context.Context) (*Snapshot, error) {
	rec, err := m.ledger.LatestSnapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot load: %w", err)
	}
	if rec == nil {
		return nil, nil
	}

	st, err := state.Unmarshal(rec.State)
	if err != nil {
		return nil, fmt.Errorf("snapshot load: seq %d: %w", rec.UptoSeq, err)
	}
	if st.LastApplied() != rec.UptoSeq {
		return nil, fmt.Errorf("snapshot load: state reflects seq %d but record says %d", st.LastApplied(), rec.UptoSeq)
	}
	return &Snapshot{Seq: rec.UptoSeq, State: st}, nil
}
