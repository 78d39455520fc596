package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// SnapshotRecord is a serialized copy of materialized state plus the seq it
// reflects.
type SnapshotRecord struct {
	UptoSeq   int64
	State     []byte
	CreatedAt int64
}

// WriteSnapshot persists a snapshot of materialized state. The write is a
// single transaction: either the full snapshot lands or nothing does.
// Writing a snapshot for an upto_seq that already has one replaces it.
func (l *Ledger) WriteSnapshot(ctx context.Context, uptoSeq int64, state []byte) error {
	if uptoSeq < 0 {
		return fmt.Errorf("write snapshot: negative seq %d", uptoSeq)
	}

	_, err := l.db.ExecContext(ctx, `
		INSERT INTO snapshots (upto_seq, state, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(upto_seq) DO UPDATE SET state = excluded.state, created_at = excluded.created_at
	`, uptoSeq, state, time.Now().UnixMilli())
	if err != nil {
		return &DurabilityError{Op: "write snapshot", Err: err}
	}
	return nil
}

// LatestSnapshot returns the snapshot with the highest upto_seq, or
// (nil, nil) if no snapshot exists. A missing snapshot is never an error:
// rebuild from seq 0 is always possible.
func (l *Ledger) LatestSnapshot(ctx context.Context) (*SnapshotRecord, error) {
	var rec SnapshotRecord
	err := l.db.QueryRowContext(ctx, `
		SELECT upto_seq, state, created_at
		FROM snapshots
		ORDER BY upto_seq DESC
		LIMIT 1
	`).Scan(&rec.UptoSeq, &rec.State, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read latest snapshot: %w", err)
	}
	return &rec, nil
}
