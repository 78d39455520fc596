package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/DennisN22042003/H3imd3ll/internal/fact"
)

// DurabilityError reports that an append could not be persisted. The caller
// must not assume the fact was recorded.
type DurabilityError struct {
	Op  string
	Err error
}

func (e *DurabilityError) Error() string {
	return fmt.Sprintf("ledger durability: %s: %v", e.Op, e.Err)
}

func (e *DurabilityError) Unwrap() error { return e.Err }

// IsDurabilityError reports whether err is (or wraps) a DurabilityError.
func IsDurabilityError(err error) bool {
	var de *DurabilityError
	return errors.As(err, &de)
}

// Append durably persists a fact and returns its assigned sequence number.
//
// The sequence number is computed as last+1 inside the transaction, so the
// sequence is gap-free and strictly increasing. Callers never construct
// sequence numbers themselves. Concurrent appends are serialized; the write
// either commits fully or not at all.
func (l *Ledger) Append(ctx context.Context, ts int64, kind fact.Kind, payload fact.Payload) (int64, error) {
	if !kind.Valid() {
		return 0, fmt.Errorf("append: unknown fact kind %q", kind)
	}
	if payload.FactKind() != kind {
		return 0, fmt.Errorf("append: payload kind %q does not match %q", payload.FactKind(), kind)
	}

	data, err := fact.EncodePayload(payload)
	if err != nil {
		return 0, fmt.Errorf("append: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, &DurabilityError{Op: "begin tx", Err: err}
	}
	defer tx.Rollback() // No-op if committed

	var last int64
	if err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM facts
	`).Scan(&last); err != nil {
		return 0, &DurabilityError{Op: "read last seq", Err: err}
	}
	seq := last + 1

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO facts (seq, ts, kind, payload)
		VALUES (?, ?, ?, ?)
	`, seq, ts, string(kind), string(data)); err != nil {
		return 0, &DurabilityError{Op: "insert fact", Err: err}
	}

	if err := tx.Commit(); err != nil {
		return 0, &DurabilityError{Op: "commit", Err: err}
	}

	return seq, nil
}
