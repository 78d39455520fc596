package ledger

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/DennisN22042003/H3imd3ll/internal/fact"
)

// ReadFrom returns all facts with seq >= from, ordered by seq ascending.
// The result is finite as of call time: facts appended concurrently with the
// read are not guaranteed to appear; re-issue the call to pick them up.
//
// Returns an empty slice (not nil) if there are no matching facts.
func (l *Ledger) ReadFrom(ctx context.Context, from int64) ([]fact.Fact, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT seq, ts, kind, payload
		FROM facts
		WHERE seq >= ?
		ORDER BY seq ASC
	`, from)
	if err != nil {
		return nil, fmt.Errorf("query facts: %w", err)
	}
	defer rows.Close()

	facts, err := scanFacts(rows)
	if err != nil {
		return nil, err
	}
	return facts, nil
}

// ReadRange returns facts whose wall-clock timestamp falls within
// [fromTS, toTS], ordered by seq ascending. Used by timeline queries; the
// idx_facts_ts index keeps this from scanning the whole log.
func (l *Ledger) ReadRange(ctx context.Context, fromTS, toTS int64) ([]fact.Fact, error) {
	rows, err := l.db.QueryContext(ctx, `
		SELECT seq, ts, kind, payload
		FROM facts
		WHERE ts >= ? AND ts <= ?
		ORDER BY seq ASC
	`, fromTS, toTS)
	if err != nil {
		return nil, fmt.Errorf("query facts by time: %w", err)
	}
	defer rows.Close()

	facts, err := scanFacts(rows)
	if err != nil {
		return nil, err
	}
	return facts, nil
}

func scanFacts(rows *sql.Rows) ([]fact.Fact, error) {
	var facts []fact.Fact
	for rows.Next() {
		var (
			f       fact.Fact
			kind    string
			payload string
		)
		if err := rows.Scan(&f.Seq, &f.Timestamp, &kind, &payload); err != nil {
			return nil, fmt.Errorf("scan fact: %w", err)
		}
		f.Kind = fact.Kind(kind)

		p, err := fact.DecodePayload(f.Kind, []byte(payload))
		if err != nil {
			return nil, fmt.Errorf("fact seq %d: %w", f.Seq, err)
		}
		f.Payload = p
		facts = append(facts, f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate facts: %w", err)
	}

	if facts == nil {
		facts = []fact.Fact{}
	}
	return facts, nil
}
