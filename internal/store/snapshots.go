package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"cardwatch/internal/task"
)

// SnapshotBody is one append-only audit document: the complete reconciled
// tree plus daily metadata as of a single write. Never mutated after
// creation.
type SnapshotBody struct {
	Meta  task.DailyMeta `json:"meta"`
	Tasks []task.Task    `json:"tasks"`
}

// AppendSnapshot records an audit snapshot keyed by the write timestamp.
func (s *Store) AppendSnapshot(ctx context.Context, dailyID, key string, body SnapshotBody) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return s.execWithRetry(ctx,
		`INSERT INTO daily_snapshots (daily_id, snapshot_key, body_json) VALUES (?, ?, ?)`,
		dailyID, key, string(raw),
	)
}

// SnapshotKeys lists a day's audit snapshot keys in write order.
func (s *Store) SnapshotKeys(ctx context.Context, dailyID string) ([]string, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT snapshot_key FROM daily_snapshots WHERE daily_id = ? ORDER BY snapshot_key`, dailyID)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("scan snapshot key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshots: %w", err)
	}
	return keys, nil
}

// Snapshot fetches one audit snapshot by key.
func (s *Store) Snapshot(ctx context.Context, dailyID, key string) (SnapshotBody, bool, error) {
	ctx = ensureContext(ctx)
	var raw []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT body_json FROM daily_snapshots WHERE daily_id = ? AND snapshot_key = ?`,
		dailyID, key,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return SnapshotBody{}, false, nil
	}
	if err != nil {
		return SnapshotBody{}, false, fmt.Errorf("get snapshot: %w", err)
	}
	var body SnapshotBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return SnapshotBody{}, false, fmt.Errorf("decode snapshot: %w", err)
	}
	return body, true, nil
}
