package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cardwatch/internal/task"
)

type dailyMetaDoc struct {
	Date          string `json:"date"`
	CreatedAt     string `json:"createdAt"`
	UpdatedAt     string `json:"updatedAt"`
	CardScannedAt string `json:"cardScannedAt"`
}

// UpsertDailyMeta merge-writes the metadata blob of a daily record. Fields
// absent from the update keep their stored value, so createdAt survives
// later writes untouched.
func (s *Store) UpsertDailyMeta(ctx context.Context, dailyID string, fields map[string]any) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		return s.upsertDailyMetaOnce(ctx, dailyID, fields)
	})
}

func (s *Store) upsertDailyMetaOnce(ctx context.Context, dailyID string, fields map[string]any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin daily tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var existing []byte
	err = tx.QueryRowContext(ctx,
		`SELECT meta_json FROM dailies WHERE id = ?`, dailyID,
	).Scan(&existing)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read daily record: %w", err)
	}

	merged, err := mergeJSON(existing, fields)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO dailies (id, meta_json, updated_at) VALUES (?, ?, ?)
         ON CONFLICT(id) DO UPDATE SET meta_json = excluded.meta_json, updated_at = excluded.updated_at`,
		dailyID, string(merged), now,
	)
	if err != nil {
		return fmt.Errorf("write daily record: %w", err)
	}
	return tx.Commit()
}

// DailyMeta returns the metadata for a daily record, reporting existence.
func (s *Store) DailyMeta(ctx context.Context, dailyID string) (task.DailyMeta, bool, error) {
	ctx = ensureContext(ctx)
	var body []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT meta_json FROM dailies WHERE id = ?`, dailyID,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return task.DailyMeta{}, false, nil
	}
	if err != nil {
		return task.DailyMeta{}, false, fmt.Errorf("get daily record: %w", err)
	}

	var doc dailyMetaDoc
	if err := json.Unmarshal(body, &doc); err != nil {
		return task.DailyMeta{}, false, fmt.Errorf("decode daily meta: %w", err)
	}
	meta := task.DailyMeta{
		Date:          doc.Date,
		CreatedAt:     s.coerce(doc.CreatedAt),
		UpdatedAt:     s.coerce(doc.UpdatedAt),
		CardScannedAt: s.coerce(doc.CardScannedAt),
	}
	return meta, true, nil
}

// DailyIDs lists known daily records, newest first.
func (s *Store) DailyIDs(ctx context.Context) ([]string, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM dailies ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("list dailies: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan daily id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dailies: %w", err)
	}
	return ids, nil
}
