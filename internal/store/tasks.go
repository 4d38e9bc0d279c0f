package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"cardwatch/internal/services"
	"cardwatch/internal/task"
)

// taskDoc is the tolerant decode shape for stored task documents. Timestamp
// fields are read as text and coerced; unparseable values are treated as
// absent rather than failing the read.
type taskDoc struct {
	Name        string    `json:"name"`
	Status      string    `json:"status"`
	PlannedAt   string    `json:"plannedAt"`
	StartedAt   string    `json:"startedAt"`
	CompletedAt string    `json:"completedAt"`
	Order       int       `json:"order"`
	ProjectRef  string    `json:"projectRef"`
	Subtasks    []taskDoc `json:"subtasks"`
}

func (s *Store) decodeTask(d taskDoc) task.Task {
	t := task.Task{
		Name:       d.Name,
		Order:      d.Order,
		ProjectRef: d.ProjectRef,
	}
	if status, err := task.ParseStatus(d.Status); err == nil {
		t.Status = status
	} else {
		t.Status = task.StatusNotStarted
	}
	t.PlannedAt = s.coerce(d.PlannedAt)
	t.StartedAt = s.coerce(d.StartedAt)
	t.CompletedAt = s.coerce(d.CompletedAt)
	for _, sub := range d.Subtasks {
		t.Subtasks = append(t.Subtasks, s.decodeTask(sub))
	}
	return t
}

func (s *Store) coerce(raw string) *time.Time {
	if t, ok := task.CoerceTime(raw, s.loc); ok {
		return &t
	}
	return nil
}

// MergeTask applies a merge-write to a task document: fields present in the
// update overwrite, fields absent are left untouched. The document is
// created when missing.
func (s *Store) MergeTask(ctx context.Context, dailyID, docID string, fields map[string]any) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		return s.mergeTaskOnce(ctx, dailyID, docID, fields)
	})
}

func (s *Store) mergeTaskOnce(ctx context.Context, dailyID, docID string, fields map[string]any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin merge tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var existing []byte
	err = tx.QueryRowContext(ctx,
		`SELECT body_json FROM daily_tasks WHERE daily_id = ? AND doc_id = ?`,
		dailyID, docID,
	).Scan(&existing)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("read task document: %w", err)
	}

	merged, err := mergeJSON(existing, fields)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = tx.ExecContext(ctx,
		`INSERT INTO daily_tasks (daily_id, doc_id, body_json, updated_at) VALUES (?, ?, ?, ?)
         ON CONFLICT(daily_id, doc_id) DO UPDATE SET body_json = excluded.body_json, updated_at = excluded.updated_at`,
		dailyID, docID, string(merged), now,
	)
	if err != nil {
		return fmt.Errorf("write task document: %w", err)
	}
	return tx.Commit()
}

// MergeTaskRecord merge-writes a full task record. Unset optional fields are
// omitted from the update, so previously stored values survive.
func (s *Store) MergeTaskRecord(ctx context.Context, dailyID, docID string, t task.Task) error {
	fields, err := asFields(t)
	if err != nil {
		return err
	}
	return s.MergeTask(ctx, dailyID, docID, fields)
}

// PutTask fully overwrites a task document.
func (s *Store) PutTask(ctx context.Context, dailyID, docID string, t task.Task) error {
	body, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("encode task: %w", err)
	}
	now := time.Now().UTC().Format(time.RFC3339Nano)
	return s.execWithRetry(ctx,
		`INSERT INTO daily_tasks (daily_id, doc_id, body_json, updated_at) VALUES (?, ?, ?, ?)
         ON CONFLICT(daily_id, doc_id) DO UPDATE SET body_json = excluded.body_json, updated_at = excluded.updated_at`,
		dailyID, docID, string(body), now,
	)
}

// UpdateTaskFields applies a field-level update to an existing document and
// fails with a document-missing marker when the target does not exist, so
// the caller can fall back to a create.
func (s *Store) UpdateTaskFields(ctx context.Context, dailyID, docID string, fields map[string]any) error {
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		return s.updateTaskFieldsOnce(ctx, dailyID, docID, fields)
	})
}

func (s *Store) updateTaskFieldsOnce(ctx context.Context, dailyID, docID string, fields map[string]any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var existing []byte
	err = tx.QueryRowContext(ctx,
		`SELECT body_json FROM daily_tasks WHERE daily_id = ? AND doc_id = ?`,
		dailyID, docID,
	).Scan(&existing)
	if errors.Is(err, sql.ErrNoRows) {
		return services.Wrap(services.ErrDocumentMissing, "update task", docID, "no such document", nil)
	}
	if err != nil {
		return fmt.Errorf("read task document: %w", err)
	}

	merged, err := mergeJSON(existing, fields)
	if err != nil {
		return err
	}

	now := time.Now().UTC().Format(time.RFC3339Nano)
	_, err = tx.ExecContext(ctx,
		`UPDATE daily_tasks SET body_json = ?, updated_at = ? WHERE daily_id = ? AND doc_id = ?`,
		string(merged), now, dailyID, docID,
	)
	if err != nil {
		return fmt.Errorf("update task document: %w", err)
	}
	return tx.Commit()
}

// Tasks returns all top-level tasks for a day, ordered by their order field.
func (s *Store) Tasks(ctx context.Context, dailyID string) ([]task.Task, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx,
		`SELECT body_json FROM daily_tasks WHERE daily_id = ?`, dailyID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []task.Task
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		var doc taskDoc
		if err := json.Unmarshal(body, &doc); err != nil {
			return nil, fmt.Errorf("decode task document: %w", err)
		}
		tasks = append(tasks, s.decodeTask(doc))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}
	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].Order < tasks[j].Order })
	return tasks, nil
}

// TaskByDoc fetches a single task document by its encoded key.
func (s *Store) TaskByDoc(ctx context.Context, dailyID, docID string) (task.Task, bool, error) {
	ctx = ensureContext(ctx)
	var body []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT body_json FROM daily_tasks WHERE daily_id = ? AND doc_id = ?`,
		dailyID, docID,
	).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return task.Task{}, false, nil
	}
	if err != nil {
		return task.Task{}, false, fmt.Errorf("get task: %w", err)
	}
	var doc taskDoc
	if err := json.Unmarshal(body, &doc); err != nil {
		return task.Task{}, false, fmt.Errorf("decode task document: %w", err)
	}
	return s.decodeTask(doc), true, nil
}
