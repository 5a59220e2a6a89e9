package outbox

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// PostgresStore persists outbox tasks in the gateway's own database so
// side effects survive restarts.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Enqueue(ctx context.Context, task Task) error {
	params, err := json.Marshal(task.Params)
	if err != nil {
		return fmt.Errorf("encode task params: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO outbox_tasks (id, kind, order_id, params, attempts, next_attempt, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		task.ID, string(task.Kind), task.OrderID, params, task.Attempts, task.NextAttempt, task.CreatedAt)
	if err != nil {
		return fmt.Errorf("enqueue task: %w", err)
	}
	return nil
}

func (s *PostgresStore) Due(ctx context.Context, now time.Time, limit int) ([]Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, order_id, params, attempts, next_attempt, created_at
		FROM outbox_tasks
		WHERE next_attempt <= $1
		ORDER BY next_attempt
		LIMIT $2`, now, limit)
	if err != nil {
		return nil, fmt.Errorf("query due tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var t Task
		var kind string
		var params []byte
		if err := rows.Scan(&t.ID, &kind, &t.OrderID, &params, &t.Attempts, &t.NextAttempt, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		t.Kind = TaskKind(kind)
		if len(params) > 0 {
			if err := json.Unmarshal(params, &t.Params); err != nil {
				return nil, fmt.Errorf("decode task params: %w", err)
			}
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (s *PostgresStore) MarkDone(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM outbox_tasks WHERE id = $1`, id)
	return err
}

func (s *PostgresStore) Reschedule(ctx context.Context, id string, attempts int, next time.Time, lastErr string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE outbox_tasks SET attempts = $2, next_attempt = $3, last_error = $4 WHERE id = $1`,
		id, attempts, next, lastErr)
	return err
}

func (s *PostgresStore) Depth(ctx context.Context) (int, error) {
	var depth int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM outbox_tasks`).Scan(&depth)
	return depth, err
}
