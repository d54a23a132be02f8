package database

import (
	"context"
	"fmt"
	"time"

	"rentease/internal/models"
)

// Notification task queue, polled by the worker when redis and the in-memory
// queue are both empty.

func (db *DB) CreateNotifyTask(ctx context.Context, task *models.NotifyTask) error {
	query := `INSERT INTO notify_tasks (task_type, booking_id, payload, status, created_at, updated_at)
	          VALUES (?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := db.ExecContext(ctx, query,
		task.TaskType, task.BookingID, task.Payload, task.Status, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to create notify task: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	task.ID = id
	task.CreatedAt = now
	task.UpdatedAt = now
	return nil
}

func (db *DB) GetPendingNotifyTasks(ctx context.Context, limit int) ([]models.NotifyTask, error) {
	query := `SELECT id, task_type, booking_id, payload, status, retry_count, last_error, next_retry_at, created_at, updated_at
	          FROM notify_tasks
	          WHERE status = 'pending' OR (status = 'retry' AND next_retry_at <= ?)
	          ORDER BY created_at ASC LIMIT ?`
	rows, err := db.QueryContext(ctx, query, time.Now(), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending notify tasks: %w", err)
	}
	defer rows.Close()

	var tasks []models.NotifyTask
	for rows.Next() {
		var t models.NotifyTask
		err := rows.Scan(
			&t.ID, &t.TaskType, &t.BookingID, &t.Payload, &t.Status,
			&t.RetryCount, &t.LastError, &t.NextRetryAt, &t.CreatedAt, &t.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan notify task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (db *DB) UpdateNotifyTaskStatus(ctx context.Context, id int64, status, lastError string, nextRetryAt *time.Time) error {
	query := `UPDATE notify_tasks
	          SET status = ?, last_error = ?, next_retry_at = ?,
	              retry_count = retry_count + CASE WHEN ? = 'retry' THEN 1 ELSE 0 END,
	              updated_at = ?
	          WHERE id = ?`
	_, err := db.ExecContext(ctx, query, status, lastError, nextRetryAt, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update notify task status: %w", err)
	}
	return nil
}
