package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasker-api/internal/domain"
	"github.com/phrazzld/tasker-api/internal/platform/logger"
	"github.com/phrazzld/tasker-api/internal/store"
)

// PostgresTaskStore implements the store.TaskStore interface
// using a PostgreSQL database as the storage backend.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a new PostgreSQL implementation of the TaskStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// Ensure PostgresTaskStore implements store.TaskStore interface
var _ store.TaskStore = (*PostgresTaskStore)(nil)

const taskColumns = `id, user_id, title, description, status, deadline, reminder_sent_at, created_at, updated_at`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner, extra ...any) (*domain.Task, error) {
	var (
		task     domain.Task
		status   string
		reminder sql.NullTime
	)
	dest := append([]any{
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&status,
		&task.Deadline,
		&reminder,
		&task.CreatedAt,
		&task.UpdatedAt,
	}, extra...)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}

	task.Status = domain.TaskStatus(status)
	task.Deadline = task.Deadline.UTC()
	task.CreatedAt = task.CreatedAt.UTC()
	task.UpdatedAt = task.UpdatedAt.UTC()
	if reminder.Valid {
		t := reminder.Time.UTC()
		task.ReminderSentAt = &t
	}
	return &task, nil
}

// Create implements store.TaskStore.Create
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		string(task.Status),
		task.Deadline,
		task.ReminderSentAt,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()),
			slog.String("user_id", task.UserID.String()))
		return fmt.Errorf("failed to create task: %w", MapError(err))
	}

	log.Info("task created successfully",
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", task.UserID.String()))
	return nil
}

// GetByID implements store.TaskStore.GetByID
func (s *PostgresTaskStore) GetByID(ctx context.Context, userID, id uuid.UUID) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND user_id = $2`
	task, err := scanTask(s.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found",
				slog.String("task_id", id.String()),
				slog.String("user_id", userID.String()))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, fmt.Errorf("failed to get task: %w", MapError(err))
	}
	return task, nil
}

// escapeLike escapes LIKE metacharacters so the search text matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// buildListQuery renders the filtered listing query and its arguments.
func buildListQuery(userID uuid.UUID, filter store.TaskFilter) (string, []any) {
	var b strings.Builder
	args := []any{userID}
	next := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	b.WriteString(`SELECT ` + taskColumns + ` FROM tasks WHERE user_id = $1`)

	if filter.Status == nil {
		b.WriteString(` AND status <> '` + string(domain.TaskStatusExpired) + `'`)
	} else {
		b.WriteString(` AND status = ` + next(string(*filter.Status)))
	}

	if filter.Day != nil {
		start, end := domain.DayBounds(*filter.Day)
		b.WriteString(` AND deadline >= ` + next(start))
		b.WriteString(` AND deadline < ` + next(end))
	}

	if search := strings.TrimSpace(filter.Search); search != "" {
		p := next("%" + escapeLike(search) + "%")
		b.WriteString(` AND (title ILIKE ` + p + ` ESCAPE '\' OR description ILIKE ` + p + ` ESCAPE '\')`)
	}

	b.WriteString(` ORDER BY deadline ASC, created_at ASC`)
	return b.String(), args
}

// List implements store.TaskStore.List
func (s *PostgresTaskStore) List(
	ctx context.Context,
	userID uuid.UUID,
	filter store.TaskFilter,
) ([]*domain.Task, error) {
	query, args := buildListQuery(userID, filter)
	return s.query(ctx, "list tasks", query, args...)
}

// ListFinished implements store.TaskStore.ListFinished
func (s *PostgresTaskStore) ListFinished(ctx context.Context, userID uuid.UUID) ([]*domain.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = $1 AND status IN ($2, $3)
		ORDER BY deadline ASC, created_at ASC
	`
	return s.query(ctx, "list finished tasks", query,
		userID, string(domain.TaskStatusComplete), string(domain.TaskStatusExpired))
}

func (s *PostgresTaskStore) query(ctx context.Context, op, query string, args ...any) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to "+op, slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to %s: %w", op, MapError(err))
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row", slog.String("error", err.Error()))
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating task rows", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	return tasks, nil
}

// Update implements store.TaskStore.Update
// The write only applies while the stored row is not EXPIRED, so an edit
// racing the sweeper cannot revive an expired task. Moving the deadline
// re-arms the reminder.
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE tasks
		SET title = $1, description = $2, status = $3, deadline = $4, updated_at = $5,
		    reminder_sent_at = CASE WHEN deadline = $4 THEN reminder_sent_at ELSE NULL END
		WHERE id = $6 AND user_id = $7 AND status <> $8
	`
	result, err := s.db.ExecContext(ctx, query,
		task.Title,
		task.Description,
		string(task.Status),
		task.Deadline,
		task.UpdatedAt,
		task.ID,
		task.UserID,
		string(domain.TaskStatusExpired),
	)
	if err != nil {
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return fmt.Errorf("failed to update task: %w", MapError(err))
	}

	if err := CheckRowsAffected(result, store.ErrTaskLocked); err != nil {
		if errors.Is(err, store.ErrTaskLocked) {
			return s.classifyMiss(ctx, task.UserID, task.ID)
		}
		return err
	}

	log.Debug("task updated",
		slog.String("task_id", task.ID.String()),
		slog.String("status", string(task.Status)))
	return nil
}

// Delete implements store.TaskStore.Delete
func (s *PostgresTaskStore) Delete(ctx context.Context, userID, id uuid.UUID, now time.Time) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		DELETE FROM tasks
		WHERE id = $1 AND user_id = $2 AND deadline > $3 AND status <> $4
	`
	result, err := s.db.ExecContext(ctx, query, id, userID, now.UTC(), string(domain.TaskStatusExpired))
	if err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return fmt.Errorf("failed to delete task: %w", MapError(err))
	}

	if err := CheckRowsAffected(result, store.ErrTaskLocked); err != nil {
		if errors.Is(err, store.ErrTaskLocked) {
			return s.classifyMiss(ctx, userID, id)
		}
		return err
	}

	log.Info("task deleted",
		slog.String("task_id", id.String()),
		slog.String("user_id", userID.String()))
	return nil
}

// classifyMiss explains why a conditional write touched no rows: the owner
// has no such task, or the task exists but its state refused the write.
func (s *PostgresTaskStore) classifyMiss(ctx context.Context, userID, id uuid.UUID) error {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1 AND user_id = $2)`,
		id, userID,
	).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check task existence: %w", MapError(err))
	}
	if !exists {
		return store.ErrTaskNotFound
	}
	return store.ErrTaskLocked
}

// ExpireOverdue implements store.TaskStore.ExpireOverdue
func (s *PostgresTaskStore) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE tasks
		SET status = $1, updated_at = $2
		WHERE status = $3 AND deadline <= $2
	`
	result, err := s.db.ExecContext(ctx, query,
		string(domain.TaskStatusExpired),
		now.UTC(),
		string(domain.TaskStatusActive),
	)
	if err != nil {
		log.Error("failed to expire overdue tasks", slog.String("error", err.Error()))
		return 0, fmt.Errorf("failed to expire overdue tasks: %w", MapError(err))
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n, nil
}

// ClaimDueSoon implements store.TaskStore.ClaimDueSoon
// Claiming and reading happen in one statement so concurrent sweepers never
// remind the same task twice.
func (s *PostgresTaskStore) ClaimDueSoon(ctx context.Context, now, until time.Time) ([]store.DueTask, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE tasks t
		SET reminder_sent_at = $1
		FROM users u
		WHERE u.id = t.user_id
		  AND t.status = $3
		  AND t.deadline > $1
		  AND t.deadline <= $2
		  AND t.reminder_sent_at IS NULL
		RETURNING t.id, t.user_id, t.title, t.description, t.status, t.deadline,
		          t.reminder_sent_at, t.created_at, t.updated_at, u.email, u.first_name
	`
	rows, err := s.db.QueryContext(ctx, query, now.UTC(), until.UTC(), string(domain.TaskStatusActive))
	if err != nil {
		log.Error("failed to claim due tasks", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to claim due tasks: %w", MapError(err))
	}
	defer func() { _ = rows.Close() }()

	due := make([]store.DueTask, 0)
	for rows.Next() {
		var d store.DueTask
		task, err := scanTask(rows, &d.Email, &d.FirstName)
		if err != nil {
			return nil, fmt.Errorf("failed to scan due task: %w", err)
		}
		d.Task = task
		due = append(due, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to claim due tasks: %w", err)
	}
	return due, nil
}

// WithTx implements store.TaskStore.WithTx
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{
		db:     tx,
		logger: s.logger,
	}
}
