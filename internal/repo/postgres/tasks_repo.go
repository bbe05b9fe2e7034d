package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const taskColumns = `id, title, description, is_completed, category, created_at, updated_at, user_id`

// TasksRepo scopes every statement by user_id; rows owned by someone else
// behave exactly like missing rows.
type TasksRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewTasksRepo(pool *pgxpool.Pool, prom *observability.Prom) *TasksRepo {
	return &TasksRepo{
		pool: pool,
		prom: prom,
	}
}

func scanTask(row pgx.Row, t *task.Task) error {
	return row.Scan(&t.ID, &t.Title, &t.Description, &t.IsCompleted, &t.Category, &t.CreatedAt, &t.UpdatedAt, &t.UserID)
}

func (r *TasksRepo) List(ctx context.Context, userID string, filter task.ListTasksFilter) ([]task.Task, error) {
	conds := []string{"user_id = $1"}
	args := []interface{}{userID}

	if filter.Category != nil {
		conds = append(conds, fmt.Sprintf("lower(category) = lower($%d)", len(args)+1))
		args = append(args, *filter.Category)
	}

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE ` + strings.Join(conds, " AND ") +
		` ORDER BY created_at DESC, id DESC`

	var rows pgx.Rows
	err := r.prom.ObserveDB("tasks.list", func() error {
		var qerr error
		rows, qerr = r.pool.Query(ctx, query, args...)
		return qerr
	})
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	out := make([]task.Task, 0)

	for rows.Next() {
		var t task.Task
		if err := scanTask(rows, &t); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		out = append(out, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}

	return out, nil
}

func (r *TasksRepo) GetByID(ctx context.Context, userID, id string) (task.Task, error) {
	var t task.Task

	err := r.prom.ObserveDB("tasks.get_by_id", func() error {
		return scanTask(r.pool.QueryRow(ctx,
			`SELECT `+taskColumns+` FROM tasks WHERE id = $1 AND user_id = $2`,
			id, userID,
		), &t)
	})

	if err != nil {
		return task.Task{}, notFoundOr(err, "get task")
	}

	return t, nil
}

func (r *TasksRepo) Create(ctx context.Context, t task.Task) (task.Task, error) {
	err := r.prom.ObserveDB("tasks.create", func() error {
		_, e := r.pool.Exec(ctx,
			`INSERT INTO tasks (`+taskColumns+`) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			t.ID, t.Title, t.Description, t.IsCompleted, t.Category, t.CreatedAt, t.UpdatedAt, t.UserID,
		)
		return e
	})

	if err != nil {
		return task.Task{}, fmt.Errorf("insert task: %w", err)
	}

	return t, nil
}

func (r *TasksRepo) Update(ctx context.Context, userID, id string, req task.UpdateTaskRequest, now time.Time) (task.Task, error) {
	var t task.Task

	err := r.prom.ObserveDB("tasks.update", func() error {
		return scanTask(r.pool.QueryRow(
			ctx,
			`UPDATE tasks
				SET title = $3,
					description = $4,
					category = $5,
					is_completed = $6,
					updated_at = $7
			WHERE id = $1 AND user_id = $2
			RETURNING `+taskColumns,
			id,
			userID,
			req.Title,
			req.Description,
			req.Category,
			req.IsCompleted,
			now,
		), &t)
	})

	if err != nil {
		return task.Task{}, notFoundOr(err, "update task")
	}

	return t, nil
}

func (r *TasksRepo) Delete(ctx context.Context, userID, id string) error {
	var tag pgconn.CommandTag

	err := r.prom.ObserveDB("tasks.delete", func() error {
		var e error
		tag, e = r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, userID)
		return e
	})

	if err != nil {
		return notFoundOr(err, "delete task")
	}

	// nothing owned by this user matched
	if tag.RowsAffected() == 0 {
		return task.ErrNotFound
	}

	return nil
}

func (r *TasksRepo) ListCategories(ctx context.Context, userID string) ([]string, error) {
	var rows pgx.Rows

	err := r.prom.ObserveDB("tasks.list_categories", func() error {
		var qerr error
		rows, qerr = r.pool.Query(ctx,
			`SELECT DISTINCT category COLLATE "C" AS category FROM tasks WHERE user_id = $1 ORDER BY 1`,
			userID,
		)
		return qerr
	})
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	out, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}

	if out == nil {
		out = []string{}
	}

	return out, nil
}

// notFoundOr maps a missing row, or an id that is not a valid uuid, to task.ErrNotFound.
func notFoundOr(err error, op string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return task.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "22P02" {
		return task.ErrNotFound
	}

	return fmt.Errorf("%s: %w", op, err)
}
