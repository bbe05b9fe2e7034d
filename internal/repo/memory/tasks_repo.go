package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/geocoder89/taskhub/internal/domain/task"
)

type TasksRepo struct {
	mu    sync.RWMutex
	items map[string]task.Task // keyed by task id
}

func NewTasksRepo() *TasksRepo {
	return &TasksRepo{
		items: make(map[string]task.Task),
	}
}

func (r *TasksRepo) List(ctx context.Context, userID string, filter task.ListTasksFilter) ([]task.Task, error) {
	r.mu.RLock()
	out := make([]task.Task, 0)
	for _, t := range r.items {
		if t.UserID != userID {
			continue
		}
		if filter.Category != nil && !strings.EqualFold(t.Category, *filter.Category) {
			continue
		}
		out = append(out, t)
	}
	r.mu.RUnlock()

	// newest first, id as tie breaker to keep the order stable
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})

	return out, nil
}

func (r *TasksRepo) GetByID(ctx context.Context, userID, id string) (task.Task, error) {
	r.mu.RLock()
	t, ok := r.items[id]
	r.mu.RUnlock()

	if !ok || t.UserID != userID {
		return task.Task{}, task.ErrNotFound
	}

	return t, nil
}

func (r *TasksRepo) Create(ctx context.Context, t task.Task) (task.Task, error) {
	if err := ctx.Err(); err != nil {
		return task.Task{}, err
	}

	r.mu.Lock()
	r.items[t.ID] = t
	r.mu.Unlock()

	return t, nil
}

func (r *TasksRepo) Update(ctx context.Context, userID, id string, req task.UpdateTaskRequest, now time.Time) (task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.items[id]
	if !ok || t.UserID != userID {
		return task.Task{}, task.ErrNotFound
	}

	t.Title = req.Title
	t.Description = req.Description
	t.Category = req.Category
	t.IsCompleted = req.IsCompleted
	t.UpdatedAt = now

	r.items[id] = t

	return t, nil
}

func (r *TasksRepo) Delete(ctx context.Context, userID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.items[id]
	if !ok || t.UserID != userID {
		return task.ErrNotFound
	}

	delete(r.items, id)

	return nil
}

func (r *TasksRepo) ListCategories(ctx context.Context, userID string) ([]string, error) {
	seen := make(map[string]struct{})

	r.mu.RLock()
	for _, t := range r.items {
		if t.UserID == userID {
			seen[t.Category] = struct{}{}
		}
	}
	r.mu.RUnlock()

	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)

	return out, nil
}
