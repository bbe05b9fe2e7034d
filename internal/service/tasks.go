package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/geocoder89/taskhub/internal/cache"
	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/observability"
)

type TaskStore interface {
	List(ctx context.Context, userID string, filter task.ListTasksFilter) ([]task.Task, error)
	GetByID(ctx context.Context, userID, id string) (task.Task, error)
	Create(ctx context.Context, t task.Task) (task.Task, error)
	Update(ctx context.Context, userID, id string, req task.UpdateTaskRequest, now time.Time) (task.Task, error)
	Delete(ctx context.Context, userID, id string) error
	ListCategories(ctx context.Context, userID string) ([]string, error)
}

// TaskService is the ownership guard over a TaskStore. userID must come from a
// verified token; it is never read from request payloads.
type TaskService struct {
	repo  TaskStore
	cache cache.Store
	prom  *observability.Prom
	now   func() time.Time
}

func NewTaskService(repo TaskStore, store cache.Store, prom *observability.Prom) *TaskService {
	return &TaskService{
		repo:  repo,
		cache: store,
		prom:  prom,
		now:   time.Now,
	}
}

// List returns the caller's tasks, newest first. A non-empty category filters
// case-insensitively.
func (s *TaskService) List(ctx context.Context, userID, category string) ([]task.Task, error) {
	var filter task.ListTasksFilter
	if category != "" {
		filter.Category = &category
	}

	tasks, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	return tasks, nil
}

func (s *TaskService) Get(ctx context.Context, userID, id string) (task.Task, error) {
	if !isUUID(id) {
		return task.Task{}, task.ErrNotFound
	}

	return s.repo.GetByID(ctx, userID, id)
}

func (s *TaskService) Create(ctx context.Context, userID string, req task.CreateTaskRequest) (task.Task, error) {
	if err := validateStruct(req); err != nil {
		return task.Task{}, err
	}

	t := task.NewFromCreateRequest(userID, req, s.timestamp())

	created, err := s.repo.Create(ctx, t)
	if err != nil {
		return task.Task{}, err
	}

	s.invalidateCategories(ctx, userID)

	return created, nil
}

// Update replaces the mutable fields. Concurrent updates are last-write-wins.
func (s *TaskService) Update(ctx context.Context, userID, id string, req task.UpdateTaskRequest) (task.Task, error) {
	if err := validateStruct(req); err != nil {
		return task.Task{}, err
	}

	if !isUUID(id) {
		return task.Task{}, task.ErrNotFound
	}

	updated, err := s.repo.Update(ctx, userID, id, req, s.timestamp())
	if err != nil {
		return task.Task{}, err
	}

	s.invalidateCategories(ctx, userID)

	return updated, nil
}

func (s *TaskService) Delete(ctx context.Context, userID, id string) error {
	if !isUUID(id) {
		return task.ErrNotFound
	}

	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return err
	}

	s.invalidateCategories(ctx, userID)

	return nil
}

// ListCategories returns the distinct categories among the caller's tasks.
// Cached lists are keyed by the user's categories version, which every write
// bumps, so a list read before a write is never served after it.
func (s *TaskService) ListCategories(ctx context.Context, userID string) ([]string, error) {
	var (
		key       string
		cacheable bool
	)

	if s.cache != nil {
		var version int64
		version, cacheable = s.cache.Version(ctx, categoriesVersionKey(userID))
		if cacheable {
			key = categoriesKey(userID, version)
			if raw, ok := s.cache.Get(ctx, key); ok {
				var cached []string
				if err := json.Unmarshal(raw, &cached); err == nil {
					s.prom.ObserveCache(true)
					return cached, nil
				}
			}
		}
		s.prom.ObserveCache(false)
	}

	categories, err := s.repo.ListCategories(ctx, userID)
	if err != nil {
		return nil, err
	}

	if cacheable {
		raw, err := json.Marshal(categories)
		if err != nil {
			return nil, fmt.Errorf("encode categories: %w", err)
		}
		s.cache.Set(ctx, key, raw)
	}

	return categories, nil
}

func (s *TaskService) invalidateCategories(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}

	s.cache.Bump(ctx, categoriesVersionKey(userID))
	slog.Default().DebugContext(ctx, "categories cache invalidated", "user_id", userID)
}

// timestamps are stored with microsecond precision, matching timestamptz
func (s *TaskService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func categoriesVersionKey(userID string) string {
	return "categories:" + userID
}

func categoriesKey(userID string, version int64) string {
	return fmt.Sprintf("categories:%s:%d", userID, version)
}
