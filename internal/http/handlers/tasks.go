package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/taskhub/internal/config"
	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/http/middlewares"
	"github.com/gin-gonic/gin"
)

type TaskManager interface {
	List(ctx context.Context, userID, category string) ([]task.Task, error)
	Get(ctx context.Context, userID, id string) (task.Task, error)
	Create(ctx context.Context, userID string, req task.CreateTaskRequest) (task.Task, error)
	Update(ctx context.Context, userID, id string, req task.UpdateTaskRequest) (task.Task, error)
	Delete(ctx context.Context, userID, id string) error
	ListCategories(ctx context.Context, userID string) ([]string, error)
}

const taskTimeout = 2 * time.Second

type TasksHandler struct {
	tasks TaskManager
}

func NewTasksHandler(tasks TaskManager) *TasksHandler {
	return &TasksHandler{tasks: tasks}
}

// callerID reads the identity RequireAuth stored; it never trusts the payload.
func callerID(ctx *gin.Context) (string, bool) {
	userID, ok := middlewares.UserIDFromContext(ctx)

	if !ok || userID == "" {
		RespondUnAuthorized(ctx, CodeUnauthorized, "Missing identity")
		return "", false
	}

	return userID, true
}

func (h *TasksHandler) ListTasks(ctx *gin.Context) {
	userID, ok := callerID(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), taskTimeout)
	defer cancel()

	tasks, err := h.tasks.List(cctx, userID, ctx.Query("category"))

	if err != nil {
		respondServiceError(ctx, err, "Could not list tasks")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, tasks)
}

func (h *TasksHandler) GetTask(ctx *gin.Context) {
	userID, ok := callerID(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), taskTimeout)
	defer cancel()

	t, err := h.tasks.Get(cctx, userID, ctx.Param("id"))

	if err != nil {
		respondServiceError(ctx, err, "Could not fetch task")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, t)
}

func (h *TasksHandler) CreateTask(ctx *gin.Context) {
	userID, ok := callerID(ctx)
	if !ok {
		return
	}

	var req task.CreateTaskRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), taskTimeout)
	defer cancel()

	t, err := h.tasks.Create(cctx, userID, req)

	if err != nil {
		respondServiceError(ctx, err, "Could not create task")
		return
	}

	ctx.Header("Location", "/api/tasks/"+t.ID)
	ctx.JSON(http.StatusCreated, t)
}

func (h *TasksHandler) UpdateTask(ctx *gin.Context) {
	userID, ok := callerID(ctx)
	if !ok {
		return
	}

	var req task.UpdateTaskRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), taskTimeout)
	defer cancel()

	t, err := h.tasks.Update(cctx, userID, ctx.Param("id"), req)

	if err != nil {
		respondServiceError(ctx, err, "Could not update task")
		return
	}

	ctx.JSON(http.StatusOK, t)
}

func (h *TasksHandler) DeleteTask(ctx *gin.Context) {
	userID, ok := callerID(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), taskTimeout)
	defer cancel()

	err := h.tasks.Delete(cctx, userID, ctx.Param("id"))

	if err != nil {
		respondServiceError(ctx, err, "Could not delete task")
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *TasksHandler) ListCategories(ctx *gin.Context) {
	userID, ok := callerID(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), taskTimeout)
	defer cancel()

	categories, err := h.tasks.ListCategories(cctx, userID)

	if err != nil {
		respondServiceError(ctx, err, "Could not list categories")
		return
	}

	ctx.JSON(http.StatusOK, categories)
}
