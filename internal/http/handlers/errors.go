package handlers

import (
	"errors"
	"log/slog"

	"github.com/geocoder89/taskhub/internal/domain/task"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/service"
	"github.com/gin-gonic/gin"
)

// respondServiceError maps service errors onto the API envelope. Anything
// unrecognised is logged and surfaced as a 500 without internal detail.
func respondServiceError(ctx *gin.Context, err error, internalMsg string) {
	var validationErr *service.ValidationError

	switch {
	case errors.As(err, &validationErr):
		RespondValidation(ctx, validationErr)
	case errors.Is(err, user.ErrUsernameTaken):
		RespondConflict(ctx, CodeUsernameTaken, "Username already exists.")
	case errors.Is(err, service.ErrInvalidCredentials):
		RespondUnAuthorized(ctx, CodeInvalidCredentials, "Invalid username or password.")
	case errors.Is(err, task.ErrNotFound):
		RespondNotFound(ctx, "Task not found")
	default:
		slog.Default().ErrorContext(ctx.Request.Context(), internalMsg,
			"err", err,
			"route", ctx.FullPath(),
		)
		RespondInternal(ctx, internalMsg)
	}
}
