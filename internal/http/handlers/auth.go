package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/geocoder89/taskhub/internal/config"
	"github.com/geocoder89/taskhub/internal/domain/user"
	"github.com/geocoder89/taskhub/internal/service"
	"github.com/gin-gonic/gin"
)

type AuthWorkflow interface {
	Register(ctx context.Context, req user.RegisterRequest) (service.AuthResult, error)
	Login(ctx context.Context, req user.LoginRequest) (service.AuthResult, error)
}

type AuthHandler struct {
	auth AuthWorkflow
}

func NewAuthHandler(auth AuthWorkflow) *AuthHandler {
	return &AuthHandler{auth: auth}
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	res, err := h.auth.Register(cctx, req)

	if err != nil {
		respondServiceError(ctx, err, "Could not create user")
		return
	}

	ctx.JSON(http.StatusCreated, res)
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// short timeout for DB lookup
	cctx, cancel := config.WithTimeoutFrom(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	res, err := h.auth.Login(cctx, req)

	if err != nil {
		respondServiceError(ctx, err, "Could not log in")
		return
	}

	ctx.JSON(http.StatusOK, res)
}
