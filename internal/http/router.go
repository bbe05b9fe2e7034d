package http

import (
	"log/slog"

	"github.com/geocoder89/taskhub/internal/config"
	"github.com/geocoder89/taskhub/internal/http/handlers"
	"github.com/geocoder89/taskhub/internal/http/middlewares"
	"github.com/geocoder89/taskhub/internal/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// Deps are the wired services the router mounts. Gatherer and Prom are
// optional; /metrics is only exposed when Gatherer is set.
type Deps struct {
	Auth     *AuthDeps
	Tasks    handlers.TaskManager
	Health   map[string]handlers.Pinger
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
}

type AuthDeps struct {
	Workflow handlers.AuthWorkflow
	Verifier middlewares.TokenVerifier
}

func NewRouter(log *slog.Logger, cfg config.Config, deps Deps) *gin.Engine {
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// middleware

	r.Use(gin.CustomRecovery(func(ctx *gin.Context, recovered any) {
		log.ErrorContext(ctx.Request.Context(), "panic recovered", "panic", recovered, "route", ctx.FullPath())
		handlers.RespondInternal(ctx, "Internal server error")
	}))
	r.Use(middlewares.RequestID())
	r.Use(otelgin.Middleware("taskhub"))
	if deps.Prom != nil {
		r.Use(deps.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(cfg.CORSAllowedOrigins))

	// health
	h := handlers.NewHealthHandler(deps.Health)
	r.GET("/healthz", h.Healthz)
	r.GET("/readyz", h.Readyz)

	if deps.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	// body checks run after authentication so tokenless requests get a 401
	var bodyChecks []gin.HandlerFunc
	if cfg.MaxBodyBytes > 0 {
		bodyChecks = append(bodyChecks, middlewares.MaxBodyBytes(cfg.MaxBodyBytes))
	}
	bodyChecks = append(bodyChecks, middlewares.RequireJSON())

	api := r.Group("/api")

	authHandler := handlers.NewAuthHandler(deps.Auth.Workflow)
	authGroup := api.Group("/auth", bodyChecks...)
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)

	authMW := middlewares.NewAuthMiddleware(deps.Auth.Verifier)
	tasksHandler := handlers.NewTasksHandler(deps.Tasks)

	tasks := api.Group("/tasks", append([]gin.HandlerFunc{authMW.RequireAuth()}, bodyChecks...)...)
	{
		tasks.GET("", tasksHandler.ListTasks)
		tasks.POST("", tasksHandler.CreateTask)
		// registered before :id; gin prefers the static segment
		tasks.GET("/categories", tasksHandler.ListCategories)
		tasks.GET("/:id", tasksHandler.GetTask)
		tasks.PUT("/:id", tasksHandler.UpdateTask)
		tasks.DELETE("/:id", tasksHandler.DeleteTask)
	}

	r.NoRoute(func(ctx *gin.Context) {
		handlers.RespondNotFound(ctx, "Route not found")
	})

	return r
}
