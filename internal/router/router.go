package router

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"task-tracker/backend/internal/config"
	"task-tracker/backend/internal/handlers"
	"task-tracker/backend/internal/middleware"
	"task-tracker/backend/internal/monitoring"
	"task-tracker/backend/internal/services"
)

type Dependencies struct {
	Config          *config.Config
	Logger          *logrus.Logger
	AuthService     services.AuthService
	RegisterService services.RegisterService
	PersonService   services.PersonService
	TaskService     services.TaskService
	Metrics         *monitoring.Metrics
	Health          *monitoring.HealthChecker
}

func corsConfig(cfg *config.Config) cors.Config {
	c := cors.Config{
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders: []string{middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	origins := cfg.Server.AllowedOrigins
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		c.AllowAllOrigins = true
	} else {
		c.AllowOrigins = origins
		c.AllowCredentials = true
	}
	return c
}

// New builds the HTTP engine with every route mounted.
func New(deps Dependencies) *gin.Engine {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.Default()
	}
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if deps.Metrics == nil {
		deps.Metrics = monitoring.NewMetrics()
	}
	if deps.Health == nil {
		deps.Health = monitoring.NewHealthChecker(deps.Metrics)
	}

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.RecoveryWithLog(deps.Logger),
		middleware.RequestLogger(deps.Logger),
		cors.New(corsConfig(cfg)),
		deps.Metrics.Middleware(),
	)
	monitoring.RegisterRoutes(r, deps.Metrics, deps.Health)

	api := r.Group("/")
	if cfg.RateLimit.Enabled {
		limiter := middleware.NewRateLimiter(cfg.RateLimit.RequestsPerMin, cfg.RateLimit.BurstSize, cfg.RateLimit.CleanupInterval)
		api.Use(middleware.RateLimit(limiter))
	}

	authHandler := handlers.NewAuthHandler(deps.AuthService, deps.Logger)
	registerHandler := handlers.NewRegisterHandler(deps.RegisterService, deps.Logger)
	personHandler := handlers.NewPersonHandler(deps.PersonService, deps.Logger)
	taskHandler := handlers.NewTaskHandler(deps.TaskService, deps.Logger)
	authenticate := middleware.Authenticate(deps.AuthService)

	api.POST("/auth", authHandler.Token)
	api.POST("/registration", registerHandler.Registration)
	if cfg.Auth.AdminRegistrationOpen {
		api.POST("/admin/registration", registerHandler.AdminRegistration)
	} else {
		api.POST("/admin/registration", authenticate, middleware.AdminOnly(), registerHandler.AdminRegistration)
	}

	v1 := api.Group("/v1", authenticate)
	{
		v1.GET("/persons/me", personHandler.Me)

		tasks := v1.Group("/tasks")
		tasks.POST("", taskHandler.CreateTask)
		tasks.GET("", taskHandler.ListTasks)
		tasks.GET("/:id", taskHandler.GetTask)
		tasks.PUT("/:id", taskHandler.UpdateTask)
		tasks.DELETE("/:id", taskHandler.DeleteTask)
		tasks.GET("/author/:id", taskHandler.ListTasksByAuthor)
		tasks.GET("/executor/:id", taskHandler.ListTasksByExecutor)
		tasks.PUT("/priority/:id", taskHandler.ChangePriority)
		tasks.PUT("/status/:id", taskHandler.ChangeStatus)
		tasks.PUT("/comment/:id", taskHandler.AddComment)
		tasks.PUT("/executor/:id", taskHandler.AddExecutors)
	}

	return r
}
