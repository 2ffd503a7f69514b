// Package app assembles the configured components into a runnable server.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hashicorp/go-multierror"
	"github.com/sirupsen/logrus"

	"task-tracker/backend/internal/cache"
	"task-tracker/backend/internal/config"
	"task-tracker/backend/internal/database"
	"task-tracker/backend/internal/monitoring"
	"task-tracker/backend/internal/repositories"
	"task-tracker/backend/internal/router"
	"task-tracker/backend/internal/services"
)

type App struct {
	Config   *config.Config
	Logger   *logrus.Logger
	Pool     *database.DatabasePool
	Cache    cache.Cache
	Register services.RegisterService
	Metrics  *monitoring.Metrics
	Health   *monitoring.HealthChecker
	Handler  *gin.Engine
}

// New opens the database, migrates the schema and wires services, cache and
// routes. The caller owns the returned App and must Close it.
func New(cfg *config.Config, logger *logrus.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	pool, err := database.NewDatabasePool(database.PoolConfigFrom(cfg))
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := pool.Migrate(); err != nil {
		pool.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	a := &App{
		Config:  cfg,
		Logger:  logger,
		Pool:    pool,
		Metrics: monitoring.NewMetrics(),
	}
	a.Health = monitoring.NewHealthChecker(a.Metrics)
	a.Health.Register("database", pool.HealthContext)

	persons := repositories.NewPersonRepository(pool.DB)
	tasks := repositories.NewTaskRepository(pool.DB)

	authService := services.NewAuthService(persons, services.AuthOptions{
		Secret: cfg.Auth.JWTSecret,
		Issuer: cfg.Auth.Issuer,
		TTL:    cfg.Auth.AccessTokenTTL,
	}, logger)
	a.Register = services.NewRegisterService(pool.DB, persons, cfg.Auth.BCryptCost, logger)

	var taskService services.TaskService = services.NewTaskService(pool.DB, tasks, persons, logger)
	if cfg.Cache.Enabled {
		a.Cache = a.newCache()
		a.Health.RegisterOptional("cache", a.Cache.Health)
		taskService = services.NewCachedTaskService(taskService, a.Cache, cfg.Cache.TaskTTL, cfg.Cache.PageTTL, logger)
	}

	a.Handler = router.New(router.Dependencies{
		Config:          cfg,
		Logger:          logger,
		AuthService:     authService,
		RegisterService: a.Register,
		PersonService:   services.NewPersonService(persons),
		TaskService:     taskService,
		Metrics:         a.Metrics,
		Health:          a.Health,
	})

	return a, nil
}

func (a *App) newCache() cache.Cache {
	var remote cache.Store
	if a.Config.Redis.Enabled {
		remote = cache.NewRedisCache(cache.RedisOptionsFrom(a.Config))
		a.Logger.WithField("addr", a.Config.GetRedisAddr()).Info("redis cache enabled")
	}
	return cache.NewMultiLevelCache(remote, cache.Options{
		LocalTTL: a.Config.Cache.LocalTTL,
		Observer: a.Metrics,
		Logger:   a.Logger,
	})
}

// EnsureAdmin creates the configured first admin when the store is empty.
func (a *App) EnsureAdmin(ctx context.Context) error {
	admin, err := a.Register.EnsureAdmin(ctx, a.Config.Auth.AdminEmail, a.Config.Auth.AdminPassword)
	if err != nil {
		return err
	}
	if admin == nil && a.Config.Auth.AdminEmail != "" {
		a.Logger.Debug("persons exist, skipping admin bootstrap")
	}
	return nil
}

// Serve runs the HTTP server until ctx is cancelled, then drains in-flight
// requests for up to shutdownTimeout.
func (a *App) Serve(ctx context.Context, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         a.Config.GetServerAddr(),
		Handler:      a.Handler,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.WithField("addr", srv.Addr).Info("server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	a.Logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

// Close releases the cache and the database, reporting every failure.
func (a *App) Close() error {
	var result *multierror.Error
	if a.Cache != nil {
		if err := a.Cache.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close cache: %w", err))
		}
	}
	if a.Pool != nil {
		if err := a.Pool.Close(); err != nil {
			result = multierror.Append(result, fmt.Errorf("close database: %w", err))
		}
	}
	return result.ErrorOrNil()
}
