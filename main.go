package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"task-tracker/backend/internal/app"
	"task-tracker/backend/internal/config"
	"task-tracker/backend/internal/database"
	"task-tracker/backend/internal/logging"
	"task-tracker/backend/internal/services"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := newCLI().Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("task-tracker exited with error")
	}
}

func newCLI() *cli.App {
	return &cli.App{
		Name:  "task-tracker",
		Usage: "task tracking HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML configuration file applied beneath the environment",
				EnvVars: []string{"CONFIG_FILE"},
			},
			&cli.StringSliceFlag{
				Name:  "env-file",
				Usage: "dotenv files to load before reading the environment",
				Value: cli.NewStringSlice(".env"),
			},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP server",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "create or update the database schema and exit",
				Action: migrate,
			},
			{
				Name:  "create-admin",
				Usage: "register an ADMIN account",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "email", Required: true},
					&cli.StringFlag{Name: "password", Required: true, EnvVars: []string{"ADMIN_PASSWORD"}},
					&cli.StringFlag{Name: "first-name", Value: "Admin"},
					&cli.StringFlag{Name: "last-name", Value: "Admin"},
				},
				Action: createAdmin,
			},
		},
	}
}

func loadRuntime(c *cli.Context) (*config.Config, *logrus.Logger, error) {
	if err := config.LoadDotEnv(c.StringSlice("env-file")...); err != nil {
		return nil, nil, err
	}
	if path := c.String("config"); path != "" {
		if err := os.Setenv("CONFIG_FILE", path); err != nil {
			return nil, nil, err
		}
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, logging.New(cfg.Log), nil
}

func serve(c *cli.Context) error {
	cfg, logger, err := loadRuntime(c)
	if err != nil {
		return err
	}

	application, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := application.Close(); err != nil {
			logger.WithError(err).Error("failed to release resources")
		}
	}()

	if err := application.EnsureAdmin(c.Context); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return application.Serve(ctx, shutdownTimeout)
}

func migrate(c *cli.Context) error {
	cfg, logger, err := loadRuntime(c)
	if err != nil {
		return err
	}

	pool, err := database.NewDatabasePool(database.PoolConfigFrom(cfg))
	if err != nil {
		return err
	}
	defer pool.Close()

	if err := pool.Migrate(); err != nil {
		return err
	}
	logger.WithField("driver", cfg.Database.Driver).Info("schema is up to date")
	return nil
}

func createAdmin(c *cli.Context) error {
	cfg, logger, err := loadRuntime(c)
	if err != nil {
		return err
	}

	application, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	defer application.Close()

	ctx, cancel := context.WithTimeout(c.Context, 30*time.Second)
	defer cancel()

	admin, err := application.Register.RegisterAdmin(ctx, services.RegistrationRequest{
		FirstName:      c.String("first-name"),
		LastName:       c.String("last-name"),
		Email:          c.String("email"),
		Password:       c.String("password"),
		RepeatPassword: c.String("password"),
	})
	if err != nil {
		return err
	}

	logger.WithFields(logrus.Fields{"id": admin.ID, "email": admin.Email}).Info("admin created")
	return nil
}
